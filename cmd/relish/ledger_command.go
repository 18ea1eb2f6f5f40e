package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"relish/internal/catalog"
)

const defaultLedgerLimit = 20

// ledgerEntryView is the JSON shape of one ledger entry. The store model
// carries no serialization tags; presentation belongs here.
type ledgerEntryView struct {
	ID         string    `json:"id"`
	ChangeID   string    `json:"change_id"`
	EntityID   int64     `json:"entity_id"`
	Category   string    `json:"category"`
	Action     string    `json:"action"`
	Field      string    `json:"field"`
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	Confidence float64   `json:"confidence"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	var changeFlag string
	var actionFlag string
	var limitFlag int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show settled cleanup changes, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var actions []catalog.Action
			if value := strings.TrimSpace(actionFlag); value != "" {
				action, ok := catalog.ParseAction(value)
				if !ok {
					return fmt.Errorf("unknown action %q (applied, rejected, failed)", value)
				}
				actions = append(actions, action)
			}
			return ctx.withStore(func(store *catalog.Store) error {
				var entries []*catalog.LedgerEntry
				var err error
				if change := strings.TrimSpace(changeFlag); change != "" {
					entries, err = store.EntriesForChange(cmd.Context(), change)
				} else {
					entries, err = store.ListLedgerEntries(cmd.Context(), limitFlag, actions...)
				}
				if err != nil {
					return err
				}

				if jsonOut {
					return writeJSON(cmd, buildLedgerViews(entries))
				}

				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Ledger is empty")
					return nil
				}
				tbl := renderTable(
					[]string{"Created", "Change", "Action", "Entity", "Field", "Old", "New"},
					buildLedgerRows(entries),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(out, tbl)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&changeFlag, "change", "", "Show the full history of one change ID")
	cmd.Flags().StringVar(&actionFlag, "action", "", "Only list entries settled with this action")
	cmd.Flags().IntVar(&limitFlag, "limit", defaultLedgerLimit, "Maximum number of entries to list")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit entries as JSON")
	return cmd
}

func buildLedgerRows(entries []*catalog.LedgerEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{
			entry.CreatedAt.UTC().Format(time.RFC3339),
			entry.ChangeID,
			string(entry.Action),
			strconv.FormatInt(entry.EntityID, 10),
			entry.Field,
			entry.OldValue,
			entry.NewValue,
		})
	}
	return rows
}

func buildLedgerViews(entries []*catalog.LedgerEntry) []ledgerEntryView {
	views := make([]ledgerEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, ledgerEntryView{
			ID:         entry.ID,
			ChangeID:   entry.ChangeID,
			EntityID:   entry.EntityID,
			Category:   string(entry.Category),
			Action:     string(entry.Action),
			Field:      entry.Field,
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			Confidence: entry.Confidence,
			Note:       entry.Note,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return views
}
