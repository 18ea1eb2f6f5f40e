package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"relish/internal/catalog"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show catalog counts and ledger totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *catalog.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}

				if jsonOut {
					byCategory := make(map[string]int, len(health.ByCategory))
					for category, count := range health.ByCategory {
						byCategory[string(category)] = count
					}
					byAction := make(map[string]int, len(health.ByAction))
					for action, count := range health.ByAction {
						byAction[string(action)] = count
					}
					return writeJSON(cmd, struct {
						Catalog    string         `json:"catalog"`
						Areas      int            `json:"areas"`
						Entities   int            `json:"entities"`
						ByCategory map[string]int `json:"by_category"`
						Ledger     int            `json:"ledger_entries"`
						ByAction   map[string]int `json:"by_action"`
					}{store.Path(), health.Areas, health.Entities, byCategory, health.LedgerTotal, byAction})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Catalog: %s\n", store.Path())
				fmt.Fprintf(out, "Areas: %d\n", health.Areas)

				if health.Entities == 0 {
					fmt.Fprintln(out, "Catalog is empty")
				} else {
					tbl := renderTable(
						[]string{"Category", "Count"},
						buildCategoryRows(health.ByCategory),
						[]columnAlignment{alignLeft, alignRight},
					)
					fmt.Fprintln(out, tbl)
				}

				fmt.Fprintf(out, "Ledger: %d entries (%d applied, %d rejected, %d failed)\n",
					health.LedgerTotal,
					health.ByAction[catalog.ActionApplied],
					health.ByAction[catalog.ActionRejected],
					health.ByAction[catalog.ActionFailed])
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the summary as JSON")
	return cmd
}

// buildCategoryRows lists known categories in declaration order so output is
// stable across runs.
func buildCategoryRows(byCategory map[catalog.Category]int) [][]string {
	rows := make([][]string, 0, len(byCategory))
	for _, category := range catalog.AllCategories() {
		count, ok := byCategory[category]
		if !ok {
			continue
		}
		rows = append(rows, []string{string(category), strconv.Itoa(count)})
	}
	return rows
}
