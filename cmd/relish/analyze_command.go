package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"relish/internal/catalog"
	"relish/internal/engine"
	"relish/internal/quality"
)

// proposalView is the JSON shape of one cleanup proposal. The table and JSON
// renderings both use the ledger-facing string form of the change ID.
type proposalView struct {
	ChangeID      string  `json:"change_id"`
	Category      string  `json:"category"`
	Field         string  `json:"field"`
	CurrentValue  string  `json:"current_value"`
	ProposedValue string  `json:"proposed_value"`
	Rationale     string  `json:"rationale"`
	Confidence    float64 `json:"confidence"`
}

type diagnosticView struct {
	EntityID int64  `json:"entity_id"`
	Detector string `json:"detector"`
	Reason   string `json:"reason"`
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "analyze <category>",
		Short: "Scan a catalog category for cleanup proposals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd.Context(), func(eng *engine.Engine) error {
				proposals, diagnostics, err := eng.AnalyzeForCleanup(cmd.Context(), catalog.Category(args[0]))
				if err != nil {
					return err
				}

				if jsonOut {
					return writeJSON(cmd, struct {
						Category    string           `json:"category"`
						Proposals   []proposalView   `json:"proposals"`
						Diagnostics []diagnosticView `json:"diagnostics,omitempty"`
					}{args[0], buildProposalViews(proposals), buildDiagnosticViews(diagnostics)})
				}

				out := cmd.OutOrStdout()
				if len(proposals) == 0 {
					fmt.Fprintln(out, "No cleanup proposals")
				} else {
					tbl := renderTable(
						[]string{"Change", "Field", "Current", "Proposed", "Confidence"},
						buildProposalRows(proposals),
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
					)
					fmt.Fprintln(out, tbl)
					fmt.Fprintf(out, "%d proposals; settle them with `relish changes apply` or `relish changes reject`\n", len(proposals))
				}

				for _, diag := range diagnostics {
					fmt.Fprintf(out, "diagnostic: entity %d %s: %s\n", diag.EntityID, diag.Detector, diag.Reason)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit proposals as JSON")
	return cmd
}

func buildProposalRows(proposals []quality.Proposal) [][]string {
	rows := make([][]string, 0, len(proposals))
	for _, proposal := range proposals {
		rows = append(rows, []string{
			proposal.ID.String(),
			proposal.Field,
			proposal.CurrentValue,
			proposal.ProposedValue,
			fmt.Sprintf("%.2f", proposal.Confidence),
		})
	}
	return rows
}

func buildProposalViews(proposals []quality.Proposal) []proposalView {
	views := make([]proposalView, 0, len(proposals))
	for _, proposal := range proposals {
		views = append(views, proposalView{
			ChangeID:      proposal.ID.String(),
			Category:      string(proposal.Category),
			Field:         proposal.Field,
			CurrentValue:  proposal.CurrentValue,
			ProposedValue: proposal.ProposedValue,
			Rationale:     proposal.Rationale,
			Confidence:    proposal.Confidence,
		})
	}
	return views
}

func buildDiagnosticViews(diagnostics []quality.Diagnostic) []diagnosticView {
	if len(diagnostics) == 0 {
		return nil
	}
	views := make([]diagnosticView, 0, len(diagnostics))
	for _, diag := range diagnostics {
		views = append(views, diagnosticView{
			EntityID: diag.EntityID,
			Detector: string(diag.Detector),
			Reason:   diag.Reason,
		})
	}
	return views
}
