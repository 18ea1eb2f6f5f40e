package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"relish/internal/catalog"
	"relish/internal/engine"
	"relish/internal/ledger"
	"relish/internal/quality"
)

func newChangesCommand(ctx *commandContext) *cobra.Command {
	changesCmd := &cobra.Command{
		Use:   "changes",
		Short: "Settle cleanup proposals from a previous analysis",
	}

	changesCmd.AddCommand(newChangesApplyCommand(ctx))
	changesCmd.AddCommand(newChangesRejectCommand(ctx))

	return changesCmd
}

func newChangesApplyCommand(ctx *commandContext) *cobra.Command {
	var categoryFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "apply <change-id...>",
		Short: "Apply proposed changes to the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseChangeIDs(args)
			if err != nil {
				return err
			}

			return ctx.withEngine(cmd.Context(), func(eng *engine.Engine) error {
				outcome, err := eng.ApplyCleanupChanges(cmd.Context(), catalog.Category(categoryFlag), ids)
				if err != nil {
					return err
				}

				if jsonOut {
					return writeJSON(cmd, outcome)
				}

				out := cmd.OutOrStdout()
				for _, result := range outcome.Results {
					switch result.Disposition {
					case ledger.DispositionApplied:
						fmt.Fprintf(out, "applied %s\n", result.ChangeID)
					case ledger.DispositionAlreadyApplied:
						fmt.Fprintf(out, "already applied %s\n", result.ChangeID)
					case ledger.DispositionSkipped:
						fmt.Fprintf(out, "skipped %s: %s\n", result.ChangeID, result.Detail)
					case ledger.DispositionFailed:
						fmt.Fprintf(out, "failed %s: %s\n", result.ChangeID, result.Detail)
					}
				}
				fmt.Fprintf(out, "%d applied, %d skipped, %d failed\n",
					outcome.Applied, outcome.Skipped, outcome.Failed)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&categoryFlag, "category", string(catalog.CategoryVenue), "Category the changes were proposed for")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the outcome as JSON")
	return cmd
}

func newChangesRejectCommand(ctx *commandContext) *cobra.Command {
	var categoryFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "reject <change-id...>",
		Short: "Decline proposed changes without touching the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseChangeIDs(args)
			if err != nil {
				return err
			}

			return ctx.withEngine(cmd.Context(), func(eng *engine.Engine) error {
				rejected, err := eng.RejectCleanupChanges(cmd.Context(), catalog.Category(categoryFlag), ids)
				if err != nil {
					return err
				}

				if jsonOut {
					return writeJSON(cmd, struct {
						Category string `json:"category"`
						Rejected int    `json:"rejected"`
					}{categoryFlag, rejected})
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Rejected %d changes\n", rejected)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&categoryFlag, "category", string(catalog.CategoryVenue), "Category the changes were proposed for")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the outcome as JSON")
	return cmd
}

func parseChangeIDs(args []string) ([]quality.ChangeID, error) {
	ids := make([]quality.ChangeID, 0, len(args))
	for _, arg := range args {
		id, err := quality.ParseChangeID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
