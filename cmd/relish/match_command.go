package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"relish/internal/catalog"
	"relish/internal/engine"
	"relish/internal/match"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var categoryFlag string
	var areaFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "match <name>",
		Short: "Check a candidate name against existing catalog entities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd.Context(), func(eng *engine.Engine) error {
				result, err := eng.FindMatch(cmd.Context(), match.Candidate{
					Name:     args[0],
					Category: catalog.Category(categoryFlag),
					AreaName: areaFlag,
				})
				if err != nil {
					return err
				}

				if jsonOut {
					view := struct {
						Name       string  `json:"name"`
						Category   string  `json:"category"`
						Kind       string  `json:"kind"`
						EntityID   int64   `json:"entity_id,omitempty"`
						EntityName string  `json:"entity_name,omitempty"`
						Similarity float64 `json:"similarity,omitempty"`
					}{Name: args[0], Category: categoryFlag, Kind: string(result.Kind)}
					if result.Entity != nil {
						view.EntityID = result.Entity.ID
						view.EntityName = result.Entity.Field(catalog.FieldName)
						view.Similarity = result.Similarity
					}
					return writeJSON(cmd, view)
				}

				out := cmd.OutOrStdout()
				if result.Kind == match.MatchNone {
					fmt.Fprintf(out, "No match for %q in %s\n", args[0], categoryFlag)
					return nil
				}
				fmt.Fprintf(out, "%s match: #%d %s (similarity %.2f)\n",
					result.Kind, result.Entity.ID, result.Entity.Field(catalog.FieldName), result.Similarity)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&categoryFlag, "category", string(catalog.CategoryVenue), "Category to search")
	cmd.Flags().StringVar(&areaFlag, "area", "", "Area the candidate belongs to; only entities in the same area are compared")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the result as JSON")
	return cmd
}
