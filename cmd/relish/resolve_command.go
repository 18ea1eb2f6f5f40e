package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"relish/internal/engine"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "resolve <postal-code>",
		Short: "Resolve a postal code to an administrative area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(cmd.Context(), func(eng *engine.Engine) error {
				area, source, err := eng.ResolveLocation(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				if jsonOut {
					return writeJSON(cmd, struct {
						PostalCode string `json:"postal_code"`
						Area       string `json:"area"`
						AreaID     int64  `json:"area_id,omitempty"`
						Source     string `json:"source"`
					}{args[0], area.Name, area.ID, string(source)})
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s)\n", args[0], area.Name, source)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the result as JSON")
	return cmd
}
