package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"relish/internal/engine"
	"relish/internal/ingest"
	"relish/internal/match"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var categoryFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Run a batch of raw records through resolution and duplicate checks",
		Long: `Run a batch of raw records through resolution and duplicate checks.

Records are read one per line, pipe-separated:

    name | category | location | tags

Reads from stdin when no file is given or the file is "-". Results come back
in input order; nothing is written to the catalog.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var reader io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open batch: %w", err)
				}
				defer file.Close()
				reader = file
			}

			records, err := ingest.ParseBatch(reader)
			if err != nil {
				return err
			}
			if category := strings.TrimSpace(categoryFlag); category != "" {
				for i := range records {
					if records[i].Category == "" {
						records[i].Category = category
					}
				}
			}

			return ctx.withEngine(cmd.Context(), func(eng *engine.Engine) error {
				results, err := eng.ProcessBatch(cmd.Context(), records)
				if err != nil {
					return err
				}
				summary := ingest.Summarize(results)

				if jsonOut {
					return writeJSON(cmd, struct {
						Summary ingest.Summary  `json:"summary"`
						Records []ingest.Record `json:"records"`
					}{summary, results})
				}

				out := cmd.OutOrStdout()
				tbl := renderTable(
					[]string{"Line", "Name", "Status", "Area", "Match", "Error"},
					buildIngestRows(results),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(out, tbl)
				fmt.Fprintf(out, "%d resolved, %d duplicates, %d errors\n",
					summary.Resolved, summary.Duplicates, summary.Errors)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&categoryFlag, "category", "", "Default category for records that omit one")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit results as JSON")
	return cmd
}

func buildIngestRows(records []ingest.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Line),
			record.Name,
			string(record.Status),
			record.AreaName,
			matchCell(record),
			record.Error,
		})
	}
	return rows
}

func matchCell(record ingest.Record) string {
	if record.MatchKind == "" || record.MatchKind == match.MatchNone {
		return ""
	}
	return fmt.Sprintf("%s #%d", record.MatchKind, record.MatchedEntityID)
}
