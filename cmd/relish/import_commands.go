package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"relish/internal/catalog"
)

// areaImport is the wire shape of one entry in an `import areas` file.
type areaImport struct {
	Name        string   `json:"name"`
	RegionID    int64    `json:"region_id"`
	PostalCodes []string `json:"postal_codes"`
}

// entityImport is the wire shape of one entry in an `import entities` file.
type entityImport struct {
	Category string            `json:"category"`
	Fields   map[string]string `json:"fields"`
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Load areas and entities into the catalog",
	}

	importCmd.AddCommand(newImportAreasCommand(ctx))
	importCmd.AddCommand(newImportEntitiesCommand(ctx))

	return importCmd
}

func newImportAreasCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "areas <file.json>",
		Short: "Import administrative areas from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var areas []areaImport
			if err := decodeImportFile(args[0], &areas); err != nil {
				return err
			}
			if len(areas) == 0 {
				return fmt.Errorf("%s contains no areas", args[0])
			}

			return ctx.withStore(func(store *catalog.Store) error {
				for _, area := range areas {
					if _, err := store.AddArea(cmd.Context(), area.Name, area.RegionID, area.PostalCodes); err != nil {
						return fmt.Errorf("import area %q: %w", area.Name, err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d areas\n", len(areas))
				return nil
			})
		},
	}
}

func newImportEntitiesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "entities <file.json>",
		Short: "Import catalog entities from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entities []entityImport
			if err := decodeImportFile(args[0], &entities); err != nil {
				return err
			}
			if len(entities) == 0 {
				return fmt.Errorf("%s contains no entities", args[0])
			}

			return ctx.withStore(func(store *catalog.Store) error {
				for i, entity := range entities {
					category, ok := catalog.ParseCategory(entity.Category)
					if !ok {
						return fmt.Errorf("entry %d: unsupported category %q", i+1, entity.Category)
					}
					if _, err := store.AddEntity(cmd.Context(), category, entity.Fields); err != nil {
						return fmt.Errorf("import entity %q: %w", entity.Fields[catalog.FieldName], err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entities\n", len(entities))
				return nil
			})
		},
	}
}

func decodeImportFile(path string, v any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
