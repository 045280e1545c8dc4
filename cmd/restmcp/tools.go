package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/app"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/registry"
)

func newToolsCmd(flags *globalFlags) *cobra.Command {
	var (
		filter registry.Filter
		field  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the generated tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, nil)
			if err != nil {
				return err
			}
			catalog, err := app.LoadCatalog(cmd.Context(), cfg, setupLogger(cfg))
			if err != nil {
				return err
			}

			filter.PatternField = registry.PatternField(field)
			tools, err := catalog.Registry.Query(filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(tools)
			}
			renderTools(out, tools)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Tag, "tag", "", "Only tools with this tag")
	cmd.Flags().StringVar(&filter.Method, "method", "", "Only tools with this HTTP method")
	cmd.Flags().StringVar(&filter.Query, "search", "", "Case-insensitive search in names and descriptions")
	cmd.Flags().StringVar(&filter.Pattern, "pattern", "", "Regular expression filter")
	cmd.Flags().StringVar(&field, "field", string(registry.FieldAll), "Pattern target: name, description, path or all")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "Maximum number of tools (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}
