package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/app"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/config"
)

func newGenerateCmd(flags *globalFlags) *cobra.Command {
	var (
		out  string
		spec string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate tools from the API description and export the registry",
		Long: `Load api.spec, normalize its operations, apply [[derived]] surfaces,
generate one tool per endpoint and write the registry JSON document.
The document can be served later with api.registry.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, func(c *config.Config) {
				if spec != "" {
					c.API.Spec = spec
				}
				if c.API.Spec != "" {
					c.API.Registry = ""
				}
			})
			if err != nil {
				return err
			}
			if cfg.API.Spec == "" {
				return fmt.Errorf("generate needs api.spec or --spec")
			}
			logger := setupLogger(cfg)

			catalog, err := app.LoadCatalog(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				return catalog.Registry.WriteJSON(cmd.OutOrStdout())
			}
			if err := catalog.Registry.ExportFile(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %d tools written to %s\n",
				okMark(), catalog.Registry.Count(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&spec, "spec", "", "API description file or URL (overrides api.spec)")
	return cmd
}
