package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/app"
)

func newCallCmd(flags *globalFlags) *cobra.Command {
	var (
		rawArgs string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "call TOOL",
		Short: "Execute one tool call against the API",
		Long: `Resolve TOOL to its endpoint, build the HTTP request from --args and
print the execution result. A failed call exits with status 1.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var toolArgs map[string]any
			if rawArgs != "" {
				if err := json.Unmarshal([]byte(rawArgs), &toolArgs); err != nil {
					return fmt.Errorf("--args must be a JSON object: %w", err)
				}
			}

			cfg, err := loadConfig(flags, nil)
			if err != nil {
				return err
			}
			application, err := app.New(cmd.Context(), cfg, setupLogger(cfg))
			if err != nil {
				return err
			}

			res, err := application.Caller.Call(cmd.Context(), args[0], toolArgs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				renderResult(out, res)
			}
			if !res.Success {
				return fmt.Errorf("tool %s failed", args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rawArgs, "args", "", `Tool arguments as a JSON object, e.g. '{"id": 1}'`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the execution result as JSON")
	return cmd
}
