// Command restmcp exposes the operations of a REST API, described by an
// OpenAPI or Swagger document, as MCP tools.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/common"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/config"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configFiles []string
	logLevel    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "restmcp",
		Short: "Serve a REST API as MCP tools",
		Long: `restmcp reads an OpenAPI 3 or Swagger 2 document, turns every operation
into an MCP tool and executes tool calls as HTTP requests against the API.

Examples:
  restmcp serve -c restmcp.toml          # MCP over stdio (default transport)
  restmcp serve --port 4241              # MCP over streamable HTTP at /mcp
  restmcp generate --out registry.json   # export the generated tool registry
  restmcp tools --tag stations           # list tools
  restmcp call air_get_station --args '{"id": "bristol"}'`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringArrayVarP(&flags.configFiles, "config", "c", nil, "Configuration file path (can be specified multiple times)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (overrides config)")

	root.AddCommand(
		newServeCmd(flags),
		newGenerateCmd(flags),
		newToolsCmd(flags),
		newCallCmd(flags),
		newVersionCmd(),
	)
	return root
}

// loadConfig loads the configuration files (or the first discovered one),
// applies flag overrides and then override, and validates the result.
func loadConfig(flags *globalFlags, override func(*config.Config)) (*config.Config, error) {
	files := flags.configFiles
	if len(files) == 0 {
		for _, path := range configSearchPaths() {
			if _, err := os.Stat(path); err == nil {
				files = append(files, path)
				break
			}
		}
	}

	cfg, err := config.LoadFromFiles(files...)
	if err != nil {
		return nil, err
	}

	config.ApplyFlagOverrides(cfg, 0, "", "", flags.logLevel)
	if override != nil {
		override(cfg)
	}

	if issues := cfg.Validate(); len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Configuration error, mandatory fields are missing or invalid:")
		fmt.Fprintln(os.Stderr, "")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "  - %s\n", issue)
		}
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Values can be set via TOML file, RESTMCP_* environment variables, or CLI flags.")
		fmt.Fprintln(os.Stderr, "")
		return nil, fmt.Errorf("invalid configuration (%d issues)", len(issues))
	}
	return cfg, nil
}

// configSearchPaths returns TOML files to auto-discover (first match wins).
// Binary-relative paths are tried first, then the working directory.
func configSearchPaths() []string {
	candidates := []string{
		"restmcp.toml",
		filepath.Join("config", "restmcp.toml"),
	}

	exe, err := os.Executable()
	if err != nil {
		return candidates
	}
	binDir := filepath.Dir(exe)

	paths := []string{
		filepath.Join(binDir, "restmcp.toml"),
		filepath.Join(binDir, "config", "restmcp.toml"),
	}
	paths = append(paths, candidates...)

	seen := make(map[string]bool, len(paths))
	deduped := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		deduped = append(deduped, p)
	}
	return deduped
}

// setupLogger creates an arbor logger based on config.
func setupLogger(cfg *config.Config) *common.Logger {
	return common.NewLoggerFromConfig(cfg.Logging)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info := config.GetVersionInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "restmcp version %s (build %s, commit %s, %s)\n",
				info.Version, info.Build, info.GitCommit, info.GoVersion)
		},
	}
}
