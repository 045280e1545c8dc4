package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/app"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/config"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/mcp"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(flags *globalFlags) *cobra.Command {
	var (
		stdio bool
		port  int
		host  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the API's tools over MCP",
		Long: `Load the tool registry (api.registry) or generate it from the API
description (api.spec), then serve it over MCP.

The transport comes from server.transport: "stdio" speaks MCP on stdin and
stdout, "http" serves streamable HTTP at /mcp next to the JSON API and
/metrics. --stdio forces stdio; --port or --host imply http.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			transport := ""
			if port > 0 || host != "" {
				transport = config.TransportHTTP
			}
			if stdio {
				transport = config.TransportStdio
			}

			cfg, err := loadConfig(flags, func(c *config.Config) {
				config.ApplyFlagOverrides(c, port, host, transport, "")
			})
			if err != nil {
				return err
			}
			logger := setupLogger(cfg)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				logger.Error().Err(err).Msg("Failed to initialize application")
				return err
			}

			if cfg.Server.Transport == config.TransportStdio {
				logger.Info().Int("tools", application.Registry.Count()).Msg("Serving MCP over stdio")
				return mcp.ServeStdio(application.MCPServer)
			}
			return serveHTTP(ctx, application)
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false, "Serve MCP over stdin/stdout")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Server port (overrides config)")
	cmd.Flags().StringVar(&host, "host", "", "Server host (overrides config)")
	return cmd
}

// serveHTTP runs the HTTP server until ctx is cancelled, then shuts it down.
func serveHTTP(ctx context.Context, application *app.App) error {
	logger := application.Logger
	srv := server.New(application)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start()
	}()

	select {
	case err := <-errc:
		if err != nil {
			logger.Error().Err(err).Msg("Server failed to start")
		}
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info().Msg("Server stopped")
	return nil
}
