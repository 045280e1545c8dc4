// Package app wires configuration, the tool registry, the execution engine
// and the MCP and HTTP surfaces together.
package app

import (
	"context"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/common"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/config"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/executor"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/handlers"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/mcp"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/metrics"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/registry"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/toolcall"
)

// App holds all application components and dependencies.
type App struct {
	Config  *config.Config
	Logger  *common.Logger
	Metrics *metrics.Collector

	Catalog  *Catalog
	Registry *registry.Registry
	Engine   *executor.Engine
	Caller   *toolcall.Caller

	MCPServer *mcpserver.MCPServer

	// HTTP handlers
	MCPHandler     *mcp.Handler
	HealthHandler  *handlers.HealthHandler
	VersionHandler *handlers.VersionHandler
	ToolsHandler   *handlers.ToolsHandler
}

// New initializes the application with all dependencies.
func New(ctx context.Context, cfg *config.Config, logger *common.Logger) (*App, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewCollector(),
	}

	catalog, err := LoadCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Catalog = catalog
	a.Registry = catalog.Registry

	if err := a.initCaller(); err != nil {
		return nil, err
	}
	a.initHandlers()

	logger.Info().
		Str("registry", a.Registry.Name()).
		Int("tools", a.Registry.Count()).
		Str("base_url", catalog.BaseURL).
		Msg("Application initialization complete")

	return a, nil
}

// initCaller builds the execution engine, the auth resolver and the tool caller.
func (a *App) initCaller() error {
	cfg := a.Config
	if a.Catalog.BaseURL == "" {
		return ErrNoBaseURL
	}

	engineCfg := cfg.EngineConfig(a.Catalog.AuthParams)
	engineCfg.BaseURL = a.Catalog.BaseURL
	engine, err := executor.NewEngine(engineCfg,
		executor.WithLogger(a.Logger),
		executor.WithMetrics(a.Metrics),
	)
	if err != nil {
		return fmt.Errorf("invalid execution configuration: %w", err)
	}
	a.Engine = engine

	resolver, err := cfg.Resolver()
	if err != nil {
		return fmt.Errorf("invalid auth configuration: %w", err)
	}

	a.Caller = toolcall.New(a.Registry, engine, resolver,
		toolcall.WithArgumentValidation(cfg.Tools.ValidateArguments),
		toolcall.WithLogger(a.Logger),
		toolcall.WithMetrics(a.Metrics),
	)

	a.Metrics.SetRegistryTools(a.Registry.Count())
	if err := a.Registry.Validate(); err != nil {
		a.Logger.Warn().Err(err).Msg("Some tools do not resolve to a single endpoint")
	}
	return nil
}

// initHandlers initializes the MCP server and all HTTP handlers.
func (a *App) initHandlers() {
	a.MCPServer = mcp.NewServer(a.Config.Server.Name, a.Caller, a.Logger)
	a.MCPHandler = mcp.NewHandler(a.MCPServer, a.Logger)

	a.HealthHandler = handlers.NewHealthHandler(a.Logger, a.Registry)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.ToolsHandler = handlers.NewToolsHandler(a.Caller, a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
}
