// Package server exposes the MCP streamable HTTP endpoint and the JSON API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/app"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/common"
)

// minWriteTimeout is the write timeout floor; tool calls may run until the
// execution deadline.
const minWriteTimeout = 5 * time.Minute

// Server manages the HTTP server and routes.
type Server struct {
	app    *app.App
	router *http.ServeMux
	server *http.Server
	logger *common.Logger
}

// New creates a new HTTP server with the given app.
func New(application *app.App) *Server {
	s := &Server{
		app:    application,
		logger: application.Logger,
	}

	s.router = s.setupRoutes()

	writeTimeout := minWriteTimeout
	if d := application.Config.Execution.Deadline.Std(); d+30*time.Second > writeTimeout {
		writeTimeout = d + 30*time.Second
	}

	addr := fmt.Sprintf("%s:%d", application.Config.Server.Host, application.Config.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withMiddleware(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().
		Str("address", s.server.Addr).
		Str("mcp", fmt.Sprintf("http://%s/mcp", s.server.Addr)).
		Int("tools", s.app.Registry.Count()).
		Msg("HTTP server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info().Msg("HTTP server stopped")
	return nil
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
