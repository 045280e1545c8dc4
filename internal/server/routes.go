package server

import (
	"net/http"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/handlers"
)

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// MCP endpoint (streamable HTTP, stateless)
	if s.app.MCPHandler != nil {
		mux.Handle("/mcp", s.app.MCPHandler)
	}

	// Prometheus scrape endpoint
	mux.Handle("/metrics", s.app.Metrics.Handler())

	// API routes
	mux.HandleFunc("/api/health", s.app.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/version", s.app.VersionHandler.ServeHTTP)
	mux.HandleFunc("/api/tools", s.app.ToolsHandler.List)
	mux.HandleFunc("/api/tools/", s.handleToolItem)
	mux.HandleFunc("/api/batch", s.app.ToolsHandler.Batch)
	mux.HandleFunc("/api/registry", s.app.ToolsHandler.Registry)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleToolItem routes /api/tools/{name} and /api/tools/{name}/call.
func (s *Server) handleToolItem(w http.ResponseWriter, r *http.Request) {
	name, action, ok := SplitItemPath(r.URL.Path, "/api/tools/")
	if !ok {
		s.handleNotFound(w, r)
		return
	}

	tools := s.app.ToolsHandler
	switch action {
	case "":
		RouteByMethod(w, r, MethodRouter{
			http.MethodGet:  func(w http.ResponseWriter, r *http.Request) { tools.Get(w, r, name) },
			http.MethodHead: func(w http.ResponseWriter, r *http.Request) { tools.Get(w, r, name) },
		})
	case "call":
		RouteByMethod(w, r, MethodRouter{
			http.MethodPost: func(w http.ResponseWriter, r *http.Request) { tools.Call(w, r, name) },
		})
	default:
		s.handleNotFound(w, r)
	}
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, http.StatusNotFound, map[string]string{
		"error":   "Not Found",
		"message": "The requested endpoint does not exist",
	})
}
