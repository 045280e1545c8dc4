// Package mcp exposes registry tools over the Model Context Protocol using
// mark3labs/mcp-go, on stdio or streamable HTTP.
package mcp

import (
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/common"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/config"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/toolcall"
)

// NewServer creates an MCP server with every registry tool registered, plus
// get_version unless the API already defines a tool with that name.
func NewServer(name string, caller *toolcall.Caller, logger *common.Logger) *mcpserver.MCPServer {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	mcpSrv := mcpserver.NewMCPServer(
		name,
		config.GetVersion(),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	count := RegisterTools(mcpSrv, caller, logger)
	reg := caller.Registry()
	if !reg.HasTool(VersionToolName) {
		mcpSrv.AddTool(VersionTool(), VersionToolHandler(reg))
	}

	logger.Info().
		Str("server", name).
		Int("tools", count).
		Msg("MCP server initialized")
	return mcpSrv
}

// Handler is the HTTP handler for the MCP endpoint.
// It wraps mcp-go's StreamableHTTPServer and delegates to it.
type Handler struct {
	mcp        *mcpserver.MCPServer
	streamable *mcpserver.StreamableHTTPServer
	logger     *common.Logger
}

// NewHandler serves mcpSrv over stateless streamable HTTP.
func NewHandler(mcpSrv *mcpserver.MCPServer, logger *common.Logger) *Handler {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Handler{
		mcp: mcpSrv,
		streamable: mcpserver.NewStreamableHTTPServer(mcpSrv,
			mcpserver.WithStateLess(true),
		),
		logger: logger,
	}
}

// Server returns the underlying MCP server.
func (h *Handler) Server() *mcpserver.MCPServer {
	return h.mcp
}

// ServeHTTP delegates to the mcp-go StreamableHTTPServer.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.streamable.ServeHTTP(w, r)
}

// ServeStdio serves mcpSrv on stdin/stdout until the input closes.
func ServeStdio(mcpSrv *mcpserver.MCPServer) error {
	return mcpserver.ServeStdio(mcpSrv)
}
