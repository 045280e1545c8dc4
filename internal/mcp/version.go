package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/config"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/registry"
)

// VersionToolName is the built-in tool reporting adapter status.
const VersionToolName = "get_version"

// versionInfo is the get_version payload.
type versionInfo struct {
	config.VersionInfo
	API   string `json:"api"`
	Tools int    `json:"tools"`
}

// VersionTool returns the mcp.Tool definition for get_version.
func VersionTool() mcp.Tool {
	return mcp.NewTool(VersionToolName,
		mcp.WithDescription("Get the adapter version and the number of API tools it serves. Use this to verify connectivity."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// VersionToolHandler reports the build information and registry size.
func VersionToolHandler(reg *registry.Registry) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out, err := json.Marshal(versionInfo{
			VersionInfo: config.GetVersionInfo(),
			API:         reg.Name(),
			Tools:       reg.Count(),
		})
		if err != nil {
			return errorResult("failed to marshal version info"), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{mcp.NewTextContent(string(out))},
		}, nil
	}
}
