package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/common"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/toolcall"
)

// BuildMCPTool converts a registry tool into an mcp.Tool carrying the raw
// input schema. Annotations follow the HTTP method: GET and HEAD are
// read-only, DELETE is destructive, PUT and DELETE are idempotent.
func BuildMCPTool(t *models.Tool) (mcp.Tool, error) {
	schema := t.InputSchema
	if schema == nil {
		schema = models.NewObjectSchema()
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("failed to encode input schema of %s: %w", t.Name, err)
	}

	tool := mcp.NewToolWithRawSchema(t.Name, t.Description, raw)
	method := t.Metadata.Method
	readOnly := method == "GET" || method == "HEAD"
	tool.Annotations = mcp.ToolAnnotation{
		ReadOnlyHint:    mcp.ToBoolPtr(readOnly),
		DestructiveHint: mcp.ToBoolPtr(method == "DELETE"),
		IdempotentHint:  mcp.ToBoolPtr(readOnly || method == "PUT" || method == "DELETE"),
		OpenWorldHint:   mcp.ToBoolPtr(true),
	}
	return tool, nil
}

// RegisterTools adds every registry tool to s, each routed through caller.
// Tools whose schema cannot be encoded are skipped with a warning.
func RegisterTools(s *server.MCPServer, caller *toolcall.Caller, logger *common.Logger) int {
	count := 0
	for _, t := range caller.Registry().Tools(0) {
		tool, err := BuildMCPTool(t)
		if err != nil {
			logger.Warn().Str("tool", t.Name).Err(err).Msg("Skipping tool")
			continue
		}
		s.AddTool(tool, ToolHandler(caller, t.Name))
		count++
	}
	return count
}

// ToolHandler executes the named tool with the request arguments and renders
// the execution result.
func ToolHandler(caller *toolcall.Caller, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := caller.Call(ctx, name, r.GetArguments())
		if err != nil {
			return errorResult("Error: " + err.Error()), nil
		}
		return FormatResult(res), nil
	}
}
