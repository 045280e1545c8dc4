package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
)

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

// FormatResult renders an execution result as MCP content: the response
// data as indented JSON (or raw text) followed by an execution footer.
// Failures become error results of the form "Error: message".
func FormatResult(res *models.ExecutionResult) *mcp.CallToolResult {
	if !res.Success {
		msg := res.Response.Error
		if msg == "" {
			msg = "Execution failed"
		}
		return errorResult("Error: " + msg)
	}

	text := FormatData(res.Response)
	text += fmt.Sprintf("\n\n---\nExecution Time: %.2fms\nStatus Code: %d\nAttempts: %d",
		res.ExecutionTimeMs, res.Response.StatusCode, res.Attempts)

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

// FormatData returns structured data as indented JSON, scalars as text and
// raw_text when no data was decoded.
func FormatData(resp models.Response) string {
	switch v := resp.Data.(type) {
	case nil:
		return resp.RawText
	case map[string]any, []any:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return resp.RawText
		}
		return string(out)
	default:
		return fmt.Sprint(v)
	}
}
