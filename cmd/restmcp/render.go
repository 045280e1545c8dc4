package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/mcp"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
)

func okMark() string   { return color.GreenString("✓") }
func failMark() string { return color.RedString("✗") }

// methodColor paints an HTTP method by its safety.
func methodColor(method string) string {
	padded := fmt.Sprintf("%-6s", method)
	switch method {
	case "GET", "HEAD":
		return color.GreenString(padded)
	case "DELETE":
		return color.RedString(padded)
	default:
		return color.YellowString(padded)
	}
}

// renderTools writes one line per tool with its method, path and tags.
func renderTools(w io.Writer, tools []*models.Tool) {
	if len(tools) == 0 {
		fmt.Fprintln(w, "No tools found")
		return
	}

	for _, t := range tools {
		fmt.Fprintf(w, "%s %s\n", methodColor(t.Metadata.Method), color.CyanString(t.Name))
		fmt.Fprintf(w, "       %s", t.Metadata.Path)
		if len(t.Metadata.Tags) > 0 {
			fmt.Fprintf(w, " %s", color.HiBlackString("["+strings.Join(t.Metadata.Tags, ", ")+"]"))
		}
		if t.Metadata.Deprecated {
			fmt.Fprintf(w, " %s", color.YellowString("deprecated"))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "%d tools\n", len(tools))
}

// renderResult writes the response body followed by a status summary.
func renderResult(w io.Writer, res *models.ExecutionResult) {
	if !res.Success {
		fmt.Fprintf(w, "%s %s\n", failMark(), color.RedString(res.Response.Error))
	} else {
		fmt.Fprintln(w, mcp.FormatData(res.Response))
	}

	mark := okMark()
	if !res.Success {
		mark = failMark()
	}
	fmt.Fprintf(w, "%s %s status=%d attempts=%d time=%.2fms\n",
		mark,
		color.HiBlackString(res.EndpointName),
		res.Response.StatusCode,
		res.Attempts,
		res.ExecutionTimeMs,
	)
}
