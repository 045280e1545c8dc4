package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/handlers"
)

// RouteHandler is a function type for HTTP handlers.
type RouteHandler func(http.ResponseWriter, *http.Request)

// MethodRouter maps HTTP methods to handlers.
type MethodRouter map[string]RouteHandler

// RouteByMethod routes requests based on HTTP method.
func RouteByMethod(w http.ResponseWriter, r *http.Request, routes MethodRouter) {
	handler, ok := routes[r.Method]
	if !ok {
		handlers.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	handler(w, r)
}

// SplitItemPath splits a path below prefix into an item name and an optional
// action, so "/api/tools/x/call" with prefix "/api/tools/" yields ("x", "call").
// The name is path-unescaped. ok is false when no name is present or the path
// has more than two segments.
func SplitItemPath(path, prefix string) (name, action string, ok bool) {
	rest, found := strings.CutPrefix(path, prefix)
	if !found || rest == "" {
		return "", "", false
	}
	rest = strings.TrimSuffix(rest, "/")
	name, action, _ = strings.Cut(rest, "/")
	if name == "" || strings.Contains(action, "/") {
		return "", "", false
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name, action, true
}
