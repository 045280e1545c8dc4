package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/app"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/config"
)

const echoSpec = `{
  "openapi": "3.0.3",
  "info": {"title": "Echo", "version": "1"},
  "paths": {
    "/echo/{word}": {
      "get": {
        "operationId": "echoWord",
        "tags": ["echo"],
        "parameters": [{"name": "word", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`

func newTestApp(t *testing.T) *app.App {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"path": r.URL.Path})
	}))
	t.Cleanup(upstream.Close)

	spec := filepath.Join(t.TempDir(), "echo.json")
	if err := os.WriteFile(spec, []byte(echoSpec), 0o644); err != nil {
		t.Fatalf("failed to write spec: %v", err)
	}

	cfg := config.NewDefaultConfig()
	cfg.API.Name = "echo"
	cfg.API.Spec = spec
	cfg.API.BaseURL = upstream.URL
	cfg.Tools.Naming = "endpoint"

	application, err := app.New(t.Context(), cfg, nil)
	if err != nil {
		t.Fatalf("failed to create test app: %v", err)
	}
	return application
}

func TestRoutes_HealthEndpoint(t *testing.T) {
	application := newTestApp(t)
	srv := New(application)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
	if body["tools"] != float64(1) {
		t.Errorf("expected 1 tool, got %v", body["tools"])
	}
}

func TestRoutes_VersionEndpoint(t *testing.T) {
	application := newTestApp(t)
	srv := New(application)

	req := httptest.NewRequest("GET", "/api/version", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if _, ok := body["version"]; !ok {
		t.Error("expected version field in response")
	}
}

func TestRoutes_APINotFound(t *testing.T) {
	application := newTestApp(t)
	srv := New(application)

	for _, path := range []string{"/api/nonexistent", "/api/tools/echo_echo_word/run", "/api/tools/"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()

		srv.Handler().ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", path, w.Code)
		}
	}
}

func TestRoutes_ToolEndpoints(t *testing.T) {
	application := newTestApp(t)
	srv := New(application)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/tools?tag=echo", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "echo_echo_word") {
		t.Errorf("expected tool list, got %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/tools/echo_echo_word", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected tool detail, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	body := strings.NewReader(`{"arguments": {"word": "hello"}}`)
	srv.Handler().ServeHTTP(w, httptest.NewRequest("POST", "/api/tools/echo_echo_word/call", body))
	if w.Code != http.StatusOK {
		t.Fatalf("expected call result, got %d %s", w.Code, w.Body.String())
	}
	var res struct {
		Success  bool `json:"success"`
		Response struct {
			Data map[string]string `json:"data"`
		} `json:"response"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if !res.Success || res.Response.Data["path"] != "/echo/hello" {
		t.Errorf("unexpected call result %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/tools/echo_echo_word/call", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/api/registry", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"exportedAt"`) {
		t.Errorf("expected registry export, got %d", w.Code)
	}
}

func TestRoutes_Metrics(t *testing.T) {
	application := newTestApp(t)
	srv := New(application)

	srv.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/health", nil))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	for _, name := range []string{"restmcp_registry_tools 1", "restmcp_http_requests_total"} {
		if !strings.Contains(w.Body.String(), name) {
			t.Errorf("expected %q in metrics output", name)
		}
	}
}

func TestRoutes_MCPEndpoint(t *testing.T) {
	application := newTestApp(t)
	srv := New(application)

	msg := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`
	req := httptest.NewRequest("POST", "/mcp", strings.NewReader(msg))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"serverInfo"`) {
		t.Errorf("expected initialize result, got %s", w.Body.String())
	}
}

func TestRoutes_MiddlewareApplied(t *testing.T) {
	application := newTestApp(t)
	srv := New(application)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	// Verify correlation ID middleware is applied
	if w.Header().Get("X-Correlation-ID") == "" {
		t.Error("expected X-Correlation-ID header from middleware")
	}

	// Verify CORS middleware is applied
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header from middleware")
	}
}

func TestRoutes_SecurityHeadersApplied(t *testing.T) {
	application := newTestApp(t)
	srv := New(application)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	// Verify security headers middleware is applied
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected X-Content-Type-Options header from security middleware")
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("expected X-Frame-Options header from security middleware")
	}
	if w.Header().Get("Content-Security-Policy") == "" {
		t.Error("expected Content-Security-Policy header from security middleware")
	}
}
