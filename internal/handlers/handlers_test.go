package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/auth"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/executor"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/registry"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/toolcall"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/toolgen"
)

// newToolsHandler builds a handler over a two-endpoint registry whose upstream
// echoes the request path.
func newToolsHandler(t *testing.T) (*ToolsHandler, *registry.Registry) {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/stations/missing") {
			http.Error(w, "no such station", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"path": r.URL.Path, "auth": r.Header.Get("Authorization")})
	}))
	t.Cleanup(upstream.Close)

	eps := []*models.Endpoint{
		{
			Name:   "get_station",
			Method: "GET",
			Path:   "/stations/{id}",
			Tags:   []string{"stations"},
			Parameters: []models.Parameter{
				{Name: "id", Location: models.LocationPath, Type: models.TypeString, Required: true},
			},
			Security: []models.SecurityRequirement{{"bearer": {}}},
		},
		{
			Name:   "list_readings",
			Method: "GET",
			Path:   "/readings",
			Tags:   []string{"readings"},
		},
	}
	reg := registry.New("air")
	if err := reg.AddEndpoints(eps); err != nil {
		t.Fatalf("AddEndpoints: %v", err)
	}
	g, err := toolgen.NewGenerator(toolgen.Policy{APIName: "air", Naming: toolgen.NamingEndpoint}, nil)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	if _, err := g.GenerateAll(eps, reg); err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}

	cfg := executor.DefaultConfig()
	cfg.BaseURL = upstream.URL
	cfg.MaxRetries = 0
	cfg.RetryBackoff = time.Millisecond
	engine, err := executor.NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	caller := toolcall.New(reg, engine, auth.Static(auth.Bearer{Token: "tok"}))
	return NewToolsHandler(caller, nil), reg
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", w.Body.String(), err)
	}
}

func TestHealthHandler_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler(nil, nil)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var body map[string]any
	decodeBody(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestHealthHandler_ReportsRegistry(t *testing.T) {
	_, reg := newToolsHandler(t)
	handler := NewHealthHandler(nil, reg)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/health", nil))

	var body healthResponse
	decodeBody(t, w, &body)
	if body.Registry != "air" || body.Tools != 2 || !body.Resolved {
		t.Errorf("unexpected health body %+v", body)
	}

	reg.RemoveTool("air_list_readings")
	reg.AddTool(&models.Tool{Name: "air_unknown", InputSchema: models.NewObjectSchema()})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/health", nil))
	decodeBody(t, w, &body)
	if body.Status != "degraded" || body.Resolved {
		t.Errorf("expected degraded health, got %+v", body)
	}
}

func TestHealthHandler_RejectsNonGET(t *testing.T) {
	handler := NewHealthHandler(nil, nil)

	req := httptest.NewRequest("POST", "/api/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestVersionHandler_ReturnsJSON(t *testing.T) {
	handler := NewVersionHandler(nil)

	req := httptest.NewRequest("GET", "/api/version", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	contentType := w.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}

	var body map[string]string
	decodeBody(t, w, &body)
	for _, key := range []string{"version", "build", "git_commit", "go_version"} {
		if _, ok := body[key]; !ok {
			t.Errorf("expected %s field in response", key)
		}
	}
}

func TestToolsHandler_List(t *testing.T) {
	h, _ := newToolsHandler(t)

	w := httptest.NewRecorder()
	h.List(w, httptest.NewRequest("GET", "/api/tools", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var list toolList
	decodeBody(t, w, &list)
	if list.Count != 2 {
		t.Errorf("expected 2 tools, got %d", list.Count)
	}

	w = httptest.NewRecorder()
	h.List(w, httptest.NewRequest("GET", "/api/tools?tag=stations", nil))
	decodeBody(t, w, &list)
	if list.Count != 1 || list.Tools[0].Name != "air_get_station" {
		t.Errorf("tag filter returned %+v", list.Tools)
	}

	w = httptest.NewRecorder()
	h.List(w, httptest.NewRequest("GET", "/api/tools?pattern=^/readings&field=path", nil))
	decodeBody(t, w, &list)
	if list.Count != 1 || list.Tools[0].Name != "air_list_readings" {
		t.Errorf("pattern filter returned %+v", list.Tools)
	}

	w = httptest.NewRecorder()
	h.List(w, httptest.NewRequest("GET", "/api/tools?q=nothing", nil))
	decodeBody(t, w, &list)
	if list.Count != 0 || list.Tools == nil {
		t.Errorf("expected an empty list, got %+v", list)
	}
}

func TestToolsHandler_ListRejectsBadInput(t *testing.T) {
	h, _ := newToolsHandler(t)

	for _, target := range []string{"/api/tools?limit=-1", "/api/tools?limit=x", "/api/tools?pattern=("} {
		w := httptest.NewRecorder()
		h.List(w, httptest.NewRequest("GET", target, nil))
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", target, w.Code)
		}
	}
}

func TestToolsHandler_Get(t *testing.T) {
	h, _ := newToolsHandler(t)

	w := httptest.NewRecorder()
	h.Get(w, httptest.NewRequest("GET", "/api/tools/air_get_station", nil), "air_get_station")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var detail toolDetail
	decodeBody(t, w, &detail)
	if detail.Endpoint == nil || detail.Endpoint.Name != "get_station" {
		t.Errorf("expected endpoint get_station, got %+v", detail.Endpoint)
	}

	w = httptest.NewRecorder()
	h.Get(w, httptest.NewRequest("GET", "/api/tools/nope", nil), "nope")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestToolsHandler_Call(t *testing.T) {
	h, _ := newToolsHandler(t)

	body := strings.NewReader(`{"arguments": {"id": "bristol-1"}}`)
	w := httptest.NewRecorder()
	h.Call(w, httptest.NewRequest("POST", "/api/tools/air_get_station/call", body), "air_get_station")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var res models.ExecutionResult
	decodeBody(t, w, &res)
	if !res.Success {
		t.Fatalf("expected success, got %+v", res.Response)
	}
	data := res.Response.Data.(map[string]any)
	if data["path"] != "/stations/bristol-1" {
		t.Errorf("unexpected upstream path %v", data["path"])
	}
	if data["auth"] != "Bearer tok" {
		t.Errorf("expected bearer credentials, got %v", data["auth"])
	}
}

func TestToolsHandler_CallFailures(t *testing.T) {
	h, _ := newToolsHandler(t)

	w := httptest.NewRecorder()
	h.Call(w, httptest.NewRequest("POST", "/api/tools/air_get_station/call", strings.NewReader(`{"arguments": {"id": "missing"}}`)), "air_get_station")
	var res models.ExecutionResult
	decodeBody(t, w, &res)
	if w.Code != http.StatusOK || res.Success || res.Response.StatusCode != http.StatusNotFound {
		t.Errorf("expected upstream 404 inside a 200 result, got %d %+v", w.Code, res)
	}

	w = httptest.NewRecorder()
	h.Call(w, httptest.NewRequest("POST", "/api/tools/air_get_station/call", strings.NewReader(`{"arguments": {}}`)), "air_get_station")
	decodeBody(t, w, &res)
	if res.Success || !strings.Contains(res.Response.Error, "id") {
		t.Errorf("expected a missing parameter error, got %+v", res.Response)
	}

	w = httptest.NewRecorder()
	h.Call(w, httptest.NewRequest("POST", "/api/tools/x/call", strings.NewReader(`{`)), "x")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for malformed JSON, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.Call(w, httptest.NewRequest("POST", "/api/tools/nope/call", nil), "nope")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for unknown tool, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.Call(w, httptest.NewRequest("GET", "/api/tools/air_get_station/call", nil), "air_get_station")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestToolsHandler_Batch(t *testing.T) {
	h, _ := newToolsHandler(t)

	body := strings.NewReader(`{"calls": [
		{"tool": "air_get_station", "arguments": {"id": "a"}},
		{"tool": "air_list_readings"}
	]}`)
	w := httptest.NewRecorder()
	h.Batch(w, httptest.NewRequest("POST", "/api/batch", body))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp batchResponse
	decodeBody(t, w, &resp)
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].EndpointName != "get_station" || resp.Results[1].EndpointName != "list_readings" {
		t.Errorf("results out of order: %s, %s", resp.Results[0].EndpointName, resp.Results[1].EndpointName)
	}

	w = httptest.NewRecorder()
	h.Batch(w, httptest.NewRequest("POST", "/api/batch", strings.NewReader(`{"calls": [{"tool": "nope"}]}`)))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.Batch(w, httptest.NewRequest("POST", "/api/batch", strings.NewReader(`{"calls": []}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestToolsHandler_Registry(t *testing.T) {
	h, _ := newToolsHandler(t)

	w := httptest.NewRecorder()
	h.Registry(w, httptest.NewRequest("GET", "/api/registry", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	doc, err := registry.ReadJSON(w.Body)
	if err != nil {
		t.Fatalf("export document does not import: %v", err)
	}
	if doc.Count() != 2 || len(doc.Endpoints()) != 2 {
		t.Errorf("expected 2 tools and endpoints, got %d and %d", doc.Count(), len(doc.Endpoints()))
	}
}
