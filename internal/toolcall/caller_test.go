package toolcall

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/auth"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/executor"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/metrics"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/registry"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/request"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/toolgen"
)

// echoServer answers with the request path, query, API key and JSON body.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body any
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"path":   r.URL.Path,
			"query":  r.URL.RawQuery,
			"apikey": r.URL.Query().Get("apikey"),
			"body":   body,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func recordsEndpoints() []*models.Endpoint {
	secured := []models.SecurityRequirement{{"apikey": {}}}
	body := models.NewObjectSchema()
	body.SetProperty("note", &models.Schema{Type: models.TypeString})
	return []*models.Endpoint{
		{
			Name:   "get_records",
			Method: "GET",
			Path:   "/datasets/{dataset_id}/records",
			Parameters: []models.Parameter{
				{Name: "dataset_id", Location: models.LocationPath, Type: models.TypeString, Required: true},
				{Name: "limit", Location: models.LocationQuery, Type: models.TypeInteger},
			},
			Security: secured,
		},
		{
			Name:   "annotate",
			Method: "POST",
			Path:   "/datasets/{dataset_id}/notes",
			Parameters: []models.Parameter{
				{Name: "dataset_id", Location: models.LocationPath, Type: models.TypeString, Required: true},
			},
			BodySchema: body,
		},
	}
}

func newCaller(t *testing.T, layout toolgen.Layout, opts ...Option) (*Caller, *registry.Registry) {
	t.Helper()
	srv := echoServer(t)

	reg := registry.New("ods")
	eps := recordsEndpoints()
	require.NoError(t, reg.AddEndpoints(eps))
	g, err := toolgen.NewGenerator(toolgen.Policy{APIName: "ods", Layout: layout, Naming: toolgen.NamingEndpoint}, nil)
	require.NoError(t, err)
	_, err = g.GenerateAll(eps, reg)
	require.NoError(t, err)

	cfg := executor.DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.RetryBackoff = time.Millisecond
	engine, err := executor.NewEngine(cfg)
	require.NoError(t, err)

	resolver, err := auth.NewResolver(auth.Spec{}, []auth.RuleSpec{{
		Args: map[string][]string{"dataset_id": {"air-quality"}},
		Auth: auth.Spec{Type: "api_key", Location: "query", Name: "apikey", Value: "secret"},
	}})
	require.NoError(t, err)

	return New(reg, engine, resolver, opts...), reg
}

func TestCall_FlatLayout(t *testing.T) {
	c, _ := newCaller(t, toolgen.LayoutFlat)

	res, err := c.Call(t.Context(), "ods_get_records", map[string]any{"dataset_id": "air-quality", "limit": 5})
	require.NoError(t, err)
	require.True(t, res.Success, res.Response.Error)

	data := res.Response.Data.(map[string]any)
	assert.Equal(t, "/datasets/air-quality/records", data["path"])
	assert.Equal(t, "secret", data["apikey"], "rule resolver selects the dataset key")

	res, err = c.Call(t.Context(), "ods_get_records", map[string]any{"dataset_id": "other"})
	require.NoError(t, err)
	assert.Equal(t, "", res.Response.Data.(map[string]any)["apikey"])
}

func TestCall_PointerStrategy(t *testing.T) {
	c, _ := newCaller(t, toolgen.LayoutFlat)
	c.auth = auth.ResolverFunc(func(string, map[string]any) auth.Strategy {
		return &auth.APIKey{Location: auth.KeyInQuery, Name: "apikey", Value: "pointer-key"}
	})

	res, err := c.Call(t.Context(), "ods_get_records", map[string]any{"dataset_id": "other"})
	require.NoError(t, err)
	require.True(t, res.Success, res.Response.Error)
	assert.Equal(t, "pointer-key", res.Response.Data.(map[string]any)["apikey"])
}

func TestCall_GroupedLayout(t *testing.T) {
	c, _ := newCaller(t, toolgen.LayoutGrouped)

	res, err := c.Call(t.Context(), "ods_annotate", map[string]any{
		"path": map[string]any{"dataset_id": "air-quality"},
		"body": map[string]any{"note": "hello"},
	})
	require.NoError(t, err)
	require.True(t, res.Success, res.Response.Error)

	data := res.Response.Data.(map[string]any)
	assert.Equal(t, "/datasets/air-quality/notes", data["path"])
	assert.Equal(t, map[string]any{"note": "hello"}, data["body"])
	assert.Equal(t, "", data["apikey"], "public endpoint never receives credentials")
}

func TestCall_Unresolved(t *testing.T) {
	m := metrics.NewCollector()
	c, _ := newCaller(t, toolgen.LayoutFlat, WithMetrics(m))

	res, err := c.Call(t.Context(), "ods_missing", nil)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, registry.ErrResolution)
}

func TestCall_ValidationError(t *testing.T) {
	c, _ := newCaller(t, toolgen.LayoutFlat)

	res, err := c.Call(t.Context(), "ods_get_records", map[string]any{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Attempts)
	assert.True(t, errors.Is(res.Err, request.ErrValidation))
	var missing *request.MissingParameterError
	require.True(t, errors.As(res.Err, &missing))
	assert.Equal(t, "dataset_id", missing.Parameter)
}

func TestCall_ArgumentValidation(t *testing.T) {
	c, _ := newCaller(t, toolgen.LayoutFlat, WithArgumentValidation(true))

	res, err := c.Call(t.Context(), "ods_get_records", map[string]any{"dataset_id": "x", "limit": "many"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	var argErr *ArgumentError
	require.True(t, errors.As(res.Err, &argErr))
	assert.True(t, errors.Is(res.Err, request.ErrValidation))
	assert.NotEmpty(t, argErr.Problems)

	res, err = c.Call(t.Context(), "ods_get_records", map[string]any{"dataset_id": "x", "limit": 3})
	require.NoError(t, err)
	assert.True(t, res.Success, res.Response.Error)
}

func TestCallBatch(t *testing.T) {
	c, _ := newCaller(t, toolgen.LayoutFlat)

	results, err := c.CallBatch(t.Context(), []Invocation{
		{Tool: "ods_get_records", Arguments: map[string]any{"dataset_id": "a"}},
		{Tool: "ods_annotate", Arguments: map[string]any{"dataset_id": "b", "note": "n"}},
		{Tool: "ods_get_records", Arguments: map[string]any{}},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "/datasets/a/records", results[0].Response.Data.(map[string]any)["path"])
	assert.Equal(t, "/datasets/b/notes", results[1].Response.Data.(map[string]any)["path"])
	assert.False(t, results[2].Success)

	_, err = c.CallBatch(t.Context(), []Invocation{{Tool: "nope"}})
	assert.ErrorIs(t, err, registry.ErrResolution)
}
