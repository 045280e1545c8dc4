package executor

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/auth"
)

func TestExecuteBatch_OrderPreserved(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		id := strings.TrimPrefix(r.URL.Path, "/users/")
		if id == "0" {
			time.Sleep(30 * time.Millisecond)
		}
		w.Write([]byte(`{"id":"` + id + `","auth":"` + r.Header.Get("Authorization") + `"}`))
	}))
	defer srv.Close()

	for _, concurrency := range []int{1, 3} {
		e := newTestEngine(t, srv.URL, func(c *Config) { c.Concurrency = concurrency })

		calls := make([]Call, 6)
		for i := range calls {
			calls[i] = Call{
				Endpoint:  userEndpoint(true),
				Arguments: map[string]any{"user_id": string(rune('0' + i))},
				Auth:      auth.Bearer{Token: string(rune('a' + i))},
			}
		}
		peak.Store(0)
		results := e.ExecuteBatch(t.Context(), calls)

		require.Len(t, results, len(calls))
		for i, res := range results {
			require.True(t, res.Success, res.Response.Error)
			data := res.Response.Data.(map[string]any)
			assert.Equal(t, string(rune('0'+i)), data["id"])
			assert.Equal(t, "Bearer "+string(rune('a'+i)), data["auth"], "each call keeps its own strategy")
		}
		assert.LessOrEqual(t, peak.Load(), int32(concurrency))
	}
}

func TestExecuteBatch_NilEndpointBecomesFailedResult(t *testing.T) {
	e := newTestEngine(t, "http://localhost", nil)
	results := e.ExecuteBatch(t.Context(), []Call{{Endpoint: nil}})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.ErrorIs(t, results[0].Err, ErrNilEndpoint)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		ctype     string
		body      string
		wantData  any
		wantError string
	}{
		{"json", 200, "application/json", `{"a":1}`, map[string]any{"a": 1.0}, ""},
		{"sniffed json", 200, "text/plain", ` [1]`, []any{1.0}, ""},
		{"bad json degrades", 200, "application/json", `{oops`, nil, ""},
		{"text", 200, "text/plain", "hello world", nil, ""},
		{"empty", 204, "", "", nil, ""},
		{"message field", 400, "application/json", `{"message":"bad input"}`, map[string]any{"message": "bad input"}, "bad input"},
		{"error_description", 401, "application/json", `{"error_description":"expired"}`, map[string]any{"error_description": "expired"}, "expired"},
		{"no known field", 422, "application/json", `{"code":7}`, map[string]any{"code": 7.0}, `{"code":7}`},
		{"non-string error skipped", 400, "application/json", `{"error":5,"detail":"d"}`, map[string]any{"error": 5.0, "detail": "d"}, "d"},
		{"plain text", 500, "text/plain", "boom", nil, "HTTP 500: boom"},
		{"long text", 500, "text/html", strings.Repeat("x", 600), nil, "HTTP 500: Request failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.ctype != "" {
				h.Set("Content-Type", tt.ctype)
			}
			resp := Normalize(tt.status, h, []byte(tt.body))
			assert.Equal(t, tt.wantData, resp.Data)
			assert.Equal(t, tt.wantError, resp.Error)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.body, resp.RawText)
		})
	}
}
