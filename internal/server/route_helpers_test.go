package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRouteByMethod_MatchingMethod(t *testing.T) {
	called := false
	routes := MethodRouter{
		"GET": func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		},
	}

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	RouteByMethod(w, req, routes)

	if !called {
		t.Error("expected GET handler to be called")
	}
}

func TestRouteByMethod_NoMatchingMethod(t *testing.T) {
	routes := MethodRouter{
		"GET": func(w http.ResponseWriter, r *http.Request) {
			t.Error("GET handler should not be called")
		},
	}

	req := httptest.NewRequest("POST", "/test", nil)
	w := httptest.NewRecorder()

	RouteByMethod(w, req, routes)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON error, got Content-Type %s", ct)
	}
}

func TestSplitItemPath(t *testing.T) {
	cases := []struct {
		path         string
		name, action string
		ok           bool
	}{
		{"/api/tools/ods_get_records", "ods_get_records", "", true},
		{"/api/tools/ods_get_records/", "ods_get_records", "", true},
		{"/api/tools/ods_get_records/call", "ods_get_records", "call", true},
		{"/api/tools/a%20b", "a b", "", true},
		{"/api/tools/", "", "", false},
		{"/api/tools/x/call/more", "", "", false},
		{"/api/other/x", "", "", false},
	}
	for _, tc := range cases {
		name, action, ok := SplitItemPath(tc.path, "/api/tools/")
		if name != tc.name || action != tc.action || ok != tc.ok {
			t.Errorf("SplitItemPath(%q) = %q, %q, %v; want %q, %q, %v",
				tc.path, name, action, ok, tc.name, tc.action, tc.ok)
		}
	}
}
