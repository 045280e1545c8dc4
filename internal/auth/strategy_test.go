package auth

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/request"
)

func TestAPIKey_Locations(t *testing.T) {
	h := http.Header{"Accept": {"application/json"}}
	q := url.Values{"page": {"1"}}

	h2, q2 := APIKey{Location: KeyInHeader, Value: "k1"}.Apply(h, q)
	if h2.Get(DefaultAPIKeyName) != "k1" {
		t.Errorf("header key = %q", h2.Get(DefaultAPIKeyName))
	}
	if h.Get(DefaultAPIKeyName) != "" {
		t.Error("input header was mutated")
	}
	if q2.Get("page") != "1" {
		t.Error("query was not carried over")
	}

	_, q3 := APIKey{Location: KeyInQuery, Name: "apikey", Value: "k2"}.Apply(h, q)
	if q3.Get("apikey") != "k2" {
		t.Errorf("query key = %q", q3.Get("apikey"))
	}
	if q.Get("apikey") != "" {
		t.Error("input query was mutated")
	}

	h4, _ := APIKey{Location: KeyInCookie, Name: "sid", Value: "a b"}.Apply(http.Header{"Cookie": {"theme=dark"}}, nil)
	if got := h4.Get("Cookie"); got != "theme=dark; sid=a+b" {
		t.Errorf("Cookie = %q", got)
	}
}

func TestBearerBasicOAuth2(t *testing.T) {
	h, _ := Bearer{Token: "tok"}.Apply(nil, nil)
	if h.Get("Authorization") != "Bearer tok" {
		t.Errorf("bearer = %q", h.Get("Authorization"))
	}

	h, _ = Basic{Username: "user", Password: "pass"}.Apply(nil, nil)
	if h.Get("Authorization") != "Basic dXNlcjpwYXNz" {
		t.Errorf("basic = %q", h.Get("Authorization"))
	}

	h, _ = OAuth2{AccessToken: "at"}.Apply(nil, nil)
	if h.Get("Authorization") != "Bearer at" {
		t.Errorf("oauth2 = %q", h.Get("Authorization"))
	}
	h, _ = OAuth2{AccessToken: "at", TokenType: "MAC"}.Apply(nil, nil)
	if h.Get("Authorization") != "MAC at" {
		t.Errorf("oauth2 token type = %q", h.Get("Authorization"))
	}
}

func TestCustom_ReceivesCopies(t *testing.T) {
	orig := http.Header{}
	c := Custom{Label: "tenant", Fn: func(h http.Header, q url.Values) {
		h.Set("X-Tenant", "acme")
		q.Set("region", "eu")
	}}
	h, q := c.Apply(orig, nil)
	if h.Get("X-Tenant") != "acme" || q.Get("region") != "eu" {
		t.Errorf("custom did not apply: %v %v", h, q)
	}
	if orig.Get("X-Tenant") != "" {
		t.Error("input header was mutated")
	}
}

func TestSignature_SignsSortedQuery(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	s := Signature{APIKey: "key", Secret: "secret", RecvWindow: 5000, Now: func() time.Time { return fixed }}

	h, q := s.Apply(nil, url.Values{"symbol": {"BTCUSDT"}, "signature": {"stale"}})
	if h.Get(DefaultKeyHeader) != "key" {
		t.Errorf("key header = %q", h.Get(DefaultKeyHeader))
	}
	if q.Get("timestamp") != "1700000000000" || q.Get("recvWindow") != "5000" {
		t.Errorf("query = %v", q)
	}

	payload := "recvWindow=5000&symbol=BTCUSDT&timestamp=1700000000000"
	if got, want := q.Get("signature"), Sign("secret", payload); got != want {
		t.Errorf("signature = %q, want %q", got, want)
	}
	if !strings.HasSuffix(request.EncodeQuery(q), "&signature="+q.Get("signature")) {
		t.Error("signature should be encoded last")
	}
}

func TestSign_KnownVector(t *testing.T) {
	// HMAC-SHA256("key", "The quick brown fox jumps over the lazy dog")
	want := "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"
	if got := Sign("key", "The quick brown fox jumps over the lazy dog"); got != want {
		t.Errorf("Sign = %s", got)
	}
}

func TestApplyIfSecured_PublicEndpointUntouched(t *testing.T) {
	public := &models.Endpoint{Name: "status", Method: "GET", Path: "/status"}
	h, q := ApplyIfSecured(public, Bearer{Token: "tok"}, http.Header{}, url.Values{})
	if h.Get("Authorization") != "" || len(q) != 0 {
		t.Errorf("public endpoint received credentials: %v %v", h, q)
	}

	secured := &models.Endpoint{Name: "me", Method: "GET", Path: "/me",
		Security: []models.SecurityRequirement{{"bearer": {}}}}
	h, _ = ApplyIfSecured(secured, Bearer{Token: "tok"}, http.Header{}, url.Values{})
	if h.Get("Authorization") != "Bearer tok" {
		t.Errorf("secured endpoint missing credentials: %v", h)
	}
}

func TestDescribe_MasksSecrets(t *testing.T) {
	tests := []struct {
		s    Strategy
		want string
	}{
		{nil, "none"},
		{NoAuth{}, "none"},
		{Bearer{Token: "abcdefgh"}, "bearer(ab****gh)"},
		{Basic{Username: "u", Password: "p"}, "basic(u:***)"},
		{APIKey{Location: KeyInQuery, Name: "apikey", Value: "xyz"}, "api_key(query:apikey=***)"},
		{Signature{APIKey: "abcdef"}, "signature(X-MBX-APIKEY=ab**ef)"},
		{Custom{Label: "hmac"}, "custom(hmac)"},
		{&Bearer{Token: "abcdefgh"}, "bearer(ab****gh)"},
		{&APIKey{Location: KeyInHeader, Name: "X-Key", Value: "xyz"}, "api_key(header:X-Key=***)"},
		{&OAuth2{AccessToken: "abcdefgh"}, "oauth2(ab****gh)"},
		{&NoAuth{}, "none"},
		{(*Bearer)(nil), "unknown"},
	}
	for _, tt := range tests {
		if got := Describe(tt.s); got != tt.want {
			t.Errorf("Describe(%T) = %q, want %q", tt.s, got, tt.want)
		}
	}
}
