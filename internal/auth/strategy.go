// Package auth holds the credential strategies applied to outgoing requests.
//
// Strategy is a closed set: NoAuth, APIKey, Bearer, Basic, OAuth2, Signature
// and Custom. Custom is the extension point for schemes not covered by the
// others. Strategies are immutable values; Apply returns new header and query
// collections and never modifies its arguments, so one strategy may be used by
// concurrent calls.
package auth

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
)

// Kind identifies a strategy variant.
type Kind string

const (
	KindNone      Kind = "none"
	KindAPIKey    Kind = "api_key"
	KindBearer    Kind = "bearer"
	KindBasic     Kind = "basic"
	KindOAuth2    Kind = "oauth2"
	KindSignature Kind = "signature"
	KindCustom    Kind = "custom"
)

// Strategy injects credentials into request headers and query parameters.
type Strategy interface {
	Kind() Kind
	Apply(h http.Header, q url.Values) (http.Header, url.Values)
	sealed()
}

// ApplyIfSecured runs s on copies of h and q only when ep declares security.
// Public endpoints never receive credentials, even with a strategy configured.
func ApplyIfSecured(ep *models.Endpoint, s Strategy, h http.Header, q url.Values) (http.Header, url.Values) {
	if s == nil || !ep.IsSecured() {
		return h, q
	}
	return s.Apply(h, q)
}

func clone(h http.Header, q url.Values) (http.Header, url.Values) {
	h2 := h.Clone()
	if h2 == nil {
		h2 = http.Header{}
	}
	q2 := make(url.Values, len(q)+3)
	for k, vs := range q {
		q2[k] = append([]string(nil), vs...)
	}
	return h2, q2
}

// NoAuth leaves requests unchanged.
type NoAuth struct{}

func (NoAuth) Kind() Kind { return KindNone }
func (NoAuth) sealed()    {}

func (NoAuth) Apply(h http.Header, q url.Values) (http.Header, url.Values) {
	return clone(h, q)
}

// KeyLocation is where an API key is sent.
type KeyLocation string

const (
	KeyInHeader KeyLocation = "header"
	KeyInQuery  KeyLocation = "query"
	KeyInCookie KeyLocation = "cookie"
)

// APIKey sends a static key in a header, query parameter or cookie.
type APIKey struct {
	Location KeyLocation
	Name     string
	Value    string
}

// DefaultAPIKeyName is used when APIKey.Name is empty.
const DefaultAPIKeyName = "X-API-Key"

func (APIKey) Kind() Kind { return KindAPIKey }
func (APIKey) sealed()    {}

func (a APIKey) Apply(h http.Header, q url.Values) (http.Header, url.Values) {
	h, q = clone(h, q)
	name := a.Name
	if name == "" {
		name = DefaultAPIKeyName
	}
	switch a.Location {
	case KeyInQuery:
		q.Set(name, a.Value)
	case KeyInCookie:
		pair := name + "=" + url.QueryEscape(a.Value)
		if existing := h.Get("Cookie"); existing != "" {
			pair = existing + "; " + pair
		}
		h.Set("Cookie", pair)
	default:
		h.Set(name, a.Value)
	}
	return h, q
}

// Bearer sets Authorization: Bearer <token>.
type Bearer struct {
	Token string
}

func (Bearer) Kind() Kind { return KindBearer }
func (Bearer) sealed()    {}

func (b Bearer) Apply(h http.Header, q url.Values) (http.Header, url.Values) {
	h, q = clone(h, q)
	h.Set("Authorization", "Bearer "+b.Token)
	return h, q
}

// Basic sets Authorization: Basic base64(user:pass).
type Basic struct {
	Username string
	Password string
}

func (Basic) Kind() Kind { return KindBasic }
func (Basic) sealed()    {}

func (b Basic) Apply(h http.Header, q url.Values) (http.Header, url.Values) {
	h, q = clone(h, q)
	creds := base64.StdEncoding.EncodeToString([]byte(b.Username + ":" + b.Password))
	h.Set("Authorization", "Basic "+creds)
	return h, q
}

// OAuth2 sends a pre-obtained access token. Token refresh is not handled.
type OAuth2 struct {
	AccessToken string
	TokenType   string
}

func (OAuth2) Kind() Kind { return KindOAuth2 }
func (OAuth2) sealed()    {}

func (o OAuth2) Apply(h http.Header, q url.Values) (http.Header, url.Values) {
	h, q = clone(h, q)
	tokenType := o.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	h.Set("Authorization", tokenType+" "+o.AccessToken)
	return h, q
}

// Custom wraps a caller-supplied function. Fn receives copies it may modify.
type Custom struct {
	Label string
	Fn    func(h http.Header, q url.Values)
}

func (Custom) Kind() Kind { return KindCustom }
func (Custom) sealed()    {}

func (c Custom) Apply(h http.Header, q url.Values) (http.Header, url.Values) {
	h, q = clone(h, q)
	if c.Fn != nil {
		c.Fn(h, q)
	}
	return h, q
}

// Describe renders s for logs without exposing secrets. Pointer variants are
// described like their values.
func Describe(s Strategy) string {
	switch v := s.(type) {
	case nil:
		return string(KindNone)
	case NoAuth, *NoAuth:
		return "none"
	case APIKey:
		return fmt.Sprintf("api_key(%s:%s=%s)", v.Location, v.Name, mask(v.Value))
	case Bearer:
		return "bearer(" + mask(v.Token) + ")"
	case Basic:
		return "basic(" + v.Username + ":***)"
	case OAuth2:
		return "oauth2(" + mask(v.AccessToken) + ")"
	case Signature:
		return fmt.Sprintf("signature(%s=%s)", v.keyHeader(), mask(v.APIKey))
	case Custom:
		return "custom(" + v.Label + ")"
	case *APIKey:
		if v != nil {
			return Describe(*v)
		}
	case *Bearer:
		if v != nil {
			return Describe(*v)
		}
	case *Basic:
		if v != nil {
			return Describe(*v)
		}
	case *OAuth2:
		if v != nil {
			return Describe(*v)
		}
	case *Signature:
		if v != nil {
			return Describe(*v)
		}
	case *Custom:
		if v != nil {
			return Describe(*v)
		}
	}
	return "unknown"
}

func mask(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:2] + strings.Repeat("*", len(secret)-4) + secret[len(secret)-2:]
}
