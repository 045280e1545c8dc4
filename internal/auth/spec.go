package auth

import (
	"fmt"
	"os"
	"strings"
)

// Spec is the configuration form of a strategy, as found under [auth] and
// [[auth.rules]] in the config file. Values of the form "env:NAME" are read
// from the environment when the strategy is built.
type Spec struct {
	Type       string `toml:"type"`
	Location   string `toml:"location"`
	Name       string `toml:"name"`
	Value      string `toml:"value"`
	Token      string `toml:"token"`
	TokenType  string `toml:"token_type"`
	Username   string `toml:"username"`
	Password   string `toml:"password"`
	APIKey     string `toml:"api_key"`
	Secret     string `toml:"secret"`
	KeyHeader  string `toml:"key_header"`
	RecvWindow int64  `toml:"recv_window"`
}

// DefaultRecvWindow is the recvWindow used for signature specs that omit one.
const DefaultRecvWindow int64 = 60000

// FromSpec builds the strategy described by s. An empty type yields NoAuth.
func FromSpec(s Spec) (Strategy, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s.Type))) {
	case "", KindNone:
		return NoAuth{}, nil
	case KindAPIKey:
		loc := KeyLocation(strings.ToLower(s.Location))
		switch loc {
		case "":
			loc = KeyInHeader
		case KeyInHeader, KeyInQuery, KeyInCookie:
		default:
			return nil, fmt.Errorf("api_key location %q must be header, query or cookie", s.Location)
		}
		return APIKey{Location: loc, Name: s.Name, Value: expand(s.Value)}, nil
	case KindBearer:
		return Bearer{Token: expand(s.Token)}, nil
	case KindBasic:
		return Basic{Username: expand(s.Username), Password: expand(s.Password)}, nil
	case KindOAuth2:
		return OAuth2{AccessToken: expand(s.Token), TokenType: s.TokenType}, nil
	case KindSignature:
		if s.Secret == "" {
			return nil, fmt.Errorf("signature auth requires a secret")
		}
		window := s.RecvWindow
		if window == 0 {
			window = DefaultRecvWindow
		}
		return Signature{
			APIKey:     expand(s.APIKey),
			Secret:     expand(s.Secret),
			KeyHeader:  s.KeyHeader,
			RecvWindow: window,
		}, nil
	case KindCustom:
		return nil, fmt.Errorf("custom auth cannot be built from configuration")
	}
	return nil, fmt.Errorf("unknown auth type %q", s.Type)
}

func expand(v string) string {
	if name, ok := strings.CutPrefix(v, "env:"); ok {
		return os.Getenv(name)
	}
	return v
}
