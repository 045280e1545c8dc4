package toolgen

import (
	"sort"
	"strings"
)

// DefaultAuthParams are credential parameter names removed from every tool
// input schema unless the policy overrides the set.
var DefaultAuthParams = []string{
	"signature",
	"timestamp",
	"recvwindow",
	"recv_window",
	"api_key",
	"apikey",
	"api_secret",
	"apisecret",
	"access_token",
	"accesstoken",
	"token",
	"authorization",
	"auth",
	"nonce",
	"sign",
}

// NormalizeParamName lowercases a parameter name and maps hyphens to underscores.
func NormalizeParamName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}

// ParamSet is a case-insensitive set of parameter names.
type ParamSet map[string]struct{}

// NewParamSet builds a set from names, normalizing each one.
func NewParamSet(names ...string) ParamSet {
	s := make(ParamSet, len(names))
	for _, n := range names {
		if n = NormalizeParamName(n); n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

// Contains reports whether name is in the set. A nil set contains nothing.
func (s ParamSet) Contains(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s[NormalizeParamName(name)]
	return ok
}

// Names returns the set members sorted.
func (s ParamSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// EffectiveAuthParams returns override when it is non-nil, otherwise the
// defaults joined with the auto-detected names.
func EffectiveAuthParams(override, detected []string) ParamSet {
	if override != nil {
		return NewParamSet(override...)
	}
	s := NewParamSet(DefaultAuthParams...)
	for _, n := range detected {
		if n = NormalizeParamName(n); n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}
