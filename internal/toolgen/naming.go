package toolgen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
)

// MaxNameLength is the longest tool name MCP clients accept.
const MaxNameLength = 64

var (
	versionToken  = regexp.MustCompile(`^v\d+$`)
	nonNameChars  = regexp.MustCompile(`[^a-z0-9]+`)
	genericTokens = map[string]bool{"api": true, "sapi": true, "rest": true}
)

// tokenize lowercases s and splits it into [a-z0-9] runs.
func tokenize(s string) []string {
	s = nonNameChars.ReplaceAllString(strings.ToLower(s), "_")
	var out []string
	for _, tok := range strings.Split(s, "_") {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// NormalizePrefix turns an API name into a tool-name prefix ("My API-v2" -> "my_api_v2").
func NormalizePrefix(name string) string {
	return strings.Join(tokenize(name), "_")
}

// pathTokens splits a path template into name tokens, replacing each
// placeholder with its parameter name.
func pathTokens(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		seg = strings.NewReplacer("{", "", "}", "").Replace(seg)
		out = append(out, tokenize(seg)...)
	}
	return out
}

// nameParts returns the protected head tokens and the reducible tail tokens of
// the synthesized name for ep.
func (g *Generator) nameParts(ep *models.Endpoint) (head, tail []string) {
	head = tokenize(g.policy.APIName)
	switch g.policy.Naming {
	case NamingEndpoint:
		tail = tokenize(ep.Name)
	default:
		head = append(head, strings.ToLower(ep.Method))
		tail = pathTokens(ep.Path)
	}
	return head, tail
}

// Name synthesizes the tool name for ep. It returns the final name, the
// untruncated name, and whether truncation applied.
func (g *Generator) Name(ep *models.Endpoint) (name, full string, truncated bool) {
	head, tail := g.nameParts(ep)
	full = joinTokens(head, tail)
	if len(full) <= MaxNameLength {
		return full, full, false
	}
	return shorten(head, tail), full, true
}

func joinTokens(head, tail []string) string {
	all := make([]string, 0, len(head)+len(tail))
	all = append(all, head...)
	all = append(all, tail...)
	return strings.Join(all, "_")
}

// shorten applies the reductions in order until the name fits.
func shorten(head, tail []string) string {
	reductions := []func([]string) []string{
		func(t []string) []string { return dropTokens(t, versionToken.MatchString) },
		func(t []string) []string { return dropTokens(t, func(s string) bool { return genericTokens[s] }) },
		collapseRepeats,
	}
	for _, reduce := range reductions {
		tail = reduce(tail)
		if name := joinTokens(head, tail); len(name) <= MaxNameLength {
			return name
		}
	}
	return cutAtBoundary(joinTokens(head, tail), MaxNameLength)
}

func dropTokens(tokens []string, drop func(string) bool) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if !drop(t) {
			out = append(out, t)
		}
	}
	return out
}

// collapseRepeats removes adjacent duplicate token runs until none remain,
// so sub_account_sub_account becomes sub_account.
func collapseRepeats(tokens []string) []string {
	out := append([]string(nil), tokens...)
	for changed := true; changed; {
		changed = false
		for size := 1; size <= len(out)/2 && !changed; size++ {
			for i := 0; i+2*size <= len(out); i++ {
				if equalTokens(out[i:i+size], out[i+size:i+2*size]) {
					out = append(out[:i+size], out[i+2*size:]...)
					changed = true
					break
				}
			}
		}
	}
	return out
}

func equalTokens(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// cutAtBoundary truncates s to at most limit bytes at the last underscore,
// falling back to a byte cut when no underscore exists within the limit.
func cutAtBoundary(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	if i := strings.LastIndex(s[:limit+1], "_"); i > 0 {
		return s[:i]
	}
	return s[:limit]
}

// disambiguate appends _2, _3, ... to name until taken reports it free.
func disambiguate(name string, taken func(string) bool) string {
	for n := 2; ; n++ {
		suffix := fmt.Sprintf("_%d", n)
		candidate := cutAtBoundary(name, MaxNameLength-len(suffix)) + suffix
		if !taken(candidate) {
			return candidate
		}
	}
}
