package toolgen

import (
	"strings"
	"testing"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
	"pgregory.net/rapid"
)

var segmentGen = rapid.SampledFrom([]string{
	"api", "sapi", "rest", "v1", "v2", "v10", "users", "sub-account", "sub-account",
	"{user_id}", "{orderId}", "history", "universal-transfer", "margin", "isolated",
	"accountSnapshot", "records", "a", "verylongsegmentwithoutanyseparatorsatallxyz",
})

func endpointGen() *rapid.Generator[*models.Endpoint] {
	return rapid.Custom(func(t *rapid.T) *models.Endpoint {
		segments := rapid.SliceOfN(segmentGen, 1, 20).Draw(t, "segments")
		method := rapid.SampledFrom([]string{"GET", "POST", "PUT", "PATCH", "DELETE"}).Draw(t, "method")
		return &models.Endpoint{
			Name:   "op",
			Method: method,
			Path:   "/" + strings.Join(segments, "/"),
		}
	})
}

func TestProperty_NameLengthBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		prefix := rapid.StringMatching(`[A-Za-z][A-Za-z0-9 -]{0,40}`).Draw(t, "prefix")
		ep := endpointGen().Draw(t, "endpoint")

		g, err := NewGenerator(Policy{APIName: prefix}, nil)
		if err != nil {
			t.Fatalf("NewGenerator: %v", err)
		}
		tool, err := g.Generate(ep, nil)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(tool.Name) > MaxNameLength {
			t.Fatalf("name %q has length %d", tool.Name, len(tool.Name))
		}
		if tool.Metadata.Path != ep.Path {
			t.Fatalf("metadata.path = %q, want %q", tool.Metadata.Path, ep.Path)
		}
		if tool.Metadata.Truncated != (len(tool.Metadata.FullName) > 0) {
			t.Fatalf("truncated flag and full name disagree: %+v", tool.Metadata)
		}
	})
}

func TestProperty_DisambiguatedNamesStayBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ep := endpointGen().Draw(t, "endpoint")
		g, _ := NewGenerator(Policy{APIName: "svc"}, nil)
		name, _, truncated := g.Name(ep)
		if truncated {
			t.Skip("truncated collisions fail instead of renaming")
		}
		taken := map[string]bool{name: true}
		n := rapid.IntRange(0, 5).Draw(t, "extra")
		for i := 0; i < n; i++ {
			taken[disambiguate(name, func(s string) bool { return taken[s] })] = true
		}
		got := disambiguate(name, func(s string) bool { return taken[s] })
		if len(got) > MaxNameLength || taken[got] {
			t.Fatalf("bad disambiguated name %q", got)
		}
	})
}

func TestProperty_AuthParamsNeverVisible(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOfNDistinct(
			rapid.SampledFrom([]string{
				"symbol", "Timestamp", "SIGNATURE", "api-key", "limit", "nonce",
				"page", "recvWindow", "Authorization", "side", "custom_secret",
			}),
			1, 11, func(s string) string { return NormalizeParamName(s) },
		).Draw(t, "params")
		override := rapid.SliceOf(rapid.SampledFrom([]string{"custom_secret", "limit", "signature"})).Draw(t, "override")
		useOverride := rapid.Bool().Draw(t, "useOverride")

		ep := &models.Endpoint{Name: "op", Method: "GET", Path: "/op"}
		for _, n := range names {
			ep.Parameters = append(ep.Parameters, models.Parameter{
				Name:     n,
				Location: models.LocationQuery,
				Type:     models.TypeString,
				Required: rapid.Bool().Draw(t, "required_"+n),
			})
		}

		policy := Policy{}
		if useOverride {
			policy.AuthParams = override
		}
		g, _ := NewGenerator(policy, nil)
		schema := g.InputSchema(ep)

		for _, p := range ep.Parameters {
			_, visible := schema.Property(p.Name)
			if g.AuthParams().Contains(p.Name) {
				if visible || schema.IsRequired(p.Name) {
					t.Fatalf("auth parameter %q leaked into schema", p.Name)
				}
				continue
			}
			if !visible {
				t.Fatalf("business parameter %q missing", p.Name)
			}
			if schema.IsRequired(p.Name) != p.Required {
				t.Fatalf("required flag of %q not preserved", p.Name)
			}
		}
	})
}
