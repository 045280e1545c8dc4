// Package toolgen derives MCP tool identities from canonical endpoints.
//
// Generation is deterministic: the same endpoint and policy always produce
// the same tool name, description and input schema. Names never exceed
// MaxNameLength and credential parameters never appear in input schemas.
package toolgen

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/common"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
)

// Layout selects how parameters are arranged in the input schema.
type Layout string

const (
	// LayoutFlat puts every parameter at the top level and merges object bodies.
	LayoutFlat Layout = "flat"
	// LayoutGrouped nests parameters under path/query/header/cookie/body.
	LayoutGrouped Layout = "grouped"
)

// Naming selects the source of the tool name.
type Naming string

const (
	// NamingPath builds {prefix}_{method}_{path_segments}.
	NamingPath Naming = "path"
	// NamingEndpoint builds {prefix}_{endpoint_name}.
	NamingEndpoint Naming = "endpoint"
)

// ErrNameCollision is wrapped by NameCollisionError.
var ErrNameCollision = errors.New("tool name collision")

// NameCollisionError reports two endpoints whose truncated names coincide.
type NameCollisionError struct {
	Name     string
	Endpoint string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("truncated tool name %q for endpoint %s is already taken", e.Name, e.Endpoint)
}

func (e *NameCollisionError) Unwrap() error { return ErrNameCollision }

// Policy controls tool generation.
type Policy struct {
	APIName string
	Layout  Layout
	Naming  Naming

	// AuthParams replaces the default and detected sets when non-nil.
	AuthParams         []string
	DetectedAuthParams []string

	// Filters applied by GenerateAll.
	Methods     []string
	Tags        []string
	PathPattern string
	Limit       int
}

// Generator turns endpoints into tools under one policy.
type Generator struct {
	policy      Policy
	authParams  ParamSet
	pathPattern *regexp.Regexp
	logger      *common.Logger
}

// NewGenerator validates the policy and returns a generator.
func NewGenerator(policy Policy, logger *common.Logger) (*Generator, error) {
	switch policy.Layout {
	case "":
		policy.Layout = LayoutFlat
	case LayoutFlat, LayoutGrouped:
	default:
		return nil, fmt.Errorf("unknown parameter layout %q", policy.Layout)
	}
	switch policy.Naming {
	case "":
		policy.Naming = NamingPath
	case NamingPath, NamingEndpoint:
	default:
		return nil, fmt.Errorf("unknown naming mode %q", policy.Naming)
	}

	g := &Generator{
		policy:     policy,
		authParams: EffectiveAuthParams(policy.AuthParams, policy.DetectedAuthParams),
		logger:     logger,
	}
	if policy.PathPattern != "" {
		re, err := regexp.Compile(policy.PathPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid path pattern %q: %w", policy.PathPattern, err)
		}
		g.pathPattern = re
	}
	if g.logger == nil {
		g.logger = common.NewSilentLogger()
	}
	return g, nil
}

// Policy returns the effective policy.
func (g *Generator) Policy() Policy {
	return g.policy
}

// AuthParams returns the effective exclusion set.
func (g *Generator) AuthParams() ParamSet {
	return g.authParams
}

// Generate builds the tool for ep. taken reports names already in use in the
// target registry; it may be nil.
func (g *Generator) Generate(ep *models.Endpoint, taken func(string) bool) (*models.Tool, error) {
	if ep == nil {
		return nil, errors.New("nil endpoint")
	}

	name, full, truncated := g.Name(ep)
	if taken != nil && taken(name) {
		if truncated {
			return nil, &NameCollisionError{Name: name, Endpoint: ep.Name}
		}
		renamed := disambiguate(name, taken)
		g.logger.Warn().
			Str("name", name).
			Str("renamed", renamed).
			Str("endpoint", ep.Name).
			Msg("tool name taken, using numeric suffix")
		name = renamed
	}

	schema := g.InputSchema(ep)
	if err := compileSchema(schema); err != nil {
		return nil, fmt.Errorf("endpoint %s: %w", ep.Name, err)
	}

	tool := &models.Tool{
		Name:        name,
		Description: Description(ep),
		InputSchema: schema,
		Metadata: models.ToolMetadata{
			Method:         ep.Method,
			Path:           ep.Path,
			Tags:           append([]string(nil), ep.Tags...),
			Endpoint:       ep.Name,
			Layout:         string(g.policy.Layout),
			Deprecated:     ep.Deprecated,
			ResponseSchema: ep.ResponseSchema.Clone(),
		},
	}
	if truncated {
		tool.Metadata.Truncated = true
		tool.Metadata.FullName = full
		g.logger.Debug().
			Str("name", name).
			Str("full_name", full).
			Int("full_length", len(full)).
			Msg("tool name truncated")
	}
	return tool, nil
}

// Description renders the tool description for ep.
func Description(ep *models.Endpoint) string {
	var b strings.Builder
	if ep.Deprecated {
		b.WriteString("[DEPRECATED] ")
	}
	text := ep.Description
	if text == "" {
		text = ep.Summary
	}
	if text == "" {
		fmt.Fprintf(&b, "Makes a %s request to %s", ep.Method, ep.Path)
		return b.String()
	}
	b.WriteString(text)
	fmt.Fprintf(&b, "\n\nEndpoint: %s %s", ep.Method, ep.Path)
	return b.String()
}

// Registry is the subset of the tool registry GenerateAll writes into.
type Registry interface {
	HasTool(name string) bool
	AddTool(tool *models.Tool) error
}

// Selects reports whether ep passes the policy filters.
func (g *Generator) Selects(ep *models.Endpoint) bool {
	if len(g.policy.Methods) > 0 && !containsFold(g.policy.Methods, ep.Method) {
		return false
	}
	if len(g.policy.Tags) > 0 {
		match := false
		for _, tag := range ep.Tags {
			if containsFold(g.policy.Tags, tag) {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	if g.pathPattern != nil && !g.pathPattern.MatchString(ep.Path) {
		return false
	}
	return true
}

// GenerateAll generates a tool for every selected endpoint and adds it to reg.
// It stops at the first error and returns the tools added so far.
func (g *Generator) GenerateAll(endpoints []*models.Endpoint, reg Registry) ([]*models.Tool, error) {
	var tools []*models.Tool
	for _, ep := range endpoints {
		if g.policy.Limit > 0 && len(tools) >= g.policy.Limit {
			break
		}
		if !g.Selects(ep) {
			continue
		}
		tool, err := g.Generate(ep, reg.HasTool)
		if err != nil {
			return tools, err
		}
		if err := reg.AddTool(tool); err != nil {
			return tools, fmt.Errorf("failed to register tool %s: %w", tool.Name, err)
		}
		tools = append(tools, tool)
	}

	g.logger.Info().
		Int("endpoints", len(endpoints)).
		Int("tools", len(tools)).
		Str("layout", string(g.policy.Layout)).
		Msg("tools generated")
	return tools, nil
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
