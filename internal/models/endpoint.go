package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Location is where a parameter travels in the HTTP request.
type Location string

const (
	LocationPath   Location = "path"
	LocationQuery  Location = "query"
	LocationHeader Location = "header"
	LocationBody   Location = "body"
	LocationCookie Location = "cookie"
)

// Valid reports whether l is a known location.
func (l Location) Valid() bool {
	switch l {
	case LocationPath, LocationQuery, LocationHeader, LocationBody, LocationCookie:
		return true
	}
	return false
}

// Parameter is one input of an endpoint.
type Parameter struct {
	Name        string   `json:"name"`
	Location    Location `json:"location"`
	Type        DataType `json:"type"`
	Required    bool     `json:"required"`
	Description string   `json:"description,omitempty"`
	Default     any      `json:"default,omitempty"`
	Example     any      `json:"example,omitempty"`
	Enum        []any    `json:"enum,omitempty"`
	Format      string   `json:"format,omitempty"`
	Items       *Schema  `json:"items,omitempty"`
}

// Schema renders the parameter as a schema property.
func (p Parameter) Schema() *Schema {
	s := &Schema{
		Type:        p.Type,
		Description: p.Description,
		Format:      p.Format,
		Default:     cloneValue(p.Default),
		Example:     cloneValue(p.Example),
	}
	if s.Type == "" {
		s.Type = TypeString
	}
	if p.Enum != nil {
		s.Enum = cloneValue(p.Enum).([]any)
	}
	if s.Type == TypeArray {
		s.Items = p.Items.Clone()
		if s.Items == nil {
			s.Items = &Schema{Type: TypeString}
		}
	}
	return s
}

// SecurityRequirement maps a security scheme name to its required scopes.
type SecurityRequirement map[string][]string

// Endpoint is the normalized description of one REST operation.
// Endpoints are treated as immutable once added to a registry.
type Endpoint struct {
	Name           string                `json:"name"`
	Method         string                `json:"method"`
	Path           string                `json:"path"`
	Description    string                `json:"description,omitempty"`
	Summary        string                `json:"summary,omitempty"`
	Parameters     []Parameter           `json:"parameters"`
	BodySchema     *Schema               `json:"body_schema,omitempty"`
	ResponseSchema *Schema               `json:"response_schema,omitempty"`
	Tags           []string              `json:"tags"`
	Security       []SecurityRequirement `json:"security"`
	Deprecated     bool                  `json:"deprecated"`
}

var placeholderPattern = regexp.MustCompile(`\{([^{}/]+)\}`)

// PathPlaceholders returns the placeholder names of a path template in order.
func PathPlaceholders(path string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(path, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

var httpMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "HEAD": true, "OPTIONS": true, "TRACE": true,
}

// IsSecured reports whether the endpoint declares any security requirement.
// Authentication is only applied to secured endpoints.
func (e *Endpoint) IsSecured() bool {
	return len(e.Security) > 0
}

// Parameter returns the first parameter with the given name.
func (e *Endpoint) Parameter(name string) (Parameter, bool) {
	for _, p := range e.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// ParametersIn returns the parameters at the given location, in order.
func (e *Endpoint) ParametersIn(loc Location) []Parameter {
	var out []Parameter
	for _, p := range e.Parameters {
		if p.Location == loc {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the endpoint invariants.
func (e *Endpoint) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("endpoint name is empty")
	}
	if !httpMethods[e.Method] {
		return fmt.Errorf("endpoint %s: unsupported method %q", e.Name, e.Method)
	}
	if !strings.HasPrefix(e.Path, "/") {
		return fmt.Errorf("endpoint %s: path %q must start with /", e.Name, e.Path)
	}

	placeholders := make(map[string]bool)
	for _, name := range PathPlaceholders(e.Path) {
		placeholders[name] = true
	}

	seen := make(map[string]bool, len(e.Parameters))
	for _, p := range e.Parameters {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("endpoint %s: parameter with empty name", e.Name)
		}
		if !p.Location.Valid() {
			return fmt.Errorf("endpoint %s: parameter %s has unknown location %q", e.Name, p.Name, p.Location)
		}
		if p.Type != "" && !p.Type.Valid() {
			return fmt.Errorf("endpoint %s: parameter %s has unknown type %q", e.Name, p.Name, p.Type)
		}
		key := string(p.Location) + ":" + p.Name
		if seen[key] {
			return fmt.Errorf("endpoint %s: duplicate %s parameter %s", e.Name, p.Location, p.Name)
		}
		seen[key] = true
		if p.Location == LocationPath && !placeholders[p.Name] {
			return fmt.Errorf("endpoint %s: path parameter %s has no {%s} placeholder in %s", e.Name, p.Name, p.Name, e.Path)
		}
	}

	if err := e.BodySchema.Validate(); err != nil {
		return fmt.Errorf("endpoint %s: body schema: %w", e.Name, err)
	}
	if err := e.ResponseSchema.Validate(); err != nil {
		return fmt.Errorf("endpoint %s: response schema: %w", e.Name, err)
	}
	return nil
}

// Clone returns a deep copy suitable for deriving a variant endpoint.
func (e *Endpoint) Clone() *Endpoint {
	c := *e
	if e.Parameters != nil {
		c.Parameters = make([]Parameter, len(e.Parameters))
		for i, p := range e.Parameters {
			p.Default = cloneValue(p.Default)
			p.Example = cloneValue(p.Example)
			if p.Enum != nil {
				p.Enum = cloneValue(p.Enum).([]any)
			}
			p.Items = p.Items.Clone()
			c.Parameters[i] = p
		}
	}
	c.BodySchema = e.BodySchema.Clone()
	c.ResponseSchema = e.ResponseSchema.Clone()
	if e.Tags != nil {
		c.Tags = append([]string(nil), e.Tags...)
	}
	if e.Security != nil {
		c.Security = make([]SecurityRequirement, len(e.Security))
		for i, req := range e.Security {
			r := make(SecurityRequirement, len(req))
			for k, scopes := range req {
				if scopes != nil {
					scopes = append(make([]string, 0, len(scopes)), scopes...)
				}
				r[k] = scopes
			}
			c.Security[i] = r
		}
	}
	return &c
}
