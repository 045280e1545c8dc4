// Package registry stores generated tools and their endpoints, and maps a
// tool name back to the endpoint it calls.
package registry

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
)

var (
	// ErrDuplicateTool is returned when adding a tool whose name is taken.
	ErrDuplicateTool = errors.New("duplicate tool")
	// ErrDuplicateEndpoint is returned when adding an endpoint whose name is taken.
	ErrDuplicateEndpoint = errors.New("duplicate endpoint")
	// ErrNotFound is returned when updating an unknown tool.
	ErrNotFound = errors.New("not found")
)

// PatternField selects what FilterByPattern matches against.
type PatternField string

const (
	FieldName        PatternField = "name"
	FieldDescription PatternField = "description"
	FieldPath        PatternField = "path"
	FieldAll         PatternField = "all"
)

// Registry holds tools and endpoints in insertion order. It is safe for
// concurrent use. Returned tools and endpoints are shared and must not be
// modified; use UpdateTool to replace a tool.
type Registry struct {
	mu        sync.RWMutex
	name      string
	tools     *orderedmap.OrderedMap[string, *models.Tool]
	endpoints *orderedmap.OrderedMap[string, *models.Endpoint]
	// authParams are the credential parameter names hidden from the tools.
	authParams []string

	// index is nil when stale.
	index *Index
}

// New creates an empty registry.
func New(name string) *Registry {
	return &Registry{
		name:      name,
		tools:     orderedmap.New[string, *models.Tool](),
		endpoints: orderedmap.New[string, *models.Endpoint](),
	}
}

// Name returns the registry name.
func (r *Registry) Name() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.name
}

// SetAuthParams records the credential parameter names the tools were
// generated without.
func (r *Registry) SetAuthParams(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authParams = mergeNames(nil, names)
}

// AuthParams returns the recorded credential parameter names, sorted.
func (r *Registry) AuthParams() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.authParams...)
}

func mergeNames(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, n := range append(append([]string(nil), a...), b...) {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// AddTool adds a tool. A taken name returns ErrDuplicateTool.
func (r *Registry) AddTool(tool *models.Tool) error {
	if tool == nil || tool.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools.Get(tool.Name); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, tool.Name)
	}
	r.tools.Set(tool.Name, tool)
	r.index = nil
	return nil
}

// AddTools adds tools in order, stopping at the first error.
func (r *Registry) AddTools(tools []*models.Tool) error {
	for _, t := range tools {
		if err := r.AddTool(t); err != nil {
			return err
		}
	}
	return nil
}

// UpdateTool replaces an existing tool, keeping its position.
func (r *Registry) UpdateTool(tool *models.Tool) error {
	if tool == nil {
		return fmt.Errorf("nil tool")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools.Get(tool.Name); !ok {
		return fmt.Errorf("tool %s: %w", tool.Name, ErrNotFound)
	}
	r.tools.Set(tool.Name, tool)
	r.index = nil
	return nil
}

// GetTool returns the named tool.
func (r *Registry) GetTool(name string) (*models.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools.Get(name)
}

// HasTool reports whether name is registered.
func (r *Registry) HasTool(name string) bool {
	_, ok := r.GetTool(name)
	return ok
}

// RemoveTool deletes a tool and reports whether it existed.
func (r *Registry) RemoveTool(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tools.Delete(name)
	if ok {
		r.index = nil
	}
	return ok
}

// AddEndpoint validates and adds an endpoint.
func (r *Registry) AddEndpoint(ep *models.Endpoint) error {
	if ep == nil {
		return fmt.Errorf("nil endpoint")
	}
	if err := ep.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.endpoints.Get(ep.Name); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEndpoint, ep.Name)
	}
	r.endpoints.Set(ep.Name, ep)
	r.index = nil
	return nil
}

// AddEndpoints adds endpoints in order, stopping at the first error.
func (r *Registry) AddEndpoints(eps []*models.Endpoint) error {
	for _, ep := range eps {
		if err := r.AddEndpoint(ep); err != nil {
			return err
		}
	}
	return nil
}

// GetEndpoint returns the named endpoint.
func (r *Registry) GetEndpoint(name string) (*models.Endpoint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.endpoints.Get(name)
}

// Endpoints returns all endpoints in insertion order.
func (r *Registry) Endpoints() []*models.Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Endpoint, 0, r.endpoints.Len())
	for pair := r.endpoints.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Tools returns up to limit tools in insertion order; limit <= 0 means all.
func (r *Registry) Tools(limit int) []*models.Tool {
	return r.collect(limit, func(*models.Tool) bool { return true })
}

// ToolNames returns every tool name in insertion order.
func (r *Registry) ToolNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, r.tools.Len())
	for pair := r.tools.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// ToolsByTag returns tools carrying tag.
func (r *Registry) ToolsByTag(tag string, limit int) []*models.Tool {
	return r.collect(limit, func(t *models.Tool) bool { return t.HasTag(tag) })
}

// ToolsByMethod returns tools for an HTTP method, case-insensitively.
func (r *Registry) ToolsByMethod(method string, limit int) []*models.Tool {
	method = strings.ToUpper(method)
	return r.collect(limit, func(t *models.Tool) bool { return t.Metadata.Method == method })
}

// Search matches query case-insensitively against name and description.
func (r *Registry) Search(query string, limit int) []*models.Tool {
	q := strings.ToLower(query)
	return r.collect(limit, func(t *models.Tool) bool {
		return strings.Contains(strings.ToLower(t.Name), q) ||
			strings.Contains(strings.ToLower(t.Description), q)
	})
}

// FilterByPattern matches a case-insensitive regexp against field.
func (r *Registry) FilterByPattern(pattern string, field PatternField, limit int) ([]*models.Tool, error) {
	match, err := patternMatcher(pattern, field)
	if err != nil {
		return nil, err
	}
	return r.collect(limit, match), nil
}

// Filter combines criteria; empty fields are ignored.
type Filter struct {
	Method       string
	Tag          string
	Query        string
	Pattern      string
	PatternField PatternField
	Limit        int
}

// Query returns tools matching every criterion in f.
func (r *Registry) Query(f Filter) ([]*models.Tool, error) {
	var preds []func(*models.Tool) bool
	if f.Method != "" {
		method := strings.ToUpper(f.Method)
		preds = append(preds, func(t *models.Tool) bool { return t.Metadata.Method == method })
	}
	if f.Tag != "" {
		preds = append(preds, func(t *models.Tool) bool { return t.HasTag(f.Tag) })
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		preds = append(preds, func(t *models.Tool) bool {
			return strings.Contains(strings.ToLower(t.Name), q) ||
				strings.Contains(strings.ToLower(t.Description), q)
		})
	}
	if f.Pattern != "" {
		match, err := patternMatcher(f.Pattern, f.PatternField)
		if err != nil {
			return nil, err
		}
		preds = append(preds, match)
	}

	return r.collect(f.Limit, func(t *models.Tool) bool {
		for _, p := range preds {
			if !p(t) {
				return false
			}
		}
		return true
	}), nil
}

// Tags returns the sorted set of tags across all tools.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	for pair := r.tools.Oldest(); pair != nil; pair = pair.Next() {
		for _, tag := range pair.Value.Metadata.Tags {
			seen[tag] = true
		}
	}
	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Count returns the number of tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools.Len()
}

// Clear removes all tools and endpoints.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = orderedmap.New[string, *models.Tool]()
	r.endpoints = orderedmap.New[string, *models.Endpoint]()
	r.authParams = nil
	r.index = nil
}

func (r *Registry) collect(limit int, match func(*models.Tool) bool) []*models.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Tool
	for pair := r.tools.Oldest(); pair != nil; pair = pair.Next() {
		if !match(pair.Value) {
			continue
		}
		out = append(out, pair.Value)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func patternMatcher(pattern string, field PatternField) (func(*models.Tool) bool, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	if field == "" {
		field = FieldName
	}
	switch field {
	case FieldName, FieldDescription, FieldPath, FieldAll:
	default:
		return nil, fmt.Errorf("unknown pattern field %q", field)
	}
	return func(t *models.Tool) bool {
		if (field == FieldName || field == FieldAll) && re.MatchString(t.Name) {
			return true
		}
		if (field == FieldDescription || field == FieldAll) && re.MatchString(t.Description) {
			return true
		}
		return (field == FieldPath || field == FieldAll) && re.MatchString(t.Metadata.Path)
	}, nil
}
