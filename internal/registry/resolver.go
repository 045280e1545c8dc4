package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
)

// ErrResolution marks tool names that cannot be mapped to one endpoint.
var ErrResolution = errors.New("tool resolution failed")

// UnresolvedToolError means no endpoint matches the tool name.
type UnresolvedToolError struct {
	Tool string
}

func (e *UnresolvedToolError) Error() string {
	return fmt.Sprintf("no endpoint found for tool %q", e.Tool)
}

func (e *UnresolvedToolError) Unwrap() error { return ErrResolution }

// AmbiguousToolError means several endpoints match with the same length.
type AmbiguousToolError struct {
	Tool       string
	Candidates []string
}

func (e *AmbiguousToolError) Error() string {
	return fmt.Sprintf("tool %q matches several endpoints: %s", e.Tool, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousToolError) Unwrap() error { return ErrResolution }

// Resolve maps toolName to an endpoint. An exact name match wins; otherwise
// the longest endpoint name that toolName ends with (after an underscore) is
// chosen. Equal-length candidates are ambiguous.
func Resolve(toolName string, endpoints []*models.Endpoint) (*models.Endpoint, error) {
	var best []*models.Endpoint
	bestLen := 0
	for _, ep := range endpoints {
		if ep.Name == toolName {
			return ep, nil
		}
		if !strings.HasSuffix(toolName, "_"+ep.Name) {
			continue
		}
		switch n := len(ep.Name); {
		case n > bestLen:
			best, bestLen = []*models.Endpoint{ep}, n
		case n == bestLen:
			best = append(best, ep)
		}
	}

	switch len(best) {
	case 0:
		return nil, &UnresolvedToolError{Tool: toolName}
	case 1:
		return best[0], nil
	}
	names := make([]string, len(best))
	for i, ep := range best {
		names[i] = ep.Name
	}
	return nil, &AmbiguousToolError{Tool: toolName, Candidates: names}
}

// Index is a precomputed tool to endpoint mapping for one registry snapshot.
type Index struct {
	bindings map[string]*models.Endpoint
	errs     map[string]error
	order    []string
}

// BuildIndex binds every tool. A tool whose metadata names a known endpoint
// binds to it directly; others go through Resolve.
func BuildIndex(tools []*models.Tool, endpoints []*models.Endpoint) *Index {
	byName := make(map[string]*models.Endpoint, len(endpoints))
	for _, ep := range endpoints {
		byName[ep.Name] = ep
	}

	idx := &Index{
		bindings: make(map[string]*models.Endpoint, len(tools)),
		errs:     make(map[string]error),
	}
	for _, t := range tools {
		if ep, ok := byName[t.Metadata.Endpoint]; ok {
			idx.bindings[t.Name] = ep
			continue
		}
		ep, err := Resolve(t.Name, endpoints)
		if err != nil {
			idx.errs[t.Name] = err
			idx.order = append(idx.order, t.Name)
			continue
		}
		idx.bindings[t.Name] = ep
	}
	return idx
}

// Lookup returns the endpoint bound to toolName.
func (idx *Index) Lookup(toolName string) (*models.Endpoint, error) {
	if ep, ok := idx.bindings[toolName]; ok {
		return ep, nil
	}
	if err, ok := idx.errs[toolName]; ok {
		return nil, err
	}
	return nil, &UnresolvedToolError{Tool: toolName}
}

// Err joins every binding failure in tool order.
func (idx *Index) Err() error {
	errs := make([]error, 0, len(idx.order))
	for _, name := range idx.order {
		errs = append(errs, idx.errs[name])
	}
	return errors.Join(errs...)
}

// Len returns the number of bound tools.
func (idx *Index) Len() int { return len(idx.bindings) }

// currentIndex returns the index, rebuilding it when stale.
func (r *Registry) currentIndex() *Index {
	r.mu.RLock()
	idx := r.index
	r.mu.RUnlock()
	if idx != nil {
		return idx
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index == nil {
		tools := make([]*models.Tool, 0, r.tools.Len())
		for pair := r.tools.Oldest(); pair != nil; pair = pair.Next() {
			tools = append(tools, pair.Value)
		}
		endpoints := make([]*models.Endpoint, 0, r.endpoints.Len())
		for pair := r.endpoints.Oldest(); pair != nil; pair = pair.Next() {
			endpoints = append(endpoints, pair.Value)
		}
		r.index = BuildIndex(tools, endpoints)
	}
	return r.index
}

// ResolveTool returns the tool and the endpoint it calls.
func (r *Registry) ResolveTool(name string) (*models.Tool, *models.Endpoint, error) {
	tool, ok := r.GetTool(name)
	if !ok {
		return nil, nil, &UnresolvedToolError{Tool: name}
	}
	ep, err := r.currentIndex().Lookup(name)
	if err != nil {
		return nil, nil, err
	}
	return tool, ep, nil
}

// Validate reports every tool that cannot be bound to exactly one endpoint.
func (r *Registry) Validate() error {
	return r.currentIndex().Err()
}
