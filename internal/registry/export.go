package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
)

// Document is the JSON form of a registry. Count and ExportedAt are
// informational and ignored on import. AuthParams lists the parameter names
// hidden from the tools as credentials when they were generated.
type Document struct {
	Name       string             `json:"name"`
	Tools      []*models.Tool     `json:"tools"`
	Endpoints  []*models.Endpoint `json:"endpoints"`
	AuthParams []string           `json:"authParams,omitempty"`
	Count      int                `json:"count"`
	ExportedAt time.Time          `json:"exportedAt"`
}

// Export snapshots the registry.
func (r *Registry) Export() *Document {
	tools := r.Tools(0)
	if tools == nil {
		tools = []*models.Tool{}
	}
	return &Document{
		Name:       r.Name(),
		Tools:      tools,
		Endpoints:  r.Endpoints(),
		AuthParams: r.AuthParams(),
		Count:      len(tools),
		ExportedAt: time.Now().UTC(),
	}
}

// WriteJSON writes the export document as indented JSON.
func (r *Registry) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.Export()); err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}
	return nil
}

// ExportFile writes the registry to path, creating parent directories.
func (r *Registry) ExportFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create registry file: %w", err)
	}
	if err := r.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Import adds the document's endpoints and tools. Nothing is added unless the
// whole document imports. The registry takes the document name when it has
// none.
func (r *Registry) Import(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("nil registry document")
	}

	staged := New(doc.Name)
	for _, ep := range doc.Endpoints {
		if err := staged.AddEndpoint(ep); err != nil {
			return fmt.Errorf("failed to import endpoint: %w", err)
		}
	}
	for _, t := range doc.Tools {
		if err := staged.AddTool(t); err != nil {
			return fmt.Errorf("failed to import tool: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for pair := staged.endpoints.Oldest(); pair != nil; pair = pair.Next() {
		if _, ok := r.endpoints.Get(pair.Key); ok {
			return fmt.Errorf("failed to import endpoint: %w: %s", ErrDuplicateEndpoint, pair.Key)
		}
	}
	for pair := staged.tools.Oldest(); pair != nil; pair = pair.Next() {
		if _, ok := r.tools.Get(pair.Key); ok {
			return fmt.Errorf("failed to import tool: %w: %s", ErrDuplicateTool, pair.Key)
		}
	}

	if r.name == "" {
		r.name = doc.Name
	}
	for pair := staged.endpoints.Oldest(); pair != nil; pair = pair.Next() {
		r.endpoints.Set(pair.Key, pair.Value)
	}
	for pair := staged.tools.Oldest(); pair != nil; pair = pair.Next() {
		r.tools.Set(pair.Key, pair.Value)
	}
	r.authParams = mergeNames(r.authParams, doc.AuthParams)
	r.index = nil
	return nil
}

// ReadJSON decodes a registry document into a new registry.
func ReadJSON(rd io.Reader) (*Registry, error) {
	var doc Document
	if err := json.NewDecoder(rd).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	r := New(doc.Name)
	if err := r.Import(&doc); err != nil {
		return nil, err
	}
	return r, nil
}

// ImportFile loads a registry from a JSON file.
func ImportFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry file: %w", err)
	}
	defer f.Close()
	return ReadJSON(f)
}
