// Package openapi loads OpenAPI 3 and Swagger 2 documents and normalizes
// their operations into canonical endpoints.
package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/common"
)

const maxDocumentBytes = 32 << 20

// Loader reads API descriptions from files or URLs.
type Loader struct {
	client *http.Client
	logger *common.Logger

	// Strict fails loading when the document does not validate.
	Strict bool
}

// NewLoader creates a loader. A nil logger discards output.
func NewLoader(logger *common.Logger) *Loader {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Loader{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Load reads source, a file path or http(s) URL, and returns the document
// as OpenAPI 3. Swagger 2 documents are converted.
func (l *Loader) Load(ctx context.Context, source string) (*openapi3.T, error) {
	data, location, err := l.read(ctx, source)
	if err != nil {
		return nil, err
	}
	return l.LoadData(ctx, data, location)
}

// LoadData parses a JSON or YAML document. location resolves relative
// external references and may be nil.
func (l *Loader) LoadData(ctx context.Context, data []byte, location *url.URL) (*openapi3.T, error) {
	var probe struct {
		Swagger string `yaml:"swagger"`
		OpenAPI string `yaml:"openapi"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse API document: %w", err)
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = true

	var doc *openapi3.T
	var err error
	switch {
	case strings.HasPrefix(probe.Swagger, "2"):
		doc, err = l.convertSwagger(loader, data, location)
	case strings.HasPrefix(probe.OpenAPI, "3"):
		if location != nil {
			doc, err = loader.LoadFromDataWithPath(data, location)
		} else {
			doc, err = loader.LoadFromData(data)
		}
	default:
		return nil, fmt.Errorf("unsupported API document: no openapi 3.x or swagger 2.0 version field")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load API document: %w", err)
	}

	if err := doc.Validate(ctx); err != nil {
		if l.Strict {
			return nil, fmt.Errorf("invalid API document: %w", err)
		}
		l.logger.Warn().Err(err).Msg("API document does not validate, continuing")
	}

	title := ""
	if doc.Info != nil {
		title = doc.Info.Title
	}
	l.logger.Info().
		Str("title", title).
		Str("openapi", doc.OpenAPI).
		Int("paths", doc.Paths.Len()).
		Msg("API document loaded")
	return doc, nil
}

func (l *Loader) convertSwagger(loader *openapi3.Loader, data []byte, location *url.URL) (*openapi3.T, error) {
	raw, err := yamlToJSON(data)
	if err != nil {
		return nil, err
	}
	var doc2 openapi2.T
	if err := json.Unmarshal(raw, &doc2); err != nil {
		return nil, fmt.Errorf("failed to parse swagger document: %w", err)
	}
	doc, err := openapi2conv.ToV3(&doc2)
	if err != nil {
		return nil, fmt.Errorf("failed to convert swagger document: %w", err)
	}
	if err := loader.ResolveRefsIn(doc, location); err != nil {
		return nil, fmt.Errorf("failed to resolve references: %w", err)
	}
	l.logger.Debug().Msg("Converted swagger 2.0 document to OpenAPI 3")
	return doc, nil
}

func (l *Loader) read(ctx context.Context, source string) ([]byte, *url.URL, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		u, err := url.Parse(source)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid spec URL: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, nil, err
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch %s: %w", source, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, nil, fmt.Errorf("failed to fetch %s: HTTP %d", source, resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", source, err)
		}
		return data, u, nil
	}

	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read spec file: %w", err)
	}
	return data, &url.URL{Path: filepath.ToSlash(abs)}, nil
}

// yamlToJSON re-encodes a YAML (or JSON) document as JSON. Mapping keys such
// as response codes are stringified.
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse API document: %w", err)
	}
	out, err := json.Marshal(stringKeys(v))
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode API document: %w", err)
	}
	return out, nil
}

func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = stringKeys(val)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = stringKeys(val)
		}
		return m
	case []any:
		for i, val := range t {
			t[i] = stringKeys(val)
		}
		return t
	}
	return v
}

// LoadAPI loads source and normalizes it.
func (l *Loader) LoadAPI(ctx context.Context, source string) (*API, error) {
	doc, err := l.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	return Normalize(doc, l.logger)
}
