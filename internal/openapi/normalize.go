package openapi

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/common"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
)

// API is the normalized form of one API document.
type API struct {
	Title     string
	Version   string
	BaseURL   string
	Endpoints []*models.Endpoint
	// AuthParams are credential parameter names implied by the document's
	// security schemes, lowercased.
	AuthParams []string
}

// Endpoint returns the endpoint with the given name.
func (a *API) Endpoint(name string) (*models.Endpoint, bool) {
	for _, ep := range a.Endpoints {
		if ep.Name == name {
			return ep, true
		}
	}
	return nil, false
}

var methodOrder = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
	http.MethodDelete, http.MethodHead, http.MethodOptions, http.MethodTrace,
}

// bodyMediaTypes are tried in order for request and response schemas.
var bodyMediaTypes = []string{"application/json", "application/xml", "*/*"}

// Normalize converts every operation of doc into an endpoint. Paths are
// visited in lexical order and methods in a fixed verb order. Operations that
// cannot form a valid endpoint are skipped with a warning.
func Normalize(doc *openapi3.T, logger *common.Logger) (*API, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil API document")
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	api := &API{
		BaseURL:    BaseURL(doc),
		AuthParams: DetectAuthParams(doc),
	}
	if doc.Info != nil {
		api.Title = doc.Info.Title
		api.Version = doc.Info.Version
	}
	if doc.Paths == nil {
		return api, nil
	}

	paths := doc.Paths.Map()
	keys := make([]string, 0, len(paths))
	for p := range paths {
		keys = append(keys, p)
	}
	sort.Strings(keys)

	names := make(map[string]int)
	for _, path := range keys {
		item := paths[path]
		if item == nil {
			continue
		}
		ops := item.Operations()
		for _, method := range methodOrder {
			op, ok := ops[method]
			if !ok || op == nil {
				continue
			}
			ep := normalizeOperation(doc, method, path, item, op, logger)

			names[ep.Name]++
			if n := names[ep.Name]; n > 1 {
				renamed := fmt.Sprintf("%s_%d", ep.Name, n)
				logger.Warn().
					Str("endpoint", ep.Name).
					Str("renamed", renamed).
					Msg("Duplicate endpoint name")
				ep.Name = renamed
			}

			if err := ep.Validate(); err != nil {
				logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("Skipping operation")
				continue
			}
			api.Endpoints = append(api.Endpoints, ep)
		}
	}

	logger.Info().
		Str("title", api.Title).
		Int("endpoints", len(api.Endpoints)).
		Str("base_url", api.BaseURL).
		Msg("API normalized")
	return api, nil
}

func normalizeOperation(doc *openapi3.T, method, path string, item *openapi3.PathItem, op *openapi3.Operation, logger *common.Logger) *models.Endpoint {
	ep := &models.Endpoint{
		Name:        EndpointName(op.OperationID, method, path),
		Method:      method,
		Path:        path,
		Description: op.Description,
		Summary:     op.Summary,
		Deprecated:  op.Deprecated,
	}
	if ep.Description == "" {
		ep.Description = op.Summary
	}
	if len(op.Tags) > 0 {
		ep.Tags = append([]string(nil), op.Tags...)
	}

	ep.Parameters = normalizeParameters(ep.Name, path, item.Parameters, op.Parameters, logger)

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		ep.BodySchema = contentSchema(op.RequestBody.Value.Content)
	}
	ep.ResponseSchema = responseSchema(op.Responses)

	security := doc.Security
	if op.Security != nil {
		security = *op.Security
	}
	ep.Security = convertSecurity(security)
	return ep
}

var placeholderName = regexp.MustCompile(`\{(\w+)\}`)

// EndpointName is the snake_case operationId, or method and literal path
// segments followed by by_{params} when the operation has no id.
func EndpointName(operationID, method, path string) string {
	if operationID != "" {
		if name := SnakeCase(operationID); name != "" {
			return name
		}
	}
	parts := []string{strings.ToLower(method)}
	for _, seg := range strings.Split(path, "/") {
		if seg != "" && !strings.HasPrefix(seg, "{") {
			parts = append(parts, seg)
		}
	}
	if params := placeholderName.FindAllStringSubmatch(path, -1); len(params) > 0 {
		parts = append(parts, "by")
		for _, m := range params {
			parts = append(parts, m[1])
		}
	}
	return SnakeCase(strings.Join(parts, "_"))
}

var (
	camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	underscoreRun = regexp.MustCompile(`_+`)
)

// SnakeCase converts camelCase, PascalCase, kebab-case and spaced text to
// snake_case.
func SnakeCase(s string) string {
	s = strings.NewReplacer("-", "_", " ", "_", ".", "_", "/", "_").Replace(s)
	s = camelBoundary.ReplaceAllString(s, "${1}_${2}")
	s = strings.ToLower(s)
	s = underscoreRun.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// normalizeParameters merges path-item and operation parameters; operation
// parameters override path-item ones with the same name and location.
func normalizeParameters(endpoint, path string, shared, own openapi3.Parameters, logger *common.Logger) []models.Parameter {
	placeholders := make(map[string]bool)
	for _, n := range models.PathPlaceholders(path) {
		placeholders[n] = true
	}

	var out []models.Parameter
	index := make(map[string]int)
	for _, list := range []openapi3.Parameters{shared, own} {
		for _, ref := range list {
			if ref == nil || ref.Value == nil {
				continue
			}
			p, ok := convertParameter(ref.Value)
			if !ok {
				logger.Warn().
					Str("endpoint", endpoint).
					Str("parameter", ref.Value.Name).
					Str("in", ref.Value.In).
					Msg("Skipping unsupported parameter")
				continue
			}
			if p.Location == models.LocationPath && !placeholders[p.Name] {
				logger.Warn().
					Str("endpoint", endpoint).
					Str("parameter", p.Name).
					Msg("Skipping path parameter without placeholder")
				continue
			}
			key := string(p.Location) + ":" + p.Name
			if i, dup := index[key]; dup {
				out[i] = p
				continue
			}
			index[key] = len(out)
			out = append(out, p)
		}
	}
	return out
}

func convertParameter(src *openapi3.Parameter) (models.Parameter, bool) {
	loc := models.Location(src.In)
	if strings.TrimSpace(src.Name) == "" || !loc.Valid() || loc == models.LocationBody {
		return models.Parameter{}, false
	}
	p := models.Parameter{
		Name:        src.Name,
		Location:    loc,
		Type:        models.TypeString,
		Required:    src.Required || loc == models.LocationPath,
		Description: src.Description,
		Example:     src.Example,
	}

	ref := src.Schema
	if ref == nil {
		for _, mt := range src.Content {
			if mt != nil && mt.Schema != nil {
				ref = mt.Schema
				break
			}
		}
	}
	if ref != nil {
		s := newConverter().convert(ref)
		if s != nil {
			p.Type = s.Type
			p.Format = s.Format
			p.Default = s.Default
			p.Enum = s.Enum
			p.Items = s.Items
			if p.Description == "" {
				p.Description = s.Description
			}
			if p.Example == nil {
				p.Example = s.Example
			}
		}
	}
	return p, true
}

func contentSchema(content openapi3.Content) *models.Schema {
	for _, mt := range bodyMediaTypes {
		if media := content.Get(mt); media != nil && media.Schema != nil {
			return newConverter().convert(media.Schema)
		}
	}
	return nil
}

func responseSchema(responses *openapi3.Responses) *models.Schema {
	if responses == nil {
		return nil
	}
	for _, code := range []string{"200", "201", "default"} {
		ref := responses.Value(code)
		if ref == nil || ref.Value == nil {
			continue
		}
		if s := contentSchema(ref.Value.Content); s != nil {
			return s
		}
	}
	return nil
}

// convertSecurity copies requirements, dropping empty alternatives that mark
// anonymous access.
func convertSecurity(reqs openapi3.SecurityRequirements) []models.SecurityRequirement {
	var out []models.SecurityRequirement
	for _, req := range reqs {
		if len(req) == 0 {
			continue
		}
		r := make(models.SecurityRequirement, len(req))
		for scheme, scopes := range req {
			r[scheme] = append([]string{}, scopes...)
		}
		out = append(out, r)
	}
	return out
}

// DetectAuthParams lists the parameter names that carry credentials under
// the document's security schemes.
func DetectAuthParams(doc *openapi3.T) []string {
	if doc == nil || doc.Components == nil {
		return nil
	}
	set := make(map[string]bool)
	for _, ref := range doc.Components.SecuritySchemes {
		if ref == nil || ref.Value == nil {
			continue
		}
		switch s := ref.Value; strings.ToLower(s.Type) {
		case "apikey":
			if s.Name != "" {
				set[strings.ToLower(s.Name)] = true
			}
		case "http", "openidconnect":
			set["authorization"] = true
		case "oauth2":
			set["authorization"] = true
			set["access_token"] = true
			set["token"] = true
		}
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

var serverVariable = regexp.MustCompile(`\{([^{}]+)\}`)

// BaseURL returns the first server URL with variables replaced by their
// defaults and no trailing slash.
func BaseURL(doc *openapi3.T) string {
	if doc == nil || len(doc.Servers) == 0 || doc.Servers[0] == nil {
		return ""
	}
	srv := doc.Servers[0]
	u := serverVariable.ReplaceAllStringFunc(srv.URL, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := srv.Variables[name]; ok && v != nil {
			return v.Default
		}
		return m
	})
	return strings.TrimRight(u, "/")
}
