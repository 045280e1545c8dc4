package toolgen

import (
	"encoding/json"
	"fmt"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"github.com/xeipuuv/gojsonschema"
)

// groupOrder is the property order of the grouped layout.
var groupOrder = []models.Location{
	models.LocationPath,
	models.LocationQuery,
	models.LocationHeader,
	models.LocationCookie,
}

// BodyKey is the property holding a nested or non-object request body.
const BodyKey = "body"

// InputSchema converts ep into a JSON-Schema-shaped object schema, omitting
// authentication parameters.
func (g *Generator) InputSchema(ep *models.Endpoint) *models.Schema {
	if g.policy.Layout == LayoutGrouped {
		return g.groupedSchema(ep)
	}
	return g.flatSchema(ep)
}

func (g *Generator) visibleParams(ep *models.Endpoint, loc models.Location) []models.Parameter {
	var out []models.Parameter
	for _, p := range ep.ParametersIn(loc) {
		if g.authParams.Contains(p.Name) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (g *Generator) flatSchema(ep *models.Endpoint) *models.Schema {
	root := models.NewObjectSchema()
	for _, p := range ep.Parameters {
		if g.authParams.Contains(p.Name) {
			continue
		}
		root.SetProperty(p.Name, p.Schema())
		if p.Required {
			root.AddRequired(p.Name)
		}
	}

	body := ep.BodySchema
	if body == nil {
		return root
	}
	if isObjectSchema(body) {
		for pair := propertiesOf(body); pair != nil; pair = pair.Next() {
			if _, exists := root.Property(pair.Key); exists {
				continue
			}
			root.SetProperty(pair.Key, pair.Value.Clone())
			if body.IsRequired(pair.Key) {
				root.AddRequired(pair.Key)
			}
		}
		return root
	}
	root.SetProperty(BodyKey, body.Clone())
	root.AddRequired(BodyKey)
	return root
}

func (g *Generator) groupedSchema(ep *models.Endpoint) *models.Schema {
	root := models.NewObjectSchema()
	for _, loc := range groupOrder {
		params := g.visibleParams(ep, loc)
		if len(params) == 0 {
			continue
		}
		group := models.NewObjectSchema()
		group.Description = string(loc) + " parameters"
		for _, p := range params {
			group.SetProperty(p.Name, p.Schema())
			if p.Required {
				group.AddRequired(p.Name)
			}
		}
		root.SetProperty(string(loc), group)
		if len(group.Required) > 0 {
			root.AddRequired(string(loc))
		}
	}

	bodyParams := g.visibleParams(ep, models.LocationBody)
	var body *models.Schema
	switch {
	case ep.BodySchema != nil && !isObjectSchema(ep.BodySchema):
		body = ep.BodySchema.Clone()
		root.SetProperty(BodyKey, body)
		root.AddRequired(BodyKey)
		return root
	case ep.BodySchema != nil:
		body = ep.BodySchema.Clone()
		if body.Type == "" {
			body.Type = models.TypeObject
		}
	case len(bodyParams) > 0:
		body = models.NewObjectSchema()
	default:
		return root
	}
	for _, p := range bodyParams {
		body.SetProperty(p.Name, p.Schema())
		if p.Required {
			body.AddRequired(p.Name)
		}
	}
	root.SetProperty(BodyKey, body)
	if len(body.Required) > 0 {
		root.AddRequired(BodyKey)
	}
	return root
}

func isObjectSchema(s *models.Schema) bool {
	return s.Type == models.TypeObject || (s.Type == "" && s.Properties != nil)
}

func propertiesOf(s *models.Schema) *orderedmap.Pair[string, *models.Schema] {
	if s.Properties == nil {
		return nil
	}
	return s.Properties.Oldest()
}

// compileSchema checks that s is an acceptable JSON Schema document.
func compileSchema(s *models.Schema) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode input schema: %w", err)
	}
	if _, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw)); err != nil {
		return fmt.Errorf("input schema does not compile: %w", err)
	}
	return nil
}
