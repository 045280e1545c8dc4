package openapi

import (
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
)

// converter turns resolved OpenAPI schemas into canonical schemas. Schemas
// already on the conversion stack become empty objects, which cuts
// recursive definitions.
type converter struct {
	stack map[*openapi3.Schema]bool
}

func newConverter() *converter {
	return &converter{stack: make(map[*openapi3.Schema]bool)}
}

func (c *converter) convert(ref *openapi3.SchemaRef) *models.Schema {
	if ref == nil || ref.Value == nil {
		return nil
	}
	src := ref.Value
	if c.stack[src] {
		return &models.Schema{Type: models.TypeObject, Description: src.Description}
	}
	c.stack[src] = true
	defer delete(c.stack, src)

	// oneOf/anyOf without an own shape: take the first alternative.
	if schemaType(src) == "" && len(src.Properties) == 0 && len(src.AllOf) == 0 {
		for _, alts := range []openapi3.SchemaRefs{src.OneOf, src.AnyOf} {
			if len(alts) > 0 {
				if s := c.convert(alts[0]); s != nil {
					if src.Description != "" {
						s.Description = src.Description
					}
					return s
				}
			}
		}
	}

	out := &models.Schema{
		Type:        models.ParseDataType(schemaType(src)),
		Description: src.Description,
		Format:      src.Format,
		Default:     src.Default,
		Example:     src.Example,
	}
	if len(src.Enum) > 0 {
		out.Enum = append([]any(nil), src.Enum...)
	}

	switch {
	case schemaType(src) != "":
	case len(src.Properties) > 0 || len(src.AllOf) > 0:
		out.Type = models.TypeObject
	case src.Items != nil:
		out.Type = models.TypeArray
	default:
		out.Type = models.TypeObject
	}

	switch out.Type {
	case models.TypeObject:
		out.Properties = models.NewProperties()
		c.mergeObject(out, src)
		for _, part := range src.AllOf {
			if part == nil || part.Value == nil || c.stack[part.Value] {
				continue
			}
			c.stack[part.Value] = true
			c.mergeObject(out, part.Value)
			if out.Description == "" {
				out.Description = part.Value.Description
			}
			delete(c.stack, part.Value)
		}
		if out.Properties.Len() == 0 {
			out.Properties = nil
		}
	case models.TypeArray:
		out.Items = c.convert(src.Items)
		if out.Items == nil {
			out.Items = &models.Schema{Type: models.TypeString}
		}
	}
	return out
}

// mergeObject adds src's properties in name order, then its required names.
func (c *converter) mergeObject(dst *models.Schema, src *openapi3.Schema) {
	names := make([]string, 0, len(src.Properties))
	for name := range src.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if prop := c.convert(src.Properties[name]); prop != nil {
			dst.SetProperty(name, prop)
		}
	}
	for _, name := range src.Required {
		if _, ok := dst.Property(name); ok {
			dst.AddRequired(name)
		}
	}
}

// schemaType returns the first declared non-null type.
func schemaType(s *openapi3.Schema) string {
	if s.Type == nil {
		return ""
	}
	for _, t := range s.Type.Slice() {
		if t != "null" {
			return t
		}
	}
	return ""
}
