package models

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DataType is the canonical type of a parameter or schema node.
type DataType string

const (
	TypeString  DataType = "string"
	TypeNumber  DataType = "number"
	TypeInteger DataType = "integer"
	TypeBoolean DataType = "boolean"
	TypeObject  DataType = "object"
	TypeArray   DataType = "array"
	TypeNull    DataType = "null"
)

// Valid reports whether t is one of the known data types.
func (t DataType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeObject, TypeArray, TypeNull:
		return true
	}
	return false
}

// ParseDataType maps a source type name onto a DataType, defaulting to string.
func ParseDataType(s string) DataType {
	t := DataType(s)
	if t.Valid() {
		return t
	}
	switch s {
	case "int", "int32", "int64", "long":
		return TypeInteger
	case "float", "double", "decimal":
		return TypeNumber
	case "bool":
		return TypeBoolean
	case "list":
		return TypeArray
	case "dict", "map":
		return TypeObject
	}
	return TypeString
}

// Properties is an insertion-ordered mapping of property name to schema.
// Order survives JSON encoding and decoding.
type Properties = orderedmap.OrderedMap[string, *Schema]

// NewProperties returns an empty ordered property map.
func NewProperties() *Properties {
	return orderedmap.New[string, *Schema]()
}

// Schema is the recursive schema node used for request bodies, responses and
// generated tool input schemas.
type Schema struct {
	Type        DataType    `json:"type,omitempty"`
	Description string      `json:"description,omitempty"`
	Format      string      `json:"format,omitempty"`
	Properties  *Properties `json:"properties,omitempty"`
	Items       *Schema     `json:"items,omitempty"`
	Required    []string    `json:"required,omitempty"`
	Enum        []any       `json:"enum,omitempty"`
	Default     any         `json:"default,omitempty"`
	Example     any         `json:"example,omitempty"`
}

// NewObjectSchema returns an object schema with an empty property map.
func NewObjectSchema() *Schema {
	return &Schema{Type: TypeObject, Properties: NewProperties()}
}

// SetProperty adds or replaces a property, creating the property map if needed.
func (s *Schema) SetProperty(name string, prop *Schema) {
	if s.Properties == nil {
		s.Properties = NewProperties()
	}
	s.Properties.Set(name, prop)
}

// Property returns the named property schema.
func (s *Schema) Property(name string) (*Schema, bool) {
	if s == nil || s.Properties == nil {
		return nil, false
	}
	return s.Properties.Get(name)
}

// PropertyNames returns property names in insertion order.
func (s *Schema) PropertyNames() []string {
	if s == nil || s.Properties == nil {
		return nil
	}
	names := make([]string, 0, s.Properties.Len())
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// AddRequired marks name as required. Duplicates are ignored.
func (s *Schema) AddRequired(name string) {
	if s.IsRequired(name) {
		return
	}
	s.Required = append(s.Required, name)
}

// IsRequired reports whether name is in the required set.
func (s *Schema) IsRequired(name string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants of the schema tree.
func (s *Schema) Validate() error {
	if s == nil {
		return nil
	}
	if s.Type != "" && !s.Type.Valid() {
		return fmt.Errorf("unknown schema type %q", s.Type)
	}
	if s.Properties != nil && s.Properties.Len() > 0 && s.Type != TypeObject {
		return fmt.Errorf("properties set on %q schema", s.Type)
	}
	if s.Items != nil && s.Type != TypeArray {
		return fmt.Errorf("items set on %q schema", s.Type)
	}
	seen := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		if seen[r] {
			return fmt.Errorf("duplicate required property %q", r)
		}
		seen[r] = true
	}
	for pair := s.propertiesOldest(); pair != nil; pair = pair.Next() {
		if err := pair.Value.Validate(); err != nil {
			return fmt.Errorf("property %s: %w", pair.Key, err)
		}
	}
	if err := s.Items.Validate(); err != nil {
		return fmt.Errorf("items: %w", err)
	}
	return nil
}

func (s *Schema) propertiesOldest() *orderedmap.Pair[string, *Schema] {
	if s.Properties == nil {
		return nil
	}
	return s.Properties.Oldest()
}

// Clone returns a deep copy of the schema tree.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	c := &Schema{
		Type:        s.Type,
		Description: s.Description,
		Format:      s.Format,
		Items:       s.Items.Clone(),
		Default:     cloneValue(s.Default),
		Example:     cloneValue(s.Example),
	}
	if s.Required != nil {
		c.Required = append([]string(nil), s.Required...)
	}
	if s.Enum != nil {
		c.Enum = cloneValue(s.Enum).([]any)
	}
	if s.Properties != nil {
		c.Properties = NewProperties()
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			c.Properties.Set(pair.Key, pair.Value.Clone())
		}
	}
	return c
}

// cloneValue deep-copies JSON-shaped values (maps, slices, scalars).
func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[k] = cloneValue(item)
		}
		return m
	case []any:
		s := make([]any, len(val))
		for i, item := range val {
			s[i] = cloneValue(item)
		}
		return s
	default:
		return v
	}
}
