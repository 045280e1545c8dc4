package models

// Tool is the externally exposed identity generated from one endpoint.
type Tool struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	InputSchema *Schema      `json:"inputSchema"`
	Metadata    ToolMetadata `json:"metadata"`
}

// ToolMetadata carries the endpoint facts a caller may need alongside the tool.
// Path always holds the full path template, even when Name was truncated.
type ToolMetadata struct {
	Method         string         `json:"method"`
	Path           string         `json:"path"`
	Tags           []string       `json:"tags"`
	Endpoint       string         `json:"endpoint,omitempty"`
	Layout         string         `json:"layout,omitempty"`
	Deprecated     bool           `json:"deprecated,omitempty"`
	Truncated      bool           `json:"truncated,omitempty"`
	FullName       string         `json:"fullName,omitempty"`
	ResponseSchema *Schema        `json:"responseSchema,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
}

// HasTag reports whether the tool carries tag (exact match).
func (t *Tool) HasTag(tag string) bool {
	for _, tg := range t.Metadata.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the tool.
func (t *Tool) Clone() *Tool {
	if t == nil {
		return nil
	}
	c := *t
	c.InputSchema = t.InputSchema.Clone()
	c.Metadata.ResponseSchema = t.Metadata.ResponseSchema.Clone()
	if t.Metadata.Tags != nil {
		c.Metadata.Tags = append([]string(nil), t.Metadata.Tags...)
	}
	if t.Metadata.Extra != nil {
		c.Metadata.Extra = cloneValue(t.Metadata.Extra).(map[string]any)
	}
	return &c
}
