package openapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
)

// Surface describes a derived copy of part of an API: every endpoint under
// FromPrefix is cloned under ToPrefix with a name prefix.
type Surface struct {
	FromPrefix   string   `toml:"from_prefix"`
	ToPrefix     string   `toml:"to_prefix"`
	NamePrefix   string   `toml:"name_prefix"`
	Security     string   `toml:"security"`
	Tag          string   `toml:"tag"`
	ReplaceTag   string   `toml:"replace_tag"`
	Description  string   `toml:"description"`
	Endpoints    []string `toml:"endpoints"`
	RequireParam string   `toml:"require_param"`
}

// Validate checks that the surface can produce endpoints.
func (s Surface) Validate() error {
	var errs []error
	if !strings.HasPrefix(s.FromPrefix, "/") {
		errs = append(errs, fmt.Errorf("from_prefix %q must start with /", s.FromPrefix))
	}
	if !strings.HasPrefix(s.ToPrefix, "/") {
		errs = append(errs, fmt.Errorf("to_prefix %q must start with /", s.ToPrefix))
	}
	if SnakeCase(s.NamePrefix) == "" {
		errs = append(errs, fmt.Errorf("name_prefix is required"))
	}
	return errors.Join(errs...)
}

// Selects reports whether ep is cloned by the surface.
func (s Surface) Selects(ep *models.Endpoint) bool {
	if !strings.HasPrefix(ep.Path, s.FromPrefix) {
		return false
	}
	if len(s.Endpoints) > 0 && !contains(s.Endpoints, ep.Name) {
		return false
	}
	if s.RequireParam != "" {
		if _, ok := ep.Parameter(s.RequireParam); !ok {
			return false
		}
	}
	return true
}

// Derive clones the selected endpoints. Clones get the surface path prefix,
// the name prefix, the tag, and when Security is set a single requirement on
// that scheme.
func Derive(endpoints []*models.Endpoint, s Surface) ([]*models.Endpoint, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid derived surface: %w", err)
	}
	prefix := SnakeCase(s.NamePrefix)

	var out []*models.Endpoint
	for _, ep := range endpoints {
		if !s.Selects(ep) {
			continue
		}
		d := ep.Clone()
		d.Name = prefix + "_" + ep.Name
		d.Path = s.ToPrefix + strings.TrimPrefix(ep.Path, s.FromPrefix)
		if s.Security != "" {
			d.Security = []models.SecurityRequirement{{s.Security: {}}}
		}
		if s.Description != "" {
			base := ep.Description
			if base == "" {
				base = ep.Summary
			}
			d.Description = strings.TrimSpace(s.Description + " " + base)
		}
		if s.Tag != "" {
			d.Tags = retag(d.Tags, s.ReplaceTag, s.Tag)
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("derived endpoint from %s: %w", ep.Name, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// DeriveAll returns endpoints followed by every surface's clones. A clone
// whose name is already taken is an error.
func DeriveAll(endpoints []*models.Endpoint, surfaces []Surface) ([]*models.Endpoint, error) {
	all := append([]*models.Endpoint(nil), endpoints...)
	taken := make(map[string]bool, len(endpoints))
	for _, ep := range endpoints {
		taken[ep.Name] = true
	}
	for i, s := range surfaces {
		derived, err := Derive(endpoints, s)
		if err != nil {
			return nil, fmt.Errorf("derived[%d]: %w", i, err)
		}
		for _, d := range derived {
			if taken[d.Name] {
				return nil, fmt.Errorf("derived[%d]: endpoint name %s already exists", i, d.Name)
			}
			taken[d.Name] = true
			all = append(all, d)
		}
	}
	return all, nil
}

func retag(tags []string, from, to string) []string {
	out := make([]string, 0, len(tags)+1)
	seen := false
	for _, t := range tags {
		if from != "" && t == from {
			t = to
		}
		if t == to {
			if seen {
				continue
			}
			seen = true
		}
		out = append(out, t)
	}
	if !seen {
		out = append(out, to)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
