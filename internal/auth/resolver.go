package auth

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/request"
)

// Resolver picks the strategy for one tool call. Implementations must be
// pure: the same tool name and arguments give the same strategy.
type Resolver interface {
	Resolve(toolName string, args map[string]any) Strategy
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(toolName string, args map[string]any) Strategy

func (f ResolverFunc) Resolve(toolName string, args map[string]any) Strategy {
	return f(toolName, args)
}

// Static returns s for every call.
func Static(s Strategy) Resolver {
	return ResolverFunc(func(string, map[string]any) Strategy { return s })
}

// Rule selects Strategy when every condition it sets matches. Keywords match
// when any of them occurs in the tool name (case-insensitive). Args match when
// each named argument equals one of the listed values.
type Rule struct {
	Keywords []string
	Pattern  *regexp.Regexp
	Args     map[string][]string
	Strategy Strategy
}

func (r Rule) matches(toolName string, args map[string]any) bool {
	if len(r.Keywords) > 0 {
		lower := strings.ToLower(toolName)
		hit := false
		for _, kw := range r.Keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if r.Pattern != nil && !r.Pattern.MatchString(toolName) {
		return false
	}
	for name, allowed := range r.Args {
		v, ok := args[name]
		if !ok || v == nil {
			return false
		}
		got := request.FormatValue(v)
		hit := false
		for _, a := range allowed {
			if a == got {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// RuleResolver evaluates rules in order; the first match wins and Fallback
// covers the rest.
type RuleResolver struct {
	Rules    []Rule
	Fallback Strategy
}

func (r *RuleResolver) Resolve(toolName string, args map[string]any) Strategy {
	for _, rule := range r.Rules {
		if rule.matches(toolName, args) {
			return rule.Strategy
		}
	}
	if r.Fallback == nil {
		return NoAuth{}
	}
	return r.Fallback
}

// RuleSpec is the configuration form of a Rule.
type RuleSpec struct {
	Keywords []string            `toml:"keywords"`
	Pattern  string              `toml:"pattern"`
	Args     map[string][]string `toml:"args"`
	Auth     Spec                `toml:"auth"`
}

// NewResolver builds a resolver from configuration. Without rules it is Static.
func NewResolver(def Spec, rules []RuleSpec) (Resolver, error) {
	fallback, err := FromSpec(def)
	if err != nil {
		return nil, fmt.Errorf("default auth: %w", err)
	}
	if len(rules) == 0 {
		return Static(fallback), nil
	}

	rr := &RuleResolver{Fallback: fallback}
	for i, spec := range rules {
		s, err := FromSpec(spec.Auth)
		if err != nil {
			return nil, fmt.Errorf("auth rule %d: %w", i+1, err)
		}
		rule := Rule{Keywords: spec.Keywords, Args: spec.Args, Strategy: s}
		if spec.Pattern != "" {
			re, err := regexp.Compile(spec.Pattern)
			if err != nil {
				return nil, fmt.Errorf("auth rule %d pattern: %w", i+1, err)
			}
			rule.Pattern = re
		}
		rr.Rules = append(rr.Rules, rule)
	}
	return rr, nil
}
