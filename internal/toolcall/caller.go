// Package toolcall is the single entry point for executing a tool by name:
// it resolves the tool, prepares its arguments, picks the auth strategy and
// runs the endpoint.
package toolcall

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/auth"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/common"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/executor"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/metrics"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/registry"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/request"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/toolgen"
)

// ArgumentError lists the schema violations of a call's arguments.
type ArgumentError struct {
	Tool     string
	Problems []string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(e.Problems, "; "))
}

func (e *ArgumentError) Unwrap() error { return request.ErrValidation }

// Caller executes tools from a registry.
type Caller struct {
	registry *registry.Registry
	engine   *executor.Engine
	auth     auth.Resolver
	validate bool
	logger   *common.Logger
	metrics  *metrics.Collector

	schemas sync.Map // *models.Tool -> *gojsonschema.Schema
}

// Option configures a Caller.
type Option func(*Caller)

// WithArgumentValidation checks arguments against the tool input schema
// before any request is built.
func WithArgumentValidation(on bool) Option {
	return func(c *Caller) { c.validate = on }
}

// WithLogger sets the logger.
func WithLogger(l *common.Logger) Option {
	return func(c *Caller) { c.logger = l }
}

// WithMetrics counts calls on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Caller) { c.metrics = m }
}

// New creates a caller. A nil resolver sends no credentials.
func New(reg *registry.Registry, engine *executor.Engine, resolver auth.Resolver, opts ...Option) *Caller {
	c := &Caller{registry: reg, engine: engine, auth: resolver}
	for _, opt := range opts {
		opt(c)
	}
	if c.auth == nil {
		c.auth = auth.Static(auth.NoAuth{})
	}
	if c.logger == nil {
		c.logger = common.NewSilentLogger()
	}
	return c
}

// Registry returns the registry the caller resolves against.
func (c *Caller) Registry() *registry.Registry { return c.registry }

// Call executes toolName with args. The error is non-nil only when the tool
// cannot be resolved; every other failure is reported in the result.
func (c *Caller) Call(ctx context.Context, toolName string, args map[string]any) (*models.ExecutionResult, error) {
	logger := c.logger.WithCorrelationId(uuid.New().String())

	tool, ep, args, strategy, err := c.prepare(toolName, args)
	if err != nil {
		logger.Warn().Str("tool", toolName).Err(err).Msg("Tool resolution failed")
		c.metrics.RecordToolCall(toolName, "unresolved")
		return nil, err
	}

	if c.validate {
		if err := c.validateArgs(tool, args); err != nil {
			logger.Warn().Str("tool", toolName).Err(err).Msg("Tool arguments rejected")
			c.metrics.RecordToolCall(toolName, "invalid")
			return &models.ExecutionResult{
				EndpointName: ep.Name,
				Attempts:     1,
				Err:          err,
				Response:     models.Response{Error: err.Error()},
			}, nil
		}
	}

	logger.Debug().
		Str("tool", toolName).
		Str("endpoint", ep.Name).
		Str("auth", auth.Describe(strategy)).
		Msg("Calling tool")

	res, err := c.engine.Execute(ctx, ep, flatten(tool, args), strategy)
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", toolName, err)
	}
	c.metrics.RecordToolCall(toolName, outcome(res))
	logger.Info().
		Str("tool", toolName).
		Bool("success", res.Success).
		Int("status", res.Response.StatusCode).
		Int("attempts", res.Attempts).
		Msg("Tool call finished")
	return res, nil
}

// Invocation is one entry of CallBatch.
type Invocation struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// CallBatch resolves every invocation first and fails on the first unknown
// tool; otherwise it returns one result per invocation in input order.
func (c *Caller) CallBatch(ctx context.Context, calls []Invocation) ([]*models.ExecutionResult, error) {
	batch := make([]executor.Call, len(calls))
	for i, inv := range calls {
		tool, ep, args, strategy, err := c.prepare(inv.Tool, inv.Arguments)
		if err != nil {
			c.metrics.RecordToolCall(inv.Tool, "unresolved")
			return nil, fmt.Errorf("batch entry %d: %w", i, err)
		}
		batch[i] = executor.Call{Endpoint: ep, Arguments: flatten(tool, args), Auth: strategy}
	}

	results := c.engine.ExecuteBatch(ctx, batch)
	for i, res := range results {
		c.metrics.RecordToolCall(calls[i].Tool, outcome(res))
	}
	return results, nil
}

func (c *Caller) prepare(toolName string, args map[string]any) (*models.Tool, *models.Endpoint, map[string]any, auth.Strategy, error) {
	tool, ep, err := c.registry.ResolveTool(toolName)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return tool, ep, args, c.auth.Resolve(toolName, flatten(tool, args)), nil
}

func flatten(tool *models.Tool, args map[string]any) map[string]any {
	if tool.Metadata.Layout == string(toolgen.LayoutGrouped) {
		return request.FlattenGrouped(args)
	}
	return args
}

func outcome(res *models.ExecutionResult) string {
	if res.Success {
		return "success"
	}
	return "error"
}

func (c *Caller) validateArgs(tool *models.Tool, args map[string]any) error {
	if tool.InputSchema == nil {
		return nil
	}
	schema, err := c.compiled(tool)
	if err != nil {
		return fmt.Errorf("tool %s has an invalid input schema: %w", tool.Name, err)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return &ArgumentError{Tool: tool.Name, Problems: []string{err.Error()}}
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return &ArgumentError{Tool: tool.Name, Problems: problems}
}

func (c *Caller) compiled(tool *models.Tool) (*gojsonschema.Schema, error) {
	if s, ok := c.schemas.Load(tool); ok {
		return s.(*gojsonschema.Schema), nil
	}
	raw, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return nil, err
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, err
	}
	c.schemas.Store(tool, s)
	return s, nil
}
