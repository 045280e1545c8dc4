package executor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/auth"
	"github.com/stevecrawshaw/rest-to-mcp-adapter/internal/models"
)

// Call is one entry of a batch. Each call carries its own strategy.
type Call struct {
	Endpoint  *models.Endpoint
	Arguments map[string]any
	Auth      auth.Strategy
}

// ExecuteBatch runs calls and returns one result per call in input order.
// With Concurrency above 1 calls run in parallel, bounded by Concurrency.
func (e *Engine) ExecuteBatch(ctx context.Context, calls []Call) []*models.ExecutionResult {
	results := make([]*models.ExecutionResult, len(calls))

	if e.cfg.Concurrency <= 1 {
		for i, c := range calls {
			results[i] = e.executeCall(ctx, c)
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i, c := range calls {
		g.Go(func() error {
			results[i] = e.executeCall(gctx, c)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (e *Engine) executeCall(ctx context.Context, c Call) *models.ExecutionResult {
	res, err := e.Execute(ctx, c.Endpoint, c.Arguments, c.Auth)
	if err != nil {
		return &models.ExecutionResult{
			Attempts: 1,
			Err:      err,
			Response: models.Response{Error: err.Error()},
		}
	}
	return res
}
