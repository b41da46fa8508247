package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/darasa/core"
)

// group fans out independent read-only aggregate queries and joins their
// results: total latency ~ max individual latency. Queries never depend on
// each other's results; each one writes to its own destination field.
//
// Queries are either critical (failure aborts the whole fan-out) or optional
// (failure is logged and the destination keeps its default value; the caller
// never sees it). Each query runs under its own timeout so one slow optional
// query cannot stall the response.
type group struct {
	eg      *errgroup.Group
	ctx     context.Context
	timeout time.Duration
	logger  core.Logger
}

func newGroup(ctx context.Context, logger core.Logger, timeout time.Duration) *group {
	eg, ctx := errgroup.WithContext(ctx)
	return &group{eg: eg, ctx: ctx, timeout: timeout, logger: logger}
}

func (g *group) run(fn func(context.Context) error) error {
	ctx := g.ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return fn(ctx)
}

// Critical launches a query whose failure aborts the whole operation.
func (g *group) Critical(name string, fn func(context.Context) error) {
	g.eg.Go(func() error {
		if err := g.run(fn); err != nil {
			return errors.Wrap(err, name)
		}
		return nil
	})
}

// Optional launches a query whose failure (or timeout) only logs a warning;
// the destination value keeps its default.
func (g *group) Optional(name string, fn func(context.Context) error) {
	g.eg.Go(func() error {
		if err := g.run(fn); err != nil && g.ctx.Err() == nil {
			g.logger.Warn(fmt.Sprintf("analytics: %s degraded: %v", name, err))
		}
		return nil
	})
}

// Wait joins all launched queries and reports the first critical failure.
func (g *group) Wait() error {
	return g.eg.Wait()
}
