package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/henderiw/rangemap/pkg/pipeline"
	"github.com/henderiw/rangemap/pkg/vrange"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrEmptyPipeline = errors.New("empty pipeline input")

// Engine pushes initial ranges or values through a pipeline and reduces
// the terminal results. Independent inputs run in parallel.
type Engine struct {
	p        *pipeline.Pipeline
	workers  int
	coalesce bool
	log      *zap.Logger
}

type Option func(*Engine)

// WithWorkers bounds the number of inputs processed at once. Values below 1
// fall back to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithCoalesce merges touching and overlapping fragments after every stage.
func WithCoalesce(b bool) Option {
	return func(e *Engine) { e.coalesce = b }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New returns an engine over p. It panics if p is nil.
func New(p *pipeline.Pipeline, opts ...Option) *Engine {
	if p == nil {
		panic("engine: nil pipeline")
	}
	e := &Engine{
		p:   p,
		log: zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.workers < 1 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	return e
}

// MinimumTerminalValue returns the smallest terminal value any of the
// initial ranges reaches.
func (e *Engine) MinimumTerminalValue(ctx context.Context, initial []vrange.Range) (uint64, error) {
	if len(initial) == 0 {
		return 0, ErrEmptyPipeline
	}
	if err := validate(initial); err != nil {
		return 0, err
	}

	mins := make([]uint64, len(initial))
	err := e.fanOut(ctx, len(initial), func(i int) error {
		out, err := e.runRange(initial[i])
		if err != nil {
			return err
		}
		m, _ := vrange.Min(out)
		mins[i] = m
		e.log.Debug("range done",
			zap.Stringer("initial", initial[i]),
			zap.Int("fragments", len(out)),
			zap.Uint64("min", m))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return fold(mins), nil
}

// MinimumTerminalValueSingle is MinimumTerminalValue for discrete values,
// tracing each one on its own.
func (e *Engine) MinimumTerminalValueSingle(ctx context.Context, values []uint64) (uint64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyPipeline
	}

	out := make([]uint64, len(values))
	err := e.fanOut(ctx, len(values), func(i int) error {
		out[i] = e.p.RunValue(values[i])
		e.log.Debug("value done", zap.Uint64("initial", values[i]), zap.Uint64("terminal", out[i]))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return fold(out), nil
}

// TerminalRanges returns the merged set of terminal ranges the initial
// ranges land on.
func (e *Engine) TerminalRanges(ctx context.Context, initial []vrange.Range) ([]vrange.Range, error) {
	if len(initial) == 0 {
		return nil, ErrEmptyPipeline
	}
	if err := validate(initial); err != nil {
		return nil, err
	}

	parts := make([][]vrange.Range, len(initial))
	err := e.fanOut(ctx, len(initial), func(i int) error {
		out, err := e.runRange(initial[i])
		parts[i] = out
		return err
	})
	if err != nil {
		return nil, err
	}

	var all []vrange.Range
	for _, part := range parts {
		all = append(all, part...)
	}
	merged, ok := vrange.Merge(all)
	if !ok {
		return nil, fmt.Errorf("%w: terminal set holds an invalid range", vrange.ErrInvalidRange)
	}
	return merged, nil
}

// runRange drives one initial range through every stage.
func (e *Engine) runRange(initial vrange.Range) ([]vrange.Range, error) {
	if !e.coalesce {
		return e.p.RunRanges([]vrange.Range{initial})
	}
	cur := []vrange.Range{initial}
	iter := e.p.Iterate()
	for iter.Next() {
		next, err := iter.Value().MapRanges(cur)
		if err != nil {
			return nil, err
		}
		merged, ok := vrange.Merge(next)
		if !ok {
			return nil, fmt.Errorf("stage %s: %w", iter.Value().Name(), vrange.ErrInvalidRange)
		}
		cur = merged
	}
	return cur, nil
}

// fanOut runs fn for every index with at most e.workers in flight. The
// first error cancels the remaining work.
func (e *Engine) fanOut(ctx context.Context, n int, fn func(i int) error) error {
	e.log.Debug("dispatch",
		zap.String("start", e.p.Start()),
		zap.String("terminal", e.p.Terminal()),
		zap.Int("inputs", n),
		zap.Int("workers", e.workers),
		zap.Bool("coalesce", e.coalesce))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// the caller may have cancelled between tasks without any of them failing
	return ctx.Err()
}

func validate(rr []vrange.Range) error {
	for i, r := range rr {
		if !r.IsValid() {
			return fmt.Errorf("initial range %d: %w: %s", i, vrange.ErrInvalidRange, r)
		}
	}
	return nil
}

func fold(vals []uint64) uint64 {
	m := uint64(math.MaxUint64)
	for _, v := range vals {
		m = min(m, v)
	}
	return m
}
