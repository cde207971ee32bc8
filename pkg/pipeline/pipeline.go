package pipeline

import (
	"errors"
	"fmt"

	"github.com/henderiw/rangemap/pkg/rangemap"
	"github.com/henderiw/rangemap/pkg/vrange"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/sets"
)

var ErrChainBroken = errors.New("chain broken")

// Pipeline is a chain of range maps from a start category to a terminal
// category. The chain is resolved once at construction; a Pipeline is
// immutable and safe for concurrent use.
type Pipeline struct {
	start    string
	terminal string
	byFrom   map[string]*rangemap.RangeMap
	stages   []*rangemap.RangeMap
}

// New indexes the maps by source category and resolves the chain from
// start to terminal. Maps that are not on that path are kept for Resolve
// but never run.
func New(start, terminal string, maps ...*rangemap.RangeMap) (*Pipeline, error) {
	r := &Pipeline{
		start:    start,
		terminal: terminal,
		byFrom:   make(map[string]*rangemap.RangeMap, len(maps)),
	}

	var errm error
	for i, m := range maps {
		if m == nil {
			errm = errors.Join(errm, fmt.Errorf("%w: stage %d is nil", ErrChainBroken, i))
			continue
		}
		if prev, ok := r.byFrom[m.From()]; ok {
			errm = errors.Join(errm, fmt.Errorf("%w: category %q has two stages: %s and %s",
				ErrChainBroken, m.From(), prev.Name(), m.Name()))
			continue
		}
		r.byFrom[m.From()] = m
	}
	if errm != nil {
		return nil, errm
	}

	stages, err := r.Resolve(start)
	if err != nil {
		return nil, err
	}
	r.stages = stages
	return r, nil
}

// Resolve returns the ordered stages leading from category to the
// terminal category.
func (r *Pipeline) Resolve(category string) ([]*rangemap.RangeMap, error) {
	var stages []*rangemap.RangeMap
	seen := sets.New[string]()
	for cur := category; cur != r.terminal; {
		if seen.Has(cur) {
			return nil, fmt.Errorf("%w: cycle through category %q before reaching %q", ErrChainBroken, cur, r.terminal)
		}
		seen.Insert(cur)

		m, ok := r.byFrom[cur]
		if !ok {
			return nil, fmt.Errorf("%w: no stage converts %q on the way from %q to %q", ErrChainBroken, cur, category, r.terminal)
		}
		stages = append(stages, m)
		cur = m.To()
	}
	return stages, nil
}

func (r *Pipeline) Start() string { return r.start }

func (r *Pipeline) Terminal() string { return r.terminal }

// Len returns the number of resolved stages.
func (r *Pipeline) Len() int { return len(r.stages) }

// Stages returns the resolved stages in run order.
func (r *Pipeline) Stages() []*rangemap.RangeMap {
	stages := make([]*rangemap.RangeMap, len(r.stages))
	copy(stages, r.stages)
	return stages
}

// StagesByLabel returns the resolved stages whose labels match selector,
// in run order.
func (r *Pipeline) StagesByLabel(selector labels.Selector) []*rangemap.RangeMap {
	stages := make([]*rangemap.RangeMap, 0, len(r.stages))
	iter := r.Iterate()
	for iter.Next() {
		if selector.Matches(iter.Value().Labels()) {
			stages = append(stages, iter.Value())
		}
	}
	return stages
}

// RunValue converts v from the start category to the terminal category.
func (r *Pipeline) RunValue(v uint64) uint64 {
	for _, m := range r.stages {
		v = m.MapValue(v)
	}
	return v
}

// RunRanges converts a set of ranges stage by stage; the output of one
// stage is the input of the next.
func (r *Pipeline) RunRanges(ranges []vrange.Range) ([]vrange.Range, error) {
	for _, rr := range ranges {
		if !rr.IsValid() {
			return nil, fmt.Errorf("pipeline %s-to-%s: %w: %s", r.start, r.terminal, vrange.ErrInvalidRange, rr)
		}
	}
	cur := append([]vrange.Range(nil), ranges...)
	for _, m := range r.stages {
		next, err := m.MapRanges(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
