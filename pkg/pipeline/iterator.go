package pipeline

import "github.com/henderiw/rangemap/pkg/rangemap"

type Iterator struct {
	current int
	stages  []*rangemap.RangeMap
}

// Iterate walks the resolved stages in run order.
func (r *Pipeline) Iterate() *Iterator {
	return &Iterator{current: -1, stages: r.stages}
}

func (r *Iterator) Value() *rangemap.RangeMap {
	return r.stages[r.current]
}

func (r *Iterator) Next() bool {
	r.current++
	return r.current < len(r.stages)
}

// IsChained reports whether the current stage picks up where the previous
// one left off. The first stage has nothing to chain to.
func (r *Iterator) IsChained() bool {
	if r.current < 1 {
		return false
	}
	return r.stages[r.current-1].To() == r.stages[r.current].From()
}
