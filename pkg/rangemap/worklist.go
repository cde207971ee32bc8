package rangemap

import "github.com/henderiw/rangemap/pkg/vrange"

// worklist holds the sub-ranges not yet classified against a stage. The
// processing order does not matter, so it is a plain stack.
type worklist struct {
	items []vrange.Range
}

func newWorklist(r vrange.Range) *worklist {
	return &worklist{items: []vrange.Range{r}}
}

func (w *worklist) push(r vrange.Range) {
	w.items = append(w.items, r)
}

func (w *worklist) pop() (vrange.Range, bool) {
	n := len(w.items)
	if n == 0 {
		return vrange.Range{}, false
	}
	r := w.items[n-1]
	w.items = w.items[:n-1]
	return r, true
}

// remaining returns the total length still queued.
func (w *worklist) remaining() uint64 {
	return vrange.TotalLength(w.items)
}
