package vrange

import (
	"fmt"
	"sort"
)

// Overlap describes how a range sits relative to another one.
type Overlap int

const (
	// Disjoint: no value in common.
	Disjoint Overlap = iota
	// Within: the range is entirely covered by the other one.
	Within
	// Spans: the range covers the other one and sticks out on at least one side.
	Spans
	// LeadsInto: the range starts before the other one and ends inside it.
	LeadsInto
	// TrailsOut: the range starts inside the other one and ends after it.
	TrailsOut
)

func (o Overlap) String() string {
	switch o {
	case Disjoint:
		return "disjoint"
	case Within:
		return "within"
	case Spans:
		return "spans"
	case LeadsInto:
		return "leads-into"
	case TrailsOut:
		return "trails-out"
	}
	return "unknown"
}

// Classify reports how r overlaps other. The cases are exhaustive and
// mutually exclusive for valid ranges.
func (r Range) Classify(other Range) Overlap {
	switch {
	case !r.Overlaps(other):
		return Disjoint
	case r.CoveredBy(other):
		return Within
	case other.CoveredBy(r):
		return Spans
	case r.OverlapsStartOf(other):
		return LeadsInto
	case r.OverlapsEndOf(other):
		return TrailsOut
	default:
		panic(fmt.Sprintf("unclassified overlap of %s and %s - should be impossible", r, other))
	}
}

// Prefix returns the part of r strictly before other, if any.
func (r Range) Prefix(other Range) (Range, bool) {
	if r.from >= other.from {
		return Range{}, false
	}
	return Range{from: r.from, to: min(r.to, other.from-1), valid: true}, true
}

// Suffix returns the part of r strictly after other, if any.
func (r Range) Suffix(other Range) (Range, bool) {
	if r.to <= other.to {
		return Range{}, false
	}
	return Range{from: max(r.from, other.to+1), to: r.to, valid: true}, true
}

// TotalLength sums the lengths of rr.
func TotalLength(rr []Range) uint64 {
	var n uint64
	for _, r := range rr {
		n += r.Length()
	}
	return n
}

// Min returns the smallest start among rr and false when rr is empty.
func Min(rr []Range) (uint64, bool) {
	if len(rr) == 0 {
		return 0, false
	}
	m := rr[0].from
	for _, r := range rr[1:] {
		if r.from < m {
			m = r.from
		}
	}
	return m, true
}

// Merge returns the minimum and sorted set of ranges that cover rr. It
// refuses to merge invalid ranges.
func Merge(rr []Range) (out []Range, valid bool) {
	// Always return a copy of rr, to avoid aliasing slice memory in
	// the caller.
	switch len(rr) {
	case 0:
		return nil, true
	case 1:
		if !rr[0].IsValid() {
			return nil, false
		}
		return append(out, rr[0]), true
	}

	sorted := make([]Range, len(rr))
	copy(sorted, rr)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	out = make([]Range, 1, len(sorted))
	out[0] = sorted[0]
	if !out[0].IsValid() {
		return nil, false
	}
	for _, r := range sorted[1:] {
		prev := &out[len(out)-1]
		switch {
		case !r.IsValid():
			return nil, false
		case prev.to != ^uint64(0) && prev.to+1 == r.from:
			// prev and r touch, merge them.
			//
			//   prev     r
			// f------tf-----t
			prev.to = r.to
		case prev.to < r.from:
			// No overlap and not adjacent.
			//
			//   prev       r
			// f------t  f-----t
			out = append(out, r)
		case prev.to < r.to:
			// Partial overlap, extend prev.
			//
			//   prev
			// f------t
			//     f-----t
			//        r
			prev.to = r.to
		default:
			// r entirely contained in prev, nothing to do.
		}
	}
	return out, true
}
