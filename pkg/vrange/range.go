package vrange

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrInvalidRange = errors.New("invalid range")

// Range is a contiguous run of uint64 values. Bounds are inclusive so the
// range ending at math.MaxUint64 stays representable; the zero value is not
// a valid range.
type Range struct {
	from  uint64
	to    uint64
	valid bool
}

// New returns the range [start, start+length).
func New(start, length uint64) (Range, error) {
	if length == 0 {
		return Range{}, fmt.Errorf("%w: start %d has zero length", ErrInvalidRange, start)
	}
	if start > math.MaxUint64-(length-1) {
		return Range{}, fmt.Errorf("%w: start %d, length %d overflows uint64", ErrInvalidRange, start, length)
	}
	return Range{from: start, to: start + length - 1, valid: true}, nil
}

// MustNew is like New but panics on an invalid range. Meant for literals in tests
// and examples.
func MustNew(start, length uint64) Range {
	r, err := New(start, length)
	if err != nil {
		panic(err)
	}
	return r
}

// FromTo returns the inclusive range [from, to].
func FromTo(from, to uint64) (Range, error) {
	if to < from {
		return Range{}, fmt.Errorf("%w: to %d is before from %d", ErrInvalidRange, to, from)
	}
	return Range{from: from, to: to, valid: true}, nil
}

// Parse parses "start+length" or the inclusive "from-to" notation.
func Parse(s string) (Range, error) {
	if h := strings.IndexByte(s, '+'); h != -1 {
		start, err := strconv.ParseUint(s[:h], 10, 64)
		if err != nil {
			return Range{}, fmt.Errorf("%w: invalid start %q in range %q", ErrInvalidRange, s[:h], s)
		}
		length, err := strconv.ParseUint(s[h+1:], 10, 64)
		if err != nil {
			return Range{}, fmt.Errorf("%w: invalid length %q in range %q", ErrInvalidRange, s[h+1:], s)
		}
		return New(start, length)
	}
	h := strings.IndexByte(s, '-')
	if h == -1 {
		return Range{}, fmt.Errorf("%w: no hyphen or plus in range %q", ErrInvalidRange, s)
	}
	from, err := strconv.ParseUint(s[:h], 10, 64)
	if err != nil {
		return Range{}, fmt.Errorf("%w: invalid from %q in range %q", ErrInvalidRange, s[:h], s)
	}
	to, err := strconv.ParseUint(s[h+1:], 10, 64)
	if err != nil {
		return Range{}, fmt.Errorf("%w: invalid to %q in range %q", ErrInvalidRange, s[h+1:], s)
	}
	return FromTo(from, to)
}

// From returns the lower bound of r.
func (r Range) From() uint64 { return r.from }

// To returns the inclusive upper bound of r.
func (r Range) To() uint64 { return r.to }

// Start is an alias of From.
func (r Range) Start() uint64 { return r.from }

// Length returns the number of values in r. A range covering the whole
// uint64 space cannot be built with New, so the result never wraps for
// ranges built that way.
func (r Range) Length() uint64 {
	if !r.valid {
		return 0
	}
	return r.to - r.from + 1
}

func (r Range) String() string {
	if !r.valid {
		return "invalid"
	}
	return fmt.Sprintf("%d-%d", r.from, r.to)
}

func (r Range) IsValid() bool { return r.valid && r.from <= r.to }

func (r Range) IsZero() bool { return r == Range{} }

func (r Range) Contains(v uint64) bool {
	return r.IsValid() && r.from <= v && v <= r.to
}

// Less orders ranges by start, then by end.
func (r Range) Less(other Range) bool {
	if r.from != other.from {
		return r.from < other.from
	}
	return r.to < other.to
}

// Shift moves r by delta values up (add) or down (!add).
func (r Range) Shift(delta uint64, add bool) Range {
	if add {
		r.from += delta
		r.to += delta
		return r
	}
	r.from -= delta
	r.to -= delta
	return r
}

// Intersect returns the overlap of r and other, and whether there is one.
func (r Range) Intersect(other Range) (Range, bool) {
	if !r.Overlaps(other) {
		return Range{}, false
	}
	return Range{from: max(r.from, other.from), to: min(r.to, other.to), valid: true}, true
}

// Overlaps reports whether r and other share at least one value.
func (r Range) Overlaps(other Range) bool {
	return r.IsValid() && other.IsValid() &&
		!r.EntirelyBefore(other) && !other.EntirelyBefore(r)
}

// EntirelyBefore returns whether r lies entirely before other.
func (r Range) EntirelyBefore(other Range) bool {
	return r.to < other.from
}

// CoveredBy returns whether r is entirely contained within other.
func (r Range) CoveredBy(other Range) bool {
	return other.from <= r.from && r.to <= other.to
}

// OverlapsStartOf returns whether r starts before other and ends inside it.
func (r Range) OverlapsStartOf(other Range) bool {
	return r.from < other.from && other.from <= r.to && r.to < other.to
}

// OverlapsEndOf returns whether r starts inside other and ends after it.
func (r Range) OverlapsEndOf(other Range) bool {
	return other.from < r.from && r.from <= other.to && other.to < r.to
}
