package rangemap

import (
	"errors"
	"fmt"
	"math"

	"github.com/henderiw/rangemap/pkg/vrange"
)

var (
	ErrInvalidRule    = errors.New("invalid rule")
	ErrLengthMismatch = errors.New("length not conserved")
)

// Rule maps SourceStart+k to DestStart+k for k in [0, Length).
type Rule struct {
	SourceStart uint64
	DestStart   uint64
	Length      uint64
}

// NewRule follows the almanac line order: destination, source, length.
func NewRule(destStart, sourceStart, length uint64) (Rule, error) {
	r := Rule{SourceStart: sourceStart, DestStart: destStart, Length: length}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

func (r Rule) Validate() error {
	if r.Length == 0 {
		return fmt.Errorf("%w: %s has zero length", ErrInvalidRule, r)
	}
	if r.SourceStart > math.MaxUint64-(r.Length-1) {
		return fmt.Errorf("%w: source side of %s overflows uint64", ErrInvalidRule, r)
	}
	if r.DestStart > math.MaxUint64-(r.Length-1) {
		return fmt.Errorf("%w: destination side of %s overflows uint64", ErrInvalidRule, r)
	}
	return nil
}

func (r Rule) String() string {
	return fmt.Sprintf("dest %d src %d len %d", r.DestStart, r.SourceStart, r.Length)
}

// Source returns the source interval. It panics unless Validate passed;
// rules built with NewRule or held by a RangeMap always pass.
func (r Rule) Source() vrange.Range {
	return vrange.MustNew(r.SourceStart, r.Length)
}

// Dest returns the destination interval. It panics unless Validate passed.
func (r Rule) Dest() vrange.Range {
	return vrange.MustNew(r.DestStart, r.Length)
}

func (r Rule) Contains(v uint64) bool {
	return v >= r.SourceStart && v-r.SourceStart < r.Length
}

// MapValue requires Contains(v).
func (r Rule) MapValue(v uint64) uint64 {
	return r.DestStart + (v - r.SourceStart)
}

// mapRange shifts a sub-range of the source interval onto the destination.
func (r Rule) mapRange(sub vrange.Range) vrange.Range {
	if r.DestStart >= r.SourceStart {
		return sub.Shift(r.DestStart-r.SourceStart, true)
	}
	return sub.Shift(r.SourceStart-r.DestStart, false)
}

// Offset renders the shift applied by r, e.g. "+2" or "-48".
func (r Rule) Offset() string {
	if r.DestStart >= r.SourceStart {
		return fmt.Sprintf("+%d", r.DestStart-r.SourceStart)
	}
	return fmt.Sprintf("-%d", r.SourceStart-r.DestStart)
}
