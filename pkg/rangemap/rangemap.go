package rangemap

import (
	"errors"
	"fmt"
	"sort"

	"github.com/henderiw/rangemap/pkg/vrange"
	"k8s.io/apimachinery/pkg/labels"
)

const (
	LabelFrom = "from"
	LabelTo   = "to"
)

// RangeMap converts values of one category into another. It is immutable
// once built and safe for concurrent use.
type RangeMap struct {
	from   string
	to     string
	rules  []Rule
	labels labels.Set
}

type Option func(*RangeMap)

// WithLabels attaches extra labels to the map; the from/to labels always
// reflect the categories.
func WithLabels(l labels.Set) Option {
	return func(r *RangeMap) {
		for k, v := range l {
			r.labels[k] = v
		}
	}
}

// New validates every rule and rejects rules whose source intervals
// overlap. All problems are reported at once.
func New(from, to string, rules []Rule, opts ...Option) (*RangeMap, error) {
	r := &RangeMap{
		from:   from,
		to:     to,
		rules:  make([]Rule, len(rules)),
		labels: labels.Set{},
	}
	copy(r.rules, rules)
	for _, o := range opts {
		o(r)
	}
	r.labels[LabelFrom] = from
	r.labels[LabelTo] = to

	var errm error
	if from == "" || to == "" {
		errm = errors.Join(errm, fmt.Errorf("%w: map %q-to-%q needs both categories", ErrInvalidRule, from, to))
	}
	for _, rule := range r.rules {
		if err := rule.Validate(); err != nil {
			errm = errors.Join(errm, fmt.Errorf("map %s: %w", r.Name(), err))
		}
	}
	if errm != nil {
		return nil, errm
	}
	if err := r.validateDisjoint(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RangeMap) validateDisjoint() error {
	sorted := make([]Rule, len(r.rules))
	copy(sorted, r.rules)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SourceStart < sorted[j].SourceStart })

	var errm error
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Source().Overlaps(cur.Source()) {
			errm = errors.Join(errm, fmt.Errorf("%w: map %s: %s overlaps %s", ErrInvalidRule, r.Name(), prev, cur))
		}
	}
	return errm
}

func (r *RangeMap) From() string { return r.from }

func (r *RangeMap) To() string { return r.to }

func (r *RangeMap) Name() string { return fmt.Sprintf("%s-to-%s", r.from, r.to) }

// Rules returns a copy of the rules in listed order.
func (r *RangeMap) Rules() []Rule {
	rules := make([]Rule, len(r.rules))
	copy(rules, r.rules)
	return rules
}

// Labels returns a copy of the map labels.
func (r *RangeMap) Labels() labels.Set {
	l := make(labels.Set, len(r.labels))
	for k, v := range r.labels {
		l[k] = v
	}
	return l
}

func (r *RangeMap) String() string {
	return fmt.Sprintf("%s (%d rules)", r.Name(), len(r.rules))
}

// MapValue returns the value v converts to. The first listed rule that
// contains v wins; values outside every rule pass through unchanged.
func (r *RangeMap) MapValue(v uint64) uint64 {
	if rule, ok := r.Match(v); ok {
		return rule.MapValue(v)
	}
	return v
}

// Match returns the first listed rule containing v.
func (r *RangeMap) Match(v uint64) (Rule, bool) {
	for _, rule := range r.rules {
		if rule.Contains(v) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Fragment is one rule-aligned piece of a split range.
type Fragment struct {
	Source vrange.Range
	Dest   vrange.Range
	// Mapped is false for pieces no rule covers; Dest equals Source then.
	Mapped bool
}

// Split cuts in along the rule boundaries and maps every piece. The
// fragments partition in, so their lengths add up to in.Length().
func (r *RangeMap) Split(in vrange.Range) ([]Fragment, error) {
	if !in.IsValid() {
		return nil, fmt.Errorf("map %s: %w: %s", r.Name(), vrange.ErrInvalidRange, in)
	}

	var (
		out     []Fragment
		emitted uint64
	)
	w := newWorklist(in)
	for {
		if err := checkConserved(in, emitted, w); err != nil {
			return nil, fmt.Errorf("map %s: %w", r.Name(), err)
		}
		sub, ok := w.pop()
		if !ok {
			break
		}
		before := len(out)
		matched := false
		for _, rule := range r.rules {
			src := rule.Source()
			switch sub.Classify(src) {
			case vrange.Disjoint:
				continue
			case vrange.Within:
				out = append(out, Fragment{Source: sub, Dest: rule.mapRange(sub), Mapped: true})
			case vrange.Spans:
				out = append(out, Fragment{Source: src, Dest: rule.Dest(), Mapped: true})
				if prefix, ok := sub.Prefix(src); ok {
					w.push(prefix)
				}
				if suffix, ok := sub.Suffix(src); ok {
					w.push(suffix)
				}
			case vrange.LeadsInto:
				overlap, _ := sub.Intersect(src)
				out = append(out, Fragment{Source: overlap, Dest: rule.mapRange(overlap), Mapped: true})
				prefix, _ := sub.Prefix(src)
				w.push(prefix)
			case vrange.TrailsOut:
				overlap, _ := sub.Intersect(src)
				out = append(out, Fragment{Source: overlap, Dest: rule.mapRange(overlap), Mapped: true})
				suffix, _ := sub.Suffix(src)
				w.push(suffix)
			}
			matched = true
			break
		}
		if !matched {
			out = append(out, Fragment{Source: sub, Dest: sub})
		}
		for _, f := range out[before:] {
			emitted += f.Source.Length()
		}
	}
	return out, nil
}

// checkConserved verifies that the emitted pieces and the queued ones
// still add up to the input.
func checkConserved(in vrange.Range, emitted uint64, w *worklist) error {
	if got := emitted + w.remaining(); got != in.Length() {
		return fmt.Errorf("%w: split of %s accounts for %d values, want %d", ErrLengthMismatch, in, got, in.Length())
	}
	return nil
}

// MapRange returns where the values of in land after this stage.
func (r *RangeMap) MapRange(in vrange.Range) ([]vrange.Range, error) {
	frags, err := r.Split(in)
	if err != nil {
		return nil, err
	}
	out := make([]vrange.Range, 0, len(frags))
	for _, f := range frags {
		out = append(out, f.Dest)
	}
	return out, nil
}

// MapRanges maps every range of in independently and returns the union of
// the pieces.
func (r *RangeMap) MapRanges(in []vrange.Range) ([]vrange.Range, error) {
	out := make([]vrange.Range, 0, len(in))
	for _, rr := range in {
		mapped, err := r.MapRange(rr)
		if err != nil {
			return nil, err
		}
		out = append(out, mapped...)
	}
	return out, nil
}
