package rangemap

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/henderiw/rangemap/pkg/vrange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/labels"
)

func mustRule(t *testing.T, dest, src, length uint64) Rule {
	t.Helper()
	r, err := NewRule(dest, src, length)
	require.NoError(t, err)
	return r
}

func seedToSoil(t *testing.T) *RangeMap {
	t.Helper()
	m, err := New("seed", "soil", []Rule{
		mustRule(t, 50, 98, 2),
		mustRule(t, 52, 50, 48),
	})
	require.NoError(t, err)
	return m
}

var rangeCmp = cmp.Comparer(func(a, b vrange.Range) bool { return a == b })

func TestNewRule(t *testing.T) {
	cases := map[string]struct {
		dest, src, length uint64
		expectedErr       bool
	}{
		"Normal":            {dest: 50, src: 98, length: 2},
		"ErrorZeroLength":   {dest: 50, src: 98, length: 0, expectedErr: true},
		"ErrorSrcOverflow":  {dest: 0, src: math.MaxUint64, length: 2, expectedErr: true},
		"ErrorDestOverflow": {dest: math.MaxUint64, src: 0, length: 2, expectedErr: true},
		"EndsAtMax":         {dest: 0, src: math.MaxUint64, length: 1},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewRule(tc.dest, tc.src, tc.length)
			if tc.expectedErr {
				assert.True(t, errors.Is(err, ErrInvalidRule))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRuleContains(t *testing.T) {
	r := mustRule(t, 52, 50, 48)
	assert.False(t, r.Contains(49))
	assert.True(t, r.Contains(50))
	assert.True(t, r.Contains(97))
	assert.False(t, r.Contains(98))
	assert.Equal(t, uint64(81), r.MapValue(79))
	assert.Equal(t, "+2", r.Offset())
	assert.Equal(t, "-48", mustRule(t, 50, 98, 2).Offset())
}

func TestNewRangeMap(t *testing.T) {
	cases := map[string]struct {
		from, to    string
		rules       []Rule
		expectedErr bool
	}{
		"Normal": {
			from: "seed", to: "soil",
			rules: []Rule{{DestStart: 50, SourceStart: 98, Length: 2}, {DestStart: 52, SourceStart: 50, Length: 48}},
		},
		"NoRules": {
			from: "seed", to: "soil",
		},
		"TouchingRules": {
			from: "a", to: "b",
			rules: []Rule{{DestStart: 0, SourceStart: 0, Length: 10}, {DestStart: 100, SourceStart: 10, Length: 10}},
		},
		"ErrorOverlappingRules": {
			from: "a", to: "b",
			rules:       []Rule{{DestStart: 0, SourceStart: 0, Length: 10}, {DestStart: 100, SourceStart: 9, Length: 10}},
			expectedErr: true,
		},
		"ErrorZeroLengthRule": {
			from: "a", to: "b",
			rules:       []Rule{{DestStart: 0, SourceStart: 0, Length: 0}},
			expectedErr: true,
		},
		"ErrorMissingCategory": {
			from: "a", to: "",
			expectedErr: true,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			m, err := New(tc.from, tc.to, tc.rules)
			if tc.expectedErr {
				assert.ErrorIs(t, err, ErrInvalidRule)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.from, m.From())
			assert.Equal(t, tc.to, m.To())
			assert.Len(t, m.Rules(), len(tc.rules))
		})
	}
}

func TestLabels(t *testing.T) {
	m, err := New("seed", "soil", nil, WithLabels(labels.Set{"day": "5", LabelFrom: "ignored"}))
	require.NoError(t, err)

	l := m.Labels()
	assert.Equal(t, "seed", l[LabelFrom])
	assert.Equal(t, "soil", l[LabelTo])
	assert.Equal(t, "5", l["day"])

	l["day"] = "6"
	assert.Equal(t, "5", m.Labels()["day"])
}

func TestMapValue(t *testing.T) {
	m := seedToSoil(t)
	cases := map[string]struct {
		in, expected uint64
	}{
		"Passthrough":  {in: 10, expected: 10},
		"FirstRule":    {in: 98, expected: 50},
		"SecondRule":   {in: 79, expected: 81},
		"RuleStart":    {in: 50, expected: 52},
		"RuleEnd":      {in: 97, expected: 99},
		"AfterAll":     {in: 100, expected: 100},
		"JustBefore50": {in: 49, expected: 49},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, m.MapValue(tc.in))
		})
	}
}

func TestMapRange(t *testing.T) {
	m := seedToSoil(t)
	cases := map[string]struct {
		in       vrange.Range
		expected []vrange.Range
	}{
		"Within": {
			in:       vrange.MustNew(79, 14),
			expected: []vrange.Range{vrange.MustNew(81, 14)},
		},
		"NoMatch": {
			in:       vrange.MustNew(0, 50),
			expected: []vrange.Range{vrange.MustNew(0, 50)},
		},
		"EndsOnRuleStart": {
			// [40, 50] touches the first value of the 50 rule only
			in:       vrange.MustNew(40, 11),
			expected: []vrange.Range{vrange.MustNew(52, 1), vrange.MustNew(40, 10)},
		},
		"CrossesBoundary98": {
			// 90-97 -> 92-99, 98-99 -> 50-51, 100-103 unchanged
			in: vrange.MustNew(90, 14),
			expected: []vrange.Range{
				vrange.MustNew(92, 8),
				vrange.MustNew(50, 2),
				vrange.MustNew(100, 4),
			},
		},
		"SpansAllRules": {
			in: vrange.MustNew(0, 200),
			expected: []vrange.Range{
				vrange.MustNew(50, 2),
				vrange.MustNew(100, 100),
				vrange.MustNew(52, 48),
				vrange.MustNew(0, 50),
			},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := m.MapRange(tc.in)
			require.NoError(t, err)
			if diff := cmp.Diff(sorted(tc.expected), sorted(got), rangeCmp); diff != "" {
				t.Errorf("%s: -want, +got:\n%s", name, diff)
			}
			assert.Equal(t, tc.in.Length(), vrange.TotalLength(got))
		})
	}
}

func TestMapRangeInvalid(t *testing.T) {
	m := seedToSoil(t)
	_, err := m.MapRange(vrange.Range{})
	assert.ErrorIs(t, err, vrange.ErrInvalidRange)
}

func TestMapRangeLargeSpan(t *testing.T) {
	m, err := New("a", "b", []Rule{
		{DestStart: 0, SourceStart: 1 << 40, Length: 1 << 35},
		{DestStart: math.MaxUint64 - 9, SourceStart: 10, Length: 10},
	})
	require.NoError(t, err)

	in := vrange.MustNew(0, math.MaxUint64)
	got, err := m.MapRange(in)
	require.NoError(t, err)
	assert.Equal(t, in.Length(), vrange.TotalLength(got))
	assert.Len(t, got, 5)
}

func TestSplitProperties(t *testing.T) {
	m, err := New("soil", "fertilizer", []Rule{
		{DestStart: 0, SourceStart: 15, Length: 37},
		{DestStart: 37, SourceStart: 52, Length: 2},
		{DestStart: 39, SourceStart: 0, Length: 15},
	})
	require.NoError(t, err)

	inputs := []vrange.Range{
		vrange.MustNew(0, 1),
		vrange.MustNew(0, 100),
		vrange.MustNew(14, 2),
		vrange.MustNew(51, 3),
		vrange.MustNew(53, 10),
		vrange.MustNew(54, 1),
		vrange.MustNew(10, 44),
	}
	for _, in := range inputs {
		t.Run(in.String(), func(t *testing.T) {
			frags, err := m.Split(in)
			require.NoError(t, err)

			// length is conserved
			var total uint64
			for _, f := range frags {
				total += f.Source.Length()
				assert.Equal(t, f.Source.Length(), f.Dest.Length())
			}
			assert.Equal(t, in.Length(), total)

			// every value maps the same way through a single lookup
			for v := in.From(); v <= in.To(); v++ {
				found := 0
				for _, f := range frags {
					if f.Source.Contains(v) {
						found++
						assert.Equal(t, m.MapValue(v), f.Dest.From()+(v-f.Source.From()), "value %d", v)
					}
				}
				assert.Equal(t, 1, found, "value %d", v)
			}

			// fragments are already aligned to the rules
			for _, f := range frags {
				again, err := m.Split(f.Source)
				require.NoError(t, err)
				if diff := cmp.Diff([]Fragment{f}, again, rangeCmp); diff != "" {
					t.Errorf("resplit %s: -want, +got:\n%s", f.Source, diff)
				}
			}
		})
	}
}

func TestMapRanges(t *testing.T) {
	m := seedToSoil(t)
	got, err := m.MapRanges([]vrange.Range{vrange.MustNew(79, 14), vrange.MustNew(55, 13)})
	require.NoError(t, err)
	if diff := cmp.Diff([]vrange.Range{vrange.MustNew(81, 14), vrange.MustNew(57, 13)}, got, rangeCmp); diff != "" {
		t.Errorf("-want, +got:\n%s", diff)
	}
}

func TestWorklist(t *testing.T) {
	w := newWorklist(vrange.MustNew(0, 10))
	w.push(vrange.MustNew(20, 5))
	assert.Equal(t, uint64(15), w.remaining())

	r, ok := w.pop()
	assert.True(t, ok)
	assert.Equal(t, vrange.MustNew(20, 5), r)
	_, ok = w.pop()
	assert.True(t, ok)
	_, ok = w.pop()
	assert.False(t, ok)
	assert.Equal(t, uint64(0), w.remaining())
}

func sorted(rr []vrange.Range) []vrange.Range {
	out := make([]vrange.Range, len(rr))
	copy(out, rr)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func TestCheckConserved(t *testing.T) {
	in := vrange.MustNew(90, 14)
	cases := map[string]struct {
		emitted     uint64
		queued      []vrange.Range
		expectedErr bool
	}{
		"Start": {
			emitted: 0,
			queued:  []vrange.Range{in},
		},
		"HalfwayThrough": {
			emitted: 2,
			queued:  []vrange.Range{vrange.MustNew(90, 8), vrange.MustNew(100, 4)},
		},
		"Done": {
			emitted: 14,
		},
		"ErrorLostValues": {
			emitted:     2,
			queued:      []vrange.Range{vrange.MustNew(90, 8)},
			expectedErr: true,
		},
		"ErrorDoubleCounted": {
			emitted:     14,
			queued:      []vrange.Range{vrange.MustNew(100, 4)},
			expectedErr: true,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := &worklist{items: tc.queued}
			err := checkConserved(in, tc.emitted, w)
			if tc.expectedErr {
				assert.ErrorIs(t, err, ErrLengthMismatch)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRuleIntervals(t *testing.T) {
	r := mustRule(t, 50, 98, 2)
	assert.Equal(t, vrange.MustNew(98, 2), r.Source())
	assert.Equal(t, vrange.MustNew(50, 2), r.Dest())

	assert.Error(t, Rule{}.Validate())
	assert.Panics(t, func() { _ = Rule{}.Source() })
	assert.Panics(t, func() { _ = Rule{DestStart: math.MaxUint64, Length: 2}.Dest() })
}
