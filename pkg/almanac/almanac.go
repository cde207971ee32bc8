// Package almanac reads the text configuration that describes a pipeline:
// a first line of seed numbers followed by blocks of conversion rules.
//
//	seeds: 79 14 55 13
//
//	seed-to-soil map:
//	50 98 2
//	52 50 48
package almanac

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/henderiw/rangemap/pkg/pipeline"
	"github.com/henderiw/rangemap/pkg/rangemap"
	"github.com/henderiw/rangemap/pkg/vrange"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/sets"
)

var ErrMalformedInput = errors.New("malformed input")

const (
	mapSuffix = " map:"
	toInfix   = "-to-"

	// maxLineSize bounds a single input line; seed lines can be long.
	maxLineSize = 16 << 20

	// LabelBlock records the position of a map block in the input.
	LabelBlock = "block"
)

type Almanac struct {
	// Label is the text before the colon on the first line, e.g. "seeds".
	Label   string
	Numbers []uint64
	Maps    []*rangemap.RangeMap
}

// Seeds returns the numbers of the first line as discrete values.
func (r *Almanac) Seeds() []uint64 {
	seeds := make([]uint64, len(r.Numbers))
	copy(seeds, r.Numbers)
	return seeds
}

// SeedRanges reads the numbers of the first line as (start, length) pairs.
func (r *Almanac) SeedRanges() ([]vrange.Range, error) {
	if len(r.Numbers)%2 != 0 {
		return nil, fmt.Errorf("%w: %s has %d numbers, want (start, length) pairs", ErrMalformedInput, r.Label, len(r.Numbers))
	}
	ranges := make([]vrange.Range, 0, len(r.Numbers)/2)
	for i := 0; i < len(r.Numbers); i += 2 {
		rr, err := vrange.New(r.Numbers[i], r.Numbers[i+1])
		if err != nil {
			return nil, fmt.Errorf("%w: %s pair %d: %w", ErrMalformedInput, r.Label, i/2, err)
		}
		ranges = append(ranges, rr)
	}
	return ranges, nil
}

// Endpoints infers the start category (converted by a map but produced by
// none) and the terminal category (produced by a map but converted by none).
func (r *Almanac) Endpoints() (string, string, error) {
	from := sets.New[string]()
	to := sets.New[string]()
	for _, m := range r.Maps {
		from.Insert(m.From())
		to.Insert(m.To())
	}
	starts := sets.List(from.Difference(to))
	terminals := sets.List(to.Difference(from))
	if len(starts) != 1 || len(terminals) != 1 {
		return "", "", fmt.Errorf("%w: cannot infer endpoints, start candidates %v, terminal candidates %v",
			ErrMalformedInput, starts, terminals)
	}
	return starts[0], terminals[0], nil
}

// Pipeline chains the maps from start to terminal. Empty categories are
// inferred with Endpoints.
func (r *Almanac) Pipeline(start, terminal string) (*pipeline.Pipeline, error) {
	if start == "" || terminal == "" {
		s, t, err := r.Endpoints()
		if err != nil {
			return nil, err
		}
		if start == "" {
			start = s
		}
		if terminal == "" {
			terminal = t
		}
	}
	return pipeline.New(start, terminal, r.Maps...)
}

// ParseString is Parse for in-memory input.
func ParseString(s string) (*Almanac, error) {
	return Parse(strings.NewReader(s))
}

// Parse reads an almanac. Every problem is reported as ErrMalformedInput
// with its line number; nothing missing is ever read as zero.
func Parse(rd io.Reader) (*Almanac, error) {
	p := &parser{}
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		p.line++
		if err := p.parseLine(strings.TrimSpace(sc.Text())); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	if err := p.flush(); err != nil {
		return nil, err
	}
	if p.almanac == nil {
		return nil, fmt.Errorf("%w: no seed line found", ErrMalformedInput)
	}
	return p.almanac, nil
}

type parser struct {
	line    int
	almanac *Almanac

	// block being read
	header   int
	from, to string
	rules    []rangemap.Rule
	inBlock  bool
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrMalformedInput, p.line, fmt.Sprintf(format, args...))
}

func (p *parser) parseLine(line string) error {
	switch {
	case line == "":
		return p.flush()
	case p.almanac == nil:
		return p.parseSeeds(line)
	case strings.HasSuffix(line, mapSuffix):
		if err := p.flush(); err != nil {
			return err
		}
		return p.parseHeader(line)
	case !p.inBlock:
		return p.errorf("rule %q outside of a map block", line)
	default:
		return p.parseRule(line)
	}
}

func (p *parser) parseSeeds(line string) error {
	label, rest, ok := strings.Cut(line, ":")
	if !ok || strings.TrimSpace(label) == "" {
		return p.errorf("want \"<label>: n1 n2 ...\", got %q", line)
	}
	numbers, err := p.parseNumbers(rest)
	if err != nil {
		return err
	}
	if len(numbers) == 0 {
		return p.errorf("%s has no numbers", label)
	}
	p.almanac = &Almanac{Label: strings.TrimSpace(label), Numbers: numbers}
	return nil
}

func (p *parser) parseHeader(line string) error {
	name := strings.TrimSpace(strings.TrimSuffix(line, mapSuffix))
	from, to, ok := strings.Cut(name, toInfix)
	if !ok || from == "" || to == "" || strings.ContainsAny(name, " \t") {
		return p.errorf("want \"<from>-to-<to> map:\", got %q", line)
	}
	p.from, p.to = from, to
	p.header = p.line
	p.rules = nil
	p.inBlock = true
	return nil
}

func (p *parser) parseRule(line string) error {
	fields, err := p.parseNumbers(line)
	if err != nil {
		return err
	}
	if len(fields) != 3 {
		return p.errorf("want \"dest_start source_start length\", got %q", line)
	}
	rule, err := rangemap.NewRule(fields[0], fields[1], fields[2])
	if err != nil {
		return fmt.Errorf("%w: line %d: %w", ErrMalformedInput, p.line, err)
	}
	p.rules = append(p.rules, rule)
	return nil
}

func (p *parser) parseNumbers(s string) ([]uint64, error) {
	fields := strings.Fields(s)
	numbers := make([]uint64, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, p.errorf("%q is not an unsigned integer", f)
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}

// flush closes the current map block, if any.
func (p *parser) flush() error {
	if !p.inBlock {
		return nil
	}
	p.inBlock = false
	m, err := rangemap.New(p.from, p.to, p.rules, rangemap.WithLabels(labels.Set{
		LabelBlock: strconv.Itoa(len(p.almanac.Maps)),
	}))
	if err != nil {
		return fmt.Errorf("%w: map starting at line %d: %w", ErrMalformedInput, p.header, err)
	}
	p.almanac.Maps = append(p.almanac.Maps, m)
	return nil
}
