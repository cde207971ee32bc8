package engine

import "github.com/henderiw/rangemap/pkg/rangemap"

// Step is one stage of a traced value.
type Step struct {
	From string
	To   string
	In   uint64
	Out  uint64
	// Rule is the rule that converted the value, nil on passthrough.
	Rule *rangemap.Rule
}

// Trace follows a single value through every stage.
func (e *Engine) Trace(v uint64) []Step {
	steps := make([]Step, 0, e.p.Len())
	iter := e.p.Iterate()
	for iter.Next() {
		m := iter.Value()
		s := Step{From: m.From(), To: m.To(), In: v}
		if rule, ok := m.Match(v); ok {
			s.Rule = &rule
		}
		v = m.MapValue(v)
		s.Out = v
		steps = append(steps, s)
	}
	return steps
}
