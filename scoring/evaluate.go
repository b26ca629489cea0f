// Package scoring - set evaluation and the human-readable report.
package scoring

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/dodecaphony/fragment"
)

// Evaluate scores f against every member of every set, in declaration
// order, and sums the curve-adjusted results into the aggregate the
// optimizer maximizes.
//
// Contracts:
//   - every member carries a resolved Fn and a validated Params;
//   - f is a valid fragment with rebuilt sonorities.
//
// Errors: the member's own error wrapped with the set and function names;
// branch with errors.Is(err, ErrScoring) to treat the fragment as a failed
// trial rather than a fatal misconfiguration.
//
// Complexity: the sum of the member functions' costs; no allocation beyond
// the breakdown slice.
func Evaluate(f *fragment.Fragment, sets []Set) (float64, []Result, error) {
	n := 0
	for i := range sets {
		n += len(sets[i].Members)
	}
	breakdown := make([]Result, 0, n)

	aggregate := 0.0
	for i := range sets {
		set := &sets[i]
		for j := range set.Members {
			m := &set.Members[j]
			raw, err := m.Fn(f, m.Params)
			if err != nil {
				return 0, nil, fmt.Errorf("set %q, function %q: %w", set.Name, m.Name, err)
			}
			adjusted := m.Curve.Apply(raw)
			aggregate += adjusted
			breakdown = append(breakdown, Result{Set: set.Name, Name: m.Name, Raw: raw, Adjusted: adjusted})
		}
	}

	return aggregate, breakdown, nil
}

// Report renders a breakdown the way a run prints it: one right-aligned
// line per function with its adjusted score, then the aggregate.
func Report(breakdown []Result, aggregate float64) string {
	var b strings.Builder
	for _, r := range breakdown {
		fmt.Fprintf(&b, "%40s: %v\n", r.Name, r.Adjusted)
	}
	fmt.Fprintf(&b, "Overall score is: %v", aggregate)

	return b.String()
}
