// Package scoring - shared types: sentinel errors, weight curves, configured
// sets, and evaluation results.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Sentinel errors of the scoring package.
//
// Classification:
//   - ErrBadParams: configuration-time; a curve or a function parameter set
//     is malformed. Fatal before search.
//   - ErrScoring: evaluation-time; a function cannot compute on the given
//     fragment (degenerate input or a fragment-dependent parameter
//     mismatch). The optimizer assigns the worst comparative score to the
//     trial instead of propagating.
var (
	// ErrBadParams reports invalid scoring configuration.
	ErrBadParams = errors.New("scoring: invalid parameters")

	// ErrScoring reports that a function cannot evaluate a fragment.
	ErrScoring = errors.New("scoring: evaluation failed")
)

// ControlPoint is one vertex of a piecewise-linear weight curve.
type ControlPoint struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Curve maps a raw score to an adjusted score by linear interpolation
// between control points. The empty curve is the identity. Points must be
// sorted by strictly increasing X.
type Curve []ControlPoint

// Validate checks the control points.
//
// Errors: ErrBadParams on a non-finite coordinate or a non-increasing X
// sequence.
func (c Curve) Validate() error {
	for i, p := range c {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("%w: curve point %d has non-finite coordinates", ErrBadParams, i)
		}
		if i > 0 && c[i-1].X >= p.X {
			return fmt.Errorf("%w: curve X values must increase strictly (point %d)", ErrBadParams, i)
		}
	}

	return nil
}

// Apply maps one raw score through the curve. Inputs left of the first
// point clamp to its Y, inputs right of the last point clamp to its Y, and
// a single-point curve is constant.
//
// Complexity: O(log len(c)).
func (c Curve) Apply(x float64) float64 {
	if len(c) == 0 {
		return x
	}
	if x <= c[0].X {
		return c[0].Y
	}
	last := len(c) - 1
	if x >= c[last].X {
		return c[last].Y
	}

	// First point strictly right of x; the segment starts one before it.
	hi := sort.Search(len(c), func(i int) bool { return c[i].X > x })
	a, b := c[hi-1], c[hi]
	t := (x - a.X) / (b.X - a.X)

	return a.Y + t*(b.Y-a.Y)
}

// Params is the typed parameter set of one scoring function. Prototypes
// from Registry.NewParams carry defaults; configuration decodes over them.
type Params interface {
	// Validate checks internal consistency. Fragment-dependent checks
	// (list lengths against the line count) happen at evaluation time.
	Validate() error
}

// Member is one configured scoring function inside a set.
type Member struct {
	// Name is the registry key.
	Name string
	// Fn is the resolved implementation.
	Fn Function
	// Params is the validated parameter set matching Fn.
	Params Params
	// Curve adjusts the raw score; empty means identity.
	Curve Curve
}

// Set is a named, ordered collection of configured scoring functions.
type Set struct {
	Name    string
	Members []Member
}

// Result is one member's verdict inside an evaluation breakdown.
type Result struct {
	// Set and Name locate the member.
	Set  string
	Name string
	// Raw is the function's own score, Adjusted the curve-mapped value
	// that entered the aggregate.
	Raw      float64
	Adjusted float64
}

// lookupPenalty resolves an integer-keyed penalty table with a default for
// missing sizes.
func lookupPenalty(table map[int]float64, key int, fallback float64) float64 {
	if v, ok := table[key]; ok {
		return v
	}

	return fallback
}
