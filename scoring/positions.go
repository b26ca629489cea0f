// Package scoring - metric position matching shared by position-aware
// functions.
//
// Two kinds of positions classify a moment of the fragment:
//
//   - regular positions repeat with a period: {name, denominator,
//     remainder} matches any time t with t mod denominator == remainder;
//   - ad-hoc positions name a single moment: {name, time}, where a negative
//     time counts back from the fragment end.
//
// Ad-hoc positions beat regular ones, earlier declarations beat later ones,
// and an unmatched moment gets the reserved type "default".
package scoring

import (
	"fmt"
	"math"

	"github.com/katalvlaran/dodecaphony/fragment"
)

// DefaultPositionType labels moments no declared position matches.
const DefaultPositionType = "default"

// RegularPosition matches every time with a fixed remainder modulo a
// period. Denominator and remainder are in beats.
type RegularPosition struct {
	Name        string  `yaml:"name"`
	Denominator float64 `yaml:"denominator"`
	Remainder   float64 `yaml:"remainder"`
}

// AdHocPosition matches one moment. A negative Time counts from the
// fragment end (-1 is one beat before the end).
type AdHocPosition struct {
	Name string  `yaml:"name"`
	Time float64 `yaml:"time"`
}

// Positions bundles both tables; functions embed it inline in their
// parameter structs.
type Positions struct {
	Regular []RegularPosition `yaml:"regular_positions"`
	AdHoc   []AdHocPosition   `yaml:"ad_hoc_positions"`
}

// Validate checks the declarations.
//
// Errors: ErrBadParams on an empty name, a non-positive denominator, or a
// remainder outside [0, denominator).
func (p Positions) Validate() error {
	for i, r := range p.Regular {
		if r.Name == "" {
			return fmt.Errorf("%w: regular position %d has no name", ErrBadParams, i)
		}
		if r.Denominator <= 0 {
			return fmt.Errorf("%w: regular position %q: denominator must be positive", ErrBadParams, r.Name)
		}
		if r.Remainder < 0 || r.Remainder >= r.Denominator {
			return fmt.Errorf("%w: regular position %q: remainder %v outside [0, %v)",
				ErrBadParams, r.Name, r.Remainder, r.Denominator)
		}
	}
	for i, a := range p.AdHoc {
		if a.Name == "" {
			return fmt.Errorf("%w: ad-hoc position %d has no name", ErrBadParams, i)
		}
	}

	return nil
}

// EventType classifies one event by its onset. An ad-hoc position matches
// when its moment falls inside [start, end]; a regular position matches on
// the onset itself.
func (p Positions) EventType(e *fragment.Event, totalBeats float64) string {
	for _, a := range p.AdHoc {
		t := a.Time
		if t < 0 {
			t += totalBeats
		}
		if e.Start <= t && t <= e.End() {
			return a.Name
		}
	}
	for _, r := range p.Regular {
		if positiveMod(e.Start-r.Remainder, r.Denominator) == 0 {
			return r.Name
		}
	}

	return DefaultPositionType
}

// SonorityType classifies one sonority by its window [Start, End). An
// ad-hoc moment matches when it falls inside the window; a regular position
// matches when any of its repetitions does.
func (p Positions) SonorityType(s *fragment.Sonority, totalBeats float64) string {
	for _, a := range p.AdHoc {
		t := a.Time
		if t < 0 {
			t += totalBeats
		}
		if s.Start <= t && t < s.End {
			return a.Name
		}
	}
	for _, r := range p.Regular {
		// First repetition at or after the window start.
		t := math.Floor((s.Start-r.Remainder)/r.Denominator)*r.Denominator + r.Remainder
		if t < s.Start {
			t += r.Denominator
		}
		if t < s.End {
			return r.Name
		}
	}

	return DefaultPositionType
}

// positiveMod is the non-negative remainder of a mod b for b > 0.
func positiveMod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m < 0 {
		m += b
	}

	return m
}
