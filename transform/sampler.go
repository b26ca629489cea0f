// Package transform - the weighted transformation sampler.
//
// A Sampler is one neighborhood's (or the perturbation's) draw table:
// transformation names with positive probabilities. Draws use a cumulative
// table; distributions are normalized at construction and validated against
// the registry, so sampling itself can only fail structurally.
package transform

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/katalvlaran/dodecaphony/fragment"
)

// probabilitySumTolerance is how far a configured distribution may stray
// from summing to one before it is rejected instead of silently normalized.
const probabilitySumTolerance = 1e-6

// Sampler draws transformations from a fixed weighted distribution.
// Immutable after construction and safe for concurrent use with per-caller
// RNGs.
type Sampler struct {
	names      []string
	funcs      []Func
	cumulative []float64
}

// NewSampler validates probabilities against reg and builds the cumulative
// draw table. Every named transformation must exist, every probability must
// be positive, and the probabilities must sum to one within a small
// tolerance.
//
// Errors: ErrUnknownName, or ErrBadOptions for a malformed distribution.
func NewSampler(reg *Registry, probabilities map[string]float64) (*Sampler, error) {
	if len(probabilities) == 0 {
		return nil, fmt.Errorf("%w: empty probability table", ErrBadOptions)
	}

	// Deterministic draw order regardless of map iteration.
	names := make([]string, 0, len(probabilities))
	for name := range probabilities {
		names = append(names, name)
	}
	sort.Strings(names)

	s := &Sampler{
		names:      make([]string, 0, len(names)),
		funcs:      make([]Func, 0, len(names)),
		cumulative: make([]float64, 0, len(names)),
	}
	total := 0.0
	for _, name := range names {
		p := probabilities[name]
		if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("%w: probability of %q must be positive, got %v", ErrBadOptions, name, p)
		}
		fn, err := reg.Lookup(name)
		if err != nil {
			return nil, err
		}
		total += p
		s.names = append(s.names, name)
		s.funcs = append(s.funcs, fn)
		s.cumulative = append(s.cumulative, total)
	}
	if math.Abs(total-1) > probabilitySumTolerance {
		return nil, fmt.Errorf("%w: probabilities sum to %v, want 1", ErrBadOptions, total)
	}
	// Normalize away the residual tolerance so the last bucket always
	// closes the unit interval.
	for i := range s.cumulative {
		s.cumulative[i] /= total
	}

	return s, nil
}

// Names returns the sampled transformation names in draw-table order.
func (s *Sampler) Names() []string { return s.names }

// draw picks one transformation by inverse CDF.
func (s *Sampler) draw(rng *rand.Rand) (string, Func) {
	u := rng.Float64()
	i := sort.SearchFloat64s(s.cumulative, u)
	if i >= len(s.funcs) {
		i = len(s.funcs) - 1
	}

	return s.names[i], s.funcs[i]
}

// ApplyN applies n transformations drawn from the distribution to f, then
// refreshes and validates. Structural dead ends (fragment.ErrStructure) are
// redrawn up to maxRetries times across the whole call; any other error
// aborts immediately.
//
// Returns the names actually applied, in order. On error the fragment must
// be considered lost: the caller discards it and retries from a fresh
// clone.
//
// Complexity: O(n * edit + refresh).
func (s *Sampler) ApplyN(f *fragment.Fragment, n, maxRetries int, rng *rand.Rand) ([]string, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: n must be at least 1, got %d", ErrBadOptions, n)
	}

	applied := make([]string, 0, n)
	retries := 0
	for len(applied) < n {
		name, fn := s.draw(rng)
		if err := fn(f, rng); err != nil {
			if !errors.Is(err, fragment.ErrStructure) {
				return applied, err
			}
			retries++
			if retries > maxRetries {
				return applied, fmt.Errorf("transformation retries exhausted after %d draws: %w",
					retries, err)
			}

			continue
		}
		applied = append(applied, name)
	}

	if err := f.Refresh(); err != nil {
		return applied, err
	}
	if err := f.Validate(); err != nil {
		return applied, err
	}

	return applied, nil
}
