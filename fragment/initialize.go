// Package fragment - the random initializer.
//
// Initialize builds the first valid fragment of a run: parameters are
// validated in stages, the instance arena is assembled and propagated, and
// every line gets a random admissible rhythm and random pause placement.
// All randomness flows through the caller's *rand.Rand; equal seeds yield
// equal fragments.
package fragment

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/katalvlaran/dodecaphony/tonerow"
)

// Initialize constructs a random valid fragment from p.
//
// Contracts:
//   - p must pass the staged validation below (ErrBadParams otherwise);
//   - rng must be non-nil and is consumed deterministically.
//
// Errors: ErrBadParams for impossible layouts, ErrStructure when bounded
// resampling could not land on an exact event distribution.
//
// Complexity: O(lines * measures * retries) draws plus one Refresh.
func Initialize(p Params, rng *rand.Rand) (*Fragment, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: nil rng", ErrBadParams)
	}
	if err := validateParams(&p); err != nil {
		return nil, err
	}

	vocab, err := NewSplitVocabulary(p.Meter.MeasureLen(), p.Durations, p.MeasureSplits)
	if err != nil {
		return nil, err
	}

	groups := randomizeTransforms(p.Groups, rng)
	arena, outGroups, order, err := buildArena(groups)
	if err != nil {
		return nil, err
	}

	f := &Fragment{
		Row:        p.Row,
		Arena:      arena,
		EvalOrder:  order,
		Groups:     outGroups,
		Meter:      p.Meter,
		NMeasures:  p.NMeasures,
		Lowest:     p.Lowest,
		Highest:    p.Highest,
		Vocabulary: vocab,
		Lines:      make([]MelodicLine, len(p.Lines)),
		lineGroup:  make([]int, len(p.Lines)),
	}
	for g := range f.Groups {
		for _, li := range f.Groups[g].LineIndices {
			f.lineGroup[li] = g
		}
	}

	maxRetries := p.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}

	for li, lp := range p.Lines {
		group := &f.Groups[f.lineGroup[li]]
		eventCount := tonerow.PitchClassCount*len(group.Instances) + lp.NPauses

		for _, imm := range lp.ImmutablePauseIndices {
			if imm >= eventCount {
				return nil, fmt.Errorf("%w: line %d immutable pause index %d out of range [0, %d)",
					ErrBadParams, lp.ID, imm, eventCount)
			}
		}

		counts, cErr := distributeCounts(eventCount, p.NMeasures, vocab, rng, maxRetries)
		if cErr != nil {
			return nil, fmt.Errorf("line %d: %w", lp.ID, cErr)
		}

		measures := make([][]float64, p.NMeasures)
		for m, count := range counts {
			split, sErr := vocab.Random(count, rng)
			if sErr != nil {
				return nil, fmt.Errorf("line %d measure %d: %w", lp.ID, m, sErr)
			}
			measures[m] = split
		}

		pauses, pErr := drawPauses(eventCount, lp.NPauses, lp.ImmutablePauseIndices, rng)
		if pErr != nil {
			return nil, fmt.Errorf("line %d: %w", lp.ID, pErr)
		}

		f.Lines[li] = MelodicLine{
			ID:                    lp.ID,
			Measures:              measures,
			PauseIndices:          pauses,
			ImmutablePauseIndices: append([]int(nil), lp.ImmutablePauseIndices...),
			NPauses:               lp.NPauses,
			Lowest:                lp.Lowest,
			Highest:               lp.Highest,
			FrozenRhythm:          lp.FrozenRhythm,
		}
	}

	if err = f.Refresh(); err != nil {
		return nil, err
	}
	if err = f.Validate(); err != nil {
		return nil, err
	}

	return f, nil
}

// randomizeTransforms replaces the transform of every instance marked
// Randomize (independent instances only) with a random inversion/reversion
// combination, returning a deep-enough copy so p stays untouched.
func randomizeTransforms(groups []GroupParams, rng *rand.Rand) []GroupParams {
	out := make([]GroupParams, len(groups))
	for g, gp := range groups {
		out[g] = gp
		out[g].Instances = append([]InstanceParams(nil), gp.Instances...)
		for i := range out[g].Instances {
			ip := &out[g].Instances[i]
			if !ip.Randomize || ip.SourceGroup >= 0 {
				continue
			}
			invert := rng.Int63n(2) == 1
			revert := rng.Int63n(2) == 1
			switch {
			case invert && revert:
				ip.Transform.Kind = tonerow.RetrogradeInversion
			case invert:
				ip.Transform.Kind = tonerow.Inversion
			case revert:
				ip.Transform.Kind = tonerow.Reversion
			default:
				ip.Transform.Kind = tonerow.Identity
			}
		}
	}

	return out
}

// distributeCounts spreads total events over m measures so that every
// per-measure count is available in the vocabulary. Counts start at the
// vocabulary minimum and random measures are bumped to higher available
// counts until the total matches.
//
// Errors: ErrBadParams when total lies outside [m*min, m*max] (impossible
// regardless of luck), ErrStructure when retries run out on a sparse count
// set.
func distributeCounts(total, m int, vocab *SplitVocabulary, rng *rand.Rand, retries int) ([]int, error) {
	minCount, maxCount := vocab.CountRange()
	if total < m*minCount || total > m*maxCount {
		return nil, fmt.Errorf("%w: %d events cannot fill %d measures holding %d..%d each",
			ErrBadParams, total, m, minCount, maxCount)
	}
	available := vocab.Counts()

	for attempt := 0; attempt < retries; attempt++ {
		counts := make([]int, m)
		current := m * minCount
		for i := range counts {
			counts[i] = minCount
		}

		for current < total {
			// A measure qualifies when some higher available count keeps
			// the running total within reach.
			type bump struct{ measure, to int }
			candidates := make([]bump, 0, m)
			for i := range counts {
				for _, c := range available {
					if c > counts[i] && current+(c-counts[i]) <= total {
						candidates = append(candidates, bump{measure: i, to: c})
					}
				}
			}
			if len(candidates) == 0 {
				break
			}
			chosen := candidates[int(rng.Int63n(int64(len(candidates))))]
			current += chosen.to - counts[chosen.measure]
			counts[chosen.measure] = chosen.to
		}
		if current == total {
			return counts, nil
		}
	}

	return nil, fmt.Errorf("%w: could not distribute %d events over %d measures after %d attempts",
		ErrStructure, total, m, retries)
}

// drawPauses places nPauses rests: the immutable ones verbatim, the rest
// uniformly among the free indices. The result is sorted ascending.
func drawPauses(eventCount, nPauses int, immutable []int, rng *rand.Rand) ([]int, error) {
	free := make([]int, 0, eventCount-len(immutable))
	skip := make(map[int]bool, len(immutable))
	for _, i := range immutable {
		skip[i] = true
	}
	for i := 0; i < eventCount; i++ {
		if !skip[i] {
			free = append(free, i)
		}
	}

	mutable := nPauses - len(immutable)
	if mutable < 0 || mutable > len(free) {
		return nil, fmt.Errorf("%w: %d pauses do not fit %d events (%d immutable)",
			ErrBadParams, nPauses, eventCount, len(immutable))
	}

	shuffleIntsInPlace(free, rng)
	pauses := append([]int(nil), immutable...)
	pauses = append(pauses, free[:mutable]...)
	sort.Ints(pauses)

	return pauses, nil
}

// shuffleIntsInPlace is an in-place Fisher-Yates shuffle driven by rng.
//
// Complexity: O(n).
func shuffleIntsInPlace(a []int, rng *rand.Rand) {
	for i := len(a) - 1; i > 0; i-- {
		j := int(rng.Int63n(int64(i + 1)))
		a[i], a[j] = a[j], a[i]
	}
}

// validateParams runs the staged parameter checks shared by Initialize.
// Stages: row and meter, register bounds, group/line layout, per-line
// pause declarations. Dependence references are checked by buildArena.
func validateParams(p *Params) error {
	// Stage 1: row and meter.
	if _, err := tonerow.NewToneRow(p.Row); err != nil {
		return fmt.Errorf("%w: %v", ErrBadParams, err)
	}
	if p.Meter.Numerator < 1 {
		return fmt.Errorf("%w: meter numerator %d", ErrBadParams, p.Meter.Numerator)
	}
	switch p.Meter.Denominator {
	case 1, 2, 4, 8, 16:
	default:
		return fmt.Errorf("%w: meter denominator %d", ErrBadParams, p.Meter.Denominator)
	}
	if p.NMeasures < 1 {
		return fmt.Errorf("%w: n_measures %d", ErrBadParams, p.NMeasures)
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries %d", ErrBadParams, p.MaxRetries)
	}

	// Stage 2: register bounds. A span of 11 semitones keeps every pitch
	// class reachable, so register assignment can never dead-end.
	if err := validateSpan(p.Lowest, p.Highest, "fragment"); err != nil {
		return err
	}
	for _, lp := range p.Lines {
		lo, hi := p.Lowest, p.Highest
		if lp.Lowest >= 0 {
			lo = lp.Lowest
		}
		if lp.Highest >= 0 {
			hi = lp.Highest
		}
		if err := validateSpan(lo, hi, fmt.Sprintf("line %d", lp.ID)); err != nil {
			return err
		}
	}

	// Stage 3: layout. Every line sits in exactly one group.
	if len(p.Lines) == 0 || len(p.Groups) == 0 {
		return fmt.Errorf("%w: need at least one line and one group", ErrBadParams)
	}
	seenID := make(map[int]bool, len(p.Lines))
	for _, lp := range p.Lines {
		if seenID[lp.ID] {
			return fmt.Errorf("%w: duplicate line id %d", ErrBadParams, lp.ID)
		}
		seenID[lp.ID] = true
	}
	owner := make([]int, len(p.Lines))
	for i := range owner {
		owner[i] = -1
	}
	for g, gp := range p.Groups {
		if len(gp.LineIndices) == 0 {
			return fmt.Errorf("%w: group %d has no lines", ErrBadParams, g)
		}
		if len(gp.Instances) == 0 {
			return fmt.Errorf("%w: group %d has no tone-row instances", ErrBadParams, g)
		}
		for _, li := range gp.LineIndices {
			if li < 0 || li >= len(p.Lines) {
				return fmt.Errorf("%w: group %d references unknown line index %d", ErrBadParams, g, li)
			}
			if owner[li] >= 0 {
				return fmt.Errorf("%w: line index %d belongs to groups %d and %d",
					ErrBadParams, li, owner[li], g)
			}
			owner[li] = g
		}
	}
	for li, g := range owner {
		if g < 0 {
			return fmt.Errorf("%w: line index %d belongs to no group", ErrBadParams, li)
		}
	}

	// Stage 4: pause declarations.
	for _, lp := range p.Lines {
		if lp.NPauses < 0 {
			return fmt.Errorf("%w: line %d has negative pause count", ErrBadParams, lp.ID)
		}
		if len(lp.ImmutablePauseIndices) > lp.NPauses {
			return fmt.Errorf("%w: line %d pins %d pauses but declares only %d",
				ErrBadParams, lp.ID, len(lp.ImmutablePauseIndices), lp.NPauses)
		}
		for i, imm := range lp.ImmutablePauseIndices {
			if imm < 0 {
				return fmt.Errorf("%w: line %d immutable pause index %d", ErrBadParams, lp.ID, imm)
			}
			if i > 0 && lp.ImmutablePauseIndices[i-1] >= imm {
				return fmt.Errorf("%w: line %d immutable pause indices not strictly ascending",
					ErrBadParams, lp.ID)
			}
		}
	}

	return nil
}

// validateSpan checks one register range.
func validateSpan(lo, hi tonerow.Position, what string) error {
	if lo < 0 || hi > 127 || lo > hi {
		return fmt.Errorf("%w: %s register [%d, %d] outside MIDI range", ErrBadParams, what, lo, hi)
	}
	if hi-lo < tonerow.PitchClassCount-1 {
		return fmt.Errorf("%w: %s register [%s, %s] spans %d semitones, need at least 11",
			ErrBadParams, what, lo, hi, hi-lo)
	}

	return nil
}
