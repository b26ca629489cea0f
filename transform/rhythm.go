// Package transform - rhythm transformations.
//
// All three edits preserve the flat role sequence of a line (which indices
// rest) and its total event count; they only move duration mass around.
package transform

import (
	"fmt"
	"math/rand"

	"github.com/katalvlaran/dodecaphony/fragment"
)

// pickRhythmLine selects a uniformly random line whose rhythm may change.
//
// Errors: fragment.ErrStructure when every line is frozen.
func pickRhythmLine(f *fragment.Fragment, rng *rand.Rand) (int, error) {
	candidates := make([]int, 0, len(f.Lines))
	for li := range f.Lines {
		if !f.Lines[li].FrozenRhythm {
			candidates = append(candidates, li)
		}
	}
	if len(candidates) == 0 {
		return 0, fmt.Errorf("%w: every line's rhythm is frozen", fragment.ErrStructure)
	}

	return candidates[int(rng.Int63n(int64(len(candidates))))], nil
}

// measureDurationsChange swaps one random measure's split for a different
// admissible split with the same event count.
func measureDurationsChange(f *fragment.Fragment, rng *rand.Rand) error {
	li, err := pickRhythmLine(f, rng)
	if err != nil {
		return err
	}
	line := &f.Lines[li]

	m := int(rng.Int63n(int64(len(line.Measures))))
	split, err := f.Vocabulary.RandomOther(line.Measures[m], rng)
	if err != nil {
		return fmt.Errorf("line %d measure %d: %w", line.ID, m, err)
	}
	line.Measures[m] = split

	return nil
}

// lineDurationsChange resamples one line's whole temporal content.
func lineDurationsChange(f *fragment.Fragment, rng *rand.Rand) error {
	li, err := pickRhythmLine(f, rng)
	if err != nil {
		return err
	}

	return f.ResampleLineRhythm(li, rng)
}

// crossmeasureEventTransfer moves one event across an adjacent measure
// boundary: the donor measure's count drops by one, the receiver's grows by
// one, and both measures get fresh admissible splits. The flat event count
// and the role sequence stay put; only the measure attribution of one event
// shifts.
func crossmeasureEventTransfer(f *fragment.Fragment, rng *rand.Rand) error {
	li, err := pickRhythmLine(f, rng)
	if err != nil {
		return err
	}
	line := &f.Lines[li]

	// Enumerate the legal (boundary, direction) moves first, so the draw
	// is uniform over moves rather than boundaries.
	type move struct {
		left, right int // new event counts for measures m and m+1
		m           int
	}
	counts := f.Vocabulary.Counts()
	available := make(map[int]bool, len(counts))
	for _, c := range counts {
		available[c] = true
	}

	moves := make([]move, 0, 2*(len(line.Measures)-1))
	for m := 0; m+1 < len(line.Measures); m++ {
		k, j := len(line.Measures[m]), len(line.Measures[m+1])
		if available[k-1] && available[j+1] {
			moves = append(moves, move{left: k - 1, right: j + 1, m: m})
		}
		if available[k+1] && available[j-1] {
			moves = append(moves, move{left: k + 1, right: j - 1, m: m})
		}
	}
	if len(moves) == 0 {
		return fmt.Errorf("%w: line %d admits no crossmeasure transfer", fragment.ErrStructure, line.ID)
	}

	chosen := moves[int(rng.Int63n(int64(len(moves))))]
	left, err := f.Vocabulary.Random(chosen.left, rng)
	if err != nil {
		return err
	}
	right, err := f.Vocabulary.Random(chosen.right, rng)
	if err != nil {
		return err
	}
	line.Measures[chosen.m] = left
	line.Measures[chosen.m+1] = right

	return nil
}
