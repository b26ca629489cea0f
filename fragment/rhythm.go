// Package fragment - whole-line rhythm resampling.
//
// ResampleLineRhythm is the strongest structural edit short of
// reinitializing: it redraws a line's complete temporal content while
// keeping the fixed quantities fixed (event count, pause count, immutable
// pause positions). Both the optimizer's perturbation and the
// line-durations transformation go through it.
package fragment

import (
	"fmt"
	"math/rand"
	"sort"
)

// ResampleLineRhythm redraws line li's per-measure event counts, measure
// splits, and mutable pause positions. The caller refreshes afterwards;
// derived state is stale on return.
//
// Contracts:
//   - the line's total event count is preserved exactly;
//   - immutable pause indices stay pauses;
//   - the line's FrozenRhythm flag is NOT consulted here; honoring it is
//     the transformation sampler's concern.
//
// Errors: ErrStructure when the bounded count redistribution fails (the
// line keeps its previous rhythm in that case).
//
// Complexity: O(measures * retries + events).
func (f *Fragment) ResampleLineRhythm(li int, rng *rand.Rand) error {
	line := &f.Lines[li]
	eventCount := line.EventCount()

	counts, err := distributeCounts(eventCount, f.NMeasures, f.Vocabulary, rng, DefaultMaxRetries)
	if err != nil {
		return fmt.Errorf("line %d: %w", line.ID, err)
	}

	measures := make([][]float64, f.NMeasures)
	for m, count := range counts {
		split, sErr := f.Vocabulary.Random(count, rng)
		if sErr != nil {
			return fmt.Errorf("line %d measure %d: %w", line.ID, m, sErr)
		}
		measures[m] = split
	}

	pauses, err := drawPauses(eventCount, line.NPauses, line.ImmutablePauseIndices, rng)
	if err != nil {
		return fmt.Errorf("line %d: %w", line.ID, err)
	}

	line.Measures = measures
	line.PauseIndices = pauses

	return nil
}

// MovePause relocates one pause of line li from flat index from to flat
// index to. The source must be a mutable pause and the destination a note;
// the caller refreshes afterwards.
//
// Errors: ErrStructure when the move is not legal.
func (f *Fragment) MovePause(li, from, to int) error {
	line := &f.Lines[li]
	count := line.EventCount()
	if to < 0 || to >= count {
		return fmt.Errorf("%w: line %d pause target %d out of range [0, %d)",
			ErrStructure, line.ID, to, count)
	}
	if !line.IsPause(from) || line.IsImmutablePause(from) {
		return fmt.Errorf("%w: line %d index %d is not a movable pause", ErrStructure, line.ID, from)
	}
	if line.IsPause(to) {
		return fmt.Errorf("%w: line %d index %d already rests", ErrStructure, line.ID, to)
	}

	for i, p := range line.PauseIndices {
		if p == from {
			line.PauseIndices[i] = to

			break
		}
	}
	sort.Ints(line.PauseIndices)

	return nil
}

// MutablePauses returns the flat indices of line li's movable rests, in
// ascending order.
func (f *Fragment) MutablePauses(li int) []int {
	line := &f.Lines[li]
	out := make([]int, 0, len(line.PauseIndices))
	for _, p := range line.PauseIndices {
		if !line.IsImmutablePause(p) {
			out = append(out, p)
		}
	}

	return out
}
