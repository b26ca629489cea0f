// Package fragment - deep cloning for optimizer trials.
//
// Concurrency:
//   - Clone never mutates the source; a clone and its source share only the
//     immutable Row and SplitVocabulary, so trials may transform clones in
//     parallel without locks.
package fragment

import "github.com/katalvlaran/dodecaphony/tonerow"

// Clone returns a deep copy of f. Everything a transformation may touch is
// copied (arena classes, groups, measures, pause indices, events);
// sonorities are rebuilt so their pointers land in the clone's own event
// slices.
//
// Complexity: O(total events + instances).
func (f *Fragment) Clone() *Fragment {
	c := &Fragment{
		Row:        f.Row,        // immutable, shared
		Vocabulary: f.Vocabulary, // immutable, shared
		Meter:      f.Meter,
		NMeasures:  f.NMeasures,
		Lowest:     f.Lowest,
		Highest:    f.Highest,
		Arena:      make([]Instance, len(f.Arena)),
		EvalOrder:  append([]int(nil), f.EvalOrder...),
		Groups:     make([]Group, len(f.Groups)),
		Lines:      make([]MelodicLine, len(f.Lines)),
		lineGroup:  append([]int(nil), f.lineGroup...),
	}

	for i := range f.Arena {
		src := &f.Arena[i]
		c.Arena[i] = Instance{
			Transform: src.Transform,
			Source:    src.Source,
			Frozen:    src.Frozen,
			Classes:   append([]tonerow.PitchClass(nil), src.Classes...),
		}
	}

	for g := range f.Groups {
		c.Groups[g] = Group{
			LineIndices: append([]int(nil), f.Groups[g].LineIndices...),
			Instances:   append([]int(nil), f.Groups[g].Instances...),
		}
	}

	for li := range f.Lines {
		src := &f.Lines[li]
		measures := make([][]float64, len(src.Measures))
		for m := range src.Measures {
			measures[m] = append([]float64(nil), src.Measures[m]...)
		}
		c.Lines[li] = MelodicLine{
			ID:                    src.ID,
			Measures:              measures,
			PauseIndices:          append([]int(nil), src.PauseIndices...),
			ImmutablePauseIndices: append([]int(nil), src.ImmutablePauseIndices...),
			NPauses:               src.NPauses,
			Lowest:                src.Lowest,
			Highest:               src.Highest,
			FrozenRhythm:          src.FrozenRhythm,
			Events:                append([]Event(nil), src.Events...),
		}
	}

	c.rebuildSonorities()

	return c
}
