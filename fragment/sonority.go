// Package fragment - sonority extraction.
//
// A sonority is the vertical slice of the fragment between two consecutive
// event onsets (across all lines). Every line contributes exactly one event
// to every sonority, because a line's events tile the fragment's time axis
// without gaps.
package fragment

import "sort"

// rebuildSonorities derives the sonority list from the current events. One
// sonority per distinct onset; the window of sonority i is
// [boundary[i], boundary[i+1]), the last window ends at TotalBeats.
//
// Complexity: O(total events * log(total events)) for the boundary sort,
// then a linear merge per line.
func (f *Fragment) rebuildSonorities() {
	total := 0
	for li := range f.Lines {
		total += len(f.Lines[li].Events)
	}
	if total == 0 || len(f.Lines) == 0 {
		f.Sonorities = nil

		return
	}

	// Distinct onsets across all lines, ascending. Durations are exact
	// binary fractions, so float equality dedupes reliably.
	boundaries := make([]float64, 0, total)
	seen := make(map[float64]bool, total)
	for li := range f.Lines {
		for i := range f.Lines[li].Events {
			start := f.Lines[li].Events[i].Start
			if !seen[start] {
				seen[start] = true
				boundaries = append(boundaries, start)
			}
		}
	}
	sort.Float64s(boundaries)

	sonorities := make([]Sonority, len(boundaries))
	for i, b := range boundaries {
		end := f.TotalBeats()
		if i+1 < len(boundaries) {
			end = boundaries[i+1]
		}
		sonorities[i] = Sonority{
			Start:  b,
			End:    end,
			Events: make([]*Event, len(f.Lines)),
		}
	}

	// Per line, advance an event cursor along the boundaries: the sounding
	// event at boundary b is the last one with Start <= b.
	for li := range f.Lines {
		events := f.Lines[li].Events
		cursor := 0
		for i, b := range boundaries {
			for cursor+1 < len(events) && events[cursor+1].Start <= b {
				cursor++
			}
			sonorities[i].Events[li] = &events[cursor]
		}
	}

	f.Sonorities = sonorities
}
