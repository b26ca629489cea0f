// Package transform - pause transformations.
//
// Both edits relocate movable rests only; immutable pause indices never
// move (they encode deliberate offsets such as canonic imitation delays).
package transform

import (
	"fmt"
	"math/rand"

	"github.com/katalvlaran/dodecaphony/fragment"
)

// pauseShift swaps one movable pause with an adjacent note.
func pauseShift(f *fragment.Fragment, rng *rand.Rand) error {
	type move struct{ li, from, to int }
	moves := make([]move, 0, 8)
	for li := range f.Lines {
		line := &f.Lines[li]
		count := line.EventCount()
		for _, p := range f.MutablePauses(li) {
			if p-1 >= 0 && !line.IsPause(p-1) {
				moves = append(moves, move{li: li, from: p, to: p - 1})
			}
			if p+1 < count && !line.IsPause(p+1) {
				moves = append(moves, move{li: li, from: p, to: p + 1})
			}
		}
	}
	if len(moves) == 0 {
		return fmt.Errorf("%w: no pause has an adjacent note", fragment.ErrStructure)
	}

	chosen := moves[int(rng.Int63n(int64(len(moves))))]

	return f.MovePause(chosen.li, chosen.from, chosen.to)
}

// pauseSwap relocates one movable pause to a uniformly random note index of
// its line.
func pauseSwap(f *fragment.Fragment, rng *rand.Rand) error {
	// Lines with at least one movable pause and one note.
	type source struct {
		li    int
		pause int
	}
	sources := make([]source, 0, 8)
	for li := range f.Lines {
		for _, p := range f.MutablePauses(li) {
			sources = append(sources, source{li: li, pause: p})
		}
	}
	if len(sources) == 0 {
		return fmt.Errorf("%w: no movable pause to relocate", fragment.ErrStructure)
	}

	chosen := sources[int(rng.Int63n(int64(len(sources))))]
	line := &f.Lines[chosen.li]
	notes := make([]int, 0, line.EventCount())
	for i := 0; i < line.EventCount(); i++ {
		if !line.IsPause(i) {
			notes = append(notes, i)
		}
	}
	if len(notes) == 0 {
		return fmt.Errorf("%w: line %d has no note to trade places with", fragment.ErrStructure, line.ID)
	}

	return f.MovePause(chosen.li, chosen.pause, notes[int(rng.Int63n(int64(len(notes))))])
}
