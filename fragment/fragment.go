// Package fragment - the Fragment aggregate: derived-state refresh and the
// invariant validator.
//
// Refresh is the single choke point between structural state (measure
// splits, pause indices, instance classes) and everything scoring reads
// (events with start times, bound pitch classes, octave registers,
// sonorities). Every transformation mutates structure and then calls
// Refresh; Validate re-checks the invariants independently of how the
// structure was produced.
package fragment

import (
	"fmt"

	"github.com/katalvlaran/dodecaphony/tonerow"
)

// Fragment is the unit under optimization. Structural state is everything
// up to Vocabulary; Events (inside Lines) and Sonorities are derived.
type Fragment struct {
	// Row is the fragment's tone row, immutable for the run. Shared
	// between clones.
	Row tonerow.ToneRow
	// Arena holds every tone-row instance; Groups reference it by index.
	Arena []Instance
	// EvalOrder is the topological propagation order over Arena.
	EvalOrder []int
	// Groups lists the line groups in declaration order.
	Groups []Group
	// Lines lists the melodic lines, top voice first.
	Lines []MelodicLine
	// Meter is the time signature.
	Meter Meter
	// NMeasures is the measure count of every line.
	NMeasures int
	// Lowest and Highest bound the registers fragment-wide.
	Lowest, Highest tonerow.Position
	// Vocabulary enumerates the admissible measure splits. Immutable and
	// shared between clones.
	Vocabulary *SplitVocabulary

	// Sonorities is derived by Refresh: one entry per distinct event onset
	// across all lines.
	Sonorities []Sonority

	// lineGroup maps a line index to its group index (built once).
	lineGroup []int
}

// TotalBeats returns the fragment length in beats.
func (f *Fragment) TotalBeats() float64 {
	return float64(f.NMeasures) * f.Meter.MeasureLen()
}

// GroupOf returns the group index owning line li.
func (f *Fragment) GroupOf(li int) int { return f.lineGroup[li] }

// LineBounds returns the effective register bounds of line li. Each side
// of the fragment-level range can be overridden independently.
func (f *Fragment) LineBounds(li int) (lo, hi tonerow.Position) {
	lo, hi = f.Lowest, f.Highest
	l := &f.Lines[li]
	if l.Lowest >= 0 {
		lo = l.Lowest
	}
	if l.Highest >= 0 {
		hi = l.Highest
	}

	return lo, hi
}

// groupClasses returns the concatenated class sequence of group g in
// sounding order.
func (f *Fragment) groupClasses(g int) []tonerow.PitchClass {
	group := &f.Groups[g]
	out := make([]tonerow.PitchClass, 0, len(group.Instances)*tonerow.PitchClassCount)
	for _, idx := range group.Instances {
		out = append(out, f.Arena[idx].Classes...)
	}

	return out
}

// Refresh recomputes all derived state after a structural edit:
//
//  1. propagate dependent instances in evaluation order;
//  2. materialize each line's events from its measure splits and pause
//     indices, binding every note to the next class of the group's
//     concatenated instance sequence;
//  3. assign octave registers (deterministic nearest-to-previous walk);
//  4. rebuild the sonority list.
//
// Errors: ErrStructure when a note has no in-range register candidate
// (prevented by the >= 11 semitone span rule), ErrInvariant when a line's
// note count does not match its group's instance sequence.
//
// Complexity: O(total events * octave span + sonorities).
func (f *Fragment) Refresh() error {
	if err := propagate(f.Arena, f.EvalOrder, f.Row); err != nil {
		return fmt.Errorf("%w: %v", ErrInvariant, err)
	}

	for li := range f.Lines {
		if err := f.refreshLine(li); err != nil {
			return err
		}
	}
	f.rebuildSonorities()

	return nil
}

// refreshLine materializes events and registers for one line.
func (f *Fragment) refreshLine(li int) error {
	line := &f.Lines[li]
	classes := f.groupClasses(f.GroupOf(li))

	// Step 1: flat events from measure splits, with onset times.
	count := line.EventCount()
	if cap(line.Events) < count {
		line.Events = make([]Event, count)
	}
	line.Events = line.Events[:count]
	idx, start := 0, 0.0
	for _, measure := range line.Measures {
		for _, d := range measure {
			line.Events[idx] = Event{
				LineIndex: li,
				Index:     idx,
				Start:     start,
				Duration:  d,
				Pause:     line.IsPause(idx),
			}
			start += d
			idx++
		}
	}

	// Step 2: bind pitch classes in playing order.
	next := 0
	for i := range line.Events {
		if line.Events[i].Pause {
			continue
		}
		if next >= len(classes) {
			return fmt.Errorf("%w: line %d has more notes than its instance sequence (%d classes)",
				ErrInvariant, line.ID, len(classes))
		}
		line.Events[i].Class = classes[next]
		next++
	}
	if next != len(classes) {
		return fmt.Errorf("%w: line %d binds %d notes, instance sequence has %d classes",
			ErrInvariant, line.ID, next, len(classes))
	}

	// Step 3: octave registers.
	return f.assignRegisters(li)
}

// assignRegisters walks the line's notes and picks a concrete position for
// every bound pitch class:
//
//   - candidates are the in-range positions of the note's class;
//   - the first note takes the candidate closest to the register center;
//   - later notes take the candidate closest to the previous note's
//     position, ties broken toward the center, then toward the lower
//     position.
//
// The walk is deterministic, so equal structure always yields equal pitch.
func (f *Fragment) assignRegisters(li int) error {
	line := &f.Lines[li]
	lo, hi := f.LineBounds(li)
	center := float64(lo+hi) / 2

	prev := tonerow.Position(-1)
	for i := range line.Events {
		e := &line.Events[i]
		if e.Pause {
			continue
		}

		best, found := tonerow.Position(0), false
		var bestPrevDist, bestCenterDist float64
		for p := lo; p <= hi; p++ {
			if p.Class() != e.Class {
				continue
			}
			centerDist := abs(float64(p) - center)
			prevDist := 0.0
			if prev >= 0 {
				prevDist = abs(float64(p) - float64(prev))
			}
			better := !found ||
				prevDist < bestPrevDist ||
				(prevDist == bestPrevDist && centerDist < bestCenterDist)
			// Equal on both: the lower position wins; the ascending scan
			// already guarantees it.
			if better {
				best, found = p, true
				bestPrevDist, bestCenterDist = prevDist, centerDist
			}
		}
		if !found {
			return fmt.Errorf("%w: line %d: class %s has no position in [%s, %s]",
				ErrStructure, line.ID, e.Class, lo, hi)
		}
		e.Position = best
		prev = best
	}

	return nil
}

// abs is a tiny float helper kept local to avoid a math import in the hot
// loop.
func abs(x float64) float64 {
	if x < 0 {
		return -x
	}

	return x
}

// Validate re-checks every structural invariant and returns the first
// violation wrapped in ErrInvariant. It trusts nothing derived: pitch
// classes are re-compared against the arena, measure sums against the
// meter, splits against the vocabulary.
//
// Complexity: O(total events + instances).
func (f *Fragment) Validate() error {
	for idx := range f.Arena {
		inst := &f.Arena[idx]
		if len(inst.Classes) != tonerow.PitchClassCount {
			return fmt.Errorf("%w: instance %d has %d classes", ErrInvariant, idx, len(inst.Classes))
		}
		if inst.Dependent() {
			want, err := tonerow.Apply(f.Arena[inst.Source].Classes, inst.Transform)
			if err != nil {
				return fmt.Errorf("%w: instance %d: %v", ErrInvariant, idx, err)
			}
			for i, pc := range want {
				if inst.Classes[i] != pc {
					return fmt.Errorf("%w: instance %d diverged from its source at class %d",
						ErrInvariant, idx, i)
				}
			}
		}
	}

	for li := range f.Lines {
		if err := f.validateLine(li); err != nil {
			return err
		}
	}

	return nil
}

// validateLine checks invariants 1-4 plus register bounds for one line.
func (f *Fragment) validateLine(li int) error {
	line := &f.Lines[li]
	if len(line.Measures) != f.NMeasures {
		return fmt.Errorf("%w: line %d has %d measures, want %d",
			ErrInvariant, line.ID, len(line.Measures), f.NMeasures)
	}

	// Invariant 3: exact sums and vocabulary membership.
	measureLen := f.Meter.MeasureLen()
	for m, split := range line.Measures {
		sum := 0.0
		for _, d := range split {
			sum += d
		}
		if sum != measureLen {
			return fmt.Errorf("%w: line %d measure %d sums to %v, want %v",
				ErrInvariant, line.ID, m, sum, measureLen)
		}
		if !f.Vocabulary.Contains(split) {
			return fmt.Errorf("%w: line %d measure %d split %v is outside the vocabulary",
				ErrInvariant, line.ID, m, split)
		}
	}

	// Invariant 4: pause bookkeeping.
	count := line.EventCount()
	if len(line.PauseIndices) != line.NPauses {
		return fmt.Errorf("%w: line %d has %d pauses, want %d",
			ErrInvariant, line.ID, len(line.PauseIndices), line.NPauses)
	}
	for i, p := range line.PauseIndices {
		if p < 0 || p >= count {
			return fmt.Errorf("%w: line %d pause index %d out of range [0, %d)",
				ErrInvariant, line.ID, p, count)
		}
		if i > 0 && line.PauseIndices[i-1] >= p {
			return fmt.Errorf("%w: line %d pause indices not strictly ascending", ErrInvariant, line.ID)
		}
	}
	for _, p := range line.ImmutablePauseIndices {
		if !line.IsPause(p) {
			return fmt.Errorf("%w: line %d immutable pause index %d is not a pause",
				ErrInvariant, line.ID, p)
		}
	}

	// Invariant 1: note count against the instance sequence.
	classes := f.groupClasses(f.GroupOf(li))
	if line.NoteCount() != len(classes) {
		return fmt.Errorf("%w: line %d has %d notes, instance sequence has %d classes",
			ErrInvariant, line.ID, line.NoteCount(), len(classes))
	}

	// Invariant 2 plus register bounds, re-derived from events.
	if len(line.Events) != count {
		return fmt.Errorf("%w: line %d events not refreshed", ErrInvariant, line.ID)
	}
	lo, hi := f.LineBounds(li)
	next := 0
	for i := range line.Events {
		e := &line.Events[i]
		if e.Pause {
			continue
		}
		if e.Class != classes[next] {
			return fmt.Errorf("%w: line %d note %d sounds %s, instance sequence says %s",
				ErrInvariant, line.ID, i, e.Class, classes[next])
		}
		next++
		if e.Position < lo || e.Position > hi {
			return fmt.Errorf("%w: line %d note %d position %s outside [%s, %s]",
				ErrInvariant, line.ID, i, e.Position, lo, hi)
		}
		if e.Position.Class() != e.Class {
			return fmt.Errorf("%w: line %d note %d position %s does not sound class %s",
				ErrInvariant, line.ID, i, e.Position, e.Class)
		}
	}

	return nil
}
