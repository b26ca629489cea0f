// Package fragment - model types, construction parameters, and sentinel
// errors.
package fragment

import (
	"errors"

	"github.com/katalvlaran/dodecaphony/tonerow"
)

// Sentinel errors of the fragment package.
//
// Classification:
//   - ErrBadParams: configuration-time; the layout is structurally
//     impossible and no amount of retrying can fix it. Fatal before search.
//   - ErrStructure: a random draw found no legal choice (no admissible
//     split, no free index, no movable pause). Recoverable: retry with a
//     fresh draw up to a bounded cap.
//   - ErrInvariant: a finished fragment violates a structural invariant.
//     Never accepted; the producing edit is discarded.
var (
	// ErrBadParams reports an impossible or inconsistent Params value.
	ErrBadParams = errors.New("fragment: invalid parameters")

	// ErrStructure reports that no valid random choice was available.
	ErrStructure = errors.New("fragment: no valid structural choice")

	// ErrInvariant reports a violated fragment invariant.
	ErrInvariant = errors.New("fragment: invariant violated")
)

// InheritBound marks a per-line register bound as "use the fragment-level
// bound". Any negative Position works; this constant keeps intent readable.
const InheritBound tonerow.Position = -1

// Meter is a time signature. Measure length in beats equals Numerator; one
// beat is the note value given by Denominator.
type Meter struct {
	Numerator   int
	Denominator int
}

// MeasureLen returns the measure length in beats.
func (m Meter) MeasureLen() float64 { return float64(m.Numerator) }

// Event is one sounding note or pause of a melodic line, materialized by
// Refresh from the line's measure splits and pause indices.
type Event struct {
	// LineIndex is the owning line's index within Fragment.Lines.
	LineIndex int
	// Index is the event's flat position within its line.
	Index int
	// Start is the onset in beats from the fragment start.
	Start float64
	// Duration is the length in beats; always positive.
	Duration float64
	// Pause reports a rest; Class and Position are meaningless when set.
	Pause bool
	// Class is the bound pitch class (valid iff !Pause).
	Class tonerow.PitchClass
	// Position is the absolute pitch (valid iff !Pause).
	Position tonerow.Position
}

// End returns the event's off time in beats.
func (e *Event) End() float64 { return e.Start + e.Duration }

// Instance is one 12-class copy of the tone row inside the arena.
type Instance struct {
	// Transform derives Classes: independent instances apply it to the
	// tone row once at initialization, dependent instances apply it to
	// their source on every propagation.
	Transform tonerow.Transform
	// Source is the arena index this instance depends on, or -1 when the
	// instance is independent.
	Source int
	// Frozen excludes an independent instance from pitch transformations.
	Frozen bool
	// Classes is the current 12-class sequence.
	Classes []tonerow.PitchClass
}

// Dependent reports whether the instance tracks another one.
func (in *Instance) Dependent() bool { return in.Source >= 0 }

// Group is a set of melodic lines sharing one instance sequence.
type Group struct {
	// LineIndices lists the member lines (indices into Fragment.Lines).
	LineIndices []int
	// Instances lists arena indices in sounding order.
	Instances []int
}

// MelodicLine is one voice of the fragment. Measures and the pause indices
// are the canonical rhythm state; Events is derived by Refresh.
type MelodicLine struct {
	// ID is the user-facing line identifier from the configuration.
	ID int
	// Measures holds one duration split per measure, in playing order.
	// Each split is a member of the fragment's vocabulary (invariant 3).
	Measures [][]float64
	// PauseIndices are the flat event indices that rest, sorted ascending.
	PauseIndices []int
	// ImmutablePauseIndices is the fixed subset of PauseIndices that no
	// transformation may move (invariant 4), sorted ascending.
	ImmutablePauseIndices []int
	// NPauses is the fixed pause count of the line (invariant 4).
	NPauses int
	// Lowest and Highest are the line's register bounds; InheritBound
	// selects the fragment-level bound.
	Lowest, Highest tonerow.Position
	// FrozenRhythm excludes the line from rhythm transformations.
	FrozenRhythm bool

	// Events is the derived flat event list (set by Refresh).
	Events []Event
}

// EventCount returns the line's flat event count implied by its measures.
func (l *MelodicLine) EventCount() int {
	n := 0
	for _, m := range l.Measures {
		n += len(m)
	}

	return n
}

// NoteCount returns the number of non-pause events.
func (l *MelodicLine) NoteCount() int {
	return l.EventCount() - len(l.PauseIndices)
}

// IsPause reports whether flat event index i rests. PauseIndices is sorted,
// so this is a binary probe.
//
// Complexity: O(log NPauses).
func (l *MelodicLine) IsPause(i int) bool {
	lo, hi := 0, len(l.PauseIndices)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case l.PauseIndices[mid] < i:
			lo = mid + 1
		case l.PauseIndices[mid] > i:
			hi = mid
		default:
			return true
		}
	}

	return false
}

// IsImmutablePause reports whether flat event index i is a pinned pause.
func (l *MelodicLine) IsImmutablePause(i int) bool {
	for _, p := range l.ImmutablePauseIndices {
		if p == i {
			return true
		}
		if p > i {
			return false
		}
	}

	return false
}

// Sonority is the tuple of simultaneously sounding events, one per line,
// over the half-open window [Start, End).
type Sonority struct {
	Start float64
	End   float64
	// Events holds one pointer per line, indexed by line index; an entry
	// may reference a pause event.
	Events []*Event
}

// Duration returns the window length in beats.
func (s *Sonority) Duration() float64 { return s.End - s.Start }

// Continues reports whether e sounded before this sonority started.
func (s *Sonority) Continues(e *Event) bool { return e.Start < s.Start }

// LineParams configures one melodic line.
type LineParams struct {
	// ID is the user-facing identifier; must be unique among lines.
	ID int
	// NPauses is the fixed number of rests in the line.
	NPauses int
	// ImmutablePauseIndices pins rests to flat event indices; must be
	// sorted, unique, and no longer than NPauses.
	ImmutablePauseIndices []int
	// Lowest and Highest override the fragment register bounds when
	// non-negative; the effective span must cover at least 11 semitones.
	Lowest, Highest tonerow.Position
	// FrozenRhythm excludes the line from rhythm transformations.
	FrozenRhythm bool
}

// InstanceParams configures one tone-row instance of a group.
type InstanceParams struct {
	// Transform derives the instance (from the row, or from the source
	// when SourceGroup is set).
	Transform tonerow.Transform
	// SourceGroup and SourceInstance select the source of a dependent
	// instance; both -1 for an independent one.
	SourceGroup    int
	SourceInstance int
	// Frozen excludes the instance from pitch transformations.
	Frozen bool
	// Randomize replaces Transform with a random inversion/reversion
	// combination at initialization (independent instances only).
	Randomize bool
}

// GroupParams configures one group.
type GroupParams struct {
	// LineIndices lists member lines as indices into Params.Lines.
	LineIndices []int
	// Instances lists the group's tone-row instances in sounding order.
	Instances []InstanceParams
}

// Params carries everything Initialize needs. The zero value is not usable;
// config.Build assembles a valid one from a run configuration.
type Params struct {
	// Row is the fragment's tone row.
	Row tonerow.ToneRow
	// Meter is the time signature; every measure sums to its length.
	Meter Meter
	// NMeasures is the number of measures per line.
	NMeasures int
	// Lowest and Highest are the fragment-level register bounds
	// (inclusive, MIDI numbering); the span must cover at least 11
	// semitones so every pitch class stays reachable.
	Lowest, Highest tonerow.Position
	// Durations restricts the duration values available to measure
	// splits; empty selects SupportedDurations.
	Durations []float64
	// MeasureSplits enumerates the split vocabulary explicitly; empty
	// enumerates every multiset over Durations that fills a measure.
	MeasureSplits [][]float64
	// Lines and Groups lay out the fragment; every line must belong to
	// exactly one group.
	Lines  []LineParams
	Groups []GroupParams
	// MaxRetries caps resampling loops inside Initialize; 0 selects
	// DefaultMaxRetries.
	MaxRetries int
}

// DefaultMaxRetries bounds the initializer's resampling loops.
const DefaultMaxRetries = 128
