// Package tonerow - interval arithmetic and strict-counterpoint interval
// classification.
//
// The classification follows the conventions of species counterpoint:
// unisons, octaves, and perfect fifths are perfect consonances; thirds and
// sixths are imperfect consonances; seconds, sevenths, and the tritone are
// dissonances. The perfect fourth is judged by placement: consonant between
// upper voices, dissonant against the lowest sounding voice.
package tonerow

import "fmt"

// IntervalType classifies a harmonic interval for counterpoint rules.
type IntervalType uint8

const (
	// PerfectConsonance covers unisons, octaves, fifths, and the fourth
	// when it does not involve the bass.
	PerfectConsonance IntervalType = iota
	// ImperfectConsonance covers thirds and sixths (and their compounds).
	ImperfectConsonance
	// Dissonance covers seconds, sevenths, the tritone, and the fourth
	// against the bass.
	Dissonance
)

// String returns a short label for logs and reports.
func (t IntervalType) String() string {
	switch t {
	case PerfectConsonance:
		return "perfect consonance"
	case ImperfectConsonance:
		return "imperfect consonance"
	case Dissonance:
		return "dissonance"
	default:
		return fmt.Sprintf("IntervalType(%d)", uint8(t))
	}
}

// TypeOfInterval classifies an interval of nSemitones (any sign, any octave
// compound). fourthConsonant selects the treatment of the perfect fourth:
// pass true when neither event is carried by the lowest sounding line.
//
// Complexity: O(1).
func TypeOfInterval(nSemitones int, fourthConsonant bool) IntervalType {
	n := nSemitones % PitchClassCount
	if n < 0 {
		n = -n
	}
	switch n {
	case 0, 7:
		return PerfectConsonance
	case 5:
		if fourthConsonant {
			return PerfectConsonance
		}

		return Dissonance
	case 3, 4, 8, 9:
		return ImperfectConsonance
	default: // 1, 2, 6, 10, 11
		return Dissonance
	}
}

// SmallestInterval returns the directed interval of minimal absolute size
// leading from one pitch class to another: a value in -5..+6 semitones, with
// the tritone reported as +6.
//
// Complexity: O(1).
func SmallestInterval(from, to PitchClass) int {
	d := ((int(to)-int(from))%PitchClassCount + PitchClassCount) % PitchClassCount

	return (d+5)%PitchClassCount - 5
}
