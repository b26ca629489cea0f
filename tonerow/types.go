// Package tonerow - core types, note-name parsing, and sentinel errors.
//
// This file defines PitchClass and Position, the canonical sharp spellings,
// and the parsers used by configuration loading. All sentinels here are
// stable: branch on them with errors.Is.
package tonerow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PitchClassCount is the number of pitch classes in the chromatic scale.
const PitchClassCount = 12

// PitchClass is one of the 12 equivalence classes of pitch under octave and
// enharmonic identification. Valid values are 0 (C) through 11 (B).
type PitchClass int

// Position is an absolute pitch height in semitones, MIDI numbering
// (C4 = 60). The pitch class of a position is Position mod 12.
type Position int

// Sentinel errors returned by parsers and constructors.
//
// Classification: all of them are configuration-time errors; none occur
// during optimization once inputs have been validated.
var (
	// ErrBadPitchClass is returned when a pitch-class spelling or numeric
	// value is outside the chromatic vocabulary.
	ErrBadPitchClass = errors.New("tonerow: invalid pitch class")

	// ErrBadNote is returned when a scientific note name (e.g. "A#4")
	// cannot be parsed or falls outside the MIDI range 0..127.
	ErrBadNote = errors.New("tonerow: invalid note name")

	// ErrBadRow is returned when a tone row does not consist of exactly
	// the 12 distinct pitch classes.
	ErrBadRow = errors.New("tonerow: invalid tone row")

	// ErrBadTransform is returned when a transform name or parameter set
	// is not recognized.
	ErrBadTransform = errors.New("tonerow: invalid transform")

	// ErrBadScale is returned when a scale type name is not recognized.
	ErrBadScale = errors.New("tonerow: invalid scale type")
)

// pitchClassNames holds the canonical sharp spellings indexed by class.
var pitchClassNames = [PitchClassCount]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// flatAliases maps the common flat spellings onto their sharp equivalents.
var flatAliases = map[string]PitchClass{
	"Db": 1, "Eb": 3, "Gb": 6, "Ab": 8, "Bb": 10,
}

// Valid reports whether pc lies in the chromatic range 0..11.
//
// Complexity: O(1).
func (pc PitchClass) Valid() bool {
	return pc >= 0 && pc < PitchClassCount
}

// String returns the canonical sharp spelling of pc, or "?" when pc is out
// of range.
func (pc PitchClass) String() string {
	if !pc.Valid() {
		return "?"
	}

	return pitchClassNames[pc]
}

// Transpose returns pc shifted by n semitones, wrapped into 0..11.
// Negative n is allowed.
//
// Complexity: O(1).
func (pc PitchClass) Transpose(n int) PitchClass {
	return PitchClass(((int(pc)+n)%PitchClassCount + PitchClassCount) % PitchClassCount)
}

// ParsePitchClass parses a pitch-class spelling ("C", "F#", "Bb").
// Sharp spellings are canonical; the five flat aliases are accepted.
//
// Complexity: O(1).
func ParsePitchClass(s string) (PitchClass, error) {
	name := strings.TrimSpace(s)
	for i, known := range pitchClassNames {
		if name == known {
			return PitchClass(i), nil
		}
	}
	if pc, ok := flatAliases[name]; ok {
		return pc, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrBadPitchClass, s)
}

// Class returns the pitch class of p.
//
// Complexity: O(1).
func (p Position) Class() PitchClass {
	return PitchClass(((int(p) % PitchClassCount) + PitchClassCount) % PitchClassCount)
}

// Octave returns the scientific octave number of p (C4 = 60 sits in
// octave 4).
//
// Complexity: O(1).
func (p Position) Octave() int {
	return int(p)/PitchClassCount - 1
}

// String returns the scientific note name of p, e.g. Position(69).String()
// == "A4".
func (p Position) String() string {
	return fmt.Sprintf("%s%d", p.Class(), p.Octave())
}

// ParsePosition parses a scientific note name such as "G2" or "A#5" into an
// absolute position. The octave may be negative ("C-1" is position 0).
//
// Complexity: O(len(s)).
func ParsePosition(s string) (Position, error) {
	name := strings.TrimSpace(s)
	// Split the spelling from the octave: the octave starts at the first
	// digit or at a minus sign followed by a digit.
	split := -1
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= '0' && c <= '9' {
			split = i

			break
		}
		if c == '-' && i+1 < len(name) && name[i+1] >= '0' && name[i+1] <= '9' {
			split = i

			break
		}
	}
	if split <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadNote, s)
	}

	pc, err := ParsePitchClass(name[:split])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadNote, s)
	}
	octave, err := strconv.Atoi(name[split:])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadNote, s)
	}

	pos := Position((octave+1)*PitchClassCount + int(pc))
	if pos < 0 || pos > 127 {
		return 0, fmt.Errorf("%w: %q is outside MIDI range 0..127", ErrBadNote, s)
	}

	return pos, nil
}
