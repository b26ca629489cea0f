// Package tonerow - tone rows and the canonical row transformations.
//
// This file implements the derivation contract used by tone-row instances:
// an optional rotation is applied first, then exactly one transform kind.
// Every operation is a bijection on 12-class sequences, so a valid row stays
// valid under any Transform.
package tonerow

import (
	"fmt"
	"strings"
)

// TransformKind enumerates the canonical dodecaphonic derivations.
type TransformKind uint8

const (
	// Identity leaves the sequence unchanged (rotation may still apply).
	Identity TransformKind = iota
	// Transposition shifts every pitch class by Shift semitones mod 12.
	Transposition
	// Inversion reflects the sequence around its first pitch class, so the
	// interval sequence negates while the opening class is kept.
	Inversion
	// Reversion plays the sequence backwards (retrograde).
	Reversion
	// RetrogradeInversion applies Inversion first, then Reversion.
	RetrogradeInversion
)

// transformKindNames maps kinds to their configuration spellings.
var transformKindNames = map[TransformKind]string{
	Identity:            "identity",
	Transposition:       "transposition",
	Inversion:           "inversion",
	Reversion:           "reversion",
	RetrogradeInversion: "retrograde_inversion",
}

// String returns the configuration spelling of k.
func (k TransformKind) String() string {
	if name, ok := transformKindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("TransformKind(%d)", uint8(k))
}

// ParseTransformKind parses a configuration spelling into a TransformKind.
// "rotation" is accepted as an alias for Identity, because rotation is a
// parameter of Transform rather than a kind of its own.
//
// Complexity: O(1).
func ParseTransformKind(s string) (TransformKind, error) {
	name := strings.TrimSpace(strings.ToLower(s))
	if name == "rotation" {
		return Identity, nil
	}
	for kind, known := range transformKindNames {
		if name == known {
			return kind, nil
		}
	}

	return Identity, fmt.Errorf("%w: unknown kind %q", ErrBadTransform, s)
}

// Transform describes one derivation of a 12-class sequence from another.
//
// Rotation is applied before Kind: first the sequence is rotated left by
// Rotation positions (negative values rotate right), then Kind is applied.
// Shift is only meaningful for Transposition and is taken mod 12.
type Transform struct {
	Kind     TransformKind
	Shift    int
	Rotation int
}

// IsIdentity reports whether t leaves every sequence unchanged.
//
// Complexity: O(1).
func (t Transform) IsIdentity() bool {
	if t.Rotation%PitchClassCount != 0 {
		return false
	}
	switch t.Kind {
	case Identity:
		return true
	case Transposition:
		return t.Shift%PitchClassCount == 0
	default:
		return false
	}
}

// String renders t in a compact human-readable form for logs and reports.
func (t Transform) String() string {
	var b strings.Builder
	b.WriteString(t.Kind.String())
	if t.Kind == Transposition {
		fmt.Fprintf(&b, "(%+d)", t.Shift)
	}
	if t.Rotation != 0 {
		fmt.Fprintf(&b, " after rotation(%d)", t.Rotation)
	}

	return b.String()
}

// Apply derives a new 12-class sequence from seq under t. The input is never
// mutated; the result is always a fresh slice of the same length.
//
// Contract: len(seq) must be exactly 12. Distinctness of the input classes
// is preserved because every step is a bijection.
//
// Complexity: O(12) time and one allocation.
func Apply(seq []PitchClass, t Transform) ([]PitchClass, error) {
	if len(seq) != PitchClassCount {
		return nil, fmt.Errorf("%w: sequence has %d classes, want %d",
			ErrBadTransform, len(seq), PitchClassCount)
	}

	out := make([]PitchClass, PitchClassCount)
	// Step 1: rotation. out[i] = seq[(i + r) mod 12], r normalized to 0..11.
	r := ((t.Rotation % PitchClassCount) + PitchClassCount) % PitchClassCount
	for i := 0; i < PitchClassCount; i++ {
		out[i] = seq[(i+r)%PitchClassCount]
	}

	// Step 2: the kind itself.
	switch t.Kind {
	case Identity:
		// Nothing further.
	case Transposition:
		for i := range out {
			out[i] = out[i].Transpose(t.Shift)
		}
	case Inversion:
		invertAroundFirst(out)
	case Reversion:
		reverse(out)
	case RetrogradeInversion:
		invertAroundFirst(out)
		reverse(out)
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrBadTransform, t.Kind)
	}

	return out, nil
}

// invertAroundFirst reflects every class around the first one in place:
// out[i] = (2*out[0] - out[i]) mod 12. The first class is a fixed point.
func invertAroundFirst(seq []PitchClass) {
	first := int(seq[0])
	for i := range seq {
		seq[i] = PitchClass((((2*first - int(seq[i])) % PitchClassCount) + PitchClassCount) % PitchClassCount)
	}
}

// reverse flips seq in place.
func reverse(seq []PitchClass) {
	for i, j := 0, len(seq)-1; i < j; i, j = i+1, j-1 {
		seq[i], seq[j] = seq[j], seq[i]
	}
}

// ToneRow is an ordered sequence of all 12 pitch classes, each exactly once.
type ToneRow []PitchClass

// NewToneRow validates classes and returns them as a ToneRow. The slice is
// copied, so the caller may keep mutating its own buffer.
//
// Errors: ErrBadRow when the length is not 12, a class is out of range, or a
// class repeats.
//
// Complexity: O(12).
func NewToneRow(classes []PitchClass) (ToneRow, error) {
	if len(classes) != PitchClassCount {
		return nil, fmt.Errorf("%w: got %d classes, want %d", ErrBadRow, len(classes), PitchClassCount)
	}

	var seen [PitchClassCount]bool
	row := make(ToneRow, PitchClassCount)
	for i, pc := range classes {
		if !pc.Valid() {
			return nil, fmt.Errorf("%w: class %d out of range at index %d", ErrBadRow, int(pc), i)
		}
		if seen[pc] {
			return nil, fmt.Errorf("%w: class %s repeats", ErrBadRow, pc)
		}
		seen[pc] = true
		row[i] = pc
	}

	return row, nil
}

// ParseToneRow parses 12 pitch-class spellings into a ToneRow.
//
// Complexity: O(12).
func ParseToneRow(names []string) (ToneRow, error) {
	if len(names) != PitchClassCount {
		return nil, fmt.Errorf("%w: got %d names, want %d", ErrBadRow, len(names), PitchClassCount)
	}

	classes := make([]PitchClass, len(names))
	for i, name := range names {
		pc, err := ParsePitchClass(name)
		if err != nil {
			return nil, fmt.Errorf("%w: index %d: %v", ErrBadRow, i, err)
		}
		classes[i] = pc
	}

	return NewToneRow(classes)
}

// Classes returns a fresh copy of the row's pitch classes.
//
// Complexity: O(12) and one allocation.
func (r ToneRow) Classes() []PitchClass {
	out := make([]PitchClass, len(r))
	copy(out, r)

	return out
}

// String renders the row as space-separated spellings, e.g.
// "B A# G C# D# C D A F# E G# F".
func (r ToneRow) String() string {
	parts := make([]string, len(r))
	for i, pc := range r {
		parts[i] = pc.String()
	}

	return strings.Join(parts, " ")
}
