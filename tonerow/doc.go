// Package tonerow provides the pitch vocabulary of the twelve-tone technique:
// pitch classes, absolute positions (MIDI numbering), tone rows, and the
// canonical row transformations (transposition, inversion, reversion,
// rotation, and their compositions).
//
// Overview:
//
//   - A PitchClass is one of the 12 equivalence classes of pitch under octave
//     and enharmonic identification, spelled C, C#, D, ..., B and numbered
//     0..11 with C = 0.
//   - A Position is an absolute pitch height in semitones using MIDI
//     numbering (C4 = 60); PitchClass = Position mod 12.
//   - A ToneRow is an ordered sequence of all 12 pitch classes, each exactly
//     once. It is the seed material of a dodecaphonic fragment and stays
//     immutable for the lifetime of a run.
//   - A Transform is a value describing one derivation of a 12-class
//     sequence from another: an optional rotation applied first, then one of
//     identity, transposition, inversion, reversion, or
//     retrograde-inversion. Transforms compose, and every one of them is a
//     bijection on pitch-class sequences, so distinctness is preserved.
//
// The package also carries the two lookup tables the scoring heuristics
// lean on:
//
//   - interval classification for strict counterpoint (perfect/imperfect
//     consonance vs. dissonance, with the perfect fourth judged by voice
//     placement), and
//   - diatonic scale membership for the configurable scale types (major,
//     minor variants, church modes, whole tone).
//
// All functions are pure and allocation-light; none of them log or panic on
// user input. Errors are reported through the package sentinels in types.go
// and are comparable with errors.Is.
package tonerow
