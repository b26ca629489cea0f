// Package render exports finalized fragments to interchange formats: a
// tab-separated event sheet, a standard MIDI file, a content summary in
// YAML, and sheet music in Lilypond notation.
//
// Overview:
//
//	All writers take an io.Writer and a refreshed fragment. Musical time is
//	measured in beats; Options.BeatInSeconds scales it to wall-clock
//	seconds for the TSV sheet and to the tempo meta event of the MIDI
//	file, and the opening/trailing silences pad the piece on both sides.
//	Per-line General MIDI programs come from Options.LineInstruments.
//
// The writers never mutate the fragment; pauses are skipped everywhere
// except the Lilypond export, which renders them as rests.
package render
