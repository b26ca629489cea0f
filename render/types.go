// Package render - options and sentinel errors.
package render

import (
	"errors"
	"fmt"
)

// ErrBadOptions is returned when Options fail validation.
var ErrBadOptions = errors.New("render: invalid options")

// Velocity and program bounds of the MIDI wire format.
const (
	maxVelocity = 127
	maxProgram  = 127
)

// Options configure the exporters.
//
// Usage:
//
//	opts := render.DefaultOptions()
//	opts.LineInstruments = map[int]int{1: 46, 2: 32}
//	err := render.WriteTSV(w, frag, opts)
type Options struct {
	// BeatInSeconds is the wall-clock duration of one beat. Must be
	// positive.
	BeatInSeconds float64

	// Velocity is the common velocity of every note, 1..127.
	Velocity int

	// OpeningSilence and TrailingSilence pad the piece, in seconds; both
	// must be non-negative.
	OpeningSilence  float64
	TrailingSilence float64

	// LineInstruments maps line IDs to General MIDI program numbers
	// (0..127). Lines without an entry play program 0.
	LineInstruments map[int]int
}

// DefaultOptions returns the conventional rendering setup: two beats per
// second, a common velocity of 100, and one second of silence on each side.
func DefaultOptions() Options {
	return Options{
		BeatInSeconds:   0.5,
		Velocity:        100,
		OpeningSilence:  1,
		TrailingSilence: 1,
	}
}

// Validate checks the option ranges.
func (o *Options) Validate() error {
	if o.BeatInSeconds <= 0 {
		return fmt.Errorf("%w: BeatInSeconds %v, want positive", ErrBadOptions, o.BeatInSeconds)
	}
	if o.Velocity < 1 || o.Velocity > maxVelocity {
		return fmt.Errorf("%w: Velocity %d outside 1..%d", ErrBadOptions, o.Velocity, maxVelocity)
	}
	if o.OpeningSilence < 0 {
		return fmt.Errorf("%w: OpeningSilence %v, want non-negative", ErrBadOptions, o.OpeningSilence)
	}
	if o.TrailingSilence < 0 {
		return fmt.Errorf("%w: TrailingSilence %v, want non-negative", ErrBadOptions, o.TrailingSilence)
	}
	for id, program := range o.LineInstruments {
		if program < 0 || program > maxProgram {
			return fmt.Errorf("%w: line %d: program %d outside 0..%d", ErrBadOptions, id, program, maxProgram)
		}
	}

	return nil
}

// program resolves the General MIDI program of a line.
func (o *Options) program(lineID int) int {
	return o.LineInstruments[lineID]
}
