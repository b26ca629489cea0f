// Package render - the standard MIDI file writer.
package render

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/katalvlaran/dodecaphony/fragment"
)

// ticksPerQuarter is the SMF resolution.
const ticksPerQuarter = 960

// WriteMIDI writes f as a standard MIDI file with one track per melodic
// line: a program change per track, the meter and tempo meta events on the
// first one, and a note on/off pair per sounding event at metric ticks.
//
// The tempo derives from BeatInSeconds and the meter denominator so that
// one beat of the fragment lasts exactly BeatInSeconds at playback; the
// opening and trailing silences become leading and trailing delta time.
//
// Errors: ErrBadOptions, or the writer's error.
//
// Complexity: O(E) over the fragment's events.
func WriteMIDI(w io.Writer, f *fragment.Fragment, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	clock := smf.MetricTicks(ticksPerQuarter)
	// One beat is a denominator-th note: scale quarter-note ticks
	// accordingly.
	beatTicks := float64(clock.Ticks4th()) * 4 / float64(f.Meter.Denominator)
	silenceBeats := opts.OpeningSilence / opts.BeatInSeconds
	trailingBeats := opts.TrailingSilence / opts.BeatInSeconds

	s := smf.New()
	s.TimeFormat = clock

	for li := range f.Lines {
		line := &f.Lines[li]
		ch := channel(li)

		var tr smf.Track
		if li == 0 {
			tr.Add(0, smf.MetaMeter(uint8(f.Meter.Numerator), uint8(f.Meter.Denominator)))
			tr.Add(0, smf.MetaTempo(240/(opts.BeatInSeconds*float64(f.Meter.Denominator))))
		}
		tr.Add(0, smf.MetaInstrument(strconv.Itoa(line.ID)))
		tr.Add(0, midi.ProgramChange(ch, uint8(opts.program(line.ID))))

		// cursor tracks the absolute tick of the last written message, so
		// deltas stay non-negative: events of one line never overlap.
		cursor := uint32(0)
		for i := range line.Events {
			e := &line.Events[i]
			if e.Pause {
				continue
			}
			on := tick(beatTicks, e.Start+silenceBeats)
			off := tick(beatTicks, e.End()+silenceBeats)
			tr.Add(on-cursor, midi.NoteOn(ch, uint8(e.Position), uint8(opts.Velocity)))
			tr.Add(off-on, midi.NoteOff(ch, uint8(e.Position)))
			cursor = off
		}

		end := tick(beatTicks, f.TotalBeats()+silenceBeats+trailingBeats)
		if end < cursor {
			end = cursor
		}
		tr.Close(end - cursor)
		s.Add(tr)
	}

	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("render: write midi: %w", err)
	}

	return nil
}

// WriteMIDIFile writes the MIDI rendition of f to path.
func WriteMIDIFile(path string, f *fragment.Fragment, opts Options) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: create %s: %w", path, err)
	}
	if err := WriteMIDI(file, f, opts); err != nil {
		_ = file.Close()

		return err
	}

	return file.Close()
}

// channel maps a line index to a MIDI channel, skipping the percussion
// channel 9.
func channel(li int) uint8 {
	ch := li % 15
	if ch >= 9 {
		ch++
	}

	return uint8(ch)
}

// tick converts beats to absolute metric ticks.
func tick(beatTicks, beats float64) uint32 {
	return uint32(math.Round(beatTicks * beats))
}
