// Package render - sheet music in Lilypond notation.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/katalvlaran/dodecaphony/fragment"
)

// ErrUnsupportedDuration is returned when an event's duration has no
// Lilypond spelling. Only durations representable as (possibly tied)
// plain or dotted notes are supported; every vocabulary duration is.
var ErrUnsupportedDuration = errors.New("render: unsupported duration")

// lilyDurations maps a duration in 64th notes to its Lilypond spelling: a
// list of note pieces where every piece but the last carries its tie.
var lilyDurations = map[int][]string{
	4:   {"16"},
	6:   {"16."},
	8:   {"8"},
	12:  {"8."},
	16:  {"4"},
	20:  {"4~", "16"},
	22:  {"4~", "16."},
	24:  {"4."},
	28:  {"4.~", "16"},
	30:  {"4.~", "16."},
	32:  {"2"},
	36:  {"2~", "16"},
	38:  {"2~", "16."},
	40:  {"2~", "8"},
	44:  {"2~", "8."},
	48:  {"2."},
	52:  {"2.~", "16"},
	54:  {"2.~", "16."},
	56:  {"2.~", "8"},
	60:  {"2.~", "8."},
	64:  {"1"},
	96:  {"1."},
	128: {"\\breve"},
	192: {"\\breve."},
	256: {"\\longa"},
	384: {"\\longa."},
}

// WriteLilypond writes f as a Lilypond score: one staff group with the
// upper half of the voices on a treble staff and the lower half on a bass
// staff, pauses rendered as rests, bar-crossing notes split and tied.
//
// Errors: ErrUnsupportedDuration, or the writer's error.
func WriteLilypond(w io.Writer, f *fragment.Fragment) error {
	voices := make([]string, 0, len(f.Lines))
	for _, li := range lilypondVoiceOrder(len(f.Lines)) {
		line := &f.Lines[li]
		notes := make([]string, 0, len(line.Events))
		for i := range line.Events {
			e := &line.Events[i]
			note, err := lilypondNote(e, f.Meter)
			if err != nil {
				return err
			}
			notes = append(notes, note)
		}
		voices = append(voices, strings.Join(notes, " "))
	}

	_, err := io.WriteString(w, lilypondDocument(f.Meter, voices))

	return err
}

// lilypondNote renders one event, splitting it across barlines when needed.
func lilypondNote(e *fragment.Event, meter fragment.Meter) (string, error) {
	pieces, err := lilypondPieces(e.Duration, math.Mod(e.Start, meter.MeasureLen()), meter)
	if err != nil {
		return "", err
	}

	pitch := lilypondPitch(e)
	parts := make([]string, len(pieces))
	for i, p := range pieces {
		parts[i] = pitch + p
	}
	note := strings.Join(parts, " ")
	if e.Pause {
		// Lilypond warns when rests are tied.
		note = strings.ReplaceAll(note, "~", "")
	}

	return note, nil
}

// lilypondPieces spells a duration starting timeInMeasure beats into a
// measure, recursing over barlines and tying the halves.
func lilypondPieces(duration, timeInMeasure float64, meter fragment.Meter) ([]string, error) {
	measureLen := meter.MeasureLen()
	if timeInMeasure+duration <= measureLen+1e-9 {
		key := int(math.Round(duration * 64 / float64(meter.Denominator)))
		pieces, ok := lilyDurations[key]
		if !ok {
			return nil, fmt.Errorf("%w: %v beats", ErrUnsupportedDuration, duration)
		}

		return pieces, nil
	}

	head := measureLen - timeInMeasure
	first, err := lilypondPieces(head, timeInMeasure, meter)
	if err != nil {
		return nil, err
	}
	// The table's slices are shared; copy before adding the tie.
	first = append([]string(nil), first...)
	first[len(first)-1] += "~"
	rest, err := lilypondPieces(duration-head, 0, meter)
	if err != nil {
		return nil, err
	}

	return append(first, rest...), nil
}

// lilypondPitch spells an event's pitch in absolute notation ("ais'" is
// A#4), or "r" for a rest.
func lilypondPitch(e *fragment.Event) string {
	if e.Pause {
		return "r"
	}

	name := strings.ToLower(strings.ReplaceAll(e.Class.String(), "#", "is"))
	// Lilypond's absolute reference octave is 3.
	diff := e.Position.Octave() - 3
	mark, n := "'", diff
	if diff < 0 {
		mark, n = ",", -diff
	}

	return name + strings.Repeat(mark, n)
}

// lilypondVoiceOrder enumerates line indices in the order Lilypond wants
// voices declared: outer voices before inner ones within each staff, upper
// staff first.
func lilypondVoiceOrder(n int) []int {
	staffOrder := func(k int) []int {
		out := make([]int, k)
		top := k - 1
		for i := 0; i < k; i++ {
			v := top - int(math.Round(2*math.Abs(float64(i)-float64(top)/2)))
			if float64(i) < float64(top)/2 {
				v++
			}
			out[i] = v
		}

		return out
	}

	upperCount := (n + 1) / 2
	priorities := make([]int, 0, n)
	for _, p := range staffOrder(n / 2) {
		priorities = append(priorities, p+upperCount)
	}
	priorities = append(priorities, staffOrder(upperCount)...)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return priorities[order[a]] > priorities[order[b]]
	})

	return order
}

// lilypondDocument lays the voices out on a treble and a bass staff. A
// dodecaphonic piece has no key, so the signature is a bare c major.
func lilypondDocument(meter fragment.Meter, voices []string) string {
	upper := (len(voices) + 1) / 2

	var b strings.Builder
	b.WriteString("\\version \"2.18.2\"\n")
	b.WriteString("\\layout {\n    indent = #0\n}\n")
	b.WriteString("\\new StaffGroup <<\n")
	writeStaff := func(clef string, vs []string) {
		b.WriteString("    \\new Staff <<\n")
		fmt.Fprintf(&b, "        \\clef %s\n", clef)
		fmt.Fprintf(&b, "        \\time %d/%d\n", meter.Numerator, meter.Denominator)
		b.WriteString("        \\key c \\major\n")
		for i, v := range vs {
			if i > 0 {
				b.WriteString("        \\\\\n")
			}
			fmt.Fprintf(&b, "        {%s}\n", v)
		}
		b.WriteString("    >>\n")
	}
	writeStaff("treble", voices[:upper])
	writeStaff("bass", voices[upper:])
	b.WriteString(">>")

	return b.String()
}
