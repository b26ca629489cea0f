// Package render - the tab-separated event sheet.
package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/katalvlaran/dodecaphony/fragment"
)

// tsvHeader lists the event-sheet columns.
const tsvHeader = "instrument\tstart_time\tduration\tnote\tvelocity\tline_id"

// tsvRow is one flattened note event.
type tsvRow struct {
	program  int
	start    float64
	duration float64
	note     string
	position int
	lineID   int
}

// WriteTSV writes every note event of f as one tab-separated row, ordered
// by (start time, pitch position). Times are wall-clock seconds: beats
// scaled by BeatInSeconds and shifted by the opening silence. Pauses are
// skipped.
//
// Errors: ErrBadOptions, or the writer's error.
//
// Complexity: O(E log E) over the fragment's note events.
func WriteTSV(w io.Writer, f *fragment.Fragment, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	var rows []tsvRow
	for li := range f.Lines {
		line := &f.Lines[li]
		program := opts.program(line.ID)
		for i := range line.Events {
			e := &line.Events[i]
			if e.Pause {
				continue
			}
			rows = append(rows, tsvRow{
				program:  program,
				start:    e.Start*opts.BeatInSeconds + opts.OpeningSilence,
				duration: e.Duration * opts.BeatInSeconds,
				note:     e.Position.String(),
				position: int(e.Position),
				lineID:   line.ID,
			})
		}
	}
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].start != rows[b].start {
			return rows[a].start < rows[b].start
		}

		return rows[a].position < rows[b].position
	})

	if _, err := fmt.Fprintln(w, tsvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		_, err := fmt.Fprintf(w, "%d\t%v\t%v\t%s\t%d\t%d\n",
			r.program, r.start, r.duration, r.note, opts.Velocity, r.lineID)
		if err != nil {
			return err
		}
	}

	return nil
}
