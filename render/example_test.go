package render_test

import (
	"fmt"
	"os"

	"github.com/katalvlaran/dodecaphony/fragment"
	"github.com/katalvlaran/dodecaphony/render"
)

// ExampleWriteLilypond engraves a one-measure line as Lilypond source.
func ExampleWriteLilypond() {
	f := &fragment.Fragment{
		Meter:     fragment.Meter{Numerator: 4, Denominator: 4},
		NMeasures: 1,
		Lines: []fragment.MelodicLine{{
			ID:       1,
			Measures: [][]float64{{2, 2}},
			Events: []fragment.Event{
				{Start: 0, Duration: 2, Class: 0, Position: 60},
				{Start: 2, Duration: 2, Class: 2, Position: 62},
			},
		}},
	}

	if err := render.WriteLilypond(os.Stdout, f); err != nil {
		fmt.Println(err)
	}

	// Output:
	// \version "2.18.2"
	// \layout {
	//     indent = #0
	// }
	// \new StaffGroup <<
	//     \new Staff <<
	//         \clef treble
	//         \time 4/4
	//         \key c \major
	//         {c'2 d'2}
	//     >>
	//     \new Staff <<
	//         \clef bass
	//         \time 4/4
	//         \key c \major
	//     >>
	// >>
}
