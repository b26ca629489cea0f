package render_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/dodecaphony/fragment"
	"github.com/katalvlaran/dodecaphony/render"
	"github.com/katalvlaran/dodecaphony/tonerow"
)

// renderFragment hand-builds a two-line, two-measure fragment in 4/4: the
// top line plays C4, E4, a rest, then a whole note G4; the bottom line
// holds C3 and A3 for a measure each.
func renderFragment(t *testing.T) *fragment.Fragment {
	t.Helper()

	return &fragment.Fragment{
		Meter:     fragment.Meter{Numerator: 4, Denominator: 4},
		NMeasures: 2,
		Arena: []fragment.Instance{{
			Source:  -1,
			Classes: []tonerow.PitchClass{11, 10, 7, 1, 3, 0, 2, 9, 6, 4, 8, 5},
		}},
		Groups: []fragment.Group{{LineIndices: []int{0, 1}, Instances: []int{0}}},
		Lines: []fragment.MelodicLine{
			{
				ID:           1,
				Measures:     [][]float64{{2, 1, 1}, {4}},
				PauseIndices: []int{2},
				Events: []fragment.Event{
					{LineIndex: 0, Index: 0, Start: 0, Duration: 2, Class: 0, Position: 60},
					{LineIndex: 0, Index: 1, Start: 2, Duration: 1, Class: 4, Position: 64},
					{LineIndex: 0, Index: 2, Start: 3, Duration: 1, Pause: true},
					{LineIndex: 0, Index: 3, Start: 4, Duration: 4, Class: 7, Position: 67},
				},
			},
			{
				ID:       2,
				Measures: [][]float64{{4}, {4}},
				Events: []fragment.Event{
					{LineIndex: 1, Index: 0, Start: 0, Duration: 4, Class: 0, Position: 48},
					{LineIndex: 1, Index: 1, Start: 4, Duration: 4, Class: 9, Position: 57},
				},
			},
		},
	}
}

func testOptions() render.Options {
	opts := render.DefaultOptions()
	opts.LineInstruments = map[int]int{1: 46, 2: 32}

	return opts
}

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.WriteTSV(&buf, renderFragment(t), testOptions()))

	// Rows are ordered by (start, position); the rest scaled by half a
	// second per beat plus one second of opening silence.
	want := "instrument\tstart_time\tduration\tnote\tvelocity\tline_id\n" +
		"32\t1\t2\tC3\t100\t2\n" +
		"46\t1\t1\tC4\t100\t1\n" +
		"46\t2\t0.5\tE4\t100\t1\n" +
		"32\t3\t2\tA3\t100\t2\n" +
		"46\t3\t2\tG4\t100\t1\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteTSV_RejectsBadOptions(t *testing.T) {
	opts := testOptions()
	opts.Velocity = 200

	err := render.WriteTSV(&bytes.Buffer{}, renderFragment(t), opts)
	require.ErrorIs(t, err, render.ErrBadOptions)
}

func TestWriteMIDI(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.WriteMIDI(&buf, renderFragment(t), testOptions()))

	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("MThd")), "standard MIDI header chunk")
	assert.Contains(t, buf.String(), "MTrk", "at least one track chunk")
}

func TestWriteMIDIFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "music.mid")
	require.NoError(t, render.WriteMIDIFile(path, renderFragment(t), testOptions()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("MThd")))
}

func TestWriteContentYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.WriteContentYAML(&buf, renderFragment(t)))

	var got struct {
		Temporal []struct {
			ID           int         `yaml:"id"`
			Measures     [][]float64 `yaml:"measures"`
			PauseIndices []int       `yaml:"pause_indices"`
		} `yaml:"temporal_content"`
		Sonic []struct {
			LineIDs   []int      `yaml:"line_ids"`
			Instances [][]string `yaml:"instances"`
		} `yaml:"sonic_content"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))

	require.Len(t, got.Temporal, 2)
	assert.Equal(t, 1, got.Temporal[0].ID)
	assert.Equal(t, [][]float64{{2, 1, 1}, {4}}, got.Temporal[0].Measures)
	assert.Equal(t, []int{2}, got.Temporal[0].PauseIndices)
	assert.Empty(t, got.Temporal[1].PauseIndices)

	require.Len(t, got.Sonic, 1)
	assert.Equal(t, []int{1, 2}, got.Sonic[0].LineIDs)
	require.Len(t, got.Sonic[0].Instances, 1)
	assert.Equal(t,
		[]string{"B", "A#", "G", "C#", "D#", "C", "D", "A", "F#", "E", "G#", "F"},
		got.Sonic[0].Instances[0])
}

func TestWriteLilypond(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.WriteLilypond(&buf, renderFragment(t)))

	want := "\\version \"2.18.2\"\n" +
		"\\layout {\n" +
		"    indent = #0\n" +
		"}\n" +
		"\\new StaffGroup <<\n" +
		"    \\new Staff <<\n" +
		"        \\clef treble\n" +
		"        \\time 4/4\n" +
		"        \\key c \\major\n" +
		"        {c'2 e'4 r4 g'1}\n" +
		"    >>\n" +
		"    \\new Staff <<\n" +
		"        \\clef bass\n" +
		"        \\time 4/4\n" +
		"        \\key c \\major\n" +
		"        {c1 a1}\n" +
		"    >>\n" +
		">>"
	assert.Equal(t, want, buf.String())
}

func TestWriteLilypond_TiesAcrossBarlines(t *testing.T) {
	f := &fragment.Fragment{
		Meter:     fragment.Meter{Numerator: 4, Denominator: 4},
		NMeasures: 2,
		Lines: []fragment.MelodicLine{{
			ID:       1,
			Measures: [][]float64{{2, 2}, {1, 3}},
			Events: []fragment.Event{
				{Start: 0, Duration: 2, Class: 2, Position: 62},
				// Crosses the barline: spelled as a tied half plus quarter.
				{Start: 2, Duration: 3, Class: 4, Position: 64},
				{Start: 5, Duration: 3, Class: 5, Position: 65},
			},
		}},
	}

	var buf bytes.Buffer
	require.NoError(t, render.WriteLilypond(&buf, f))

	assert.Contains(t, buf.String(), "{d'2 e'2~ e'4 f'2.}")
}

func TestOptions_Validate(t *testing.T) {
	defaults := render.DefaultOptions()
	require.NoError(t, defaults.Validate())

	cases := map[string]func(o *render.Options){
		"zero beat":         func(o *render.Options) { o.BeatInSeconds = 0 },
		"zero velocity":     func(o *render.Options) { o.Velocity = 0 },
		"loud velocity":     func(o *render.Options) { o.Velocity = 128 },
		"negative opening":  func(o *render.Options) { o.OpeningSilence = -1 },
		"negative trailing": func(o *render.Options) { o.TrailingSilence = -0.5 },
		"bad program":       func(o *render.Options) { o.LineInstruments = map[int]int{1: 128} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			opts := render.DefaultOptions()
			mutate(&opts)
			require.ErrorIs(t, opts.Validate(), render.ErrBadOptions)
		})
	}
}
