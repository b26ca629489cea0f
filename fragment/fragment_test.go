package fragment_test

import (
	"math/rand"
	"testing"

	"github.com/katalvlaran/dodecaphony/fragment"
	"github.com/katalvlaran/dodecaphony/tonerow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRow returns the reference row B A# G C# D# C D A F# E G# F.
func testRow(t *testing.T) tonerow.ToneRow {
	t.Helper()
	row, err := tonerow.ParseToneRow([]string{
		"B", "A#", "G", "C#", "D#", "C", "D", "A", "F#", "E", "G#", "F",
	})
	require.NoError(t, err)

	return row
}

// singleLineParams builds a minimal one-group, one-line layout with the
// requested instance count, pause count, and measures.
func singleLineParams(t *testing.T, instances, pauses, measures int) fragment.Params {
	t.Helper()
	specs := make([]fragment.InstanceParams, instances)
	for i := range specs {
		specs[i] = fragment.InstanceParams{SourceGroup: -1, SourceInstance: -1}
	}

	return fragment.Params{
		Row:       testRow(t),
		Meter:     fragment.Meter{Numerator: 4, Denominator: 4},
		NMeasures: measures,
		Lowest:    43, // G2
		Highest:   81, // A5
		Lines: []fragment.LineParams{
			{ID: 1, NPauses: pauses, Lowest: fragment.InheritBound, Highest: fragment.InheritBound},
		},
		Groups: []fragment.GroupParams{
			{LineIndices: []int{0}, Instances: specs},
		},
	}
}

// TestInitialize_RowLayout is the 48-note scenario: one line, four identity
// instances, no pauses. The line must carry exactly 48 notes whose classes,
// in blocks of 12, spell the row verbatim.
func TestInitialize_RowLayout(t *testing.T) {
	p := singleLineParams(t, 4, 0, 12)
	f, err := fragment.Initialize(p, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	line := &f.Lines[0]
	assert.Equal(t, 48, line.EventCount())
	assert.Equal(t, 48, line.NoteCount())
	require.Len(t, line.Events, 48)

	row := testRow(t)
	for i, e := range line.Events {
		assert.False(t, e.Pause)
		assert.Equal(t, row[i%12], e.Class, "event %d", i)
	}

	// Invariant 3 on the side: every measure sums to 4 beats.
	for m, split := range line.Measures {
		sum := 0.0
		for _, d := range split {
			sum += d
		}
		assert.Equal(t, 4.0, sum, "measure %d", m)
		assert.True(t, f.Vocabulary.Contains(split), "measure %d", m)
	}

	assert.NoError(t, f.Validate())
	assert.Equal(t, 48.0, f.TotalBeats())
}

// TestInitialize_Deterministic re-runs the initializer with one seed and
// expects identical fragments.
func TestInitialize_Deterministic(t *testing.T) {
	p := singleLineParams(t, 2, 3, 8)
	f1, err := fragment.Initialize(p, rand.New(rand.NewSource(99)))
	require.NoError(t, err)
	f2, err := fragment.Initialize(p, rand.New(rand.NewSource(99)))
	require.NoError(t, err)

	assert.Equal(t, f1.Lines, f2.Lines)
	assert.Equal(t, f1.Arena, f2.Arena)
}

// TestInitialize_ImmutablePauses pins rests to the opening indices and
// checks the events really rest there.
func TestInitialize_ImmutablePauses(t *testing.T) {
	p := singleLineParams(t, 2, 4, 7)
	p.Lines[0].ImmutablePauseIndices = []int{0, 1}

	f, err := fragment.Initialize(p, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	line := &f.Lines[0]
	assert.Equal(t, 28, line.EventCount(), "24 notes + 4 pauses")
	assert.True(t, line.Events[0].Pause)
	assert.True(t, line.Events[1].Pause)
	assert.True(t, line.IsImmutablePause(0))
	assert.True(t, line.IsImmutablePause(1))
	assert.Len(t, line.PauseIndices, 4)
}

// TestInitialize_DependentInstance declares a second group whose instance
// is a shift-0 transposition of the first group's instance: both lines must
// sound identical class sequences.
func TestInitialize_DependentInstance(t *testing.T) {
	p := fragment.Params{
		Row:       testRow(t),
		Meter:     fragment.Meter{Numerator: 4, Denominator: 4},
		NMeasures: 4,
		Lowest:    43,
		Highest:   81,
		Lines: []fragment.LineParams{
			{ID: 1, Lowest: fragment.InheritBound, Highest: fragment.InheritBound},
			{ID: 2, Lowest: fragment.InheritBound, Highest: fragment.InheritBound},
		},
		Groups: []fragment.GroupParams{
			{
				LineIndices: []int{0},
				Instances:   []fragment.InstanceParams{{SourceGroup: -1, SourceInstance: -1}},
			},
			{
				LineIndices: []int{1},
				Instances: []fragment.InstanceParams{{
					Transform:      tonerow.Transform{Kind: tonerow.Transposition, Shift: 0},
					SourceGroup:    0,
					SourceInstance: 0,
				}},
			},
		},
	}

	f, err := fragment.Initialize(p, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	first := classesOf(f.Lines[0].Events)
	second := classesOf(f.Lines[1].Events)
	assert.Equal(t, first, second, "shift-0 dependent must mirror its source")
	assert.Equal(t, testRow(t).Classes(), first)
}

// TestInitialize_ForwardDependence lets group 0 depend on group 1; the
// topological evaluation order must resolve it.
func TestInitialize_ForwardDependence(t *testing.T) {
	p := fragment.Params{
		Row:       testRow(t),
		Meter:     fragment.Meter{Numerator: 4, Denominator: 4},
		NMeasures: 4,
		Lowest:    43,
		Highest:   81,
		Lines: []fragment.LineParams{
			{ID: 1, Lowest: fragment.InheritBound, Highest: fragment.InheritBound},
			{ID: 2, Lowest: fragment.InheritBound, Highest: fragment.InheritBound},
		},
		Groups: []fragment.GroupParams{
			{
				LineIndices: []int{0},
				Instances: []fragment.InstanceParams{{
					Transform:      tonerow.Transform{Kind: tonerow.Transposition, Shift: 7},
					SourceGroup:    1,
					SourceInstance: 0,
				}},
			},
			{
				LineIndices: []int{1},
				Instances:   []fragment.InstanceParams{{SourceGroup: -1, SourceInstance: -1}},
			},
		},
	}

	f, err := fragment.Initialize(p, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	want, err := tonerow.Apply(testRow(t).Classes(), tonerow.Transform{Kind: tonerow.Transposition, Shift: 7})
	require.NoError(t, err)
	assert.Equal(t, want, classesOf(f.Lines[0].Events))
}

// TestInitialize_CanonGroup puts two lines in one group; each line sounds
// the full instance sequence, with the second line offset by an immutable
// opening rest.
func TestInitialize_CanonGroup(t *testing.T) {
	p := fragment.Params{
		Row:       testRow(t),
		Meter:     fragment.Meter{Numerator: 4, Denominator: 4},
		NMeasures: 4,
		Lowest:    43,
		Highest:   81,
		Lines: []fragment.LineParams{
			{ID: 1, Lowest: fragment.InheritBound, Highest: fragment.InheritBound},
			{ID: 2, NPauses: 1, ImmutablePauseIndices: []int{0}, Lowest: fragment.InheritBound, Highest: fragment.InheritBound},
		},
		Groups: []fragment.GroupParams{
			{LineIndices: []int{0, 1}, Instances: []fragment.InstanceParams{{SourceGroup: -1, SourceInstance: -1}}},
		},
	}

	f, err := fragment.Initialize(p, rand.New(rand.NewSource(11)))
	require.NoError(t, err)

	assert.Equal(t, 12, f.Lines[0].NoteCount())
	assert.Equal(t, 12, f.Lines[1].NoteCount())
	assert.Equal(t, 13, f.Lines[1].EventCount())
	assert.True(t, f.Lines[1].Events[0].Pause, "the canonic offset rest")
	assert.Equal(t, classesOf(f.Lines[0].Events), classesOf(f.Lines[1].Events))
}

// TestSonorities_TileTheFragment checks the windowing: boundaries ascend
// from 0 to TotalBeats, every line contributes one event per window, and
// the contributed event really sounds during the window.
func TestSonorities_TileTheFragment(t *testing.T) {
	p := fragment.Params{
		Row:       testRow(t),
		Meter:     fragment.Meter{Numerator: 4, Denominator: 4},
		NMeasures: 4,
		Lowest:    43,
		Highest:   81,
		Lines: []fragment.LineParams{
			{ID: 1, NPauses: 2, Lowest: fragment.InheritBound, Highest: fragment.InheritBound},
			{ID: 2, NPauses: 4, Lowest: fragment.InheritBound, Highest: fragment.InheritBound},
		},
		Groups: []fragment.GroupParams{
			{LineIndices: []int{0, 1}, Instances: []fragment.InstanceParams{{SourceGroup: -1, SourceInstance: -1}}},
		},
	}

	f, err := fragment.Initialize(p, rand.New(rand.NewSource(21)))
	require.NoError(t, err)
	require.NotEmpty(t, f.Sonorities)

	assert.Equal(t, 0.0, f.Sonorities[0].Start)
	last := f.Sonorities[len(f.Sonorities)-1]
	assert.Equal(t, f.TotalBeats(), last.End)

	for i, s := range f.Sonorities {
		assert.Less(t, s.Start, s.End, "sonority %d window must be non-empty", i)
		if i > 0 {
			assert.Equal(t, f.Sonorities[i-1].End, s.Start, "windows must be contiguous")
		}
		require.Len(t, s.Events, 2)
		for li, e := range s.Events {
			require.NotNil(t, e, "sonority %d line %d", i, li)
			assert.Equal(t, li, e.LineIndex)
			assert.LessOrEqual(t, e.Start, s.Start)
			assert.Greater(t, e.End(), s.Start, "event must still sound at the window start")
		}
	}
}

// TestValidate_CatchesTampering mutates a valid fragment in three distinct
// ways and expects ErrInvariant for each.
func TestValidate_CatchesTampering(t *testing.T) {
	build := func() *fragment.Fragment {
		f, err := fragment.Initialize(singleLineParams(t, 2, 2, 7), rand.New(rand.NewSource(13)))
		require.NoError(t, err)

		return f
	}

	f := build()
	f.Lines[0].Measures[0] = []float64{2.5, 1.5} // right sum, not in the vocabulary
	assert.ErrorIs(t, f.Validate(), fragment.ErrInvariant, "foreign split")

	f = build()
	f.Lines[0].Measures[0] = []float64{2, 1} // wrong sum
	assert.ErrorIs(t, f.Validate(), fragment.ErrInvariant, "short measure")

	f = build()
	f.Lines[0].PauseIndices = f.Lines[0].PauseIndices[:1]
	assert.ErrorIs(t, f.Validate(), fragment.ErrInvariant, "lost pause")

	f = build()
	for i := range f.Lines[0].Events {
		if !f.Lines[0].Events[i].Pause {
			f.Lines[0].Events[i].Class = f.Lines[0].Events[i].Class.Transpose(1)

			break
		}
	}
	assert.ErrorIs(t, f.Validate(), fragment.ErrInvariant, "foreign pitch class")

	f = build()
	f.Arena[1].Classes[3] = f.Arena[1].Classes[3].Transpose(1)
	assert.ErrorIs(t, f.Validate(), fragment.ErrInvariant, "instance classes diverged from events")
}

// TestInitialize_ParamRejections sweeps the staged validation.
func TestInitialize_ParamRejections(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	p := singleLineParams(t, 1, 0, 3)
	p.Row = p.Row[:11]
	_, err := fragment.Initialize(p, rng)
	assert.ErrorIs(t, err, fragment.ErrBadParams, "short row")

	p = singleLineParams(t, 1, 0, 3)
	p.Meter.Denominator = 3
	_, err = fragment.Initialize(p, rng)
	assert.ErrorIs(t, err, fragment.ErrBadParams, "denominator")

	p = singleLineParams(t, 1, 0, 3)
	p.Highest = p.Lowest + 10
	_, err = fragment.Initialize(p, rng)
	assert.ErrorIs(t, err, fragment.ErrBadParams, "narrow register")

	p = singleLineParams(t, 1, 0, 3)
	p.Groups[0].LineIndices = []int{0, 0}
	_, err = fragment.Initialize(p, rng)
	assert.ErrorIs(t, err, fragment.ErrBadParams, "line in two groups")

	p = singleLineParams(t, 1, 0, 3)
	p.Lines = append(p.Lines, fragment.LineParams{ID: 2, Lowest: fragment.InheritBound, Highest: fragment.InheritBound})
	_, err = fragment.Initialize(p, rng)
	assert.ErrorIs(t, err, fragment.ErrBadParams, "orphan line")

	p = singleLineParams(t, 1, 1, 3)
	p.Lines[0].ImmutablePauseIndices = []int{0, 1}
	_, err = fragment.Initialize(p, rng)
	assert.ErrorIs(t, err, fragment.ErrBadParams, "more pins than pauses")

	p = singleLineParams(t, 1, 0, 3)
	p.Groups[0].Instances[0] = fragment.InstanceParams{SourceGroup: 0, SourceInstance: 0}
	_, err = fragment.Initialize(p, rng)
	assert.ErrorIs(t, err, fragment.ErrBadParams, "self dependence")

	p = singleLineParams(t, 1, 0, 3)
	p.Groups[0].Instances[0] = fragment.InstanceParams{SourceGroup: 4, SourceInstance: 0}
	_, err = fragment.Initialize(p, rng)
	assert.ErrorIs(t, err, fragment.ErrBadParams, "unknown source group")

	// 12 notes cannot fill 16 measures at one event minimum each.
	p = singleLineParams(t, 1, 0, 16)
	_, err = fragment.Initialize(p, rng)
	assert.ErrorIs(t, err, fragment.ErrBadParams, "too few events for the measures")
}

// TestInitialize_Randomize draws random inversion/reversion combinations;
// whatever comes out must be one of the four derivations of the row.
func TestInitialize_Randomize(t *testing.T) {
	row := testRow(t)
	admissible := make([][]tonerow.PitchClass, 0, 4)
	for _, k := range []tonerow.TransformKind{
		tonerow.Identity, tonerow.Inversion, tonerow.Reversion, tonerow.RetrogradeInversion,
	} {
		seq, err := tonerow.Apply(row.Classes(), tonerow.Transform{Kind: k})
		require.NoError(t, err)
		admissible = append(admissible, seq)
	}

	for seed := int64(1); seed <= 8; seed++ {
		p := singleLineParams(t, 1, 0, 3)
		p.Groups[0].Instances[0].Randomize = true
		f, err := fragment.Initialize(p, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		assert.Contains(t, admissible, f.Arena[0].Classes, "seed %d", seed)
	}
}

// TestLineBounds_Override pins the one-sided override semantics.
func TestLineBounds_Override(t *testing.T) {
	p := singleLineParams(t, 1, 0, 3)
	p.Lines[0].Lowest = 60
	p.Lines[0].Highest = fragment.InheritBound

	f, err := fragment.Initialize(p, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	lo, hi := f.LineBounds(0)
	assert.Equal(t, tonerow.Position(60), lo)
	assert.Equal(t, tonerow.Position(81), hi)
	for _, e := range f.Lines[0].Events {
		if !e.Pause {
			assert.GreaterOrEqual(t, e.Position, tonerow.Position(60))
			assert.LessOrEqual(t, e.Position, tonerow.Position(81))
		}
	}
}

// TestAssignRegisters_SingleOctave forces an 11-semitone span so every
// class has exactly one candidate position.
func TestAssignRegisters_SingleOctave(t *testing.T) {
	p := singleLineParams(t, 1, 0, 3)
	p.Lowest, p.Highest = 60, 71 // C4..B4

	f, err := fragment.Initialize(p, rand.New(rand.NewSource(17)))
	require.NoError(t, err)

	for _, e := range f.Lines[0].Events {
		assert.Equal(t, tonerow.Position(60+int(e.Class)), e.Position)
	}
}

// classesOf extracts the non-pause classes of an event slice in order.
func classesOf(events []fragment.Event) []tonerow.PitchClass {
	out := make([]tonerow.PitchClass, 0, len(events))
	for _, e := range events {
		if !e.Pause {
			out = append(out, e.Class)
		}
	}

	return out
}
