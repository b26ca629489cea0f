package tonerow_test

import (
	"testing"

	"github.com/katalvlaran/dodecaphony/tonerow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceRowNames is the worked tone row used throughout the tests:
// B A# G C# D# C D A F# E G# F.
var referenceRowNames = []string{"B", "A#", "G", "C#", "D#", "C", "D", "A", "F#", "E", "G#", "F"}

// referenceRow returns the parsed reference row, failing the test on error.
func referenceRow(t *testing.T) tonerow.ToneRow {
	t.Helper()
	row, err := tonerow.ParseToneRow(referenceRowNames)
	require.NoError(t, err)

	return row
}

// TestParseToneRow_Reference checks the numeric classes of the reference row.
func TestParseToneRow_Reference(t *testing.T) {
	row := referenceRow(t)
	want := []tonerow.PitchClass{11, 10, 7, 1, 3, 0, 2, 9, 6, 4, 8, 5}
	assert.Equal(t, want, row.Classes())
	assert.Equal(t, "B A# G C# D# C D A F# E G# F", row.String())
}

// TestNewToneRow_Rejections covers length, range, and duplicate violations.
func TestNewToneRow_Rejections(t *testing.T) {
	_, err := tonerow.NewToneRow([]tonerow.PitchClass{0, 1, 2})
	assert.ErrorIs(t, err, tonerow.ErrBadRow, "short row")

	classes := []tonerow.PitchClass{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 10}
	_, err = tonerow.NewToneRow(classes)
	assert.ErrorIs(t, err, tonerow.ErrBadRow, "duplicate class")

	classes[11] = 12
	_, err = tonerow.NewToneRow(classes)
	assert.ErrorIs(t, err, tonerow.ErrBadRow, "class out of range")

	_, err = tonerow.ParseToneRow([]string{"C"})
	assert.ErrorIs(t, err, tonerow.ErrBadRow, "wrong name count")
}

// TestApply_Kinds pins the exact output of every transform kind on the
// reference row.
func TestApply_Kinds(t *testing.T) {
	row := referenceRow(t).Classes()

	cases := []struct {
		name string
		tr   tonerow.Transform
		want []tonerow.PitchClass
	}{
		{
			name: "identity",
			tr:   tonerow.Transform{Kind: tonerow.Identity},
			want: []tonerow.PitchClass{11, 10, 7, 1, 3, 0, 2, 9, 6, 4, 8, 5},
		},
		{
			name: "transposition+5",
			tr:   tonerow.Transform{Kind: tonerow.Transposition, Shift: 5},
			want: []tonerow.PitchClass{4, 3, 0, 6, 8, 5, 7, 2, 11, 9, 1, 10},
		},
		{
			name: "inversion",
			tr:   tonerow.Transform{Kind: tonerow.Inversion},
			want: []tonerow.PitchClass{11, 0, 3, 9, 7, 10, 8, 1, 4, 6, 2, 5},
		},
		{
			name: "reversion",
			tr:   tonerow.Transform{Kind: tonerow.Reversion},
			want: []tonerow.PitchClass{5, 8, 4, 6, 9, 2, 0, 3, 1, 7, 10, 11},
		},
		{
			name: "retrograde_inversion",
			tr:   tonerow.Transform{Kind: tonerow.RetrogradeInversion},
			want: []tonerow.PitchClass{5, 2, 6, 4, 1, 8, 10, 7, 9, 3, 0, 11},
		},
		{
			name: "rotation3",
			tr:   tonerow.Transform{Kind: tonerow.Identity, Rotation: 3},
			want: []tonerow.PitchClass{1, 3, 0, 2, 9, 6, 4, 8, 5, 11, 10, 7},
		},
		{
			name: "rotation3_then_transposition+2",
			tr:   tonerow.Transform{Kind: tonerow.Transposition, Shift: 2, Rotation: 3},
			want: []tonerow.PitchClass{3, 5, 2, 4, 11, 8, 6, 10, 7, 1, 0, 9},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tonerow.Apply(row, tc.tr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			// The input must never be mutated.
			assert.Equal(t, referenceRow(t).Classes(), row)
		})
	}
}

// TestApply_RoundTrips exercises the self-inverse identities: transposition
// by s then -s, reversion twice, inversion twice, rotation by k then 12-k.
func TestApply_RoundTrips(t *testing.T) {
	row := referenceRow(t).Classes()

	for s := 1; s < 12; s++ {
		up, err := tonerow.Apply(row, tonerow.Transform{Kind: tonerow.Transposition, Shift: s})
		require.NoError(t, err)
		back, err := tonerow.Apply(up, tonerow.Transform{Kind: tonerow.Transposition, Shift: -s})
		require.NoError(t, err)
		assert.Equal(t, row, back, "transposition shift %d", s)
	}

	rev, err := tonerow.Apply(row, tonerow.Transform{Kind: tonerow.Reversion})
	require.NoError(t, err)
	back, err := tonerow.Apply(rev, tonerow.Transform{Kind: tonerow.Reversion})
	require.NoError(t, err)
	assert.Equal(t, row, back, "reversion twice")

	inv, err := tonerow.Apply(row, tonerow.Transform{Kind: tonerow.Inversion})
	require.NoError(t, err)
	back, err = tonerow.Apply(inv, tonerow.Transform{Kind: tonerow.Inversion})
	require.NoError(t, err)
	assert.Equal(t, row, back, "inversion twice")

	for k := 1; k < 12; k++ {
		rot, rotErr := tonerow.Apply(row, tonerow.Transform{Rotation: k})
		require.NoError(t, rotErr)
		back, rotErr = tonerow.Apply(rot, tonerow.Transform{Rotation: 12 - k})
		require.NoError(t, rotErr)
		assert.Equal(t, row, back, "rotation %d", k)
	}
}

// TestApply_PreservesDistinctness verifies that every kind yields a valid
// tone row again.
func TestApply_PreservesDistinctness(t *testing.T) {
	row := referenceRow(t).Classes()
	kinds := []tonerow.Transform{
		{Kind: tonerow.Transposition, Shift: 7, Rotation: 5},
		{Kind: tonerow.Inversion, Rotation: 1},
		{Kind: tonerow.Reversion, Rotation: 11},
		{Kind: tonerow.RetrogradeInversion, Shift: 3},
	}
	for _, tr := range kinds {
		got, err := tonerow.Apply(row, tr)
		require.NoError(t, err)
		_, err = tonerow.NewToneRow(got)
		assert.NoError(t, err, "transform %s must keep classes distinct", tr)
	}
}

// TestApply_BadLength rejects sequences that are not 12 classes long.
func TestApply_BadLength(t *testing.T) {
	_, err := tonerow.Apply([]tonerow.PitchClass{0, 1, 2}, tonerow.Transform{})
	assert.ErrorIs(t, err, tonerow.ErrBadTransform)
}

// TestParseTransformKind covers spellings, the rotation alias, and unknown
// names.
func TestParseTransformKind(t *testing.T) {
	cases := map[string]tonerow.TransformKind{
		"identity":             tonerow.Identity,
		"transposition":        tonerow.Transposition,
		"inversion":            tonerow.Inversion,
		"reversion":            tonerow.Reversion,
		"retrograde_inversion": tonerow.RetrogradeInversion,
		"rotation":             tonerow.Identity,
		"  Inversion ":         tonerow.Inversion,
	}
	for in, want := range cases {
		got, err := tonerow.ParseTransformKind(in)
		require.NoError(t, err, "spelling %q", in)
		assert.Equal(t, want, got, "spelling %q", in)
	}

	_, err := tonerow.ParseTransformKind("augmentation")
	assert.ErrorIs(t, err, tonerow.ErrBadTransform)
}

// TestTransform_IsIdentity distinguishes true no-ops from effective
// transforms.
func TestTransform_IsIdentity(t *testing.T) {
	assert.True(t, tonerow.Transform{}.IsIdentity())
	assert.True(t, tonerow.Transform{Kind: tonerow.Transposition, Shift: 12}.IsIdentity())
	assert.True(t, tonerow.Transform{Rotation: 12}.IsIdentity())
	assert.False(t, tonerow.Transform{Rotation: 1}.IsIdentity())
	assert.False(t, tonerow.Transform{Kind: tonerow.Reversion}.IsIdentity())
	assert.False(t, tonerow.Transform{Kind: tonerow.Transposition, Shift: 5}.IsIdentity())
}
