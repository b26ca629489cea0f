package scoring_test

import (
	"testing"

	"github.com/katalvlaran/dodecaphony/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Roster(t *testing.T) {
	reg := scoring.NewRegistry()
	names := reg.Names()
	assert.Len(t, names, 27)
	assert.IsIncreasing(t, names)

	for _, name := range []string{
		"absence_of_aimless_fluctuations",
		"climax_explicity",
		"direction_change_after_large_skip",
		"smoothness_of_voice_leading",
		"pitch_class_prominence",
		"local_diatonicity_at_line_level",
		"presence_of_intervallic_motif",
		"stackability",
		"transitions",
		"absence_of_doubled_pitch_classes",
		"absence_of_false_octaves",
		"absence_of_simultaneous_skips",
		"absence_of_voice_crossing",
		"dissonances_preparation_and_resolution",
		"harmony_dynamic_by_positions",
		"harmony_dynamic_by_time_intervals",
		"local_diatonicity_at_all_lines_level",
		"motion_to_perfect_consonances",
		"movement_to_final_sonority",
		"pitch_class_distribution_among_lines",
		"presence_of_vertical_intervals",
		"sonic_intensity",
		"cadence_duration",
		"rhythmic_consistency",
		"rhythmic_homogeneity",
		"presence_of_required_pauses",
		"rhythmic_intensity",
	} {
		fn, err := reg.Lookup(name)
		require.NoError(t, err, name)
		assert.NotNil(t, fn, name)

		params, err := reg.NewParams(name)
		require.NoError(t, err, name)
		assert.NotNil(t, params, name)
	}
}

func TestRegistry_UnknownName(t *testing.T) {
	reg := scoring.NewRegistry()

	_, err := reg.Lookup("perfect_taste")
	assert.ErrorIs(t, err, scoring.ErrUnknownFunction)

	_, err = reg.NewParams("perfect_taste")
	assert.ErrorIs(t, err, scoring.ErrUnknownFunction)
}

func TestRegistry_PrototypeDefaults(t *testing.T) {
	reg := scoring.NewRegistry()

	params, err := reg.NewParams("direction_change_after_large_skip")
	require.NoError(t, err)
	dc, ok := params.(*scoring.DirectionChangeParams)
	require.True(t, ok)
	assert.Equal(t, 5, dc.MinSkip)
	assert.Equal(t, 2, dc.MaxOppositeMove)
	assert.InDelta(t, 0.8, dc.LargeOppositePenalty, 1e-9)

	params, err = reg.NewParams("absence_of_simultaneous_skips")
	require.NoError(t, err)
	sk, ok := params.(*scoring.SimultaneousSkipsParams)
	require.True(t, ok)
	assert.Equal(t, 4, sk.MinSkip)
	assert.InDelta(t, 0.65, sk.MaxShare, 1e-9)

	params, err = reg.NewParams("rhythmic_intensity")
	require.NoError(t, err)
	ri, ok := params.(*scoring.RhythmicIntensityParams)
	require.True(t, ok)
	assert.InDelta(t, 1.0, ri.MaxIntensityFactor, 1e-9)

	params, err = reg.NewParams("presence_of_intervallic_motif")
	require.NoError(t, err)
	motif, ok := params.(*scoring.IntervallicMotifParams)
	require.True(t, ok)
	assert.True(t, motif.Inversion)
	assert.True(t, motif.Reversion)
	assert.False(t, motif.Elision)
}

func TestRegistry_PrototypesAreFresh(t *testing.T) {
	reg := scoring.NewRegistry()

	first, err := reg.NewParams("local_diatonicity_at_line_level")
	require.NoError(t, err)
	first.(*scoring.LineDiatonicityParams).Depth = 3

	second, err := reg.NewParams("local_diatonicity_at_line_level")
	require.NoError(t, err)
	assert.Equal(t, 7, second.(*scoring.LineDiatonicityParams).Depth,
		"mutating one prototype must not leak into the next")
}

func TestRegistry_WrongParameterType(t *testing.T) {
	reg := scoring.NewRegistry()
	fn, err := reg.Lookup("stackability")
	require.NoError(t, err)

	f := buildFragment(t, meter44, 1, []evt{{4, 60}})
	_, err = fn(f, &scoring.CadenceDurationParams{})
	assert.ErrorIs(t, err, scoring.ErrBadParams)
}
