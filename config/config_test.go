package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/dodecaphony/config"
	"github.com/katalvlaran/dodecaphony/fragment"
	"github.com/katalvlaran/dodecaphony/render"
	"github.com/katalvlaran/dodecaphony/scoring"
	"github.com/katalvlaran/dodecaphony/tonerow"
	"github.com/katalvlaran/dodecaphony/transform"
	"github.com/katalvlaran/dodecaphony/vns"
)

const sampleYAML = `
fragment:
  tone_row: [B, A#, G, C#, D#, C, D, A, F#, E, G#, F]
  meter: {numerator: 4, denominator: 4}
  n_measures: 8
  lowest_note: G2
  highest_note: A5
  durations: [0.5, 1.0, 1.5, 2.0]
  lines:
    - {id: 1, n_pauses: 2, lowest_note: C4, highest_note: A5}
    - {id: 2, n_pauses: 4, immutable_pauses_indices: [0, 1], frozen_rhythm: true}
  groups:
    - line_ids: [1]
      tone_row_instances:
        - {transform: {name: identity}}
        - {transform: {name: transposition, shift: 5}}
        - {transform: {name: rotation, shift: 3}}
    - line_ids: [2]
      randomize: true
      tone_row_instances:
        - {dependence: {group: 0, instance: 0, name: transposition, shift: -1}}
        - {frozen: true}
scoring_sets:
  - name: basic
    functions:
      - name: smoothness_of_voice_leading
        weights: [{x: -1.0, y: -2.0}, {x: 0.0, y: 0.0}]
        params:
          penalty_deduction_per_line: 0.2
          n_semitones_to_penalty: {0: 0.2, 1: 0.0, 2: 0.0, 3: 0.1}
      - name: direction_change_after_large_skip
        params: {min_skip_in_semitones: 7}
      - name: rhythmic_homogeneity
  - name: extra
    functions:
      - name: absence_of_false_octaves
evaluation:
  scoring_sets: [basic]
optimization:
  n_iterations: 10
  n_trials_per_iteration: 16
  beam_width: 3
  max_transposition: 3
  max_rotation: 4
  max_retries_per_trial: 20
  n_processes: 2
  seed: 42
  neighborhoods:
    - n_transformations_per_trial: 1
      probabilities: {pause_shift: 0.5, measure_durations_change: 0.5}
    - n_transformations_per_trial: 2
      probabilities: {line_durations_change: 1.0}
  perturbation:
    n_transformations: 2
    probabilities: {line_durations_change: 1.0}
rendering:
  beat_in_seconds: 0.25
  velocity: 90
  opening_silence_in_seconds: 0
  line_instruments: {1: 46, 2: 32}
`

const minimalYAML = `
fragment:
  tone_row: [C, C#, D, D#, E, F, F#, G, G#, A, A#, B]
  meter: {numerator: 4, denominator: 4}
  n_measures: 2
  lowest_note: C3
  highest_note: C6
  lines:
    - {id: 1}
  groups:
    - line_ids: [1]
      tone_row_instances:
        - {}
scoring_sets:
  - name: first
    functions:
      - name: rhythmic_homogeneity
  - name: second
    functions:
      - name: absence_of_false_octaves
`

func sampleConfig(t *testing.T) *config.Config {
	t.Helper()

	c, err := config.Parse([]byte(sampleYAML))
	require.NoError(t, err)

	return c
}

// paramsNode parses a YAML snippet into the raw node form a params block
// would decode to.
func paramsNode(s string) yaml.Node {
	var n yaml.Node
	if err := yaml.Unmarshal([]byte(s), &n); err != nil {
		panic(err)
	}
	if n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		return *n.Content[0]
	}

	return n
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Fragment.Lines, 2)

	_, err = config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := config.Parse([]byte("fragment:\n  tone_raw: [C]\n"))
	require.ErrorIs(t, err, config.ErrConfiguration)

	_, err = config.Parse([]byte(""))
	require.ErrorIs(t, err, config.ErrConfiguration)
}

func TestBuild_Fragment(t *testing.T) {
	compiled, err := sampleConfig(t).Build()
	require.NoError(t, err)

	p := compiled.Fragment
	assert.Equal(t, "B A# G C# D# C D A F# E G# F", p.Row.String())
	assert.Equal(t, fragment.Meter{Numerator: 4, Denominator: 4}, p.Meter)
	assert.Equal(t, 8, p.NMeasures)
	assert.Equal(t, tonerow.Position(43), p.Lowest)
	assert.Equal(t, tonerow.Position(81), p.Highest)
	assert.Equal(t, []float64{0.5, 1.0, 1.5, 2.0}, p.Durations)

	require.Len(t, p.Lines, 2)
	assert.Equal(t, fragment.LineParams{
		ID: 1, NPauses: 2,
		Lowest: 60, Highest: 81,
	}, p.Lines[0])
	assert.Equal(t, fragment.LineParams{
		ID: 2, NPauses: 4,
		ImmutablePauseIndices: []int{0, 1},
		Lowest:                fragment.InheritBound,
		Highest:               fragment.InheritBound,
		FrozenRhythm:          true,
	}, p.Lines[1])

	require.Len(t, p.Groups, 2)
	assert.Equal(t, []int{0}, p.Groups[0].LineIndices)
	require.Len(t, p.Groups[0].Instances, 3)
	assert.Equal(t, fragment.InstanceParams{
		SourceGroup: -1, SourceInstance: -1,
	}, p.Groups[0].Instances[0])
	assert.Equal(t, tonerow.Transform{Kind: tonerow.Transposition, Shift: 5},
		p.Groups[0].Instances[1].Transform)
	// The "rotation" spelling lands in the rotation slot.
	assert.Equal(t, tonerow.Transform{Kind: tonerow.Identity, Rotation: 3},
		p.Groups[0].Instances[2].Transform)

	assert.Equal(t, []int{1}, p.Groups[1].LineIndices)
	require.Len(t, p.Groups[1].Instances, 2)
	dep := p.Groups[1].Instances[0]
	assert.Equal(t, 0, dep.SourceGroup)
	assert.Equal(t, 0, dep.SourceInstance)
	assert.Equal(t, tonerow.Transform{Kind: tonerow.Transposition, Shift: -1}, dep.Transform)
	assert.False(t, dep.Randomize, "dependent instances are never randomized")
	free := p.Groups[1].Instances[1]
	assert.True(t, free.Frozen)
	assert.True(t, free.Randomize, "group-level randomize reaches unspecified instances")
	assert.Equal(t, -1, free.SourceGroup)
}

func TestBuild_Scoring(t *testing.T) {
	compiled, err := sampleConfig(t).Build()
	require.NoError(t, err)

	require.Len(t, compiled.Sets, 1, "only the active set is compiled in")
	set := compiled.Sets[0]
	assert.Equal(t, "basic", set.Name)
	require.Len(t, set.Members, 3)

	smooth := set.Members[0]
	assert.Equal(t, "smoothness_of_voice_leading", smooth.Name)
	require.NotNil(t, smooth.Fn)
	assert.Equal(t, scoring.Curve{{X: -1, Y: -2}, {X: 0, Y: 0}}, smooth.Curve)
	require.IsType(t, &scoring.VoiceLeadingSmoothnessParams{}, smooth.Params)
	sp := smooth.Params.(*scoring.VoiceLeadingSmoothnessParams)
	assert.Equal(t, 0.2, sp.Deduction)
	assert.Equal(t, map[int]float64{0: 0.2, 1: 0, 2: 0, 3: 0.1}, sp.Penalties)

	// Partial params decode over the prototype, keeping its defaults.
	direction := set.Members[1]
	require.IsType(t, &scoring.DirectionChangeParams{}, direction.Params)
	dp := direction.Params.(*scoring.DirectionChangeParams)
	assert.Equal(t, 7, dp.MinSkip)
	assert.Equal(t, 2, dp.MaxOppositeMove)
	assert.Equal(t, 0.8, dp.LargeOppositePenalty)

	assert.Empty(t, set.Members[2].Curve, "omitted weights mean the identity curve")
}

func TestBuild_SearchAndRender(t *testing.T) {
	compiled, err := sampleConfig(t).Build()
	require.NoError(t, err)

	s := compiled.Search
	assert.Equal(t, 10, s.NIterations)
	assert.Equal(t, 16, s.NTrialsPerIteration)
	assert.Equal(t, 3, s.BeamWidth)
	assert.Equal(t, 20, s.MaxRetriesPerTrial)
	assert.Equal(t, 2, s.Workers)
	assert.Equal(t, int64(42), s.Seed)
	assert.Equal(t, transform.Options{MaxTransposition: 3, MaxRotation: 4}, s.Transform)
	require.Len(t, s.Neighborhoods, 2)
	assert.Equal(t, vns.Neighborhood{
		NTransformations: 1,
		Probabilities:    map[string]float64{"pause_shift": 0.5, "measure_durations_change": 0.5},
	}, s.Neighborhoods[0])
	assert.Equal(t, vns.Perturbation{
		NTransformations: 2,
		Probabilities:    map[string]float64{"line_durations_change": 1},
	}, s.Perturbation)

	r := compiled.Render
	assert.Equal(t, 0.25, r.BeatInSeconds)
	assert.Equal(t, 90, r.Velocity)
	assert.Zero(t, r.OpeningSilence, "explicit zero beats the default")
	assert.Equal(t, 1.0, r.TrailingSilence, "omitted field keeps the default")
	assert.Equal(t, map[int]int{1: 46, 2: 32}, r.LineInstruments)
}

func TestBuild_DefaultsAndActiveSets(t *testing.T) {
	c, err := config.Parse([]byte(minimalYAML))
	require.NoError(t, err)
	compiled, err := c.Build()
	require.NoError(t, err)

	assert.Equal(t, vns.DefaultOptions(), compiled.Search)
	assert.Equal(t, render.DefaultOptions(), compiled.Render)

	// No evaluation block: every defined set is active, in order.
	require.Len(t, compiled.Sets, 2)
	assert.Equal(t, "first", compiled.Sets[0].Name)
	assert.Equal(t, "second", compiled.Sets[1].Name)
}

func TestBuild_EmptyPerturbationDisables(t *testing.T) {
	c, err := config.Parse([]byte(minimalYAML + "optimization:\n  perturbation: {}\n"))
	require.NoError(t, err)
	compiled, err := c.Build()
	require.NoError(t, err)

	assert.Equal(t, vns.Perturbation{}, compiled.Search.Perturbation)
}

func TestBuild_Errors(t *testing.T) {
	cases := map[string]struct {
		mutate  func(c *config.Config)
		wantErr error
	}{
		"unknown scoring function": {
			mutate:  func(c *config.Config) { c.ScoringSets[0].Functions[0].Name = "glissando" },
			wantErr: scoring.ErrUnknownFunction,
		},
		"malformed curve": {
			mutate: func(c *config.Config) {
				c.ScoringSets[0].Functions[0].Weights = []scoring.ControlPoint{{X: 1}, {X: 1}}
			},
			wantErr: scoring.ErrBadParams,
		},
		"params out of range": {
			mutate: func(c *config.Config) {
				c.ScoringSets[0].Functions[0].Params = paramsNode("penalty_deduction_per_line: 1.5")
			},
			wantErr: scoring.ErrBadParams,
		},
		"params type mismatch": {
			mutate: func(c *config.Config) {
				c.ScoringSets[0].Functions[0].Params = paramsNode("penalty_deduction_per_line: [oops]")
			},
			wantErr: scoring.ErrBadParams,
		},
		"transform and dependence": {
			mutate: func(c *config.Config) {
				c.Fragment.Groups[1].ToneRowInstances[0].Transform = &config.TransformConfig{Name: "identity"}
			},
			wantErr: config.ErrConfiguration,
		},
		"unknown transform name": {
			mutate: func(c *config.Config) {
				c.Fragment.Groups[0].ToneRowInstances[0].Transform.Name = "glide"
			},
			wantErr: tonerow.ErrBadTransform,
		},
		"rotation given twice": {
			mutate: func(c *config.Config) {
				c.Fragment.Groups[0].ToneRowInstances[2].Transform.Rotation = 1
			},
			wantErr: config.ErrConfiguration,
		},
		"duplicate line id": {
			mutate:  func(c *config.Config) { c.Fragment.Lines[1].ID = 1 },
			wantErr: config.ErrConfiguration,
		},
		"unknown group line id": {
			mutate:  func(c *config.Config) { c.Fragment.Groups[0].LineIDs = []int{9} },
			wantErr: config.ErrConfiguration,
		},
		"short tone row": {
			mutate:  func(c *config.Config) { c.Fragment.ToneRow = c.Fragment.ToneRow[:11] },
			wantErr: tonerow.ErrBadRow,
		},
		"duplicate set name": {
			mutate:  func(c *config.Config) { c.ScoringSets[1].Name = "basic" },
			wantErr: config.ErrConfiguration,
		},
		"unknown active set": {
			mutate:  func(c *config.Config) { c.Evaluation.ScoringSets = []string{"nope"} },
			wantErr: config.ErrConfiguration,
		},
		"negative iterations": {
			mutate:  func(c *config.Config) { c.Optimization.NIterations = -1 },
			wantErr: vns.ErrBadOptions,
		},
		"transposition bound too large": {
			mutate:  func(c *config.Config) { c.Optimization.MaxTransposition = 30 },
			wantErr: transform.ErrBadOptions,
		},
		"velocity out of range": {
			mutate:  func(c *config.Config) { c.Rendering.Velocity = 300 },
			wantErr: render.ErrBadOptions,
		},
		"unknown instrument line id": {
			mutate:  func(c *config.Config) { c.Rendering.LineInstruments = map[int]int{9: 5} },
			wantErr: config.ErrConfiguration,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := sampleConfig(t)
			tc.mutate(c)

			_, err := c.Build()
			require.ErrorIs(t, err, tc.wantErr)
			assert.ErrorIs(t, err, config.ErrConfiguration,
				"every build error carries the configuration sentinel")
		})
	}
}
