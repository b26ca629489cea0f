// Package config - the YAML schema and its decoder.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/dodecaphony/scoring"
)

// ErrConfiguration reports a structurally invalid run configuration. Every
// error returned by this package wraps it.
var ErrConfiguration = errors.New("config: invalid configuration")

// Config is the decoded form of a run configuration file. Field semantics
// follow the packages the sections compile into; see Build.
type Config struct {
	Fragment     FragmentConfig     `yaml:"fragment"`
	ScoringSets  []ScoringSetConfig `yaml:"scoring_sets"`
	Evaluation   EvaluationConfig   `yaml:"evaluation"`
	Optimization OptimizationConfig `yaml:"optimization"`
	Rendering    RenderingConfig    `yaml:"rendering"`
}

// MeterConfig is a time signature.
type MeterConfig struct {
	Numerator   int `yaml:"numerator"`
	Denominator int `yaml:"denominator"`
}

// LineConfig declares one melodic line. Register bounds are note names
// ("G2"); an empty bound inherits the fragment-level one.
type LineConfig struct {
	ID                     int    `yaml:"id"`
	NPauses                int    `yaml:"n_pauses"`
	ImmutablePausesIndices []int  `yaml:"immutable_pauses_indices"`
	LowestNote             string `yaml:"lowest_note"`
	HighestNote            string `yaml:"highest_note"`
	FrozenRhythm           bool   `yaml:"frozen_rhythm"`
}

// TransformConfig names a tone-row derivation. The name "rotation" moves
// the shift amount into the rotation slot; any other name may combine with
// an explicit rotation.
type TransformConfig struct {
	Name     string `yaml:"name"`
	Shift    int    `yaml:"shift"`
	Rotation int    `yaml:"rotation"`
}

// DependenceConfig derives an instance from another group's instance.
type DependenceConfig struct {
	Group    int    `yaml:"group"`
	Instance int    `yaml:"instance"`
	Name     string `yaml:"name"`
	Shift    int    `yaml:"shift"`
	Rotation int    `yaml:"rotation"`
}

// InstanceConfig declares one tone-row instance. Transform and Dependence
// are mutually exclusive; an empty instance is an independent identity
// copy of the row (randomized when its group says so).
type InstanceConfig struct {
	Transform  *TransformConfig  `yaml:"transform"`
	Dependence *DependenceConfig `yaml:"dependence"`
	Frozen     bool              `yaml:"frozen"`
}

// GroupConfig declares one group of lines sharing a row-instance sequence.
type GroupConfig struct {
	LineIDs          []int            `yaml:"line_ids"`
	Randomize        bool             `yaml:"randomize"`
	ToneRowInstances []InstanceConfig `yaml:"tone_row_instances"`
}

// FragmentConfig declares the fragment layout.
type FragmentConfig struct {
	ToneRow       []string      `yaml:"tone_row"`
	Meter         MeterConfig   `yaml:"meter"`
	NMeasures     int           `yaml:"n_measures"`
	LowestNote    string        `yaml:"lowest_note"`
	HighestNote   string        `yaml:"highest_note"`
	Durations     []float64     `yaml:"durations"`
	MeasureSplits [][]float64   `yaml:"measure_splits"`
	MaxRetries    int           `yaml:"max_retries"`
	Lines         []LineConfig  `yaml:"lines"`
	Groups        []GroupConfig `yaml:"groups"`
}

// FunctionConfig configures one scoring function of a set. Params is kept
// as a raw node and decoded over the registry prototype by Build, so
// omitted knobs keep their documented defaults.
type FunctionConfig struct {
	Name    string                 `yaml:"name"`
	Weights []scoring.ControlPoint `yaml:"weights"`
	Params  yaml.Node              `yaml:"params"`
}

// ScoringSetConfig is one named scoring set.
type ScoringSetConfig struct {
	Name      string           `yaml:"name"`
	Functions []FunctionConfig `yaml:"functions"`
}

// EvaluationConfig selects the active scoring sets; empty selects all of
// them in definition order.
type EvaluationConfig struct {
	ScoringSets []string `yaml:"scoring_sets"`
}

// NeighborhoodConfig is one rung of the search ladder.
type NeighborhoodConfig struct {
	NTransformationsPerTrial int                `yaml:"n_transformations_per_trial"`
	Probabilities            map[string]float64 `yaml:"probabilities"`
}

// PerturbationConfig configures the stall response. Declaring the key with
// an empty body disables perturbation; omitting it keeps the default.
type PerturbationConfig struct {
	NTransformations int                `yaml:"n_transformations"`
	Probabilities    map[string]float64 `yaml:"probabilities"`
}

// OptimizationConfig overrides search defaults; zero fields keep them.
type OptimizationConfig struct {
	NIterations         int                  `yaml:"n_iterations"`
	NTrialsPerIteration int                  `yaml:"n_trials_per_iteration"`
	BeamWidth           int                  `yaml:"beam_width"`
	MaxTransposition    int                  `yaml:"max_transposition"`
	MaxRotation         int                  `yaml:"max_rotation"`
	MaxRetriesPerTrial  int                  `yaml:"max_retries_per_trial"`
	NProcesses          int                  `yaml:"n_processes"`
	Seed                int64                `yaml:"seed"`
	Neighborhoods       []NeighborhoodConfig `yaml:"neighborhoods"`
	Perturbation        *PerturbationConfig  `yaml:"perturbation"`
}

// RenderingConfig overrides rendering defaults. The silences are pointers
// because an explicit zero is meaningful there.
type RenderingConfig struct {
	BeatInSeconds   float64     `yaml:"beat_in_seconds"`
	Velocity        int         `yaml:"velocity"`
	OpeningSilence  *float64    `yaml:"opening_silence_in_seconds"`
	TrailingSilence *float64    `yaml:"trailing_silence_in_seconds"`
	LineInstruments map[int]int `yaml:"line_instruments"`
}

// Load reads and decodes the configuration file at path.
//
// Errors: ErrConfiguration on malformed YAML or unknown keys, or the read
// error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes one YAML document into a Config. Unknown keys are
// rejected, so typos fail loudly instead of silently keeping defaults.
//
// Errors: ErrConfiguration.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Config
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return &c, nil
}
