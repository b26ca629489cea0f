// Package vns - options, results, and sentinel errors.
package vns

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/dodecaphony/fragment"
	"github.com/katalvlaran/dodecaphony/scoring"
	"github.com/katalvlaran/dodecaphony/transform"
)

// ErrBadOptions is returned when Options fail validation. Distribution
// errors detected while building samplers keep their transform-package
// sentinels.
var ErrBadOptions = errors.New("vns: invalid options")

// Neighborhood is one rung of the search ladder: how many transformations a
// trial applies and the distribution they are drawn from. Rungs are tried
// in declared order, so configurations list them from the gentlest edit to
// the strongest.
type Neighborhood struct {
	// NTransformations is the number of transformations applied per trial.
	NTransformations int

	// Probabilities maps transformation names to their draw probabilities.
	// The table must sum to one; names are validated against the
	// transformation registry when the search starts.
	Probabilities map[string]float64
}

// Perturbation shakes a stalled beam member: after an outer iteration with
// no insertion at all, NTransformations draws from Probabilities are
// applied to a random member other than the current best, which is then
// re-scored in place. The zero value disables perturbation.
type Perturbation struct {
	NTransformations int
	Probabilities    map[string]float64
}

// enabled reports whether the perturbation was configured at all.
func (p Perturbation) enabled() bool {
	return p.NTransformations != 0 || len(p.Probabilities) != 0
}

// Options configure one optimization run.
//
// Usage:
//
//	opts := vns.DefaultOptions()
//	opts.Seed = 42
//	res, err := vns.Optimize(ctx, frag, sets, opts)
type Options struct {
	// NIterations is the outer iteration budget. Must be at least 1.
	NIterations int

	// NTrialsPerIteration is the number of trials generated per
	// neighborhood step. Must be at least 1.
	NTrialsPerIteration int

	// BeamWidth is the number of incumbent solutions kept. Must be at
	// least 1.
	BeamWidth int

	// MaxRetriesPerTrial caps redraws after structural dead ends within a
	// single trial; a trial that exceeds it is recorded as failed. Must
	// not be negative.
	MaxRetriesPerTrial int

	// Workers bounds the number of concurrently evaluated trials;
	// 0 selects runtime.NumCPU().
	Workers int

	// Seed is the base seed of the run; 0 selects a fixed default. Every
	// per-trial RNG is derived from it deterministically.
	Seed int64

	// Transform bounds the random parameter draws of the pitch
	// transformations (maximum transposition shift and rotation offset).
	Transform transform.Options

	// Neighborhoods is the ordered search ladder. Must not be empty.
	Neighborhoods []Neighborhood

	// Perturbation is applied after a fully stalled iteration. It never
	// fires when BeamWidth is 1, because the sole member is the best.
	Perturbation Perturbation

	// Logger receives iteration-level INFO and step-level DEBUG records;
	// nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns a small but complete configuration: a single
// uniform neighborhood over every registered transformation and a full
// line-durations resample as the perturbation. Real runs configure their
// own ladder.
func DefaultOptions() Options {
	uniform := map[string]float64{
		transform.NameInversion:                 1.0 / 9,
		transform.NameReversion:                 1.0 / 9,
		transform.NameRotation:                  1.0 / 9,
		transform.NameTransposition:             1.0 / 9,
		transform.NameMeasureDurationsChange:    1.0 / 9,
		transform.NameLineDurationsChange:       1.0 / 9,
		transform.NameCrossmeasureEventTransfer: 1.0 / 9,
		transform.NamePauseShift:                1.0 / 9,
		transform.NamePauseSwap:                 1.0 / 9,
	}

	return Options{
		NIterations:         100,
		NTrialsPerIteration: 64,
		BeamWidth:           5,
		MaxRetriesPerTrial:  10,
		Transform:           transform.DefaultOptions(),
		Neighborhoods:       []Neighborhood{{NTransformations: 1, Probabilities: uniform}},
		Perturbation: Perturbation{
			NTransformations: 1,
			Probabilities:    map[string]float64{transform.NameLineDurationsChange: 1},
		},
	}
}

// Validate checks the structural option ranges. Probability tables are
// only checked for presence here; their contents are validated against the
// transformation registry when the run starts.
//
// Errors: ErrBadOptions, transform.ErrBadOptions.
func (o *Options) Validate() error {
	if o.NIterations < 1 {
		return fmt.Errorf("%w: NIterations %d, want at least 1", ErrBadOptions, o.NIterations)
	}
	if o.NTrialsPerIteration < 1 {
		return fmt.Errorf("%w: NTrialsPerIteration %d, want at least 1", ErrBadOptions, o.NTrialsPerIteration)
	}
	if o.BeamWidth < 1 {
		return fmt.Errorf("%w: BeamWidth %d, want at least 1", ErrBadOptions, o.BeamWidth)
	}
	if o.MaxRetriesPerTrial < 0 {
		return fmt.Errorf("%w: MaxRetriesPerTrial %d, want non-negative", ErrBadOptions, o.MaxRetriesPerTrial)
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: Workers %d, want non-negative", ErrBadOptions, o.Workers)
	}
	if err := o.Transform.Validate(); err != nil {
		return err
	}
	if len(o.Neighborhoods) == 0 {
		return fmt.Errorf("%w: no neighborhoods", ErrBadOptions)
	}
	for i, n := range o.Neighborhoods {
		if n.NTransformations < 1 {
			return fmt.Errorf("%w: neighborhood %d: NTransformations %d, want at least 1",
				ErrBadOptions, i, n.NTransformations)
		}
		if len(n.Probabilities) == 0 {
			return fmt.Errorf("%w: neighborhood %d: empty probability table", ErrBadOptions, i)
		}
	}
	if o.Perturbation.enabled() {
		if o.Perturbation.NTransformations < 1 {
			return fmt.Errorf("%w: perturbation: NTransformations %d, want at least 1",
				ErrBadOptions, o.Perturbation.NTransformations)
		}
		if len(o.Perturbation.Probabilities) == 0 {
			return fmt.Errorf("%w: perturbation: empty probability table", ErrBadOptions)
		}
	}

	return nil
}

// ScoredFragment is one beam member at the end of a run.
type ScoredFragment struct {
	Fragment *fragment.Fragment
	Score    float64
}

// Stats summarize one run for logs and reports.
type Stats struct {
	// RunID is the generated identifier carried by every log record of
	// the run.
	RunID string

	// Iterations is the number of completed outer iterations, Steps the
	// number of neighborhood steps they executed in total.
	Iterations int
	Steps      int

	// Trials counts generated trials, FailedTrials those excluded for
	// structural or scoring failures, and Insertions the trials that made
	// it into the beam.
	Trials       int
	FailedTrials int
	Insertions   int

	// Perturbations counts stalled iterations that ended in a shake.
	Perturbations int
}

// Result is the outcome of an optimization run.
type Result struct {
	// Best is the highest-scoring fragment found, Score its aggregate
	// score, and Breakdown the per-function verdicts behind it.
	Best      *fragment.Fragment
	Score     float64
	Breakdown []scoring.Result

	// Beam is the final beam ordered best-first.
	Beam []ScoredFragment

	// Stats carries the run counters.
	Stats Stats
}
