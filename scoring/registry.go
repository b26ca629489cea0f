// Package scoring - the static registry binding function names to
// implementations and parameter prototypes.
package scoring

import (
	"errors"
	"fmt"
	"sort"

	"github.com/katalvlaran/dodecaphony/fragment"
)

// ErrUnknownFunction reports a scoring function name absent from the
// registry.
var ErrUnknownFunction = errors.New("scoring: unknown function name")

// Function is the signature every scoring function implements: a pure
// mapping from a fragment and its validated parameters to a raw score.
//
// Errors: ErrBadParams on a parameter type mismatch, ErrScoring when the
// fragment is degenerate for this function.
type Function func(f *fragment.Fragment, params Params) (float64, error)

// entry binds one registered name to its implementation and a prototype
// factory carrying the documented defaults.
type entry struct {
	fn        Function
	prototype func() Params
}

// Registry resolves scoring function names. Immutable after construction
// and safe for concurrent use.
type Registry struct {
	byName map[string]entry
	names  []string
}

// NewRegistry builds the canonical table of all scoring functions.
// Prototype defaults follow the per-function documentation; a zero value
// means the knob has no meaningful default and configuration must set it.
func NewRegistry() *Registry {
	r := &Registry{byName: map[string]entry{
		// Melodic.
		"absence_of_aimless_fluctuations": {
			fn:        evaluateAimlessFluctuations,
			prototype: func() Params { return &AimlessFluctuationsParams{} },
		},
		"climax_explicity": {
			fn:        evaluateClimaxExplicity,
			prototype: func() Params { return &ClimaxExplicityParams{} },
		},
		"direction_change_after_large_skip": {
			fn: evaluateDirectionChange,
			prototype: func() Params {
				return &DirectionChangeParams{MinSkip: 5, MaxOppositeMove: 2, LargeOppositePenalty: 0.8}
			},
		},
		"smoothness_of_voice_leading": {
			fn:        evaluateVoiceLeadingSmoothness,
			prototype: func() Params { return &VoiceLeadingSmoothnessParams{} },
		},
		"pitch_class_prominence": {
			fn:        evaluatePitchClassProminence,
			prototype: func() Params { return &PitchClassProminenceParams{DefaultWeight: 1} },
		},
		"local_diatonicity_at_line_level": {
			fn:        evaluateLineDiatonicity,
			prototype: func() Params { return &LineDiatonicityParams{Depth: 7} },
		},
		"presence_of_intervallic_motif": {
			fn:        evaluateIntervallicMotif,
			prototype: func() Params { return &IntervallicMotifParams{Inversion: true, Reversion: true} },
		},
		"stackability": {
			fn:        evaluateStackability,
			prototype: func() Params { return &StackabilityParams{} },
		},
		"transitions": {
			fn:        evaluateTransitions,
			prototype: func() Params { return &TransitionsParams{} },
		},

		// Harmonic.
		"absence_of_doubled_pitch_classes": {
			fn:        evaluateDoubledPitchClasses,
			prototype: func() Params { return &DoubledPitchClassesParams{} },
		},
		"absence_of_false_octaves": {
			fn:        evaluateFalseOctaves,
			prototype: func() Params { return &FalseOctavesParams{} },
		},
		"absence_of_simultaneous_skips": {
			fn:        evaluateSimultaneousSkips,
			prototype: func() Params { return &SimultaneousSkipsParams{MinSkip: 4, MaxShare: 0.65} },
		},
		"absence_of_voice_crossing": {
			fn:        evaluateVoiceCrossing,
			prototype: func() Params { return &VoiceCrossingParams{} },
		},
		"dissonances_preparation_and_resolution": {
			fn:        evaluateDissonances,
			prototype: func() Params { return &DissonancesParams{} },
		},
		"harmony_dynamic_by_positions": {
			fn:        evaluateHarmonyDynamicPositions,
			prototype: func() Params { return &HarmonyDynamicPositionsParams{} },
		},
		"harmony_dynamic_by_time_intervals": {
			fn:        evaluateHarmonyDynamicIntervals,
			prototype: func() Params { return &HarmonyDynamicIntervalsParams{} },
		},
		"local_diatonicity_at_all_lines_level": {
			fn:        evaluateAllLinesDiatonicity,
			prototype: func() Params { return &AllLinesDiatonicityParams{Depth: 2} },
		},
		"motion_to_perfect_consonances": {
			fn:        evaluateMotionToPerfect,
			prototype: func() Params { return &MotionToPerfectParams{} },
		},
		"movement_to_final_sonority": {
			fn: evaluateFinalSonorityMovement,
			prototype: func() Params {
				return &FinalSonorityMovementParams{ContraryTerm: 0.4, ConjunctTerm: 0.3, BassSkipTerm: 0.3}
			},
		},
		"pitch_class_distribution_among_lines": {
			fn:        evaluatePitchClassDistribution,
			prototype: func() Params { return &PitchClassDistributionParams{} },
		},
		"presence_of_vertical_intervals": {
			fn:        evaluateVerticalIntervals,
			prototype: func() Params { return &VerticalIntervalsParams{} },
		},
		"sonic_intensity": {
			fn:        evaluateSonicIntensity,
			prototype: func() Params { return &SonicIntensityParams{} },
		},

		// Rhythmic.
		"cadence_duration": {
			fn:        evaluateCadenceDuration,
			prototype: func() Params { return &CadenceDurationParams{} },
		},
		"rhythmic_consistency": {
			fn:        evaluateRhythmicConsistency,
			prototype: func() Params { return &RhythmicConsistencyParams{} },
		},
		"rhythmic_homogeneity": {
			fn:        evaluateRhythmicHomogeneity,
			prototype: func() Params { return &RhythmicHomogeneityParams{} },
		},
		"presence_of_required_pauses": {
			fn:        evaluateRequiredPauses,
			prototype: func() Params { return &RequiredPausesParams{} },
		},
		"rhythmic_intensity": {
			fn:        evaluateRhythmicIntensity,
			prototype: func() Params { return &RhythmicIntensityParams{MaxIntensityFactor: 1} },
		},
	}}
	for name := range r.byName {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)

	return r
}

// Names lists the registered functions in lexical order.
func (r *Registry) Names() []string { return r.names }

// Lookup resolves a function by name.
//
// Errors: ErrUnknownFunction.
func (r *Registry) Lookup(name string) (Function, error) {
	e, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}

	return e.fn, nil
}

// NewParams returns a fresh parameter prototype for name, pre-filled with
// the documented defaults. Configuration decodes over the prototype, so an
// omitted field keeps its default.
//
// Errors: ErrUnknownFunction.
func (r *Registry) NewParams(name string) (Params, error) {
	e, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}

	return e.prototype(), nil
}
