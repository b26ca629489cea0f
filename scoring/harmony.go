// Package scoring - harmonic functions: heuristics evaluated over the
// fragment's sonorities.
package scoring

import (
	"fmt"
	"math"

	"github.com/katalvlaran/dodecaphony/fragment"
	"github.com/katalvlaran/dodecaphony/tonerow"
)

// lowestSoundingLine returns the index of the lowest line carrying a note
// in s, or -1 when every line rests. Lines are ordered top voice first, so
// the bass is the largest sounding index.
func lowestSoundingLine(s *fragment.Sonority) int {
	for i := len(s.Events) - 1; i >= 0; i-- {
		if !s.Events[i].Pause {
			return i
		}
	}

	return -1
}

// DoubledPitchClassesParams configures absence_of_doubled_pitch_classes.
// The function has no tunable knobs.
type DoubledPitchClassesParams struct{}

// Validate always succeeds.
func (p *DoubledPitchClassesParams) Validate() error { return nil }

// evaluateDoubledPitchClasses counts same-sonority note pairs sounding the
// same pitch class in different octaves, normalized by sonority count and
// negated. Unisons do not count as doublings.
func evaluateDoubledPitchClasses(f *fragment.Fragment, params Params) (float64, error) {
	if _, ok := params.(*DoubledPitchClassesParams); !ok {
		return 0, fmt.Errorf("%w: absence_of_doubled_pitch_classes: wrong parameter type", ErrBadParams)
	}
	if len(f.Sonorities) == 0 {
		return 0, fmt.Errorf("%w: absence_of_doubled_pitch_classes: no sonorities", ErrScoring)
	}

	count := 0
	for si := range f.Sonorities {
		s := &f.Sonorities[si]
		for i := 0; i < len(s.Events); i++ {
			if s.Events[i].Pause {
				continue
			}
			for j := i + 1; j < len(s.Events); j++ {
				if s.Events[j].Pause {
					continue
				}
				if s.Events[i].Class == s.Events[j].Class && s.Events[i].Position != s.Events[j].Position {
					count++
				}
			}
		}
	}

	return -float64(count) / float64(len(f.Sonorities)), nil
}

// FalseOctavesParams configures absence_of_false_octaves. The function has
// no tunable knobs.
type FalseOctavesParams struct{}

// Validate always succeeds.
func (p *FalseOctavesParams) Validate() error { return nil }

// evaluateFalseOctaves counts octave doublings smeared across adjacent
// sonorities: an event in one sonority answered in the next by a newly
// started event of another line sounding the same pitch class in a
// different octave. Normalized by the number of adjacent pairs, negated.
func evaluateFalseOctaves(f *fragment.Fragment, params Params) (float64, error) {
	if _, ok := params.(*FalseOctavesParams); !ok {
		return 0, fmt.Errorf("%w: absence_of_false_octaves: wrong parameter type", ErrBadParams)
	}
	if len(f.Sonorities) < 2 {
		return 0, nil
	}

	count := 0
	for si := 0; si+1 < len(f.Sonorities); si++ {
		s, next := &f.Sonorities[si], &f.Sonorities[si+1]
		for i := range s.Events {
			a := s.Events[i]
			if a.Pause {
				continue
			}
			for j := range next.Events {
				if j == i {
					continue
				}
				b := next.Events[j]
				if b.Pause || next.Continues(b) {
					continue
				}
				if b.Class == a.Class && b.Position != a.Position {
					count++
				}
			}
		}
	}

	return -float64(count) / float64(len(f.Sonorities)-1), nil
}

// SimultaneousSkipsParams configures absence_of_simultaneous_skips.
type SimultaneousSkipsParams struct {
	// MinSkip is the smallest melodic interval (semitones) counted as a
	// skip.
	MinSkip int `yaml:"min_skip_in_semitones"`
	// MaxShare bounds the tolerated share of moving lines that skip at one
	// sonority boundary.
	MaxShare float64 `yaml:"max_skips_share"`
}

// Validate checks the bounds.
func (p *SimultaneousSkipsParams) Validate() error {
	if p.MinSkip < 2 {
		return fmt.Errorf("%w: absence_of_simultaneous_skips: min_skip_in_semitones must be at least 2", ErrBadParams)
	}
	if p.MaxShare <= 0 || p.MaxShare > 1 {
		return fmt.Errorf("%w: absence_of_simultaneous_skips: max_skips_share outside (0, 1]", ErrBadParams)
	}

	return nil
}

// evaluateSimultaneousSkips penalizes sonority boundaries where too many of
// the moving lines leap at once: boundaries whose skip share reaches
// MaxShare charge 1, normalized over boundaries.
func evaluateSimultaneousSkips(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*SimultaneousSkipsParams)
	if !ok {
		return 0, fmt.Errorf("%w: absence_of_simultaneous_skips: wrong parameter type", ErrBadParams)
	}
	if len(f.Sonorities) < 2 {
		return 0, nil
	}

	sum := 0.0
	for si := 0; si+1 < len(f.Sonorities); si++ {
		s, next := &f.Sonorities[si], &f.Sonorities[si+1]
		moved, skipped := 0, 0
		for li := range next.Events {
			a, b := s.Events[li], next.Events[li]
			if a.Pause || b.Pause || next.Continues(b) {
				continue
			}
			moved++
			skip := int(b.Position) - int(a.Position)
			if skip <= -p.MinSkip || skip >= p.MinSkip {
				skipped++
			}
		}
		if moved > 0 && float64(skipped)/float64(moved) >= p.MaxShare {
			sum++
		}
	}

	return -sum / float64(len(f.Sonorities)-1), nil
}

// VoiceCrossingParams configures absence_of_voice_crossing.
type VoiceCrossingParams struct {
	// Penalties maps the non-positive interval (upper minus lower voice,
	// semitones) to a penalty; missing sizes cost 1.
	Penalties map[int]float64 `yaml:"n_semitones_to_penalty"`
}

// Validate checks the table keys.
func (p *VoiceCrossingParams) Validate() error {
	for k, v := range p.Penalties {
		if k > 0 {
			return fmt.Errorf("%w: absence_of_voice_crossing: table key %d must be non-positive", ErrBadParams, k)
		}
		if v < 0 {
			return fmt.Errorf("%w: absence_of_voice_crossing: negative penalty", ErrBadParams)
		}
	}

	return nil
}

// evaluateVoiceCrossing charges every same-sonority note pair whose upper
// line does not sound above its lower line, with the penalty keyed by the
// non-positive interval. Normalized by the total number of note pairs.
func evaluateVoiceCrossing(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*VoiceCrossingParams)
	if !ok {
		return 0, fmt.Errorf("%w: absence_of_voice_crossing: wrong parameter type", ErrBadParams)
	}

	sum, pairs := 0.0, 0
	for si := range f.Sonorities {
		s := &f.Sonorities[si]
		for i := 0; i < len(s.Events); i++ {
			if s.Events[i].Pause {
				continue
			}
			for j := i + 1; j < len(s.Events); j++ {
				if s.Events[j].Pause {
					continue
				}
				pairs++
				interval := int(s.Events[i].Position) - int(s.Events[j].Position)
				if interval <= 0 {
					sum += lookupPenalty(p.Penalties, interval, 1.0)
				}
			}
		}
	}
	if pairs == 0 {
		return 0, nil
	}

	return -sum / float64(pairs), nil
}

// DissonancesParams configures dissonances_preparation_and_resolution. All
// three tables are keyed by the directed melodic interval in semitones;
// missing sizes cost 1, and an interval broken by a pause or the line
// boundary costs 0.
type DissonancesParams struct {
	PassingPreparation   map[int]float64 `yaml:"n_semitones_to_pt_and_ngh_preparation_penalty"`
	PassingResolution    map[int]float64 `yaml:"n_semitones_to_pt_and_ngh_resolution_penalty"`
	SuspensionResolution map[int]float64 `yaml:"n_semitones_to_suspension_resolution_penalty"`
}

// Validate checks the tables.
func (p *DissonancesParams) Validate() error {
	for _, table := range []map[int]float64{p.PassingPreparation, p.PassingResolution, p.SuspensionResolution} {
		for _, v := range table {
			if v < 0 {
				return fmt.Errorf("%w: dissonances_preparation_and_resolution: negative penalty", ErrBadParams)
			}
		}
	}

	return nil
}

// eventKey identifies one event for dedup across sonorities.
type eventKey struct{ line, index int }

// melodicStep returns the directed interval entering (dir = -1) or leaving
// (dir = +1) a note, and false when the neighbor is a pause or missing.
func melodicStep(f *fragment.Fragment, e *fragment.Event, dir int) (int, bool) {
	idx := e.Index + dir
	events := f.Lines[e.LineIndex].Events
	if idx < 0 || idx >= len(events) {
		return 0, false
	}
	other := &events[idx]
	if other.Pause {
		return 0, false
	}
	if dir < 0 {
		return int(e.Position) - int(other.Position), true
	}

	return int(other.Position) - int(e.Position), true
}

// evaluateDissonances penalizes badly prepared or badly resolved
// dissonances. Each dissonant same-sonority pair (the perfect fourth is
// consonant except against the lowest sounding line) is classified: a held
// event joined by a downbeat onset is a suspension and pays for its
// resolution interval; a newly started dissonant event is a passing tone or
// neighbor and pays for both its preparation and resolution intervals. Each
// event pays at most once. Normalized by the number of melodic transitions.
func evaluateDissonances(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*DissonancesParams)
	if !ok {
		return 0, fmt.Errorf("%w: dissonances_preparation_and_resolution: wrong parameter type", ErrBadParams)
	}

	transitions := 0
	for li := range f.Lines {
		transitions += len(f.Lines[li].Events) - 1
	}
	if transitions <= 0 {
		return 0, fmt.Errorf("%w: dissonances_preparation_and_resolution: no melodic transitions", ErrScoring)
	}

	measureLen := f.Meter.MeasureLen()
	handled := make(map[eventKey]bool)
	passing := func(e *fragment.Event) float64 {
		key := eventKey{e.LineIndex, e.Index}
		if handled[key] {
			return 0
		}
		handled[key] = true
		total := 0.0
		if step, known := melodicStep(f, e, -1); known {
			total += lookupPenalty(p.PassingPreparation, step, 1.0)
		}
		if step, known := melodicStep(f, e, +1); known {
			total += lookupPenalty(p.PassingResolution, step, 1.0)
		}

		return total
	}
	suspension := func(e *fragment.Event) float64 {
		key := eventKey{e.LineIndex, e.Index}
		if handled[key] {
			return 0
		}
		handled[key] = true
		if step, known := melodicStep(f, e, +1); known {
			return lookupPenalty(p.SuspensionResolution, step, 1.0)
		}

		return 0
	}

	sum := 0.0
	for si := range f.Sonorities {
		s := &f.Sonorities[si]
		bass := lowestSoundingLine(s)
		for i := 0; i < len(s.Events); i++ {
			if s.Events[i].Pause {
				continue
			}
			for j := i + 1; j < len(s.Events); j++ {
				if s.Events[j].Pause {
					continue
				}
				a, b := s.Events[i], s.Events[j]
				interval := int(a.Position) - int(b.Position)
				if tonerow.TypeOfInterval(interval, j != bass) != tonerow.Dissonance {
					continue
				}
				aNew, bNew := !s.Continues(a), !s.Continues(b)
				switch {
				case aNew && bNew:
					sum += passing(a) + passing(b)
				case aNew:
					if math.Mod(a.Start, measureLen) == 0 {
						sum += suspension(b)
					} else {
						sum += passing(a)
					}
				case bNew:
					if math.Mod(b.Start, measureLen) == 0 {
						sum += suspension(a)
					} else {
						sum += passing(b)
					}
				}
			}
		}
	}

	return -sum / float64(transitions), nil
}

// sonorityStability averages pairwise interval stability over a sonority's
// notes; sonorities with at most one note are fully stable.
func sonorityStability(s *fragment.Sonority, table map[int]float64) float64 {
	sum, pairs := 0.0, 0
	for i := 0; i < len(s.Events); i++ {
		if s.Events[i].Pause {
			continue
		}
		for j := i + 1; j < len(s.Events); j++ {
			if s.Events[j].Pause {
				continue
			}
			interval := int(s.Events[i].Position) - int(s.Events[j].Position)
			if interval < 0 {
				interval = -interval
			}
			sum += table[interval%tonerow.PitchClassCount]
			pairs++
		}
	}
	if pairs == 0 {
		return 1.0
	}

	return sum / float64(pairs)
}

// validateStabilityTable requires a stability value in [0, 1] for every
// interval class 0..11.
func validateStabilityTable(name string, table map[int]float64) error {
	for k := 0; k < tonerow.PitchClassCount; k++ {
		v, known := table[k]
		if !known {
			return fmt.Errorf("%w: %s: n_semitones_to_stability misses interval %d", ErrBadParams, name, k)
		}
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s: stability for interval %d outside [0, 1]", ErrBadParams, name, k)
		}
	}

	return nil
}

// HarmonyDynamicPositionsParams configures harmony_dynamic_by_positions.
type HarmonyDynamicPositionsParams struct {
	Positions `yaml:",inline"`
	// Ranges maps a position type to its target stability [min, max]; the
	// "default" entry covers unmatched sonorities.
	Ranges map[string][]float64 `yaml:"ranges"`
	// Stability maps an interval class (0..11) to its stability in [0, 1].
	Stability map[int]float64 `yaml:"n_semitones_to_stability"`
}

// Validate checks the positions, the ranges, and the stability table.
func (p *HarmonyDynamicPositionsParams) Validate() error {
	if err := p.Positions.Validate(); err != nil {
		return err
	}
	if _, known := p.Ranges[DefaultPositionType]; !known {
		return fmt.Errorf("%w: harmony_dynamic_by_positions: ranges must include %q", ErrBadParams, DefaultPositionType)
	}
	for name, rng := range p.Ranges {
		if len(rng) != 2 || rng[0] < 0 || rng[0] > rng[1] || rng[1] > 1 {
			return fmt.Errorf("%w: harmony_dynamic_by_positions: range for %q must be [min, max] within [0, 1]",
				ErrBadParams, name)
		}
	}

	return validateStabilityTable("harmony_dynamic_by_positions", p.Stability)
}

// evaluateHarmonyDynamicPositions steers each sonority's harmonic stability
// into the target range of its metric position type: deviations below min
// and above max are charged linearly, averaged over sonorities.
func evaluateHarmonyDynamicPositions(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*HarmonyDynamicPositionsParams)
	if !ok {
		return 0, fmt.Errorf("%w: harmony_dynamic_by_positions: wrong parameter type", ErrBadParams)
	}
	if len(f.Sonorities) == 0 {
		return 0, fmt.Errorf("%w: harmony_dynamic_by_positions: no sonorities", ErrScoring)
	}

	total := f.TotalBeats()
	sum := 0.0
	for si := range f.Sonorities {
		s := &f.Sonorities[si]
		stability := sonorityStability(s, p.Stability)
		rng, known := p.Ranges[p.Positions.SonorityType(s, total)]
		if !known {
			rng = p.Ranges[DefaultPositionType]
		}
		if stability < rng[0] {
			sum += rng[0] - stability
		} else if stability > rng[1] {
			sum += stability - rng[1]
		}
	}

	return -sum / float64(len(f.Sonorities)), nil
}

// TimedStabilityRange is one target stability range over an explicit time
// interval, in beats.
type TimedStabilityRange struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
}

// HarmonyDynamicIntervalsParams configures harmony_dynamic_by_time_intervals.
type HarmonyDynamicIntervalsParams struct {
	// Intervals declares the target ranges; intervals may overlap.
	Intervals []TimedStabilityRange `yaml:"intervals"`
	// Stability maps an interval class (0..11) to its stability in [0, 1].
	Stability map[int]float64 `yaml:"n_semitones_to_stability"`
}

// Validate checks the intervals and the stability table.
func (p *HarmonyDynamicIntervalsParams) Validate() error {
	if len(p.Intervals) == 0 {
		return fmt.Errorf("%w: harmony_dynamic_by_time_intervals: no intervals", ErrBadParams)
	}
	for i, iv := range p.Intervals {
		if iv.End <= iv.Start || iv.Start < 0 {
			return fmt.Errorf("%w: harmony_dynamic_by_time_intervals: interval %d is empty", ErrBadParams, i)
		}
		if iv.Min < 0 || iv.Min > iv.Max || iv.Max > 1 {
			return fmt.Errorf("%w: harmony_dynamic_by_time_intervals: interval %d range outside [0, 1]", ErrBadParams, i)
		}
	}

	return validateStabilityTable("harmony_dynamic_by_time_intervals", p.Stability)
}

// evaluateHarmonyDynamicIntervals steers harmonic stability per declared
// time interval, weighting each sonority's deviation by how long it
// intersects the interval. Normalized by the fragment length.
func evaluateHarmonyDynamicIntervals(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*HarmonyDynamicIntervalsParams)
	if !ok {
		return 0, fmt.Errorf("%w: harmony_dynamic_by_time_intervals: wrong parameter type", ErrBadParams)
	}
	if len(f.Sonorities) == 0 {
		return 0, fmt.Errorf("%w: harmony_dynamic_by_time_intervals: no sonorities", ErrScoring)
	}

	sum := 0.0
	for si := range f.Sonorities {
		s := &f.Sonorities[si]
		stability := sonorityStability(s, p.Stability)
		for _, iv := range p.Intervals {
			overlap := math.Min(s.End, iv.End) - math.Max(s.Start, iv.Start)
			if overlap <= 0 {
				continue
			}
			if stability < iv.Min {
				sum += overlap * (iv.Min - stability)
			} else if stability > iv.Max {
				sum += overlap * (stability - iv.Max)
			}
		}
	}

	return -sum / f.TotalBeats(), nil
}

// AllLinesDiatonicityParams configures local_diatonicity_at_all_lines_level.
type AllLinesDiatonicityParams struct {
	// Depth is the window length in successive sonorities.
	Depth int `yaml:"depth"`
	// ScaleTypes selects the diatonic reference scales; empty selects the
	// default set.
	ScaleTypes []string `yaml:"scale_types"`
}

// Validate checks the depth and the scale types.
func (p *AllLinesDiatonicityParams) Validate() error {
	if p.Depth < 1 {
		return fmt.Errorf("%w: local_diatonicity_at_all_lines_level: depth must be positive", ErrBadParams)
	}
	if _, err := tonerow.NewScaleSet(p.ScaleTypes); err != nil {
		return fmt.Errorf("%w: local_diatonicity_at_all_lines_level: %v", ErrBadParams, err)
	}

	return nil
}

// evaluateAllLinesDiatonicity slides a window of Depth successive
// sonorities and measures the share of sounding pitch classes the
// best-fitting scale covers. Average coverage minus one, so fully diatonic
// windows score 0.
func evaluateAllLinesDiatonicity(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*AllLinesDiatonicityParams)
	if !ok {
		return 0, fmt.Errorf("%w: local_diatonicity_at_all_lines_level: wrong parameter type", ErrBadParams)
	}
	scales, err := tonerow.NewScaleSet(p.ScaleTypes)
	if err != nil {
		return 0, fmt.Errorf("%w: local_diatonicity_at_all_lines_level: %v", ErrBadParams, err)
	}
	if len(f.Sonorities) < p.Depth {
		return 0, nil
	}

	sum, windows := 0.0, 0
	classes := make([]tonerow.PitchClass, 0, p.Depth*len(f.Lines))
	for i := 0; i+p.Depth <= len(f.Sonorities); i++ {
		classes = classes[:0]
		for j := i; j < i+p.Depth; j++ {
			for _, e := range f.Sonorities[j].Events {
				if !e.Pause {
					classes = append(classes, e.Class)
				}
			}
		}
		if len(classes) == 0 {
			sum++
		} else {
			hits, _ := tonerow.BestMatch(scales, classes)
			sum += float64(hits) / float64(len(classes))
		}
		windows++
	}

	return sum/float64(windows) - 1, nil
}

// MotionToPerfectParams configures motion_to_perfect_consonances. The
// function has no tunable knobs.
type MotionToPerfectParams struct{}

// Validate always succeeds.
func (p *MotionToPerfectParams) Validate() error { return nil }

// evaluateMotionToPerfect charges arrivals at perfect consonances reached
// badly: 1 when the same line pair already formed a perfect consonance in
// the previous sonority, and 1 more when both lines moved in the same
// direction. Normalized by sonority transitions.
func evaluateMotionToPerfect(f *fragment.Fragment, params Params) (float64, error) {
	if _, ok := params.(*MotionToPerfectParams); !ok {
		return 0, fmt.Errorf("%w: motion_to_perfect_consonances: wrong parameter type", ErrBadParams)
	}
	if len(f.Sonorities) < 2 {
		return 0, nil
	}

	sum := 0.0
	for si := 1; si < len(f.Sonorities); si++ {
		s, prev := &f.Sonorities[si], &f.Sonorities[si-1]
		bass, prevBass := lowestSoundingLine(s), lowestSoundingLine(prev)
		for i := 0; i < len(s.Events); i++ {
			if s.Events[i].Pause {
				continue
			}
			for j := i + 1; j < len(s.Events); j++ {
				if s.Events[j].Pause {
					continue
				}
				a, b := s.Events[i], s.Events[j]
				interval := int(a.Position) - int(b.Position)
				if tonerow.TypeOfInterval(interval, j != bass) != tonerow.PerfectConsonance {
					continue
				}
				if s.Continues(a) && s.Continues(b) {
					continue
				}
				pa, pb := prev.Events[i], prev.Events[j]
				if pa.Pause || pb.Pause {
					continue
				}
				prevInterval := int(pa.Position) - int(pb.Position)
				if tonerow.TypeOfInterval(prevInterval, j != prevBass) == tonerow.PerfectConsonance {
					sum++
				}
				if (int(a.Position)-int(pa.Position))*(int(b.Position)-int(pb.Position)) > 0 {
					sum++
				}
			}
		}
	}

	return -sum / float64(len(f.Sonorities)-1), nil
}

// FinalSonorityMovementParams configures movement_to_final_sonority. The
// three terms are weights of independent requirements; their sum is the
// worst possible penalty.
type FinalSonorityMovementParams struct {
	// ContraryTerm is lost when no pair of lines moves in contrary motion
	// into the final sonority.
	ContraryTerm float64 `yaml:"contrary_motion_term"`
	// ConjunctTerm is lost when any non-bass line leaps (more than two
	// semitones) into the final sonority.
	ConjunctTerm float64 `yaml:"conjunct_motion_term"`
	// BassSkipTerm is lost when the bass fails to skip downward (three or
	// more semitones) into the final sonority.
	BassSkipTerm float64 `yaml:"bass_downward_skip_term"`
}

// Validate checks the terms.
func (p *FinalSonorityMovementParams) Validate() error {
	if p.ContraryTerm < 0 || p.ConjunctTerm < 0 || p.BassSkipTerm < 0 {
		return fmt.Errorf("%w: movement_to_final_sonority: negative term", ErrBadParams)
	}
	if p.ContraryTerm+p.ConjunctTerm+p.BassSkipTerm == 0 {
		return fmt.Errorf("%w: movement_to_final_sonority: all terms are zero", ErrBadParams)
	}

	return nil
}

// evaluateFinalSonorityMovement judges the approach into the closing
// sonority with three weighted requirements: some pair of lines in contrary
// motion, stepwise motion in every non-bass line, and a downward skip in
// the bass. A line whose arrival interval is undefined (pause on either
// side) fails the requirements it participates in.
func evaluateFinalSonorityMovement(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*FinalSonorityMovementParams)
	if !ok {
		return 0, fmt.Errorf("%w: movement_to_final_sonority: wrong parameter type", ErrBadParams)
	}
	if len(f.Sonorities) == 0 {
		return 0, fmt.Errorf("%w: movement_to_final_sonority: no sonorities", ErrScoring)
	}

	last := &f.Sonorities[len(f.Sonorities)-1]
	deltas := make([]int, len(f.Lines))
	defined := make([]bool, len(f.Lines))
	for li := range f.Lines {
		e := last.Events[li]
		if e.Pause || e.Index == 0 {
			continue
		}
		prev := &f.Lines[li].Events[e.Index-1]
		if prev.Pause {
			continue
		}
		deltas[li] = int(e.Position) - int(prev.Position)
		defined[li] = true
	}

	lost := 0.0

	// Contrary motion: any pair of lines with opposite directions.
	if len(f.Lines) > 1 {
		contrary := false
		for i := 0; i < len(deltas) && !contrary; i++ {
			if !defined[i] {
				continue
			}
			for j := i + 1; j < len(deltas); j++ {
				if defined[j] && deltas[i]*deltas[j] < 0 {
					contrary = true

					break
				}
			}
		}
		if !contrary {
			lost += p.ContraryTerm
		}
	}

	// Conjunct motion in every non-bass line.
	bass := len(f.Lines) - 1
	for li := 0; li < bass; li++ {
		if !defined[li] || deltas[li] < -2 || deltas[li] > 2 {
			lost += p.ConjunctTerm

			break
		}
	}

	// Downward skip in the bass.
	if !defined[bass] || deltas[bass] > -3 {
		lost += p.BassSkipTerm
	}

	return -lost, nil
}

// PitchClassDistributionParams configures
// pitch_class_distribution_among_lines.
type PitchClassDistributionParams struct {
	// Banned maps a line ID to the pitch-class names that line should
	// avoid; lines without an entry are unconstrained.
	Banned map[int][]string `yaml:"line_id_to_banned_pitch_classes"`
}

// Validate parses the class names.
func (p *PitchClassDistributionParams) Validate() error {
	if len(p.Banned) == 0 {
		return fmt.Errorf("%w: pitch_class_distribution_among_lines: no banned classes", ErrBadParams)
	}
	for id, names := range p.Banned {
		for _, name := range names {
			if _, err := tonerow.ParsePitchClass(name); err != nil {
				return fmt.Errorf("%w: pitch_class_distribution_among_lines: line %d: %v", ErrBadParams, id, err)
			}
		}
	}

	return nil
}

// evaluatePitchClassDistribution measures, per line, the share of notes
// sounding a banned pitch class. Averaged over lines, negated.
func evaluatePitchClassDistribution(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*PitchClassDistributionParams)
	if !ok {
		return 0, fmt.Errorf("%w: pitch_class_distribution_among_lines: wrong parameter type", ErrBadParams)
	}

	sum := 0.0
	for li := range f.Lines {
		line := &f.Lines[li]
		names, constrained := p.Banned[line.ID]
		if !constrained || len(names) == 0 {
			continue
		}
		var banned [tonerow.PitchClassCount]bool
		for _, name := range names {
			pc, err := tonerow.ParsePitchClass(name)
			if err != nil {
				return 0, fmt.Errorf("%w: pitch_class_distribution_among_lines: %v", ErrBadParams, err)
			}
			banned[pc] = true
		}
		notes, hits := 0, 0
		for i := range line.Events {
			if line.Events[i].Pause {
				continue
			}
			notes++
			if banned[line.Events[i].Class] {
				hits++
			}
		}
		if notes > 0 {
			sum += float64(hits) / float64(notes)
		}
	}

	return -sum / float64(len(f.Lines)), nil
}

// VerticalIntervalsParams configures presence_of_vertical_intervals.
type VerticalIntervalsParams struct {
	// Intervals is the wanted chord shape as top-to-bottom adjacent
	// intervals in semitones; a sonority matches when exactly
	// len(Intervals)+1 lines sound and the stack equals it.
	Intervals []int `yaml:"intervals"`
	// MinWeighted is the target weighted occurrence count.
	MinWeighted float64 `yaml:"min_n_weighted_occurrences"`
	Positions   `yaml:",inline"`
	// Weights maps a position type to the weight of one occurrence there;
	// missing types fall back to the "default" entry, then to 1.
	Weights map[string]float64 `yaml:"position_type_to_weight"`
}

// Validate checks the shape, the target, and the weights.
func (p *VerticalIntervalsParams) Validate() error {
	if len(p.Intervals) == 0 {
		return fmt.Errorf("%w: presence_of_vertical_intervals: intervals is empty", ErrBadParams)
	}
	if p.MinWeighted <= 0 {
		return fmt.Errorf("%w: presence_of_vertical_intervals: min_n_weighted_occurrences must be positive", ErrBadParams)
	}
	if err := p.Positions.Validate(); err != nil {
		return err
	}
	for name, w := range p.Weights {
		if w < 0 {
			return fmt.Errorf("%w: presence_of_vertical_intervals: negative weight for %q", ErrBadParams, name)
		}
	}

	return nil
}

// evaluateVerticalIntervals accumulates position-weighted occurrences of
// the wanted chord shape and penalizes the relative shortfall against
// MinWeighted.
func evaluateVerticalIntervals(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*VerticalIntervalsParams)
	if !ok {
		return 0, fmt.Errorf("%w: presence_of_vertical_intervals: wrong parameter type", ErrBadParams)
	}

	total := f.TotalBeats()
	matched := 0.0
	notes := make([]*fragment.Event, 0, len(f.Lines))
	for si := range f.Sonorities {
		s := &f.Sonorities[si]
		notes = notes[:0]
		for _, e := range s.Events {
			if !e.Pause {
				notes = append(notes, e)
			}
		}
		if len(notes) != len(p.Intervals)+1 {
			continue
		}
		match := true
		for k := 0; k < len(p.Intervals); k++ {
			if int(notes[k].Position)-int(notes[k+1].Position) != p.Intervals[k] {
				match = false

				break
			}
		}
		if !match {
			continue
		}
		weight, known := p.Weights[p.Positions.SonorityType(s, total)]
		if !known {
			if weight, known = p.Weights[DefaultPositionType]; !known {
				weight = 1.0
			}
		}
		matched += weight
	}

	if matched >= p.MinWeighted {
		return 0, nil
	}

	return (matched - p.MinWeighted) / p.MinWeighted, nil
}

// IntensityCheck is one sounding-event count requirement at a moment.
type IntensityCheck struct {
	// Time in beats; negative counts from the fragment end.
	Time float64 `yaml:"time"`
	// Min and Max bound the number of sounding (non-pause) events.
	Min int `yaml:"min_n_non_pause_events"`
	Max int `yaml:"max_n_non_pause_events"`
}

// SonicIntensityParams configures sonic_intensity.
type SonicIntensityParams struct {
	Checks []IntensityCheck `yaml:"positions"`
}

// Validate checks the requirements.
func (p *SonicIntensityParams) Validate() error {
	if len(p.Checks) == 0 {
		return fmt.Errorf("%w: sonic_intensity: no positions", ErrBadParams)
	}
	for i, c := range p.Checks {
		if c.Min < 0 || c.Min > c.Max {
			return fmt.Errorf("%w: sonic_intensity: position %d: need 0 <= min <= max", ErrBadParams, i)
		}
	}

	return nil
}

// evaluateSonicIntensity counts sounding events at each configured moment
// and charges the distance to the nearest bound of [Min, Max], scaled by
// the line count. Averaged over the checks.
func evaluateSonicIntensity(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*SonicIntensityParams)
	if !ok {
		return 0, fmt.Errorf("%w: sonic_intensity: wrong parameter type", ErrBadParams)
	}
	if len(f.Sonorities) == 0 {
		return 0, fmt.Errorf("%w: sonic_intensity: no sonorities", ErrScoring)
	}

	total := f.TotalBeats()
	sum := 0.0
	for _, check := range p.Checks {
		t := check.Time
		if t < 0 {
			t += total
		}
		if t < 0 || t >= total {
			return 0, fmt.Errorf("%w: sonic_intensity: time %v outside the fragment", ErrScoring, check.Time)
		}
		sounding := 0
		for si := range f.Sonorities {
			s := &f.Sonorities[si]
			if s.Start <= t && t < s.End {
				for _, e := range s.Events {
					if !e.Pause {
						sounding++
					}
				}

				break
			}
		}
		deviation := 0
		if sounding < check.Min {
			deviation = check.Min - sounding
		} else if sounding > check.Max {
			deviation = sounding - check.Max
		}
		sum += float64(deviation) / float64(len(f.Lines))
	}

	return -sum / float64(len(p.Checks)), nil
}
