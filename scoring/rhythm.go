// Package scoring - rhythmic functions: durations, pauses, and onset
// density.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/katalvlaran/dodecaphony/fragment"
)

// measureEndTimes lists the cumulative end times of one measure's events in
// quarter-beat units. Exact integer accumulation keeps end-time comparisons
// safe against float drift.
func measureEndTimes(line *fragment.MelodicLine, measure int, measureLen float64) []int {
	lo, hi := float64(measure)*measureLen, float64(measure+1)*measureLen
	out := make([]int, 0, 8)
	acc := 0
	for i := range line.Events {
		e := &line.Events[i]
		if e.Start < lo || e.Start >= hi {
			continue
		}
		acc += int(math.Round(e.Duration * 4))
		out = append(out, acc)
	}

	return out
}

// CadenceDurationParams configures cadence_duration.
type CadenceDurationParams struct {
	// MinDesiredDuration is the target duration (beats) of the final
	// sonority; longer events do not raise the score.
	MinDesiredDuration float64 `yaml:"min_desired_duration"`
	// LastSonorityWeight weights the shortest clipped duration, the
	// sonority's own length.
	LastSonorityWeight float64 `yaml:"last_sonority_weight"`
	// LastNotesWeight weights the average clipped duration. It rewards the
	// intermediate step of one line extending its final note even while
	// the sonority itself stays short.
	LastNotesWeight float64 `yaml:"last_notes_weight"`
}

// Validate checks the target and the weights.
func (p *CadenceDurationParams) Validate() error {
	if p.MinDesiredDuration <= 0 {
		return fmt.Errorf("%w: cadence_duration: min_desired_duration must be positive", ErrBadParams)
	}
	if p.LastSonorityWeight < 0 || p.LastNotesWeight < 0 {
		return fmt.Errorf("%w: cadence_duration: weights must be non-negative", ErrBadParams)
	}
	if p.LastSonorityWeight+p.LastNotesWeight == 0 {
		return fmt.Errorf("%w: cadence_duration: weights sum to zero", ErrBadParams)
	}

	return nil
}

// evaluateCadenceDuration clips the final sonority's event durations at
// MinDesiredDuration and blends the minimum and the average with the
// normalized weights, each term expressed as the missing fraction of the
// target. A fully satisfied cadence scores 0.
func evaluateCadenceDuration(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*CadenceDurationParams)
	if !ok {
		return 0, fmt.Errorf("%w: cadence_duration: wrong parameter type", ErrBadParams)
	}
	if len(f.Sonorities) == 0 {
		return 0, fmt.Errorf("%w: cadence_duration: no sonorities", ErrScoring)
	}

	last := &f.Sonorities[len(f.Sonorities)-1]
	shortest, sum := math.Inf(1), 0.0
	for _, e := range last.Events {
		d := math.Min(e.Duration, p.MinDesiredDuration)
		if d < shortest {
			shortest = d
		}
		sum += d
	}
	average := sum / float64(len(last.Events))

	total := p.LastSonorityWeight + p.LastNotesWeight
	sonorityTerm := p.LastSonorityWeight / total * (shortest/p.MinDesiredDuration - 1)
	notesTerm := p.LastNotesWeight / total * (average/p.MinDesiredDuration - 1)

	return sonorityTerm + notesTerm, nil
}

// RhythmicConsistencyParams configures rhythmic_consistency.
type RhythmicConsistencyParams struct {
	// PreferredSplits lists the measure splits (duration multisets, in
	// beats) that satisfy the function; empty admits the fragment's whole
	// vocabulary.
	PreferredSplits [][]float64 `yaml:"preferred_splits"`
}

// Validate checks the declared splits.
func (p *RhythmicConsistencyParams) Validate() error {
	for i, split := range p.PreferredSplits {
		if len(split) == 0 {
			return fmt.Errorf("%w: rhythmic_consistency: preferred split %d is empty", ErrBadParams, i)
		}
		if _, ok := splitUnitsKey(split); !ok {
			return fmt.Errorf("%w: rhythmic_consistency: preferred split %d has an unrepresentable duration", ErrBadParams, i)
		}
	}

	return nil
}

// splitUnitsKey encodes a duration multiset as its sorted quarter-beat
// units. Order-insensitive, so permutations of one split compare equal.
func splitUnitsKey(durations []float64) (string, bool) {
	units := make([]int, len(durations))
	for i, d := range durations {
		u := int(math.Round(d * 4))
		if u <= 0 || math.Abs(float64(u)/4-d) > 1e-9 {
			return "", false
		}
		units[i] = u
	}
	sort.Ints(units)
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = strconv.Itoa(u)
	}

	return strings.Join(parts, ","), true
}

// evaluateRhythmicConsistency counts measures (over all lines) whose split
// is absent from the preferred list and negates the fraction. An empty
// preferred list admits the whole vocabulary, which every measure of a
// valid fragment is drawn from, so the score is 0.
func evaluateRhythmicConsistency(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*RhythmicConsistencyParams)
	if !ok {
		return 0, fmt.Errorf("%w: rhythmic_consistency: wrong parameter type", ErrBadParams)
	}
	if len(p.PreferredSplits) == 0 {
		return 0, nil
	}

	preferred := make(map[string]struct{}, len(p.PreferredSplits))
	for _, split := range p.PreferredSplits {
		key, _ := splitUnitsKey(split)
		preferred[key] = struct{}{}
	}

	measureLen := f.Meter.MeasureLen()
	offending, measures := 0, 0
	for li := range f.Lines {
		line := &f.Lines[li]
		for m := 0; m < len(line.Measures); m++ {
			lo, hi := float64(m)*measureLen, float64(m+1)*measureLen
			durations := make([]float64, 0, 8)
			for i := range line.Events {
				if line.Events[i].Start >= lo && line.Events[i].Start < hi {
					durations = append(durations, line.Events[i].Duration)
				}
			}
			key, _ := splitUnitsKey(durations)
			if _, ok := preferred[key]; !ok {
				offending++
			}
			measures++
		}
	}
	if measures == 0 {
		return 0, fmt.Errorf("%w: rhythmic_consistency: no measures", ErrScoring)
	}

	return -float64(offending) / float64(measures), nil
}

// RhythmicHomogeneityParams configures rhythmic_homogeneity. The function
// has no tunable knobs.
type RhythmicHomogeneityParams struct{}

// Validate always succeeds.
func (p *RhythmicHomogeneityParams) Validate() error { return nil }

// evaluateRhythmicHomogeneity compares every pair of non-final measures
// within each line: union of event end times over the pair's average event
// count, minus one. Identical rhythms contribute 0, fully disjoint ones
// approach -1. Summed and normalized by lines times pairs.
func evaluateRhythmicHomogeneity(f *fragment.Fragment, params Params) (float64, error) {
	if _, ok := params.(*RhythmicHomogeneityParams); !ok {
		return 0, fmt.Errorf("%w: rhythmic_homogeneity: wrong parameter type", ErrBadParams)
	}

	measureLen := f.Meter.MeasureLen()
	sum, pairs := 0.0, 0
	for li := range f.Lines {
		line := &f.Lines[li]
		ends := make([][]int, len(line.Measures)-1)
		for m := 0; m < len(line.Measures)-1; m++ {
			ends[m] = measureEndTimes(line, m, measureLen)
		}
		for a := 0; a < len(ends); a++ {
			for b := a + 1; b < len(ends); b++ {
				unique := make(map[int]struct{}, len(ends[a])+len(ends[b]))
				for _, t := range ends[a] {
					unique[t] = struct{}{}
				}
				for _, t := range ends[b] {
					unique[t] = struct{}{}
				}
				avg := float64(len(ends[a])+len(ends[b])) / 2
				sum += float64(len(unique))/avg - 1
				pairs++
			}
		}
	}
	if pairs == 0 {
		return 0, fmt.Errorf("%w: rhythmic_homogeneity: fewer than three measures", ErrScoring)
	}

	return -sum / float64(pairs), nil
}

// PauseWindow is one required-silence interval in beats, inclusive start,
// exclusive end.
type PauseWindow struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

// RequiredPausesParams configures presence_of_required_pauses.
type RequiredPausesParams struct {
	Windows []PauseWindow `yaml:"pauses"`
}

// Validate checks the windows.
func (p *RequiredPausesParams) Validate() error {
	if len(p.Windows) == 0 {
		return fmt.Errorf("%w: presence_of_required_pauses: no pause windows", ErrBadParams)
	}
	for i, w := range p.Windows {
		if w.Start < 0 || w.End <= w.Start {
			return fmt.Errorf("%w: presence_of_required_pauses: window %d: need 0 <= start < end", ErrBadParams, i)
		}
	}

	return nil
}

// evaluateRequiredPauses measures how much of the declared windows is
// occupied by sounding events: the negated ratio of sounding overlap to
// total overlap, accumulated over all lines and windows.
func evaluateRequiredPauses(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*RequiredPausesParams)
	if !ok {
		return 0, fmt.Errorf("%w: presence_of_required_pauses: wrong parameter type", ErrBadParams)
	}

	sounding, covered := 0.0, 0.0
	for li := range f.Lines {
		for i := range f.Lines[li].Events {
			e := &f.Lines[li].Events[i]
			for _, w := range p.Windows {
				overlap := math.Min(e.End(), w.End) - math.Max(e.Start, w.Start)
				if overlap <= 0 {
					continue
				}
				covered += overlap
				if !e.Pause {
					sounding += overlap
				}
			}
		}
	}
	if covered == 0 {
		return 0, fmt.Errorf("%w: presence_of_required_pauses: windows fall outside the fragment", ErrScoring)
	}

	return -sounding / covered, nil
}

// IntensityRange bounds the normalized onset counter at one position for
// one line.
type IntensityRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// RhythmicIntensityParams configures rhythmic_intensity.
type RhythmicIntensityParams struct {
	// Moments are the sampling times in beats.
	Moments []float64 `yaml:"positions"`
	// Ranges holds one row per melodic line, one entry per moment.
	Ranges [][]IntensityRange `yaml:"ranges"`
	// HalfLife is the counter's half life in beats.
	HalfLife float64 `yaml:"half_life"`
	// MaxIntensityFactor rescales the theoretical maximum the counter is
	// normalized by. With a long half life the unscaled maximum assumes a
	// line packed with the shortest representable events and becomes
	// unreachably high.
	MaxIntensityFactor float64 `yaml:"max_intensity_factor"`
}

// Validate checks knobs that do not depend on the fragment; the row count
// against the line count is an evaluation-time concern.
func (p *RhythmicIntensityParams) Validate() error {
	if len(p.Moments) == 0 {
		return fmt.Errorf("%w: rhythmic_intensity: no positions", ErrBadParams)
	}
	for i := 1; i < len(p.Moments); i++ {
		if p.Moments[i-1] >= p.Moments[i] {
			return fmt.Errorf("%w: rhythmic_intensity: positions must increase strictly", ErrBadParams)
		}
	}
	if p.HalfLife <= 0 {
		return fmt.Errorf("%w: rhythmic_intensity: half_life must be positive", ErrBadParams)
	}
	if p.MaxIntensityFactor <= 0 {
		return fmt.Errorf("%w: rhythmic_intensity: max_intensity_factor must be positive", ErrBadParams)
	}
	for i, row := range p.Ranges {
		if len(row) != len(p.Moments) {
			return fmt.Errorf("%w: rhythmic_intensity: ranges row %d has %d entries, want %d",
				ErrBadParams, i, len(row), len(p.Moments))
		}
		for j, r := range row {
			if r.Min < 0 || r.Min > r.Max {
				return fmt.Errorf("%w: rhythmic_intensity: ranges[%d][%d]: need 0 <= min <= max", ErrBadParams, i, j)
			}
		}
	}

	return nil
}

// maxIntensity is the counter's theoretical ceiling: a line packed with
// the shortest representable events, sampled right at its last onset.
func maxIntensity(totalBeats, halfLife float64) float64 {
	shortest := fragment.SupportedDurations[0]
	decay := math.Pow(0.5, shortest/halfLife)
	n := totalBeats / shortest

	return (1 - math.Pow(decay, n)) / (1 - decay)
}

// evaluateRhythmicIntensity runs an exponentially decaying note-onset
// counter along each line, samples it at the configured moments, and
// charges the normalized counter's excursion outside that line's per-moment
// range. Averaged over lines and moments; an always-in-range fragment
// scores 0.
func evaluateRhythmicIntensity(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*RhythmicIntensityParams)
	if !ok {
		return 0, fmt.Errorf("%w: rhythmic_intensity: wrong parameter type", ErrBadParams)
	}
	if len(p.Ranges) != len(f.Lines) {
		return 0, fmt.Errorf("%w: rhythmic_intensity: %d ranges rows for %d lines",
			ErrScoring, len(p.Ranges), len(f.Lines))
	}

	coef := p.MaxIntensityFactor * maxIntensity(f.TotalBeats(), p.HalfLife)
	sum := 0.0
	for li := range f.Lines {
		line := &f.Lines[li]
		counter, prev := 0.0, 0.0
		next := 0 // next moment to sample
		for i := 0; i <= len(line.Events); i++ {
			// Sample every moment strictly before the current onset; a
			// moment tied with an onset samples after the onset is
			// counted, on the next pass.
			var onset float64
			if i < len(line.Events) {
				onset = line.Events[i].Start
			} else {
				onset = math.Inf(1)
			}
			for next < len(p.Moments) && p.Moments[next] < onset {
				counter *= math.Pow(0.5, (p.Moments[next]-prev)/p.HalfLife)
				prev = p.Moments[next]
				normalized := counter / coef
				sum += math.Min(normalized-p.Ranges[li][next].Min, 0)
				sum += math.Min(p.Ranges[li][next].Max-normalized, 0)
				next++
			}
			if i == len(line.Events) || line.Events[i].Pause {
				continue
			}
			counter *= math.Pow(0.5, (onset-prev)/p.HalfLife)
			prev = onset
			counter++
		}
	}

	return sum / float64(len(f.Lines)*len(p.Moments)), nil
}
