// Package scoring - melodic functions: heuristics evaluated line by line.
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/katalvlaran/dodecaphony/fragment"
	"github.com/katalvlaran/dodecaphony/tonerow"
)

// notePositions collects the absolute pitches of a line's notes in playing
// order.
func notePositions(line *fragment.MelodicLine) []int {
	out := make([]int, 0, line.NoteCount())
	for i := range line.Events {
		if !line.Events[i].Pause {
			out = append(out, int(line.Events[i].Position))
		}
	}

	return out
}

// largestApplicablePenalty resolves a forward-filled penalty table: every
// entry whose key is at least size applies, and the largest one wins.
// Returns 0 when nothing applies.
func largestApplicablePenalty(table map[int]float64, size float64) float64 {
	best := 0.0
	for k, v := range table {
		if float64(k) >= size && v > best {
			best = v
		}
	}

	return best
}

// AimlessFluctuationsParams configures absence_of_aimless_fluctuations.
type AimlessFluctuationsParams struct {
	// Penalties maps a pitch range in semitones to the penalty a window
	// narrower than or equal to it collects (largest applicable wins).
	Penalties map[int]float64 `yaml:"penalties"`
	// WindowSize is the number of successive notes per window.
	WindowSize int `yaml:"window_size"`
}

// Validate checks the table and the window size.
func (p *AimlessFluctuationsParams) Validate() error {
	if p.WindowSize < 2 {
		return fmt.Errorf("%w: absence_of_aimless_fluctuations: window_size must be at least 2", ErrBadParams)
	}
	if len(p.Penalties) == 0 {
		return fmt.Errorf("%w: absence_of_aimless_fluctuations: penalties table is empty", ErrBadParams)
	}
	for k, v := range p.Penalties {
		if k < 0 || v < 0 {
			return fmt.Errorf("%w: absence_of_aimless_fluctuations: negative table entry", ErrBadParams)
		}
	}

	return nil
}

// evaluateAimlessFluctuations penalizes melodies hovering inside a narrow
// pitch range: every window of WindowSize successive notes whose range
// stays at or below a table key collects that key's penalty. The result is
// the negated average over all windows of all lines.
func evaluateAimlessFluctuations(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*AimlessFluctuationsParams)
	if !ok {
		return 0, fmt.Errorf("%w: absence_of_aimless_fluctuations: wrong parameter type", ErrBadParams)
	}

	sum, windows := 0.0, 0
	for li := range f.Lines {
		pitches := notePositions(&f.Lines[li])
		for i := 0; i+p.WindowSize <= len(pitches); i++ {
			lo, hi := pitches[i], pitches[i]
			for j := i + 1; j < i+p.WindowSize; j++ {
				if pitches[j] < lo {
					lo = pitches[j]
				}
				if pitches[j] > hi {
					hi = pitches[j]
				}
			}
			sum += largestApplicablePenalty(p.Penalties, float64(hi-lo))
			windows++
		}
	}
	if windows == 0 {
		return 0, nil
	}

	return -sum / float64(windows), nil
}

// ClimaxExplicityParams configures climax_explicity.
type ClimaxExplicityParams struct {
	// HeightPenalties maps the climax height (semitones above the line's
	// average pitch) to a penalty; a low climax collects the largest
	// applicable entry.
	HeightPenalties map[int]float64 `yaml:"height_penalties"`
	// DuplicationPenalty is charged per repeated occurrence of the peak.
	DuplicationPenalty float64 `yaml:"duplication_penalty"`
}

// Validate checks the tables.
func (p *ClimaxExplicityParams) Validate() error {
	if len(p.HeightPenalties) == 0 {
		return fmt.Errorf("%w: climax_explicity: height_penalties table is empty", ErrBadParams)
	}
	for k, v := range p.HeightPenalties {
		if k < 0 || v < 0 {
			return fmt.Errorf("%w: climax_explicity: negative table entry", ErrBadParams)
		}
	}
	if p.DuplicationPenalty < 0 {
		return fmt.Errorf("%w: climax_explicity: duplication_penalty must be non-negative", ErrBadParams)
	}

	return nil
}

// evaluateClimaxExplicity rewards a single, sufficiently high melodic peak
// per line: the height penalty is keyed by the peak's distance above the
// line's average pitch, and every extra occurrence of the peak charges
// DuplicationPenalty. Averaged over lines, negated.
func evaluateClimaxExplicity(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*ClimaxExplicityParams)
	if !ok {
		return 0, fmt.Errorf("%w: climax_explicity: wrong parameter type", ErrBadParams)
	}

	sum := 0.0
	for li := range f.Lines {
		pitches := notePositions(&f.Lines[li])
		if len(pitches) == 0 {
			return 0, fmt.Errorf("%w: climax_explicity: line %d has no notes", ErrScoring, f.Lines[li].ID)
		}
		climax, total := pitches[0], 0
		for _, pos := range pitches {
			total += pos
			if pos > climax {
				climax = pos
			}
		}
		average := float64(total) / float64(len(pitches))
		sum += largestApplicablePenalty(p.HeightPenalties, float64(climax)-average)

		occurrences := 0
		for _, pos := range pitches {
			if pos == climax {
				occurrences++
			}
		}
		sum += float64(occurrences-1) * p.DuplicationPenalty
	}

	return -sum / float64(len(f.Lines)), nil
}

// DirectionChangeParams configures direction_change_after_large_skip.
type DirectionChangeParams struct {
	// MinSkip is the smallest melodic interval (semitones) treated as a
	// skip that demands resolution.
	MinSkip int `yaml:"min_skip_in_semitones"`
	// MaxOppositeMove bounds the size of an acceptable opposite-direction
	// follow-up.
	MaxOppositeMove int `yaml:"max_opposite_move_in_semitones"`
	// LargeOppositePenalty is charged when the follow-up is opposite but
	// exceeds MaxOppositeMove; same-direction follow-ups charge 1.
	LargeOppositePenalty float64 `yaml:"large_opposite_move_relative_penalty"`
}

// Validate checks the bounds.
func (p *DirectionChangeParams) Validate() error {
	if p.MinSkip < 2 {
		return fmt.Errorf("%w: direction_change_after_large_skip: min_skip_in_semitones must be at least 2", ErrBadParams)
	}
	if p.MaxOppositeMove < 1 {
		return fmt.Errorf("%w: direction_change_after_large_skip: max_opposite_move_in_semitones must be positive", ErrBadParams)
	}
	if p.LargeOppositePenalty < 0 || p.LargeOppositePenalty > 1 {
		return fmt.Errorf("%w: direction_change_after_large_skip: relative penalty outside [0, 1]", ErrBadParams)
	}

	return nil
}

// evaluateDirectionChange demands that a large skip resolve by opposite,
// moderate motion. A skip followed by same-direction motion (or by a pause
// or the line end) charges 1; opposite motion wider than MaxOppositeMove
// charges LargeOppositePenalty. Normalized by the number of note pairs.
func evaluateDirectionChange(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*DirectionChangeParams)
	if !ok {
		return 0, fmt.Errorf("%w: direction_change_after_large_skip: wrong parameter type", ErrBadParams)
	}

	sum, pairs := 0.0, 0
	for li := range f.Lines {
		events := f.Lines[li].Events
		for i := 0; i+1 < len(events); i++ {
			first, second := &events[i], &events[i+1]
			if first.Pause || second.Pause {
				continue
			}
			pairs++
			skip := int(second.Position) - int(first.Position)
			if skip > -p.MinSkip && skip < p.MinSkip {
				continue
			}
			if i+2 >= len(events) || events[i+2].Pause {
				sum++

				continue
			}
			follow := int(events[i+2].Position) - int(second.Position)
			switch {
			case skip*follow > 0:
				sum++
			case follow < -p.MaxOppositeMove || follow > p.MaxOppositeMove:
				sum += p.LargeOppositePenalty
			}
		}
	}
	if pairs == 0 {
		return 0, nil
	}

	return -sum / float64(pairs), nil
}

// VoiceLeadingSmoothnessParams configures smoothness_of_voice_leading.
type VoiceLeadingSmoothnessParams struct {
	// Deduction is subtracted from each line's average penalty before
	// clipping at zero, so thinner motion tolerates an occasional leap.
	Deduction float64 `yaml:"penalty_deduction_per_line"`
	// Penalties maps a melodic interval in semitones to its penalty;
	// missing sizes cost 1.
	Penalties map[int]float64 `yaml:"n_semitones_to_penalty"`
}

// Validate checks the deduction and the table.
func (p *VoiceLeadingSmoothnessParams) Validate() error {
	if p.Deduction < 0 || p.Deduction >= 1 {
		return fmt.Errorf("%w: smoothness_of_voice_leading: penalty_deduction_per_line outside [0, 1)", ErrBadParams)
	}
	for k, v := range p.Penalties {
		if k < 0 || v < 0 {
			return fmt.Errorf("%w: smoothness_of_voice_leading: negative table entry", ErrBadParams)
		}
	}

	return nil
}

// evaluateVoiceLeadingSmoothness averages each line's per-interval penalty,
// deducts the per-line allowance, clips at zero, and rescales so the result
// stays in [-1, 0].
func evaluateVoiceLeadingSmoothness(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*VoiceLeadingSmoothnessParams)
	if !ok {
		return 0, fmt.Errorf("%w: smoothness_of_voice_leading: wrong parameter type", ErrBadParams)
	}

	sum := 0.0
	for li := range f.Lines {
		pitches := notePositions(&f.Lines[li])
		if len(pitches) < 2 {
			continue
		}
		lineSum := 0.0
		for i := 1; i < len(pitches); i++ {
			interval := pitches[i] - pitches[i-1]
			if interval < 0 {
				interval = -interval
			}
			lineSum += lookupPenalty(p.Penalties, interval, 1.0)
		}
		lineScore := -lineSum/float64(len(pitches)-1) + p.Deduction
		if lineScore < 0 {
			sum += lineScore
		}
	}

	return sum / (float64(len(f.Lines)) * (1 - p.Deduction)), nil
}

// PitchClassProminenceParams configures pitch_class_prominence.
type PitchClassProminenceParams struct {
	Positions `yaml:",inline"`
	// EventTypeToWeight weights a note's duration by its position type.
	EventTypeToWeight map[string]float64 `yaml:"event_type_to_weight"`
	// DefaultWeight applies to position types missing from the table.
	DefaultWeight float64 `yaml:"default_weight"`
	// Ranges maps a pitch-class name to its target [min, max] share of the
	// total prominence.
	Ranges map[string][]float64 `yaml:"pitch_class_to_prominence_range"`
}

// Validate checks the positions, the weights, and the target ranges.
func (p *PitchClassProminenceParams) Validate() error {
	if err := p.Positions.Validate(); err != nil {
		return err
	}
	for name, w := range p.EventTypeToWeight {
		if w < 0 {
			return fmt.Errorf("%w: pitch_class_prominence: negative weight for %q", ErrBadParams, name)
		}
	}
	if p.DefaultWeight < 0 {
		return fmt.Errorf("%w: pitch_class_prominence: default_weight must be non-negative", ErrBadParams)
	}
	if len(p.Ranges) == 0 {
		return fmt.Errorf("%w: pitch_class_prominence: no target ranges", ErrBadParams)
	}
	for name, rng := range p.Ranges {
		if _, err := tonerow.ParsePitchClass(name); err != nil {
			return fmt.Errorf("%w: pitch_class_prominence: %v", ErrBadParams, err)
		}
		if len(rng) != 2 || rng[0] < 0 || rng[0] > rng[1] {
			return fmt.Errorf("%w: pitch_class_prominence: range for %q must be [min, max] with 0 <= min <= max",
				ErrBadParams, name)
		}
	}

	return nil
}

// evaluatePitchClassProminence accumulates each pitch class's prominence as
// position-weighted duration, normalizes the shares, and penalizes the
// absolute deviation from every configured [min, max] target.
func evaluatePitchClassProminence(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*PitchClassProminenceParams)
	if !ok {
		return 0, fmt.Errorf("%w: pitch_class_prominence: wrong parameter type", ErrBadParams)
	}

	total := f.TotalBeats()
	var prominence [tonerow.PitchClassCount]float64
	grand := 0.0
	for li := range f.Lines {
		events := f.Lines[li].Events
		for i := range events {
			e := &events[i]
			if e.Pause {
				continue
			}
			weight, known := p.EventTypeToWeight[p.Positions.EventType(e, total)]
			if !known {
				weight = p.DefaultWeight
			}
			prominence[e.Class] += weight * e.Duration
			grand += weight * e.Duration
		}
	}
	if grand <= 0 {
		return 0, fmt.Errorf("%w: pitch_class_prominence: total prominence is zero", ErrScoring)
	}

	deviation := 0.0
	for name, rng := range p.Ranges {
		pc, err := tonerow.ParsePitchClass(name)
		if err != nil {
			return 0, fmt.Errorf("%w: pitch_class_prominence: %v", ErrBadParams, err)
		}
		share := prominence[pc] / grand
		if share < rng[0] {
			deviation += rng[0] - share
		} else if share > rng[1] {
			deviation += share - rng[1]
		}
	}

	return -deviation, nil
}

// LineDiatonicityParams configures local_diatonicity_at_line_level.
type LineDiatonicityParams struct {
	// Depth is the window length in successive events.
	Depth int `yaml:"depth"`
	// ScaleTypes selects the diatonic reference scales; empty selects the
	// default set.
	ScaleTypes []string `yaml:"scale_types"`
}

// Validate checks the depth and the scale types.
func (p *LineDiatonicityParams) Validate() error {
	if p.Depth < 2 {
		return fmt.Errorf("%w: local_diatonicity_at_line_level: depth must be at least 2", ErrBadParams)
	}
	if _, err := tonerow.NewScaleSet(p.ScaleTypes); err != nil {
		return fmt.Errorf("%w: local_diatonicity_at_line_level: %v", ErrBadParams, err)
	}

	return nil
}

// evaluateLineDiatonicity slides a window of Depth successive events along
// each line and measures how much of it the best-fitting scale covers;
// pauses dilute the coverage. The result is the average coverage minus one,
// so fully diatonic windows score 0.
func evaluateLineDiatonicity(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*LineDiatonicityParams)
	if !ok {
		return 0, fmt.Errorf("%w: local_diatonicity_at_line_level: wrong parameter type", ErrBadParams)
	}
	scales, err := tonerow.NewScaleSet(p.ScaleTypes)
	if err != nil {
		return 0, fmt.Errorf("%w: local_diatonicity_at_line_level: %v", ErrBadParams, err)
	}

	sum, windows := 0.0, 0
	classes := make([]tonerow.PitchClass, 0, p.Depth)
	for li := range f.Lines {
		events := f.Lines[li].Events
		for i := 0; i+p.Depth <= len(events); i++ {
			classes = classes[:0]
			for j := i; j < i+p.Depth; j++ {
				if !events[j].Pause {
					classes = append(classes, events[j].Class)
				}
			}
			hits, _ := tonerow.BestMatch(scales, classes)
			sum += float64(hits) / float64(p.Depth)
			windows++
		}
	}
	if windows == 0 {
		return 0, nil
	}

	return sum/float64(windows) - 1, nil
}

// IntervallicMotifParams configures presence_of_intervallic_motif.
type IntervallicMotifParams struct {
	// Motif is the directed interval sequence in semitones.
	Motif []int `yaml:"motif"`
	// Inversion, Reversion, and Elision enable the corresponding motif
	// modifications (negation, retrograde, single merged interval).
	Inversion bool `yaml:"inversion"`
	Reversion bool `yaml:"reversion"`
	Elision   bool `yaml:"elision"`
	// MinOccurrences is the per-line occurrence target, indexed like
	// Fragment.Lines.
	MinOccurrences []int `yaml:"min_n_occurrences"`
}

// Validate checks the motif and the per-line targets.
func (p *IntervallicMotifParams) Validate() error {
	if len(p.Motif) == 0 {
		return fmt.Errorf("%w: presence_of_intervallic_motif: motif is empty", ErrBadParams)
	}
	for _, iv := range p.Motif {
		if iv < -11 || iv > 11 {
			return fmt.Errorf("%w: presence_of_intervallic_motif: motif interval %d outside [-11, 11]",
				ErrBadParams, iv)
		}
	}
	if len(p.MinOccurrences) == 0 {
		return fmt.Errorf("%w: presence_of_intervallic_motif: min_n_occurrences is empty", ErrBadParams)
	}
	sum := 0
	for _, n := range p.MinOccurrences {
		if n < 0 {
			return fmt.Errorf("%w: presence_of_intervallic_motif: negative occurrence target", ErrBadParams)
		}
		sum += n
	}
	if sum == 0 {
		return fmt.Errorf("%w: presence_of_intervallic_motif: occurrence targets sum to zero", ErrBadParams)
	}

	return nil
}

// motifBreak separates unmatched stretches in an encoded interval string:
// pauses and out-of-range leaps encode to it, and no motif letter equals it.
const motifBreak = '|'

// intervalLetter encodes a directed interval in [-11, 11] as a letter in
// 'a'..'w'.
func intervalLetter(delta int) byte { return byte('a' + delta + 11) }

// encodeIntervals renders an interval sequence as a motif pattern string.
func encodeIntervals(intervals []int) string {
	out := make([]byte, len(intervals))
	for i, iv := range intervals {
		out[i] = intervalLetter(iv)
	}

	return string(out)
}

// encodeLineIntervals renders a line's successive melodic intervals; pairs
// broken by a pause or wider than 11 semitones encode as motifBreak.
func encodeLineIntervals(line *fragment.MelodicLine) string {
	if len(line.Events) < 2 {
		return ""
	}
	out := make([]byte, len(line.Events)-1)
	for i := 1; i < len(line.Events); i++ {
		prev, cur := &line.Events[i-1], &line.Events[i]
		delta := int(cur.Position) - int(prev.Position)
		if prev.Pause || cur.Pause || delta < -11 || delta > 11 {
			out[i-1] = motifBreak

			continue
		}
		out[i-1] = intervalLetter(delta)
	}

	return string(out)
}

// motifPatterns expands a motif into its enabled modifications and encodes
// each as a pattern string, deduplicated and sorted.
func motifPatterns(p *IntervallicMotifParams) []string {
	variants := [][]int{append([]int(nil), p.Motif...)}
	if p.Inversion {
		negated := make([]int, len(p.Motif))
		for i, iv := range p.Motif {
			negated[i] = -iv
		}
		variants = append(variants, negated)
	}
	if p.Reversion {
		// Retrograde of a melody reverses and negates its intervals.
		n := len(variants)
		for i := 0; i < n; i++ {
			src := variants[i]
			rev := make([]int, len(src))
			for j, iv := range src {
				rev[len(src)-1-j] = -iv
			}
			variants = append(variants, rev)
		}
	}
	if p.Elision {
		// Eliding one inner note merges its two surrounding intervals.
		n := len(variants)
		for i := 0; i < n; i++ {
			src := variants[i]
			for j := 0; j+1 < len(src); j++ {
				merged := src[j] + src[j+1]
				if merged < -11 || merged > 11 {
					continue
				}
				elided := make([]int, 0, len(src)-1)
				elided = append(elided, src[:j]...)
				elided = append(elided, merged)
				elided = append(elided, src[j+2:]...)
				variants = append(variants, elided)
			}
		}
	}

	seen := make(map[string]bool, len(variants))
	patterns := make([]string, 0, len(variants))
	for _, v := range variants {
		enc := encodeIntervals(v)
		if !seen[enc] {
			seen[enc] = true
			patterns = append(patterns, enc)
		}
	}
	sort.Strings(patterns)

	return patterns
}

// evaluateIntervallicMotif counts motif occurrences (including the enabled
// modifications) per line and penalizes the relative shortfall against the
// per-line targets.
func evaluateIntervallicMotif(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*IntervallicMotifParams)
	if !ok {
		return 0, fmt.Errorf("%w: presence_of_intervallic_motif: wrong parameter type", ErrBadParams)
	}
	if len(p.MinOccurrences) != len(f.Lines) {
		return 0, fmt.Errorf("%w: presence_of_intervallic_motif: %d occurrence targets for %d lines",
			ErrScoring, len(p.MinOccurrences), len(f.Lines))
	}

	patterns := motifPatterns(p)
	lack, target := 0, 0
	for li := range f.Lines {
		encoded := encodeLineIntervals(&f.Lines[li])
		count := 0
		for _, pattern := range patterns {
			count += strings.Count(encoded, pattern)
		}
		if count < p.MinOccurrences[li] {
			lack += p.MinOccurrences[li] - count
		}
		target += p.MinOccurrences[li]
	}

	return -float64(lack) / float64(target), nil
}

// StackabilityParams configures stackability.
type StackabilityParams struct {
	// Penalties maps the interval between a line's last and first notes to
	// a penalty; missing sizes cost 1.
	Penalties map[int]float64 `yaml:"n_semitones_to_penalty"`
}

// Validate checks the table.
func (p *StackabilityParams) Validate() error {
	for k, v := range p.Penalties {
		if k < 0 || v < 0 {
			return fmt.Errorf("%w: stackability: negative table entry", ErrBadParams)
		}
	}

	return nil
}

// evaluateStackability judges how well the fragment chains after itself:
// per line, the interval from its last note back to its first note collects
// a penalty. Averaged over lines, negated.
func evaluateStackability(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*StackabilityParams)
	if !ok {
		return 0, fmt.Errorf("%w: stackability: wrong parameter type", ErrBadParams)
	}

	sum := 0.0
	for li := range f.Lines {
		pitches := notePositions(&f.Lines[li])
		if len(pitches) == 0 {
			return 0, fmt.Errorf("%w: stackability: line %d has no notes", ErrScoring, f.Lines[li].ID)
		}
		interval := pitches[0] - pitches[len(pitches)-1]
		if interval < 0 {
			interval = -interval
		}
		sum += lookupPenalty(p.Penalties, interval, 1.0)
	}

	return -sum / float64(len(f.Lines)), nil
}

// TransitionsParams configures transitions.
type TransitionsParams struct {
	// LeftEndNotes are the previous fragment's final notes per line
	// (scientific names); empty skips the left side.
	LeftEndNotes []string `yaml:"left_end_notes"`
	// RightEndNotes are the next fragment's opening notes per line; empty
	// skips the right side.
	RightEndNotes []string `yaml:"right_end_notes"`
	// Penalties maps the transition interval to a penalty; missing sizes
	// cost 1.
	Penalties map[int]float64 `yaml:"n_semitones_to_penalty"`
}

// Validate checks that at least one side is declared and parses the notes.
func (p *TransitionsParams) Validate() error {
	if len(p.LeftEndNotes) == 0 && len(p.RightEndNotes) == 0 {
		return fmt.Errorf("%w: transitions: declare left_end_notes, right_end_notes, or both", ErrBadParams)
	}
	for _, name := range p.LeftEndNotes {
		if _, err := tonerow.ParsePosition(name); err != nil {
			return fmt.Errorf("%w: transitions: %v", ErrBadParams, err)
		}
	}
	for _, name := range p.RightEndNotes {
		if _, err := tonerow.ParsePosition(name); err != nil {
			return fmt.Errorf("%w: transitions: %v", ErrBadParams, err)
		}
	}
	for k, v := range p.Penalties {
		if k < 0 || v < 0 {
			return fmt.Errorf("%w: transitions: negative table entry", ErrBadParams)
		}
	}

	return nil
}

// evaluateTransitions penalizes rough joins between this fragment and its
// declared neighbors: the interval from each line's first note back to the
// previous fragment's final note, and from its last note to the next
// fragment's opening note.
func evaluateTransitions(f *fragment.Fragment, params Params) (float64, error) {
	p, ok := params.(*TransitionsParams)
	if !ok {
		return 0, fmt.Errorf("%w: transitions: wrong parameter type", ErrBadParams)
	}
	sides := 0
	if len(p.LeftEndNotes) > 0 {
		if len(p.LeftEndNotes) != len(f.Lines) {
			return 0, fmt.Errorf("%w: transitions: %d left end notes for %d lines",
				ErrScoring, len(p.LeftEndNotes), len(f.Lines))
		}
		sides++
	}
	if len(p.RightEndNotes) > 0 {
		if len(p.RightEndNotes) != len(f.Lines) {
			return 0, fmt.Errorf("%w: transitions: %d right end notes for %d lines",
				ErrScoring, len(p.RightEndNotes), len(f.Lines))
		}
		sides++
	}

	sum := 0.0
	for li := range f.Lines {
		pitches := notePositions(&f.Lines[li])
		if len(pitches) == 0 {
			return 0, fmt.Errorf("%w: transitions: line %d has no notes", ErrScoring, f.Lines[li].ID)
		}
		if len(p.LeftEndNotes) > 0 {
			pos, err := tonerow.ParsePosition(p.LeftEndNotes[li])
			if err != nil {
				return 0, fmt.Errorf("%w: transitions: %v", ErrBadParams, err)
			}
			interval := pitches[0] - int(pos)
			if interval < 0 {
				interval = -interval
			}
			sum += lookupPenalty(p.Penalties, interval, 1.0)
		}
		if len(p.RightEndNotes) > 0 {
			pos, err := tonerow.ParsePosition(p.RightEndNotes[li])
			if err != nil {
				return 0, fmt.Errorf("%w: transitions: %v", ErrBadParams, err)
			}
			interval := int(pos) - pitches[len(pitches)-1]
			if interval < 0 {
				interval = -interval
			}
			sum += lookupPenalty(p.Penalties, interval, 1.0)
		}
	}

	return -sum / float64(len(f.Lines)*sides), nil
}
