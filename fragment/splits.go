// Package fragment - the measure split vocabulary.
//
// A split is the multiset of event durations filling one measure. The
// vocabulary enumerates every admissible split once, in a canonical
// (descending) order, and answers three questions for the initializer and
// the rhythm transformations: membership, available event counts, and
// random draws. Durations are multiples of 1/4 beat, so splits are encoded
// as integer quarter-units and multiset keys compare exactly.
package fragment

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

// SupportedDurations lists every event duration (in beats) the model can
// express, matching the values a notation back end can render.
var SupportedDurations = []float64{0.25, 0.5, 0.75, 1.0, 1.5, 2.0, 3.0, 4.0, 6.0}

// quarterUnits converts a duration in beats to integer quarter-beat units.
// ok is false when d is not a positive multiple of 1/4.
func quarterUnits(d float64) (int, bool) {
	u := math.Round(d * 4)
	if u < 1 || math.Abs(d*4-u) > 1e-9 {
		return 0, false
	}

	return int(u), true
}

// splitKey returns the canonical multiset key of a duration list: the
// quarter-unit values sorted descending, comma-joined.
func splitKey(units []int) string {
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = strconv.Itoa(u)
	}

	return strings.Join(parts, ",")
}

// SplitVocabulary is the enumerated set of admissible measure splits.
// Immutable after construction and safe for concurrent readers, so clones
// of a fragment share one instance.
type SplitVocabulary struct {
	measureLen float64
	// splits holds each admissible split canonically (descending beats).
	splits [][]float64
	// byCount maps an event count to the indices of splits with that count.
	byCount map[int][]int
	// keys indexes splits by canonical multiset key.
	keys map[string]int
	// counts lists the distinct available event counts, ascending.
	counts []int
}

// NewSplitVocabulary builds the vocabulary for one measure length.
//
//   - durations restricts the duration values; empty selects
//     SupportedDurations.
//   - explicit, when non-empty, enumerates the vocabulary verbatim (each
//     split must use allowed durations and sum exactly to measureLen);
//     otherwise every multiset over the allowed durations that fills a
//     measure is enumerated.
//
// Errors: ErrBadParams on an invalid measure length, duration value, or
// explicit split; also when nothing fills a measure.
//
// Complexity: enumeration is exponential in the measure length in the worst
// case, but runs once per fragment lifetime on small inputs (a 4-beat
// measure over the default durations yields a few hundred splits).
func NewSplitVocabulary(measureLen float64, durations []float64, explicit [][]float64) (*SplitVocabulary, error) {
	measureUnits, ok := quarterUnits(measureLen)
	if !ok {
		return nil, fmt.Errorf("%w: measure length %v is not a positive multiple of 1/4",
			ErrBadParams, measureLen)
	}

	if len(durations) == 0 {
		durations = SupportedDurations
	}
	allowed := make(map[int]bool, len(durations))
	units := make([]int, 0, len(durations))
	for _, d := range durations {
		u, uok := quarterUnits(d)
		if !uok {
			return nil, fmt.Errorf("%w: duration %v is not a positive multiple of 1/4",
				ErrBadParams, d)
		}
		if u <= measureUnits && !allowed[u] {
			allowed[u] = true
			units = append(units, u)
		}
	}
	if len(units) == 0 {
		return nil, fmt.Errorf("%w: no usable durations for measure length %v",
			ErrBadParams, measureLen)
	}
	// Descending order keeps enumeration canonical.
	sort.Sort(sort.Reverse(sort.IntSlice(units)))

	v := &SplitVocabulary{
		measureLen: measureLen,
		byCount:    make(map[int][]int),
		keys:       make(map[string]int),
	}

	if len(explicit) > 0 {
		for _, split := range explicit {
			su := make([]int, len(split))
			total := 0
			for i, d := range split {
				u, uok := quarterUnits(d)
				if !uok || !allowed[u] {
					return nil, fmt.Errorf("%w: explicit split %v uses unsupported duration %v",
						ErrBadParams, split, d)
				}
				su[i] = u
				total += u
			}
			if total != measureUnits {
				return nil, fmt.Errorf("%w: explicit split %v sums to %v, want %v",
					ErrBadParams, split, float64(total)/4, measureLen)
			}
			sort.Sort(sort.Reverse(sort.IntSlice(su)))
			v.add(su)
		}
	} else {
		// Enumerate descending multisets summing to the measure.
		stack := make([]int, 0, measureUnits)
		var walk func(remaining, from int)
		walk = func(remaining, from int) {
			if remaining == 0 {
				v.add(append([]int(nil), stack...))

				return
			}
			for i := from; i < len(units); i++ {
				if units[i] > remaining {
					continue
				}
				stack = append(stack, units[i])
				walk(remaining-units[i], i)
				stack = stack[:len(stack)-1]
			}
		}
		walk(measureUnits, 0)
	}

	if len(v.splits) == 0 {
		return nil, fmt.Errorf("%w: no admissible split fills a %v-beat measure",
			ErrBadParams, measureLen)
	}
	for count := range v.byCount {
		v.counts = append(v.counts, count)
	}
	sort.Ints(v.counts)

	return v, nil
}

// add records one canonical (descending units) split, ignoring duplicates.
func (v *SplitVocabulary) add(units []int) {
	key := splitKey(units)
	if _, dup := v.keys[key]; dup {
		return
	}

	split := make([]float64, len(units))
	for i, u := range units {
		split[i] = float64(u) / 4
	}
	v.keys[key] = len(v.splits)
	v.splits = append(v.splits, split)
	v.byCount[len(split)] = append(v.byCount[len(split)], len(v.splits)-1)
}

// MeasureLen returns the measure length in beats.
func (v *SplitVocabulary) MeasureLen() float64 { return v.measureLen }

// Size returns the number of admissible splits.
func (v *SplitVocabulary) Size() int { return len(v.splits) }

// Counts returns the distinct available event counts, ascending. The caller
// must not mutate the returned slice.
func (v *SplitVocabulary) Counts() []int { return v.counts }

// CountRange returns the smallest and largest available event counts.
func (v *SplitVocabulary) CountRange() (minCount, maxCount int) {
	return v.counts[0], v.counts[len(v.counts)-1]
}

// Contains reports whether durations form an admissible split (multiset
// membership, order-insensitive).
//
// Complexity: O(n log n) for the canonicalization.
func (v *SplitVocabulary) Contains(durations []float64) bool {
	units := make([]int, len(durations))
	for i, d := range durations {
		u, ok := quarterUnits(d)
		if !ok {
			return false
		}
		units[i] = u
	}
	sort.Sort(sort.Reverse(sort.IntSlice(units)))
	_, ok := v.keys[splitKey(units)]

	return ok
}

// Random draws an admissible split with exactly count events and returns
// its durations in a fresh slice, shuffled into a random playing order.
//
// Errors: ErrStructure when no split has the requested count.
func (v *SplitVocabulary) Random(count int, rng *rand.Rand) ([]float64, error) {
	indices, ok := v.byCount[count]
	if !ok {
		return nil, fmt.Errorf("%w: no %d-event split fills a %v-beat measure",
			ErrStructure, count, v.measureLen)
	}

	split := v.splits[indices[int(rng.Int63n(int64(len(indices))))]]
	out := make([]float64, len(split))
	copy(out, split)
	shuffleFloatsInPlace(out, rng)

	return out, nil
}

// RandomOther draws an admissible split with the same event count as
// current but a different duration multiset.
//
// Errors: ErrStructure when current's multiset is the only one of its
// count.
func (v *SplitVocabulary) RandomOther(current []float64, rng *rand.Rand) ([]float64, error) {
	units := make([]int, len(current))
	for i, d := range current {
		u, ok := quarterUnits(d)
		if !ok {
			return nil, fmt.Errorf("%w: current split %v is not expressible", ErrStructure, current)
		}
		units[i] = u
	}
	sort.Sort(sort.Reverse(sort.IntSlice(units)))
	currentIdx, known := v.keys[splitKey(units)]

	indices := v.byCount[len(current)]
	candidates := make([]int, 0, len(indices))
	for _, idx := range indices {
		if !known || idx != currentIdx {
			candidates = append(candidates, idx)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no alternative %d-event split", ErrStructure, len(current))
	}

	split := v.splits[candidates[int(rng.Int63n(int64(len(candidates))))]]
	out := make([]float64, len(split))
	copy(out, split)
	shuffleFloatsInPlace(out, rng)

	return out, nil
}

// shuffleFloatsInPlace is an in-place Fisher-Yates shuffle driven by rng.
//
// Complexity: O(n).
func shuffleFloatsInPlace(a []float64, rng *rand.Rand) {
	for i := len(a) - 1; i > 0; i-- {
		j := int(rng.Int63n(int64(i + 1)))
		a[i], a[j] = a[j], a[i]
	}
}
