// Package tonerow - diatonic scale membership tables.
//
// Scales are represented as 12-bit masks over pitch classes, one mask per
// (tonic, scale type) pair. The local-diatonicity heuristics only ever ask
// "which known scale covers the largest share of this window", so masks keep
// the hot loop branch-free and allocation-free.
package tonerow

import (
	"fmt"
	"sort"
	"strings"
)

// scalePatterns lists the semitone offsets from the tonic for every
// supported scale type.
var scalePatterns = map[string][]int{
	"major":          {0, 2, 4, 5, 7, 9, 11},
	"natural_minor":  {0, 2, 3, 5, 7, 8, 10},
	"harmonic_minor": {0, 2, 3, 5, 7, 8, 11},
	"dorian":         {0, 2, 3, 5, 7, 9, 10},
	"phrygian":       {0, 1, 3, 5, 7, 8, 10},
	"lydian":         {0, 2, 4, 6, 7, 9, 11},
	"mixolydian":     {0, 2, 4, 5, 7, 9, 10},
	"locrian":        {0, 1, 3, 5, 6, 8, 10},
	"whole_tone":     {0, 2, 4, 6, 8, 10},
}

// DefaultScaleTypes is the scale-type selection used by the diatonicity
// heuristics when a configuration does not name its own.
var DefaultScaleTypes = []string{"major", "harmonic_minor", "whole_tone"}

// ScaleTypeNames returns the supported scale-type names in sorted order.
func ScaleTypeNames() []string {
	names := make([]string, 0, len(scalePatterns))
	for name := range scalePatterns {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Scale is one concrete diatonic (or whole-tone) scale: a tonic plus a type,
// e.g. "C-major". Membership tests are O(1) bit probes.
type Scale struct {
	// Name is "<tonic>-<type>", e.g. "G#-harmonic_minor".
	Name string

	mask uint16
}

// Contains reports whether pc belongs to the scale.
//
// Complexity: O(1).
func (s Scale) Contains(pc PitchClass) bool {
	return pc.Valid() && s.mask&(1<<uint(pc)) != 0
}

// NewScaleSet builds every scale of the requested types across all 12
// tonics (12 scales per type). Passing no types selects DefaultScaleTypes.
//
// Errors: ErrBadScale on an unknown type name.
//
// Complexity: O(types * 12).
func NewScaleSet(types []string) ([]Scale, error) {
	if len(types) == 0 {
		types = DefaultScaleTypes
	}

	scales := make([]Scale, 0, len(types)*PitchClassCount)
	for _, typ := range types {
		name := strings.TrimSpace(strings.ToLower(typ))
		pattern, ok := scalePatterns[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q (known: %s)",
				ErrBadScale, typ, strings.Join(ScaleTypeNames(), ", "))
		}
		for tonic := 0; tonic < PitchClassCount; tonic++ {
			var mask uint16
			for _, offset := range pattern {
				mask |= 1 << uint((tonic+offset)%PitchClassCount)
			}
			scales = append(scales, Scale{
				Name: fmt.Sprintf("%s-%s", PitchClass(tonic), name),
				mask: mask,
			})
		}
	}

	return scales, nil
}

// BestMatch returns the largest number of classes (with multiplicity)
// covered by any single scale of the set, together with that scale's name.
// Ties keep the earliest scale. An empty window or an empty set yields 0
// and an empty name.
//
// Complexity: O(len(scales) * len(classes)).
func BestMatch(scales []Scale, classes []PitchClass) (int, string) {
	if len(classes) == 0 || len(scales) == 0 {
		return 0, ""
	}

	bestCount, bestName := -1, ""
	for _, s := range scales {
		count := 0
		for _, pc := range classes {
			if s.Contains(pc) {
				count++
			}
		}
		if count > bestCount {
			bestCount, bestName = count, s.Name
		}
	}

	return bestCount, bestName
}
