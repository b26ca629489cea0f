// Package scoring evaluates fragments against pluggable musical-quality
// heuristics and aggregates their verdicts into the single number the
// optimizer maximizes.
//
// Overview:
//
//	A scoring function is a pure function of a fragment and its typed
//	parameters, returning a raw score, typically in [-1, 0] where 0 means
//	"no penalty". A configured member pairs a function with a
//	piecewise-linear weight curve; the adjusted score is the curve applied
//	to the raw score, and the aggregate is the plain sum of adjusted scores
//	over every member of every active set.
//
// Roster:
//
//   - melodic (per line): aimless-fluctuation windows, climax explicitness,
//     direction change after large skips, voice-leading smoothness,
//     pitch-class prominence, local diatonicity, intervallic motifs,
//     stackability, transitions between fragments.
//   - harmonic (over sonorities): doubled pitch classes, false octaves,
//     simultaneous skips, voice crossing, dissonance preparation and
//     resolution, harmonic stability by position and by time interval,
//     diatonicity across lines, motion into perfect consonances, movement
//     into the final sonority, banned classes per line, vertical interval
//     stacks, sonic intensity.
//   - rhythmic: cadence duration, split consistency, cross-measure
//     homogeneity, required pause windows, onset intensity decay.
//
// Failure semantics:
//
//	A function that cannot evaluate a degenerate fragment reports
//	ErrScoring; Evaluate wraps it with the set and member names. The
//	optimizer turns such trials into the worst possible score instead of
//	crashing the run.
//
// Construction:
//
//	NewRegistry returns the static name-to-implementation table. Parameter
//	prototypes come from Registry.NewParams, carry the documented defaults,
//	and decode in place from configuration, so an omitted field keeps its
//	default.
package scoring
