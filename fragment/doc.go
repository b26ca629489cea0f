// Package fragment implements the unit under optimization: a dodecaphonic
// fragment made of melodic lines, groups, tone-row instances, and a
// measure-level rhythm model with strict structural invariants.
//
// Overview:
//
//   - An Instance is one concrete 12-class copy of the tone row, either
//     independent (derived from the row by a Transform and mutable by the
//     optimizer) or dependent (always the stated Transform of another
//     instance, recomputed whenever the source changes). All instances live
//     in a fragment-level arena; dependences form a DAG and are propagated
//     in a fixed topological evaluation order.
//   - A Group is a set of melodic lines sharing one ordered sequence of
//     instances. Every line of the group sounds the complete shared
//     sequence, so a line with K instances carries exactly 12*K note
//     events.
//   - A MelodicLine owns its rhythm: one admissible duration split per
//     measure (drawn from the fragment's split vocabulary) plus a fixed
//     number of pauses at explicit event indices, a subset of which is
//     immutable and can never be moved.
//   - Derived state (event start times, bound pitch classes, octave
//     registers, sonorities) is recomputed by Refresh after any structural
//     edit and re-checked by Validate.
//
// Structural invariants (checked by Validate):
//
//  1. note events per line == 12 * instances of its group;
//  2. pitch classes of a line's notes, in order, equal the concatenation of
//     the group's instance sequences;
//  3. every measure's durations sum exactly to the meter's measure length
//     and form a multiset present in the split vocabulary;
//  4. the pause count and the immutable pause positions of a line never
//     change.
//
// All durations are multiples of 1/4 beat, hence exact binary fractions:
// measure sums compare exactly in float64, no epsilon anywhere.
//
// Construction goes through Initialize (random but valid, driven by a
// caller-owned *rand.Rand) and mutation goes through Clone + the transform
// package. Errors follow the package sentinels in types.go and are
// comparable with errors.Is.
package fragment
