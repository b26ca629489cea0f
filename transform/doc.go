// Package transform implements the structural edits the optimizer samples
// to move through fragment space, plus the weighted sampler that applies
// them.
//
// Overview:
//
//	Every transformation is an atomic edit on a *fragment.Fragment owned by
//	one trial: it either applies fully or leaves the fragment untouched and
//	reports fragment.ErrStructure ("no legal move"), letting the sampler
//	redraw. Derived state is refreshed once, after the sampled sequence,
//	not per edit.
//
// The canonical set:
//
//   - inversion, reversion, rotation, transposition: rewrite one random
//     independent tone-row instance in place; dependent instances follow on
//     refresh.
//   - measure_durations_change: replace one measure's duration split with a
//     different admissible split of the same event count.
//   - line_durations_change: resample a whole line's temporal content
//     (counts, splits, mutable pauses).
//   - crossmeasure_event_transfer: move one event across an adjacent
//     measure boundary, re-drawing both splits.
//   - pause_shift: swap a movable pause with an adjacent note.
//   - pause_swap: relocate a movable pause to a random note index.
//
// Immutable pauses, frozen lines, and frozen instances are never touched.
//
// The sampler draws names from a validated probability distribution,
// retries structural dead ends up to a caller-provided cap, and finishes
// with Refresh + Validate so no invalid fragment ever escapes.
package transform
