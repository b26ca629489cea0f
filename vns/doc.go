// Package vns optimizes dodecaphonic fragments with a variable neighborhood
// search over the transformation space, keeping a beam of incumbent
// solutions.
//
// Overview:
//
//	The search state is a beam of exactly BeamWidth fragments, seeded with
//	clones of the initial fragment and ranked by aggregate score (ties go to
//	the earliest-inserted member). Neighborhoods form an ordered ladder of
//	increasing perturbation strength; each rung fixes how many
//	transformations a trial applies and the probability distribution the
//	transformations are drawn from.
//
// One outer iteration:
//
//  1. Run the current neighborhood: generate NTrialsPerIteration trials,
//     each a clone of a beam member (round-robin over the beam) edited by
//     the rung's transformations and re-scored. Trials that exhaust their
//     retry budget or fail scoring are recorded as failed and excluded.
//  2. Scan the trials in order; every trial strictly better than the
//     current worst beam member replaces it. Any insertion restarts the
//     ladder from the first rung, otherwise the search climbs to the next
//     rung.
//  3. The iteration ends once a full pass over the ladder yields no
//     insertion. If the whole iteration inserted nothing, the configured
//     perturbation shakes one random non-best beam member in place.
//
// Concurrency and determinism:
//
//	Trials within a neighborhood step are independent clone → transform →
//	validate → score pipelines, fanned out over an errgroup bounded by
//	Workers. Every trial derives its own RNG from the base seed and the
//	trial's (iteration, step, trial) coordinates via a SplitMix64 mix, so a
//	run is reproducible for a given seed regardless of worker count or
//	scheduling. Beam updates happen single-threaded between steps.
//
// Observability:
//
//	An optional zap logger receives one INFO record per outer iteration and
//	a DEBUG record per neighborhood step, each tagged with a generated run
//	id. A nil logger disables logging entirely.
package vns
