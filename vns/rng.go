// Package vns - deterministic RNG derivation.
//
// This file centralizes random generation for the search so that one base
// seed reproduces a whole run bit-for-bit, independent of worker count and
// goroutine scheduling.
//
// Scheme:
//   - Every trial owns a private *rand.Rand seeded from the base seed and
//     the trial's coordinates (iteration, global step, trial index) through
//     a SplitMix64-style mix, so a trial's randomness never depends on
//     which worker ran it or in what order.
//   - A dedicated driver stream, derived from the base seed alone, covers
//     the few single-threaded decisions of the loop itself (perturbation
//     targets and edits).
//
// math/rand.Rand is not goroutine-safe; none of the generators built here
// are ever shared across goroutines.
package vns

import "math/rand"

// defaultSeed is the fixed seed used when callers pass Seed==0. Arbitrary
// but stable, to keep reproducible defaults.
const defaultSeed int64 = 1

// driverStream tags the loop-level RNG so it never collides with a trial
// stream (trial coordinates are small non-negative numbers).
const driverStream uint64 = 0xd1ce

// mixSeed folds a stream identifier into a parent seed with a
// SplitMix64-style avalanche mix (Vigna 2014 constants), so near-identical
// inputs still produce well-distributed, uncorrelated outputs.
//
// Complexity: O(1).
func mixSeed(parent int64, stream uint64) int64 {
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31

	return int64(x)
}

// normalizeSeed applies the seed==0 policy.
func normalizeSeed(seed int64) int64 {
	if seed == 0 {
		return defaultSeed
	}

	return seed
}

// trialSeed derives the seed of one trial from the base seed and the
// trial's coordinates, folding one axis at a time. Distinct
// (iteration, step, trial) triples yield independent streams.
//
// Complexity: O(1).
func trialSeed(base int64, iteration, step, trial int) int64 {
	s := mixSeed(base, uint64(iteration))
	s = mixSeed(s, uint64(step))

	return mixSeed(s, uint64(trial))
}

// trialRNG returns the private generator of one trial.
func trialRNG(base int64, iteration, step, trial int) *rand.Rand {
	return rand.New(rand.NewSource(trialSeed(base, iteration, step, trial)))
}

// driverRNG returns the loop-level generator of a run.
func driverRNG(base int64) *rand.Rand {
	return rand.New(rand.NewSource(mixSeed(base, driverStream)))
}
