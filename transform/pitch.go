// Package transform - pitch transformations on tone-row instances.
//
// Each edit picks one independent, non-frozen instance uniformly at random
// and rewrites its class sequence in place. Dependent instances and
// line-level pitch bindings catch up on the sampler's final refresh.
package transform

import (
	"fmt"
	"math/rand"

	"github.com/katalvlaran/dodecaphony/fragment"
	"github.com/katalvlaran/dodecaphony/tonerow"
)

// pickInstance selects a uniformly random mutable instance index.
//
// Errors: fragment.ErrStructure when every instance is dependent or frozen.
func pickInstance(f *fragment.Fragment, rng *rand.Rand) (int, error) {
	candidates := f.IndependentInstances()
	if len(candidates) == 0 {
		return 0, fmt.Errorf("%w: no independent instance to transform", fragment.ErrStructure)
	}

	return candidates[int(rng.Int63n(int64(len(candidates))))], nil
}

// rewriteInstance applies tr to one random instance's current classes.
func rewriteInstance(f *fragment.Fragment, rng *rand.Rand, tr tonerow.Transform) error {
	idx, err := pickInstance(f, rng)
	if err != nil {
		return err
	}

	classes, err := tonerow.Apply(f.Arena[idx].Classes, tr)
	if err != nil {
		return err
	}
	f.Arena[idx].Classes = classes

	return nil
}

// invertInstance reflects one instance around its first class.
func invertInstance(f *fragment.Fragment, rng *rand.Rand) error {
	return rewriteInstance(f, rng, tonerow.Transform{Kind: tonerow.Inversion})
}

// revertInstance plays one instance backwards.
func revertInstance(f *fragment.Fragment, rng *rand.Rand) error {
	return rewriteInstance(f, rng, tonerow.Transform{Kind: tonerow.Reversion})
}

// rotateInstance cyclically shifts one instance by a random non-zero amount
// in [-max, max].
func rotateInstance(max int) Func {
	return func(f *fragment.Fragment, rng *rand.Rand) error {
		return rewriteInstance(f, rng, tonerow.Transform{Rotation: randomNonZero(max, rng)})
	}
}

// transposeInstance shifts one instance by a random non-zero amount of
// semitones in [-max, max].
func transposeInstance(max int) Func {
	return func(f *fragment.Fragment, rng *rand.Rand) error {
		return rewriteInstance(f, rng, tonerow.Transform{
			Kind:  tonerow.Transposition,
			Shift: randomNonZero(max, rng),
		})
	}
}

// randomNonZero draws uniformly from {-max..-1, 1..max}.
func randomNonZero(max int, rng *rand.Rand) int {
	n := 1 + int(rng.Int63n(int64(max)))
	if rng.Int63n(2) == 1 {
		n = -n
	}

	return n
}
