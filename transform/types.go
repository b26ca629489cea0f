// Package transform - registry, options, and sentinel errors.
package transform

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/katalvlaran/dodecaphony/fragment"
)

// Transformation names as they appear in configurations and logs.
const (
	NameInversion                 = "inversion"
	NameReversion                 = "reversion"
	NameRotation                  = "rotation"
	NameTransposition             = "transposition"
	NameMeasureDurationsChange    = "measure_durations_change"
	NameLineDurationsChange       = "line_durations_change"
	NameCrossmeasureEventTransfer = "crossmeasure_event_transfer"
	NamePauseShift                = "pause_shift"
	NamePauseSwap                 = "pause_swap"
)

// Sentinel errors of the transform package.
//
// Classification: both are configuration-time errors surfaced before any
// search; structural dead ends during search reuse fragment.ErrStructure.
var (
	// ErrUnknownName is returned when a probability table or lookup names
	// a transformation outside the registry.
	ErrUnknownName = errors.New("transform: unknown transformation name")

	// ErrBadOptions is returned when Options fail validation.
	ErrBadOptions = errors.New("transform: invalid options")
)

// Func is one atomic structural edit. Implementations either apply fully or
// leave f untouched and report fragment.ErrStructure; they never refresh
// derived state themselves.
type Func func(f *fragment.Fragment, rng *rand.Rand) error

// Options bound the random parameter draws of the pitch transformations.
//
// Usage:
//
//	opts := transform.DefaultOptions()
//	opts.MaxTransposition = 4
//	reg, err := transform.NewRegistry(opts)
type Options struct {
	// MaxTransposition bounds the random transposition shift: a non-zero
	// value in [-MaxTransposition, MaxTransposition] semitones. Must be in
	// 1..11.
	MaxTransposition int

	// MaxRotation bounds the random rotation: a non-zero value in
	// [-MaxRotation, MaxRotation] positions. Must be in 1..11.
	MaxRotation int
}

// DefaultOptions returns the bounds used when a configuration does not set
// its own: modest shifts that keep trials close to their parents.
func DefaultOptions() Options {
	return Options{MaxTransposition: 2, MaxRotation: 2}
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	if o.MaxTransposition < 1 || o.MaxTransposition > 11 {
		return fmt.Errorf("%w: MaxTransposition %d outside 1..11", ErrBadOptions, o.MaxTransposition)
	}
	if o.MaxRotation < 1 || o.MaxRotation > 11 {
		return fmt.Errorf("%w: MaxRotation %d outside 1..11", ErrBadOptions, o.MaxRotation)
	}

	return nil
}

// Registry maps transformation names to implementations, with the pitch
// bounds baked in at construction. Immutable afterwards and safe for
// concurrent use.
type Registry struct {
	byName map[string]Func
	names  []string
}

// NewRegistry builds the canonical registry under opts.
//
// Errors: ErrBadOptions via opts.Validate.
func NewRegistry(opts Options) (*Registry, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	r := &Registry{byName: map[string]Func{
		NameInversion:                 invertInstance,
		NameReversion:                 revertInstance,
		NameRotation:                  rotateInstance(opts.MaxRotation),
		NameTransposition:             transposeInstance(opts.MaxTransposition),
		NameMeasureDurationsChange:    measureDurationsChange,
		NameLineDurationsChange:       lineDurationsChange,
		NameCrossmeasureEventTransfer: crossmeasureEventTransfer,
		NamePauseShift:                pauseShift,
		NamePauseSwap:                 pauseSwap,
	}}
	for name := range r.byName {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)

	return r, nil
}

// Names returns the registered transformation names, sorted. The caller
// must not mutate the returned slice.
func (r *Registry) Names() []string { return r.names }

// Lookup resolves a transformation by name.
//
// Errors: ErrUnknownName.
func (r *Registry) Lookup(name string) (Func, error) {
	fn, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}

	return fn, nil
}
