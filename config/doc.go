// Package config loads and compiles YAML run configurations.
//
// A configuration file has five top-level sections:
//
//	fragment:      tone row, meter, measure count, register, lines, groups
//	scoring_sets:  named scoring sets: function, weight curve, parameters
//	evaluation:    the active scoring set names
//	optimization:  search options (iterations, trials, beam, neighborhoods)
//	rendering:     playback and engraving options
//
// Load (or Parse) decodes a file strictly, rejecting unknown keys. Build
// compiles the declarative form into the typed inputs of the fragment,
// scoring, vns and render packages: omitted optimization and rendering
// fields fall back to those packages' defaults, scoring function
// parameters are decoded over registry prototypes so that documented
// defaults survive partial configuration, and everything checkable
// without a concrete fragment is validated up front.
//
// Errors: every failure wraps ErrConfiguration together with the finer
// sentinel of the package that rejected the value, so callers can branch
// with errors.Is on either.
package config
