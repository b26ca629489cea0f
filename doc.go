// Package dodecaphony is your in-memory workshop for composing, scoring,
// and optimizing twelve-tone musical fragments — from tone-row primitives
// to neighborhood search and sheet-music rendering.
//
// 🚀 What is dodecaphony?
//
//	A deterministic, concurrency-friendly toolkit that brings together:
//		• Tone rows: the twelve pitch classes and their serial transforms
//		• Fragments: melodic lines carved into measures over a shared arena
//		• Transforms: rhythm, pitch and row-instance mutations of a fragment
//		• Scoring: weighted evaluation functions with tunable control curves
//		• Search: variable neighborhood search over a beam of incumbents
//		• Rendering: MIDI, Lilypond, TSV and YAML views of the winners
//
// ✨ Why choose dodecaphony?
//
//   - Reproducible – one seed replays an entire optimization run
//   - Parallel – trials fan out across workers, results stay deterministic
//   - Configurable – a single YAML file drives fragment, scoring and search
//   - Extensible – register custom scoring functions next to the built-ins
//
// Under the hood, everything is organized under these subpackages:
//
//	tonerow/   — pitch classes, tone rows & classical serial transforms
//	fragment/  — the fragment model: lines, measures, events, initialization
//	transform/ — random in-place mutations used as neighborhood moves
//	scoring/   — evaluation functions, weight curves & scoring sets
//	vns/       — variable neighborhood search with beam and perturbation
//	config/    — YAML configuration: parsing, validation & compilation
//	render/    — TSV, MIDI, Lilypond & YAML renderers for finished fragments
//	cmd/       — the dodecaphony command-line front end
//
// Quick ASCII example:
//
//	    B A# G C# D# C D A F# E G# F
//
//	is a tone row: each of the twelve pitch classes stated exactly once.
//	Every melodic line of a fragment threads through instances of one row.
//
// Dive into README.md for full examples, the configuration reference, and
// the scoring-function catalogue.
//
//	go get github.com/katalvlaran/dodecaphony
package dodecaphony
