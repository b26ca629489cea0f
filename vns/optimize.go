// Package vns - the optimization loop.
package vns

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/dodecaphony/fragment"
	"github.com/katalvlaran/dodecaphony/scoring"
	"github.com/katalvlaran/dodecaphony/transform"
)

// member is one beam slot. seq is the insertion sequence number used for
// deterministic tie-breaks: the best among equals is the earliest inserted,
// the evicted among equals the latest.
type member struct {
	frag      *fragment.Fragment
	score     float64
	breakdown []scoring.Result
	seq       uint64
}

// trialResult is what one worker hands back to the beam update. A failed
// trial (structural dead end or scoring error) stays zero-valued with
// ok == false and never competes for insertion.
type trialResult struct {
	frag      *fragment.Fragment
	score     float64
	breakdown []scoring.Result
	ok        bool
}

// search carries the mutable state of one run. All fields are owned by the
// single driving goroutine; workers only fill disjoint slots of a step's
// result slice.
type search struct {
	opts     Options
	sets     []scoring.Set
	samplers []*transform.Sampler
	perturb  *transform.Sampler
	workers  int
	base     int64
	driver   *rand.Rand
	logger   *zap.Logger

	beam  []member
	seq   uint64
	step  int
	stats Stats
}

// Optimize improves initial with a variable neighborhood search over the
// transformation space and returns the final beam, the champion's
// per-function breakdown, and run statistics.
//
// Contracts:
//   - initial must be a refreshed, valid fragment; it is cloned, never
//     mutated.
//   - sets must evaluate initial successfully: a fragment that cannot be
//     scored cannot seed the beam.
//   - opts are validated first; probability tables are additionally
//     resolved against the transformation registry.
//   - ctx cancellation is honored between neighborhood steps, not inside
//     one.
//
// Errors: ErrBadOptions, transform.ErrBadOptions, transform.ErrUnknownName,
// scoring errors from the initial evaluation, or ctx.Err().
//
// Complexity: O(NIterations * steps * NTrialsPerIteration * (edit + eval)),
// with the trials of each step evaluated in parallel.
func Optimize(ctx context.Context, initial *fragment.Fragment, sets []scoring.Set, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if initial == nil {
		return nil, fmt.Errorf("%w: nil initial fragment", ErrBadOptions)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: no scoring sets", ErrBadOptions)
	}

	reg, err := transform.NewRegistry(opts.Transform)
	if err != nil {
		return nil, err
	}
	samplers := make([]*transform.Sampler, len(opts.Neighborhoods))
	for i, n := range opts.Neighborhoods {
		if samplers[i], err = transform.NewSampler(reg, n.Probabilities); err != nil {
			return nil, fmt.Errorf("neighborhood %d: %w", i, err)
		}
	}
	var perturb *transform.Sampler
	if opts.Perturbation.enabled() {
		if perturb, err = transform.NewSampler(reg, opts.Perturbation.Probabilities); err != nil {
			return nil, fmt.Errorf("perturbation: %w", err)
		}
	}

	workers := opts.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	base := normalizeSeed(opts.Seed)

	runID := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("run_id", runID))

	initialScore, initialBreakdown, err := scoring.Evaluate(initial, sets)
	if err != nil {
		return nil, fmt.Errorf("initial fragment: %w", err)
	}

	s := &search{
		opts:     opts,
		sets:     sets,
		samplers: samplers,
		perturb:  perturb,
		workers:  workers,
		base:     base,
		driver:   driverRNG(base),
		logger:   logger,
		beam:     make([]member, opts.BeamWidth),
		seq:      uint64(opts.BeamWidth),
		stats:    Stats{RunID: runID},
	}
	for i := range s.beam {
		s.beam[i] = member{frag: initial.Clone(), score: initialScore, breakdown: initialBreakdown, seq: uint64(i)}
	}

	logger.Info("optimization started",
		zap.Int("n_iterations", opts.NIterations),
		zap.Int("n_trials_per_iteration", opts.NTrialsPerIteration),
		zap.Int("beam_width", opts.BeamWidth),
		zap.Int("neighborhoods", len(opts.Neighborhoods)),
		zap.Int("workers", workers),
		zap.Int64("seed", base),
		zap.Float64("initial_score", initialScore),
	)

	if err := s.run(ctx); err != nil {
		return nil, err
	}

	order := beamOrder(s.beam)
	champion := s.beam[order[0]]
	result := &Result{
		Best:      champion.frag,
		Score:     champion.score,
		Breakdown: champion.breakdown,
		Beam:      make([]ScoredFragment, len(order)),
		Stats:     s.stats,
	}
	for i, idx := range order {
		result.Beam[i] = ScoredFragment{Fragment: s.beam[idx].frag, Score: s.beam[idx].score}
	}

	logger.Info("optimization finished",
		zap.Int("iterations", s.stats.Iterations),
		zap.Int("steps", s.stats.Steps),
		zap.Int("trials", s.stats.Trials),
		zap.Int("failed_trials", s.stats.FailedTrials),
		zap.Int("insertions", s.stats.Insertions),
		zap.Int("perturbations", s.stats.Perturbations),
		zap.Float64("best_score", result.Score),
	)

	return result, nil
}

// run executes the outer iterations.
func (s *search) run(ctx context.Context) error {
	for iter := 0; iter < s.opts.NIterations; iter++ {
		iterSteps, iterInserts, iterFailed := 0, 0, 0

		// Climb the neighborhood ladder; any insertion sends the search
		// back to the first rung. The iteration is over once a full
		// consecutive pass inserts nothing.
		k := 0
		for k < len(s.opts.Neighborhoods) {
			if err := ctx.Err(); err != nil {
				return err
			}

			results := s.runStep(iter, k)
			inserted, failed := s.updateBeam(results)

			s.logger.Debug("neighborhood step",
				zap.Int("iteration", iter),
				zap.Int("step", s.step),
				zap.Int("neighborhood", k),
				zap.Int("inserted", inserted),
				zap.Int("failed", failed),
			)

			s.step++
			iterSteps++
			iterInserts += inserted
			iterFailed += failed
			if inserted > 0 {
				k = 0
			} else {
				k++
			}
		}

		perturbed := false
		if iterInserts == 0 && s.perturb != nil && s.opts.BeamWidth > 1 {
			s.perturbMember(iter)
			perturbed = true
		}

		s.stats.Iterations++
		b, w := bestIndex(s.beam), worstIndex(s.beam)
		s.logger.Info("iteration finished",
			zap.Int("iteration", iter),
			zap.Int("steps", iterSteps),
			zap.Int("inserted", iterInserts),
			zap.Int("failed", iterFailed),
			zap.Bool("perturbed", perturbed),
			zap.Float64("best_score", s.beam[b].score),
			zap.Float64("worst_score", s.beam[w].score),
		)
	}

	s.stats.Steps = s.step

	return nil
}

// runStep fans one neighborhood step's trials out over the worker pool and
// returns their results indexed by trial. Each trial clones its round-robin
// parent, edits the clone with the rung's sampler under its own derived
// RNG, and re-scores it; the beam itself is read-only for the whole step.
func (s *search) runStep(iter, k int) []trialResult {
	nb := s.opts.Neighborhoods[k]
	results := make([]trialResult, s.opts.NTrialsPerIteration)

	var eg errgroup.Group
	eg.SetLimit(s.workers)
	for t := 0; t < len(results); t++ {
		t := t
		parent := s.beam[t%len(s.beam)].frag
		eg.Go(func() error {
			rng := trialRNG(s.base, iter, s.step, t)
			clone := parent.Clone()
			if _, err := s.samplers[k].ApplyN(clone, nb.NTransformations, s.opts.MaxRetriesPerTrial, rng); err != nil {
				return nil
			}
			score, breakdown, err := scoring.Evaluate(clone, s.sets)
			if err != nil {
				return nil
			}
			results[t] = trialResult{frag: clone, score: score, breakdown: breakdown, ok: true}

			return nil
		})
	}
	// Workers never return errors: failed trials are recorded in results.
	_ = eg.Wait()

	s.stats.Trials += len(results)

	return results
}

// updateBeam scans the step's results in trial order, inserting every trial
// that strictly beats the current worst member and evicting that member.
func (s *search) updateBeam(results []trialResult) (inserted, failed int) {
	for _, r := range results {
		if !r.ok {
			failed++

			continue
		}
		w := worstIndex(s.beam)
		if r.score > s.beam[w].score {
			s.beam[w] = member{frag: r.frag, score: r.score, breakdown: r.breakdown, seq: s.seq}
			s.seq++
			inserted++
		}
	}

	s.stats.Insertions += inserted
	s.stats.FailedTrials += failed

	return inserted, failed
}

// perturbMember shakes a random beam member other than the current best
// with the perturbation sampler and re-scores it in place. A shake that
// dead-ends or becomes unscorable leaves the member untouched.
func (s *search) perturbMember(iter int) {
	s.stats.Perturbations++
	best := bestIndex(s.beam)
	target := pickPerturbTarget(s.driver, len(s.beam), best)

	shaken := s.beam[target].frag.Clone()
	outcome := "applied"
	if _, applyErr := s.perturb.ApplyN(shaken, s.opts.Perturbation.NTransformations, s.opts.MaxRetriesPerTrial, s.driver); applyErr != nil {
		outcome = "dead end"
	} else if score, breakdown, evalErr := scoring.Evaluate(shaken, s.sets); evalErr != nil {
		outcome = "unscorable"
	} else {
		s.beam[target] = member{frag: shaken, score: score, breakdown: breakdown, seq: s.seq}
		s.seq++
	}

	s.logger.Debug("perturbation",
		zap.Int("iteration", iter),
		zap.Int("target", target),
		zap.String("outcome", outcome),
	)
}

// worstIndex returns the member an insertion would evict: the lowest score,
// ties resolved against the latest inserted.
func worstIndex(beam []member) int {
	w := 0
	for i := 1; i < len(beam); i++ {
		if beam[i].score < beam[w].score ||
			(beam[i].score == beam[w].score && beam[i].seq > beam[w].seq) {
			w = i
		}
	}

	return w
}

// bestIndex returns the incumbent champion: the highest score, ties
// resolved in favor of the earliest inserted.
func bestIndex(beam []member) int {
	b := 0
	for i := 1; i < len(beam); i++ {
		if beam[i].score > beam[b].score ||
			(beam[i].score == beam[b].score && beam[i].seq < beam[b].seq) {
			b = i
		}
	}

	return b
}

// beamOrder ranks beam indices best-first.
func beamOrder(beam []member) []int {
	order := make([]int, len(beam))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ma, mb := beam[order[a]], beam[order[b]]
		if ma.score != mb.score {
			return ma.score > mb.score
		}

		return ma.seq < mb.seq
	})

	return order
}

// pickPerturbTarget draws a beam index other than best, uniform over the
// remaining members. len(beam) must be at least 2.
func pickPerturbTarget(rng *rand.Rand, size, best int) int {
	t := rng.Intn(size - 1)
	if t >= best {
		t++
	}

	return t
}
