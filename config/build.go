// Package config - compilation of a decoded Config into typed run inputs.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/katalvlaran/dodecaphony/fragment"
	"github.com/katalvlaran/dodecaphony/render"
	"github.com/katalvlaran/dodecaphony/scoring"
	"github.com/katalvlaran/dodecaphony/tonerow"
	"github.com/katalvlaran/dodecaphony/vns"
)

// Compiled is the typed product of Build: everything one run needs.
type Compiled struct {
	// Fragment seeds fragment.Initialize.
	Fragment fragment.Params
	// Sets are the active scoring sets, in activation order.
	Sets []scoring.Set
	// Search configures vns.Optimize; Logger is left for the caller.
	Search vns.Options
	// Render configures the render writers.
	Render render.Options
}

// confErr wraps err with ErrConfiguration and field context. Both
// sentinels stay visible to errors.Is.
func confErr(field string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrConfiguration, field, err)
}

// confErrf builds a leaf configuration error.
func confErrf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConfiguration}, args...)...)
}

// Build compiles the configuration. Deep fragment invariants (pause
// capacity, vocabulary coverage, dependence acyclicity, register spans)
// are the initializer's to check; Build validates everything that does
// not need a concrete fragment.
//
// Errors: ErrConfiguration, wrapping the rejecting package's sentinel.
func (c *Config) Build() (*Compiled, error) {
	params, err := c.buildFragment()
	if err != nil {
		return nil, err
	}
	lineIDs := make(map[int]bool, len(params.Lines))
	for _, lp := range params.Lines {
		lineIDs[lp.ID] = true
	}
	sets, err := c.buildScoring()
	if err != nil {
		return nil, err
	}
	search, err := c.buildSearch()
	if err != nil {
		return nil, err
	}
	rend, err := c.buildRender(lineIDs)
	if err != nil {
		return nil, err
	}

	return &Compiled{Fragment: params, Sets: sets, Search: search, Render: rend}, nil
}

func (c *Config) buildFragment() (fragment.Params, error) {
	fc := &c.Fragment

	row, err := tonerow.ParseToneRow(fc.ToneRow)
	if err != nil {
		return fragment.Params{}, confErr("fragment.tone_row", err)
	}
	lowest, err := tonerow.ParsePosition(fc.LowestNote)
	if err != nil {
		return fragment.Params{}, confErr("fragment.lowest_note", err)
	}
	highest, err := tonerow.ParsePosition(fc.HighestNote)
	if err != nil {
		return fragment.Params{}, confErr("fragment.highest_note", err)
	}

	p := fragment.Params{
		Row:           row,
		Meter:         fragment.Meter{Numerator: fc.Meter.Numerator, Denominator: fc.Meter.Denominator},
		NMeasures:     fc.NMeasures,
		Lowest:        lowest,
		Highest:       highest,
		Durations:     fc.Durations,
		MeasureSplits: fc.MeasureSplits,
		MaxRetries:    fc.MaxRetries,
	}

	byID := make(map[int]int, len(fc.Lines))
	for i := range fc.Lines {
		lc := &fc.Lines[i]
		field := fmt.Sprintf("fragment.lines[%d]", i)
		if _, dup := byID[lc.ID]; dup {
			return fragment.Params{}, confErrf("%s: duplicate line id %d", field, lc.ID)
		}
		byID[lc.ID] = i

		lp := fragment.LineParams{
			ID:                    lc.ID,
			NPauses:               lc.NPauses,
			ImmutablePauseIndices: lc.ImmutablePausesIndices,
			Lowest:                fragment.InheritBound,
			Highest:               fragment.InheritBound,
			FrozenRhythm:          lc.FrozenRhythm,
		}
		if lc.LowestNote != "" {
			if lp.Lowest, err = tonerow.ParsePosition(lc.LowestNote); err != nil {
				return fragment.Params{}, confErr(field+".lowest_note", err)
			}
		}
		if lc.HighestNote != "" {
			if lp.Highest, err = tonerow.ParsePosition(lc.HighestNote); err != nil {
				return fragment.Params{}, confErr(field+".highest_note", err)
			}
		}
		p.Lines = append(p.Lines, lp)
	}

	for gi := range fc.Groups {
		gc := &fc.Groups[gi]
		field := fmt.Sprintf("fragment.groups[%d]", gi)

		var gp fragment.GroupParams
		for _, id := range gc.LineIDs {
			li, ok := byID[id]
			if !ok {
				return fragment.Params{}, confErrf("%s: unknown line id %d", field, id)
			}
			gp.LineIndices = append(gp.LineIndices, li)
		}
		for ii := range gc.ToneRowInstances {
			ip, err := compileInstance(&gc.ToneRowInstances[ii], gc.Randomize)
			if err != nil {
				return fragment.Params{}, confErr(
					fmt.Sprintf("%s.tone_row_instances[%d]", field, ii), err)
			}
			gp.Instances = append(gp.Instances, ip)
		}
		p.Groups = append(p.Groups, gp)
	}

	return p, nil
}

// compileInstance resolves one instance spec. Group-level randomization
// applies only to instances that declare neither a transform nor a
// dependence.
func compileInstance(ic *InstanceConfig, randomize bool) (fragment.InstanceParams, error) {
	ip := fragment.InstanceParams{
		SourceGroup:    -1,
		SourceInstance: -1,
		Frozen:         ic.Frozen,
	}
	switch {
	case ic.Transform != nil && ic.Dependence != nil:
		return ip, errors.New("transform and dependence are mutually exclusive")
	case ic.Dependence != nil:
		d := ic.Dependence
		t, err := compileTransform(d.Name, d.Shift, d.Rotation)
		if err != nil {
			return ip, err
		}
		ip.Transform = t
		ip.SourceGroup, ip.SourceInstance = d.Group, d.Instance
	case ic.Transform != nil:
		t, err := compileTransform(ic.Transform.Name, ic.Transform.Shift, ic.Transform.Rotation)
		if err != nil {
			return ip, err
		}
		ip.Transform = t
	default:
		ip.Randomize = randomize
	}

	return ip, nil
}

// compileTransform maps a named derivation onto tonerow.Transform. The
// name "rotation" parses as Identity, so its shift amount moves into the
// rotation slot.
func compileTransform(name string, shift, rotation int) (tonerow.Transform, error) {
	kind, err := tonerow.ParseTransformKind(name)
	if err != nil {
		return tonerow.Transform{}, err
	}

	t := tonerow.Transform{Kind: kind, Shift: shift, Rotation: rotation}
	if strings.EqualFold(strings.TrimSpace(name), "rotation") {
		if rotation != 0 {
			return tonerow.Transform{}, errors.New("rotation given both as name and as field")
		}
		t.Shift, t.Rotation = 0, shift
	}

	return t, nil
}

func (c *Config) buildScoring() ([]scoring.Set, error) {
	if len(c.ScoringSets) == 0 {
		return nil, confErrf("scoring_sets: at least one set is required")
	}

	reg := scoring.NewRegistry()
	byName := make(map[string]scoring.Set, len(c.ScoringSets))
	order := make([]string, 0, len(c.ScoringSets))
	for si := range c.ScoringSets {
		sc := &c.ScoringSets[si]
		if sc.Name == "" {
			return nil, confErrf("scoring_sets[%d]: set name is required", si)
		}
		if _, dup := byName[sc.Name]; dup {
			return nil, confErrf("scoring_sets[%d]: duplicate set %q", si, sc.Name)
		}
		if len(sc.Functions) == 0 {
			return nil, confErrf("scoring set %q: no functions", sc.Name)
		}

		set := scoring.Set{Name: sc.Name}
		for fi := range sc.Functions {
			m, err := compileMember(reg, &sc.Functions[fi])
			if err != nil {
				return nil, confErr(
					fmt.Sprintf("scoring set %q, function %q", sc.Name, sc.Functions[fi].Name), err)
			}
			set.Members = append(set.Members, m)
		}
		byName[sc.Name] = set
		order = append(order, sc.Name)
	}

	active := c.Evaluation.ScoringSets
	if len(active) == 0 {
		active = order
	}
	sets := make([]scoring.Set, 0, len(active))
	seen := make(map[string]bool, len(active))
	for _, name := range active {
		set, ok := byName[name]
		if !ok {
			return nil, confErrf("evaluation.scoring_sets: unknown set %q", name)
		}
		if seen[name] {
			return nil, confErrf("evaluation.scoring_sets: duplicate set %q", name)
		}
		seen[name] = true
		sets = append(sets, set)
	}

	return sets, nil
}

// compileMember resolves one function, decodes its params over the
// registry prototype and validates the result.
func compileMember(reg *scoring.Registry, fc *FunctionConfig) (scoring.Member, error) {
	fn, err := reg.Lookup(fc.Name)
	if err != nil {
		return scoring.Member{}, err
	}
	params, err := reg.NewParams(fc.Name)
	if err != nil {
		return scoring.Member{}, err
	}
	if !fc.Params.IsZero() {
		if err := fc.Params.Decode(params); err != nil {
			return scoring.Member{}, fmt.Errorf("%w: params: %v", scoring.ErrBadParams, err)
		}
	}
	if err := params.Validate(); err != nil {
		return scoring.Member{}, err
	}

	curve := scoring.Curve(fc.Weights)
	if err := curve.Validate(); err != nil {
		return scoring.Member{}, err
	}

	return scoring.Member{Name: fc.Name, Fn: fn, Params: params, Curve: curve}, nil
}

func (c *Config) buildSearch() (vns.Options, error) {
	oc := &c.Optimization

	// Zero keeps the package default; any other value, valid or not, is
	// forwarded so the validator reports it instead of a silent fallback.
	opts := vns.DefaultOptions()
	if oc.NIterations != 0 {
		opts.NIterations = oc.NIterations
	}
	if oc.NTrialsPerIteration != 0 {
		opts.NTrialsPerIteration = oc.NTrialsPerIteration
	}
	if oc.BeamWidth != 0 {
		opts.BeamWidth = oc.BeamWidth
	}
	if oc.MaxRetriesPerTrial != 0 {
		opts.MaxRetriesPerTrial = oc.MaxRetriesPerTrial
	}
	if oc.MaxTransposition != 0 {
		opts.Transform.MaxTransposition = oc.MaxTransposition
	}
	if oc.MaxRotation != 0 {
		opts.Transform.MaxRotation = oc.MaxRotation
	}
	opts.Workers = oc.NProcesses
	opts.Seed = oc.Seed
	if len(oc.Neighborhoods) > 0 {
		opts.Neighborhoods = make([]vns.Neighborhood, len(oc.Neighborhoods))
		for i, nc := range oc.Neighborhoods {
			opts.Neighborhoods[i] = vns.Neighborhood{
				NTransformations: nc.NTransformationsPerTrial,
				Probabilities:    nc.Probabilities,
			}
		}
	}
	if oc.Perturbation != nil {
		// An empty body compiles to the zero value, which disables the
		// stall response; an omitted key keeps the default one.
		opts.Perturbation = vns.Perturbation{
			NTransformations: oc.Perturbation.NTransformations,
			Probabilities:    oc.Perturbation.Probabilities,
		}
	}
	if err := opts.Validate(); err != nil {
		return vns.Options{}, confErr("optimization", err)
	}

	return opts, nil
}

func (c *Config) buildRender(lineIDs map[int]bool) (render.Options, error) {
	rc := &c.Rendering

	opts := render.DefaultOptions()
	if rc.BeatInSeconds != 0 {
		opts.BeatInSeconds = rc.BeatInSeconds
	}
	if rc.Velocity != 0 {
		opts.Velocity = rc.Velocity
	}
	if rc.OpeningSilence != nil {
		opts.OpeningSilence = *rc.OpeningSilence
	}
	if rc.TrailingSilence != nil {
		opts.TrailingSilence = *rc.TrailingSilence
	}
	if len(rc.LineInstruments) > 0 {
		for id := range rc.LineInstruments {
			if !lineIDs[id] {
				return render.Options{}, confErrf("rendering.line_instruments: unknown line id %d", id)
			}
		}
		opts.LineInstruments = rc.LineInstruments
	}
	if err := opts.Validate(); err != nil {
		return render.Options{}, confErr("rendering", err)
	}

	return opts, nil
}
