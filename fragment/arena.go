// Package fragment - the tone-row instance arena and dependence
// propagation.
//
// Instances are stored flat; groups reference them by index. Dependences
// form a directed graph over arena indices that must be acyclic; the
// evaluation order is a topological ordering computed once at construction
// (iterative DFS with White/Gray/Black states) and reused by every
// propagation.
package fragment

import (
	"fmt"

	"github.com/katalvlaran/dodecaphony/tonerow"
)

// Visitation states of the topological sort.
const (
	stateWhite = iota // not visited
	stateGray         // on the current DFS path
	stateBlack        // finished
)

// buildArena flattens the per-group instance parameters into one arena,
// resolves dependence references, and computes the topological evaluation
// order.
//
// Errors: ErrBadParams on an unresolvable reference or a dependence cycle.
//
// Complexity: O(instances + dependences).
func buildArena(groups []GroupParams) ([]Instance, []Group, []int, error) {
	// Arena slots are assigned group by group, instance by instance, so a
	// (group, instance) reference resolves to base[group]+instance.
	base := make([]int, len(groups))
	total := 0
	for g, gp := range groups {
		base[g] = total
		total += len(gp.Instances)
	}

	arena := make([]Instance, 0, total)
	outGroups := make([]Group, len(groups))
	for g, gp := range groups {
		indices := make([]int, len(gp.Instances))
		for i, ip := range gp.Instances {
			source := -1
			if ip.SourceGroup >= 0 || ip.SourceInstance >= 0 {
				if ip.SourceGroup < 0 || ip.SourceGroup >= len(groups) {
					return nil, nil, nil, fmt.Errorf("%w: group %d instance %d depends on unknown group %d",
						ErrBadParams, g, i, ip.SourceGroup)
				}
				if ip.SourceInstance < 0 || ip.SourceInstance >= len(groups[ip.SourceGroup].Instances) {
					return nil, nil, nil, fmt.Errorf("%w: group %d instance %d depends on unknown instance %d of group %d",
						ErrBadParams, g, i, ip.SourceInstance, ip.SourceGroup)
				}
				source = base[ip.SourceGroup] + ip.SourceInstance
			}
			indices[i] = len(arena)
			arena = append(arena, Instance{
				Transform: ip.Transform,
				Source:    source,
				Frozen:    ip.Frozen,
			})
		}
		outGroups[g] = Group{
			LineIndices: append([]int(nil), gp.LineIndices...),
			Instances:   indices,
		}
	}

	order, err := evaluationOrder(arena)
	if err != nil {
		return nil, nil, nil, err
	}

	return arena, outGroups, order, nil
}

// evaluationOrder returns a topological ordering of arena indices so that
// every instance appears after its source. Independent instances come in
// index order among themselves.
//
// Errors: ErrBadParams when the dependence graph has a cycle.
func evaluationOrder(arena []Instance) ([]int, error) {
	state := make([]int, len(arena))
	order := make([]int, 0, len(arena))

	// Iterative DFS over the source edges; post-order emits sources first.
	type frame struct {
		idx      int
		expanded bool
	}
	stack := make([]frame, 0, len(arena))
	for start := 0; start < len(arena); start++ {
		if state[start] != stateWhite {
			continue
		}
		stack = append(stack, frame{idx: start})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.expanded {
				state[top.idx] = stateBlack
				order = append(order, top.idx)
				stack = stack[:len(stack)-1]

				continue
			}
			top.expanded = true
			state[top.idx] = stateGray
			src := arena[top.idx].Source
			if src < 0 {
				continue
			}
			switch state[src] {
			case stateGray:
				return nil, fmt.Errorf("%w: dependence cycle through instance %d", ErrBadParams, src)
			case stateWhite:
				stack = append(stack, frame{idx: src})
			}
		}
	}

	return order, nil
}

// propagate recomputes every instance's class sequence in evaluation order:
// independent instances are settled (their Classes are the mutable state),
// dependent instances reapply their Transform to the current source.
//
// Errors: only a malformed arena can fail here; Initialize and Validate
// keep that from happening after construction.
func propagate(arena []Instance, order []int, row tonerow.ToneRow) error {
	for _, idx := range order {
		inst := &arena[idx]
		switch {
		case inst.Dependent():
			classes, err := tonerow.Apply(arena[inst.Source].Classes, inst.Transform)
			if err != nil {
				return fmt.Errorf("instance %d: %w", idx, err)
			}
			inst.Classes = classes
		case inst.Classes == nil:
			// First propagation of an independent instance.
			classes, err := tonerow.Apply(row, inst.Transform)
			if err != nil {
				return fmt.Errorf("instance %d: %w", idx, err)
			}
			inst.Classes = classes
		}
	}

	return nil
}

// IndependentInstances returns the arena indices that pitch transformations
// may touch: independent and not frozen, in ascending order.
func (f *Fragment) IndependentInstances() []int {
	out := make([]int, 0, len(f.Arena))
	for i := range f.Arena {
		if !f.Arena[i].Dependent() && !f.Arena[i].Frozen {
			out = append(out, i)
		}
	}

	return out
}
