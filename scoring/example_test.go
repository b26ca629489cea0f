package scoring_test

import (
	"fmt"

	"github.com/katalvlaran/dodecaphony/scoring"
)

// ExampleCurve_Apply maps a raw score through a two-point weight curve:
// outside the control points the curve clamps, between them it
// interpolates.
func ExampleCurve_Apply() {
	curve := scoring.Curve{{X: -1, Y: -3}, {X: 0, Y: 0}}

	fmt.Println(curve.Apply(-2))
	fmt.Println(curve.Apply(-0.5))
	fmt.Println(curve.Apply(1))
	// Output:
	// -3
	// -1.5
	// 0
}

// ExampleRegistry_NewParams shows how parameter prototypes carry their
// documented defaults; configuration decodes over them, so omitted fields
// keep these values.
func ExampleRegistry_NewParams() {
	reg := scoring.NewRegistry()

	params, _ := reg.NewParams("direction_change_after_large_skip")
	p := params.(*scoring.DirectionChangeParams)
	fmt.Println(p.MinSkip, p.MaxOppositeMove, p.LargeOppositePenalty)
	// Output:
	// 5 2 0.8
}
