package vns_test

import (
	"fmt"

	"github.com/katalvlaran/dodecaphony/transform"
	"github.com/katalvlaran/dodecaphony/vns"
)

// ExampleDefaultOptions shows the ready-to-run shape of the default
// configuration: one uniform neighborhood and a line-resample perturbation.
func ExampleDefaultOptions() {
	opts := vns.DefaultOptions()

	fmt.Println("beam width:", opts.BeamWidth)
	fmt.Println("neighborhoods:", len(opts.Neighborhoods))
	fmt.Println("perturbation:", opts.Perturbation.Probabilities[transform.NameLineDurationsChange])
	fmt.Println("valid:", opts.Validate() == nil)
	// Output:
	// beam width: 5
	// neighborhoods: 1
	// perturbation: 1
	// valid: true
}
