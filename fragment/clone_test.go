package fragment_test

import (
	"math/rand"
	"testing"

	"github.com/katalvlaran/dodecaphony/fragment"
	"github.com/katalvlaran/dodecaphony/tonerow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestClone_Isolation mutates every mutable region of a clone and checks
// the source never moves.
func TestClone_Isolation(t *testing.T) {
	p := singleLineParams(t, 2, 2, 7)
	f, err := fragment.Initialize(p, rand.New(rand.NewSource(23)))
	require.NoError(t, err)

	c := f.Clone()
	require.NoError(t, c.Validate(), "a clone starts valid")
	assert.Equal(t, f.Lines, c.Lines)
	assert.Equal(t, f.Arena, c.Arena)

	originalSplit := append([]float64(nil), f.Lines[0].Measures[0]...)
	originalPauses := append([]int(nil), f.Lines[0].PauseIndices...)
	originalClasses := append([]tonerow.PitchClass(nil), f.Arena[0].Classes...)

	c.Lines[0].Measures[0][0] = -1
	c.Lines[0].PauseIndices[0] = 999
	c.Arena[0].Classes[0] = c.Arena[0].Classes[0].Transpose(3)
	c.Groups[0].Instances[0] = 999
	c.EvalOrder[0] = 999

	assert.Equal(t, originalSplit, f.Lines[0].Measures[0])
	assert.Equal(t, originalPauses, f.Lines[0].PauseIndices)
	assert.Equal(t, originalClasses, f.Arena[0].Classes)
	assert.NotEqual(t, 999, f.Groups[0].Instances[0])
	assert.NotEqual(t, 999, f.EvalOrder[0])
}

// TestClone_SonoritiesRebound verifies a clone's sonorities point into the
// clone's own event storage, not the source's.
func TestClone_SonoritiesRebound(t *testing.T) {
	p := singleLineParams(t, 2, 2, 7)
	f, err := fragment.Initialize(p, rand.New(rand.NewSource(29)))
	require.NoError(t, err)

	c := f.Clone()
	require.Equal(t, len(f.Sonorities), len(c.Sonorities))

	// Mutating a clone event must show through the clone's sonority view
	// and must not show through the source's.
	target := c.Sonorities[0].Events[0]
	target.Position += 12
	assert.Equal(t, target.Position, c.Lines[0].Events[target.Index].Position,
		"clone sonorities must alias clone events")
	assert.NotEqual(t, target.Position, f.Lines[0].Events[target.Index].Position,
		"source events must stay untouched")
}
