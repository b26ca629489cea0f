package scoring_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/dodecaphony/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurve_Validate(t *testing.T) {
	good := scoring.Curve{{X: -1, Y: -2}, {X: 0, Y: 0}, {X: 1, Y: 0}}
	require.NoError(t, good.Validate())

	require.NoError(t, scoring.Curve(nil).Validate(), "the empty curve is the identity")

	bad := []scoring.Curve{
		{{X: 0, Y: 0}, {X: 0, Y: 1}},
		{{X: 1, Y: 0}, {X: 0, Y: 1}},
		{{X: math.NaN(), Y: 0}},
		{{X: 0, Y: math.Inf(1)}},
	}
	for i, c := range bad {
		assert.ErrorIs(t, c.Validate(), scoring.ErrBadParams, "curve %d", i)
	}
}

func TestCurve_Apply(t *testing.T) {
	identity := scoring.Curve(nil)
	assert.Equal(t, -0.7, identity.Apply(-0.7))

	curve := scoring.Curve{{X: -1, Y: -3}, {X: 0, Y: 0}}
	assert.InDelta(t, -3.0, curve.Apply(-5), 1e-9, "clamps left")
	assert.InDelta(t, 0.0, curve.Apply(2), 1e-9, "clamps right")
	assert.InDelta(t, -1.5, curve.Apply(-0.5), 1e-9, "interpolates linearly")
	assert.InDelta(t, -3.0, curve.Apply(-1), 1e-9, "hits the left point exactly")

	constant := scoring.Curve{{X: 0, Y: -1}}
	assert.InDelta(t, -1.0, constant.Apply(-100), 1e-9)
	assert.InDelta(t, -1.0, constant.Apply(100), 1e-9)
}

func TestCurve_Apply_MultiSegment(t *testing.T) {
	curve := scoring.Curve{{X: -1, Y: -10}, {X: -0.5, Y: -1}, {X: 0, Y: 0}}
	assert.InDelta(t, -5.5, curve.Apply(-0.75), 1e-9, "first segment")
	assert.InDelta(t, -0.5, curve.Apply(-0.25), 1e-9, "second segment")
	assert.InDelta(t, -1.0, curve.Apply(-0.5), 1e-9, "inner control point")
}
