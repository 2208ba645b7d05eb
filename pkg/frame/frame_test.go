package frame

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmrcore/flow4d/pkg/vec"
)

func straightLine(n int) []vec.V3 {
	pts := make([]vec.V3, n)
	for i := range pts {
		pts[i] = vec.New(0, 0, float64(i))
	}
	return pts
}

func TestBuildProducesOrthonormalFrames(t *testing.T) {
	pts := straightLine(50)
	tangents := Tangents(pts)
	frames := Build(pts, tangents)

	require.Len(t, frames, len(pts))
	for i, f := range frames {
		assert.InDelta(t, 0, f.Orthonormality(), 1e-6, "frame %d not orthonormal", i)
	}
}

func TestBuildZMatchesTangentOnStraightLine(t *testing.T) {
	pts := straightLine(30)
	tangents := Tangents(pts)
	frames := Build(pts, tangents)

	for i, f := range frames {
		assert.InDelta(t, 1.0, vec.Dot(f.Col[2], vec.AxisZ), 1e-3, "point %d", i)
	}
}

func TestBuildHandlesCurvedLineWithoutDegeneracy(t *testing.T) {
	pts := make([]vec.V3, 60)
	for i := range pts {
		theta := float64(i) * 0.1
		pts[i] = vec.New(5*math.Cos(theta), 5*math.Sin(theta), float64(i)*0.2)
	}
	tangents := Tangents(pts)
	frames := Build(pts, tangents)

	for i, f := range frames {
		assert.True(t, f.IsFinite(), "frame %d has non-finite entries", i)
		assert.InDelta(t, 0, f.Orthonormality(), 1e-5, "frame %d", i)
	}
}

func TestTangentsUnitLength(t *testing.T) {
	pts := straightLine(10)
	tangents := Tangents(pts)
	for _, tg := range tangents {
		assert.InDelta(t, 1.0, vec.Norm(tg), 1e-9)
	}
}
