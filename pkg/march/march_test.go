package march

import (
	"testing"

	"github.com/cmrcore/flow4d/pkg/geom"
	"github.com/cmrcore/flow4d/pkg/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityScale() vec.AxisScale {
	return vec.AxisScale{Scale: vec.New(1, 1, 1)}
}

// sphereImage builds an n^3 image of v(x,y,z) = |(x,y,z) - center| (spec.md §8
// scenario 1).
func sphereImage(n int) *geom.Scalar3DImage {
	img := geom.NewScalar3DImage(n, n, n, identityScale())
	center := vec.New(float64(n)/2, float64(n)/2, float64(n)/2)
	for z := 0; z < n; z++ {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				p := vec.New(float64(x), float64(y), float64(z))
				img.Set(x, y, z, vec.Distance(p, center))
			}
		}
	}
	return img
}

func TestApplySphereProducesShellNearRadius(t *testing.T) {
	const n = 32
	const radius = 8.0
	img := sphereImage(n)

	m := Apply(img, radius, nil)
	require.Greater(t, m.NumTriangles(), 0)

	center := vec.New(float64(n)/2, float64(n)/2, float64(n)/2)
	for _, p := range m.Points {
		d := vec.Distance(p, center)
		assert.InDelta(t, radius, d, 1.0)
	}
	require.NoError(t, m.Validate())
}

func TestApplyEmitsOnlyNonDegenerateTriangles(t *testing.T) {
	img := sphereImage(16)
	m := Apply(img, 4, nil)
	for _, tr := range m.Triangles {
		assert.False(t, tr.IsDegenerate())
	}
}

func TestApplyPanicsOn2DImage(t *testing.T) {
	img := geom.NewScalar3DImage(8, 8, 1, identityScale())
	assert.Panics(t, func() {
		Apply(img, 0.5, nil)
	})
}

func TestApplyEmptyOutputIsValidWhenIsoOutOfRange(t *testing.T) {
	img := sphereImage(8)
	m := Apply(img, 1000, nil)
	assert.Equal(t, 0, m.NumTriangles())
	require.NoError(t, m.Validate())
}

// TestApplyIsoStabilityDoesNotExplodeVertexCount mirrors spec.md §8's
// marching-cubes stability law: a tiny iso shift should not wildly change
// vertex count.
func TestApplyIsoStabilityDoesNotExplodeVertexCount(t *testing.T) {
	img := sphereImage(20)
	base := Apply(img, 6, nil)
	shifted := Apply(img, 6+1e-6, nil)
	assert.InDelta(t, base.NumPoints(), shifted.NumPoints(), float64(base.NumPoints())*0.2+5)
}

func TestApplyDedupesSharedVertices(t *testing.T) {
	img := sphereImage(12)
	m := Apply(img, 3, nil)
	// Every point should be referenced by at least one triangle (no orphans
	// from a failed dedup merge leaving stray entries).
	seen := make([]bool, m.NumPoints())
	for _, tr := range m.Triangles {
		for _, idx := range tr.Indices() {
			seen[idx] = true
		}
	}
	for i, ok := range seen {
		assert.True(t, ok, "point %d unreferenced", i)
	}
}
