package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmrcore/flow4d/pkg/vec"
)

func TestValidateCatchesOutOfRangeIndex(t *testing.T) {
	m := New()
	m.AddPoint(vec.New(0, 0, 0))
	m.AddPoint(vec.New(1, 0, 0))
	m.AddTriangle(Triangle{A: 0, B: 1, C: 5})

	err := m.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestValidateCatchesDegenerateTriangle(t *testing.T) {
	m := New()
	m.AddPoint(vec.New(0, 0, 0))
	m.AddPoint(vec.New(1, 0, 0))
	m.AddTriangle(Triangle{A: 0, B: 0, C: 1})

	err := m.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDegenerateTriangle)
}

func TestValidateAcceptsWellFormedMesh(t *testing.T) {
	m := New()
	m.AddPoint(vec.New(0, 0, 0))
	m.AddPoint(vec.New(1, 0, 0))
	m.AddPoint(vec.New(0, 1, 0))
	m.AddTriangle(Triangle{A: 0, B: 1, C: 2})

	assert.NoError(t, m.Validate())
}

func TestNearestPointFindsClosest(t *testing.T) {
	m := New()
	m.AddPoint(vec.New(0, 0, 0))
	m.AddPoint(vec.New(10, 0, 0))
	m.AddPoint(vec.New(5, 5, 0))

	idx, dist := m.NearestPoint(vec.New(4, 4, 0))
	assert.Equal(t, 2, idx)
	assert.InDelta(t, vec.Distance(vec.New(4, 4, 0), vec.New(5, 5, 0)), dist, 1e-9)
}

func TestNearestPointManyPoints(t *testing.T) {
	m := New()
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			m.AddPoint(vec.New(float64(x), float64(y), 0))
		}
	}
	idx, _ := m.NearestPoint(vec.New(7.4, 3.4, 0))
	got := m.Points[idx]
	assert.InDelta(t, 7, got.X, 0.5)
	assert.InDelta(t, 3, got.Y, 0.5)
}

func cubeMesh() *TriangularMesh3D {
	// Unit cube [0,1]^3, 12 triangles, outward winding.
	m := New()
	p := func(x, y, z float64) int { return m.AddPoint(vec.New(x, y, z)) }
	v := [8]int{
		p(0, 0, 0), p(1, 0, 0), p(1, 1, 0), p(0, 1, 0),
		p(0, 0, 1), p(1, 0, 1), p(1, 1, 1), p(0, 1, 1),
	}
	quad := func(a, b, c, d int) {
		m.AddTriangle(Triangle{A: a, B: b, C: c})
		m.AddTriangle(Triangle{A: a, B: c, C: d})
	}
	quad(v[0], v[3], v[2], v[1]) // bottom z=0, normal -Z
	quad(v[4], v[5], v[6], v[7]) // top z=1, normal +Z
	quad(v[0], v[1], v[5], v[4]) // front y=0
	quad(v[3], v[7], v[6], v[2]) // back y=1
	quad(v[0], v[4], v[7], v[3]) // left x=0
	quad(v[1], v[2], v[6], v[5]) // right x=1
	return m
}

func TestContainsInsideAndOutsideCube(t *testing.T) {
	m := cubeMesh()
	require.NoError(t, m.Validate())

	assert.True(t, m.Contains(vec.New(0.5, 0.5, 0.5)))
	assert.False(t, m.Contains(vec.New(2, 2, 2)))
	assert.False(t, m.Contains(vec.New(-1, 0.5, 0.5)))
}

func TestRecomputeNormalsProducesUnitVectors(t *testing.T) {
	m := cubeMesh()
	m.RecomputeNormals()
	require.True(t, m.Attrs.HasNormal())
	for _, n := range m.Attrs.Normal() {
		assert.InDelta(t, 1.0, vec.Norm(n), 1e-9)
	}
}

func TestInvalidateResetsSpatialIndices(t *testing.T) {
	m := New()
	m.AddPoint(vec.New(0, 0, 0))
	_, _ = m.NearestPoint(vec.New(0, 0, 0))
	m.AddPoint(vec.New(1, 1, 1)) // AddPoint must invalidate automatically
	idx, _ := m.NearestPoint(vec.New(1, 1, 1))
	assert.Equal(t, 1, idx)
}
