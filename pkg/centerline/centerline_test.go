package centerline

import (
	"math"
	"testing"

	"github.com/cmrcore/flow4d/pkg/geom"
	"github.com/cmrcore/flow4d/pkg/mesh"
	"github.com/cmrcore/flow4d/pkg/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cylinderFixture builds a segmentation mask cylinder of radius 5 along z
// (spec.md §8 scenario 2) plus a wall mesh sampled at several z rings, with
// the seed/target vertices appended at the cylinder's axis endpoints.
func cylinderFixture(nz int) (*mesh.TriangularMesh3D, *geom.Scalar3DImage, int, int) {
	const radius = 5.0
	const half = 6 // grid half-extent in x,y, covers radius with 1 voxel margin

	tr := vec.AxisScale{Origin: vec.New(-half, -half, 0), Scale: vec.New(1, 1, 1)}
	seg := geom.NewScalar3DImage(2*half+1, 2*half+1, nz, tr)
	for z := 0; z < nz; z++ {
		for y := 0; y < seg.Ny; y++ {
			for x := 0; x < seg.Nx; x++ {
				wx, wy := float64(x-half), float64(y-half)
				if wx*wx+wy*wy <= radius*radius {
					seg.Set(x, y, z, 1)
				}
			}
		}
	}

	m := mesh.New()
	const ringPoints = 16
	for z := 0; z < nz; z += 4 {
		for i := 0; i < ringPoints; i++ {
			theta := 2 * math.Pi * float64(i) / ringPoints
			m.AddPoint(vec.New(radius*math.Cos(theta), radius*math.Sin(theta), float64(z)))
		}
	}

	seed := m.AddPoint(vec.New(0, 0, 1))
	target := m.AddPoint(vec.New(0, 0, float64(nz-1)))

	return m, seg, seed, target
}

func TestExtractStraightTubeCenterlineStaysNearAxis(t *testing.T) {
	m, seg, seed, target := cylinderFixture(16)

	e := NewExtractor()
	e.NumSmoothIterations = 20

	lines, ok := e.Extract(m, seg, seed, []int{target}, nil)
	require.True(t, ok)
	require.Len(t, lines, 1)

	line := lines[0]
	require.GreaterOrEqual(t, line.NumPoints(), 1)

	for _, p := range line.Points {
		assert.LessOrEqual(t, math.Hypot(p.X, p.Y), 2.0)
	}

	for i := 1; i < len(line.Points); i++ {
		assert.GreaterOrEqual(t, line.Points[i].Z, line.Points[i-1].Z-1e-6)
	}

	assert.Equal(t, line.NumPoints(), len(line.Radius))
	assert.Equal(t, line.NumPoints(), len(line.Frames))
}

func TestExtractEmptyTargetsReturnsFailure(t *testing.T) {
	m, seg, seed, _ := cylinderFixture(8)
	e := NewExtractor()
	lines, ok := e.Extract(m, seg, seed, nil, nil)
	assert.False(t, ok)
	assert.Nil(t, lines)
}

// TestExtractFallsBackAcrossEmptySegmentation exercises the Phase B
// frontier-expansion fallback (spec.md §4.2): with no cell marked as inside
// the segmentation, the first relaxation pass cannot move past the seed, but
// the second (unrestricted) pass always reaches the target in a bounded,
// fully-connected grid.
func TestExtractFallsBackAcrossEmptySegmentation(t *testing.T) {
	m, seg, seed, target := cylinderFixture(8)
	empty := geom.NewScalar3DImage(seg.Nx, seg.Ny, seg.Nz, seg.Transform)

	e := NewExtractor()
	e.NumSmoothIterations = 5
	lines, ok := e.Extract(m, empty, seed, []int{target}, nil)
	require.True(t, ok)
	require.Len(t, lines, 1)
	assert.GreaterOrEqual(t, lines[0].NumPoints(), 1)
}

func TestRadiusIsNonNegativeInsideLumen(t *testing.T) {
	m, seg, seed, target := cylinderFixture(16)
	e := NewExtractor()
	e.NumSmoothIterations = 10
	lines, ok := e.Extract(m, seg, seed, []int{target}, nil)
	require.True(t, ok)
	require.Len(t, lines, 1)
	for _, r := range lines[0].Radius {
		assert.GreaterOrEqual(t, r, 0.0)
	}
}
