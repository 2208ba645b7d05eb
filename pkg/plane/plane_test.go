package plane

import (
	"math"
	"testing"

	"github.com/cmrcore/flow4d/pkg/geom"
	"github.com/cmrcore/flow4d/pkg/mesh"
	"github.com/cmrcore/flow4d/pkg/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmptyMesh() *mesh.TriangularMesh3D { return mesh.New() }

// straightFlowFixture builds a uniform (0,0,v0) flow field over a grid
// centered on the z axis, plus a radius-R cylindrical segmentation (spec.md
// §8 scenario 2's geometry, reused here as the measuring-plane cross
// section).
func straightFlowFixture(v0 float64) (*geom.FlowImage4D, *geom.Scalar3DImage) {
	const half = 6
	const radius = 5.0
	const nz = 8

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

	flow := geom.NewFlowImage4D(2*half+1, 2*half+1, nz, 4, tr, 40)
	for t := 0; t < flow.Nt; t++ {
		for z := 0; z < flow.Nz; z++ {
			for y := 0; y < flow.Ny; y++ {
				for x := 0; x < flow.Nx; x++ {
					flow.Set(x, y, z, t, vec.New(0, 0, v0))
				}
			}
		}
	}
	return flow, seg
}

func TestComputeStatisticsForwardFlow(t *testing.T) {
	flow, seg := straightFlowFixture(10)

	p := New(vec.New(0, 0, 4), vec.New(0, 0, 1), 12, 12, flow.Nt, 1.0, flow.DtMs)
	p.SampleFlow(flow, nil)
	p.SampleMaskFromSegmentation(seg, nil)

	st := p.ComputeStatistics(nil)

	require.True(t, st.NormalIsAligned)
	for _, fr := range st.FlowRatePerTime {
		assert.Greater(t, fr, 0.0)
	}
	assert.Greater(t, st.ForwardFlowVolumeML, 0.0)
	assert.Equal(t, 0.0, st.BackwardFlowVolumeML)
	assert.Equal(t, 0.0, st.PercentagedBackFlowVolume)
	assert.Greater(t, st.CardiacOutputLPerMin, 0.0)
	assert.InDelta(t, 10.0, st.MeanVelocity, 1e-6)
	assert.InDelta(t, 10.0, st.MeanVelocityThroughPlane, 1e-6)
}

func TestComputeStatisticsBackwardFlowFlipsNormalAlignment(t *testing.T) {
	flow, seg := straightFlowFixture(-10)

	p := New(vec.New(0, 0, 4), vec.New(0, 0, 1), 12, 12, flow.Nt, 1.0, flow.DtMs)
	p.SampleFlow(flow, nil)
	p.SampleMaskFromSegmentation(seg, nil)

	st := p.ComputeStatistics(nil)

	require.False(t, st.NormalIsAligned)
	assert.Greater(t, st.ForwardFlowVolumeML, 0.0)
	assert.Equal(t, 0.0, st.BackwardFlowVolumeML)
	for _, fr := range st.FlowRatePerTime {
		assert.Greater(t, fr, 0.0)
	}
}

func TestAreaMatchesMaskedCellCount(t *testing.T) {
	flow, seg := straightFlowFixture(1)
	p := New(vec.New(0, 0, 4), vec.New(0, 0, 1), 16, 16, flow.Nt, 1.0, flow.DtMs)
	p.SampleFlow(flow, nil)
	p.SampleMaskFromSegmentation(seg, nil)
	st := p.ComputeStatistics(nil)

	var maskedCells int
	for i := range p.Mask {
		if p.Mask[i] {
			maskedCells++
		}
	}
	expectedArea := float64(maskedCells) * p.AreaPerCell()
	for _, a := range st.AreaMM2PerTime {
		assert.InDelta(t, expectedArea, a, 1e-9)
	}
	assert.Greater(t, maskedCells, 0)
}

func TestSampleMaskFromMeshMarksInteriorCells(t *testing.T) {
	_, seg := straightFlowFixture(1)
	_ = seg
	// A degenerate (empty) mesh should mark nothing rather than panic.
	p := New(vec.New(0, 0, 0), vec.New(0, 0, 1), 4, 4, 1, 1.0, 1.0)
	m := newEmptyMesh()
	p.SampleMaskFromMesh(m, nil)
	for _, in := range p.Mask {
		assert.False(t, in)
	}
}

func TestAreaPerCellUsesTransformScale(t *testing.T) {
	p := New(vec.New(0, 0, 0), vec.New(0, 0, 1), 4, 4, 1, 2.5, 1.0)
	assert.InDelta(t, 6.25, p.AreaPerCell(), 1e-9)
}

func TestWorldAtIsCenteredAtOrigin(t *testing.T) {
	p := New(vec.New(1, 2, 3), vec.New(0, 0, 1), 5, 5, 1, 1.0, 1.0)
	w := p.WorldAt(2, 2)
	assert.InDelta(t, 0.0, math.Hypot(w.X-1, w.Y-2), 1e-9)
	assert.InDelta(t, 3.0, w.Z, 1e-9)
}
