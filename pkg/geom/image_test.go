package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmrcore/flow4d/pkg/vec"
)

func identityScale() vec.AxisScale {
	return vec.AxisScale{Origin: vec.Zero, Scale: vec.New(1, 1, 1)}
}

func TestScalar3DImageIndexRoundTrip(t *testing.T) {
	img := NewScalar3DImage(4, 5, 6, identityScale())
	require.Equal(t, 4*5*6, img.NumValues())

	img.Set(1, 2, 3, 42)
	assert.Equal(t, 42.0, img.At(1, 2, 3))
}

func TestScalar3DImageMinMax(t *testing.T) {
	img := NewScalar3DImage(2, 2, 2, identityScale())
	for i := range img.Data {
		img.Data[i] = float64(i)
	}
	min, max := img.MinMax()
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 7.0, max)
}

func TestScalar3DImagePadded(t *testing.T) {
	img := NewScalar3DImage(2, 2, 2, identityScale())
	for i := range img.Data {
		img.Data[i] = 1
	}

	padded := img.Padded(-1)
	assert.Equal(t, 4, padded.Nx)
	assert.Equal(t, 4, padded.Ny)
	assert.Equal(t, 4, padded.Nz)

	assert.Equal(t, -1.0, padded.At(0, 0, 0))
	assert.Equal(t, 1.0, padded.At(1, 1, 1))
	assert.Equal(t, 1.0, padded.At(2, 2, 2))
	assert.Equal(t, -1.0, padded.At(3, 3, 3))
}

func TestScalar3DImageRequireDims3DPanicsOn2D(t *testing.T) {
	flat := NewScalar3DImage(4, 4, 1, identityScale())
	assert.Panics(t, func() { flat.RequireDims3D() })

	volume := NewScalar3DImage(4, 4, 4, identityScale())
	assert.NotPanics(t, func() { volume.RequireDims3D() })
}

func TestFlowImage4DFlowVectorAtIsConstantForUniformField(t *testing.T) {
	flow := NewFlowImage4D(4, 4, 4, 3, identityScale(), 40)
	uniform := vec.New(0, 0, 1.5)
	for i := range flow.Data {
		flow.Data[i] = uniform
	}

	got := flow.FlowVectorAt(vec.New(1.3, 2.7, 0.5), 1)
	assert.InDelta(t, 0, vec.Distance(uniform, got), 1e-9)
}

func TestFlowImage4DFlowVectorAtInterpolatesLinearly(t *testing.T) {
	flow := NewFlowImage4D(2, 1, 1, 1, identityScale(), 1)
	flow.Set(0, 0, 0, 0, vec.New(0, 0, 0))
	flow.Set(1, 0, 0, 0, vec.New(10, 0, 0))

	mid := flow.FlowVectorAt(vec.New(0.5, 0, 0), 0)
	assert.InDelta(t, 5.0, mid.X, 1e-9)
}

func TestFlowImage4DClampsOutOfRangeTimeIndex(t *testing.T) {
	flow := NewFlowImage4D(1, 1, 1, 2, identityScale(), 1)
	flow.Set(0, 0, 0, 0, vec.New(1, 0, 0))
	flow.Set(0, 0, 0, 1, vec.New(2, 0, 0))

	got := flow.FlowVectorAt(vec.Zero, 99)
	assert.Equal(t, vec.New(2, 0, 0), got)
}
