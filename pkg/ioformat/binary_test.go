package ioformat

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmrcore/flow4d/pkg/centerline"
	"github.com/cmrcore/flow4d/pkg/geom"
	"github.com/cmrcore/flow4d/pkg/mesh"
	"github.com/cmrcore/flow4d/pkg/vec"
)

func TestWriteLineFileGeometryAndTopology(t *testing.T) {
	line := centerline.Line3D{
		Points: []vec.V3{vec.New(0, 0, 0), vec.New(1, 0, 0), vec.New(2, 0, 0)},
		Radius: []float64{1.5, 1.6, 1.7},
		Frames: []vec.Mat3{vec.Identity(), vec.Identity(), vec.Identity()},
	}
	path := filepath.Join(t.TempDir(), "out.line")
	require.NoError(t, WriteLineFile(path, line))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	r := &byteReader{data: data}
	assert.Equal(t, uint32(3), r.u32())
	assert.Equal(t, uint32(3), r.u32())
	for i := 0; i < 3; i++ {
		r.f64()
		r.f64()
		r.f64()
	}

	numAttrs := r.u16()
	assert.Equal(t, uint16(2), numAttrs)
	for i := 0; i < int(numAttrs); i++ {
		nameLen := r.u16()
		name := string(r.bytes(int(nameLen)))
		typeTag := r.bytes(1)[0]
		payloadLen := r.u32()
		switch name {
		case geom.AttrRadius.String():
			assert.Equal(t, byte(attrTypeFloat64), typeTag)
			assert.Equal(t, uint32(3*8), payloadLen)
		case geom.AttrLocalFrame.String():
			assert.Equal(t, byte(attrTypeFloat64Mat3), typeTag)
			assert.Equal(t, uint32(3*9*8), payloadLen)
		default:
			t.Fatalf("unexpected attribute %q", name)
		}
		r.bytes(int(payloadLen))
	}

	numCells := r.u32()
	assert.Equal(t, uint32(2), numCells)
	a0, b0 := r.u32(), r.u32()
	assert.Equal(t, uint32(0), a0)
	assert.Equal(t, uint32(1), b0)
	a1, b1 := r.u32(), r.u32()
	assert.Equal(t, uint32(1), a1)
	assert.Equal(t, uint32(2), b1)
	assert.True(t, r.atEOF())
}

func TestWriteMeshFileGeometryAndTopology(t *testing.T) {
	m := mesh.New()
	m.AddPoint(vec.New(0, 0, 0))
	m.AddPoint(vec.New(1, 0, 0))
	m.AddPoint(vec.New(0, 1, 0))
	m.AddTriangle(mesh.Triangle{A: 0, B: 1, C: 2})

	path := filepath.Join(t.TempDir(), "out.mesh")
	require.NoError(t, WriteMeshFile(path, m))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	r := &byteReader{data: data}
	assert.Equal(t, uint32(3), r.u32())
	assert.Equal(t, uint32(3), r.u32())
	for i := 0; i < 3; i++ {
		r.f64()
		r.f64()
		r.f64()
	}
	numAttrs := r.u16()
	assert.Equal(t, uint16(0), numAttrs)

	numTriangles := r.u32()
	assert.Equal(t, uint32(1), numTriangles)
	assert.Equal(t, uint32(0), r.u32())
	assert.Equal(t, uint32(1), r.u32())
	assert.Equal(t, uint32(2), r.u32())
	assert.True(t, r.atEOF())
}

type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) bytes(n int) []byte {
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}
func (r *byteReader) u16() uint16   { return byteOrder.Uint16(r.bytes(2)) }
func (r *byteReader) u32() uint32   { return byteOrder.Uint32(r.bytes(4)) }
func (r *byteReader) f64() float64  { return math.Float64frombits(byteOrder.Uint64(r.bytes(8))) }
func (r *byteReader) atEOF() bool   { return r.pos == len(r.data) }
