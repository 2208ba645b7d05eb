package ioformat

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/cmrcore/flow4d/pkg/geom"
	"github.com/cmrcore/flow4d/pkg/vec"
)

// Raw scalar/flow image dumps are a `cmd/flow4d` convenience, not one of
// spec.md §6's external formats: the spec explicitly puts DICOM/image-file
// import out of scope (spec.md §2 "Out of scope"), so there is no
// spec-defined way to hand the CLI a segmentation or flow field from disk.
// This is the minimal binary round-trip the CLI subcommands need to chain
// (extract-mesh's input segmentation, stats' input flow field) without
// reaching for a real-world import format the spec disclaims.

// WriteScalar3DImage writes a raw dump of img: u32 nx,ny,nz, f64
// origin(x,y,z), f64 scale(x,y,z), then nx*ny*nz f64 values.
func WriteScalar3DImage(path string, img *geom.Scalar3DImage) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeU32(w, uint32(img.Nx)); err != nil {
		return err
	}
	if err := writeU32(w, uint32(img.Ny)); err != nil {
		return err
	}
	if err := writeU32(w, uint32(img.Nz)); err != nil {
		return err
	}
	if err := writeAxisScale(w, img.Transform); err != nil {
		return err
	}
	if err := writeF64s(w, img.Data...); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// ReadScalar3DImage reads a dump written by WriteScalar3DImage.
func ReadScalar3DImage(path string) (*geom.Scalar3DImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	nx, err := readU32(r)
	if err != nil {
		return nil, err
	}
	ny, err := readU32(r)
	if err != nil {
		return nil, err
	}
	nz, err := readU32(r)
	if err != nil {
		return nil, err
	}
	tr, err := readAxisScale(r)
	if err != nil {
		return nil, err
	}
	img := geom.NewScalar3DImage(int(nx), int(ny), int(nz), tr)
	if err := readF64s(r, img.Data); err != nil {
		return nil, err
	}
	return img, nil
}

// WriteFlowImage4D writes a raw dump of flow: u32 nx,ny,nz,nt, f64 dtMs, f64
// origin(x,y,z), f64 scale(x,y,z), then nx*ny*nz*nt*3 f64 values (vx,vy,vz
// per voxel).
func WriteFlowImage4D(path string, flow *geom.FlowImage4D) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, n := range []int{flow.Nx, flow.Ny, flow.Nz, flow.Nt} {
		if err := writeU32(w, uint32(n)); err != nil {
			return err
		}
	}
	if err := writeF64s(w, flow.DtMs); err != nil {
		return err
	}
	if err := writeAxisScale(w, flow.Transform); err != nil {
		return err
	}
	for _, v := range flow.Data {
		if err := writeF64s(w, v.X, v.Y, v.Z); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// ReadFlowImage4D reads a dump written by WriteFlowImage4D.
func ReadFlowImage4D(path string) (*geom.FlowImage4D, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	dims := make([]int, 4)
	for i := range dims {
		v, err := readU32(r)
		if err != nil {
			return nil, err
		}
		dims[i] = int(v)
	}
	dtMs, err := readF64(r)
	if err != nil {
		return nil, err
	}
	tr, err := readAxisScale(r)
	if err != nil {
		return nil, err
	}
	flow := geom.NewFlowImage4D(dims[0], dims[1], dims[2], dims[3], tr, dtMs)
	for i := range flow.Data {
		x, err := readF64(r)
		if err != nil {
			return nil, err
		}
		y, err := readF64(r)
		if err != nil {
			return nil, err
		}
		z, err := readF64(r)
		if err != nil {
			return nil, err
		}
		flow.Data[i] = vec.New(x, y, z)
	}
	return flow, nil
}

func writeAxisScale(w io.Writer, tr vec.AxisScale) error {
	return writeF64s(w, tr.Origin.X, tr.Origin.Y, tr.Origin.Z, tr.Scale.X, tr.Scale.Y, tr.Scale.Z)
}

func readAxisScale(r io.Reader) (vec.AxisScale, error) {
	vs := make([]float64, 6)
	for i := range vs {
		v, err := readF64(r)
		if err != nil {
			return vec.AxisScale{}, err
		}
		vs[i] = v
	}
	return vec.AxisScale{Origin: vec.New(vs[0], vs[1], vs[2]), Scale: vec.New(vs[3], vs[4], vs[5])}, nil
}

func readU32(r io.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, byteOrder, &v)
	return v, err
}

func readF64(r io.Reader) (float64, error) {
	var v float64
	err := binary.Read(r, byteOrder, &v)
	return v, err
}

func readF64s(r io.Reader, dst []float64) error {
	for i := range dst {
		v, err := readF64(r)
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}
