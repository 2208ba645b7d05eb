package geom

import (
	"fmt"
	"math"

	"github.com/cmrcore/flow4d/pkg/vec"
)

// Scalar3DImage is a dense grid of double-precision scalars with size
// (Nx, Ny, Nz) and a rectilinear (per-axis scale, no rotation) world
// transformation. Values are stored x-fastest, then y, then z.
type Scalar3DImage struct {
	Nx, Ny, Nz int
	Data       []float64
	Transform  vec.AxisScale
}

// NewScalar3DImage allocates a zero-filled image of the given size and
// transform.
func NewScalar3DImage(nx, ny, nz int, tr vec.AxisScale) *Scalar3DImage {
	return &Scalar3DImage{Nx: nx, Ny: ny, Nz: nz, Data: make([]float64, nx*ny*nz), Transform: tr}
}

// NumValues returns Nx*Ny*Nz, the invariant length of Data.
func (s *Scalar3DImage) NumValues() int { return s.Nx * s.Ny * s.Nz }

// Index returns the flat offset of voxel (x, y, z).
func (s *Scalar3DImage) Index(x, y, z int) int { return (z*s.Ny+y)*s.Nx + x }

// At returns the scalar value at voxel (x, y, z).
func (s *Scalar3DImage) At(x, y, z int) float64 { return s.Data[s.Index(x, y, z)] }

// Set stores v at voxel (x, y, z).
func (s *Scalar3DImage) Set(x, y, z int, v float64) { s.Data[s.Index(x, y, z)] = v }

// InBounds reports whether (x, y, z) is a valid voxel index.
func (s *Scalar3DImage) InBounds(x, y, z int) bool {
	return x >= 0 && x < s.Nx && y >= 0 && y < s.Ny && z >= 0 && z < s.Nz
}

// ToWorld converts an object-space (voxel) point to world (mm) space.
func (s *Scalar3DImage) ToWorld(p vec.V3) vec.V3 { return s.Transform.ToWorld(p) }

// ToObject converts a world-space (mm) point to object (voxel) space.
func (s *Scalar3DImage) ToObject(p vec.V3) vec.V3 { return s.Transform.ToObject(p) }

// WorldAt returns the world-space position of voxel center (x, y, z).
func (s *Scalar3DImage) WorldAt(x, y, z int) vec.V3 {
	return s.ToWorld(vec.New(float64(x), float64(y), float64(z)))
}

// MinMax returns the minimum and maximum values stored in the image.
func (s *Scalar3DImage) MinMax() (min, max float64) {
	if len(s.Data) == 0 {
		return 0, 0
	}
	min, max = s.Data[0], s.Data[0]
	for _, v := range s.Data[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Padded returns a copy of s expanded by one voxel on every side, the
// padding filled with fillValue. The padded image's ToWorld/ToObject are the
// same affine transform as the source, so the original (0,0,0) voxel maps to
// object coordinate (1,1,1) in the padded grid.
//
// This is step 1 of marching-cubes extraction (spec.md §4.1): padding
// guarantees the iso-surface closes at the image boundary.
func (s *Scalar3DImage) Padded(fillValue float64) *Scalar3DImage {
	out := NewScalar3DImage(s.Nx+2, s.Ny+2, s.Nz+2, s.Transform)
	for i := range out.Data {
		out.Data[i] = fillValue
	}
	for z := 0; z < s.Nz; z++ {
		for y := 0; y < s.Ny; y++ {
			for x := 0; x < s.Nx; x++ {
				out.Set(x+1, y+1, z+1, s.At(x, y, z))
			}
		}
	}
	return out
}

// InterpolateAt returns the trilinearly-interpolated scalar value at a world
// point, clamping to the image bounds outside the grid (spec.md §4.4
// "the 3D segmentation interpolates >= 0.5 at that world position").
func (s *Scalar3DImage) InterpolateAt(worldPoint vec.V3) float64 {
	op := s.ToObject(worldPoint)
	x0 := int(math.Floor(op.X))
	y0 := int(math.Floor(op.Y))
	z0 := int(math.Floor(op.Z))
	fx := op.X - float64(x0)
	fy := op.Y - float64(y0)
	fz := op.Z - float64(z0)

	sample := func(x, y, z int) float64 {
		x = clampInt(x, 0, s.Nx-1)
		y = clampInt(y, 0, s.Ny-1)
		z = clampInt(z, 0, s.Nz-1)
		return s.At(x, y, z)
	}

	lerp := func(a, b, t float64) float64 { return a + (b-a)*t }

	c000, c100 := sample(x0, y0, z0), sample(x0+1, y0, z0)
	c010, c110 := sample(x0, y0+1, z0), sample(x0+1, y0+1, z0)
	c001, c101 := sample(x0, y0, z0+1), sample(x0+1, y0, z0+1)
	c011, c111 := sample(x0, y0+1, z0+1), sample(x0+1, y0+1, z0+1)

	c00 := lerp(c000, c100, fx)
	c10 := lerp(c010, c110, fx)
	c01 := lerp(c001, c101, fx)
	c11 := lerp(c011, c111, fx)

	c0 := lerp(c00, c10, fy)
	c1 := lerp(c01, c11, fy)

	return lerp(c0, c1, fz)
}

// RequireDims3D panics if the image's declared shape is not a genuine 3D
// volume: every axis length must be > 1, since an image with a single-voxel
// axis is at most 2D. Marching cubes
// calls this at entry (spec.md §4.1 "Panics on a 2D input").
func (s *Scalar3DImage) RequireDims3D() {
	if s.Nx < 1 || s.Ny < 1 || s.Nz < 1 {
		panic(fmt.Sprintf("geom: degenerate Scalar3DImage dimensions (%d,%d,%d)", s.Nx, s.Ny, s.Nz))
	}
	flat := 0
	if s.Nx == 1 {
		flat++
	}
	if s.Ny == 1 {
		flat++
	}
	if s.Nz == 1 {
		flat++
	}
	if flat >= 1 {
		panic(fmt.Sprintf("geom: Scalar3DImage (%d,%d,%d) is not 3-dimensional", s.Nx, s.Ny, s.Nz))
	}
}

// FlowImage4D is a dense 4D grid whose voxel value is a 3-vector velocity
// (mm/s) in world coordinates. The fourth axis is time with step DtMs
// (milliseconds). It is immutable during analysis: every stage reads it
// through FlowVectorAt and never writes back.
type FlowImage4D struct {
	Nx, Ny, Nz, Nt int
	Data           []vec.V3 // x-fastest, then y, then z, then t
	Transform      vec.AxisScale
	DtMs           float64
}

// NewFlowImage4D allocates a zero-filled flow field.
func NewFlowImage4D(nx, ny, nz, nt int, tr vec.AxisScale, dtMs float64) *FlowImage4D {
	return &FlowImage4D{
		Nx: nx, Ny: ny, Nz: nz, Nt: nt,
		Data:      make([]vec.V3, nx*ny*nz*nt),
		Transform: tr,
		DtMs:      dtMs,
	}
}

func (f *FlowImage4D) index(x, y, z, t int) int {
	return ((t*f.Nz+z)*f.Ny+y)*f.Nx + x
}

// At returns the velocity vector at voxel (x, y, z, t).
func (f *FlowImage4D) At(x, y, z, t int) vec.V3 { return f.Data[f.index(x, y, z, t)] }

// Set stores v at voxel (x, y, z, t).
func (f *FlowImage4D) Set(x, y, z, t int, v vec.V3) { f.Data[f.index(x, y, z, t)] = v }

// ToWorld converts an object-space point to world space (time axis passes
// through unscaled by the spatial transform; callers index time separately).
func (f *FlowImage4D) ToWorld(p vec.V3) vec.V3 { return f.Transform.ToWorld(p) }

// ToObject converts a world-space point to object space.
func (f *FlowImage4D) ToObject(p vec.V3) vec.V3 { return f.Transform.ToObject(p) }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FlowVectorAt returns the trilinearly-interpolated flow vector at a world
// point, at the nearest time index (spec.md §3: "trilinear +
// nearest-neighbor-in-time interpolation").
func (f *FlowImage4D) FlowVectorAt(worldPoint vec.V3, timeIndex int) vec.V3 {
	t := clampInt(timeIndex, 0, f.Nt-1)

	op := f.ToObject(worldPoint)
	x0 := int(math.Floor(op.X))
	y0 := int(math.Floor(op.Y))
	z0 := int(math.Floor(op.Z))
	fx := op.X - float64(x0)
	fy := op.Y - float64(y0)
	fz := op.Z - float64(z0)

	sample := func(x, y, z int) vec.V3 {
		x = clampInt(x, 0, f.Nx-1)
		y = clampInt(y, 0, f.Ny-1)
		z = clampInt(z, 0, f.Nz-1)
		return f.At(x, y, z, t)
	}

	c000 := sample(x0, y0, z0)
	c100 := sample(x0+1, y0, z0)
	c010 := sample(x0, y0+1, z0)
	c110 := sample(x0+1, y0+1, z0)
	c001 := sample(x0, y0, z0+1)
	c101 := sample(x0+1, y0, z0+1)
	c011 := sample(x0, y0+1, z0+1)
	c111 := sample(x0+1, y0+1, z0+1)

	c00 := vec.Lerp(c000, c100, fx)
	c10 := vec.Lerp(c010, c110, fx)
	c01 := vec.Lerp(c001, c101, fx)
	c11 := vec.Lerp(c011, c111, fx)

	c0 := vec.Lerp(c00, c10, fy)
	c1 := vec.Lerp(c01, c11, fy)

	return vec.Lerp(c0, c1, fz)
}

// NumTimesteps returns Nt, the length every computed per-timestep statistics
// vector must have (spec.md §3 MeasuringPlane invariant).
func (f *FlowImage4D) NumTimesteps() int { return f.Nt }
