// Package march implements marching-cubes iso-surface extraction from a
// geom.Scalar3DImage, producing a mesh.TriangularMesh3D in world coordinates.
//
// Grounded on the teacher's render/march3.go marchingCubes/mcToTriangles/
// mcInterpolate algorithm, adapted from procedural-SDF evaluation over a
// layerYZ double-buffer to dense-grid lookup over a Scalar3DImage, and from a
// single shared evalProcessCh to a pkg/workerpool.Pool sharded one slice per
// batch so the edge-dedup map can be merged per-slice rather than guarded by
// a single global lock (spec.md §4.1 "split per slice with a post-merge").
package march

import (
	"math"

	"github.com/cmrcore/flow4d/pkg/geom"
	"github.com/cmrcore/flow4d/pkg/mesh"
	"github.com/cmrcore/flow4d/pkg/vec"
	"github.com/cmrcore/flow4d/pkg/workerpool"
)

// epsilon bounds the float-equality checks used when placing an iso-crossing
// vertex at (or between) its two bounding lattice corners, mirroring the
// teacher's mcInterpolate closeToV1/closeToV2 guard (spec.md §4.1 "Numerical").
const epsilon = 1e-9

// edgeKey identifies a deduplicated iso-surface vertex: either an unordered
// pair of padded-grid lattice-point flat indices (an edge crossing), or a
// single lattice-point flat index with snapped == true (the crossing landed
// on a corner).
type edgeKey struct {
	lo, hi  int
	snapped bool
}

func makeEdgeKey(a, b int, onA, onB bool) edgeKey {
	if onA {
		return edgeKey{lo: a, snapped: true}
	}
	if onB {
		return edgeKey{lo: b, snapped: true}
	}
	if a > b {
		a, b = b, a
	}
	return edgeKey{lo: a, hi: b}
}

// sliceResult accumulates the triangles and deduplicated vertices produced
// while marching the cubes whose low corner lies in one z-layer of the
// padded grid.
type sliceResult struct {
	verts  map[edgeKey]int
	points []vec.V3
	tris   []mesh.Triangle
}

func newSliceResult() *sliceResult {
	return &sliceResult{verts: make(map[edgeKey]int)}
}

func (r *sliceResult) vertex(key edgeKey, p vec.V3) int {
	if idx, ok := r.verts[key]; ok {
		return idx
	}
	idx := len(r.points)
	r.points = append(r.points, p)
	r.verts[key] = idx
	return idx
}

// cornerOffsets gives the (dx,dy,dz) voxel offset of each of the 8 cube
// corners in the teacher's winding order.
var cornerOffsets = [8]vec.V3i{
	{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}, {X: 0, Y: 1, Z: 0},
	{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1},
}

// Apply extracts the tau-level-set of image as a world-space triangle mesh
// (spec.md §4.1).
func Apply(image *geom.Scalar3DImage, tau float64, pool *workerpool.Pool) *mesh.TriangularMesh3D {
	image.RequireDims3D()

	min, _ := image.MinMax()
	padded := image.Padded(min)

	nx, ny, nz := padded.Nx-1, padded.Ny-1, padded.Nz-1 // number of cubes per axis
	owned := pool == nil
	if owned {
		pool = workerpool.New(0)
		defer pool.Close()
	}

	sliceOf := func(x, y, z int) int { return (z*padded.Ny+y)*padded.Nx + x }

	results := make([]*sliceResult, nz)
	pool.ParallelFor(nz, func(z int) {
		r := newSliceResult()
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				marchCube(padded, x, y, z, tau, sliceOf, r)
			}
		}
		results[z] = r
	})

	// Merge per-slice results into a single global index space. Edge keys
	// encode global padded-grid lattice indices, so two slices that each
	// produced a vertex on their shared z-boundary face resolve to the same
	// key here and collapse to one point (spec.md §4.1 "split per slice with
	// a post-merge").
	out := mesh.New()
	global := make(map[edgeKey]int)
	for _, r := range results {
		remap := make([]int, len(r.points))
		for key, localIdx := range r.verts {
			globalIdx, ok := global[key]
			if !ok {
				globalIdx = out.AddPoint(r.points[localIdx])
				global[key] = globalIdx
			}
			remap[localIdx] = globalIdx
		}
		for _, t := range r.tris {
			out.Triangles = append(out.Triangles, mesh.Triangle{A: remap[t.A], B: remap[t.B], C: remap[t.C]})
		}
	}

	untranslate := vec.Sub(padded.WorldAt(0, 0, 0), padded.WorldAt(1, 1, 1))
	for i := range out.Points {
		out.Points[i] = vec.Add(out.Points[i], untranslate)
	}

	out.RecomputeNormals()
	return out
}

// marchCube classifies one cube of the padded grid and appends any resulting
// triangles/vertices to r. Grounds the teacher's mcToTriangles.
func marchCube(padded *geom.Scalar3DImage, x, y, z int, tau float64, flatIndex func(x, y, z int) int, r *sliceResult) {
	var corners [8]vec.V3
	var values [8]float64
	var flat [8]int
	for i, off := range cornerOffsets {
		cx, cy, cz := x+off.X, y+off.Y, z+off.Z
		corners[i] = padded.WorldAt(cx, cy, cz)
		values[i] = padded.At(cx, cy, cz)
		flat[i] = flatIndex(cx, cy, cz)
	}

	index := 0
	for i := 0; i < 8; i++ {
		if values[i] < tau {
			index |= 1 << uint(i)
		}
	}
	if edgeTable[index] == 0 {
		return
	}

	var edgeVertex [12]int
	var has [12]bool
	for i := 0; i < 12; i++ {
		if edgeTable[index]&(1<<uint(i)) == 0 {
			continue
		}
		a, b := edgePairTable[i][0], edgePairTable[i][1]
		p, key := interpolate(corners[a], corners[b], values[a], values[b], tau, flat[a], flat[b])
		edgeVertex[i] = r.vertex(key, p)
		has[i] = true
	}

	table := triangleTable[index]
	count := len(table) / 3
	for i := 0; i < count; i++ {
		e2, e1, e0 := table[i*3+0], table[i*3+1], table[i*3+2]
		if !has[e0] || !has[e1] || !has[e2] {
			continue
		}
		t := mesh.Triangle{A: edgeVertex[e0], B: edgeVertex[e1], C: edgeVertex[e2]}
		if !t.IsDegenerate() {
			r.tris = append(r.tris, t)
		}
	}
}

// interpolate locates the iso-crossing along edge (p1,p2) with scalar values
// (v1,v2), returning both the world-space point and the deduplication key for
// it (spec.md §4.1 steps 4-5).
func interpolate(p1, p2 vec.V3, v1, v2, tau float64, i1, i2 int) (vec.V3, edgeKey) {
	switch {
	case math.Abs(tau-v1) < epsilon:
		return p1, makeEdgeKey(i1, i2, true, false)
	case math.Abs(tau-v2) < epsilon:
		return p2, makeEdgeKey(i1, i2, false, true)
	case math.Abs(v1-v2) < epsilon:
		return p1, makeEdgeKey(i1, i2, true, false)
	default:
		t := (tau - v1) / (v2 - v1)
		return vec.Lerp(p1, p2, t), makeEdgeKey(i1, i2, false, false)
	}
}
