package mesh

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/cmrcore/flow4d/pkg/vec"
)

// rtree branch factors, chosen per the rtreego package's own example usage.
const (
	rtreeMinBranch = 25
	rtreeMaxBranch = 50

	// rtreeBoundsEpsilon pads degenerate (zero-extent) triangle bounding
	// boxes, since rtreego requires strictly positive rectangle side
	// lengths.
	rtreeBoundsEpsilon = 1e-9
)

// triBoxEntry is the rtreego.Spatial adapter for one mesh triangle.
type triBoxEntry struct {
	triIndex int
	bounds   rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *triBoxEntry) Bounds() rtreego.Rect { return e.bounds }

// triangleIndex is the AABB broad-phase index over a mesh's triangles,
// backing TriangularMesh3D.Contains (spec.md §4.4 "using a point-in-mesh
// test against the mesh kd-tree" — expressed here via the rtreego AABB index
// rather than the point kd-tree, since containment testing is a
// triangle-level query, not a nearest-vertex query).
type triangleIndex struct {
	mesh *TriangularMesh3D
	tree *rtreego.Rtree
}

func triangleBounds(p0, p1, p2 vec.V3) rtreego.Rect {
	min := vec.New(
		math.Min(p0.X, math.Min(p1.X, p2.X)),
		math.Min(p0.Y, math.Min(p1.Y, p2.Y)),
		math.Min(p0.Z, math.Min(p1.Z, p2.Z)),
	)
	max := vec.New(
		math.Max(p0.X, math.Max(p1.X, p2.X)),
		math.Max(p0.Y, math.Max(p1.Y, p2.Y)),
		math.Max(p0.Z, math.Max(p1.Z, p2.Z)),
	)
	lengths := []float64{
		math.Max(max.X-min.X, rtreeBoundsEpsilon),
		math.Max(max.Y-min.Y, rtreeBoundsEpsilon),
		math.Max(max.Z-min.Z, rtreeBoundsEpsilon),
	}
	rect, err := rtreego.NewRect(rtreego.Point{min.X, min.Y, min.Z}, lengths)
	if err != nil {
		// lengths are clamped to be strictly positive above, so NewRect
		// cannot fail; this defends against a future change to the clamp.
		rect, _ = rtreego.NewRect(rtreego.Point{min.X, min.Y, min.Z}, []float64{rtreeBoundsEpsilon, rtreeBoundsEpsilon, rtreeBoundsEpsilon})
	}
	return rect
}

func buildTriangleIndex(m *TriangularMesh3D) *triangleIndex {
	tree := rtreego.NewTree(3, rtreeMinBranch, rtreeMaxBranch)
	for i, t := range m.Triangles {
		p0, p1, p2 := m.Points[t.A], m.Points[t.B], m.Points[t.C]
		tree.Insert(&triBoxEntry{triIndex: i, bounds: triangleBounds(p0, p1, p2)})
	}
	return &triangleIndex{mesh: m, tree: tree}
}

// rayTriangleIntersectsPositiveX implements the Moller-Trumbore ray-triangle
// intersection test for a ray from origin in the +X direction, returning
// whether it crosses the triangle at a positive parameter.
func rayTriangleIntersectsPositiveX(origin, p0, p1, p2 vec.V3) bool {
	const eps = 1e-12
	dir := vec.AxisX

	e1 := vec.Sub(p1, p0)
	e2 := vec.Sub(p2, p0)
	h := vec.Cross(dir, e2)
	a := vec.Dot(e1, h)
	if math.Abs(a) < eps {
		return false // ray parallel to triangle plane
	}
	f := 1.0 / a
	s := vec.Sub(origin, p0)
	u := f * vec.Dot(s, h)
	if u < 0 || u > 1 {
		return false
	}
	q := vec.Cross(s, e1)
	v := f * vec.Dot(dir, q)
	if v < 0 || u+v > 1 {
		return false
	}
	t := f * vec.Dot(e2, q)
	return t > eps
}

// contains reports whether p lies inside the mesh via ray-casting parity:
// a point is inside iff a ray cast to +infinity along X crosses the surface
// an odd number of times. The rtree AABB index prunes the candidate
// triangle set to those whose bounding box overlaps the ray's path.
func (ix *triangleIndex) contains(p vec.V3) bool {
	// Nudge the ray origin by a tiny, unequal y/z offset so the ray does not
	// pass exactly through an edge shared by two triangles (common on
	// lattice-aligned meshes), which would count one crossing twice.
	const rayJitterY, rayJitterZ = 1.3e-7, 2.9e-7
	p = vec.New(p.X, p.Y+rayJitterY, p.Z+rayJitterZ)

	// A half-infinite ray's bounding box, clipped to a large-but-finite
	// extent; any triangle beyond this range cannot matter for a physically
	// sized mesh (mm-scale CMR geometry).
	const rayReach = 1e6
	rect, err := rtreego.NewRect(
		rtreego.Point{p.X, p.Y - rtreeBoundsEpsilon, p.Z - rtreeBoundsEpsilon},
		[]float64{rayReach, 2 * rtreeBoundsEpsilon, 2 * rtreeBoundsEpsilon},
	)
	if err != nil {
		return false
	}

	candidates := ix.tree.SearchIntersect(rect)
	crossings := 0
	for _, c := range candidates {
		e := c.(*triBoxEntry)
		tri := ix.mesh.Triangles[e.triIndex]
		p0, p1, p2 := ix.mesh.Points[tri.A], ix.mesh.Points[tri.B], ix.mesh.Points[tri.C]
		if rayTriangleIntersectsPositiveX(p, p0, p1, p2) {
			crossings++
		}
	}
	return crossings%2 == 1
}
