// Package mesh implements TriangularMesh3D: an indexed point/triangle
// geometry with a lazily-built kd-tree for nearest-vertex queries and a
// lazily-built AABB tree for point-in-mesh containment tests.
//
// Grounded on the source toolkit's mesh geometry class: points + triangles +
// on-demand spatial acceleration structures invalidated by any geometric
// mutation (spec.md §3, §5 "Shared-resource policy").
package mesh

import (
	"errors"
	"fmt"

	"github.com/cmrcore/flow4d/pkg/geom"
	"github.com/cmrcore/flow4d/pkg/vec"
)

// ErrDegenerateTriangle is returned by Validate when a triangle has fewer
// than three distinct point indices.
var ErrDegenerateTriangle = errors.New("mesh: degenerate triangle")

// ErrIndexOutOfRange is returned by Validate when a triangle references a
// point index outside [0, NumPoints).
var ErrIndexOutOfRange = errors.New("mesh: triangle index out of range")

// Triangle is three point indices in CCW order; outward normals follow
// (p1-p0) x (p2-p0).
type Triangle struct {
	A, B, C int
}

// Indices returns the triangle's three point indices as an array, useful for
// uniform iteration.
func (t Triangle) Indices() [3]int { return [3]int{t.A, t.B, t.C} }

// IsDegenerate reports whether two or more of the triangle's indices
// coincide.
func (t Triangle) IsDegenerate() bool {
	return t.A == t.B || t.B == t.C || t.A == t.C
}

// TriangularMesh3D is an indexed list of 3D points (with optional per-point
// normals and a registered-schema attribute map) plus a triangle topology.
type TriangularMesh3D struct {
	Points    []vec.V3
	Triangles []Triangle
	Attrs     geom.AttributeSet

	kdtree *kdTree
	rtree  *triangleIndex
}

// New constructs an empty mesh.
func New() *TriangularMesh3D {
	return &TriangularMesh3D{}
}

// NumPoints returns the number of geometry points.
func (m *TriangularMesh3D) NumPoints() int { return len(m.Points) }

// NumTriangles returns the number of topology triangles.
func (m *TriangularMesh3D) NumTriangles() int { return len(m.Triangles) }

// AddPoint appends a point and returns its new index. Invalidates any
// built spatial index.
func (m *TriangularMesh3D) AddPoint(p vec.V3) int {
	m.Points = append(m.Points, p)
	m.Invalidate()
	return len(m.Points) - 1
}

// AddTriangle appends a triangle. Invalidates any built spatial index.
func (m *TriangularMesh3D) AddTriangle(t Triangle) {
	m.Triangles = append(m.Triangles, t)
	m.Invalidate()
}

// Invalidate discards any lazily-built kd-tree / AABB index. Call this after
// any direct mutation of Points or Triangles that bypasses AddPoint /
// AddTriangle.
func (m *TriangularMesh3D) Invalidate() {
	m.kdtree = nil
	m.rtree = nil
}

// Validate checks the structural invariants of spec.md §3: every triangle
// index is within range, and no triangle is degenerate.
func (m *TriangularMesh3D) Validate() error {
	n := len(m.Points)
	for i, t := range m.Triangles {
		for _, idx := range t.Indices() {
			if idx < 0 || idx >= n {
				return fmt.Errorf("mesh: triangle %d: %w (index %d, num points %d)", i, ErrIndexOutOfRange, idx, n)
			}
		}
		if t.IsDegenerate() {
			return fmt.Errorf("mesh: triangle %d: %w", i, ErrDegenerateTriangle)
		}
	}
	return nil
}

// TriangleNormal returns the unnormalized face normal (p1-p0) x (p2-p0) of
// triangle t.
func (m *TriangularMesh3D) TriangleNormal(t Triangle) vec.V3 {
	p0, p1, p2 := m.Points[t.A], m.Points[t.B], m.Points[t.C]
	return vec.Cross(vec.Sub(p1, p0), vec.Sub(p2, p0))
}

// RecomputeNormals rebuilds per-point normals as the area-weighted average
// of incident triangle face normals, storing them in Attrs under AttrNormal.
func (m *TriangularMesh3D) RecomputeNormals() {
	acc := make([]vec.V3, len(m.Points))
	for _, t := range m.Triangles {
		n := m.TriangleNormal(t) // magnitude proportional to 2x triangle area: natural area weighting
		acc[t.A] = vec.Add(acc[t.A], n)
		acc[t.B] = vec.Add(acc[t.B], n)
		acc[t.C] = vec.Add(acc[t.C], n)
	}
	for i := range acc {
		acc[i] = vec.Unit(acc[i])
	}
	m.Attrs.SetNormal(acc)
}

// KDTree lazily builds (or returns the cached) nearest-vertex index.
func (m *TriangularMesh3D) KDTree() *kdTree {
	if m.kdtree == nil {
		m.kdtree = buildKDTree(m.Points)
	}
	return m.kdtree
}

// NearestPoint returns the index and distance of the mesh point nearest to
// query. Grounds the C++ `mesh.geometry().closest_point()` call used by
// centerline distance-field construction (spec.md §4.2 Phase A).
func (m *TriangularMesh3D) NearestPoint(query vec.V3) (index int, distance float64) {
	return m.KDTree().Nearest(query)
}

// triangleBroadPhase lazily builds (or returns the cached) AABB index over
// triangles, used to accelerate point-in-mesh containment tests.
func (m *TriangularMesh3D) triangleBroadPhase() *triangleIndex {
	if m.rtree == nil {
		m.rtree = buildTriangleIndex(m)
	}
	return m.rtree
}

// Contains reports whether a world point lies inside the closed surface
// described by the mesh, via parity of ray-triangle intersections along +X,
// with candidate triangles pruned by the AABB broad-phase index.
func (m *TriangularMesh3D) Contains(p vec.V3) bool {
	return m.triangleBroadPhase().contains(p)
}
