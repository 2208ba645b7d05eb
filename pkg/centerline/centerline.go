// Package centerline extracts vessel centerlines from a surface mesh and a
// lumen segmentation mask, following an intravascular-distance-field
// shortest-path construction, Taubin smoothing, and rotation-minimizing
// frame annotation (spec.md §4.2).
//
// Grounded on `original_source/src/bkCMR/CenterlineExtractor.cpp`:
// `extract_centerlines` is carried over phase-for-phase (distance map,
// queue-based relaxation, frontier-expansion fallback, back-trace, Taubin
// smoothing, radius attribute, local frame construction), generalized from
// the C++ `bk::DicomImage`/`bk::CartesianImage` grid types to
// `geom.Scalar3DImage` and from raw `Vec3i`/flat-index bookkeeping to a
// small internal `grid` helper.
package centerline

import (
	"math"

	"github.com/cmrcore/flow4d/pkg/frame"
	"github.com/cmrcore/flow4d/pkg/geom"
	"github.com/cmrcore/flow4d/pkg/logging"
	"github.com/cmrcore/flow4d/pkg/mesh"
	"github.com/cmrcore/flow4d/pkg/smooth"
	"github.com/cmrcore/flow4d/pkg/vec"
	"github.com/cmrcore/flow4d/pkg/workerpool"
)

// Line3D is one extracted centerline: densely sampled world-space points
// with a per-point radius and a per-point local orthonormal frame.
type Line3D struct {
	Points []vec.V3
	Radius []float64
	Frames []vec.Mat3
}

// NumPoints returns the number of points on the line.
func (l Line3D) NumPoints() int { return len(l.Points) }

// Extractor holds the tunable parameters of spec.md §4.2's configuration
// table. The zero value is invalid; use NewExtractor for the documented
// defaults.
type Extractor struct {
	ImageUpscale          int
	DistancePenaltyExponent int
	NumSmoothIterations   int
	SmoothKernelSize      int
	SmoothRelaxation      float64
}

// NewExtractor returns an Extractor configured with spec.md §4.2's defaults.
func NewExtractor() *Extractor {
	return &Extractor{
		ImageUpscale:            3,
		DistancePenaltyExponent: 5,
		NumSmoothIterations:     500,
		SmoothKernelSize:        3,
		SmoothRelaxation:        0.1,
	}
}

// grid is the upscaled intravascular distance-field lattice plus the
// per-cell bookkeeping the shortest-path relaxation needs.
type grid struct {
	nx, ny, nz int
	transform  vec.AxisScale
	dist       []float64 // normalized penalty, in [0,1]
	cost       []float64
	parent     []int // flat index, -1 = unset
	visited    []bool
}

func (g *grid) index(x, y, z int) int { return (z*g.ny+y)*g.nx + x }

func (g *grid) coords(lid int) (x, y, z int) {
	x = lid % g.nx
	y = (lid / g.nx) % g.ny
	z = lid / (g.nx * g.ny)
	return
}

func (g *grid) worldAt(x, y, z int) vec.V3 {
	return g.transform.ToWorld(vec.New(float64(x), float64(y), float64(z)))
}

func clampVoxel(v float64, size int) int {
	r := int(math.Round(v))
	if r < 0 {
		r = 0
	}
	if r > size-1 {
		r = size - 1
	}
	return r
}

// projectToGrid converts a world point to a seg-space voxel, clamps it to
// seg bounds, then scales by upscale to find its anchor cell in the
// upscaled grid (spec.md §4.2 Phase B "projection of the seed vertex").
func projectToGrid(worldPoint vec.V3, seg *geom.Scalar3DImage, upscale int) (x, y, z int) {
	obj := seg.ToObject(worldPoint)
	x = clampVoxel(obj.X, seg.Nx) * upscale
	y = clampVoxel(obj.Y, seg.Ny) * upscale
	z = clampVoxel(obj.Z, seg.Nz) * upscale
	return
}

// buildDistanceField constructs the normalized intravascular distance
// penalty grid (spec.md §4.2 Phase A), returning the grid and the original
// (pre-normalization) maximum distance.
func buildDistanceField(m *mesh.TriangularMesh3D, seg *geom.Scalar3DImage, upscale, exponent int, pool *workerpool.Pool) (*grid, float64) {
	nx, ny, nz := seg.Nx*upscale, seg.Ny*upscale, seg.Nz*upscale
	tr := vec.AxisScale{
		Origin: seg.Transform.Origin,
		Scale:  vec.Scale(1/float64(upscale), seg.Transform.Scale),
	}
	g := &grid{nx: nx, ny: ny, nz: nz, transform: tr, dist: make([]float64, nx*ny*nz)}

	m.KDTree() // force construction once, outside the parallel loop

	pool.ParallelFor(nx, func(x int) {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				sx, sy, sz := x/upscale, y/upscale, z/upscale
				if seg.At(sx, sy, sz) == 0 {
					continue // left at the zero-value sentinel
				}
				p := g.worldAt(x, y, z)
				_, d := m.NearestPoint(p)
				g.dist[g.index(x, y, z)] = d
			}
		}
	})

	maxRaw := 0.0
	for _, d := range g.dist {
		if d > maxRaw {
			maxRaw = d
		}
	}
	if maxRaw == 0 {
		maxRaw = 1 // degenerate (empty/point segmentation): avoid a divide by zero
	}

	for i, d := range g.dist {
		norm := (maxRaw - d) / maxRaw
		g.dist[i] = math.Pow(norm, float64(exponent))
	}
	return g, maxRaw
}

// neighborOffsets26 enumerates the 26 neighbors of a 3D cell.
var neighborOffsets26 = func() [][3]int {
	var offs [][3]int
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				offs = append(offs, [3]int{dx, dy, dz})
			}
		}
	}
	return offs
}()

// relax runs the queue-based Bellman-Ford-style relaxation from the cells in
// seedQueue. When restrictToSegmentation is false, every neighbor is
// traversable regardless of its distance-field value (spec.md §4.2 Phase B,
// second-pass frontier expansion).
func relax(g *grid, seedQueue []int, restrictToSegmentation bool) {
	active := append([]int(nil), seedQueue...)
	// inQueue tracks queue membership separately from g.visited ("ever
	// reached"): a node popped off the queue must be re-enqueued if a later
	// path improves its cost, even though it was visited before.
	inQueue := make([]bool, len(g.cost))
	for _, lid := range seedQueue {
		inQueue[lid] = true
	}
	for len(active) > 0 {
		lid := active[0]
		active = active[1:]
		inQueue[lid] = false
		cx, cy, cz := g.coords(lid)
		costCurrent := g.cost[lid]

		for _, off := range neighborOffsets26 {
			nx, ny, nz := cx+off[0], cy+off[1], cz+off[2]
			if nx < 0 || nx >= g.nx || ny < 0 || ny >= g.ny || nz < 0 || nz >= g.nz {
				continue
			}
			nlid := g.index(nx, ny, nz)
			if restrictToSegmentation && g.dist[nlid] == 1.0 {
				continue
			}
			costNeighbor := g.dist[nlid]
			accum := costCurrent + costNeighbor
			if accum < g.cost[nlid] {
				g.cost[nlid] = accum
				g.parent[nlid] = lid
				g.visited[nlid] = true
				if !inQueue[nlid] {
					inQueue[nlid] = true
					active = append(active, nlid)
				}
			}
		}
	}
}

// frontier collects every visited cell that borders at least one
// non-visited cell (spec.md §4.2 Phase B fallback).
func frontier(g *grid) []int {
	var out []int
	for lid := range g.visited {
		if !g.visited[lid] {
			continue
		}
		cx, cy, cz := g.coords(lid)
		for _, off := range neighborOffsets26 {
			nx, ny, nz := cx+off[0], cy+off[1], cz+off[2]
			if nx < 0 || nx >= g.nx || ny < 0 || ny >= g.ny || nz < 0 || nz >= g.nz {
				continue
			}
			if !g.visited[g.index(nx, ny, nz)] {
				out = append(out, lid)
				break
			}
		}
	}
	return out
}

var v3Ops = smooth.Ops[vec.V3]{Add: vec.V3Add, Sub: vec.V3Sub, Scale: vec.V3Scale}

// Extract computes one centerline per target vertex, threading the vessel
// lumen described by seg (spec.md §4.2). A nil pool runs a private one.
func (e *Extractor) Extract(m *mesh.TriangularMesh3D, seg *geom.Scalar3DImage, seedVertex int, targetVertices []int, pool *workerpool.Pool) ([]Line3D, bool) {
	if len(targetVertices) == 0 {
		return nil, false
	}

	if pool == nil {
		pool = workerpool.New(0)
		defer pool.Close()
	}

	upscale := e.ImageUpscale
	if upscale < 1 {
		upscale = 1
	}

	df, maxRaw := buildDistanceField(m, seg, upscale, e.DistancePenaltyExponent, pool)

	seedX, seedY, seedZ := projectToGrid(m.Points[seedVertex], seg, upscale)
	seedLid := df.index(seedX, seedY, seedZ)

	lines := make([]Line3D, 0, len(targetVertices))

	for _, targetVertex := range targetVertices {
		tx, ty, tz := projectToGrid(m.Points[targetVertex], seg, upscale)
		targetLid := df.index(tx, ty, tz)
		if df.dist[targetLid] == 1.0 {
			df.dist[targetLid] -= 0.1
		}

		n := len(df.dist)
		df.cost = make([]float64, n)
		df.parent = make([]int, n)
		df.visited = make([]bool, n)
		for i := range df.cost {
			df.cost[i] = math.MaxFloat64
			df.parent[i] = -1
		}
		df.cost[seedLid] = df.dist[seedLid]
		df.visited[seedLid] = true

		relax(df, []int{seedLid}, true)

		if df.parent[targetLid] == -1 && targetLid != seedLid {
			relax(df, frontier(df), false)
		}
		if df.parent[targetLid] == -1 && targetLid != seedLid {
			logging.FromEnv().Warnf("%v: vertex %d", ErrUnreachableTarget, targetVertex)
			continue // unreachable even after frontier expansion; skip (spec.md §7 UnreachableTarget)
		}

		points := backTrace(df, seedLid, targetLid)
		smoothed := smooth.LambdaMu(points, v3Ops, e.NumSmoothIterations, e.SmoothKernelSize, e.SmoothRelaxation, e.SmoothRelaxation)

		radius := make([]float64, len(smoothed))
		for i, p := range smoothed {
			radius[i] = radiusAt(df, p, e.DistancePenaltyExponent, maxRaw)
		}

		tangents := frame.Tangents(smoothed)
		frames := frame.Build(smoothed, tangents)

		lines = append(lines, Line3D{Points: smoothed, Radius: radius, Frames: frames})
	}

	return lines, true
}

// backTrace walks parent back-pointers from target to seed, returning the
// world-space points ordered seed→target (spec.md §4.2 Phase C).
func backTrace(g *grid, seedLid, targetLid int) []vec.V3 {
	var reverse []vec.V3
	current := targetLid
	for current != seedLid {
		cx, cy, cz := g.coords(current)
		reverse = append(reverse, g.transform.ToWorld(vec.New(float64(cx), float64(cy), float64(cz))))
		current = g.parent[current]
	}
	cx, cy, cz := g.coords(seedLid)
	reverse = append(reverse, g.transform.ToWorld(vec.New(float64(cx), float64(cy), float64(cz))))

	points := make([]vec.V3, len(reverse))
	for i, p := range reverse {
		points[len(reverse)-1-i] = p
	}
	return points
}

// radiusAt inverts the distance-penalty function at the upscaled-grid cell
// containing p (spec.md §4.2 Phase E).
func radiusAt(g *grid, p vec.V3, exponent int, maxRaw float64) float64 {
	obj := g.transform.ToObject(p)
	x := clampVoxel(obj.X, g.nx)
	y := clampVoxel(obj.Y, g.ny)
	z := clampVoxel(obj.Z, g.nz)
	d := g.dist[g.index(x, y, z)]
	return (1 - math.Pow(d, 1/float64(exponent))) * maxRaw
}
