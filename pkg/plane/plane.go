// Package plane constructs a measuring plane perpendicular to a centerline
// position, samples the 4D flow field and a cross-sectional mask onto it,
// and computes the hemodynamic statistics the flow field implies there
// (spec.md §4.4).
//
// Grounded on `original_source/src/bkCMR/dataset/MeasuringPlane.cpp`:
// sample_from_flow_field, sample_segmentation_from_vessel_mesh/
// _segmentation, and calc_statistics are carried over verbatim in structure
// (per-cell sampling, per-timestep reduction, forward/backward/net volume
// accounting, normal-orientation correction, sorted-distribution summary),
// generalized from the C++ NDArray-backed grid/transformation classes to a
// flat Go slice plus pkg/vec.Affine, and from `bk::ThreadPool::enqueue`
// futures to `pkg/workerpool.Pool.ParallelFor`.
package plane

import (
	"math"

	"github.com/cmrcore/flow4d/pkg/frame"
	"github.com/cmrcore/flow4d/pkg/geom"
	"github.com/cmrcore/flow4d/pkg/mesh"
	"github.com/cmrcore/flow4d/pkg/stats"
	"github.com/cmrcore/flow4d/pkg/vec"
	"github.com/cmrcore/flow4d/pkg/workerpool"
)

// Plane is a (Nx, Ny, Nt) sampling grid in the plane perpendicular to a
// centerline tangent at Center. The cell spacing is uniform in x and y;
// DtMs is the flow field's time-step spacing in milliseconds.
type Plane struct {
	Center    vec.V3
	Transform vec.Affine // Rotation's third column is the plane normal (tangent direction)

	Nx, Ny, Nt int
	DtMs       float64

	Flow []vec.V3 // Nx*Ny*Nt, world-space flow vectors
	Mask []bool   // Nx*Ny, replicated across t
}

// New builds a Plane centered at center, oriented perpendicular to tangent.
// The initial in-plane basis reuses frame.Build's single-point construction
// (spec.md §4.2 Phase F "arbitrary orthonormal frame") so a measuring plane
// and a centerline frame at the same position agree on orientation.
func New(center, tangent vec.V3, nx, ny, nt int, spacingXY, dtMs float64) *Plane {
	f := frame.Build([]vec.V3{center}, []vec.V3{tangent})[0]
	// Shift the grid origin so that center lies at the middle of the (x, y)
	// grid rather than at cell (0, 0).
	halfExtent := vec.New(float64(nx-1)/2*spacingXY, float64(ny-1)/2*spacingXY, 0)
	origin := vec.Sub(center, f.MulVec(halfExtent))
	return &Plane{
		Center:    center,
		Transform: vec.Affine{Origin: origin, Rotation: f, Scale: vec.New(spacingXY, spacingXY, 1)},
		Nx:        nx, Ny: ny, Nt: nt, DtMs: dtMs,
		Flow: make([]vec.V3, nx*ny*nt),
		Mask: make([]bool, nx*ny),
	}
}

// AreaPerCell is the in-plane area, in mm^2, of one (x, y) cell.
func (p *Plane) AreaPerCell() float64 { return p.Transform.Scale.X * p.Transform.Scale.Y }

func (p *Plane) index(x, y, t int) int    { return (t*p.Ny+y)*p.Nx + x }
func (p *Plane) maskIndex(x, y int) int   { return y*p.Nx + x }
func (p *Plane) WorldAt(x, y int) vec.V3  { return p.Transform.ToWorld(vec.New(float64(x), float64(y), 0)) }
func (p *Plane) FlowAt(x, y, t int) vec.V3 { return p.Flow[p.index(x, y, t)] }
func (p *Plane) InMask(x, y int) bool      { return p.Mask[p.maskIndex(x, y)] }

// SampleFlow fills Flow by sampling flow at every (x, y, t) cell (spec.md
// §4.4 "Sampling"). A nil pool runs a private one.
func (p *Plane) SampleFlow(flow *geom.FlowImage4D, pool *workerpool.Pool) {
	if pool == nil {
		pool = workerpool.New(0)
		defer pool.Close()
	}
	pool.ParallelFor(p.Nx, func(x int) {
		for y := 0; y < p.Ny; y++ {
			wp := p.WorldAt(x, y)
			for t := 0; t < p.Nt; t++ {
				p.Flow[p.index(x, y, t)] = flow.FlowVectorAt(wp, t)
			}
		}
	})
}

// SampleMaskFromMesh marks every (x, y) cell whose world point lies inside m
// (spec.md §4.4 "using a point-in-mesh test against the mesh kd-tree").
func (p *Plane) SampleMaskFromMesh(m *mesh.TriangularMesh3D, pool *workerpool.Pool) {
	if pool == nil {
		pool = workerpool.New(0)
		defer pool.Close()
	}
	pool.ParallelFor(p.Nx, func(x int) {
		for y := 0; y < p.Ny; y++ {
			if m.Contains(p.WorldAt(x, y)) {
				p.Mask[p.maskIndex(x, y)] = true
			}
		}
	})
}

// SampleMaskFromSegmentation marks every (x, y) cell whose world point
// interpolates >= 0.5 in seg (spec.md §4.4).
func (p *Plane) SampleMaskFromSegmentation(seg *geom.Scalar3DImage, pool *workerpool.Pool) {
	if pool == nil {
		pool = workerpool.New(0)
		defer pool.Close()
	}
	pool.ParallelFor(p.Nx, func(x int) {
		for y := 0; y < p.Ny; y++ {
			if seg.InterpolateAt(p.WorldAt(x, y)) >= 0.5 {
				p.Mask[p.maskIndex(x, y)] = true
			}
		}
	})
}

// Statistics holds the per-timestep metrics, aggregates, and distributions
// of spec.md §4.4.
type Statistics struct {
	FlowRatePerTime                       []float64
	ArealMeanVelocityPerTime              []float64
	ArealMeanVelocityThroughPlanePerTime  []float64
	AreaMM2PerTime                        []float64
	VelocityThroughPlane                  []float64 // Nx*Ny*Nt, per-cell attribute

	ForwardFlowVolumeML      float64
	BackwardFlowVolumeML     float64
	NetFlowVolumeML          float64
	PercentagedBackFlowVolume float64
	CardiacOutputLPerMin     float64
	NormalIsAligned          bool

	MinVelocity, MaxVelocity, MeanVelocity, MedianVelocity                                 float64
	MinVelocityThroughPlane, MaxVelocityThroughPlane, MeanVelocityThroughPlane, MedianVelocityThroughPlane float64
}

// ComputeStatistics reduces Flow/Mask into Statistics (spec.md §4.4
// "Per-timestep metrics", "Aggregates", "Normal orientation",
// "Distributions"). A nil pool runs a private one.
func (p *Plane) ComputeStatistics(pool *workerpool.Pool) *Statistics {
	if pool == nil {
		pool = workerpool.New(0)
		defer pool.Close()
	}

	normal := p.Transform.Normal()
	areaPerCell := p.AreaPerCell()

	result := &Statistics{
		FlowRatePerTime:                      make([]float64, p.Nt),
		ArealMeanVelocityPerTime:             make([]float64, p.Nt),
		ArealMeanVelocityThroughPlanePerTime: make([]float64, p.Nt),
		AreaMM2PerTime:                       make([]float64, p.Nt),
		VelocityThroughPlane:                 make([]float64, p.Nx*p.Ny*p.Nt),
		NormalIsAligned:                      true,
	}

	velocitiesPerTime := make([][]float64, p.Nt)
	velocitiesTPPerTime := make([][]float64, p.Nt)

	pool.ParallelFor(p.Nt, func(t int) {
		var fr, arealV, arealVTP float64
		var cnt int
		var vs, vtps []float64
		for y := 0; y < p.Ny; y++ {
			for x := 0; x < p.Nx; x++ {
				if !p.InMask(x, y) {
					continue
				}
				v := p.FlowAt(x, y, t)
				vtp := vec.Dot(v, normal)
				vnorm := vec.Norm(v)

				fr += vtp
				arealV += vnorm
				arealVTP += vtp
				cnt++
				vs = append(vs, vnorm)
				vtps = append(vtps, vtp)
				result.VelocityThroughPlane[p.index(x, y, t)] = vtp
			}
		}
		result.FlowRatePerTime[t] = fr * areaPerCell
		if cnt > 0 {
			result.ArealMeanVelocityPerTime[t] = arealV / float64(cnt)
			result.ArealMeanVelocityThroughPlanePerTime[t] = arealVTP / float64(cnt)
		}
		result.AreaMM2PerTime[t] = float64(cnt) * areaPerCell
		velocitiesPerTime[t] = vs
		velocitiesTPPerTime[t] = vtps
	})

	const mm3ToMl = 1e-3
	for t := 0; t < p.Nt; t++ {
		fr := result.FlowRatePerTime[t]
		switch {
		case fr > 0:
			result.ForwardFlowVolumeML += fr
		case fr < 0:
			result.BackwardFlowVolumeML += -fr
		}
		result.NetFlowVolumeML += fr
	}
	result.ForwardFlowVolumeML *= p.DtMs * mm3ToMl
	result.BackwardFlowVolumeML *= p.DtMs * mm3ToMl
	result.NetFlowVolumeML *= p.DtMs * mm3ToMl

	result.NormalIsAligned = !(math.Signbit(result.NetFlowVolumeML) ||
		math.Signbit(result.ForwardFlowVolumeML) || math.Signbit(result.BackwardFlowVolumeML))
	if !result.NormalIsAligned {
		for i := range result.FlowRatePerTime {
			result.FlowRatePerTime[i] = -result.FlowRatePerTime[i]
		}
		for i := range result.ArealMeanVelocityThroughPlanePerTime {
			result.ArealMeanVelocityThroughPlanePerTime[i] = -result.ArealMeanVelocityThroughPlanePerTime[i]
		}
		for i := range result.VelocityThroughPlane {
			result.VelocityThroughPlane[i] = -result.VelocityThroughPlane[i]
		}
		for t := range velocitiesTPPerTime {
			for i := range velocitiesTPPerTime[t] {
				velocitiesTPPerTime[t][i] = -velocitiesTPPerTime[t][i]
			}
		}
		result.ForwardFlowVolumeML, result.BackwardFlowVolumeML = math.Abs(result.BackwardFlowVolumeML), math.Abs(result.ForwardFlowVolumeML)
		result.NetFlowVolumeML = math.Abs(result.NetFlowVolumeML)
	}

	if denom := result.ForwardFlowVolumeML + result.BackwardFlowVolumeML; denom > 0 {
		result.PercentagedBackFlowVolume = 100 * result.BackwardFlowVolumeML / denom
	}
	result.CardiacOutputLPerMin = mm3ToMl * result.NetFlowVolumeML * 60000 / (p.DtMs * float64(p.Nt))

	var allV, allVTP []float64
	for t := 0; t < p.Nt; t++ {
		allV = append(allV, velocitiesPerTime[t]...)
		allVTP = append(allVTP, velocitiesTPPerTime[t]...)
	}

	if len(allV) > 0 {
		result.MinVelocity, result.MaxVelocity = stats.MinMax(allV)
		result.MeanVelocity = stats.Mean(allV)
		result.MedianVelocity = stats.Median(allV)
	}
	if len(allVTP) > 0 {
		result.MinVelocityThroughPlane, result.MaxVelocityThroughPlane = stats.MinMax(allVTP)
		result.MeanVelocityThroughPlane = stats.Mean(allVTP)
		result.MedianVelocityThroughPlane = stats.Median(allVTP)
	}

	return result
}
