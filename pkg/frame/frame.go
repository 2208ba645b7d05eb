// Package frame builds a rotation-minimizing local coordinate frame (x, y,
// tangent) along a polyline and smooths the resulting sequence of 3x3
// frames.
//
// Grounded on spec.md §4.2 Phase F and the C++
// `calc_consistent_local_coordinate_systems()` this generalizes: build an
// arbitrary initial frame at point 0, then propagate by the minimal rotation
// that carries each tangent into the next, smoothing the resulting matrix
// sequence with the same binomial kernel as `pkg/smooth`.
package frame

import (
	"math"

	"github.com/cmrcore/flow4d/pkg/logging"
	"github.com/cmrcore/flow4d/pkg/smooth"
	"github.com/cmrcore/flow4d/pkg/vec"
)

// BinomialSmoothIterations and BinomialSmoothKernelSize are the fixed
// parameters spec.md §4.2 Phase F names for the final frame-sequence
// smoothing pass.
const (
	BinomialSmoothIterations = 25
	BinomialSmoothKernelSize = 5
)

// Tangents computes a unit tangent per point of a polyline using a centered
// difference at interior points and a one-sided difference at the
// endpoints.
func Tangents(points []vec.V3) []vec.V3 {
	n := len(points)
	out := make([]vec.V3, n)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[0] = vec.AxisZ
		return out
	}
	out[0] = vec.Unit(vec.Sub(points[1], points[0]))
	out[n-1] = vec.Unit(vec.Sub(points[n-1], points[n-2]))
	for i := 1; i < n-1; i++ {
		out[i] = vec.Unit(vec.Sub(points[i+1], points[i-1]))
	}
	return out
}

// initialFrame builds an arbitrary orthonormal frame whose z is tangent and
// whose x is orthogonal to z, per spec.md §4.2 Phase F: try X x z, then
// Y x z, then Z x z, falling back to an arbitrary non-parallel vector.
func initialFrame(tangent vec.V3) vec.Mat3 {
	z := vec.Unit(tangent)
	candidates := []vec.V3{vec.AxisX, vec.AxisY, vec.AxisZ}
	const minNorm = 1e-6
	var x vec.V3
	found := false
	for _, c := range candidates {
		cand := vec.Cross(c, z)
		if vec.Norm(cand) > minNorm {
			x = vec.Unit(cand)
			found = true
			break
		}
	}
	if !found {
		// z is parallel to every basis axis candidate attempted, which cannot
		// happen for a unit vector in R^3 unless z itself is degenerate; fall
		// back to an arbitrary fixed vector to guarantee termination.
		x = vec.Unit(vec.Cross(vec.New(0.5773502691896258, 0.5773502691896258, 0.5773502691896258), z))
	}
	y := vec.Cross(x, z)
	return vec.Mat3{Col: [3]vec.V3{x, y, z}}
}

// rotationBetween returns the rotation matrix that carries unit vector a
// onto unit vector b, via axis = a x b, angle = acos(a . b).
func rotationBetween(a, b vec.V3) vec.Mat3 {
	axis := vec.Cross(a, b)
	n := vec.Norm(axis)
	if n < 1e-9 {
		// Parallel (or anti-parallel) tangents: no rotation is applied. For
		// anti-parallel tangents the previous x axis is carried over
		// unchanged; it is still orthogonal to the reversed tangent, so the
		// resulting frame is finite.
		return vec.Identity()
	}
	cosAngle := vec.Dot(a, b)
	if cosAngle > 1 {
		cosAngle = 1
	}
	if cosAngle < -1 {
		cosAngle = -1
	}
	angle := math.Acos(cosAngle)
	return vec.AxisAngle(vec.Scale(1/n, axis), angle)
}

// Build constructs one rotation-minimizing frame per point, then applies
// binomial smoothing to the sequence of 3x3 matrices and makes each smoothed
// frame orthonormal again: z is renormalized, x is made orthogonal to z and
// normalized, and y is recomputed as x cross z. The z column of frame i
// starts as the input tangent and is averaged with its neighbours by the
// smoothing like x and y; x and y trace the minimal-rotation propagation of
// Phase F.
func Build(points []vec.V3, tangents []vec.V3) []vec.Mat3 {
	n := len(points)
	frames := make([]vec.Mat3, n)
	if n == 0 {
		return frames
	}

	frames[0] = initialFrame(tangents[0])
	for i := 1; i < n; i++ {
		zPrev := frames[i-1].Col[2]
		zCur := vec.Unit(tangents[i])
		r := rotationBetween(zPrev, zCur)

		xCur := vec.Unit(r.MulVec(frames[i-1].Col[0]))
		yCur := vec.Unit(vec.Cross(xCur, zCur))

		candidate := vec.Mat3{Col: [3]vec.V3{xCur, yCur, zCur}}
		if candidate.IsFinite() {
			frames[i] = candidate
		} else {
			// NumericDegeneracy (spec.md §7): reuse the previous frame's
			// axes with the new tangent rather than propagating NaN/Inf.
			logging.FromEnv().Warnf("frame: numeric degeneracy at point %d, reusing previous frame", i)
			frames[i] = vec.Mat3{Col: [3]vec.V3{frames[i-1].Col[0], frames[i-1].Col[1], zCur}}
		}
	}

	smoothed := smooth.Binomial(frames, smooth.Ops[vec.Mat3]{
		Add:   vec.Mat3Add,
		Sub:   vec.Mat3Sub,
		Scale: vec.Mat3Scale,
	}, BinomialSmoothIterations, BinomialSmoothKernelSize)

	for i := range smoothed {
		z := vec.Unit(smoothed[i].Col[2])
		x := vec.Unit(vec.Sub(smoothed[i].Col[0], vec.Scale(vec.Dot(smoothed[i].Col[0], z), z)))
		smoothed[i] = vec.Mat3{Col: [3]vec.V3{x, vec.Cross(x, z), z}}
	}
	return smoothed
}
