package vec

import "math"

// Mat3 is a 3x3 matrix stored as three column vectors (X, Y, Z). It is used
// for the per-point local coordinate frame of a centerline
// (x-hat, y-hat, z-hat columns) as well as for general rotations.
type Mat3 struct {
	Col [3]V3
}

// Identity returns the 3x3 identity matrix.
func Identity() Mat3 {
	return Mat3{Col: [3]V3{AxisX, AxisY, AxisZ}}
}

// MulVec returns M*v.
func (m Mat3) MulVec(v V3) V3 {
	return V3{
		X: m.Col[0].X*v.X + m.Col[1].X*v.Y + m.Col[2].X*v.Z,
		Y: m.Col[0].Y*v.X + m.Col[1].Y*v.Y + m.Col[2].Y*v.Z,
		Z: m.Col[0].Z*v.X + m.Col[1].Z*v.Y + m.Col[2].Z*v.Z,
	}
}

// Mul returns m*n.
func (m Mat3) Mul(n Mat3) Mat3 {
	return Mat3{Col: [3]V3{m.MulVec(n.Col[0]), m.MulVec(n.Col[1]), m.MulVec(n.Col[2])}}
}

// Add returns the element-wise sum of m and n.
func (m Mat3) Add(n Mat3) Mat3 {
	return Mat3{Col: [3]V3{Add(m.Col[0], n.Col[0]), Add(m.Col[1], n.Col[1]), Add(m.Col[2], n.Col[2])}}
}

// Sub returns the element-wise difference m - n.
func (m Mat3) Sub(n Mat3) Mat3 {
	return Mat3{Col: [3]V3{Sub(m.Col[0], n.Col[0]), Sub(m.Col[1], n.Col[1]), Sub(m.Col[2], n.Col[2])}}
}

// Scale returns f*m.
func (m Mat3) Scale(f float64) Mat3 {
	return Mat3{Col: [3]V3{Scale(f, m.Col[0]), Scale(f, m.Col[1]), Scale(f, m.Col[2])}}
}

// Normalized returns m with every column normalized to unit length.
func (m Mat3) Normalized() Mat3 {
	return Mat3{Col: [3]V3{Unit(m.Col[0]), Unit(m.Col[1]), Unit(m.Col[2])}}
}

// IsFinite reports whether every entry of m is finite.
func (m Mat3) IsFinite() bool {
	return IsFinite(m.Col[0]) && IsFinite(m.Col[1]) && IsFinite(m.Col[2])
}

// Orthonormality returns the maximum deviation from orthonormality among
// the three columns: |col_i . col_j - delta_ij|.
func (m Mat3) Orthonormality() float64 {
	max := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			d := math.Abs(Dot(m.Col[i], m.Col[j]) - want)
			if d > max {
				max = d
			}
		}
	}
	return max
}

// Transpose returns the transpose of m. For an orthonormal m this is its
// inverse.
func (m Mat3) Transpose() Mat3 {
	return Mat3{Col: [3]V3{
		{X: m.Col[0].X, Y: m.Col[1].X, Z: m.Col[2].X},
		{X: m.Col[0].Y, Y: m.Col[1].Y, Z: m.Col[2].Y},
		{X: m.Col[0].Z, Y: m.Col[1].Z, Z: m.Col[2].Z},
	}}
}

// AxisAngle returns the rotation matrix that rotates by angle radians
// around the unit axis, using Rodrigues' rotation formula.
func AxisAngle(axis V3, angle float64) Mat3 {
	axis = Unit(axis)
	s, c := math.Sin(angle), math.Cos(angle)
	t := 1 - c
	x, y, z := axis.X, axis.Y, axis.Z

	// Columns of R = I*c + t*axis*axis^T + s*[axis]_x
	return Mat3{Col: [3]V3{
		{X: t*x*x + c, Y: t*x*y + s*z, Z: t*x*z - s*y},
		{X: t*x*y - s*z, Y: t*y*y + c, Z: t*y*z + s*x},
		{X: t*x*z + s*y, Y: t*y*z - s*x, Z: t*z*z + c},
	}}
}
