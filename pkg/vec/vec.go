// Package vec provides the 3D vector and 3x3 matrix arithmetic shared by
// geometric subsystems (mesh extraction, centerlines, measuring planes).
package vec

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// V3 is a 3-component vector in either world (mm) or object (voxel) space.
type V3 = r3.Vec

// Zero is the additive identity.
var Zero = V3{}

// Add returns a + b.
func Add(a, b V3) V3 { return r3.Add(a, b) }

// Sub returns a - b.
func Sub(a, b V3) V3 { return r3.Sub(a, b) }

// Scale returns f*v.
func Scale(f float64, v V3) V3 { return r3.Scale(f, v) }

// Dot returns a . b.
func Dot(a, b V3) float64 { return r3.Dot(a, b) }

// Cross returns a x b.
func Cross(a, b V3) V3 { return r3.Cross(a, b) }

// Norm returns the Euclidean length of v.
func Norm(v V3) float64 { return r3.Norm(v) }

// Unit returns v normalized to unit length. The zero vector maps to itself.
func Unit(v V3) V3 {
	n := Norm(v)
	if n == 0 {
		return v
	}
	return Scale(1/n, v)
}

// Lerp linearly interpolates between a and b at parameter t.
func Lerp(a, b V3, t float64) V3 {
	return Add(a, Scale(t, Sub(b, a)))
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b V3) float64 { return Norm(Sub(a, b)) }

// New is a convenience constructor.
func New(x, y, z float64) V3 { return V3{X: x, Y: y, Z: z} }

// AxisX, AxisY, AxisZ are the standard basis vectors.
var (
	AxisX = V3{X: 1}
	AxisY = V3{Y: 1}
	AxisZ = V3{Z: 1}
)

// IsFinite reports whether every component of v is neither NaN nor infinite.
func IsFinite(v V3) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsNaN(v.Z) &&
		!math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0) && !math.IsInf(v.Z, 0)
}

// V3i is an integer 3-vector, used for voxel/grid indices.
type V3i struct {
	X, Y, Z int
}

// ToV3 converts an integer vector to a float vector.
func (v V3i) ToV3() V3 { return V3{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)} }

// Mul returns the component-wise product of v and w.
func (v V3i) Mul(w V3i) V3i { return V3i{v.X * w.X, v.Y * w.Y, v.Z * w.Z} }

// Add returns the component-wise sum of v and w.
func (v V3i) Add(w V3i) V3i { return V3i{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }
