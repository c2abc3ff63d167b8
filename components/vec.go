package components

import "math"

// Vec3 is a 3-component vector. Y is the vertical axis; the world footprint
// spans X and Z.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float32 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Len returns the vector length.
func (v Vec3) Len() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// LenSq returns the squared length (avoid sqrt in hot paths).
func (v Vec3) LenSq() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Len2D returns the horizontal (XZ) length.
func (v Vec3) Len2D() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Z*v.Z)))
}

// LenSq2D returns the squared horizontal length.
func (v Vec3) LenSq2D() float32 {
	return v.X*v.X + v.Z*v.Z
}

// Normalized returns v scaled to unit length, or the zero vector.
func (v Vec3) Normalized() Vec3 {
	l := v.Len()
	if l < 1e-6 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Truncated returns v with length capped at max.
func (v Vec3) Truncated(max float32) Vec3 {
	l := v.Len()
	if l <= max || l < 1e-6 {
		return v
	}
	return v.Scale(max / l)
}

// IsZero reports whether all components are (near) zero.
func (v Vec3) IsZero() bool {
	return v.LenSq() < 1e-12
}

// Heading2D returns the facing angle of the horizontal component in [-pi, pi].
func (v Vec3) Heading2D() float32 {
	return float32(math.Atan2(float64(v.Z), float64(v.X)))
}

// FromHeading returns a unit horizontal vector for a facing angle.
func FromHeading(angle float32) Vec3 {
	return Vec3{
		X: float32(math.Cos(float64(angle))),
		Z: float32(math.Sin(float64(angle))),
	}
}

// NormalizeAngle wraps an angle to [-pi, pi].
func NormalizeAngle(a float32) float32 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
