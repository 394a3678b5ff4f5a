// Package math provides precision-generic vector, box and frustum types
// shared by the terrain core and the renderer.
//
// Every type is parameterized by the float type so the same selection code
// runs in single precision for the GPU path and in double precision for
// planetary-scale coordinates.
package math

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Float is the set of element types accepted by this package.
type Float interface {
	constraints.Float
}

// Vec3 is a 3D vector.
type Vec3[T Float] struct {
	X, Y, Z T
}

// V3 is shorthand for Vec3{x, y, z}.
func V3[T Float](x, y, z T) Vec3[T] {
	return Vec3[T]{x, y, z}
}

// Add returns v + other.
func (v Vec3[T]) Add(other Vec3[T]) Vec3[T] {
	return Vec3[T]{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3[T]) Sub(other Vec3[T]) Vec3[T] {
	return Vec3[T]{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v * scalar.
func (v Vec3[T]) Scale(s T) Vec3[T] {
	return Vec3[T]{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product.
func (v Vec3[T]) Dot(other Vec3[T]) T {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product.
func (v Vec3[T]) Cross(other Vec3[T]) Vec3[T] {
	return Vec3[T]{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

// LengthSq returns the squared magnitude.
func (v Vec3[T]) LengthSq() T {
	return v.Dot(v)
}

// Length returns the magnitude.
func (v Vec3[T]) Length() T {
	return T(math.Sqrt(float64(v.LengthSq())))
}

// Normalize returns a unit vector, or the zero vector for zero input.
func (v Vec3[T]) Normalize() Vec3[T] {
	l := v.Length()
	if l == 0 {
		return Vec3[T]{}
	}
	return Vec3[T]{v.X / l, v.Y / l, v.Z / l}
}

// Distance returns the distance to another point.
func (v Vec3[T]) Distance(other Vec3[T]) T {
	return v.Sub(other).Length()
}

// Lerp interpolates between v (t=0) and other (t=1).
func (v Vec3[T]) Lerp(other Vec3[T], t T) Vec3[T] {
	return Vec3[T]{
		v.X + (other.X-v.X)*t,
		v.Y + (other.Y-v.Y)*t,
		v.Z + (other.Z-v.Z)*t,
	}
}

// Min returns the component-wise minimum.
func (v Vec3[T]) Min(other Vec3[T]) Vec3[T] {
	return Vec3[T]{min(v.X, other.X), min(v.Y, other.Y), min(v.Z, other.Z)}
}

// Max returns the component-wise maximum.
func (v Vec3[T]) Max(other Vec3[T]) Vec3[T] {
	return Vec3[T]{max(v.X, other.X), max(v.Y, other.Y), max(v.Z, other.Z)}
}

// Array returns the components as an array, in GL attribute order.
func (v Vec3[T]) Array() [3]T {
	return [3]T{v.X, v.Y, v.Z}
}

// ConvertVec3 changes the precision of a vector.
func ConvertVec3[To, From Float](v Vec3[From]) Vec3[To] {
	return Vec3[To]{To(v.X), To(v.Y), To(v.Z)}
}
