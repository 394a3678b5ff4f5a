package math

// Box is an axis-aligned bounding box. A box with Min > Max on any axis is
// empty.
type Box[T Float] struct {
	Min Vec3[T]
	Max Vec3[T]
}

// NewBox returns the box spanned by two corners in any order.
func NewBox[T Float](a, b Vec3[T]) Box[T] {
	return Box[T]{Min: a.Min(b), Max: a.Max(b)}
}

// Empty reports whether the box contains no points.
func (b Box[T]) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Center returns the center point of the box.
func (b Box[T]) Center() Vec3[T] {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the edge lengths of the box.
func (b Box[T]) Size() Vec3[T] {
	return b.Max.Sub(b.Min)
}

// Radius returns the distance from center to corner (half-diagonal).
func (b Box[T]) Radius() T {
	return b.Size().Scale(0.5).Length()
}

// Contains reports whether other lies fully inside b. An empty box is
// contained by every box.
func (b Box[T]) Contains(other Box[T]) bool {
	if other.Empty() {
		return true
	}
	return other.Min.X >= b.Min.X && other.Min.Y >= b.Min.Y && other.Min.Z >= b.Min.Z &&
		other.Max.X <= b.Max.X && other.Max.Y <= b.Max.Y && other.Max.Z <= b.Max.Z
}

// ContainsPoint reports whether p lies inside or on the box.
func (b Box[T]) ContainsPoint(p Vec3[T]) bool {
	return p.X >= b.Min.X && p.Y >= b.Min.Y && p.Z >= b.Min.Z &&
		p.X <= b.Max.X && p.Y <= b.Max.Y && p.Z <= b.Max.Z
}

// Intersect returns the overlap of two boxes, possibly empty.
func (b Box[T]) Intersect(other Box[T]) Box[T] {
	return Box[T]{Min: b.Min.Max(other.Min), Max: b.Max.Min(other.Max)}
}

// Union returns the smallest box enclosing both boxes.
func (b Box[T]) Union(other Box[T]) Box[T] {
	if b.Empty() {
		return other
	}
	if other.Empty() {
		return b
	}
	return Box[T]{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Expand grows the box by d on every side.
func (b Box[T]) Expand(d T) Box[T] {
	e := Vec3[T]{d, d, d}
	return Box[T]{Min: b.Min.Sub(e), Max: b.Max.Add(e)}
}

// MinDistanceSq returns the squared distance from p to the nearest point of
// the box, zero when p is inside.
func (b Box[T]) MinDistanceSq(p Vec3[T]) T {
	var d T
	d += axisGap(p.X, b.Min.X, b.Max.X)
	d += axisGap(p.Y, b.Min.Y, b.Max.Y)
	d += axisGap(p.Z, b.Min.Z, b.Max.Z)
	return d
}

// IntersectsSphereSq reports whether the box touches the sphere around
// center with squared radius radiusSq.
func (b Box[T]) IntersectsSphereSq(center Vec3[T], radiusSq T) bool {
	return b.MinDistanceSq(center) <= radiusSq
}

// Corners returns the 8 box corners, bottom face first.
func (b Box[T]) Corners() [8]Vec3[T] {
	mn, mx := b.Min, b.Max
	return [8]Vec3[T]{
		{mn.X, mn.Y, mn.Z}, {mx.X, mn.Y, mn.Z}, {mx.X, mn.Y, mx.Z}, {mn.X, mn.Y, mx.Z},
		{mn.X, mx.Y, mn.Z}, {mx.X, mx.Y, mn.Z}, {mx.X, mx.Y, mx.Z}, {mn.X, mx.Y, mx.Z},
	}
}

func axisGap[T Float](v, lo, hi T) T {
	switch {
	case v < lo:
		return (lo - v) * (lo - v)
	case v > hi:
		return (v - hi) * (v - hi)
	}
	return 0
}
