package math

// Containment classifies a volume against a frustum.
type Containment int

const (
	Outside Containment = iota
	Intersects
	Inside
)

// String implements fmt.Stringer.
func (c Containment) String() string {
	switch c {
	case Outside:
		return "outside"
	case Intersects:
		return "intersects"
	case Inside:
		return "inside"
	}
	return "unknown"
}

// Plane is a half-space a*x + b*y + c*z + d >= 0 with the normal pointing
// into the kept side.
type Plane[T Float] struct {
	Normal Vec3[T]
	D      T
}

// Distance returns the signed distance from the plane to p.
func (p Plane[T]) Distance(pt Vec3[T]) T {
	return p.Normal.Dot(pt) + p.D
}

func planeFromRow[T Float](r [4]T) Plane[T] {
	n := Vec3[T]{r[0], r[1], r[2]}
	l := n.Length()
	if l == 0 {
		return Plane[T]{}
	}
	return Plane[T]{Normal: n.Scale(1 / l), D: r[3] / l}
}

// Frustum holds the six clip planes of a view frustum in the order left,
// right, bottom, top, near, far. Normals point inward.
type Frustum[T Float] struct {
	Planes [6]Plane[T]
}

// FrustumFromMatrix extracts the frustum planes from a view-projection
// matrix (Gribb/Hartmann).
func FrustumFromMatrix[T Float](m Mat4[T]) Frustum[T] {
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)
	add := func(a, b [4]T) [4]T { return [4]T{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]} }
	sub := func(a, b [4]T) [4]T { return [4]T{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]} }

	var f Frustum[T]
	f.Planes[0] = planeFromRow(add(r3, r0))
	f.Planes[1] = planeFromRow(sub(r3, r0))
	f.Planes[2] = planeFromRow(add(r3, r1))
	f.Planes[3] = planeFromRow(sub(r3, r1))
	f.Planes[4] = planeFromRow(add(r3, r2))
	f.Planes[5] = planeFromRow(sub(r3, r2))
	return f
}

// BoxInFrustum classifies a box against the frustum using the positive and
// negative vertex of the box for each plane. The test is conservative: a box
// near a frustum corner may be reported as intersecting while outside.
func (f *Frustum[T]) BoxInFrustum(b Box[T]) Containment {
	result := Inside
	for i := range f.Planes {
		p := &f.Planes[i]
		pos, neg := b.Max, b.Min
		if p.Normal.X < 0 {
			pos.X, neg.X = b.Min.X, b.Max.X
		}
		if p.Normal.Y < 0 {
			pos.Y, neg.Y = b.Min.Y, b.Max.Y
		}
		if p.Normal.Z < 0 {
			pos.Z, neg.Z = b.Min.Z, b.Max.Z
		}
		if p.Distance(pos) < 0 {
			return Outside
		}
		if p.Distance(neg) < 0 {
			result = Intersects
		}
	}
	return result
}
