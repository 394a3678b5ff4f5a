package ecm

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// cosphiTolerance is how far cos(phi) may leave [-1,1] through rounding
// before the inverse projection reports a DomainError.
const cosphiTolerance = 1e-12

// qscInverse maps a face-local coordinate to a unit direction.
func qscInverse(sp SidePoint) (mgl64.Vec3, error) {
	if !sp.inFace() {
		return mgl64.Vec3{}, fmt.Errorf("%w: side %v (%g, %g)", ErrOutsideDomain, sp.Side, sp.X, sp.Y)
	}
	x, y := sp.X, sp.Y

	nu := math.Atan(math.Hypot(x, y))
	mu := math.Atan2(y, x)

	var area int
	switch {
	case x >= 0 && x >= math.Abs(y):
		area = 0
	case y >= 0 && y >= math.Abs(x):
		area = 1
		mu -= math.Pi / 2
	case x < 0 && -x >= math.Abs(y):
		area = 2
		if mu < 0 {
			mu += math.Pi
		} else {
			mu -= math.Pi
		}
	default:
		area = 3
		mu += math.Pi / 2
	}

	t := (math.Pi / 12) * math.Tan(mu)
	theta := math.Atan(math.Sin(t) / (math.Cos(t) - 1/math.Sqrt2))

	cosmu := math.Cos(mu)
	tannu := math.Tan(nu)
	cosphi := 1 - cosmu*cosmu*tannu*tannu*(1-math.Cos(math.Atan(1/math.Cos(theta))))
	switch {
	case math.IsNaN(cosphi) || math.IsInf(cosphi, 0):
		return mgl64.Vec3{}, &DomainError{Op: "qscInverse", Name: "cosphi", Value: cosphi}
	case cosphi > 1+cosphiTolerance || cosphi < -1-cosphiTolerance:
		return mgl64.Vec3{}, &DomainError{Op: "qscInverse", Name: "cosphi", Value: cosphi}
	}
	cosphi = math.Max(-1, math.Min(1, cosphi))
	sinphi := math.Sqrt(1 - cosphi*cosphi)

	sinAlpha, cosAlpha := math.Sincos(theta + float64(area)*math.Pi/2)
	f := &frames[sp.Side]
	return f.n.Mul(cosphi).
		Add(f.ex.Mul(sinphi * cosAlpha)).
		Add(f.ey.Mul(sinphi * sinAlpha)), nil
}

// faceOf returns the face whose normal has the largest component of u.
func faceOf(u mgl64.Vec3) Side {
	ax, ay, az := math.Abs(u[0]), math.Abs(u[1]), math.Abs(u[2])
	switch {
	case az >= ax && az >= ay:
		if u[2] >= 0 {
			return Top
		}
		return Bottom
	case ax >= ay:
		if u[0] >= 0 {
			return Front
		}
		return Back
	default:
		if u[1] >= 0 {
			return Right
		}
		return Left
	}
}

// qscForward maps a direction to face-local coordinates on the face it
// pierces.
func qscForward(u mgl64.Vec3) (SidePoint, error) {
	l := u.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return SidePoint{}, &DomainError{Op: "qscForward", Name: "|u|", Value: l}
	}
	u = u.Mul(1 / l)

	side := faceOf(u)
	f := &frames[side]
	q, r, s := u.Dot(f.n), u.Dot(f.ex), u.Dot(f.ey)

	rho := math.Hypot(r, s)
	if rho == 0 {
		return SidePoint{Side: side}, nil
	}
	phi := math.Atan2(rho, q)
	theta := math.Atan2(s, r)

	var area int
	switch {
	case theta >= -math.Pi/4 && theta <= math.Pi/4:
		area = 0
	case theta > math.Pi/4 && theta <= 3*math.Pi/4:
		area = 1
		theta -= math.Pi / 2
	case theta > 3*math.Pi/4:
		area = 2
		theta -= math.Pi
	case theta < -3*math.Pi/4:
		area = 2
		theta += math.Pi
	default:
		area = 3
		theta += math.Pi / 2
	}

	mu := math.Atan((12 / math.Pi) * (theta + math.Acos(math.Sin(theta)*math.Cos(math.Pi/4)) - math.Pi/2))
	half := math.Sin(phi / 2)
	oneMinusCosPhi := 2 * half * half
	cosmu := math.Cos(mu)
	denom := cosmu * cosmu * (1 - math.Cos(math.Atan(1/math.Cos(theta))))
	tt := math.Sqrt(oneMinusCosPhi / denom)
	if math.IsNaN(tt) || math.IsInf(tt, 0) {
		return SidePoint{}, &DomainError{Op: "qscForward", Name: "tan(nu)", Value: tt}
	}

	sinMu, cosMu := math.Sincos(mu + float64(area)*math.Pi/2)
	x := math.Max(-1, math.Min(1, tt*cosMu))
	y := math.Max(-1, math.Min(1, tt*sinMu))
	return SidePoint{X: x, Y: y, Side: side}, nil
}
