// Package ecm implements the Ellipsoid Cube Map: an unfolded cube whose six
// faces are mapped onto a reference ellipsoid with the quadrilateralized
// spherical cube (QSC) projection.
//
// Coordinates travel through five systems:
//
//	ECM plane (Point) <-> face-local (SidePoint) <-> geocentric lat/lon
//	                                              <-> geodetic lat/lon <-> cartesian
//
// The ellipsoid point for a face-local coordinate lies on the ray from the
// centre through the QSC sphere point, so the sphere latitude is the
// geocentric latitude on the ellipsoid.
package ecm

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Geo is a latitude/longitude pair in radians with an optional altitude in
// the units of the ellipsoid axes.
type Geo struct {
	Lat, Lon float64
	Alt      float64
}

// Ellipsoid is an oblate ellipsoid of revolution around Z.
type Ellipsoid struct {
	a, b    float64
	e2      float64 // first eccentricity squared
	ep2     float64 // second eccentricity squared
	ratioSq float64 // (b/a)²
}

// WGS84 is the reference ellipsoid of the WGS 84 datum.
var WGS84 = MustNew(6378137.0, 6356752.314245)

// New returns an ellipsoid with semi-major axis a and semi-minor axis b.
func New(a, b float64) (*Ellipsoid, error) {
	if !(a > 0) || !(b > 0) || b > a || math.IsInf(a, 0) {
		return nil, fmt.Errorf("%w: a=%g b=%g", ErrInvalidEllipsoid, a, b)
	}
	return &Ellipsoid{
		a:       a,
		b:       b,
		e2:      (a*a - b*b) / (a * a),
		ep2:     (a*a - b*b) / (b * b),
		ratioSq: (b * b) / (a * a),
	}, nil
}

// MustNew is like New but panics on invalid axes.
func MustNew(a, b float64) *Ellipsoid {
	e, err := New(a, b)
	if err != nil {
		panic(err)
	}
	return e
}

// SemiMajor returns the equatorial radius.
func (e *Ellipsoid) SemiMajor() float64 { return e.a }

// SemiMinor returns the polar radius.
func (e *Ellipsoid) SemiMinor() float64 { return e.b }

// GeocentricToGeodetic converts a geocentric latitude to geodetic latitude.
func (e *Ellipsoid) GeocentricToGeodetic(lat float64) float64 {
	return math.Atan2(math.Sin(lat), math.Cos(lat)*e.ratioSq)
}

// GeodeticToGeocentric converts a geodetic latitude to geocentric latitude.
func (e *Ellipsoid) GeodeticToGeocentric(lat float64) float64 {
	return math.Atan2(math.Sin(lat)*e.ratioSq, math.Cos(lat))
}

// ToGeocentric maps an ECM plane coordinate to geocentric latitude and
// longitude.
func (e *Ellipsoid) ToGeocentric(p Point) (Geo, error) {
	sp, err := ToSide(p)
	if err != nil {
		return Geo{}, err
	}
	u, err := qscInverse(sp)
	if err != nil {
		return Geo{}, err
	}
	return directionToGeo(u), nil
}

// ToGeodetic maps an ECM plane coordinate to geodetic latitude and longitude.
func (e *Ellipsoid) ToGeodetic(p Point) (Geo, error) {
	g, err := e.ToGeocentric(p)
	if err != nil {
		return Geo{}, err
	}
	g.Lat = e.GeocentricToGeodetic(g.Lat)
	return g, nil
}

// FromGeocentric maps geocentric latitude and longitude to the ECM plane.
func (e *Ellipsoid) FromGeocentric(g Geo) (Point, error) {
	sp, err := qscForward(geoToDirection(g))
	if err != nil {
		return Point{}, err
	}
	return sp.Ecm(), nil
}

// FromGeodetic maps geodetic latitude and longitude to the ECM plane.
func (e *Ellipsoid) FromGeodetic(g Geo) (Point, error) {
	g.Lat = e.GeodeticToGeocentric(g.Lat)
	return e.FromGeocentric(g)
}

// GeodeticToCartesian returns the ECEF position of a geodetic coordinate.
func (e *Ellipsoid) GeodeticToCartesian(g Geo) mgl64.Vec3 {
	sinLat, cosLat := math.Sincos(g.Lat)
	sinLon, cosLon := math.Sincos(g.Lon)
	n := e.a / math.Sqrt(1-e.e2*sinLat*sinLat)
	return mgl64.Vec3{
		(n + g.Alt) * cosLat * cosLon,
		(n + g.Alt) * cosLat * sinLon,
		(n*(1-e.e2) + g.Alt) * sinLat,
	}
}

// CartesianToGeodetic converts an ECEF position to geodetic latitude,
// longitude and height above the ellipsoid using Heikkinen's closed form.
func (e *Ellipsoid) CartesianToGeodetic(p mgl64.Vec3) (Geo, error) {
	x, y, z := p[0], p[1], p[2]
	a, b := e.a, e.b
	r := math.Hypot(x, y)
	lon := math.Atan2(y, x)

	if r < 1e-9*a {
		lat := math.Pi / 2
		if z < 0 {
			lat = -lat
		}
		return Geo{Lat: lat, Lon: lon, Alt: math.Abs(z) - b}, nil
	}

	e2 := e.e2
	bigE2 := a*a - b*b
	f := 54 * b * b * z * z
	g := r*r + (1-e2)*z*z - e2*bigE2
	c := e2 * e2 * f * r * r / (g * g * g)
	disc := c*c + 2*c
	if disc < 0 || math.IsNaN(disc) {
		return Geo{}, &DomainError{Op: "CartesianToGeodetic", Name: "c²+2c", Value: disc}
	}
	s := math.Cbrt(1 + c + math.Sqrt(disc))
	k := s + 1/s + 1
	pp := f / (3 * k * k * g * g)
	q := math.Sqrt(1 + 2*e2*e2*pp)
	rad := a*a/2*(1+1/q) - pp*(1-e2)*z*z/(q*(1+q)) - pp*r*r/2
	if rad < 0 {
		rad = 0
	}
	r0 := -(pp*e2*r)/(1+q) + math.Sqrt(rad)
	dr := r - e2*r0
	u := math.Sqrt(dr*dr + z*z)
	v := math.Sqrt(dr*dr + (1-e2)*z*z)
	z0 := b * b * z / (a * v)

	return Geo{
		Lat: math.Atan2(z+e.ep2*z0, r),
		Lon: lon,
		Alt: u * (1 - b*b/(a*v)),
	}, nil
}

// SurfacePoint returns the point on the ellipsoid surface along direction u
// from the centre.
func (e *Ellipsoid) SurfacePoint(u mgl64.Vec3) mgl64.Vec3 {
	k := 1 / math.Sqrt((u[0]*u[0]+u[1]*u[1])/(e.a*e.a)+u[2]*u[2]/(e.b*e.b))
	return u.Mul(k)
}

// SurfaceNormal returns the outward unit normal of the ellipsoid at surface
// point p.
func (e *Ellipsoid) SurfaceNormal(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{p[0] / (e.a * e.a), p[1] / (e.a * e.a), p[2] / (e.b * e.b)}.Normalize()
}

// EcmToCartesian returns the surface point addressed by an ECM plane
// coordinate.
func (e *Ellipsoid) EcmToCartesian(p Point) (mgl64.Vec3, error) {
	sp, err := ToSide(p)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	u, err := qscInverse(sp)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return e.SurfacePoint(u), nil
}

func directionToGeo(u mgl64.Vec3) Geo {
	return Geo{
		Lat: math.Atan2(u[2], math.Hypot(u[0], u[1])),
		Lon: math.Atan2(u[1], u[0]),
	}
}

func geoToDirection(g Geo) mgl64.Vec3 {
	sinLat, cosLat := math.Sincos(g.Lat)
	sinLon, cosLon := math.Sincos(g.Lon)
	return mgl64.Vec3{cosLat * cosLon, cosLat * sinLon, sinLat}
}
