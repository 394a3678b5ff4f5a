// Package camera provides the fly camera used to view and select terrain.
package camera

import (
	gomath "math"

	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

// maxPitch keeps the view direction away from the up vector.
const maxPitch = 1.55

// Camera is a free-flying perspective camera. Yaw 0 looks along -Z, pitch
// is positive upwards. The view frustum is cached until a parameter
// changes.
type Camera[T math.Float] struct {
	position math.Vec3[T]
	yaw      T // radians
	pitch    T // radians

	fovY   T // radians
	aspect T
	near   T
	far    T

	// Sensitivity
	MoveSpeed       T // world units per second
	DragSensitivity T // radians per pixel

	frustum math.Frustum[T]
	dirty   bool
}

// New returns a camera at pos. fovY is in radians.
func New[T math.Float](pos math.Vec3[T], yaw, pitch, fovY, aspect, near, far T) *Camera[T] {
	c := &Camera[T]{
		position:        pos,
		yaw:             yaw,
		fovY:            fovY,
		aspect:          aspect,
		near:            near,
		far:             far,
		MoveSpeed:       100,
		DragSensitivity: 0.005,
		dirty:           true,
	}
	c.SetPitch(pitch)
	return c
}

// Position returns the camera position in world space.
func (c *Camera[T]) Position() math.Vec3[T] { return c.position }

// NearPlane returns the near clip distance.
func (c *Camera[T]) NearPlane() T { return c.near }

// FarPlane returns the far clip distance.
func (c *Camera[T]) FarPlane() T { return c.far }

// Yaw returns the horizontal angle in radians.
func (c *Camera[T]) Yaw() T { return c.yaw }

// Pitch returns the vertical angle in radians.
func (c *Camera[T]) Pitch() T { return c.pitch }

// SetPosition moves the camera.
func (c *Camera[T]) SetPosition(p math.Vec3[T]) {
	c.position = p
	c.dirty = true
}

// SetYaw sets the horizontal angle.
func (c *Camera[T]) SetYaw(yaw T) {
	c.yaw = yaw
	c.dirty = true
}

// SetPitch sets the vertical angle, clamped short of straight up or down.
func (c *Camera[T]) SetPitch(pitch T) {
	c.pitch = max(-maxPitch, min(pitch, maxPitch))
	c.dirty = true
}

// SetPlanes changes the clip distances.
func (c *Camera[T]) SetPlanes(near, far T) {
	c.near, c.far = near, far
	c.dirty = true
}

// SetAspect changes the viewport aspect ratio (width/height).
func (c *Camera[T]) SetAspect(aspect T) {
	c.aspect = aspect
	c.dirty = true
}

// Forward returns the unit view direction.
func (c *Camera[T]) Forward() math.Vec3[T] {
	cy, sy := gomath.Cos(float64(c.yaw)), gomath.Sin(float64(c.yaw))
	cp, sp := gomath.Cos(float64(c.pitch)), gomath.Sin(float64(c.pitch))
	return math.V3(T(-sy*cp), T(sp), T(-cy*cp))
}

// Right returns the unit direction to the right of the view on the XZ
// plane.
func (c *Camera[T]) Right() math.Vec3[T] {
	cy, sy := gomath.Cos(float64(c.yaw)), gomath.Sin(float64(c.yaw))
	return math.V3(T(cy), 0, T(-sy))
}

// ViewMatrix returns the world to view transform.
func (c *Camera[T]) ViewMatrix() math.Mat4[T] {
	return math.LookAt(c.position, c.position.Add(c.Forward()), math.V3[T](0, 1, 0))
}

// ProjectionMatrix returns the perspective projection.
func (c *Camera[T]) ProjectionMatrix() math.Mat4[T] {
	return math.Perspective(c.fovY, c.aspect, c.near, c.far)
}

// ViewProjection returns projection * view.
func (c *Camera[T]) ViewProjection() math.Mat4[T] {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// ViewFrustum returns the frustum of the current view. The pointer stays
// valid and is updated in place when the camera changes.
func (c *Camera[T]) ViewFrustum() *math.Frustum[T] {
	if c.dirty {
		c.frustum = math.FrustumFromMatrix(c.ViewProjection())
		c.dirty = false
	}
	return &c.frustum
}

// HandleDrag turns the camera by a mouse drag in pixels.
func (c *Camera[T]) HandleDrag(deltaX, deltaY T) {
	c.SetYaw(c.yaw - deltaX*c.DragSensitivity)
	c.SetPitch(c.pitch - deltaY*c.DragSensitivity)
}

// HandleMovement moves the camera along its view (forward), right and world
// up axes. Inputs are in [-1, 1], dt is seconds.
func (c *Camera[T]) HandleMovement(forward, right, up, dt T) {
	step := c.MoveSpeed * dt
	d := c.Forward().Scale(forward).
		Add(c.Right().Scale(right)).
		Add(math.V3[T](0, up, 0))
	c.SetPosition(c.position.Add(d.Scale(step)))
}

// FitToBounds places the camera above the south edge of a box looking
// at its centre.
func (c *Camera[T]) FitToBounds(b math.Box[T]) {
	center := b.Center()
	size := b.Size()
	extent := max(size.X, size.Z)
	eye := math.V3(center.X, b.Max.Y+extent*0.3, b.Max.Z+extent*0.2)
	c.LookAt(eye, center)
}

// LookAt moves the camera to eye and points it at target.
func (c *Camera[T]) LookAt(eye, target math.Vec3[T]) {
	d := target.Sub(eye).Normalize()
	c.position = eye
	c.yaw = T(gomath.Atan2(float64(-d.X), float64(-d.Z)))
	c.SetPitch(T(gomath.Asin(float64(max(-1, min(d.Y, 1))))))
}
