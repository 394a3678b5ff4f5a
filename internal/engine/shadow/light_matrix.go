package shadow

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

// LightMatrix computes the view-projection of a directional light that
// encloses box. lightDir is the normalized direction to the light.
func LightMatrix(lightDir math.Vec3[float32], box math.Box[float32]) math.Mat4[float32] {
	center := box.Center()
	radius := box.Radius()
	if radius == 0 {
		radius = 1
	}

	// Far enough to see the whole box in front of the near plane.
	lightDistance := radius * 2
	lightPos := center.Add(lightDir.Scale(lightDistance))

	up := math.V3[float32](0, 1, 0)
	if math32.Abs(lightDir.Y) > 0.99 {
		up = math.V3[float32](0, 0, 1)
	}
	view := math.LookAt(lightPos, center, up)

	padding := radius * 0.1
	halfSize := radius + padding
	far := lightDistance + radius + padding
	proj := math.Ortho(-halfSize, halfSize, -halfSize, halfSize, 0.1, far)

	return proj.Mul(view)
}
