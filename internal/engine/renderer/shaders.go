package renderer

import (
	"fmt"

	"github.com/Faultbox/cdlod-terrain/internal/engine/cdlod"
)

// The line shader brightens a vertex by its CDLOD morph factor, the same
// factor a terrain vertex shader would use to blend towards the coarser
// grid.
var lineVertexShader = fmt.Sprintf(`
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aColor;
layout (location = 2) in float aLevel;

uniform mat4 uViewProj;
uniform vec3 uCameraPos;
uniform vec4 uMorphConsts[%d];

out vec3 vColor;

void main() {
	vec3 color = aColor;
	if (aLevel >= 0.0) {
		vec4 c = uMorphConsts[int(aLevel)];
		float d = distance(aPos, uCameraPos);
		float morph = 1.0 - clamp(c.z - d * c.w, 0.0, 1.0);
		color = mix(aColor, vec3(1.0), morph * 0.6);
	}
	vColor = color;
	gl_Position = uViewProj * vec4(aPos, 1.0);
}
`, cdlod.MaxLODLevels)

const lineFragmentShader = `
#version 410 core

in vec3 vColor;
out vec4 FragColor;

void main() {
	FragColor = vec4(vColor, 1.0);
}
`

const depthVertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;

uniform mat4 uLightMatrix;

void main() {
	gl_Position = uLightMatrix * vec4(aPos, 1.0);
}
`

const depthFragmentShader = `
#version 410 core

void main() {}
`
