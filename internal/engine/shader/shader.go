// Package shader provides OpenGL shader compilation and uniform helpers.
package shader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

// CompileProgram compiles a vertex and a fragment stage and links them.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vs, err := compileStage(gl.VERTEX_SHADER, vertexSrc)
	if err != nil {
		return 0, fmt.Errorf("vertex shader: %w", err)
	}
	defer gl.DeleteShader(vs)

	fs, err := compileStage(gl.FRAGMENT_SHADER, fragmentSrc)
	if err != nil {
		return 0, fmt.Errorf("fragment shader: %w", err)
	}
	defer gl.DeleteShader(fs)

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	var ok int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &ok)
	if ok == gl.FALSE {
		msg := infoLog(program, gl.GetProgramiv, gl.GetProgramInfoLog)
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", msg)
	}
	return program, nil
}

func compileStage(stage uint32, source string) (uint32, error) {
	id := gl.CreateShader(stage)
	src, free := gl.Strs(source + "\x00")
	gl.ShaderSource(id, 1, src, nil)
	free()
	gl.CompileShader(id)

	var ok int32
	gl.GetShaderiv(id, gl.COMPILE_STATUS, &ok)
	if ok == gl.FALSE {
		msg := infoLog(id, gl.GetShaderiv, gl.GetShaderInfoLog)
		gl.DeleteShader(id)
		return 0, errors.New(msg)
	}
	return id, nil
}

// infoLog reads the info log of a shader or program object.
func infoLog(id uint32, param func(uint32, uint32, *int32), read func(uint32, int32, *int32, *uint8)) string {
	var n int32
	param(id, gl.INFO_LOG_LENGTH, &n)
	if n <= 0 {
		return "unknown error"
	}
	buf := make([]byte, n)
	read(id, n, nil, &buf[0])
	return strings.TrimRight(string(buf), "\x00\n")
}

// GetUniform returns the uniform location for the given name, or -1 if
// the uniform is not found or inactive.
func GetUniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// MustGetUniform returns the uniform location for the given name.
// Panics if the uniform is not found (useful for required uniforms).
func MustGetUniform(program uint32, name string) int32 {
	loc := gl.GetUniformLocation(program, gl.Str(name+"\x00"))
	if loc < 0 {
		panic(fmt.Sprintf("uniform %q not found in program %d", name, program))
	}
	return loc
}

// SetMat4 uploads a matrix to a uniform of the bound program.
func SetMat4(loc int32, m math.Mat4[float32]) {
	gl.UniformMatrix4fv(loc, 1, false, m.Ptr())
}

// SetVec3 uploads a vector to a uniform of the bound program.
func SetVec3(loc int32, v math.Vec3[float32]) {
	gl.Uniform3f(loc, v.X, v.Y, v.Z)
}

// SetVec4Array uploads a vec4 array uniform. Locations of inactive
// uniforms (-1) are ignored by GL.
func SetVec4Array(loc int32, vs [][4]float32) {
	if len(vs) == 0 {
		return
	}
	gl.Uniform4fv(loc, int32(len(vs)), &vs[0][0])
}
