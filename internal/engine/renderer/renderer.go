// Package renderer draws the debug line batches of the terrain viewer.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/cdlod-terrain/internal/engine/cdlod"
	"github.com/Faultbox/cdlod-terrain/internal/engine/debug"
	"github.com/Faultbox/cdlod-terrain/internal/engine/shader"
	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config Config
	log    *zap.Logger

	lineProgram  uint32
	uViewProj    int32
	uCameraPos   int32
	uMorphConsts int32

	depthProgram uint32
	uLightMatrix int32

	vao      uint32
	vbo      uint32
	capacity int // floats allocated in vbo

	morph [cdlod.MaxLODLevels][4]float32
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config, log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Renderer{config: cfg, log: log.Named("renderer")}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.1, 0.1, 0.15, 1.0) // Dark blue-gray background
	gl.Viewport(0, 0, int32(cfg.Width), int32(cfg.Height))

	var err error
	r.lineProgram, err = shader.CompileProgram(lineVertexShader, lineFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("line program: %w", err)
	}
	r.uViewProj = shader.MustGetUniform(r.lineProgram, "uViewProj")
	r.uCameraPos = shader.GetUniform(r.lineProgram, "uCameraPos")
	r.uMorphConsts = shader.GetUniform(r.lineProgram, "uMorphConsts")

	r.depthProgram, err = shader.CompileProgram(depthVertexShader, depthFragmentShader)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("depth program: %w", err)
	}
	r.uLightMatrix = shader.MustGetUniform(r.depthProgram, "uLightMatrix")

	r.createBuffers()
	return r, nil
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
	}
	if r.lineProgram != 0 {
		gl.DeleteProgram(r.lineProgram)
	}
	if r.depthProgram != 0 {
		gl.DeleteProgram(r.depthProgram)
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Aspect returns the viewport width over height.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// Begin starts a new frame.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// SetMorphConsts stores the morph constants of every LOD level of the
// current frame's selection for the next DrawLines.
func (r *Renderer) SetMorphConsts(sel *cdlod.Selection[float32]) {
	levels := min(sel.Settings().LODLevels, len(r.morph))
	for l := 0; l < levels; l++ {
		r.morph[l] = sel.MorphConsts(l)
	}
}

// DrawLines draws a batch of debug.LineVertexFloats-wide vertices.
func (r *Renderer) DrawLines(vertices []float32, viewProj math.Mat4[float32], camPos math.Vec3[float32]) {
	if len(vertices) == 0 {
		return
	}
	gl.UseProgram(r.lineProgram)
	shader.SetMat4(r.uViewProj, viewProj)
	shader.SetVec3(r.uCameraPos, camPos)
	shader.SetVec4Array(r.uMorphConsts, r.morph[:])
	r.drawLines(vertices)
}

// DrawDepth renders a batch into a shadow map with a light matrix.
func (r *Renderer) DrawDepth(sm *ShadowMap, vertices []float32, light math.Mat4[float32]) {
	if !sm.IsValid() || len(vertices) == 0 {
		return
	}
	sm.Bind()
	gl.UseProgram(r.depthProgram)
	shader.SetMat4(r.uLightMatrix, light)
	r.drawLines(vertices)
	sm.Unbind()
}

// ReadPixels returns the RGBA framebuffer, bottom row first.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, w, h
}

func (r *Renderer) drawLines(vertices []float32) {
	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	if len(vertices) > r.capacity {
		r.capacity = len(vertices) * 2
		gl.BufferData(gl.ARRAY_BUFFER, r.capacity*4, nil, gl.STREAM_DRAW)
		r.log.Debug("line buffer grown", zap.Int("floats", r.capacity))
	}
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(vertices)*4, unsafe.Pointer(&vertices[0]))
	gl.DrawArrays(gl.LINES, 0, int32(len(vertices)/debug.LineVertexFloats))
	gl.BindVertexArray(0)
}

func (r *Renderer) createBuffers() {
	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)
	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)

	stride := int32(debug.LineVertexFloats * 4)
	// Position attribute (location = 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	// Color attribute (location = 1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)
	// LOD level attribute (location = 2)
	gl.VertexAttribPointerWithOffset(2, 1, gl.FLOAT, false, stride, 6*4)
	gl.EnableVertexAttribArray(2)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}
