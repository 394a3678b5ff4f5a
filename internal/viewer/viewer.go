// Package viewer implements the interactive terrain viewer: the main loop,
// input handling and the frame passes.
package viewer

import (
	"context"
	"fmt"
	gomath "math"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/cdlod-terrain/internal/config"
	"github.com/Faultbox/cdlod-terrain/internal/engine/camera"
	"github.com/Faultbox/cdlod-terrain/internal/engine/debug"
	"github.com/Faultbox/cdlod-terrain/internal/engine/input"
	"github.com/Faultbox/cdlod-terrain/internal/engine/renderer"
	"github.com/Faultbox/cdlod-terrain/internal/engine/terrain"
	"github.com/Faultbox/cdlod-terrain/internal/engine/window"
	"github.com/Faultbox/cdlod-terrain/internal/scene"
	"github.com/Faultbox/cdlod-terrain/pkg/math"
)

const title = "CDLOD Terrain"

// Viewer is the main viewer instance.
type Viewer struct {
	config   *config.Config
	log      *zap.Logger
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	shadow   *renderer.ShadowMap
	shots    *debug.ScreenshotCapture
	scene    *scene.Scene
}

// New opens the window and prepares the scene for a loaded terrain.
func New(cfg *config.Config, terr *terrain.Terrain[float32], log *zap.Logger) (*Viewer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	v := &Viewer{
		config: cfg,
		log:    log.Named("viewer"),
		shots:  debug.NewScreenshotCapture("screenshots", "terrain"),
	}

	// Create window (this also creates OpenGL context)
	var err error
	v.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	w, h := v.window.GetSize()
	v.renderer, err = renderer.New(renderer.Config{Width: w, Height: h}, log)
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	if cfg.Shadows.Enabled {
		v.shadow, err = renderer.NewShadowMap(int32(cfg.Shadows.MapSize))
		if err != nil {
			v.log.Warn("shadow pass disabled", zap.Error(err))
		}
	}

	c := cfg.Camera
	cam := camera.New(
		math.V3(float32(c.Position[0]), float32(c.Position[1]), float32(c.Position[2])),
		float32(c.Yaw*gomath.Pi/180),
		float32(c.Pitch*gomath.Pi/180),
		float32(c.FOV*gomath.Pi/180),
		v.renderer.Aspect(),
		float32(c.Near),
		float32(c.Far),
	)
	cam.MoveSpeed = float32(c.MoveSpeed)

	v.scene, err = scene.New(cfg, terr, cam, log)
	if err != nil {
		v.Close()
		return nil, err
	}

	v.input = input.New(sdl.BUTTON_RIGHT)
	v.log.Info("viewer initialized", zap.Int("tiles", len(terr.Tiles())))
	return v, nil
}

// Run starts the main loop and returns when the window is closed or ctx
// is cancelled.
func (v *Viewer) Run(ctx context.Context) error {
	v.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting main loop")
	for v.running {
		if err := ctx.Err(); err != nil {
			return nil
		}

		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		// 1. Process input
		if v.input.Update() {
			v.running = false
			break
		}
		v.handleEvents()

		// 2. Update camera, selection and cascades
		v.moveCamera(float32(dt))
		if err := v.scene.Update(ctx); err != nil {
			return fmt.Errorf("update error: %w", err)
		}

		// 3. Render
		v.render()

		// 4. Present (swap buffers)
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.window.SetTitle(fmt.Sprintf("%s - %d fps - %s", title, frameCount, v.scene.Status()))
			v.log.Debug("fps", zap.Int("count", frameCount), zap.Duration("dt", time.Duration(dt*float64(time.Second))))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

// Close cleans up viewer resources.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")

	if v.shadow != nil {
		v.shadow.Destroy()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

func (v *Viewer) handleEvents() {
	for _, event := range v.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			v.renderer.Resize(event.Width, event.Height)
			v.scene.Camera().SetAspect(v.renderer.Aspect())
		case input.EventMouseWheel:
			cam := v.scene.Camera()
			cam.MoveSpeed *= float32(gomath.Pow(1.25, float64(event.Wheel)))
		case input.EventKeyDown:
			v.handleKey(event.Key)
		}
	}
}

func (v *Viewer) handleKey(key sdl.Scancode) {
	switch key {
	case sdl.SCANCODE_ESCAPE:
		v.running = false
	case sdl.SCANCODE_C:
		v.scene.ShowCascades = !v.scene.ShowCascades
	case sdl.SCANCODE_P:
		v.scene.Concurrent = !v.scene.Concurrent
		v.log.Info("selection mode", zap.Bool("concurrent", v.scene.Concurrent))
	case sdl.SCANCODE_F:
		v.scene.Camera().FitToBounds(v.scene.Terrain().Bounds())
	case sdl.SCANCODE_F12:
		pixels, w, h := v.renderer.ReadPixels()
		name, err := v.shots.CaptureFromPixels(pixels, w, h)
		if err != nil {
			v.log.Error("screenshot failed", zap.Error(err))
			return
		}
		v.log.Info("screenshot saved", zap.String("file", name))
	}
}

func (v *Viewer) moveCamera(dt float32) {
	cam := v.scene.Camera()
	if dx, dy := v.input.Drag(); dx != 0 || dy != 0 {
		cam.HandleDrag(float32(dx), float32(dy))
	}
	forward := v.input.Axis(sdl.SCANCODE_W, sdl.SCANCODE_S)
	right := v.input.Axis(sdl.SCANCODE_D, sdl.SCANCODE_A)
	up := v.input.Axis(sdl.SCANCODE_E, sdl.SCANCODE_Q)
	if forward != 0 || right != 0 || up != 0 {
		cam.HandleMovement(forward, right, up, dt)
	}
}

func (v *Viewer) render() {
	if light, ok := v.scene.ShadowMatrix(); ok && v.shadow != nil {
		v.renderer.DrawDepth(v.shadow, v.scene.ShadowLines(), light)
	}

	v.renderer.Begin()
	cam := v.scene.Camera()
	v.renderer.SetMorphConsts(v.scene.Selection())
	v.renderer.DrawLines(v.scene.Lines(), cam.ViewProjection(), cam.Position())
}
