// Package renderer initializes OpenGL and draws scene frames into the
// window's viewport.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-engine/internal/engine/scene"
	"github.com/Faultbox/midgard-engine/internal/engine/terrain"
	"github.com/Faultbox/midgard-engine/internal/logger"
	"github.com/Faultbox/midgard-engine/pkg/math"
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	Scene  scene.Config
}

// Renderer owns the GL state and the scene drawn into the viewport.
type Renderer struct {
	config Config
	scene  *scene.Scene
	log    *zap.Logger
}

// New creates a new renderer.
// Must be called after the OpenGL context is created.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config: cfg,
		log:    logger.Named("renderer"),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)

	var err error
	r.scene, err = scene.New(cfg.Scene)
	if err != nil {
		return nil, fmt.Errorf("failed to create scene: %w", err)
	}

	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Scene returns the scene for uploading terrain and meshes.
func (r *Renderer) Scene() *scene.Scene {
	return r.scene
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	if r.scene != nil {
		r.scene.Destroy()
		r.scene = nil
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

// Frame draws terrain leaves and actors for one frame.
func (r *Renderer) Frame(viewProj math.Mat4, tree *terrain.Quadtree, actors []scene.Actor) error {
	return r.scene.Render(viewProj, tree, actors)
}

// ReadPixels returns the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	pixels = make([]byte, width*height*4)
	if len(pixels) == 0 {
		return pixels, width, height
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, width, height
}
