// Package scene draws LOD terrain and skinned skeletons with OpenGL.
// Every call must run on the thread that owns the GL context.
package scene

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-engine/internal/engine/skeleton"
	"github.com/Faultbox/midgard-engine/internal/engine/terrain"
	"github.com/Faultbox/midgard-engine/pkg/math"
)

// Config contains scene configuration options.
type Config struct {
	ShowMorph   bool
	HeightScale float32
	ClearColor  [3]float32
}

// DefaultConfig returns a default scene configuration.
func DefaultConfig() Config {
	return Config{
		HeightScale: 1,
		ClearColor:  [3]float32{0.45, 0.6, 0.8},
	}
}

// Actor is one skinned instance to draw. Palette must be fully written for
// the frame before Render runs.
type Actor struct {
	Model   math.Mat4
	Palette skeleton.Palette
	Mesh    *SkinnedMeshHandle
}

// Scene owns the terrain and skinned renderers.
type Scene struct {
	config Config

	terrainRenderer *TerrainRenderer
	skinnedRenderer *SkinnedRenderer
}

// New creates a new scene with the given configuration.
func New(cfg Config) (*Scene, error) {
	s := &Scene{config: cfg}

	var err error
	s.terrainRenderer, err = NewTerrainRenderer()
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating terrain renderer: %w", err)
	}
	s.terrainRenderer.ShowMorph = cfg.ShowMorph
	s.terrainRenderer.HeightScale = cfg.HeightScale

	s.skinnedRenderer, err = NewSkinnedRenderer()
	if err != nil {
		s.Destroy()
		return nil, fmt.Errorf("creating skinned renderer: %w", err)
	}

	return s, nil
}

// LoadTerrain uploads patch buffers for a quadtree configuration.
func (s *Scene) LoadTerrain(cfg terrain.Config) error {
	return s.terrainRenderer.LoadTerrain(cfg)
}

// UploadSkeleton builds and uploads a bone mesh for a skeleton.
func (s *Scene) UploadSkeleton(sk *skeleton.Skeleton) *SkinnedMeshHandle {
	return s.skinnedRenderer.Upload(BuildBoneMesh(sk))
}

// Release frees a mesh uploaded with UploadSkeleton.
func (s *Scene) Release(h *SkinnedMeshHandle) {
	s.skinnedRenderer.Release(h)
}

// Render draws one frame. The quadtree must already be updated for this
// frame and every actor palette filled.
func (s *Scene) Render(viewProj math.Mat4, tree *terrain.Quadtree, actors []Actor) error {
	c := s.config.ClearColor
	gl.ClearColor(c[0], c[1], c[2], 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	gl.Enable(gl.DEPTH_TEST)

	if tree != nil {
		s.terrainRenderer.Render(viewProj, tree.Leaves())
	}
	for i, a := range actors {
		if err := s.skinnedRenderer.Render(viewProj, a.Model, a.Palette, a.Mesh); err != nil {
			return fmt.Errorf("actor %d: %w", i, err)
		}
	}
	return nil
}

// Destroy releases all resources.
func (s *Scene) Destroy() {
	if s.terrainRenderer != nil {
		s.terrainRenderer.Destroy()
		s.terrainRenderer = nil
	}
	if s.skinnedRenderer != nil {
		s.skinnedRenderer.Destroy()
		s.skinnedRenderer = nil
	}
}
