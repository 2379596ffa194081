// Package game runs the interactive viewer: terrain LOD around an orbit
// camera plus animated rigs standing on the ground.
package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-engine/internal/assets"
	"github.com/Faultbox/midgard-engine/internal/config"
	"github.com/Faultbox/midgard-engine/internal/engine/camera"
	"github.com/Faultbox/midgard-engine/internal/engine/debug"
	"github.com/Faultbox/midgard-engine/internal/engine/input"
	"github.com/Faultbox/midgard-engine/internal/engine/renderer"
	"github.com/Faultbox/midgard-engine/internal/engine/scene"
	"github.com/Faultbox/midgard-engine/internal/engine/window"
	"github.com/Faultbox/midgard-engine/internal/game/entity"
	"github.com/Faultbox/midgard-engine/internal/game/world"
	"github.com/Faultbox/midgard-engine/internal/logger"
)

// actorSpacing is the ground distance between placed rigs.
const actorSpacing = 40

// Game holds the viewer's subsystems.
type Game struct {
	config  *config.Config
	running bool
	paused  bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.OrbitCamera
	shots    *debug.ScreenshotCapture
	capture  bool

	assets   *assets.Manager
	registry *assets.Registry
	world    *world.Map
	entities *entity.Manager
	meshes   map[uint32]*scene.SkinnedMeshHandle
	clips    map[uint32][]string

	log *zap.Logger
}

// New opens the window and loads the configured data.
func New(cfg *config.Config) (*Game, error) {
	g := &Game{
		config:   cfg,
		input:    input.New(),
		camera:   camera.NewOrbitCamera(),
		shots:    debug.NewScreenshotCapture("screenshots", "midgard"),
		assets:   assets.NewManager(),
		registry: assets.NewRegistry(cfg.Animation.MaxJoints),
		entities: entity.NewManager(cfg.Animation.Workers),
		meshes:   make(map[uint32]*scene.SkinnedMeshHandle),
		clips:    make(map[uint32][]string),
		log:      logger.Named("game"),
	}

	var err error
	g.window, err = window.New(window.Config{
		Title:      "Midgard Engine",
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	sceneCfg := scene.DefaultConfig()
	sceneCfg.ShowMorph = cfg.Graphics.ShowMorph
	sceneCfg.HeightScale = cfg.Terrain.HeightScale
	w, h := g.window.Size()
	g.renderer, err = renderer.New(renderer.Config{Width: w, Height: h, Scene: sceneCfg})
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	if err := g.load(); err != nil {
		g.Close()
		return nil, err
	}

	g.log.Info("viewer initialized",
		zap.String("map", g.world.Name),
		zap.Int("entities", g.entities.Count()),
	)
	return g, nil
}

// load mounts data sources, builds the map and places one entity per rig.
func (g *Game) load() error {
	data := g.config.Data
	for _, path := range data.GRFPaths {
		if err := g.assets.AddArchive(path); err != nil {
			return fmt.Errorf("mounting %s: %w", path, err)
		}
	}
	for _, dir := range data.Dirs {
		g.assets.AddDir(dir)
	}

	var err error
	g.world, err = world.Load(g.assets, g.config.Terrain)
	if err != nil {
		return fmt.Errorf("loading map: %w", err)
	}
	if err := g.renderer.Scene().LoadTerrain(g.world.Tree.Config()); err != nil {
		return fmt.Errorf("uploading terrain: %w", err)
	}
	g.camera.FitToSquare(g.world.Center(), g.world.Tree.Config().Size)

	var rigs []string
	for _, path := range data.Rigs {
		name, err := g.registry.Load(g.assets, path)
		if err != nil {
			return fmt.Errorf("loading rig: %w", err)
		}
		rigs = append(rigs, name)
	}

	_, animations := g.registry.Names()
	spots := g.world.Grid(len(rigs), actorSpacing)
	for i, rig := range rigs {
		if err := g.spawn(uint32(i+1), rig, animations, spots[i].X, spots[i].Y, spots[i].Z); err != nil {
			return err
		}
	}
	return nil
}

// spawn places an instance of rig playing its first clip.
func (g *Game) spawn(id uint32, rig string, animations []string, x, y, z float32) error {
	proto, err := g.registry.Skeleton(rig)
	if err != nil {
		return err
	}
	sk, err := g.registry.Instance(rig)
	if err != nil {
		return err
	}

	var clips []string
	for _, name := range animations {
		if strings.HasPrefix(name, rig+"/") {
			clips = append(clips, name)
		}
	}

	e := entity.NewEntity(id, rig)
	e.SetPosition(x, y, z)
	e.Anim.SetSpeed(g.config.Animation.DefaultSpeed)
	e.Anim.SetLoop(g.config.Animation.Loop)
	if err := e.Anim.SetSkeleton(sk); err != nil {
		return err
	}
	if len(clips) > 0 {
		if err := g.play(e, clips[0]); err != nil {
			return err
		}
	}

	g.entities.Add(e)
	g.clips[id] = clips
	g.meshes[id] = g.renderer.Scene().UploadSkeleton(proto)
	return nil
}

func (g *Game) play(e *entity.Entity, clip string) error {
	anim, err := g.registry.Animation(clip)
	if err != nil {
		return err
	}
	if err := e.Anim.SetAnimation(anim); err != nil {
		return err
	}
	g.log.Debug("playing", zap.String("entity", e.Name), zap.String("clip", clip))
	return nil
}

// nextClip switches every entity to the clip after its current one.
func (g *Game) nextClip() {
	for _, e := range g.entities.All() {
		clips := g.clips[e.ID]
		if len(clips) < 2 {
			continue
		}
		next := 0
		if cur := e.Anim.Animation(); cur != nil {
			for i, name := range clips {
				if name == assets.ClipName(e.Name, cur.Name()) {
					next = (i + 1) % len(clips)
				}
			}
		}
		if err := g.play(e, clips[next]); err != nil {
			g.log.Warn("clip switch failed", zap.String("entity", e.Name), zap.Error(err))
		}
	}
}

// Run runs the main loop until the window closes.
func (g *Game) Run() error {
	g.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	g.log.Info("starting main loop")

	for g.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if g.input.Update() {
			break
		}
		g.handleEvents()

		if err := g.update(float32(dt)); err != nil {
			return fmt.Errorf("update error: %w", err)
		}
		if err := g.render(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		if g.capture {
			g.capture = false
			g.screenshot()
		}

		g.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			stats := g.world.Tree.Stats()
			g.log.Debug("frame stats",
				zap.Int("fps", frameCount),
				zap.Int("leaves", stats.Leaves),
				zap.Int("deepest", stats.Deepest),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (g *Game) handleEvents() {
	for _, event := range g.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			g.renderer.Resize(g.window.Size())
		case input.EventMouseMove:
			if g.input.IsButtonDown(sdl.BUTTON_LEFT) {
				g.camera.HandleDrag(float32(event.DeltaX), float32(event.DeltaY))
			}
		case input.EventMouseWheel:
			g.camera.HandleZoom(float32(event.DeltaY))
		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				g.running = false
			case sdl.SCANCODE_SPACE:
				g.paused = !g.paused
			case sdl.SCANCODE_TAB:
				g.nextClip()
			case sdl.SCANCODE_F12:
				g.capture = true
			}
		}
	}
}

func (g *Game) update(dt float32) error {
	g.camera.HandleMovement(
		g.input.Axis(sdl.SCANCODE_W, sdl.SCANCODE_S),
		g.input.Axis(sdl.SCANCODE_D, sdl.SCANCODE_A),
		g.input.Axis(sdl.SCANCODE_E, sdl.SCANCODE_Q),
	)

	g.world.Update(g.camera.Position())

	if g.paused {
		dt = 0
	}
	return g.entities.Update(dt)
}

func (g *Game) render() error {
	all := g.entities.All()
	actors := make([]scene.Actor, 0, len(all))
	for _, e := range all {
		if e.Anim.Palette() == nil {
			continue
		}
		actors = append(actors, scene.Actor{
			Model:   e.ModelMatrix(),
			Palette: e.Anim.Palette(),
			Mesh:    g.meshes[e.ID],
		})
	}
	return g.renderer.Frame(g.camera.ViewProjection(g.renderer.Aspect()), g.world.Tree, actors)
}

func (g *Game) screenshot() {
	pixels, w, h := g.renderer.ReadPixels()
	path, err := g.shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		g.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	g.log.Info("screenshot saved", zap.String("path", path))
}

// Close releases everything New acquired.
func (g *Game) Close() {
	g.log.Info("closing viewer")

	if g.renderer != nil {
		for id, h := range g.meshes {
			g.renderer.Scene().Release(h)
			delete(g.meshes, id)
		}
		g.renderer.Close()
	}
	if g.window != nil {
		g.window.Close()
	}
	g.assets.Close()
}
