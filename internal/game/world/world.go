// Package world builds the terrain of a map and refreshes its LOD around
// the viewer each frame.
package world

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-engine/internal/assets"
	"github.com/Faultbox/midgard-engine/internal/config"
	"github.com/Faultbox/midgard-engine/internal/engine/terrain"
	"github.com/Faultbox/midgard-engine/internal/logger"
	"github.com/Faultbox/midgard-engine/pkg/formats"
	"github.com/Faultbox/midgard-engine/pkg/math"
)

// GATCellSize is the world size of one ground altitude cell.
const GATCellSize = 5

// Map is a terrain square with its quadtree.
type Map struct {
	Name      string
	Heightmap *terrain.Heightmap
	Tree      *terrain.Quadtree
}

// HeightmapFromGAT samples the table's cell corners, scaled by heightScale.
func HeightmapFromGAT(g *formats.GAT, heightScale float32) *terrain.Heightmap {
	alt := g.CornerAltitudes()
	for x := range alt {
		for z := range alt[x] {
			alt[x][z] *= heightScale
		}
	}
	return &terrain.Heightmap{
		Altitudes: alt,
		SamplesX:  len(alt),
		SamplesZ:  len(alt[0]),
		CellSize:  GATCellSize,
	}
}

// TerrainConfig turns settings into a quadtree configuration. With a
// heightmap the square grows to cover it; missing LOD ranges are derived.
func TerrainConfig(cfg config.TerrainConfig, h *terrain.Heightmap) terrain.Config {
	size := cfg.Size
	if h != nil {
		size = max(size, float32(max(h.SamplesX, h.SamplesZ)-1)*h.CellSize)
	}
	ranges := cfg.LODRanges
	if len(ranges) == 0 {
		ranges = terrain.DefaultLODRanges(size, cfg.MaxDepth)
	}
	return terrain.Config{
		Size:            size,
		MaxDepth:        cfg.MaxDepth,
		LODRanges:       ranges,
		PatchResolution: cfg.PatchResolution,
		Balance:         cfg.Balance,
		Heightmap:       h,
	}
}

// NewMap builds a map over an optional heightmap.
func NewMap(name string, cfg config.TerrainConfig, h *terrain.Heightmap) (*Map, error) {
	tree, err := terrain.New(TerrainConfig(cfg, h))
	if err != nil {
		return nil, errors.WithMessagef(err, "map %s", name)
	}
	return &Map{Name: name, Heightmap: h, Tree: tree}, nil
}

// Load builds the configured map, reading cfg.GAT through m when set.
// Without a GAT file the terrain is flat.
func Load(m *assets.Manager, cfg config.TerrainConfig) (*Map, error) {
	if cfg.GAT == "" {
		return NewMap("flat", cfg, nil)
	}

	data, err := m.Load(cfg.GAT)
	if err != nil {
		return nil, err
	}
	gat, err := formats.ParseGAT(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "map %s", cfg.GAT)
	}

	lo, hi := gat.AltitudeRange()
	logger.Named("world").Info("ground loaded",
		zap.String("path", cfg.GAT),
		zap.Uint32("width", gat.Width),
		zap.Uint32("height", gat.Height),
		zap.Float32("minAltitude", lo),
		zap.Float32("maxAltitude", hi),
	)
	return NewMap(cfg.GAT, cfg, HeightmapFromGAT(gat, cfg.HeightScale))
}

// Update refreshes the LOD around the viewer and returns the leaf statistics.
func (m *Map) Update(viewer math.Vec3) terrain.Stats {
	m.Tree.Update(viewer)
	return m.Tree.Stats()
}

// HeightAt returns the ground altitude at a world position.
func (m *Map) HeightAt(x, z float32) float32 {
	return m.Heightmap.Height(x, z)
}

// Center returns the middle of the terrain square at ground level.
func (m *Map) Center() math.Vec3 {
	cfg := m.Tree.Config()
	x := cfg.Origin.X + cfg.Size/2
	z := cfg.Origin.Y + cfg.Size/2
	return math.Vec3{X: x, Y: m.HeightAt(x, z), Z: z}
}

// Grid returns n ground positions on a square grid around the map center,
// spacing apart, each lifted to the terrain height.
func (m *Map) Grid(n int, spacing float32) []math.Vec3 {
	if n <= 0 {
		return nil
	}
	side := 1
	for side*side < n {
		side++
	}
	c := m.Center()
	offset := float32(side-1) * spacing / 2

	out := make([]math.Vec3, 0, n)
	for i := range n {
		x := c.X - offset + float32(i%side)*spacing
		z := c.Z - offset + float32(i/side)*spacing
		out = append(out, math.Vec3{X: x, Y: m.HeightAt(x, z), Z: z})
	}
	return out
}
