package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/midgard-engine/pkg/math"
)

func testConfig() Config {
	return Config{
		Size:            64,
		MaxDepth:        3,
		LODRanges:       DefaultLODRanges(64, 3),
		PatchResolution: 8,
		Balance:         true,
	}
}

func newTree(t *testing.T, cfg Config) *Quadtree {
	t.Helper()
	q, err := New(cfg)
	require.NoError(t, err)
	return q
}

func mustNode(t *testing.T, q *Quadtree, i int) Node {
	t.Helper()
	n, err := q.Node(i)
	require.NoError(t, err)
	return n
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"valid", func(*Config) {}, nil},
		{"zero size", func(c *Config) { c.Size = 0 }, ErrInvalidSize},
		{"negative depth", func(c *Config) { c.MaxDepth = -1 }, ErrInvalidDepth},
		{"depth too large", func(c *Config) { c.MaxDepth = MaxTreeDepth + 1 }, ErrInvalidDepth},
		{"missing ranges", func(c *Config) { c.LODRanges = c.LODRanges[:1] }, ErrLODRanges},
		{"growing ranges", func(c *Config) { c.LODRanges = []float32{10, 20, 5} }, ErrLODRanges},
		{"odd resolution", func(c *Config) { c.PatchResolution = 5 }, ErrPatchResolution},
		{"tiny resolution", func(c *Config) { c.PatchResolution = 0 }, ErrPatchResolution},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdateFarViewerKeepsRoot(t *testing.T) {
	q := newTree(t, testConfig())
	q.Update(math.Vec3{X: 10000, Z: 10000})

	require.Len(t, q.Leaves(), 1)
	leaf := q.Leaves()[0]
	assert.Equal(t, 0, leaf.Index)
	assert.Equal(t, 3, leaf.Node.LOD)
	assert.Equal(t, MorphNone, leaf.Variant)
	assert.True(t, leaf.Supported)
	for _, s := range Sides {
		assert.Equal(t, NoNode, q.Neighbor(0, s))
	}
}

func TestUpdateRefinesNearViewer(t *testing.T) {
	q := newTree(t, testConfig())
	q.Update(math.Vec3{X: 1, Z: 1})

	var area float32
	for _, l := range q.Leaves() {
		assert.True(t, l.Node.IsLeaf())
		assert.LessOrEqual(t, l.Node.Depth, 3)
		assert.Equal(t, 3-l.Node.Depth, l.Node.LOD)
		area += l.Node.Size * l.Node.Size
	}
	assert.InDelta(t, 64*64, area, 1e-3, "leaves must tile the terrain")

	near := q.locate(math.Vec2{X: 1, Y: 1}, MaxTreeDepth)
	far := q.locate(math.Vec2{X: 63, Y: 63}, MaxTreeDepth)
	assert.Equal(t, 3, mustNode(t, q, near).Depth)
	assert.Less(t, mustNode(t, q, far).Depth, 3)

	s := q.Stats()
	assert.Equal(t, len(q.Leaves()), s.Leaves)
	assert.Equal(t, q.NodeCount(), s.Nodes)
	assert.Equal(t, 3, s.Deepest)
}

func TestNeighbor(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDepth = 1
	cfg.LODRanges = []float32{1000}
	q := newTree(t, cfg)
	q.Update(math.Vec3{})
	require.Equal(t, 5, q.NodeCount())

	root := mustNode(t, q, 0)
	minCorner := int(root.Children[0])
	plusX := int(root.Children[1])
	plusZ := int(root.Children[2])

	assert.Equal(t, NoNode, q.Neighbor(minCorner, SideLeft))
	assert.Equal(t, NoNode, q.Neighbor(minCorner, SideTop))
	assert.Equal(t, plusX, q.Neighbor(minCorner, SideRight))
	assert.Equal(t, plusZ, q.Neighbor(minCorner, SideBottom))
	assert.Equal(t, minCorner, q.Neighbor(plusX, SideLeft))
	assert.Equal(t, minCorner, q.Neighbor(plusZ, SideTop))

	_, err := q.Node(99)
	assert.ErrorIs(t, err, ErrNodeOutOfRange)
}

// steepConfig refines a small corner deeply while leaving the rest coarse.
func steepConfig(balance bool) Config {
	return Config{
		Size:            64,
		MaxDepth:        4,
		LODRanges:       []float32{1000, 1000, 12, 12},
		PatchResolution: 4,
		Balance:         balance,
	}
}

func maxNeighbourDelta(t *testing.T, q *Quadtree) int {
	t.Helper()
	worst := 0
	for _, l := range q.Leaves() {
		for _, s := range Sides {
			nb := q.Neighbor(l.Index, s)
			if nb == NoNode {
				continue
			}
			worst = max(worst, l.Node.Depth-mustNode(t, q, nb).Depth)
		}
	}
	return worst
}

func TestBalanceLimitsLevelDifference(t *testing.T) {
	viewer := math.Vec3{X: 1, Z: 1}

	loose := newTree(t, steepConfig(false))
	loose.Update(viewer)
	require.Greater(t, maxNeighbourDelta(t, loose), 1, "setup must produce a crack")

	balanced := newTree(t, steepConfig(true))
	balanced.Update(viewer)
	assert.LessOrEqual(t, maxNeighbourDelta(t, balanced), 1)
	assert.Greater(t, balanced.NodeCount(), loose.NodeCount())
}

func TestLeafMorphMatchesNeighbours(t *testing.T) {
	q := newTree(t, steepConfig(true))
	q.Update(math.Vec3{X: 1, Z: 1})

	total := 0
	stitched := 0
	for _, l := range q.Leaves() {
		assert.True(t, l.Supported, "leaf %d flags %v", l.Index, l.Morph)
		for _, s := range Sides {
			nb := q.Neighbor(l.Index, s)
			if l.Morph.Has(s) {
				require.NotEqual(t, NoNode, nb)
				assert.Equal(t, l.Node.Depth-1, mustNode(t, q, nb).Depth)
			} else if nb != NoNode {
				assert.Equal(t, l.Node.Depth, mustNode(t, q, nb).Depth)
			}
		}
		if l.Variant != MorphNone {
			stitched++
		}
	}

	s := q.Stats()
	for _, n := range s.Variants {
		total += n
	}
	assert.Equal(t, s.Leaves, total)
	assert.Zero(t, s.Unsupported)
	assert.Positive(t, stitched)
}

func TestUpdateIsDeterministic(t *testing.T) {
	viewer := math.Vec3{X: 20, Y: 3, Z: 41}
	a := newTree(t, steepConfig(true))
	b := newTree(t, steepConfig(true))
	a.Update(viewer)
	b.Update(viewer)
	assert.Equal(t, a.Leaves(), b.Leaves())

	first := append([]Leaf(nil), a.Leaves()...)
	a.Update(math.Vec3{X: 5000})
	a.Update(viewer)
	assert.Equal(t, first, a.Leaves())
}

func TestUnsupportedMorphIsCountedAndLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	q := newTree(t, testConfig())
	q.SetLogger(zap.New(core))
	q.Update(math.Vec3{X: 10000})

	v, ok := q.selectFor(0, FlagLeft|FlagRight)
	assert.False(t, ok)
	assert.Equal(t, MorphNone, v)
	assert.Equal(t, 1, q.Stats().Unsupported)

	entries := logs.FilterMessage("unsupported morph combination").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "left+right", entries[0].ContextMap()["flags"])
}

func TestHeightmapRaisesNodes(t *testing.T) {
	cfg := testConfig()
	cfg.Heightmap = NewHeightmap(3, 3, 32, math.Vec2{}, func(x, z float32) float32 { return 500 })
	q := newTree(t, cfg)

	// On flat ground this viewer refines the root; a 500 unit plateau
	// pushes every node out of range.
	q.Update(math.Vec3{X: 32, Z: 32})
	assert.Len(t, q.Leaves(), 1)

	q.Update(math.Vec3{X: 32, Y: 500, Z: 32})
	assert.Greater(t, len(q.Leaves()), 1)
}
