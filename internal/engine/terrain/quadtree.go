package terrain

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-engine/internal/logger"
	"github.com/Faultbox/midgard-engine/pkg/math"
)

// MaxTreeDepth bounds subdivision so node coordinates stay exact in float32.
const MaxTreeDepth = 16

// Configuration errors.
var (
	ErrInvalidSize     = errors.New("terrain size must be positive")
	ErrInvalidDepth    = errors.New("terrain max depth out of range")
	ErrLODRanges       = errors.New("terrain LOD ranges invalid")
	ErrPatchResolution = errors.New("terrain patch resolution must be even and at least 2")
	ErrNodeOutOfRange  = errors.New("terrain node index out of range")
)

var errBalanceDiverged = errors.New("terrain balance did not converge")

// Config describes the terrain square and its LOD policy.
type Config struct {
	Origin          math.Vec2 // min corner on the XZ plane
	Size            float32   // edge length of the root square
	MaxDepth        int
	LODRanges       []float32 // a node at depth d splits while the viewer is closer than LODRanges[d]
	PatchResolution int       // cells per patch edge
	Balance         bool      // limit adjacent leaves to one level of difference
	Heightmap       *Heightmap
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: %g", ErrInvalidSize, c.Size)
	}
	if c.MaxDepth < 0 || c.MaxDepth > MaxTreeDepth {
		return fmt.Errorf("%w: %d (limit %d)", ErrInvalidDepth, c.MaxDepth, MaxTreeDepth)
	}
	if len(c.LODRanges) < c.MaxDepth {
		return fmt.Errorf("%w: need %d ranges, have %d", ErrLODRanges, c.MaxDepth, len(c.LODRanges))
	}
	for d := 1; d < c.MaxDepth; d++ {
		if c.LODRanges[d] > c.LODRanges[d-1] {
			return fmt.Errorf("%w: range %d (%g) exceeds range %d (%g)", ErrLODRanges, d, c.LODRanges[d], d-1, c.LODRanges[d-1])
		}
	}
	if c.PatchResolution < 2 || c.PatchResolution%2 != 0 {
		return fmt.Errorf("%w: %d", ErrPatchResolution, c.PatchResolution)
	}
	return nil
}

// DefaultLODRanges halves the split distance at each depth, starting at
// twice the root size.
func DefaultLODRanges(size float32, maxDepth int) []float32 {
	ranges := make([]float32, maxDepth)
	r := size * 2
	for d := range ranges {
		ranges[d] = r
		r /= 2
	}
	return ranges
}

// Quadtree is rebuilt from scratch on every Update. Nodes are stored in an
// arena; index 0 is the root.
type Quadtree struct {
	cfg    Config
	nodes  []Node
	leaves []Leaf
	stats  Stats
	log    *zap.Logger
}

// New validates cfg and returns an empty tree. Call Update before reading leaves.
func New(cfg Config) (*Quadtree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.LODRanges = append([]float32(nil), cfg.LODRanges...)
	return &Quadtree{
		cfg: cfg,
		log: logger.Named("terrain"),
	}, nil
}

// SetLogger replaces the logger used for per-update diagnostics.
func (q *Quadtree) SetLogger(l *zap.Logger) {
	q.log = l
}

// Config returns the tree configuration.
func (q *Quadtree) Config() Config {
	return q.cfg
}

// Update rebuilds the tree for a viewer position, then selects a morph
// variant for every leaf.
func (q *Quadtree) Update(viewer math.Vec3) {
	q.nodes = q.nodes[:0]
	q.nodes = append(q.nodes, q.newNode(q.cfg.Origin, q.cfg.Size, 0))

	// Children are appended behind their parent, so a single forward pass
	// visits every node breadth-first.
	for i := 0; i < len(q.nodes); i++ {
		if q.shouldSplit(i, viewer) {
			q.split(i)
		}
	}

	if q.cfg.Balance {
		if err := q.balance(); err != nil {
			q.log.Warn("quadtree balance", zap.Error(err))
		}
	}

	q.collectLeaves()
}

func (q *Quadtree) newNode(pos math.Vec2, size float32, depth int) Node {
	return Node{
		Position: pos,
		Size:     size,
		Depth:    depth,
		LOD:      q.cfg.MaxDepth - depth,
		Children: [4]int32{NoNode, NoNode, NoNode, NoNode},
	}
}

// Distance returns the 3D distance from viewer to the centre of node i,
// with the centre lifted onto the heightmap.
func (q *Quadtree) Distance(i int, viewer math.Vec3) float32 {
	c := q.nodes[i].Center()
	h := q.cfg.Heightmap.Height(c.X, c.Y)
	return viewer.Sub(math.Vec3{X: c.X, Y: h, Z: c.Y}).Length()
}

func (q *Quadtree) shouldSplit(i int, viewer math.Vec3) bool {
	d := q.nodes[i].Depth
	if d >= q.cfg.MaxDepth {
		return false
	}
	return q.Distance(i, viewer) < q.cfg.LODRanges[d]
}

func (q *Quadtree) split(i int) {
	parent := q.nodes[i]
	half := parent.Size / 2
	first := int32(len(q.nodes))
	for k := range 4 {
		pos := parent.Position
		if k&1 != 0 {
			pos.X += half
		}
		if k&2 != 0 {
			pos.Y += half
		}
		q.nodes = append(q.nodes, q.newNode(pos, half, parent.Depth+1))
		q.nodes[i].Children[k] = first + int32(k)
	}
}

// balance splits coarse leaves until no leaf borders one more than a single
// level coarser than itself.
func (q *Quadtree) balance() error {
	// Each pass can only push splits one level deeper.
	for pass := 0; pass <= q.cfg.MaxDepth+1; pass++ {
		changed := false
		for i := 0; i < len(q.nodes); i++ {
			n := q.nodes[i]
			if !n.IsLeaf() || n.Depth < 2 {
				continue
			}
			for _, s := range Sides {
				nb := q.Neighbor(i, s)
				if nb == NoNode || q.nodes[nb].Depth >= n.Depth-1 {
					continue
				}
				q.split(nb)
				changed = true
			}
		}
		if !changed {
			return nil
		}
	}
	return errBalanceDiverged
}

// Neighbor returns the node bordering side of node i at depth no greater
// than node i's, or NoNode at the terrain edge. A result shallower than node
// i is a coarser leaf; a result at the same depth may itself be subdivided.
func (q *Quadtree) Neighbor(i int, side Side) int {
	n := q.nodes[i]
	probe := n.Center()
	switch side {
	case SideLeft:
		probe.X -= n.Size
	case SideRight:
		probe.X += n.Size
	case SideTop:
		probe.Y -= n.Size
	case SideBottom:
		probe.Y += n.Size
	}
	if !q.contains(probe) {
		return NoNode
	}
	return q.locate(probe, n.Depth)
}

func (q *Quadtree) contains(p math.Vec2) bool {
	o := q.cfg.Origin
	return p.X > o.X && p.X < o.X+q.cfg.Size && p.Y > o.Y && p.Y < o.Y+q.cfg.Size
}

// locate descends from the root toward p and stops at a leaf or at maxDepth.
func (q *Quadtree) locate(p math.Vec2, maxDepth int) int {
	cur := 0
	for {
		n := &q.nodes[cur]
		if n.IsLeaf() || n.Depth >= maxDepth {
			return cur
		}
		cur = int(n.Children[n.quadrant(p)])
	}
}

// MorphFlags reports which sides of node i border a coarser leaf.
func (q *Quadtree) MorphFlags(i int) MorphFlags {
	var f MorphFlags
	depth := q.nodes[i].Depth
	for _, s := range Sides {
		if nb := q.Neighbor(i, s); nb != NoNode && q.nodes[nb].Depth < depth {
			f = f.With(s)
		}
	}
	return f
}

func (q *Quadtree) collectLeaves() {
	q.leaves = q.leaves[:0]
	q.stats = Stats{Nodes: len(q.nodes)}

	for i := range q.nodes {
		n := &q.nodes[i]
		if !n.IsLeaf() {
			continue
		}
		flags := q.MorphFlags(i)
		variant, ok := q.selectFor(i, flags)
		q.leaves = append(q.leaves, Leaf{
			Index:     i,
			Node:      *n,
			Morph:     flags,
			Variant:   variant,
			Supported: ok,
		})
		q.stats.Leaves++
		q.stats.Deepest = max(q.stats.Deepest, n.Depth)
	}

	q.log.Debug("quadtree updated",
		zap.Int("nodes", q.stats.Nodes),
		zap.Int("leaves", q.stats.Leaves),
		zap.Int("deepest", q.stats.Deepest),
		zap.Int("unsupported", q.stats.Unsupported))
}

// selectFor picks the variant for leaf i and records it in the stats.
func (q *Quadtree) selectFor(i int, flags MorphFlags) (MorphVariant, bool) {
	variant, ok := SelectMorph(flags)
	q.stats.Variants[variant]++
	if !ok {
		q.stats.Unsupported++
		q.log.Debug("unsupported morph combination",
			zap.Int("node", i),
			zap.Stringer("flags", flags),
			zap.Stringer("fallback", variant))
	}
	return variant, ok
}

// Node returns a copy of node i.
func (q *Quadtree) Node(i int) (Node, error) {
	if i < 0 || i >= len(q.nodes) {
		return Node{}, fmt.Errorf("%w: %d of %d", ErrNodeOutOfRange, i, len(q.nodes))
	}
	return q.nodes[i], nil
}

// NodeCount returns the number of nodes built by the last Update.
func (q *Quadtree) NodeCount() int {
	return len(q.nodes)
}

// Leaves returns the leaves of the last Update in arena order. The slice is
// reused by the next Update.
func (q *Quadtree) Leaves() []Leaf {
	return q.leaves
}

// Stats returns the counters of the last Update.
func (q *Quadtree) Stats() Stats {
	return q.stats
}
