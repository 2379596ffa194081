package skeleton

import (
	"fmt"

	"github.com/Faultbox/midgard-engine/pkg/math"
)

// Palette is the fixed-size bone matrix array uploaded for vertex skinning,
// indexed by joint index.
type Palette []math.Mat4

// NewPalette allocates a palette of n identity matrices.
func NewPalette(n int) Palette {
	p := make(Palette, n)
	for i := range p {
		p[i] = math.Identity()
	}
	return p
}

// Set writes one bone matrix. An index outside the palette is an importer
// bug and panics; clamping would silently deform some other bone.
func (p Palette) Set(index int, m math.Mat4) {
	if index < 0 || index >= len(p) {
		panic(fmt.Sprintf("skeleton: joint index %d outside bone palette of %d", index, len(p)))
	}
	p[index] = m
}

// FillPalette writes every joint's skinning transform into p and returns it.
// A nil or short p is replaced by a new palette of MaxJoints entries.
func (s *Skeleton) FillPalette(p Palette) Palette {
	if len(p) < s.maxJoints {
		p = NewPalette(s.maxJoints)
	}
	for _, j := range s.joints {
		p.Set(j.index, j.SkinningTransform())
	}
	return p
}
