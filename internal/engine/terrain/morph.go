package terrain

import "strings"

// MorphFlags records which sides of a leaf border a coarser neighbour.
type MorphFlags uint8

// Flag bits, one per Side.
const (
	FlagLeft   MorphFlags = 1 << SideLeft
	FlagRight  MorphFlags = 1 << SideRight
	FlagTop    MorphFlags = 1 << SideTop
	FlagBottom MorphFlags = 1 << SideBottom
)

// Flags packs four side booleans.
func Flags(left, right, top, bottom bool) MorphFlags {
	var f MorphFlags
	if left {
		f |= FlagLeft
	}
	if right {
		f |= FlagRight
	}
	if top {
		f |= FlagTop
	}
	if bottom {
		f |= FlagBottom
	}
	return f
}

// Has reports whether side is flagged.
func (f MorphFlags) Has(s Side) bool {
	return f&(1<<s) != 0
}

// With returns f with side set.
func (f MorphFlags) With(s Side) MorphFlags {
	return f | 1<<s
}

func (f MorphFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, s := range Sides {
		if f.Has(s) {
			parts = append(parts, s.String())
		}
	}
	return strings.Join(parts, "+")
}

// MorphVariant identifies one of the precomputed patch index buffers.
type MorphVariant uint8

const (
	MorphNone MorphVariant = iota
	MorphLeft
	MorphRight
	MorphTop
	MorphBottom
	MorphLeftTop
	MorphLeftBottom
	MorphRightTop
	MorphRightBottom

	MorphVariantCount = 9
)

var variantFlags = [MorphVariantCount]MorphFlags{
	MorphNone:        0,
	MorphLeft:        FlagLeft,
	MorphRight:       FlagRight,
	MorphTop:         FlagTop,
	MorphBottom:      FlagBottom,
	MorphLeftTop:     FlagLeft | FlagTop,
	MorphLeftBottom:  FlagLeft | FlagBottom,
	MorphRightTop:    FlagRight | FlagTop,
	MorphRightBottom: FlagRight | FlagBottom,
}

// Flags returns the sides a variant stitches.
func (v MorphVariant) Flags() MorphFlags {
	if int(v) >= MorphVariantCount {
		return 0
	}
	return variantFlags[v]
}

func (v MorphVariant) String() string {
	if int(v) >= MorphVariantCount {
		return "invalid"
	}
	return "morph-" + variantFlags[v].String()
}

// SelectMorph maps side flags to a stitched variant. Opposite-side and
// three- or four-sided combinations have no buffer: they return MorphNone
// and false.
func SelectMorph(f MorphFlags) (MorphVariant, bool) {
	switch f {
	case 0:
		return MorphNone, true
	case FlagLeft:
		return MorphLeft, true
	case FlagRight:
		return MorphRight, true
	case FlagTop:
		return MorphTop, true
	case FlagBottom:
		return MorphBottom, true
	case FlagLeft | FlagTop:
		return MorphLeftTop, true
	case FlagLeft | FlagBottom:
		return MorphLeftBottom, true
	case FlagRight | FlagTop:
		return MorphRightTop, true
	case FlagRight | FlagBottom:
		return MorphRightBottom, true
	}
	return MorphNone, false
}
