package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectMorphTruthTable(t *testing.T) {
	supported := map[MorphFlags]MorphVariant{
		0:                      MorphNone,
		FlagLeft:               MorphLeft,
		FlagRight:              MorphRight,
		FlagTop:                MorphTop,
		FlagBottom:             MorphBottom,
		FlagLeft | FlagTop:     MorphLeftTop,
		FlagLeft | FlagBottom:  MorphLeftBottom,
		FlagRight | FlagTop:    MorphRightTop,
		FlagRight | FlagBottom: MorphRightBottom,
	}

	seen := map[MorphVariant]bool{}
	for bits := range 16 {
		left, right, top, bottom := bits&1 != 0, bits&2 != 0, bits&4 != 0, bits&8 != 0
		flags := Flags(left, right, top, bottom)
		require.Equal(t, MorphFlags(bits), flags)

		got, ok := SelectMorph(flags)
		want, isSupported := supported[flags]
		if isSupported {
			assert.True(t, ok, "flags %v", flags)
			assert.Equal(t, want, got, "flags %v", flags)
			assert.False(t, seen[got], "variant %v selected twice", got)
			seen[got] = true
		} else {
			assert.False(t, ok, "flags %v", flags)
			assert.Equal(t, MorphNone, got, "flags %v should fall back", flags)
		}
	}
	assert.Len(t, seen, MorphVariantCount)
}

func TestSelectMorphScenario(t *testing.T) {
	v, ok := SelectMorph(Flags(true, false, true, false))
	assert.True(t, ok)
	assert.Equal(t, MorphLeftTop, v)

	v, ok = SelectMorph(Flags(true, true, false, false))
	assert.False(t, ok)
	assert.Equal(t, MorphNone, v)
}

func TestSelectMorphIsPure(t *testing.T) {
	for bits := range 16 {
		f := MorphFlags(bits)
		a, okA := SelectMorph(f)
		b, okB := SelectMorph(f)
		assert.Equal(t, a, b)
		assert.Equal(t, okA, okB)
	}
}

func TestVariantFlagsRoundTrip(t *testing.T) {
	for v := range MorphVariant(MorphVariantCount) {
		got, ok := SelectMorph(v.Flags())
		assert.True(t, ok)
		assert.Equal(t, v, got)
	}
	assert.Equal(t, "morph-left+top", MorphLeftTop.String())
	assert.Equal(t, "morph-none", MorphNone.String())
	assert.Equal(t, "invalid", MorphVariant(42).String())
}

func TestMorphFlagsHelpers(t *testing.T) {
	f := MorphFlags(0).With(SideRight).With(SideBottom)
	assert.True(t, f.Has(SideRight))
	assert.True(t, f.Has(SideBottom))
	assert.False(t, f.Has(SideLeft))
	assert.Equal(t, "right+bottom", f.String())
	assert.Equal(t, "none", MorphFlags(0).String())
}
