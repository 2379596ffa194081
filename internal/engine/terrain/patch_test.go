package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-engine/pkg/math"
)

func TestBuildPatchVertices(t *testing.T) {
	v := BuildPatchVertices(4)
	require.Len(t, v, 25)
	assert.Equal(t, [3]float32{0, 0, 0}, v[0].Position)
	assert.Equal(t, [3]float32{1, 0, 0}, v[4].Position)
	assert.Equal(t, [3]float32{0, 0, 1}, v[20].Position)
	assert.Equal(t, [2]float32{0.5, 0.25}, v[1*5+2].TexCoord)
}

// signedArea2 returns twice the signed area of a triangle projected on XZ,
// positive when counter-clockwise seen from +Y.
func signedArea2(res int, a, b, c uint32) float64 {
	stride := uint32(res + 1)
	ax, az := float64(a%stride), float64(a/stride)
	bx, bz := float64(b%stride), float64(b/stride)
	cx, cz := float64(c%stride), float64(c/stride)
	return ((bz-az)*(cx-ax) - (bx-ax)*(cz-az)) / float64(res*res)
}

func TestBuildPatchIndicesCoverPatch(t *testing.T) {
	for _, res := range []int{2, 4, 8} {
		for v := range MorphVariant(MorphVariantCount) {
			idx, err := BuildPatchIndices(res, v)
			require.NoError(t, err)
			require.Len(t, idx, 3*PatchTriangleCount(res, v), "res %d %v", res, v)

			var area float64
			for i := 0; i < len(idx); i += 3 {
				a, b, c := idx[i], idx[i+1], idx[i+2]
				assert.Less(t, a, uint32((res+1)*(res+1)))
				assert.NotEqual(t, a, b)
				assert.NotEqual(t, b, c)
				assert.NotEqual(t, a, c)

				s := signedArea2(res, a, b, c)
				assert.Positive(t, s, "res %d %v triangle %d winding", res, v, i/3)
				area += s / 2
			}
			assert.InDelta(t, 1.0, area, 1e-9, "res %d %v must cover the unit patch", res, v)
		}
	}
}

func TestBuildPatchIndicesSkipOddEdgeVertices(t *testing.T) {
	const res = 4
	used := func(idx []uint32, x, z int) bool {
		want := uint32(z*(res+1) + x)
		for _, i := range idx {
			if i == want {
				return true
			}
		}
		return false
	}

	left, err := BuildPatchIndices(res, MorphLeft)
	require.NoError(t, err)
	assert.False(t, used(left, 0, 1))
	assert.False(t, used(left, 0, 3))
	assert.True(t, used(left, 0, 2))
	assert.True(t, used(left, 4, 1), "right edge keeps full resolution")

	rb, err := BuildPatchIndices(res, MorphRightBottom)
	require.NoError(t, err)
	assert.False(t, used(rb, 4, 1))
	assert.False(t, used(rb, 3, 4))
	assert.True(t, used(rb, 0, 1))
	assert.True(t, used(rb, 1, 0))
}

func TestBuildPatchBuffersDistinct(t *testing.T) {
	buffers, err := BuildPatchBuffers(4)
	require.NoError(t, err)
	for i := range buffers {
		for j := i + 1; j < len(buffers); j++ {
			assert.NotEqual(t, buffers[i], buffers[j], "%v and %v", MorphVariant(i), MorphVariant(j))
		}
	}
}

func TestBuildPatchIndicesRejectsResolution(t *testing.T) {
	for _, res := range []int{0, 1, 3, 7} {
		_, err := BuildPatchIndices(res, MorphNone)
		assert.ErrorIs(t, err, ErrPatchResolution, "res %d", res)
	}
}

func TestHeightmapBilinear(t *testing.T) {
	h := NewHeightmap(5, 5, 2, math.Vec2{X: -4, Y: -4}, func(x, z float32) float32 { return x + 2*z })

	assert.InDelta(t, 0, h.Height(0, 0), 1e-5)
	assert.InDelta(t, 1.5+2*0.5, h.Height(1.5, 0.5), 1e-5)
	assert.InDelta(t, -3+2*3.25, h.Height(-3, 3.25), 1e-5)

	// Clamped to the border outside the grid.
	assert.InDelta(t, 4+2*4, h.Height(100, 100), 1e-5)
	assert.InDelta(t, -4+2*-4, h.Height(-100, -100), 1e-5)

	var flat *Heightmap
	assert.Zero(t, flat.Height(3, 3))
}
