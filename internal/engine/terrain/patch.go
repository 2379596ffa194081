package terrain

import "fmt"

// BuildPatchVertices returns the (res+1)² vertex grid of a unit patch on the
// XZ plane. Vertex (x, z) sits at index z*(res+1)+x; leaves scale and offset
// it by their node square.
func BuildPatchVertices(res int) []PatchVertex {
	n := res + 1
	inv := 1 / float32(res)
	vertices := make([]PatchVertex, 0, n*n)
	for z := range n {
		for x := range n {
			u := float32(x) * inv
			v := float32(z) * inv
			vertices = append(vertices, PatchVertex{
				Position: [3]float32{u, 0, v},
				TexCoord: [2]float32{u, v},
			})
		}
	}
	return vertices
}

// PatchTriangleCount returns the number of triangles BuildPatchIndices emits.
// Every stitched edge drops one triangle per pair of edge cells.
func PatchTriangleCount(res int, variant MorphVariant) int {
	edges := 0
	for _, s := range Sides {
		if variant.Flags().Has(s) {
			edges++
		}
	}
	return 2*res*res - edges*res/2
}

// BuildPatchIndices returns a counter-clockwise (seen from +Y) triangle list
// for the patch grid. On every side stitched by variant, odd edge vertices
// are folded onto the preceding even vertex so the edge matches a neighbour
// with half the resolution. Collapsed triangles are dropped.
func BuildPatchIndices(res int, variant MorphVariant) ([]uint32, error) {
	if res < 2 || res%2 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrPatchResolution, res)
	}

	flags := variant.Flags()
	stride := res + 1

	// vertex maps grid coordinates to a buffer index after edge snapping.
	vertex := func(x, z int) uint32 {
		if x%2 != 0 && (z == 0 && flags.Has(SideTop) || z == res && flags.Has(SideBottom)) {
			x--
		}
		if z%2 != 0 && (x == 0 && flags.Has(SideLeft) || x == res && flags.Has(SideRight)) {
			z--
		}
		return uint32(z*stride + x)
	}

	indices := make([]uint32, 0, PatchTriangleCount(res, variant)*3)
	emit := func(a, b, c uint32) {
		if a == b || b == c || a == c {
			return
		}
		indices = append(indices, a, b, c)
	}

	for z := range res {
		for x := range res {
			v00 := vertex(x, z)
			v10 := vertex(x+1, z)
			v01 := vertex(x, z+1)
			v11 := vertex(x+1, z+1)
			emit(v00, v11, v10)
			emit(v00, v01, v11)
		}
	}
	return indices, nil
}

// BuildPatchBuffers builds the index buffer of every morph variant.
func BuildPatchBuffers(res int) ([MorphVariantCount][]uint32, error) {
	var buffers [MorphVariantCount][]uint32
	for v := range MorphVariant(MorphVariantCount) {
		idx, err := BuildPatchIndices(res, v)
		if err != nil {
			return buffers, err
		}
		buffers[v] = idx
	}
	return buffers, nil
}
