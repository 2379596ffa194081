package scene

import (
	"fmt"
	"sort"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-engine/internal/engine/scene/shaders"
	"github.com/Faultbox/midgard-engine/internal/engine/shader"
	"github.com/Faultbox/midgard-engine/internal/engine/terrain"
	"github.com/Faultbox/midgard-engine/pkg/math"
)

// morphTints colour each variant when morph debugging is on.
var morphTints = [terrain.MorphVariantCount][3]float32{
	terrain.MorphNone:        {1, 1, 1},
	terrain.MorphLeft:        {1, 0, 0},
	terrain.MorphRight:       {0, 1, 0},
	terrain.MorphTop:         {0, 0, 1},
	terrain.MorphBottom:      {1, 1, 0},
	terrain.MorphLeftTop:     {1, 0, 1},
	terrain.MorphLeftBottom:  {0, 1, 1},
	terrain.MorphRightTop:    {1, 0.5, 0},
	terrain.MorphRightBottom: {0.5, 0, 1},
}

// PatchDraw is one leaf draw: which index buffer and where to place the patch.
type PatchDraw struct {
	Variant terrain.MorphVariant
	Patch   [4]float32 // min x, min z, size, height scale
}

// BuildDrawList converts quadtree leaves into draws grouped by variant so each
// index buffer is bound once per frame. Leaf order is kept within a group.
func BuildDrawList(leaves []terrain.Leaf, heightScale float32) []PatchDraw {
	draws := make([]PatchDraw, len(leaves))
	for i, l := range leaves {
		draws[i] = PatchDraw{
			Variant: l.Variant,
			Patch:   [4]float32{l.Node.Position.X, l.Node.Position.Y, l.Node.Size, heightScale},
		}
	}
	sort.SliceStable(draws, func(i, j int) bool { return draws[i].Variant < draws[j].Variant })
	return draws
}

// heightmapPixels lays altitudes out as a single-channel image, one row per z.
func heightmapPixels(h *terrain.Heightmap) (pix []float32, width, height int32) {
	if h == nil {
		return []float32{0}, 1, 1
	}
	pix = make([]float32, 0, h.SamplesX*h.SamplesZ)
	for z := range h.SamplesZ {
		for x := range h.SamplesX {
			pix = append(pix, h.Altitudes[x][z])
		}
	}
	return pix, int32(h.SamplesX), int32(h.SamplesZ)
}

// TerrainRenderer draws quadtree leaves with one shared patch vertex buffer
// and nine stitched index buffers.
type TerrainRenderer struct {
	// Shader
	program uint32

	// Uniform locations
	locViewProj  int32
	locPatch     int32
	locTerrain   int32
	locHeightmap int32
	locTint      int32
	locShowMorph int32

	// Patch mesh
	vao        uint32
	vbo        uint32
	ebos       [terrain.MorphVariantCount]uint32
	counts     [terrain.MorphVariantCount]int32
	resolution int

	heightTex uint32
	origin    math.Vec2
	size      float32

	// ShowMorph tints every leaf by its selected variant.
	ShowMorph   bool
	HeightScale float32
}

// NewTerrainRenderer compiles the terrain program.
func NewTerrainRenderer() (*TerrainRenderer, error) {
	tr := &TerrainRenderer{HeightScale: 1}

	program, err := shader.CompileProgram(shaders.TerrainVertexShader, shaders.TerrainFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("terrain shader: %w", err)
	}
	tr.program = program

	tr.locViewProj = shader.GetUniform(program, "uViewProj")
	tr.locPatch = shader.GetUniform(program, "uPatch")
	tr.locTerrain = shader.GetUniform(program, "uTerrain")
	tr.locHeightmap = shader.GetUniform(program, "uHeightmap")
	tr.locTint = shader.GetUniform(program, "uTint")
	tr.locShowMorph = shader.GetUniform(program, "uShowMorph")

	return tr, nil
}

// LoadTerrain uploads patch buffers for the tree's resolution and the
// heightmap, replacing anything loaded before.
func (tr *TerrainRenderer) LoadTerrain(cfg terrain.Config) error {
	tr.clearTerrain()

	buffers, err := terrain.BuildPatchBuffers(cfg.PatchResolution)
	if err != nil {
		return fmt.Errorf("patch buffers: %w", err)
	}
	tr.uploadPatchMesh(terrain.BuildPatchVertices(cfg.PatchResolution), buffers)
	tr.uploadHeightmap(cfg.Heightmap)

	tr.resolution = cfg.PatchResolution
	tr.origin = cfg.Origin
	tr.size = cfg.Size
	return nil
}

func (tr *TerrainRenderer) uploadPatchMesh(vertices []terrain.PatchVertex, buffers [terrain.MorphVariantCount][]uint32) {
	gl.GenVertexArrays(1, &tr.vao)
	gl.BindVertexArray(tr.vao)

	// VBO
	gl.GenBuffers(1, &tr.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, tr.vbo)
	vertexSize := int(unsafe.Sizeof(terrain.PatchVertex{}))
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*vertexSize, unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	// Position (location 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, int32(vertexSize), 0)
	gl.EnableVertexAttribArray(0)

	// TexCoord (location 1)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, int32(vertexSize), 3*4)
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)

	// One EBO per morph variant; bound per draw group.
	gl.GenBuffers(int32(len(tr.ebos)), &tr.ebos[0])
	for v, indices := range buffers {
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, tr.ebos[v])
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)
		tr.counts[v] = int32(len(indices))
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, 0)
}

func (tr *TerrainRenderer) uploadHeightmap(h *terrain.Heightmap) {
	pix, w, hgt := heightmapPixels(h)

	gl.GenTextures(1, &tr.heightTex)
	gl.BindTexture(gl.TEXTURE_2D, tr.heightTex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R32F, w, hgt, 0, gl.RED, gl.FLOAT, unsafe.Pointer(&pix[0]))

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
}

// Resolution returns the patch resolution of the loaded buffers.
func (tr *TerrainRenderer) Resolution() int {
	return tr.resolution
}

// IndexCount returns the number of indices uploaded for a variant.
func (tr *TerrainRenderer) IndexCount(v terrain.MorphVariant) int32 {
	return tr.counts[v]
}

// Render draws every leaf with the index buffer of its morph variant.
func (tr *TerrainRenderer) Render(viewProj math.Mat4, leaves []terrain.Leaf) {
	if tr.vao == 0 || len(leaves) == 0 {
		return
	}

	gl.UseProgram(tr.program)
	gl.UniformMatrix4fv(tr.locViewProj, 1, false, viewProj.Ptr())
	gl.Uniform4f(tr.locTerrain, tr.origin.X, tr.origin.Y, tr.size, 0)
	if tr.ShowMorph {
		gl.Uniform1i(tr.locShowMorph, 1)
	} else {
		gl.Uniform1i(tr.locShowMorph, 0)
	}

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, tr.heightTex)
	gl.Uniform1i(tr.locHeightmap, 0)

	gl.BindVertexArray(tr.vao)
	bound := -1
	for _, d := range BuildDrawList(leaves, tr.HeightScale) {
		if int(d.Variant) != bound {
			bound = int(d.Variant)
			gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, tr.ebos[d.Variant])
			tint := morphTints[d.Variant]
			gl.Uniform3f(tr.locTint, tint[0], tint[1], tint[2])
		}
		gl.Uniform4f(tr.locPatch, d.Patch[0], d.Patch[1], d.Patch[2], d.Patch[3])
		gl.DrawElementsWithOffset(gl.TRIANGLES, tr.counts[d.Variant], gl.UNSIGNED_INT, 0)
	}
	gl.BindVertexArray(0)
}

func (tr *TerrainRenderer) clearTerrain() {
	if tr.vao != 0 {
		gl.DeleteVertexArrays(1, &tr.vao)
		tr.vao = 0
	}
	if tr.vbo != 0 {
		gl.DeleteBuffers(1, &tr.vbo)
		tr.vbo = 0
	}
	if tr.ebos[0] != 0 {
		gl.DeleteBuffers(int32(len(tr.ebos)), &tr.ebos[0])
		tr.ebos = [terrain.MorphVariantCount]uint32{}
		tr.counts = [terrain.MorphVariantCount]int32{}
	}
	if tr.heightTex != 0 {
		gl.DeleteTextures(1, &tr.heightTex)
		tr.heightTex = 0
	}
}

// Destroy releases all resources.
func (tr *TerrainRenderer) Destroy() {
	tr.clearTerrain()
	if tr.program != 0 {
		gl.DeleteProgram(tr.program)
		tr.program = 0
	}
}
