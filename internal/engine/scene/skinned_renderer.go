package scene

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-engine/internal/engine/scene/shaders"
	"github.com/Faultbox/midgard-engine/internal/engine/shader"
	"github.com/Faultbox/midgard-engine/internal/engine/skeleton"
	"github.com/Faultbox/midgard-engine/pkg/math"
)

// ErrPaletteTooLarge is returned when a palette does not fit the shader's bone array.
var ErrPaletteTooLarge = errors.New("bone palette exceeds shader capacity")

// paletteCount validates a palette for upload.
func paletteCount(p skeleton.Palette) (int32, error) {
	if len(p) > MaxPaletteSize {
		return 0, fmt.Errorf("%w: %d > %d", ErrPaletteTooLarge, len(p), MaxPaletteSize)
	}
	return int32(len(p)), nil
}

// UploadBonePalette writes p into a mat4 array uniform on the bound program.
func UploadBonePalette(loc int32, p skeleton.Palette) error {
	n, err := paletteCount(p)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	gl.UniformMatrix4fv(loc, n, false, p[0].Ptr())
	return nil
}

// SkinnedMeshHandle references an uploaded skinned mesh.
type SkinnedMeshHandle struct {
	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32
}

// SkinnedRenderer draws meshes deformed by a bone palette.
type SkinnedRenderer struct {
	program uint32

	locViewProj int32
	locModel    int32
	locBones    int32
	locLightDir int32
	locColor    int32

	LightDir [3]float32
	Color    [3]float32
}

// NewSkinnedRenderer compiles the skinning program.
func NewSkinnedRenderer() (*SkinnedRenderer, error) {
	sr := &SkinnedRenderer{
		LightDir: [3]float32{0.5, 0.866, 0.0},
		Color:    [3]float32{0.85, 0.8, 0.7},
	}

	program, err := shader.CompileProgram(shaders.SkinnedVertexShader, shaders.SkinnedFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("skinned shader: %w", err)
	}
	sr.program = program

	sr.locViewProj = shader.GetUniform(program, "uViewProj")
	sr.locModel = shader.GetUniform(program, "uModel")
	sr.locBones = shader.GetUniform(program, "uBones")
	sr.locLightDir = shader.GetUniform(program, "uLightDir")
	sr.locColor = shader.GetUniform(program, "uColor")

	return sr, nil
}

// Upload creates GPU buffers for a mesh.
func (sr *SkinnedRenderer) Upload(mesh SkinnedMesh) *SkinnedMeshHandle {
	h := &SkinnedMeshHandle{indexCount: int32(len(mesh.Indices))}
	if len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
		return h
	}

	gl.GenVertexArrays(1, &h.vao)
	gl.BindVertexArray(h.vao)

	gl.GenBuffers(1, &h.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, h.vbo)
	vertexSize := int(unsafe.Sizeof(SkinnedVertex{}))
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*vertexSize, unsafe.Pointer(&mesh.Vertices[0]), gl.STATIC_DRAW)

	// Position (location 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, int32(vertexSize), 0)
	gl.EnableVertexAttribArray(0)

	// Normal (location 1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, int32(vertexSize), 3*4)
	gl.EnableVertexAttribArray(1)

	// Joints (location 2), integer attribute
	gl.VertexAttribIPointerWithOffset(2, 4, gl.UNSIGNED_INT, int32(vertexSize), 6*4)
	gl.EnableVertexAttribArray(2)

	// Weights (location 3)
	gl.VertexAttribPointerWithOffset(3, 4, gl.FLOAT, false, int32(vertexSize), 10*4)
	gl.EnableVertexAttribArray(3)

	gl.GenBuffers(1, &h.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, h.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, unsafe.Pointer(&mesh.Indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return h
}

// Render draws a mesh with the given palette. The palette must be complete
// for this frame before Render is called.
func (sr *SkinnedRenderer) Render(viewProj, model math.Mat4, palette skeleton.Palette, h *SkinnedMeshHandle) error {
	if h == nil || h.vao == 0 {
		return nil
	}

	gl.UseProgram(sr.program)
	gl.UniformMatrix4fv(sr.locViewProj, 1, false, viewProj.Ptr())
	gl.UniformMatrix4fv(sr.locModel, 1, false, model.Ptr())
	gl.Uniform3f(sr.locLightDir, sr.LightDir[0], sr.LightDir[1], sr.LightDir[2])
	gl.Uniform3f(sr.locColor, sr.Color[0], sr.Color[1], sr.Color[2])
	if err := UploadBonePalette(sr.locBones, palette); err != nil {
		return err
	}

	gl.BindVertexArray(h.vao)
	gl.DrawElements(gl.TRIANGLES, h.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
	return nil
}

// Release frees a mesh's buffers.
func (sr *SkinnedRenderer) Release(h *SkinnedMeshHandle) {
	if h == nil {
		return
	}
	if h.vao != 0 {
		gl.DeleteVertexArrays(1, &h.vao)
		h.vao = 0
	}
	if h.vbo != 0 {
		gl.DeleteBuffers(1, &h.vbo)
		h.vbo = 0
	}
	if h.ebo != 0 {
		gl.DeleteBuffers(1, &h.ebo)
		h.ebo = 0
	}
}

// Destroy releases the program.
func (sr *SkinnedRenderer) Destroy() {
	if sr.program != 0 {
		gl.DeleteProgram(sr.program)
		sr.program = 0
	}
}
