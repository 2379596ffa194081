// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// TerrainVertexShader places the shared unit patch on a quadtree leaf.
//
//go:embed terrain.vert
var TerrainVertexShader string

// TerrainFragmentShader shades terrain patches, optionally tinted by morph variant.
//
//go:embed terrain.frag
var TerrainFragmentShader string

// SkinnedVertexShader deforms vertices by up to four bone palette entries.
//
//go:embed skinned.vert
var SkinnedVertexShader string

// SkinnedFragmentShader is the fragment shader for skinned meshes.
//
//go:embed skinned.frag
var SkinnedFragmentShader string
