package scene

import "audioscene/core"

// MaterialKind selects the GPU program a mesh is drawn with.
type MaterialKind int

const (
	// MaterialStandard is lit by the scene lights (loaded models).
	MaterialStandard MaterialKind = iota
	// MaterialBasic outputs Albedo/texture unlit, honouring Opacity.
	MaterialBasic
	// MaterialShader runs an external GPU program fed from Params.
	MaterialShader
	// MaterialReflector mirrors the rest of the scene about the mesh plane.
	MaterialReflector
)

// Material describes surface appearance properties for a mesh.
type Material struct {
	Name   string
	Kind   MaterialKind
	Albedo core.Color // base diffuse color (multiplied with albedo texture if set)

	// Optional albedo texture; if set, it is multiplied with Albedo.
	AlbedoTexture *Texture

	Opacity     float32 // used when Transparent is set
	Transparent bool    // blended, drawn after opaque meshes
	DoubleSided bool    // disables back-face culling

	// MaterialShader only.
	Program *ShaderProgram
	Params  *ShaderParams

	// MaterialReflector only.
	Reflector *ReflectorOptions
}

// ShaderProgram carries the GLSL sources of an externally supplied program.
type ShaderProgram struct {
	Name           string
	VertexSource   string
	FragmentSource string
}

// ReflectorOptions configures a planar mirror. The texture size is the
// render target size of the reflection pass.
type ReflectorOptions struct {
	ClipBias      float32
	TextureWidth  int
	TextureHeight int
}

// DefaultMaterial returns a plain white lit material.
func DefaultMaterial() *Material {
	return &Material{
		Name:    "Default",
		Kind:    MaterialStandard,
		Albedo:  core.ColorWhite,
		Opacity: 1,
	}
}

// NewBasicMaterial returns an unlit material of the given colour.
func NewBasicMaterial(name string, albedo core.Color) *Material {
	return &Material{
		Name:    name,
		Kind:    MaterialBasic,
		Albedo:  albedo,
		Opacity: 1,
	}
}

// NewShaderMaterial binds an external program to a parameter block.
func NewShaderMaterial(name string, program *ShaderProgram, params *ShaderParams) *Material {
	return &Material{
		Name:        name,
		Kind:        MaterialShader,
		Albedo:      core.ColorWhite,
		Opacity:     1,
		DoubleSided: true,
		Program:     program,
		Params:      params,
	}
}

// NewReflectorMaterial returns a mirror tinted by color.
func NewReflectorMaterial(name string, color core.Color, opts ReflectorOptions) *Material {
	return &Material{
		Name:      name,
		Kind:      MaterialReflector,
		Albedo:    color,
		Opacity:   1,
		Reflector: &opts,
	}
}
