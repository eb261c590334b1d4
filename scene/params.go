package scene

import "github.com/go-gl/mathgl/mgl32"

// Uniform names of the shader parameter block. Both the Go side and the
// GLSL sources depend on these; change them together.
const (
	UniformTime       = "time"
	UniformAmplitude  = "numbb"
	UniformProgress   = "progress"
	UniformPointer    = "mouse"
	UniformResolution = "resolution"
	UniformMatcap     = "matcap"
	UniformMatcap1    = "matcap1"
)

// ShaderParams is the per-frame parameter block of the shader plane.
// Resolution holds (width, height, a1, a2) where a1/a2 keep a square image
// undistorted at any viewport aspect.
type ShaderParams struct {
	Time       float32
	Amplitude  float32
	Progress   float32
	Pointer    mgl32.Vec2
	Resolution mgl32.Vec4
	Matcap     *Texture
	Matcap1    *Texture
}
