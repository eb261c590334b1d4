package stage

import "github.com/go-gl/mathgl/mgl32"

// Resizer is the renderer side of a viewport change.
type Resizer interface {
	Resize(width, height int)
}

// Viewport keeps renderer, camera and shader resolution in step with the
// window size.
type Viewport struct {
	state    *State
	renderer Resizer
}

func NewViewport(st *State, renderer Resizer) *Viewport {
	return &Viewport{state: st, renderer: renderer}
}

// Resize applies a new window size. Zero sizes (minimised window) are
// ignored.
func (v *Viewport) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	st := v.state
	st.Width, st.Height = width, height

	if v.renderer != nil {
		v.renderer.Resize(width, height)
	}
	st.Camera.UpdateAspectRatio(float32(width), float32(height))

	a1, a2 := AspectCorrection(float32(width), float32(height))
	st.Params.Resolution = mgl32.Vec4{float32(width), float32(height), a1, a2}
}

// AspectCorrection returns the factors that keep a square image
// undistorted in a width×height viewport: (w/h, 1) when taller than wide,
// (1, h/w) otherwise.
func AspectCorrection(width, height float32) (a1, a2 float32) {
	const imageAspect = 1
	if height/width > imageAspect {
		return width / height * imageAspect, 1
	}
	return 1, height / width / imageAspect
}
