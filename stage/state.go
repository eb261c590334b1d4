package stage

import (
	"github.com/go-gl/mathgl/mgl32"

	"audioscene/scene"
)

// State is the single mutable value shared by the controller's parts.
type State struct {
	Scene  *scene.Scene
	Camera *scene.OrbitCamera
	Params *scene.ShaderParams

	Pointer Pointer
	Slider  Slider

	// Playing is true while the frame driver is Running.
	Playing bool
	// Time advances by TimeStep per rendered frame.
	Time float32

	Width  int
	Height int
}

// NewState returns a Running state with an empty scene.
func NewState(camera *scene.OrbitCamera) *State {
	s := scene.NewScene()
	s.SetCamera(&camera.Camera)
	return &State{
		Scene:   s,
		Camera:  camera,
		Params:  &scene.ShaderParams{Resolution: mgl32.Vec4{0, 0, 1, 1}},
		Playing: true,
	}
}
