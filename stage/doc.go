// Package stage composes and drives the audiovisual scene.
//
// A Controller owns one State value and hands it to three cooperating
// parts: asset composition (LoadAll, Attach), the FrameDriver that updates
// the shader parameter block and renders once per display refresh, and the
// Viewport adapter that keeps camera and shader resolution in step with the
// window size. Pointer, Slider, PlayControl and OrbitControls translate
// window input into State changes.
//
// Everything except asset parsing runs on the goroutine that owns the GL
// context.
package stage
