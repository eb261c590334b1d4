package scene

import "github.com/go-gl/mathgl/mgl32"

// MirrorView is the virtual camera of a planar mirror for one frame.
type MirrorView struct {
	View mgl32.Mat4
	// ClipPlane is the world-space plane (xyz normal, w offset) separating
	// the reflected half-space; dot(vec4(p, 1), ClipPlane) < 0 is clipped.
	ClipPlane mgl32.Vec4
	// TextureMatrix maps mirror-local positions to projective reflection
	// texture coordinates.
	TextureMatrix mgl32.Mat4
}

// textureBias maps clip space [-1, 1] to texture space [0, 1].
var textureBias = mgl32.Mat4{
	0.5, 0, 0, 0,
	0, 0.5, 0, 0,
	0, 0, 0.5, 0,
	0.5, 0.5, 0.5, 1,
}

// ReflectView mirrors the camera given by view about the plane of a mirror
// whose local +Z axis is its surface normal. It returns false when the
// camera is behind the mirror.
func ReflectView(view, proj, mirrorWorld mgl32.Mat4, clipBias float32) (MirrorView, bool) {
	mirrorPos := mirrorWorld.Col(3).Vec3()
	normal := mirrorWorld.Mat3().Mul3x1(mgl32.Vec3{0, 0, 1}).Normalize()

	camWorld := view.Inv()
	camPos := camWorld.Col(3).Vec3()
	camRot := camWorld.Mat3()

	toMirror := mirrorPos.Sub(camPos)
	if toMirror.Dot(normal) > 0 {
		return MirrorView{}, false
	}
	eye := reflect(toMirror, normal).Mul(-1).Add(mirrorPos)

	lookAt := camPos.Add(camRot.Mul3x1(mgl32.Vec3{0, 0, -1}))
	target := reflect(mirrorPos.Sub(lookAt), normal).Mul(-1).Add(mirrorPos)

	up := reflect(camRot.Mul3x1(mgl32.Vec3{0, 1, 0}), normal)

	virtual := mgl32.LookAtV(eye, target, up)
	return MirrorView{
		View:          virtual,
		ClipPlane:     normal.Vec4(-normal.Dot(mirrorPos) - clipBias),
		TextureMatrix: textureBias.Mul4(proj).Mul4(virtual).Mul4(mirrorWorld),
	}, true
}

func reflect(v, n mgl32.Vec3) mgl32.Vec3 {
	return v.Sub(n.Mul(2 * v.Dot(n)))
}
