package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"audioscene/core"
)

// CreatePlane generates a width x height plane in the XY plane facing +Z,
// split into widthSegments x heightSegments quads. UV (0,0) is the
// bottom-left corner.
func CreatePlane(width, height float32, widthSegments, heightSegments int) *Mesh {
	if widthSegments < 1 {
		widthSegments = 1
	}
	if heightSegments < 1 {
		heightSegments = 1
	}

	var vertices []core.Vertex
	var indices []uint32

	halfW := width / 2.0
	halfH := height / 2.0
	cols := widthSegments + 1

	for iy := 0; iy <= heightSegments; iy++ {
		v := float32(iy) / float32(heightSegments)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float32(ix) / float32(widthSegments)
			vertices = append(vertices, core.Vertex{
				Position: mgl32.Vec3{-halfW + u*width, halfH - v*height, 0},
				Normal:   mgl32.Vec3{0, 0, 1},
				UV:       mgl32.Vec2{u, 1 - v},
				Color:    core.ColorWhite,
			})
		}
	}

	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := uint32(iy*cols + ix)
			b := uint32((iy+1)*cols + ix)
			c := b + 1
			d := a + 1

			indices = append(indices, a, b, d)
			indices = append(indices, b, c, d)
		}
	}

	return CreateMeshFromData("Plane", vertices, indices)
}
