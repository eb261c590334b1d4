package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"audioscene/core"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

// Center is the midpoint of the box.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Mesh holds CPU-side vertex/index data.
// GPU upload is managed by the renderer backend.
type Mesh struct {
	Name       string
	Vertices   []core.Vertex
	Indices    []uint32
	IndexCount uint32

	// Cached local-space AABB (computed by CreateMeshFromData).
	LocalAABB    AABB
	HasLocalAABB bool

	// Material holds surface shading properties. If nil, DefaultMaterial() is used.
	Material *Material

	// GPUData is set by the renderer backend (e.g. *opengl.GPUMesh).
	// Do not access directly; use the renderer's API.
	GPUData interface{}
}

// CreateMeshFromData builds a Mesh and pre-computes its local-space AABB.
func CreateMeshFromData(name string, vertices []core.Vertex, indices []uint32) *Mesh {
	m := &Mesh{
		Name:       name,
		Vertices:   vertices,
		Indices:    indices,
		IndexCount: uint32(len(indices)),
	}
	if len(vertices) > 0 {
		m.LocalAABB = computeLocalAABB(vertices)
		m.HasLocalAABB = true
	}
	return m
}

// computeLocalAABB returns the tight AABB of the given vertex positions.
func computeLocalAABB(vertices []core.Vertex) AABB {
	min := vertices[0].Position
	max := vertices[0].Position
	for i := 1; i < len(vertices); i++ {
		p := vertices[i].Position
		for axis := 0; axis < 3; axis++ {
			if p[axis] < min[axis] {
				min[axis] = p[axis]
			}
			if p[axis] > max[axis] {
				max[axis] = p[axis]
			}
		}
	}
	return AABB{Min: min, Max: max}
}

// Center translates the vertices so the bounding box is centred on the
// origin. Must run before the mesh is uploaded.
func (m *Mesh) Center() {
	if !m.HasLocalAABB {
		return
	}
	offset := m.LocalAABB.Center()
	for i := range m.Vertices {
		m.Vertices[i].Position = m.Vertices[i].Position.Sub(offset)
	}
	m.LocalAABB = AABB{Min: m.LocalAABB.Min.Sub(offset), Max: m.LocalAABB.Max.Sub(offset)}
}
