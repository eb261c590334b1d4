package scene

import "github.com/go-gl/mathgl/mgl32"

// Plane is the half-space n·p + D >= 0. Normal points inside.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// DistanceTo returns the signed distance from pt to the plane; positive is
// inside.
func (p Plane) DistanceTo(pt mgl32.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// Frustum holds the six clip planes of a view volume.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumFromVP extracts normalised planes from a proj*view matrix
// (Gribb/Hartmann, column vectors).
func FrustumFromVP(vp mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := vp.Row(0), vp.Row(1), vp.Row(2), vp.Row(3)

	var f Frustum
	f.Planes[0] = normalizePlane(r3.Add(r0))
	f.Planes[1] = normalizePlane(r3.Sub(r0))
	f.Planes[2] = normalizePlane(r3.Add(r1))
	f.Planes[3] = normalizePlane(r3.Sub(r1))
	f.Planes[4] = normalizePlane(r3.Add(r2))
	f.Planes[5] = normalizePlane(r3.Sub(r2))
	return f
}

func normalizePlane(v mgl32.Vec4) Plane {
	n := v.Vec3()
	l := n.Len()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Mul(1 / l), D: v.W() / l}
}

// IntersectsFrustum returns false if the box lies entirely outside one of
// the planes.
func (b AABB) IntersectsFrustum(f *Frustum) bool {
	for _, p := range f.Planes {
		// corner furthest along the plane normal
		var c mgl32.Vec3
		for i := 0; i < 3; i++ {
			if p.Normal[i] < 0 {
				c[i] = b.Min[i]
			} else {
				c[i] = b.Max[i]
			}
		}
		if p.DistanceTo(c) < 0 {
			return false
		}
	}
	return true
}

// WorldAABB is the bounding box of mesh transformed by world. Meshes without
// vertices get an empty box at the origin.
func WorldAABB(mesh *Mesh, world mgl32.Mat4) AABB {
	if !mesh.HasLocalAABB {
		if len(mesh.Vertices) == 0 {
			return AABB{}
		}
		mesh.LocalAABB = computeLocalAABB(mesh.Vertices)
		mesh.HasLocalAABB = true
	}
	mn, mx := mesh.LocalAABB.Min, mesh.LocalAABB.Max
	var out AABB
	for i := 0; i < 8; i++ {
		corner := mn
		if i&1 != 0 {
			corner[0] = mx[0]
		}
		if i&2 != 0 {
			corner[1] = mx[1]
		}
		if i&4 != 0 {
			corner[2] = mx[2]
		}
		wp := mgl32.TransformCoordinate(corner, world)
		if i == 0 {
			out = AABB{Min: wp, Max: wp}
			continue
		}
		for a := 0; a < 3; a++ {
			out.Min[a] = min(out.Min[a], wp[a])
			out.Max[a] = max(out.Max[a], wp[a])
		}
	}
	return out
}
