package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// Absolute tolerances: float32 rotations leave residues around 1e-7 that
// mgl32's relative ApproxEqual rejects when the expected value is zero.
func nearVec3(a, b mgl32.Vec3) bool { return a.Sub(b).Len() < 1e-4 }
func nearVec4(a, b mgl32.Vec4) bool { return a.Sub(b).Len() < 1e-4 }

func nearMat4(a, b mgl32.Mat4) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > 1e-4 {
			return false
		}
	}
	return true
}

func TestNodeReparent(t *testing.T) {
	a, b, c := NewNode("a"), NewNode("b"), NewNode("c")
	a.AddChild(c)
	b.AddChild(c)

	if c.Parent != b {
		t.Fatalf("parent = %v, want b", c.Parent.Name)
	}
	if len(a.Children) != 0 || len(b.Children) != 1 {
		t.Errorf("children a=%d b=%d, want 0 and 1", len(a.Children), len(b.Children))
	}
}

func TestNodeWorldMatrix(t *testing.T) {
	parent := NewNode("parent")
	parent.SetPosition(mgl32.Vec3{1, 0, 0})
	child := NewNode("child")
	child.SetPosition(mgl32.Vec3{0, 2, 0})
	parent.AddChild(child)

	if got := child.WorldPosition(); !nearVec3(got, mgl32.Vec3{1, 2, 0}) {
		t.Errorf("world position = %v, want (1, 2, 0)", got)
	}

	parent.SetUniformScale(2)
	if got := child.WorldPosition(); !nearVec3(got, mgl32.Vec3{1, 4, 0}) {
		t.Errorf("after parent scale = %v, want (1, 4, 0)", got)
	}
}

func TestNodeRotateX(t *testing.T) {
	n := NewNode("floor")
	n.RotateX(-math.Pi / 2)
	normal := n.GetWorldMatrix().Mat3().Mul3x1(mgl32.Vec3{0, 0, 1})
	if !nearVec3(normal, mgl32.Vec3{0, 1, 0}) {
		t.Errorf("rotated +Z = %v, want +Y", normal)
	}
}

func TestVisibleNodesSkipsHiddenSubtree(t *testing.T) {
	s := NewScene()
	shown := NewNode("shown")
	shown.Mesh = CreatePlane(1, 1, 1, 1)
	hidden := NewNode("hidden")
	hidden.Visible = false
	hidden.Mesh = CreatePlane(1, 1, 1, 1)
	under := NewNode("under")
	under.Mesh = CreatePlane(1, 1, 1, 1)
	hidden.AddChild(under)
	s.AddNode(shown)
	s.AddNode(hidden)

	got := s.GetVisibleNodes()
	if len(got) != 1 || got[0] != shown {
		t.Errorf("visible = %d nodes, want only shown", len(got))
	}
}

func TestCreatePlane(t *testing.T) {
	m := CreatePlane(20, 10, 2, 1)
	if len(m.Vertices) != 6 {
		t.Errorf("vertices = %d, want 6", len(m.Vertices))
	}
	if len(m.Indices) != 12 {
		t.Errorf("indices = %d, want 12", len(m.Indices))
	}
	want := AABB{Min: mgl32.Vec3{-10, -5, 0}, Max: mgl32.Vec3{10, 5, 0}}
	if !m.HasLocalAABB || m.LocalAABB != want {
		t.Errorf("bounds = %v, want %v", m.LocalAABB, want)
	}
	for _, v := range m.Vertices {
		if v.Normal != (mgl32.Vec3{0, 0, 1}) {
			t.Fatalf("normal = %v, want +Z", v.Normal)
		}
	}
}

func TestMeshCenter(t *testing.T) {
	p := CreatePlane(2, 2, 1, 1)
	for i := range p.Vertices {
		p.Vertices[i].Position = p.Vertices[i].Position.Add(mgl32.Vec3{3, -1, 4})
	}
	m := CreateMeshFromData("off", p.Vertices, p.Indices)
	m.Center()

	if c := m.LocalAABB.Center(); !nearVec3(c, mgl32.Vec3{}) {
		t.Errorf("centre = %v, want origin", c)
	}
	if got := m.Vertices[0].Position; !nearVec3(got, mgl32.Vec3{-1, 1, 0}) {
		t.Errorf("first vertex = %v, want (-1, 1, 0)", got)
	}
}

func TestCameraAspect(t *testing.T) {
	c := NewCamera(mgl32.DegToRad(75), 1, 0.001, 1000)
	c.UpdateAspectRatio(800, 600)
	if math.Abs(float64(c.AspectRatio-800.0/600.0)) > 1e-6 {
		t.Errorf("aspect = %v", c.AspectRatio)
	}
	want := mgl32.Perspective(mgl32.DegToRad(75), 800.0/600.0, 0.001, 1000)
	if !nearMat4(c.GetProjectionMatrix(), want) {
		t.Error("projection not rebuilt for the new aspect")
	}
}

func TestOrbitCamera(t *testing.T) {
	c := NewOrbitCamera(mgl32.Vec3{}, mgl32.Vec3{0, 0.2, 1.5}, 1, 1, 0.001, 1000)
	if !nearVec3(c.Position, mgl32.Vec3{0, 0.2, 1.5}) {
		t.Errorf("position = %v, want (0, 0.2, 1.5)", c.Position)
	}
	d := c.Distance
	c.Orbit(math.Pi/2, 0)
	if got := c.Position.Len(); math.Abs(float64(got-d)) > 1e-5 {
		t.Errorf("orbit changed distance: %v, want %v", got, d)
	}
	c.Zoom(1e-6)
	if c.Distance != c.MinDist {
		t.Errorf("distance = %v, want clamp to %v", c.Distance, c.MinDist)
	}
}

func TestReflectView(t *testing.T) {
	view := mgl32.LookAtV(mgl32.Vec3{0, 0.2, 1.5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(75), 1, 0.001, 1000)

	floor := NewNode("floor")
	floor.SetPosition(mgl32.Vec3{0, -0.71, 0})
	floor.RotateX(-math.Pi / 2)

	mv, ok := ReflectView(view, proj, floor.GetWorldMatrix(), 0.003)
	if !ok {
		t.Fatal("camera above the floor reported behind it")
	}
	eye := mv.View.Inv().Col(3).Vec3()
	if !nearVec3(eye, mgl32.Vec3{0, -1.62, 1.5}) {
		t.Errorf("virtual eye = %v, want (0, -1.62, 1.5)", eye)
	}
	wantPlane := mgl32.Vec4{0, 1, 0, 0.71 - 0.003}
	if !nearVec4(mv.ClipPlane, wantPlane) {
		t.Errorf("clip plane = %v, want %v", mv.ClipPlane, wantPlane)
	}

	below := mgl32.LookAtV(mgl32.Vec3{0, -2, 1.5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	if _, ok := ReflectView(below, proj, floor.GetWorldMatrix(), 0.003); ok {
		t.Error("camera below the floor should not reflect")
	}
}

func TestFrustumCulling(t *testing.T) {
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
	f := FrustumFromVP(proj.Mul4(view))
	mesh := CreatePlane(1, 1, 1, 1)

	tests := []struct {
		name string
		pos  mgl32.Vec3
		want bool
	}{
		{"centre", mgl32.Vec3{}, true},
		{"behind camera", mgl32.Vec3{0, 0, 10}, false},
		{"far left", mgl32.Vec3{-50, 0, 0}, false},
		{"beyond far plane", mgl32.Vec3{0, 0, -200}, false},
		{"partly inside", mgl32.Vec3{2.9, 0, 0}, true},
	}
	for _, tt := range tests {
		box := WorldAABB(mesh, mgl32.Translate3D(tt.pos.X(), tt.pos.Y(), tt.pos.Z()))
		if got := box.IntersectsFrustum(&f); got != tt.want {
			t.Errorf("%s: visible = %v, want %v", tt.name, got, tt.want)
		}
	}
}
