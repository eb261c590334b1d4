package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"audioscene/core"
)

// Scene manages a collection of nodes and the active camera
type Scene struct {
	Root     *Node
	Camera   *Camera
	Lights   []*Light
	Ambient  core.Color
	SkyColor core.Color
}

// Light types
const (
	LightTypeDirectional = iota
	LightTypePoint
	LightTypeSpot
)

// Light represents a light source. SpotAngle is the cone half-angle in
// radians; a spot light points at Target.
type Light struct {
	Type      int
	Position  mgl32.Vec3
	Target    mgl32.Vec3
	Color     core.Color
	Intensity float32
	SpotAngle float32
}

// Direction is the unit vector from the light towards its target.
func (l *Light) Direction() mgl32.Vec3 {
	return l.Target.Sub(l.Position).Normalize()
}

func NewScene() *Scene {
	return &Scene{
		Root:     NewNode("Root"),
		Lights:   make([]*Light, 0),
		Ambient:  core.Color{R: 0.2, G: 0.2, B: 0.2, A: 1.0},
		SkyColor: core.ColorBlack,
	}
}

func (s *Scene) SetCamera(camera *Camera) {
	s.Camera = camera
}

func (s *Scene) AddNode(node *Node) {
	s.Root.AddChild(node)
}

func (s *Scene) AddLight(light *Light) {
	s.Lights = append(s.Lights, light)
}

// GetVisibleNodes returns all nodes with meshes that are visible. A hidden
// node hides its whole subtree.
func (s *Scene) GetVisibleNodes() []*Node {
	var visible []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.Visible {
			return
		}
		if n.Mesh != nil {
			visible = append(visible, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(s.Root)
	return visible
}
