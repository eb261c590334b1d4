package scene

import (
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"audioscene/core"
)

// Node represents an object in the scene graph. A node has at most one
// parent; AddChild detaches the child from its previous parent first.
type Node struct {
	Name      string
	Transform core.Transform
	Parent    *Node
	Children  []*Node
	Mesh      *Mesh
	Visible   bool
	Id        uint32

	// Cached world transform
	worldMatrixDirty bool
	worldMatrix      mgl32.Mat4
}

// glTF subtrees are built on loader goroutines, so ids are atomic.
var nodeIdCounter atomic.Uint32

func NewNode(name string) *Node {
	return &Node{
		Name:             name,
		Transform:        core.NewTransform(),
		Children:         make([]*Node, 0),
		Visible:          true,
		Id:               nodeIdCounter.Add(1),
		worldMatrixDirty: true,
	}
}

func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
	child.MarkWorldMatrixDirty()
}

func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			child.MarkWorldMatrixDirty()
			return
		}
	}
}

func (n *Node) GetWorldMatrix() mgl32.Mat4 {
	if n.worldMatrixDirty {
		localMatrix := n.Transform.GetMatrix()
		if n.Parent != nil {
			n.worldMatrix = n.Parent.GetWorldMatrix().Mul4(localMatrix)
		} else {
			n.worldMatrix = localMatrix
		}
		n.worldMatrixDirty = false
	}
	return n.worldMatrix
}

func (n *Node) MarkWorldMatrixDirty() {
	n.worldMatrixDirty = true
	for _, child := range n.Children {
		child.MarkWorldMatrixDirty()
	}
}

func (n *Node) SetPosition(pos mgl32.Vec3) {
	n.Transform.Position = pos
	n.MarkWorldMatrixDirty()
}

func (n *Node) SetRotation(rot mgl32.Quat) {
	n.Transform.Rotation = rot
	n.MarkWorldMatrixDirty()
}

func (n *Node) SetScale(scale mgl32.Vec3) {
	n.Transform.Scale = scale
	n.MarkWorldMatrixDirty()
}

// SetUniformScale sets the same scale factor on all three axes.
func (n *Node) SetUniformScale(k float32) {
	n.SetScale(mgl32.Vec3{k, k, k})
}

// RotateX applies an extra rotation of angle radians about the local X axis.
func (n *Node) RotateX(angle float32) {
	rotation := mgl32.QuatRotate(angle, mgl32.Vec3{1, 0, 0})
	n.Transform.Rotation = n.Transform.Rotation.Mul(rotation).Normalize()
	n.MarkWorldMatrixDirty()
}

// WorldPosition is the translation column of the world matrix.
func (n *Node) WorldPosition() mgl32.Vec3 {
	return n.GetWorldMatrix().Col(3).Vec3()
}

// Traverse visits all nodes in the graph, parents before children.
func (n *Node) Traverse(callback func(*Node)) {
	callback(n)
	for _, child := range n.Children {
		child.Traverse(callback)
	}
}

// Find finds a node by name
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}
