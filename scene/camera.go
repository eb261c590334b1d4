package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective camera looking from Position towards Target.
// FOV is the vertical field of view in radians.
type Camera struct {
	Position    mgl32.Vec3
	Target      mgl32.Vec3
	Up          mgl32.Vec3
	FOV         float32
	AspectRatio float32
	NearPlane   float32
	FarPlane    float32

	// Cached matrices
	viewMatrix       mgl32.Mat4
	projectionMatrix mgl32.Mat4
	dirty            bool
}

func NewCamera(fov, aspectRatio, nearPlane, farPlane float32) *Camera {
	return &Camera{
		Target:      mgl32.Vec3{0, 0, 0},
		Up:          mgl32.Vec3{0, 1, 0},
		Position:    mgl32.Vec3{0, 0, 1},
		FOV:         fov,
		AspectRatio: aspectRatio,
		NearPlane:   nearPlane,
		FarPlane:    farPlane,
		dirty:       true,
	}
}

func (c *Camera) UpdateAspectRatio(width, height float32) {
	if height > 0 {
		c.AspectRatio = width / height
		c.dirty = true
	}
}

func (c *Camera) SetPosition(pos mgl32.Vec3) {
	c.Position = pos
	c.dirty = true
}

func (c *Camera) LookAt(target, up mgl32.Vec3) {
	c.Target = target
	c.Up = up
	c.dirty = true
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.viewMatrix
}

func (c *Camera) GetProjectionMatrix() mgl32.Mat4 {
	if c.dirty {
		c.updateMatrices()
	}
	return c.projectionMatrix
}

func (c *Camera) updateMatrices() {
	c.viewMatrix = mgl32.LookAtV(c.Position, c.Target, c.Up)
	c.projectionMatrix = mgl32.Perspective(c.FOV, c.AspectRatio, c.NearPlane, c.FarPlane)
	c.dirty = false
}

// OrbitCamera is a specialized camera for orbiting around a target
type OrbitCamera struct {
	Camera
	Distance float32
	Yaw      float32
	Pitch    float32
	MinDist  float32
	MaxDist  float32
}

// NewOrbitCamera places the camera at position, orbiting target.
func NewOrbitCamera(target, position mgl32.Vec3, fov, aspectRatio, near, far float32) *OrbitCamera {
	offset := position.Sub(target)
	dist := offset.Len()
	c := &OrbitCamera{
		Distance: dist,
		MinDist:  0.1,
		MaxDist:  far / 2,
	}
	if dist > 0 {
		c.Pitch = float32(math.Asin(float64(offset.Y() / dist)))
		c.Yaw = float32(math.Atan2(float64(offset.X()), float64(offset.Z())))
	}
	c.Camera = *NewCamera(fov, aspectRatio, near, far)
	c.Target = target
	c.UpdatePosition()
	return c
}

func (c *OrbitCamera) UpdatePosition() {
	// Clamp pitch
	if c.Pitch > 1.5 {
		c.Pitch = 1.5
	}
	if c.Pitch < -1.5 {
		c.Pitch = -1.5
	}

	cosPitch := float32(math.Cos(float64(c.Pitch)))
	sinPitch := float32(math.Sin(float64(c.Pitch)))
	cosYaw := float32(math.Cos(float64(c.Yaw)))
	sinYaw := float32(math.Sin(float64(c.Yaw)))

	offset := mgl32.Vec3{
		c.Distance * cosPitch * sinYaw,
		c.Distance * sinPitch,
		c.Distance * cosPitch * cosYaw,
	}

	c.SetPosition(c.Target.Add(offset))
}

func (c *OrbitCamera) Orbit(deltaYaw, deltaPitch float32) {
	c.Yaw += deltaYaw
	c.Pitch += deltaPitch
	c.UpdatePosition()
}

// Zoom scales the orbit distance; factor < 1 moves closer.
func (c *OrbitCamera) Zoom(factor float32) {
	c.Distance *= factor
	if c.Distance < c.MinDist {
		c.Distance = c.MinDist
	}
	if c.Distance > c.MaxDist {
		c.Distance = c.MaxDist
	}
	c.UpdatePosition()
}
