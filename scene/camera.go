package scene

import (
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/types"
)

type CameraDirection uint8

const (
	Forward CameraDirection = iota
	Backward
	Left
	Right
)

// The camera type controls the scene camera.
type Camera struct {
	Position types.Vec3
	LookAt   types.Vec3
	Up       types.Vec3
	Pitch    float32
	Yaw      float32

	// Camera FOV in degrees.
	FOV float32
}

func NewCamera(fov float32) *Camera {
	return &Camera{
		Position: types.Vec3{0, 0, 0},
		LookAt:   types.Vec3{0, 0, -1},
		Up:       types.Vec3{0, 1, 0},
		FOV:      fov,
	}
}

// Move the camera along its view or strafe axis.
func (c *Camera) Move(dir CameraDirection, speed float32) {
	view := c.LookAt.Sub(c.Position).Normalize()
	right := view.Cross(c.Up).Normalize()

	var offset types.Vec3
	switch dir {
	case Forward:
		offset = view.Mul(speed)
	case Backward:
		offset = view.Mul(-speed)
	case Left:
		offset = right.Mul(-speed)
	case Right:
		offset = right.Mul(speed)
	}

	c.Position = c.Position.Add(offset)
	c.LookAt = c.LookAt.Add(offset)
}

// Apply accumulated pitch/yaw to the view direction.
func (c *Camera) Update() {
	dir := c.LookAt.Sub(c.Position).Normalize()
	pitchAxis := dir.Cross(c.Up)
	pitchQuat := types.QuatFromAxisAngle(pitchAxis, c.Pitch)
	yawQuat := types.QuatFromAxisAngle(c.Up, c.Yaw)

	orientQuat := pitchQuat.Mul(yawQuat).Normalize()

	dir = orientQuat.Rotate(dir)
	c.LookAt = c.Position.Add(dir.Mul(1.0))
}
