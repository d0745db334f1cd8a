package scene

import (
	"math"
	"testing"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/types"
)

func TestCameraMove(t *testing.T) {
	cam := NewCamera(45)
	cam.Move(Forward, 2)
	if cam.Position != (types.Vec3{0, 0, -2}) {
		t.Fatalf("expected forward move along the view axis; got %v", cam.Position)
	}
	if cam.LookAt != (types.Vec3{0, 0, -3}) {
		t.Fatalf("expected the look-at point to track the move; got %v", cam.LookAt)
	}

	cam.Move(Right, 1)
	if cam.Position != (types.Vec3{1, 0, -2}) {
		t.Fatalf("expected a strafe along the right axis; got %v", cam.Position)
	}
}

func TestCameraUpdateAppliesYaw(t *testing.T) {
	cam := NewCamera(45)
	cam.Yaw = float32(math.Pi / 2)
	cam.Update()

	dir := cam.LookAt.Sub(cam.Position)
	const eps = 1e-5
	if diff := dir[0] + 1; diff > eps || diff < -eps {
		t.Fatalf("expected a quarter yaw to swing the view toward -X; got %v", dir)
	}
	if dir[1] > eps || dir[1] < -eps || dir[2] > eps || dir[2] < -eps {
		t.Fatalf("expected yaw to stay in the horizontal plane; got %v", dir)
	}
}
