package types

import (
	"math"
	"testing"
)

func TestQuatRotate(t *testing.T) {
	quat := QuatFromAxisAngle(Vec3{0, 0, 1}, float32(math.Pi/2))
	got := quat.Rotate(Vec3{1, 0, 0})
	if !vec3ApproxEq(got, Vec3{0, 1, 0}) {
		t.Fatalf("expected a quarter turn about Z to map X to Y; got %v", got)
	}

	if got := QuatIdent().Rotate(Vec3{1, 2, 3}); !vec3ApproxEq(got, Vec3{1, 2, 3}) {
		t.Fatalf("identity rotation changed the vector: %v", got)
	}
}

func TestQuatMulComposesRotations(t *testing.T) {
	quarter := QuatFromAxisAngle(Vec3{0, 1, 0}, float32(math.Pi/2))
	half := QuatFromAxisAngle(Vec3{0, 1, 0}, float32(math.Pi))

	got := quarter.Mul(quarter).Rotate(Vec3{0, 0, -1})
	want := half.Rotate(Vec3{0, 0, -1})
	if !vec3ApproxEq(got, want) {
		t.Fatalf("two quarter turns differ from a half turn: %v vs %v", got, want)
	}
}

func TestQuatNormalize(t *testing.T) {
	quat := Quat{V: Vec3{3, 0, 0}, W: 4}.Normalize()
	if diff := quat.Len() - 1; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("expected a unit quaternion; got length %v", quat.Len())
	}
	if got := (Quat{}).Normalize(); got != QuatIdent() {
		t.Fatalf("expected the zero quaternion to normalize to identity; got %+v", got)
	}
}

func vec3ApproxEq(a, b Vec3) bool {
	const eps = 1e-6
	for i := 0; i < 3; i++ {
		diff := a[i] - b[i]
		if diff < 0 {
			diff = -diff
		}
		if diff > eps {
			return false
		}
	}
	return true
}
