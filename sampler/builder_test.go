package sampler

import (
	"testing"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/framework"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx/soft"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/scene"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/types"
)

func TestAreaLightCountReadbackDelay(t *testing.T) {
	sc := scene.New("builder-test")
	sc.SetBounds(types.Bounds{Min: types.Vec3{0, 0, 0}, Max: types.Vec3{2, 2, 2}})
	sc.AddLight(scene.Light{
		Type:     scene.PointLight,
		Position: types.Vec3{1, 1, 1},
		Radiance: types.Vec3{5, 5, 5},
	})
	sc.AddLight(scene.Light{
		Type:     scene.AreaLight,
		V0:       types.Vec3{0, 2, 0},
		V1:       types.Vec3{1, 2, 0},
		V2:       types.Vec3{0, 2, 1},
		Radiance: types.Vec3{10, 10, 10},
	})

	ctx := framework.New(soft.NewDevice(), sc, 8, 8)
	if err := ctx.SetRenderer("sampler.host"); err != nil {
		t.Fatalf("SetRenderer failed: %v", err)
	}
	defer ctx.Close()

	comp, ok := ctx.ComponentByName(LightBuilderName)
	if !ok {
		t.Fatal("expected the light builder component to be resolved")
	}
	builder := comp.(*LightBuilder)

	// The GPU-visible count lags by the back-buffer count.
	for i := 0; i < framework.DefaultBackBufferCount; i++ {
		if err := ctx.Render(); err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if got := builder.AreaLightCount(); got != 0 {
			t.Fatalf("frame %d: expected the readback to lag; got count %d", i, got)
		}
	}
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := builder.AreaLightCount(); got != 1 {
		t.Fatalf("expected the delayed count to surface one area light; got %d", got)
	}
}
