package sampler

import (
	"math/rand"
	"testing"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/framework"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx/soft"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/scene"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/types"
)

type samplerHost struct {
	framework.BaseDeclarer
}

func (*samplerHost) Name() string                    { return "sampler.host" }
func (*samplerHost) Components() []string            { return []string{SwitcherName} }
func (*samplerHost) Init(*framework.Context) error   { return nil }
func (*samplerHost) Render(*framework.Context) error { return nil }
func (*samplerHost) Terminate()                      {}

func init() {
	framework.RegisterTechnique("sampler.host", func() framework.Technique {
		return &samplerHost{}
	})
	framework.RegisterRenderer("sampler.host", func() framework.Renderer {
		return &hostRenderer{}
	})
}

type hostRenderer struct{}

func (*hostRenderer) SetupTechniques() ([]framework.Technique, error) {
	tq, err := framework.MakeTechnique("sampler.host")
	if err != nil {
		return nil, err
	}
	return []framework.Technique{tq}, nil
}

func (*hostRenderer) RenderOptions() map[string]framework.Option {
	return nil
}

func newSamplerContext(t *testing.T) (*framework.Context, *Switcher) {
	t.Helper()
	sc := scene.New("sampler-test")
	sc.SetBounds(types.Bounds{Min: types.Vec3{0, 0, 0}, Max: types.Vec3{2, 2, 2}})
	sc.AddLight(scene.Light{
		Type:     scene.PointLight,
		Position: types.Vec3{1, 1, 1},
		Radiance: types.Vec3{5, 5, 5},
	})
	sc.AddLight(scene.Light{
		Type:     scene.PointLight,
		Position: types.Vec3{0.5, 1, 1},
		Radiance: types.Vec3{15, 15, 15},
	})

	ctx := framework.New(soft.NewDevice(), sc, 8, 8)
	if err := ctx.SetRenderer("sampler.host"); err != nil {
		t.Fatalf("SetRenderer failed: %v", err)
	}
	comp, ok := ctx.ComponentByName(SwitcherName)
	if !ok {
		t.Fatal("expected light sampler component to be resolved")
	}
	return ctx, comp.(*Switcher)
}

func TestSwitcherDefaultsToGridCDF(t *testing.T) {
	ctx, sw := newSamplerContext(t)
	defer ctx.Close()

	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if sw.currentName != GridCDFName {
		t.Fatalf("expected default delegate %q; got %q", GridCDFName, sw.currentName)
	}

	res := sw.Sample(types.Vec3{1, 1, 1}, types.Vec3{0, 1, 0}, rand.New(rand.NewSource(1)))
	if res.PDF <= 0 || res.LightIndex == InvalidLightIndex {
		t.Fatalf("expected a valid sample from the active delegate; got %+v", res)
	}
}

func TestSwitchRecompilesExactlyOnce(t *testing.T) {
	ctx, sw := newSamplerContext(t)
	defer ctx.Close()

	// First frame: the light builder publishes its defines for the first
	// time, which legitimately requests a compile.
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !sw.NeedsRecompile(ctx) {
		t.Fatal("expected a recompile request on the first frame")
	}

	// Steady state: no triggers, no recompiles.
	for i := 0; i < 3; i++ {
		if err := ctx.Render(); err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if sw.NeedsRecompile(ctx) {
			t.Fatalf("unexpected recompile request on steady-state frame %d", i)
		}
	}

	// Swap the delegate: exactly one recompile pulse, on the swap frame.
	if err := ctx.Options().SetString(OptSamplerType, UniformName); err != nil {
		t.Fatalf("setting sampler type: %v", err)
	}
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !sw.NeedsRecompile(ctx) {
		t.Fatal("expected a recompile request on the swap frame")
	}
	if sw.currentName != UniformName {
		t.Fatalf("expected delegate %q after swap; got %q", UniformName, sw.currentName)
	}

	for i := 0; i < 3; i++ {
		if err := ctx.Render(); err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if sw.NeedsRecompile(ctx) {
			t.Fatalf("unexpected recompile request %d frames after the swap", i+1)
		}
	}
}

func TestSwitcherPropagatesLightSettingsUpdated(t *testing.T) {
	ctx, sw := newSamplerContext(t)
	defer ctx.Close()

	// First frame builds the grid from scratch.
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !sw.LightSettingsUpdated(ctx) {
		t.Fatal("expected updated light settings on the first frame")
	}

	for i := 0; i < 3; i++ {
		if err := ctx.Render(); err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if sw.LightSettingsUpdated(ctx) {
			t.Fatalf("unexpected light settings update on steady-state frame %d", i)
		}
	}

	// A delegate swap always invalidates consumer-side sampler state.
	if err := ctx.Options().SetString(OptSamplerType, UniformName); err != nil {
		t.Fatalf("setting sampler type: %v", err)
	}
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !sw.LightSettingsUpdated(ctx) {
		t.Fatal("expected updated light settings on the swap frame")
	}
}

func TestSwitcherUniformPDF(t *testing.T) {
	ctx, sw := newSamplerContext(t)
	defer ctx.Close()

	if err := ctx.Options().SetString(OptSamplerType, UniformName); err != nil {
		t.Fatalf("setting sampler type: %v", err)
	}
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	pdf := sw.SamplePDF(types.Vec3{1, 1, 1}, types.Vec3{0, 1, 0}, 0, rand.New(rand.NewSource(1)))
	if pdf != 0.5 {
		t.Fatalf("expected uniform PDF 1/2 over two lights; got %v", pdf)
	}
}
