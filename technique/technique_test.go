package technique

import (
	"testing"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/framework"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx/soft"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/sampler"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/scene"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/types"
)

// A local pipeline renderer so the tests do not depend on the top-level
// renderer definitions.
type pipelineRenderer struct{}

func (*pipelineRenderer) SetupTechniques() ([]framework.Technique, error) {
	var techniques []framework.Technique
	for _, name := range []string{PathTracerName, AccumulateName, TonemapName} {
		t, err := framework.MakeTechnique(name)
		if err != nil {
			return nil, err
		}
		techniques = append(techniques, t)
	}
	return techniques, nil
}

func (*pipelineRenderer) RenderOptions() map[string]framework.Option {
	return nil
}

func init() {
	framework.RegisterRenderer("technique.pipeline", func() framework.Renderer {
		return &pipelineRenderer{}
	})
}

func newPipeline(t *testing.T) (*framework.Context, *soft.Device) {
	t.Helper()
	sc := scene.New("technique-test")
	sc.SetBounds(types.Bounds{Min: types.Vec3{0, 0, 0}, Max: types.Vec3{4, 4, 4}})
	sc.AddLight(scene.Light{
		Type:     scene.PointLight,
		Position: types.Vec3{2, 3, 2},
		Radiance: types.Vec3{20, 20, 20},
	})

	device := soft.NewDevice()
	ctx := framework.New(device, sc, 64, 48)
	if err := ctx.SetRenderer("technique.pipeline"); err != nil {
		t.Fatalf("SetRenderer failed: %v", err)
	}
	return ctx, device
}

func TestPipelineDispatchOrder(t *testing.T) {
	ctx, device := newPipeline(t)
	defer ctx.Close()

	device.Reset()
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	records := device.Dispatches()
	if len(records) != 3 {
		t.Fatalf("expected 3 dispatches per frame; got %d", len(records))
	}
	for i, entry := range []string{"tracePaths", "accumulate", "tonemap"} {
		if records[i].Entry != entry {
			t.Fatalf("dispatch %d: expected entry %q; got %q", i, entry, records[i].Entry)
		}
	}

	// 64x48 at 8x8 workgroups.
	if records[0].Groups != [3]uint32{8, 6, 1} {
		t.Fatalf("unexpected trace dispatch size %v", records[0].Groups)
	}
	if !hasDefine(records[0].Defines, "LIGHT_SAMPLER_GRID_CDF") {
		t.Fatalf("expected trace kernel compiled against the grid sampler; defines %v", records[0].Defines)
	}
}

func TestSamplerSwitchRecompilesTraceKernel(t *testing.T) {
	ctx, device := newPipeline(t)
	defer ctx.Close()

	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if err := ctx.Options().SetString(sampler.OptSamplerType, sampler.UniformName); err != nil {
		t.Fatalf("setting sampler type: %v", err)
	}

	device.Reset()
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	records := device.Dispatches()
	if !hasDefine(records[0].Defines, "LIGHT_SAMPLER_UNIFORM") {
		t.Fatalf("expected trace kernel recompiled for the uniform sampler; defines %v", records[0].Defines)
	}
}

func TestAccumulationResetsOnCameraMove(t *testing.T) {
	ctx, _ := newPipeline(t)
	defer ctx.Close()

	for i := 0; i < 4; i++ {
		if err := ctx.Render(); err != nil {
			t.Fatalf("Render failed: %v", err)
		}
	}

	accumulate := findAccumulate(t, ctx)
	if accumulate.FrameCount() != 4 {
		t.Fatalf("expected 4 accumulated frames; got %d", accumulate.FrameCount())
	}

	ctx.Scene().MarkCameraUpdated()
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if accumulate.FrameCount() != 1 {
		t.Fatalf("expected accumulation restart after camera move; got %d", accumulate.FrameCount())
	}
}

func TestTonemapDisabledSkipsDispatch(t *testing.T) {
	ctx, device := newPipeline(t)
	defer ctx.Close()

	if err := ctx.Options().SetBool("tonemap_enabled", false); err != nil {
		t.Fatalf("disabling tonemap: %v", err)
	}
	device.Reset()
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := len(device.Dispatches()); got != 2 {
		t.Fatalf("expected tonemap to skip its dispatch; got %d dispatches", got)
	}
}

func TestOptionalBloomInputAbsent(t *testing.T) {
	ctx, _ := newPipeline(t)
	defer ctx.Close()

	if ctx.HasSharedTexture(BloomTexture) {
		t.Fatal("no technique produces bloom, so the optional input must not be allocated")
	}
	if !ctx.HasSharedTexture(OutputTexture) {
		t.Fatal("expected the tonemap output target to be allocated")
	}
	if !ctx.HasSharedTexture(ColorPrevTexture) {
		t.Fatal("expected the color history backup target to be allocated")
	}
}

func TestMISWeights(t *testing.T) {
	cases := []struct {
		nf      int
		fPdf    float32
		ng      int
		gPdf    float32
		balance float32
		power   float32
	}{
		{1, 0.5, 1, 0.5, 0.5, 0.5},
		{1, 1.0, 1, 0.0, 1.0, 1.0},
		{1, 0.0, 1, 0.0, 0.0, 0.0},
		{1, 0.25, 1, 0.75, 0.25, 0.1},
		{2, 0.5, 1, 1.0, 0.5, 0.5},
	}
	for _, tc := range cases {
		if got := BalanceHeuristic(tc.nf, tc.fPdf, tc.ng, tc.gPdf); !approxEq(got, tc.balance) {
			t.Errorf("BalanceHeuristic(%d, %v, %d, %v) = %v; want %v",
				tc.nf, tc.fPdf, tc.ng, tc.gPdf, got, tc.balance)
		}
		if got := PowerHeuristic(tc.nf, tc.fPdf, tc.ng, tc.gPdf); !approxEq(got, tc.power) {
			t.Errorf("PowerHeuristic(%d, %v, %d, %v) = %v; want %v",
				tc.nf, tc.fPdf, tc.ng, tc.gPdf, got, tc.power)
		}
	}
}

func hasDefine(defines []string, want string) bool {
	for _, d := range defines {
		if d == want {
			return true
		}
	}
	return false
}

func approxEq(a, b float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-6
}

func findAccumulate(t *testing.T, ctx *framework.Context) *Accumulate {
	t.Helper()
	tq, ok := ctx.TechniqueByName(AccumulateName)
	if !ok {
		t.Fatal("accumulate technique not active")
	}
	return tq.(*Accumulate)
}

func TestTraceKernelBindsSamplerBuffers(t *testing.T) {
	ctx, device := newPipeline(t)
	defer ctx.Close()

	device.Reset()
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	names := traceBoundBuffers(t, device)
	for _, want := range []string{
		"light_builder.lights",
		"light_sampler.grid_index",
		"light_sampler.grid_table",
		"light_sampler.grid_config",
	} {
		if !hasName(names, want) {
			t.Fatalf("expected trace kernel bound to %q; bound buffers %v", want, names)
		}
	}

	if err := ctx.Options().SetString(sampler.OptSamplerType, sampler.UniformName); err != nil {
		t.Fatalf("setting sampler type: %v", err)
	}
	device.Reset()
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	names = traceBoundBuffers(t, device)
	if !hasName(names, "light_builder.lights") {
		t.Fatalf("expected the uniform sampler to bind the light records; bound buffers %v", names)
	}
	for _, name := range []string{"light_sampler.grid_index", "light_sampler.grid_table", "light_sampler.grid_config"} {
		if hasName(names, name) {
			t.Fatalf("uniform sampler must not bind %q; bound buffers %v", name, names)
		}
	}
}

func TestDepthDebugViewTogglesTraceArgument(t *testing.T) {
	ctx, device := newPipeline(t)
	defer ctx.Close()

	if err := ctx.SetDebugView("depth"); err != nil {
		t.Fatalf("SetDebugView failed: %v", err)
	}
	device.Reset()
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if arg := findTraceDispatch(t, device).Args[6]; arg != int32(1) {
		t.Fatalf("expected the depth view flag raised; got %v", arg)
	}

	if err := ctx.SetDebugView(""); err != nil {
		t.Fatalf("SetDebugView failed: %v", err)
	}
	device.Reset()
	if err := ctx.Render(); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if arg := findTraceDispatch(t, device).Args[6]; arg != int32(0) {
		t.Fatalf("expected the depth view flag cleared; got %v", arg)
	}
}

func findTraceDispatch(t *testing.T, device *soft.Device) soft.DispatchRecord {
	t.Helper()
	for _, rec := range device.Dispatches() {
		if rec.Entry == "tracePaths" {
			return rec
		}
	}
	t.Fatal("no trace dispatch recorded")
	return soft.DispatchRecord{}
}

func traceBoundBuffers(t *testing.T, device *soft.Device) []string {
	t.Helper()
	var names []string
	for _, arg := range findTraceDispatch(t, device).Args {
		if buf, ok := arg.(gfx.Buffer); ok {
			names = append(names, buf.Name())
		}
	}
	return names
}

func hasName(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
