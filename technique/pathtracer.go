package technique

import (
	"fmt"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/framework"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/log"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/sampler"
)

// PathTracerName is the registry key of the path tracing technique.
const PathTracerName = "path_tracer"

// Shared resource names produced by the path tracer.
const (
	ColorTexture = "Color"
	DepthTexture = "Depth"
)

const (
	optMaxBounces      = "path_tracer_max_bounces"
	optSamplesPerPixel = "path_tracer_samples_per_pixel"
	optMIS             = "path_tracer_mis"
)

const pathTracerSource = "path_tracer.cl"

// Debug view rendering the depth target instead of the lit color output.
const debugViewDepth = "depth"

// PathTracer traces camera paths and resolves direct lighting through the
// active light sampler. Its kernel is compiled against the sampler's shader
// defines and recreated whenever the sampler requests a recompile.
type PathTracer struct {
	framework.BaseDeclarer

	logger  log.Logger
	sampler sampler.LightSampler
	kernel  gfx.Kernel
}

func NewPathTracer() *PathTracer {
	return &PathTracer{logger: log.New("technique")}
}

func init() {
	framework.RegisterTechnique(PathTracerName, func() framework.Technique {
		return NewPathTracer()
	})
}

func (pt *PathTracer) Name() string {
	return PathTracerName
}

func (pt *PathTracer) Components() []string {
	return []string{sampler.SwitcherName}
}

func (pt *PathTracer) RenderOptions() map[string]framework.Option {
	return map[string]framework.Option{
		optMaxBounces:      framework.IntOption(4),
		optSamplesPerPixel: framework.IntOption(1),
		optMIS:             framework.BoolOption(true),
	}
}

func (pt *PathTracer) SharedTextures() []framework.SharedTexture {
	return []framework.SharedTexture{
		{Name: ColorTexture, Access: framework.Write, Format: gfx.FormatRGBA32F},
		{Name: DepthTexture, Access: framework.Write, Format: gfx.FormatD32F, Flags: framework.FlagClear},
	}
}

func (pt *PathTracer) DebugViews() []string {
	return []string{debugViewDepth}
}

func (pt *PathTracer) Init(ctx *framework.Context) error {
	comp, ok := ctx.ComponentByName(sampler.SwitcherName)
	if !ok {
		return fmt.Errorf("technique: %s requires the %s component", PathTracerName, sampler.SwitcherName)
	}
	pt.sampler = comp.(sampler.LightSampler)
	return pt.compile(ctx)
}

func (pt *PathTracer) compile(ctx *framework.Context) error {
	if pt.kernel != nil {
		pt.kernel.Release()
		pt.kernel = nil
	}
	kernel, err := ctx.Device().CompileKernel(pathTracerSource, "tracePaths", pt.sampler.ShaderDefines(ctx))
	if err != nil {
		return fmt.Errorf("technique: compiling %s: %v", pathTracerSource, err)
	}
	pt.kernel = kernel
	return nil
}

func (pt *PathTracer) Render(ctx *framework.Context) error {
	if pt.sampler.NeedsRecompile(ctx) {
		pt.logger.Debugf("light sampler defines changed, recompiling %s", pathTracerSource)
		if err := pt.compile(ctx); err != nil {
			return err
		}
	}

	color, _ := ctx.SharedTexture(ColorTexture)
	depth, _ := ctx.SharedTexture(DepthTexture)

	opts := ctx.Options()
	args := []interface{}{
		color,
		depth,
		uint32(ctx.FrameIndex()),
		opts.Int(optMaxBounces),
		opts.Int(optSamplesPerPixel),
		boolArg(opts.Bool(optMIS)),
		boolArg(ctx.DebugView() == debugViewDepth),
	}
	// The sampler's buffer handles can change on any rebuild, so they are
	// rebound every frame.
	for _, buf := range pt.sampler.SamplingBuffers(ctx) {
		args = append(args, buf)
	}
	if err := pt.kernel.SetArgs(args...); err != nil {
		return err
	}

	width, height := ctx.RenderDimensions()
	elapsed, err := pt.kernel.Dispatch(groups(width, 8), groups(height, 8), 1)
	if err != nil {
		return err
	}
	pt.logger.Debugf("traced frame %d in %s", ctx.FrameIndex(), elapsed)
	return nil
}

func (pt *PathTracer) Terminate() {
	if pt.kernel != nil {
		pt.kernel.Release()
		pt.kernel = nil
	}
	pt.sampler = nil
}

// groups rounds a dimension up to whole workgroups.
func groups(size, local uint32) uint32 {
	return (size + local - 1) / local
}

func boolArg(v bool) int32 {
	if v {
		return 1
	}
	return 0
}
