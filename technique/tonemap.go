package technique

import (
	"fmt"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/framework"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/log"
)

// TonemapName is the registry key of the tonemapping technique.
const TonemapName = "tonemap"

// OutputTexture is the display-ready 8-bit target the tonemapper produces.
const OutputTexture = "Output"

// BloomTexture is an optional input: when no technique in the active
// pipeline produces it, the tonemapper composites without bloom.
const BloomTexture = "Bloom"

const (
	optTonemapEnabled  = "tonemap_enabled"
	optTonemapExposure = "tonemap_exposure"
)

const tonemapSource = "tonemap.cl"

// Tonemap maps the HDR color target to the displayable output texture.
type Tonemap struct {
	framework.BaseDeclarer

	logger log.Logger
	kernel gfx.Kernel

	// Whether the current kernel was compiled with bloom compositing.
	bloom bool
}

func NewTonemap() *Tonemap {
	return &Tonemap{logger: log.New("technique")}
}

func init() {
	framework.RegisterTechnique(TonemapName, func() framework.Technique {
		return NewTonemap()
	})
}

func (tm *Tonemap) Name() string {
	return TonemapName
}

func (tm *Tonemap) RenderOptions() map[string]framework.Option {
	return map[string]framework.Option{
		optTonemapEnabled:  framework.BoolOption(true),
		optTonemapExposure: framework.FloatOption(1),
	}
}

func (tm *Tonemap) SharedTextures() []framework.SharedTexture {
	return []framework.SharedTexture{
		{Name: ColorTexture, Access: framework.Read, Format: gfx.FormatRGBA32F},
		{Name: OutputTexture, Access: framework.Write, Format: gfx.FormatRGBA8},
		{Name: BloomTexture, Access: framework.Read, Format: gfx.FormatRGBA16F, Flags: framework.FlagOptional},
	}
}

func (tm *Tonemap) Init(ctx *framework.Context) error {
	tm.bloom = ctx.HasSharedTexture(BloomTexture)

	var defines []string
	if tm.bloom {
		defines = append(defines, "TONEMAP_ENABLE_BLOOM")
	}
	kernel, err := ctx.Device().CompileKernel(tonemapSource, "tonemap", defines)
	if err != nil {
		return fmt.Errorf("technique: compiling %s: %v", tonemapSource, err)
	}
	tm.kernel = kernel
	return nil
}

func (tm *Tonemap) Render(ctx *framework.Context) error {
	if !ctx.Options().Bool(optTonemapEnabled) {
		return nil
	}

	color, _ := ctx.SharedTexture(ColorTexture)
	output, _ := ctx.SharedTexture(OutputTexture)

	args := []interface{}{color, output, ctx.Options().Float(optTonemapExposure)}
	if tm.bloom {
		bloom, _ := ctx.SharedTexture(BloomTexture)
		args = append(args, bloom)
	}
	if err := tm.kernel.SetArgs(args...); err != nil {
		return err
	}

	width, height := ctx.RenderDimensions()
	_, err := tm.kernel.Dispatch(groups(width, 8), groups(height, 8), 1)
	return err
}

func (tm *Tonemap) Terminate() {
	if tm.kernel != nil {
		tm.kernel.Release()
		tm.kernel = nil
	}
}
