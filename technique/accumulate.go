package technique

import (
	"fmt"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/framework"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/log"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/sampler"
)

// AccumulateName is the registry key of the accumulation technique.
const AccumulateName = "accumulate"

// ColorPrevTexture receives last frame's color at the start of every frame.
const ColorPrevTexture = "ColorPrev"

const optAccumulateEnabled = "accumulate_enabled"

const accumulateSource = "accumulate.cl"

// Accumulate blends each new frame into a running average of the color
// target, restarting whenever the camera or the scene moves. The previous
// frame's colors arrive through the framework's backup copy of the color
// texture.
type Accumulate struct {
	framework.BaseDeclarer

	logger  log.Logger
	kernel  gfx.Kernel
	sampler sampler.LightSampler

	// Number of frames blended since the last reset.
	frameCount uint32
}

func NewAccumulate() *Accumulate {
	return &Accumulate{logger: log.New("technique")}
}

func init() {
	framework.RegisterTechnique(AccumulateName, func() framework.Technique {
		return NewAccumulate()
	})
}

func (a *Accumulate) Name() string {
	return AccumulateName
}

func (a *Accumulate) Components() []string {
	return []string{sampler.SwitcherName}
}

func (a *Accumulate) RenderOptions() map[string]framework.Option {
	return map[string]framework.Option{
		optAccumulateEnabled: framework.BoolOption(true),
	}
}

func (a *Accumulate) SharedTextures() []framework.SharedTexture {
	return []framework.SharedTexture{
		{
			Name:       ColorTexture,
			Access:     framework.ReadWrite,
			Format:     gfx.FormatRGBA32F,
			Flags:      framework.FlagAccumulate,
			BackupName: ColorPrevTexture,
		},
	}
}

func (a *Accumulate) Init(ctx *framework.Context) error {
	comp, ok := ctx.ComponentByName(sampler.SwitcherName)
	if !ok {
		return fmt.Errorf("technique: %s requires the %s component", AccumulateName, sampler.SwitcherName)
	}
	a.sampler = comp.(sampler.LightSampler)

	kernel, err := ctx.Device().CompileKernel(accumulateSource, "accumulate", nil)
	if err != nil {
		return fmt.Errorf("technique: compiling %s: %v", accumulateSource, err)
	}
	a.kernel = kernel
	a.frameCount = 0
	return nil
}

func (a *Accumulate) Render(ctx *framework.Context) error {
	if !ctx.Options().Bool(optAccumulateEnabled) {
		a.frameCount = 0
		return nil
	}

	// Any scene motion or change to the light sampling data invalidates
	// the running average.
	flags := ctx.Scene().Flags()
	if flags.CameraUpdated || flags.MeshesUpdated || flags.TransformsUpdated || flags.LightsUpdated ||
		a.sampler.LightSettingsUpdated(ctx) {
		a.frameCount = 0
	}

	color, _ := ctx.SharedTexture(ColorTexture)
	prev, _ := ctx.SharedTexture(ColorPrevTexture)

	if err := a.kernel.SetArgs(color, prev, a.frameCount); err != nil {
		return err
	}
	width, height := ctx.RenderDimensions()
	if _, err := a.kernel.Dispatch(groups(width, 8), groups(height, 8), 1); err != nil {
		return err
	}
	a.frameCount++
	return nil
}

func (a *Accumulate) Terminate() {
	if a.kernel != nil {
		a.kernel.Release()
		a.kernel = nil
	}
	a.sampler = nil
	a.frameCount = 0
}

// FrameCount returns the number of frames in the current running average.
func (a *Accumulate) FrameCount() uint32 {
	return a.frameCount
}
