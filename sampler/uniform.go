package sampler

import (
	"fmt"
	"math/rand"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/framework"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/types"
)

// UniformName is the registry key of the uniform light sampler.
const UniformName = "light_sampler_uniform"

// Uniform picks every light with equal probability. It carries no
// acceleration data, making it the baseline the importance samplers are
// validated against.
type Uniform struct {
	framework.BaseDeclarer

	builder       *LightBuilder
	lightCount    int
	recompile     bool
	lightsUpdated bool
}

func NewUniform() *Uniform {
	return &Uniform{}
}

func init() {
	Register(UniformName, func() LightSampler {
		return NewUniform()
	})
}

func (s *Uniform) Name() string {
	return UniformName
}

func (s *Uniform) Components() []string {
	return []string{LightBuilderName}
}

func (s *Uniform) Init(ctx *framework.Context) error {
	builder, ok := ctx.ComponentByName(LightBuilderName)
	if !ok {
		return fmt.Errorf("sampler: %s requires the %s component", UniformName, LightBuilderName)
	}
	s.builder = builder.(*LightBuilder)
	return nil
}

func (s *Uniform) Run(ctx *framework.Context) error {
	s.lightCount = s.builder.LightCount()
	s.recompile = s.builder.NeedsRecompile()
	s.lightsUpdated = s.builder.LightsUpdated()
	return nil
}

func (s *Uniform) Terminate() {
	s.builder = nil
	s.lightCount = 0
}

func (s *Uniform) NeedsRecompile(*framework.Context) bool {
	return s.recompile
}

func (s *Uniform) LightSettingsUpdated(*framework.Context) bool {
	return s.lightsUpdated
}

// SamplingBuffers returns just the packed light records; uniform selection
// needs no acceleration data.
func (s *Uniform) SamplingBuffers(*framework.Context) []gfx.Buffer {
	return []gfx.Buffer{s.builder.LightBuffer()}
}

func (s *Uniform) ShaderDefines(*framework.Context) []string {
	defines := append([]string(nil), s.builder.ShaderDefines()...)
	return append(defines, "LIGHT_SAMPLER_UNIFORM")
}

func (s *Uniform) Sample(_, _ types.Vec3, rng *rand.Rand) SampleResult {
	if s.lightCount == 0 {
		return SampleResult{LightIndex: InvalidLightIndex}
	}
	return SampleResult{
		LightIndex: uint32(rng.Intn(s.lightCount)),
		PDF:        1 / float32(s.lightCount),
	}
}

func (s *Uniform) SamplePDF(_, _ types.Vec3, lightIndex uint32, _ *rand.Rand) float32 {
	if s.lightCount == 0 || lightIndex >= uint32(s.lightCount) {
		return 0
	}
	return 1 / float32(s.lightCount)
}
