package renderer

import (
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/framework"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/sampler"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/technique"
)

// ReferenceName is the registry key of the unbiased reference renderer.
const ReferenceName = "reference"

// Reference drops all importance sampling shortcuts: uniform light
// selection, deep paths and no tonemapping, for generating ground-truth
// images the other renderers are compared against.
type Reference struct{}

func init() {
	framework.RegisterRenderer(ReferenceName, func() framework.Renderer {
		return &Reference{}
	})
}

func (*Reference) SetupTechniques() ([]framework.Technique, error) {
	return makeTechniques(
		technique.PathTracerName,
		technique.AccumulateName,
	)
}

func (*Reference) RenderOptions() map[string]framework.Option {
	return map[string]framework.Option{
		sampler.OptSamplerType:          framework.StringOption(sampler.UniformName),
		"path_tracer_max_bounces":       framework.IntOption(16),
		"path_tracer_samples_per_pixel": framework.IntOption(4),
	}
}
