// Package renderer defines the built-in renderers: named, ordered pipelines
// of render techniques registered with the framework at startup.
package renderer

import (
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/framework"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/technique"
)

// GIName is the registry key of the default global illumination renderer.
const GIName = "gi"

// GI is the full pipeline: path tracing with grid CDF light sampling,
// temporal accumulation and tonemapped output.
type GI struct{}

func init() {
	framework.RegisterRenderer(GIName, func() framework.Renderer {
		return &GI{}
	})
}

func (*GI) SetupTechniques() ([]framework.Technique, error) {
	return makeTechniques(
		technique.PathTracerName,
		technique.AccumulateName,
		technique.TonemapName,
	)
}

func (*GI) RenderOptions() map[string]framework.Option {
	return map[string]framework.Option{
		"path_tracer_max_bounces": framework.IntOption(8),
	}
}

func makeTechniques(names ...string) ([]framework.Technique, error) {
	techniques := make([]framework.Technique, 0, len(names))
	for _, name := range names {
		t, err := framework.MakeTechnique(name)
		if err != nil {
			return nil, err
		}
		techniques = append(techniques, t)
	}
	return techniques, nil
}
