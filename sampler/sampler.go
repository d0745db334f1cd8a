// Package sampler implements the light importance sampling strategies used by
// the path tracing techniques. Samplers are framework components: they build
// their acceleration data during the component phase of the frame so that any
// technique rendering afterwards can consume it, either through the shared
// GPU buffers they publish or through the host-side query API.
package sampler

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/framework"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/types"
)

// InvalidLightIndex is the sentinel returned when a sample query hits a cell
// with no retained lights. Callers must check the PDF before using the index.
const InvalidLightIndex = ^uint32(0)

// The outcome of one light sample query.
type SampleResult struct {
	LightIndex uint32
	PDF        float32
}

// A LightSampler builds and owns light sampling acceleration data. Beyond the
// regular component lifecycle it reports when dependent shader code must be
// recompiled and answers host-side sample and PDF queries against the data
// built for the current frame.
type LightSampler interface {
	framework.Component

	// NeedsRecompile reports whether any define-affecting state changed this
	// frame. Consumers recreate their kernels when it returns true.
	NeedsRecompile(ctx *framework.Context) bool

	// ShaderDefines returns the preprocessor defines consumers must compile
	// their kernels with to match the sampler's current data layout.
	ShaderDefines(ctx *framework.Context) []string

	// LightSettingsUpdated reports whether the sampler's published data was
	// rebuilt this frame. Consumers that cache derived state rebind it when
	// this returns true.
	LightSettingsUpdated(ctx *framework.Context) bool

	// SamplingBuffers returns the GPU buffers holding the sampler's data,
	// in the order consuming kernels expect them as trailing arguments. The
	// sampler retains ownership; handles are refreshed every frame.
	SamplingBuffers(ctx *framework.Context) []gfx.Buffer

	// Sample draws a light for the given shading point using the caller's
	// random stream.
	Sample(pos, normal types.Vec3, rng *rand.Rand) SampleResult

	// SamplePDF returns the probability with which Sample would have
	// returned the given light for the same shading point. Needed when the
	// surface sampling strategy lands on a light by index.
	SamplePDF(pos, normal types.Vec3, lightIndex uint32, rng *rand.Rand) float32
}

var samplerCtors = make(map[string]func() LightSampler)

// Register adds a sampler constructor under the given name. Called from
// package init functions; duplicate names panic.
func Register(name string, ctor func() LightSampler) {
	if _, exists := samplerCtors[name]; exists {
		panic(fmt.Sprintf("sampler: %q registered twice", name))
	}
	samplerCtors[name] = ctor
}

// Make constructs a fresh instance of the named sampler.
func Make(name string) (LightSampler, error) {
	ctor, ok := samplerCtors[name]
	if !ok {
		return nil, fmt.Errorf("sampler: unknown light sampler %q", name)
	}
	return ctor(), nil
}

// Names enumerates the registered sampler names in sorted order.
func Names() []string {
	names := make([]string, 0, len(samplerCtors))
	for name := range samplerCtors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
