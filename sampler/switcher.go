package sampler

import (
	"math/rand"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/framework"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/log"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/types"
)

// SwitcherName is the framework component name techniques depend on to get
// light sampling. The switcher owns one instance of every registered sampler
// and forwards to whichever one the light_sampler_type option selects,
// swapping delegates between frames without tearing down the pipeline.
const SwitcherName = "light_sampler"

// The option holding the active sampler's registry name.
const OptSamplerType = "light_sampler_type"

type Switcher struct {
	logger log.Logger

	delegates   map[string]LightSampler
	current     LightSampler
	currentName string

	// True only on the frame a delegate swap happened, so consumers
	// recompile exactly once per switch.
	samplerChanged bool
}

func NewSwitcher() *Switcher {
	sw := &Switcher{
		logger:    log.New("sampler"),
		delegates: make(map[string]LightSampler),
	}
	for _, name := range Names() {
		delegate, err := Make(name)
		if err != nil {
			// Names() and Make() share the registry; this cannot happen.
			panic(err)
		}
		sw.delegates[name] = delegate
	}
	return sw
}

func init() {
	framework.RegisterComponent(SwitcherName, func() framework.Component {
		return NewSwitcher()
	})
}

func (sw *Switcher) Name() string {
	return SwitcherName
}

// RenderOptions merges the option sets of every registered sampler so that
// switching delegates at runtime never encounters an undeclared option.
func (sw *Switcher) RenderOptions() map[string]framework.Option {
	merged := map[string]framework.Option{
		OptSamplerType: framework.StringOption(GridCDFName),
	}
	for _, name := range Names() {
		for opt, value := range sw.delegates[name].RenderOptions() {
			merged[opt] = value
		}
	}
	return merged
}

// Components returns the union of every delegate's dependencies. All of them
// must exist up front because the active delegate can change mid-run.
func (sw *Switcher) Components() []string {
	var (
		seen  = make(map[string]bool)
		union []string
	)
	for _, name := range Names() {
		for _, dep := range sw.delegates[name].Components() {
			if !seen[dep] {
				seen[dep] = true
				union = append(union, dep)
			}
		}
	}
	return union
}

func (sw *Switcher) SharedBuffers() []framework.SharedBuffer {
	var union []framework.SharedBuffer
	for _, name := range Names() {
		union = append(union, sw.delegates[name].SharedBuffers()...)
	}
	return union
}

func (sw *Switcher) SharedTextures() []framework.SharedTexture {
	var union []framework.SharedTexture
	for _, name := range Names() {
		union = append(union, sw.delegates[name].SharedTextures()...)
	}
	return union
}

func (sw *Switcher) DebugViews() []string {
	var union []string
	for _, name := range Names() {
		union = append(union, sw.delegates[name].DebugViews()...)
	}
	return union
}

// Init activates only the selected delegate; the others stay constructed but
// dormant until a swap.
func (sw *Switcher) Init(ctx *framework.Context) error {
	return sw.activate(ctx, sw.selectedName(ctx))
}

func (sw *Switcher) selectedName(ctx *framework.Context) string {
	name := ctx.Options().String(OptSamplerType)
	if _, ok := sw.delegates[name]; !ok {
		if name != "" {
			sw.logger.Warningf("unknown light sampler %q, falling back to %q", name, GridCDFName)
		}
		name = GridCDFName
	}
	return name
}

// activate swaps the live delegate with terminate-then-init sequencing. A
// half-initialized delegate is never left installed.
func (sw *Switcher) activate(ctx *framework.Context, name string) error {
	if sw.current != nil {
		sw.current.Terminate()
		sw.current = nil
	}
	delegate := sw.delegates[name]
	if err := delegate.Init(ctx); err != nil {
		delegate.Terminate()
		return err
	}
	sw.current = delegate
	sw.currentName = name
	return nil
}

func (sw *Switcher) Run(ctx *framework.Context) error {
	sw.samplerChanged = false
	if name := sw.selectedName(ctx); name != sw.currentName || sw.current == nil {
		if err := sw.activate(ctx, name); err != nil {
			return err
		}
		sw.samplerChanged = true
		sw.logger.Noticef("switched light sampler to %q", name)
	}
	return sw.current.Run(ctx)
}

func (sw *Switcher) Terminate() {
	if sw.current != nil {
		sw.current.Terminate()
		sw.current = nil
	}
	sw.currentName = ""
}

// NeedsRecompile reports true on the frame of a delegate swap and whenever
// the active delegate itself asks for one.
func (sw *Switcher) NeedsRecompile(ctx *framework.Context) bool {
	return sw.samplerChanged || (sw.current != nil && sw.current.NeedsRecompile(ctx))
}

// LightSettingsUpdated is the OR of "a swap just happened" and the active
// delegate's own flag, so consumers rebind sampler data on switch frames.
func (sw *Switcher) LightSettingsUpdated(ctx *framework.Context) bool {
	return sw.samplerChanged || (sw.current != nil && sw.current.LightSettingsUpdated(ctx))
}

func (sw *Switcher) ShaderDefines(ctx *framework.Context) []string {
	if sw.current == nil {
		return nil
	}
	return sw.current.ShaderDefines(ctx)
}

func (sw *Switcher) SamplingBuffers(ctx *framework.Context) []gfx.Buffer {
	if sw.current == nil {
		return nil
	}
	return sw.current.SamplingBuffers(ctx)
}

func (sw *Switcher) Sample(pos, normal types.Vec3, rng *rand.Rand) SampleResult {
	if sw.current == nil {
		return SampleResult{LightIndex: InvalidLightIndex}
	}
	return sw.current.Sample(pos, normal, rng)
}

func (sw *Switcher) SamplePDF(pos, normal types.Vec3, lightIndex uint32, rng *rand.Rand) float32 {
	if sw.current == nil {
		return 0
	}
	return sw.current.SamplePDF(pos, normal, lightIndex, rng)
}
