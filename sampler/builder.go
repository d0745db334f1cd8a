package sampler

import (
	"fmt"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/framework"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/log"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/scene"
)

// LightBuilderName is the registry key of the light builder component.
const LightBuilderName = "light_builder"

// Number of float32 slots in one packed light record.
const lightRecordFloats = 24

// LightBuilder packs the scene's light list into a GPU buffer once per
// change and tracks which light categories are present so dependent kernels
// can compile out the dead code paths. Samplers depend on it and consume its
// packed buffer and change signals.
type LightBuilder struct {
	framework.BaseDeclarer

	logger log.Logger

	buffer     gfx.Buffer
	countStage gfx.Buffer
	areaRing   *gfx.ReadbackRing

	lightCount int
	deltaCount int
	areaCount  int
	envCount   int

	// Delayed readback of the GPU-visible area light count, lagging
	// backBufferCount frames behind the host value.
	gpuAreaCount uint32

	lightsUpdated bool
	recompile     bool
	defines       []string
}

func NewLightBuilder() *LightBuilder {
	return &LightBuilder{logger: log.New("sampler")}
}

func init() {
	framework.RegisterComponent(LightBuilderName, func() framework.Component {
		return NewLightBuilder()
	})
}

func (b *LightBuilder) Name() string {
	return LightBuilderName
}

func (b *LightBuilder) Init(ctx *framework.Context) error {
	stage, err := ctx.Device().CreateBuffer(gfx.BufferDesc{
		Name: "light_builder.area_count",
		Size: 4,
	})
	if err != nil {
		return err
	}
	b.countStage = stage

	ring, err := gfx.NewReadbackRing(ctx.Device(), "light_builder.area_count", 4, ctx.BackBufferCount())
	if err != nil {
		stage.Release()
		return err
	}
	b.areaRing = ring

	// Force a pack on the first frame regardless of scene flags.
	b.lightCount = -1
	return nil
}

func (b *LightBuilder) Run(ctx *framework.Context) error {
	lights := ctx.Scene().Lights()

	// Frame-scoped signals; pack() raises them again when warranted.
	b.recompile = false
	b.lightsUpdated = ctx.Scene().Flags().LightsUpdated || b.lightCount != len(lights)

	// Area light geometry lives in the mesh buffers, so transform and mesh
	// edits invalidate the packed records even when the light list itself is
	// unchanged.
	if b.areaCount > 0 && (ctx.Scene().Flags().MeshesUpdated || ctx.Scene().Flags().TransformsUpdated) {
		b.lightsUpdated = true
	}

	if b.lightsUpdated {
		if err := b.pack(ctx, lights); err != nil {
			return err
		}
	}

	// Pull the value staged backBufferCount frames ago, then stage this
	// frame's value. The read targets the slot the write is about to reuse,
	// so the order matters.
	frame := uint32(ctx.FrameIndex())
	var count [1]uint32
	if ok, err := b.areaRing.Read(frame, count[:]); err != nil {
		return err
	} else if ok {
		b.gpuAreaCount = count[0]
	}
	if err := b.countStage.Write([]uint32{uint32(b.areaCount)}, 0); err != nil {
		return err
	}
	return b.areaRing.Write(frame, b.countStage)
}

// pack rewrites the packed light records, growing the GPU buffer when the
// light list no longer fits. The buffer is never shrunk.
func (b *LightBuilder) pack(ctx *framework.Context, lights []scene.Light) error {
	var (
		delta, area, env int
		data             = make([]float32, len(lights)*lightRecordFloats)
	)
	for i := range lights {
		switch lights[i].Type {
		case scene.AreaLight:
			area++
		case scene.EnvironmentLight:
			env++
		default:
			delta++
		}
		packLight(&lights[i], data[i*lightRecordFloats:(i+1)*lightRecordFloats])
	}

	size := len(data) * 4
	if size == 0 {
		size = lightRecordFloats * 4
	}
	if b.buffer == nil || b.buffer.Size() < size {
		if b.buffer != nil {
			b.buffer.Release()
		}
		buf, err := ctx.Device().CreateBuffer(gfx.BufferDesc{
			Name:   "light_builder.lights",
			Size:   size,
			Stride: lightRecordFloats * 4,
		})
		if err != nil {
			return fmt.Errorf("sampler: allocating light buffer: %v", err)
		}
		b.buffer = buf
	}
	if len(data) > 0 {
		if err := b.buffer.Write(data, 0); err != nil {
			return err
		}
	}

	defines := lightDefines(delta, area, env)
	b.recompile = !equalDefines(defines, b.defines)
	b.defines = defines
	b.lightCount = len(lights)
	b.deltaCount, b.areaCount, b.envCount = delta, area, env

	b.logger.Debugf("packed %d lights (%d delta, %d area, %d environment)",
		len(lights), delta, area, env)
	return nil
}

func (b *LightBuilder) Terminate() {
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
	if b.countStage != nil {
		b.countStage.Release()
		b.countStage = nil
	}
	if b.areaRing != nil {
		b.areaRing.Release()
		b.areaRing = nil
	}
}

// LightBuffer returns the packed light records. The builder retains
// ownership; the handle is invalidated by the next repack that grows it.
func (b *LightBuilder) LightBuffer() gfx.Buffer {
	return b.buffer
}

// LightCount returns the number of packed lights.
func (b *LightBuilder) LightCount() int {
	if b.lightCount < 0 {
		return 0
	}
	return b.lightCount
}

// LightsUpdated reports whether the packed records changed this frame.
func (b *LightBuilder) LightsUpdated() bool {
	return b.lightsUpdated
}

// NeedsRecompile reports whether the shader defines changed this frame.
func (b *LightBuilder) NeedsRecompile() bool {
	return b.recompile
}

// ShaderDefines returns the light category defines for dependent kernels.
func (b *LightBuilder) ShaderDefines() []string {
	return b.defines
}

// AreaLightCount returns the delayed GPU-visible area light count.
func (b *LightBuilder) AreaLightCount() uint32 {
	return b.gpuAreaCount
}

func lightDefines(delta, area, env int) []string {
	var defines []string
	if delta == 0 {
		defines = append(defines, "DISABLE_DELTA_LIGHTS")
	}
	if area == 0 {
		defines = append(defines, "DISABLE_AREA_LIGHTS")
	}
	if env == 0 {
		defines = append(defines, "DISABLE_ENVIRONMENT_LIGHTS")
	}
	return defines
}

func equalDefines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func packLight(light *scene.Light, out []float32) {
	out[0] = float32(light.Type)
	copy(out[1:4], light.Position[:])
	copy(out[4:7], light.Direction[:])
	copy(out[7:10], light.Radiance[:])
	out[10] = light.Range
	out[11] = light.InnerConeAngle
	out[12] = light.OuterConeAngle
	copy(out[13:16], light.V0[:])
	copy(out[16:19], light.V1[:])
	copy(out[19:22], light.V2[:])
}
