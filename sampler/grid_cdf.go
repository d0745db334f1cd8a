package sampler

import (
	"fmt"
	"math/rand"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/framework"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/log"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/types"
)

// GridCDFName is the registry key of the grid CDF light sampler.
const GridCDFName = "light_sampler_grid_cdf"

// Option names exposed by the grid CDF sampler.
const (
	optGridNumCells      = "light_grid_num_cells"
	optGridLightsPerCell = "light_grid_lights_per_cell"
	optGridOctahedral    = "light_grid_octahedral_sampling"
	optGridCentroidBuild = "light_grid_centroid_build"
	optGridThreshold     = "light_grid_threshold"
)

// The grid build uses a fixed seed so that threshold rejection produces the
// same retained sets across runs of the same scene.
const gridBuildSeed = 0x9e3779b9

// GridCDF importance-samples lights through a uniform grid over the scene
// bounds where each cell retains its top weighted lights behind a sampling
// CDF. The full structure is rebuilt whenever the lights, the scene bounds
// or any build-affecting option changes; there is no incremental update.
type GridCDF struct {
	framework.BaseDeclarer

	logger  log.Logger
	rng     *rand.Rand
	builder *LightBuilder

	grid *LightGrid

	indexBuffer  gfx.Buffer
	tableBuffer  gfx.Buffer
	configBuffer gfx.Buffer

	// Option values the current build used, compared against the option
	// table every frame to detect sampling-affecting edits.
	numCells      int32
	lightsPerCell int32
	octahedral    bool
	centroid      bool
	threshold     float32

	firstBuild  bool
	recompile   bool
	dataUpdated bool
}

func NewGridCDF() *GridCDF {
	return &GridCDF{logger: log.New("sampler")}
}

func init() {
	Register(GridCDFName, func() LightSampler {
		return NewGridCDF()
	})
}

func (s *GridCDF) Name() string {
	return GridCDFName
}

func (s *GridCDF) Components() []string {
	return []string{LightBuilderName}
}

func (s *GridCDF) RenderOptions() map[string]framework.Option {
	return map[string]framework.Option{
		optGridNumCells:      framework.IntOption(16),
		optGridLightsPerCell: framework.IntOption(32),
		optGridOctahedral:    framework.BoolOption(false),
		optGridCentroidBuild: framework.BoolOption(true),
		optGridThreshold:     framework.FloatOption(0),
	}
}

func (s *GridCDF) Init(ctx *framework.Context) error {
	builder, ok := ctx.ComponentByName(LightBuilderName)
	if !ok {
		return fmt.Errorf("sampler: %s requires the %s component", GridCDFName, LightBuilderName)
	}
	s.builder = builder.(*LightBuilder)
	s.rng = rand.New(rand.NewSource(gridBuildSeed))
	s.firstBuild = true
	s.readOptions(ctx)
	return nil
}

func (s *GridCDF) readOptions(ctx *framework.Context) (settingsChanged, definesChanged bool) {
	opts := ctx.Options()
	numCells := opts.Int(optGridNumCells)
	lightsPerCell := opts.Int(optGridLightsPerCell)
	octahedral := opts.Bool(optGridOctahedral)
	centroid := opts.Bool(optGridCentroidBuild)
	threshold := opts.Float(optGridThreshold)

	settingsChanged = numCells != s.numCells ||
		lightsPerCell != s.lightsPerCell ||
		octahedral != s.octahedral ||
		centroid != s.centroid ||
		threshold != s.threshold
	definesChanged = octahedral != s.octahedral ||
		(lightsPerCell == 0) != (s.lightsPerCell == 0)

	s.numCells = numCells
	s.lightsPerCell = lightsPerCell
	s.octahedral = octahedral
	s.centroid = centroid
	s.threshold = threshold
	return settingsChanged, definesChanged
}

func (s *GridCDF) Run(ctx *framework.Context) error {
	settingsChanged, definesChanged := s.readOptions(ctx)
	s.recompile = definesChanged || s.builder.NeedsRecompile()

	flags := ctx.Scene().Flags()
	rebuild := s.firstBuild ||
		settingsChanged ||
		s.builder.LightsUpdated() ||
		flags.MeshesUpdated ||
		flags.TransformsUpdated ||
		flags.EnvironmentMapUpdated

	s.dataUpdated = rebuild
	if !rebuild {
		return nil
	}
	s.firstBuild = false

	s.grid = buildLightGrid(ctx.Scene().Lights(), ctx.Scene().Bounds(), gridOptions{
		numCellsPerAxis: s.numCells,
		lightsPerCell:   s.lightsPerCell,
		octahedral:      s.octahedral,
		centroidBuild:   s.centroid,
		threshold:       s.threshold,
	}, s.rng)

	return s.upload(ctx)
}

// upload pushes the built grid to the GPU buffers. Buffers are recreated
// only when the new build no longer fits, so steady-state rebuilds reuse the
// existing allocations.
func (s *GridCDF) upload(ctx *framework.Context) error {
	var err error
	if s.indexBuffer, err = s.growBuffer(ctx, s.indexBuffer, "light_sampler.grid_index",
		len(s.grid.indices)*4, 4); err != nil {
		return err
	}
	if s.tableBuffer, err = s.growBuffer(ctx, s.tableBuffer, "light_sampler.grid_table",
		len(s.grid.table)*4, 4); err != nil {
		return err
	}
	if s.configBuffer, err = s.growBuffer(ctx, s.configBuffer, "light_sampler.grid_config",
		len(s.configData())*4, 4); err != nil {
		return err
	}

	if len(s.grid.indices) > 0 {
		if err = s.indexBuffer.Write(s.grid.indices, 0); err != nil {
			return err
		}
		if err = s.tableBuffer.Write(s.grid.table, 0); err != nil {
			return err
		}
	}
	if err = s.configBuffer.Write(s.configData(), 0); err != nil {
		return err
	}

	n := s.grid.NumCells()
	s.logger.Debugf("rebuilt light grid %dx%dx%d (%d lights per cell, octahedral=%v)",
		n[0], n[1], n[2], s.grid.EntriesPerCell(), s.octahedral)
	return nil
}

func (s *GridCDF) growBuffer(ctx *framework.Context, buf gfx.Buffer, name string, size, stride int) (gfx.Buffer, error) {
	if size == 0 {
		size = stride
	}
	if buf != nil && buf.Size() >= size {
		return buf, nil
	}
	if buf != nil {
		buf.Release()
	}
	return ctx.Device().CreateBuffer(gfx.BufferDesc{Name: name, Size: size, Stride: stride})
}

// configData packs the grid lookup constants consumed by shading kernels.
func (s *GridCDF) configData() []float32 {
	n := s.grid.NumCells()
	min := s.grid.sceneMin
	return []float32{
		float32(n[0]), float32(n[1]), float32(n[2]), float32(s.grid.EntriesPerCell()),
		min[0], min[1], min[2], s.grid.CellSize(),
	}
}

func (s *GridCDF) Terminate() {
	for _, buf := range []gfx.Buffer{s.indexBuffer, s.tableBuffer, s.configBuffer} {
		if buf != nil {
			buf.Release()
		}
	}
	s.indexBuffer, s.tableBuffer, s.configBuffer = nil, nil, nil
	s.grid = nil
	s.builder = nil
}

func (s *GridCDF) NeedsRecompile(*framework.Context) bool {
	return s.recompile
}

func (s *GridCDF) LightSettingsUpdated(*framework.Context) bool {
	return s.dataUpdated
}

func (s *GridCDF) ShaderDefines(*framework.Context) []string {
	defines := append([]string(nil), s.builder.ShaderDefines()...)
	defines = append(defines, "LIGHT_SAMPLER_GRID_CDF")
	if s.octahedral {
		defines = append(defines, "LIGHT_SAMPLER_ENABLE_OCTAHEDRAL")
	}
	if s.lightsPerCell == 0 {
		defines = append(defines, "LIGHT_SAMPLER_HAS_ALL_LIGHTS")
	}
	return defines
}

func (s *GridCDF) Sample(pos, normal types.Vec3, rng *rand.Rand) SampleResult {
	if s.grid == nil {
		return SampleResult{LightIndex: InvalidLightIndex}
	}
	return s.grid.Sample(pos, normal, rng)
}

func (s *GridCDF) SamplePDF(pos, normal types.Vec3, lightIndex uint32, rng *rand.Rand) float32 {
	if s.grid == nil {
		return 0
	}
	return s.grid.PDF(pos, normal, lightIndex, rng)
}

// SamplingBuffers returns the packed light records followed by the grid
// index lists, the cumulative weight tables and the lookup constants.
func (s *GridCDF) SamplingBuffers(*framework.Context) []gfx.Buffer {
	return []gfx.Buffer{s.builder.LightBuffer(), s.indexBuffer, s.tableBuffer, s.configBuffer}
}
