package sampler

import (
	"math"
	"math/rand"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/scene"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/types"
)

// PDF floor reported for a light that was evicted from a cell's retained set.
// A zero here would produce divide-by-zero weights in balance-heuristic MIS,
// so evicted lights keep a small fixed probability instead.
const evictedLightPDF = 1e-5

// Build parameters for a light grid.
type gridOptions struct {
	// Requested cell count along the scene's largest axis. Actual per-axis
	// counts are derived so cells stay near cubical.
	numCellsPerAxis int32

	// Retained lights per cell. Zero keeps every light, which switches the
	// table to unnormalized totals.
	lightsPerCell int32

	// Partition each cell into 8 direction bins keyed by normal sign bits.
	octahedral bool

	// Measure light distance from the cell centroid instead of the nearest
	// point on the cell bounds.
	centroidBuild bool

	// Weight floor for stochastic light rejection at build time. Zero
	// disables rejection.
	threshold float32
}

// LightGrid is the built acceleration structure: a uniform 3D grid over the
// scene bounds where every cell stores the indices of its highest-importance
// lights together with a prefix-sum table for inverse-CDF sampling.
//
// Layout per cell (entriesPerCell+1 slots in each array):
//
//	indices[0] = retained light count, indices[1..] = light indices
//	table[0]   = cell total weight,    table[1..]  = cumulative weights
//
// In normalized mode the cumulative weights end at 1.0 and sample PDFs are
// plain CDF deltas. In all-lights mode the raw running sums are stored and
// deltas are divided by the total at query time.
type LightGrid struct {
	numCells       [3]uint32
	cellSize       float32
	sceneMin       types.Vec3
	octahedral     bool
	normalized     bool
	entriesPerCell int

	indices []uint32
	table   []float32
}

// buildLightGrid runs the full grid construction over the given light list.
// Builds are never incremental; callers invoke this only when a rebuild
// trigger fired.
func buildLightGrid(lights []scene.Light, bounds types.Bounds, opts gridOptions, rng *rand.Rand) *LightGrid {
	extent := bounds.Extent()
	largest := extent.MaxComponent()
	if largest <= 0 {
		largest = 1
	}
	numAxis := opts.numCellsPerAxis
	if numAxis < 1 {
		numAxis = 1
	}
	cellScale := largest / float32(numAxis)

	g := &LightGrid{
		cellSize:   cellScale,
		sceneMin:   bounds.Min,
		octahedral: opts.octahedral,
		normalized: opts.lightsPerCell != 0,
	}
	for axis := 0; axis < 3; axis++ {
		n := uint32(math.Ceil(float64(extent[axis] / cellScale)))
		if n < 1 {
			n = 1
		}
		g.numCells[axis] = n
	}

	maxRetained := int(opts.lightsPerCell)
	if maxRetained == 0 || maxRetained > len(lights) {
		maxRetained = len(lights)
	}
	g.entriesPerCell = maxRetained

	cells := g.cellSlots()
	stride := g.entriesPerCell + 1
	g.indices = make([]uint32, cells*stride)
	g.table = make([]float32, cells*stride)

	if len(lights) == 0 {
		return g
	}

	retainedIdx := make([]uint32, 0, maxRetained)
	retainedW := make([]float32, 0, maxRetained)

	bins := 1
	if g.octahedral {
		bins = 8
	}

	for z := uint32(0); z < g.numCells[2]; z++ {
		for y := uint32(0); y < g.numCells[1]; y++ {
			for x := uint32(0); x < g.numCells[0]; x++ {
				cellBounds := g.cellBounds(x, y, z)
				for bin := 0; bin < bins; bin++ {
					retainedIdx = retainedIdx[:0]
					retainedW = retainedW[:0]

					for li := range lights {
						w := lightWeight(&lights[li], cellBounds, opts.centroidBuild, g.octahedral, bin)
						if w <= 0 {
							continue
						}
						// Stochastic rejection of faint lights. Each light
						// gets an independent Bernoulli trial so the set of
						// survivors dithers rather than pops.
						if opts.threshold > 0 && w < opts.threshold {
							if rng.Float32() >= w/opts.threshold {
								continue
							}
						}

						if len(retainedIdx) < maxRetained {
							retainedIdx = append(retainedIdx, uint32(li))
							retainedW = append(retainedW, w)
							continue
						}

						// Greedy top-K: evict the current minimum only when
						// strictly beaten. Ties keep the incumbent; among
						// equal minima the first in scan order is evicted.
						min := 0
						for i := 1; i < len(retainedW); i++ {
							if retainedW[i] < retainedW[min] {
								min = i
							}
						}
						if w > retainedW[min] {
							retainedIdx[min] = uint32(li)
							retainedW[min] = w
						}
					}

					g.writeCell(g.slotIndex(x, y, z, bin), retainedIdx, retainedW)
				}
			}
		}
	}

	return g
}

// writeCell converts the retained (light, weight) pairs into the cell's index
// list and cumulative table.
func (g *LightGrid) writeCell(slot int, idx []uint32, weights []float32) {
	stride := g.entriesPerCell + 1
	base := slot * stride

	var total float32
	for _, w := range weights {
		total += w
	}

	g.indices[base] = uint32(len(idx))
	g.table[base] = total
	if total <= 0 {
		return
	}

	var run float32
	for i := range idx {
		g.indices[base+1+i] = idx[i]
		run += weights[i]
		if g.normalized {
			g.table[base+1+i] = run / total
		} else {
			g.table[base+1+i] = run
		}
	}
	if g.normalized && len(idx) > 0 {
		// Guard the last entry against accumulation error so inverse
		// sampling can never run off the end.
		g.table[base+len(idx)] = 1
	}
}

// cellSlots returns the total number of per-cell slots including direction
// bins.
func (g *LightGrid) cellSlots() int {
	n := int(g.numCells[0]) * int(g.numCells[1]) * int(g.numCells[2])
	if g.octahedral {
		n *= 8
	}
	return n
}

func (g *LightGrid) cellBounds(x, y, z uint32) types.Bounds {
	min := types.Vec3{
		g.sceneMin[0] + float32(x)*g.cellSize,
		g.sceneMin[1] + float32(y)*g.cellSize,
		g.sceneMin[2] + float32(z)*g.cellSize,
	}
	return types.Bounds{
		Min: min,
		Max: types.Vec3{min[0] + g.cellSize, min[1] + g.cellSize, min[2] + g.cellSize},
	}
}

func (g *LightGrid) slotIndex(x, y, z uint32, bin int) int {
	linear := (int(z)*int(g.numCells[1])+int(y))*int(g.numCells[0]) + int(x)
	if g.octahedral {
		return linear*8 + bin
	}
	return linear
}

// octahedralBin maps a direction to one of 8 bins by its component sign bits.
func octahedralBin(n types.Vec3) int {
	bin := 0
	if n[0] < 0 {
		bin |= 1
	}
	if n[1] < 0 {
		bin |= 2
	}
	if n[2] < 0 {
		bin |= 4
	}
	return bin
}

// binDirection returns the unit vector at the center of an octahedral bin.
func binDirection(bin int) types.Vec3 {
	const inv = 0.57735027 // 1/sqrt(3)
	d := types.Vec3{inv, inv, inv}
	if bin&1 != 0 {
		d[0] = -inv
	}
	if bin&2 != 0 {
		d[1] = -inv
	}
	if bin&4 != 0 {
		d[2] = -inv
	}
	return d
}

// lookupCell resolves a shading point to a cell slot. The position is
// jittered by up to a quarter cell size on each axis to hide the hard cell
// boundaries, then clamped to the grid.
func (g *LightGrid) lookupCell(pos, normal types.Vec3, rng *rand.Rand) int {
	var cell [3]uint32
	for axis := 0; axis < 3; axis++ {
		p := pos[axis] + (rng.Float32()-0.5)*0.5*g.cellSize
		c := int32(math.Floor(float64((p - g.sceneMin[axis]) / g.cellSize)))
		if c < 0 {
			c = 0
		}
		if c >= int32(g.numCells[axis]) {
			c = int32(g.numCells[axis]) - 1
		}
		cell[axis] = uint32(c)
	}
	bin := 0
	if g.octahedral {
		bin = octahedralBin(normal)
	}
	return g.slotIndex(cell[0], cell[1], cell[2], bin)
}

// Sample draws a light index for the given shading point by inverse-CDF
// sampling the point's cell. A cell with nothing retained reports a zero PDF
// and a sentinel index.
func (g *LightGrid) Sample(pos, normal types.Vec3, rng *rand.Rand) SampleResult {
	return g.sampleSlot(g.lookupCell(pos, normal, rng), rng.Float32())
}

// sampleSlot inverse-samples one cell slot with the given uniform value.
func (g *LightGrid) sampleSlot(slot int, v float32) SampleResult {
	base := slot * (g.entriesPerCell + 1)
	count := int(g.indices[base])
	total := g.table[base]
	if count == 0 || total <= 0 {
		return SampleResult{LightIndex: InvalidLightIndex}
	}

	target := v
	if !g.normalized {
		target *= total
	}

	// First entry >= target, O(log K).
	cdf := g.table[base+1 : base+1+count]
	lo, hi := 0, count-1
	for lo < hi {
		mid := (lo + hi) / 2
		if cdf[mid] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	return SampleResult{
		LightIndex: g.indices[base+1+lo],
		PDF:        g.entryPDF(cdf, lo, total),
	}
}

// PDF returns the probability with which Sample would return the given light
// at the given shading point. Lights evicted from the cell's retained set
// report the epsilon floor rather than zero.
func (g *LightGrid) PDF(pos, normal types.Vec3, lightIndex uint32, rng *rand.Rand) float32 {
	return g.pdfSlot(g.lookupCell(pos, normal, rng), lightIndex)
}

// pdfSlot recovers the sampling probability of a known light within one cell
// slot.
func (g *LightGrid) pdfSlot(slot int, lightIndex uint32) float32 {
	base := slot * (g.entriesPerCell + 1)
	count := int(g.indices[base])
	total := g.table[base]
	if count == 0 || total <= 0 {
		return 0
	}
	for i := 0; i < count; i++ {
		if g.indices[base+1+i] == lightIndex {
			return g.entryPDF(g.table[base+1:base+1+count], i, total)
		}
	}
	return evictedLightPDF
}

func (g *LightGrid) entryPDF(cdf []float32, i int, total float32) float32 {
	delta := cdf[i]
	if i > 0 {
		delta -= cdf[i-1]
	}
	if g.normalized {
		return delta
	}
	return delta / total
}

// NumCells returns the per-axis cell counts.
func (g *LightGrid) NumCells() [3]uint32 {
	return g.numCells
}

// CellSize returns the cubical cell edge length.
func (g *LightGrid) CellSize() float32 {
	return g.cellSize
}

// EntriesPerCell returns the retained light cap used by this build.
func (g *LightGrid) EntriesPerCell() int {
	return g.entriesPerCell
}

// lightWeight is the volumetric importance proxy: a cheap power-over-distance
// estimate of the light's contribution to a cell's bounding box. It never
// traces rays or evaluates visibility.
func lightWeight(light *scene.Light, cell types.Bounds, centroid, octahedral bool, bin int) float32 {
	power := light.Power()
	if power <= 0 {
		return 0
	}

	// Lights at infinity illuminate every cell equally regardless of
	// distance or bin.
	if light.Type == scene.DirectionalLight || light.Type == scene.EnvironmentLight {
		return power
	}

	lightPos, ok := light.Centroid()
	if !ok {
		return power
	}

	var distSq float32
	if centroid {
		d := cell.Centroid().Sub(lightPos)
		distSq = d.Dot(d)
	} else {
		distSq = cell.DistanceSquared(lightPos)
	}
	w := power / (1 + distSq)

	if octahedral {
		toLight := lightPos.Sub(cell.Centroid())
		if l := toLight.Len(); l > 0 {
			facing := toLight.Mul(1 / l).Dot(binDirection(bin))
			if facing <= 0 {
				return 0
			}
			w *= facing
		}
	}

	return w
}
