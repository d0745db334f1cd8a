package types

import "math"

// An axis-aligned bounding box.
type Bounds struct {
	Min Vec3
	Max Vec3
}

// Create an empty bounds suitable for accumulating points via Include.
func EmptyBounds() Bounds {
	return Bounds{
		Min: Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// Grow the bounds to include a point.
func (b Bounds) Include(p Vec3) Bounds {
	return Bounds{
		Min: MinVec3(b.Min, p),
		Max: MaxVec3(b.Max, p),
	}
}

// Merge two bounds.
func (b Bounds) Union(b2 Bounds) Bounds {
	return Bounds{
		Min: MinVec3(b.Min, b2.Min),
		Max: MaxVec3(b.Max, b2.Max),
	}
}

// Get bounds dimensions.
func (b Bounds) Extent() Vec3 {
	return b.Max.Sub(b.Min)
}

// Get bounds center point.
func (b Bounds) Centroid() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// True if the bounds contain no volume.
func (b Bounds) Empty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// True if point p lies inside the bounds (inclusive).
func (b Bounds) Contains(p Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// Squared distance from point p to the closest point on the bounds.
// Returns 0 for points inside the bounds.
func (b Bounds) DistanceSquared(p Vec3) float32 {
	var d float32
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			v := b.Min[i] - p[i]
			d += v * v
		} else if p[i] > b.Max[i] {
			v := p[i] - b.Max[i]
			d += v * v
		}
	}
	return d
}
