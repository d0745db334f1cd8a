package scene

import (
	"math"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/types"
)

type LightType uint8

const (
	PointLight LightType = iota
	SpotLight
	DirectionalLight
	AreaLight
	EnvironmentLight
)

func (lt LightType) String() string {
	switch lt {
	case PointLight:
		return "point"
	case SpotLight:
		return "spot"
	case DirectionalLight:
		return "directional"
	case AreaLight:
		return "area"
	case EnvironmentLight:
		return "environment"
	}
	return "unknown"
}

// A single light source. The meaning of the geometric fields depends on the
// light type: point/spot lights use Position and Range, directional and
// environment lights only Direction/Radiance, area lights the three triangle
// vertices V0..V2.
type Light struct {
	Type LightType

	Position  types.Vec3
	Direction types.Vec3

	// Emitted radiance (area, directional, environment) or intensity
	// (point, spot).
	Radiance types.Vec3

	// Maximum influence distance for point/spot lights. Zero means
	// unbounded.
	Range float32

	// Spot cone angles in radians.
	InnerConeAngle float32
	OuterConeAngle float32

	// Area light triangle vertices.
	V0, V1, V2 types.Vec3
}

// True for lights described by a dirac delta (point, spot, directional).
func (l *Light) IsDelta() bool {
	return l.Type == PointLight || l.Type == SpotLight || l.Type == DirectionalLight
}

// Luminance-weighted total emitted power estimate. Used as the importance
// proxy when building sampling distributions.
func (l *Light) Power() float32 {
	lum := 0.2126*l.Radiance[0] + 0.7152*l.Radiance[1] + 0.0722*l.Radiance[2]
	switch l.Type {
	case PointLight:
		return 4 * math.Pi * lum
	case SpotLight:
		// Solid angle of the outer cone
		return 2 * math.Pi * (1 - cos32(l.OuterConeAngle)) * lum
	case AreaLight:
		return l.Area() * math.Pi * lum
	default:
		// Directional and environment lights illuminate the whole scene
		return lum
	}
}

// Surface area of an area light triangle. Zero for other light types.
func (l *Light) Area() float32 {
	if l.Type != AreaLight {
		return 0
	}
	e1 := l.V1.Sub(l.V0)
	e2 := l.V2.Sub(l.V0)
	return e1.Cross(e2).Len() * 0.5
}

// Representative position used for distance-based importance estimates. Area
// lights use their centroid; directional/environment lights have none and
// report false.
func (l *Light) Centroid() (types.Vec3, bool) {
	switch l.Type {
	case PointLight, SpotLight:
		return l.Position, true
	case AreaLight:
		return l.V0.Add(l.V1).Add(l.V2).Mul(1.0 / 3.0), true
	}
	return types.Vec3{}, false
}

// Bounding box of the light's geometry. Directional/environment lights return
// an empty bounds and false.
func (l *Light) Bounds() (types.Bounds, bool) {
	switch l.Type {
	case PointLight, SpotLight:
		return types.Bounds{Min: l.Position, Max: l.Position}, true
	case AreaLight:
		b := types.Bounds{Min: l.V0, Max: l.V0}
		b = b.Include(l.V1)
		b = b.Include(l.V2)
		return b, true
	}
	return types.Bounds{}, false
}

func cos32(v float32) float32 {
	return float32(math.Cos(float64(v)))
}
