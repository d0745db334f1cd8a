// Package scene holds the per-frame scene snapshot consumed by the framework
// core. During a frame the snapshot is treated as read-only; mutations are
// applied between frames and surfaced through the change flags so that
// components can rebuild derived data only when their inputs actually moved.
package scene

import (
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/types"
)

// Per-frame change flags. All flags are reset by the framework at the end of
// each frame.
type ChangeFlags struct {
	MeshesUpdated         bool
	TransformsUpdated     bool
	EnvironmentMapUpdated bool
	CameraUpdated         bool
	LightsUpdated         bool
}

func (f *ChangeFlags) Reset() {
	*f = ChangeFlags{}
}

// Any reports whether anything changed this frame.
func (f *ChangeFlags) Any() bool {
	return f.MeshesUpdated || f.TransformsUpdated || f.EnvironmentMapUpdated ||
		f.CameraUpdated || f.LightsUpdated
}

type Scene struct {
	Name   string
	Camera *Camera

	lights []Light
	bounds types.Bounds

	hasEnvironmentMap bool

	flags ChangeFlags
}

func New(name string) *Scene {
	return &Scene{
		Name:   name,
		Camera: NewCamera(45.0),
		bounds: types.EmptyBounds(),
	}
}

// Lights returns the current light list. Callers must treat the slice as
// read-only for the duration of the frame.
func (s *Scene) Lights() []Light {
	return s.lights
}

// AddLight appends a light and grows the scene bounds to cover it.
func (s *Scene) AddLight(light Light) {
	s.lights = append(s.lights, light)
	if lb, ok := light.Bounds(); ok {
		s.bounds = s.bounds.Union(lb)
	}
	if light.Type == EnvironmentLight {
		s.hasEnvironmentMap = true
		s.flags.EnvironmentMapUpdated = true
	}
	s.flags.LightsUpdated = true
}

// SetBounds overrides the scene bounding box. Normally supplied by the
// geometry pipeline; tests and the scene loader set it explicitly.
func (s *Scene) SetBounds(b types.Bounds) {
	s.bounds = b
	s.flags.MeshesUpdated = true
}

// Bounds returns the scene's world-space bounding box.
func (s *Scene) Bounds() types.Bounds {
	return s.bounds
}

func (s *Scene) HasEnvironmentMap() bool {
	return s.hasEnvironmentMap
}

// Flags exposes the per-frame change flags.
func (s *Scene) Flags() *ChangeFlags {
	return &s.flags
}

// MarkMeshesUpdated flags a geometry change for the current frame.
func (s *Scene) MarkMeshesUpdated() {
	s.flags.MeshesUpdated = true
}

// MarkTransformsUpdated flags an instance transform change for the current
// frame.
func (s *Scene) MarkTransformsUpdated() {
	s.flags.TransformsUpdated = true
}

// MarkCameraUpdated flags a camera move for the current frame.
func (s *Scene) MarkCameraUpdated() {
	s.flags.CameraUpdated = true
}
