package framework

import (
	"fmt"
	"sort"
)

// Name-keyed constructor registries for the polymorphic families the
// framework instantiates at runtime. Registration happens via explicit calls
// from package init functions; the set of valid names is closed once all
// packages are linked in, so requesting an unregistered name is a programming
// error surfaced as a fatal activation failure.
var (
	rendererCtors  = make(map[string]func() Renderer)
	componentCtors = make(map[string]func() Component)
	techniqueCtors = make(map[string]func() Technique)
)

// RegisterRenderer adds a renderer constructor under the given name.
// Registering the same name twice panics: duplicate registrations are always
// a linker-level mistake.
func RegisterRenderer(name string, ctor func() Renderer) {
	if _, exists := rendererCtors[name]; exists {
		panic(fmt.Sprintf("framework: renderer %q registered twice", name))
	}
	rendererCtors[name] = ctor
}

func RegisterComponent(name string, ctor func() Component) {
	if _, exists := componentCtors[name]; exists {
		panic(fmt.Sprintf("framework: component %q registered twice", name))
	}
	componentCtors[name] = ctor
}

func RegisterTechnique(name string, ctor func() Technique) {
	if _, exists := techniqueCtors[name]; exists {
		panic(fmt.Sprintf("framework: technique %q registered twice", name))
	}
	techniqueCtors[name] = ctor
}

// MakeRenderer constructs a fresh instance of the named renderer.
func MakeRenderer(name string) (Renderer, error) {
	ctor, ok := rendererCtors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRenderer, name)
	}
	return ctor(), nil
}

func MakeComponent(name string) (Component, error) {
	ctor, ok := componentCtors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	return ctor(), nil
}

func MakeTechnique(name string) (Technique, error) {
	ctor, ok := techniqueCtors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTechnique, name)
	}
	return ctor(), nil
}

// RendererNames enumerates all registered renderer names in sorted order.
func RendererNames() []string {
	return sortedKeys(rendererCtors)
}

func ComponentNames() []string {
	return sortedKeys(componentCtors)
}

func TechniqueNames() []string {
	return sortedKeys(techniqueCtors)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
