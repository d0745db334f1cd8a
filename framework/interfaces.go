package framework

// Declarer is the resource declaration protocol shared by components and
// render techniques. All methods must be pure queries: they are called before
// any GPU resource exists and may be called multiple times. No method may
// assume ordering relative to other declarers beyond "all declarations are
// visible before any Init runs".
type Declarer interface {
	// RenderOptions returns the configuration options this declarer exposes
	// together with their default values.
	RenderOptions() map[string]Option

	// Components returns the names of components this declarer depends on.
	Components() []string

	// SharedBuffers returns the shared buffers this declarer requires.
	SharedBuffers() []SharedBuffer

	// SharedTextures returns the shared textures this declarer requires.
	SharedTextures() []SharedTexture

	// DebugViews returns the names of debug visualizations this declarer can
	// produce.
	DebugViews() []string
}

// A Component encapsulates shared per-frame operations used by one or more
// render techniques. Components Run before any technique Renders.
type Component interface {
	Declarer

	Name() string

	// Init is called exactly once after all dependencies have been
	// constructed and all declared shared resources exist.
	Init(ctx *Context) error

	// Run executes the component's per-frame work.
	Run(ctx *Context) error

	// Terminate destroys internal resources. It must be idempotent: the
	// framework may call it multiple times, including on half-initialized
	// instances after a failed activation.
	Terminate()
}

// A Technique is a single pass in the active renderer's pipeline.
type Technique interface {
	Declarer

	Name() string

	Init(ctx *Context) error

	// Render executes the technique for the current frame.
	Render(ctx *Context) error

	Terminate()
}

// A Renderer defines an ordered pipeline of render techniques.
type Renderer interface {
	// SetupTechniques constructs the ordered technique list. The framework
	// takes ownership of the returned instances.
	SetupTechniques() ([]Technique, error)

	// RenderOptions returns override values for options declared by the
	// selected techniques/components. Called after all declarations have been
	// merged.
	RenderOptions() map[string]Option
}

// BaseDeclarer provides empty default declarations. Embed it to implement
// only the queries a declarer actually needs.
type BaseDeclarer struct{}

func (BaseDeclarer) RenderOptions() map[string]Option {
	return nil
}

func (BaseDeclarer) Components() []string {
	return nil
}

func (BaseDeclarer) SharedBuffers() []SharedBuffer {
	return nil
}

func (BaseDeclarer) SharedTextures() []SharedTexture {
	return nil
}

func (BaseDeclarer) DebugViews() []string {
	return nil
}
