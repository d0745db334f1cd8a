package framework

import (
	"fmt"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/log"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/scene"
)

// The number of frames a GPU readback lags behind its enqueue before the
// result may be fetched without stalling.
const DefaultBackBufferCount = 3

// Context owns the active renderer's full pipeline state: the instantiated
// techniques and components, the merged option table and the shared GPU
// resources negotiated from their declarations. All pipeline mutation goes
// through SetRenderer; Render only executes the already-built pipeline.
type Context struct {
	device gfx.Device
	scene  *scene.Scene
	logger log.Logger

	options *OptionTable

	rendererName string
	renderer     Renderer

	techniques     []Technique
	techniqueIndex map[string]int
	components     []Component
	componentIndex map[string]int

	// Shared resources in creation order plus name lookup indexes. Creation
	// order is the negotiation order, which is deterministic for a given
	// renderer.
	bufferDescs  []SharedBuffer
	textureDescs []SharedTexture
	buffers      []gfx.Buffer
	textures     []gfx.Texture
	bufferIndex  map[string]int
	textureIndex map[string]int

	clearBuffers  []string
	clearTextures []string
	backups       [][2]string

	debugViews []string
	debugView  string

	frameIndex      uint64
	width, height   uint32
	backBufferCount int
}

// New creates a context bound to the given device and scene. No renderer is
// active until SetRenderer succeeds.
func New(device gfx.Device, sc *scene.Scene, width, height uint32) *Context {
	return &Context{
		device:          device,
		scene:           sc,
		logger:          log.New("framework"),
		options:         NewOptionTable(),
		techniqueIndex:  make(map[string]int),
		componentIndex:  make(map[string]int),
		bufferIndex:     make(map[string]int),
		textureIndex:    make(map[string]int),
		width:           width,
		height:          height,
		backBufferCount: DefaultBackBufferCount,
	}
}

func (c *Context) Device() gfx.Device    { return c.device }
func (c *Context) Scene() *scene.Scene   { return c.scene }
func (c *Context) Options() *OptionTable { return c.options }
func (c *Context) FrameIndex() uint64    { return c.frameIndex }
func (c *Context) BackBufferCount() int  { return c.backBufferCount }
func (c *Context) RendererName() string  { return c.rendererName }
func (c *Context) RenderDimensions() (uint32, uint32) {
	return c.width, c.height
}

// SetRenderer tears down the active pipeline (if any) and activates the named
// renderer. On any failure the context is left with no active renderer and
// every partially-constructed instance has been terminated, so a subsequent
// SetRenderer call starts from a clean slate.
func (c *Context) SetRenderer(name string) error {
	renderer, err := MakeRenderer(name)
	if err != nil {
		return err
	}

	c.teardown()

	techniques, err := renderer.SetupTechniques()
	if err != nil {
		return fmt.Errorf("framework: renderer %q setup failed: %v", name, err)
	}
	c.techniques = techniques
	for i, t := range c.techniques {
		c.techniqueIndex[t.Name()] = i
	}

	for _, t := range c.techniques {
		if err = c.options.DeclareAll(t.RenderOptions()); err != nil {
			c.teardown()
			return err
		}
	}

	if err = c.resolveComponents(); err != nil {
		c.teardown()
		return err
	}
	for _, comp := range c.components {
		if err = c.options.DeclareAll(comp.RenderOptions()); err != nil {
			c.teardown()
			return err
		}
	}

	// Renderer overrides replace defaults declared above. An override naming
	// an option no technique or component declared is a renderer bug; it is
	// reported and skipped rather than aborting activation.
	for optName, opt := range renderer.RenderOptions() {
		if err := c.options.Override(optName, opt); err != nil {
			c.logger.Warningf("renderer %q: %v", name, err)
		}
	}

	if err = c.createResources(); err != nil {
		c.teardown()
		return err
	}

	c.collectDebugViews()

	// Components initialize before any technique so that technique Init can
	// query fully-constructed dependencies.
	for _, comp := range c.components {
		if err = comp.Init(c); err != nil {
			c.teardown()
			return fmt.Errorf("framework: component %q init failed: %v", comp.Name(), err)
		}
	}
	for _, t := range c.techniques {
		if err = t.Init(c); err != nil {
			c.teardown()
			return fmt.Errorf("framework: technique %q init failed: %v", t.Name(), err)
		}
	}

	c.renderer = renderer
	c.rendererName = name
	c.logger.Noticef("activated renderer %q (%d techniques, %d components, %d buffers, %d textures)",
		name, len(c.techniques), len(c.components), len(c.buffers), len(c.textures))
	return nil
}

// resolveComponents walks the transitive component dependencies of the active
// techniques. Dependencies are instantiated before their dependents and each
// component exactly once, so the resulting order is a valid Init order.
func (c *Context) resolveComponents() error {
	var (
		visiting = make(map[string]bool)
		visit    func(name string) error
	)
	visit = func(name string) error {
		if _, done := c.componentIndex[name]; done {
			return nil
		}
		if visiting[name] {
			return fmt.Errorf("framework: component dependency cycle through %q", name)
		}
		visiting[name] = true
		comp, err := MakeComponent(name)
		if err != nil {
			return err
		}
		for _, dep := range comp.Components() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		delete(visiting, name)
		c.componentIndex[name] = len(c.components)
		c.components = append(c.components, comp)
		return nil
	}

	for _, t := range c.techniques {
		for _, dep := range t.Components() {
			if err := visit(dep); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Context) createResources() error {
	declarers := make([]Declarer, 0, len(c.techniques)+len(c.components))
	for _, t := range c.techniques {
		declarers = append(declarers, t)
	}
	for _, comp := range c.components {
		declarers = append(declarers, comp)
	}

	merged, err := negotiate(declarers, c.logger)
	if err != nil {
		return err
	}

	c.bufferDescs = merged.buffers
	c.textureDescs = merged.textures
	c.clearBuffers = merged.clearBuffers
	c.clearTextures = merged.clearTextures
	c.backups = merged.backups

	for _, desc := range c.bufferDescs {
		buf, err := c.device.CreateBuffer(gfx.BufferDesc{
			Name:   desc.Name,
			Size:   desc.Size,
			Stride: desc.Stride,
		})
		if err != nil {
			return fmt.Errorf("framework: allocating shared buffer %q: %v", desc.Name, err)
		}
		c.bufferIndex[desc.Name] = len(c.buffers)
		c.buffers = append(c.buffers, buf)
	}
	for _, desc := range c.textureDescs {
		tex, err := c.device.CreateTexture(c.textureGfxDesc(desc))
		if err != nil {
			return fmt.Errorf("framework: allocating shared texture %q: %v", desc.Name, err)
		}
		c.textureIndex[desc.Name] = len(c.textures)
		c.textures = append(c.textures, tex)
	}
	return nil
}

// textureGfxDesc resolves a declaration into concrete allocation parameters;
// zero dimensions adopt the current render dimensions.
func (c *Context) textureGfxDesc(desc SharedTexture) gfx.TextureDesc {
	width, height := desc.Width, desc.Height
	if width == 0 {
		width = c.width
	}
	if height == 0 {
		height = c.height
	}
	return gfx.TextureDesc{
		Name:   desc.Name,
		Format: desc.Format,
		Width:  width,
		Height: height,
		Mips:   desc.Mips,
	}
}

func (c *Context) collectDebugViews() {
	seen := make(map[string]bool)
	add := func(views []string) {
		for _, v := range views {
			if !seen[v] {
				seen[v] = true
				c.debugViews = append(c.debugViews, v)
			}
		}
	}
	for _, t := range c.techniques {
		add(t.DebugViews())
	}
	for _, comp := range c.components {
		add(comp.DebugViews())
	}
}

// Render executes one frame of the active pipeline. Failures inside
// individual components or techniques are logged and the frame continues;
// only a missing renderer is a hard error. Scene change flags are consumed by
// the frame and reset afterwards.
func (c *Context) Render() error {
	if c.renderer == nil {
		return ErrNoRenderer
	}

	for _, pair := range c.backups {
		src := c.textures[c.textureIndex[pair[0]]]
		dst := c.textures[c.textureIndex[pair[1]]]
		if err := c.device.CopyTexture(dst, src); err != nil {
			c.logger.Errorf("frame %d: backing up texture %q: %v", c.frameIndex, pair[0], err)
		}
	}
	for _, name := range c.clearBuffers {
		if err := c.buffers[c.bufferIndex[name]].Clear(); err != nil {
			c.logger.Errorf("frame %d: clearing buffer %q: %v", c.frameIndex, name, err)
		}
	}
	for _, name := range c.clearTextures {
		if err := c.textures[c.textureIndex[name]].Clear(); err != nil {
			c.logger.Errorf("frame %d: clearing texture %q: %v", c.frameIndex, name, err)
		}
	}

	for _, comp := range c.components {
		if err := comp.Run(c); err != nil {
			c.logger.Errorf("frame %d: component %q: %v", c.frameIndex, comp.Name(), err)
		}
	}
	for _, t := range c.techniques {
		if err := t.Render(c); err != nil {
			c.logger.Errorf("frame %d: technique %q: %v", c.frameIndex, t.Name(), err)
		}
	}

	c.scene.Flags().Reset()
	c.frameIndex++
	return nil
}

// HasSharedBuffer reports whether the named buffer was allocated during
// negotiation. Optional resources nobody committed to report false.
func (c *Context) HasSharedBuffer(name string) bool {
	_, ok := c.bufferIndex[name]
	return ok
}

func (c *Context) HasSharedTexture(name string) bool {
	_, ok := c.textureIndex[name]
	return ok
}

// SharedBuffer returns the named shared buffer handle. The context retains
// ownership; callers must not release it.
func (c *Context) SharedBuffer(name string) (gfx.Buffer, bool) {
	idx, ok := c.bufferIndex[name]
	if !ok {
		return nil, false
	}
	return c.buffers[idx], true
}

func (c *Context) SharedTexture(name string) (gfx.Texture, bool) {
	idx, ok := c.textureIndex[name]
	if !ok {
		return nil, false
	}
	return c.textures[idx], true
}

// ComponentByName returns an instantiated component of the active pipeline.
func (c *Context) ComponentByName(name string) (Component, bool) {
	idx, ok := c.componentIndex[name]
	if !ok {
		return nil, false
	}
	return c.components[idx], true
}

// TechniqueByName returns an instantiated technique of the active pipeline.
func (c *Context) TechniqueByName(name string) (Technique, bool) {
	idx, ok := c.techniqueIndex[name]
	if !ok {
		return nil, false
	}
	return c.techniques[idx], true
}

// ResizeSharedBuffer destroys and reallocates a single shared buffer with a
// new byte size. Handles previously returned for the name are invalid after
// this call; callers re-fetch on the next frame.
func (c *Context) ResizeSharedBuffer(name string, size int) (gfx.Buffer, error) {
	idx, ok := c.bufferIndex[name]
	if !ok {
		return nil, fmt.Errorf("framework: resize of unknown shared buffer %q", name)
	}
	c.buffers[idx].Release()
	c.bufferDescs[idx].Size = size
	buf, err := c.device.CreateBuffer(gfx.BufferDesc{
		Name:   name,
		Size:   size,
		Stride: c.bufferDescs[idx].Stride,
	})
	if err != nil {
		return nil, fmt.Errorf("framework: reallocating shared buffer %q: %v", name, err)
	}
	c.buffers[idx] = buf
	return buf, nil
}

// SetRenderDimensions updates the output resolution and reallocates every
// shared texture that adopted the render dimensions.
func (c *Context) SetRenderDimensions(width, height uint32) error {
	if width == c.width && height == c.height {
		return nil
	}
	c.width, c.height = width, height
	for idx, desc := range c.textureDescs {
		if desc.Width != 0 && desc.Height != 0 {
			continue
		}
		c.textures[idx].Release()
		tex, err := c.device.CreateTexture(c.textureGfxDesc(desc))
		if err != nil {
			return fmt.Errorf("framework: reallocating shared texture %q: %v", desc.Name, err)
		}
		c.textures[idx] = tex
	}
	return nil
}

// DebugViews returns the union of debug views exposed by the active pipeline.
func (c *Context) DebugViews() []string {
	return c.debugViews
}

// SetDebugView selects the debug visualization to present, or none for the
// blank name. Unknown names are rejected.
func (c *Context) SetDebugView(name string) error {
	if name == "" {
		c.debugView = ""
		return nil
	}
	for _, v := range c.debugViews {
		if v == name {
			c.debugView = name
			return nil
		}
	}
	return fmt.Errorf("framework: unknown debug view %q", name)
}

func (c *Context) DebugView() string {
	return c.debugView
}

// Close tears down the active pipeline. The device is owned by the caller and
// is not closed.
func (c *Context) Close() {
	c.teardown()
}

// teardown destroys the pipeline in reverse construction order: techniques,
// then components, then shared resources. Safe on a partially-built pipeline
// and safe to call repeatedly.
func (c *Context) teardown() {
	for i := len(c.techniques) - 1; i >= 0; i-- {
		c.techniques[i].Terminate()
	}
	for i := len(c.components) - 1; i >= 0; i-- {
		c.components[i].Terminate()
	}
	for i := len(c.textures) - 1; i >= 0; i-- {
		c.textures[i].Release()
	}
	for i := len(c.buffers) - 1; i >= 0; i-- {
		c.buffers[i].Release()
	}

	c.techniques = nil
	c.techniqueIndex = make(map[string]int)
	c.components = nil
	c.componentIndex = make(map[string]int)
	c.buffers = nil
	c.textures = nil
	c.bufferDescs = nil
	c.textureDescs = nil
	c.bufferIndex = make(map[string]int)
	c.textureIndex = make(map[string]int)
	c.clearBuffers = nil
	c.clearTextures = nil
	c.backups = nil
	c.debugViews = nil
	c.debugView = ""
	c.renderer = nil
	c.rendererName = ""
	c.options.Clear()
}
