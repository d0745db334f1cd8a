// Package display presents the framework's output texture in an interactive
// window and feeds user input back into the scene camera.
package display

import (
	"fmt"
	"sync"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/framework"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/log"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/scene"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/technique"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/types"
)

const (
	// Coefficients for converting delta cursor movements to yaw/pitch camera angles.
	mouseSensitivityX float32 = 0.005
	mouseSensitivityY float32 = 0.005

	// Camera movement speed
	cameraMoveSpeed float32 = 0.05
)

const (
	leftMouseButton  = 0
	rightMouseButton = 1
)

// An interactive opengl-based window running the frame loop until closed.
type Window struct {
	logger log.Logger

	ctx    *framework.Context
	window *glfw.Window
	texFbo uint32

	width, height uint32

	// Scratch buffers for converting the output texture to display bytes.
	texels []float32
	pixels []uint8

	// state
	lastCursorPos types.Vec2
	mousePressed  [2]bool
	camera        *scene.Camera

	// mutex for synchronizing updates
	sync.Mutex
}

// NewWindow creates the display window for an already-activated context.
func NewWindow(ctx *framework.Context, title string) (*Window, error) {
	width, height := ctx.RenderDimensions()
	w := &Window{
		logger: log.New("display"),
		ctx:    ctx,
		width:  width,
		height: height,
		texels: make([]float32, width*height*4),
		pixels: make([]uint8, width*height*4),
		camera: ctx.Scene().Camera,
	}

	if err := w.initGL(title); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func (w *Window) initGL(title string) error {
	var err error
	if err = glfw.Init(); err != nil {
		return fmt.Errorf("display: failed to initialize glfw: %s", err.Error())
	}

	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	w.window, err = glfw.CreateWindow(int(w.width), int(w.height), title, nil, nil)
	if err != nil {
		return fmt.Errorf("display: could not create opengl window: %s", err.Error())
	}
	w.window.MakeContextCurrent()

	if err = gl.Init(); err != nil {
		return fmt.Errorf("display: could not init opengl: %s", err.Error())
	}

	// Setup texture for image data
	var fbTexture uint32
	gl.GenTextures(1, &fbTexture)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, fbTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w.width), int32(w.height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)

	// Attach texture to FBO
	gl.GenFramebuffers(1, &w.texFbo)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, w.texFbo)
	gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, fbTexture, 0)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

	// Bind event callbacks
	w.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	w.window.SetKeyCallback(w.onKeyEvent)
	w.window.SetMouseButtonCallback(w.onMouseEvent)
	w.window.SetCursorPosCallback(w.onCursorPosEvent)

	return nil
}

// Run drives the frame loop until the window is closed.
func (w *Window) Run() error {
	for !w.window.ShouldClose() {
		glfw.PollEvents()

		w.Lock()
		if err := w.ctx.Render(); err != nil {
			w.Unlock()
			return err
		}
		if err := w.present(); err != nil {
			w.logger.Warningf("presenting frame %d: %v", w.ctx.FrameIndex(), err)
		}
		w.window.SwapBuffers()
		w.Unlock()
	}
	return nil
}

// present uploads the output texture and blits it to the default framebuffer.
func (w *Window) present() error {
	output, ok := w.ctx.SharedTexture(technique.OutputTexture)
	if !ok {
		// The active renderer produces no displayable target; leave the
		// previous image up.
		return nil
	}
	if err := output.Read(w.texels); err != nil {
		return err
	}
	for i, v := range w.texels {
		switch {
		case v <= 0:
			w.pixels[i] = 0
		case v >= 1:
			w.pixels[i] = 255
		default:
			w.pixels[i] = uint8(v*255 + 0.5)
		}
	}

	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(w.width), int32(w.height),
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(w.pixels))

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, w.texFbo)
	gl.BlitFramebuffer(0, 0, int32(w.width), int32(w.height), 0, 0, int32(w.width), int32(w.height),
		gl.COLOR_BUFFER_BIT, gl.LINEAR)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	return nil
}

func (w *Window) Close() {
	if w.window != nil {
		w.window.SetShouldClose(true)
	}
}

func (w *Window) onKeyEvent(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}

	var moveDir scene.CameraDirection
	switch key {
	case glfw.KeyEscape:
		w.window.SetShouldClose(true)
		return
	case glfw.KeyUp:
		moveDir = scene.Forward
	case glfw.KeyDown:
		moveDir = scene.Backward
	case glfw.KeyLeft:
		moveDir = scene.Left
	case glfw.KeyRight:
		moveDir = scene.Right
	default:
		return
	}

	// Double speed if shift is pressed
	var speedScaler float32 = 1.0
	if (mods & glfw.ModShift) == glfw.ModShift {
		speedScaler = 2.0
	}

	w.Lock()
	w.camera.Move(moveDir, speedScaler*cameraMoveSpeed)
	w.ctx.Scene().MarkCameraUpdated()
	w.Unlock()
}

func (w *Window) onMouseEvent(win *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft && button != glfw.MouseButtonRight {
		return
	}

	w.mousePressed[leftMouseButton] = false
	w.mousePressed[rightMouseButton] = false

	if action == glfw.Press {
		xPos, yPos := win.GetCursorPos()
		w.lastCursorPos[0], w.lastCursorPos[1] = float32(xPos), float32(yPos)

		buttonIndex := leftMouseButton
		if button == glfw.MouseButtonRight {
			buttonIndex = rightMouseButton
		}
		w.mousePressed[buttonIndex] = true
	}
}

func (w *Window) onCursorPosEvent(_ *glfw.Window, xPos, yPos float64) {
	if !w.mousePressed[leftMouseButton] && !w.mousePressed[rightMouseButton] {
		return
	}

	// Calculate delta movement and apply mouse sensitivity
	newPos := types.Vec2{float32(xPos), float32(yPos)}
	delta := w.lastCursorPos.Sub(newPos)
	delta[0] *= mouseSensitivityX
	delta[1] *= mouseSensitivityY
	w.lastCursorPos = newPos

	if w.mousePressed[leftMouseButton] {
		// The left mouse button rotates lookat around eye
		w.Lock()
		w.camera.Pitch = delta[1]
		w.camera.Yaw = delta[0]
		w.camera.Update()
		w.ctx.Scene().MarkCameraUpdated()
		w.Unlock()
	}
}
