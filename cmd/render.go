package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/display"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/framework"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx/opencl"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx/soft"
	_ "github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/renderer"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/sampler"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/scene"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/technique"
)

// Render a still frame and export it as a png file.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	fw, err := setupContext(ctx)
	if err != nil {
		return err
	}
	defer fw.Close()

	frames := ctx.Int("frames")
	if frames < 1 {
		frames = 1
	}

	logger.Noticef("rendering %d frame(s)", frames)
	frameTimes := make([]time.Duration, frames)
	start := time.Now()
	for i := 0; i < frames; i++ {
		frameStart := time.Now()
		if err = fw.Render(); err != nil {
			return err
		}
		frameTimes[i] = time.Since(frameStart)
	}
	displayFrameStats(fw, frameTimes, time.Since(start))

	return saveFrame(fw, ctx.String("out"))
}

// Use opengl to render a continuously updating view of the renderer's frame
// buffer contents.
func RenderInteractive(ctx *cli.Context) error {
	setupLogging(ctx)

	// Glfw event handling must run on the main os thread.
	runtime.LockOSThread()
	defer glfw.Terminate()

	fw, err := setupContext(ctx)
	if err != nil {
		return err
	}
	defer fw.Close()

	window, err := display.NewWindow(fw, "capsaicin")
	if err != nil {
		return err
	}
	defer window.Close()

	return window.Run()
}

// Load the scene, pick a device and activate the selected renderer.
func setupContext(ctx *cli.Context) (*framework.Context, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("missing scene file argument")
	}

	sc, err := scene.ReadScene(ctx.Args().First())
	if err != nil {
		return nil, err
	}

	device, err := selectDevice(ctx)
	if err != nil {
		return nil, err
	}

	fw := framework.New(device, sc, uint32(ctx.Int("width")), uint32(ctx.Int("height")))

	rendererName := ctx.String("renderer")
	logger.Noticef(`activating renderer "%s"`, rendererName)
	start := time.Now()
	if err = fw.SetRenderer(rendererName); err != nil {
		device.Close()
		return nil, err
	}
	logger.Noticef("renderer ready in %d ms", time.Since(start).Nanoseconds()/1000000)

	if view := ctx.String("debug-view"); view != "" {
		if err = fw.SetDebugView(view); err != nil {
			fw.Close()
			device.Close()
			return nil, fmt.Errorf("%v (available: %v)", err, fw.DebugViews())
		}
	}

	return fw, nil
}

// Pick the fastest opencl device matching the device flag. The soft flag
// selects the host-side reference device instead.
func selectDevice(ctx *cli.Context) (gfx.Device, error) {
	if ctx.Bool("soft") {
		logger.Notice("using host-side reference device")
		return soft.NewDevice(), nil
	}

	deviceList, err := opencl.SelectDevices(opencl.AllDevices, ctx.String("device"))
	if err != nil {
		return nil, err
	}
	if len(deviceList) == 0 {
		return nil, errors.New("no available opencl devices")
	}

	best := deviceList[0]
	for _, device := range deviceList[1:] {
		if device.Speed > best.Speed {
			best = device
		}
	}

	logger.Noticef(`using device "%s" (%d GFlops)`, best.Name(), best.Speed)
	if err = best.Init(ctx.String("shader-dir")); err != nil {
		return nil, err
	}
	return best, nil
}

// Read back the output texture and encode it as png.
func saveFrame(fw *framework.Context, imgFile string) error {
	// Renderers without a tonemap pass only produce the linear color target.
	output, ok := fw.SharedTexture(technique.OutputTexture)
	if !ok {
		output, ok = fw.SharedTexture(technique.ColorTexture)
	}
	if !ok {
		return fmt.Errorf("renderer %q produces no displayable texture", fw.RendererName())
	}

	width, height := fw.RenderDimensions()
	texels := make([]float32, width*height*4)
	if err := output.Read(texels); err != nil {
		return err
	}

	im := image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
	for i, v := range texels {
		switch {
		case v <= 0:
			im.Pix[i] = 0
		case v >= 1:
			im.Pix[i] = 255
		default:
			im.Pix[i] = uint8(v*255 + 0.5)
		}
	}

	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	if err = png.Encode(f, im); err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s in %d ms", imgFile, time.Since(start).Nanoseconds()/1000000)
	return nil
}

func displayFrameStats(fw *framework.Context, frameTimes []time.Duration, total time.Duration) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Frame", "Render time"})
	for i, frameTime := range frameTimes {
		table.Append([]string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%s", frameTime),
		})
	}
	table.SetFooter([]string{"TOTAL", fmt.Sprintf("%s", total)})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())

	if comp, ok := fw.ComponentByName(sampler.LightBuilderName); ok {
		logger.Noticef("gpu-visible area lights: %d", comp.(*sampler.LightBuilder).AreaLightCount())
	}
}
