package cmd

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/framework"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/gfx/opencl"
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/sampler"
)

// List available opencl devices.
func ListDevices(ctx *cli.Context) error {
	setupLogging(ctx)

	clPlatforms, err := opencl.GetPlatformInfo()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("\nSystem provides %d opencl platform(s):\n\n", len(clPlatforms)))
	for pIdx, platformInfo := range clPlatforms {
		buf.WriteString(fmt.Sprintf("[Platform %02d]\n%s\n", pIdx, platformInfo.String()))
	}

	logger.Notice(buf.String())
	return nil
}

// List the registered renderers.
func ListRenderers(ctx *cli.Context) error {
	setupLogging(ctx)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Renderer"})
	for _, name := range framework.RendererNames() {
		table.Append([]string{name})
	}
	table.Render()

	logger.Noticef("registered renderers\n%s", buf.String())
	return nil
}

// List the registered light samplers.
func ListSamplers(ctx *cli.Context) error {
	setupLogging(ctx)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Light sampler"})
	for _, name := range sampler.Names() {
		table.Append([]string{name})
	}
	table.Render()

	logger.Noticef("registered light samplers\n%s", buf.String())
	return nil
}
