package main

import (
	"os"

	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/cmd"
	"github.com/urfave/cli"
)

func renderFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "width",
			Value: 512,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 512,
			Usage: "frame height",
		},
		cli.StringFlag{
			Name:  "renderer, r",
			Value: "gi",
			Usage: "renderer to activate",
		},
		cli.StringFlag{
			Name:  "device, d",
			Value: "",
			Usage: "only use opencl devices whose names contain this value",
		},
		cli.StringFlag{
			Name:  "shader-dir",
			Value: "shaders",
			Usage: "directory containing the opencl kernel sources",
		},
		cli.StringFlag{
			Name:  "debug-view",
			Value: "",
			Usage: "present one of the renderer's debug views instead of the lit output",
		},
		cli.BoolFlag{
			Name:  "soft",
			Usage: "use the host-side reference device instead of opencl",
		},
	}
}

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "capsaicin"
	app.Usage = "render scenes using gpu path tracing"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "list-devices",
			Usage:  "list available opencl devices",
			Action: cmd.ListDevices,
		},
		{
			Name:   "list-renderers",
			Usage:  "list the registered renderers",
			Action: cmd.ListRenderers,
		},
		{
			Name:   "list-samplers",
			Usage:  "list the registered light samplers",
			Action: cmd.ListSamplers,
		},
		{
			Name:   "render",
			Usage:  "render scene",
			Action: nil,
			Subcommands: []cli.Command{
				{
					Name:  "frame",
					Usage: "render single frame",
					Description: `
Render one or more frames of the scene and export the final frame as a png
file. Rendering multiple frames lets the accumulation pass converge before
the frame is exported.`,
					ArgsUsage: "scene_file.scene",
					Flags: append(renderFlags(),
						cli.IntFlag{
							Name:  "frames",
							Value: 16,
							Usage: "number of frames to accumulate",
						},
						cli.StringFlag{
							Name:  "out, o",
							Value: "frame.png",
							Usage: "image filename for the rendered frame",
						},
					),
					Action: cmd.RenderFrame,
				},
				{
					Name:      "interactive",
					Usage:     "render interactive view of the scene",
					ArgsUsage: "scene_file.scene",
					Flags:     renderFlags(),
					Action:    cmd.RenderInteractive,
				},
			},
		},
	}

	app.Run(os.Args)
}
