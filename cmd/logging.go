package cmd

import (
	"github.com/GPUOpen-LibrariesAndSDKs/Capsaicin-sub005/log"
	"github.com/urfave/cli"
)

var logger = log.New("capsaicin")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
