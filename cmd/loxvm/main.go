package main

import (
	"os"

	"github.com/mna/mainer"

	"github.com/kristofer/loxvm/internal/cmdline"
)

// placeholder values, replaced on build
var version = "0.1.0"

func main() {
	c := cmdline.Cmd{BuildVersion: version}
	os.Exit(int(c.Main(os.Args, mainer.CurrentStdio())))
}
