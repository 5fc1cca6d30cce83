// Command tomasulo is the command-line driver for the Tomasulo simulator
// core: it loads a program, optionally seeds memory from a TOML file, and
// steps the machine to completion or a cycle limit, printing the final
// state.
package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/yomnahisham/tomasulo-simulator/cmd/tomasulo/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		logrus.WithError(err).Error("tomasulo failed")
		os.Exit(1)
	}
}
