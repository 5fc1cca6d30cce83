package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yomnahisham/tomasulo-simulator/internal/config"
	"github.com/yomnahisham/tomasulo-simulator/internal/engine"
)

func newRunCommand() *cobra.Command {
	var memPath string
	var maxCycles int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run <file.asm>",
		Short: "Run a program to completion (or a cycle limit) and print the final state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgram(args[0], memPath, maxCycles, jsonOut)
		},
	}
	cmd.Flags().StringVar(&memPath, "mem", "", "TOML file seeding initial memory")
	cmd.Flags().IntVar(&maxCycles, "cycles", 0, "stop after this many cycles (0 = run to completion)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the final snapshot as JSON")
	return cmd
}

func runProgram(path, memPath string, maxCycles int, jsonOut bool) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading program %s", path)
	}

	sim := engine.NewSimulator()
	sim.SetLogger(logrus.StandardLogger())
	if diags, err := sim.LoadProgram(string(source)); err != nil {
		for _, d := range diags {
			logrus.WithField("line", d.Line).Error(d.Message)
		}
		return errors.Wrap(err, "load_program")
	}

	if memPath != "" {
		img, err := config.LoadMemoryImage(memPath)
		if err != nil {
			return err
		}
		addrs, err := img.Addresses()
		if err != nil {
			return err
		}
		if err := sim.InitializeMemory(addrs); err != nil {
			return err
		}
	}

	var snap engine.Snapshot
	for cycle := 0; maxCycles == 0 || cycle < maxCycles; cycle++ {
		snap = sim.StepCycle()
		if snap.Complete {
			break
		}
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	fmt.Printf("cycle %d, complete=%v\n", snap.Cycle, snap.Complete)
	for i, v := range snap.Registers {
		fmt.Printf("R%d=%d ", i, v)
	}
	fmt.Println()
	return nil
}
