package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/hatchlang/hatch/lang/machine"
)

// Run implements the "run" subcommand (spec §6): load a linked image and
// execute it to completion, printing its output log.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		if err := runFile(stdio, c.Debug, path); err != nil {
			return err
		}
	}
	return nil
}

func runFile(stdio mainer.Stdio, debug bool, path string) error {
	img, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	m, err := machine.Load(img)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	var runErr error
	if debug {
		runErr = runTraced(stdio, m)
	} else {
		_, runErr = m.Run()
	}
	if runErr != nil {
		fmt.Fprintln(stdio.Stderr, runErr)
		return runErr
	}

	for _, entry := range m.Output() {
		fmt.Fprintln(stdio.Stdout, entry)
	}
	return nil
}

// runTraced drives the machine one cycle at a time, printing a register
// and stack snapshot after each cycle (grounded on vm.py's settings.debug
// branch, which prints A/B/F/O/I and the stack after every cycle).
func runTraced(stdio mainer.Stdio, m *machine.Machine) error {
	for !m.Halted() {
		if err := m.Step(); err != nil {
			return err
		}
		s := m.Snapshot()
		fmt.Fprintf(stdio.Stdout, "A:%d B:%d C:%d F:%d O:%d I:%d stack:%v calls:%v\n",
			s.A, s.B, s.C, s.F, s.O, s.Inst, s.DataStack, s.CallStack)
	}
	return m.CheckHalted()
}
