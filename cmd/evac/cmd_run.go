package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/evalang/eva/vm"
)

// runCmd implements the "run" subcommand: execute an Eva script file.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "execute an Eva source file" }
func (*runCmd) Usage() string {
	return `run <file.eva>:
  Compile and run an Eva script, printing its final value.
`
}
func (*runCmd) SetFlags(_ *flag.FlagSet) {}

func (*runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "evac run: no file given")
		return subcommands.ExitUsageError
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "evac run: %s\n", err)
		return subcommands.ExitFailure
	}

	machine := vm.New()
	result, err := machine.Exec(string(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "evac run: %s\n", err)
		return subcommands.ExitFailure
	}

	fmt.Println(result.Inspect())
	return subcommands.ExitSuccess
}
