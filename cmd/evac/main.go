// Command evac is the scriptable, subcommand-based front end for Eva:
// `evac run file.eva` executes a script, `evac repl` drops into a plain
// line-editing REPL for non-TTY or CI use, and `evac disasm file.eva` prints
// the compiled bytecode listing. The interactive Bubble Tea REPL lives in
// the sibling `eva` binary (package main at the repo root); this one is for
// piping, redirecting, and automation.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&replCmd{}, "")
	subcommands.Register(&disasmCmd{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
