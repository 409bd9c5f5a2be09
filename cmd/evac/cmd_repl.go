package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"github.com/evalang/eva/vm"
)

// replCmd implements the "repl" subcommand: a plain, line-edited REPL for
// non-TTY/CI use, where the Bubble Tea REPL can't draw — grounded on
// informatter-nilan's cmd_repl.go loop shape, with chzyer/readline driving
// input instead of bufio.Scanner so history and line-editing survive.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "start a plain line-editing REPL" }
func (*replCmd) Usage() string {
	return `repl:
  Start a plain Eva REPL. Globals persist across inputs in the session.
`
}
func (*replCmd) SetFlags(_ *flag.FlagSet) {}

func (*replCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      ">> ",
		HistoryFile: "/tmp/evac_history",
	})
	if err != nil {
		fmt.Println("evac repl:", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	machine := vm.New()
	var buffer strings.Builder

	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">> ")
		} else {
			rl.SetPrompt(".. ")
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if buffer.Len() == 0 {
				break
			}
			buffer.Reset()
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Println("evac repl:", err)
			break
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)

		source := buffer.String()
		if !parenBalanced(source) {
			continue
		}
		buffer.Reset()

		if strings.TrimSpace(source) == "" {
			continue
		}

		result, err := machine.Exec(source)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Println(result.Inspect())
	}

	return subcommands.ExitSuccess
}

// parenBalanced reports whether source's parentheses (outside of string
// literals) are balanced, deciding whether to keep reading a multiline
// form. It matches the Bubble Tea REPL's isBalanced except that a stray
// closing paren counts as balanced here, so the input is run at once.
func parenBalanced(source string) bool {
	depth := 0
	inString := false
	escaped := false

	for _, r := range source {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return true // let the compiler report the stray paren
			}
		}
	}

	return depth == 0 && !inString
}
