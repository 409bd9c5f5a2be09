package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/evalang/eva/compiler"
	"github.com/evalang/eva/disasm"
	"github.com/evalang/eva/global"
	"github.com/evalang/eva/lexer"
	"github.com/evalang/eva/object"
	"github.com/evalang/eva/parser"
)

// disasmCmd implements the "disasm" subcommand: compile a file and print its
// bytecode listing, without running it. The CLI surface for §4.4.
type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "compile an Eva source file and print its bytecode" }
func (*disasmCmd) Usage() string {
	return `disasm <file.eva>:
  Compile an Eva script and print a disassembly of every compiled unit,
  reached by walking the function constants nested inside main's.
`
}
func (*disasmCmd) SetFlags(_ *flag.FlagSet) {}

func (*disasmCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "evac disasm: no file given")
		return subcommands.ExitUsageError
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "evac disasm: %s\n", err)
		return subcommands.ExitFailure
	}

	l := lexer.New(string(src))
	p := parser.New(l)
	program := p.ParseProgram()
	if len(p.Errors()) != 0 {
		for _, msg := range p.Errors() {
			fmt.Fprintln(os.Stderr, msg)
		}
		return subcommands.ExitFailure
	}

	code, err := compiler.New(global.New()).Compile(program)
	if err != nil {
		fmt.Fprintf(os.Stderr, "evac disasm: %s\n", err)
		return subcommands.ExitFailure
	}

	printDisasm(code, map[*object.Code]bool{})
	return subcommands.ExitSuccess
}

// printDisasm prints c's own listing, then recurses into every *object.Code
// it references via a constant, skipping units already printed so mutually
// referencing units (a function capturing itself) can't loop forever.
func printDisasm(c *object.Code, seen map[*object.Code]bool) {
	if seen[c] {
		return
	}
	seen[c] = true

	fmt.Print(disasm.Disassemble(c))
	fmt.Println()

	for _, v := range c.Constants {
		if nested, ok := v.Obj.(*object.Code); ok {
			printDisasm(nested, seen)
		}
	}
}
