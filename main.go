// Command eva compiles Eva source into bytecode and runs it in a virtual
// machine. Without any flags, it starts the interactive Bubble Tea REPL.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/evalang/eva/compiler"
	"github.com/evalang/eva/disasm"
	"github.com/evalang/eva/global"
	"github.com/evalang/eva/lexer"
	"github.com/evalang/eva/parser"
	"github.com/evalang/eva/repl"
	"github.com/evalang/eva/vm"
)

const version = "0.1.0"

// printUsage displays custom usage information.
func printUsage() {
	_, _ = fmt.Fprintf(os.Stderr, `Eva v%s

USAGE:
    %s [OPTIONS]

DESCRIPTION:
    Eva compiles Eva source into bytecode and runs it in a virtual machine.
    Without any flags, it starts an interactive REPL (Read-Eval-Print-Loop).
    For scripting and CI use, see the sibling evac binary (cmd/evac).

OPTIONS:
    -f, --file <path>       Execute an Eva script file
    -e, --eval <code>       Evaluate an Eva expression and print the result
    -d, --debug             Print the compiled bytecode disassembly before running
    -v, --version           Show version information
    -h, --help              Show this help message

EXAMPLES:
    # Start interactive REPL
    %s

    # Execute a script file
    %s -f script.eva
    %s --file script.eva

    # Evaluate an expression
    %s -e "(+ 1 2)"

    # Execute with its bytecode disassembly printed first
    %s -f script.eva -d

`, version, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}

func main() {
	flag.Usage = printUsage

	fileFlag := flag.String("file", "", "Execute an Eva script file")
	evalFlag := flag.String("eval", "", "Evaluate an Eva expression and print the result")
	debugFlag := flag.Bool("debug", false, "Print the compiled bytecode disassembly before running")
	versionFlag := flag.Bool("version", false, "Show version information")

	flag.StringVar(fileFlag, "f", "", "Execute an Eva script file")
	flag.StringVar(evalFlag, "e", "", "Evaluate an Eva expression and print the result")
	flag.BoolVar(debugFlag, "d", false, "Print the compiled bytecode disassembly before running")
	flag.BoolVar(versionFlag, "v", false, "Show version information")

	flag.Parse()

	debug := *debugFlag || os.Getenv("EVA_DEBUG") != ""

	if *versionFlag {
		fmt.Printf("eva v%s\n", version)
		return
	}

	if *fileFlag != "" {
		executeFile(*fileFlag, debug)
		return
	}

	if *evalFlag != "" {
		executeSource(*evalFlag, debug)
		return
	}

	username := "unknown"
	if usr, err := user.Current(); err == nil {
		username = usr.Username
	}

	options := repl.Options{
		NoColor: os.Getenv("NO_COLOR") != "",
		Debug:   debug,
	}
	repl.Start(username, options)
}

// executeFile reads and executes an Eva script file.
func executeFile(filename string, debug bool) {
	cleaned := filepath.Clean(filename)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		fmt.Printf("Error getting absolute path: %s\n", err)
		os.Exit(1)
	}

	//nolint:gosec // we're executing a script the caller named, not untrusted input
	content, err := os.ReadFile(absolute)
	if err != nil {
		fmt.Printf("Error reading file: %s\n", err)
		os.Exit(1)
	}

	executeSource(string(content), debug)
}

// executeSource compiles and runs source, optionally printing its main
// unit's disassembly first, and prints the resulting value or error.
func executeSource(source string, debug bool) {
	if debug {
		printDisassembly(source)
	}

	result, err := vm.New().Exec(source)
	if err != nil {
		fmt.Printf("Error: %s\n", err)
		os.Exit(1)
	}
	fmt.Println(result.Inspect())
}

// printDisassembly lexes, parses, and compiles source purely to show its
// bytecode listing; execution happens separately in a fresh VM so a
// disassembly request never shares compiler/global state with the run.
func printDisassembly(source string) {
	l := lexer.New(source)
	p := parser.New(l)
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		printParserErrors(errs)
		os.Exit(1)
	}

	mainCode, err := compiler.New(global.New()).Compile(program)
	if err != nil {
		fmt.Printf("Compilation error: %s\n", err)
		os.Exit(1)
	}
	fmt.Print(disasm.Disassemble(mainCode))
}

func printParserErrors(errors []string) {
	_, _ = fmt.Fprintln(os.Stderr, "Parser errors:")
	for _, msg := range errors {
		_, _ = fmt.Fprintln(os.Stderr, "\t"+msg)
	}
}
