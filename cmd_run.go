package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"cinder/interpreter"
	"cinder/lexer"
	"cinder/parser"
)

// runCmd tree-walks a source file directly, bypassing the lowering compiler
// and VM entirely — the fallback path's own execution engine, useful as a
// reference for checking a compiled run's output against.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute cinder source with the tree-walking interpreter" }
func (*runCmd) Usage() string {
	return `run <file>:
  Execute cinder source code directly, without compiling to bytecode.
`
}
func (r *runCmd) SetFlags(f *flag.FlagSet) {}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	lex := lexer.New(string(data))
	tokens, err := lex.Scan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Lexing error: %v\n", err)
		return subcommands.ExitFailure
	}

	p := parser.Make(tokens)
	statements, parseErrs := p.Parse()
	if len(parseErrs) > 0 {
		for _, pErr := range parseErrs {
			fmt.Fprintln(os.Stderr, pErr)
		}
		return subcommands.ExitFailure
	}

	interp := interpreter.Make()
	interp.Interpret(statements)
	return subcommands.ExitSuccess
}
