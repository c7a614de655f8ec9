package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"cinder/ast"
	"cinder/compiler"
	"cinder/lexer"
	"cinder/object"
	"cinder/parser"
	"cinder/vm"
)

// runCompiledCmd lowers a source file to register-slot bytecode and
// executes it on the VM, the counterpart to runCmd that exercises the
// lowering compiler and dispatch loop instead of the tree-walker.
type runCompiledCmd struct{}

func (*runCompiledCmd) Name() string { return "runc" }
func (*runCompiledCmd) Synopsis() string {
	return "Execute cinder source compiled to bytecode"
}
func (*runCompiledCmd) Usage() string {
	return `runc <file>:
  Lower cinder source to bytecode and execute it on the VM.
`
}
func (r *runCompiledCmd) SetFlags(f *flag.FlagSet) {}

func (r *runCompiledCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	program := ast.BlockStatement{Statements: statements}
	fn, err := compiler.Lower(program, "main", map[string]bool{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Compilation error: %v\n", err)
		return subcommands.ExitFailure
	}

	machine := vm.New()
	result, err := machine.Run(fn, object.NewScope())
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return subcommands.ExitFailure
	}
	if result != nil {
		if _, isVoid := result.(object.ObjVoid); !isVoid {
			fmt.Println(result.Inspect())
		}
	}
	return subcommands.ExitSuccess
}
