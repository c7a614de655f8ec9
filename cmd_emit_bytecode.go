package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"cinder/ast"
	"cinder/compiler"
	"cinder/lexer"
	"cinder/parser"
)

// emitBytecodeCmd lowers a source file to bytecode and writes its
// disassembly to a text file. There's no binary form left to dump now that
// Instruction is a tagged struct rather than a packed encoding.
type emitBytecodeCmd struct {
	outPath string
}

func (*emitBytecodeCmd) Name() string { return "emit" }
func (*emitBytecodeCmd) Synopsis() string {
	return "Emit the disassembled bytecode for a source file"
}
func (*emitBytecodeCmd) Usage() string {
	return `cinder emit <file>`
}

func (cmd *emitBytecodeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.outPath, "out", "", "output file path (defaults to <source>.dis)")
}

func (cmd *emitBytecodeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	sourceFile := args[0]
	data, err := os.ReadFile(sourceFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	lex := lexer.New(string(data))
	tokens, err := lex.Scan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lexing error: %v\n", err)
		return subcommands.ExitFailure
	}

	p := parser.Make(tokens)
	statements, parseErrs := p.Parse()
	if len(parseErrs) > 0 {
		fmt.Fprintf(os.Stderr, "💥 Parsing error:\n")
		for _, pErr := range parseErrs {
			fmt.Fprintf(os.Stderr, "\t%v\n", pErr)
		}
		return subcommands.ExitFailure
	}

	program := ast.BlockStatement{Statements: statements}
	fn, err := compiler.Lower(program, "main", map[string]bool{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Compilation error:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	out := cmd.outPath
	if out == "" {
		base := strings.TrimSuffix(sourceFile, ".cnd")
		out = base + ".dis"
	}
	if err := os.WriteFile(out, []byte(compiler.Disassemble(fn)), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to write disassembly:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
