package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"cinder/ast"
	"cinder/compiler"
	"cinder/lexer"
	"cinder/object"
	"cinder/parser"
	"cinder/token"
	"cinder/vm"
)

// replCompiledCmd lowers each line to bytecode and runs it on a persistent
// VM/scope pair, so declarations from one line stay visible to the next —
// the compiled counterpart of replCmd.
type replCompiledCmd struct {
	disassemble bool
	dumpAST     bool
}

func (*replCompiledCmd) Name() string { return "replc" }
func (*replCompiledCmd) Synopsis() string {
	return "Start a REPL session backed by the bytecode compiler and VM"
}
func (*replCompiledCmd) Usage() string {
	return `cinder replc`
}

func (cmd *replCompiledCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.disassemble, "disassemble", false, "print disassembled bytecode for each compiled line")
	f.BoolVar(&cmd.dumpAST, "dumpAST", false, "write the parsed AST as JSON to ast.json")
	f.BoolVar(&cmd.disassemble, "di", false, "shorthand for disassemble")
	f.BoolVar(&cmd.dumpAST, "da", false, "shorthand for dumpAST")
}

func (cmd *replCompiledCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("\nWelcome to the cinder programming language!")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     "/tmp/cinder_replc_history.tmp",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to start REPL: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	machine := vm.New()
	scope := object.NewScope()
	var buffer string

	for {
		if buffer == "" {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buffer = ""
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "💥 %v\n", err)
			return subcommands.ExitFailure
		}

		if line == "exit" && buffer == "" {
			return subcommands.ExitSuccess
		}

		if buffer != "" {
			buffer += "\n"
		}
		buffer += line
		source := buffer

		lex := lexer.New(source)
		tokens, err := lex.Scan()
		if err != nil {
			fmt.Println(err)
			buffer = ""
			continue
		}

		if !isInputReady(tokens) {
			continue
		}

		p := parser.Make(tokens)
		statements, parseErrs := p.Parse()
		if len(parseErrs) > 0 {
			if allParseErrorsAtEOF(parseErrs, tokens[len(tokens)-1]) {
				continue
			}
			fmt.Fprintf(os.Stdout, "Parse error: ")
			for _, pErr := range parseErrs {
				fmt.Fprintf(os.Stdout, "%v\n", pErr)
			}
			buffer = ""
			continue
		}

		if cmd.dumpAST {
			if err := p.PrintToFile(statements, "ast.json"); err != nil {
				fmt.Fprintf(os.Stderr, "💥 Dump AST error:\n\t%s\n", err.Error())
			}
		}

		program := ast.BlockStatement{Statements: statements}
		fn, err := compiler.Lower(program, "repl", map[string]bool{})
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			buffer = ""
			continue
		}

		if cmd.disassemble {
			fmt.Print(compiler.Disassemble(fn))
		}

		result, runErr := machine.Run(fn, scope)
		if runErr != nil {
			fmt.Fprintln(os.Stderr, runErr.Error())
			buffer = ""
			continue
		}
		if result != nil {
			if _, isVoid := result.(object.ObjVoid); !isVoid {
				fmt.Println(result.Inspect())
			}
		}
		buffer = ""
	}
}

// isInputReady checks if the input is ready to be parsed and executed. It checks for balanced parentheses and braces,
// and also checks if the last non-EOF token is an operator or a keyword that expects more input.
func isInputReady(tokens []token.Token) bool {
	braceBalance := 0
	for _, tok := range tokens {
		switch tok.TokenType {
		case token.LCUR:
			braceBalance++
		case token.RCUR:
			braceBalance--
		}
	}

	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.TokenType {
	case token.ASSIGN,
		token.ADD,
		token.SUB,
		token.MULT,
		token.DIV,
		token.BANG,
		token.EQUAL_EQUAL,
		token.NOT_EQUAL,
		token.LESS,
		token.LESS_EQUAL,
		token.LARGER,
		token.LARGER_EQUAL,
		token.COMMA,
		token.LPA,
		token.LCUR,
		token.IF,
		token.ELSE,
		token.ELIF,
		token.WHILE,
		token.FOR,
		token.FUNC,
		token.RETURN,
		token.VAR,
		token.CONST,
		token.AND,
		token.OR,
		token.PRINT:
		return false
	}

	return true
}

// lastNonEOF returns the last non-EOF token from the list of tokens. If all tokens are EOF, it returns nil.
func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].TokenType != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}

// allParseErrorsAtEOF checks if all parse errors are syntax errors that occur at the position of the EOF token.
func allParseErrorsAtEOF(parseErrs []error, eof token.Token) bool {
	for _, parseErr := range parseErrs {
		syntaxErr, ok := parseErr.(parser.SyntaxError)
		if !ok {
			return false
		}
		if syntaxErr.Line != eof.Line || syntaxErr.Column != eof.Column {
			return false
		}
	}
	return len(parseErrs) > 0
}
