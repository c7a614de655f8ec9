// Recursive descent parser
// https://en.wikipedia.org/wiki/Recursive_descent_parser

//	A Recursive descent parser is a top-down parser because it starts from the top
//
// grammar rule and works its way down in to the nested sub-experessions before reaching
// the leaves of the syntax tree (terminal rules)
package parser

import (
	"cinder/ast"
	"cinder/token"
	"fmt"
)

var equalityTokenTypes = []token.TokenType{
	token.NOT_EQUAL,
	token.EQUAL_EQUAL,
	token.REF_EQUAL,
	token.REF_NOT_EQUAL,
}

var comparisonTokenTypes = []token.TokenType{
	token.LARGER,
	token.LARGER_EQUAL,
	token.LESS,
	token.LESS_EQUAL,
	token.IS,
	token.IN,
}

var bitOrTokenTypes = []token.TokenType{token.PIPE}
var bitXorTokenTypes = []token.TokenType{token.CARET}
var bitAndTokenTypes = []token.TokenType{token.AMP}
var shiftTokenTypes = []token.TokenType{token.SHL, token.SHR, token.USHR}

var termTokenTypes = []token.TokenType{
	token.SUB,
	token.ADD,
}

var factorExpressionTypes = []token.TokenType{
	token.MULT,
	token.DIV,
	token.PERCENT,
}

var unaryExpressionTypes = []token.TokenType{
	token.BANG,
	token.SUB,
	token.TILDE,
}

var assignOpTokenTypes = []token.TokenType{
	token.PLUS_EQUAL,
	token.MINUS_EQUAL,
	token.STAR_EQUAL,
	token.SLASH_EQUAL,
	token.PERCENT_EQUAL,
}

var assignOpToBinOp = map[token.TokenType]ast.BinOp{
	token.PLUS_EQUAL:    ast.OpPlus,
	token.MINUS_EQUAL:   ast.OpMinus,
	token.STAR_EQUAL:    ast.OpStar,
	token.SLASH_EQUAL:   ast.OpSlash,
	token.PERCENT_EQUAL: ast.OpPercent,
}

var binOpByToken = map[token.TokenType]ast.BinOp{
	token.ADD:           ast.OpPlus,
	token.SUB:           ast.OpMinus,
	token.MULT:          ast.OpStar,
	token.DIV:           ast.OpSlash,
	token.PERCENT:       ast.OpPercent,
	token.EQUAL_EQUAL:   ast.OpEq,
	token.NOT_EQUAL:     ast.OpNeq,
	token.REF_EQUAL:     ast.OpRefEq,
	token.REF_NOT_EQUAL: ast.OpRefNeq,
	token.LESS:          ast.OpLt,
	token.LESS_EQUAL:    ast.OpLte,
	token.LARGER:        ast.OpGt,
	token.LARGER_EQUAL:  ast.OpGte,
	token.AMP:           ast.OpBand,
	token.PIPE:          ast.OpBor,
	token.CARET:         ast.OpBxor,
	token.SHL:           ast.OpShl,
	token.SHR:           ast.OpShr,
	token.USHR:          ast.OpUshr,
	token.IN:            ast.OpIn,
	token.IS:            ast.OpIs,
}

type Parser struct {
	tokens   []token.Token
	position int
}

// NOTE: The parsers position is always one unit ahead of the
// current token

// Make initializes and returns a new Parser instance over tokens.
func Make(tokens []token.Token) *Parser {
	return &Parser{
		tokens:   tokens,
		position: 0,
	}
}

// Print prints the AST as prettified JSON to standard output.
func (parser *Parser) Print(statements []ast.Stmt) {
	_, err := PrintASTJSON(statements)
	if err != nil {
		fmt.Println("error producing AST JSON:", err)
	}
}

// PrintToFile writes the AST for the provided statements to a .json file at the given path.
func (parser *Parser) PrintToFile(statements []ast.Stmt, path string) error {
	return WriteASTJSONToFile(statements, path)
}

func (parser *Parser) peek() token.Token {
	return parser.tokens[parser.position]
}

func (parser *Parser) previous() token.Token {
	return parser.tokens[parser.position-1]
}

func (parser *Parser) advance() token.Token {
	if !parser.isFinished() {
		parser.position++
	}
	return parser.previous()
}

func (parser *Parser) isFinished() bool {
	tok := parser.peek()
	return tok.TokenType == token.EOF
}

func (parser *Parser) checkType(tokeType token.TokenType) bool {
	if parser.isFinished() {
		return false
	}
	tok := parser.peek()
	return tok.TokenType == tokeType
}

func (parser *Parser) isMatch(tokenTypes []token.TokenType) bool {
	for i := range tokenTypes {
		tokenType := tokenTypes[i]

		if parser.checkType(tokenType) {
			parser.advance()
			return true
		}
	}
	return false
}

// Parse parses the entire token stream into a slice of Stmt nodes,
// continuing until the end of input. Errors during parsing are collected
// but parsing continues to find additional errors where possible.
func (parser *Parser) Parse() ([]ast.Stmt, []error) {
	statements := []ast.Stmt{}
	errors := []error{}

	for {
		if parser.isFinished() {
			break
		}
		statement, err := parser.declaration()
		if err != nil {
			errors = append(errors, err)
			if !parser.isFinished() {
				parser.position++
			}
			continue
		}
		statements = append(statements, statement)
	}

	return statements, errors
}

// declaration parses a declaration statement: a mutable `var` binding, an
// immutable `const` binding, or a general statement.
func (parser *Parser) declaration() (ast.Stmt, error) {
	if parser.isMatch([]token.TokenType{token.VAR}) {
		return parser.variableDeclaration(true)
	}
	if parser.isMatch([]token.TokenType{token.CONST}) {
		return parser.variableDeclaration(false)
	}
	return parser.statement()
}

// variableDeclaration parses a variable declaration statement. It expects
// an identifier token for the variable name followed by an optional '='
// and an initializer expression.
func (parser *Parser) variableDeclaration(mutable bool) (ast.Stmt, error) {
	tok, consumeError := parser.consume(token.IDENTIFIER, "Expected variable name")
	if consumeError != nil {
		return nil, consumeError
	}

	var initialiser ast.Expression
	if parser.isMatch([]token.TokenType{token.ASSIGN}) {
		var err error
		initialiser, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}

	return ast.VarDeclStatement{
		Name:        tok.Lexeme,
		Mutable:     mutable,
		Initializer: initialiser,
		Pos:         tok,
	}, nil
}

// statement parses a single statement.
func (parser *Parser) statement() (ast.Stmt, error) {
	if parser.isMatch([]token.TokenType{token.LCUR}) {
		openTok := parser.previous()
		statements, err := parser.block()
		if err != nil {
			return nil, err
		}
		return ast.BlockStatement{Statements: statements, Pos: openTok}, nil
	}

	if parser.isMatch([]token.TokenType{token.IF}) {
		return parser.ifStatement()
	}

	if parser.isMatch([]token.TokenType{token.WHILE}) {
		return parser.whileStatement()
	}

	if parser.isMatch([]token.TokenType{token.DO}) {
		return parser.doWhileStatement()
	}

	if parser.isMatch([]token.TokenType{token.FOR}) {
		return parser.forInStatement()
	}

	if parser.isMatch([]token.TokenType{token.BREAK}) {
		return parser.breakStatement()
	}

	if parser.isMatch([]token.TokenType{token.CONTINUE}) {
		return parser.continueStatement()
	}

	if parser.isMatch([]token.TokenType{token.RETURN}) {
		return parser.returnStatement()
	}

	if parser.isMatch([]token.TokenType{token.THROW}) {
		return parser.throwStatement()
	}

	return parser.expressionStatement()
}

func (parser *Parser) whileStatement() (ast.Stmt, error) {
	tok := parser.previous()
	expr, err := parser.expression()
	if err != nil {
		return nil, err
	}

	body, err := parser.statement()
	if err != nil {
		return nil, err
	}

	return ast.WhileStatement{Condition: expr, Body: body, Pos: tok}, nil
}

func (parser *Parser) doWhileStatement() (ast.Stmt, error) {
	tok := parser.previous()
	body, err := parser.statement()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.WHILE, "Expected 'while' after 'do' body"); err != nil {
		return nil, err
	}
	cond, err := parser.expression()
	if err != nil {
		return nil, err
	}
	return ast.DoWhileStatement{Body: body, Condition: cond, Pos: tok}, nil
}

// forInStatement parses `for name in source body`.
func (parser *Parser) forInStatement() (ast.Stmt, error) {
	tok := parser.previous()
	nameTok, err := parser.consume(token.IDENTIFIER, "Expected loop variable name")
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.IN, "Expected 'in' in for-loop"); err != nil {
		return nil, err
	}
	source, err := parser.expression()
	if err != nil {
		return nil, err
	}
	body, err := parser.statement()
	if err != nil {
		return nil, err
	}

	_, isRange := source.(ast.RangeRef)
	return ast.ForInStatement{
		LoopVarName: nameTok.Lexeme,
		Source:      source,
		ConstRange:  isRange,
		Body:        body,
		Pos:         tok,
	}, nil
}

func (parser *Parser) breakStatement() (ast.Stmt, error) {
	tok := parser.previous()
	var value ast.Expression
	if !parser.checkType(token.SEMICOLON) && !parser.checkType(token.RCUR) {
		var err error
		value, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}
	return ast.BreakStatement{Value: value, Pos: tok}, nil
}

func (parser *Parser) continueStatement() (ast.Stmt, error) {
	tok := parser.previous()
	return ast.ContinueStatement{Pos: tok}, nil
}

func (parser *Parser) returnStatement() (ast.Stmt, error) {
	tok := parser.previous()
	var label *string
	if parser.isMatch([]token.TokenType{token.AT}) {
		name, err := parser.consume(token.IDENTIFIER, "expected a label name after '@'")
		if err != nil {
			return nil, err
		}
		labelName := name.Lexeme
		label = &labelName
	}
	var value ast.Expression
	if !parser.checkType(token.SEMICOLON) && !parser.checkType(token.RCUR) {
		var err error
		value, err = parser.expression()
		if err != nil {
			return nil, err
		}
	}
	return ast.ReturnStatement{Value: value, Label: label, Pos: tok}, nil
}

func (parser *Parser) throwStatement() (ast.Stmt, error) {
	tok := parser.previous()
	value, err := parser.expression()
	if err != nil {
		return nil, err
	}
	return ast.ThrowStatement{Value: value, Pos: tok}, nil
}

// ifStatement parses an if-statement, folding `elif` chains into nested
// IfStatement else-branches.
func (parser *Parser) ifStatement() (ast.Stmt, error) {
	tok := parser.previous()
	conditionExpr, err := parser.expression()
	if err != nil {
		return nil, err
	}

	thenStmt, err := parser.statement()
	if err != nil {
		return nil, err
	}

	var elseStmt ast.Stmt
	if parser.isMatch([]token.TokenType{token.ELIF}) {
		stmt, err := parser.ifStatement()
		if err != nil {
			return nil, err
		}
		elseStmt = stmt
	} else if parser.isMatch([]token.TokenType{token.ELSE}) {
		stmt, err := parser.statement()
		if err != nil {
			return nil, err
		}
		elseStmt = stmt
	}

	return ast.IfStatement{
		Condition: conditionExpr,
		ThenBlock: thenStmt,
		ElseBlock: elseStmt,
		Pos:       tok,
	}, nil
}

func (parser *Parser) expressionStatement() (ast.Stmt, error) {
	expression, err := parser.expression()
	if err != nil {
		return nil, err
	}
	return ast.ExpressionStatement{Expression: expression, Pos: parser.previous()}, nil
}

func (parser *Parser) block() ([]ast.Stmt, error) {
	statements := []ast.Stmt{}

	for !parser.checkType(token.RCUR) && !parser.isFinished() {
		stmt, err := parser.declaration()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
	}

	_, err := parser.consume(token.RCUR, fmt.Sprintf("Expected '%s' after block.", token.RCUR))
	if err != nil {
		return nil, err
	}
	return statements, nil
}

func (parser *Parser) expression() (ast.Expression, error) {
	return parser.assignment()
}

// assignment parses plain assignment, compound assignment, elvis-assignment
// and pre/post increment-decrement, all of which share the lowest
// precedence and require an assignable left-hand side.
func (parser *Parser) assignment() (ast.Expression, error) {
	expression, err := parser.ternary()
	if err != nil {
		return nil, err
	}

	if parser.isMatch([]token.TokenType{token.ASSIGN}) {
		tok := parser.previous()
		value, err := parser.assignment()
		if err != nil {
			return nil, err
		}
		if !isAssignable(expression) {
			return nil, CreateSyntaxError(tok.Line, tok.Column, "Invalid assignment target")
		}
		return ast.AssignRef{Target: expression, Value: value, Pos: tok}, nil
	}

	if parser.isMatch([]token.TokenType{token.ELVIS_EQUAL}) {
		tok := parser.previous()
		value, err := parser.assignment()
		if err != nil {
			return nil, err
		}
		if !isAssignable(expression) {
			return nil, CreateSyntaxError(tok.Line, tok.Column, "Invalid assignment target")
		}
		return ast.AssignIfNullRef{Target: expression, Value: value, Pos: tok}, nil
	}

	if parser.isMatch(assignOpTokenTypes) {
		tok := parser.previous()
		value, err := parser.assignment()
		if err != nil {
			return nil, err
		}
		if !isAssignable(expression) {
			return nil, CreateSyntaxError(tok.Line, tok.Column, "Invalid assignment target")
		}
		return ast.AssignOpRef{Target: expression, Op: assignOpToBinOp[tok.TokenType], Value: value, Pos: tok}, nil
	}

	return expression, nil
}

func isAssignable(expr ast.Expression) bool {
	switch expr.(type) {
	case ast.LocalSlotRef, ast.LocalVarRef, ast.FieldRef, ast.IndexRef, ast.ImplicitThisMemberRef:
		return true
	default:
		return false
	}
}

// ternary parses `condition ? ifTrue : ifFalse` and the elvis operator
// `left ?: right`, both sitting just above logical-or in precedence.
func (parser *Parser) ternary() (ast.Expression, error) {
	expr, err := parser.or()
	if err != nil {
		return nil, err
	}

	if parser.isMatch([]token.TokenType{token.ELVIS}) {
		tok := parser.previous()
		right, err := parser.ternary()
		if err != nil {
			return nil, err
		}
		return ast.ElvisRef{Left: expr, Right: right, Pos: tok}, nil
	}

	if parser.isMatch([]token.TokenType{token.QUESTION}) {
		tok := parser.previous()
		ifTrue, err := parser.ternary()
		if err != nil {
			return nil, err
		}
		if _, err := parser.consume(token.COLON, "Expected ':' in ternary expression"); err != nil {
			return nil, err
		}
		ifFalse, err := parser.ternary()
		if err != nil {
			return nil, err
		}
		return ast.ConditionalRef{Condition: expr, IfTrue: ifTrue, IfFalse: ifFalse, Pos: tok}, nil
	}

	return expr, nil
}

func (parser *Parser) or() (ast.Expression, error) {
	expr, err := parser.and()
	if err != nil {
		return nil, err
	}

	for parser.isMatch([]token.TokenType{token.OR}) {
		op := parser.previous()
		rightExpr, err := parser.and()
		if err != nil {
			return nil, err
		}
		expr = ast.BinaryOpRef{Op: ast.OpOr, Left: expr, Right: rightExpr, Pos: op}
	}

	return expr, nil
}

func (parser *Parser) and() (ast.Expression, error) {
	expr, err := parser.equality()
	if err != nil {
		return nil, err
	}

	for parser.isMatch([]token.TokenType{token.AND}) {
		op := parser.previous()
		rightExpr, err := parser.equality()
		if err != nil {
			return nil, err
		}
		expr = ast.BinaryOpRef{Op: ast.OpAnd, Left: expr, Right: rightExpr, Pos: op}
	}
	return expr, nil
}

func (parser *Parser) equality() (ast.Expression, error) {
	exp, err := parser.comparison()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(equalityTokenTypes) {
		operator := parser.previous()
		right, err := parser.comparison()
		if err != nil {
			return nil, err
		}
		exp = ast.BinaryOpRef{Op: binOpByToken[operator.TokenType], Left: exp, Right: right, Pos: operator}
	}
	return exp, nil
}

func (parser *Parser) comparison() (ast.Expression, error) {
	exp, err := parser.bitOr()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(comparisonTokenTypes) {
		operator := parser.previous()
		right, err := parser.bitOr()
		if err != nil {
			return nil, err
		}
		exp = ast.BinaryOpRef{Op: binOpByToken[operator.TokenType], Left: exp, Right: right, Pos: operator}
	}
	return exp, nil
}

func (parser *Parser) bitOr() (ast.Expression, error) {
	exp, err := parser.bitXor()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(bitOrTokenTypes) {
		operator := parser.previous()
		right, err := parser.bitXor()
		if err != nil {
			return nil, err
		}
		exp = ast.BinaryOpRef{Op: ast.OpBor, Left: exp, Right: right, Pos: operator}
	}
	return exp, nil
}

func (parser *Parser) bitXor() (ast.Expression, error) {
	exp, err := parser.bitAnd()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(bitXorTokenTypes) {
		operator := parser.previous()
		right, err := parser.bitAnd()
		if err != nil {
			return nil, err
		}
		exp = ast.BinaryOpRef{Op: ast.OpBxor, Left: exp, Right: right, Pos: operator}
	}
	return exp, nil
}

func (parser *Parser) bitAnd() (ast.Expression, error) {
	exp, err := parser.shift()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(bitAndTokenTypes) {
		operator := parser.previous()
		right, err := parser.shift()
		if err != nil {
			return nil, err
		}
		exp = ast.BinaryOpRef{Op: ast.OpBand, Left: exp, Right: right, Pos: operator}
	}
	return exp, nil
}

func (parser *Parser) shift() (ast.Expression, error) {
	exp, err := parser.rangeExpr()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(shiftTokenTypes) {
		operator := parser.previous()
		right, err := parser.rangeExpr()
		if err != nil {
			return nil, err
		}
		exp = ast.BinaryOpRef{Op: binOpByToken[operator.TokenType], Left: exp, Right: right, Pos: operator}
	}
	return exp, nil
}

// rangeExpr parses `a..b` and `a..=b` range literals.
func (parser *Parser) rangeExpr() (ast.Expression, error) {
	exp, err := parser.term()
	if err != nil {
		return nil, err
	}
	if parser.isMatch([]token.TokenType{token.RANGE_EXCL, token.RANGE_INCL}) {
		operator := parser.previous()
		right, err := parser.term()
		if err != nil {
			return nil, err
		}
		return ast.RangeRef{Left: exp, Right: right, IsEndInclusive: operator.TokenType == token.RANGE_INCL, Pos: operator}, nil
	}
	return exp, nil
}

func (parser *Parser) term() (ast.Expression, error) {
	exp, err := parser.factor()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(termTokenTypes) {
		operator := parser.previous()
		right, err := parser.factor()
		if err != nil {
			return nil, err
		}
		exp = ast.BinaryOpRef{Op: binOpByToken[operator.TokenType], Left: exp, Right: right, Pos: operator}
	}
	return exp, nil
}

func (parser *Parser) factor() (ast.Expression, error) {
	exp, err := parser.unary()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(factorExpressionTypes) {
		operator := parser.previous()
		right, err := parser.unary()
		if err != nil {
			return nil, err
		}
		exp = ast.BinaryOpRef{Op: binOpByToken[operator.TokenType], Left: exp, Right: right, Pos: operator}
	}
	return exp, nil
}

func (parser *Parser) unary() (ast.Expression, error) {
	if parser.isMatch([]token.TokenType{token.PLUS_PLUS, token.MINUS_MINUS}) {
		tok := parser.previous()
		target, err := parser.unary()
		if err != nil {
			return nil, err
		}
		if !isAssignable(target) {
			return nil, CreateSyntaxError(tok.Line, tok.Column, "Invalid increment/decrement target")
		}
		return ast.IncDecRef{Target: target, IsIncrement: tok.TokenType == token.PLUS_PLUS, IsPost: false, Pos: tok}, nil
	}

	if parser.isMatch(unaryExpressionTypes) {
		operator := parser.previous()
		right, err := parser.unary()
		if err != nil {
			return nil, err
		}
		var op ast.UnaryOp
		switch operator.TokenType {
		case token.BANG:
			op = ast.OpNot
		case token.TILDE:
			op = ast.OpBitNot
		default:
			op = ast.OpNegate
		}
		return ast.UnaryOpRef{Op: op, Operand: right, Pos: operator}, nil
	}
	return parser.postfix()
}

// postfix parses call, field-access, index-access and trailing
// increment/decrement applied to a primary expression, left to right.
func (parser *Parser) postfix() (ast.Expression, error) {
	expr, err := parser.primary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case parser.isMatch([]token.TokenType{token.LPA}):
			tok := parser.previous()
			args, err := parser.argumentList()
			if err != nil {
				return nil, err
			}
			expr = ast.CallRef{Target: expr, Args: args, Pos: tok}

		case parser.isMatch([]token.TokenType{token.DOT}):
			tok := parser.previous()
			name, err := parser.consume(token.IDENTIFIER, "Expected property name after '.'")
			if err != nil {
				return nil, err
			}
			if parser.checkType(token.LPA) {
				parser.advance()
				args, err := parser.argumentList()
				if err != nil {
					return nil, err
				}
				expr = ast.MethodCallRef{Receiver: expr, Method: name.Lexeme, Args: args, Pos: tok}
			} else {
				expr = ast.FieldRef{Receiver: expr, Name: name.Lexeme, Pos: tok}
			}

		case parser.isMatch([]token.TokenType{token.QUESTION_DOT}):
			tok := parser.previous()
			name, err := parser.consume(token.IDENTIFIER, "Expected property name after '?.'")
			if err != nil {
				return nil, err
			}
			if parser.checkType(token.LPA) {
				parser.advance()
				args, err := parser.argumentList()
				if err != nil {
					return nil, err
				}
				expr = ast.MethodCallRef{Receiver: expr, Method: name.Lexeme, Args: args, Optional: true, Pos: tok}
			} else {
				expr = ast.FieldRef{Receiver: expr, Name: name.Lexeme, Optional: true, Pos: tok}
			}

		case parser.isMatch([]token.TokenType{token.LBRK}):
			tok := parser.previous()
			index, err := parser.expression()
			if err != nil {
				return nil, err
			}
			if _, err := parser.consume(token.RBRK, "Expected ']' after index expression"); err != nil {
				return nil, err
			}
			expr = ast.IndexRef{Target: expr, IndexRef: index, Pos: tok}

		case parser.isMatch([]token.TokenType{token.PLUS_PLUS, token.MINUS_MINUS}):
			tok := parser.previous()
			if !isAssignable(expr) {
				return nil, CreateSyntaxError(tok.Line, tok.Column, "Invalid increment/decrement target")
			}
			expr = ast.IncDecRef{Target: expr, IsIncrement: tok.TokenType == token.PLUS_PLUS, IsPost: true, Pos: tok}

		default:
			return expr, nil
		}
	}
}

// argumentList parses a parenthesised, comma-separated call-argument list
// assuming the opening '(' has already been consumed.
func (parser *Parser) argumentList() ([]ast.Arg, error) {
	args := []ast.Arg{}
	if !parser.checkType(token.RPA) {
		for {
			spread := false
			if parser.isMatch([]token.TokenType{token.RANGE_EXCL}) {
				spread = true
			}
			value, err := parser.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Arg{Value: value, IsSplat: spread})
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
	}
	if _, err := parser.consume(token.RPA, "Expected ')' after arguments"); err != nil {
		return nil, err
	}
	return args, nil
}

// primary parses the most basic forms of expressions: literals, list
// literals, identifiers and parenthesised sub-expressions.
func (parser *Parser) primary() (ast.Expression, error) {
	if parser.isMatch([]token.TokenType{token.FALSE}) {
		return ast.ConstRef{Value: false, Pos: parser.previous()}, nil
	}
	if parser.isMatch([]token.TokenType{token.NULL}) {
		return ast.ConstRef{Value: nil, Pos: parser.previous()}, nil
	}
	if parser.isMatch([]token.TokenType{token.TRUE}) {
		return ast.ConstRef{Value: true, Pos: parser.previous()}, nil
	}

	if parser.isMatch([]token.TokenType{token.FLOAT, token.INT, token.STRING}) {
		tok := parser.previous()
		return ast.ConstRef{Value: tok.Literal, Pos: tok}, nil
	}

	if parser.isMatch([]token.TokenType{token.IDENTIFIER}) {
		return ast.LocalVarRef{Name: parser.previous().Lexeme, Pos: parser.previous()}, nil
	}

	if parser.isMatch([]token.TokenType{token.LBRK}) {
		tok := parser.previous()
		entries := []ast.ListEntry{}
		for !parser.checkType(token.RBRK) {
			spread := false
			if parser.isMatch([]token.TokenType{token.RANGE_EXCL}) {
				spread = true
			}
			value, err := parser.expression()
			if err != nil {
				return nil, err
			}
			entries = append(entries, ast.ListEntry{Value: value, IsSpread: spread})
			if !parser.isMatch([]token.TokenType{token.COMMA}) {
				break
			}
		}
		if _, err := parser.consume(token.RBRK, "Expected ']' after list literal"); err != nil {
			return nil, err
		}
		return ast.ListLiteralRef{Entries: entries, Pos: tok}, nil
	}

	if parser.isMatch([]token.TokenType{token.LPA}) {
		expr, err := parser.expression()
		if err != nil {
			return nil, err
		}
		_, consumeErr := parser.consume(token.RPA, fmt.Sprintf("expression is missing '%s'", token.RPA))
		if consumeErr != nil {
			return nil, consumeErr
		}
		return expr, nil
	}

	currentToken := parser.peek()
	return nil, CreateSyntaxError(currentToken.Line, currentToken.Column, "Unrecognised expression.")
}

// consume advances past the current token if it matches tokenType,
// otherwise it returns a SyntaxError carrying errorMessage.
func (parser *Parser) consume(tokenType token.TokenType, errorMessage string) (token.Token, error) {
	if parser.checkType(tokenType) {
		return parser.advance(), nil
	}
	currentToken := parser.peek()
	return token.CreateToken(token.EOF, 0, 0), CreateSyntaxError(currentToken.Line, currentToken.Column, errorMessage)
}
