package lexer

import (
	"cinder/token"
	"testing"
)

func tokenTypes(tokens []token.Token) []token.TokenType {
	types := make([]token.TokenType, 0, len(tokens))
	for _, tok := range tokens {
		types = append(types, tok.TokenType)
	}
	return types
}

func assertTypes(t *testing.T, got []token.TokenType, want []token.TokenType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d tokens %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestOperatorsSuccess(t *testing.T) {
	scanner := New("==/=*+>-<!=<=>=!!")
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("scanner.Scan() raised an error: %v", err)
	}

	want := []token.TokenType{
		token.EQUAL_EQUAL,
		token.SLASH_EQUAL,
		token.MULT,
		token.ADD,
		token.LARGER,
		token.SUB,
		token.LESS,
		token.NOT_EQUAL,
		token.LESS_EQUAL,
		token.LARGER_EQUAL,
		token.BANG,
		token.BANG,
		token.EOF,
	}
	assertTypes(t, tokenTypes(got), want)
}

func TestScanSuccess(t *testing.T) {
	scanner := New("(){}**;+!=<=")
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("scanner.Scan() raised an error: %v", err)
	}

	want := []token.TokenType{
		token.LPA,
		token.RPA,
		token.LCUR,
		token.RCUR,
		token.MULT,
		token.MULT,
		token.SEMICOLON,
		token.ADD,
		token.NOT_EQUAL,
		token.LESS_EQUAL,
		token.EOF,
	}
	assertTypes(t, tokenTypes(got), want)
}

func TestScanExtendedOperators(t *testing.T) {
	scanner := New("=== !== >>> << >> ?. ?: ?:= .. ..= += -= *= /= %= ++ -- ~ & | ^ @ => :")
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("scanner.Scan() raised an error: %v", err)
	}

	want := []token.TokenType{
		token.REF_EQUAL,
		token.REF_NOT_EQUAL,
		token.USHR,
		token.SHL,
		token.SHR,
		token.QUESTION_DOT,
		token.ELVIS,
		token.ELVIS_EQUAL,
		token.RANGE_EXCL,
		token.RANGE_INCL,
		token.PLUS_EQUAL,
		token.MINUS_EQUAL,
		token.STAR_EQUAL,
		token.SLASH_EQUAL,
		token.PERCENT_EQUAL,
		token.PLUS_PLUS,
		token.MINUS_MINUS,
		token.TILDE,
		token.AMP,
		token.PIPE,
		token.CARET,
		token.AT,
		token.ARROW,
		token.COLON,
		token.EOF,
	}
	assertTypes(t, tokenTypes(got), want)
}

func TestScanKeywords(t *testing.T) {
	scanner := New("for in is continue throw do")
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("scanner.Scan() raised an error: %v", err)
	}

	want := []token.TokenType{
		token.FOR,
		token.IN,
		token.IS,
		token.CONTINUE,
		token.THROW,
		token.DO,
		token.EOF,
	}
	assertTypes(t, tokenTypes(got), want)
}

func TestScanRangeVsFloat(t *testing.T) {
	scanner := New("1.5 0..10")
	got, err := scanner.Scan()
	if err != nil {
		t.Fatalf("scanner.Scan() raised an error: %v", err)
	}

	want := []token.TokenType{
		token.FLOAT,
		token.INT,
		token.RANGE_EXCL,
		token.INT,
		token.EOF,
	}
	assertTypes(t, tokenTypes(got), want)
}
