package token

import (
	"testing"
)

func TestCreateToken(t *testing.T) {
	tests := []struct {
		name      string
		tokenType TokenType
		line      int32
		column    int
		wantLex   string
	}{
		{name: "Create ASSIGN token", tokenType: ASSIGN, line: 0, column: 0, wantLex: "="},
		{name: "Create MULT token", tokenType: MULT, line: 1, column: 2, wantLex: "*"},
		{name: "Create ARROW token", tokenType: ARROW, line: 2, column: 4, wantLex: "=>"},
		{name: "Create RANGE_INCL token", tokenType: RANGE_INCL, line: 3, column: 1, wantLex: "..="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CreateToken(tt.tokenType, tt.line, tt.column)
			if got.TokenType != tt.tokenType {
				t.Errorf("TokenType = %v, want %v", got.TokenType, tt.tokenType)
			}
			if got.Lexeme != tt.wantLex {
				t.Errorf("Lexeme = %q, want %q", got.Lexeme, tt.wantLex)
			}
			if got.Line != tt.line || got.Column != tt.column {
				t.Errorf("position = (%d,%d), want (%d,%d)", got.Line, got.Column, tt.line, tt.column)
			}
		})
	}
}

func TestCreateLiteralToken(t *testing.T) {
	tok := CreateLiteralToken(INT, int64(42), "42", 0, 0)
	if tok.Literal != int64(42) {
		t.Errorf("Literal = %v, want 42", tok.Literal)
	}
	if tok.Lexeme != "42" {
		t.Errorf("Lexeme = %q, want %q", tok.Lexeme, "42")
	}
}

func TestKeyWordsResolveNewControlFlow(t *testing.T) {
	for _, kw := range []string{"in", "is", "continue", "throw", "do"} {
		if _, ok := KeyWords[kw]; !ok {
			t.Errorf("expected %q to be a registered keyword", kw)
		}
	}
}
