package compiler

import (
	"testing"
)

func TestLexerBasicTokens(t *testing.T) {
	input := `( ) [ ] { } #{ ^ . , ; := : :: |`
	expected := []struct {
		typ TokenType
		lit string
	}{
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenLBracket, "["},
		{TokenRBracket, "]"},
		{TokenLBrace, "{"},
		{TokenRBrace, "}"},
		{TokenHashLBrace, "#{"},
		{TokenCaret, "^"},
		{TokenPeriod, "."},
		{TokenComma, ","},
		{TokenSemicolon, ";"},
		{TokenAssign, ":="},
		{TokenColon, ":"},
		{TokenDoubleColon, "::"},
		{TokenBar, "|"},
		{TokenEOF, ""},
	}

	l := NewLexer(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ {
			t.Errorf("token[%d] type = %v, want %v", i, tok.Type, exp.typ)
		}
		if tok.Literal != exp.lit {
			t.Errorf("token[%d] literal = %q, want %q", i, tok.Literal, exp.lit)
		}
	}
}

func TestLexerIntegers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"42", "42"},
		{"0", "0"},
		{"-123", "-123"},
		{"16rFF", "16rFF"},
		{"2r1010", "2r1010"},
	}

	for _, tc := range tests {
		l := NewLexer(tc.input)
		tok := l.NextToken()
		if tok.Type != TokenInteger {
			t.Errorf("Lexer(%q): type = %v, want INTEGER", tc.input, tok.Type)
		}
		if tok.Literal != tc.want {
			t.Errorf("Lexer(%q): literal = %q, want %q", tc.input, tok.Literal, tc.want)
		}
	}
}

func TestLexerFloats(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"3.14", "3.14"},
		{"-2.5", "-2.5"},
		{"1e10", "1e10"},
		{"1.5e-3", "1.5e-3"},
	}

	for _, tc := range tests {
		l := NewLexer(tc.input)
		tok := l.NextToken()
		if tok.Type != TokenFloat {
			t.Errorf("Lexer(%q): type = %v, want FLOAT", tc.input, tok.Type)
		}
		if tok.Literal != tc.want {
			t.Errorf("Lexer(%q): literal = %q, want %q", tc.input, tok.Literal, tc.want)
		}
	}
}

func TestLexerMinusAfterOperand(t *testing.T) {
	tokens := Tokenize("x-1")
	want := []TokenType{TokenIdentifier, TokenBinarySelector, TokenInteger, TokenEOF}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens (%v), want %d", len(tokens), tokens, len(want))
	}
	for i, typ := range want {
		if tokens[i].Type != typ {
			t.Errorf("token[%d] = %v, want %v", i, tokens[i].Type, typ)
		}
	}
	if tokens[2].Literal != "1" {
		t.Errorf("literal = %q, want 1", tokens[2].Literal)
	}

	tokens = Tokenize("1 to: -6")
	if tokens[2].Type != TokenInteger || tokens[2].Literal != "-6" {
		t.Errorf("keyword argument: got %v, want INTEGER(-6)", tokens[2])
	}
}

func TestLexerStrings(t *testing.T) {
	tok := NewLexer(`'it''s'`).NextToken()
	if tok.Type != TokenString || tok.Literal != "it's" {
		t.Errorf("got %v, want STRING(it's)", tok)
	}

	tok = NewLexer(`'open`).NextToken()
	if tok.Type != TokenError || tok.Literal != "unterminated string" {
		t.Errorf("got %v, want unterminated string error", tok)
	}
}

func TestLexerKeywordsAndTypes(t *testing.T) {
	tests := []struct {
		input string
		types []TokenType
	}{
		{"at:put:", []TokenType{TokenKeyword, TokenKeyword}},
		{"x::Integer", []TokenType{TokenIdentifier, TokenDoubleColon, TokenIdentifier}},
		{"x := 3", []TokenType{TokenIdentifier, TokenAssign, TokenInteger}},
		{"math.Pi", []TokenType{TokenIdentifier}},
		{"x. Foo", []TokenType{TokenIdentifier, TokenPeriod, TokenIdentifier}},
		{"a is b", []TokenType{TokenIdentifier, TokenIs, TokenIdentifier}},
		{"let raise class", []TokenType{TokenLet, TokenRaise, TokenClass}},
		{"is: Foo", []TokenType{TokenKeyword, TokenIdentifier}},
	}

	for _, tc := range tests {
		tokens := Tokenize(tc.input)
		if len(tokens) != len(tc.types)+1 {
			t.Errorf("Tokenize(%q) = %v, want %d tokens", tc.input, tokens, len(tc.types))
			continue
		}
		for i, typ := range tc.types {
			if tokens[i].Type != typ {
				t.Errorf("Tokenize(%q)[%d] = %v, want %v", tc.input, i, tokens[i].Type, typ)
			}
		}
	}
}

func TestLexerComments(t *testing.T) {
	tokens := Tokenize(`"a comment" 42 # trailing
	7`)
	if len(tokens) != 3 || tokens[0].Literal != "42" || tokens[1].Literal != "7" {
		t.Errorf("got %v, want 42 7 EOF", tokens)
	}

	tok := NewLexer(`"never closed`).NextToken()
	if tok.Type != TokenError || tok.Literal != "unterminated comment" {
		t.Errorf("got %v, want unterminated comment", tok)
	}
}

func TestLexerPositions(t *testing.T) {
	tokens := Tokenize("a\n  bc")
	if got := tokens[1].Pos; got.Line != 2 || got.Column != 3 || got.Offset != 4 {
		t.Errorf("bc position = %+v, want line 2 column 3 offset 4", got)
	}
	if got := tokens[1].End.Offset; got != 6 {
		t.Errorf("bc end offset = %d, want 6", got)
	}
}

func TestLexerDocstring(t *testing.T) {
	tok := NewLexer("\"\"\"Adds\n    two numbers.\"\"\"").NextToken()
	if tok.Type != TokenDocstring {
		t.Fatalf("type = %v, want DOCSTRING", tok.Type)
	}
	if tok.Literal != "Adds\ntwo numbers." {
		t.Errorf("literal = %q", tok.Literal)
	}
}
