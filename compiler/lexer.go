package compiler

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: Tokenizer for Sprat syntax
// ---------------------------------------------------------------------------

// Lexer tokenizes Sprat source code.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // current line (1-based)
	col     int  // current column (1-based)
	last    TokenType
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
		last:  TokenEOF,
	}
	l.readChar()
	return l
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = len(l.input)
		l.col++
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
	l.col++
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// peekCharAt returns the character n runes past the current one.
func (l *Lexer) peekCharAt(n int) rune {
	off := l.readPos
	var r rune
	for i := 0; i < n; i++ {
		if off >= len(l.input) {
			return 0
		}
		var size int
		r, size = utf8.DecodeRuneInString(l.input[off:])
		off += size
	}
	return r
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	tok := l.scan()
	tok.End = l.position()
	l.last = tok.Type
	return tok
}

func (l *Lexer) scan() Token {
	if msg := l.skipWhitespaceAndComments(); msg != "" {
		return Token{Type: TokenError, Literal: msg, Pos: l.position()}
	}

	pos := l.position()

	switch {
	case l.ch == 0:
		return Token{Type: TokenEOF, Literal: "", Pos: pos}

	case l.ch == '(':
		l.readChar()
		return Token{Type: TokenLParen, Literal: "(", Pos: pos}

	case l.ch == ')':
		l.readChar()
		return Token{Type: TokenRParen, Literal: ")", Pos: pos}

	case l.ch == '[':
		l.readChar()
		return Token{Type: TokenLBracket, Literal: "[", Pos: pos}

	case l.ch == ']':
		l.readChar()
		return Token{Type: TokenRBracket, Literal: "]", Pos: pos}

	case l.ch == '{':
		l.readChar()
		return Token{Type: TokenLBrace, Literal: "{", Pos: pos}

	case l.ch == '}':
		l.readChar()
		return Token{Type: TokenRBrace, Literal: "}", Pos: pos}

	case l.ch == '^':
		l.readChar()
		return Token{Type: TokenCaret, Literal: "^", Pos: pos}

	case l.ch == '.':
		l.readChar()
		return Token{Type: TokenPeriod, Literal: ".", Pos: pos}

	case l.ch == ',':
		l.readChar()
		return Token{Type: TokenComma, Literal: ",", Pos: pos}

	case l.ch == ';':
		l.readChar()
		return Token{Type: TokenSemicolon, Literal: ";", Pos: pos}

	case l.ch == ':':
		l.readChar()
		switch l.ch {
		case '=':
			l.readChar()
			return Token{Type: TokenAssign, Literal: ":=", Pos: pos}
		case ':':
			l.readChar()
			return Token{Type: TokenDoubleColon, Literal: "::", Pos: pos}
		}
		return Token{Type: TokenColon, Literal: ":", Pos: pos}

	case l.ch == '|':
		l.readChar()
		return Token{Type: TokenBar, Literal: "|", Pos: pos}

	case l.ch == '"' && l.peekChar() == '"' && l.peekCharAt(2) == '"':
		return l.readDocstring(pos)

	case l.ch == '#':
		return l.readHashToken(pos)

	case l.ch == '\'':
		return l.readString(pos)

	case l.ch == '$':
		return l.readCharacter(pos)

	case isDigit(l.ch):
		return l.readNumber(pos)

	case l.ch == '-' && isDigit(l.peekChar()) && !l.last.endsOperand():
		return l.readNumber(pos)

	case isLetter(l.ch) || l.ch == '_':
		return l.readIdentifierOrKeyword(pos)

	case IsBinaryChar(l.ch):
		return l.readBinarySelector(pos)

	default:
		ch := l.ch
		l.readChar()
		return Token{Type: TokenError, Literal: fmt.Sprintf("unexpected character: %c", ch), Pos: pos}
	}
}

// skipWhitespaceAndComments skips whitespace and comments. It returns a
// non-empty message when a comment runs off the end of the input.
func (l *Lexer) skipWhitespaceAndComments() string {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}

		// "..." comments, but not """docstrings"""
		if l.ch == '"' {
			if l.peekChar() == '"' && l.peekCharAt(2) == '"' {
				return ""
			}
			l.readChar()
			for l.ch != '"' && l.ch != 0 {
				l.readChar()
			}
			if l.ch == 0 {
				return "unterminated comment"
			}
			l.readChar()
			continue
		}

		// # followed by whitespace is a line comment
		if l.ch == '#' {
			peek := l.peekChar()
			if peek == ' ' || peek == '\t' || peek == '\n' || peek == '\r' || peek == 0 {
				for l.ch != '\n' && l.ch != 0 {
					l.readChar()
				}
				continue
			}
		}

		return ""
	}
}

// readHashToken reads a token starting with #.
func (l *Lexer) readHashToken(pos Position) Token {
	l.readChar() // consume #

	switch {
	case l.ch == '{':
		l.readChar()
		return Token{Type: TokenHashLBrace, Literal: "#{", Pos: pos}

	case l.ch == '\'':
		tok := l.readString(pos)
		if tok.Type == TokenString {
			tok.Type = TokenSymbol
		}
		return tok

	case isLetter(l.ch) || l.ch == '_':
		return l.readSymbol(pos)

	case IsBinaryChar(l.ch):
		start := l.pos
		for IsBinaryChar(l.ch) {
			l.readChar()
		}
		return Token{Type: TokenSymbol, Literal: l.input[start:l.pos], Pos: pos}

	default:
		return Token{Type: TokenError, Literal: "unexpected '#'", Pos: pos}
	}
}

// readSymbol reads a symbol starting with a letter: #foo or #at:put:.
func (l *Lexer) readSymbol(pos Position) Token {
	var sb strings.Builder

	for {
		for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
			sb.WriteRune(l.ch)
			l.readChar()
		}

		if l.ch == ':' && l.peekChar() != ':' && l.peekChar() != '=' {
			sb.WriteRune(':')
			l.readChar()
			if isLetter(l.ch) || l.ch == '_' {
				continue
			}
		}
		break
	}

	return Token{Type: TokenSymbol, Literal: sb.String(), Pos: pos}
}

// readDocstring reads a triple-quoted docstring literal: """..."""
func (l *Lexer) readDocstring(pos Position) Token {
	l.readChar()
	l.readChar()
	l.readChar()

	var sb strings.Builder
	for l.ch != 0 {
		if l.ch == '"' && l.peekChar() == '"' && l.peekCharAt(2) == '"' {
			l.readChar()
			l.readChar()
			l.readChar()
			return Token{Type: TokenDocstring, Literal: dedentDocstring(sb.String()), Pos: pos}
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}

	return Token{Type: TokenError, Literal: "unterminated docstring", Pos: pos}
}

// dedentDocstring strips common leading whitespace from a docstring.
func dedentDocstring(s string) string {
	lines := strings.Split(s, "\n")

	minIndent := -1
	for i, line := range lines {
		if i == 0 {
			continue
		}
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}

	if minIndent <= 0 {
		return strings.TrimSpace(s)
	}

	for i := 1; i < len(lines); i++ {
		if len(lines[i]) >= minIndent {
			lines[i] = lines[i][minIndent:]
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// readString reads a string literal. A doubled quote is an escaped quote.
func (l *Lexer) readString(pos Position) Token {
	l.readChar() // consume opening '

	var sb strings.Builder
	for l.ch != 0 {
		if l.ch == '\'' {
			if l.peekChar() == '\'' {
				sb.WriteRune('\'')
				l.readChar()
				l.readChar()
				continue
			}
			break
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}

	if l.ch != '\'' {
		return Token{Type: TokenError, Literal: "unterminated string", Pos: pos}
	}
	l.readChar()
	return Token{Type: TokenString, Literal: sb.String(), Pos: pos}
}

// readCharacter reads a character literal.
func (l *Lexer) readCharacter(pos Position) Token {
	l.readChar() // consume $

	if l.ch == 0 {
		return Token{Type: TokenError, Literal: "unexpected end of input in character literal", Pos: pos}
	}

	ch := l.ch
	l.readChar()
	return Token{Type: TokenCharacter, Literal: string(ch), Pos: pos}
}

// readNumber reads an integer or float literal.
func (l *Lexer) readNumber(pos Position) Token {
	start := l.pos
	isFloat := false

	if l.ch == '-' {
		l.readChar()
	}

	for isDigit(l.ch) {
		l.readChar()
	}

	// 16rFF
	if l.ch == 'r' && isHexDigit(l.peekChar()) {
		l.readChar()
		for isHexDigit(l.ch) {
			l.readChar()
		}
		return Token{Type: TokenInteger, Literal: l.input[start:l.pos], Pos: pos}
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	if (l.ch == 'e' || l.ch == 'E') && (isDigit(l.peekChar()) ||
		((l.peekChar() == '-' || l.peekChar() == '+') && isDigit(l.peekCharAt(2)))) {
		isFloat = true
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	if isFloat {
		return Token{Type: TokenFloat, Literal: l.input[start:l.pos], Pos: pos}
	}
	return Token{Type: TokenInteger, Literal: l.input[start:l.pos], Pos: pos}
}

// readIdentifierOrKeyword reads an identifier or keyword. A period directly
// followed by an uppercase letter continues the identifier, which is how
// prefixed imports are written (math.Pi).
func (l *Lexer) readIdentifierOrKeyword(pos Position) Token {
	start := l.pos

	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	for l.ch == '.' && unicode.IsUpper(l.peekChar()) {
		l.readChar()
		for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
			l.readChar()
		}
	}

	literal := l.input[start:l.pos]
	qualified := strings.Contains(literal, ".")

	if !qualified && l.ch == ':' && l.peekChar() != '=' && l.peekChar() != ':' {
		l.readChar() // consume :
		return Token{Type: TokenKeyword, Literal: literal + ":", Pos: pos}
	}

	if !qualified {
		if tokType, ok := reservedWords[literal]; ok {
			return Token{Type: tokType, Literal: literal, Pos: pos}
		}
	}

	return Token{Type: TokenIdentifier, Literal: literal, Pos: pos}
}

// readBinarySelector reads a binary selector.
func (l *Lexer) readBinarySelector(pos Position) Token {
	start := l.pos

	for IsBinaryChar(l.ch) {
		// x--1 is x - -1
		if l.pos > start && l.ch == '-' && isDigit(l.peekChar()) {
			break
		}
		l.readChar()
	}

	return Token{Type: TokenBinarySelector, Literal: l.input[start:l.pos], Pos: pos}
}

// Helper functions

func isLetter(r rune) bool {
	return unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// Tokenize returns all tokens from the input.
func Tokenize(input string) []Token {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}
	return tokens
}
