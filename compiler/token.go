package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the Sprat lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenInteger    // 42, 16rFF, 2r1010
	TokenFloat      // 3.14, 1.5e10
	TokenString     // 'hello'
	TokenDocstring  // """docstring"""
	TokenSymbol     // #foo, #'hello world', #+
	TokenCharacter  // $a
	TokenIdentifier // foo, Bar, math.Pi

	// Keywords and selectors
	TokenKeyword        // foo:, at:put:
	TokenBinarySelector // +, -, *, /, <, >, =, ->, etc.

	// Delimiters
	TokenLParen      // (
	TokenRParen      // )
	TokenLBracket    // [
	TokenRBracket    // ]
	TokenLBrace      // {
	TokenRBrace      // }
	TokenHashLBrace  // #{
	TokenCaret       // ^
	TokenPeriod      // .
	TokenComma       // ,
	TokenSemicolon   // ;
	TokenAssign      // :=
	TokenColon       // :
	TokenDoubleColon // ::
	TokenBar         // |

	// Reserved words
	TokenSelf
	TokenNil
	TokenTrue
	TokenFalse
	TokenIs
	TokenLet
	TokenRaise
	TokenClass
	TokenInterface
	TokenExtend
	TokenDefine
	TokenImport
)

var tokenNames = map[TokenType]string{
	TokenEOF:            "end of input",
	TokenError:          "ERROR",
	TokenInteger:        "INTEGER",
	TokenFloat:          "FLOAT",
	TokenString:         "STRING",
	TokenDocstring:      "DOCSTRING",
	TokenSymbol:         "SYMBOL",
	TokenCharacter:      "CHARACTER",
	TokenIdentifier:     "IDENTIFIER",
	TokenKeyword:        "KEYWORD",
	TokenBinarySelector: "BINARY",
	TokenLParen:         "(",
	TokenRParen:         ")",
	TokenLBracket:       "[",
	TokenRBracket:       "]",
	TokenLBrace:         "{",
	TokenRBrace:         "}",
	TokenHashLBrace:     "#{",
	TokenCaret:          "^",
	TokenPeriod:         ".",
	TokenComma:          ",",
	TokenSemicolon:      ";",
	TokenAssign:         ":=",
	TokenColon:          ":",
	TokenDoubleColon:    "::",
	TokenBar:            "|",
	TokenSelf:           "self",
	TokenNil:            "nil",
	TokenTrue:           "true",
	TokenFalse:          "false",
	TokenIs:             "is",
	TokenLet:            "let",
	TokenRaise:          "raise",
	TokenClass:          "class",
	TokenInterface:      "interface",
	TokenExtend:         "extend",
	TokenDefine:         "define",
	TokenImport:         "import",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string   // the decoded text
	Pos     Position // start position
	End     Position // position just past the last character
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "EOF"
	}
	if t.Type == TokenError {
		return fmt.Sprintf("ERROR(%s)", t.Literal)
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}

// endsOperand reports whether a token of this type can end an operand. A
// '-' directly followed by a digit after such a token is a binary minus, not
// the sign of a negative literal.
func (t TokenType) endsOperand() bool {
	switch t {
	case TokenInteger, TokenFloat, TokenString, TokenSymbol, TokenCharacter,
		TokenIdentifier, TokenRParen, TokenRBracket, TokenRBrace,
		TokenSelf, TokenNil, TokenTrue, TokenFalse:
		return true
	}
	return false
}

// Reserved words mapped to their token types.
var reservedWords = map[string]TokenType{
	"self":      TokenSelf,
	"nil":       TokenNil,
	"true":      TokenTrue,
	"false":     TokenFalse,
	"is":        TokenIs,
	"let":       TokenLet,
	"raise":     TokenRaise,
	"class":     TokenClass,
	"interface": TokenInterface,
	"extend":    TokenExtend,
	"define":    TokenDefine,
	"import":    TokenImport,
}

// IsReserved reports whether name is a reserved word.
func IsReserved(name string) bool {
	_, ok := reservedWords[name]
	return ok
}

// IsBinaryChar returns true if r is a valid binary selector character.
func IsBinaryChar(r rune) bool {
	switch r {
	case '+', '-', '*', '/', '\\', '~', '<', '>', '=', '@', '%', '|', '&', '?', '!':
		return true
	}
	return false
}
