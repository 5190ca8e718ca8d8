package compiler

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser for Sprat syntax
// ---------------------------------------------------------------------------

// Error is a parse error. Incomplete is set when the input ended before the
// construct being parsed was finished, so more input could make it valid.
type Error struct {
	Span       Span
	Message    string
	Incomplete bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Span.Start.Line, e.Span.Start.Column, e.Message)
}

// IsIncomplete reports whether err is a parse error caused by input ending
// too early.
func IsIncomplete(err error) bool {
	if pe, ok := err.(*Error); ok {
		return pe.Incomplete
	}
	return false
}

// Parser parses Sprat source code into an AST, one top-level form at a time.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
	prevEnd   Position
	err       *Error
	input     string
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
		input: input,
	}
	p.nextToken()
	p.nextToken()
	return p
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.prevEnd = p.curToken.End
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

// curTokenIs checks if the current token is of the given type.
func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

// peekTokenIs checks if the peek token is of the given type.
func (p *Parser) peekTokenIs(t TokenType) bool {
	return p.peekToken.Type == t
}

// expect advances if the current token matches, otherwise records an error.
func (p *Parser) expect(t TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf("expected '%s', got %s", t, describe(p.curToken))
	return false
}

// errorf records a parse error at the current token. Only the first error is
// kept; afterwards the parser sits at end of input so every loop unwinds.
func (p *Parser) errorf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	tok := p.curToken
	e := &Error{
		Span:    MakeSpan(tok.Pos, tok.End),
		Message: fmt.Sprintf(format, args...),
	}
	switch tok.Type {
	case TokenEOF:
		e.Incomplete = true
	case TokenError:
		e.Message = tok.Literal
		e.Incomplete = tok.End.Offset >= len(p.input) && strings.HasPrefix(tok.Literal, "unterminated")
	}
	p.err = e
	p.curToken = Token{Type: TokenEOF, Pos: tok.End, End: tok.End}
	p.peekToken = p.curToken
}

func (p *Parser) failed() bool {
	return p.err != nil
}

func describe(tok Token) string {
	switch tok.Type {
	case TokenEOF:
		return "end of input"
	case TokenError:
		return tok.Literal
	}
	return fmt.Sprintf("'%s'", tok.Literal)
}

// ---------------------------------------------------------------------------
// Top-level parsing
// ---------------------------------------------------------------------------

// Parse parses a whole source text.
func Parse(input string) ([]Node, error) {
	p := NewParser(input)
	var nodes []Node
	for {
		n, err := p.Next()
		if err == io.EOF {
			return nodes, nil
		}
		if err != nil {
			return nodes, err
		}
		nodes = append(nodes, n)
	}
}

// ParseExpression parses input as a single expression.
func ParseExpression(input string) (Expr, error) {
	p := NewParser(input)
	e := p.parseStatement()
	if !p.failed() && !p.curTokenIs(TokenEOF) {
		p.errorf("unexpected %s after expression", describe(p.curToken))
	}
	if p.err != nil {
		return nil, p.err
	}
	return e, nil
}

// Next parses the next top-level form: a definition, an import or a
// statement. It returns io.EOF when the input is exhausted.
func (p *Parser) Next() (Node, error) {
	if p.err != nil {
		return nil, p.err
	}
	for p.curTokenIs(TokenPeriod) {
		p.nextToken()
	}

	var doc string
	if p.curTokenIs(TokenDocstring) {
		doc = p.curToken.Literal
		p.nextToken()
	}

	var n Node
	switch p.curToken.Type {
	case TokenEOF:
		if p.err != nil {
			return nil, p.err
		}
		return nil, io.EOF
	case TokenClass:
		n = p.parseClassDef(KindClass, doc)
	case TokenInterface:
		n = p.parseClassDef(KindInterface, doc)
	case TokenExtend:
		n = p.parseClassDef(KindExtend, doc)
	case TokenDefine:
		n = p.parseDefine()
		p.endStatement()
	case TokenImport:
		n = p.parseImport()
		p.endStatement()
	default:
		n = p.parseStatement()
		p.endStatement()
	}

	if p.err != nil {
		return nil, p.err
	}
	return n, nil
}

// endStatement requires a period or the end of input after a top-level form.
func (p *Parser) endStatement() {
	if p.failed() {
		return
	}
	switch {
	case p.curTokenIs(TokenPeriod):
		p.nextToken()
	case p.curTokenIs(TokenEOF):
	default:
		p.errorf("expected '.', got %s", describe(p.curToken))
	}
}

// parseStatement parses ^expr, raise expr, let or an expression.
func (p *Parser) parseStatement() Expr {
	switch {
	case p.curTokenIs(TokenCaret):
		start := p.curToken.Pos
		p.nextToken()
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		return &Return{SpanVal: MakeSpan(start, p.prevEnd), Value: value}

	case p.curTokenIs(TokenRaise):
		start := p.curToken.Pos
		p.nextToken()
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		return &Raise{SpanVal: MakeSpan(start, p.prevEnd), Value: value}

	case p.curTokenIs(TokenLet):
		if let := p.parseLet(); let != nil {
			return let
		}
		return nil
	}
	return p.parseExpression()
}

// parseLet parses let name[::Type] = expr. The body is filled in by the
// enclosing sequence.
func (p *Parser) parseLet() *Let {
	start := p.curToken.Pos
	p.nextToken() // consume let

	if !p.curTokenIs(TokenIdentifier) {
		p.errorf("expected a name after 'let', got %s", describe(p.curToken))
		return nil
	}
	let := &Let{Name: p.curToken.Literal}
	p.nextToken()

	if p.curTokenIs(TokenDoubleColon) {
		let.Type = p.parseTypeAnnotation()
	}

	if !p.curTokenIs(TokenBinarySelector) || p.curToken.Literal != "=" {
		p.errorf("expected '=' in let, got %s", describe(p.curToken))
		return nil
	}
	p.nextToken()

	let.Value = p.parseExpression()
	if let.Value == nil {
		return nil
	}
	let.SpanVal = MakeSpan(start, p.prevEnd)
	return let
}

// parseTypeAnnotation parses ::TypeName.
func (p *Parser) parseTypeAnnotation() string {
	p.nextToken() // consume ::
	if !p.curTokenIs(TokenIdentifier) {
		p.errorf("expected a type name after '::', got %s", describe(p.curToken))
		return ""
	}
	name := p.curToken.Literal
	p.nextToken()
	return name
}

// parseSequence parses period-separated statements up to (not including)
// the closing token. A let swallows the rest of the sequence as its body.
func (p *Parser) parseSequence(closing TokenType) *Sequence {
	seq := &Sequence{SpanVal: MakeSpan(p.curToken.Pos, p.curToken.Pos)}

	for !p.failed() && !p.curTokenIs(closing) && !p.curTokenIs(TokenEOF) {
		if p.curTokenIs(TokenDocstring) || p.curTokenIs(TokenPeriod) {
			p.nextToken()
			continue
		}

		if p.curTokenIs(TokenLet) {
			let := p.parseLet()
			if let == nil {
				return nil
			}
			if p.curTokenIs(TokenPeriod) {
				p.nextToken()
			}
			if body := p.parseSequence(closing); body != nil && len(body.Exprs) > 0 {
				let.Body = body
			}
			seq.Exprs = append(seq.Exprs, let)
			break
		}

		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		seq.Exprs = append(seq.Exprs, stmt)

		if p.curTokenIs(TokenPeriod) {
			p.nextToken()
			continue
		}
		break
	}

	if p.failed() {
		return nil
	}
	if len(seq.Exprs) > 0 {
		seq.SpanVal = MakeSpan(seq.Exprs[0].Span().Start, p.prevEnd)
	}
	return seq
}

// ---------------------------------------------------------------------------
// Expression parsing (message precedence)
// ---------------------------------------------------------------------------

// parseExpression parses a full expression: keyword sends and cascades.
func (p *Parser) parseExpression() Expr {
	return p.parseKeywordSend()
}

// parseKeywordSend parses keyword message sends (lowest precedence).
func (p *Parser) parseKeywordSend() Expr {
	receiver := p.parseBinarySendNoCascade()
	if receiver == nil {
		return nil
	}

	result := receiver
	if p.curTokenIs(TokenKeyword) {
		result = p.parseKeywordMessage(receiver)
		if result == nil {
			return nil
		}
	}

	// Check for cascade AFTER the full keyword/binary message
	if p.curTokenIs(TokenSemicolon) {
		return p.parseCascade(result)
	}

	return result
}

// parseKeywordArgs parses key1: arg1 key2: arg2 ...
func (p *Parser) parseKeywordArgs() (string, []string, []Expr) {
	var selector strings.Builder
	var keywords []string
	var args []Expr

	for p.curTokenIs(TokenKeyword) {
		keyword := p.curToken.Literal
		keywords = append(keywords, keyword)
		selector.WriteString(keyword)
		p.nextToken()

		// Use NoCascade version to prevent semicolons from being consumed as cascades
		arg := p.parseBinarySendNoCascade()
		if arg == nil {
			return "", nil, nil
		}
		args = append(args, arg)
	}
	return selector.String(), keywords, args
}

// parseKeywordMessage parses a keyword message with given receiver.
func (p *Parser) parseKeywordMessage(receiver Expr) Expr {
	selector, keywords, args := p.parseKeywordArgs()
	if args == nil {
		return nil
	}
	return &KeywordMessage{
		SpanVal:   MakeSpan(receiver.Span().Start, p.prevEnd),
		Receiver:  receiver,
		Selector:  selector,
		Keywords:  keywords,
		Arguments: args,
	}
}

// parseBinarySendNoCascade parses binary message sends without cascade handling.
func (p *Parser) parseBinarySendNoCascade() Expr {
	left := p.parseUnarySend()
	if left == nil {
		return nil
	}

	// Left associative. '|' is a binary selector in expression context and
	// 'is' binds like one.
	for p.curTokenIs(TokenBinarySelector) || p.curTokenIs(TokenBar) || p.curTokenIs(TokenIs) {
		isIdentity := p.curTokenIs(TokenIs)
		selector := p.curToken.Literal
		p.nextToken()

		right := p.parseUnarySend()
		if right == nil {
			return nil
		}

		span := MakeSpan(left.Span().Start, right.Span().End)
		if isIdentity {
			left = &Identity{SpanVal: span, Left: left, Right: right}
			continue
		}
		left = &BinaryMessage{
			SpanVal:  span,
			Receiver: left,
			Selector: selector,
			Argument: right,
		}
	}

	return left
}

// parseCascade parses cascaded messages. The receiver of the last message
// in first is shared by every part.
func (p *Parser) parseCascade(first Expr) Expr {
	var receiver Expr
	var head Message

	switch msg := first.(type) {
	case *UnaryMessage:
		receiver = msg.Receiver
		head = Message{SpanVal: msg.SpanVal, Selector: msg.Selector}
	case *BinaryMessage:
		receiver = msg.Receiver
		head = Message{SpanVal: msg.SpanVal, Selector: msg.Selector, Arguments: []Expr{msg.Argument}}
	case *KeywordMessage:
		receiver = msg.Receiver
		head = Message{SpanVal: msg.SpanVal, Selector: msg.Selector, Arguments: msg.Arguments}
	default:
		p.errorf("cascade requires a message send")
		return nil
	}

	parts := [][]Message{{head}}
	for p.curTokenIs(TokenSemicolon) {
		p.nextToken() // consume ;

		part := p.parseCascadePart()
		if part == nil {
			return nil
		}
		parts = append(parts, part)
	}

	return &Cascade{
		SpanVal:  MakeSpan(first.Span().Start, p.prevEnd),
		Receiver: receiver,
		Parts:    parts,
	}
}

// parseCascadePart parses a receiverless chain: unary*, binary*, keyword?.
func (p *Parser) parseCascadePart() []Message {
	var chain []Message

	for p.curTokenIs(TokenIdentifier) && !p.peekTokenIs(TokenAssign) {
		start := p.curToken.Pos
		chain = append(chain, Message{Selector: p.curToken.Literal, SpanVal: MakeSpan(start, p.curToken.End)})
		p.nextToken()
	}

	for p.curTokenIs(TokenBinarySelector) || p.curTokenIs(TokenBar) {
		start := p.curToken.Pos
		selector := p.curToken.Literal
		p.nextToken()
		arg := p.parseUnarySend()
		if arg == nil {
			return nil
		}
		chain = append(chain, Message{Selector: selector, Arguments: []Expr{arg}, SpanVal: MakeSpan(start, p.prevEnd)})
	}

	if p.curTokenIs(TokenKeyword) {
		start := p.curToken.Pos
		selector, _, args := p.parseKeywordArgs()
		if args == nil {
			return nil
		}
		chain = append(chain, Message{Selector: selector, Arguments: args, SpanVal: MakeSpan(start, p.prevEnd)})
	}

	if len(chain) == 0 {
		p.errorf("expected message in cascade, got %s", describe(p.curToken))
		return nil
	}
	return chain
}

// parseUnarySend parses unary message sends (highest precedence).
func (p *Parser) parseUnarySend() Expr {
	primary := p.parsePrimary()
	if primary == nil {
		return nil
	}

	for p.curTokenIs(TokenIdentifier) && !p.peekTokenIs(TokenAssign) {
		selector := p.curToken.Literal
		if strings.Contains(selector, ".") {
			p.errorf("unexpected %s", describe(p.curToken))
			return nil
		}
		p.nextToken()

		primary = &UnaryMessage{
			SpanVal:  MakeSpan(primary.Span().Start, p.prevEnd),
			Receiver: primary,
			Selector: selector,
		}
	}

	return primary
}

// parsePrimary parses primary expressions.
func (p *Parser) parsePrimary() Expr {
	switch p.curToken.Type {
	case TokenInteger:
		return p.parseInteger()
	case TokenFloat:
		return p.parseFloat()
	case TokenString, TokenSymbol, TokenCharacter:
		return p.parseString()
	case TokenHashLBrace:
		return p.parseDictLiteral()
	case TokenLParen:
		return p.parseParenExpr()
	case TokenLBrace:
		return p.parseBlock()
	case TokenLBracket:
		return p.parseArrayLiteral()
	case TokenIdentifier:
		return p.parseIdentifier()
	case TokenSelf:
		pos := p.curToken.Pos
		p.nextToken()
		return &Self{SpanVal: MakeSpan(pos, p.prevEnd)}
	case TokenNil:
		pos := p.curToken.Pos
		p.nextToken()
		return &NilLiteral{SpanVal: MakeSpan(pos, p.prevEnd)}
	case TokenTrue, TokenFalse:
		pos := p.curToken.Pos
		value := p.curTokenIs(TokenTrue)
		p.nextToken()
		return &BoolLiteral{SpanVal: MakeSpan(pos, p.prevEnd), Value: value}
	default:
		p.errorf("unexpected %s", describe(p.curToken))
		return nil
	}
}

// ---------------------------------------------------------------------------
// Literal parsing
// ---------------------------------------------------------------------------

func (p *Parser) parseInteger() Expr {
	pos := p.curToken.Pos
	literal := p.curToken.Literal

	// Handle radix notation (16rFF)
	var value int64
	var err error
	if idx := strings.Index(literal, "r"); idx > 0 {
		radixStr := literal[:idx]
		digits := literal[idx+1:]
		neg := strings.HasPrefix(radixStr, "-")
		radix, rerr := strconv.ParseInt(strings.TrimPrefix(radixStr, "-"), 10, 64)
		if rerr != nil || radix < 2 || radix > 36 {
			p.errorf("invalid radix in %s", literal)
			return nil
		}
		value, err = strconv.ParseInt(digits, int(radix), 64)
		if neg {
			value = -value
		}
	} else {
		value, err = strconv.ParseInt(literal, 10, 64)
	}

	if err != nil {
		p.errorf("invalid integer: %s", literal)
		return nil
	}

	p.nextToken()
	return &IntLiteral{SpanVal: MakeSpan(pos, p.prevEnd), Value: value}
}

func (p *Parser) parseFloat() Expr {
	pos := p.curToken.Pos
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.errorf("invalid float: %s", p.curToken.Literal)
		return nil
	}
	p.nextToken()
	return &FloatLiteral{SpanVal: MakeSpan(pos, p.prevEnd), Value: value}
}

func (p *Parser) parseString() Expr {
	pos := p.curToken.Pos
	value := p.curToken.Literal
	p.nextToken()
	return &StringLiteral{SpanVal: MakeSpan(pos, p.prevEnd), Value: value}
}

func (p *Parser) parseParenExpr() Expr {
	p.nextToken() // consume (
	expr := p.parseExpression()
	if expr == nil {
		return nil
	}
	if !p.expect(TokenRParen) {
		return nil
	}
	return expr
}

// parseArrayLiteral parses [a, b, c].
func (p *Parser) parseArrayLiteral() Expr {
	pos := p.curToken.Pos
	p.nextToken() // consume [

	var elements []Expr
	for !p.curTokenIs(TokenRBracket) && !p.curTokenIs(TokenEOF) {
		elem := p.parseExpression()
		if elem == nil {
			return nil
		}
		elements = append(elements, elem)
		if !p.curTokenIs(TokenComma) {
			break
		}
		p.nextToken()
	}

	if !p.expect(TokenRBracket) {
		return nil
	}
	return &ArrayLiteral{SpanVal: MakeSpan(pos, p.prevEnd), Elements: elements}
}

// parseDictLiteral parses #{key -> value, ...}.
func (p *Parser) parseDictLiteral() Expr {
	pos := p.curToken.Pos
	p.nextToken() // consume #{

	var entries []DictEntry
	for !p.curTokenIs(TokenRBrace) && !p.curTokenIs(TokenEOF) {
		key := p.parseUnarySend()
		if key == nil {
			return nil
		}
		if !p.curTokenIs(TokenBinarySelector) || p.curToken.Literal != "->" {
			p.errorf("expected '->' after dictionary key, got %s", describe(p.curToken))
			return nil
		}
		p.nextToken()
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		entries = append(entries, DictEntry{Key: key, Value: value})
		if !p.curTokenIs(TokenComma) {
			break
		}
		p.nextToken()
	}

	if !p.expect(TokenRBrace) {
		return nil
	}
	return &DictLiteral{SpanVal: MakeSpan(pos, p.prevEnd), Entries: entries}
}

// parseBlock parses { :a :b::Integer | |t| statements }.
func (p *Parser) parseBlock() Expr {
	pos := p.curToken.Pos
	p.nextToken() // consume {

	var params []Param
	for p.curTokenIs(TokenColon) {
		p.nextToken() // consume :
		if !p.curTokenIs(TokenIdentifier) {
			p.errorf("expected parameter name after ':', got %s", describe(p.curToken))
			return nil
		}
		param := Param{Name: p.curToken.Literal}
		p.nextToken()
		if p.curTokenIs(TokenDoubleColon) {
			param.Type = p.parseTypeAnnotation()
		}
		params = append(params, param)
	}

	if len(params) > 0 && !p.expect(TokenBar) {
		return nil
	}

	var temps []Param
	if p.curTokenIs(TokenBar) {
		temps = p.parseTemporaries()
		if p.failed() {
			return nil
		}
	}

	body := p.parseSequence(TokenRBrace)
	if body == nil || !p.expect(TokenRBrace) {
		return nil
	}

	return &Block{
		SpanVal:    MakeSpan(pos, p.prevEnd),
		Parameters: params,
		Temps:      temps,
		Body:       body,
	}
}

// parseTemporaries parses | temp1 temp2::Type |
func (p *Parser) parseTemporaries() []Param {
	p.nextToken() // consume |
	var temps []Param
	for p.curTokenIs(TokenIdentifier) {
		t := Param{Name: p.curToken.Literal}
		p.nextToken()
		if p.curTokenIs(TokenDoubleColon) {
			t.Type = p.parseTypeAnnotation()
		}
		temps = append(temps, t)
	}
	if !p.expect(TokenBar) {
		return nil
	}
	return temps
}

func (p *Parser) parseIdentifier() Expr {
	pos := p.curToken.Pos
	name := p.curToken.Literal
	p.nextToken()

	if p.curTokenIs(TokenAssign) {
		p.nextToken() // consume :=
		value := p.parseExpression()
		if value == nil {
			return nil
		}
		return &Assignment{
			SpanVal:  MakeSpan(pos, value.Span().End),
			Variable: name,
			Value:    value,
		}
	}

	return &Variable{SpanVal: MakeSpan(pos, p.prevEnd), Name: name}
}

// ---------------------------------------------------------------------------
// Definitions
// ---------------------------------------------------------------------------

// parseDefine parses define Name = expr.
func (p *Parser) parseDefine() Node {
	start := p.curToken.Pos
	p.nextToken() // consume define

	if !p.curTokenIs(TokenIdentifier) {
		p.errorf("expected a name after 'define', got %s", describe(p.curToken))
		return nil
	}
	name := p.curToken.Literal
	p.nextToken()

	if !p.curTokenIs(TokenBinarySelector) || p.curToken.Literal != "=" {
		p.errorf("expected '=' in define, got %s", describe(p.curToken))
		return nil
	}
	p.nextToken()

	value := p.parseExpression()
	if value == nil {
		return nil
	}
	return &DefineDecl{SpanVal: MakeSpan(start, p.prevEnd), Name: name, Value: value}
}

// parseImport parses import a.b, import a.b.Name or import a.b.*. The path
// is read from adjacent tokens so a.b.Name may arrive as "a", ".", "b.Name".
func (p *Parser) parseImport() Node {
	start := p.curToken.Pos
	p.nextToken() // consume import

	var sb strings.Builder
	end := -1
	for {
		tok := p.curToken
		if end >= 0 && tok.Pos.Offset != end {
			break
		}
		star := tok.Type == TokenBinarySelector && tok.Literal == "*"
		if tok.Type != TokenIdentifier && tok.Type != TokenPeriod && !star {
			break
		}
		// A trailing period ends the statement rather than the path.
		if tok.Type == TokenPeriod {
			next := p.peekToken
			adjacent := next.Pos.Offset == tok.End.Offset
			if !adjacent || !(next.Type == TokenIdentifier || next.Type == TokenBinarySelector && next.Literal == "*") {
				break
			}
		}
		sb.WriteString(tok.Literal)
		end = tok.End.Offset
		p.nextToken()
	}

	path := sb.String()
	if path == "" {
		p.errorf("expected a module path after 'import', got %s", describe(p.curToken))
		return nil
	}

	decl := &ImportDecl{SpanVal: MakeSpan(start, p.prevEnd)}
	segments := strings.Split(path, ".")
	for _, s := range segments {
		if s == "" {
			p.errorf("malformed import path %q", path)
			return nil
		}
	}

	last := segments[len(segments)-1]
	switch {
	case last == "*":
		decl.Mode = ImportWildcard
		decl.Module = strings.Join(segments[:len(segments)-1], ".")
	case len(segments) > 1 && isUpperStart(last):
		decl.Mode = ImportExact
		decl.Module = strings.Join(segments[:len(segments)-1], ".")
		decl.Name = last
	default:
		decl.Mode = ImportPrefix
		decl.Module = path
	}
	if decl.Module == "" {
		p.errorf("malformed import path %q", path)
		return nil
	}
	return decl
}

// isUpperStart reports whether s names a binding rather than a module
// segment. Leading underscores are ignored so internal names still parse as
// exact imports.
func isUpperStart(s string) bool {
	for _, r := range strings.TrimLeft(s, "_") {
		return r >= 'A' && r <= 'Z'
	}
	return false
}

// parseClassDef parses the class-body forms:
//
//	class Point {
//	    | x::Integer y::Integer _cache |
//	    is: Printable
//	    method: + other::Point -> Point { ^Point x: x + other x y: y + other y }
//	    classMethod: origin { ^Point x: 0 y: 0 }
//	}
//
//	interface Printable {
//	    requires: describe
//	    method: show { System printLine: self describe }
//	}
//
//	extend Integer { is: Printable  method: describe { ^self printString } }
func (p *Parser) parseClassDef(kind ClassKind, doc string) Node {
	start := p.curToken.Pos
	p.nextToken() // consume class/interface/extend

	if !p.curTokenIs(TokenIdentifier) {
		p.errorf("expected a name after '%s', got %s", kind, describe(p.curToken))
		return nil
	}
	def := &ClassDef{
		Kind:     kind,
		Name:     p.curToken.Literal,
		NameSpan: MakeSpan(p.curToken.Pos, p.curToken.End),
		Doc:      doc,
	}
	p.nextToken()

	if !p.expect(TokenLBrace) {
		return nil
	}

	var pendingDoc string
	for !p.failed() && !p.curTokenIs(TokenRBrace) {
		switch {
		case p.curTokenIs(TokenEOF):
			p.errorf("expected '}' to close %s %s", kind, def.Name)

		case p.curTokenIs(TokenDocstring):
			pendingDoc = p.curToken.Literal
			p.nextToken()

		case p.curTokenIs(TokenPeriod):
			p.nextToken()

		case p.curTokenIs(TokenBar):
			if kind != KindClass {
				p.errorf("only classes declare slots")
				break
			}
			def.Slots = append(def.Slots, p.parseTemporaries()...)

		case p.curTokenIs(TokenKeyword):
			switch p.curToken.Literal {
			case "is:":
				p.nextToken()
				for p.curTokenIs(TokenIdentifier) {
					def.Interfaces = append(def.Interfaces, p.curToken.Literal)
					p.nextToken()
					if p.curTokenIs(TokenComma) {
						p.nextToken()
					}
				}
			case "requires:":
				if kind != KindInterface {
					p.errorf("only interfaces declare required methods")
					break
				}
				p.nextToken()
				def.Requires = append(def.Requires, p.parseSelectorList()...)
			case "method:", "classMethod:":
				classSide := p.curToken.Literal == "classMethod:"
				m := p.parseMethodDef(pendingDoc)
				pendingDoc = ""
				if m == nil {
					break
				}
				if classSide {
					def.ClassMethods = append(def.ClassMethods, m)
				} else {
					def.Methods = append(def.Methods, m)
				}
			default:
				p.errorf("unexpected %s in %s body", describe(p.curToken), kind)
			}

		default:
			p.errorf("unexpected %s in %s body", describe(p.curToken), kind)
		}
	}

	if !p.expect(TokenRBrace) {
		return nil
	}
	def.SpanVal = MakeSpan(start, p.prevEnd)
	return def
}

// parseSelectorList parses required selectors: size, +, at:put:, #foo.
func (p *Parser) parseSelectorList() []string {
	var sels []string
	for {
		switch {
		case p.curTokenIs(TokenIdentifier), p.curTokenIs(TokenBinarySelector), p.curTokenIs(TokenSymbol):
			sels = append(sels, p.curToken.Literal)
			p.nextToken()
		case p.curTokenIs(TokenKeyword) && !isBodyKeyword(p.curToken.Literal):
			sel := p.curToken.Literal
			end := p.curToken.End.Offset
			p.nextToken()
			for p.curTokenIs(TokenKeyword) && p.curToken.Pos.Offset == end {
				sel += p.curToken.Literal
				end = p.curToken.End.Offset
				p.nextToken()
			}
			sels = append(sels, sel)
		case p.curTokenIs(TokenComma):
			p.nextToken()
		default:
			return sels
		}
	}
}

func isBodyKeyword(kw string) bool {
	switch kw {
	case "is:", "requires:", "method:", "classMethod:":
		return true
	}
	return false
}

// parseMethodDef parses method: signature [-> Type] { |temps| body }.
func (p *Parser) parseMethodDef(doc string) *MethodDef {
	start := p.curToken.Pos
	p.nextToken() // consume method: or classMethod:

	m := &MethodDef{Doc: doc}
	m.Selector, m.Parameters = p.parseMethodSignature()
	if m.Selector == "" {
		return nil
	}

	if p.curTokenIs(TokenBinarySelector) && p.curToken.Literal == "->" {
		p.nextToken()
		if !p.curTokenIs(TokenIdentifier) {
			p.errorf("expected a return type after '->', got %s", describe(p.curToken))
			return nil
		}
		m.ReturnType = p.curToken.Literal
		p.nextToken()
	}

	if !p.expect(TokenLBrace) {
		return nil
	}
	if p.curTokenIs(TokenBar) {
		m.Temps = p.parseTemporaries()
		if p.failed() {
			return nil
		}
	}
	m.Body = p.parseSequence(TokenRBrace)
	if m.Body == nil || !p.expect(TokenRBrace) {
		return nil
	}
	m.SpanVal = MakeSpan(start, p.prevEnd)
	return m
}

// parseMethodSignature parses a unary, binary or keyword method signature.
func (p *Parser) parseMethodSignature() (string, []Param) {
	param := func() (Param, bool) {
		if !p.curTokenIs(TokenIdentifier) {
			p.errorf("expected parameter name, got %s", describe(p.curToken))
			return Param{}, false
		}
		prm := Param{Name: p.curToken.Literal}
		p.nextToken()
		if p.curTokenIs(TokenDoubleColon) {
			prm.Type = p.parseTypeAnnotation()
		}
		return prm, !p.failed()
	}

	switch {
	case p.curTokenIs(TokenIdentifier):
		selector := p.curToken.Literal
		p.nextToken()
		return selector, nil

	case p.curTokenIs(TokenBinarySelector), p.curTokenIs(TokenBar):
		selector := p.curToken.Literal
		p.nextToken()
		prm, ok := param()
		if !ok {
			return "", nil
		}
		return selector, []Param{prm}

	case p.curTokenIs(TokenKeyword):
		var selector strings.Builder
		var params []Param
		for p.curTokenIs(TokenKeyword) {
			selector.WriteString(p.curToken.Literal)
			p.nextToken()
			prm, ok := param()
			if !ok {
				return "", nil
			}
			params = append(params, prm)
		}
		return selector.String(), params

	default:
		p.errorf("expected method signature, got %s", describe(p.curToken))
		return "", nil
	}
}
