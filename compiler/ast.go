package compiler

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for Sprat
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// Span represents a range in source code. End is exclusive.
type Span struct {
	Start Position
	End   Position
}

// IsZero reports whether the span was never set.
func (s Span) IsZero() bool {
	return s == Span{}
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() Span
	node() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// IntLiteral represents an integer literal.
type IntLiteral struct {
	SpanVal Span
	Value   int64
}

func (n *IntLiteral) Span() Span { return n.SpanVal }
func (n *IntLiteral) node()      {}
func (n *IntLiteral) expr()      {}

// FloatLiteral represents a floating-point literal.
type FloatLiteral struct {
	SpanVal Span
	Value   float64
}

func (n *FloatLiteral) Span() Span { return n.SpanVal }
func (n *FloatLiteral) node()      {}
func (n *FloatLiteral) expr()      {}

// StringLiteral represents a string literal. Symbols and character
// literals are string literals too.
type StringLiteral struct {
	SpanVal Span
	Value   string
}

func (n *StringLiteral) Span() Span { return n.SpanVal }
func (n *StringLiteral) node()      {}
func (n *StringLiteral) expr()      {}

// BoolLiteral represents 'true' or 'false'.
type BoolLiteral struct {
	SpanVal Span
	Value   bool
}

func (n *BoolLiteral) Span() Span { return n.SpanVal }
func (n *BoolLiteral) node()      {}
func (n *BoolLiteral) expr()      {}

// NilLiteral represents the 'nil' literal.
type NilLiteral struct {
	SpanVal Span
}

func (n *NilLiteral) Span() Span { return n.SpanVal }
func (n *NilLiteral) node()      {}
func (n *NilLiteral) expr()      {}

// ArrayLiteral represents [a, b, c]. Elements are arbitrary expressions.
type ArrayLiteral struct {
	SpanVal  Span
	Elements []Expr
}

func (n *ArrayLiteral) Span() Span { return n.SpanVal }
func (n *ArrayLiteral) node()      {}
func (n *ArrayLiteral) expr()      {}

// DictEntry is one key -> value pair of a dictionary literal.
type DictEntry struct {
	Key   Expr
	Value Expr
}

// DictLiteral represents #{k -> v, ...}.
type DictLiteral struct {
	SpanVal Span
	Entries []DictEntry
}

func (n *DictLiteral) Span() Span { return n.SpanVal }
func (n *DictLiteral) node()      {}
func (n *DictLiteral) expr()      {}

// Variable represents a variable reference.
type Variable struct {
	SpanVal Span
	Name    string
}

func (n *Variable) Span() Span { return n.SpanVal }
func (n *Variable) node()      {}
func (n *Variable) expr()      {}

// Self represents the 'self' pseudo-variable.
type Self struct {
	SpanVal Span
}

func (n *Self) Span() Span { return n.SpanVal }
func (n *Self) node()      {}
func (n *Self) expr()      {}

// Assignment represents a variable assignment (x := expr).
type Assignment struct {
	SpanVal  Span
	Variable string
	Value    Expr
}

func (n *Assignment) Span() Span { return n.SpanVal }
func (n *Assignment) node()      {}
func (n *Assignment) expr()      {}

// UnaryMessage represents a unary message send (recv selector).
type UnaryMessage struct {
	SpanVal  Span
	Receiver Expr
	Selector string
}

func (n *UnaryMessage) Span() Span { return n.SpanVal }
func (n *UnaryMessage) node()      {}
func (n *UnaryMessage) expr()      {}

// BinaryMessage represents a binary message send (recv + arg).
type BinaryMessage struct {
	SpanVal  Span
	Receiver Expr
	Selector string
	Argument Expr
}

func (n *BinaryMessage) Span() Span { return n.SpanVal }
func (n *BinaryMessage) node()      {}
func (n *BinaryMessage) expr()      {}

// KeywordMessage represents a keyword message send (recv key1: arg1 key2: arg2).
type KeywordMessage struct {
	SpanVal   Span
	Receiver  Expr
	Selector  string   // full selector: "key1:key2:"
	Keywords  []string // individual keywords: ["key1:", "key2:"]
	Arguments []Expr
}

func (n *KeywordMessage) Span() Span { return n.SpanVal }
func (n *KeywordMessage) node()      {}
func (n *KeywordMessage) expr()      {}

// Message is one message of a cascade part.
type Message struct {
	SpanVal   Span
	Selector  string
	Arguments []Expr
}

// Cascade represents recv msg1; msg2 msg3; key: arg. The receiver is
// evaluated once; each part is a chain of messages sent starting from it.
type Cascade struct {
	SpanVal  Span
	Receiver Expr
	Parts    [][]Message
}

func (n *Cascade) Span() Span { return n.SpanVal }
func (n *Cascade) node()      {}
func (n *Cascade) expr()      {}

// Param is a named parameter, temporary or slot with an optional type name.
type Param struct {
	Name string
	Type string
}

// Block represents a block closure { :a :b | |t| stmts }.
type Block struct {
	SpanVal    Span
	Parameters []Param
	Temps      []Param
	Body       *Sequence
}

func (n *Block) Span() Span { return n.SpanVal }
func (n *Block) node()      {}
func (n *Block) expr()      {}

// Sequence is a period-separated list of expressions. Its value is the
// value of the last one, or nil when empty.
type Sequence struct {
	SpanVal Span
	Exprs   []Expr
}

func (n *Sequence) Span() Span { return n.SpanVal }
func (n *Sequence) node()      {}
func (n *Sequence) expr()      {}

// Let binds Name for the rest of the enclosing sequence, which becomes Body.
// At top level Body is nil and the binding goes into the current scope.
type Let struct {
	SpanVal Span
	Name    string
	Type    string
	Value   Expr
	Body    *Sequence
}

func (n *Let) Span() Span { return n.SpanVal }
func (n *Let) node()      {}
func (n *Let) expr()      {}

// Identity represents 'a is b'.
type Identity struct {
	SpanVal Span
	Left    Expr
	Right   Expr
}

func (n *Identity) Span() Span { return n.SpanVal }
func (n *Identity) node()      {}
func (n *Identity) expr()      {}

// Raise represents 'raise expr'.
type Raise struct {
	SpanVal Span
	Value   Expr
}

func (n *Raise) Span() Span { return n.SpanVal }
func (n *Raise) node()      {}
func (n *Raise) expr()      {}

// Return represents a non-local return (^expr).
type Return struct {
	SpanVal Span
	Value   Expr
}

func (n *Return) Span() Span { return n.SpanVal }
func (n *Return) node()      {}
func (n *Return) expr()      {}

// ---------------------------------------------------------------------------
// Definition nodes
// ---------------------------------------------------------------------------

// MethodDef represents a method definition.
type MethodDef struct {
	SpanVal    Span
	Selector   string
	Parameters []Param
	ReturnType string
	Temps      []Param
	Body       *Sequence
	Doc        string
}

func (n *MethodDef) Span() Span { return n.SpanVal }
func (n *MethodDef) node()      {}

// ClassKind distinguishes the three class-body definitions.
type ClassKind int

const (
	KindClass ClassKind = iota
	KindInterface
	KindExtend
)

func (k ClassKind) String() string {
	switch k {
	case KindInterface:
		return "interface"
	case KindExtend:
		return "extend"
	}
	return "class"
}

// ClassDef represents a class, interface or extension definition.
type ClassDef struct {
	SpanVal      Span
	NameSpan     Span
	Kind         ClassKind
	Name         string
	Slots        []Param
	Interfaces   []string
	Methods      []*MethodDef
	ClassMethods []*MethodDef
	Requires     []string // required selectors, interfaces only
	Doc          string
}

func (n *ClassDef) Span() Span { return n.SpanVal }
func (n *ClassDef) node()      {}

// DefineDecl represents 'define Name = expr'.
type DefineDecl struct {
	SpanVal Span
	Name    string
	Value   Expr
}

func (n *DefineDecl) Span() Span { return n.SpanVal }
func (n *DefineDecl) node()      {}

// ImportMode selects how an import merges names.
type ImportMode int

const (
	ImportPrefix   ImportMode = iota // import lib.math     -> math.Pi
	ImportExact                      // import lib.math.Pi  -> Pi
	ImportWildcard                   // import lib.math.*   -> Pi, E, ...
)

// ImportDecl represents an import declaration.
type ImportDecl struct {
	SpanVal Span
	Module  string // dotted module path, e.g. "lib.math"
	Name    string // ImportExact only
	Mode    ImportMode
}

func (n *ImportDecl) Span() Span { return n.SpanVal }
func (n *ImportDecl) node()      {}

// Prefix returns the name prefix used by ImportPrefix: the last path segment.
func (n *ImportDecl) Prefix() string {
	for i := len(n.Module) - 1; i >= 0; i-- {
		if n.Module[i] == '.' {
			return n.Module[i+1:]
		}
	}
	return n.Module
}

// ---------------------------------------------------------------------------
// Helper functions
// ---------------------------------------------------------------------------

// MakeSpan creates a span from start and end positions.
func MakeSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

// ZeroSpan returns an empty span.
func ZeroSpan() Span {
	return Span{}
}
