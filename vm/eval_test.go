package vm

import (
	"errors"
	"strings"
	"testing"
)

func evalOK(t *testing.T, src string) Object {
	t.Helper()
	vm := NewVM()
	v, err := vm.EvalAll(src)
	if err != nil {
		t.Fatalf("EvalAll(%q) failed:\n%v", src, err)
	}
	return v
}

func evalErr(t *testing.T, src string) *Unwind {
	t.Helper()
	vm := NewVM()
	_, err := vm.EvalAll(src)
	if err == nil {
		t.Fatalf("EvalAll(%q) succeeded, want error", src)
	}
	var u *Unwind
	if !errors.As(err, &u) {
		t.Fatalf("EvalAll(%q) error is %T, want *Unwind", src, err)
	}
	return u
}

func wantInt(t *testing.T, v Object, want int64) {
	t.Helper()
	n, ok := v.AsInt()
	if !ok {
		t.Fatalf("got %s, want Integer %d", describeValue(v), want)
	}
	if n != want {
		t.Errorf("got %d, want %d", n, want)
	}
}

func wantDescribe(t *testing.T, v Object, want string) {
	t.Helper()
	if got := describeValue(v); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func wantMessage(t *testing.T, u *Unwind, want string) {
	t.Helper()
	if !strings.Contains(u.Message(), want) {
		t.Errorf("error %q does not contain %q", u.Message(), want)
	}
}

// ---------------------------------------------------------------------------
// Closures
// ---------------------------------------------------------------------------

func TestEval_BlockValue(t *testing.T) {
	wantInt(t, evalOK(t, "{ :a | a + 1 } value: 41"), 42)
}

func TestEval_PushChains(t *testing.T) {
	v := evalOK(t, "{ |x| x := [0]. x push: 1. (x push: 2) push: 3 } value")
	wantDescribe(t, v, "[0, 1, 2, 3]")
}

func TestEval_ClosureCapturesScope(t *testing.T) {
	src := `
let counter = 0.
let bump = { counter := counter + 1 }.
bump value. bump value. bump value.
counter`
	wantInt(t, evalOK(t, src), 3)
}

func TestEval_ClosuresShareFrame(t *testing.T) {
	src := `
let make = { |n| n := 0. [{ n := n + 1 }, { n }] }.
let pair = make value.
(pair at: 1) value. (pair at: 1) value.
(pair at: 2) value`
	wantInt(t, evalOK(t, src), 2)
}

func TestEval_ArityMismatch(t *testing.T) {
	u := evalErr(t, "{ :a :b | a } value: 1")
	wantMessage(t, u, "expects 2 argument(s), got 1")
}

// ---------------------------------------------------------------------------
// Non-local return
// ---------------------------------------------------------------------------

func TestEval_ReturnThroughHelper(t *testing.T) {
	src := `
class Foo {
    classMethod: test { Foo boo: { ^42 }. ^31 }
    classMethod: boo: blk { blk value }
}
Foo test`
	wantInt(t, evalOK(t, src), 42)
}

func TestEval_ReturnFromNestedBlocks(t *testing.T) {
	src := `
class Finder {
    classMethod: find: xs {
        xs do: { :x | (x > 2) ifTrue: { [1] do: { :y | ^x * 10 } } }.
        ^0
    }
}
Finder find: [1, 2, 3, 4]`
	wantInt(t, evalOK(t, src), 30)
}

func TestEval_ReturnFromLoop(t *testing.T) {
	src := `
class Search {
    classMethod: firstOver: n {
        1 to: 100 do: { :i | (i * i > n) ifTrue: { ^i } }.
        ^nil
    }
}
Search firstOver: 50`
	wantInt(t, evalOK(t, src), 8)
}

func TestEval_ReturnFromTopLevelBlock(t *testing.T) {
	wantInt(t, evalOK(t, "{ ^5. 6 } value"), 5)
}

func TestEval_ReturnOutsideCall(t *testing.T) {
	u := evalErr(t, "^5")
	wantMessage(t, u, "Nothing to return from")
}

func TestEval_EscapedReturn(t *testing.T) {
	src := `
class Maker { classMethod: make { ^{ :v | ^v } } }
let blk = Maker make.
blk value: 3`
	u := evalErr(t, src)
	wantMessage(t, u, "Nothing to return from")
	if u.IsReturn() {
		t.Error("escaped return should surface as an exception")
	}
	// Reported at the ^ inside the block, not at the call site.
	if span, ok := u.Span(); !ok || span.Start.Line != 2 {
		t.Errorf("span = %+v, %v; want line 2", span, ok)
	}
}

func TestEval_TypedParameter(t *testing.T) {
	u := evalErr(t, "{ :n::Integer | n } value: 'x'")
	if u.Kind() != TypeError {
		t.Errorf("kind = %s, want type error", u.Kind())
	}
	wantMessage(t, u, "Argument n of Block (expected Integer, got 'x')")
	wantInt(t, evalOK(t, "{ :n::Integer | n } value: 4"), 4)

	src := `
class Calc { classMethod: f: n::Integer { n * 2 } }
Calc f: 'x'`
	u = evalErr(t, src)
	if u.Kind() != TypeError {
		t.Errorf("kind = %s, want type error", u.Kind())
	}
	wantMessage(t, u, "Argument n of #f: (expected Integer, got 'x')")

	u = evalErr(t, "{ :n::Number | n } value: 'x'")
	if u.Kind() != TypeError {
		t.Errorf("kind = %s, want type error", u.Kind())
	}
	wantDescribe(t, evalOK(t, "{ :n::Number | n } value: 1.5"), "1.5")
	wantInt(t, evalOK(t, "{ :n::Number | n } value: 3"), 3)
}

func TestEval_MethodReturnValueIsLastExpression(t *testing.T) {
	src := `
class Calc { classMethod: twice: n { n * 2 } }
Calc twice: 21`
	wantInt(t, evalOK(t, src), 42)
}

// ---------------------------------------------------------------------------
// Loops
// ---------------------------------------------------------------------------

func TestEval_ToDoAscending(t *testing.T) {
	src := `
let x = 0.
1 to: 6 do: { :i | x := x + i }.
x`
	wantInt(t, evalOK(t, src), 21)
}

func TestEval_ToDoDescending(t *testing.T) {
	src := `
let x = 0.
1 to: -6 do: { :i | x := x + i }.
x`
	wantInt(t, evalOK(t, src), -20)

	src = `
let seen = Array new.
1 to: -6 do: { :i | seen push: i }.
seen`
	wantDescribe(t, evalOK(t, src), "[1, 0, -1, -2, -3, -4, -5, -6]")
}

func TestEval_WhileTrue(t *testing.T) {
	src := `
let i = 0.
let total = 0.
{ i < 5 } whileTrue: { i := i + 1. total := total + i }.
total`
	wantInt(t, evalOK(t, src), 15)
}

// ---------------------------------------------------------------------------
// Bindings
// ---------------------------------------------------------------------------

func TestEval_UnboundVariable(t *testing.T) {
	u := evalErr(t, "foo + 1")
	wantMessage(t, u, "Unbound variable: foo")
	span, ok := u.Span()
	if !ok {
		t.Fatal("unbound variable error has no span")
	}
	if span.Start.Line != 1 || span.Start.Column != 1 || span.End.Offset != 3 {
		t.Errorf("span = %+v, want the identifier foo", span)
	}
}

func TestEval_AssignUnbound(t *testing.T) {
	u := evalErr(t, "y := 3")
	wantMessage(t, u, "Cannot assign to an unbound variable: y")
}

func TestEval_TypedLet(t *testing.T) {
	wantInt(t, evalOK(t, "let n::Integer = 4. n := n + 1. n"), 5)

	u := evalErr(t, "let n::Integer = 4. n := 'four'")
	if u.Kind() != TypeError {
		t.Fatalf("kind = %v, want type error", u.Kind())
	}
	if u.Err.Expected.Name() != "Integer" {
		t.Errorf("expected = %s, want Integer", u.Err.Expected.Name())
	}

	u = evalErr(t, "let s::String = 3")
	if u.Kind() != TypeError {
		t.Errorf("kind = %v, want type error", u.Kind())
	}
}

func TestEval_TypedLetInterface(t *testing.T) {
	wantDescribe(t, evalOK(t, "let n::Number = 4. n := 2.5. n"), "2.5")
	wantInt(t, evalOK(t, "let o::Object = 'x'. o := 7. o"), 7)
}

func TestEval_LetScopesItsBody(t *testing.T) {
	src := `
{ let a = 1. let b = a + 1. a + b } value`
	wantInt(t, evalOK(t, src), 3)

	u := evalErr(t, "{ let inner = 1. inner } value. inner")
	wantMessage(t, u, "Unbound variable: inner")
}

func TestEval_Define(t *testing.T) {
	wantInt(t, evalOK(t, "define Answer = 42. Answer"), 42)

	u := evalErr(t, "define Answer = 42. Answer := 1")
	wantMessage(t, u, "Cannot assign to constant Answer")

	u = evalErr(t, "define Answer = 42. define Answer = 43")
	wantMessage(t, u, "Cannot redefine Answer")
}

func TestEval_SelfOutsideMethod(t *testing.T) {
	u := evalErr(t, "self")
	wantMessage(t, u, "Cannot use self outside of a method")
}

// ---------------------------------------------------------------------------
// Expression forms
// ---------------------------------------------------------------------------

func TestEval_Literals(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"42", "42"},
		{"-7", "-7"},
		{"2.5", "2.5"},
		{"'it''s'", "'it''s'"},
		{"#sym", "'sym'"},
		{"true", "true"},
		{"nil", "nil"},
		{"[1, 'a', [2]]", "[1, 'a', [2]]"},
		{"#{'a' -> 1, 2 -> 3}", "#{'a' -> 1, 2 -> 3}"},
		{"16rFF", "255"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			wantDescribe(t, evalOK(t, tt.src), tt.want)
		})
	}
}

func TestEval_Precedence(t *testing.T) {
	wantInt(t, evalOK(t, "2 + 3 * 4"), 20)
	wantInt(t, evalOK(t, "2 + (3 * 4)"), 14)
	wantInt(t, evalOK(t, "[1, 2] size + 1 max: 10"), 10)
	wantInt(t, evalOK(t, "[1, 2] size + 1 max: 1"), 3)
}

func TestEval_Cascade(t *testing.T) {
	v := evalOK(t, "Array new push: 1; push: 2; push: 3; yourself")
	wantDescribe(t, v, "[1, 2, 3]")
}

func TestEval_Identity(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"3 is 3", true},
		{"3 is 4", false},
		{"'a' is 'a'", false},
		{"let s = 'a'. s is s", true},
		{"nil is nil", true},
		{"'a' = 'a'", true},
	}
	for _, tt := range tests {
		v := evalOK(t, tt.src)
		if b, ok := v.AsBool(); !ok || b != tt.want {
			t.Errorf("%s = %s, want %v", tt.src, describeValue(v), tt.want)
		}
	}
}

func TestEval_StringLiteralsAreFresh(t *testing.T) {
	src := `
let f = { 'abc' }.
(f value) append: 'def'.
f value`
	wantDescribe(t, evalOK(t, src), "'abc'")
}

func TestEval_Raise(t *testing.T) {
	u := evalErr(t, "let x = 1.\nraise 'bad thing'")
	wantMessage(t, u, "bad thing")
	span, ok := u.Span()
	if !ok || span.Start.Line != 2 || span.Start.Column != 1 {
		t.Errorf("span = %+v, want line 2 column 1", span)
	}

	u = evalErr(t, "raise 42")
	if u.Kind() != TypeError {
		t.Errorf("raise of a non-String: kind = %v, want type error", u.Kind())
	}
}

func TestEval_InnermostSpanWins(t *testing.T) {
	u := evalErr(t, "[1, 2] collect: { :x | x / 0 }")
	wantMessage(t, u, "Division by zero")
	span, _ := u.Span()
	if span.Start.Offset != 23 || span.End.Offset != 28 {
		t.Errorf("span = %d..%d, want 23..28 (x / 0)", span.Start.Offset, span.End.Offset)
	}
}

func TestEval_StackOverflow(t *testing.T) {
	vm := NewVM()
	vm.SetMaxDepth(200)
	_, err := vm.EvalAll(`
class Loop { classMethod: forever: n { ^Loop forever: n + 1 } }
Loop forever: 0`)
	if err == nil {
		t.Fatal("unbounded recursion succeeded")
	}
	var u *Unwind
	if !errors.As(err, &u) || !strings.Contains(u.Message(), "Stack overflow") {
		t.Errorf("err = %v, want stack overflow", err)
	}
}

func TestEval_SyntaxErrors(t *testing.T) {
	u := evalErr(t, "3 + )")
	if u.Kind() != SimpleError {
		t.Errorf("kind = %v, want simple error", u.Kind())
	}
	wantMessage(t, u, "Syntax error")

	u = evalErr(t, "[1, 2")
	if u.Kind() != EndOfInput {
		t.Errorf("kind = %v, want end of input", u.Kind())
	}
	if !IsEndOfInput(u) {
		t.Error("IsEndOfInput = false")
	}
}

func TestEval_LastValue(t *testing.T) {
	wantInt(t, evalOK(t, "1. 2. 3"), 3)
	if v := evalOK(t, ""); !v.IsNil() {
		t.Errorf("empty program = %s, want nil", describeValue(v))
	}
}
