package vm

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/sprat/compiler"
)

func TestRender_UnboundVariable(t *testing.T) {
	vm := NewVM()
	_, err := vm.EvalNamed("main.spr", "let x = 1.\nx := foo + 1.")
	if err == nil {
		t.Fatal("expected an error")
	}
	want := strings.Join([]string{
		"main.spr:2:6: Unbound variable: foo",
		"   1 | let x = 1.",
		"   2 | x := foo + 1.",
		"     |      ^^^",
	}, "\n")
	if got := err.Error(); got != want {
		t.Errorf("rendered:\n%s\nwant:\n%s", got, want)
	}
}

func TestRender_SkipsBlankPreviousLine(t *testing.T) {
	src := "1.\n\n3 zork"
	span := compiler.Span{
		Start: compiler.Position{Line: 3, Column: 3, Offset: 6},
		End:   compiler.Position{Line: 3, Column: 7, Offset: 10},
	}
	got := renderDiagnostic("", src, span, "boom")
	want := "<input>:3:3: boom\n   3 | 3 zork\n     |   ^^^^"
	if got != want {
		t.Errorf("rendered:\n%s\nwant:\n%s", got, want)
	}
}

func TestRender_Tabs(t *testing.T) {
	src := "\tfoo"
	span := compiler.Span{
		Start: compiler.Position{Line: 1, Column: 2, Offset: 1},
		End:   compiler.Position{Line: 1, Column: 5, Offset: 4},
	}
	got := renderDiagnostic("t.spr", src, span, "x")
	if !strings.HasSuffix(got, "     | \t^^^") {
		t.Errorf("caret line not aligned under the tab:\n%q", got)
	}
}

func TestRender_MultiLineSpan(t *testing.T) {
	src := "foo: [\n  1,\n  2]"
	span := compiler.Span{
		Start: compiler.Position{Line: 1, Column: 6, Offset: 5},
		End:   compiler.Position{Line: 3, Column: 5, Offset: 16},
	}
	got := renderDiagnostic("m.spr", src, span, "bad")
	lines := strings.Split(got, "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines:\n%s", len(lines), got)
	}
	if lines[2] != "     |      ^" {
		t.Errorf("first caret line = %q", lines[2])
	}
	if lines[6] != "     | ^^^^" {
		t.Errorf("last caret line = %q", lines[6])
	}
}

func TestUnwind_WithoutContext(t *testing.T) {
	u := errorf("plain")
	if u.Error() != "plain" {
		t.Errorf("Error = %q", u.Error())
	}
	u.WithSpan(compiler.Span{Start: compiler.Position{Line: 2, Column: 4, Offset: 9}, End: compiler.Position{Line: 2, Column: 5, Offset: 10}})
	if u.Error() != "2:4: plain" {
		t.Errorf("Error = %q", u.Error())
	}
}

func TestUnwind_FirstSpanWins(t *testing.T) {
	inner := compiler.Span{Start: compiler.Position{Line: 1, Column: 5, Offset: 4}, End: compiler.Position{Line: 1, Column: 6, Offset: 5}}
	outer := compiler.Span{Start: compiler.Position{Line: 1, Column: 1}, End: compiler.Position{Line: 1, Column: 9, Offset: 8}}
	u := errorf("x").WithSpan(inner).WithSpan(outer)
	if got, _ := u.Span(); got != inner {
		t.Errorf("span = %+v, want the inner one", got)
	}
}

func TestUnwind_ReturnIgnoresLocation(t *testing.T) {
	u := newReturn(NewEnv(), Object{})
	u.WithSpan(compiler.Span{End: compiler.Position{Offset: 3}}).WithContext("a", "b")
	if _, ok := u.Span(); ok {
		t.Error("a return picked up a span")
	}
	if !u.IsReturn() {
		t.Error("IsReturn = false")
	}
}

func TestUnwind_TypeErrorMessage(t *testing.T) {
	vm := NewVM()
	u := typeError(vm.IntegerClass.Instance, vm.NewString("x"))
	if u.Message() != "Type error: expected Integer, got 'x'" {
		t.Errorf("message = %q", u.Message())
	}
	if u.Kind().String() != "type error" {
		t.Errorf("kind = %s", u.Kind())
	}
}

func TestUnwind_AsUnwindSyntax(t *testing.T) {
	pe := &compiler.Error{Message: "unexpected ')'"}
	u := asUnwind(pe)
	if u.Message() != "Syntax error: unexpected ')'" {
		t.Errorf("message = %q", u.Message())
	}

	eof := asUnwind(&compiler.Error{Message: "unterminated block", Incomplete: true})
	if !IsEndOfInput(eof) {
		t.Error("incomplete parse is not end of input")
	}

	other := asUnwind(errors.New("disk on fire"))
	if other.Kind() != SimpleError || other.Message() != "disk on fire" {
		t.Errorf("wrapped = %v %q", other.Kind(), other.Message())
	}
}
