package vm

import "testing"

func TestCompiler_Evaluate(t *testing.T) {
	wantInt(t, evalOK(t, "Compiler new evaluate: '3 + 4'"), 7)
}

func TestCompiler_SeesTopLevel(t *testing.T) {
	src := `
let base = 10.
Compiler new evaluate: 'base * 2'`
	wantInt(t, evalOK(t, src), 20)
}

func TestCompiler_OwnScope(t *testing.T) {
	src := `
let c = Compiler new.
c evaluate: 'let hidden = 5'.
c evaluate: 'hidden + 1'`
	wantInt(t, evalOK(t, src), 6)

	u := evalErr(t, "Compiler new evaluate: 'let hidden = 5'. hidden")
	wantMessage(t, u, "Unbound variable: hidden")
}

func TestCompiler_ClassesAllowed(t *testing.T) {
	src := `
let c = Compiler new.
c evaluate: 'class Tmp { classMethod: go { 9 } }'.
c evaluate: 'Tmp go'`
	wantInt(t, evalOK(t, src), 9)
}

func TestCompiler_DefineAndAt(t *testing.T) {
	src := `
let c = Compiler new.
c define: 'x' as: 41.
c evaluate: 'x := x + 1'.
c at: 'x'`
	wantInt(t, evalOK(t, src), 42)
	wantDescribe(t, evalOK(t, "let c = Compiler new. c define: 'b' as: 1; define: 'a' as: 2. c names"), "['a', 'b']")
	wantDescribe(t, evalOK(t, "Compiler new at: 'nope'"), "nil")
}

func TestCompiler_OnEof(t *testing.T) {
	src := `Compiler new evaluate: '[1, 2' onEof: { :msg | 'more' }`
	wantDescribe(t, evalOK(t, src), "'more'")

	src = `Compiler new evaluate: '[1, 2' onEof: { 'no arg' }`
	wantDescribe(t, evalOK(t, src), "'no arg'")

	src = `Compiler new evaluate: '1 + 1' onEof: { 0 }`
	wantInt(t, evalOK(t, src), 2)
}

func TestCompiler_ErrorsKeepTheirSource(t *testing.T) {
	u := evalErr(t, "Compiler new evaluate: 'nope'")
	if u.Loc.Name != compilerSourceName {
		t.Errorf("context name = %q, want %q", u.Loc.Name, compilerSourceName)
	}
	wantMessage(t, evalErr(t, "Compiler new evaluate: ')'"), "Syntax error")
	if !IsEndOfInput(evalErr(t, "Compiler new evaluate: '{ 1'")) {
		t.Error("incomplete input is not end of input")
	}
}

func TestCompiler_ReturnPassesThroughEvaluate(t *testing.T) {
	src := `
class M {
    classMethod: run {
        | c |
        c := Compiler new.
        c define: 'escape' as: { ^42 }.
        c evaluate: 'escape value'.
        ^0
    }
}
M run`
	wantInt(t, evalOK(t, src), 42)

	src = `
class M {
    classMethod: run {
        Compiler new evaluate: '[1, 2' onEof: { ^7 }.
        ^0
    }
}
M run`
	wantInt(t, evalOK(t, src), 7)
}

func TestCompiler_EscapedReturnInsideEvaluate(t *testing.T) {
	src := `
class Maker { classMethod: make { ^{ ^1 } } }
let c = Compiler new.
c define: 'blk' as: Maker make.
c evaluate: 'blk value'`
	u := evalErr(t, src)
	wantMessage(t, u, "Nothing to return from")
	if u.IsReturn() {
		t.Error("escaped return should surface as an exception")
	}
}
