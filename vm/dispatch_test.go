package vm

import (
	"math"
	"testing"
)

func TestSend_NotUnderstood(t *testing.T) {
	u := evalErr(t, "3 frobnicate: 'x' with: [1]")
	want := "3 does not understand #frobnicate:with: (arguments: 'x', [1])"
	if u.Message() != want {
		t.Errorf("message = %q, want %q", u.Message(), want)
	}

	u = evalErr(t, "nil foo")
	if u.Message() != "nil does not understand #foo" {
		t.Errorf("message = %q", u.Message())
	}
}

func TestSend_PerformFallback(t *testing.T) {
	src := `
class Proxy {
    method: perform: sel with: args { sel concat: args size asString }
}
Proxy new frob: 1 with: 2`
	wantDescribe(t, evalOK(t, src), "'frob:with:2'")
}

func TestSend_UniversalMethods(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"3 yourself", "3"},
		{"nil isNil", "true"},
		{"3 isNil", "false"},
		{"3 notNil", "true"},
		{"3 respondsTo: 'printString'", "true"},
		{"3 respondsTo: 'frob'", "false"},
		{"3 send: '+' with: [4]", "7"},
		{"nil ifNil: { 1 }", "1"},
		{"5 ifNil: { 1 }", "5"},
		{"5 ifNotNil: { :x | x + 1 }", "6"},
		{"nil ifNil: { 1 } ifNotNil: { :x | x }", "1"},
		{"3 ~= 4", "true"},
		{"3 printString", "'3'"},
		{"'a' printString", "'''a'''"},
		{"'a' displayString", "'a'"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			wantDescribe(t, evalOK(t, tt.expr), tt.want)
		})
	}
}

func TestSend_PrintStringOverride(t *testing.T) {
	src := `
class Pt {
    | x |
    method: printString { ('Pt(' concat: x printString) concat: ')' }
}
[Pt x: 1, Pt x: 2] printString`
	wantDescribe(t, evalOK(t, src), "'[Pt(1), Pt(2)]'")
}

func TestSend_HostAPI(t *testing.T) {
	vm := NewVM()
	v, err := vm.Send(vm.Int(6), "*", []Object{vm.Int(7)})
	if err != nil {
		t.Fatal(err)
	}
	wantInt(t, v, 42)

	_, err = vm.Send(vm.Int(6), "*", nil)
	if err == nil {
		t.Fatal("Send with the wrong arity succeeded")
	}
	wantMessage(t, asUnwind(err), "expects 1 argument(s), got 0")
}

func TestDescribe(t *testing.T) {
	vm := NewVM()
	cyclic := vm.NewArray(nil)
	cyclic.ArrayData().Update(func(items *[]Object) { *items = append(*items, cyclic) })

	tests := []struct {
		name string
		o    Object
		want string
	}{
		{"nil", vm.Nil(), "nil"},
		{"bool", vm.Bool(false), "false"},
		{"int", vm.Int(-3), "-3"},
		{"whole float", vm.Float(2), "2.0"},
		{"float", vm.Float(0.5), "0.5"},
		{"infinity", vm.Float(math.Inf(1)), "Infinity"},
		{"quote", vm.NewString("it's"), "'it''s'"},
		{"cycle", cyclic, "[[...]]"},
		{"class", vm.IntegerClass.Object(), "Integer"},
		{"system", vm.System(), "System"},
		{"compiler", vm.NewCompiler(), "a Compiler"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vm.Describe(tt.o); got != tt.want {
				t.Errorf("Describe = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribe_Article(t *testing.T) {
	src := `
class Apple { }
class Pear { }
[Apple new, Pear new, { 1 }]`
	wantDescribe(t, evalOK(t, src), "[an Apple, a Pear, a Block]")
}
