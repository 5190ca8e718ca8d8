package vm

import (
	"bytes"
	"testing"
)

type exprCase struct {
	expr string
	want string
}

func runExprs(t *testing.T, tests []exprCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			wantDescribe(t, evalOK(t, tt.expr), tt.want)
		})
	}
}

func TestIntegerPrimitives(t *testing.T) {
	runExprs(t, []exprCase{
		{"7 + 3", "10"},
		{"7 - 10", "-3"},
		{"6 / 3", "2"},
		{"7 / 2", "3.5"},
		{"-7 // 2", "-4"},
		{"-7 \\\\ 2", "1"},
		{"-7 rem: 2", "-1"},
		{"12 gcd: 18", "6"},
		{"3 < 4", "true"},
		{"3 >= 4", "false"},
		{"3 = 3.0", "true"},
		{"3 + 0.5", "3.5"},
		{"5 negated abs", "5"},
		{"0 isZero", "true"},
		{"4 even", "true"},
		{"-9 sign", "-1"},
		{"9 sqrt", "3.0"},
		{"3 asFloat", "3.0"},
		{"42 asString", "'42'"},
		{"255 printString: 16", "'ff'"},
		{"3 max: 9", "9"},
		{"3 between: 1 and: 5", "true"},
		{"12 bitAnd: 10", "8"},
		{"1 bitShift: 4", "16"},
		{"Integer parse: '123'", "123"},
	})
}

func TestIntegerErrors(t *testing.T) {
	wantMessage(t, evalErr(t, "1 / 0"), "Division by zero")
	wantMessage(t, evalErr(t, "9223372036854775807 + 1"), "Integer overflow")
	u := evalErr(t, "1 + 'a'")
	if u.Kind() != TypeError {
		t.Errorf("kind = %v, want type error", u.Kind())
	}
	wantMessage(t, evalErr(t, "1 to: 5 by: 0 do: { :i | i }"), "Step must not be zero")
}

func TestIntegerLoops(t *testing.T) {
	src := `
let seen = Array new.
10 to: 1 by: -3 do: { :i | seen push: i }.
seen`
	wantDescribe(t, evalOK(t, src), "[10, 7, 4, 1]")

	src = `
let n = 0.
4 timesRepeat: { n := n + 2 }.
n`
	wantInt(t, evalOK(t, src), 8)
}

func TestFloatPrimitives(t *testing.T) {
	runExprs(t, []exprCase{
		{"1.5 + 1", "2.5"},
		{"2.0 ** 10", "1024.0"},
		{"7.5 // 2", "3"},
		{"2.7 floor", "2"},
		{"2.2 ceiling", "3"},
		{"2.5 rounded", "3"},
		{"-2.7 truncated", "-2"},
		{"0.1 + 0.2 roundTo: 0.01", "0.3"},
		{"Float infinity isInfinite", "true"},
		{"Float nan isNaN", "true"},
		{"Float parse: '1.25'", "1.25"},
		{"1.0 - 0.5", "0.5"},
		{"1.5 < 2", "true"},
	})
}

func TestBooleanPrimitives(t *testing.T) {
	runExprs(t, []exprCase{
		{"true ifTrue: { 1 } ifFalse: { 2 }", "1"},
		{"false ifTrue: { 1 }", "nil"},
		{"false ifFalse: { 2 }", "2"},
		{"true and: { false }", "false"},
		{"false or: { true }", "true"},
		{"true & false", "false"},
		{"false | true", "true"},
		{"true xor: true", "false"},
		{"false not", "true"},
		{"nil asString", "'nil'"},
	})

	src := `
let touched = false.
false and: { touched := true }.
touched`
	wantDescribe(t, evalOK(t, src), "false")
}

func TestStringPrimitives(t *testing.T) {
	runExprs(t, []exprCase{
		{"'hello' size", "5"},
		{"'' isEmpty", "true"},
		{"'héllo' at: 2", "'é'"},
		{"'ab' concat: 'cd'", "'abcd'"},
		{"'ab' = 'ab'", "true"},
		{"'ab' < 'b'", "true"},
		{"'hello' includes: 'ell'", "true"},
		{"'hello' startsWith: 'he'", "true"},
		{"'hello' indexOf: 'l'", "3"},
		{"'MiXed' asUppercase", "'MIXED'"},
		{"'  pad  ' trimmed", "'pad'"},
		{"'abc' reversed", "'cba'"},
		{"'hello' copyFrom: 2 to: 4", "'ell'"},
		{"'a-b-c' replaceAll: '-' with: '+'", "'a+b+c'"},
		{"'a,b,c' split: ','", "['a', 'b', 'c']"},
		{"', ' join: [1, 'two', 3.0]", "'1, two, 3.0'"},
		{"'42' asInteger", "42"},
		{"'x' asInteger", "nil"},
		{"'ab' asArray", "['a', 'b']"},
		{"String new: 3", "'3'"},
	})
}

func TestStringMutation(t *testing.T) {
	src := `
let s = 'abc'.
s at: 1 put: 'X'.
s append: 1; append: 'd'.
s`
	wantDescribe(t, evalOK(t, src), "'Xbc1d'")

	wantMessage(t, evalErr(t, "'abc' at: 4"), "Index out of bounds: 4 (size 3)")
	wantMessage(t, evalErr(t, "'abc' at: 1 put: 'xy'"), "expects a single character")
}

func TestArrayPrimitives(t *testing.T) {
	runExprs(t, []exprCase{
		{"[1, 2, 3] size", "3"},
		{"[] isEmpty", "true"},
		{"[5, 6] at: 2", "6"},
		{"[1, 2, 3] collect: { :x | x * x }", "[1, 4, 9]"},
		{"[1, 2, 3, 4] select: { :x | x even }", "[2, 4]"},
		{"[1, 2, 3, 4] reject: { :x | x even }", "[1, 3]"},
		{"[1, 2, 3] inject: 0 into: { :a :x | a + x }", "6"},
		{"[1, 2, 3] detect: { :x | x > 1 }", "2"},
		{"[1, 2, 3] detect: { :x | x > 5 } ifNone: { 0 }", "0"},
		{"['a', 'b'] includes: 'b'", "true"},
		{"[1, 2] = [1, 2]", "true"},
		{"[1, 2] reversed", "[2, 1]"},
		{"[1] concat: [2]", "[1, 2]"},
		{"[1, 2, 3, 4] copyFrom: 2 to: 3", "[2, 3]"},
		{"[3, 1, 2] sorted", "[1, 2, 3]"},
		{"[3, 1, 2] sorted: { :a :b | a > b }", "[3, 2, 1]"},
		{"[1, 2] first", "1"},
		{"[1, 2] last", "2"},
		{"Array new: 2", "[nil, nil]"},
		{"Array new: 2 withAll: 0", "[0, 0]"},
	})
}

func TestArrayMutation(t *testing.T) {
	src := `
let a = [1, 2, 3].
a pop.
a insert: 9 at: 1.
a removeAt: 2.
a at: 2 put: 7.
a`
	wantDescribe(t, evalOK(t, src), "[9, 7]")

	src = `
let a = [1, 2, 3].
let b = a copy.
b push: 4.
a size`
	wantInt(t, evalOK(t, src), 3)

	wantMessage(t, evalErr(t, "[] pop"), "Cannot pop from an empty Array")
	wantMessage(t, evalErr(t, "[1] at: 0"), "Index out of bounds")
}

func TestArraySelfReference(t *testing.T) {
	src := `
let a = [1].
a push: a.
a printString`
	wantDescribe(t, evalOK(t, src), "'[1, [...]]'")
}

func TestArrayDoWithIndex(t *testing.T) {
	src := `
let sum = 0.
[10, 20] doWithIndex: { :x :i | sum := sum + (x * i) }.
sum`
	wantInt(t, evalOK(t, src), 50)
}

func TestDictionaryPrimitives(t *testing.T) {
	runExprs(t, []exprCase{
		{"#{'a' -> 1} at: 'a'", "1"},
		{"#{'a' -> 1} at: 'b' ifAbsent: { 0 }", "0"},
		{"#{'a' -> 1} has: 'a'", "true"},
		{"#{'a' -> 1, 'b' -> 2} size", "2"},
		{"#{'a' -> 1, 'b' -> 2} keys", "['a', 'b']"},
		{"#{'a' -> 1, 'b' -> 2} values", "[1, 2]"},
		{"Dictionary new isEmpty", "true"},
		{"#{1 -> 'x', 1.5 -> 'y'} at: 1.5", "'y'"},
	})
}

func TestDictionaryMutation(t *testing.T) {
	src := `
let d = Dictionary new.
d at: 'k' put: 1.
d at: 'k' put: 2.
d at: 'j' put: 3.
d removeAt: 'j'.
d`
	wantDescribe(t, evalOK(t, src), "#{'k' -> 2}")

	src = `
let total = 0.
#{'a' -> 1, 'b' -> 2} keysAndValuesDo: { :k :v | total := total + v }.
total`
	wantInt(t, evalOK(t, src), 3)

	wantMessage(t, evalErr(t, "Dictionary new at: 'x'"), "Key not found: 'x'")
}

func TestDictionaryStringKeysByContent(t *testing.T) {
	src := `
let d = Dictionary new.
let k = 'key'.
d at: k put: 1.
d at: 'key'`
	wantInt(t, evalOK(t, src), 1)
}

func TestDictionaryKeyMutationDoesNotLeak(t *testing.T) {
	src := `
let d = Dictionary new.
let s = 'ab'.
d at: s put: 1.
s append: 'c'.
[(d at: 'ab'), d keys, (d at: 'abc' ifAbsent: { 0 })]`
	wantDescribe(t, evalOK(t, src), "[1, ['ab'], 0]")
}

func TestBlockPrimitives(t *testing.T) {
	runExprs(t, []exprCase{
		{"{ 1 } value", "1"},
		{"{ :a :b | a - b } value: 5 value: 3", "2"},
		{"{ :a :b :c :d | a + b + c + d } value: 1 value: 2 value: 3 value: 4", "10"},
		{"{ :a :b | a * b } valueWithArguments: [6, 7]", "42"},
		{"{ :a :b | a } arity", "2"},
	})

	src := `
let n = 0.
{ n := n + 1. n >= 3 } whileFalse.
n`
	wantInt(t, evalOK(t, src), 3)
}

func TestBlockRepeatExitsByReturn(t *testing.T) {
	src := `
class Loop {
    classMethod: run {
        |n|
        n := 0.
        { n := n + 1. (n = 7) ifTrue: { ^n } } repeat
    }
}
Loop run`
	wantInt(t, evalOK(t, src), 7)
}

func TestSystemPrint(t *testing.T) {
	vm := NewVM()
	var out bytes.Buffer
	vm.SetOutput(&out)
	_, err := vm.EvalAll(`System print: 'a'; print: 1; newline; printLine: [1, 'b']`)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "a1\n[1, 'b']\n" {
		t.Errorf("output = %q", got)
	}
}

func TestSystemArguments(t *testing.T) {
	vm := NewVM()
	vm.SetArguments([]string{"x", "y"})
	v, err := vm.EvalAll("System arguments")
	if err != nil {
		t.Fatal(err)
	}
	wantDescribe(t, v, "['x', 'y']")
}

func TestSystemRandom(t *testing.T) {
	vm := NewVM()
	for i := 0; i < 50; i++ {
		v, err := vm.EvalAll("System random: 6")
		if err != nil {
			t.Fatal(err)
		}
		if n := v.Int(); n < 1 || n > 6 {
			t.Fatalf("random: 6 = %d", n)
		}
	}
}
