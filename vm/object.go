package vm

import (
	"database/sql"
	"fmt"
)

// Object is an immutable handle to a Sprat value: a dispatch table plus a
// payload. The payload is one of
//
//	nil                nil
//	bool               true, false
//	int64              integers
//	float64            floats
//	*String            mutable strings
//	*Array             growable arrays
//	*Dictionary        insertion-ordered dictionaries
//	*Instance          instances of user-defined classes
//	*Closure           blocks and interpreted methods
//	*Class             class and interface objects
//	*SystemState       the System object
//	*CompilerState     embedded compilers
//	*Database          sqlite connections
//
// Scalars compare by value and everything else by pointer, so Objects are
// comparable with ==. The zero Object is invalid; use VM.Nil.
type Object struct {
	vt   *VTable
	data any
}

// VTable returns the object's dispatch table.
func (o Object) VTable() *VTable { return o.vt }

// Payload returns the raw payload.
func (o Object) Payload() any { return o.data }

// Valid reports whether o was produced by a VM.
func (o Object) Valid() bool { return o.vt != nil }

// Is reports payload equality: value equality for scalars, identity for
// everything else.
func (o Object) Is(other Object) bool {
	return o.vt == other.vt && o.data == other.data
}

// IsNil reports whether o is nil.
func (o Object) IsNil() bool {
	return o.vt != nil && o.data == nil
}

// ---------------------------------------------------------------------------
// Payload kinds
// ---------------------------------------------------------------------------

// String is a mutable string payload.
type String struct {
	Cell[string]
}

// Array is a growable array payload.
type Array struct {
	Cell[[]Object]
}

// Instance holds the slots of a user-defined class instance.
type Instance struct {
	Cell[[]Object]
}

// Dictionary is an insertion-ordered map payload. String keys compare by
// content and are stored as private copies; every other key compares by
// payload equality.
type Dictionary struct {
	Cell[dictTable]
}

type dictTable struct {
	keys   []Object
	values []Object
	index  map[dictKey]int
}

type dictKey struct {
	vt   *VTable
	data any
}

type stringKey string

func keyFor(o Object) dictKey {
	if s, ok := o.data.(*String); ok {
		var k string
		s.View(func(v string) { k = v })
		return dictKey{vt: o.vt, data: stringKey(k)}
	}
	return dictKey{vt: o.vt, data: o.data}
}

func (t *dictTable) get(k Object) (Object, bool) {
	if i, ok := t.index[keyFor(k)]; ok {
		return t.values[i], true
	}
	return Object{}, false
}

func (t *dictTable) put(k, v Object) {
	key := keyFor(k)
	if i, ok := t.index[key]; ok {
		t.values[i] = v
		return
	}
	if t.index == nil {
		t.index = make(map[dictKey]int)
	}
	// The index is keyed by content, so keep a private copy.
	if sk, ok := key.data.(stringKey); ok {
		k = Object{vt: k.vt, data: &String{NewCell(string(sk))}}
	}
	t.index[key] = len(t.keys)
	t.keys = append(t.keys, k)
	t.values = append(t.values, v)
}

func (t *dictTable) remove(k Object) (Object, bool) {
	key := keyFor(k)
	i, ok := t.index[key]
	if !ok {
		return Object{}, false
	}
	v := t.values[i]
	t.keys = append(t.keys[:i], t.keys[i+1:]...)
	t.values = append(t.values[:i], t.values[i+1:]...)
	delete(t.index, key)
	for j := i; j < len(t.keys); j++ {
		t.index[keyFor(t.keys[j])] = j
	}
	return v, true
}

// SystemState is the payload of the System object.
type SystemState struct {
	args []string
}

// CompilerState is the payload of a Compiler object: its own top-level
// scope for embedded evaluation.
type CompilerState struct {
	env *Env
}

// Database is the payload of an open sqlite connection.
type Database struct {
	path string
	db   *sql.DB
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// Nil returns the nil object.
func (vm *VM) Nil() Object { return Object{vt: vm.NilClass.Instance} }

// Bool returns true or false.
func (vm *VM) Bool(b bool) Object { return Object{vt: vm.BooleanClass.Instance, data: b} }

// Int returns an integer object.
func (vm *VM) Int(n int64) Object { return Object{vt: vm.IntegerClass.Instance, data: n} }

// Float returns a float object.
func (vm *VM) Float(f float64) Object { return Object{vt: vm.FloatClass.Instance, data: f} }

// NewString returns a fresh mutable string.
func (vm *VM) NewString(s string) Object {
	return Object{vt: vm.StringClass.Instance, data: &String{NewCell(s)}}
}

// NewArray returns a fresh array holding a copy of items.
func (vm *VM) NewArray(items []Object) Object {
	cp := make([]Object, len(items))
	copy(cp, items)
	return Object{vt: vm.ArrayClass.Instance, data: &Array{NewCell(cp)}}
}

// NewDictionary returns a fresh empty dictionary.
func (vm *VM) NewDictionary() Object {
	return Object{vt: vm.DictionaryClass.Instance, data: &Dictionary{NewCell(dictTable{})}}
}

// ---------------------------------------------------------------------------
// Payload access
//
// The panicking accessors are for primitives whose receiver kind is fixed by
// the vtable they are installed in; a mismatch is a dispatch bug. The As*
// forms are for host code and for checking arguments.
// ---------------------------------------------------------------------------

func kindPanic(method, want string, o Object) string {
	return fmt.Sprintf("Object.%s: not %s (%T)", method, want, o.data)
}

// Int returns the integer payload or panics.
func (o Object) Int() int64 {
	n, ok := o.data.(int64)
	if !ok {
		panic(kindPanic("Int", "an Integer", o))
	}
	return n
}

// Float returns the float payload or panics.
func (o Object) Float() float64 {
	f, ok := o.data.(float64)
	if !ok {
		panic(kindPanic("Float", "a Float", o))
	}
	return f
}

// Bool returns the boolean payload or panics.
func (o Object) Bool() bool {
	b, ok := o.data.(bool)
	if !ok {
		panic(kindPanic("Bool", "a Boolean", o))
	}
	return b
}

// StringData returns the string payload or panics.
func (o Object) StringData() *String {
	s, ok := o.data.(*String)
	if !ok {
		panic(kindPanic("StringData", "a String", o))
	}
	return s
}

// ArrayData returns the array payload or panics.
func (o Object) ArrayData() *Array {
	a, ok := o.data.(*Array)
	if !ok {
		panic(kindPanic("ArrayData", "an Array", o))
	}
	return a
}

// DictionaryData returns the dictionary payload or panics.
func (o Object) DictionaryData() *Dictionary {
	d, ok := o.data.(*Dictionary)
	if !ok {
		panic(kindPanic("DictionaryData", "a Dictionary", o))
	}
	return d
}

// ClosureData returns the closure payload or panics.
func (o Object) ClosureData() *Closure {
	c, ok := o.data.(*Closure)
	if !ok {
		panic(kindPanic("ClosureData", "a Closure", o))
	}
	return c
}

// ClassData returns the class payload or panics.
func (o Object) ClassData() *Class {
	c, ok := o.data.(*Class)
	if !ok {
		panic(kindPanic("ClassData", "a Class", o))
	}
	return c
}

// AsInt returns the integer payload, if any.
func (o Object) AsInt() (int64, bool) {
	n, ok := o.data.(int64)
	return n, ok
}

// AsFloat returns the float payload, if any.
func (o Object) AsFloat() (float64, bool) {
	f, ok := o.data.(float64)
	return f, ok
}

// AsBool returns the boolean payload, if any.
func (o Object) AsBool() (bool, bool) {
	b, ok := o.data.(bool)
	return b, ok
}

// AsString returns a copy of the string contents, if o is a String.
func (o Object) AsString() (string, bool) {
	s, ok := o.data.(*String)
	if !ok {
		return "", false
	}
	return s.Get(), true
}

// AsArray returns a snapshot of the elements, if o is an Array.
func (o Object) AsArray() ([]Object, bool) {
	a, ok := o.data.(*Array)
	if !ok {
		return nil, false
	}
	return a.Snapshot(), true
}

// AsClass returns the class payload, if o is a class or interface.
func (o Object) AsClass() (*Class, bool) {
	c, ok := o.data.(*Class)
	return c, ok
}

// Get returns the string contents.
func (s *String) Get() string {
	var out string
	s.View(func(v string) { out = v })
	return out
}

// Snapshot returns a copy of the elements. Callers iterate the copy so that
// blocks may mutate the array while it is being walked.
func (a *Array) Snapshot() []Object {
	var out []Object
	a.View(func(items []Object) {
		out = make([]Object, len(items))
		copy(out, items)
	})
	return out
}

// Len returns the element count.
func (a *Array) Len() int {
	var n int
	a.View(func(items []Object) { n = len(items) })
	return n
}

// Slot returns slot i.
func (in *Instance) Slot(i int) Object {
	var out Object
	in.View(func(slots []Object) { out = slots[i] })
	return out
}

// SetSlot stores into slot i.
func (in *Instance) SetSlot(i int, v Object) {
	in.Update(func(slots *[]Object) { (*slots)[i] = v })
}
