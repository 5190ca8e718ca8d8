package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Message send
// ---------------------------------------------------------------------------

// Send dispatches selector to recv. An unknown selector falls back to
// perform:with: with the selector as a String and the arguments as an
// Array; without that it is a message-not-understood error.
func (vm *VM) Send(recv Object, selector string, args []Object) (Object, error) {
	if m := recv.vt.Lookup(selector); m != nil {
		return vm.invoke(m, recv, selector, args)
	}
	if m := recv.vt.Lookup("perform:with:"); m != nil {
		return vm.invoke(m, recv, "perform:with:", []Object{vm.NewString(selector), vm.NewArray(args)})
	}
	return Object{}, vm.notUnderstood(recv, selector, args)
}

func (vm *VM) invoke(m Method, recv Object, selector string, args []Object) (Object, error) {
	if arity := m.Arity(); arity >= 0 && arity != len(args) {
		return Object{}, errorf("#%s expects %d argument(s), got %d", selector, arity, len(args))
	}
	return m.Invoke(vm, recv, args)
}

func (vm *VM) notUnderstood(recv Object, selector string, args []Object) *Unwind {
	msg := fmt.Sprintf("%s does not understand #%s", vm.Describe(recv), selector)
	if len(args) > 0 {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = vm.Describe(a)
		}
		msg += " (arguments: " + strings.Join(parts, ", ") + ")"
	}
	return errorf("%s", msg)
}

// ---------------------------------------------------------------------------
// Printing
// ---------------------------------------------------------------------------

// Describe renders o without sending any messages. It is what diagnostics
// and the default printString use.
func (vm *VM) Describe(o Object) string {
	return describeValue(o)
}

func describeValue(o Object) string {
	var b strings.Builder
	writeValue(&b, o, make(map[any]bool))
	return b.String()
}

const maxDescribeLen = 200

func writeValue(b *strings.Builder, o Object, seen map[any]bool) {
	if b.Len() > maxDescribeLen {
		b.WriteString("...")
		return
	}
	if o.vt == nil {
		b.WriteString("<invalid>")
		return
	}
	switch v := o.data.(type) {
	case nil:
		b.WriteString("nil")
	case bool:
		b.WriteString(strconv.FormatBool(v))
	case int64:
		b.WriteString(strconv.FormatInt(v, 10))
	case float64:
		b.WriteString(formatFloat(v))
	case *String:
		b.WriteString(quoteString(v.Get()))
	case *Array:
		if seen[v] {
			b.WriteString("[...]")
			return
		}
		seen[v] = true
		defer delete(seen, v)
		b.WriteByte('[')
		for i, item := range v.Snapshot() {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, item, seen)
		}
		b.WriteByte(']')
	case *Dictionary:
		if seen[v] {
			b.WriteString("#{...}")
			return
		}
		seen[v] = true
		defer delete(seen, v)
		keys, values := v.entries()
		b.WriteString("#{")
		for i := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, keys[i], seen)
			b.WriteString(" -> ")
			writeValue(b, values[i], seen)
		}
		b.WriteByte('}')
	case *Instance:
		b.WriteString(article(o.vt.Name()))
	case *Closure:
		if v.Name != "" {
			b.WriteString("a Method #" + v.Name)
		} else {
			b.WriteString("a Block")
		}
	case *Class:
		b.WriteString(v.Name)
	case *SystemState:
		b.WriteString("System")
	case *CompilerState:
		b.WriteString("a Compiler")
	case *Database:
		b.WriteString("a Database(" + v.path + ")")
	default:
		b.WriteString(article(o.vt.Name()))
	}
}

func article(name string) string {
	if name != "" && strings.ContainsRune("AEIOU", rune(name[0])) {
		return "an " + name
	}
	return "a " + name
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// printString sends printString to o and requires a String back.
func (vm *VM) printString(o Object) (string, error) {
	return vm.sendForString(o, "printString")
}

// displayString sends displayString to o and requires a String back.
func (vm *VM) displayString(o Object) (string, error) {
	return vm.sendForString(o, "displayString")
}

func (vm *VM) sendForString(o Object, selector string) (string, error) {
	r, err := vm.Send(o, selector, nil)
	if err != nil {
		return "", err
	}
	s, ok := r.AsString()
	if !ok {
		return "", typeErrorf(vm.StringClass.Instance, r, "#%s should return a String, got %s", selector, vm.Describe(r))
	}
	return s, nil
}
