package vm

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// String Primitives
//
// Strings are mutable and indexed by character from 1.
// ---------------------------------------------------------------------------

func (vm *VM) registerStringPrimitives() {
	c := vm.StringClass.Instance

	c.AddMethod0("size", func(vm *VM, recv Object) (Object, error) {
		return vm.Int(int64(utf8.RuneCountInString(recv.StringData().Get()))), nil
	})
	c.AddMethod0("isEmpty", func(vm *VM, recv Object) (Object, error) {
		return vm.Bool(recv.StringData().Get() == ""), nil
	})
	c.AddMethod0("notEmpty", func(vm *VM, recv Object) (Object, error) {
		return vm.Bool(recv.StringData().Get() != ""), nil
	})

	c.AddMethod1("at:", func(vm *VM, recv Object, idx Object) (Object, error) {
		runes := []rune(recv.StringData().Get())
		i, err := vm.index(idx, len(runes))
		if err != nil {
			return Object{}, err
		}
		return vm.NewString(string(runes[i])), nil
	})
	c.AddMethod2("at:put:", func(vm *VM, recv Object, idx, ch Object) (Object, error) {
		s := recv.StringData()
		runes := []rune(s.Get())
		i, err := vm.index(idx, len(runes))
		if err != nil {
			return Object{}, err
		}
		repl, err := vm.stringArg(ch)
		if err != nil {
			return Object{}, err
		}
		if utf8.RuneCountInString(repl) != 1 {
			return Object{}, errorf("at:put: expects a single character, got %s", quoteString(repl))
		}
		runes[i] = []rune(repl)[0]
		s.Update(func(v *string) { *v = string(runes) })
		return ch, nil
	})

	// concat: makes a new string; append: grows the receiver.
	c.AddMethod1("concat:", func(vm *VM, recv Object, arg Object) (Object, error) {
		other, err := vm.stringArg(arg)
		if err != nil {
			return Object{}, err
		}
		return vm.NewString(recv.StringData().Get() + other), nil
	})
	c.AddMethod1("append:", func(vm *VM, recv Object, arg Object) (Object, error) {
		other, err := vm.displayString(arg)
		if err != nil {
			return Object{}, err
		}
		recv.StringData().Update(func(v *string) { *v += other })
		return recv, nil
	})

	// Comparison by content.
	c.AddMethod1("=", func(vm *VM, recv Object, arg Object) (Object, error) {
		other, ok := arg.AsString()
		return vm.Bool(ok && other == recv.StringData().Get()), nil
	})
	strcmp := func(name string, ok func(int) bool) {
		c.AddMethod1(name, func(vm *VM, recv Object, arg Object) (Object, error) {
			other, err := vm.stringArg(arg)
			if err != nil {
				return Object{}, err
			}
			return vm.Bool(ok(strings.Compare(recv.StringData().Get(), other))), nil
		})
	}
	strcmp("<", func(n int) bool { return n < 0 })
	strcmp(">", func(n int) bool { return n > 0 })
	strcmp("<=", func(n int) bool { return n <= 0 })
	strcmp(">=", func(n int) bool { return n >= 0 })

	// Searching
	strpred := func(name string, pred func(s, sub string) bool) {
		c.AddMethod1(name, func(vm *VM, recv Object, arg Object) (Object, error) {
			other, err := vm.stringArg(arg)
			if err != nil {
				return Object{}, err
			}
			return vm.Bool(pred(recv.StringData().Get(), other)), nil
		})
	}
	strpred("includes:", strings.Contains)
	strpred("startsWith:", strings.HasPrefix)
	strpred("endsWith:", strings.HasSuffix)

	c.AddMethod1("indexOf:", func(vm *VM, recv Object, arg Object) (Object, error) {
		other, err := vm.stringArg(arg)
		if err != nil {
			return Object{}, err
		}
		s := recv.StringData().Get()
		i := strings.Index(s, other)
		if i < 0 {
			return vm.Int(0), nil
		}
		return vm.Int(int64(utf8.RuneCountInString(s[:i]) + 1)), nil
	})

	// Transformations return new strings.
	transform := func(name string, fn func(string) string) {
		c.AddMethod0(name, func(vm *VM, recv Object) (Object, error) {
			return vm.NewString(fn(recv.StringData().Get())), nil
		})
	}
	transform("asUppercase", strings.ToUpper)
	transform("asLowercase", strings.ToLower)
	transform("trimmed", strings.TrimSpace)
	transform("copy", func(s string) string { return s })
	transform("asString", func(s string) string { return s })
	transform("displayString", func(s string) string { return s })
	transform("reversed", func(s string) string {
		runes := []rune(s)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes)
	})

	c.AddMethod2("copyFrom:to:", func(vm *VM, recv Object, from, to Object) (Object, error) {
		runes := []rune(recv.StringData().Get())
		start, end, err := vm.subrange(from, to, len(runes))
		if err != nil {
			return Object{}, err
		}
		return vm.NewString(string(runes[start:end])), nil
	})
	c.AddMethod2("replaceAll:with:", func(vm *VM, recv Object, old, repl Object) (Object, error) {
		o, err := vm.stringArg(old)
		if err != nil {
			return Object{}, err
		}
		r, err := vm.stringArg(repl)
		if err != nil {
			return Object{}, err
		}
		return vm.NewString(strings.ReplaceAll(recv.StringData().Get(), o, r)), nil
	})
	c.AddMethod1("split:", func(vm *VM, recv Object, sep Object) (Object, error) {
		s, err := vm.stringArg(sep)
		if err != nil {
			return Object{}, err
		}
		return vm.stringArray(strings.Split(recv.StringData().Get(), s)), nil
	})
	c.AddMethod1("join:", func(vm *VM, recv Object, arr Object) (Object, error) {
		items, ok := arr.AsArray()
		if !ok {
			return Object{}, typeError(vm.ArrayClass.Instance, arr)
		}
		parts := make([]string, len(items))
		for i, item := range items {
			s, err := vm.displayString(item)
			if err != nil {
				return Object{}, err
			}
			parts[i] = s
		}
		return vm.NewString(strings.Join(parts, recv.StringData().Get())), nil
	})

	// Conversion. Unparseable text answers nil.
	c.AddMethod0("asInteger", func(vm *VM, recv Object) (Object, error) {
		n, err := strconv.ParseInt(strings.TrimSpace(recv.StringData().Get()), 10, 64)
		if err != nil {
			return vm.Nil(), nil
		}
		return vm.Int(n), nil
	})
	c.AddMethod0("asFloat", func(vm *VM, recv Object) (Object, error) {
		f, err := strconv.ParseFloat(strings.TrimSpace(recv.StringData().Get()), 64)
		if err != nil {
			return vm.Nil(), nil
		}
		return vm.Float(f), nil
	})
	c.AddMethod0("asArray", func(vm *VM, recv Object) (Object, error) {
		runes := []rune(recv.StringData().Get())
		chars := make([]string, len(runes))
		for i, r := range runes {
			chars[i] = string(r)
		}
		return vm.stringArray(chars), nil
	})

	// Iteration over a snapshot of the characters.
	c.AddMethod1("do:", func(vm *VM, recv Object, blk Object) (Object, error) {
		for _, r := range recv.StringData().Get() {
			if _, err := vm.callBlock(blk, vm.NewString(string(r))); err != nil {
				return Object{}, err
			}
		}
		return recv, nil
	})

	// Class side
	vm.StringClass.Meta.AddMethod0("new", func(vm *VM, recv Object) (Object, error) {
		return vm.NewString(""), nil
	})
	vm.StringClass.Meta.AddMethod1("new:", func(vm *VM, recv Object, arg Object) (Object, error) {
		s, err := vm.displayString(arg)
		if err != nil {
			return Object{}, err
		}
		return vm.NewString(s), nil
	})
}

func (vm *VM) stringArg(arg Object) (string, error) {
	s, ok := arg.AsString()
	if !ok {
		return "", typeErrorf(vm.StringClass.Instance, arg, "Expected a String, got %s", vm.Describe(arg))
	}
	return s, nil
}

// index converts a 1-based index into a 0-based one, checking bounds.
func (vm *VM) index(idx Object, size int) (int, error) {
	n, err := vm.intArg(idx)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > int64(size) {
		return 0, errorf("Index out of bounds: %d (size %d)", n, size)
	}
	return int(n - 1), nil
}

// subrange converts an inclusive 1-based range into slice bounds.
func (vm *VM) subrange(from, to Object, size int) (int, int, error) {
	f, err := vm.intArg(from)
	if err != nil {
		return 0, 0, err
	}
	t, err := vm.intArg(to)
	if err != nil {
		return 0, 0, err
	}
	if f < 1 || t > int64(size) || f > t+1 {
		return 0, 0, errorf("Range out of bounds: %d to %d (size %d)", f, t, size)
	}
	return int(f - 1), int(t), nil
}
