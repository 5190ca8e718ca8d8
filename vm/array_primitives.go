package vm

import (
	"sort"
	"strings"
)

// ---------------------------------------------------------------------------
// Array Primitives
//
// Arrays are growable and indexed from 1. Iterating primitives walk a
// snapshot, so the block may modify the array it is walking.
// ---------------------------------------------------------------------------

func (vm *VM) registerArrayPrimitives() {
	c := vm.ArrayClass.Instance

	c.AddMethod0("size", func(vm *VM, recv Object) (Object, error) {
		return vm.Int(int64(recv.ArrayData().Len())), nil
	})
	c.AddMethod0("isEmpty", func(vm *VM, recv Object) (Object, error) {
		return vm.Bool(recv.ArrayData().Len() == 0), nil
	})
	c.AddMethod0("notEmpty", func(vm *VM, recv Object) (Object, error) {
		return vm.Bool(recv.ArrayData().Len() != 0), nil
	})

	c.AddMethod1("at:", func(vm *VM, recv Object, idx Object) (Object, error) {
		items := recv.ArrayData().Snapshot()
		i, err := vm.index(idx, len(items))
		if err != nil {
			return Object{}, err
		}
		return items[i], nil
	})
	c.AddMethod2("at:put:", func(vm *VM, recv Object, idx, value Object) (Object, error) {
		a := recv.ArrayData()
		i, err := vm.index(idx, a.Len())
		if err != nil {
			return Object{}, err
		}
		a.Update(func(items *[]Object) { (*items)[i] = value })
		return value, nil
	})

	// push: answers the receiver so pushes chain.
	c.AddMethod1("push:", func(vm *VM, recv Object, value Object) (Object, error) {
		recv.ArrayData().Update(func(items *[]Object) { *items = append(*items, value) })
		return recv, nil
	})
	c.AddMethod0("pop", func(vm *VM, recv Object) (Object, error) {
		var (
			out   Object
			empty bool
		)
		recv.ArrayData().Update(func(items *[]Object) {
			n := len(*items)
			if n == 0 {
				empty = true
				return
			}
			out = (*items)[n-1]
			*items = (*items)[:n-1]
		})
		if empty {
			return Object{}, errorf("Cannot pop from an empty Array")
		}
		return out, nil
	})
	c.AddMethod2("insert:at:", func(vm *VM, recv Object, value, idx Object) (Object, error) {
		a := recv.ArrayData()
		n, err := vm.intArg(idx)
		if err != nil {
			return Object{}, err
		}
		size := a.Len()
		if n < 1 || n > int64(size)+1 {
			return Object{}, errorf("Index out of bounds: %d (size %d)", n, size)
		}
		a.Update(func(items *[]Object) {
			i := int(n - 1)
			*items = append(*items, Object{})
			copy((*items)[i+1:], (*items)[i:])
			(*items)[i] = value
		})
		return recv, nil
	})
	c.AddMethod1("removeAt:", func(vm *VM, recv Object, idx Object) (Object, error) {
		a := recv.ArrayData()
		i, err := vm.index(idx, a.Len())
		if err != nil {
			return Object{}, err
		}
		var out Object
		a.Update(func(items *[]Object) {
			out = (*items)[i]
			*items = append((*items)[:i], (*items)[i+1:]...)
		})
		return out, nil
	})

	c.AddMethod0("first", func(vm *VM, recv Object) (Object, error) {
		items := recv.ArrayData().Snapshot()
		if len(items) == 0 {
			return Object{}, errorf("Array is empty")
		}
		return items[0], nil
	})
	c.AddMethod0("last", func(vm *VM, recv Object) (Object, error) {
		items := recv.ArrayData().Snapshot()
		if len(items) == 0 {
			return Object{}, errorf("Array is empty")
		}
		return items[len(items)-1], nil
	})

	// Iteration
	c.AddMethod1("do:", func(vm *VM, recv Object, blk Object) (Object, error) {
		for _, item := range recv.ArrayData().Snapshot() {
			if _, err := vm.callBlock(blk, item); err != nil {
				return Object{}, err
			}
		}
		return recv, nil
	})
	c.AddMethod1("doWithIndex:", func(vm *VM, recv Object, blk Object) (Object, error) {
		for i, item := range recv.ArrayData().Snapshot() {
			if _, err := vm.callBlock(blk, item, vm.Int(int64(i+1))); err != nil {
				return Object{}, err
			}
		}
		return recv, nil
	})
	c.AddMethod1("collect:", func(vm *VM, recv Object, blk Object) (Object, error) {
		items := recv.ArrayData().Snapshot()
		out := make([]Object, len(items))
		for i, item := range items {
			v, err := vm.callBlock(blk, item)
			if err != nil {
				return Object{}, err
			}
			out[i] = v
		}
		return vm.NewArray(out), nil
	})
	filter := func(name string, keep bool) {
		c.AddMethod1(name, func(vm *VM, recv Object, blk Object) (Object, error) {
			var out []Object
			for _, item := range recv.ArrayData().Snapshot() {
				v, err := vm.callBlock(blk, item)
				if err != nil {
					return Object{}, err
				}
				b, err := vm.truthy(v)
				if err != nil {
					return Object{}, err
				}
				if b == keep {
					out = append(out, item)
				}
			}
			return vm.NewArray(out), nil
		})
	}
	filter("select:", true)
	filter("reject:", false)

	c.AddMethod2("inject:into:", func(vm *VM, recv Object, acc, blk Object) (Object, error) {
		for _, item := range recv.ArrayData().Snapshot() {
			v, err := vm.callBlock(blk, acc, item)
			if err != nil {
				return Object{}, err
			}
			acc = v
		}
		return acc, nil
	})
	detect := func(vm *VM, recv Object, blk Object) (Object, bool, error) {
		for _, item := range recv.ArrayData().Snapshot() {
			v, err := vm.callBlock(blk, item)
			if err != nil {
				return Object{}, false, err
			}
			b, err := vm.truthy(v)
			if err != nil {
				return Object{}, false, err
			}
			if b {
				return item, true, nil
			}
		}
		return Object{}, false, nil
	}
	c.AddMethod1("detect:", func(vm *VM, recv Object, blk Object) (Object, error) {
		found, ok, err := detect(vm, recv, blk)
		if err != nil {
			return Object{}, err
		}
		if !ok {
			return vm.Nil(), nil
		}
		return found, nil
	})
	c.AddMethod2("detect:ifNone:", func(vm *VM, recv Object, blk, none Object) (Object, error) {
		found, ok, err := detect(vm, recv, blk)
		if err != nil {
			return Object{}, err
		}
		if !ok {
			return vm.callBlock(none)
		}
		return found, nil
	})

	// Searching uses = so strings match by content.
	c.AddMethod1("includes:", func(vm *VM, recv Object, value Object) (Object, error) {
		i, err := vm.arrayIndexOf(recv, value)
		if err != nil {
			return Object{}, err
		}
		return vm.Bool(i > 0), nil
	})
	c.AddMethod1("indexOf:", func(vm *VM, recv Object, value Object) (Object, error) {
		i, err := vm.arrayIndexOf(recv, value)
		if err != nil {
			return Object{}, err
		}
		return vm.Int(int64(i)), nil
	})
	c.AddMethod1("=", func(vm *VM, recv Object, other Object) (Object, error) {
		theirs, ok := other.AsArray()
		if !ok {
			return vm.Bool(false), nil
		}
		ours := recv.ArrayData().Snapshot()
		if len(ours) != len(theirs) {
			return vm.Bool(false), nil
		}
		for i := range ours {
			eq, err := vm.equal(ours[i], theirs[i])
			if err != nil {
				return Object{}, err
			}
			if !eq {
				return vm.Bool(false), nil
			}
		}
		return vm.Bool(true), nil
	})

	// Copies
	c.AddMethod0("copy", func(vm *VM, recv Object) (Object, error) {
		return vm.NewArray(recv.ArrayData().Snapshot()), nil
	})
	c.AddMethod0("reversed", func(vm *VM, recv Object) (Object, error) {
		items := recv.ArrayData().Snapshot()
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		return vm.NewArray(items), nil
	})
	c.AddMethod1("concat:", func(vm *VM, recv Object, other Object) (Object, error) {
		theirs, ok := other.AsArray()
		if !ok {
			return Object{}, typeError(vm.ArrayClass.Instance, other)
		}
		return vm.NewArray(append(recv.ArrayData().Snapshot(), theirs...)), nil
	})
	c.AddMethod2("copyFrom:to:", func(vm *VM, recv Object, from, to Object) (Object, error) {
		items := recv.ArrayData().Snapshot()
		start, end, err := vm.subrange(from, to, len(items))
		if err != nil {
			return Object{}, err
		}
		return vm.NewArray(items[start:end]), nil
	})

	// Sorting answers a sorted copy. The default order is <.
	c.AddMethod0("sorted", func(vm *VM, recv Object) (Object, error) {
		return vm.sortArray(recv, func(a, b Object) (Object, error) {
			return vm.Send(a, "<", []Object{b})
		})
	})
	c.AddMethod1("sorted:", func(vm *VM, recv Object, blk Object) (Object, error) {
		return vm.sortArray(recv, func(a, b Object) (Object, error) {
			return vm.callBlock(blk, a, b)
		})
	})

	// Printing dispatches to the elements.
	c.AddMethod0("printString", func(vm *VM, recv Object) (Object, error) {
		a := recv.ArrayData()
		if vm.printing[a] {
			return vm.NewString("[...]"), nil
		}
		vm.printing[a] = true
		defer delete(vm.printing, a)

		items := a.Snapshot()
		parts := make([]string, len(items))
		for i, item := range items {
			s, err := vm.printString(item)
			if err != nil {
				return Object{}, err
			}
			parts[i] = s
		}
		return vm.NewString("[" + strings.Join(parts, ", ") + "]"), nil
	})

	// Class side
	meta := vm.ArrayClass.Meta
	meta.AddMethod0("new", func(vm *VM, recv Object) (Object, error) {
		return vm.NewArray(nil), nil
	})
	meta.AddMethod1("new:", func(vm *VM, recv Object, size Object) (Object, error) {
		return vm.filledArray(size, vm.Nil())
	})
	meta.AddMethod2("new:withAll:", func(vm *VM, recv Object, size, value Object) (Object, error) {
		return vm.filledArray(size, value)
	})
}

func (vm *VM) filledArray(size Object, value Object) (Object, error) {
	n, err := vm.intArg(size)
	if err != nil {
		return Object{}, err
	}
	if n < 0 {
		return Object{}, errorf("Array size must not be negative: %d", n)
	}
	items := make([]Object, n)
	for i := range items {
		items[i] = value
	}
	return Object{vt: vm.ArrayClass.Instance, data: &Array{NewCell(items)}}, nil
}

// equal sends = and requires a Boolean answer.
func (vm *VM) equal(a, b Object) (bool, error) {
	r, err := vm.Send(a, "=", []Object{b})
	if err != nil {
		return false, err
	}
	return vm.truthy(r)
}

// arrayIndexOf answers the 1-based position of value, or 0.
func (vm *VM) arrayIndexOf(recv Object, value Object) (int, error) {
	for i, item := range recv.ArrayData().Snapshot() {
		eq, err := vm.equal(item, value)
		if err != nil {
			return 0, err
		}
		if eq {
			return i + 1, nil
		}
	}
	return 0, nil
}

// sortArray sorts a copy with less, which must answer Booleans. The first
// failure stops the comparisons.
func (vm *VM) sortArray(recv Object, less func(a, b Object) (Object, error)) (Object, error) {
	items := recv.ArrayData().Snapshot()
	var failure error
	sort.SliceStable(items, func(i, j int) bool {
		if failure != nil {
			return false
		}
		r, err := less(items[i], items[j])
		if err != nil {
			failure = err
			return false
		}
		b, err := vm.truthy(r)
		if err != nil {
			failure = err
			return false
		}
		return b
	})
	if failure != nil {
		return Object{}, failure
	}
	return vm.NewArray(items), nil
}
