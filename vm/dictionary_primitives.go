package vm

import "strings"

// ---------------------------------------------------------------------------
// Dictionary Primitives
// ---------------------------------------------------------------------------

// entries returns copies of the keys and values in insertion order.
func (d *Dictionary) entries() ([]Object, []Object) {
	var keys, values []Object
	d.View(func(t dictTable) {
		keys = append([]Object(nil), t.keys...)
		values = append([]Object(nil), t.values...)
	})
	return keys, values
}

// Lookup finds the value stored under key.
func (d *Dictionary) Lookup(key Object) (Object, bool) {
	var (
		v  Object
		ok bool
	)
	d.View(func(t dictTable) { v, ok = t.get(key) })
	return v, ok
}

// Put stores value under key.
func (d *Dictionary) Put(key, value Object) {
	d.Update(func(t *dictTable) { t.put(key, value) })
}

// Len returns the entry count.
func (d *Dictionary) Len() int {
	var n int
	d.View(func(t dictTable) { n = len(t.keys) })
	return n
}

func (vm *VM) registerDictionaryPrimitives() {
	c := vm.DictionaryClass.Instance

	c.AddMethod0("size", func(vm *VM, recv Object) (Object, error) {
		return vm.Int(int64(recv.DictionaryData().Len())), nil
	})
	c.AddMethod0("isEmpty", func(vm *VM, recv Object) (Object, error) {
		return vm.Bool(recv.DictionaryData().Len() == 0), nil
	})

	c.AddMethod1("at:", func(vm *VM, recv Object, key Object) (Object, error) {
		v, ok := recv.DictionaryData().Lookup(key)
		if !ok {
			return Object{}, errorf("Key not found: %s", vm.Describe(key))
		}
		return v, nil
	})
	c.AddMethod2("at:ifAbsent:", func(vm *VM, recv Object, key, blk Object) (Object, error) {
		v, ok := recv.DictionaryData().Lookup(key)
		if !ok {
			return vm.callBlock(blk)
		}
		return v, nil
	})
	c.AddMethod2("at:put:", func(vm *VM, recv Object, key, value Object) (Object, error) {
		recv.DictionaryData().Put(key, value)
		return value, nil
	})
	c.AddMethod1("has:", func(vm *VM, recv Object, key Object) (Object, error) {
		_, ok := recv.DictionaryData().Lookup(key)
		return vm.Bool(ok), nil
	})
	c.AddMethod1("removeAt:", func(vm *VM, recv Object, key Object) (Object, error) {
		var (
			v  Object
			ok bool
		)
		recv.DictionaryData().Update(func(t *dictTable) { v, ok = t.remove(key) })
		if !ok {
			return Object{}, errorf("Key not found: %s", vm.Describe(key))
		}
		return v, nil
	})

	c.AddMethod0("keys", func(vm *VM, recv Object) (Object, error) {
		keys, _ := recv.DictionaryData().entries()
		return vm.NewArray(keys), nil
	})
	c.AddMethod0("values", func(vm *VM, recv Object) (Object, error) {
		_, values := recv.DictionaryData().entries()
		return vm.NewArray(values), nil
	})
	c.AddMethod1("keysAndValuesDo:", func(vm *VM, recv Object, blk Object) (Object, error) {
		keys, values := recv.DictionaryData().entries()
		for i := range keys {
			if _, err := vm.callBlock(blk, keys[i], values[i]); err != nil {
				return Object{}, err
			}
		}
		return recv, nil
	})
	c.AddMethod1("do:", func(vm *VM, recv Object, blk Object) (Object, error) {
		_, values := recv.DictionaryData().entries()
		for _, v := range values {
			if _, err := vm.callBlock(blk, v); err != nil {
				return Object{}, err
			}
		}
		return recv, nil
	})

	c.AddMethod0("printString", func(vm *VM, recv Object) (Object, error) {
		d := recv.DictionaryData()
		if vm.printing[d] {
			return vm.NewString("#{...}"), nil
		}
		vm.printing[d] = true
		defer delete(vm.printing, d)

		keys, values := d.entries()
		parts := make([]string, len(keys))
		for i := range keys {
			k, err := vm.printString(keys[i])
			if err != nil {
				return Object{}, err
			}
			v, err := vm.printString(values[i])
			if err != nil {
				return Object{}, err
			}
			parts[i] = k + " -> " + v
		}
		return vm.NewString("#{" + strings.Join(parts, ", ") + "}"), nil
	})

	vm.DictionaryClass.Meta.AddMethod0("new", func(vm *VM, recv Object) (Object, error) {
		return vm.NewDictionary(), nil
	})
}
