package vm

// ---------------------------------------------------------------------------
// Boolean and Nil Primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerBooleanPrimitives() {
	c := vm.BooleanClass.Instance

	c.AddMethod1("ifTrue:", func(vm *VM, recv Object, blk Object) (Object, error) {
		if recv.Bool() {
			return vm.callBlock(blk)
		}
		return vm.Nil(), nil
	})
	c.AddMethod1("ifFalse:", func(vm *VM, recv Object, blk Object) (Object, error) {
		if !recv.Bool() {
			return vm.callBlock(blk)
		}
		return vm.Nil(), nil
	})
	c.AddMethod2("ifTrue:ifFalse:", func(vm *VM, recv Object, t, f Object) (Object, error) {
		if recv.Bool() {
			return vm.callBlock(t)
		}
		return vm.callBlock(f)
	})
	c.AddMethod2("ifFalse:ifTrue:", func(vm *VM, recv Object, f, t Object) (Object, error) {
		if recv.Bool() {
			return vm.callBlock(t)
		}
		return vm.callBlock(f)
	})

	// and: and or: short-circuit; & and | take a value.
	c.AddMethod1("and:", func(vm *VM, recv Object, blk Object) (Object, error) {
		if !recv.Bool() {
			return recv, nil
		}
		return vm.callBlock(blk)
	})
	c.AddMethod1("or:", func(vm *VM, recv Object, blk Object) (Object, error) {
		if recv.Bool() {
			return recv, nil
		}
		return vm.callBlock(blk)
	})
	c.AddMethod1("&", func(vm *VM, recv Object, arg Object) (Object, error) {
		b, err := vm.truthy(arg)
		if err != nil {
			return Object{}, err
		}
		return vm.Bool(recv.Bool() && b), nil
	})
	c.AddMethod1("|", func(vm *VM, recv Object, arg Object) (Object, error) {
		b, err := vm.truthy(arg)
		if err != nil {
			return Object{}, err
		}
		return vm.Bool(recv.Bool() || b), nil
	})
	c.AddMethod1("xor:",func(vm *VM, recv Object, arg Object) (Object, error) {
		b, err := vm.truthy(arg)
		if err != nil {
			return Object{}, err
		}
		return vm.Bool(recv.Bool() != b), nil
	})
	c.AddMethod0("not", func(vm *VM, recv Object) (Object, error) {
		return vm.Bool(!recv.Bool()), nil
	})
	c.AddMethod0("asString", func(vm *VM, recv Object) (Object, error) {
		return vm.NewString(vm.Describe(recv)), nil
	})
}

func (vm *VM) registerNilPrimitives() {
	c := vm.NilClass.Instance

	c.AddMethod1("ifNil:", func(vm *VM, recv Object, blk Object) (Object, error) {
		return vm.callBlock(blk)
	})
	c.AddMethod1("ifNotNil:", func(vm *VM, recv Object, blk Object) (Object, error) {
		return recv, nil
	})
	c.AddMethod2("ifNil:ifNotNil:", func(vm *VM, recv Object, isNil, _ Object) (Object, error) {
		return vm.callBlock(isNil)
	})
	c.AddMethod0("asString", func(vm *VM, recv Object) (Object, error) {
		return vm.NewString("nil"), nil
	})
}
