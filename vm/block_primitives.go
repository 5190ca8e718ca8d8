package vm

// ---------------------------------------------------------------------------
// Closure Primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerBlockPrimitives() {
	c := vm.ClosureClass.Instance

	value := func(vm *VM, recv Object, args []Object) (Object, error) {
		cl := recv.ClosureData()
		return vm.apply(cl, cl.Env, nil, args)
	}
	c.AddMethodN("value", 0, value)
	c.AddMethodN("value:", 1, value)
	c.AddMethodN("value:value:", 2, value)
	c.AddMethodN("value:value:value:", 3, value)
	c.AddMethodN("value:value:value:value:", 4, value)

	c.AddMethod1("valueWithArguments:", func(vm *VM, recv Object, args Object) (Object, error) {
		items, ok := args.AsArray()
		if !ok {
			return Object{}, typeError(vm.ArrayClass.Instance, args)
		}
		cl := recv.ClosureData()
		return vm.apply(cl, cl.Env, nil, items)
	})

	c.AddMethod0("arity", func(vm *VM, recv Object) (Object, error) {
		return vm.Int(int64(recv.ClosureData().Arity())), nil
	})
	c.AddMethod0("doc", func(vm *VM, recv Object) (Object, error) {
		return vm.NewString(recv.ClosureData().Doc), nil
	})

	// Loops. The condition is the receiver and must answer a Boolean.
	c.AddMethod1("whileTrue:", func(vm *VM, recv Object, body Object) (Object, error) {
		return vm.Nil(), vm.whileLoop(recv, body, true)
	})
	c.AddMethod1("whileFalse:", func(vm *VM, recv Object, body Object) (Object, error) {
		return vm.Nil(), vm.whileLoop(recv, body, false)
	})
	c.AddMethod0("whileTrue", func(vm *VM, recv Object) (Object, error) {
		return vm.Nil(), vm.whileLoop(recv, Object{}, true)
	})
	c.AddMethod0("whileFalse", func(vm *VM, recv Object) (Object, error) {
		return vm.Nil(), vm.whileLoop(recv, Object{}, false)
	})

	// repeat runs until a non-local return or an error leaves it.
	c.AddMethod0("repeat", func(vm *VM, recv Object) (Object, error) {
		for {
			if _, err := vm.callBlock(recv); err != nil {
				return Object{}, err
			}
		}
	})
}

// whileLoop runs body while cond answers want. A zero body means the
// condition block is the whole loop.
func (vm *VM) whileLoop(cond, body Object, want bool) error {
	for {
		r, err := vm.callBlock(cond)
		if err != nil {
			return err
		}
		b, err := vm.truthy(r)
		if err != nil {
			return err
		}
		if b != want {
			return nil
		}
		if body.Valid() {
			if _, err := vm.callBlock(body); err != nil {
				return err
			}
		}
	}
}
