package vm

// ---------------------------------------------------------------------------
// Universal methods
//
// Every table starts out with these. Classes override them by defining
// the same selector; an override is never replaced by an interface default.
// ---------------------------------------------------------------------------

var universalMethods map[string]Method

func init() {
	universalMethods = make(map[string]Method)
	add0 := func(name string, fn Method0Func) { universalMethods[name] = &Method0{name: name, fn: fn} }
	add1 := func(name string, fn Method1Func) { universalMethods[name] = &Method1{name: name, fn: fn} }
	add2 := func(name string, fn Method2Func) { universalMethods[name] = &Method2{name: name, fn: fn} }

	add0("printString", func(vm *VM, recv Object) (Object, error) {
		return vm.NewString(vm.Describe(recv)), nil
	})
	add0("displayString", func(vm *VM, recv Object) (Object, error) {
		s, err := vm.printString(recv)
		if err != nil {
			return Object{}, err
		}
		return vm.NewString(s), nil
	})
	add0("classOf", func(vm *VM, recv Object) (Object, error) {
		if c := recv.vt.Class(); c != nil {
			return c.object, nil
		}
		return vm.Nil(), nil
	})
	add0("yourself", func(vm *VM, recv Object) (Object, error) {
		return recv, nil
	})
	add0("isNil", func(vm *VM, recv Object) (Object, error) {
		return vm.Bool(recv.IsNil()), nil
	})
	add0("notNil", func(vm *VM, recv Object) (Object, error) {
		return vm.Bool(!recv.IsNil()), nil
	})
	add1("=", func(vm *VM, recv Object, other Object) (Object, error) {
		return vm.Bool(recv.Is(other)), nil
	})
	add1("~=", func(vm *VM, recv Object, other Object) (Object, error) {
		eq, err := vm.Send(recv, "=", []Object{other})
		if err != nil {
			return Object{}, err
		}
		b, ok := eq.AsBool()
		if !ok {
			return Object{}, typeError(vm.BooleanClass.Instance, eq)
		}
		return vm.Bool(!b), nil
	})
	add1("respondsTo:", func(vm *VM, recv Object, sel Object) (Object, error) {
		s, ok := sel.AsString()
		if !ok {
			return Object{}, typeError(vm.StringClass.Instance, sel)
		}
		return vm.Bool(recv.vt.HasMethod(s)), nil
	})
	add2("send:with:", func(vm *VM, recv Object, sel, args Object) (Object, error) {
		s, ok := sel.AsString()
		if !ok {
			return Object{}, typeError(vm.StringClass.Instance, sel)
		}
		items, ok := args.AsArray()
		if !ok {
			return Object{}, typeError(vm.ArrayClass.Instance, args)
		}
		return vm.Send(recv, s, items)
	})
	add1("ifNil:", func(vm *VM, recv Object, blk Object) (Object, error) {
		return recv, nil
	})
	add1("ifNotNil:", func(vm *VM, recv Object, blk Object) (Object, error) {
		return vm.callOptionalArg(blk, recv)
	})
	add2("ifNil:ifNotNil:", func(vm *VM, recv Object, _, notNil Object) (Object, error) {
		return vm.callOptionalArg(notNil, recv)
	})
}

// callOptionalArg calls a block with arg if it takes one, or with nothing.
func (vm *VM) callOptionalArg(blk Object, arg Object) (Object, error) {
	c, ok := blk.data.(*Closure)
	if !ok {
		return Object{}, typeError(vm.ClosureClass.Instance, blk)
	}
	if c.Arity() == 0 {
		return vm.apply(c, c.Env, nil, nil)
	}
	return vm.apply(c, c.Env, nil, []Object{arg})
}

// callBlock calls a block with exactly args, requiring a closure.
func (vm *VM) callBlock(blk Object, args ...Object) (Object, error) {
	c, ok := blk.data.(*Closure)
	if !ok {
		return Object{}, typeError(vm.ClosureClass.Instance, blk)
	}
	return vm.apply(c, c.Env, nil, args)
}

// truthy requires a Boolean.
func (vm *VM) truthy(o Object) (bool, error) {
	b, ok := o.AsBool()
	if !ok {
		return false, typeErrorf(vm.BooleanClass.Instance, o, "Expected a Boolean, got %s", vm.Describe(o))
	}
	return b, nil
}
