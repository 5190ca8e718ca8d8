package vm

// ---------------------------------------------------------------------------
// Compiler Primitives
//
// A Compiler evaluates source text at run time in its own top-level scope,
// which can see the program's top level.
// ---------------------------------------------------------------------------

const compilerSourceName = "<compiler>"

func (vm *VM) registerCompilerPrimitives() {
	c := vm.CompilerClass.Instance

	c.AddMethod1("evaluate:", func(vm *VM, recv Object, src Object) (Object, error) {
		text, err := vm.stringArg(src)
		if err != nil {
			return Object{}, err
		}
		return vm.evalIn(recv.data.(*CompilerState).env, &Source{Name: compilerSourceName, Text: text})
	})

	// evaluate:onEof: hands incomplete input to the handler, which may
	// take the parser's message, instead of failing.
	c.AddMethod2("evaluate:onEof:", func(vm *VM, recv Object, src, handler Object) (Object, error) {
		text, err := vm.stringArg(src)
		if err != nil {
			return Object{}, err
		}
		result, err := vm.evalIn(recv.data.(*CompilerState).env, &Source{Name: compilerSourceName, Text: text})
		if err != nil && IsEndOfInput(err) {
			return vm.callOptionalArg(handler, vm.NewString(asUnwind(err).Message()))
		}
		return result, err
	})

	c.AddMethod2("define:as:", func(vm *VM, recv Object, name, value Object) (Object, error) {
		n, err := vm.stringArg(name)
		if err != nil {
			return Object{}, err
		}
		recv.data.(*CompilerState).env.Define(n, value)
		return value, nil
	})
	c.AddMethod1("at:", func(vm *VM, recv Object, name Object) (Object, error) {
		n, err := vm.stringArg(name)
		if err != nil {
			return Object{}, err
		}
		v, ok := recv.data.(*CompilerState).env.Get(n)
		if !ok {
			return vm.Nil(), nil
		}
		return v, nil
	})
	c.AddMethod0("names", func(vm *VM, recv Object) (Object, error) {
		return vm.stringArray(recv.data.(*CompilerState).env.Names()), nil
	})

	vm.CompilerClass.Meta.AddMethod0("new", func(vm *VM, recv Object) (Object, error) {
		return vm.NewCompiler(), nil
	})
}

// NewCompiler returns a Compiler object with a fresh scope.
func (vm *VM) NewCompiler() Object {
	return Object{vt: vm.CompilerClass.Instance, data: &CompilerState{env: newTopLevel(vm.top)}}
}
