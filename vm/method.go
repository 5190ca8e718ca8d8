package vm

// Method is anything a selector can be bound to in a VTable.
type Method interface {
	Invoke(vm *VM, receiver Object, args []Object) (Object, error)
	Name() string
	Arity() int // -1 for variable arity
}

// PrimitiveFunc is a Go function that implements a primitive method.
type PrimitiveFunc func(vm *VM, receiver Object, args []Object) (Object, error)

// Method0Func is a primitive taking no arguments.
type Method0Func func(vm *VM, receiver Object) (Object, error)

// Method1Func is a primitive taking one argument.
type Method1Func func(vm *VM, receiver Object, arg1 Object) (Object, error)

// Method2Func is a primitive taking two arguments.
type Method2Func func(vm *VM, receiver Object, arg1, arg2 Object) (Object, error)

// Method3Func is a primitive taking three arguments.
type Method3Func func(vm *VM, receiver Object, arg1, arg2, arg3 Object) (Object, error)

// ---------------------------------------------------------------------------
// Arity-specialized method wrappers
// ---------------------------------------------------------------------------

// PrimitiveMethod wraps a general PrimitiveFunc as a Method.
type PrimitiveMethod struct {
	name  string
	arity int
	fn    PrimitiveFunc
}

func (m *PrimitiveMethod) Invoke(vm *VM, receiver Object, args []Object) (Object, error) {
	return m.fn(vm, receiver, args)
}

func (m *PrimitiveMethod) Name() string { return m.name }
func (m *PrimitiveMethod) Arity() int   { return m.arity }

// Method0 wraps a zero-argument primitive.
type Method0 struct {
	name string
	fn   Method0Func
}

func (m *Method0) Invoke(vm *VM, receiver Object, args []Object) (Object, error) {
	return m.fn(vm, receiver)
}

func (m *Method0) Name() string { return m.name }
func (m *Method0) Arity() int   { return 0 }

// Method1 wraps a one-argument primitive.
type Method1 struct {
	name string
	fn   Method1Func
}

func (m *Method1) Invoke(vm *VM, receiver Object, args []Object) (Object, error) {
	return m.fn(vm, receiver, args[0])
}

func (m *Method1) Name() string { return m.name }
func (m *Method1) Arity() int   { return 1 }

// Method2 wraps a two-argument primitive.
type Method2 struct {
	name string
	fn   Method2Func
}

func (m *Method2) Invoke(vm *VM, receiver Object, args []Object) (Object, error) {
	return m.fn(vm, receiver, args[0], args[1])
}

func (m *Method2) Name() string { return m.name }
func (m *Method2) Arity() int   { return 2 }

// Method3 wraps a three-argument primitive.
type Method3 struct {
	name string
	fn   Method3Func
}

func (m *Method3) Invoke(vm *VM, receiver Object, args []Object) (Object, error) {
	return m.fn(vm, receiver, args[0], args[1], args[2])
}

func (m *Method3) Name() string { return m.name }
func (m *Method3) Arity() int   { return 3 }

// ---------------------------------------------------------------------------
// Non-primitive methods
// ---------------------------------------------------------------------------

// InterpretedMethod is a method written in Sprat. Its closure captures no
// environment; each call extends the scope the method was defined in.
type InterpretedMethod struct {
	Closure *Closure
	Env     *Env
}

func (m *InterpretedMethod) Invoke(vm *VM, receiver Object, args []Object) (Object, error) {
	return vm.apply(m.Closure, m.Env, &receiver, args)
}

func (m *InterpretedMethod) Name() string { return m.Closure.Name }
func (m *InterpretedMethod) Arity() int   { return len(m.Closure.Params) }

// ReaderMethod returns the value of a slot.
type ReaderMethod struct {
	name  string
	index int
}

func (m *ReaderMethod) Invoke(vm *VM, receiver Object, args []Object) (Object, error) {
	inst, ok := receiver.data.(*Instance)
	if !ok {
		return Object{}, errorf("Cannot read slot %s of %s: not an instance", m.name, vm.Describe(receiver))
	}
	return inst.Slot(m.index), nil
}

func (m *ReaderMethod) Name() string { return m.name }
func (m *ReaderMethod) Arity() int   { return 0 }

// ConstructorMethod is installed on the class side under the synthesized
// constructor selector. Arguments fill the slots in declaration order.
type ConstructorMethod struct {
	class *Class
}

func (m *ConstructorMethod) Invoke(vm *VM, receiver Object, args []Object) (Object, error) {
	return vm.Instantiate(m.class, args)
}

func (m *ConstructorMethod) Name() string { return m.class.ConstructorSelector() }
func (m *ConstructorMethod) Arity() int   { return m.class.Instance.NumSlots() }

// ---------------------------------------------------------------------------
// Registration helpers
// ---------------------------------------------------------------------------

// AddMethod0 adds a zero-argument primitive.
func (vt *VTable) AddMethod0(name string, fn Method0Func) {
	vt.AddMethod(name, &Method0{name: name, fn: fn})
}

// AddMethod1 adds a one-argument primitive.
func (vt *VTable) AddMethod1(name string, fn Method1Func) {
	vt.AddMethod(name, &Method1{name: name, fn: fn})
}

// AddMethod2 adds a two-argument primitive.
func (vt *VTable) AddMethod2(name string, fn Method2Func) {
	vt.AddMethod(name, &Method2{name: name, fn: fn})
}

// AddMethod3 adds a three-argument primitive.
func (vt *VTable) AddMethod3(name string, fn Method3Func) {
	vt.AddMethod(name, &Method3{name: name, fn: fn})
}

// AddMethodN adds a primitive of the given arity taking its arguments as a slice.
func (vt *VTable) AddMethodN(name string, arity int, fn PrimitiveFunc) {
	vt.AddMethod(name, &PrimitiveMethod{name: name, arity: arity, fn: fn})
}

// MethodName returns the name of a method.
func MethodName(m Method) string {
	if m == nil {
		return ""
	}
	return m.Name()
}

// MethodArity returns the arity of a method.
func MethodArity(m Method) int {
	if m == nil {
		return -1
	}
	return m.Arity()
}
