package vm

import "github.com/chazu/sprat/compiler"

// DefaultMaxDepth bounds nested closure and method activations.
const DefaultMaxDepth = 10000

// Param is a closure parameter or temporary with its resolved type.
type Param struct {
	Name string
	Type *VTable
}

// Source is a named program text, kept so errors raised inside code can be
// rendered against the text that defined it.
type Source struct {
	Name string
	Text string
}

// Closure is a block or method body. Blocks capture Env when created;
// methods have a nil Env and run in their class's defining scope.
type Closure struct {
	Env    *Env
	Params []Param
	Temps  []Param
	Body   *compiler.Sequence
	Return *VTable
	Name   string
	Doc    string
	source *Source
}

// Arity returns the parameter count.
func (c *Closure) Arity() int { return len(c.Params) }

// apply runs c in a new call frame extending base. A non-local return
// whose target is that frame ends here and becomes the result.
func (vm *VM) apply(c *Closure, base *Env, recv *Object, args []Object) (Object, error) {
	if len(args) != len(c.Params) {
		return Object{}, errorf("%s expects %d argument(s), got %d", c.describe(), len(c.Params), len(args))
	}
	if vm.depth >= vm.maxDepth {
		return Object{}, errorf("Stack overflow: more than %d nested calls", vm.maxDepth)
	}
	vm.depth++
	defer func() { vm.depth-- }()

	frame := base.ExtendCall(recv)
	defer func() { frame.done = true }()
	for i, p := range c.Params {
		if !conforms(args[i], p.Type) {
			return Object{}, typeErrorf(p.Type, args[i], "Argument %s of %s (expected %s, got %s)",
				p.Name, c.describe(), p.Type.Name(), vm.Describe(args[i]))
		}
		frame.bindings[p.Name] = &Binding{Type: p.Type, Value: args[i]}
	}
	for _, t := range c.Temps {
		frame.bindings[t.Name] = &Binding{Type: t.Type, Value: vm.Nil()}
	}

	result, err := vm.evalSequence(frame, c.Body)
	if err != nil {
		u := asUnwind(err)
		if u.returning {
			if u.target != frame {
				return Object{}, u
			}
			result = u.value
		} else {
			if u.Loc.HasSpan && c.source != nil {
				u.WithContext(c.source.Name, c.source.Text)
			}
			return Object{}, u
		}
	}

	if !conforms(result, c.Return) {
		return Object{}, typeErrorf(c.Return, result, "%s should return %s, got %s",
			c.describe(), c.Return.Name(), vm.Describe(result))
	}
	return result, nil
}

// Call applies a closure object to args. Host code uses it to run blocks.
func (vm *VM) Call(closure Object, args ...Object) (Object, error) {
	c, ok := closure.data.(*Closure)
	if !ok {
		return Object{}, typeError(vm.ClosureClass.Instance, closure)
	}
	return vm.apply(c, c.Env, nil, args)
}

func (c *Closure) describe() string {
	if c.Name != "" {
		return "#" + c.Name
	}
	return "Block"
}
