package vm

import (
	"io"

	"github.com/chazu/sprat/compiler"
)

// ---------------------------------------------------------------------------
// Evaluator
// ---------------------------------------------------------------------------

// evalIn parses and evaluates src form by form in env. Definitions extend
// env as they are reached; the value is that of the last expression.
func (vm *VM) evalIn(env *Env, src *Source) (Object, error) {
	prev := vm.source
	vm.source = src
	defer func() { vm.source = prev }()

	p := compiler.NewParser(src.Text)
	result := vm.Nil()
	for {
		node, err := p.Next()
		if err == io.EOF {
			return result, nil
		}
		if err != nil {
			return Object{}, asUnwind(err).WithContext(src.Name, src.Text)
		}
		result, err = vm.evalTop(env, node)
		if err != nil {
			u := asUnwind(err)
			if u.returning && !u.target.done {
				// Still travelling to a live method further out.
				return Object{}, u
			}
			return Object{}, escapedReturn(u, node.Span()).WithContext(src.Name, src.Text)
		}
	}
}

// evalTop evaluates one top-level form.
func (vm *VM) evalTop(env *Env, node compiler.Node) (Object, error) {
	var (
		result Object
		err    error
	)
	switch n := node.(type) {
	case *compiler.ClassDef:
		result, err = vm.evalClassDef(env, n)
	case *compiler.DefineDecl:
		result, err = vm.evalDefine(env, n)
	case *compiler.ImportDecl:
		err = vm.importModule(env, n)
		result = vm.Nil()
	case compiler.Expr:
		return vm.eval(env, n)
	default:
		err = errorf("Cannot evaluate %T", node)
	}
	if err != nil {
		return Object{}, withSpan(err, node.Span())
	}
	return result, nil
}

func (vm *VM) evalDefine(env *Env, n *compiler.DefineDecl) (Object, error) {
	if !env.toplevel {
		return Object{}, errorf("define is only allowed at top level")
	}
	if _, ok := env.local(n.Name); ok {
		return Object{}, errorf("Cannot redefine %s", n.Name)
	}
	v, err := vm.eval(env, n.Value)
	if err != nil {
		return Object{}, err
	}
	env.DefineConstant(n.Name, v)
	return v, nil
}

// eval evaluates e in env. A failure without a location gets e's span, so
// the innermost node that fails is the one reported.
func (vm *VM) eval(env *Env, e compiler.Expr) (Object, error) {
	result, err := vm.evalNode(env, e)
	if err != nil {
		return Object{}, asUnwind(err).WithSpan(e.Span())
	}
	return result, nil
}

func (vm *VM) evalNode(env *Env, e compiler.Expr) (Object, error) {
	switch n := e.(type) {
	case *compiler.IntLiteral:
		return vm.Int(n.Value), nil
	case *compiler.FloatLiteral:
		return vm.Float(n.Value), nil
	case *compiler.StringLiteral:
		return vm.NewString(n.Value), nil
	case *compiler.BoolLiteral:
		return vm.Bool(n.Value), nil
	case *compiler.NilLiteral:
		return vm.Nil(), nil

	case *compiler.ArrayLiteral:
		scope := env.Extend(nil)
		items := make([]Object, len(n.Elements))
		for i, el := range n.Elements {
			v, err := vm.eval(scope, el)
			if err != nil {
				return Object{}, err
			}
			items[i] = v
		}
		return Object{vt: vm.ArrayClass.Instance, data: &Array{NewCell(items)}}, nil

	case *compiler.DictLiteral:
		scope := env.Extend(nil)
		d := vm.NewDictionary()
		for _, entry := range n.Entries {
			k, err := vm.eval(scope, entry.Key)
			if err != nil {
				return Object{}, err
			}
			v, err := vm.eval(scope, entry.Value)
			if err != nil {
				return Object{}, err
			}
			d.DictionaryData().Update(func(t *dictTable) { t.put(k, v) })
		}
		return d, nil

	case *compiler.Variable:
		return vm.lookupVariable(env, n.Name)

	case *compiler.Self:
		recv, ok := env.Receiver()
		if !ok {
			return Object{}, errorf("Cannot use self outside of a method")
		}
		return recv, nil

	case *compiler.Assignment:
		v, err := vm.eval(env, n.Value)
		if err != nil {
			return Object{}, err
		}
		if err := vm.assign(env, n.Variable, v); err != nil {
			return Object{}, err
		}
		return v, nil

	case *compiler.UnaryMessage:
		recv, err := vm.eval(env, n.Receiver)
		if err != nil {
			return Object{}, err
		}
		return vm.Send(recv, n.Selector, nil)

	case *compiler.BinaryMessage:
		recv, err := vm.eval(env, n.Receiver)
		if err != nil {
			return Object{}, err
		}
		arg, err := vm.eval(env, n.Argument)
		if err != nil {
			return Object{}, err
		}
		return vm.Send(recv, n.Selector, []Object{arg})

	case *compiler.KeywordMessage:
		recv, err := vm.eval(env, n.Receiver)
		if err != nil {
			return Object{}, err
		}
		args, err := vm.evalArgs(env, n.Arguments)
		if err != nil {
			return Object{}, err
		}
		return vm.Send(recv, n.Selector, args)

	case *compiler.Cascade:
		return vm.evalCascade(env, n)

	case *compiler.Block:
		return vm.makeBlock(env, n)

	case *compiler.Sequence:
		return vm.evalSequence(env, n)

	case *compiler.Let:
		return vm.evalLet(env, n)

	case *compiler.Identity:
		l, err := vm.eval(env, n.Left)
		if err != nil {
			return Object{}, err
		}
		r, err := vm.eval(env, n.Right)
		if err != nil {
			return Object{}, err
		}
		return vm.Bool(l.Is(r)), nil

	case *compiler.Raise:
		v, err := vm.eval(env, n.Value)
		if err != nil {
			return Object{}, err
		}
		msg, ok := v.AsString()
		if !ok {
			return Object{}, typeErrorf(vm.StringClass.Instance, v, "raise expects a String, got %s", vm.Describe(v))
		}
		return Object{}, errorf("%s", msg)

	case *compiler.Return:
		v, err := vm.eval(env, n.Value)
		if err != nil {
			return Object{}, err
		}
		home := env.Home()
		if home == nil || home.done {
			return Object{}, errorf(nothingToReturnFrom)
		}
		return Object{}, newReturn(home, v)
	}
	return Object{}, errorf("Cannot evaluate %T", e)
}

func (vm *VM) evalArgs(env *Env, exprs []compiler.Expr) ([]Object, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	args := make([]Object, len(exprs))
	for i, a := range exprs {
		v, err := vm.eval(env, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// evalSequence evaluates each expression in order. An empty or missing
// sequence is nil.
func (vm *VM) evalSequence(env *Env, seq *compiler.Sequence) (Object, error) {
	result := vm.Nil()
	if seq == nil {
		return result, nil
	}
	for _, e := range seq.Exprs {
		v, err := vm.eval(env, e)
		if err != nil {
			return Object{}, err
		}
		result = v
	}
	return result, nil
}

// evalCascade sends every part to the same receiver. Each part may be a
// chain, in which case later messages go to the previous result.
func (vm *VM) evalCascade(env *Env, n *compiler.Cascade) (Object, error) {
	recv, err := vm.eval(env, n.Receiver)
	if err != nil {
		return Object{}, err
	}
	result := recv
	for _, part := range n.Parts {
		cur := recv
		for _, msg := range part {
			args, err := vm.evalArgs(env, msg.Arguments)
			if err != nil {
				return Object{}, err
			}
			cur, err = vm.Send(cur, msg.Selector, args)
			if err != nil {
				return Object{}, withSpan(err, msg.SpanVal)
			}
		}
		result = cur
	}
	return result, nil
}

func (vm *VM) evalLet(env *Env, n *compiler.Let) (Object, error) {
	v, err := vm.eval(env, n.Value)
	if err != nil {
		return Object{}, err
	}
	typ, err := vm.resolveType(env, n.Type, nil)
	if err != nil {
		return Object{}, err
	}

	scope := env
	if !env.toplevel || n.Body != nil {
		scope = env.Extend(nil)
	} else if b, ok := env.local(n.Name); ok && b.Constant {
		return Object{}, errorf("Cannot redefine %s", n.Name)
	}
	if err := scope.DefineTyped(n.Name, typ, v); err != nil {
		return Object{}, err
	}
	if n.Body == nil {
		return v, nil
	}
	return vm.evalSequence(scope, n.Body)
}

// lookupVariable resolves a bare name: lexical bindings first, then a slot
// of the current receiver.
func (vm *VM) lookupVariable(env *Env, name string) (Object, error) {
	if v, ok := env.Get(name); ok {
		return v, nil
	}
	if recv, ok := env.Receiver(); ok {
		if inst, ok := recv.data.(*Instance); ok {
			if slot, ok := recv.vt.Slot(name); ok {
				return inst.Slot(slot.Index), nil
			}
		}
	}
	return Object{}, errorf("Unbound variable: %s", name)
}

// assign writes a bare name with the same precedence as lookupVariable.
func (vm *VM) assign(env *Env, name string, v Object) error {
	found, err := env.Set(name, v)
	if found {
		return err
	}
	if recv, ok := env.Receiver(); ok {
		if inst, ok := recv.data.(*Instance); ok {
			if slot, ok := recv.vt.Slot(name); ok {
				if !conforms(v, slot.Type) {
					return typeErrorf(slot.Type, v, "Slot %s of %s: expected %s, got %s",
						name, recv.vt.Name(), slot.Type.Name(), vm.Describe(v))
				}
				inst.SetSlot(slot.Index, v)
				return nil
			}
		}
	}
	return errorf("Cannot assign to an unbound variable: %s", name)
}

// makeBlock closes over env.
func (vm *VM) makeBlock(env *Env, n *compiler.Block) (Object, error) {
	params, err := vm.resolveParams(env, n.Parameters, nil)
	if err != nil {
		return Object{}, err
	}
	temps, err := vm.resolveParams(env, n.Temps, nil)
	if err != nil {
		return Object{}, err
	}
	c := &Closure{
		Env:    env,
		Params: params,
		Temps:  temps,
		Body:   n.Body,
		source: vm.source,
	}
	return Object{vt: vm.ClosureClass.Instance, data: c}, nil
}

func (vm *VM) resolveParams(env *Env, in []compiler.Param, self *Class) ([]Param, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]Param, len(in))
	for i, p := range in {
		typ, err := vm.resolveType(env, p.Type, self)
		if err != nil {
			return nil, err
		}
		out[i] = Param{Name: p.Name, Type: typ}
	}
	return out, nil
}

// resolveType maps a type annotation to a table. The class being defined
// can name itself before it is bound.
func (vm *VM) resolveType(env *Env, name string, self *Class) (*VTable, error) {
	if name == "" {
		return nil, nil
	}
	if self != nil && name == self.Name {
		return self.Instance, nil
	}
	if v, ok := env.Get(name); ok {
		if c, ok := v.AsClass(); ok {
			return c.Instance, nil
		}
		return nil, errorf("%s is not a class or interface", name)
	}
	return nil, errorf("Unknown type: %s", name)
}
