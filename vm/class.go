package vm

import (
	"strings"

	"github.com/chazu/sprat/compiler"
)

// ---------------------------------------------------------------------------
// Class: classes and interfaces
// ---------------------------------------------------------------------------

// Class pairs the instance-side and class-side tables of a class or
// interface. Its Object is what the class name is bound to.
type Class struct {
	Name      string
	Instance  *VTable
	Meta      *VTable
	Env       *Env // defining scope
	Interface bool
	Required  []string // selectors an implementing class must understand
	Doc       string

	object Object
}

// Object returns the class object.
func (c *Class) Object() Object { return c.object }

// ConstructorSelector is the slot names each followed by a colon, or
// "new" for a class without slots.
func (c *Class) ConstructorSelector() string {
	names := c.Instance.SlotNames()
	if len(names) == 0 {
		return "new"
	}
	return strings.Join(names, ":") + ":"
}

// newClass allocates a class with fresh tables and the class-side
// reflection methods.
func (vm *VM) newClass(name string, iface bool) *Class {
	c := &Class{
		Name:      name,
		Instance:  NewVTable(name),
		Meta:      NewVTable(name + " class"),
		Interface: iface,
	}
	c.Instance.class = c
	c.Instance.isInterface = iface
	c.Meta.class = c
	c.object = Object{vt: c.Meta, data: c}
	vm.installClassReflection(c.Meta)
	return c
}

// Instantiate builds an instance of c with args as its slots in order.
func (vm *VM) Instantiate(c *Class, args []Object) (Object, error) {
	if c.Interface {
		return Object{}, errorf("Cannot instantiate interface %s", c.Name)
	}
	names := c.Instance.SlotNames()
	if len(args) != len(names) {
		return Object{}, errorf("%s has %d slot(s), got %d argument(s)", c.Name, len(names), len(args))
	}
	slots := make([]Object, len(args))
	for i, name := range names {
		slot, _ := c.Instance.Slot(name)
		if !conforms(args[i], slot.Type) {
			return Object{}, typeErrorf(slot.Type, args[i], "Slot %s of %s: expected %s, got %s",
				name, c.Name, slot.Type.Name(), vm.Describe(args[i]))
		}
		slots[i] = args[i]
	}
	return Object{vt: c.Instance, data: &Instance{NewCell(slots)}}, nil
}

// evalClassDef defines a class or interface, or extends a class.
func (vm *VM) evalClassDef(env *Env, def *compiler.ClassDef) (Object, error) {
	if !env.toplevel {
		return Object{}, errorf("%s %s must be defined at top level", def.Kind, def.Name)
	}
	if def.Kind == compiler.KindExtend {
		return vm.extendClass(env, def)
	}
	return vm.defineClass(env, def)
}

func (vm *VM) defineClass(env *Env, def *compiler.ClassDef) (Object, error) {
	if vm.isDefined(env, def.Name) {
		return Object{}, errorf("Cannot redefine %s", def.Name).WithSpan(def.NameSpan)
	}

	c := vm.newClass(def.Name, def.Kind == compiler.KindInterface)
	c.Env = env
	c.Doc = def.Doc
	c.Required = append([]string(nil), def.Requires...)

	for _, s := range def.Slots {
		if _, dup := c.Instance.Slot(s.Name); dup {
			return Object{}, errorf("Duplicate slot %s in %s", s.Name, def.Name)
		}
		typ, err := vm.resolveType(env, s.Type, c)
		if err != nil {
			return Object{}, err
		}
		slot := c.Instance.AddSlot(s.Name, typ)
		if !isInternal(s.Name) {
			c.Instance.AddMethod(s.Name, &ReaderMethod{name: s.Name, index: slot.Index})
		}
	}
	if !c.Interface {
		ctor := &ConstructorMethod{class: c}
		c.Meta.AddMethod(ctor.Name(), ctor)
	}

	if err := vm.installMethods(env, c, def); err != nil {
		return Object{}, err
	}
	for _, name := range def.Interfaces {
		if err := vm.attachInterface(env, c, name); err != nil {
			return Object{}, err
		}
	}

	env.DefineConstant(def.Name, c.object)
	log.Debugf("defined %s %s (%d slots, %d methods)", def.Kind, def.Name,
		c.Instance.NumSlots(), len(def.Methods)+len(def.ClassMethods))
	return c.object, nil
}

// isDefined reports whether name is bound in env itself or names a class
// anywhere up the chain.
func (vm *VM) isDefined(env *Env, name string) bool {
	if _, ok := env.local(name); ok {
		return true
	}
	if v, ok := env.Get(name); ok {
		_, isClass := v.AsClass()
		return isClass
	}
	return false
}

func (vm *VM) extendClass(env *Env, def *compiler.ClassDef) (Object, error) {
	v, ok := env.Get(def.Name)
	if !ok {
		return Object{}, errorf("Cannot extend %s: no such class", def.Name).WithSpan(def.NameSpan)
	}
	c, ok := v.AsClass()
	if !ok || c.Interface {
		return Object{}, errorf("Cannot extend %s: not a class", def.Name).WithSpan(def.NameSpan)
	}
	if len(def.Slots) > 0 {
		return Object{}, errorf("Cannot add slots to %s in an extension", def.Name)
	}
	if err := vm.installMethods(env, c, def); err != nil {
		return Object{}, err
	}
	for _, name := range def.Interfaces {
		if err := vm.attachInterface(env, c, name); err != nil {
			return Object{}, err
		}
	}
	log.Debugf("extended %s", def.Name)
	return c.object, nil
}

// installMethods binds every method of def as an interpreted method that
// runs in env, the scope the definition appears in.
func (vm *VM) installMethods(env *Env, c *Class, def *compiler.ClassDef) error {
	install := func(vt *VTable, defs []*compiler.MethodDef) error {
		for _, m := range defs {
			closure, err := vm.methodClosure(env, c, m)
			if err != nil {
				return withSpan(err, m.SpanVal)
			}
			vt.AddMethod(m.Selector, &InterpretedMethod{Closure: closure, Env: env})
		}
		return nil
	}
	if err := install(c.Instance, def.Methods); err != nil {
		return err
	}
	return install(c.Meta, def.ClassMethods)
}

func (vm *VM) methodClosure(env *Env, c *Class, m *compiler.MethodDef) (*Closure, error) {
	params, err := vm.resolveParams(env, m.Parameters, c)
	if err != nil {
		return nil, err
	}
	temps, err := vm.resolveParams(env, m.Temps, c)
	if err != nil {
		return nil, err
	}
	ret, err := vm.resolveType(env, m.ReturnType, c)
	if err != nil {
		return nil, err
	}
	return &Closure{
		Params: params,
		Temps:  temps,
		Body:   m.Body,
		Return: ret,
		Name:   m.Selector,
		Doc:    m.Doc,
		source: vm.source,
	}, nil
}

// attachInterface records that c implements the named interface. Default
// methods the class does not define itself are copied in. A class must
// understand every required selector; an interface inherits them instead.
func (vm *VM) attachInterface(env *Env, c *Class, name string) error {
	v, ok := env.Get(name)
	if !ok {
		return errorf("Unknown interface: %s", name)
	}
	iface, ok := v.AsClass()
	if !ok || !iface.Interface {
		return errorf("%s is not an interface", name)
	}
	if iface == c {
		return errorf("%s cannot implement itself", name)
	}

	for _, sel := range iface.Instance.Selectors() {
		if !c.Instance.Defines(sel) {
			c.Instance.AddMethod(sel, iface.Instance.Lookup(sel))
		}
	}
	if c.Interface {
		for _, sel := range iface.Required {
			if !contains(c.Required, sel) {
				c.Required = append(c.Required, sel)
			}
		}
	} else {
		for _, sel := range iface.Required {
			if !c.Instance.HasMethod(sel) {
				return errorf("%s does not implement #%s required by %s", c.Name, sel, iface.Name)
			}
		}
	}

	c.Instance.addInterface(iface.Name)
	for _, inherited := range iface.Instance.Interfaces() {
		c.Instance.addInterface(inherited)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// installClassReflection adds the class-side methods every class has.
func (vm *VM) installClassReflection(meta *VTable) {
	meta.AddMethod0("name", func(vm *VM, recv Object) (Object, error) {
		return vm.NewString(recv.ClassData().Name), nil
	})
	meta.AddMethod0("doc", func(vm *VM, recv Object) (Object, error) {
		return vm.NewString(recv.ClassData().Doc), nil
	})
	meta.AddMethod0("isInterface", func(vm *VM, recv Object) (Object, error) {
		return vm.Bool(recv.ClassData().Interface), nil
	})
	meta.AddMethod0("slotNames", func(vm *VM, recv Object) (Object, error) {
		return vm.stringArray(recv.ClassData().Instance.SlotNames()), nil
	})
	meta.AddMethod0("selectors", func(vm *VM, recv Object) (Object, error) {
		return vm.stringArray(recv.ClassData().Instance.Selectors()), nil
	})
	meta.AddMethod0("classSelectors", func(vm *VM, recv Object) (Object, error) {
		return vm.stringArray(recv.ClassData().Meta.Selectors()), nil
	})
	meta.AddMethod0("interfaces", func(vm *VM, recv Object) (Object, error) {
		return vm.stringArray(recv.ClassData().Instance.Interfaces()), nil
	})
	meta.AddMethod1("isInstance:", func(vm *VM, recv Object, o Object) (Object, error) {
		return vm.Bool(conforms(o, recv.ClassData().Instance)), nil
	})
	meta.AddMethod1("implements:", func(vm *VM, recv Object, name Object) (Object, error) {
		c := recv.ClassData()
		if other, ok := name.AsClass(); ok {
			return vm.Bool(c.Instance.Implements(other.Name)), nil
		}
		s, ok := name.AsString()
		if !ok {
			return Object{}, typeError(vm.StringClass.Instance, name)
		}
		return vm.Bool(c.Instance.Implements(s)), nil
	})
}

func (vm *VM) stringArray(items []string) Object {
	out := make([]Object, len(items))
	for i, s := range items {
		out[i] = vm.NewString(s)
	}
	return Object{vt: vm.ArrayClass.Instance, data: &Array{NewCell(out)}}
}
