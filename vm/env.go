package vm

import (
	"sort"
	"strings"

	"github.com/chazu/sprat/compiler"
)

// ---------------------------------------------------------------------------
// Env: lexical scope frames
// ---------------------------------------------------------------------------

// Binding is a name's slot in a frame. Type, once set, never changes.
type Binding struct {
	Type     *VTable
	Value    Object
	Constant bool
}

// Env is a frame in the lexical chain. Frames are shared by every closure
// that captured them and live as long as any of those closures does.
//
// home is the call activation a non-local return in this frame targets. It
// is nil until a call extends a frame that has none, and is inherited by
// every frame extended from then on.
type Env struct {
	depth    int
	bindings map[string]*Binding
	parent   *Env
	home     *Env
	receiver Object
	hasRecv  bool
	toplevel bool
	done     bool // set once the call that created this frame has exited
}

// NewEnv returns a root frame with no parent and no home.
func NewEnv() *Env {
	return &Env{bindings: make(map[string]*Binding), toplevel: true}
}

// newTopLevel returns a fresh top-level scope chained to parent, used for
// modules and embedded compilers.
func newTopLevel(parent *Env) *Env {
	e := parent.Extend(nil)
	e.toplevel = true
	return e
}

// Extend creates a lexical child frame. It inherits the home frame, which
// may be nil, and the receiver unless recv is given.
func (e *Env) Extend(recv *Object) *Env {
	child := &Env{
		depth:    e.depth + 1,
		bindings: make(map[string]*Binding),
		parent:   e,
		home:     e.home,
		receiver: e.receiver,
		hasRecv:  e.hasRecv,
	}
	if recv != nil {
		child.receiver = *recv
		child.hasRecv = true
	}
	return child
}

// ExtendCall creates the frame for a closure or method activation. If the
// parent has no home the new frame becomes its own.
func (e *Env) ExtendCall(recv *Object) *Env {
	child := e.Extend(recv)
	if child.home == nil {
		child.home = child
	}
	return child
}

// Home returns the frame a return from here targets, or nil.
func (e *Env) Home() *Env { return e.home }

// Finished reports whether the call that created e has exited.
func (e *Env) Finished() bool { return e.done }

// Receiver returns the nearest enclosing receiver.
func (e *Env) Receiver() (Object, bool) { return e.receiver, e.hasRecv }

// Toplevel reports whether class definitions are legal in this frame.
func (e *Env) Toplevel() bool { return e.toplevel }

// Depth returns the distance from the root frame.
func (e *Env) Depth() int { return e.depth }

// Lookup finds the nearest binding for name.
func (e *Env) Lookup(name string) (*Binding, bool) {
	for f := e; f != nil; f = f.parent {
		if b, ok := f.bindings[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// Get returns the nearest value bound to name.
func (e *Env) Get(name string) (Object, bool) {
	b, ok := e.Lookup(name)
	if !ok {
		return Object{}, false
	}
	return b.Value, true
}

// Define binds name in this frame, replacing any binding of the same name
// here. Bindings in ancestors are shadowed, not touched.
func (e *Env) Define(name string, value Object) {
	e.bindings[name] = &Binding{Value: value}
}

// DefineTyped binds name with a declared type. The value must conform.
func (e *Env) DefineTyped(name string, typ *VTable, value Object) error {
	if !conforms(value, typ) {
		return typeError(typ, value)
	}
	e.bindings[name] = &Binding{Type: typ, Value: value}
	return nil
}

// DefineConstant binds name so that it cannot be assigned.
func (e *Env) DefineConstant(name string, value Object) {
	e.bindings[name] = &Binding{Value: value, Constant: true}
}

// Set assigns to the nearest binding of name. The boolean result is false
// if no binding exists.
func (e *Env) Set(name string, value Object) (bool, error) {
	b, ok := e.Lookup(name)
	if !ok {
		return false, nil
	}
	if b.Constant {
		return true, errorf("Cannot assign to constant %s", name)
	}
	if !conforms(value, b.Type) {
		return true, typeError(b.Type, value)
	}
	b.Value = value
	return true, nil
}

// Names returns the names bound in this frame, sorted.
func (e *Env) Names() []string {
	out := make([]string, 0, len(e.bindings))
	for name := range e.bindings {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// local returns the binding of name in this frame only.
func (e *Env) local(name string) (*Binding, bool) {
	b, ok := e.bindings[name]
	return b, ok
}

// isInternal reports whether a name is private to its module.
func isInternal(name string) bool {
	return strings.HasPrefix(name, "_")
}

// ImportFrom merges bindings of src's own frame into e. Importing the very
// same binding again is a no-op; any other clash is an error.
func (e *Env) ImportFrom(src *Env, mode compiler.ImportMode, name, prefix string) error {
	merge := func(local string, b *Binding) error {
		if existing, ok := e.bindings[local]; ok {
			if existing == b {
				return nil
			}
			return errorf("Name conflict: %s is already defined", local)
		}
		e.bindings[local] = b
		return nil
	}

	switch mode {
	case compiler.ImportExact:
		if isInternal(name) {
			return errorf("Cannot import internal name %s", name)
		}
		b, ok := src.local(name)
		if !ok {
			return errorf("Module does not define %s", name)
		}
		return merge(name, b)
	case compiler.ImportWildcard:
		for _, n := range src.Names() {
			if isInternal(n) {
				continue
			}
			if err := merge(n, src.bindings[n]); err != nil {
				return err
			}
		}
	default:
		for _, n := range src.Names() {
			if isInternal(n) {
				continue
			}
			if err := merge(prefix+"."+n, src.bindings[n]); err != nil {
				return err
			}
		}
	}
	return nil
}
