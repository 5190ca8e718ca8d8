package vm

import (
	"io"
	"os"
	"sort"

	"github.com/tliron/commonlog"

	"github.com/chazu/sprat/compiler"
)

var log = commonlog.GetLogger("sprat.vm")

// ---------------------------------------------------------------------------
// VM: The Sprat runtime
// ---------------------------------------------------------------------------

// VM owns the builtin classes, the root and top-level scopes, and the
// module cache. A VM is single-threaded; callers serialize access.
type VM struct {
	root *Env // builtins
	top  *Env // the program's top level

	// Builtin classes
	IntegerClass    *Class
	FloatClass      *Class
	BooleanClass    *Class
	NilClass        *Class
	StringClass     *Class
	ArrayClass      *Class
	DictionaryClass *Class
	ClosureClass    *Class
	SystemClass     *Class
	CompilerClass   *Class
	DatabaseClass   *Class

	// Builtin interfaces
	ObjectInterface *Class
	NumberInterface *Class

	system Object

	loader  ModuleLoader
	modules map[string]*Env
	loading map[string]bool

	depth    int
	maxDepth int

	out      io.Writer
	source   *Source      // text being evaluated, for closures created from it
	printing map[any]bool // containers being printed, to cut cycles
}

// NewVM creates a VM with the builtin classes bound in its root scope and
// System bound at top level.
func NewVM() *VM {
	vm := &VM{
		modules:  make(map[string]*Env),
		loading:  make(map[string]bool),
		printing: make(map[any]bool),
		maxDepth: DefaultMaxDepth,
		out:      os.Stdout,
	}
	vm.root = NewEnv()
	vm.bootstrap()
	vm.top = newTopLevel(vm.root)
	return vm
}

func (vm *VM) bootstrap() {
	vm.ObjectInterface = vm.newClass("Object", true)
	vm.ObjectInterface.Instance.matchesAll = true
	vm.NumberInterface = vm.newClass("Number", true)

	vm.IntegerClass = vm.newClass("Integer", false)
	vm.FloatClass = vm.newClass("Float", false)
	vm.BooleanClass = vm.newClass("Boolean", false)
	vm.NilClass = vm.newClass("Nil", false)
	vm.StringClass = vm.newClass("String", false)
	vm.ArrayClass = vm.newClass("Array", false)
	vm.DictionaryClass = vm.newClass("Dictionary", false)
	vm.ClosureClass = vm.newClass("Closure", false)
	vm.SystemClass = vm.newClass("System", false)
	vm.CompilerClass = vm.newClass("Compiler", false)
	vm.DatabaseClass = vm.newClass("Database", false)

	vm.IntegerClass.Instance.addInterface("Number")
	vm.FloatClass.Instance.addInterface("Number")

	vm.registerIntegerPrimitives()
	vm.registerFloatPrimitives()
	vm.registerBooleanPrimitives()
	vm.registerNilPrimitives()
	vm.registerStringPrimitives()
	vm.registerArrayPrimitives()
	vm.registerDictionaryPrimitives()
	vm.registerBlockPrimitives()
	vm.registerSystemPrimitives()
	vm.registerCompilerPrimitives()
	vm.registerDatabasePrimitives()

	for _, c := range []*Class{
		vm.ObjectInterface, vm.NumberInterface,
		vm.IntegerClass, vm.FloatClass, vm.BooleanClass, vm.NilClass,
		vm.StringClass, vm.ArrayClass, vm.DictionaryClass, vm.ClosureClass,
		vm.CompilerClass, vm.DatabaseClass,
	} {
		c.Env = vm.root
		vm.root.DefineConstant(c.Name, c.object)
	}

	// The System class is not bound; its single instance is.
	vm.SystemClass.Env = vm.root
	vm.system = Object{vt: vm.SystemClass.Instance, data: &SystemState{}}
	vm.root.DefineConstant("System", vm.system)
}

// ---------------------------------------------------------------------------
// Host API
// ---------------------------------------------------------------------------

// SetLoader sets where imports are loaded from.
func (vm *VM) SetLoader(l ModuleLoader) { vm.loader = l }

// SetOutput redirects System print:.
func (vm *VM) SetOutput(w io.Writer) { vm.out = w }

// Output returns the writer System print: uses.
func (vm *VM) Output() io.Writer { return vm.out }

// SetMaxDepth bounds nested activations. Non-positive restores the default.
func (vm *VM) SetMaxDepth(n int) {
	if n <= 0 {
		n = DefaultMaxDepth
	}
	vm.maxDepth = n
}

// SetArguments sets what System arguments answers.
func (vm *VM) SetArguments(args []string) {
	vm.system.data.(*SystemState).args = append([]string(nil), args...)
}

// TopLevel returns the program's top-level scope.
func (vm *VM) TopLevel() *Env { return vm.top }

// System returns the System object.
func (vm *VM) System() Object { return vm.system }

// EvalAll evaluates a whole program in the top-level scope.
func (vm *VM) EvalAll(src string) (Object, error) {
	return vm.EvalNamed("<input>", src)
}

// EvalNamed is EvalAll with a name used in diagnostics.
func (vm *VM) EvalNamed(name, src string) (Object, error) {
	return vm.evalIn(vm.top, &Source{Name: name, Text: src})
}

// NewScope returns a fresh top-level scope that sees the program's top
// level. Definitions made in it stay private to it.
func (vm *VM) NewScope() *Env { return newTopLevel(vm.top) }

// EvalIn evaluates a program in scope, which must come from NewScope or
// TopLevel.
func (vm *VM) EvalIn(scope *Env, name, src string) (Object, error) {
	return vm.evalIn(scope, &Source{Name: name, Text: src})
}

// PrintString answers o's printString, dispatching to user overrides.
func (vm *VM) PrintString(o Object) (string, error) {
	return vm.printString(o)
}

// VisibleNames returns every name visible from scope, nearest first,
// without duplicates.
func (vm *VM) VisibleNames(scope *Env) []string {
	seen := make(map[string]bool)
	var out []string
	for f := scope; f != nil; f = f.parent {
		for _, name := range f.Names() {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// Classes returns the classes and interfaces visible at top level, sorted
// by name.
func (vm *VM) Classes() []*Class {
	var out []*Class
	for _, name := range vm.VisibleNames(vm.top) {
		if c, ok := vm.LookupClass(name); ok && c.Name == name {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Define binds name at top level.
func (vm *VM) Define(name string, value Object) { vm.top.Define(name, value) }

// Get reads a name visible at top level.
func (vm *VM) Get(name string) (Object, bool) { return vm.top.Get(name) }

// Set assigns a name visible at top level.
func (vm *VM) Set(name string, value Object) error {
	found, err := vm.top.Set(name, value)
	if !found {
		return errorf("Cannot assign to an unbound variable: %s", name)
	}
	return err
}

// LookupClass finds a class or interface visible at top level.
func (vm *VM) LookupClass(name string) (*Class, bool) {
	v, ok := vm.top.Get(name)
	if !ok {
		return nil, false
	}
	return v.AsClass()
}

// RunEntry sends selector to the named class. A keyword selector receives
// args as an Array of Strings.
func (vm *VM) RunEntry(className, selector string, args []string) (Object, error) {
	c, ok := vm.LookupClass(className)
	if !ok {
		return Object{}, errorf("Entry class not found: %s", className)
	}
	var sendArgs []Object
	if n := selectorArity(selector); n == 1 {
		items := make([]Object, len(args))
		for i, a := range args {
			items[i] = vm.NewString(a)
		}
		sendArgs = []Object{vm.NewArray(items)}
	} else if n > 1 {
		return Object{}, errorf("Entry selector #%s must take at most one argument", selector)
	}
	log.Infof("running %s %s", className, selector)
	result, err := vm.Send(c.object, selector, sendArgs)
	if err != nil {
		u := asUnwind(err)
		if u.returning {
			return Object{}, escapedReturn(u, compiler.Span{})
		}
		return Object{}, u
	}
	return result, nil
}

// selectorArity counts the arguments a selector takes.
func selectorArity(sel string) int {
	if sel == "" {
		return 0
	}
	if isBinarySelector(sel) {
		return 1
	}
	n := 0
	for _, r := range sel {
		if r == ':' {
			n++
		}
	}
	return n
}

func isBinarySelector(sel string) bool {
	for _, r := range sel {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == ':' {
			return false
		}
	}
	return true
}
