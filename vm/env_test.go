package vm

import (
	"testing"

	"github.com/chazu/sprat/compiler"
)

func TestEnv_ExtendInheritsHome(t *testing.T) {
	root := NewEnv()
	if root.Home() != nil {
		t.Fatal("root frame should have no home")
	}

	lexical := root.Extend(nil)
	if lexical.Home() != nil {
		t.Error("lexical child of a homeless frame should have no home")
	}

	call := root.ExtendCall(nil)
	if call.Home() != call {
		t.Error("call frame with no inherited home should be its own home")
	}

	inner := call.Extend(nil).ExtendCall(nil)
	if inner.Home() != call {
		t.Error("nested call frame should keep the inherited home")
	}
}

func TestEnv_Receiver(t *testing.T) {
	vm := NewVM()
	root := NewEnv()
	if _, ok := root.Receiver(); ok {
		t.Fatal("root frame should have no receiver")
	}
	recv := vm.Int(7)
	method := root.ExtendCall(&recv)
	block := method.Extend(nil)
	got, ok := block.Receiver()
	if !ok || !got.Is(recv) {
		t.Errorf("block frame receiver = %v, want the method's", describeValue(got))
	}
}

func TestEnv_DefineShadows(t *testing.T) {
	vm := NewVM()
	root := NewEnv()
	root.Define("x", vm.Int(1))
	child := root.Extend(nil)
	child.Define("x", vm.Int(2))

	if v, _ := child.Get("x"); v.Int() != 2 {
		t.Errorf("child x = %d, want 2", v.Int())
	}
	if v, _ := root.Get("x"); v.Int() != 1 {
		t.Errorf("root x = %d, want 1", v.Int())
	}
}

func TestEnv_SetWalksChain(t *testing.T) {
	vm := NewVM()
	root := NewEnv()
	root.Define("x", vm.Int(1))
	child := root.Extend(nil).Extend(nil)

	found, err := child.Set("x", vm.Int(5))
	if !found || err != nil {
		t.Fatalf("Set = %v, %v", found, err)
	}
	if v, _ := root.Get("x"); v.Int() != 5 {
		t.Errorf("root x = %d, want 5", v.Int())
	}

	found, err = child.Set("missing", vm.Int(5))
	if found || err != nil {
		t.Errorf("Set(missing) = %v, %v, want false, nil", found, err)
	}
}

func TestEnv_TypedBinding(t *testing.T) {
	vm := NewVM()
	env := NewEnv()
	if err := env.DefineTyped("n", vm.IntegerClass.Instance, vm.NewString("x")); err == nil {
		t.Fatal("DefineTyped accepted a String for an Integer binding")
	}
	if err := env.DefineTyped("n", vm.IntegerClass.Instance, vm.Int(1)); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Set("n", vm.Float(1.5)); err == nil {
		t.Error("Set accepted a Float for an Integer binding")
	} else if asUnwind(err).Kind() != TypeError {
		t.Errorf("kind = %v, want type error", asUnwind(err).Kind())
	}
	if v, _ := env.Get("n"); v.Int() != 1 {
		t.Error("failed Set changed the binding")
	}
}

func TestEnv_Constant(t *testing.T) {
	vm := NewVM()
	env := NewEnv()
	env.DefineConstant("K", vm.Int(1))
	found, err := env.Set("K", vm.Int(2))
	if !found || err == nil {
		t.Fatalf("Set on a constant = %v, %v, want an error", found, err)
	}
	if msg := asUnwind(err).Message(); msg != "Cannot assign to constant K" {
		t.Errorf("message = %q", msg)
	}
}

func TestEnv_Names(t *testing.T) {
	vm := NewVM()
	env := NewEnv()
	env.Define("b", vm.Nil())
	env.Define("a", vm.Nil())
	env.Extend(nil).Define("c", vm.Nil())
	got := env.Names()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Names = %v, want [a b]", got)
	}
}

func moduleEnv(vm *VM) *Env {
	mod := NewEnv()
	mod.Define("Pi", vm.Float(3.14))
	mod.Define("E", vm.Float(2.71))
	mod.Define("_cache", vm.Nil())
	return mod
}

func TestEnv_ImportExact(t *testing.T) {
	vm := NewVM()
	mod := moduleEnv(vm)
	env := NewEnv()

	if err := env.ImportFrom(mod, compiler.ImportExact, "Pi", ""); err != nil {
		t.Fatal(err)
	}
	if _, ok := env.Get("Pi"); !ok {
		t.Error("Pi not imported")
	}
	if _, ok := env.Get("E"); ok {
		t.Error("exact import brought in E")
	}

	// Same binding again is fine.
	if err := env.ImportFrom(mod, compiler.ImportExact, "Pi", ""); err != nil {
		t.Errorf("re-import failed: %v", err)
	}

	if err := env.ImportFrom(mod, compiler.ImportExact, "Tau", ""); err == nil {
		t.Error("importing a missing name succeeded")
	}
	if err := env.ImportFrom(mod, compiler.ImportExact, "_cache", ""); err == nil {
		t.Error("importing an internal name succeeded")
	}
}

func TestEnv_ImportSharesBinding(t *testing.T) {
	vm := NewVM()
	mod := moduleEnv(vm)
	env := NewEnv()
	if err := env.ImportFrom(mod, compiler.ImportWildcard, "", ""); err != nil {
		t.Fatal(err)
	}
	mod.bindings["Pi"].Value = vm.Int(3)
	if v, _ := env.Get("Pi"); v.Int() != 3 {
		t.Error("imported binding does not track the module's")
	}
	if _, ok := env.Get("_cache"); ok {
		t.Error("wildcard import brought in an internal name")
	}
}

func TestEnv_ImportPrefix(t *testing.T) {
	vm := NewVM()
	mod := moduleEnv(vm)
	env := NewEnv()
	if err := env.ImportFrom(mod, compiler.ImportPrefix, "", "math"); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"math.Pi", "math.E"} {
		if _, ok := env.Get(name); !ok {
			t.Errorf("%s not bound", name)
		}
	}
	if _, ok := env.Get("Pi"); ok {
		t.Error("prefix import bound the bare name")
	}
}

func TestEnv_ImportConflict(t *testing.T) {
	vm := NewVM()
	mod := moduleEnv(vm)
	env := NewEnv()
	env.Define("Pi", vm.Int(3))
	err := env.ImportFrom(mod, compiler.ImportExact, "Pi", "")
	if err == nil {
		t.Fatal("conflicting import succeeded")
	}
	if msg := asUnwind(err).Message(); msg != "Name conflict: Pi is already defined" {
		t.Errorf("message = %q", msg)
	}
}
