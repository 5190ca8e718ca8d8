package vm

import (
	"fmt"
	"math/rand/v2"
	"os"
	"time"
)

// ---------------------------------------------------------------------------
// System Primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerSystemPrimitives() {
	c := vm.SystemClass.Instance

	// print: and printLine: write the displayString of their argument.
	c.AddMethod1("print:", func(vm *VM, recv Object, arg Object) (Object, error) {
		s, err := vm.displayString(arg)
		if err != nil {
			return Object{}, err
		}
		fmt.Fprint(vm.out, s)
		return arg, nil
	})
	c.AddMethod1("printLine:", func(vm *VM, recv Object, arg Object) (Object, error) {
		s, err := vm.displayString(arg)
		if err != nil {
			return Object{}, err
		}
		fmt.Fprintln(vm.out, s)
		return arg, nil
	})
	c.AddMethod0("newline", func(vm *VM, recv Object) (Object, error) {
		fmt.Fprintln(vm.out)
		return recv, nil
	})

	// clock answers seconds since the epoch as a Float.
	c.AddMethod0("clock", func(vm *VM, recv Object) (Object, error) {
		return vm.Float(float64(time.Now().UnixNano()) / 1e9), nil
	})
	c.AddMethod1("sleep:", func(vm *VM, recv Object, secs Object) (Object, error) {
		s, err := vm.floatArg(secs)
		if err != nil {
			return Object{}, err
		}
		if s > 0 {
			time.Sleep(time.Duration(s * float64(time.Second)))
		}
		return recv, nil
	})

	c.AddMethod0("random", func(vm *VM, recv Object) (Object, error) {
		return vm.Float(rand.Float64()), nil
	})
	c.AddMethod1("random:", func(vm *VM, recv Object, bound Object) (Object, error) {
		n, err := vm.intArg(bound)
		if err != nil {
			return Object{}, err
		}
		if n <= 0 {
			return Object{}, errorf("random: expects a positive bound, got %d", n)
		}
		return vm.Int(rand.Int64N(n) + 1), nil
	})

	c.AddMethod0("arguments", func(vm *VM, recv Object) (Object, error) {
		return vm.stringArray(recv.data.(*SystemState).args), nil
	})
	c.AddMethod1("env:", func(vm *VM, recv Object, name Object) (Object, error) {
		n, err := vm.stringArg(name)
		if err != nil {
			return Object{}, err
		}
		v, ok := os.LookupEnv(n)
		if !ok {
			return vm.Nil(), nil
		}
		return vm.NewString(v), nil
	})

	// Snapshots of plain data in CBOR.
	c.AddMethod2("save:to:", func(vm *VM, recv Object, value, path Object) (Object, error) {
		p, err := vm.stringArg(path)
		if err != nil {
			return Object{}, err
		}
		data, err := vm.Marshal(value)
		if err != nil {
			return Object{}, err
		}
		if err := os.WriteFile(p, data, 0o644); err != nil {
			return Object{}, errorf("Cannot write %s: %v", p, err)
		}
		return value, nil
	})
	c.AddMethod1("load:", func(vm *VM, recv Object, path Object) (Object, error) {
		p, err := vm.stringArg(path)
		if err != nil {
			return Object{}, err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return Object{}, errorf("Cannot read %s: %v", p, err)
		}
		return vm.Unmarshal(data)
	})
}
