package vm

import (
	"math"
	"strconv"
)

// ---------------------------------------------------------------------------
// Integer Primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerIntegerPrimitives() {
	c := vm.IntegerClass.Instance

	// Arithmetic. Integer op Float is a Float.
	c.AddMethod1("+", func(vm *VM, recv Object, arg Object) (Object, error) {
		a := recv.Int()
		if b, ok := arg.AsInt(); ok {
			r := a + b
			if (a > 0 && b > 0 && r < 0) || (a < 0 && b < 0 && r >= 0) {
				return Object{}, errorf("Integer overflow: %d + %d", a, b)
			}
			return vm.Int(r), nil
		}
		if f, ok := arg.AsFloat(); ok {
			return vm.Float(float64(a) + f), nil
		}
		return Object{}, vm.numberExpected(arg)
	})

	c.AddMethod1("-", func(vm *VM, recv Object, arg Object) (Object, error) {
		a := recv.Int()
		if b, ok := arg.AsInt(); ok {
			r := a - b
			if (a >= 0 && b < 0 && r < 0) || (a < 0 && b > 0 && r >= 0) {
				return Object{}, errorf("Integer overflow: %d - %d", a, b)
			}
			return vm.Int(r), nil
		}
		if f, ok := arg.AsFloat(); ok {
			return vm.Float(float64(a) - f), nil
		}
		return Object{}, vm.numberExpected(arg)
	})

	c.AddMethod1("*", func(vm *VM, recv Object, arg Object) (Object, error) {
		a := recv.Int()
		if b, ok := arg.AsInt(); ok {
			r, ok := mulInt(a, b)
			if !ok {
				return Object{}, errorf("Integer overflow: %d * %d", a, b)
			}
			return vm.Int(r), nil
		}
		if f, ok := arg.AsFloat(); ok {
			return vm.Float(float64(a) * f), nil
		}
		return Object{}, vm.numberExpected(arg)
	})

	// / is exact when it can be and a Float otherwise.
	c.AddMethod1("/", func(vm *VM, recv Object, arg Object) (Object, error) {
		a := recv.Int()
		if b, ok := arg.AsInt(); ok {
			if b == 0 {
				return Object{}, errorf("Division by zero")
			}
			if a%b == 0 {
				if a == math.MinInt64 && b == -1 {
					return Object{}, errorf("Integer overflow: %d / %d", a, b)
				}
				return vm.Int(a / b), nil
			}
			return vm.Float(float64(a) / float64(b)), nil
		}
		if f, ok := arg.AsFloat(); ok {
			if f == 0 {
				return Object{}, errorf("Division by zero")
			}
			return vm.Float(float64(a) / f), nil
		}
		return Object{}, vm.numberExpected(arg)
	})

	// Floored division and modulo.
	c.AddMethod1("//", func(vm *VM, recv Object, arg Object) (Object, error) {
		a := recv.Int()
		b, err := vm.intArg(arg)
		if err != nil {
			return Object{}, err
		}
		if b == 0 {
			return Object{}, errorf("Division by zero")
		}
		if a == math.MinInt64 && b == -1 {
			return Object{}, errorf("Integer overflow: %d // %d", a, b)
		}
		q := a / b
		if (a%b != 0) && ((a < 0) != (b < 0)) {
			q--
		}
		return vm.Int(q), nil
	})

	c.AddMethod1("\\\\", func(vm *VM, recv Object, arg Object) (Object, error) {
		a := recv.Int()
		b, err := vm.intArg(arg)
		if err != nil {
			return Object{}, err
		}
		if b == 0 {
			return Object{}, errorf("Division by zero")
		}
		if b == -1 {
			return vm.Int(0), nil
		}
		m := a % b
		if m != 0 && ((m < 0) != (b < 0)) {
			m += b
		}
		return vm.Int(m), nil
	})

	c.AddMethod1("rem:", func(vm *VM, recv Object, arg Object) (Object, error) {
		b, err := vm.intArg(arg)
		if err != nil {
			return Object{}, err
		}
		if b == 0 {
			return Object{}, errorf("Division by zero")
		}
		if b == -1 {
			return vm.Int(0), nil
		}
		return vm.Int(recv.Int() % b), nil
	})

	c.AddMethod1("gcd:", func(vm *VM, recv Object, arg Object) (Object, error) {
		b, err := vm.intArg(arg)
		if err != nil {
			return Object{}, err
		}
		a := recv.Int()
		for b != 0 {
			a, b = b, a%b
		}
		if a < 0 {
			a = -a
		}
		return vm.Int(a), nil
	})

	// Comparison
	vm.addNumericComparisons(c, func(recv Object) float64 { return float64(recv.Int()) })

	c.AddMethod1("=", func(vm *VM, recv Object, arg Object) (Object, error) {
		if b, ok := arg.AsInt(); ok {
			return vm.Bool(recv.Int() == b), nil
		}
		if f, ok := arg.AsFloat(); ok {
			return vm.Bool(float64(recv.Int()) == f), nil
		}
		return vm.Bool(false), nil
	})

	// Bitwise
	bitop := func(name string, op func(a, b int64) int64) {
		c.AddMethod1(name, func(vm *VM, recv Object, arg Object) (Object, error) {
			b, err := vm.intArg(arg)
			if err != nil {
				return Object{}, err
			}
			return vm.Int(op(recv.Int(), b)), nil
		})
	}
	bitop("bitAnd:", func(a, b int64) int64 { return a & b })
	bitop("bitOr:", func(a, b int64) int64 { return a | b })
	bitop("bitXor:", func(a, b int64) int64 { return a ^ b })
	bitop("bitShift:", func(a, b int64) int64 {
		if b >= 0 {
			return a << uint(b)
		}
		return a >> uint(-b)
	})

	// Unary
	c.AddMethod0("negated", func(vm *VM, recv Object) (Object, error) {
		n := recv.Int()
		if n == math.MinInt64 {
			return Object{}, errorf("Integer overflow: %d negated", n)
		}
		return vm.Int(-n), nil
	})
	c.AddMethod0("abs", func(vm *VM, recv Object) (Object, error) {
		n := recv.Int()
		if n == math.MinInt64 {
			return Object{}, errorf("Integer overflow: %d abs", n)
		}
		if n < 0 {
			n = -n
		}
		return vm.Int(n), nil
	})
	c.AddMethod0("isZero", func(vm *VM, recv Object) (Object, error) {
		return vm.Bool(recv.Int() == 0), nil
	})
	c.AddMethod0("even", func(vm *VM, recv Object) (Object, error) {
		return vm.Bool(recv.Int()%2 == 0), nil
	})
	c.AddMethod0("odd", func(vm *VM, recv Object) (Object, error) {
		return vm.Bool(recv.Int()%2 != 0), nil
	})
	c.AddMethod0("sign", func(vm *VM, recv Object) (Object, error) {
		switch n := recv.Int(); {
		case n > 0:
			return vm.Int(1), nil
		case n < 0:
			return vm.Int(-1), nil
		}
		return vm.Int(0), nil
	})
	c.AddMethod0("squared", func(vm *VM, recv Object) (Object, error) {
		r, ok := mulInt(recv.Int(), recv.Int())
		if !ok {
			return Object{}, errorf("Integer overflow: %d squared", recv.Int())
		}
		return vm.Int(r), nil
	})
	c.AddMethod0("sqrt", func(vm *VM, recv Object) (Object, error) {
		return vm.Float(math.Sqrt(float64(recv.Int()))), nil
	})
	c.AddMethod0("asFloat", func(vm *VM, recv Object) (Object, error) {
		return vm.Float(float64(recv.Int())), nil
	})
	c.AddMethod0("asInteger", func(vm *VM, recv Object) (Object, error) {
		return recv, nil
	})
	c.AddMethod0("asString", func(vm *VM, recv Object) (Object, error) {
		return vm.NewString(strconv.FormatInt(recv.Int(), 10)), nil
	})
	c.AddMethod0("asCharacter", func(vm *VM, recv Object) (Object, error) {
		return vm.NewString(string(rune(recv.Int()))), nil
	})
	c.AddMethod1("printString:", func(vm *VM, recv Object, arg Object) (Object, error) {
		base, err := vm.intArg(arg)
		if err != nil {
			return Object{}, err
		}
		if base < 2 || base > 36 {
			return Object{}, errorf("Radix out of range: %d", base)
		}
		return vm.NewString(strconv.FormatInt(recv.Int(), int(base))), nil
	})

	c.AddMethod1("max:", func(vm *VM, recv Object, arg Object) (Object, error) {
		return vm.pickNumber(recv, arg, func(a, b float64) bool { return a >= b })
	})
	c.AddMethod1("min:", func(vm *VM, recv Object, arg Object) (Object, error) {
		return vm.pickNumber(recv, arg, func(a, b float64) bool { return a <= b })
	})
	c.AddMethod2("between:and:", func(vm *VM, recv Object, lo, hi Object) (Object, error) {
		l, err := vm.floatArg(lo)
		if err != nil {
			return Object{}, err
		}
		h, err := vm.floatArg(hi)
		if err != nil {
			return Object{}, err
		}
		n := float64(recv.Int())
		return vm.Bool(n >= l && n <= h), nil
	})

	// Iteration. to:do: counts down when the end is below the start.
	c.AddMethod2("to:do:", func(vm *VM, recv Object, end, blk Object) (Object, error) {
		stop, err := vm.intArg(end)
		if err != nil {
			return Object{}, err
		}
		start := recv.Int()
		step := int64(1)
		if stop < start {
			step = -1
		}
		if err := vm.countLoop(start, stop, step, blk); err != nil {
			return Object{}, err
		}
		return recv, nil
	})

	c.AddMethod3("to:by:do:", func(vm *VM, recv Object, end, by, blk Object) (Object, error) {
		stop, err := vm.intArg(end)
		if err != nil {
			return Object{}, err
		}
		step, err := vm.intArg(by)
		if err != nil {
			return Object{}, err
		}
		if step == 0 {
			return Object{}, errorf("Step must not be zero")
		}
		if err := vm.countLoop(recv.Int(), stop, step, blk); err != nil {
			return Object{}, err
		}
		return recv, nil
	})

	c.AddMethod1("timesRepeat:", func(vm *VM, recv Object, blk Object) (Object, error) {
		for i := int64(0); i < recv.Int(); i++ {
			if _, err := vm.callBlock(blk); err != nil {
				return Object{}, err
			}
		}
		return recv, nil
	})

	// Class side
	vm.IntegerClass.Meta.AddMethod1("parse:", func(vm *VM, recv Object, arg Object) (Object, error) {
		s, ok := arg.AsString()
		if !ok {
			return Object{}, typeError(vm.StringClass.Instance, arg)
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return vm.Nil(), nil
		}
		return vm.Int(n), nil
	})
}

// countLoop calls blk with each integer from start to stop inclusive.
func (vm *VM) countLoop(start, stop, step int64, blk Object) error {
	for i := start; (step > 0 && i <= stop) || (step < 0 && i >= stop); i += step {
		if _, err := vm.callBlock(blk, vm.Int(i)); err != nil {
			return err
		}
		if (step > 0 && i > math.MaxInt64-step) || (step < 0 && i < math.MinInt64-step) {
			break
		}
	}
	return nil
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	r := a * b
	if r/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return r, true
}

func (vm *VM) numberExpected(arg Object) *Unwind {
	return typeErrorf(vm.NumberInterface.Instance, arg, "Expected a Number, got %s", vm.Describe(arg))
}

func (vm *VM) intArg(arg Object) (int64, error) {
	n, ok := arg.AsInt()
	if !ok {
		return 0, typeErrorf(vm.IntegerClass.Instance, arg, "Expected an Integer, got %s", vm.Describe(arg))
	}
	return n, nil
}

// floatArg accepts any Number.
func (vm *VM) floatArg(arg Object) (float64, error) {
	if n, ok := arg.AsInt(); ok {
		return float64(n), nil
	}
	if f, ok := arg.AsFloat(); ok {
		return f, nil
	}
	return 0, vm.numberExpected(arg)
}

func (vm *VM) pickNumber(recv, arg Object, keepRecv func(a, b float64) bool) (Object, error) {
	a, err := vm.floatArg(recv)
	if err != nil {
		return Object{}, err
	}
	b, err := vm.floatArg(arg)
	if err != nil {
		return Object{}, err
	}
	if keepRecv(a, b) {
		return recv, nil
	}
	return arg, nil
}

// addNumericComparisons installs < > <= >= comparing against any Number.
func (vm *VM) addNumericComparisons(c *VTable, value func(Object) float64) {
	cmp := func(name string, op func(a, b float64) bool, intOp func(a, b int64) bool) {
		c.AddMethod1(name, func(vm *VM, recv Object, arg Object) (Object, error) {
			if a, ok := recv.AsInt(); ok {
				if b, ok := arg.AsInt(); ok {
					return vm.Bool(intOp(a, b)), nil
				}
			}
			b, err := vm.floatArg(arg)
			if err != nil {
				return Object{}, err
			}
			return vm.Bool(op(value(recv), b)), nil
		})
	}
	cmp("<", func(a, b float64) bool { return a < b }, func(a, b int64) bool { return a < b })
	cmp(">", func(a, b float64) bool { return a > b }, func(a, b int64) bool { return a > b })
	cmp("<=", func(a, b float64) bool { return a <= b }, func(a, b int64) bool { return a <= b })
	cmp(">=", func(a, b float64) bool { return a >= b }, func(a, b int64) bool { return a >= b })
}
