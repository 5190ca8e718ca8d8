package vm

import (
	"math"
	"strconv"
)

// ---------------------------------------------------------------------------
// Float Primitives
// ---------------------------------------------------------------------------

func (vm *VM) registerFloatPrimitives() {
	c := vm.FloatClass.Instance

	arith := func(name string, op func(a, b float64) float64, checkZero bool) {
		c.AddMethod1(name, func(vm *VM, recv Object, arg Object) (Object, error) {
			b, err := vm.floatArg(arg)
			if err != nil {
				return Object{}, err
			}
			if checkZero && b == 0 {
				return Object{}, errorf("Division by zero")
			}
			return vm.Float(op(recv.Float(), b)), nil
		})
	}
	arith("+", func(a, b float64) float64 { return a + b }, false)
	arith("-", func(a, b float64) float64 { return a - b }, false)
	arith("*", func(a, b float64) float64 { return a * b }, false)
	arith("/", func(a, b float64) float64 { return a / b }, true)
	arith("**", math.Pow, false)

	c.AddMethod1("//", func(vm *VM, recv Object, arg Object) (Object, error) {
		b, err := vm.floatArg(arg)
		if err != nil {
			return Object{}, err
		}
		if b == 0 {
			return Object{}, errorf("Division by zero")
		}
		q := math.Floor(recv.Float() / b)
		if q > math.MaxInt64 || q < math.MinInt64 || math.IsNaN(q) {
			return Object{}, errorf("Float %s cannot be an Integer", formatFloat(q))
		}
		return vm.Int(int64(q)), nil
	})

	c.AddMethod1("\\\\", func(vm *VM, recv Object, arg Object) (Object, error) {
		b, err := vm.floatArg(arg)
		if err != nil {
			return Object{}, err
		}
		if b == 0 {
			return Object{}, errorf("Division by zero")
		}
		a := recv.Float()
		return vm.Float(a - b*math.Floor(a/b)), nil
	})

	vm.addNumericComparisons(c, func(recv Object) float64 { return recv.Float() })

	c.AddMethod1("=", func(vm *VM, recv Object, arg Object) (Object, error) {
		if f, ok := arg.AsFloat(); ok {
			return vm.Bool(recv.Float() == f), nil
		}
		if n, ok := arg.AsInt(); ok {
			return vm.Bool(recv.Float() == float64(n)), nil
		}
		return vm.Bool(false), nil
	})

	unary := func(name string, op func(float64) float64) {
		c.AddMethod0(name, func(vm *VM, recv Object) (Object, error) {
			return vm.Float(op(recv.Float())), nil
		})
	}
	unary("negated", func(f float64) float64 { return -f })
	unary("abs", math.Abs)
	unary("sqrt", math.Sqrt)
	unary("squared", func(f float64) float64 { return f * f })
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("ln", math.Log)
	unary("exp", math.Exp)

	toInt := func(name string, op func(float64) float64) {
		c.AddMethod0(name, func(vm *VM, recv Object) (Object, error) {
			r := op(recv.Float())
			if math.IsNaN(r) || r >= math.MaxInt64 || r < math.MinInt64 {
				return Object{}, errorf("Float %s cannot be an Integer", formatFloat(recv.Float()))
			}
			return vm.Int(int64(r)), nil
		})
	}
	toInt("floor", math.Floor)
	toInt("ceiling", math.Ceil)
	toInt("rounded", math.Round)
	toInt("truncated", math.Trunc)
	toInt("asInteger", math.Trunc)

	c.AddMethod0("asFloat", func(vm *VM, recv Object) (Object, error) {
		return recv, nil
	})
	c.AddMethod0("asString", func(vm *VM, recv Object) (Object, error) {
		return vm.NewString(formatFloat(recv.Float())), nil
	})
	c.AddMethod0("isZero", func(vm *VM, recv Object) (Object, error) {
		return vm.Bool(recv.Float() == 0), nil
	})
	c.AddMethod0("isNaN", func(vm *VM, recv Object) (Object, error) {
		return vm.Bool(math.IsNaN(recv.Float())), nil
	})
	c.AddMethod0("isInfinite", func(vm *VM, recv Object) (Object, error) {
		return vm.Bool(math.IsInf(recv.Float(), 0)), nil
	})
	c.AddMethod1("max:", func(vm *VM, recv Object, arg Object) (Object, error) {
		return vm.pickNumber(recv, arg, func(a, b float64) bool { return a >= b })
	})
	c.AddMethod1("min:", func(vm *VM, recv Object, arg Object) (Object, error) {
		return vm.pickNumber(recv, arg, func(a, b float64) bool { return a <= b })
	})
	c.AddMethod1("roundTo:", func(vm *VM, recv Object, arg Object) (Object, error) {
		q, err := vm.floatArg(arg)
		if err != nil {
			return Object{}, err
		}
		if q == 0 {
			return Object{}, errorf("Division by zero")
		}
		return vm.Float(math.Round(recv.Float()/q) * q), nil
	})

	// Class side
	meta := vm.FloatClass.Meta
	meta.AddMethod0("pi", func(vm *VM, recv Object) (Object, error) {
		return vm.Float(math.Pi), nil
	})
	meta.AddMethod0("e", func(vm *VM, recv Object) (Object, error) {
		return vm.Float(math.E), nil
	})
	meta.AddMethod0("infinity", func(vm *VM, recv Object) (Object, error) {
		return vm.Float(math.Inf(1)), nil
	})
	meta.AddMethod0("nan", func(vm *VM, recv Object) (Object, error) {
		return vm.Float(math.NaN()), nil
	})
	meta.AddMethod1("parse:", func(vm *VM, recv Object, arg Object) (Object, error) {
		s, ok := arg.AsString()
		if !ok {
			return Object{}, typeError(vm.StringClass.Instance, arg)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return vm.Nil(), nil
		}
		return vm.Float(f), nil
	})
}
