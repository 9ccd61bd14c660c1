package vm

import (
	"fmt"

	"gvm/internal/heap"
	"gvm/internal/register"
	"gvm/internal/value"
)

// readBinaryRegs reads two 1-byte register operands and resolves their
// Values, the shape CMP and the arithmetic binops share.
func (vm *VM) readBinaryRegs() (lhs, rhs value.Value, err error) {
	lr, err := vm.stream.ReadU8()
	if err != nil {
		return
	}
	rr, err := vm.stream.ReadU8()
	if err != nil {
		return
	}
	lhs, err = vm.registers.Get(lr)
	if err != nil {
		return
	}
	rhs, err = vm.registers.Get(rr)
	return
}

// cmp implements CMP per spec §4.8.
func (vm *VM) cmp() error {
	lhs, rhs, err := vm.readBinaryRegs()
	if err != nil {
		return err
	}

	switch {
	case bothIntegralOrBool(lhs, rhs):
		l, _ := lhs.AsI64()
		r, _ := rhs.AsI64()
		vm.registers.SetFlags(compareOrdered(l, r))

	case lhs.Floating() || rhs.Floating():
		l, _ := lhs.AsF64()
		r, _ := rhs.AsF64()
		vm.registers.SetFlags(compareOrdered(l, r))

	case lhs.Kind() == value.KindHeapRef || rhs.Kind() == value.KindHeapRef:
		if lhs.Kind() == value.KindHeapRef && rhs.Kind() == value.KindHeapRef {
			vm.registers.SetFlags(compareOrdered(heapAddress(lhs), heapAddress(rhs)))
		} else {
			vm.registers.SetFlags(register.FlagNone)
		}

	case lhs.Kind() == value.KindFunction || rhs.Kind() == value.KindFunction:
		if lhs.Kind() == value.KindFunction && rhs.Kind() == value.KindFunction {
			vm.registers.SetFlags(compareOrdered(lhs.Function().Address, rhs.Function().Address))
		} else {
			vm.registers.SetFlags(register.FlagNone)
		}

	default:
		return fmt.Errorf("cannot compare '%s' with '%s'", lhs.TypeName(), rhs.TypeName())
	}
	return nil
}

// cmpz implements CMPZ per spec §4.8.
func (vm *VM) cmpz() error {
	r, err := vm.stream.ReadU8()
	if err != nil {
		return err
	}
	v, err := vm.registers.Get(r)
	if err != nil {
		return err
	}
	zero, err := v.IsZero()
	if err != nil {
		return err
	}
	if zero {
		vm.registers.SetFlags(register.FlagEqual)
	} else {
		vm.registers.SetFlags(register.FlagNone)
	}
	return nil
}

func bothIntegralOrBool(a, b value.Value) bool {
	ok := func(v value.Value) bool {
		return v.Kind() == value.KindI32 || v.Kind() == value.KindI64 || v.Kind() == value.KindBool
	}
	return ok(a) && ok(b)
}

func heapAddress(v value.Value) uintptr {
	if obj := heap.FromRef(v.HeapRef()); obj != nil {
		return obj.Address()
	}
	return 0
}

type ordered interface {
	~int64 | ~float64 | ~uint32 | ~uintptr
}

func compareOrdered[T ordered](l, r T) register.Flags {
	switch {
	case l > r:
		return register.FlagGreater
	case l == r:
		return register.FlagEqual
	default:
		return register.FlagNone
	}
}

// arith implements ADD/SUB/MUL per spec §4.9: numeric promotion picks
// the operand Kind with the greater ordinal, HeapRef-lhs combinations
// silently yield a default Value (reserved for a future operator
// overload mechanism), and every other combination is a type error
// named after the operation (verb).
func (vm *VM) arith(verb string, intOp func(l, r int64) int64, floatOp func(l, r float64) float64) error {
	lhs, rhs, dst, err := vm.readTernaryRegs()
	if err != nil {
		return err
	}

	result, ok, err := vm.numericResult(lhs, rhs, verb, func(l, r int64) (int64, error) {
		return intOp(l, r), nil
	}, func(l, r float64) (float64, error) {
		return floatOp(l, r), nil
	})
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return vm.registers.Set(dst, result)
}

// divmod implements DIV/MOD, the supplemented counterparts to ADD/SUB/
// MUL (spec §9 flags these as open; original_source's instruction enum
// declares them). They share ADD/SUB/MUL's promotion and HeapRef-lhs
// silent-default rule, but additionally trap division/modulo by zero
// with zeroMsg instead of the Go runtime's integer-divide-by-zero panic
// or IEEE Inf/NaN for floats.
func (vm *VM) divmod(verb, zeroMsg string, intOp func(l, r int64) int64, floatOp func(l, r float64) float64) error {
	lhs, rhs, dst, err := vm.readTernaryRegs()
	if err != nil {
		return err
	}

	result, ok, err := vm.numericResult(lhs, rhs, verb,
		func(l, r int64) (int64, error) {
			if r == 0 {
				return 0, fmt.Errorf("%s", zeroMsg)
			}
			return intOp(l, r), nil
		},
		func(l, r float64) (float64, error) {
			if r == 0 {
				return 0, fmt.Errorf("%s", zeroMsg)
			}
			return floatOp(l, r), nil
		})
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return vm.registers.Set(dst, result)
}

func (vm *VM) readTernaryRegs() (lhs, rhs value.Value, dst uint8, err error) {
	lhs, rhs, err = vm.readBinaryRegs()
	if err != nil {
		return
	}
	dst, err = vm.stream.ReadU8()
	return
}

// numericResult applies the ADD/SUB/MUL/DIV/MOD promotion rule. For the
// silent HeapRef-lhs reserved slot it returns a default I32 zero with ok
// true and a nil error; ok is false only alongside a non-nil error.
func (vm *VM) numericResult(
	lhs, rhs value.Value,
	verb string,
	intOp func(l, r int64) (int64, error),
	floatOp func(l, r float64) (float64, error),
) (result value.Value, ok bool, err error) {
	switch {
	case lhs.Numeric() && rhs.Numeric():
		resultKind := value.PromoteKind(lhs.Kind(), rhs.Kind())
		if resultKind == value.KindF32 || resultKind == value.KindF64 {
			l, _ := lhs.AsF64()
			r, _ := rhs.AsF64()
			v, ferr := floatOp(l, r)
			if ferr != nil {
				return value.Value{}, false, ferr
			}
			if resultKind == value.KindF32 {
				return value.F32(float32(v)), true, nil
			}
			return value.F64(v), true, nil
		}

		l, _ := lhs.AsI64()
		r, _ := rhs.AsI64()
		v, ierr := intOp(l, r)
		if ierr != nil {
			return value.Value{}, false, ierr
		}
		if resultKind == value.KindI32 {
			return value.I32(int32(v)), true, nil
		}
		return value.I64(v), true, nil

	case lhs.Kind() == value.KindHeapRef:
		return value.I32(0), true, nil

	default:
		return value.Value{}, false, fmt.Errorf("cannot %s types '%s' and '%s'", verb, lhs.TypeName(), rhs.TypeName())
	}
}
