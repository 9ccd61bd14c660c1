package vm

import (
	"fmt"
	"math"
	"unicode/utf8"

	"gvm/internal/bytecode"
	"gvm/internal/register"
	"gvm/internal/value"
)

// dispatch executes exactly one instruction, reading any further
// operands the opcode needs from the stream. It is the single
// authoritative mapping from opcode to effect (spec §4.6); both the
// main loop and InvokeFunction's callee loop go through it.
func (vm *VM) dispatch(op bytecode.Op) error {
	switch op {
	case bytecode.StoreStaticString:
		n, err := vm.stream.ReadU32()
		if err != nil {
			return err
		}
		b, err := vm.stream.ReadBytes(n)
		if err != nil {
			return err
		}
		vm.static.StoreString(decodeUTF8(b))
		return nil

	case bytecode.StoreStaticAddr:
		addr, err := vm.stream.ReadU32()
		if err != nil {
			return err
		}
		vm.static.Store(value.Addr(addr))
		return nil

	case bytecode.LoadI32:
		r, v, err := readRegAnd(vm, vm.stream.ReadI32)
		if err != nil {
			return err
		}
		return vm.registers.Set(r, value.I32(v))

	case bytecode.LoadI64:
		r, v, err := readRegAnd(vm, vm.stream.ReadI64)
		if err != nil {
			return err
		}
		return vm.registers.Set(r, value.I64(v))

	case bytecode.LoadF32:
		r, v, err := readRegAnd(vm, vm.stream.ReadF32)
		if err != nil {
			return err
		}
		return vm.registers.Set(r, value.F32(v))

	case bytecode.LoadF64:
		r, v, err := readRegAnd(vm, vm.stream.ReadF64)
		if err != nil {
			return err
		}
		return vm.registers.Set(r, value.F64(v))

	case bytecode.LoadLocal:
		r, err := vm.stream.ReadU8()
		if err != nil {
			return err
		}
		off, err := vm.stream.ReadU16()
		if err != nil {
			return err
		}
		v, err := vm.stack.AtOffset(off)
		if err != nil {
			return err
		}
		return vm.registers.Set(r, v)

	case bytecode.LoadStatic:
		r, err := vm.stream.ReadU8()
		if err != nil {
			return err
		}
		idx, err := vm.stream.ReadU16()
		if err != nil {
			return err
		}
		v, err := vm.static.Get(idx)
		if err != nil {
			return err
		}
		return vm.registers.Set(r, v)

	case bytecode.LoadNull:
		r, err := vm.stream.ReadU8()
		if err != nil {
			return err
		}
		return vm.registers.Set(r, value.Null())

	case bytecode.LoadTrue:
		r, err := vm.stream.ReadU8()
		if err != nil {
			return err
		}
		return vm.registers.Set(r, value.Bool(true))

	case bytecode.LoadFalse:
		r, err := vm.stream.ReadU8()
		if err != nil {
			return err
		}
		return vm.registers.Set(r, value.Bool(false))

	case bytecode.Mov:
		off, err := vm.stream.ReadU16()
		if err != nil {
			return err
		}
		r, err := vm.stream.ReadU8()
		if err != nil {
			return err
		}
		v, err := vm.registers.Get(r)
		if err != nil {
			return err
		}
		return vm.stack.SetOffset(off, v)

	case bytecode.Push:
		r, err := vm.stream.ReadU8()
		if err != nil {
			return err
		}
		v, err := vm.registers.Get(r)
		if err != nil {
			return err
		}
		vm.stack.Push(v)
		return nil

	case bytecode.Pop:
		_, err := vm.stack.Pop()
		return err

	case bytecode.Echo:
		r, err := vm.stream.ReadU8()
		if err != nil {
			return err
		}
		v, err := vm.registers.Get(r)
		if err != nil {
			return err
		}
		return vm.echo.WriteString(vm.formatValue(v))

	case bytecode.EchoNewline:
		return vm.echo.WriteString("\n")

	case bytecode.Jmp:
		addr, err := vm.jumpTarget()
		if err != nil {
			return err
		}
		vm.stream.Seek(addr)
		return nil

	case bytecode.Je:
		return vm.condJump(func(f register.Flags) bool { return f == register.FlagEqual })

	case bytecode.Jne:
		return vm.condJump(func(f register.Flags) bool { return f != register.FlagEqual })

	case bytecode.Jg:
		return vm.condJump(func(f register.Flags) bool { return f == register.FlagGreater })

	case bytecode.Jge:
		return vm.condJump(func(f register.Flags) bool {
			return f == register.FlagGreater || f == register.FlagEqual
		})

	case bytecode.Call:
		r, err := vm.stream.ReadU8()
		if err != nil {
			return err
		}
		argc, err := vm.stream.ReadU8()
		if err != nil {
			return err
		}
		fv, err := vm.registers.Get(r)
		if err != nil {
			return err
		}
		return vm.InvokeFunction(fv, argc)

	case bytecode.Cmp:
		return vm.cmp()

	case bytecode.Cmpz:
		return vm.cmpz()

	case bytecode.Add:
		return vm.arith("add", func(l, r int64) int64 { return l + r }, func(l, r float64) float64 { return l + r })

	case bytecode.Sub:
		return vm.arith("subtract", func(l, r int64) int64 { return l - r }, func(l, r float64) float64 { return l - r })

	case bytecode.Mul:
		return vm.arith("multiply", func(l, r int64) int64 { return l * r }, func(l, r float64) float64 { return l * r })

	case bytecode.Div:
		return vm.divmod("divide", "division by zero",
			func(l, r int64) int64 { return l / r },
			func(l, r float64) float64 { return l / r })

	case bytecode.Mod:
		return vm.divmod("modulo", "modulo by zero",
			func(l, r int64) int64 { return l % r },
			math.Mod)

	case bytecode.Sweep:
		vm.Sweep()
		return nil

	case bytecode.Exit:
		vm.stream.Seek(vm.stream.Size())
		return nil

	default:
		return &unknownOpErr{op: op, pos: vm.stream.Position()}
	}
}

// readRegAnd reads a 1-byte register index followed by whatever read
// fills T, the shape every LOAD_<numeric> opcode shares.
func readRegAnd[T any](vm *VM, read func() (T, error)) (uint8, T, error) {
	var zero T
	r, err := vm.stream.ReadU8()
	if err != nil {
		return 0, zero, err
	}
	v, err := read()
	if err != nil {
		return 0, zero, err
	}
	return r, v, nil
}

func decodeUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	// Producer contract guarantees UTF-8; recover as best-effort text
	// rather than panicking on a malformed constant.
	buf := make([]rune, 0, len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		buf = append(buf, r)
		b = b[size:]
	}
	return string(buf)
}

// jumpTarget reads a register operand and requires it hold an Address.
func (vm *VM) jumpTarget() (uint32, error) {
	r, err := vm.stream.ReadU8()
	if err != nil {
		return 0, err
	}
	v, err := vm.registers.Get(r)
	if err != nil {
		return 0, err
	}
	if v.Kind() != value.KindAddress {
		return 0, fmt.Errorf("jump target must be an address, found '%s'", v.TypeName())
	}
	return v.Address(), nil
}

func (vm *VM) condJump(take func(register.Flags) bool) error {
	addr, err := vm.jumpTarget()
	if err != nil {
		return err
	}
	if take(vm.registers.Flags()) {
		vm.stream.Seek(addr)
	}
	return nil
}
