package vm

import (
	"fmt"

	"gvm/internal/bytecode"
	"gvm/internal/value"
)

// maxCallArgs bounds the number of operand-stack slots a single CALL can
// push, mirroring the original VM's fixed-size argument staging buffer.
const maxCallArgs = 8

// InvokeFunction implements CALL's semantics: argc/arity validation,
// transferring control to fv's entry address, running the callee's own
// fetch-decode loop until it executes RET, and restoring the caller's
// stream position. RET is deliberately not a case in dispatch's switch:
// a RET reached through the top-level loop (i.e. one with no matching
// CALL on the Go call stack) falls through to the unknown-opcode path,
// same as the original VM's missing top-level handler for it.
func (vm *VM) InvokeFunction(fv value.Value, argc uint8) error {
	if argc > maxCallArgs {
		return fmt.Errorf("too many arguments: expected at most %d, received %d", maxCallArgs, argc)
	}
	if fv.Kind() != value.KindFunction {
		return fmt.Errorf("cannot call value of type '%s'", fv.TypeName())
	}
	fn := fv.Function()
	if fn.Arity != argc {
		return fmt.Errorf("expected %d parameters, received %d", argc, fn.Arity)
	}

	returnPos := vm.stream.Position()
	vm.stream.Seek(fn.Address)

	for {
		opByte, err := vm.stream.ReadU8()
		if err != nil {
			return err
		}
		op := bytecode.Op(opByte)
		if op == bytecode.Ret {
			break
		}
		if err := vm.dispatch(op); err != nil {
			return err
		}
	}

	vm.stream.Seek(returnPos)
	return nil
}
