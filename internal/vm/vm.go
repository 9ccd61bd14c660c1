// Package vm implements the VM orchestrator: the fetch-decode-execute
// loop, the call/return protocol, and the fail-stop error reporting
// contract that ties the bytecode, value, heap, static, register and
// stack packages together.
package vm

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"gvm/internal/bytecode"
	"gvm/internal/heap"
	"gvm/internal/register"
	"gvm/internal/static"
	"gvm/internal/stack"
)

// EchoSink is the abstract character-output stream ECHO writes through
// (spec §1/§6). The reference host wires a buffered stdout writer.
type EchoSink interface {
	WriteString(s string) error
}

// stdoutSink is the reference EchoSink: a buffered, flush-per-write
// wrapper over os.Stdout, grounded on the teacher's vm.stdout field and
// Writec handler (write then immediately Flush).
type stdoutSink struct {
	w *bufio.Writer
}

// NewStdoutSink returns the reference EchoSink writing to os.Stdout.
func NewStdoutSink() EchoSink {
	return &stdoutSink{w: bufio.NewWriter(os.Stdout)}
}

func (s *stdoutSink) WriteString(str string) error {
	if _, err := s.w.WriteString(str); err != nil {
		return err
	}
	return s.w.Flush()
}

// VM owns every piece of CORE state and implements the instruction
// dispatch loop.
type VM struct {
	stream    *bytecode.Stream
	stack     stack.Stack
	heap      *heap.Heap
	static    static.Memory
	registers register.File
	echo      EchoSink
}

// New constructs a VM over stream, echoing ECHO output to sink.
func New(stream *bytecode.Stream, sink EchoSink) *VM {
	return &VM{
		stream: stream,
		heap:   heap.New(),
		echo:   sink,
	}
}

// Stack returns the operand stack, for test introspection.
func (vm *VM) Stack() *stack.Stack { return &vm.stack }

// Heap returns the GC heap, for test introspection.
func (vm *VM) Heap() *heap.Heap { return vm.heap }

// Static returns the static constant pool, for test introspection.
func (vm *VM) Static() *static.Memory { return &vm.static }

// Registers returns the register file, for test introspection.
func (vm *VM) Registers() *register.File { return &vm.registers }

// Stream returns the underlying bytecode stream, for test introspection.
func (vm *VM) Stream() *bytecode.Stream { return vm.stream }

// Execute runs the fetch-decode-execute loop to completion. On any
// runtime error it has already written `runtime error: <message>` (or,
// for an unrecognized opcode, the unknown-instruction diagnostic) to
// the echo sink and halted by seeking the stream to Size(); the same
// error is also returned so callers and tests can distinguish a clean
// run from a trapped one without scraping stdout.
func (vm *VM) Execute() error {
	for vm.stream.Position() < vm.stream.Size() {
		if err := vm.step(); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteStep fetches and executes exactly one top-level instruction,
// for a single-step debug REPL. done is true once the stream has been
// fully consumed (or halted by a trap).
func (vm *VM) ExecuteStep() (done bool, err error) {
	if vm.stream.Position() >= vm.stream.Size() {
		return true, nil
	}
	if err := vm.step(); err != nil {
		return true, err
	}
	return vm.stream.Position() >= vm.stream.Size(), nil
}

// step fetches one opcode byte and dispatches it, translating any
// handler error into the fail-stop protocol.
func (vm *VM) step() error {
	opByte, err := vm.stream.ReadU8()
	if err != nil {
		return nil // end of stream; Execute's loop condition will stop
	}
	op := bytecode.Op(opByte)
	if derr := vm.dispatch(op); derr != nil {
		return vm.trap(op, derr)
	}
	return nil
}

// unknownOpErr marks an error as the unrecognized-opcode case, which is
// reported without the "runtime error:" prefix (spec §4.6/§7), unlike
// every other fail-stop condition.
type unknownOpErr struct {
	op  bytecode.Op
	pos uint32
}

func (e *unknownOpErr) Error() string {
	return fmt.Sprintf("unknown instruction '%d' referenced at location: %s", e.op, bytecode.FormatAddress(e.pos))
}

// trap reports err to the echo sink per the fail-stop protocol and
// seeks the stream to its end so the dispatch loop halts cleanly.
func (vm *VM) trap(op bytecode.Op, err error) error {
	var uerr *unknownOpErr
	if errors.As(err, &uerr) {
		vm.echo.WriteString(uerr.Error() + "\n")
	} else {
		vm.echo.WriteString(fmt.Sprintf("runtime error: %s\n", err))
	}
	vm.stream.Seek(vm.stream.Size())
	return err
}

// Sweep marks from every root (registers, operand stack, static
// memory) and sweeps the heap, returning the number of objects freed.
// Nothing triggers this automatically; the SWEEP opcode (or a host
// calling this directly) is the sole policy (spec §9).
func (vm *VM) Sweep() int {
	vm.heap.MarkFrom(vm.registers.Values()...)
	vm.heap.MarkFrom(vm.stack.Values()...)
	vm.heap.MarkFrom(vm.static.Values()...)
	return vm.heap.Sweep()
}
