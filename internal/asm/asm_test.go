package asm

import (
	"fmt"
	"testing"

	"gvm/internal/bytecode"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func TestAssembleLoadAndEcho(t *testing.T) {
	buf, err := Assemble([]string{
		"LOAD_I32 r0, 12",
		"ECHO r0",
		"ECHO_NEWLINE",
		"EXIT",
	})
	assert(t, err == nil, "unexpected error: %v", err)

	s := bytecode.NewStream(buf)
	op, _ := s.ReadU8()
	assert(t, bytecode.Op(op) == bytecode.LoadI32, "expected LOAD_I32, got %v", bytecode.Op(op))
	reg, _ := s.ReadU8()
	assert(t, reg == 0, "expected register 0, got %d", reg)
	v, _ := s.ReadI32()
	assert(t, v == 12, "expected operand 12, got %d", v)
}

func TestAssembleCommentsAndBlankLines(t *testing.T) {
	buf, err := Assemble([]string{
		"// a comment line",
		"",
		"  EXIT  // trailing comment",
	})
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, len(buf) == 1 && bytecode.Op(buf[0]) == bytecode.Exit, "expected a single EXIT byte, got %v", buf)
}

func TestAssembleStringConstant(t *testing.T) {
	buf, err := Assemble([]string{`STORE_STATIC_STRING "hi"`})
	assert(t, err == nil, "unexpected error: %v", err)

	s := bytecode.NewStream(buf)
	op, _ := s.ReadU8()
	assert(t, bytecode.Op(op) == bytecode.StoreStaticString, "expected STORE_STATIC_STRING")
	n, _ := s.ReadU32()
	assert(t, n == 2, "expected length 2, got %d", n)
	b, _ := s.ReadBytes(n)
	assert(t, string(b) == "hi", "expected payload 'hi', got %q", string(b))
}

func TestAssembleEscapeSequenceInString(t *testing.T) {
	buf, err := Assemble([]string{`STORE_STATIC_STRING "line\n"`})
	assert(t, err == nil, "unexpected error: %v", err)

	s := bytecode.NewStream(buf)
	s.ReadU8()
	n, _ := s.ReadU32()
	b, _ := s.ReadBytes(n)
	assert(t, string(b) == "line\n", "expected escaped newline, got %q", string(b))
}

func TestAssembleLabelResolvesToAbsoluteAddress(t *testing.T) {
	buf, err := Assemble([]string{
		"STORE_STATIC_ADDRESS target",
		"LOAD_STATIC r0, 0",
		"JMP r0",
		"target:",
		"EXIT",
	})
	assert(t, err == nil, "unexpected error: %v", err)

	s := bytecode.NewStream(buf)
	s.ReadU8() // STORE_STATIC_ADDRESS opcode
	addr, _ := s.ReadU32()

	// target: is the instruction right after JMP r0 (1 + 4 + 1 + 1 + 2 + 1 + 1 = 11 bytes before it)
	expected := uint32(1 + 4 + 1 + 1 + 2 + 1 + 1)
	assert(t, addr == expected, "expected label to resolve to %d, got %d", expected, addr)
	assert(t, bytecode.Op(buf[addr]) == bytecode.Exit, "resolved address must point at EXIT")
}

func TestAssembleUnknownMnemonicErrors(t *testing.T) {
	_, err := Assemble([]string{"NOT_A_REAL_OP r0"})
	assert(t, err != nil, "expected an error for an unknown mnemonic")
}

func TestAssembleArithmeticThreeRegisterForm(t *testing.T) {
	buf, err := Assemble([]string{"ADD r0, r1, r2"})
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, len(buf) == 4, "expected 4 bytes (op + 3 regs), got %d", len(buf))
	assert(t, buf[1] == 0 && buf[2] == 1 && buf[3] == 2, "expected regs 0,1,2, got %v", buf[1:])
}
