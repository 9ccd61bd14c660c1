package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble decodes buf into one mnemonic line per instruction, in
// the style of the teacher's printProgram/formatInstructionStr. It does
// not execute anything and tolerates a truncated final instruction by
// stopping at the point the stream ran out, same as the VM would.
func Disassemble(buf []byte) []string {
	s := NewStream(buf)
	var lines []string
	for s.Position() < s.Size() {
		addr := s.Position()
		opByte, err := s.ReadU8()
		if err != nil {
			break
		}
		op := Op(opByte)
		text, err := disassembleOne(s, op)
		if err != nil {
			lines = append(lines, fmt.Sprintf("%s: %s  (truncated)", FormatAddress(addr), op))
			break
		}
		lines = append(lines, fmt.Sprintf("%s: %s", FormatAddress(addr), text))
	}
	return lines
}

func disassembleOne(s *Stream, op Op) (string, error) {
	switch op {
	case StoreStaticString:
		n, err := s.ReadU32()
		if err != nil {
			return "", err
		}
		b, err := s.ReadBytes(n)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %q", op, string(b)), nil
	case StoreStaticAddr:
		addr, err := s.ReadU32()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s", op, FormatAddress(addr)), nil
	case LoadI32:
		r, err := s.ReadU8()
		if err != nil {
			return "", err
		}
		v, err := s.ReadI32()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s r%d, %d", op, r, v), nil
	case LoadI64:
		r, err := s.ReadU8()
		if err != nil {
			return "", err
		}
		v, err := s.ReadI64()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s r%d, %d", op, r, v), nil
	case LoadF32:
		r, err := s.ReadU8()
		if err != nil {
			return "", err
		}
		v, err := s.ReadF32()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s r%d, %g", op, r, v), nil
	case LoadF64:
		r, err := s.ReadU8()
		if err != nil {
			return "", err
		}
		v, err := s.ReadF64()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s r%d, %g", op, r, v), nil
	case LoadLocal:
		r, err := s.ReadU8()
		if err != nil {
			return "", err
		}
		off, err := s.ReadU16()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s r%d, $%d", op, r, off), nil
	case LoadStatic:
		r, err := s.ReadU8()
		if err != nil {
			return "", err
		}
		idx, err := s.ReadU16()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s r%d, %d", op, r, idx), nil
	case LoadNull, LoadTrue, LoadFalse, Push:
		r, err := s.ReadU8()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s r%d", op, r), nil
	case Mov:
		off, err := s.ReadU16()
		if err != nil {
			return "", err
		}
		r, err := s.ReadU8()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s $%d, r%d", op, off, r), nil
	case Echo, Jmp, Je, Jne, Jg, Jge:
		r, err := s.ReadU8()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s r%d", op, r), nil
	case Call:
		r, err := s.ReadU8()
		if err != nil {
			return "", err
		}
		argc, err := s.ReadU8()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s r%d, %d", op, r, argc), nil
	case Cmp, Add, Sub, Mul, Div, Mod:
		regs := 2
		if op == Add || op == Sub || op == Mul || op == Div || op == Mod {
			regs = 3
		}
		names := make([]string, regs)
		for i := range names {
			r, err := s.ReadU8()
			if err != nil {
				return "", err
			}
			names[i] = fmt.Sprintf("r%d", r)
		}
		return fmt.Sprintf("%s %s", op, strings.Join(names, ", ")), nil
	case Cmpz:
		r, err := s.ReadU8()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s r%d", op, r), nil
	case Pop, EchoNewline, Ret, Exit, Sweep:
		return op.String(), nil
	default:
		return "", fmt.Errorf("unknown opcode %d", op)
	}
}
