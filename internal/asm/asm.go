// Package asm is test/tooling scaffolding: a tiny line-oriented
// assembler that turns mnemonic source into the exact binary encoding
// the VM's dispatch loop expects, so tests build real bytecode buffers
// instead of hand-writing byte slices. It is not part of the bytecode
// producer contract (that lives outside this module entirely) — just a
// convenience for driving the VM with something more readable than a
// literal []byte.
package asm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gvm/internal/bytecode"
)

var commentRe = regexp.MustCompile(`//.*`)

// Allows \n, \t, etc. inside a quoted STORE_STATIC_STRING argument to be
// written the natural way in source.
var escapeSeqReplacements = map[string]string{
	`\a`: "\a",
	`\b`: "\b",
	`\t`: "\t",
	`\n`: "\n",
	`\r`: "\r",
	`\f`: "\f",
	`\v`: "\v",
	`\"`: `"`,
}

func unescape(s string) string {
	for orig, repl := range escapeSeqReplacements {
		s = strings.ReplaceAll(s, orig, repl)
	}
	return s
}

// sourceLine is one parsed, non-blank, non-comment, non-label line.
type sourceLine struct {
	mnemonic string
	args     []string
	label    string // the label attached to this instruction, if any
}

// Assemble turns line-oriented mnemonic source into a binary bytecode
// buffer. Each line is either blank, a comment (// to end of line), a
// "name:" label declaration attaching to the next real instruction, or
// an instruction: "MNEMONIC arg0, arg1, ...". Register operands are
// written "r0".."r7"; STORE_STATIC_STRING takes a double-quoted string
// literal; every other operand is a decimal or "0x"-prefixed hex
// integer, a float literal (containing '.'), or a label name (valid
// only as STORE_STATIC_ADDRESS's operand, where it resolves to that
// label's absolute byte offset).
func Assemble(lines []string) ([]byte, error) {
	parsed, err := parseLines(lines)
	if err != nil {
		return nil, err
	}

	addrs, size, err := layout(parsed)
	if err != nil {
		return nil, err
	}

	labels := make(map[string]uint32)
	for i, sl := range parsed {
		if sl.label != "" {
			labels[sl.label] = addrs[i]
		}
	}

	buf := make([]byte, 0, size)
	for _, sl := range parsed {
		encoded, err := encode(sl, labels)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sl.mnemonic, err)
		}
		buf = append(buf, encoded...)
	}
	return buf, nil
}

func parseLines(lines []string) ([]sourceLine, error) {
	var out []sourceLine
	pendingLabel := ""

	for _, raw := range lines {
		text := commentRe.ReplaceAllString(raw, "")
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.HasSuffix(text, ":") {
			pendingLabel = strings.TrimSuffix(text, ":")
			continue
		}

		mnemonic, rest, _ := strings.Cut(text, " ")
		mnemonic = strings.TrimSpace(mnemonic)
		args := splitArgs(strings.TrimSpace(rest))

		out = append(out, sourceLine{mnemonic: mnemonic, args: args, label: pendingLabel})
		pendingLabel = ""
	}

	if pendingLabel != "" {
		return nil, fmt.Errorf("label %q has no following instruction", pendingLabel)
	}
	return out, nil
}

// splitArgs splits a comma-separated argument list, respecting a single
// quoted string argument (which may itself contain commas).
func splitArgs(rest string) []string {
	if rest == "" {
		return nil
	}
	if strings.HasPrefix(rest, `"`) {
		return []string{rest}
	}
	parts := strings.Split(rest, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// layout computes the absolute byte offset of every instruction and the
// total buffer size, without resolving label operands (instruction size
// never depends on a label's value).
func layout(parsed []sourceLine) ([]uint32, uint32, error) {
	addrs := make([]uint32, len(parsed))
	var pos uint32
	for i, sl := range parsed {
		addrs[i] = pos
		n, err := encodedSize(sl)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", sl.mnemonic, err)
		}
		pos += n
	}
	return addrs, pos, nil
}

func encodedSize(sl sourceLine) (uint32, error) {
	op, ok := bytecode.Lookup(sl.mnemonic)
	if !ok {
		return 0, fmt.Errorf("unknown mnemonic %q", sl.mnemonic)
	}

	switch op {
	case bytecode.StoreStaticString:
		s, err := stringArg(sl.args, 0)
		if err != nil {
			return 0, err
		}
		return 1 + 4 + uint32(len(s)), nil
	case bytecode.StoreStaticAddr:
		return 1 + 4, nil
	case bytecode.LoadI32, bytecode.LoadF32:
		return 1 + 1 + 4, nil
	case bytecode.LoadI64, bytecode.LoadF64:
		return 1 + 1 + 8, nil
	case bytecode.LoadLocal, bytecode.LoadStatic:
		return 1 + 1 + 2, nil
	case bytecode.LoadNull, bytecode.LoadTrue, bytecode.LoadFalse,
		bytecode.Push, bytecode.Echo,
		bytecode.Jmp, bytecode.Je, bytecode.Jne, bytecode.Jg, bytecode.Jge,
		bytecode.Cmpz:
		return 1 + 1, nil
	case bytecode.Mov:
		return 1 + 2 + 1, nil
	case bytecode.Call:
		return 1 + 1 + 1, nil
	case bytecode.Cmp:
		return 1 + 1 + 1, nil
	case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Mod:
		return 1 + 1 + 1 + 1, nil
	case bytecode.Pop, bytecode.EchoNewline, bytecode.Ret, bytecode.Exit, bytecode.Sweep:
		return 1, nil
	default:
		return 0, fmt.Errorf("unhandled opcode %s", op)
	}
}

func encode(sl sourceLine, labels map[string]uint32) ([]byte, error) {
	op, ok := bytecode.Lookup(sl.mnemonic)
	if !ok {
		return nil, fmt.Errorf("unknown mnemonic %q", sl.mnemonic)
	}

	buf := []byte{byte(op)}

	switch op {
	case bytecode.StoreStaticString:
		s, err := stringArg(sl.args, 0)
		if err != nil {
			return nil, err
		}
		buf = appendU32(buf, uint32(len(s)))
		buf = append(buf, []byte(s)...)

	case bytecode.StoreStaticAddr:
		addr, err := addrArg(sl.args, 0, labels)
		if err != nil {
			return nil, err
		}
		buf = appendU32(buf, addr)

	case bytecode.LoadI32:
		r, err := regArg(sl.args, 0)
		if err != nil {
			return nil, err
		}
		v, err := intArg(sl.args, 1)
		if err != nil {
			return nil, err
		}
		buf = append(buf, r)
		buf = appendU32(buf, uint32(int32(v)))

	case bytecode.LoadI64:
		r, err := regArg(sl.args, 0)
		if err != nil {
			return nil, err
		}
		v, err := intArg(sl.args, 1)
		if err != nil {
			return nil, err
		}
		buf = append(buf, r)
		buf = appendU64(buf, uint64(v))

	case bytecode.LoadF32:
		r, err := regArg(sl.args, 0)
		if err != nil {
			return nil, err
		}
		v, err := floatArg(sl.args, 1)
		if err != nil {
			return nil, err
		}
		buf = append(buf, r)
		buf = appendU32(buf, math.Float32bits(float32(v)))

	case bytecode.LoadF64:
		r, err := regArg(sl.args, 0)
		if err != nil {
			return nil, err
		}
		v, err := floatArg(sl.args, 1)
		if err != nil {
			return nil, err
		}
		buf = append(buf, r)
		buf = appendU64(buf, math.Float64bits(v))

	case bytecode.LoadLocal, bytecode.LoadStatic:
		r, err := regArg(sl.args, 0)
		if err != nil {
			return nil, err
		}
		n, err := intArg(sl.args, 1)
		if err != nil {
			return nil, err
		}
		buf = append(buf, r)
		buf = appendU16(buf, uint16(n))

	case bytecode.LoadNull, bytecode.LoadTrue, bytecode.LoadFalse,
		bytecode.Push, bytecode.Echo,
		bytecode.Jmp, bytecode.Je, bytecode.Jne, bytecode.Jg, bytecode.Jge,
		bytecode.Cmpz:
		r, err := regArg(sl.args, 0)
		if err != nil {
			return nil, err
		}
		buf = append(buf, r)

	case bytecode.Mov:
		off, err := intArg(sl.args, 0)
		if err != nil {
			return nil, err
		}
		r, err := regArg(sl.args, 1)
		if err != nil {
			return nil, err
		}
		buf = appendU16(buf, uint16(off))
		buf = append(buf, r)

	case bytecode.Call:
		r, err := regArg(sl.args, 0)
		if err != nil {
			return nil, err
		}
		argc, err := intArg(sl.args, 1)
		if err != nil {
			return nil, err
		}
		buf = append(buf, r, byte(argc))

	case bytecode.Cmp:
		lr, err := regArg(sl.args, 0)
		if err != nil {
			return nil, err
		}
		rr, err := regArg(sl.args, 1)
		if err != nil {
			return nil, err
		}
		buf = append(buf, lr, rr)

	case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div, bytecode.Mod:
		lr, err := regArg(sl.args, 0)
		if err != nil {
			return nil, err
		}
		rr, err := regArg(sl.args, 1)
		if err != nil {
			return nil, err
		}
		dr, err := regArg(sl.args, 2)
		if err != nil {
			return nil, err
		}
		buf = append(buf, lr, rr, dr)

	case bytecode.Pop, bytecode.EchoNewline, bytecode.Ret, bytecode.Exit, bytecode.Sweep:
		// no operands

	default:
		return nil, fmt.Errorf("unhandled opcode %s", op)
	}

	return buf, nil
}

func appendU16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func arg(args []string, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %d", i)
	}
	return args[i], nil
}

func regArg(args []string, i int) (byte, error) {
	s, err := arg(args, i)
	if err != nil {
		return 0, err
	}
	s = strings.TrimPrefix(s, "r")
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid register operand %q: %w", s, err)
	}
	return byte(n), nil
}

func stringArg(args []string, i int) (string, error) {
	s, err := arg(args, i)
	if err != nil {
		return "", err
	}
	if len(s) < 2 || !strings.HasPrefix(s, `"`) || !strings.HasSuffix(s, `"`) {
		return "", fmt.Errorf("expected quoted string, got %q", s)
	}
	return unescape(s[1 : len(s)-1]), nil
}

func intArg(args []string, i int) (int64, error) {
	s, err := arg(args, i)
	if err != nil {
		return 0, err
	}
	base := 10
	if strings.HasPrefix(s, "0x") {
		base = 16
		s = strings.TrimPrefix(s, "0x")
	}
	n, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer operand %q: %w", s, err)
	}
	return n, nil
}

func floatArg(args []string, i int) (float64, error) {
	s, err := arg(args, i)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float operand %q: %w", s, err)
	}
	return f, nil
}

// addrArg resolves a STORE_STATIC_ADDRESS operand: either a label name
// or a plain integer literal.
func addrArg(args []string, i int, labels map[string]uint32) (uint32, error) {
	s, err := arg(args, i)
	if err != nil {
		return 0, err
	}
	if addr, ok := labels[s]; ok {
		return addr, nil
	}
	n, err := intArg(args, i)
	if err != nil {
		return 0, errors.New("expected a label or integer address")
	}
	return uint32(n), nil
}
