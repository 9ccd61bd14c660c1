package bytecode

// Op is a single opcode byte. The VM and any bytecode producer must
// share exactly this table (spec §6); the byte assignment below is
// fixed and documented, resolving the spec's open question on exact
// opcode values.
type Op byte

const (
	StoreStaticString Op = 0x00
	StoreStaticAddr   Op = 0x01

	LoadI32   Op = 0x02
	LoadI64   Op = 0x03
	LoadF32   Op = 0x04
	LoadF64   Op = 0x05
	LoadLocal Op = 0x06
	LoadStatic Op = 0x07
	LoadNull  Op = 0x08
	LoadTrue  Op = 0x09
	LoadFalse Op = 0x0A

	Mov  Op = 0x0B
	Push Op = 0x0C
	Pop  Op = 0x0D

	Echo        Op = 0x0E
	EchoNewline Op = 0x0F

	Jmp Op = 0x10
	Je  Op = 0x11
	Jne Op = 0x12
	Jg  Op = 0x13
	Jge Op = 0x14

	Call Op = 0x15
	Ret  Op = 0x16

	Cmp  Op = 0x17
	Cmpz Op = 0x18

	Add Op = 0x19
	Sub Op = 0x1A
	Mul Op = 0x1B
	Div Op = 0x1C
	Mod Op = 0x1D

	Sweep Op = 0x1E
	Exit  Op = 0x1F
)

var opNames = map[Op]string{
	StoreStaticString: "STORE_STATIC_STRING",
	StoreStaticAddr:   "STORE_STATIC_ADDRESS",
	LoadI32:           "LOAD_I32",
	LoadI64:           "LOAD_I64",
	LoadF32:           "LOAD_F32",
	LoadF64:           "LOAD_F64",
	LoadLocal:         "LOAD_LOCAL",
	LoadStatic:        "LOAD_STATIC",
	LoadNull:          "LOAD_NULL",
	LoadTrue:          "LOAD_TRUE",
	LoadFalse:         "LOAD_FALSE",
	Mov:               "MOV",
	Push:              "PUSH",
	Pop:               "POP",
	Echo:              "ECHO",
	EchoNewline:       "ECHO_NEWLINE",
	Jmp:               "JMP",
	Je:                "JE",
	Jne:               "JNE",
	Jg:                "JG",
	Jge:               "JGE",
	Call:              "CALL",
	Ret:               "RET",
	Cmp:               "CMP",
	Cmpz:              "CMPZ",
	Add:               "ADD",
	Sub:               "SUB",
	Mul:               "MUL",
	Div:               "DIV",
	Mod:               "MOD",
	Sweep:             "SWEEP",
	Exit:              "EXIT",
}

var namesToOp map[string]Op

func init() {
	namesToOp = make(map[string]Op, len(opNames))
	for op, name := range opNames {
		namesToOp[name] = op
	}
}

// String returns the mnemonic for op, or "?unknown?" if op is not part
// of the fixed table.
func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "?unknown?"
}

// Lookup resolves a mnemonic (case-sensitive, as emitted by String) back
// to its Op, for use by the assembler.
func Lookup(name string) (Op, bool) {
	op, ok := namesToOp[name]
	return op, ok
}
