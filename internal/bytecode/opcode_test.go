package bytecode

import "testing"

func TestStringAndLookupRoundTrip(t *testing.T) {
	for op := range opNames {
		name := op.String()
		got, ok := Lookup(name)
		assert(t, ok, "Lookup(%q) should succeed", name)
		assert(t, got == op, "Lookup(%q) = %v, want %v", name, got, op)
	}
}

func TestUnknownOpcodeStringsFallBack(t *testing.T) {
	unknown := Op(0xFF)
	assert(t, unknown.String() == "?unknown?", "expected ?unknown?, got %s", unknown.String())

	_, ok := Lookup("NOT_A_REAL_MNEMONIC")
	assert(t, !ok, "Lookup of an unknown mnemonic should fail")
}
