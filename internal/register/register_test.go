package register

import (
	"fmt"
	"testing"

	"gvm/internal/value"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	var f File
	err := f.Set(3, value.I32(42))
	assert(t, err == nil, "unexpected error: %v", err)

	v, err := f.Get(3)
	assert(t, err == nil && v.I32() == 42, "expected 42, got %v err %v", v, err)
}

func TestOutOfRangeRegisterErrors(t *testing.T) {
	var f File
	_, err := f.Get(NumRegisters)
	assert(t, err != nil, "expected out-of-range error for register %d", NumRegisters)

	err = f.Set(NumRegisters, value.I32(0))
	assert(t, err != nil, "expected out-of-range error setting register %d", NumRegisters)
}

func TestFlagsDefaultToNone(t *testing.T) {
	var f File
	assert(t, f.Flags() == FlagNone, "flags should default to FlagNone")

	f.SetFlags(FlagGreater)
	assert(t, f.Flags() == FlagGreater, "expected FlagGreater after SetFlags")
}

func TestValuesReturnsDefensiveCopy(t *testing.T) {
	var f File
	f.Set(0, value.I32(1))
	got := f.Values()
	got[0] = value.I32(999)

	v, _ := f.Get(0)
	assert(t, v.I32() == 1, "mutating Values() result must not affect the register file")
}
