package value

import (
	"fmt"
	"testing"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func TestConstructorsRoundTrip(t *testing.T) {
	assert(t, I32(42).I32() == 42, "I32 round trip")
	assert(t, I64(-7).I64() == -7, "I64 round trip")
	assert(t, F32(2.5).F32() == 2.5, "F32 round trip")
	assert(t, F64(3.25).F64() == 3.25, "F64 round trip")
	assert(t, Bool(true).Bool(), "Bool round trip")
	assert(t, Addr(0x100).Address() == 0x100, "Addr round trip")
	assert(t, Func(4, 2).Function() == Function{Address: 4, Arity: 2}, "Func round trip")
}

func TestTypeNames(t *testing.T) {
	cases := []struct {
		v    Value
		name string
	}{
		{I32(0), "int32"},
		{I64(0), "int64"},
		{F32(0), "float"},
		{F64(0), "double"},
		{Bool(false), "boolean"},
		{Null(), "reference"},
		{Func(0, 0), "function"},
		{Addr(0), "undefined"},
	}
	for _, c := range cases {
		assert(t, c.v.TypeName() == c.name, "TypeName(%v) = %q, want %q", c.v.Kind(), c.v.TypeName(), c.name)
	}
}

func TestAsI64Coercion(t *testing.T) {
	i, err := F64(3.9).AsI64()
	assert(t, err == nil && i == 3, "float truncates toward zero, got %d err %v", i, err)

	_, err = Null().AsI64()
	assert(t, err != nil && err.Error() == "no conversion from 'reference' to 'Int64'", "expected coercion error, got %v", err)
}

func TestAsF64Coercion(t *testing.T) {
	f, err := I32(4).AsF64()
	assert(t, err == nil && f == 4, "int widens to float, got %v err %v", f, err)

	_, err = Addr(1).AsF64()
	assert(t, err != nil && err.Error() == "no conversion from 'undefined' to 'Double'", "expected coercion error, got %v", err)
}

func TestIsZero(t *testing.T) {
	zero, err := I32(0).IsZero()
	assert(t, err == nil && zero, "I32(0) is zero")

	zero, err = F64(-0.0).IsZero()
	assert(t, err == nil && zero, "F64(-0.0) is zero")

	zero, err = Null().IsZero()
	assert(t, err == nil && zero, "null reference is zero")

	zero, err = Func(1, 0).IsZero()
	assert(t, err == nil && !zero, "function is never zero")

	_, err = Addr(0).IsZero()
	assert(t, err != nil, "address has no zero test")
}

func TestPromoteKind(t *testing.T) {
	assert(t, PromoteKind(KindI32, KindI64) == KindI64, "I64 promotes over I32")
	assert(t, PromoteKind(KindI64, KindF32) == KindF32, "F32 promotes over I64")
	assert(t, PromoteKind(KindF32, KindF64) == KindF64, "F64 promotes over F32")
	assert(t, PromoteKind(KindI32, KindI32) == KindI32, "equal kinds promote to themselves")
}

func TestHeapRefIdentity(t *testing.T) {
	assert(t, NullRef.IsNull(), "zero value HeapRef is null")

	a := NewHeapRef(new(int))
	b := NewHeapRef(new(int))
	assert(t, !a.IsNull(), "non-nil wrapped object is not null")
	assert(t, a.Equal(a), "a reference equals itself")
	assert(t, !a.Equal(b), "distinct objects compare unequal")
}
