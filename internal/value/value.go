// Package value implements the tagged Value type shared by every other
// CORE package: registers, the stack, static memory, and the VM dispatch
// loop all move Values around by copy.
package value

import "fmt"

// Kind is the tag of a Value. Ordinal order matters: arithmetic result
// promotion picks the operand Kind with the greater ordinal among the
// four numeric kinds.
type Kind uint8

const (
	KindI32 Kind = iota
	KindI64
	KindF32
	KindF64
	KindBool
	KindHeapRef
	KindFunction
	KindAddress
)

// HeapRef is a non-owning reference to a heap.Object. The zero value is
// the distinguished null reference. It holds its target as an opaque
// `any` rather than a typed *heap.Object so that package value does not
// have to import package heap (heap imports value instead, to mark
// roots); package heap is the only place that type-asserts it back.
type HeapRef struct {
	obj any
}

// NullRef is the distinguished null heap reference.
var NullRef = HeapRef{}

// NewHeapRef wraps a heap object pointer. Only package heap calls this.
func NewHeapRef(obj any) HeapRef { return HeapRef{obj: obj} }

// IsNull reports whether the reference is the null reference.
func (r HeapRef) IsNull() bool { return r.obj == nil }

// Object returns the reference's opaque target, or nil if null. Only
// package heap type-asserts the result back to *heap.Object.
func (r HeapRef) Object() any { return r.obj }

// Equal reports reference identity equality.
func (r HeapRef) Equal(other HeapRef) bool { return r.obj == other.obj }

// Function is the (address, arity) pair invoked by CALL.
type Function struct {
	Address uint32
	Arity   uint8
}

// Value is a tagged union over the eight supported payload kinds.
// Exactly one of the payload fields is meaningful for a given Kind; the
// constructors below are the only sanctioned way to build one so that
// invariant holds without a runtime union.
type Value struct {
	kind Kind
	i    int64
	f    float64
	ref  HeapRef
	fn   Function
	addr uint32
	b    bool
}

func I32(v int32) Value  { return Value{kind: KindI32, i: int64(v)} }
func I64(v int64) Value  { return Value{kind: KindI64, i: v} }
func F32(v float32) Value { return Value{kind: KindF32, f: float64(v)} }
func F64(v float64) Value { return Value{kind: KindF64, f: v} }
func Bool(v bool) Value  { return Value{kind: KindBool, b: v} }
func Ref(r HeapRef) Value { return Value{kind: KindHeapRef, ref: r} }
func Null() Value         { return Value{kind: KindHeapRef, ref: NullRef} }
func Func(addr uint32, arity uint8) Value {
	return Value{kind: KindFunction, fn: Function{Address: addr, Arity: arity}}
}
func Addr(addr uint32) Value { return Value{kind: KindAddress, addr: addr} }

// Kind reports the Value's tag.
func (v Value) Kind() Kind { return v.kind }

// I32 returns the payload of an I32 Value, truncated from the internal
// 64-bit store.
func (v Value) I32() int32 { return int32(v.i) }

// I64 returns the payload of an I64 Value.
func (v Value) I64() int64 { return v.i }

// F32 returns the payload of an F32 Value.
func (v Value) F32() float32 { return float32(v.f) }

// F64 returns the payload of an F64 Value.
func (v Value) F64() float64 { return v.f }

// Bool returns the payload of a Bool Value.
func (v Value) Bool() bool { return v.b }

// HeapRef returns the payload of a HeapRef Value.
func (v Value) HeapRef() HeapRef { return v.ref }

// Function returns the payload of a Function Value.
func (v Value) Function() Function { return v.fn }

// Address returns the payload of an Address Value.
func (v Value) Address() uint32 { return v.addr }

// TypeName returns the stable, contractual type name used in runtime
// error messages. Spelling and case are load-bearing for scenario tests.
func (v Value) TypeName() string {
	switch v.kind {
	case KindI32:
		return "int32"
	case KindI64:
		return "int64"
	case KindF32:
		return "float"
	case KindF64:
		return "double"
	case KindBool:
		return "boolean"
	case KindHeapRef:
		return "reference"
	case KindFunction:
		return "function"
	case KindAddress:
		return "undefined"
	default:
		return "undefined"
	}
}

func isFloating(k Kind) bool { return k == KindF32 || k == KindF64 }

// AsI64 widens or truncates a numeric/boolean Value to int64, C-style
// (floats truncate toward zero). Any other Kind fails with the
// contractual coercion error message.
func (v Value) AsI64() (int64, error) {
	switch v.kind {
	case KindI32:
		return int64(int32(v.i)), nil
	case KindI64:
		return v.i, nil
	case KindF32:
		return int64(float32(v.f)), nil
	case KindF64:
		return int64(v.f), nil
	case KindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("no conversion from '%s' to 'Int64'", v.TypeName())
	}
}

// AsF64 widens a numeric Value to float64 exactly. Any other Kind fails
// with the contractual coercion error message.
func (v Value) AsF64() (float64, error) {
	switch v.kind {
	case KindI32:
		return float64(int32(v.i)), nil
	case KindI64:
		return float64(v.i), nil
	case KindF32:
		return float64(float32(v.f)), nil
	case KindF64:
		return v.f, nil
	default:
		return 0, fmt.Errorf("no conversion from '%s' to 'Double'", v.TypeName())
	}
}

// IsZero reports whether the Value is numeric zero, a null heap
// reference, or false. Function values are always reported nonzero
// (never an error); any other tag (notably Address) fails with the
// nonzero-test error.
func (v Value) IsZero() (bool, error) {
	switch v.kind {
	case KindI32, KindI64, KindBool:
		i, _ := v.AsI64()
		return i == 0, nil
	case KindF32, KindF64:
		f, _ := v.AsF64()
		return f == 0, nil
	case KindHeapRef:
		return v.ref.IsNull(), nil
	case KindFunction:
		return false, nil
	default:
		return false, fmt.Errorf("cannot determine if type '%s' is nonzero", v.TypeName())
	}
}

// PromoteKind returns the numeric Kind an ADD/SUB/MUL/DIV/MOD result
// should carry: the operand Kind with the greater ordinal among the four
// numeric kinds. Only meaningful when both a and b are numeric.
func PromoteKind(a, b Kind) Kind {
	if a > b {
		return a
	}
	return b
}

// numeric reports whether k is one of the four arithmetic-eligible kinds.
func numeric(k Kind) bool { return k <= KindF64 }

// Numeric reports whether the Value's Kind participates in numeric
// promotion (I32, I64, F32, F64).
func (v Value) Numeric() bool { return numeric(v.kind) }

// Integral reports whether the Value's Kind is I32 or I64.
func (v Value) Integral() bool { return v.kind == KindI32 || v.kind == KindI64 }

// Floating reports whether the Value's Kind is F32 or F64.
func (v Value) Floating() bool { return isFloating(v.kind) }
