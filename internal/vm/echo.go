package vm

import (
	"fmt"
	"strconv"

	"gvm/internal/heap"
	"gvm/internal/value"
)

// formatValue renders v the way ECHO prints it (spec §4.7). Numerics use
// Go's shortest round-tripping decimal form, Bool prints its Go keyword,
// and the three reference-like kinds carry an explicit tag so a dump
// never confuses a reference, a function, or a raw address for a number.
func (vm *VM) formatValue(v value.Value) string {
	switch v.Kind() {
	case value.KindI32:
		return strconv.FormatInt(int64(v.I32()), 10)
	case value.KindI64:
		return strconv.FormatInt(v.I64(), 10)
	case value.KindF32:
		return strconv.FormatFloat(float64(v.F32()), 'g', -1, 32)
	case value.KindF64:
		return strconv.FormatFloat(v.F64(), 'g', -1, 64)
	case value.KindBool:
		return strconv.FormatBool(v.Bool())
	case value.KindHeapRef:
		return formatHeapRef(v.HeapRef())
	case value.KindFunction:
		fn := v.Function()
		return fmt.Sprintf("function<%du, %du>", fn.Address, fn.Arity)
	case value.KindAddress:
		return fmt.Sprintf("address<%du>", v.Address())
	default:
		return "undefined"
	}
}

func formatHeapRef(ref value.HeapRef) string {
	obj := heap.FromRef(ref)
	if obj == nil {
		return "null"
	}
	if s, ok := obj.Payload.(heap.StringPayload); ok {
		return string(s)
	}
	return fmt.Sprintf("reference<0x%x>", obj.Address())
}
