package static

import (
	"fmt"
	"testing"

	"gvm/internal/heap"
	"gvm/internal/value"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func TestStoreAndGetRoundTrip(t *testing.T) {
	var m Memory
	idx := m.Store(value.I32(7))
	assert(t, idx == 0, "first constant should get index 0, got %d", idx)

	v, err := m.Get(idx)
	assert(t, err == nil && v.I32() == 7, "expected 7, got %v err %v", v, err)
}

func TestGetOutOfRangeErrors(t *testing.T) {
	var m Memory
	_, err := m.Get(0)
	assert(t, err != nil, "expected out-of-range error on empty pool")
}

func TestStoreStringRoundTripsThroughHeapRef(t *testing.T) {
	var m Memory
	idx := m.StoreString("hi")

	v, err := m.Get(idx)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, v.Kind() == value.KindHeapRef, "string constant must be a HeapRef, got %v", v.Kind())

	obj := heap.FromRef(v.HeapRef())
	assert(t, obj != nil, "expected a resolvable heap object")
	assert(t, obj.Payload.(heap.StringPayload) == "hi", "expected payload 'hi', got %v", obj.Payload)
}

func TestStoreStringSurvivesEveryGCHeapSweep(t *testing.T) {
	var m Memory
	m.StoreString("never swept")

	h := heap.New()
	h.Sweep()
	h.Sweep()

	v, _ := m.Get(0)
	obj := heap.FromRef(v.HeapRef())
	assert(t, obj != nil, "static-memory string must survive unrelated GC heap sweeps")
	assert(t, obj.Payload.(heap.StringPayload) == "never swept", "payload must be unchanged")
}
