// Package static implements the VM's static memory: an append-only
// constant pool addressed by 16-bit index, populated at load time by
// STORE_STATIC_* opcodes.
package static

import (
	"fmt"

	"gvm/internal/heap"
	"gvm/internal/value"
)

// Memory is the append-only constant pool. The zero value is an empty
// pool ready to use.
type Memory struct {
	values  []value.Value
	objects []*heap.Object
}

// Store appends v and returns its 16-bit index. Panics if the pool
// would overflow a uint16 index, which the producer contract rules out
// for any realistic program.
func (m *Memory) Store(v value.Value) uint16 {
	if len(m.values) >= 1<<16 {
		panic("static memory overflow: more than 65536 constants")
	}
	idx := uint16(len(m.values))
	m.values = append(m.values, v)
	return idx
}

// StoreString boxes s in a detached heap object (see heap.NewDetached)
// and stores a HeapRef Value pointing to it, as STORE_STATIC_STRING
// does. Static-memory heap objects are never linked into the VM's
// mark-sweep Heap, so they survive until VM teardown regardless of how
// many sweeps run (spec §5) without needing any special-case marking.
func (m *Memory) StoreString(s string) uint16 {
	obj := heap.NewDetached(heap.StringPayload(s))
	m.objects = append(m.objects, obj)
	return m.Store(value.Ref(obj.Ref()))
}

// HeapObjects returns every heap object owned directly by static
// memory, for an implementer who wants to unify the static and GC
// pools (spec §5 leaves this as an open design choice).
func (m *Memory) HeapObjects() []*heap.Object {
	out := make([]*heap.Object, len(m.objects))
	copy(out, m.objects)
	return out
}

// Get returns the Value at idx.
func (m *Memory) Get(idx uint16) (value.Value, error) {
	if int(idx) >= len(m.values) {
		return value.Value{}, fmt.Errorf("static memory index %d out of range [0, %d)", idx, len(m.values))
	}
	return m.values[idx], nil
}

// Len returns the number of constants stored.
func (m *Memory) Len() int { return len(m.values) }

// Values returns every stored Value, for root-marking and test
// introspection. The returned slice is owned by the caller.
func (m *Memory) Values() []value.Value {
	out := make([]value.Value, len(m.values))
	copy(out, m.values)
	return out
}
