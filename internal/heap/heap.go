// Package heap implements the VM's mark-sweep heap: an arena-owned,
// doubly-linked pool of boxed typed payloads referenced from Values by
// non-owning identifiers.
package heap

import (
	"unsafe"

	"gvm/internal/value"
)

// Payload is the closed set of types a heap Object can box. Only
// StringPayload is realized today; additional kinds (array, object) can
// be added to this interface without touching the Heap itself.
type Payload interface {
	// Equal reports deep equality against another Payload of the same
	// concrete type. Implementations may assume other shares their type.
	Equal(other Payload) bool
}

// StringPayload boxes a UTF-8 string, the only payload kind this VM's
// instruction set currently allocates (STORE_STATIC_STRING).
type StringPayload string

// Equal implements Payload.
func (s StringPayload) Equal(other Payload) bool {
	o, ok := other.(StringPayload)
	return ok && s == o
}

// Object is a single node in the heap's linked list. Objects allocated
// via NewDetached are never linked into any Heap and so never
// participate in mark-sweep.
type Object struct {
	Payload Payload
	marked  bool
	prev    *Object
	next    *Object
}

// Ref returns a value.HeapRef identifying this object.
func (o *Object) Ref() value.HeapRef { return value.NewHeapRef(o) }

// Marked reports the object's current mark bit.
func (o *Object) Marked() bool { return o.marked }

// Address returns a stable, totally-ordered identity for the object,
// used by CMP's reference-identity comparison and by the echo sink's
// `reference<0xADDR>` fallback formatting.
func (o *Object) Address() uintptr { return uintptr(unsafe.Pointer(o)) }

// FromRef type-asserts a value.HeapRef back to the *Object it was built
// from, or nil if the reference is null. This is the only place a
// HeapRef's opaque payload is unwrapped.
func FromRef(ref value.HeapRef) *Object {
	obj, _ := ref.Object().(*Object)
	return obj
}

// NewDetached returns a boxed Object that is not linked into any Heap's
// list and therefore never participates in mark-sweep. This backs
// static memory's string constants (spec §5): they are allocated as
// heap objects for type-uniformity with STORE_STATIC_STRING's runtime
// behavior, but are owned directly by the static pool and survive until
// VM teardown regardless of Sweep.
func NewDetached(payload Payload) *Object {
	return &Object{Payload: payload}
}

// Heap owns a doubly-linked list of boxed objects, newest at the head.
type Heap struct {
	head    *Object
	numObjs int
}

// New returns an empty heap.
func New() *Heap {
	return &Heap{}
}

// Alloc links a new, unmarked, nil-payload object at the list head and
// returns it. Callers set Object.Payload immediately after.
func (h *Heap) Alloc() *Object {
	obj := &Object{}
	obj.next = h.head
	if h.head != nil {
		h.head.prev = obj
	}
	h.head = obj
	h.numObjs++
	return obj
}

// Len returns the number of objects currently linked into the heap.
func (h *Heap) Len() int { return h.numObjs }

// Objects returns every live object, newest-first, matching the linked
// list's insertion order.
func (h *Heap) Objects() []*Object {
	objs := make([]*Object, 0, h.numObjs)
	for o := h.head; o != nil; o = o.next {
		objs = append(objs, o)
	}
	return objs
}

// Mark sets the mark bit on obj. A nil obj is ignored, so callers can
// mark unconditionally after resolving a ref that might be null.
func (h *Heap) Mark(obj *Object) {
	if obj != nil {
		obj.marked = true
	}
}

// MarkRef resolves ref and marks the resulting object, if any.
func (h *Heap) MarkRef(ref value.HeapRef) {
	h.Mark(FromRef(ref))
}

// MarkFrom marks every heap object reachable from the given root Values.
// The VM calls this with every register, stack slot, and static-memory
// entry before a SWEEP. Payloads cannot themselves contain HeapRefs
// today (only strings are boxed), so this is not recursive; adding a
// payload kind that can hold references would require walking it here.
func (h *Heap) MarkFrom(roots ...value.Value) {
	for _, v := range roots {
		if v.Kind() == value.KindHeapRef {
			h.MarkRef(v.HeapRef())
		}
	}
}

// Sweep unlinks and discards every unmarked object in a single pass,
// then clears the mark bit on survivors so the next mark phase starts
// clean. It returns the number of objects freed. Calling Sweep twice
// with no intervening allocation or mark change frees nothing the
// second time and is a no-op beyond that.
func (h *Heap) Sweep() int {
	freed := 0
	node := h.head
	for node != nil {
		next := node.next
		if !node.marked {
			h.unlink(node)
			freed++
		} else {
			node.marked = false
		}
		node = next
	}
	return freed
}

func (h *Heap) unlink(o *Object) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		h.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	}
	o.prev, o.next = nil, nil
	h.numObjs--
}
