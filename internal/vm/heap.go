package vm

// Heap is the fixed-capacity object table. Slot ids are 1-based; a slot
// whose Strong count is zero is free and is reused by the next
// allocation before the watermark grows. The heap never grows past its
// configured capacity: exhaustion is fatal.
type Heap struct {
	slots []HeapObject
	next  ObjectID // watermark: ids below this have been allocated at least once

	// dtorStack holds the ids whose destructors are currently
	// executing, outermost first. Guards slot reuse and re-entrant
	// frees for those ids.
	dtorStack []ObjectID

	ctx *Context
}

func newHeap(capacity int, ctx *Context) *Heap {
	return &Heap{
		slots: make([]HeapObject, capacity),
		next:  1,
		ctx:   ctx,
	}
}

// Capacity returns the total slot count, including the reserved id 0.
func (h *Heap) Capacity() int { return len(h.slots) }

// NextID returns the allocation watermark (one past the highest id ever
// handed out).
func (h *Heap) NextID() ObjectID { return h.next }

// slot returns the object for an id inside the allocated range, or nil.
func (h *Heap) slot(id ObjectID) *HeapObject {
	if id <= 0 || id >= h.next {
		return nil
	}
	return &h.slots[id]
}

// Object exposes a slot for inspection. The second result is false for
// ids outside the allocated range.
func (h *Heap) Object(id ObjectID) (*HeapObject, bool) {
	obj := h.slot(id)
	return obj, obj != nil
}

// findFreeSlot returns the lowest reusable id, or 0 when every
// allocated slot is live. Slots whose destructor is still on the active
// stack are not reusable yet.
func (h *Heap) findFreeSlot() ObjectID {
	for id := ObjectID(1); id < h.next; id++ {
		if h.slots[id].Strong == 0 && !h.destructorActive(id) {
			return id
		}
	}
	return 0
}

// allocSlot reserves a slot and resets its header for the given kind.
func (h *Heap) allocSlot(kind ObjectKind) *HeapObject {
	id := h.findFreeSlot()
	if id == 0 {
		if int(h.next) >= len(h.slots) {
			fatalf(PanicHeapExhausted, "heap overflow: all %d slots live", len(h.slots)-1)
		}
		id = h.next
		h.next++
	}

	obj := &h.slots[id]
	*obj = HeapObject{
		ID:     id,
		Kind:   kind,
		Strong: 1,
	}
	return obj
}

// AllocScalar allocates a boxed value cell with an optional destructor.
// The stored value's ownership transfers to the cell.
func (h *Heap) AllocScalar(v Value, dtor DestructorFunc) ObjectID {
	obj := h.allocSlot(OKScalar)
	obj.Scalar = v
	obj.Dtor = dtor
	return obj.ID
}

// AllocTable allocates an empty heap table with an optional destructor.
func (h *Heap) AllocTable(dtor DestructorFunc) ObjectID {
	obj := h.allocSlot(OKTable)
	obj.Dtor = dtor
	return obj.ID
}

// AllocArray allocates a heap array of n nil elements.
func (h *Heap) AllocArray(n int) ObjectID {
	obj := h.allocSlot(OKArray)
	obj.Array.Elems = make([]Value, n)
	for i := range obj.Array.Elems {
		obj.Array.Elems[i] = MakeNil()
	}
	return obj.ID
}

// AllocWeak allocates a weak cell observing target. The target's weak
// count is incremented; its strong count is untouched. A zero target
// yields the invalid id.
func (h *Heap) AllocWeak(target ObjectID) ObjectID {
	if target == 0 {
		return 0
	}
	obj := h.allocSlot(OKWeak)
	obj.Target = target
	if t := h.slot(target); t != nil {
		t.Weak++
	}
	return obj.ID
}

// AllocClosure allocates a closure over funcIdx, retaining every
// capture. Handle captures are recorded as child edges for cycle
// analysis.
func (h *Heap) AllocClosure(funcIdx int32, captures []Value) ObjectID {
	obj := h.allocSlot(OKClosure)
	obj.Closure.FuncIdx = funcIdx
	if len(captures) > 0 {
		obj.Closure.Captures = make([]Value, len(captures))
		for i, c := range captures {
			obj.Closure.Captures[i] = h.ctx.Retain(c)
			addChild(&obj.Closure.children, childID(c))
		}
	}
	return obj.ID
}

// TrackRef records a parent→child edge after a store into a table or
// closure. Edges are only appended; stale edges are tolerated by the
// cycle analyses and cleared when the parent is freed. Structured
// stores call this themselves; hosts writing payloads directly (the
// snapshot restorer does) call it to keep the edge sets complete.
func (h *Heap) TrackRef(parentID ObjectID, child Value) {
	cid := childID(child)
	if cid == 0 {
		return
	}
	parent := h.slot(parentID)
	if parent == nil {
		return
	}
	switch parent.Kind {
	case OKTable:
		addChild(&parent.Table.children, cid)
	case OKClosure:
		addChild(&parent.Closure.children, cid)
	}
}

// Scalar returns the boxed value of a scalar cell, or nil for any other
// id.
func (h *Heap) Scalar(id ObjectID) Value {
	if obj := h.slot(id); obj != nil && obj.Kind == OKScalar {
		return obj.Scalar
	}
	return MakeNil()
}

// SetScalar replaces the boxed value of a scalar cell. The new value is
// retained before the old one is released, so storing the value already
// in the cell is safe.
func (h *Heap) SetScalar(id ObjectID, v Value) {
	obj := h.slot(id)
	if obj == nil || obj.Kind != OKScalar {
		return
	}
	retained := h.ctx.Retain(v)
	h.ctx.Release(obj.Scalar)
	obj.Scalar = retained
	h.markDirty(obj)
}

// weakValid reports whether a weak cell still observes a live target.
func (h *Heap) weakValid(weakID ObjectID) bool {
	cell := h.slot(weakID)
	if cell == nil || cell.Kind != OKWeak {
		return false
	}
	target := h.slot(cell.Target)
	return target != nil && target.Strong > 0
}

// WeakToStrong upgrades a weak cell to a strong handle on its target.
// Returns the retained target id, or 0 when the target is gone.
func (h *Heap) WeakToStrong(weakID ObjectID) ObjectID {
	cell := h.slot(weakID)
	if cell == nil || cell.Kind != OKWeak {
		return 0
	}
	target := h.slot(cell.Target)
	if target == nil || target.Strong <= 0 {
		return 0
	}
	target.Strong++
	return cell.Target
}

// destructorActive reports whether id's destructor is on the active
// stack.
func (h *Heap) destructorActive(id ObjectID) bool {
	for _, a := range h.dtorStack {
		if a == id {
			return true
		}
	}
	return false
}

func (h *Heap) destructorPush(id ObjectID) {
	h.dtorStack = append(h.dtorStack, id)
}

func (h *Heap) destructorPop() {
	h.dtorStack = h.dtorStack[:len(h.dtorStack)-1]
}

// markDirty stamps the object as mutated in the current frame.
func (h *Heap) markDirty(obj *HeapObject) {
	if h.ctx != nil {
		h.ctx.budget.markDirty(obj)
	}
}

// LiveCount returns the number of slots with a positive strong count.
func (h *Heap) LiveCount() int {
	n := 0
	for id := ObjectID(1); id < h.next; id++ {
		if h.slots[id].Strong > 0 {
			n++
		}
	}
	return n
}
