// Package testkit checks heap invariants that every quiescent context
// must satisfy. Stress scenarios and tests call it after their final
// collection to catch count drift, payload leaks on freed slots, and
// incomplete child-edge sets.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"stride/internal/vm"
)

// CheckHeapInvariants runs the full invariant sweep:
// 1) strong counts are never negative, and LiveCount agrees with a scan
// 2) the census partitions the allocated range exactly
// 3) freed slots carry no payload
// 4) every current handle inside a table or closure appears in its
//    tracked child set, and every tracked id is inside the watermark
// 5) live weak cells target an id inside the watermark
// 6) global handle bindings point at live objects
func CheckHeapInvariants(c *vm.Context) error {
	if c == nil {
		return fmt.Errorf("nil context")
	}
	h := c.Heap
	watermark, err := safecast.Conv[int](uint32(h.NextID()))
	if err != nil {
		return fmt.Errorf("watermark overflow: %w", err)
	}

	live := 0
	for id := vm.ObjectID(1); id < h.NextID(); id++ {
		obj, ok := h.Object(id)
		if !ok {
			return fmt.Errorf("slot %d below watermark is unaddressable", id)
		}
		if obj.Strong < 0 {
			return fmt.Errorf("slot %d has negative strong count %d", id, obj.Strong)
		}
		if obj.Strong == 0 {
			if err := checkFreeSlotEmpty(obj); err != nil {
				return err
			}
			continue
		}
		live++
		if err := checkLiveSlot(obj, watermark); err != nil {
			return err
		}
	}

	if got := h.LiveCount(); got != live {
		return fmt.Errorf("LiveCount() = %d, scan found %d", got, live)
	}
	cs := h.Census()
	if cs.Live != live {
		return fmt.Errorf("census live = %d, scan found %d", cs.Live, live)
	}
	if cs.Live+cs.Free != cs.Watermark {
		return fmt.Errorf("census does not partition the heap: live=%d free=%d watermark=%d",
			cs.Live, cs.Free, cs.Watermark)
	}
	if sum := cs.Scalars + cs.Tables + cs.Arrays + cs.Weaks + cs.Closures; sum != cs.Live {
		return fmt.Errorf("census kinds sum to %d, live is %d", sum, cs.Live)
	}

	for _, e := range c.Globals.Entries() {
		if e.Val.Kind != vm.VKRef && e.Val.Kind != vm.VKClosure {
			continue
		}
		obj, ok := h.Object(e.Val.H)
		if !ok || obj.Strong <= 0 {
			return fmt.Errorf("global %q holds a dead handle to slot %d", e.Name, e.Val.H)
		}
	}
	return nil
}

// checkFreeSlotEmpty rejects payload left behind on a reusable slot.
func checkFreeSlotEmpty(obj *vm.HeapObject) error {
	switch obj.Kind {
	case vm.OKScalar:
		if obj.Scalar.Kind != vm.VKNil && obj.Scalar.Kind != vm.VKInvalid {
			return fmt.Errorf("free scalar slot %d still boxes a %v", obj.ID, obj.Scalar.Kind)
		}
	case vm.OKTable:
		if len(obj.Table.Entries) != 0 {
			return fmt.Errorf("free table slot %d still holds %d entries", obj.ID, len(obj.Table.Entries))
		}
	case vm.OKArray:
		if len(obj.Array.Elems) != 0 {
			return fmt.Errorf("free array slot %d still holds %d elements", obj.ID, len(obj.Array.Elems))
		}
	case vm.OKWeak:
		if obj.Target != 0 {
			return fmt.Errorf("free weak slot %d still targets %d", obj.ID, obj.Target)
		}
	case vm.OKClosure:
		if len(obj.Closure.Captures) != 0 {
			return fmt.Errorf("free closure slot %d still holds %d captures", obj.ID, len(obj.Closure.Captures))
		}
	}
	return nil
}

// checkLiveSlot validates payload and edge consistency of one live
// object.
func checkLiveSlot(obj *vm.HeapObject, watermark int) error {
	switch obj.Kind {
	case vm.OKTable:
		if err := checkEdges(obj.ID, obj.Table.Children(), watermark); err != nil {
			return err
		}
		for _, e := range obj.Table.Entries {
			if err := checkHandleTracked(obj.ID, e.Val, obj.Table.Children()); err != nil {
				return err
			}
		}
	case vm.OKClosure:
		if err := checkEdges(obj.ID, obj.Closure.Children(), watermark); err != nil {
			return err
		}
		for _, cv := range obj.Closure.Captures {
			if err := checkHandleTracked(obj.ID, cv, obj.Closure.Children()); err != nil {
				return err
			}
		}
	case vm.OKWeak:
		t, err := safecast.Conv[int](uint32(obj.Target))
		if err != nil {
			return fmt.Errorf("weak slot %d target overflow: %w", obj.ID, err)
		}
		if t < 1 || t >= watermark {
			return fmt.Errorf("weak slot %d targets %d, outside [1,%d)", obj.ID, obj.Target, watermark)
		}
	}
	return nil
}

func checkEdges(parent vm.ObjectID, children []vm.ObjectID, watermark int) error {
	for _, child := range children {
		id, err := safecast.Conv[int](uint32(child))
		if err != nil {
			return fmt.Errorf("slot %d child id overflow: %w", parent, err)
		}
		if id < 1 || id >= watermark {
			return fmt.Errorf("slot %d tracks child %d, outside [1,%d)", parent, child, watermark)
		}
	}
	return nil
}

// checkHandleTracked verifies a stored handle appears in the parent's
// child set. Stale extra edges are fine; missing ones are not.
func checkHandleTracked(parent vm.ObjectID, v vm.Value, children []vm.ObjectID) error {
	if v.Kind != vm.VKRef && v.Kind != vm.VKClosure {
		return nil
	}
	for _, child := range children {
		if child == v.H {
			return nil
		}
	}
	return fmt.Errorf("slot %d holds handle to %d but does not track it", parent, v.H)
}

// CheckLeakFree asserts the context holds no live objects; the error
// names the first few survivors.
func CheckLeakFree(c *vm.Context) error {
	if err := CheckHeapInvariants(c); err != nil {
		return err
	}
	live := c.Heap.LiveCount()
	if live == 0 {
		return nil
	}
	var sample []string
	for id := vm.ObjectID(1); id < c.Heap.NextID() && len(sample) < 5; id++ {
		if obj, ok := c.Heap.Object(id); ok && obj.Strong > 0 {
			sample = append(sample, fmt.Sprintf("%d(%v rc=%d)", id, obj.Kind, obj.Strong))
		}
	}
	return fmt.Errorf("%d objects leaked: %v", live, sample)
}
