package vm

import (
	"fmt"
	"time"

	"stride/internal/observ"
)

// CollectStats summarizes one collection run.
type CollectStats struct {
	Detected  int           // reference cycles found by the detection gate
	Collected int           // objects reclaimed by the sweep
	Elapsed   time.Duration // total wall time of the run
	Phases    observ.Report // detect/mark/sweep breakdown
}

// String renders the stats in one line for logs and the workbench.
func (s CollectStats) String() string {
	return fmt.Sprintf("cycles=%d collected=%d elapsed=%s", s.Detected, s.Collected, s.Elapsed)
}

// CollectCycles reclaims unreachable reference cycles. The roots are
// the caller's live register file; the global table is always a root.
//
// The run has three phases: cycle detection as a gate (no cycles means
// refcounting alone is sound and the run stops), a mark walk from the
// roots, and a sweep that forces unmarked-but-counted objects to zero
// and frees them. Marking always completes before the first free. The
// elapsed time is charged to the current frame's budget accounting.
func (c *Context) CollectCycles(roots []Value) CollectStats {
	start := time.Now()
	timer := observ.NewTimer()
	stats := CollectStats{}

	detect := timer.Begin("detect")
	for id := ObjectID(1); id < c.Heap.next; id++ {
		c.Heap.slots[id].Marked = false
	}
	stats.Detected = newTarjanState(c.Heap, c.reporter).run()
	timer.End(detect, fmt.Sprintf("%d cycles", stats.Detected))

	if stats.Detected == 0 {
		stats.Elapsed = time.Since(start)
		stats.Phases = timer.Report()
		c.budget.addGCTime(stats.Elapsed)
		return stats
	}

	mark := timer.Begin("mark")
	for _, root := range roots {
		c.markValue(root)
	}
	for _, g := range c.Globals.Entries() {
		c.markValue(g.Val)
	}
	timer.End(mark, "")

	sweep := timer.Begin("sweep")
	liveBefore := c.Heap.LiveCount()
	var toFree []ObjectID
	for id := ObjectID(1); id < c.Heap.next; id++ {
		if c.Heap.slots[id].Strong > 0 && !c.Heap.slots[id].Marked {
			toFree = append(toFree, id)
		}
	}
	for _, id := range toFree {
		obj := &c.Heap.slots[id]
		// Skip members already reclaimed by an earlier victim's
		// cascade.
		if obj.Strong > 0 {
			// Force the count to zero before freeing so the cycle's
			// internal releases cannot double-free through the
			// normal release path.
			obj.Strong = 0
			c.freeObject(id)
		}
	}
	stats.Collected = liveBefore - c.Heap.LiveCount()
	timer.End(sweep, fmt.Sprintf("%d freed", stats.Collected))

	stats.Elapsed = time.Since(start)
	stats.Phases = timer.Report()
	c.budget.addGCTime(stats.Elapsed)
	return stats
}

// markValue marks every object a root value can reach. Strong handles
// mark their object; weak handles mark only the cell, never the
// target; inline containers and wrappers are walked through.
func (c *Context) markValue(v Value) {
	switch v.Kind {
	case VKRef, VKClosure, VKWeak:
		c.markObject(v.H)
	case VKArray:
		for _, e := range v.Elems {
			c.markValue(e)
		}
	case VKTable:
		for _, e := range v.Entries {
			c.markValue(e.Val)
		}
	case VKSome, VKOk, VKErr:
		c.markValue(*v.Wrapped)
	}
}

// markObject marks a live object and walks its outgoing references:
// tracked children for tables and closures, then the stored values
// themselves, which catches handles nested inside inline containers
// that the child sets cannot see. Weak cells contribute no further
// reach.
func (c *Context) markObject(id ObjectID) {
	obj := c.Heap.slot(id)
	if obj == nil || obj.Strong <= 0 || obj.Marked {
		return
	}
	obj.Marked = true

	if node := obj.graphNode(); node != nil {
		for _, w := range node.Children() {
			c.markObject(w)
		}
	}
	switch obj.Kind {
	case OKTable:
		for _, e := range obj.Table.Entries {
			c.markValue(e.Val)
		}
	case OKClosure:
		for _, cv := range obj.Closure.Captures {
			c.markValue(cv)
		}
	case OKArray:
		for _, e := range obj.Array.Elems {
			c.markValue(e)
		}
	case OKScalar:
		c.markValue(obj.Scalar)
	}
}
