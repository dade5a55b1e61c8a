package vm

import (
	"testing"
	"time"
)

func TestGCStatsEchoFrameAccounting(t *testing.T) {
	c := NewContext(Options{})
	cell := c.Heap.AllocScalar(MakeInt(0), nil)

	c.BeginFrame(2000)
	c.Heap.SetScalar(cell, MakeInt(1))
	c.budget.addGCTime(500 * time.Microsecond)

	stats := c.GCStats()
	if stats.GCTimeUs != 500 || stats.BudgetUs != 2000 || stats.DirtyObjects != 1 {
		t.Fatalf("stats %+v, want {500 2000 1}", stats)
	}

	c.BeginFrame(3000)
	stats = c.GCStats()
	if stats.GCTimeUs != 0 || stats.BudgetUs != 3000 || stats.DirtyObjects != 0 {
		t.Fatalf("frame boundary did not reset: %+v", stats)
	}
}

func TestGCTimeAccumulatesWithinFrame(t *testing.T) {
	c := NewContext(Options{})
	c.BeginFrame(5000)
	c.budget.addGCTime(300 * time.Microsecond)
	c.budget.addGCTime(200 * time.Microsecond)
	if got := c.GCStats().GCTimeUs; got != 500 {
		t.Fatalf("gc time %dus, want 500", got)
	}
}

func TestDirtyObjectsCountedOncePerFrame(t *testing.T) {
	c := NewContext(Options{})
	a := c.Heap.AllocScalar(MakeInt(0), nil)
	b := c.Heap.AllocScalar(MakeInt(0), nil)

	c.BeginFrame(0)
	c.Heap.SetScalar(a, MakeInt(1))
	c.Heap.SetScalar(a, MakeInt(2))
	c.Heap.SetScalar(a, MakeInt(3))
	if got := c.GCStats().DirtyObjects; got != 1 {
		t.Fatalf("repeat mutations counted %d, want 1", got)
	}
	c.Heap.SetScalar(b, MakeInt(1))
	if got := c.GCStats().DirtyObjects; got != 2 {
		t.Fatalf("second object: %d, want 2", got)
	}

	// the same object dirties again in the next frame
	c.BeginFrame(0)
	c.Heap.SetScalar(a, MakeInt(4))
	if got := c.GCStats().DirtyObjects; got != 1 {
		t.Fatalf("next frame: %d, want 1", got)
	}
}

func TestMutationsDirtyBeforeFirstFrame(t *testing.T) {
	c := NewContext(Options{})
	cell := c.Heap.AllocScalar(MakeInt(0), nil)
	// no BeginFrame yet: freshly created objects must still count
	c.Heap.SetScalar(cell, MakeInt(1))
	if got := c.GCStats().DirtyObjects; got != 1 {
		t.Fatalf("pre-frame mutation counted %d, want 1", got)
	}
}

func TestStructuredWritesDirtyTheObject(t *testing.T) {
	c := NewContext(Options{})
	tbl := MakeRef(c.Heap.AllocTable(nil))
	arr := MakeRef(c.Heap.AllocArray(2))

	c.BeginFrame(0)
	mustSetField(t, c, tbl, "k", MakeInt(1))
	if err := c.SetIndex(&arr, MakeInt(0), MakeInt(2)); err != nil {
		t.Fatalf("set_index failed: %v", err)
	}
	if got := c.GCStats().DirtyObjects; got != 2 {
		t.Fatalf("structured writes counted %d, want 2", got)
	}
	c.Release(arr)
	c.Release(tbl)
}

func TestCollectionPressureThresholds(t *testing.T) {
	c := NewContext(Options{DirtyLowWater: 2, DirtyHighWater: 4})
	ids := make([]ObjectID, 5)
	for i := range ids {
		ids[i] = c.Heap.AllocScalar(MakeInt(0), nil)
	}

	c.BeginFrame(0)
	for i := 0; i < 3; i++ {
		c.Heap.SetScalar(ids[i], MakeInt(1))
	}
	if !c.HeapNeedsCollection() {
		t.Fatalf("3 dirty above low water 2 must request collection")
	}
	if c.NeedsGCFrame() {
		t.Fatalf("3 dirty below high water 4 must not demand a frame")
	}

	for i := 3; i < 5; i++ {
		c.Heap.SetScalar(ids[i], MakeInt(1))
	}
	if !c.NeedsGCFrame() {
		t.Fatalf("5 dirty above high water 4 must demand a frame")
	}
}

func TestSafePointIntervalWithoutBudget(t *testing.T) {
	c := NewContext(Options{GCCycleInterval: 3})

	for i := 0; i < 2; i++ {
		if _, ran := c.SafePoint(nil); ran {
			t.Fatalf("safe point %d fired before the interval", i+1)
		}
	}
	if _, ran := c.SafePoint(nil); !ran {
		t.Fatalf("safe point at the interval did not fire")
	}
	// the counter restarts after a run
	if _, ran := c.SafePoint(nil); ran {
		t.Fatalf("safe point fired immediately after a run")
	}
}

func TestSafePointBudgetModeGates(t *testing.T) {
	c := NewContext(Options{DirtyLowWater: 1})
	a := c.Heap.AllocScalar(MakeInt(0), nil)
	b := c.Heap.AllocScalar(MakeInt(0), nil)

	c.BeginFrame(10000)
	// clean heap: nothing to do regardless of budget
	if _, ran := c.SafePoint(nil); ran {
		t.Fatalf("safe point fired on a clean heap")
	}

	c.Heap.SetScalar(a, MakeInt(1))
	c.Heap.SetScalar(b, MakeInt(1))
	if _, ran := c.SafePoint(nil); !ran {
		t.Fatalf("safe point ignored dirty heap with budget remaining")
	}

	// an exhausted budget suppresses further collection this frame
	c.budget.addGCTime(20 * time.Millisecond)
	if _, ran := c.SafePoint(nil); ran {
		t.Fatalf("safe point overran the frame budget")
	}

	// a new frame restores the budget
	c.BeginFrame(10000)
	c.Heap.SetScalar(a, MakeInt(2))
	c.Heap.SetScalar(b, MakeInt(2))
	if _, ran := c.SafePoint(nil); !ran {
		t.Fatalf("fresh frame did not collect")
	}
}

func TestCollectCyclesChargesBudget(t *testing.T) {
	c := NewContext(Options{})
	c.BeginFrame(5000)
	stats := c.CollectCycles(nil)
	if got := c.GCStats().GCTimeUs; time.Duration(got)*time.Microsecond > stats.Elapsed+time.Microsecond {
		t.Fatalf("charged %dus for %s of work", got, stats.Elapsed)
	}
	if c.GCStats().BudgetUs != 5000 {
		t.Fatalf("budget lost: %+v", c.GCStats())
	}
}
