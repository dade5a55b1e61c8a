package vm

import "testing"

func TestOptionsDefaults(t *testing.T) {
	c := NewContext(Options{})
	if got := c.Heap.Capacity(); got != 4096 {
		t.Fatalf("heap capacity %d, want 4096", got)
	}
	if c.opts.CoroCapacity != 256 || c.opts.CoroRegisters != 256 {
		t.Fatalf("coroutine defaults %+v", c.opts)
	}
	if c.budget.gcInterval != 1000 || c.budget.lowWater != 64 || c.budget.highWater != 512 {
		t.Fatalf("budget defaults %+v", c.budget)
	}
	if c.ActiveCoro() != NoCoro {
		t.Fatalf("fresh context has active coroutine %d", c.ActiveCoro())
	}
}

func TestOptionsOverrides(t *testing.T) {
	c := NewContext(Options{HeapCapacity: 32, CoroCapacity: 4, GCCycleInterval: 10})
	if c.Heap.Capacity() != 32 || c.opts.CoroCapacity != 4 || c.budget.gcInterval != 10 {
		t.Fatalf("overrides lost: heap=%d opts=%+v", c.Heap.Capacity(), c.opts)
	}
}

func TestContextsAreIsolated(t *testing.T) {
	c1 := NewContext(Options{})
	c2 := NewContext(Options{})

	id := c1.Heap.AllocTable(nil)
	c1.Globals.Set("shared", MakeRef(id))
	if c2.Globals.Has("shared") {
		t.Fatalf("globals leaked between contexts")
	}
	if c2.Heap.LiveCount() != 0 {
		t.Fatalf("heap leaked between contexts")
	}

	c1.Seed(42)
	a, b := c1.Rand(), c2.Rand()
	if a == b {
		t.Fatalf("rng streams shared between contexts")
	}
}

func TestCloseTearsDownEverything(t *testing.T) {
	c := NewContext(Options{})
	runs := 0
	scalar := c.Heap.AllocScalar(MakeInt(1), func(ctx *Context, v Value) { runs++ })
	c.Globals.Set("keep", MakeRef(scalar))
	c.Heap.AllocTable(nil)
	arr := c.Heap.AllocArray(1)
	coid := c.Spawn(1, []Value{MakeRef(arr)})

	c.Close()

	if got := c.Heap.LiveCount(); got != 0 {
		t.Fatalf("%d objects survived close", got)
	}
	if runs != 1 {
		t.Fatalf("destructor ran %d times during close, want 1", runs)
	}
	co, _ := c.Coro(coid)
	if co.State != CoroDead {
		t.Fatalf("coroutine in state %s after close", co.State)
	}
	if c.Globals.Len() != 0 {
		t.Fatalf("%d globals survived close", c.Globals.Len())
	}
}

func TestCloseBreaksLiveCycles(t *testing.T) {
	c := NewContext(Options{})
	a := MakeRef(c.Heap.AllocTable(nil))
	b := MakeRef(c.Heap.AllocTable(nil))
	mustSetField(t, c, a, "peer", b)
	mustSetField(t, c, b, "peer", a)
	c.Release(a)
	c.Release(b)

	// the cycle was never collected; teardown still reclaims it
	c.Close()
	if got := c.Heap.LiveCount(); got != 0 {
		t.Fatalf("%d cycle members survived close", got)
	}
}
