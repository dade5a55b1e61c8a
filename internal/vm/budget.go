package vm

import "time"

// GCFrameStats is the per-frame accounting snapshot exposed to hosts
// for adaptive pacing policies.
type GCFrameStats struct {
	GCTimeUs     int64 // microseconds spent in collection work this frame
	BudgetUs     int64 // the budget recorded by BeginFrame (0 = unenforced)
	DirtyObjects int   // objects mutated since the frame began
}

// budgetState is the frame-budget controller. Dirtiness is counted per
// object per frame: mutation paths stamp the object with the current
// frame epoch and only the first stamp increments the counter.
type budgetState struct {
	budgetUs   int64
	gcTime     time.Duration
	epoch      uint64
	dirty      int
	opsSinceGC int64

	lowWater   int
	highWater  int
	gcInterval int64
}

func (b *budgetState) markDirty(obj *HeapObject) {
	if obj.dirtyEpoch != b.epoch {
		obj.dirtyEpoch = b.epoch
		b.dirty++
	}
}

func (b *budgetState) addGCTime(d time.Duration) {
	b.gcTime += d
}

// BeginFrame starts a new logical frame: per-frame accounting (gc
// time, dirty count) resets and the budget is recorded. A zero budget
// disables enforcement; safepoints then fall back to interval-based
// triggering.
func (c *Context) BeginFrame(budgetUs int64) {
	b := &c.budget
	b.budgetUs = budgetUs
	b.gcTime = 0
	b.dirty = 0
	b.epoch++
}

// GCStats returns the current frame's accounting exactly as
// accumulated.
func (c *Context) GCStats() GCFrameStats {
	b := &c.budget
	return GCFrameStats{
		GCTimeUs:     b.gcTime.Microseconds(),
		BudgetUs:     b.budgetUs,
		DirtyObjects: b.dirty,
	}
}

// HeapNeedsCollection is the advisory predicate: the dirty count has
// passed the low-water mark and a collection would be worthwhile.
func (c *Context) HeapNeedsCollection() bool {
	return c.budget.dirty > c.budget.lowWater
}

// NeedsGCFrame signals urgency: the dirty count has passed the
// high-water mark and the host should grant collection a full frame
// rather than the per-frame slice. The controller never forces this
// itself; the host decides.
func (c *Context) NeedsGCFrame() bool {
	return c.budget.dirty > c.budget.highWater
}

// SafePoint is the host's per-operation hook. In budget mode a
// collection starts when the heap wants one and budget remains; with a
// zero budget, every gcInterval safepoints force one. The collection
// itself always runs to completion: the budget only governs whether
// it starts, and its elapsed time is charged to the frame.
func (c *Context) SafePoint(roots []Value) (CollectStats, bool) {
	b := &c.budget
	b.opsSinceGC++

	if b.budgetUs > 0 {
		if b.gcTime.Microseconds() >= b.budgetUs {
			return CollectStats{}, false
		}
		if !c.HeapNeedsCollection() {
			return CollectStats{}, false
		}
	} else if b.opsSinceGC < b.gcInterval {
		return CollectStats{}, false
	}

	stats := c.CollectCycles(roots)
	b.opsSinceGC = 0
	return stats, true
}
