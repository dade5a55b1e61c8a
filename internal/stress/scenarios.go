package stress

import (
	"fmt"

	"stride/internal/vm"
)

// Scenario is one reproducible workload. Setup runs once per context;
// Frame runs once per logical frame, bracketed by the runner's
// BeginFrame/safepoint. Scenarios draw randomness from the context RNG
// so a seed pins the whole run, and keep live state reachable from
// globals so the final teardown can release and verify everything.
type Scenario struct {
	Name  string
	Desc  string
	Setup func(c *vm.Context) error
	Frame func(c *vm.Context, frame, ops int) error
}

// Scenarios returns the registry in display order.
func Scenarios() []Scenario {
	return []Scenario{
		churnScenario,
		cycleScenario,
		treeScenario,
		weakScenario,
		coroScenario,
		mixedScenario,
	}
}

// Lookup finds a scenario by name.
func Lookup(name string) (Scenario, bool) {
	for _, sc := range Scenarios() {
		if sc.Name == name {
			return sc, true
		}
	}
	return Scenario{}, false
}

// Names returns the registered scenario names.
func Names() []string {
	scs := Scenarios()
	names := make([]string, len(scs))
	for i, sc := range scs {
		names[i] = sc.Name
	}
	return names
}

// churn hammers scalar allocation and release; a rolling pool of
// survivors keeps the free-slot scan honest.
var churnScenario = Scenario{
	Name: "churn",
	Desc: "scalar allocation churn with a rolling pool of survivors",
	Setup: func(c *vm.Context) error {
		pool := c.Heap.AllocTable(nil)
		pv := vm.MakeRef(pool)
		c.Globals.Set("pool", pv)
		c.Release(pv)
		return nil
	},
	Frame: func(c *vm.Context, frame, ops int) error {
		pool := c.Globals.Get("pool")
		for i := 0; i < ops; i++ {
			id := c.Heap.AllocScalar(vm.MakeInt(int64(c.Rand()%1000)), nil)
			if i%4 == 0 {
				key := fmt.Sprintf("s%d", i%32)
				if err := c.SetField(&pool, key, vm.MakeRef(id)); err != nil {
					return err
				}
			}
			c.Release(vm.MakeRef(id))
		}
		return nil
	},
}

// cycles builds mutual table pairs, most of them garbage the moment
// the locals drop, some anchored in globals to stay live across
// collections.
var cycleScenario = Scenario{
	Name: "cycles",
	Desc: "mutual table cycles, mostly garbage, some anchored",
	Frame: func(c *vm.Context, frame, ops int) error {
		pairs := ops / 8
		if pairs < 1 {
			pairs = 1
		}
		for i := 0; i < pairs; i++ {
			a := c.Heap.AllocTable(nil)
			b := c.Heap.AllocTable(nil)
			av, bv := vm.MakeRef(a), vm.MakeRef(b)
			if err := c.SetField(&av, "next", bv); err != nil {
				return err
			}
			if err := c.SetField(&bv, "next", av); err != nil {
				return err
			}
			if i%8 == 0 {
				c.Globals.Set(fmt.Sprintf("keep%d", (i/8)%4), av)
			}
			c.Release(av)
			c.Release(bv)
		}
		return nil
	},
}

// tree keeps a fixed array of record tables, replacing random slots
// so the mark walk sees arrays, tables, and strings every run.
var treeScenario = Scenario{
	Name: "tree",
	Desc: "bounded container graph mutated slot by slot",
	Setup: func(c *vm.Context) error {
		nodes := c.Heap.AllocArray(16)
		nv := vm.MakeRef(nodes)
		c.Globals.Set("nodes", nv)
		c.Release(nv)
		return nil
	},
	Frame: func(c *vm.Context, frame, ops int) error {
		nodes := c.Globals.Get("nodes")
		sum := vm.MakeInt(0)
		for i := 0; i < ops; i++ {
			slot := int64(c.Rand() % 16)
			t := c.Heap.AllocTable(nil)
			tv := vm.MakeRef(t)
			if err := c.SetField(&tv, "id", vm.MakeInt(int64(i))); err != nil {
				return err
			}
			if err := c.SetField(&tv, "tag", vm.MakeString(fmt.Sprintf("n%d", frame))); err != nil {
				return err
			}
			prev, err := c.GetIndex(nodes, vm.MakeInt(slot))
			if err != nil {
				return err
			}
			if prev.Kind == vm.VKRef {
				pid, err := c.GetField(prev, "id")
				if err != nil {
					return err
				}
				if err := c.SetField(&tv, "prev_id", pid); err != nil {
					return err
				}
			}
			if err := c.SetIndex(&nodes, vm.MakeInt(slot), tv); err != nil {
				return err
			}
			c.Release(tv)
			if sum, err = c.Add(sum, vm.MakeInt(slot)); err != nil {
				return err
			}
		}
		c.Globals.Set("checksum", sum)
		return nil
	},
}

// weak churns targets out from under their weak cells and verifies the
// cells observe the death.
var weakScenario = Scenario{
	Name: "weak",
	Desc: "weak cells outliving and losing their targets",
	Setup: func(c *vm.Context) error {
		watch := c.Heap.AllocArray(8)
		wv := vm.MakeRef(watch)
		c.Globals.Set("watch", wv)
		c.Release(wv)
		strongs := c.Heap.AllocTable(nil)
		sv := vm.MakeRef(strongs)
		c.Globals.Set("strongs", sv)
		c.Release(sv)
		return nil
	},
	Frame: func(c *vm.Context, frame, ops int) error {
		watch := c.Globals.Get("watch")
		strongs := c.Globals.Get("strongs")
		for i := 0; i < ops; i++ {
			target := c.Heap.AllocScalar(vm.MakeInt(int64(i)), nil)
			cell := c.Heap.AllocWeak(target)
			if err := c.SetIndex(&watch, vm.MakeInt(int64(i%8)), vm.MakeWeak(cell)); err != nil {
				return err
			}
			if i%3 == 0 {
				// Keep this target; the upgrade must succeed.
				key := fmt.Sprintf("s%d", i%4)
				if err := c.SetField(&strongs, key, vm.MakeRef(target)); err != nil {
					return err
				}
				up := c.Heap.WeakToStrong(cell)
				if up == 0 {
					return fmt.Errorf("weak cell %d lost a live target", cell)
				}
				c.Release(vm.MakeRef(up))
			}
			c.Release(vm.MakeRef(target))
			if i%3 != 0 {
				// Target died with the release above.
				if up := c.Heap.WeakToStrong(cell); up != 0 {
					return fmt.Errorf("weak cell %d revived a dead target %d", cell, up)
				}
			}
			c.Release(vm.MakeRef(cell))
		}
		return nil
	},
}

const coroCounterFunc int32 = 1

// coroCounter yields a countdown held in its first register, then
// completes. Cleanup drains the defer stack.
func coroCounter(c *vm.Context, co *vm.Coroutine) vm.Value {
	if co.State == vm.CoroCleanup {
		for {
			if _, ok := co.PopDefer(); !ok {
				break
			}
		}
		return vm.MakeNil()
	}
	left := co.Regs[0].Int
	if left > 0 {
		co.Regs[0] = vm.MakeInt(left - 1)
		co.ResumePC++
		if err := c.Yield(vm.MakeInt(left)); err != nil {
			return vm.MakeNil()
		}
		return vm.MakeNil()
	}
	return vm.MakeString("done")
}

// coro keeps a small population of counter coroutines resumed across
// frames, respawning slots as they complete.
var coroScenario = Scenario{
	Name: "coro",
	Desc: "coroutine population resumed across frames",
	Setup: func(c *vm.Context) error {
		c.RegisterCoroFunc(coroCounterFunc, coroCounter)
		slots := c.Heap.AllocArray(4)
		sv := vm.MakeRef(slots)
		c.Globals.Set("coros", sv)
		c.Release(sv)
		return nil
	},
	Frame: func(c *vm.Context, frame, ops int) error {
		slots := c.Globals.Get("coros")
		for i := int64(0); i < 4; i++ {
			cur, err := c.GetIndex(slots, vm.MakeInt(i))
			if err != nil {
				return err
			}
			if cur.Kind == vm.VKCoroutine {
				co, ok := c.Coro(cur.Coro)
				if ok && (co.State == vm.CoroReady || co.State == vm.CoroSuspended) {
					if _, err := c.Resume(cur.Coro); err != nil {
						return err
					}
					continue
				}
			}
			// Ids are never reused, so once the table fills the slot
			// keeps its completed handle.
			if c.CoroCount() >= c.CoroCapacity() {
				continue
			}
			count := 1 + int64(c.Rand()%3)
			id := c.Spawn(coroCounterFunc, []vm.Value{vm.MakeInt(count)})
			if err := c.SetIndex(&slots, vm.MakeInt(i), vm.MakeCoroutine(id)); err != nil {
				return err
			}
			c.Release(vm.MakeCoroutine(id))
		}
		return nil
	},
}

// mixed interleaves the other workloads frame by frame.
var mixedScenario = Scenario{
	Name: "mixed",
	Desc: "churn, cycles, and weak cells interleaved",
	Setup: func(c *vm.Context) error {
		if err := churnScenario.Setup(c); err != nil {
			return err
		}
		return weakScenario.Setup(c)
	},
	Frame: func(c *vm.Context, frame, ops int) error {
		switch frame % 3 {
		case 0:
			return churnScenario.Frame(c, frame, ops)
		case 1:
			return cycleScenario.Frame(c, frame, ops)
		default:
			return weakScenario.Frame(c, frame, ops/2+1)
		}
	},
}
