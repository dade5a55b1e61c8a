package main

import (
	"fmt"

	"stride/internal/vm"
)

// buildCyclePairs allocates mutual table pairs: anchored ones stay
// reachable through globals, garbage ones lose their last handle as
// soon as this returns.
func buildCyclePairs(c *vm.Context, anchored, garbage int) error {
	for i := 0; i < anchored+garbage; i++ {
		a := c.Heap.AllocTable(nil)
		b := c.Heap.AllocTable(nil)
		av, bv := vm.MakeRef(a), vm.MakeRef(b)
		if err := c.SetField(&av, "next", bv); err != nil {
			return err
		}
		if err := c.SetField(&bv, "next", av); err != nil {
			return err
		}
		if i < anchored {
			c.Globals.Set(fmt.Sprintf("ring%d", i), av)
		}
		c.Release(av)
		c.Release(bv)
	}
	return nil
}

// buildSampleWorld fills a context with a little of everything the
// snapshot format carries: a config table, an array with three owners,
// a weak cell, a closure, one anchored cycle, and a seeded RNG.
func buildSampleWorld(c *vm.Context) error {
	cfg := c.Heap.AllocTable(nil)
	cv := vm.MakeRef(cfg)
	if err := c.SetField(&cv, "name", vm.MakeString("sample")); err != nil {
		return err
	}
	if err := c.SetField(&cv, "budget_us", vm.MakeInt(500)); err != nil {
		return err
	}

	items := c.Heap.AllocArray(3)
	iv := vm.MakeRef(items)
	for i := int64(0); i < 3; i++ {
		if err := c.SetIndex(&iv, vm.MakeInt(i), vm.MakeInt(i*i)); err != nil {
			return err
		}
	}
	if err := c.SetField(&cv, "items", iv); err != nil {
		return err
	}

	// The weak cell keeps its allocation reference; the context owns it
	// until teardown.
	cell := c.Heap.AllocWeak(cfg)

	onTick := c.NewClosure(7, []vm.Value{iv, vm.MakeInt(10)})

	c.Globals.Set("config", cv)
	c.Globals.Set("items", iv)
	c.Globals.Set("config_watch", vm.MakeWeak(cell))
	c.Globals.Set("on_tick", onTick)

	c.Release(cv)
	c.Release(iv)
	c.Release(onTick)

	if err := buildCyclePairs(c, 1, 0); err != nil {
		return err
	}

	c.Seed(2026)
	for i := 0; i < 5; i++ {
		c.Rand()
	}
	return nil
}
