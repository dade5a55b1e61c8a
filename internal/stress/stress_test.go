package stress

import (
	"context"
	"errors"
	"testing"

	"stride/internal/vm"
)

func testOpts() vm.Options {
	return vm.Options{
		HeapCapacity:    512,
		GCCycleInterval: 20,
		DirtyLowWater:   4,
		DirtyHighWater:  128,
		CoroCapacity:    64,
		CoroRegisters:   8,
	}
}

func TestEveryScenarioRunsLeakFree(t *testing.T) {
	for _, sc := range Scenarios() {
		t.Run(sc.Name, func(t *testing.T) {
			results, err := Run(context.Background(), Params{
				Scenarios: []Scenario{sc},
				Contexts:  1,
				Frames:    48,
				Ops:       32,
				Seed:      7,
				Jobs:      1,
				Opts:      testOpts(),
			})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("len(results) = %d, want 1", len(results))
			}
			res := results[0]
			if res.Err != nil {
				t.Fatalf("%s: %v", sc.Name, res.Err)
			}
			if res.PeakLive == 0 {
				t.Errorf("%s never touched the heap", sc.Name)
			}
		})
	}
}

func TestRunParallelKeepsContextsIsolated(t *testing.T) {
	scs := []Scenario{churnScenario, cycleScenario}
	results, err := Run(context.Background(), Params{
		Scenarios: scs,
		Contexts:  3,
		Frames:    30,
		Ops:       24,
		Seed:      11,
		Jobs:      4,
		Opts:      testOpts(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("len(results) = %d, want 6", len(results))
	}
	for i, res := range results {
		if want := scs[i/3].Name; res.Scenario != want {
			t.Errorf("results[%d].Scenario = %q, want %q", i, res.Scenario, want)
		}
		if want := i % 3; res.Context != want {
			t.Errorf("results[%d].Context = %d, want %d", i, res.Context, want)
		}
		if res.Err != nil {
			t.Errorf("results[%d] (%s/%d): %v", i, res.Scenario, res.Context, res.Err)
		}
	}
}

func TestBudgetModeCollectsDuringRun(t *testing.T) {
	results, err := Run(context.Background(), Params{
		Scenarios: []Scenario{cycleScenario},
		Contexts:  1,
		Frames:    40,
		Ops:       32,
		BudgetUs:  5000,
		Seed:      3,
		Jobs:      1,
		Opts:      testOpts(),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := results[0]
	if res.Err != nil {
		t.Fatalf("cycles: %v", res.Err)
	}
	// The cycle workload dirties more objects per frame than the low
	// water mark, so budgeted safepoints must collect before teardown.
	if res.GCRuns < 2 {
		t.Errorf("GCRuns = %d, want mid-run collections before the final one", res.GCRuns)
	}
	if res.Detected == 0 {
		t.Error("no cycles detected over a cycle workload")
	}
	if res.Collected == 0 {
		t.Error("no objects collected over a cycle workload")
	}
}

func TestRunEmitsProgressEvents(t *testing.T) {
	ch := make(chan Event, 64)
	results, err := Run(context.Background(), Params{
		Scenarios: []Scenario{churnScenario},
		Contexts:  1,
		Frames:    10,
		Ops:       16,
		Seed:      1,
		Jobs:      1,
		Opts:      testOpts(),
		Sink:      ChannelSink{Ch: ch},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].Err != nil {
		t.Fatalf("churn: %v", results[0].Err)
	}

	seen := map[Status]int{}
	for len(ch) > 0 {
		evt := <-ch
		seen[evt.Status]++
		if evt.Scenario != "churn" {
			t.Errorf("event scenario = %q, want %q", evt.Scenario, "churn")
		}
		if evt.Frame > evt.Frames {
			t.Errorf("event frame %d beyond total %d", evt.Frame, evt.Frames)
		}
	}
	if seen[StatusQueued] != 1 {
		t.Errorf("queued events = %d, want 1", seen[StatusQueued])
	}
	if seen[StatusWorking] == 0 {
		t.Error("no working events emitted")
	}
	if seen[StatusDone] != 1 {
		t.Errorf("done events = %d, want 1", seen[StatusDone])
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Params{
		Scenarios: []Scenario{churnScenario},
		Contexts:  1,
		Frames:    100,
		Ops:       16,
		Jobs:      1,
		Opts:      testOpts(),
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRunIsDeterministicForASeed(t *testing.T) {
	run := func() Result {
		t.Helper()
		results, err := Run(context.Background(), Params{
			Scenarios: []Scenario{treeScenario},
			Contexts:  1,
			Frames:    30,
			Ops:       24,
			Seed:      99,
			Jobs:      1,
			Opts:      testOpts(),
		})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if results[0].Err != nil {
			t.Fatalf("tree: %v", results[0].Err)
		}
		return results[0]
	}

	a, b := run(), run()
	if a.PeakLive != b.PeakLive || a.GCRuns != b.GCRuns ||
		a.Detected != b.Detected || a.Collected != b.Collected {
		t.Errorf("same seed diverged: %+v vs %+v", a, b)
	}
}

func TestLookupFindsEveryRegisteredScenario(t *testing.T) {
	for _, name := range Names() {
		sc, ok := Lookup(name)
		if !ok {
			t.Fatalf("Lookup(%q) missed a registered scenario", name)
		}
		if sc.Name != name {
			t.Errorf("Lookup(%q).Name = %q", name, sc.Name)
		}
	}
	if _, ok := Lookup("no-such-workload"); ok {
		t.Error("Lookup accepted an unknown name")
	}
}
