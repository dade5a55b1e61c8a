package stress

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"stride/internal/testkit"
	"stride/internal/vm"
)

// seedStride spaces per-context seeds far enough apart that their
// xorshift streams stay distinct over any realistic run length.
const seedStride uint64 = 0x9E3779B97F4A7C15

// Params configures a run: which scenarios to drive, how many isolated
// contexts per scenario, and the per-context workload shape.
type Params struct {
	Scenarios []Scenario // workloads; each gets Contexts fresh contexts
	Contexts  int        // contexts per scenario (default 1)
	Frames    int        // frames per context (default 1)
	Ops       int        // per-frame operation hint (default 64)
	BudgetUs  int64      // frame GC budget in microseconds; 0 disables budget mode
	Seed      uint64     // base RNG seed; context idx strides from it
	Jobs      int        // parallel contexts; <=0 means GOMAXPROCS
	Opts      vm.Options // heap/GC/coroutine sizing shared by every context
	Sink      EventSink  // optional progress events
}

// Result is the outcome of one context's full run.
type Result struct {
	Scenario  string
	Context   int
	Frames    int
	GCRuns    int // collections that actually ran
	Detected  int // cycles found across all runs
	Collected int // objects reclaimed across all runs
	PeakLive  int // high-water live object count
	Elapsed   time.Duration
	Err       error
}

// Run drives every (scenario, context) pair in parallel and returns one
// result per pair, ordered scenario-major. Scenario failures and leak
// reports land in the per-pair Err; the returned error is non-nil only
// when ctx is cancelled.
func Run(ctx context.Context, p Params) ([]Result, error) {
	if p.Contexts <= 0 {
		p.Contexts = 1
	}
	if p.Frames <= 0 {
		p.Frames = 1
	}
	if p.Ops <= 0 {
		p.Ops = 64
	}
	jobs := p.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	type unit struct {
		sc  Scenario
		idx int
	}
	units := make([]unit, 0, len(p.Scenarios)*p.Contexts)
	for _, sc := range p.Scenarios {
		for i := 0; i < p.Contexts; i++ {
			units = append(units, unit{sc: sc, idx: i})
		}
	}
	if len(units) == 0 {
		return nil, nil
	}

	if p.Sink != nil {
		for _, u := range units {
			p.Sink.OnEvent(Event{
				Context:  u.idx,
				Scenario: u.sc.Name,
				Frames:   p.Frames,
				Status:   StatusQueued,
			})
		}
	}

	// Each goroutine writes its own index, so no mutex is needed.
	results := make([]Result, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(units)))

	for i, u := range units {
		g.Go(func(i int, u unit) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				c := vm.NewContext(p.Opts)
				defer c.Close()

				res, err := runOne(gctx, c, u.sc, u.idx, p)
				results[i] = res

				if p.Sink != nil {
					evt := Event{
						Context:   u.idx,
						Scenario:  u.sc.Name,
						Frames:    p.Frames,
						Status:    StatusDone,
						Collected: res.Collected,
						Err:       res.Err,
					}
					if res.Err != nil {
						evt.Status = StatusError
					}
					p.Sink.OnEvent(evt)
				}

				// Cancellation stops the whole run; a scenario failure
				// only marks its own result row.
				return err
			}
		}(i, u))
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// runOne drives one context through setup, the frame loop, and
// teardown. The returned error is non-nil only on cancellation; every
// other failure is recorded in the result.
func runOne(ctx context.Context, c *vm.Context, sc Scenario, idx int, p Params) (Result, error) {
	res := Result{Scenario: sc.Name, Context: idx, Frames: p.Frames}
	start := time.Now()

	c.Seed(p.Seed + uint64(idx)*seedStride)

	if sc.Setup != nil {
		if err := sc.Setup(c); err != nil {
			res.Err = fmt.Errorf("%s setup: %w", sc.Name, err)
			res.Elapsed = time.Since(start)
			return res, nil
		}
	}

	// Emit enough per-frame events for a progress bar without flooding
	// the sink on long runs.
	eventEvery := p.Frames / 64
	if eventEvery == 0 {
		eventEvery = 1
	}

	for frame := 1; frame <= p.Frames; frame++ {
		select {
		case <-ctx.Done():
			res.Err = ctx.Err()
			res.Elapsed = time.Since(start)
			return res, ctx.Err()
		default:
		}

		c.BeginFrame(p.BudgetUs)
		if err := sc.Frame(c, frame, p.Ops); err != nil {
			res.Err = fmt.Errorf("%s frame %d: %w", sc.Name, frame, err)
			res.Elapsed = time.Since(start)
			return res, nil
		}

		// No live registers between frames, so the globals are the
		// complete root set here.
		stats, ran := c.SafePoint(nil)
		if !ran && c.NeedsGCFrame() {
			stats = c.CollectCycles(nil)
			ran = true
		}
		if ran {
			res.GCRuns++
			res.Detected += stats.Detected
			res.Collected += stats.Collected
		}
		if live := c.Heap.LiveCount(); live > res.PeakLive {
			res.PeakLive = live
		}

		if p.Sink != nil && (frame%eventEvery == 0 || frame == p.Frames) {
			p.Sink.OnEvent(Event{
				Context:   idx,
				Scenario:  sc.Name,
				Frame:     frame,
				Frames:    p.Frames,
				Status:    StatusWorking,
				Live:      c.Heap.LiveCount(),
				Dirty:     c.GCStats().DirtyObjects,
				Collected: res.Collected,
			})
		}
	}

	// Teardown: drop the scenario's roots, then collect. Refcounting
	// reclaims the acyclic garbage as the globals release; the final
	// collection catches the cycles.
	names := make([]string, 0, c.Globals.Len())
	for _, ent := range c.Globals.Entries() {
		names = append(names, ent.Name)
	}
	for _, name := range names {
		c.Globals.Set(name, vm.MakeNil())
	}
	final := c.CollectCycles(nil)
	res.GCRuns++
	res.Detected += final.Detected
	res.Collected += final.Collected

	if err := testkit.CheckLeakFree(c); err != nil {
		res.Err = fmt.Errorf("%s: %w", sc.Name, err)
	}
	res.Elapsed = time.Since(start)
	return res, nil
}
