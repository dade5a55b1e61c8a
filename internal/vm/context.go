package vm

// Options configures a runtime context. Zero fields take defaults.
type Options struct {
	// HeapCapacity is the fixed number of heap slots. Default 4096.
	HeapCapacity int
	// CoroCapacity caps the number of coroutines spawned over the
	// context's lifetime. Default 256.
	CoroCapacity int
	// CoroRegisters is the register file size of each coroutine.
	// Default 256.
	CoroRegisters int
	// GCCycleInterval is the safe-point period, in operations, used
	// when frames carry no GC budget. Default 1000.
	GCCycleInterval int64
	// DirtyLowWater is the dirty-object count above which a heap wants
	// collection inside the current frame budget. Default 64.
	DirtyLowWater int
	// DirtyHighWater is the dirty-object count above which the host
	// should schedule a dedicated GC frame. Default 512.
	DirtyHighWater int
	// CycleReporter, when set, observes every strongly connected
	// component the cycle detector finds.
	CycleReporter CycleReporter
}

func (o Options) withDefaults() Options {
	if o.HeapCapacity <= 0 {
		o.HeapCapacity = 4096
	}
	if o.CoroCapacity <= 0 {
		o.CoroCapacity = 256
	}
	if o.CoroRegisters <= 0 {
		o.CoroRegisters = 256
	}
	if o.GCCycleInterval <= 0 {
		o.GCCycleInterval = 1000
	}
	if o.DirtyLowWater <= 0 {
		o.DirtyLowWater = 64
	}
	if o.DirtyHighWater <= 0 {
		o.DirtyHighWater = 512
	}
	return o
}

// Context is one isolated runtime instance: a fixed-capacity
// refcounted heap, named globals, the cycle collector with its frame
// budget, coroutines, and the RNG. A Context is not safe for
// concurrent use.
type Context struct {
	Heap    *Heap
	Globals *Globals

	opts     Options
	budget   budgetState
	rngState uint64
	reporter CycleReporter

	funcs map[int32]ClosureFunc

	coros      []*Coroutine
	coroFuncs  map[int32]CoroFunc
	activeCoro CoroID
}

// NewContext creates a runtime context with the given options.
func NewContext(opts Options) *Context {
	opts = opts.withDefaults()
	c := &Context{
		opts:       opts,
		rngState:   1,
		reporter:   opts.CycleReporter,
		funcs:      make(map[int32]ClosureFunc),
		coroFuncs:  make(map[int32]CoroFunc),
		activeCoro: NoCoro,
	}
	c.budget = budgetState{
		// Epoch starts above the zero value stamped on fresh objects
		// so the first mutation of any object counts as dirty.
		epoch:      1,
		lowWater:   opts.DirtyLowWater,
		highWater:  opts.DirtyHighWater,
		gcInterval: opts.GCCycleInterval,
	}
	c.Heap = newHeap(opts.HeapCapacity, c)
	c.Globals = &Globals{ctx: c}
	return c
}

// Close tears the context down: globals are released, live coroutines
// run their cleanup, and any objects still alive are freed with their
// destructors running once. The context must not be used afterwards.
func (c *Context) Close() {
	c.Globals.releaseAll()

	for _, co := range c.coros {
		c.coroCleanup(co.ID)
	}

	h := c.Heap
	for id := ObjectID(1); id < h.next; id++ {
		if h.slots[id].Strong > 0 {
			c.freeObject(id)
		}
	}
}
