package vm

import "fmt"

// CoroID identifies a coroutine. Ids are 0-based and never reused
// within a context.
type CoroID int32

// NoCoro is the "no active coroutine" marker: the main context.
const NoCoro CoroID = -1

// CoroState is the lifecycle state of a coroutine.
type CoroState uint8

const (
	// CoroReady is spawned but never resumed.
	CoroReady CoroState = iota
	// CoroRunning is currently executing in a dispatch.
	CoroRunning
	// CoroSuspended yielded and waits for the next resume.
	CoroSuspended
	// CoroCompleted returned normally; the return value is stored.
	CoroCompleted
	// CoroCleanup is the one synthesized dispatch that runs pending
	// defers after the last handle was dropped.
	CoroCleanup
	// CoroDead is fully torn down; registers are released.
	CoroDead
)

// String returns a human-readable state name.
func (s CoroState) String() string {
	switch s {
	case CoroReady:
		return "ready"
	case CoroRunning:
		return "running"
	case CoroSuspended:
		return "suspended"
	case CoroCompleted:
		return "completed"
	case CoroCleanup:
		return "cleanup"
	case CoroDead:
		return "dead"
	default:
		return fmt.Sprintf("CoroState(%d)", s)
	}
}

// CoroFunc is a coroutine body: an explicit state machine over its
// record, driven by Resume. The contract:
//
//   - continue from coro.ResumePC, updating it before suspending;
//   - suspend by calling Context.Yield and returning immediately;
//   - complete by returning the final value with no pending yield;
//   - when entered with State == CoroCleanup, run the recorded defer
//     stack and return (the return value is ignored).
type CoroFunc func(c *Context, coro *Coroutine) Value

// Coroutine is the saved execution record: registers, resume position,
// and the defer stack. Bodies own ResumePC and Defers; the manager
// owns State and the refcount.
type Coroutine struct {
	ID            CoroID
	State         CoroState
	FuncIdx       int32
	ResumePC      int32
	Regs          []Value
	Defers        []int32
	DeferReturnPC int32
	YieldVal      Value
	RetVal        Value

	refs int32
}

// PushDefer records a deferred position to run during cleanup.
func (co *Coroutine) PushDefer(pc int32) {
	co.Defers = append(co.Defers, pc)
}

// PopDefer removes and returns the most recent deferred position.
// The second result is false when the stack is empty.
func (co *Coroutine) PopDefer() (int32, bool) {
	if len(co.Defers) == 0 {
		return 0, false
	}
	pc := co.Defers[len(co.Defers)-1]
	co.Defers = co.Defers[:len(co.Defers)-1]
	return pc, true
}

// RegisterCoroFunc binds a body to a function index. Spawn and Resume
// dispatch through this table.
func (c *Context) RegisterCoroFunc(funcIdx int32, fn CoroFunc) {
	c.coroFuncs[funcIdx] = fn
}

// Spawn creates a coroutine in the Ready state with one strong handle
// and the arguments copied into its first registers. Ownership of the
// arguments transfers to the registers. Ids are never reused, so the
// capacity bounds the total number of coroutines ever spawned on this
// context; exceeding it is fatal.
func (c *Context) Spawn(funcIdx int32, args []Value) CoroID {
	if len(c.coros) >= c.opts.CoroCapacity {
		fatalf(PanicCoroExhausted, "coroutine limit exceeded: capacity %d", c.opts.CoroCapacity)
	}

	co := &Coroutine{
		ID:            CoroID(len(c.coros)),
		State:         CoroReady,
		FuncIdx:       funcIdx,
		DeferReturnPC: -1,
		Regs:          make([]Value, c.opts.CoroRegisters),
		YieldVal:      MakeNil(),
		RetVal:        MakeNil(),
		refs:          1,
	}
	for i := range co.Regs {
		co.Regs[i] = MakeNil()
	}
	for i := 0; i < len(args) && i < len(co.Regs); i++ {
		co.Regs[i] = args[i]
	}

	c.coros = append(c.coros, co)
	return co.ID
}

// Coro returns the record for a coroutine id.
func (c *Context) Coro(id CoroID) (*Coroutine, bool) {
	if id < 0 || int(id) >= len(c.coros) {
		return nil, false
	}
	return c.coros[id], true
}

// CoroCount reports how many coroutines have been spawned on this
// context. Ids are never reused, so the count never goes down.
func (c *Context) CoroCount() int { return len(c.coros) }

// CoroCapacity reports the spawn limit the context was created with.
func (c *Context) CoroCapacity() int { return c.opts.CoroCapacity }

// ActiveCoro returns the id of the coroutine currently executing, or
// NoCoro from the main context.
func (c *Context) ActiveCoro() CoroID { return c.activeCoro }

// Resume runs a coroutine until its next yield or return and returns
// the yielded or final value. Resuming a Completed or Dead coroutine
// returns the stored final value with no side effects.
func (c *Context) Resume(id CoroID) (Value, error) {
	co, ok := c.Coro(id)
	if !ok {
		return Value{}, &VMError{Code: PanicInvalidHandle, Message: fmt.Sprintf("resume: invalid coroutine id %d", id)}
	}

	switch co.State {
	case CoroCompleted, CoroDead:
		return co.RetVal, nil
	case CoroRunning, CoroCleanup:
		return Value{}, &VMError{Code: PanicInvalidHandle, Message: fmt.Sprintf("resume: coroutine %d is %s", id, co.State)}
	}

	fn := c.coroFuncs[co.FuncIdx]
	if fn == nil {
		return Value{}, &VMError{Code: PanicInvalidHandle, Message: fmt.Sprintf("resume: no body registered for function %d", co.FuncIdx)}
	}

	prev := c.activeCoro
	c.activeCoro = id
	co.State = CoroRunning
	ret := fn(c, co)
	c.activeCoro = prev

	if co.State == CoroSuspended {
		return co.YieldVal, nil
	}
	// The body returned without yielding: completion.
	co.State = CoroCompleted
	co.RetVal = ret
	return ret, nil
}

// Yield suspends the active coroutine with the given value. The body
// must return immediately after calling Yield. Yielding from the main
// context is a fault.
func (c *Context) Yield(v Value) error {
	if c.activeCoro < 0 {
		return &VMError{Code: PanicYieldOutsideCoro, Message: "cannot yield from main context"}
	}
	co := c.coros[c.activeCoro]
	co.YieldVal = v
	co.State = CoroSuspended
	return nil
}

func (c *Context) coroRetain(id CoroID) {
	if co, ok := c.Coro(id); ok {
		co.refs++
	}
}

func (c *Context) coroRelease(id CoroID) {
	co, ok := c.Coro(id)
	if !ok || co.refs == 0 {
		return
	}
	co.refs--
	if co.refs == 0 {
		c.coroCleanup(id)
	}
}

// coroCleanup tears a coroutine down after its last handle dropped.
// A suspended coroutine with pending defers gets exactly one
// synthesized Cleanup dispatch to run them; then every register is
// released and the state becomes Dead. The stored return value
// survives for idempotent resumes.
func (c *Context) coroCleanup(id CoroID) {
	co, ok := c.Coro(id)
	if !ok || co.State == CoroDead {
		return
	}

	if len(co.Defers) > 0 && co.State == CoroSuspended {
		co.State = CoroCleanup
		if fn := c.coroFuncs[co.FuncIdx]; fn != nil {
			prev := c.activeCoro
			c.activeCoro = id
			fn(c, co)
			c.activeCoro = prev
		}
	}

	for i := range co.Regs {
		c.Release(co.Regs[i])
		co.Regs[i] = MakeNil()
	}
	co.State = CoroDead
}
