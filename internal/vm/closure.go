package vm

import "fmt"

// ClosureFunc is a host-registered function body dispatched through
// closure handles. Captures arrive before the call arguments. All
// arguments are borrowed: the body retains anything it stores.
type ClosureFunc func(c *Context, args []Value) (Value, error)

// RegisterFunc binds a body to a function index for closure dispatch.
func (c *Context) RegisterFunc(funcIdx int32, fn ClosureFunc) {
	c.funcs[funcIdx] = fn
}

// NewClosure allocates a closure over funcIdx and returns the owning
// handle. Captures are retained by the allocation.
func (c *Context) NewClosure(funcIdx int32, captures []Value) Value {
	return MakeClosure(c.Heap.AllocClosure(funcIdx, captures))
}

// InvokeClosure calls the body a closure handle designates, with the
// captures prepended to args.
func (c *Context) InvokeClosure(closure Value, args []Value) (Value, error) {
	if closure.Kind != VKClosure {
		return Value{}, errTypeMismatch("call", closure.Kind)
	}
	obj := c.Heap.slot(closure.H)
	if obj == nil || obj.Kind != OKClosure || obj.Strong <= 0 {
		return Value{}, errInvalidHandle("closure", closure.H)
	}
	fn := c.funcs[obj.Closure.FuncIdx]
	if fn == nil {
		return Value{}, &VMError{Code: PanicInvalidHandle, Message: fmt.Sprintf("call: no body registered for function %d", obj.Closure.FuncIdx)}
	}

	callArgs := make([]Value, 0, len(obj.Closure.Captures)+len(args))
	callArgs = append(callArgs, obj.Closure.Captures...)
	callArgs = append(callArgs, args...)
	return fn(c, callArgs)
}
