package vm

// Retain takes a strong reference on the heap object or coroutine a
// value designates. Non-handle kinds pass through untouched. Returns v
// so stores can retain in place.
func (c *Context) Retain(v Value) Value {
	switch v.Kind {
	case VKRef, VKClosure:
		if obj := c.Heap.slot(v.H); obj != nil {
			obj.Strong++
		}
	case VKCoroutine:
		c.coroRetain(v.Coro)
	}
	return v
}

// Release drops the strong reference a value designates, freeing the
// object when its count reaches zero. Inline containers are uniquely
// owned: releasing an array or table value releases its elements. Weak
// handles release nothing.
func (c *Context) Release(v Value) {
	switch v.Kind {
	case VKRef, VKClosure:
		c.releaseObject(v.H)
	case VKCoroutine:
		c.coroRelease(v.Coro)
	case VKArray:
		for _, e := range v.Elems {
			c.Release(e)
		}
	case VKTable:
		for _, e := range v.Entries {
			c.Release(e.Val)
		}
	}
}

// releaseObject decrements a slot's strong count and frees it at zero.
func (c *Context) releaseObject(id ObjectID) {
	obj := c.Heap.slot(id)
	if obj == nil {
		return
	}
	obj.Strong--
	if obj.Strong <= 0 {
		c.freeObject(id)
	}
}

// freeObject tears a slot down: the destructor runs exactly once under
// the reentrancy guard, owned children are released, the weak target is
// notified, and the slot becomes reusable. Frees re-entered for the
// same id while its destructor runs are ignored; frees of other ids may
// nest.
func (c *Context) freeObject(id ObjectID) {
	obj := c.Heap.slot(id)
	if obj == nil {
		return
	}
	if c.Heap.destructorActive(id) {
		return
	}

	if obj.Dtor != nil && obj.Kind == OKScalar {
		c.Heap.destructorPush(id)
		obj.Dtor(c, obj.Scalar)
		c.Heap.destructorPop()
	} else if obj.Dtor != nil && obj.Kind == OKTable {
		c.Heap.destructorPush(id)
		obj.Dtor(c, MakeRef(id))
		c.Heap.destructorPop()
	}

	// Detach the payload before releasing children: on a mutual cycle
	// the releases below re-enter freeObject for this id, and the
	// re-entry must find the slot already empty or the cascade never
	// terminates.
	switch obj.Kind {
	case OKTable:
		entries := obj.Table.Entries
		obj.Table = TableData{}
		for _, e := range entries {
			c.Release(e.Val)
		}
	case OKArray:
		elems := obj.Array.Elems
		obj.Array = ArrayData{}
		for _, e := range elems {
			c.Release(e)
		}
	case OKClosure:
		captures := obj.Closure.Captures
		obj.Closure = ClosureData{}
		for _, cv := range captures {
			c.Release(cv)
		}
	case OKWeak:
		if t := c.Heap.slot(obj.Target); t != nil && t.Weak > 0 {
			t.Weak--
		}
		obj.Target = 0
	case OKScalar:
		// The boxed value is dropped, not released: scalar cells
		// release only on replacement via SetScalar.
		obj.Scalar = MakeNil()
	}

	obj.Strong = 0
	obj.Dtor = nil
}
