package vm

// DeepCopy duplicates a value where value semantics must not alias.
// Scalars pass through; handle kinds are retained and keep their id
// (the copy shares the heap object); inline arrays and tables get
// fresh buffers with every element deep-copied; wrappers deep-copy
// their payload.
func (c *Context) DeepCopy(v Value) Value {
	switch v.Kind {
	case VKArray:
		out := v
		out.Elems = make([]Value, len(v.Elems))
		for i, e := range v.Elems {
			out.Elems[i] = c.DeepCopy(e)
		}
		return out
	case VKTable:
		out := v
		out.Entries = make([]TableEntry, len(v.Entries))
		for i, e := range v.Entries {
			out.Entries[i] = TableEntry{Key: e.Key, Val: c.DeepCopy(e.Val)}
		}
		return out
	case VKSome, VKOk, VKErr:
		inner := c.DeepCopy(*v.Wrapped)
		return Value{Kind: v.Kind, Wrapped: &inner}
	default:
		// Scalars copy by value; refs, closures, and coroutines
		// share the referent under a fresh strong reference.
		return c.Retain(v)
	}
}
