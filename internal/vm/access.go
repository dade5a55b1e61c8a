package vm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normKey canonicalizes a field key. Composed and decomposed spellings
// of the same text address the same field.
func normKey(key string) string {
	return norm.NFC.String(key)
}

// GetField reads a table field. The receiver may be a Ref to a heap
// table or an inline table value; missing fields read as nil. The
// result is borrowed, not retained.
func (c *Context) GetField(table Value, key string) (Value, error) {
	key = normKey(key)

	if table.Kind == VKRef {
		obj := c.Heap.slot(table.H)
		if obj == nil || obj.Kind != OKTable {
			return Value{}, errInvalidHandle("get_field: ref is not a table", table.H)
		}
		for _, e := range obj.Table.Entries {
			if e.Key == key {
				return e.Val, nil
			}
		}
		return MakeNil(), nil
	}

	if table.Kind != VKTable {
		return Value{}, errTypeMismatch("get_field", table.Kind)
	}
	for _, e := range table.Entries {
		if e.Key == key {
			return e.Val, nil
		}
	}
	return MakeNil(), nil
}

// SetField writes a table field, replacing any existing entry. On
// replacement the old value is released before the retained new value
// is stored. Heap-table stores record the child edge and dirty the
// object.
func (c *Context) SetField(table *Value, key string, v Value) error {
	key = normKey(key)

	if table.Kind == VKRef {
		obj := c.Heap.slot(table.H)
		if obj == nil || obj.Kind != OKTable {
			return errInvalidHandle("set_field: ref is not a table", table.H)
		}
		for i := range obj.Table.Entries {
			if obj.Table.Entries[i].Key == key {
				c.Release(obj.Table.Entries[i].Val)
				obj.Table.Entries[i].Val = c.Retain(v)
				c.Heap.TrackRef(table.H, v)
				c.Heap.markDirty(obj)
				return nil
			}
		}
		obj.Table.Entries = append(obj.Table.Entries, TableEntry{Key: key, Val: c.Retain(v)})
		c.Heap.TrackRef(table.H, v)
		c.Heap.markDirty(obj)
		return nil
	}

	if table.Kind != VKTable {
		return errTypeMismatch("set_field", table.Kind)
	}
	for i := range table.Entries {
		if table.Entries[i].Key == key {
			c.Release(table.Entries[i].Val)
			table.Entries[i].Val = c.Retain(v)
			return nil
		}
	}
	table.Entries = append(table.Entries, TableEntry{Key: key, Val: c.Retain(v)})
	return nil
}

// GetIndex reads container[idx]. Containers are heap arrays (via Ref),
// inline arrays, and strings; string indexing yields a char. The result
// is borrowed, not retained.
func (c *Context) GetIndex(container Value, idx Value) (Value, error) {
	if idx.Kind != VKInt {
		return Value{}, errTypeMismatch("get_index", idx.Kind)
	}
	i := idx.Int

	switch container.Kind {
	case VKRef:
		obj := c.Heap.slot(container.H)
		if obj == nil || obj.Kind != OKArray {
			return Value{}, errInvalidHandle("get_index: ref is not an array", container.H)
		}
		if i < 0 || i >= int64(len(obj.Array.Elems)) {
			return Value{}, errOutOfBounds(i, len(obj.Array.Elems))
		}
		return obj.Array.Elems[i], nil
	case VKArray:
		if i < 0 || i >= int64(len(container.Elems)) {
			return Value{}, errOutOfBounds(i, len(container.Elems))
		}
		return container.Elems[i], nil
	case VKString:
		if i < 0 || i >= int64(len(container.Str)) {
			return Value{}, errOutOfBounds(i, len(container.Str))
		}
		return MakeChar(container.Str[i]), nil
	}
	return Value{}, errTypeMismatch("get_index", container.Kind)
}

// SetIndex writes container[idx] = v for heap or inline arrays. The old
// element is released before the retained new value is stored; heap
// stores record the child edge and dirty the object.
func (c *Context) SetIndex(container *Value, idx Value, v Value) error {
	if idx.Kind != VKInt {
		return errTypeMismatch("set_index", idx.Kind)
	}
	i := idx.Int

	switch container.Kind {
	case VKRef:
		obj := c.Heap.slot(container.H)
		if obj == nil || obj.Kind != OKArray {
			return errInvalidHandle("set_index: ref is not an array", container.H)
		}
		if i < 0 || i >= int64(len(obj.Array.Elems)) {
			return errOutOfBounds(i, len(obj.Array.Elems))
		}
		c.Release(obj.Array.Elems[i])
		obj.Array.Elems[i] = c.Retain(v)
		c.Heap.markDirty(obj)
		return nil
	case VKArray:
		if i < 0 || i >= int64(len(container.Elems)) {
			return errOutOfBounds(i, len(container.Elems))
		}
		c.Release(container.Elems[i])
		container.Elems[i] = c.Retain(v)
		return nil
	}
	return errTypeMismatch("set_index", container.Kind)
}

// Length returns the element count of an array (heap or inline) or the
// byte length of a string.
func (c *Context) Length(v Value) (Value, error) {
	switch v.Kind {
	case VKRef:
		obj := c.Heap.slot(v.H)
		if obj == nil || obj.Kind != OKArray {
			return Value{}, errInvalidHandle("get_length: ref is not an array", v.H)
		}
		return MakeInt(int64(len(obj.Array.Elems))), nil
	case VKArray:
		return MakeInt(int64(len(v.Elems))), nil
	case VKString:
		return MakeInt(int64(len(v.Str))), nil
	}
	return Value{}, errTypeMismatch("get_length", v.Kind)
}

// Slice returns container[start:end] for strings and inline arrays.
// A negative end means "to the end"; bounds are clamped, and start
// above end yields an empty result. Sliced elements are borrowed.
func (c *Context) Slice(container, start, end Value) (Value, error) {
	if start.Kind != VKInt || end.Kind != VKInt {
		return Value{}, errTypeMismatch("slice", start.Kind, end.Kind)
	}
	lo, hi := start.Int, end.Int

	clamp := func(n int) (int64, int64) {
		l, h := lo, hi
		if h < 0 {
			h = int64(n)
		}
		if l < 0 {
			l = 0
		}
		if h > int64(n) {
			h = int64(n)
		}
		if l > h {
			l = h
		}
		return l, h
	}

	switch container.Kind {
	case VKString:
		l, h := clamp(len(container.Str))
		return MakeString(container.Str[l:h]), nil
	case VKArray:
		l, h := clamp(len(container.Elems))
		out := make([]Value, h-l)
		copy(out, container.Elems[l:h])
		return Value{Kind: VKArray, Elems: out}, nil
	}
	return Value{}, errTypeMismatch("slice", container.Kind)
}

// Concat joins two strings or two inline arrays. Array elements are
// copied without retaining: the operands' ownership transfers to the
// result.
func (c *Context) Concat(a, b Value) (Value, error) {
	if a.Kind == VKString && b.Kind == VKString {
		return MakeString(a.Str + b.Str), nil
	}
	if a.Kind == VKArray && b.Kind == VKArray {
		out := make([]Value, 0, len(a.Elems)+len(b.Elems))
		out = append(out, a.Elems...)
		out = append(out, b.Elems...)
		return Value{Kind: VKArray, Elems: out}, nil
	}
	return Value{}, errTypeMismatch("concat", a.Kind, b.Kind)
}

// In reports membership: element of an array (by Eq), char in string,
// or substring in string. Unsupported combinations are false.
func (c *Context) In(elem, container Value) bool {
	switch {
	case container.Kind == VKArray:
		for _, e := range container.Elems {
			if c.Eq(elem, e) {
				return true
			}
		}
		return false
	case container.Kind == VKString && elem.Kind == VKChar:
		return strings.IndexByte(container.Str, elem.Char) >= 0
	case container.Kind == VKString && elem.Kind == VKString:
		return strings.Contains(container.Str, elem.Str)
	}
	return false
}
