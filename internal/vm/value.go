// Package vm implements the managed-memory core of the Stride runtime:
// a reference-counted heap with cycle detection, exposed through a
// frame-budgeted collection API and a coroutine lifecycle.
package vm

import (
	"fmt"
	"strings"
)

// ValueKind identifies the runtime type of a Value.
type ValueKind uint8

const (
	// VKInvalid represents an invalid value.
	VKInvalid ValueKind = iota
	// VKInt represents a signed 64-bit integer value.
	VKInt
	// VKFloat represents a 64-bit floating point value.
	VKFloat
	// VKBool represents a boolean value.
	VKBool
	// VKChar represents a single byte character value.
	VKChar
	// VKNil represents the nil value.
	VKNil
	// VKNone represents the empty arm of an option.
	VKNone
	// VKString represents an immutable string value.
	VKString
	// VKArray represents an inline array of values.
	VKArray
	// VKTable represents an inline key/value table.
	VKTable
	// VKEnum represents an enum constant (type id + ordinal).
	VKEnum
	// VKSome represents a present option wrapping one value.
	VKSome
	// VKOk represents a success result wrapping one value.
	VKOk
	// VKErr represents a failure result wrapping one value.
	VKErr
	// VKRef represents a strong handle to a heap object.
	VKRef
	// VKClosure represents a handle to a heap closure object.
	VKClosure
	// VKWeak represents a handle to a heap weak-reference cell.
	VKWeak
	// VKCoroutine represents a coroutine handle.
	VKCoroutine
	// VKTypeDesc represents a type descriptor (type name).
	VKTypeDesc
)

// String returns a human-readable name for the value kind.
func (k ValueKind) String() string {
	switch k {
	case VKInvalid:
		return "invalid"
	case VKInt:
		return "int"
	case VKFloat:
		return "float"
	case VKBool:
		return "bool"
	case VKChar:
		return "char"
	case VKNil:
		return "nil"
	case VKNone:
		return "none"
	case VKString:
		return "string"
	case VKArray:
		return "array"
	case VKTable:
		return "table"
	case VKEnum:
		return "enum"
	case VKSome:
		return "some"
	case VKOk:
		return "ok"
	case VKErr:
		return "err"
	case VKRef:
		return "ref"
	case VKClosure:
		return "closure"
	case VKWeak:
		return "weak"
	case VKCoroutine:
		return "coroutine"
	case VKTypeDesc:
		return "typedesc"
	default:
		return fmt.Sprintf("ValueKind(%d)", k)
	}
}

// TableEntry is one key/value pair of an inline table.
type TableEntry struct {
	Key string
	Val Value
}

// Value represents a runtime value. Exactly one variant is active,
// selected by Kind; handle kinds never carry pointers into the heap,
// only ids resolved through a Context.
type Value struct {
	Kind     ValueKind
	Int      int64        // For VKInt, VKEnum ordinal
	Float    float64      // For VKFloat
	Bool     bool         // For VKBool
	Char     byte         // For VKChar
	Str      string       // For VKString, VKTypeDesc, VKEnum repr
	Elems    []Value      // For VKArray
	Entries  []TableEntry // For VKTable
	Wrapped  *Value       // For VKSome, VKOk, VKErr
	EnumType int32        // For VKEnum
	H        ObjectID     // For VKRef, VKClosure, VKWeak
	Coro     CoroID       // For VKCoroutine
}

// IsZero returns true if this is a zero/invalid value.
func (v Value) IsZero() bool {
	return v.Kind == VKInvalid
}

// IsHeap reports whether the value holds a heap handle.
func (v Value) IsHeap() bool {
	switch v.Kind {
	case VKRef, VKClosure, VKWeak:
		return true
	default:
		return false
	}
}

// String returns the display form of the value. Handle kinds render as
// "<kind#id>" since resolving them needs a Context.
func (v Value) String() string {
	switch v.Kind {
	case VKInvalid:
		return "<invalid>"
	case VKInt:
		return fmt.Sprintf("%d", v.Int)
	case VKFloat:
		return formatFloat(v.Float)
	case VKBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case VKChar:
		return string(v.Char)
	case VKNil:
		return "nil"
	case VKNone:
		return "none"
	case VKString:
		return v.Str
	case VKArray:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, e := range v.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			if e.Kind == VKChar {
				sb.WriteByte('\'')
				sb.WriteByte(e.Char)
				sb.WriteByte('\'')
			} else {
				sb.WriteString(e.String())
			}
		}
		sb.WriteByte(']')
		return sb.String()
	case VKTable:
		return "<table>"
	case VKEnum:
		if v.Str != "" {
			return v.Str
		}
		return fmt.Sprintf("EnumValue_%d", v.Int)
	case VKSome:
		return "some(" + v.Wrapped.String() + ")"
	case VKOk:
		return "ok(" + v.Wrapped.String() + ")"
	case VKErr:
		return "error(" + v.Wrapped.String() + ")"
	case VKRef:
		return fmt.Sprintf("<ref#%d>", v.H)
	case VKClosure:
		return fmt.Sprintf("<closure#%d>", v.H)
	case VKWeak:
		return fmt.Sprintf("<weak#%d>", v.H)
	case VKCoroutine:
		return fmt.Sprintf("<coroutine#%d>", v.Coro)
	case VKTypeDesc:
		return v.Str
	default:
		return fmt.Sprintf("<unknown:%d>", v.Kind)
	}
}

// MakeInt creates an integer value.
func MakeInt(n int64) Value {
	return Value{Kind: VKInt, Int: n}
}

// MakeFloat creates a float value.
func MakeFloat(f float64) Value {
	return Value{Kind: VKFloat, Float: f}
}

// MakeBool creates a boolean value.
func MakeBool(b bool) Value {
	return Value{Kind: VKBool, Bool: b}
}

// MakeChar creates a character value.
func MakeChar(c byte) Value {
	return Value{Kind: VKChar, Char: c}
}

// MakeNil creates the nil value.
func MakeNil() Value {
	return Value{Kind: VKNil}
}

// MakeNone creates the empty option value.
func MakeNone() Value {
	return Value{Kind: VKNone}
}

// MakeString creates a string value.
func MakeString(s string) Value {
	return Value{Kind: VKString, Str: s}
}

// MakeArray creates an inline array of n nil elements.
func MakeArray(n int) Value {
	elems := make([]Value, n)
	for i := range elems {
		elems[i] = MakeNil()
	}
	return Value{Kind: VKArray, Elems: elems}
}

// MakeArrayOf creates an inline array from the given elements.
// Ownership of the elements transfers to the array.
func MakeArrayOf(elems ...Value) Value {
	return Value{Kind: VKArray, Elems: elems}
}

// MakeTable creates an empty inline table.
func MakeTable() Value {
	return Value{Kind: VKTable}
}

// MakeEnum creates an enum value from a type id and an ordinal.
func MakeEnum(typeID int32, ordinal int64) Value {
	return Value{Kind: VKEnum, EnumType: typeID, Int: ordinal}
}

// MakeEnumNamed creates an enum value carrying its display name.
func MakeEnumNamed(typeID int32, ordinal int64, repr string) Value {
	return Value{Kind: VKEnum, EnumType: typeID, Int: ordinal, Str: repr}
}

// MakeSome wraps a value in the present option arm.
// Ownership of the payload transfers to the wrapper.
func MakeSome(v Value) Value {
	return Value{Kind: VKSome, Wrapped: &v}
}

// MakeOk wraps a value in the success result arm.
func MakeOk(v Value) Value {
	return Value{Kind: VKOk, Wrapped: &v}
}

// MakeErr wraps a value in the failure result arm.
func MakeErr(v Value) Value {
	return Value{Kind: VKErr, Wrapped: &v}
}

// MakeRef creates a strong handle value for a heap object id.
func MakeRef(id ObjectID) Value {
	return Value{Kind: VKRef, H: id}
}

// MakeClosure creates a closure handle value for a heap object id.
func MakeClosure(id ObjectID) Value {
	return Value{Kind: VKClosure, H: id}
}

// MakeWeak creates a weak handle value for a heap weak cell id.
func MakeWeak(id ObjectID) Value {
	return Value{Kind: VKWeak, H: id}
}

// MakeCoroutine creates a coroutine handle value.
func MakeCoroutine(id CoroID) Value {
	return Value{Kind: VKCoroutine, Coro: id}
}

// MakeTypeDesc creates a type descriptor value.
func MakeTypeDesc(name string) Value {
	return Value{Kind: VKTypeDesc, Str: name}
}
