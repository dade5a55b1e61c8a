package vm

import "math"

// numAsFloat reads an int or float operand as float64. Callers check
// kinds first.
func numAsFloat(v Value) float64 {
	if v.Kind == VKInt {
		return float64(v.Int)
	}
	return v.Float
}

// bothNumeric reports whether both operands are int or float.
func bothNumeric(a, b Value) bool {
	ok := func(v Value) bool { return v.Kind == VKInt || v.Kind == VKFloat }
	return ok(a) && ok(b)
}

// Add computes a + b: int addition, float addition with promotion when
// either side is float, or string concatenation.
func (c *Context) Add(a, b Value) (Value, error) {
	switch {
	case a.Kind == VKInt && b.Kind == VKInt:
		return MakeInt(a.Int + b.Int), nil
	case bothNumeric(a, b):
		return MakeFloat(numAsFloat(a) + numAsFloat(b)), nil
	case a.Kind == VKString && b.Kind == VKString:
		return MakeString(a.Str + b.Str), nil
	}
	return Value{}, errTypeMismatch("add", a.Kind, b.Kind)
}

// Sub computes a - b with int/float promotion.
func (c *Context) Sub(a, b Value) (Value, error) {
	switch {
	case a.Kind == VKInt && b.Kind == VKInt:
		return MakeInt(a.Int - b.Int), nil
	case bothNumeric(a, b):
		return MakeFloat(numAsFloat(a) - numAsFloat(b)), nil
	}
	return Value{}, errTypeMismatch("sub", a.Kind, b.Kind)
}

// Mul computes a * b with int/float promotion.
func (c *Context) Mul(a, b Value) (Value, error) {
	switch {
	case a.Kind == VKInt && b.Kind == VKInt:
		return MakeInt(a.Int * b.Int), nil
	case bothNumeric(a, b):
		return MakeFloat(numAsFloat(a) * numAsFloat(b)), nil
	}
	return Value{}, errTypeMismatch("mul", a.Kind, b.Kind)
}

// Div computes a / b with int/float promotion. A zero divisor is a
// recoverable fault for both kinds.
func (c *Context) Div(a, b Value) (Value, error) {
	switch {
	case a.Kind == VKInt && b.Kind == VKInt:
		if b.Int == 0 {
			return Value{}, errDivisionByZero("div")
		}
		return MakeInt(a.Int / b.Int), nil
	case bothNumeric(a, b):
		if numAsFloat(b) == 0 {
			return Value{}, errDivisionByZero("div")
		}
		return MakeFloat(numAsFloat(a) / numAsFloat(b)), nil
	}
	return Value{}, errTypeMismatch("div", a.Kind, b.Kind)
}

// Mod computes a % b with int/float promotion (fmod for floats). A zero
// divisor is a recoverable fault.
func (c *Context) Mod(a, b Value) (Value, error) {
	switch {
	case a.Kind == VKInt && b.Kind == VKInt:
		if b.Int == 0 {
			return Value{}, errDivisionByZero("mod")
		}
		return MakeInt(a.Int % b.Int), nil
	case bothNumeric(a, b):
		if numAsFloat(b) == 0 {
			return Value{}, errDivisionByZero("mod")
		}
		return MakeFloat(math.Mod(numAsFloat(a), numAsFloat(b))), nil
	}
	return Value{}, errTypeMismatch("mod", a.Kind, b.Kind)
}

// Pow computes a ** b. The result is always float.
func (c *Context) Pow(a, b Value) (Value, error) {
	if !bothNumeric(a, b) {
		return Value{}, errTypeMismatch("pow", a.Kind, b.Kind)
	}
	return MakeFloat(math.Pow(numAsFloat(a), numAsFloat(b))), nil
}

// Neg computes -a, preserving the operand kind.
func (c *Context) Neg(a Value) (Value, error) {
	switch a.Kind {
	case VKInt:
		return MakeInt(-a.Int), nil
	case VKFloat:
		return MakeFloat(-a.Float), nil
	}
	return Value{}, errTypeMismatch("neg", a.Kind)
}

// Not computes !a for booleans.
func (c *Context) Not(a Value) (Value, error) {
	if a.Kind != VKBool {
		return Value{}, errTypeMismatch("not", a.Kind)
	}
	return MakeBool(!a.Bool), nil
}

// And computes a && b for booleans. Short-circuiting is the caller's
// concern; both operands are already evaluated here.
func (c *Context) And(a, b Value) (Value, error) {
	if a.Kind != VKBool || b.Kind != VKBool {
		return Value{}, errTypeMismatch("and", a.Kind, b.Kind)
	}
	return MakeBool(a.Bool && b.Bool), nil
}

// Or computes a || b for booleans.
func (c *Context) Or(a, b Value) (Value, error) {
	if a.Kind != VKBool || b.Kind != VKBool {
		return Value{}, errTypeMismatch("or", a.Kind, b.Kind)
	}
	return MakeBool(a.Bool || b.Bool), nil
}

// Eq compares two values. Same-kind scalars compare by content, handles
// by id; inline containers and wrappers never compare equal. Across
// kinds the only defined comparison is weak-vs-nil: a weak handle
// equals nil exactly when its target is gone.
func (c *Context) Eq(a, b Value) bool {
	if a.Kind == VKWeak && b.Kind == VKNil {
		return !c.Heap.weakValid(a.H)
	}
	if a.Kind == VKNil && b.Kind == VKWeak {
		return !c.Heap.weakValid(b.H)
	}

	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case VKInt:
		return a.Int == b.Int
	case VKFloat:
		return a.Float == b.Float
	case VKBool:
		return a.Bool == b.Bool
	case VKChar:
		return a.Char == b.Char
	case VKNil, VKNone:
		return true
	case VKString, VKTypeDesc:
		return a.Str == b.Str
	case VKEnum:
		return a.EnumType == b.EnumType && a.Int == b.Int
	case VKWeak, VKRef, VKClosure:
		return a.H == b.H
	case VKCoroutine:
		return a.Coro == b.Coro
	default:
		return false
	}
}

// Lt computes a < b for matching int, float, or char operands.
func (c *Context) Lt(a, b Value) (Value, error) {
	switch {
	case a.Kind == VKInt && b.Kind == VKInt:
		return MakeBool(a.Int < b.Int), nil
	case a.Kind == VKFloat && b.Kind == VKFloat:
		return MakeBool(a.Float < b.Float), nil
	case a.Kind == VKChar && b.Kind == VKChar:
		return MakeBool(a.Char < b.Char), nil
	}
	return Value{}, errTypeMismatch("lt", a.Kind, b.Kind)
}

// Le computes a <= b for matching int, float, or char operands.
func (c *Context) Le(a, b Value) (Value, error) {
	switch {
	case a.Kind == VKInt && b.Kind == VKInt:
		return MakeBool(a.Int <= b.Int), nil
	case a.Kind == VKFloat && b.Kind == VKFloat:
		return MakeBool(a.Float <= b.Float), nil
	case a.Kind == VKChar && b.Kind == VKChar:
		return MakeBool(a.Char <= b.Char), nil
	}
	return Value{}, errTypeMismatch("le", a.Kind, b.Kind)
}
