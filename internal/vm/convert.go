package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// formatFloat renders a float with a decimal point always present:
// integral values as "X.0", everything else in shortest round-trip
// form with ".0" appended when neither a point nor an exponent made it
// into the output.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// ToString converts a value to its string form: the conversion used by
// casts and by script-level string building. Container and handle
// kinds have no stable text form and collapse to "<value>"; use
// Value.String for display formatting instead.
func ToString(v Value) string {
	switch v.Kind {
	case VKInt:
		return strconv.FormatInt(v.Int, 10)
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
	case VKEnum:
		if v.Str != "" {
			return v.Str
		}
		return fmt.Sprintf("EnumValue_%d", v.Int)
	case VKTypeDesc:
		return v.Str
	default:
		return "<value>"
	}
}

// typeDescHash folds a type name to a stable non-negative int via
// FNV-1a, masked to 31 bits. The constants are part of the language's
// observable behavior; do not correct them.
func typeDescHash(name string) int64 {
	hash := uint64(1469598103934665603)
	for i := 0; i < len(name); i++ {
		hash ^= uint64(name[i])
		hash *= 1099511628211
	}
	return int64(hash & 0x7FFFFFFF)
}

// Cast converts v to the target kind. Identity casts pass through.
// Supported: float/bool/char/enum/typedesc to int, int to float, int
// to bool, int to char, anything to string.
func Cast(v Value, target ValueKind) (Value, error) {
	if v.Kind == target {
		return v, nil
	}

	switch target {
	case VKInt:
		switch v.Kind {
		case VKFloat:
			return MakeInt(int64(v.Float)), nil
		case VKBool:
			if v.Bool {
				return MakeInt(1), nil
			}
			return MakeInt(0), nil
		case VKChar:
			return MakeInt(int64(v.Char)), nil
		case VKEnum:
			return MakeInt(v.Int), nil
		case VKTypeDesc:
			return MakeInt(typeDescHash(v.Str)), nil
		}
	case VKFloat:
		if v.Kind == VKInt {
			return MakeFloat(float64(v.Int)), nil
		}
	case VKBool:
		if v.Kind == VKInt {
			return MakeBool(v.Int != 0), nil
		}
	case VKChar:
		if v.Kind == VKInt {
			return MakeChar(byte(v.Int)), nil
		}
	case VKString:
		return MakeString(ToString(v)), nil
	}

	return Value{}, errInvalidCast(v.Kind, target)
}

// ParseInt parses a base-10 integer, returning Ok(int) or Err(message)
// as a script-level result.
func ParseInt(s string) Value {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return MakeErr(MakeString(fmt.Sprintf("unable to parse int from '%s'", s)))
	}
	return MakeOk(MakeInt(n))
}

// ParseFloat parses a float, returning Ok(float) or Err(message).
func ParseFloat(s string) Value {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return MakeErr(MakeString(fmt.Sprintf("unable to parse float from '%s'", s)))
	}
	return MakeOk(MakeFloat(f))
}

// ParseBool parses exactly "true" or "false", returning Ok(bool) or
// Err(message).
func ParseBool(s string) Value {
	switch s {
	case "true":
		return MakeOk(MakeBool(true))
	case "false":
		return MakeOk(MakeBool(false))
	}
	return MakeErr(MakeString(fmt.Sprintf("unable to parse bool from '%s'", s)))
}
