package vm

import "fmt"

// PanicCode identifies the kind of runtime fault.
type PanicCode int

// Stable fault codes - do not change values.
const (
	PanicTypeMismatch     PanicCode = 1001 // RT1001: operator applied to mismatched kinds
	PanicDivisionByZero   PanicCode = 1002 // RT1002: integer division or modulo by zero
	PanicOutOfBounds      PanicCode = 1003 // RT1003: index outside container bounds
	PanicInvalidHandle    PanicCode = 1004 // RT1004: heap id out of range or wrong kind
	PanicInvalidCast      PanicCode = 1005 // RT1005: unsupported cast
	PanicYieldOutsideCoro PanicCode = 1006 // RT1006: yield with no active coroutine

	PanicHeapExhausted PanicCode = 1101 // RT1101: heap slot table full
	PanicCoroExhausted PanicCode = 1102 // RT1102: coroutine table full
)

// String returns the code as "RT1001" format.
func (c PanicCode) String() string {
	return fmt.Sprintf("RT%d", c)
}

// VMError is a script-level fault surfaced to the embedding host.
// Type, bounds, and cast faults are returned as recoverable errors;
// capacity exhaustion is raised as a Go panic carrying the same type,
// since the fixed-capacity design has no recovery path.
type VMError struct {
	Code    PanicCode
	Message string
}

// Error implements the error interface.
func (e *VMError) Error() string {
	return fmt.Sprintf("panic %s: %s", e.Code, e.Message)
}

func errTypeMismatch(op string, got ...ValueKind) *VMError {
	msg := "type error in " + op
	if len(got) > 0 {
		msg += ": got"
		for i, k := range got {
			if i > 0 {
				msg += ","
			}
			msg += " " + k.String()
		}
	}
	return &VMError{Code: PanicTypeMismatch, Message: msg}
}

func errDivisionByZero(op string) *VMError {
	return &VMError{Code: PanicDivisionByZero, Message: "division by zero in " + op}
}

func errOutOfBounds(index int64, length int) *VMError {
	return &VMError{Code: PanicOutOfBounds, Message: fmt.Sprintf("index %d out of bounds for length %d", index, length)}
}

func errInvalidHandle(what string, id ObjectID) *VMError {
	return &VMError{Code: PanicInvalidHandle, Message: fmt.Sprintf("%s: invalid handle %d", what, id)}
}

func errInvalidCast(from, to ValueKind) *VMError {
	return &VMError{Code: PanicInvalidCast, Message: fmt.Sprintf("invalid cast from %s to %s", from, to)}
}

// fatalf raises a non-recoverable fault. Capacity exhaustion and broken
// heap invariants abort the context rather than returning an error.
func fatalf(code PanicCode, format string, args ...any) {
	panic(&VMError{Code: code, Message: fmt.Sprintf(format, args...)})
}
