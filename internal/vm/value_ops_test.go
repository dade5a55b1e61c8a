package vm

import (
	"errors"
	"math"
	"testing"
)

func TestAddPromotion(t *testing.T) {
	c := NewContext(Options{})

	got, err := c.Add(MakeInt(2), MakeInt(3))
	if err != nil || got.Kind != VKInt || got.Int != 5 {
		t.Fatalf("int add: got %+v err %v", got, err)
	}
	got, err = c.Add(MakeInt(2), MakeFloat(0.5))
	if err != nil || got.Kind != VKFloat || got.Float != 2.5 {
		t.Fatalf("mixed add must promote to float: got %+v err %v", got, err)
	}
	got, err = c.Add(MakeFloat(1.5), MakeFloat(2.5))
	if err != nil || got.Kind != VKFloat || got.Float != 4.0 {
		t.Fatalf("float add: got %+v err %v", got, err)
	}
	got, err = c.Add(MakeString("ab"), MakeString("cd"))
	if err != nil || got.Kind != VKString || got.Str != "abcd" {
		t.Fatalf("string add: got %+v err %v", got, err)
	}
	if _, err := c.Add(MakeInt(1), MakeString("x")); err == nil {
		t.Fatalf("int + string must fail")
	}
}

func TestSubMulNeg(t *testing.T) {
	c := NewContext(Options{})

	got, _ := c.Sub(MakeInt(7), MakeInt(3))
	if got.Int != 4 {
		t.Fatalf("sub: got %d", got.Int)
	}
	got, _ = c.Mul(MakeInt(4), MakeFloat(0.5))
	if got.Kind != VKFloat || got.Float != 2.0 {
		t.Fatalf("mixed mul: got %+v", got)
	}
	got, _ = c.Neg(MakeInt(5))
	if got.Kind != VKInt || got.Int != -5 {
		t.Fatalf("int neg: got %+v", got)
	}
	got, _ = c.Neg(MakeFloat(2.5))
	if got.Kind != VKFloat || got.Float != -2.5 {
		t.Fatalf("float neg: got %+v", got)
	}
	if _, err := c.Neg(MakeBool(true)); err == nil {
		t.Fatalf("neg of bool must fail")
	}
}

func TestDivModByZeroIsRecoverable(t *testing.T) {
	c := NewContext(Options{})

	got, err := c.Div(MakeInt(7), MakeInt(2))
	if err != nil || got.Int != 3 {
		t.Fatalf("int div: got %+v err %v", got, err)
	}

	var vmErr *VMError
	_, err = c.Div(MakeInt(1), MakeInt(0))
	if !errors.As(err, &vmErr) || vmErr.Code != PanicDivisionByZero {
		t.Fatalf("int div by zero: got %v", err)
	}
	_, err = c.Div(MakeFloat(1), MakeFloat(0))
	if !errors.As(err, &vmErr) || vmErr.Code != PanicDivisionByZero {
		t.Fatalf("float div by zero: got %v", err)
	}
	_, err = c.Mod(MakeInt(1), MakeInt(0))
	if !errors.As(err, &vmErr) || vmErr.Code != PanicDivisionByZero {
		t.Fatalf("mod by zero: got %v", err)
	}

	got, err = c.Mod(MakeInt(7), MakeInt(3))
	if err != nil || got.Int != 1 {
		t.Fatalf("int mod: got %+v err %v", got, err)
	}
	got, err = c.Mod(MakeFloat(7.5), MakeFloat(2))
	if err != nil || got.Float != 1.5 {
		t.Fatalf("float mod: got %+v err %v", got, err)
	}
}

func TestPowAlwaysFloat(t *testing.T) {
	c := NewContext(Options{})
	got, err := c.Pow(MakeInt(2), MakeInt(10))
	if err != nil || got.Kind != VKFloat || got.Float != 1024.0 {
		t.Fatalf("pow: got %+v err %v", got, err)
	}
	got, _ = c.Pow(MakeFloat(4), MakeFloat(0.5))
	if got.Float != 2.0 {
		t.Fatalf("fractional pow: got %+v", got)
	}
}

func TestBoolOps(t *testing.T) {
	c := NewContext(Options{})
	got, _ := c.Not(MakeBool(true))
	if got.Bool {
		t.Fatalf("not true = true")
	}
	got, _ = c.And(MakeBool(true), MakeBool(false))
	if got.Bool {
		t.Fatalf("true && false = true")
	}
	got, _ = c.Or(MakeBool(false), MakeBool(true))
	if !got.Bool {
		t.Fatalf("false || true = false")
	}
	if _, err := c.And(MakeInt(1), MakeBool(true)); err == nil {
		t.Fatalf("and on int must fail")
	}
}

func TestEqByKind(t *testing.T) {
	c := NewContext(Options{})

	eq := []struct{ a, b Value }{
		{MakeInt(3), MakeInt(3)},
		{MakeFloat(2.5), MakeFloat(2.5)},
		{MakeBool(false), MakeBool(false)},
		{MakeChar('x'), MakeChar('x')},
		{MakeNil(), MakeNil()},
		{MakeNone(), MakeNone()},
		{MakeString("ab"), MakeString("ab")},
		{MakeTypeDesc("Point"), MakeTypeDesc("Point")},
		{MakeEnum(2, 1), MakeEnum(2, 1)},
		{MakeRef(5), MakeRef(5)},
		{MakeClosure(7), MakeClosure(7)},
		{MakeCoroutine(0), MakeCoroutine(0)},
	}
	for _, tc := range eq {
		if !c.Eq(tc.a, tc.b) {
			t.Errorf("%s values must compare equal", tc.a.Kind)
		}
	}

	ne := []struct{ a, b Value }{
		{MakeInt(3), MakeInt(4)},
		{MakeInt(3), MakeFloat(3)}, // no cross-kind numeric equality
		{MakeEnum(2, 1), MakeEnum(3, 1)},
		{MakeRef(5), MakeRef(6)},
		{MakeArrayOf(MakeInt(1)), MakeArrayOf(MakeInt(1))}, // containers never equal
		{MakeTable(), MakeTable()},
		{MakeSome(MakeInt(1)), MakeSome(MakeInt(1))},
	}
	for _, tc := range ne {
		if c.Eq(tc.a, tc.b) {
			t.Errorf("%s/%s values must not compare equal", tc.a.Kind, tc.b.Kind)
		}
	}
}

func TestOrdering(t *testing.T) {
	c := NewContext(Options{})

	got, _ := c.Lt(MakeInt(1), MakeInt(2))
	if !got.Bool {
		t.Fatalf("1 < 2 = false")
	}
	got, _ = c.Le(MakeInt(2), MakeInt(2))
	if !got.Bool {
		t.Fatalf("2 <= 2 = false")
	}
	got, _ = c.Lt(MakeFloat(1.5), MakeFloat(1.4))
	if got.Bool {
		t.Fatalf("1.5 < 1.4 = true")
	}
	got, _ = c.Lt(MakeChar('a'), MakeChar('b'))
	if !got.Bool {
		t.Fatalf("'a' < 'b' = false")
	}
	// ordering never promotes across kinds
	if _, err := c.Lt(MakeInt(1), MakeFloat(2)); err == nil {
		t.Fatalf("int < float must fail")
	}
	if _, err := c.Le(MakeString("a"), MakeString("b")); err == nil {
		t.Fatalf("string ordering must fail")
	}
}

func TestFloatSpecialValues(t *testing.T) {
	c := NewContext(Options{})
	nan := MakeFloat(math.NaN())
	if c.Eq(nan, nan) {
		t.Fatalf("NaN must not equal itself")
	}
	inf, err := c.Div(MakeFloat(1), MakeFloat(0))
	if err == nil {
		t.Fatalf("float 1/0 returned %+v, want fault", inf)
	}
}
