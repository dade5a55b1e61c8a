package vm

import "testing"

func TestValueKindNames(t *testing.T) {
	cases := []struct {
		kind ValueKind
		want string
	}{
		{VKInvalid, "invalid"},
		{VKInt, "int"},
		{VKFloat, "float"},
		{VKBool, "bool"},
		{VKChar, "char"},
		{VKNil, "nil"},
		{VKNone, "none"},
		{VKString, "string"},
		{VKArray, "array"},
		{VKTable, "table"},
		{VKEnum, "enum"},
		{VKSome, "some"},
		{VKOk, "ok"},
		{VKErr, "err"},
		{VKRef, "ref"},
		{VKClosure, "closure"},
		{VKWeak, "weak"},
		{VKCoroutine, "coroutine"},
		{VKTypeDesc, "typedesc"},
	}
	for _, tc := range cases {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("kind %d: got %q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestValueStringForms(t *testing.T) {
	cases := []struct {
		val  Value
		want string
	}{
		{MakeInt(42), "42"},
		{MakeInt(-7), "-7"},
		{MakeFloat(3.0), "3.0"},
		{MakeFloat(0.5), "0.5"},
		{MakeBool(true), "true"},
		{MakeBool(false), "false"},
		{MakeChar('x'), "x"},
		{MakeNil(), "nil"},
		{MakeNone(), "none"},
		{MakeString("hello"), "hello"},
		{MakeArrayOf(MakeInt(1), MakeInt(2)), "[1, 2]"},
		{MakeArrayOf(MakeChar('a'), MakeChar('b')), "['a', 'b']"},
		{MakeArrayOf(), "[]"},
		{MakeTable(), "<table>"},
		{MakeEnum(3, 2), "EnumValue_2"},
		{MakeEnumNamed(3, 2, "Color.Green"), "Color.Green"},
		{MakeSome(MakeInt(5)), "some(5)"},
		{MakeOk(MakeString("yes")), "ok(yes)"},
		{MakeErr(MakeString("boom")), "error(boom)"},
		{MakeRef(9), "<ref#9>"},
		{MakeClosure(4), "<closure#4>"},
		{MakeWeak(2), "<weak#2>"},
		{MakeCoroutine(0), "<coroutine#0>"},
		{MakeTypeDesc("Point"), "Point"},
	}
	for _, tc := range cases {
		if got := tc.val.String(); got != tc.want {
			t.Errorf("%s value: got %q, want %q", tc.val.Kind, got, tc.want)
		}
	}
}

func TestValueIsHeap(t *testing.T) {
	if !MakeRef(1).IsHeap() || !MakeClosure(1).IsHeap() || !MakeWeak(1).IsHeap() {
		t.Fatalf("handle kinds must report IsHeap")
	}
	if MakeInt(1).IsHeap() || MakeCoroutine(0).IsHeap() || MakeArrayOf().IsHeap() {
		t.Fatalf("non-handle kinds must not report IsHeap")
	}
	if !(Value{}).IsZero() {
		t.Fatalf("zero value must report IsZero")
	}
	if MakeNil().IsZero() {
		t.Fatalf("nil value is a real value, not zero")
	}
}

func TestMakeArrayFillsNil(t *testing.T) {
	arr := MakeArray(3)
	if len(arr.Elems) != 3 {
		t.Fatalf("got %d elements, want 3", len(arr.Elems))
	}
	for i, e := range arr.Elems {
		if e.Kind != VKNil {
			t.Fatalf("element %d is %s, want nil", i, e.Kind)
		}
	}
}
