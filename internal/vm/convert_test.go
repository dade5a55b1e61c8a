package vm

import (
	"errors"
	"math"
	"strconv"
	"testing"
)

func TestToStringScalars(t *testing.T) {
	cases := []struct {
		val  Value
		want string
	}{
		{MakeInt(42), "42"},
		{MakeInt(-1), "-1"},
		{MakeBool(true), "true"},
		{MakeBool(false), "false"},
		{MakeChar('q'), "q"},
		{MakeNil(), "nil"},
		{MakeNone(), "none"},
		{MakeString("plain"), "plain"},
		{MakeEnumNamed(1, 0, "Suit.Hearts"), "Suit.Hearts"},
		{MakeEnum(1, 3), "EnumValue_3"},
		{MakeTypeDesc("MyType"), "MyType"},
		{MakeArrayOf(MakeInt(1)), "<value>"},
		{MakeTable(), "<value>"},
		{MakeRef(3), "<value>"},
		{MakeSome(MakeInt(1)), "<value>"},
	}
	for _, tc := range cases {
		if got := ToString(tc.val); got != tc.want {
			t.Errorf("to_string of %s: got %q, want %q", tc.val.Kind, got, tc.want)
		}
	}
}

func TestToStringFloatsAlwaysCarryPoint(t *testing.T) {
	cases := []struct {
		f    float64
		want string
	}{
		{1, "1.0"},
		{-3, "-3.0"},
		{0, "0.0"},
		{0.5, "0.5"},
		{2.25, "2.25"},
		{1e21, "1000000000000000000000.0"},
		{1e-7, "1e-07"},
	}
	for _, tc := range cases {
		if got := ToString(MakeFloat(tc.f)); got != tc.want {
			t.Errorf("to_string(%v): got %q, want %q", tc.f, got, tc.want)
		}
	}
	if got := ToString(MakeFloat(math.NaN())); got != "NaN" {
		t.Errorf("NaN renders %q", got)
	}
	if got := ToString(MakeFloat(math.Inf(1))); got != "+Inf" {
		t.Errorf("+Inf renders %q", got)
	}
}

func TestFloatTextRoundTrips(t *testing.T) {
	for _, f := range []float64{0.1, 1.0 / 3.0, math.Pi, 123456.789, 5e-300} {
		s := ToString(MakeFloat(f))
		back, err := strconv.ParseFloat(s, 64)
		if err != nil || back != f {
			t.Errorf("round trip of %v via %q: got %v err %v", f, s, back, err)
		}
	}
}

func TestCastConversions(t *testing.T) {
	cases := []struct {
		val    Value
		target ValueKind
		want   Value
	}{
		{MakeFloat(3.9), VKInt, MakeInt(3)}, // truncation toward zero
		{MakeFloat(-3.9), VKInt, MakeInt(-3)},
		{MakeBool(true), VKInt, MakeInt(1)},
		{MakeBool(false), VKInt, MakeInt(0)},
		{MakeChar('A'), VKInt, MakeInt(65)},
		{MakeEnum(4, 2), VKInt, MakeInt(2)},
		{MakeInt(65), VKChar, MakeChar('A')},
		{MakeInt(5), VKFloat, MakeFloat(5)},
		{MakeInt(0), VKBool, MakeBool(false)},
		{MakeInt(-2), VKBool, MakeBool(true)},
		{MakeInt(7), VKString, MakeString("7")},
		{MakeFloat(2.5), VKString, MakeString("2.5")},
		{MakeBool(true), VKString, MakeString("true")},
		{MakeInt(9), VKInt, MakeInt(9)}, // identity
	}
	for _, tc := range cases {
		got, err := Cast(tc.val, tc.target)
		if err != nil {
			t.Errorf("cast %s->%s failed: %v", tc.val.Kind, tc.target, err)
			continue
		}
		if got.Kind != tc.want.Kind || got.Int != tc.want.Int || got.Float != tc.want.Float ||
			got.Bool != tc.want.Bool || got.Char != tc.want.Char || got.Str != tc.want.Str {
			t.Errorf("cast %s->%s: got %+v, want %+v", tc.val.Kind, tc.target, got, tc.want)
		}
	}

	var vmErr *VMError
	_, err := Cast(MakeString("5"), VKInt)
	if !errors.As(err, &vmErr) || vmErr.Code != PanicInvalidCast {
		t.Fatalf("string->int cast: got %v, want invalid cast (use parse_int)", err)
	}
	if _, err := Cast(MakeNil(), VKFloat); err == nil {
		t.Fatalf("nil->float cast must fail")
	}
}

func TestTypeDescCastHashesName(t *testing.T) {
	// The hash constants are observable behavior: these values are
	// pinned and must never drift.
	cases := []struct {
		name string
		want int64
	}{
		{"int", 886456748},
		{"float", 575325287},
		{"Point", 1323574955},
		{"MyType", 473006369},
	}
	for _, tc := range cases {
		got, err := Cast(MakeTypeDesc(tc.name), VKInt)
		if err != nil || got.Int != tc.want {
			t.Errorf("typedesc %q: got %d err %v, want %d", tc.name, got.Int, err, tc.want)
		}
		if got.Int < 0 {
			t.Errorf("typedesc hash of %q is negative", tc.name)
		}
	}
}

func TestParseHelpers(t *testing.T) {
	got := ParseInt("42")
	if got.Kind != VKOk || got.Wrapped.Int != 42 {
		t.Fatalf("parse_int(42): got %+v", got)
	}
	got = ParseInt("abc")
	if got.Kind != VKErr || got.Wrapped.Str != "unable to parse int from 'abc'" {
		t.Fatalf("parse_int(abc): got %+v", got)
	}
	got = ParseInt("2.5")
	if got.Kind != VKErr {
		t.Fatalf("parse_int of a float literal must fail: %+v", got)
	}

	got = ParseFloat("2.5")
	if got.Kind != VKOk || got.Wrapped.Float != 2.5 {
		t.Fatalf("parse_float(2.5): got %+v", got)
	}
	got = ParseFloat("x")
	if got.Kind != VKErr || got.Wrapped.Str != "unable to parse float from 'x'" {
		t.Fatalf("parse_float(x): got %+v", got)
	}

	got = ParseBool("true")
	if got.Kind != VKOk || !got.Wrapped.Bool {
		t.Fatalf("parse_bool(true): got %+v", got)
	}
	got = ParseBool("TRUE")
	if got.Kind != VKErr {
		t.Fatalf("parse_bool is case-sensitive: got %+v", got)
	}
}
