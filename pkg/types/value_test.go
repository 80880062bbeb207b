package types

import "testing"

func TestValueEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same string", Str("x"), Str("x"), true},
		{"different string", Str("x"), Str("y"), false},
		{"string vs int never equal", Str("1"), Int(1), false},
		{"same int", Int(5), Int(5), true},
		{"null equals null", Null, Null, true},
		{"null does not equal labeled null", Null, LabeledNull(1), false},
		{"labeled nulls equal iff same label", LabeledNull(1), LabeledNull(1), true},
		{"labeled nulls differ by label", LabeledNull(1), LabeledNull(2), false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.a.Equal(c.b); got != c.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestIsNullLike(t *testing.T) {
	if !Null.IsNullLike() {
		t.Error("Null should be null-like")
	}
	if !LabeledNull(3).IsNullLike() {
		t.Error("LabeledNull should be null-like")
	}
	if Str("x").IsNullLike() {
		t.Error("Str should not be null-like")
	}
	if Int(0).IsNullLike() {
		t.Error("Int(0) should not be null-like")
	}
}
