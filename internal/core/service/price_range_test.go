package service

import "testing"

func TestParsePriceRange(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		raw      string
		min, max *float64
	}{
		{"", nil, nil},
		{"   ", nil, nil},
		{"1-5", f(1), f(5)},
		{"1.5-2.25", f(1.5), f(2.25)},
		{" 2 - 3 ", f(2), f(3)},
		{"2-", f(2), nil},
		{"-5", nil, f(5)},
		{"abc-5", nil, f(5)},
		{"3-xyz", f(3), nil},
		{"7", f(7), nil},
		{"NaN-Inf", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			gotMin, gotMax := ParsePriceRange(tt.raw)
			if !sameBound(gotMin, tt.min) || !sameBound(gotMax, tt.max) {
				t.Fatalf("ParsePriceRange(%q) = %v, %v; want %v, %v", tt.raw, deref(gotMin), deref(gotMax), deref(tt.min), deref(tt.max))
			}
		})
	}
}

func sameBound(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
