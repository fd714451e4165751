package types

import (
	"encoding/json"
	"testing"
)

func TestQuantity_ParseAndString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Quantity
	}{
		{"integer", "5", 50_000},
		{"fraction", "2.5", 25_000},
		{"four digits", "0.0001", 1},
		{"truncates extra digits", "1.23456", 12_345},
		{"negative", "-3.25", -32_500},
		{"quoted", `"12.75"`, 127_500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			if err := json.Unmarshal([]byte(tt.in), &q); err != nil {
				t.Fatalf("unmarshal %q: %v", tt.in, err)
			}
			if q != tt.want {
				t.Errorf("parse %q = %d, want %d", tt.in, q, tt.want)
			}
		})
	}
}

func TestQuantity_RoundTrip(t *testing.T) {
	q := NewQuantityFromFloat64(12.3456)

	data, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "12.3456" {
		t.Errorf("marshal = %s, want 12.3456", data)
	}

	var back Quantity
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != q {
		t.Errorf("round trip = %d, want %d", back, q)
	}
}

func TestQuantity_Decimal(t *testing.T) {
	q := NewQuantityFromFloat64(2.5)
	if got := q.Decimal().String(); got != "2.5" {
		t.Errorf("Decimal() = %s, want 2.5", got)
	}
}

func TestQuantity_SignHelpers(t *testing.T) {
	q := NewQuantityFromFloat64(3)
	if !q.IsPositive() || q.IsNegative() || q.IsZero() {
		t.Errorf("sign helpers wrong for %v", q)
	}
	if q.Neg() != -q || q.Neg().Abs() != q {
		t.Errorf("Neg/Abs wrong for %v", q)
	}
}
