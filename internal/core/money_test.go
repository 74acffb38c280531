package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"0", 0, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{1234, "12.34"},
		{-550, "-5.50"},
		{100000, "1000.00"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Fatalf("%d cents: expected %q, got %q", tc.cents, tc.want, got)
		}
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m := Money{Cents: 1234}
	data, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "12.34" {
		t.Fatalf("expected bare number 12.34, got %s", data)
	}
	var back Money
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Cents != m.Cents {
		t.Fatalf("round trip lost cents: %d != %d", back.Cents, m.Cents)
	}
}

func TestMoneyUnmarshalExponentForm(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"5e2", 50000},
		{"1.5e1", 1500},
		{"2.5e-1", 25},
		{"-5e2", -50000},
	}
	for _, tc := range cases {
		var m Money
		if err := m.UnmarshalJSON([]byte(tc.in)); err != nil {
			t.Fatalf("%q: unmarshal: %v", tc.in, err)
		}
		if m.Cents != tc.want {
			t.Fatalf("%q: expected %d cents, got %d", tc.in, tc.want, m.Cents)
		}
	}
}

func TestMoneyUnmarshalNegative(t *testing.T) {
	var m Money
	if err := m.UnmarshalJSON([]byte("-3.75")); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	// Negative amounts survive decoding; Transaction.Validate rejects them.
	if m.Cents != -375 {
		t.Fatalf("expected -375 cents, got %d", m.Cents)
	}
}
