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
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"1200", 120000, true},
		{"-5", 0, false},
		{"0", 0, false},
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

func TestFormatRupees(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{123456750, "₹12,34,567.50"}, // Indian grouping: 2-2-3
		{100, "₹1.00"},
		{0, "₹0.00"},
		{99, "₹0.99"},
		{100000, "₹1,000.00"}, // four digits: single leading digit still gets its comma
		{999900, "₹9,999.00"},
		{1000000, "₹10,000.00"},
		{10000000, "₹1,00,000.00"},
		{100000000000, "₹1,00,00,00,000.00"},
		{-123456750, "-₹12,34,567.50"},
		{30005, "₹300.05"},
	}
	for _, tc := range cases {
		if got := FormatRupees(tc.cents); got != tc.want {
			t.Errorf("FormatRupees(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyString(t *testing.T) {
	m := Money{Cents: 30000}
	if got := m.String(); got != "₹300.00" {
		t.Errorf("Money.String() = %q, want %q", got, "₹300.00")
	}
}
