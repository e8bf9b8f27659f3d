package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"12.50", "12.5"},
		{" 800 ", "800"},
		{"0.01", "0.01"},
		{"abc", "0"},
		{"", "0"},
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.in).String(); got != tc.want {
			t.Fatalf("ParseAmount(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestAddAmounts(t *testing.T) {
	cases := []struct {
		a, b string
		want string
	}{
		{"10.50", "0.50", "11.00"},
		{"2500", "500", "3000"},
		{"0", "12.5", "12.5"},
		{"99.9", "0.01", "99.91"},
		{" 1 ", "2", "3"},
	}
	for _, c := range cases {
		if got := AddAmounts(c.a, c.b); got != c.want {
			t.Errorf("AddAmounts(%q, %q) = %q, want %q", c.a, c.b, got, c.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		amount   string
		currency string
		want     string
	}{
		{"800", "USD", "$800.00"},
		{"1234.5", "USD", "$1,234.50"},
		{"1000000", "EUR", "€1,000,000.00"},
		{"0.005", "GBP", "£0.01"},
		{"-42.1", "USD", "-$42.10"},
		{"15", "CHF", "CHF 15.00"},
		{"15", "", "$15.00"},
	}
	for _, tc := range cases {
		got := FormatMoney(decimal.RequireFromString(tc.amount), tc.currency)
		if got != tc.want {
			t.Fatalf("FormatMoney(%s, %s) = %q, want %q", tc.amount, tc.currency, got, tc.want)
		}
	}
}

func TestPercent(t *testing.T) {
	got := Percent(decimal.NewFromInt(500), decimal.NewFromInt(2000))
	if !got.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected 25, got %s", got)
	}
	if !Percent(decimal.NewFromInt(5), decimal.Zero).IsZero() {
		t.Fatalf("expected zero for zero whole")
	}
	if s := FormatPercent(Percent(decimal.NewFromInt(2), decimal.NewFromInt(3))); s != "66.7" {
		t.Fatalf("expected 66.7, got %s", s)
	}
}
