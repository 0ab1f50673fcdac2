package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
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
		{"12.346", 1235, true},
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"4.50", 450, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1e3", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"99999999999999999999999", 0, false},
		{"10000000000000", 1000000000000000, true},
		{"10000000000000.01", 0, false},
		{"92233720368547758", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Fatalf("expected zero to be valid, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestMoneyJSON(t *testing.T) {
	cases := []struct {
		cents int64
		json  string
	}{
		{450, "4.5"},
		{100000, "1000"},
		{1, "0.01"},
		{0, "0"},
	}
	for _, tc := range cases {
		b, err := json.Marshal(Money{Cents: tc.cents})
		if err != nil {
			t.Fatalf("marshal %d: %v", tc.cents, err)
		}
		if string(b) != tc.json {
			t.Fatalf("marshal %d = %s, want %s", tc.cents, b, tc.json)
		}
		var back Money
		if err := json.Unmarshal(b, &back); err != nil || back.Cents != tc.cents {
			t.Fatalf("unmarshal %s = %d (err=%v), want %d", b, back.Cents, err, tc.cents)
		}
	}
}

func TestMoneyUnmarshalAcceptsStringsAndRounds(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`"12.345"`), &m); err != nil || m.Cents != 1235 {
		t.Fatalf("got %d err=%v", m.Cents, err)
	}
	if err := json.Unmarshal([]byte(`"nope"`), &m); err == nil {
		t.Fatalf("expected error for non-numeric string")
	}
}

func TestMoneyString(t *testing.T) {
	if got := (Money{Cents: -450}).String(); got != "-4.50" {
		t.Fatalf("String() = %q", got)
	}
}

func TestMaxAmountSumsDoNotOverflow(t *testing.T) {
	largest, err := ParseAmount("10000000000000")
	if err != nil {
		t.Fatalf("largest amount rejected: %v", err)
	}
	var sum Money
	for i := 0; i < 9000; i++ {
		sum = sum.Add(largest)
	}
	if sum.Cents <= 0 || sum.Cents != 9000*largest.Cents {
		t.Fatalf("sum of 9000 maximal amounts = %d", sum.Cents)
	}

	var m Money
	if err := json.Unmarshal([]byte("92233720368547758"), &m); err == nil {
		t.Fatalf("amount above the ceiling decoded as %d cents", m.Cents)
	}
}

func TestExactAmount(t *testing.T) {
	cases := []struct {
		in   string
		out  int64
		want error
	}{
		{"4.5", 450, nil},
		{"1000", 100000, nil},
		{"0.10", 10, nil},
		{"0", 0, nil},
		{"12.345", 0, ErrSubCentAmount},
		{"-1", 0, ErrInvalidAmount},
		{"10000000000000.01", 0, ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ExactAmount(decimal.RequireFromString(tc.in))
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: error = %v, want %v", tc.in, err, tc.want)
		}
		if tc.want == nil && got.Cents != tc.out {
			t.Fatalf("%s: got %d cents, want %d", tc.in, got.Cents, tc.out)
		}
	}
}
