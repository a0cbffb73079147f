package core

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"120", "120", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"100.5", "100.5", true},
		{" 2.50 ", "2.5", true},
		{"0.001", "0.001", true},
		{strings.Repeat("9", MaxAmountIntegerDigits), strings.Repeat("9", MaxAmountIntegerDigits), true},
		{"1." + strings.Repeat("5", MaxAmountFractionDigits), "1." + strings.Repeat("5", MaxAmountFractionDigits), true},
		{"-1", "", false},
		{"+1", "", false},
		{"1e3", "", false},
		{"0", "", false},
		{"0.00", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
		{".5", "", false},
		{"5.", "", false},
		{"1" + strings.Repeat("0", MaxAmountIntegerDigits), "", false},
		{"1." + strings.Repeat("5", MaxAmountFractionDigits+1), "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if !errors.Is(err, ErrInvalidTransaction) {
				t.Fatalf("%q expected invalid transaction error, got %v", tc.in, err)
			}
		}
	}
}

func TestParseAmountErrorCauses(t *testing.T) {
	cases := map[string]error{
		"1e19":  ErrMalformedAmount,
		"-5":    ErrMalformedAmount,
		"12abc": ErrMalformedAmount,
		"0":     ErrInvalidAmount,
		"0,00":  ErrInvalidAmount,
	}
	for in, want := range cases {
		_, err := ParseAmount(in)
		if !errors.Is(err, want) {
			t.Errorf("ParseAmount(%q) error = %v, want %v", in, err, want)
		}
		if want == ErrMalformedAmount && strings.Contains(err.Error(), "greater than zero") {
			t.Errorf("ParseAmount(%q) error %q blames the sign", in, err)
		}
	}
}
