package core

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  error
	}{
		{"Alice", "Alice", nil},
		{"  Bob \t", "Bob", nil},
		{"", "", ErrEmptyName},
		{"   ", "", ErrEmptyName},
		{strings.Repeat("x", MaxNameLength+1), "", ErrNameTooLong},
	}
	for _, tc := range cases {
		got, err := NormalizeName(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) || !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("NormalizeName(%q) err = %v, want %v", tc.in, err, tc.err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("NormalizeName(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestEntryValidate(t *testing.T) {
	if err := (Entry{Name: "A", Spent: Money{Cents: 0}}).Validate(); err != nil {
		t.Fatalf("zero spend should be valid, got %v", err)
	}
	bads := []Entry{
		{Name: "", Spent: Money{Cents: 1}},
		{Name: "A", Spent: Money{Cents: -1}},
	}
	for i, e := range bads {
		if err := e.Validate(); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestBalanceStatus(t *testing.T) {
	if s := (Balance{Amount: Money{Cents: 1}}).Status(); s != Creditor {
		t.Errorf("positive balance status = %s", s)
	}
	if s := (Balance{Amount: Money{Cents: -1}}).Status(); s != Debtor {
		t.Errorf("negative balance status = %s", s)
	}
	if s := (Balance{}).Status(); s != Settled {
		t.Errorf("zero balance status = %s", s)
	}
}
