package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func mustTime(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.Local)
}

func TestParseEntry(t *testing.T) {
	cases := []struct {
		in       string
		amount   int64
		category string
	}{
		{"1500 продукты", 1500, "продукты"},
		{"  1500   продукты  ", 1500, "продукты"},
		{"300", 300, ""},
		{"300   ", 300, ""},
		{"1 кофе с собой", 1, "кофе с собой"},
		{"250такси", 250, "такси"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseEntry(tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Amount != tc.amount {
				t.Fatalf("amount = %d, want %d", got.Amount, tc.amount)
			}
			if got.CategoryText != tc.category {
				t.Fatalf("category = %q, want %q", got.CategoryText, tc.category)
			}
		})
	}
}

func TestParseEntryRejects(t *testing.T) {
	cases := []struct {
		in   string
		want error
	}{
		{"", ErrInvalidFormat},
		{"   ", ErrInvalidFormat},
		{"abc", ErrInvalidFormat},
		{"такси 300", ErrInvalidFormat},
		{"-5 еда", ErrInvalidFormat}, // leading minus is not a digit
		{"0 еда", ErrInvalidAmount},
		{"000", ErrInvalidAmount},
		{strings.Repeat("9", 30) + " еда", ErrInvalidAmount}, // overflows int64
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			_, err := ParseEntry(tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Amount:           100,
		CategoryCodename: "coffee",
		CreatedAt:        mustTime(t),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Amount: 0, CategoryCodename: "coffee", CreatedAt: mustTime(t)},
		{Amount: -1, CategoryCodename: "coffee", CreatedAt: mustTime(t)},
		{Amount: 100, CategoryCodename: "", CreatedAt: mustTime(t)},
		{Amount: 100, CategoryCodename: "coffee"},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
