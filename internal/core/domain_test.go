package core

import (
	"errors"
	"math"
	"testing"
)

func TestPayFrequency(t *testing.T) {
	cases := []struct {
		in   string
		want PayFrequency
		ok   bool
	}{
		{"1", Weekly, true},
		{"Weekly", Weekly, true},
		{"", BiWeekly, true},
		{"bi-weekly", BiWeekly, true},
		{"3", Monthly, true},
		{"daily", 0, false},
	}
	for _, tc := range cases {
		got, err := ParsePayFrequency(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: got %v (err=%v), want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%q: expected ErrInvalidInput, got %v", tc.in, err)
		}
	}
	if BiWeekly.String() != "Bi-Weekly" {
		t.Fatalf("unexpected label %q", BiWeekly.String())
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{
		UserID:       "u1",
		Incomes:      []Income{{ID: "i1", Amount: 3000, Frequency: "monthly"}},
		Expenses:     []Expense{{ID: "e1", Amount: 100, AllocationType: "orphan"}},
		Allocations:  []Allocation{{Type: "needs", Description: "Needs"}},
		PayFrequency: Monthly,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Budget{
		{UserID: ""},
		{UserID: "u", PayFrequency: 9},
		{UserID: "u", Incomes: []Income{{Amount: -1}}},
		{UserID: "u", Expenses: []Expense{{Amount: math.NaN()}}},
		{UserID: "u", Allocations: []Allocation{{Type: " "}}},
		{UserID: "u", Allocations: []Allocation{{Type: "a"}, {Type: "a"}}},
		{UserID: "u", Expenses: []Expense{{ID: "x"}, {ID: "x"}}},
	}
	for i, b := range bads {
		if err := b.Validate(); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestSortCategories(t *testing.T) {
	cats := []Category{{ID: "3", Name: "Utilities"}, {ID: "1", Name: "Groceries"}, {ID: "2", Name: "Housing"}}
	SortCategories(cats)
	want := []string{"Groceries", "Housing", "Utilities"}
	for i, c := range cats {
		if c.Name != want[i] {
			t.Fatalf("position %d: got %q, want %q", i, c.Name, want[i])
		}
	}
}
