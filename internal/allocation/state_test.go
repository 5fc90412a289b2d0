package allocation

import (
	"errors"
	"testing"

	"smartsplit/internal/core"
)

func TestStateTransitions(t *testing.T) {
	s := NewState(core.Budget{
		UserID:      "u",
		Incomes:     []core.Income{{Amount: 2000}},
		Allocations: sampleAllocations(),
		Expenses:    sampleExpenses(),
	})
	if s.TotalAllocated != 2000.5 || s.Income != 2000 {
		t.Fatalf("initial state %+v", s)
	}

	doubled, err := s.WithIncome(4000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Income != 2000 || s.Groups[0].AllocationPct != 80 {
		t.Fatalf("receiver modified: %+v", s)
	}
	if doubled.Groups[0].AllocationPct != 40 {
		t.Fatalf("needs pct %v, want 40", doubled.Groups[0].AllocationPct)
	}

	if _, err := s.WithIncome(-1); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	edited, err := doubled.WithGroupEdit(2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edited.TotalAllocated != 1750.5 {
		t.Fatalf("total after clearing debts %v", edited.TotalAllocated)
	}
	if sum := edited.Summary(); sum.Totals.Debts != 0 || sum.Totals.Needs != 1600 {
		t.Fatalf("summary totals %+v", sum.Totals)
	}

	if _, err := edited.WithGroupEdit(7, nil); !errors.Is(err, core.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}
