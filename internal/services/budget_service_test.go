package services

import (
	"context"
	"errors"
	"testing"

	"smartsplit/internal/core"
	"smartsplit/internal/sheets/memory"
)

type fakePublisher struct {
	calls []int64
	err   error
}

func (f *fakePublisher) PublishBudgetSaved(_ context.Context, _ string, version int64) error {
	f.calls = append(f.calls, version)
	return f.err
}

func sampleBudget(userID string) core.Budget {
	return core.Budget{
		UserID:       userID,
		PayFrequency: core.Monthly,
		Incomes:      []core.Income{{ID: "i1", Description: "Salary", Amount: 4000}},
		Expenses: []core.Expense{
			{ID: "e1", Description: "Rent", Amount: 1000, Category: "Housing", AllocationType: "needs"},
			{ID: "e2", Description: "Movies", Amount: 100, Category: "Entertainment", AllocationType: "wants"},
		},
		Allocations: []core.Allocation{
			{Type: "needs", Description: "Needs"},
			{Type: "wants", Description: "Wants"},
		},
	}
}

func TestBudgetService_SaveAndLoadView(t *testing.T) {
	store := memory.New([]string{"Housing", "Entertainment"})
	pub := &fakePublisher{}
	svc := NewBudgetService(store, store, store, pub)
	ctx := context.Background()

	ref, err := svc.Save(ctx, sampleBudget("u1"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if ref != "1" {
		t.Errorf("ref = %q, want %q", ref, "1")
	}
	if len(pub.calls) != 1 || pub.calls[0] != 1 {
		t.Errorf("publish calls = %v, want [1]", pub.calls)
	}

	view, err := svc.LoadView(ctx, "u1")
	if err != nil {
		t.Fatalf("LoadView() error = %v", err)
	}
	if len(view.Categories) != 2 || view.Categories[0].Name != "Entertainment" {
		t.Errorf("categories = %+v, want sorted by name", view.Categories)
	}
	if len(view.Summary.Groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(view.Summary.Groups))
	}
	if got := view.Summary.Groups[0].AllocationTotal; got != 1000 {
		t.Errorf("needs total = %v, want 1000", got)
	}
	if got := view.Summary.Aggregates.AllocatedPct; got != 27.5 {
		t.Errorf("allocated pct = %v, want 27.5", got)
	}
	// unspent, needs, wants
	if len(view.Slices) != 3 {
		t.Errorf("slices = %d, want 3", len(view.Slices))
	}
}

func TestBudgetService_SavePublishFailureIsLogged(t *testing.T) {
	store := memory.New(nil)
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewBudgetService(store, store, store, pub)

	ref, err := svc.Save(context.Background(), sampleBudget("u1"))
	if err != nil {
		t.Fatalf("Save() error = %v, want nil", err)
	}
	if ref != "1" {
		t.Errorf("ref = %q, want %q", ref, "1")
	}
}

func TestBudgetService_SaveInvalid(t *testing.T) {
	store := memory.New(nil)
	pub := &fakePublisher{}
	svc := NewBudgetService(store, store, store, pub)

	_, err := svc.Save(context.Background(), core.Budget{})
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("Save() error = %v, want ErrInvalidInput", err)
	}
	if len(pub.calls) != 0 {
		t.Errorf("publish calls = %v, want none", pub.calls)
	}
}

func TestBudgetService_NilPublisher(t *testing.T) {
	store := memory.New(nil)
	svc := NewBudgetService(store, store, store, nil)

	if _, err := svc.Save(context.Background(), sampleBudget("u1")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

func TestBudgetService_LoadViewErrors(t *testing.T) {
	store := memory.New(nil)
	svc := NewBudgetService(store, store, store, nil)
	ctx := context.Background()

	if _, err := svc.LoadView(ctx, ""); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("LoadView(\"\") error = %v, want ErrInvalidInput", err)
	}
	_, err := svc.LoadView(ctx, "missing")
	if !IsNotFound(err) {
		t.Errorf("LoadView(missing) error = %v, want not found", err)
	}
	if _, err := svc.GetBudget(ctx, "missing"); !IsNotFound(err) {
		t.Errorf("GetBudget(missing) error = %v, want not found", err)
	}
}
