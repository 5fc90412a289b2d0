package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"smartsplit/internal/core"
)

func TestMemoryStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := New([]string{"B", "A", "B"})

	if _, err := s.GetBudget(ctx, "u1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	b := core.Budget{
		UserID:      "u1",
		Incomes:     []core.Income{{ID: "i", Amount: 1000}},
		Expenses:    []core.Expense{{ID: "e", Amount: 10, AllocationType: "needs"}},
		Allocations: []core.Allocation{{Type: "needs", Description: "Needs"}},
	}
	ref, err := s.SaveBudget(ctx, b)
	if err != nil || ref != "1" {
		t.Fatalf("unexpected save: ref=%q err=%v", ref, err)
	}

	// Mutating the caller's copy must not leak into the store.
	b.Expenses[0].Amount = 999
	got, err := s.GetBudget(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Expenses[0].Amount != 10 {
		t.Fatalf("stored budget shares memory with caller")
	}

	if ref, _ := s.SaveBudget(ctx, b); ref != "2" {
		t.Fatalf("second save ref = %q, want 2", ref)
	}

	if _, err := s.SaveBudget(ctx, core.Budget{}); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMemoryStoreCategoriesSortedAndDeduped(t *testing.T) {
	cats, err := New([]string{"Utilities", "Housing", "Utilities", " "}).ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cats) != 2 || cats[0].Name != "Housing" || cats[1].Name != "Utilities" {
		t.Fatalf("unexpected categories: %+v", cats)
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	// No files -> defaults
	s := NewFromFiles(dir)
	cats, _ := s.ListCategories(context.Background())
	if len(cats) == 0 {
		t.Fatalf("expected defaults when files missing")
	}

	content := "# header\nRent\nFood\nRent\n\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed file: %v", err)
	}

	s = NewFromFiles(dir)
	cats, _ = s.ListCategories(context.Background())
	if len(cats) != 2 || cats[0].Name != "Food" || cats[1].Name != "Rent" {
		t.Fatalf("unexpected cats: %+v", cats)
	}
}

func TestMemoryStoreExportQueue(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	b := core.Budget{UserID: "u1"}
	if _, err := s.SaveBudget(ctx, b); err != nil {
		t.Fatalf("save: %v", err)
	}

	pending, _ := s.PendingExports(ctx, 10)
	if len(pending) != 1 || pending[0].Version != 1 {
		t.Fatalf("pending = %+v", pending)
	}

	for i := 0; i < maxExportAttempts; i++ {
		_ = s.MarkExportError(ctx, "u1", 1, errors.New("boom"))
	}
	if pending, _ = s.PendingExports(ctx, 10); len(pending) != 0 {
		t.Fatalf("expected export parked, got %+v", pending)
	}

	if _, err := s.SaveBudget(ctx, b); err != nil {
		t.Fatalf("resave: %v", err)
	}
	_ = s.MarkExported(ctx, "u1", 2)
	if pending, _ = s.PendingExports(ctx, 10); len(pending) != 0 {
		t.Fatalf("expected no pending exports, got %+v", pending)
	}

	groups := []core.AllocationGroup{{AllocationType: "Needs", AllocationTotal: 5}}
	if err := s.ExportAllocations(ctx, "u1", groups, core.Aggregates{NeedsPct: 1}); err != nil {
		t.Fatalf("export: %v", err)
	}
	if ex := s.Exports(); len(ex) != 1 || ex[0].Groups[0].AllocationTotal != 5 {
		t.Fatalf("exports = %+v", ex)
	}
}
