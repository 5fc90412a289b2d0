package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"smartsplit/internal/core"
	"smartsplit/internal/sheets"
)

var (
	_ sheets.BudgetReader       = (*Store)(nil)
	_ sheets.CategoryReader     = (*Store)(nil)
	_ sheets.BudgetWriter       = (*Store)(nil)
	_ sheets.AllocationExporter = (*Store)(nil)
	_ sheets.ExportQueue        = (*Store)(nil)
)

const maxExportAttempts = 3

type budgetEntry struct {
	budget   core.Budget
	version  int64
	pending  bool
	attempts int
	savedAt  time.Time
}

// Export is one recorded ExportAllocations call.
type Export struct {
	UserID     string
	Groups     []core.AllocationGroup
	Aggregates core.Aggregates
}

type Store struct {
	mu      sync.Mutex
	cats    []core.Category
	budgets map[string]*budgetEntry
	exports []Export
}

func New(categoryNames []string) *Store {
	names := dedupe(categoryNames)
	cats := make([]core.Category, len(names))
	for i, n := range names {
		cats[i] = core.Category{ID: strconv.Itoa(i + 1), Name: n}
	}
	core.SortCategories(cats)
	return &Store{cats: cats, budgets: make(map[string]*budgetEntry)}
}

func NewFromFiles(base string) *Store {
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		cats = []string{"Housing", "Groceries", "Utilities", "Transportation", "Dining Out", "Credit Cards"}
	}
	return New(cats)
}

// GetBudget returns a copy of the stored budget.
func (s *Store) GetBudget(_ context.Context, userID string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.budgets[userID]
	if !ok {
		return core.Budget{}, fmt.Errorf("budget for user %q: %w", userID, core.ErrNotFound)
	}
	return cloneBudget(e.budget), nil
}

// ListCategories returns categories sorted by name.
func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.cats...), nil
}

// SaveBudget stores the budget and returns its new version as reference.
func (s *Store) SaveBudget(_ context.Context, b core.Budget) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.budgets[b.UserID]
	if !ok {
		e = &budgetEntry{}
		s.budgets[b.UserID] = e
	}
	e.budget = cloneBudget(b)
	e.version++
	e.pending = true
	e.attempts = 0
	e.savedAt = time.Now()
	return strconv.FormatInt(e.version, 10), nil
}

// ExportAllocations records the export in memory.
func (s *Store) ExportAllocations(_ context.Context, userID string, groups []core.AllocationGroup, agg core.Aggregates) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]core.AllocationGroup, len(groups))
	for i, g := range groups {
		copied[i] = g
		copied[i].Expenses = append([]core.Expense(nil), g.Expenses...)
	}
	s.exports = append(s.exports, Export{UserID: userID, Groups: copied, Aggregates: agg})
	return nil
}

// Exports returns the recorded exports in call order.
func (s *Store) Exports() []Export {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Export(nil), s.exports...)
}

func (s *Store) PendingExports(_ context.Context, limit int) ([]core.PendingExport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.PendingExport
	for userID, e := range s.budgets {
		if !e.pending {
			continue
		}
		out = append(out, core.PendingExport{
			UserID:   userID,
			Version:  e.version,
			Attempts: e.attempts,
			SavedAt:  e.savedAt,
		})
	}
	sortPending(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkExported(_ context.Context, userID string, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.budgets[userID]; ok && e.version == version {
		e.pending = false
	}
	return nil
}

func (s *Store) MarkExportError(_ context.Context, userID string, version int64, _ error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.budgets[userID]; ok && e.version == version {
		e.attempts++
		if e.attempts >= maxExportAttempts {
			e.pending = false
		}
	}
	return nil
}

func sortPending(p []core.PendingExport) {
	sort.Slice(p, func(i, j int) bool {
		if !p[i].SavedAt.Equal(p[j].SavedAt) {
			return p[i].SavedAt.Before(p[j].SavedAt)
		}
		return p[i].UserID < p[j].UserID
	})
}

func cloneBudget(b core.Budget) core.Budget {
	b.Incomes = append([]core.Income(nil), b.Incomes...)
	b.Expenses = append([]core.Expense(nil), b.Expenses...)
	b.Allocations = append([]core.Allocation(nil), b.Allocations...)
	return b
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
