package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"smartsplit/internal/core"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DefaultMaxExportAttempts is how many failed exports a budget version
// tolerates before it is parked in the error state.
const DefaultMaxExportAttempts = 3

type Repository struct {
	db                *sql.DB
	queries           *Queries
	dialect           Dialect
	maxExportAttempts int64
}

func NewSQLiteRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return open(DialectSQLite, dbPath)
}

func NewPostgresRepository(databaseURL string) (*Repository, error) {
	return open(DialectPostgres, databaseURL)
}

func open(d Dialect, dsn string) (*Repository, error) {
	db, err := sql.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if d == DialectSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	// Run migrations
	if err := RunMigrations(d, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{
		db:                db,
		queries:           New(db, d),
		dialect:           d,
		maxExportAttempts: DefaultMaxExportAttempts,
	}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Dialect() Dialect {
	return r.dialect
}

// GetBudget implements sheets.BudgetReader
func (r *Repository) GetBudget(ctx context.Context, userID string) (core.Budget, error) {
	row, err := r.queries.GetBudget(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget for user %q: %w", userID, core.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}

	incomes, err := r.queries.ListIncomes(ctx, userID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("list incomes: %w", err)
	}
	expenses, err := r.queries.ListExpenses(ctx, userID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("list expenses: %w", err)
	}
	allocations, err := r.queries.ListAllocations(ctx, userID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("list allocations: %w", err)
	}

	b := core.Budget{
		UserID:       row.UserID,
		PayFrequency: core.PayFrequency(row.PayFrequency),
		Incomes:      make([]core.Income, len(incomes)),
		Expenses:     make([]core.Expense, len(expenses)),
		Allocations:  make([]core.Allocation, len(allocations)),
	}
	for i, in := range incomes {
		b.Incomes[i] = core.Income{
			ID:          in.IncomeID,
			Description: in.Description,
			Amount:      in.Amount,
			Frequency:   in.Frequency,
		}
	}
	for i, e := range expenses {
		b.Expenses[i] = core.Expense{
			ID:             e.ExpenseID,
			Description:    e.Description,
			Amount:         e.Amount,
			Category:       e.Category,
			AllocationType: e.AllocationType,
		}
	}
	for i, a := range allocations {
		b.Allocations[i] = core.Allocation{
			Type:        a.AllocationType,
			Description: a.Description,
			Factor:      a.Factor,
		}
	}
	return b, nil
}

// ListCategories implements sheets.CategoryReader
func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	cats := make([]core.Category, len(rows))
	for i, c := range rows {
		cats[i] = core.Category{ID: c.CategoryID, Name: c.CategoryName}
	}
	core.SortCategories(cats)
	return cats, nil
}

// SaveBudget implements sheets.BudgetWriter. The whole budget is replaced
// in one transaction and the returned reference is the new version.
func (r *Repository) SaveBudget(ctx context.Context, b core.Budget) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}
	freq := b.PayFrequency
	if freq == 0 {
		freq = core.BiWeekly
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	version, err := q.UpsertBudget(ctx, b.UserID, int64(freq), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("upsert budget: %w", err)
	}
	if err := q.DeleteBudgetChildren(ctx, b.UserID); err != nil {
		return "", fmt.Errorf("clear budget rows: %w", err)
	}

	for i, in := range b.Incomes {
		id := in.ID
		if id == "" {
			id = uuid.NewString()
		}
		if err := q.InsertIncome(ctx, b.UserID, i, IncomeRow{
			IncomeID:    id,
			Description: in.Description,
			Amount:      in.Amount,
			Frequency:   in.Frequency,
		}); err != nil {
			return "", fmt.Errorf("insert income: %w", err)
		}
	}
	for i, e := range b.Expenses {
		id := e.ID
		if id == "" {
			id = uuid.NewString()
		}
		if err := q.InsertExpense(ctx, b.UserID, i, ExpenseRow{
			ExpenseID:      id,
			Description:    e.Description,
			Amount:         e.Amount,
			Category:       e.Category,
			AllocationType: e.AllocationType,
		}); err != nil {
			return "", fmt.Errorf("insert expense: %w", err)
		}
	}
	for i, a := range b.Allocations {
		if err := q.InsertAllocation(ctx, b.UserID, i, AllocationRow{
			AllocationType: a.Type,
			Description:    a.Description,
			Factor:         a.Factor,
		}); err != nil {
			return "", fmt.Errorf("insert allocation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"user_id", b.UserID,
		"version", version,
		"incomes", len(b.Incomes),
		"expenses", len(b.Expenses),
		"allocations", len(b.Allocations),
		"dialect", r.dialect)

	return strconv.FormatInt(version, 10), nil
}

// PendingExports returns saved budget versions not yet exported.
func (r *Repository) PendingExports(ctx context.Context, limit int) ([]core.PendingExport, error) {
	rows, err := r.queries.ListPendingExports(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending exports: %w", err)
	}
	out := make([]core.PendingExport, len(rows))
	for i, p := range rows {
		out[i] = core.PendingExport{
			UserID:   p.UserID,
			Version:  p.Version,
			Attempts: int(p.Attempts),
			SavedAt:  p.UpdatedAt,
		}
	}
	return out, nil
}

// MarkExported marks a budget version as exported. A newer save in the
// meantime leaves the row pending.
func (r *Repository) MarkExported(ctx context.Context, userID string, version int64) error {
	n, err := r.queries.MarkExported(ctx, userID, version)
	if err != nil {
		return fmt.Errorf("mark budget exported: %w", err)
	}
	if n == 0 {
		slog.InfoContext(ctx, "Budget changed since export, keeping pending",
			"user_id", userID, "version", version)
		return nil
	}

	slog.InfoContext(ctx, "Budget marked as exported", "user_id", userID, "version", version)
	return nil
}

// MarkExportError records a failed export attempt.
func (r *Repository) MarkExportError(ctx context.Context, userID string, version int64, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if _, err := r.queries.MarkExportError(ctx, userID, version, msg, r.maxExportAttempts); err != nil {
		return fmt.Errorf("mark budget export error: %w", err)
	}

	slog.WarnContext(ctx, "Budget marked with export error", "user_id", userID, "version", version, "error", msg)
	return nil
}
