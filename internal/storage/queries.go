package storage

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Dialect selects the SQL driver and placeholder style.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	return string(d)
}

// rebind rewrites ? placeholders to $n for postgres.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db      DBTX
	dialect Dialect
}

func New(db DBTX, dialect Dialect) *Queries {
	return &Queries{db: db, dialect: dialect}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, dialect: q.dialect}
}

// Row types mirror the tables.
type (
	BudgetRow struct {
		UserID         string
		PayFrequency   int64
		Version        int64
		ExportStatus   string
		ExportAttempts int64
		ExportError    sql.NullString
		UpdatedAt      time.Time
	}

	IncomeRow struct {
		IncomeID    string
		Description string
		Amount      float64
		Frequency   string
	}

	ExpenseRow struct {
		ExpenseID      string
		Description    string
		Amount         float64
		Category       string
		AllocationType string
	}

	AllocationRow struct {
		AllocationType string
		Description    string
		Factor         float64
	}

	CategoryRow struct {
		CategoryID   string
		CategoryName string
	}
)

const getBudget = `SELECT user_id, pay_frequency, version, export_status, export_attempts, export_error, updated_at
FROM budgets WHERE user_id = ?`

func (q *Queries) GetBudget(ctx context.Context, userID string) (BudgetRow, error) {
	row := q.db.QueryRowContext(ctx, q.dialect.rebind(getBudget), userID)
	var b BudgetRow
	err := row.Scan(&b.UserID, &b.PayFrequency, &b.Version, &b.ExportStatus, &b.ExportAttempts, &b.ExportError, &b.UpdatedAt)
	return b, err
}

const listIncomes = `SELECT income_id, income_description, income_amount, income_frequency
FROM incomes WHERE user_id = ? ORDER BY position`

func (q *Queries) ListIncomes(ctx context.Context, userID string) ([]IncomeRow, error) {
	rows, err := q.db.QueryContext(ctx, q.dialect.rebind(listIncomes), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []IncomeRow
	for rows.Next() {
		var i IncomeRow
		if err := rows.Scan(&i.IncomeID, &i.Description, &i.Amount, &i.Frequency); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listExpenses = `SELECT expense_id, expense_description, expense_amount, expense_category, allocation_type
FROM expenses WHERE user_id = ? ORDER BY position`

func (q *Queries) ListExpenses(ctx context.Context, userID string) ([]ExpenseRow, error) {
	rows, err := q.db.QueryContext(ctx, q.dialect.rebind(listExpenses), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExpenseRow
	for rows.Next() {
		var e ExpenseRow
		if err := rows.Scan(&e.ExpenseID, &e.Description, &e.Amount, &e.Category, &e.AllocationType); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const listAllocations = `SELECT allocation_type, allocation_description, allocation_factor
FROM allocations WHERE user_id = ? ORDER BY position`

func (q *Queries) ListAllocations(ctx context.Context, userID string) ([]AllocationRow, error) {
	rows, err := q.db.QueryContext(ctx, q.dialect.rebind(listAllocations), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AllocationRow
	for rows.Next() {
		var a AllocationRow
		if err := rows.Scan(&a.AllocationType, &a.Description, &a.Factor); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const listCategories = `SELECT category_id, category_name FROM categories ORDER BY category_name`

func (q *Queries) ListCategories(ctx context.Context) ([]CategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryRow
	for rows.Next() {
		var c CategoryRow
		if err := rows.Scan(&c.CategoryID, &c.CategoryName); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const upsertBudget = `INSERT INTO budgets (user_id, pay_frequency, version, export_status, export_attempts, export_error, updated_at)
VALUES (?, ?, 1, 'pending', 0, NULL, ?)
ON CONFLICT (user_id) DO UPDATE SET
    pay_frequency = excluded.pay_frequency,
    version = budgets.version + 1,
    export_status = 'pending',
    export_attempts = 0,
    export_error = NULL,
    updated_at = excluded.updated_at
RETURNING version`

// UpsertBudget creates or bumps the budget row and returns its new version.
func (q *Queries) UpsertBudget(ctx context.Context, userID string, payFrequency int64, now time.Time) (int64, error) {
	var version int64
	err := q.db.QueryRowContext(ctx, q.dialect.rebind(upsertBudget), userID, payFrequency, now).Scan(&version)
	return version, err
}

func (q *Queries) DeleteBudgetChildren(ctx context.Context, userID string) error {
	for _, table := range []string{"incomes", "expenses", "allocations"} {
		if _, err := q.db.ExecContext(ctx, q.dialect.rebind("DELETE FROM "+table+" WHERE user_id = ?"), userID); err != nil {
			return err
		}
	}
	return nil
}

const insertIncome = `INSERT INTO incomes (user_id, income_id, income_description, income_amount, income_frequency, position)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertIncome(ctx context.Context, userID string, position int, i IncomeRow) error {
	_, err := q.db.ExecContext(ctx, q.dialect.rebind(insertIncome), userID, i.IncomeID, i.Description, i.Amount, i.Frequency, position)
	return err
}

const insertExpense = `INSERT INTO expenses (user_id, expense_id, expense_description, expense_amount, expense_category, allocation_type, position)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertExpense(ctx context.Context, userID string, position int, e ExpenseRow) error {
	_, err := q.db.ExecContext(ctx, q.dialect.rebind(insertExpense), userID, e.ExpenseID, e.Description, e.Amount, e.Category, e.AllocationType, position)
	return err
}

const insertAllocation = `INSERT INTO allocations (user_id, allocation_type, allocation_description, allocation_factor, position)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) InsertAllocation(ctx context.Context, userID string, position int, a AllocationRow) error {
	_, err := q.db.ExecContext(ctx, q.dialect.rebind(insertAllocation), userID, a.AllocationType, a.Description, a.Factor, position)
	return err
}

const listPendingExports = `SELECT user_id, version, export_attempts, updated_at
FROM budgets WHERE export_status = 'pending' ORDER BY updated_at LIMIT ?`

type PendingExportRow struct {
	UserID    string
	Version   int64
	Attempts  int64
	UpdatedAt time.Time
}

func (q *Queries) ListPendingExports(ctx context.Context, limit int64) ([]PendingExportRow, error) {
	rows, err := q.db.QueryContext(ctx, q.dialect.rebind(listPendingExports), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PendingExportRow
	for rows.Next() {
		var p PendingExportRow
		if err := rows.Scan(&p.UserID, &p.Version, &p.Attempts, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const markExported = `UPDATE budgets SET export_status = 'exported', export_error = NULL
WHERE user_id = ? AND version = ?`

func (q *Queries) MarkExported(ctx context.Context, userID string, version int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, q.dialect.rebind(markExported), userID, version)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// A failed export stays pending until maxAttempts is reached.
const markExportError = `UPDATE budgets SET
    export_attempts = export_attempts + 1,
    export_error = ?,
    export_status = CASE WHEN export_attempts + 1 >= ? THEN 'error' ELSE 'pending' END
WHERE user_id = ? AND version = ?`

func (q *Queries) MarkExportError(ctx context.Context, userID string, version int64, message string, maxAttempts int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, q.dialect.rebind(markExportError), message, maxAttempts, userID, version)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
