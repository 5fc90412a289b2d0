package sheets

import (
	"context"

	"smartsplit/internal/core"
)

// Ports for outbound adapters.
type (
	// BudgetReader loads the raw budget of a user. Unknown users yield
	// core.ErrNotFound.
	BudgetReader interface {
		GetBudget(ctx context.Context, userID string) (core.Budget, error)
	}

	CategoryReader interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	// BudgetWriter persists a whole budget and returns a reference to the
	// stored version.
	BudgetWriter interface {
		SaveBudget(ctx context.Context, b core.Budget) (ref string, err error)
	}

	// AllocationExporter publishes a computed allocation summary, e.g. as
	// spreadsheet rows.
	AllocationExporter interface {
		ExportAllocations(ctx context.Context, userID string, groups []core.AllocationGroup, agg core.Aggregates) error
	}

	// ExportQueue tracks saved budget versions waiting for export.
	ExportQueue interface {
		PendingExports(ctx context.Context, limit int) ([]core.PendingExport, error)
		MarkExported(ctx context.Context, userID string, version int64) error
		MarkExportError(ctx context.Context, userID string, version int64, cause error) error
	}
)
