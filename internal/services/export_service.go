package services

import (
	"context"
	"fmt"
	"log/slog"

	"smartsplit/internal/allocation"
	"smartsplit/internal/observability"
	"smartsplit/internal/sheets"
)

// ExportService pushes the allocation summary of a saved budget to the
// configured exporter and records the outcome on the export queue.
type ExportService struct {
	budgets  sheets.BudgetReader
	exporter sheets.AllocationExporter
	queue    sheets.ExportQueue
}

func NewExportService(budgets sheets.BudgetReader, exporter sheets.AllocationExporter, queue sheets.ExportQueue) *ExportService {
	return &ExportService{budgets: budgets, exporter: exporter, queue: queue}
}

// ExportBudget exports the current state of the user's budget. The stored
// version is only marked exported when it still equals version.
func (s *ExportService) ExportBudget(ctx context.Context, userID string, version int64) error {
	err := s.export(ctx, userID)
	observability.ObserveExport(err)
	if err != nil {
		if markErr := s.queue.MarkExportError(ctx, userID, version, err); markErr != nil {
			slog.ErrorContext(ctx, "Failed to record export error",
				"user_id", userID, "version", version, "error", markErr)
		}
		return err
	}

	if err := s.queue.MarkExported(ctx, userID, version); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

func (s *ExportService) export(ctx context.Context, userID string) error {
	b, err := s.budgets.GetBudget(ctx, userID)
	if err != nil {
		return fmt.Errorf("get budget %q: %w", userID, err)
	}

	summary := allocation.Summarize(b)
	if err := s.exporter.ExportAllocations(ctx, userID, summary.Groups, summary.Aggregates); err != nil {
		return fmt.Errorf("export allocations: %w", err)
	}

	slog.InfoContext(ctx, "Exported budget allocations",
		"user_id", userID,
		"groups", len(summary.Groups),
		"allocated_pct", summary.Aggregates.AllocatedPct)
	return nil
}
