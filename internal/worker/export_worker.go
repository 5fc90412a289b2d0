package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"smartsplit/internal/amqp"
	"smartsplit/internal/core"
	"smartsplit/internal/services"
	"smartsplit/internal/sheets"
)

// ExportWorker exports saved budgets announced over AMQP.
type ExportWorker struct {
	exports   *services.ExportService
	queue     sheets.ExportQueue
	batchSize int
}

func NewExportWorker(exports *services.ExportService, queue sheets.ExportQueue, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &ExportWorker{
		exports:   exports,
		queue:     queue,
		batchSize: batchSize,
	}
}

// HandleBudgetSaved processes one budget saved message. Export failures are
// recorded on the export queue and retried by the pending sweep, so only a
// cancelled context makes the message go back to the broker.
func (w *ExportWorker) HandleBudgetSaved(ctx context.Context, msg *amqp.BudgetSavedMessage) error {
	slog.InfoContext(ctx, "Processing budget saved message",
		"user_id", msg.UserID,
		"version", msg.Version)

	err := w.exports.ExportBudget(ctx, msg.UserID, msg.Version)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return fmt.Errorf("export budget %s: %w", msg.UserID, ctx.Err())
	case errors.Is(err, core.ErrNotFound):
		slog.WarnContext(ctx, "Budget from message no longer exists, dropping",
			"user_id", msg.UserID,
			"version", msg.Version)
		return nil
	default:
		slog.ErrorContext(ctx, "Failed to export budget, left for pending sweep",
			"user_id", msg.UserID,
			"version", msg.Version,
			"error", err)
		return nil
	}
}

// StartupExportCheck exports budgets left pending while the worker was down.
func (w *ExportWorker) StartupExportCheck(ctx context.Context) error {
	pending, err := w.queue.PendingExports(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending exports for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending exports found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending exports on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, p := range pending {
		if err := w.exports.ExportBudget(ctx, p.UserID, p.Version); err != nil {
			slog.ErrorContext(ctx, "Failed to export budget during startup",
				"user_id", p.UserID, "version", p.Version, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(pending),
		"exported", successCount,
		"errors", errorCount)

	return nil
}
