package adapters

import (
	"context"
	"log/slog"

	"smartsplit/internal/core"
	"smartsplit/internal/sheets"
)

// LogExporter writes exports to the structured log. It stands in for the
// Google Sheets exporter when no spreadsheet is configured.
type LogExporter struct {
	logger *slog.Logger
}

var _ sheets.AllocationExporter = (*LogExporter)(nil)

func NewLogExporter(logger *slog.Logger) *LogExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogExporter{logger: logger}
}

func (e *LogExporter) ExportAllocations(ctx context.Context, userID string, groups []core.AllocationGroup, agg core.Aggregates) error {
	for _, g := range groups {
		e.logger.InfoContext(ctx, "Allocation export",
			"user_id", userID,
			"allocation", g.AllocationType,
			"total", g.AllocationTotal,
			"pct", core.RoundPct(g.AllocationPct))
	}
	e.logger.InfoContext(ctx, "Allocation export aggregates",
		"user_id", userID,
		"allocated_pct", agg.AllocatedPct,
		"needs_pct", agg.NeedsPct,
		"wants_pct", agg.WantsPct,
		"debts_pct", agg.DebtsPct,
		"savings_pct", agg.SavingsPct)
	return nil
}
