package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"smartsplit/internal/allocation"
	"smartsplit/internal/chart"
	"smartsplit/internal/core"
	"smartsplit/internal/observability"
	"smartsplit/internal/sheets"
)

// Publisher announces saved budget versions. *amqp.Client implements it.
type Publisher interface {
	PublishBudgetSaved(ctx context.Context, userID string, version int64) error
}

// BudgetView is everything the budget screen needs for one user.
type BudgetView struct {
	Budget     core.Budget        `json:"budget"`
	Categories []core.Category    `json:"categories"`
	Summary    allocation.Summary `json:"summary"`
	Slices     []chart.Slice      `json:"slices"`
}

// BudgetService orchestrates budget reads and saves across storage and AMQP.
type BudgetService struct {
	budgets    sheets.BudgetReader
	categories sheets.CategoryReader
	writer     sheets.BudgetWriter
	publisher  Publisher
}

// NewBudgetService wires the service. publisher may be nil.
func NewBudgetService(budgets sheets.BudgetReader, categories sheets.CategoryReader, writer sheets.BudgetWriter, publisher Publisher) *BudgetService {
	return &BudgetService{
		budgets:    budgets,
		categories: categories,
		writer:     writer,
		publisher:  publisher,
	}
}

func (s *BudgetService) GetBudget(ctx context.Context, userID string) (core.Budget, error) {
	if strings.TrimSpace(userID) == "" {
		return core.Budget{}, fmt.Errorf("%w: empty user id", core.ErrInvalidInput)
	}
	return s.budgets.GetBudget(ctx, userID)
}

func (s *BudgetService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.categories.ListCategories(ctx)
}

// LoadView fetches the budget and categories concurrently and derives
// groups, aggregates and pie slices from them.
func (s *BudgetService) LoadView(ctx context.Context, userID string) (BudgetView, error) {
	if strings.TrimSpace(userID) == "" {
		return BudgetView{}, fmt.Errorf("%w: empty user id", core.ErrInvalidInput)
	}

	var (
		budget core.Budget
		cats   []core.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.budgets.GetBudget(gctx, userID)
		if err != nil {
			return fmt.Errorf("load budget: %w", err)
		}
		budget = b
		return nil
	})
	g.Go(func() error {
		c, err := s.categories.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		cats = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return BudgetView{}, err
	}

	summary := allocation.Summarize(budget)
	observability.AllocationComputations.WithLabelValues("summarize").Inc()
	return BudgetView{
		Budget:     budget,
		Categories: cats,
		Summary:    summary,
		Slices:     chart.PieSlices(chart.SlicesFromGroups(summary.Groups, summary.TotalIncome), 0),
	}, nil
}

// Save stores the budget first and then publishes a budget saved message.
// Publish failures are logged; the pending export sweep covers them.
func (s *BudgetService) Save(ctx context.Context, b core.Budget) (string, error) {
	ref, err := s.writer.SaveBudget(ctx, b)
	if err != nil {
		return "", fmt.Errorf("save budget: %w", err)
	}
	observability.BudgetsSaved.Inc()

	version, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to parse budget version", "ref", ref, "error", err)
		return ref, nil
	}

	if err := s.publishSaved(ctx, b.UserID, version); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget saved message",
			"user_id", b.UserID, "version", version, "error", err)
	}
	return ref, nil
}

func (s *BudgetService) publishSaved(ctx context.Context, userID string, version int64) error {
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not configured, skipping budget saved message")
		return nil
	}
	return s.publisher.PublishBudgetSaved(ctx, userID, version)
}

// IsNotFound reports whether err means the user has no stored budget.
func IsNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
