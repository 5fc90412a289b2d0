package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"smartsplit/internal/allocation"
	"smartsplit/internal/core"
	applog "smartsplit/internal/log"
	"smartsplit/internal/observability"
)

const readyTimeout = 5 * time.Second

type (
	incomeChangeRequest struct {
		Groups []core.AllocationGroup `json:"groups"`
		Income float64                `json:"income"`
	}

	expenseEditRequest struct {
		Groups   []core.AllocationGroup `json:"groups"`
		Expenses []core.Expense         `json:"expenses"`
		Income   float64                `json:"income"`
	}

	formatRequest struct {
		Value any `json:"value"`
	}

	formatResponse struct {
		Formatted string  `json:"formatted"`
		Amount    float64 `json:"amount"`
	}
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the storage backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]any{
		"rate_limiter": map[string]any{"active_clients": s.limiter.ActiveClients()},
	}

	status, code := "ready", http.StatusOK
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			checks["storage"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.budgets.ListCategories(r.Context())
	if err != nil {
		s.fail(w, r, "List categories failed", applog.OpList, err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.budgets.GetBudget(r.Context(), userIDParam(r))
	if err != nil {
		s.fail(w, r, "Get budget failed", applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budget": b})
}

func (s *Server) handleGetAllocations(w http.ResponseWriter, r *http.Request) {
	view, err := s.budgets.LoadView(r.Context(), userIDParam(r))
	if err != nil {
		s.fail(w, r, "Load allocations failed", applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"groups":          view.Summary.Groups,
		"total_income":    view.Summary.TotalIncome,
		"total_allocated": view.Summary.TotalAllocated,
		"totals":          view.Summary.Totals,
		"aggregates":      view.Summary.Aggregates,
		"amounts":         view.Summary.Amounts,
		"slices":          view.Slices,
	})
}

func (s *Server) handleIncomeChange(w http.ResponseWriter, r *http.Request) {
	var req incomeChangeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Income < 0 {
		writeError(w, http.StatusBadRequest, "income must not be negative")
		return
	}

	groups := allocation.RecomputeOnIncomeChange(req.Groups, req.Income)
	observability.AllocationComputations.WithLabelValues(applog.OpRecompute).Inc()

	total := allocation.TotalAllocation(groups)
	writeJSON(w, http.StatusOK, allocation.EditResult{
		Groups:         groups,
		TotalAllocated: total,
		AllocatedPct:   allocation.Percent(total, req.Income),
	})
}

func (s *Server) handleExpenseEdit(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "group index must be an integer")
		return
	}

	var req expenseEditRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := allocation.ApplyExpenseEdit(req.Groups, index, req.Expenses, req.Income)
	if err != nil {
		s.fail(w, r, "Expense edit rejected", applog.OpEdit, err)
		return
	}
	observability.AllocationComputations.WithLabelValues(applog.OpEdit).Inc()

	s.logger.DebugContext(r.Context(), "Applied expense edit",
		applog.FieldGroupIndex, index,
		applog.FieldExpenses, len(req.Expenses),
		applog.FieldAllocatedPct, res.AllocatedPct)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if err := decodeJSON(w, r, &b); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ref, err := s.budgets.Save(r.Context(), b)
	if err != nil {
		s.fail(w, r, "Save budget failed", applog.OpSave, err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogBudgetSaved(r.Context(), b.UserID, ref, len(b.Allocations))
	writeJSON(w, http.StatusOK, map[string]string{"ref": ref})
}

// handleFormatCurrency formats raw input and parses the result back, so
// clients get both the display string and its numeric value.
func (s *Server) handleFormatCurrency(w http.ResponseWriter, r *http.Request) {
	var req formatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	raw, ok := req.Value.(string)
	if !ok {
		// Non-text values are logged as a type mismatch and read as 0.
		writeJSON(w, http.StatusOK, formatResponse{Amount: core.ParseCurrencyValue(req.Value)})
		return
	}

	formatted := core.FormatCurrency(raw)
	writeJSON(w, http.StatusOK, formatResponse{
		Formatted: formatted,
		Amount:    core.ParseCurrency(formatted),
	})
}

// fail maps domain errors to status codes. Unexpected errors are logged and
// reported without detail.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg, op string, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, core.ErrIndexOutOfRange),
		errors.Is(err, core.ErrTypeMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), msg, err, applog.ComponentHTTP, op, nil)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func userIDParam(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("user_id"))
}
