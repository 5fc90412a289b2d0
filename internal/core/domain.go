package core

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

const (
	Weekly   PayFrequency = 1
	BiWeekly PayFrequency = 2
	Monthly  PayFrequency = 3
)

type (
	PayFrequency int

	Expense struct {
		ID             string  `json:"id"`
		Description    string  `json:"description"`
		Amount         float64 `json:"amount"`
		Category       string  `json:"category"`
		AllocationType string  `json:"allocation_type"` // References Allocation.Type
	}

	Income struct {
		ID          string  `json:"id"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		Frequency   string  `json:"frequency"`
	}

	Allocation struct {
		Type        string  `json:"type"`
		Description string  `json:"description"`
		Factor      float64 `json:"factor"` // Reserved, not used by computation
	}

	// AllocationGroup is derived from allocations and expenses; it is never
	// persisted on its own.
	AllocationGroup struct {
		AllocationType    string    `json:"allocation_type"`
		AllocationTotal   float64   `json:"allocation_total"`
		AllocationPct     float64   `json:"allocation_pct"`
		CurrentAllocation float64   `json:"current_allocation"`
		Expenses          []Expense `json:"expenses"`
	}

	Category struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	Budget struct {
		UserID       string       `json:"user_id"`
		Incomes      []Income     `json:"incomes"`
		Expenses     []Expense    `json:"expenses"`
		Allocations  []Allocation `json:"allocations"`
		PayFrequency PayFrequency `json:"pay_frequency"`
	}

	// PendingExport identifies a saved budget version still waiting to be
	// exported.
	PendingExport struct {
		UserID   string
		Version  int64
		Attempts int
		SavedAt  time.Time
	}

	Aggregates struct {
		AllocatedPct float64 `json:"allocated_pct"`
		NeedsPct     float64 `json:"needs_pct"`
		WantsPct     float64 `json:"wants_pct"`
		DebtsPct     float64 `json:"debts_pct"`
		SavingsPct   float64 `json:"savings_pct"`
	}
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrNotFound        = errors.New("not found")
)

// String returns the label shown in the pay frequency selector.
func (p PayFrequency) String() string {
	switch p {
	case Weekly:
		return "Weekly"
	case BiWeekly:
		return "Bi-Weekly"
	case Monthly:
		return "Monthly"
	default:
		return fmt.Sprintf("PayFrequency(%d)", int(p))
	}
}

func (p PayFrequency) Valid() bool {
	return p == Weekly || p == BiWeekly || p == Monthly
}

// ParsePayFrequency accepts either the numeric code or the label.
func ParsePayFrequency(s string) (PayFrequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "weekly":
		return Weekly, nil
	case "", "2", "bi-weekly", "biweekly":
		return BiWeekly, nil
	case "3", "monthly":
		return Monthly, nil
	}
	return 0, fmt.Errorf("%w: unknown pay frequency %q", ErrInvalidInput, s)
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (e Expense) Validate() error {
	if !validAmount(e.Amount) {
		return fmt.Errorf("%w: expense %q amount must be a non-negative number", ErrInvalidInput, e.ID)
	}
	if len(e.Description) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrInvalidInput)
	}
	return nil
}

func (i Income) Validate() error {
	if !validAmount(i.Amount) {
		return fmt.Errorf("%w: income %q amount must be a non-negative number", ErrInvalidInput, i.ID)
	}
	return nil
}

func (a Allocation) Validate() error {
	if strings.TrimSpace(a.Type) == "" {
		return fmt.Errorf("%w: allocation type is empty", ErrInvalidInput)
	}
	return nil
}

// Validate checks every record of the budget. Expenses referencing unknown
// allocation types are valid; they are dropped when groups are built.
func (b Budget) Validate() error {
	if strings.TrimSpace(b.UserID) == "" {
		return fmt.Errorf("%w: empty user id", ErrInvalidInput)
	}
	if b.PayFrequency != 0 && !b.PayFrequency.Valid() {
		return fmt.Errorf("%w: pay frequency %d", ErrInvalidInput, int(b.PayFrequency))
	}
	for _, inc := range b.Incomes {
		if err := inc.Validate(); err != nil {
			return err
		}
	}
	ids := make(map[string]struct{}, len(b.Expenses))
	for _, e := range b.Expenses {
		if err := e.Validate(); err != nil {
			return err
		}
		if e.ID == "" {
			continue
		}
		if _, dup := ids[e.ID]; dup {
			return fmt.Errorf("%w: duplicate expense id %q", ErrInvalidInput, e.ID)
		}
		ids[e.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(b.Allocations))
	for _, a := range b.Allocations {
		if err := a.Validate(); err != nil {
			return err
		}
		if _, dup := seen[a.Type]; dup {
			return fmt.Errorf("%w: duplicate allocation type %q", ErrInvalidInput, a.Type)
		}
		seen[a.Type] = struct{}{}
	}
	return nil
}

// SortCategories orders categories by name in place.
func SortCategories(cats []Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		return cats[i].Name < cats[j].Name
	})
}
