package allocation

import (
	"fmt"
	"math"

	"smartsplit/internal/core"
)

// State is the caller-owned snapshot of a budget screen. Its methods never
// modify the receiver; each returns the next snapshot.
type State struct {
	Income         float64                `json:"income"`
	Allocations    []core.Allocation      `json:"allocations"`
	Groups         []core.AllocationGroup `json:"groups"`
	TotalAllocated float64                `json:"total_allocated"`
	AllocatedPct   float64                `json:"allocated_pct"`
}

// NewState builds the initial snapshot for a budget.
func NewState(b core.Budget) State {
	income := TotalIncome(b.Incomes)
	groups := BuildAllocationGroups(b.Allocations, b.Expenses, income)
	allocated := TotalAllocation(groups)
	return State{
		Income:         income,
		Allocations:    append([]core.Allocation(nil), b.Allocations...),
		Groups:         groups,
		TotalAllocated: allocated,
		AllocatedPct:   Percent(allocated, income),
	}
}

// WithIncome returns the snapshot after the monthly income changes.
func (s State) WithIncome(income float64) (State, error) {
	if income < 0 || math.IsNaN(income) {
		return s, fmt.Errorf("%w: income %v", core.ErrInvalidInput, income)
	}
	next := s
	next.Income = income
	next.Groups = RecomputeOnIncomeChange(s.Groups, income)
	next.AllocatedPct = Percent(next.TotalAllocated, income)
	return next, nil
}

// WithGroupEdit returns the snapshot after the expenses of one group change.
func (s State) WithGroupEdit(groupIndex int, expenses []core.Expense) (State, error) {
	res, err := ApplyExpenseEdit(s.Groups, groupIndex, expenses, s.Income)
	if err != nil {
		return s, err
	}
	next := s
	next.Groups = res.Groups
	next.TotalAllocated = res.TotalAllocated
	next.AllocatedPct = res.AllocatedPct
	return next, nil
}

// Summary derives the aggregate view of the snapshot.
func (s State) Summary() Summary {
	return summarizeGroups(s.Allocations, s.Groups, s.Income)
}
