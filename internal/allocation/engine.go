// Package allocation groups expenses under allocation categories and keeps
// their totals and income percentages up to date.
//
// Every function here is pure: inputs are never mutated, results are fresh
// values, and no state survives between calls. Callers own the current
// groups and income (see State).
package allocation

import (
	"fmt"
	"math"
	"strings"

	"smartsplit/internal/core"
)

// Allocation types that feed the needs/wants/debts aggregates.
const (
	TypeNeeds = "needs"
	TypeWants = "wants"
	TypeDebts = "debts"
)

// EditResult is returned by ApplyExpenseEdit.
type EditResult struct {
	Groups         []core.AllocationGroup `json:"groups"`
	TotalAllocated float64                `json:"total_allocated"`
	AllocatedPct   float64                `json:"allocated_pct"`
}

// TypeTotals holds the amounts behind ComputeAggregatePercentages.
type TypeTotals struct {
	Needs float64 `json:"needs"`
	Wants float64 `json:"wants"`
	Debts float64 `json:"debts"`
}

// AmountSummary is the display form of the aggregate amounts.
type AmountSummary struct {
	Needs   string `json:"needs"`
	Wants   string `json:"wants"`
	Debts   string `json:"debts"`
	Savings string `json:"savings"`
}

// Percent returns part/whole*100, or 0 when whole is not a finite positive
// number.
func Percent(part, whole float64) float64 {
	if !(whole > 0) || math.IsInf(whole, 0) {
		return 0
	}
	return part / whole * 100
}

// BuildAllocationGroups produces one group per allocation, in input order.
// Expenses whose allocation type matches no allocation are left out.
func BuildAllocationGroups(allocations []core.Allocation, expenses []core.Expense, incomeTotal float64) []core.AllocationGroup {
	byType := make(map[string][]core.Expense, len(allocations))
	for _, e := range expenses {
		byType[e.AllocationType] = append(byType[e.AllocationType], e)
	}

	groups := make([]core.AllocationGroup, 0, len(allocations))
	for _, a := range allocations {
		members := cloneExpenses(byType[a.Type])
		total := sumAmounts(members)
		groups = append(groups, core.AllocationGroup{
			AllocationType:  a.Description,
			AllocationTotal: total,
			AllocationPct:   Percent(total, incomeTotal),
			Expenses:        members,
		})
	}
	return groups
}

// RecomputeOnIncomeChange returns copies of groups with percentages
// recomputed against newIncome.
func RecomputeOnIncomeChange(groups []core.AllocationGroup, newIncome float64) []core.AllocationGroup {
	out := cloneGroups(groups)
	for i := range out {
		out[i].AllocationPct = Percent(out[i].AllocationTotal, newIncome)
	}
	return out
}

// ApplyExpenseEdit replaces the expenses of the group at groupIndex and
// recomputes that group and the overall allocation. The input groups are
// left untouched, including on error.
func ApplyExpenseEdit(groups []core.AllocationGroup, groupIndex int, updatedExpenses []core.Expense, incomeTotal float64) (EditResult, error) {
	if groupIndex < 0 || groupIndex >= len(groups) {
		return EditResult{}, fmt.Errorf("%w: group %d of %d", core.ErrIndexOutOfRange, groupIndex, len(groups))
	}
	if incomeTotal < 0 || math.IsNaN(incomeTotal) {
		return EditResult{}, fmt.Errorf("%w: income %v", core.ErrInvalidInput, incomeTotal)
	}

	out := cloneGroups(groups)
	g := &out[groupIndex]
	g.Expenses = cloneExpenses(updatedExpenses)
	g.AllocationTotal = sumAmounts(g.Expenses)
	g.AllocationPct = Percent(g.AllocationTotal, incomeTotal)

	total := TotalAllocation(out)
	return EditResult{
		Groups:         out,
		TotalAllocated: total,
		AllocatedPct:   Percent(total, incomeTotal),
	}, nil
}

// ComputeAggregatePercentages derives the headline percentages, each rounded
// to two decimals. Savings may be negative when income is over-allocated.
func ComputeAggregatePercentages(totalNeeds, totalWants, totalDebts, income, totalAllocated float64) core.Aggregates {
	if income == 0 {
		return core.Aggregates{}
	}
	return core.Aggregates{
		AllocatedPct: core.RoundPct(totalAllocated / income * 100),
		NeedsPct:     core.RoundPct(totalNeeds / income * 100),
		WantsPct:     core.RoundPct(totalWants / income * 100),
		DebtsPct:     core.RoundPct(totalDebts / income * 100),
		SavingsPct:   core.RoundPct((income - totalAllocated) / income * 100),
	}
}

// SummarizeAmounts formats the aggregate amounts for display.
func SummarizeAmounts(totalNeeds, totalWants, totalDebts, income, totalAllocated float64) AmountSummary {
	return AmountSummary{
		Needs:   core.FormatAmount(totalNeeds),
		Wants:   core.FormatAmount(totalWants),
		Debts:   core.FormatAmount(totalDebts),
		Savings: core.FormatAmount(income - totalAllocated),
	}
}

func TotalIncome(incomes []core.Income) float64 {
	var total float64
	for _, inc := range incomes {
		total += inc.Amount
	}
	return total
}

func TotalAllocation(groups []core.AllocationGroup) float64 {
	var total float64
	for _, g := range groups {
		total += g.AllocationTotal
	}
	return total
}

// GroupTotalsByType sums group totals into needs, wants and debts. groups
// must come from BuildAllocationGroups over the same allocations, so that
// groups[i] belongs to allocations[i]. Singular type names are accepted.
func GroupTotalsByType(allocations []core.Allocation, groups []core.AllocationGroup) TypeTotals {
	var tt TypeTotals
	for i, g := range groups {
		if i >= len(allocations) {
			break
		}
		switch normalizeType(allocations[i].Type) {
		case TypeNeeds:
			tt.Needs += g.AllocationTotal
		case TypeWants:
			tt.Wants += g.AllocationTotal
		case TypeDebts:
			tt.Debts += g.AllocationTotal
		}
	}
	return tt
}

// Summary bundles everything a budget screen shows for one snapshot.
type Summary struct {
	Groups         []core.AllocationGroup `json:"groups"`
	TotalIncome    float64                `json:"total_income"`
	TotalAllocated float64                `json:"total_allocated"`
	Totals         TypeTotals             `json:"totals"`
	Aggregates     core.Aggregates        `json:"aggregates"`
	Amounts        AmountSummary          `json:"amounts"`
}

// Summarize builds groups for a budget and derives all totals from them.
func Summarize(b core.Budget) Summary {
	income := TotalIncome(b.Incomes)
	groups := BuildAllocationGroups(b.Allocations, b.Expenses, income)
	return summarizeGroups(b.Allocations, groups, income)
}

func summarizeGroups(allocations []core.Allocation, groups []core.AllocationGroup, income float64) Summary {
	allocated := TotalAllocation(groups)
	tt := GroupTotalsByType(allocations, groups)
	return Summary{
		Groups:         groups,
		TotalIncome:    income,
		TotalAllocated: allocated,
		Totals:         tt,
		Aggregates:     ComputeAggregatePercentages(tt.Needs, tt.Wants, tt.Debts, income, allocated),
		Amounts:        SummarizeAmounts(tt.Needs, tt.Wants, tt.Debts, income, allocated),
	}
}

func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	switch t {
	case "need":
		return TypeNeeds
	case "want":
		return TypeWants
	case "debt":
		return TypeDebts
	}
	return t
}

func sumAmounts(expenses []core.Expense) float64 {
	var total float64
	for _, e := range expenses {
		total += e.Amount
	}
	return total
}

func cloneExpenses(in []core.Expense) []core.Expense {
	out := make([]core.Expense, len(in))
	copy(out, in)
	return out
}

func cloneGroups(in []core.AllocationGroup) []core.AllocationGroup {
	out := make([]core.AllocationGroup, len(in))
	for i, g := range in {
		out[i] = g
		out[i].Expenses = cloneExpenses(g.Expenses)
	}
	return out
}
