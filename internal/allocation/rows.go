package allocation

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"smartsplit/internal/core"
)

// Field names an editable column of an expense row.
type Field string

const (
	FieldDescription Field = "description"
	FieldAmount      Field = "amount"
	FieldCategory    Field = "category"
)

// Partial input such as "12." or "." is accepted while the user types.
var amountInput = regexp.MustCompile(`^\d*\.?\d*$`)

// IsValidAmountInput reports whether s is acceptable text for an amount cell.
func IsValidAmountInput(s string) bool {
	return amountInput.MatchString(s)
}

// NewExpenseRow returns an empty expense with a fresh id.
func NewExpenseRow(allocationType string) core.Expense {
	return core.Expense{
		ID:             uuid.NewString(),
		AllocationType: allocationType,
	}
}

// AddExpenseRow returns a copy of expenses with a new empty row appended.
func AddExpenseRow(expenses []core.Expense, allocationType string) []core.Expense {
	out := make([]core.Expense, 0, len(expenses)+1)
	out = append(out, expenses...)
	return append(out, NewExpenseRow(allocationType))
}

// RemoveExpenseRow returns a copy of expenses without the rows matching id.
func RemoveExpenseRow(expenses []core.Expense, id string) []core.Expense {
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

// EditExpenseField returns a copy of expenses with one field of the row
// matching id set to value. Amount text that fails IsValidAmountInput is
// rejected with ErrInvalidInput and the rows are returned unchanged.
func EditExpenseField(expenses []core.Expense, id string, field Field, value string) ([]core.Expense, error) {
	out := cloneExpenses(expenses)
	idx := -1
	for i := range out {
		if out[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return out, fmt.Errorf("%w: expense %q", core.ErrNotFound, id)
	}

	switch field {
	case FieldDescription:
		out[idx].Description = value
	case FieldCategory:
		out[idx].Category = value
	case FieldAmount:
		if !IsValidAmountInput(value) {
			return cloneExpenses(expenses), fmt.Errorf("%w: amount %q", core.ErrInvalidInput, value)
		}
		// "" and "." are valid while typing and count as zero.
		amount, err := core.ParseAmount(value)
		if err != nil {
			amount = 0
		}
		out[idx].Amount = amount
	default:
		return cloneExpenses(expenses), fmt.Errorf("%w: unknown field %q", core.ErrInvalidInput, field)
	}
	return out, nil
}
