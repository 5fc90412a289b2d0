// Package budgetfile loads budgets from TOML or YAML files.
//
// A file looks like:
//
//	user_id = "alex"
//	pay_frequency = "monthly"
//
//	[[incomes]]
//	description = "Salary"
//	amount = "4,000"
//
//	[[allocations]]
//	type = "needs"
//	description = "Needs"
//
//	[[expenses]]
//	description = "Rent"
//	amount = 1000
//	category = "Housing"
//	allocation = "needs"
//
// Amounts may be numbers or currency text such as "$1,234.50".
package budgetfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"smartsplit/internal/core"
)

// DefaultUserID is used when the file leaves user_id empty.
const DefaultUserID = "local"

type (
	file struct {
		UserID       string         `toml:"user_id" yaml:"user_id"`
		PayFrequency string         `toml:"pay_frequency" yaml:"pay_frequency"`
		Incomes      []incomeEntry  `toml:"incomes" yaml:"incomes"`
		Allocations  []allocEntry   `toml:"allocations" yaml:"allocations"`
		Expenses     []expenseEntry `toml:"expenses" yaml:"expenses"`
	}

	incomeEntry struct {
		Description string `toml:"description" yaml:"description"`
		Amount      any    `toml:"amount" yaml:"amount"`
		Frequency   string `toml:"frequency" yaml:"frequency"`
	}

	allocEntry struct {
		Type        string  `toml:"type" yaml:"type"`
		Description string  `toml:"description" yaml:"description"`
		Factor      float64 `toml:"factor" yaml:"factor"`
	}

	expenseEntry struct {
		ID          string `toml:"id" yaml:"id"`
		Description string `toml:"description" yaml:"description"`
		Amount      any    `toml:"amount" yaml:"amount"`
		Category    string `toml:"category" yaml:"category"`
		Allocation  string `toml:"allocation" yaml:"allocation"`
	}
)

// Format selects the decoder.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: unsupported budget file extension %q", core.ErrInvalidInput, filepath.Ext(path))
}

// Load reads and validates the budget at path.
func Load(path string) (core.Budget, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return core.Budget{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Budget{}, fmt.Errorf("read budget file: %w", err)
	}
	b, err := Parse(data, format)
	if err != nil {
		return core.Budget{}, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Parse decodes data in the given format into a validated budget.
func Parse(data []byte, format Format) (core.Budget, error) {
	var f file
	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&f)
		if err != nil {
			return core.Budget{}, fmt.Errorf("%w: decode toml: %v", core.ErrInvalidInput, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return core.Budget{}, fmt.Errorf("%w: unknown toml key %q", core.ErrInvalidInput, undecoded[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return core.Budget{}, fmt.Errorf("%w: decode yaml: %v", core.ErrInvalidInput, err)
		}
	default:
		return core.Budget{}, fmt.Errorf("%w: unknown format %q", core.ErrInvalidInput, format)
	}
	return f.budget()
}

func (f file) budget() (core.Budget, error) {
	freq, err := core.ParsePayFrequency(f.PayFrequency)
	if err != nil {
		return core.Budget{}, err
	}

	b := core.Budget{
		UserID:       strings.TrimSpace(f.UserID),
		PayFrequency: freq,
		Incomes:      make([]core.Income, 0, len(f.Incomes)),
		Allocations:  make([]core.Allocation, 0, len(f.Allocations)),
		Expenses:     make([]core.Expense, 0, len(f.Expenses)),
	}
	if b.UserID == "" {
		b.UserID = DefaultUserID
	}

	for i, in := range f.Incomes {
		amount, err := amountValue(in.Amount)
		if err != nil {
			return core.Budget{}, fmt.Errorf("income %d: %w", i+1, err)
		}
		b.Incomes = append(b.Incomes, core.Income{
			ID:          "income-" + strconv.Itoa(i+1),
			Description: in.Description,
			Amount:      amount,
			Frequency:   in.Frequency,
		})
	}
	for _, a := range f.Allocations {
		b.Allocations = append(b.Allocations, core.Allocation{
			Type:        strings.TrimSpace(a.Type),
			Description: a.Description,
			Factor:      a.Factor,
		})
	}
	for i, e := range f.Expenses {
		amount, err := amountValue(e.Amount)
		if err != nil {
			return core.Budget{}, fmt.Errorf("expense %d: %w", i+1, err)
		}
		id := e.ID
		if id == "" {
			id = "expense-" + strconv.Itoa(i+1)
		}
		b.Expenses = append(b.Expenses, core.Expense{
			ID:             id,
			Description:    e.Description,
			Amount:         amount,
			Category:       e.Category,
			AllocationType: strings.TrimSpace(e.Allocation),
		})
	}

	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

// amountValue accepts the numeric types both decoders produce and currency
// text.
func amountValue(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(n))
		if cleaned == "" {
			return 0, nil
		}
		return core.ParseAmount(cleaned)
	default:
		return 0, fmt.Errorf("%w: amount of type %T", core.ErrTypeMismatch, v)
	}
}
