package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"smartsplit/internal/allocation"
	"smartsplit/internal/budgetfile"
	"smartsplit/internal/chart"
	"smartsplit/internal/core"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "budgetctl",
		Short:         "Inspect budget allocations from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAllocateCmd(), newEditCmd(), newPieCmd(), newFormatCmd(), newParseCmd())
	return root
}

func newAllocateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocate -f BUDGET_FILE",
		Short: "Print allocation groups and aggregate percentages",
		Long: `Load a budget from a TOML or YAML file, group its expenses by allocation
and print each group with its share of income. --income overrides the income
from the file.`,
		Args: cobra.NoArgs,
		RunE: runAllocate,
	}
	cmd.Flags().StringP("file", "f", "", "Budget file (.toml, .yaml or .yml)")
	cmd.Flags().Float64("income", 0, "Override total income")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runAllocate(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")
	b, err := budgetfile.Load(path)
	if err != nil {
		return err
	}

	state := allocation.NewState(b)
	if cmd.Flags().Changed("income") {
		income, _ := cmd.Flags().GetFloat64("income")
		if state, err = state.WithIncome(income); err != nil {
			return err
		}
	}

	fmt.Fprint(cmd.OutOrStdout(), renderAllocation(b, state.Summary()))
	return nil
}

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit -f BUDGET_FILE --group TYPE",
		Short: "Edit the expense rows of one allocation and print the result",
		Long: `Apply row edits to the expenses of one allocation group and print the
recomputed allocation. Removals run first, then field edits, then additions.
Rows loaded from a file are named expense-1, expense-2, ... in file order.`,
		Example: `  budgetctl edit -f budget.toml --group needs --set expense-1.amount=1200
  budgetctl edit -f budget.toml --group wants --remove expense-2 --add description=Gym,amount=40`,
		Args: cobra.NoArgs,
		RunE: runEdit,
	}
	cmd.Flags().StringP("file", "f", "", "Budget file (.toml, .yaml or .yml)")
	cmd.Flags().StringP("group", "g", "", "Allocation type of the group to edit")
	cmd.Flags().StringArray("remove", nil, "Remove the row with this id (repeatable)")
	cmd.Flags().StringArray("set", nil, "Set a field as ID.FIELD=VALUE (repeatable)")
	cmd.Flags().StringArray("add", nil, "Add a row as FIELD=VALUE[,FIELD=VALUE...] (repeatable)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

func runEdit(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")
	b, err := budgetfile.Load(path)
	if err != nil {
		return err
	}

	group, _ := cmd.Flags().GetString("group")
	state := allocation.NewState(b)
	idx := -1
	for i, a := range state.Allocations {
		if a.Type == group {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: allocation %q", core.ErrNotFound, group)
	}

	removes, _ := cmd.Flags().GetStringArray("remove")
	sets, _ := cmd.Flags().GetStringArray("set")
	adds, _ := cmd.Flags().GetStringArray("add")
	rows, err := editRows(state.Groups[idx].Expenses, group, removes, sets, adds)
	if err != nil {
		return err
	}

	if state, err = state.WithGroupEdit(idx, rows); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, renderAllocation(b, state.Summary()))
	fmt.Fprint(out, renderRows(state.Groups[idx]))
	return nil
}

func editRows(rows []core.Expense, allocationType string, removes, sets, adds []string) ([]core.Expense, error) {
	for _, id := range removes {
		next := allocation.RemoveExpenseRow(rows, id)
		if len(next) == len(rows) {
			return nil, fmt.Errorf("%w: expense %q", core.ErrNotFound, id)
		}
		rows = next
	}

	var err error
	for _, s := range sets {
		target, value, ok := strings.Cut(s, "=")
		dot := strings.LastIndex(target, ".")
		if !ok || dot <= 0 {
			return nil, fmt.Errorf("%w: --set %q, want ID.FIELD=VALUE", core.ErrInvalidInput, s)
		}
		if rows, err = allocation.EditExpenseField(rows, target[:dot], allocation.Field(target[dot+1:]), value); err != nil {
			return nil, err
		}
	}

	for _, add := range adds {
		rows = allocation.AddExpenseRow(rows, allocationType)
		id := rows[len(rows)-1].ID
		for _, kv := range strings.Split(add, ",") {
			field, value, ok := strings.Cut(kv, "=")
			if !ok {
				return nil, fmt.Errorf("%w: --add %q, want FIELD=VALUE", core.ErrInvalidInput, add)
			}
			if rows, err = allocation.EditExpenseField(rows, id, allocation.Field(strings.TrimSpace(field)), value); err != nil {
				return nil, err
			}
		}
	}
	return rows, nil
}

func newPieCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pie -f BUDGET_FILE",
		Short: "Print the pie chart slices of a budget",
		Args:  cobra.NoArgs,
		RunE:  runPie,
	}
	cmd.Flags().StringP("file", "f", "", "Budget file (.toml, .yaml or .yml)")
	cmd.Flags().Bool("svg", false, "Print an SVG document instead of a table")
	cmd.Flags().Float64("inner", 0, "Inner radius for a donut chart (SVG only)")
	cmd.Flags().Float64("pad", 0, "Padding angle in degrees shared between slices")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runPie(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")
	b, err := budgetfile.Load(path)
	if err != nil {
		return err
	}
	pad, _ := cmd.Flags().GetFloat64("pad")
	if pad < 0 || pad >= 360 {
		return fmt.Errorf("%w: pad angle %v", core.ErrInvalidInput, pad)
	}

	summary := allocation.Summarize(b)
	slices := chart.PieSlices(chart.SlicesFromGroups(summary.Groups, summary.TotalIncome), pad)

	if svg, _ := cmd.Flags().GetBool("svg"); svg {
		inner, _ := cmd.Flags().GetFloat64("inner")
		fmt.Fprint(cmd.OutOrStdout(), renderSVG(slices, inner))
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), renderSlices(slices))
	return nil
}

func newFormatCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "format VALUE",
		Short:   "Format raw input as currency",
		Example: "  budgetctl format 1234567.891   # $1,234,567.89",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), core.FormatCurrency(args[0]))
			return nil
		},
	}
}

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "parse VALUE",
		Short:   "Parse a currency string into a number",
		Example: "  budgetctl parse '$1,234.50'   # 1234.5",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strict, _ := cmd.Flags().GetBool("strict"); strict {
				v, err := core.ParseAmount(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(v, 'f', -1, 64))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(core.ParseCurrency(args[0]), 'f', -1, 64))
			return nil
		},
	}
	cmd.Flags().Bool("strict", false, "Reject anything but digits and one decimal point")
	return cmd
}
