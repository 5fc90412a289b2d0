package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"smartsplit/internal/allocation"
	"smartsplit/internal/chart"
	"smartsplit/internal/core"
)

const barWidth = 20

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
	labelStyle  = lipgloss.NewStyle().Width(16)
	amountStyle = lipgloss.NewStyle().Width(14).Align(lipgloss.Right)
	pctStyle    = lipgloss.NewStyle().Width(9).Align(lipgloss.Right)
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	overStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
)

func pct(v float64) string {
	return strconv.FormatFloat(core.RoundPct(v), 'f', -1, 64) + "%"
}

func bar(value, limit float64) string {
	filled := chart.ProgressWidth(value, limit) * barWidth / 100
	return barStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("·", barWidth-filled))
}

func renderAllocation(b core.Budget, s allocation.Summary) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("Budget %s · %s · income %s",
		b.UserID, b.PayFrequency, core.FormatAmount(s.TotalIncome))))
	sb.WriteString("\n\n")

	if len(s.Groups) == 0 {
		sb.WriteString(mutedStyle.Render("No allocations defined."))
		sb.WriteString("\n")
	}
	for _, g := range s.Groups {
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render(g.AllocationType),
			amountStyle.Render(core.FormatAmount(g.AllocationTotal)),
			pctStyle.Render(pct(g.AllocationPct)),
			"  ",
			bar(g.AllocationTotal, s.TotalIncome),
		))
		sb.WriteString("\n")
	}

	a := s.Aggregates
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Allocated %s  Needs %s  Wants %s  Debts %s  ",
		pct(a.AllocatedPct), pct(a.NeedsPct), pct(a.WantsPct), pct(a.DebtsPct)))
	savings := "Savings " + pct(a.SavingsPct) + " (" + s.Amounts.Savings + ")"
	if a.SavingsPct < 0 {
		savings = overStyle.Render(savings)
	}
	sb.WriteString(savings)
	sb.WriteString("\n")
	return sb.String()
}

func renderRows(g core.AllocationGroup) string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(titleStyle.Render(g.AllocationType + " rows"))
	sb.WriteString("\n")
	if len(g.Expenses) == 0 {
		sb.WriteString(mutedStyle.Render("No expenses."))
		sb.WriteString("\n")
	}
	for _, e := range g.Expenses {
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render(e.Description),
			amountStyle.Render(core.FormatAmount(e.Amount)),
			"  ",
			mutedStyle.Render(e.Category),
		))
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderSlices(slices []chart.Slice) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Slices"))
	sb.WriteString("\n")
	for _, s := range slices {
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render("● "),
			labelStyle.Render(s.Datum.Label),
			amountStyle.Render(core.FormatAmount(s.Datum.Value)),
			pctStyle.Render(pct(s.Percent)),
			mutedStyle.Render(fmt.Sprintf("  %.2f°-%.2f°", s.StartAngle, s.EndAngle)),
		))
		sb.WriteString("\n")
	}
	return sb.String()
}

const (
	svgSize   = 200
	svgRadius = 90
)

func renderSVG(slices []chart.Slice, inner float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\">\n", svgSize, svgSize)
	c := float64(svgSize) / 2
	for _, s := range slices {
		if s.EndAngle <= s.StartAngle {
			continue
		}
		fmt.Fprintf(&sb, "  <path d=\"%s\" fill=\"%s\"><title>%s</title></path>\n",
			chart.ArcPath(c, c, svgRadius, inner, s.StartAngle, s.EndAngle), s.Color, escapeXML(s.Datum.Label))
	}
	sb.WriteString("</svg>\n")
	return sb.String()
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;")

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
