package report

import (
	"fmt"
	"strings"
)

// renderMonthlyMarkdown renders the report as a standalone markdown
// document for CLI and chat surfaces.
func renderMonthlyMarkdown(r *MonthlyReport) string {
	month := r.Month
	if month == "" {
		month = "all"
	}

	lines := []string{
		"# Monthly Finance Report",
		"",
		fmt.Sprintf("- Dataset ID: `%s`", r.DatasetID),
		fmt.Sprintf("- Month: `%s`", month),
		fmt.Sprintf("- Currency: `%s`", r.Currency),
		"",
		"## Summary",
		"",
		fmt.Sprintf("- Total spent: `%.2f`", r.TotalSpent),
		fmt.Sprintf("- Total income: `%.2f`", r.TotalIncome),
		fmt.Sprintf("- Net balance: `%.2f`", r.NetBalance),
		"",
		"## Category Breakdown (Expenses)",
		"",
	}

	if len(r.CategoryBreakdown) == 0 {
		lines = append(lines, "- No expense categories found.")
	} else {
		for _, c := range r.CategoryBreakdown {
			lines = append(lines, fmt.Sprintf("- %s: `%.2f`", c.Category, c.Amount))
		}
	}

	return strings.Join(lines, "\n")
}
