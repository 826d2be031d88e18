package agent

import (
	"fmt"
	"strings"
)

func mergeFinalMarkdown(r *Report) string {
	month := r.MonthlyReport.Month
	if month == "" {
		month = "all"
	}

	lines := []string{
		"# Finance Agent Report",
		"",
		fmt.Sprintf("- Dataset ID: `%s`", r.MonthlyReport.DatasetID),
		fmt.Sprintf("- Month: `%s`", month),
		fmt.Sprintf("- Currency: `%s`", r.MonthlyReport.Currency),
		"",
		"## Summary",
		"",
		fmt.Sprintf("- Total spent: `%.2f`", r.MonthlyReport.TotalSpent),
		fmt.Sprintf("- Total income: `%.2f`", r.MonthlyReport.TotalIncome),
		fmt.Sprintf("- Net balance: `%.2f`", r.MonthlyReport.NetBalance),
		"",
		"## Top Merchants",
		"",
	}

	for _, m := range r.TopMerchants.TopMerchants {
		lines = append(lines, fmt.Sprintf("- %s: `%.2f` (%d transactions)",
			m.Merchant, m.TotalSpend, m.TransactionsCount))
	}

	lines = append(lines, "", "## Savings Suggestions", "")
	for i, s := range r.BudgetSuggestions.Suggestions {
		lines = append(lines, fmt.Sprintf("%d. %s (estimated impact `%.2f`)",
			i+1, s.Title, s.EstimatedMonthlyImpact))
		lines = append(lines, fmt.Sprintf("   - Reason: %s", s.Reason))
		lines = append(lines, fmt.Sprintf("   - Action: %s", s.ActionSteps[0]))
	}

	lines = append(lines, "", "## Detected Anomalies", "")
	if len(r.BudgetSuggestions.Anomalies) > 0 {
		anomalies := r.BudgetSuggestions.Anomalies
		if len(anomalies) > 10 {
			anomalies = anomalies[:10]
		}
		for _, a := range anomalies {
			lines = append(lines, fmt.Sprintf("- [%s] %s", a.Severity, a.Message))
		}
	} else {
		lines = append(lines, "- No anomalies detected for the selected scope.")
	}

	if r.BudgetSuggestions.Summary != "" {
		lines = append(lines, "", "## LLM Executive Summary", "", r.BudgetSuggestions.Summary)
	}

	return strings.Join(lines, "\n")
}
