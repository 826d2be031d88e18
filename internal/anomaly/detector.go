// Package anomaly derives typed spending findings from categorized
// expense rows: percentile outliers, category growth against history,
// recurring subscriptions, and single-day spending spikes.
//
// Findings are computed fresh per request and never stored. All grouping
// preserves first-appearance order so results are reproducible for
// identical input.
package anomaly

import (
	"fmt"
	"math"
	"sort"

	"finsight/internal/category"
	"finsight/internal/core"
)

const (
	TypeHighTransaction       = "high_transaction_within_category"
	TypeCategoryGrowth        = "category_growth_vs_history"
	TypeRecurringSubscription = "possible_recurring_subscription"
	TypeSingleDaySpike        = "single_day_spending_spike"

	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

const (
	minCategoryRows         = 5
	maxPercentileFindings   = 10
	growthRatioThreshold    = 1.3
	growthFloorCents        = 10000
	minSubscriptionCount    = 3
	minSubscriptionMonths   = 3
	maxSubscriptionDev      = 0.15
	maxSubscriptionFindings = 10
	minSpendingDays         = 5
)

// Finding is one detector output. Monetary fields are major currency
// units rounded to two decimals; unused fields stay zero and are
// omitted from JSON.
type Finding struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`

	Merchant string `json:"merchant,omitempty"`
	Category string `json:"category,omitempty"`
	Date     string `json:"date,omitempty"`
	Month    string `json:"month,omitempty"`

	Amount               float64 `json:"amount,omitempty"`
	ThresholdP95         float64 `json:"threshold_p95,omitempty"`
	CurrentSpend         float64 `json:"current_spend,omitempty"`
	HistoricalAverage    float64 `json:"historical_average,omitempty"`
	GrowthPct            float64 `json:"growth_pct,omitempty"`
	MonthsDetected       int     `json:"months_detected,omitempty"`
	AverageMonthlyAmount float64 `json:"average_monthly_amount,omitempty"`
	TotalSpend           float64 `json:"total_spend,omitempty"`
	MonthlyDailyAverage  float64 `json:"monthly_daily_average,omitempty"`
}

// Detector runs the four anomaly checks over a transaction batch.
type Detector struct {
	engine *category.Engine
}

func NewDetector(engine *category.Engine) *Detector {
	return &Detector{engine: engine}
}

type expenseRow struct {
	merchant     string
	category     string
	date         string // full ISO date
	month        string // YYYY-MM
	expenseCents int64
}

// Detect categorizes the expense rows in the batch and concatenates the
// four detector outputs in fixed order. targetMonth defaults to the
// latest month present among expense rows when empty.
func (d *Detector) Detect(rows []core.Transaction, targetMonth string) []Finding {
	var expenses []expenseRow
	for _, row := range rows {
		if !row.IsExpense() {
			continue
		}
		cat, _ := d.engine.Categorize(row.Merchant, row.Description)
		expenses = append(expenses, expenseRow{
			merchant:     row.Merchant,
			category:     cat,
			date:         row.TxnDate,
			month:        row.Month(),
			expenseCents: -row.AmountCents,
		})
	}
	if len(expenses) == 0 {
		return nil
	}

	if targetMonth == "" {
		targetMonth = latestMonth(expenses)
	}

	var findings []Finding
	findings = append(findings, percentileOutliers(expenses)...)
	findings = append(findings, categoryGrowth(expenses, targetMonth)...)
	findings = append(findings, recurringSubscriptions(expenses)...)
	findings = append(findings, singleDaySpike(expenses, targetMonth)...)
	return findings
}

// percentileOutliers flags rows above the 95th percentile of their own
// category. Categories with fewer than 5 rows are skipped; total output
// is capped at 10 findings across all categories in iteration order.
func percentileOutliers(rows []expenseRow) []Finding {
	byCategory, order := groupByCategory(rows)

	var findings []Finding
	for _, cat := range order {
		values := byCategory[cat]
		if len(values) < minCategoryRows {
			continue
		}

		amounts := make([]int64, len(values))
		for i, row := range values {
			amounts[i] = row.expenseCents
		}
		sort.Slice(amounts, func(i, j int) bool { return amounts[i] < amounts[j] })
		p95 := percentile(amounts, 0.95)

		for _, row := range values {
			if float64(row.expenseCents) > p95 {
				findings = append(findings, Finding{
					Type:         TypeHighTransaction,
					Severity:     SeverityMedium,
					Merchant:     row.merchant,
					Category:     cat,
					Date:         row.date,
					Amount:       core.CentsToAmount(row.expenseCents),
					ThresholdP95: core.RoundAmount(p95 / 100.0),
					Message:      fmt.Sprintf("%s is above the 95th percentile in %s.", row.merchant, cat),
				})
			}
		}
	}

	if len(findings) > maxPercentileFindings {
		findings = findings[:maxPercentileFindings]
	}
	return findings
}

// categoryGrowth flags categories whose target-month total exceeds the
// mean of their other months' positive totals by more than 30% and by
// more than 100.00 in absolute terms.
func categoryGrowth(rows []expenseRow, targetMonth string) []Finding {
	totals := make(map[string]map[string]int64)
	var order []string
	for _, row := range rows {
		monthMap, ok := totals[row.category]
		if !ok {
			monthMap = make(map[string]int64)
			totals[row.category] = monthMap
			order = append(order, row.category)
		}
		monthMap[row.month] += row.expenseCents
	}

	var findings []Finding
	for _, cat := range order {
		monthMap := totals[cat]
		current := monthMap[targetMonth]
		if current <= 0 {
			continue
		}

		var historicalSum int64
		historicalCount := 0
		for month, value := range monthMap {
			if month != targetMonth && value > 0 {
				historicalSum += value
				historicalCount++
			}
		}
		if historicalCount == 0 {
			continue
		}
		baseline := float64(historicalSum) / float64(historicalCount)
		if baseline <= 0 {
			continue
		}

		ratio := float64(current) / baseline
		if ratio > growthRatioThreshold && float64(current)-baseline > growthFloorCents {
			growthPct := (ratio - 1.0) * 100.0
			findings = append(findings, Finding{
				Type:              TypeCategoryGrowth,
				Severity:          SeverityHigh,
				Category:          cat,
				Month:             targetMonth,
				CurrentSpend:      core.CentsToAmount(current),
				HistoricalAverage: core.RoundAmount(baseline / 100.0),
				GrowthPct:         core.RoundAmount(growthPct),
				Message:           fmt.Sprintf("%s spending is %d%% above historical average.", cat, int(math.Round(growthPct))),
			})
		}
	}
	return findings
}

// recurringSubscriptions flags merchants charged at least 3 times across
// at least 3 distinct months where every amount stays within 15% of the
// mean. Capped at 10 findings across all merchants in iteration order.
func recurringSubscriptions(rows []expenseRow) []Finding {
	byMerchant := make(map[string][]expenseRow)
	var order []string
	for _, row := range rows {
		if _, ok := byMerchant[row.merchant]; !ok {
			order = append(order, row.merchant)
		}
		byMerchant[row.merchant] = append(byMerchant[row.merchant], row)
	}

	var findings []Finding
	for _, merchant := range order {
		values := byMerchant[merchant]
		months := make(map[string]struct{})
		for _, row := range values {
			months[row.month] = struct{}{}
		}
		if len(values) < minSubscriptionCount || len(months) < minSubscriptionMonths {
			continue
		}

		var sum int64
		for _, row := range values {
			sum += row.expenseCents
		}
		mean := float64(sum) / float64(len(values))
		if mean <= 0 {
			continue
		}

		maxDev := 0.0
		for _, row := range values {
			dev := math.Abs(float64(row.expenseCents)-mean) / mean
			if dev > maxDev {
				maxDev = dev
			}
		}
		if maxDev <= maxSubscriptionDev {
			findings = append(findings, Finding{
				Type:                 TypeRecurringSubscription,
				Severity:             SeverityMedium,
				Merchant:             merchant,
				MonthsDetected:       len(months),
				AverageMonthlyAmount: core.RoundAmount(mean / 100.0),
				Message:              fmt.Sprintf("%s appears as a recurring subscription.", merchant),
			})
		}
	}

	if len(findings) > maxSubscriptionFindings {
		findings = findings[:maxSubscriptionFindings]
	}
	return findings
}

// singleDaySpike flags days in the target month whose total spend sits
// above mean + 2 standard deviations AND above 1.5x the mean. Both
// gates are required: a plain z-score over-flags small skewed samples.
func singleDaySpike(rows []expenseRow, targetMonth string) []Finding {
	dayTotals := make(map[string]int64)
	for _, row := range rows {
		if row.month == targetMonth {
			dayTotals[row.date] += row.expenseCents
		}
	}
	if len(dayTotals) < minSpendingDays {
		return nil
	}

	days := make([]string, 0, len(dayTotals))
	var sum int64
	for day, total := range dayTotals {
		days = append(days, day)
		sum += total
	}
	sort.Strings(days)

	mean := float64(sum) / float64(len(dayTotals))
	std := populationStdDev(dayTotals, mean)
	if std == 0 {
		return nil
	}
	threshold := mean + 2.0*std

	var findings []Finding
	for _, day := range days {
		total := float64(dayTotals[day])
		if total > threshold && total > mean*1.5 {
			findings = append(findings, Finding{
				Type:                TypeSingleDaySpike,
				Severity:            SeverityHigh,
				Date:                day,
				TotalSpend:          core.RoundAmount(total / 100.0),
				MonthlyDailyAverage: core.RoundAmount(mean / 100.0),
				Message:             fmt.Sprintf("Single-day spend spike detected on %s.", day),
			})
		}
	}
	return findings
}

func groupByCategory(rows []expenseRow) (map[string][]expenseRow, []string) {
	byCategory := make(map[string][]expenseRow)
	var order []string
	for _, row := range rows {
		if _, ok := byCategory[row.category]; !ok {
			order = append(order, row.category)
		}
		byCategory[row.category] = append(byCategory[row.category], row)
	}
	return byCategory, order
}

func latestMonth(rows []expenseRow) string {
	latest := ""
	for _, row := range rows {
		if row.month > latest {
			latest = row.month
		}
	}
	return latest
}

// percentile computes the q-th percentile of sorted values using linear
// interpolation between order statistics.
func percentile(sorted []int64, q float64) float64 {
	if len(sorted) == 0 {
		return 0.0
	}
	if len(sorted) == 1 {
		return float64(sorted[0])
	}
	index := float64(len(sorted)-1) * q
	low := int(index)
	high := low + 1
	if high > len(sorted)-1 {
		high = len(sorted) - 1
	}
	weight := index - float64(low)
	return float64(sorted[low])*(1.0-weight) + float64(sorted[high])*weight
}

func populationStdDev(totals map[string]int64, mean float64) float64 {
	variance := 0.0
	for _, total := range totals {
		diff := float64(total) - mean
		variance += diff * diff
	}
	variance /= float64(len(totals))
	return math.Sqrt(variance)
}
