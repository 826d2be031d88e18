// Package report computes monthly aggregate reports and merchant
// rankings over stored transaction rows.
package report

import (
	"context"
	"fmt"
	"sort"

	"finsight/internal/category"
	"finsight/internal/core"
	"finsight/internal/storage"
)

type (
	CategoryAmount struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}

	MonthlyReport struct {
		DatasetID         string           `json:"dataset_id"`
		Month             string           `json:"month,omitempty"`
		RowsAnalyzed      int              `json:"rows_analyzed"`
		Currency          string           `json:"currency"`
		TotalSpent        float64          `json:"total_spent"`
		TotalIncome       float64          `json:"total_income"`
		NetBalance        float64          `json:"net_balance"`
		CategoryBreakdown []CategoryAmount `json:"category_breakdown"`
		MarkdownReport    string           `json:"markdown_report"`
	}

	MerchantSpend struct {
		Merchant          string  `json:"merchant"`
		Currency          string  `json:"currency"`
		TotalSpend        float64 `json:"total_spend"`
		TransactionsCount int     `json:"transactions_count"`
	}

	TopMerchants struct {
		DatasetID    string          `json:"dataset_id"`
		Month        string          `json:"month,omitempty"`
		Currency     string          `json:"currency"`
		TopMerchants []MerchantSpend `json:"top_merchants"`
	}
)

// Service reads stored rows and derives reports. It holds no state
// beyond its collaborators and is safe for concurrent use.
type Service struct {
	store  *storage.SQLiteRepository
	engine *category.Engine
}

func NewService(store *storage.SQLiteRepository, engine *category.Engine) *Service {
	return &Service{store: store, engine: engine}
}

// MonthlyReport aggregates income, spend and the expense category
// breakdown for a dataset, optionally filtered to one month.
func (s *Service) MonthlyReport(ctx context.Context, datasetID, month string) (*MonthlyReport, error) {
	rows, err := s.loadRows(ctx, datasetID, month)
	if err != nil {
		return nil, err
	}

	var incomeCents, spentCents int64
	for _, row := range rows {
		if row.AmountCents > 0 {
			incomeCents += row.AmountCents
		} else {
			spentCents += -row.AmountCents
		}
	}
	netCents := incomeCents - spentCents

	breakdown := s.categoryBreakdown(rows)

	reportMonth := month
	if reportMonth == "" {
		reportMonth = inferSingleMonth(rows)
	}
	currency := ResolveCurrency(rows)

	r := &MonthlyReport{
		DatasetID:         datasetID,
		Month:             reportMonth,
		RowsAnalyzed:      len(rows),
		Currency:          currency,
		TotalSpent:        core.CentsToAmount(spentCents),
		TotalIncome:       core.CentsToAmount(incomeCents),
		NetBalance:        core.CentsToAmount(netCents),
		CategoryBreakdown: breakdown,
	}
	r.MarkdownReport = renderMonthlyMarkdown(r)
	return r, nil
}

// TopMerchants ranks merchants by absolute expense volume.
func (s *Service) TopMerchants(ctx context.Context, datasetID, month string, limit int) (*TopMerchants, error) {
	if err := core.ValidateMonth(month); err != nil {
		return nil, err
	}
	if err := s.requireDataset(ctx, datasetID); err != nil {
		return nil, err
	}

	merchants, err := s.store.FetchTopMerchants(ctx, datasetID, month, limit)
	if err != nil {
		return nil, err
	}
	if len(merchants) == 0 {
		return nil, core.ErrNoExpenses
	}

	out := &TopMerchants{
		DatasetID: datasetID,
		Month:     month,
		Currency:  merchants[0].Currency,
	}
	for _, m := range merchants {
		out.TopMerchants = append(out.TopMerchants, MerchantSpend{
			Merchant:          m.Merchant,
			Currency:          m.Currency,
			TotalSpend:        core.CentsToAmount(m.SpendCents),
			TransactionsCount: m.TxnCount,
		})
	}
	return out, nil
}

func (s *Service) loadRows(ctx context.Context, datasetID, month string) ([]core.Transaction, error) {
	if err := core.ValidateMonth(month); err != nil {
		return nil, err
	}
	if err := s.requireDataset(ctx, datasetID); err != nil {
		return nil, err
	}

	rows, err := s.store.FetchTransactions(ctx, datasetID, month)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.ErrNoTransactions
	}
	return rows, nil
}

func (s *Service) requireDataset(ctx context.Context, datasetID string) error {
	exists, err := s.store.DatasetExists(ctx, datasetID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", core.ErrUnknownDataset, datasetID)
	}
	return nil
}

// categoryBreakdown sums expenses per category, sorted by spend
// descending with first-appearance order breaking ties.
func (s *Service) categoryBreakdown(rows []core.Transaction) []CategoryAmount {
	totals := make(map[string]int64)
	var order []string
	for _, row := range rows {
		if !row.IsExpense() {
			continue
		}
		cat, _ := s.engine.Categorize(row.Merchant, row.Description)
		if _, ok := totals[cat]; !ok {
			order = append(order, cat)
		}
		totals[cat] += -row.AmountCents
	}

	sort.SliceStable(order, func(i, j int) bool {
		return totals[order[i]] > totals[order[j]]
	})

	breakdown := make([]CategoryAmount, 0, len(order))
	for _, cat := range order {
		breakdown = append(breakdown, CategoryAmount{
			Category: cat,
			Amount:   core.CentsToAmount(totals[cat]),
		})
	}
	return breakdown
}

// ResolveCurrency picks the most frequent currency across the rows,
// first seen winning ties.
func ResolveCurrency(rows []core.Transaction) string {
	counts := make(map[string]int)
	var order []string
	for _, row := range rows {
		if _, ok := counts[row.Currency]; !ok {
			order = append(order, row.Currency)
		}
		counts[row.Currency]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) == 0 {
		return ""
	}
	return order[0]
}

func inferSingleMonth(rows []core.Transaction) string {
	months := make(map[string]struct{})
	single := ""
	for _, row := range rows {
		months[row.Month()] = struct{}{}
		single = row.Month()
	}
	if len(months) == 1 {
		return single
	}
	return ""
}
