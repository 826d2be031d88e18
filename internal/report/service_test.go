package report

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"finsight/internal/category"
	"finsight/internal/core"
	"finsight/internal/storage"
)

func newTestService(t *testing.T) (*Service, *storage.SQLiteRepository) {
	t.Helper()
	store, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewService(store, category.NewEngine(nil)), store
}

func seedDataset(t *testing.T, store *storage.SQLiteRepository, datasetID string, rows []core.Transaction) {
	t.Helper()
	ctx := context.Background()
	ds := core.Dataset{ID: datasetID, SourceName: "test.csv", RowsIngested: len(rows)}
	if err := store.InsertDataset(ctx, ds); err != nil {
		t.Fatalf("insert dataset: %v", err)
	}
	if err := store.InsertTransactions(ctx, datasetID, rows, nil); err != nil {
		t.Fatalf("insert transactions: %v", err)
	}
}

func sampleRows() []core.Transaction {
	return []core.Transaction{
		{RowNumber: 2, TxnDate: "2026-01-03", Merchant: "Whole Foods", AmountCents: -12845, Currency: "USD", Type: core.TypeExpense},
		{RowNumber: 3, TxnDate: "2026-01-07", Merchant: "Employer", AmountCents: 320000, Currency: "USD", Type: core.TypeIncome},
		{RowNumber: 4, TxnDate: "2026-01-09", Merchant: "Netflix", AmountCents: -1999, Currency: "USD", Type: core.TypeExpense},
		{RowNumber: 5, TxnDate: "2026-01-15", Merchant: "Shell", AmountCents: -5420, Currency: "USD", Type: core.TypeExpense},
	}
}

func TestMonthlyReport(t *testing.T) {
	svc, store := newTestService(t)
	seedDataset(t, store, "ds1", sampleRows())

	got, err := svc.MonthlyReport(context.Background(), "ds1", "2026-01")
	if err != nil {
		t.Fatalf("MonthlyReport: %v", err)
	}

	if got.DatasetID != "ds1" || got.Month != "2026-01" || got.Currency != "USD" {
		t.Errorf("report header = %q/%q/%q", got.DatasetID, got.Month, got.Currency)
	}
	if got.RowsAnalyzed != 4 {
		t.Errorf("RowsAnalyzed = %d, want 4", got.RowsAnalyzed)
	}
	if got.TotalSpent != 202.64 {
		t.Errorf("TotalSpent = %v, want 202.64", got.TotalSpent)
	}
	if got.TotalIncome != 3200.0 {
		t.Errorf("TotalIncome = %v, want 3200.0", got.TotalIncome)
	}
	if got.NetBalance != 2997.36 {
		t.Errorf("NetBalance = %v, want 2997.36", got.NetBalance)
	}

	want := []CategoryAmount{
		{Category: "grocery", Amount: 128.45},
		{Category: "transport", Amount: 54.20},
		{Category: "subscriptions", Amount: 19.99},
	}
	if len(got.CategoryBreakdown) != len(want) {
		t.Fatalf("breakdown = %+v, want %+v", got.CategoryBreakdown, want)
	}
	for i, w := range want {
		if got.CategoryBreakdown[i] != w {
			t.Errorf("breakdown[%d] = %+v, want %+v", i, got.CategoryBreakdown[i], w)
		}
	}
}

func TestMonthlyReportMarkdown(t *testing.T) {
	svc, store := newTestService(t)
	seedDataset(t, store, "ds1", sampleRows())

	got, err := svc.MonthlyReport(context.Background(), "ds1", "2026-01")
	if err != nil {
		t.Fatalf("MonthlyReport: %v", err)
	}

	want := strings.Join([]string{
		"# Monthly Finance Report",
		"",
		"- Dataset ID: `ds1`",
		"- Month: `2026-01`",
		"- Currency: `USD`",
		"",
		"## Summary",
		"",
		"- Total spent: `202.64`",
		"- Total income: `3200.00`",
		"- Net balance: `2997.36`",
		"",
		"## Category Breakdown (Expenses)",
		"",
		"- grocery: `128.45`",
		"- transport: `54.20`",
		"- subscriptions: `19.99`",
	}, "\n")

	if got.MarkdownReport != want {
		t.Errorf("markdown mismatch:\n%s\n---want---\n%s", got.MarkdownReport, want)
	}
}

func TestMonthlyReportInfersSingleMonth(t *testing.T) {
	svc, store := newTestService(t)
	seedDataset(t, store, "ds1", sampleRows())

	got, err := svc.MonthlyReport(context.Background(), "ds1", "")
	if err != nil {
		t.Fatalf("MonthlyReport: %v", err)
	}
	// Every row is in January, so the unfiltered report names the month.
	if got.Month != "2026-01" {
		t.Errorf("Month = %q, want inferred 2026-01", got.Month)
	}
}

func TestMonthlyReportMultiMonthStaysUnlabeled(t *testing.T) {
	svc, store := newTestService(t)
	rows := append(sampleRows(), core.Transaction{
		RowNumber: 6, TxnDate: "2026-02-01", Merchant: "Shell", AmountCents: -1000, Currency: "USD", Type: core.TypeExpense,
	})
	seedDataset(t, store, "ds1", rows)

	got, err := svc.MonthlyReport(context.Background(), "ds1", "")
	if err != nil {
		t.Fatalf("MonthlyReport: %v", err)
	}
	if got.Month != "" {
		t.Errorf("Month = %q, want empty for multi-month data", got.Month)
	}
	if !strings.Contains(got.MarkdownReport, "- Month: `all`") {
		t.Errorf("markdown missing `all` month label:\n%s", got.MarkdownReport)
	}
}

func TestMonthlyReportNoExpenseCategories(t *testing.T) {
	svc, store := newTestService(t)
	seedDataset(t, store, "ds1", []core.Transaction{
		{RowNumber: 2, TxnDate: "2026-01-07", Merchant: "Employer", AmountCents: 320000, Currency: "USD", Type: core.TypeIncome},
	})

	got, err := svc.MonthlyReport(context.Background(), "ds1", "")
	if err != nil {
		t.Fatalf("MonthlyReport: %v", err)
	}
	if len(got.CategoryBreakdown) != 0 {
		t.Errorf("breakdown = %+v, want empty", got.CategoryBreakdown)
	}
	if !strings.Contains(got.MarkdownReport, "- No expense categories found.") {
		t.Errorf("markdown missing empty-breakdown line:\n%s", got.MarkdownReport)
	}
}

func TestMonthlyReportErrors(t *testing.T) {
	svc, store := newTestService(t)
	seedDataset(t, store, "ds1", sampleRows())

	tests := []struct {
		name      string
		datasetID string
		month     string
		wantErr   error
	}{
		{"invalid month", "ds1", "2026-1", core.ErrInvalidMonth},
		{"unknown dataset", "missing", "", core.ErrUnknownDataset},
		{"no rows in month", "ds1", "2025-12", core.ErrNoTransactions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.MonthlyReport(context.Background(), tt.datasetID, tt.month); !errors.Is(err, tt.wantErr) {
				t.Errorf("MonthlyReport = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTopMerchants(t *testing.T) {
	svc, store := newTestService(t)
	seedDataset(t, store, "ds1", sampleRows())

	got, err := svc.TopMerchants(context.Background(), "ds1", "2026-01", 2)
	if err != nil {
		t.Fatalf("TopMerchants: %v", err)
	}

	if got.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", got.Currency)
	}
	if len(got.TopMerchants) != 2 {
		t.Fatalf("got %d merchants, want 2", len(got.TopMerchants))
	}
	first := got.TopMerchants[0]
	if first.Merchant != "Whole Foods" || first.TotalSpend != 128.45 || first.TransactionsCount != 1 {
		t.Errorf("top merchant = %+v", first)
	}
	if got.TopMerchants[1].Merchant != "Shell" {
		t.Errorf("second merchant = %q, want Shell", got.TopMerchants[1].Merchant)
	}
}

func TestTopMerchantsErrors(t *testing.T) {
	svc, store := newTestService(t)
	seedDataset(t, store, "ds1", []core.Transaction{
		{RowNumber: 2, TxnDate: "2026-01-07", Merchant: "Employer", AmountCents: 320000, Currency: "USD", Type: core.TypeIncome},
	})

	if _, err := svc.TopMerchants(context.Background(), "ds1", "bad", 5); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("TopMerchants = %v, want ErrInvalidMonth", err)
	}
	if _, err := svc.TopMerchants(context.Background(), "missing", "", 5); !errors.Is(err, core.ErrUnknownDataset) {
		t.Errorf("TopMerchants = %v, want ErrUnknownDataset", err)
	}
	if _, err := svc.TopMerchants(context.Background(), "ds1", "", 5); !errors.Is(err, core.ErrNoExpenses) {
		t.Errorf("TopMerchants = %v, want ErrNoExpenses", err)
	}
}

func TestResolveCurrency(t *testing.T) {
	tests := []struct {
		name string
		rows []core.Transaction
		want string
	}{
		{"empty", nil, ""},
		{
			"most frequent wins",
			[]core.Transaction{
				{Currency: "EUR"}, {Currency: "USD"}, {Currency: "USD"},
			},
			"USD",
		},
		{
			"first seen breaks ties",
			[]core.Transaction{
				{Currency: "EUR"}, {Currency: "USD"},
			},
			"EUR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveCurrency(tt.rows); got != tt.want {
				t.Errorf("ResolveCurrency = %q, want %q", got, tt.want)
			}
		})
	}
}
