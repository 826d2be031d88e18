// Package agent assembles the full analysis for one dataset: monthly
// report, top merchants, and budget suggestions, merged into a single
// markdown document.
package agent

import (
	"context"

	"golang.org/x/sync/errgroup"

	"finsight/internal/report"
	"finsight/internal/suggest"
)

const topMerchantsLimit = 5

// Report is the combined output of one agent run.
type Report struct {
	DatasetID         string                `json:"dataset_id"`
	Month             string                `json:"month,omitempty"`
	MonthlyReport     *report.MonthlyReport `json:"monthly_report"`
	TopMerchants      *report.TopMerchants  `json:"top_merchants"`
	BudgetSuggestions *suggest.Result       `json:"budget_suggestions"`
	FinalMarkdown     string                `json:"final_markdown"`
}

type Agent struct {
	reports     *report.Service
	suggestions *suggest.Service
}

func New(reports *report.Service, suggestions *suggest.Service) *Agent {
	return &Agent{reports: reports, suggestions: suggestions}
}

// Run produces the combined report. The three reads are independent and
// run concurrently; the dataset is immutable once stored so they see a
// consistent snapshot.
func (a *Agent) Run(ctx context.Context, datasetID, month string, recommendations int, useSummary bool) (*Report, error) {
	out := &Report{DatasetID: datasetID, Month: month}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		monthly, err := a.reports.MonthlyReport(gctx, datasetID, month)
		if err != nil {
			return err
		}
		out.MonthlyReport = monthly
		return nil
	})
	g.Go(func() error {
		merchants, err := a.reports.TopMerchants(gctx, datasetID, month, topMerchantsLimit)
		if err != nil {
			return err
		}
		out.TopMerchants = merchants
		return nil
	})
	g.Go(func() error {
		suggestions, err := a.suggestions.Generate(gctx, datasetID, month, recommendations, useSummary)
		if err != nil {
			return err
		}
		out.BudgetSuggestions = suggestions
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.FinalMarkdown = mergeFinalMarkdown(out)
	return out, nil
}
