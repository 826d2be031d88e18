// Package suggest turns stored transaction rows and anomaly findings
// into a ranked, fixed-length list of budget suggestions.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"finsight/internal/anomaly"
	"finsight/internal/category"
	"finsight/internal/core"
	"finsight/internal/report"
	"finsight/internal/storage"
)

const (
	SourceRuleBased = "rule-based"
	SourceAnomaly   = "anomaly"
	SourceFallback  = "fallback"

	MinRecommendations = 3
	MaxRecommendations = 7

	genericImpact = 100.0
)

var ErrInvalidCount = errors.New("recommendations count must be between 3 and 7")

type (
	Suggestion struct {
		Title                  string   `json:"title"`
		Category               string   `json:"category"`
		EstimatedMonthlyImpact float64  `json:"estimated_monthly_impact"`
		ActionSteps            []string `json:"action_steps"`
		Reason                 string   `json:"reason"`
		Source                 string   `json:"source"`
	}

	Result struct {
		DatasetID            string            `json:"dataset_id"`
		Month                string            `json:"month,omitempty"`
		Currency             string            `json:"currency"`
		RecommendationsCount int               `json:"recommendations_count"`
		Suggestions          []Suggestion      `json:"suggestions"`
		Anomalies            []anomaly.Finding `json:"anomalies"`
		Summary              string            `json:"llm_summary,omitempty"`
	}

	// SummaryPayload is what the optional external summarizer receives.
	// Anomalies are pre-trimmed to the ten most relevant.
	SummaryPayload struct {
		Month       string            `json:"month"`
		Currency    string            `json:"currency"`
		Suggestions []Suggestion      `json:"suggestions"`
		Anomalies   []anomaly.Finding `json:"anomalies"`
	}

	// Summarizer produces a short narrative summary of the payload.
	// Implementations own their transport and timeout; any failure is
	// absorbed by the generator and degrades to no summary.
	Summarizer interface {
		Summarize(ctx context.Context, payload SummaryPayload) (string, error)
	}
)

// Service generates budget suggestions for a stored dataset.
type Service struct {
	store      *storage.SQLiteRepository
	engine     *category.Engine
	detector   *anomaly.Detector
	summarizer Summarizer
}

// NewService wires the generator. summarizer may be nil to disable the
// narrative summary entirely.
func NewService(store *storage.SQLiteRepository, engine *category.Engine, detector *anomaly.Detector, summarizer Summarizer) *Service {
	return &Service{store: store, engine: engine, detector: detector, summarizer: summarizer}
}

// Generate builds exactly count suggestions (count in [3,7]) plus the
// full anomaly list for a dataset and optional month filter.
func (s *Service) Generate(ctx context.Context, datasetID, month string, count int, useSummary bool) (*Result, error) {
	if count < MinRecommendations || count > MaxRecommendations {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	if err := core.ValidateMonth(month); err != nil {
		return nil, err
	}

	exists, err := s.store.DatasetExists(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownDataset, datasetID)
	}

	rows, err := s.store.FetchTransactions(ctx, datasetID, month)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.ErrNoTransactions
	}
	hasExpense := false
	for _, row := range rows {
		if row.IsExpense() {
			hasExpense = true
			break
		}
	}
	if !hasExpense {
		return nil, core.ErrNoExpenses
	}

	anomalies := s.detector.Detect(rows, month)
	suggestions := s.buildSuggestions(rows, anomalies, count)

	result := &Result{
		DatasetID:            datasetID,
		Month:                month,
		Currency:             report.ResolveCurrency(rows),
		RecommendationsCount: count,
		Suggestions:          suggestions,
		Anomalies:            anomalies,
	}

	if useSummary && s.summarizer != nil {
		trimmed := anomalies
		if len(trimmed) > 10 {
			trimmed = trimmed[:10]
		}
		summary, err := s.summarizer.Summarize(ctx, SummaryPayload{
			Month:       monthOrAll(month),
			Currency:    result.Currency,
			Suggestions: suggestions,
			Anomalies:   trimmed,
		})
		if err != nil {
			slog.WarnContext(ctx, "Summary generation failed, continuing without it",
				"dataset_id", datasetID, "error", err)
		} else {
			result.Summary = summary
		}
	}

	return result, nil
}

// buildSuggestions collects suggestions in strict source order:
// ranked-category reductions, recurring-charge audits, fixed fallback
// ideas, then numbered generic padding. The list is truncated to count.
func (s *Service) buildSuggestions(rows []core.Transaction, anomalies []anomaly.Finding, count int) []Suggestion {
	suggestions := make([]Suggestion, 0, count)

	for _, rc := range s.rankedCategories(rows) {
		if len(suggestions) >= count {
			break
		}
		suggestions = append(suggestions, Suggestion{
			Title:                  fmt.Sprintf("Reduce %s spend by 10%%", rc.category),
			Category:               rc.category,
			EstimatedMonthlyImpact: core.RoundAmount(float64(rc.cents) / 100.0 * 0.1),
			ActionSteps:            playbookSteps(rc.category),
			Reason:                 fmt.Sprintf("%s is a top expense category in this period.", rc.category),
			Source:                 SourceRuleBased,
		})
	}

	for _, finding := range anomalies {
		if len(suggestions) >= count {
			break
		}
		if finding.Type != anomaly.TypeRecurringSubscription {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Title:                  fmt.Sprintf("Audit recurring charge: %s", finding.Merchant),
			Category:               "subscriptions",
			EstimatedMonthlyImpact: finding.AverageMonthlyAmount,
			ActionSteps: []string{
				"Confirm if this merchant is still needed.",
				"Cancel or downgrade if usage is low.",
			},
			Reason: finding.Message,
			Source: SourceAnomaly,
		})
	}

	seenTitles := make(map[string]struct{}, len(suggestions))
	for _, sg := range suggestions {
		seenTitles[sg.Title] = struct{}{}
	}
	for _, idea := range fallbackIdeas {
		if len(suggestions) >= count {
			break
		}
		if _, seen := seenTitles[idea.Title]; seen {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Title:                  idea.Title,
			Category:               "other",
			EstimatedMonthlyImpact: genericImpact,
			ActionSteps:            idea.ActionSteps,
			Reason:                 "Baseline savings control for periods with noisy categories.",
			Source:                 SourceFallback,
		})
		seenTitles[idea.Title] = struct{}{}
	}

	for len(suggestions) < count {
		suggestions = append(suggestions, Suggestion{
			Title:                  fmt.Sprintf("General discretionary reduction #%d", len(suggestions)+1),
			Category:               "other",
			EstimatedMonthlyImpact: genericImpact,
			ActionSteps: []string{
				"Set a weekly discretionary spending ceiling.",
				"Review non-essential charges every Friday.",
			},
			Reason: "Ensures baseline savings target even without strong signals.",
			Source: SourceFallback,
		})
	}

	return suggestions[:count]
}

type rankedCategory struct {
	category string
	cents    int64
}

// rankedCategories sums expenses per category and sorts descending,
// first-appearance order breaking ties.
func (s *Service) rankedCategories(rows []core.Transaction) []rankedCategory {
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

	ranked := make([]rankedCategory, 0, len(order))
	for _, cat := range order {
		ranked = append(ranked, rankedCategory{category: cat, cents: totals[cat]})
	}
	return ranked
}

func monthOrAll(month string) string {
	if month == "" {
		return "all"
	}
	return month
}
