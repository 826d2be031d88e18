// Command finsight-agent runs the full analysis for one stored dataset
// and prints either the merged markdown report or the raw JSON payload.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"finsight/internal/agent"
	"finsight/internal/anomaly"
	"finsight/internal/category"
	"finsight/internal/config"
	"finsight/internal/llm"
	"finsight/internal/report"
	"finsight/internal/storage"
	"finsight/internal/suggest"
)

func main() {
	_ = godotenv.Load()

	datasetID := flag.String("dataset", "", "dataset identifier (required)")
	month := flag.String("month", "", "optional month filter, YYYY-MM")
	recommendations := flag.Int("count", 3, "number of budget suggestions (3-7)")
	noSummary := flag.Bool("no-summary", false, "disable the LLM executive summary")
	asJSON := flag.Bool("json", false, "print the raw JSON payload instead of markdown")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall run timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if *datasetID == "" {
		fmt.Fprintln(os.Stderr, "error: -dataset is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	engine := category.NewEngine(category.FileSource{Path: cfg.TaxonomyPath})
	detector := anomaly.NewDetector(engine)

	var summarizer suggest.Summarizer
	if s := llm.NewSummarizer(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.SummaryTimeout); s != nil {
		summarizer = s
	}

	reports := report.NewService(store, engine)
	suggestions := suggest.NewService(store, engine, detector, summarizer)
	runner := agent.New(reports, suggestions)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := runner.Run(ctx, *datasetID, *month, *recommendations, !*noSummary)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "error: encode result: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println(result.FinalMarkdown)
}
