package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finsight/internal/agent"
	"finsight/internal/anomaly"
	"finsight/internal/category"
	"finsight/internal/config"
	"finsight/internal/events"
	apphttp "finsight/internal/http"
	"finsight/internal/ingest"
	"finsight/internal/llm"
	"finsight/internal/report"
	"finsight/internal/storage"
	"finsight/internal/suggest"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	engine := category.NewEngine(category.FileSource{Path: cfg.TaxonomyPath})
	detector := anomaly.NewDetector(engine)

	var publisher ingest.EventPublisher
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP, continuing without events", "error", err)
		} else {
			defer amqpPublisher.Close()
			publisher = amqpPublisher
			logger.Info("Ingest events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	summarizer := llm.NewSummarizer(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.SummaryTimeout)
	if summarizer == nil {
		logger.Info("No OpenAI API key configured, summaries disabled")
	}

	ingestSvc := ingest.NewService(store, publisher)
	reports := report.NewService(store, engine)

	// Interface values holding nil pointers would dodge the nil checks
	// downstream, so only assign when a summarizer exists.
	var summarizerIface suggest.Summarizer
	if summarizer != nil {
		summarizerIface = summarizer
	}
	suggestions := suggest.NewService(store, engine, detector, summarizerIface)
	agentRunner := agent.New(reports, suggestions)

	srv := apphttp.NewServer(":"+cfg.Port, ingestSvc, reports, suggestions, agentRunner)
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting finsight server",
		"port", cfg.Port,
		"db_path", cfg.SQLiteDBPath,
		"taxonomy_version", engine.Version())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
