package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"finsight/internal/core"
	"finsight/internal/events"
	"finsight/internal/storage"
)

// EventPublisher announces stored uploads. Implementations must be safe
// to call concurrently; a nil publisher disables eventing.
type EventPublisher interface {
	PublishDatasetIngested(ctx context.Context, event events.DatasetIngested) error
}

type UploadResult struct {
	DatasetID    string   `json:"dataset_id"`
	RowsIngested int      `json:"rows_ingested"`
	Warnings     []string `json:"warnings"`
}

// Service parses uploads and persists them as immutable datasets.
type Service struct {
	store     *storage.SQLiteRepository
	publisher EventPublisher
}

func NewService(store *storage.SQLiteRepository, publisher EventPublisher) *Service {
	return &Service{store: store, publisher: publisher}
}

// Upload parses CSV text, stores the dataset and its rows, and fires
// the ingest event. Publish failures are logged and never fail the
// upload: the dataset is already durable at that point.
func (s *Service) Upload(ctx context.Context, csvText, sourceName string) (*UploadResult, error) {
	parsed, err := ParseCSV(csvText)
	if err != nil {
		return nil, err
	}

	datasetID := uuid.NewString()
	ds := core.Dataset{
		ID:            datasetID,
		SourceName:    sourceName,
		RowsIngested:  len(parsed.Transactions),
		WarningsCount: len(parsed.Warnings),
	}
	if err := s.store.InsertDataset(ctx, ds); err != nil {
		return nil, fmt.Errorf("store dataset: %w", err)
	}
	if err := s.store.InsertTransactions(ctx, datasetID, parsed.Transactions, parsed.RawJSON); err != nil {
		return nil, fmt.Errorf("store transactions: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishDatasetIngested(ctx, events.DatasetIngested{
			DatasetID: datasetID,
			Rows:      len(parsed.Transactions),
			Warnings:  len(parsed.Warnings),
		}); err != nil {
			slog.ErrorContext(ctx, "Failed to publish ingest event",
				"dataset_id", datasetID, "error", err)
		}
	}

	warnings := parsed.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return &UploadResult{
		DatasetID:    datasetID,
		RowsIngested: len(parsed.Transactions),
		Warnings:     warnings,
	}, nil
}
