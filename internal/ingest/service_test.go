package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"finsight/internal/events"
	"finsight/internal/storage"
)

type stubPublisher struct {
	events []events.DatasetIngested
	err    error
}

func (p *stubPublisher) PublishDatasetIngested(_ context.Context, event events.DatasetIngested) error {
	p.events = append(p.events, event)
	return p.err
}

func newTestStore(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	store, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

const uploadCSV = `date,merchant,amount
2026-01-03,Whole Foods,-128.45
bad-date,Shop,-1.00
2026-01-09,Netflix,-19.99
`

func TestUploadStoresDataset(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, nil)
	ctx := context.Background()

	result, err := svc.Upload(ctx, uploadCSV, "bank.csv")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.DatasetID == "" {
		t.Fatal("Upload returned empty dataset ID")
	}
	if result.RowsIngested != 2 || len(result.Warnings) != 1 {
		t.Errorf("result = %+v, want 2 rows and 1 warning", result)
	}

	exists, err := store.DatasetExists(ctx, result.DatasetID)
	if err != nil {
		t.Fatalf("DatasetExists: %v", err)
	}
	if !exists {
		t.Error("uploaded dataset not found in storage")
	}
	count, err := store.CountTransactions(ctx, result.DatasetID)
	if err != nil {
		t.Fatalf("CountTransactions: %v", err)
	}
	if count != 2 {
		t.Errorf("stored %d transactions, want 2", count)
	}
}

func TestUploadPublishesEvent(t *testing.T) {
	store := newTestStore(t)
	publisher := &stubPublisher{}
	svc := NewService(store, publisher)

	result, err := svc.Upload(context.Background(), uploadCSV, "bank.csv")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.events))
	}

	event := publisher.events[0]
	if event.DatasetID != result.DatasetID {
		t.Errorf("event dataset = %q, want %q", event.DatasetID, result.DatasetID)
	}
	if event.Rows != 2 || event.Warnings != 1 {
		t.Errorf("event = %+v, want 2 rows and 1 warning", event)
	}
}

func TestUploadSurvivesPublishFailure(t *testing.T) {
	store := newTestStore(t)
	publisher := &stubPublisher{err: errors.New("broker down")}
	svc := NewService(store, publisher)
	ctx := context.Background()

	result, err := svc.Upload(ctx, uploadCSV, "bank.csv")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	exists, err := store.DatasetExists(ctx, result.DatasetID)
	if err != nil {
		t.Fatalf("DatasetExists: %v", err)
	}
	if !exists {
		t.Error("dataset lost after publish failure")
	}
}

func TestUploadRejectsInvalidCSV(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, nil)

	if _, err := svc.Upload(context.Background(), "merchant,amount\nShop,-1.00\n", "bad.csv"); !errors.Is(err, ErrInvalidCSV) {
		t.Errorf("Upload = %v, want ErrInvalidCSV", err)
	}
}

func TestUploadWarningsNeverNil(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, nil)

	result, err := svc.Upload(context.Background(), "date,merchant,amount\n2026-01-03,Shop,-1.00\n", "clean.csv")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.Warnings == nil {
		t.Error("Warnings is nil, want empty slice")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Warnings = %v, want empty", result.Warnings)
	}
}
