// Package storage persists ingested datasets and their transactions in
// SQLite and serves the filtered row sets the analytics layers consume.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finsight/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertDataset records one ingested batch.
func (r *SQLiteRepository) InsertDataset(ctx context.Context, ds core.Dataset) error {
	createdAt := ds.CreatedAt
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO datasets(dataset_id, source_name, created_at, rows_ingested, warnings_count)
		VALUES (?, ?, ?, ?, ?)`,
		ds.ID, ds.SourceName, createdAt, ds.RowsIngested, ds.WarningsCount)
	if err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}

	slog.InfoContext(ctx, "Dataset saved",
		"dataset_id", ds.ID,
		"rows_ingested", ds.RowsIngested,
		"warnings_count", ds.WarningsCount)

	return nil
}

// InsertTransactions stores normalized rows with their raw source JSON
// inside one transaction so a failed batch leaves nothing behind.
func (r *SQLiteRepository) InsertTransactions(ctx context.Context, datasetID string, rows []core.Transaction, rawJSON []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions(
			dataset_id, row_number, txn_date, merchant, description,
			amount_cents, currency, transaction_type, raw_json
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		raw := "{}"
		if i < len(rawJSON) {
			raw = rawJSON[i]
		}
		if _, err := stmt.ExecContext(ctx,
			datasetID, row.RowNumber, row.TxnDate, row.Merchant, row.Description,
			row.AmountCents, row.Currency, string(row.Type), raw); err != nil {
			return fmt.Errorf("insert transaction row %d: %w", row.RowNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transactions: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DatasetExists(ctx context.Context, datasetID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM datasets WHERE dataset_id = ? LIMIT 1", datasetID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check dataset: %w", err)
	}
	return true, nil
}

func (r *SQLiteRepository) CountTransactions(ctx context.Context, datasetID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE dataset_id = ?", datasetID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}

// FetchTransactions returns a dataset's rows, optionally filtered to one
// YYYY-MM month, ordered by date descending then insertion descending.
func (r *SQLiteRepository) FetchTransactions(ctx context.Context, datasetID, month string) ([]core.Transaction, error) {
	query := `
		SELECT row_number, txn_date, merchant, description, amount_cents, currency, transaction_type
		FROM transactions
		WHERE dataset_id = ?`
	args := []any{datasetID}
	if month != "" {
		query += " AND substr(txn_date, 1, 7) = ?"
		args = append(args, month)
	}
	query += " ORDER BY txn_date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var description sql.NullString
		var txnType string
		if err := rows.Scan(&t.RowNumber, &t.TxnDate, &t.Merchant, &description,
			&t.AmountCents, &t.Currency, &txnType); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Description = description.String
		t.Type = core.TransactionType(txnType)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// MerchantSpend is one row of the top-merchants aggregate.
type MerchantSpend struct {
	Merchant   string
	Currency   string
	SpendCents int64
	TxnCount   int
}

// FetchTopMerchants aggregates expense rows by merchant and currency,
// ordered by total spend descending.
func (r *SQLiteRepository) FetchTopMerchants(ctx context.Context, datasetID, month string, limit int) ([]MerchantSpend, error) {
	query := `
		SELECT merchant, currency, SUM(ABS(amount_cents)) AS spend_cents, COUNT(*) AS txn_count
		FROM transactions
		WHERE dataset_id = ? AND amount_cents < 0`
	args := []any{datasetID}
	if month != "" {
		query += " AND substr(txn_date, 1, 7) = ?"
		args = append(args, month)
	}
	query += `
		GROUP BY merchant, currency
		ORDER BY spend_cents DESC
		LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch top merchants: %w", err)
	}
	defer rows.Close()

	var out []MerchantSpend
	for rows.Next() {
		var m MerchantSpend
		if err := rows.Scan(&m.Merchant, &m.Currency, &m.SpendCents, &m.TxnCount); err != nil {
			return nil, fmt.Errorf("scan merchant spend: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate merchant spend: %w", err)
	}
	return out, nil
}
