// Package sqlite implements the Tidescan analysis-history store on SQLite.
// The driver is modernc.org/sqlite, so builds stay CGO-free.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tidescan/tidescan/internal/storage"
	"github.com/tidescan/tidescan/pkg/types"
)

// schema is the embedded schema for the analysis history. The full result is
// stored as a JSON payload; the scalar columns exist for listing and future
// filtering without deserializing every row.
const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	idea       TEXT NOT NULL,
	saturation REAL NOT NULL,
	novelty    REAL NOT NULL,
	stage      TEXT NOT NULL,
	action     TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at DESC);
`

// ResultStore implements storage.ResultStore using SQLite.
type ResultStore struct {
	db *sql.DB
}

// NewResultStore opens (or creates) the SQLite database at dsn and ensures
// the schema exists.
func NewResultStore(dsn string) (*ResultStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one concurrent writer; a single open connection
	// serialises writes and avoids SQLITE_BUSY under concurrent load.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &ResultStore{db: db}, nil
}

// Save stores a completed analysis result. Results are immutable; saving an
// ID that already exists is an error.
func (s *ResultStore) Save(ctx context.Context, result *types.AnalysisResult) error {
	if result == nil || result.ID == "" {
		return fmt.Errorf("%w: result with ID is required", storage.ErrInvalidInput)
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, idea, saturation, novelty, stage, action, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, result.ID, result.Idea, result.SaturationScore, result.NoveltyScore,
		string(result.Stage), string(result.Recommendation.Action),
		string(payload), result.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: result %s already exists", storage.ErrInvalidInput, result.ID)
		}
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

// Get retrieves a result by ID.
func (s *ResultStore) Get(ctx context.Context, id string) (*types.AnalysisResult, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: ID is required", storage.ErrInvalidInput)
	}

	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM analyses WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result %s: %w", id, err)
	}
	return &result, nil
}

// List retrieves results with pagination, newest first.
func (s *ResultStore) List(ctx context.Context, opts storage.ListOptions) (*storage.PaginatedResult[types.AnalysisResult], error) {
	opts.Normalize()

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analyses").Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count results: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM analyses
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, opts.Limit, opts.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]types.AnalysisResult, 0, opts.Limit)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var result types.AnalysisResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		items = append(items, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return &storage.PaginatedResult[types.AnalysisResult]{
		Items:    items,
		Total:    total,
		Page:     opts.Page,
		PageSize: opts.Limit,
		HasMore:  opts.Offset()+len(items) < total,
	}, nil
}

// Delete removes a result by ID.
func (s *ResultStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: ID is required", storage.ErrInvalidInput)
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM analyses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Close releases the database connection.
func (s *ResultStore) Close() error {
	return s.db.Close()
}

var _ storage.ResultStore = (*ResultStore)(nil)
