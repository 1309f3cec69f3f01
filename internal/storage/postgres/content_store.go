// Package postgres implements the Tidescan content corpus store on
// PostgreSQL. When the pgvector extension is available, nearest-neighbor
// candidate retrieval runs in the database; otherwise embeddings are kept in
// a BYTEA column and ranked in memory.
package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/tidescan/tidescan/internal/storage"
	"github.com/tidescan/tidescan/pkg/types"
)

// ContentStore implements storage.ContentStore using PostgreSQL.
type ContentStore struct {
	db                *sql.DB
	dimension         int
	pgvectorAvailable bool // true when the vector extension and column exist
}

// NewContentStore connects to PostgreSQL, ensures the schema exists, and
// probes for the pgvector extension. dimension fixes the width of the
// embedding_vec column and must match the deployment's embedding provider.
func NewContentStore(connStr string, dimension int) (*ContentStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", storage.ErrInvalidInput)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	s := &ContentStore{db: db, dimension: dimension}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// initSchema creates the content table and, when pgvector is installed, the
// vector column and its index.
func (s *ContentStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS content_items (
			id               TEXT PRIMARY KEY,
			platform         TEXT NOT NULL,
			title            TEXT NOT NULL DEFAULT '',
			published_at     TIMESTAMPTZ NOT NULL,
			views            BIGINT NOT NULL DEFAULT 0,
			likes            BIGINT NOT NULL DEFAULT 0,
			comments         BIGINT NOT NULL DEFAULT 0,
			shares           BIGINT NOT NULL DEFAULT 0,
			normalized_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			embedding        BYTEA,
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create content_items table: %w", err)
	}

	// pgvector is optional: the BYTEA column remains the source of truth and
	// the vector column only accelerates similarity queries.
	if _, err := s.db.Exec("CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		log.Printf("postgres: pgvector extension unavailable, similarity queries fall back to in-memory ranking: %v", err)
		return nil
	}

	_, err = s.db.Exec(fmt.Sprintf(
		"ALTER TABLE content_items ADD COLUMN IF NOT EXISTS embedding_vec vector(%d)", s.dimension))
	if err != nil {
		log.Printf("postgres: failed to add embedding_vec column, falling back to BYTEA only: %v", err)
		return nil
	}

	s.pgvectorAvailable = true
	return nil
}

// Upsert creates or updates a content item together with its embedding.
func (s *ContentStore) Upsert(ctx context.Context, item *types.ContentItem) error {
	if item == nil || item.ID == "" {
		return fmt.Errorf("%w: item with ID is required", storage.ErrInvalidInput)
	}
	if len(item.Embedding) > 0 && len(item.Embedding) != s.dimension {
		return fmt.Errorf("%w: embedding length (%d) does not match store dimension (%d)",
			storage.ErrInvalidInput, len(item.Embedding), s.dimension)
	}

	embBytes := serializeEmbedding(item.Embedding)

	if s.pgvectorAvailable && len(item.Embedding) > 0 {
		vec := pgvector.NewVector(item.Embedding)
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO content_items
				(id, platform, title, published_at, views, likes, comments, shares, normalized_score, embedding, embedding_vec, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, CURRENT_TIMESTAMP)
			ON CONFLICT(id) DO UPDATE SET
				platform = excluded.platform,
				title = excluded.title,
				published_at = excluded.published_at,
				views = excluded.views,
				likes = excluded.likes,
				comments = excluded.comments,
				shares = excluded.shares,
				normalized_score = excluded.normalized_score,
				embedding = excluded.embedding,
				embedding_vec = excluded.embedding_vec,
				updated_at = CURRENT_TIMESTAMP
		`, item.ID, item.Platform, item.Title, item.PublishedAt.UTC(),
			item.Engagement.Views, item.Engagement.Likes, item.Engagement.Comments,
			item.Engagement.Shares, item.Engagement.NormalizedScore, embBytes, vec)
		if err != nil {
			return fmt.Errorf("failed to upsert content item: %w", err)
		}
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content_items
			(id, platform, title, published_at, views, likes, comments, shares, normalized_score, embedding, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			platform = excluded.platform,
			title = excluded.title,
			published_at = excluded.published_at,
			views = excluded.views,
			likes = excluded.likes,
			comments = excluded.comments,
			shares = excluded.shares,
			normalized_score = excluded.normalized_score,
			embedding = excluded.embedding,
			updated_at = CURRENT_TIMESTAMP
	`, item.ID, item.Platform, item.Title, item.PublishedAt.UTC(),
		item.Engagement.Views, item.Engagement.Likes, item.Engagement.Comments,
		item.Engagement.Shares, item.Engagement.NormalizedScore, embBytes)
	if err != nil {
		return fmt.Errorf("failed to upsert content item: %w", err)
	}
	return nil
}

// Get retrieves a content item by ID.
func (s *ContentStore) Get(ctx context.Context, id string) (*types.ContentItem, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: ID is required", storage.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, platform, title, published_at, views, likes, comments, shares, normalized_score, embedding
		FROM content_items WHERE id = $1
	`, id)

	item, err := scanContentItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content item: %w", err)
	}
	return item, nil
}

// SimilarContent returns up to limit items nearest to the embedding by
// cosine distance, most similar first. With pgvector the ranking happens in
// the database; otherwise all embedded items are loaded and ranked here.
func (s *ContentStore) SimilarContent(ctx context.Context, emb types.Embedding, limit int) ([]types.ContentItem, error) {
	if len(emb) != s.dimension {
		return nil, fmt.Errorf("%w: embedding length (%d) does not match store dimension (%d)",
			storage.ErrInvalidInput, len(emb), s.dimension)
	}
	if limit < 1 {
		limit = 10
	}

	if s.pgvectorAvailable {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, platform, title, published_at, views, likes, comments, shares, normalized_score, embedding
			FROM content_items
			WHERE embedding_vec IS NOT NULL
			ORDER BY embedding_vec <=> $1
			LIMIT $2
		`, pgvector.NewVector(emb), limit)
		if err != nil {
			return nil, fmt.Errorf("failed to query similar content: %w", err)
		}
		return collectContentItems(rows)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, platform, title, published_at, views, likes, comments, shares, normalized_score, embedding
		FROM content_items
		WHERE embedding IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query content items: %w", err)
	}
	items, err := collectContentItems(rows)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		return cosineSim(emb, items[i].Embedding) > cosineSim(emb, items[j].Embedding)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Close releases the database connection.
func (s *ContentStore) Close() error {
	return s.db.Close()
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanContentItem reads one content item row.
func scanContentItem(row rowScanner) (*types.ContentItem, error) {
	var item types.ContentItem
	var published time.Time
	var embBytes []byte

	err := row.Scan(&item.ID, &item.Platform, &item.Title, &published,
		&item.Engagement.Views, &item.Engagement.Likes, &item.Engagement.Comments,
		&item.Engagement.Shares, &item.Engagement.NormalizedScore, &embBytes)
	if err != nil {
		return nil, err
	}

	item.PublishedAt = published.UTC()
	item.Embedding = deserializeEmbedding(embBytes)
	return &item, nil
}

// collectContentItems drains a result set into a slice.
func collectContentItems(rows *sql.Rows) ([]types.ContentItem, error) {
	defer func() { _ = rows.Close() }()

	var items []types.ContentItem
	for rows.Next() {
		item, err := scanContentItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate content items: %w", err)
	}
	return items, nil
}

// serializeEmbedding encodes an embedding as little-endian float32 bytes.
func serializeEmbedding(emb types.Embedding) []byte {
	if len(emb) == 0 {
		return nil
	}
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, []float32(emb))
	return buf.Bytes()
}

// deserializeEmbedding decodes little-endian float32 bytes.
func deserializeEmbedding(b []byte) types.Embedding {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	emb := make(types.Embedding, len(b)/4)
	_ = binary.Read(bytes.NewReader(b), binary.LittleEndian, []float32(emb))
	return emb
}

// cosineSim ranks fallback queries; it mirrors the analysis engine's
// definition but stays local so storage does not depend on the engine.
func cosineSim(a, b types.Embedding) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

var _ storage.ContentStore = (*ContentStore)(nil)
