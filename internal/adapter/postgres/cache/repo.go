// Package cache implements the generated-content cache repository using
// PostgreSQL.
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumina-labs/lumina-backend/internal/domain"
)

// Filter defines parameters for listing cached entries.
type Filter struct {
	// Kind filters by the action kind recorded at store time.
	// nil or empty string means no kind filter.
	Kind *string

	// Limit is the maximum number of entries to return. Default: 50, max: 200.
	Limit int

	// Offset is the number of entries to skip.
	Offset int
}

const (
	defaultLimit = 50
	maxLimit     = 200
)

func (f *Filter) normalize() {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// Repo provides cached-content persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new cache repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const getSQL = `
SELECT hash, content, kind, inserted_at
FROM cached_content
WHERE hash = $1`

// Get returns the cached entry for a request hash. Returns domain.ErrNotFound
// on a cache miss.
func (r *Repo) Get(ctx context.Context, hash string) (*domain.CacheEntry, error) {
	var e domain.CacheEntry
	err := r.pool.QueryRow(ctx, getSQL, hash).
		Scan(&e.Hash, &e.Content, &e.Kind, &e.InsertedAt)
	if err != nil {
		return nil, mapError(err, hash)
	}
	return &e, nil
}

const upsertSQL = `
INSERT INTO cached_content (hash, content, kind, inserted_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (hash) DO UPDATE SET
    content = EXCLUDED.content,
    kind = EXCLUDED.kind,
    inserted_at = now()`

// Upsert stores content under a request hash, replacing any previous entry.
// Category hashes for discovery lists are rewritten on every mixed result, so
// replacement is the normal path, not a conflict.
func (r *Repo) Upsert(ctx context.Context, entry domain.CacheEntry) error {
	_, err := r.pool.Exec(ctx, upsertSQL, entry.Hash, entry.Content, entry.Kind)
	if err != nil {
		return mapError(err, entry.Hash)
	}
	return nil
}

// Find lists cached entries matching the filter, newest first.
// Returns an empty slice (not nil) when nothing matches.
func (r *Repo) Find(ctx context.Context, filter Filter) ([]domain.CacheEntry, error) {
	filter.normalize()

	query := squirrel.StatementBuilder.
		PlaceholderFormat(squirrel.Dollar).
		Select("hash", "content", "kind", "inserted_at").
		From("cached_content").
		OrderBy("inserted_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	if filter.Kind != nil && *filter.Kind != "" {
		query = query.Where(squirrel.Eq{"kind": *filter.Kind})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build cache listing query: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list cached content: %w", err)
	}
	defer rows.Close()

	result := []domain.CacheEntry{}
	for rows.Next() {
		var e domain.CacheEntry
		if err := rows.Scan(&e.Hash, &e.Content, &e.Kind, &e.InsertedAt); err != nil {
			return nil, fmt.Errorf("scan cached content: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cached content: %w", err)
	}

	return result, nil
}

const deleteSQL = `DELETE FROM cached_content WHERE hash = $1`

// Delete removes a cached entry. Returns domain.ErrNotFound when the hash is
// not cached.
func (r *Repo) Delete(ctx context.Context, hash string) error {
	tag, err := r.pool.Exec(ctx, deleteSQL, hash)
	if err != nil {
		return mapError(err, hash)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cached_content %s: %w", hash, domain.ErrNotFound)
	}
	return nil
}

// mapError converts pgx errors into domain errors.
func mapError(err error, hash string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("cached_content %s: %w", hash, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("cached_content %s: %w", hash, domain.ErrNotFound)
	}

	return fmt.Errorf("cached_content %s: %w", hash, err)
}
