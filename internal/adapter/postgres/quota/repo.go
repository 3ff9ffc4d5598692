// Package quota implements the per-user quota repository using PostgreSQL.
package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumina-labs/lumina-backend/internal/domain"
)

// Repo provides quota persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new quota repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const getSQL = `
SELECT user_id, daily_usage, last_reset, updated_at
FROM user_quotas
WHERE user_id = $1`

// Get returns the quota row for a user. Returns domain.ErrNotFound when the
// user has never consumed quota.
func (r *Repo) Get(ctx context.Context, userID uuid.UUID) (*domain.UserQuota, error) {
	var q domain.UserQuota
	err := r.pool.QueryRow(ctx, getSQL, userID).
		Scan(&q.UserID, &q.DailyUsage, &q.LastReset, &q.UpdatedAt)
	if err != nil {
		return nil, mapError(err, userID)
	}
	return &q, nil
}

const resetSQL = `
UPDATE user_quotas
SET daily_usage = 0, last_reset = $2, updated_at = now()
WHERE user_id = $1 AND last_reset <> $2
RETURNING user_id, daily_usage, last_reset, updated_at`

// ResetIfStale zeroes the counter when the stored window key differs from
// day. Returns the refreshed row, or domain.ErrNotFound when the row was
// already current or absent.
func (r *Repo) ResetIfStale(ctx context.Context, userID uuid.UUID, day string) (*domain.UserQuota, error) {
	var q domain.UserQuota
	err := r.pool.QueryRow(ctx, resetSQL, userID, day).
		Scan(&q.UserID, &q.DailyUsage, &q.LastReset, &q.UpdatedAt)
	if err != nil {
		return nil, mapError(err, userID)
	}
	return &q, nil
}

const incrementSQL = `
INSERT INTO user_quotas (user_id, daily_usage, last_reset, updated_at)
VALUES ($1, 1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET
    daily_usage = CASE
        WHEN user_quotas.last_reset = $2 THEN user_quotas.daily_usage + 1
        ELSE 1
    END,
    last_reset = $2,
    updated_at = now()
RETURNING user_id, daily_usage, last_reset, updated_at`

// Increment adds one use to the user's counter for the given day window in a
// single atomic statement. A stale window restarts the counter at 1 instead
// of carrying yesterday's usage forward. Concurrent increments for the same
// user serialize on the row, so no use is lost.
func (r *Repo) Increment(ctx context.Context, userID uuid.UUID, day string) (*domain.UserQuota, error) {
	var q domain.UserQuota
	err := r.pool.QueryRow(ctx, incrementSQL, userID, day).
		Scan(&q.UserID, &q.DailyUsage, &q.LastReset, &q.UpdatedAt)
	if err != nil {
		return nil, mapError(err, userID)
	}
	return &q, nil
}

// mapError converts pgx/pgconn errors into domain errors.
func mapError(err error, userID uuid.UUID) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("user_quota %s: %w", userID, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("user_quota %s: %w", userID, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23514" {
		return fmt.Errorf("user_quota %s: %w", userID, domain.ErrValidation)
	}

	return fmt.Errorf("user_quota %s: %w", userID, err)
}
