// Package quota implements per-user daily usage tracking.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lumina-labs/lumina-backend/internal/config"
	"github.com/lumina-labs/lumina-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type quotaRepo interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.UserQuota, error)
	ResetIfStale(ctx context.Context, userID uuid.UUID, day string) (*domain.UserQuota, error)
	Increment(ctx context.Context, userID uuid.UUID, day string) (*domain.UserQuota, error)
}

// ---------------------------------------------------------------------------
// Tracker
// ---------------------------------------------------------------------------

// Tracker enforces the per-user daily generation quota. The day window is
// keyed by UTC calendar date, so all users reset at midnight UTC regardless
// of their local timezone.
type Tracker struct {
	repo  quotaRepo
	log   *slog.Logger
	limit int
	now   func() time.Time
}

// NewTracker creates a quota Tracker.
func NewTracker(log *slog.Logger, repo quotaRepo, cfg config.QuotaConfig) *Tracker {
	return &Tracker{
		repo:  repo,
		log:   log.With("service", "quota"),
		limit: cfg.DailyLimit,
		now:   time.Now,
	}
}

// Status returns the user's usage for the current day window. Users with no
// quota row, or a row from a previous window, report zero usage; a stale row
// is reset in storage on read so subsequent increments start clean.
func (t *Tracker) Status(ctx context.Context, userID uuid.UUID) (domain.QuotaStatus, error) {
	day := domain.DayKey(t.now())

	q, err := t.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.QuotaStatus{Usage: 0, Limit: t.limit}, nil
		}
		return domain.QuotaStatus{}, fmt.Errorf("get quota: %w", err)
	}

	if q.LastReset != day {
		refreshed, err := t.repo.ResetIfStale(ctx, userID, day)
		if err != nil {
			// Another request may have reset it concurrently.
			if !errors.Is(err, domain.ErrNotFound) {
				return domain.QuotaStatus{}, fmt.Errorf("reset quota window: %w", err)
			}
		} else {
			q = refreshed
		}
		t.log.DebugContext(ctx, "quota window reset",
			slog.String("user_id", userID.String()),
			slog.String("day", day),
		)
		return domain.QuotaStatus{Usage: 0, Limit: t.limit}, nil
	}

	return domain.QuotaStatus{Usage: q.DailyUsage, Limit: t.limit}, nil
}

// Check returns domain.ErrQuotaExceeded when the user has no remaining
// generations in the current window.
func (t *Tracker) Check(ctx context.Context, userID uuid.UUID) error {
	status, err := t.Status(ctx, userID)
	if err != nil {
		return err
	}
	if status.Usage >= status.Limit {
		return fmt.Errorf("user %s used %d of %d: %w",
			userID, status.Usage, status.Limit, domain.ErrQuotaExceeded)
	}
	return nil
}

// Increment records one consumed generation for the current day window and
// returns the updated status.
func (t *Tracker) Increment(ctx context.Context, userID uuid.UUID) (domain.QuotaStatus, error) {
	day := domain.DayKey(t.now())

	q, err := t.repo.Increment(ctx, userID, day)
	if err != nil {
		return domain.QuotaStatus{}, fmt.Errorf("increment quota: %w", err)
	}

	return domain.QuotaStatus{Usage: q.DailyUsage, Limit: t.limit}, nil
}
