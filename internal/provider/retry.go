package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/lumina-labs/lumina-backend/internal/config"
)

// Retryer executes upstream operations with classification-driven
// exponential backoff. Rate-limited failures back off from
// cfg.RateLimitBase, overloaded failures from cfg.OverloadBase, doubling per
// attempt with no jitter. Fatal failures propagate immediately.
type Retryer struct {
	log   *slog.Logger
	cfg   config.RetryConfig
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryer creates a Retryer.
func NewRetryer(logger *slog.Logger, cfg config.RetryConfig) *Retryer {
	return &Retryer{
		log:   logger.With("component", "retry"),
		cfg:   cfg,
		sleep: sleepCtx,
	}
}

// Do runs fn up to maxAttempts times. maxAttempts below 1 means a single
// attempt with retrying disabled, which callers use for best-effort
// auxiliary operations. The last error is returned when attempts exhaust.
func (r *Retryer) Do(ctx context.Context, op string, maxAttempts int, fn func(context.Context) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		class := Classify(lastErr)
		if class == ClassFatal || attempt == maxAttempts-1 {
			return lastErr
		}

		delay := r.backoff(class, attempt)
		r.log.WarnContext(ctx, "upstream retry",
			slog.String("op", op),
			slog.String("class", class.String()),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
		)

		if err := r.sleep(ctx, delay); err != nil {
			return lastErr
		}
	}
	return lastErr
}

// backoff computes base * 2^attempt for the failure class.
func (r *Retryer) backoff(class Class, attempt int) time.Duration {
	base := r.cfg.OverloadBase
	if class == ClassRateLimited {
		base = r.cfg.RateLimitBase
	}
	return base << attempt
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
