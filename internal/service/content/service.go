// Package content implements the request orchestration for all generation
// actions: quota checking, cache mediation, upstream generation with retry,
// safety filtering, and best-effort persistence.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lumina-labs/lumina-backend/internal/config"
	"github.com/lumina-labs/lumina-backend/internal/domain"
	"github.com/lumina-labs/lumina-backend/internal/provider"
	"github.com/lumina-labs/lumina-backend/internal/service/cache"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type textGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, out any) error
}

type imageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, style provider.ImageStyle) ([]byte, error)
}

type audioGenerator interface {
	GenerateAudio(ctx context.Context, text string) ([]byte, error)
}

type quotaTracker interface {
	Status(ctx context.Context, userID uuid.UUID) (domain.QuotaStatus, error)
	Check(ctx context.Context, userID uuid.UUID) error
	Increment(ctx context.Context, userID uuid.UUID) (domain.QuotaStatus, error)
}

type safetyFilter interface {
	IsSafe(v any) bool
	Sanitize(text string) string
	HasSensitive(v any) bool
	Strict() bool
}

type retryer interface {
	Do(ctx context.Context, op string, maxAttempts int, fn func(context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// persistTimeout bounds the detached cache-store/quota-increment work that
// runs after the response is already on its way to the caller.
const persistTimeout = 10 * time.Second

// Service orchestrates one generation request end to end.
type Service struct {
	log    *slog.Logger
	text   textGenerator
	images imageGenerator
	audio  audioGenerator
	cache  *cache.Cache
	quota  quotaTracker
	safety safetyFilter
	retry  retryer

	discoveryLength int
	mixFreshCount   int
	maxAttempts     int
}

// NewService creates the content Service.
func NewService(
	log *slog.Logger,
	text textGenerator,
	images imageGenerator,
	audio audioGenerator,
	contentCache *cache.Cache,
	quota quotaTracker,
	safety safetyFilter,
	retry retryer,
	cacheCfg config.CacheConfig,
	retryCfg config.RetryConfig,
) *Service {
	return &Service{
		log:             log.With("service", "content"),
		text:            text,
		images:          images,
		audio:           audio,
		cache:           contentCache,
		quota:           quota,
		safety:          safety,
		retry:           retry,
		discoveryLength: cacheCfg.DiscoveryLength,
		mixFreshCount:   cacheCfg.MixFreshCount,
		maxAttempts:     retryCfg.MaxAttempts,
	}
}

// Request is one orchestration request. UserID is uuid.Nil for anonymous
// callers; those are admitted only to actions that do not consume quota.
type Request struct {
	Action  domain.Action
	Payload json.RawMessage
	UserID  uuid.UUID
}

// Handle dispatches a request to its action handler. Quota-consuming actions
// require a resolved identity and an open quota window before any upstream
// work starts.
func (s *Service) Handle(ctx context.Context, req Request) (any, error) {
	if req.Action.RequiresAuth() {
		if req.UserID == uuid.Nil {
			return nil, fmt.Errorf("action %s requires a signed-in user: %w", req.Action, domain.ErrUnauthorized)
		}
		if err := s.quota.Check(ctx, req.UserID); err != nil {
			return nil, err
		}
	}

	switch req.Action {
	case domain.ActionDiscoverProfiles:
		return s.discoverProfiles(ctx, req)
	case domain.ActionDiscoverConcepts:
		return s.discoverConcepts(ctx, req)
	case domain.ActionDiscoverPhilosophies:
		return s.discoverPhilosophies(ctx, req)
	case domain.ActionGenerateStory:
		return s.generateStory(ctx, req)
	case domain.ActionGenerateScienceEntry:
		return s.generateScienceEntry(ctx, req)
	case domain.ActionGeneratePhilosophyEntry:
		return s.generatePhilosophyEntry(ctx, req)
	case domain.ActionGenerateImage:
		return s.generateImage(ctx, req)
	case domain.ActionGenerateAudio:
		return s.generateAudio(ctx, req)
	case domain.ActionGetUserQuota:
		return s.getUserQuota(ctx, req)
	default:
		return nil, fmt.Errorf("%q: %w", req.Action, domain.ErrInvalidAction)
	}
}

// persistEntry stores a generated entry and counts it against the user's
// quota without blocking the response. Failures are logged only; persistence
// here is best effort and is not guaranteed before the caller observes the
// response.
func (s *Service) persistEntry(req Request, hash string, content any) {
	raw, err := json.Marshal(content)
	if err != nil {
		s.log.Error("encode entry for cache", slog.String("error", err.Error()))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if err := s.cache.Store(ctx, hash, req.Action, raw); err != nil {
			s.log.ErrorContext(ctx, "entry store-back failed",
				slog.String("action", string(req.Action)),
				slog.String("error", err.Error()),
			)
		}

		if _, err := s.quota.Increment(ctx, req.UserID); err != nil {
			s.log.ErrorContext(ctx, "quota increment failed",
				slog.String("action", string(req.Action)),
				slog.String("user_id", req.UserID.String()),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// screen applies the safety policy to a generated document. In strict mode a
// violation fails the request; otherwise the sanitizer redacts the listed
// free-text fields in place and the reduced document is served.
func (s *Service) screen(ctx context.Context, action domain.Action, doc any, fields ...*string) error {
	if s.safety.IsSafe(doc) {
		if s.safety.HasSensitive(doc) {
			s.log.InfoContext(ctx, "sensitive terms in generated content",
				slog.String("action", string(action)),
			)
		}
		return nil
	}

	if s.safety.Strict() {
		return fmt.Errorf("action %s: %w", action, domain.ErrSafetyViolation)
	}

	for _, field := range fields {
		*field = s.safety.Sanitize(*field)
	}
	s.log.WarnContext(ctx, "generated content sanitized",
		slog.String("action", string(action)),
	)
	return nil
}

// generateJSON runs one structured generation through the retry policy.
func (s *Service) generateJSON(ctx context.Context, op string, prompt string, out any) error {
	return s.retry.Do(ctx, op, s.maxAttempts, func(ctx context.Context) error {
		return s.text.GenerateJSON(ctx, prompt, out)
	})
}
