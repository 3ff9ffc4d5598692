package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lumina-labs/lumina-backend/internal/domain"
	"github.com/lumina-labs/lumina-backend/internal/service/cache"
)

// Discovery actions return short lists served through the mixed-content
// cache strategy: a cached list occasionally returns whole, otherwise one
// cached item is carried forward and the rest is generated fresh.

func (s *Service) discoverProfiles(ctx context.Context, req Request) (any, error) {
	p, err := decodePayload[discoverProfilesPayload](req.Payload)
	if err != nil {
		return nil, err
	}
	hash := s.cache.Key(req.Action, canonicalPayload(p))

	return cache.LookupOrMix(ctx, s.cache, req.Action, hash, s.discoveryLength, s.mixFreshCount,
		func(ctx context.Context, n int) ([]domain.Profile, error) {
			var items []domain.Profile
			if err := s.generateJSON(ctx, "discoverProfiles", profilesPrompt(n, p.Category, p.Language), &items); err != nil {
				return nil, err
			}
			return screenList(s, ctx, req.Action, items)
		})
}

func (s *Service) discoverConcepts(ctx context.Context, req Request) (any, error) {
	p, err := decodePayload[discoverConceptsPayload](req.Payload)
	if err != nil {
		return nil, err
	}
	hash := s.cache.Key(req.Action, canonicalPayload(p))

	return cache.LookupOrMix(ctx, s.cache, req.Action, hash, s.discoveryLength, s.mixFreshCount,
		func(ctx context.Context, n int) ([]domain.ScienceItem, error) {
			var items []domain.ScienceItem
			if err := s.generateJSON(ctx, "discoverConcepts", conceptsPrompt(n, p.Field), &items); err != nil {
				return nil, err
			}
			return screenList(s, ctx, req.Action, items)
		})
}

func (s *Service) discoverPhilosophies(ctx context.Context, req Request) (any, error) {
	p, err := decodePayload[discoverPhilosophiesPayload](req.Payload)
	if err != nil {
		return nil, err
	}
	hash := s.cache.Key(req.Action, canonicalPayload(p))

	return cache.LookupOrMix(ctx, s.cache, req.Action, hash, s.discoveryLength, s.mixFreshCount,
		func(ctx context.Context, n int) ([]domain.PhilosophyItem, error) {
			var items []domain.PhilosophyItem
			if err := s.generateJSON(ctx, "discoverPhilosophies", philosophiesPrompt(n, p.Theme), &items); err != nil {
				return nil, err
			}
			return screenList(s, ctx, req.Action, items)
		})
}

// screenList applies the safety policy to freshly generated list items. In
// strict mode any violation fails the request; otherwise violating items are
// dropped and the reduced list is served.
func screenList[T domain.Identifiable](s *Service, ctx context.Context, action domain.Action, items []T) ([]T, error) {
	kept := items[:0]
	for _, item := range items {
		if s.safety.IsSafe(item) {
			kept = append(kept, item)
			continue
		}
		if s.safety.Strict() {
			return nil, fmt.Errorf("action %s: %w", action, domain.ErrSafetyViolation)
		}
		s.log.WarnContext(ctx, "dropped unsafe discovery item",
			slog.String("action", string(action)),
			slog.String("identity", item.Identity()),
		)
	}
	return kept, nil
}

// canonicalPayload re-encodes a decoded payload so the cache key does not
// depend on client-side field order or whitespace.
func canonicalPayload(p any) json.RawMessage {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	return raw
}
