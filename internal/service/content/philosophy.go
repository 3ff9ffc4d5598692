package content

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/lumina-labs/lumina-backend/internal/domain"
	"github.com/lumina-labs/lumina-backend/internal/provider"
)

func (s *Service) generatePhilosophyEntry(ctx context.Context, req Request) (any, error) {
	p, err := decodePayload[generatePhilosophyPayload](req.Payload)
	if err != nil {
		return nil, err
	}
	hash := s.cache.Key(req.Action, canonicalPayload(p))

	if raw, ok := s.cache.Lookup(ctx, hash); ok {
		var entry domain.PhilosophyEntry
		uerr := json.Unmarshal(raw, &entry)
		if uerr == nil {
			s.log.DebugContext(ctx, "entry cache hit", slog.String("action", string(req.Action)))
			entry.GeneratedImageURL = s.fetchImage(ctx, entry.IllustrationPrompt, provider.StyleIllustration)
			return &entry, nil
		}
		s.log.WarnContext(ctx, "cached philosophy entry is malformed, regenerating",
			slog.String("error", uerr.Error()),
		)
	}

	var entry domain.PhilosophyEntry
	if err := s.generateJSON(ctx, "generatePhilosophyEntry", philosophyPrompt(p.Item), &entry); err != nil {
		return nil, err
	}

	err = s.screen(ctx, req.Action, &entry,
		&entry.CoreIdeaExplanation, &entry.HistoricalEpisode, &entry.ModernRelevance,
	)
	if err != nil {
		return nil, err
	}

	s.persistEntry(req, hash, entry)
	entry.GeneratedImageURL = s.fetchImage(ctx, entry.IllustrationPrompt, provider.StyleIllustration)
	return &entry, nil
}
