package content

import (
	"context"
	"encoding/json"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/lumina-labs/lumina-backend/internal/domain"
	"github.com/lumina-labs/lumina-backend/internal/provider"
)

// generateStory serves a bilingual biographical story. Cached documents skip
// generation, safety screening, and quota accounting; illustration and map
// images are attached fresh on every response since they are not part of the
// cached document.
func (s *Service) generateStory(ctx context.Context, req Request) (any, error) {
	p, err := decodePayload[generateStoryPayload](req.Payload)
	if err != nil {
		return nil, err
	}
	hash := s.cache.Key(req.Action, canonicalPayload(p))

	if raw, ok := s.cache.Lookup(ctx, hash); ok {
		var story domain.Story
		uerr := json.Unmarshal(raw, &story)
		if uerr == nil {
			s.log.DebugContext(ctx, "entry cache hit", slog.String("action", string(req.Action)))
			s.attachStoryMedia(ctx, &story)
			return &story, nil
		}
		s.log.WarnContext(ctx, "cached story is malformed, regenerating",
			slog.String("error", uerr.Error()),
		)
	}

	var story domain.Story
	if err := s.generateJSON(ctx, "generateStory", storyPrompt(p), &story); err != nil {
		return nil, err
	}
	story.EnglishStyle = p.EnglishStyleName
	story.HindiStyle = p.HindiStyleName

	err = s.screen(ctx, req.Action, &story,
		&story.English.Introduction, &story.English.MainBody, &story.English.ValueReflection,
		&story.Hindi.Introduction, &story.Hindi.MainBody, &story.Hindi.ValueReflection,
	)
	if err != nil {
		return nil, err
	}

	s.persistEntry(req, hash, story)
	s.attachStoryMedia(ctx, &story)
	return &story, nil
}

// attachStoryMedia fetches the illustration and the geography map
// concurrently. Each degrades to the placeholder independently, so a flaky
// image backend never fails the story.
func (s *Service) attachStoryMedia(ctx context.Context, story *domain.Story) {
	var g errgroup.Group
	g.Go(func() error {
		story.GeneratedImageURL = s.fetchImage(ctx, story.IllustrationPrompt, provider.StyleIllustration)
		return nil
	})
	g.Go(func() error {
		story.GeneratedMapURL = s.fetchImage(ctx, story.Geography.MapPrompt, provider.StyleMap)
		return nil
	})
	_ = g.Wait()
}
