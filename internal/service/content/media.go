package content

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/lumina-labs/lumina-backend/internal/provider"
)

// fallbackImageURL is served whenever image generation fails or the prompt
// is unsafe, so an entry always renders with some visual.
const fallbackImageURL = "https://picsum.photos/800/600?grayscale&blur=2"

// generateImage is the standalone image action. The result is a data URL or
// the placeholder; the action itself never fails on upstream errors.
func (s *Service) generateImage(ctx context.Context, req Request) (any, error) {
	p, err := decodePayload[generateImagePayload](req.Payload)
	if err != nil {
		return nil, err
	}

	style := provider.StyleIllustration
	if p.IsMap {
		style = provider.StyleMap
	}
	return s.fetchImage(ctx, p.Prompt, style), nil
}

// generateAudio is the standalone narration action. A single attempt with no
// retry budget; it degrades to null on failure or unsafe input rather than
// erroring, matching how clients treat narration as optional.
func (s *Service) generateAudio(ctx context.Context, req Request) (any, error) {
	p, err := decodePayload[generateAudioPayload](req.Payload)
	if err != nil {
		return nil, err
	}

	if !s.safety.IsSafe(p.Text) {
		s.log.WarnContext(ctx, "audio request blocked by safety filter")
		return nil, nil
	}

	var data []byte
	err = s.retry.Do(ctx, "generateAudio", 1, func(ctx context.Context) error {
		var genErr error
		data, genErr = s.audio.GenerateAudio(ctx, p.Text)
		return genErr
	})
	if err != nil {
		s.log.WarnContext(ctx, "audio generation failed", slog.String("error", err.Error()))
		return nil, nil
	}

	return base64.StdEncoding.EncodeToString(data), nil
}

// fetchImage generates one image with a single attempt, degrading to the
// placeholder on any failure so media never blocks or fails a primary
// response.
func (s *Service) fetchImage(ctx context.Context, prompt string, style provider.ImageStyle) string {
	if prompt == "" || !s.safety.IsSafe(prompt) {
		return fallbackImageURL
	}

	var data []byte
	err := s.retry.Do(ctx, "generateImage", 1, func(ctx context.Context) error {
		var genErr error
		data, genErr = s.images.GenerateImage(ctx, prompt, style)
		return genErr
	})
	if err != nil {
		s.log.WarnContext(ctx, "image generation failed, serving placeholder",
			slog.String("error", err.Error()),
		)
		return fallbackImageURL
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
}
