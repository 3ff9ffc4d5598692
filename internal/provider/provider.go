// Package provider defines the boundary to external generative-content
// services: generation interfaces, upstream failure classification, and the
// retry policy applied to upstream calls.
package provider

import "context"

// ImageStyle selects the rendering style hint appended to image prompts.
type ImageStyle string

const (
	StyleIllustration ImageStyle = "illustration"
	StyleMap          ImageStyle = "map"
)

// TextGenerator produces a structured JSON result for a prompt and
// unmarshals it into out. Implementations classify transient upstream
// failures by wrapping ErrRateLimited or ErrOverloaded.
type TextGenerator interface {
	GenerateJSON(ctx context.Context, prompt string, out any) error
}

// ImageGenerator produces binary image data for a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, style ImageStyle) ([]byte, error)
}

// AudioGenerator produces binary audio narration for a text.
type AudioGenerator interface {
	GenerateAudio(ctx context.Context, text string) ([]byte, error)
}
