package content

import (
	"encoding/json"
	"fmt"

	"github.com/lumina-labs/lumina-backend/internal/domain"
)

// decodePayload unmarshals an action payload and runs its validation.
func decodePayload[T interface{ validate() error }](raw json.RawMessage) (T, error) {
	var p T
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("%w: malformed payload: %v", domain.ErrValidation, err)
	}
	if err := p.validate(); err != nil {
		return p, err
	}
	return p, nil
}

type discoverProfilesPayload struct {
	Category string `json:"category"`
	Language string `json:"language"`
}

func (p discoverProfilesPayload) validate() error {
	if p.Category == "" {
		return domain.NewValidationError("category", "is required")
	}
	return nil
}

type discoverConceptsPayload struct {
	Field string `json:"field"`
}

func (p discoverConceptsPayload) validate() error {
	if p.Field == "" {
		return domain.NewValidationError("field", "is required")
	}
	return nil
}

type discoverPhilosophiesPayload struct {
	Theme string `json:"theme"`
}

func (p discoverPhilosophiesPayload) validate() error {
	if p.Theme == "" {
		return domain.NewValidationError("theme", "is required")
	}
	return nil
}

type generateStoryPayload struct {
	Profile          domain.Profile `json:"profile"`
	EnglishStyleName string         `json:"englishStyleName"`
	EnglishStyleDesc string         `json:"englishStyleDesc"`
	HindiStyleName   string         `json:"hindiStyleName"`
	HindiStyleDesc   string         `json:"hindiStyleDesc"`
}

func (p generateStoryPayload) validate() error {
	if p.Profile.Name == "" {
		return domain.NewValidationError("profile.name", "is required")
	}
	if p.EnglishStyleName == "" {
		return domain.NewValidationError("englishStyleName", "is required")
	}
	if p.HindiStyleName == "" {
		return domain.NewValidationError("hindiStyleName", "is required")
	}
	return nil
}

type generateSciencePayload struct {
	Item domain.ScienceItem `json:"item"`
}

func (p generateSciencePayload) validate() error {
	if p.Item.Name == "" {
		return domain.NewValidationError("item.name", "is required")
	}
	return nil
}

type generatePhilosophyPayload struct {
	Item domain.PhilosophyItem `json:"item"`
}

func (p generatePhilosophyPayload) validate() error {
	if p.Item.Name == "" {
		return domain.NewValidationError("item.name", "is required")
	}
	return nil
}

type generateImagePayload struct {
	Prompt string `json:"prompt"`
	IsMap  bool   `json:"isMap"`
}

func (p generateImagePayload) validate() error {
	if p.Prompt == "" {
		return domain.NewValidationError("prompt", "is required")
	}
	return nil
}

type generateAudioPayload struct {
	Text string `json:"text"`
}

func (p generateAudioPayload) validate() error {
	if p.Text == "" {
		return domain.NewValidationError("text", "is required")
	}
	return nil
}

type emptyPayload struct{}

func (emptyPayload) validate() error { return nil }
