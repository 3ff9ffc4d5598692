// Package gemini implements image and audio generation against the Gemini
// generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lumina-labs/lumina-backend/internal/config"
	"github.com/lumina-labs/lumina-backend/internal/provider"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Style suffixes steer the image model toward a consistent visual language
// for each asset kind.
const (
	illustrationSuffix = " -- warm colors, children's book illustration style, high quality, artistic, detailed, masterpiece"
	mapSuffix          = " -- illustrated map style, colorful, educational, cute icons, parchment background, high quality"
)

// Client calls the Gemini REST API for binary media generation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	imageModel string
	audioModel string
	audioVoice string
	log        *slog.Logger
}

// New creates a Client from provider configuration.
func New(cfg config.ProviderConfig, logger *slog.Logger) *Client {
	c := NewWithURL(defaultBaseURL, cfg, logger)
	return c
}

// NewWithURL creates a Client against an explicit endpoint, used in tests.
func NewWithURL(baseURL string, cfg config.ProviderConfig, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    baseURL,
		apiKey:     cfg.GeminiAPIKey,
		imageModel: cfg.ImageModel,
		audioModel: cfg.AudioModel,
		audioVoice: cfg.AudioVoice,
		log:        logger.With("adapter", "gemini"),
	}
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GenerateImage renders the prompt with the style suffix for the requested
// asset kind and returns the raw image bytes.
func (c *Client) GenerateImage(ctx context.Context, prompt string, style provider.ImageStyle) ([]byte, error) {
	suffix := illustrationSuffix
	if style == provider.StyleMap {
		suffix = mapSuffix
	}

	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt + suffix}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE"},
		},
	}
	data, err := c.generate(ctx, c.imageModel, req)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate image: %w", err)
	}
	return data, nil
}

// GenerateAudio synthesizes narration for text and returns the raw audio
// bytes.
func (c *Client) GenerateAudio(ctx context.Context, text string) ([]byte, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: text}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: c.audioVoice},
				},
			},
		},
	}
	data, err := c.generate(ctx, c.audioModel, req)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate audio: %w", err)
	}
	return data, nil
}

// generate posts one generateContent request and decodes the first inline
// data part of the first candidate.
func (c *Client) generate(ctx context.Context, model string, body generateRequest) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	for _, cand := range out.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode inline data: %w", err)
			}
			c.log.DebugContext(ctx, "media generated",
				slog.String("model", model),
				slog.String("mime_type", p.InlineData.MimeType),
				slog.Int("bytes", len(raw)),
			)
			return raw, nil
		}
	}
	return nil, fmt.Errorf("response contains no inline media")
}

// statusError maps upstream HTTP statuses onto retry sentinels.
func (c *Client) statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(snippet))

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d: %s", provider.ErrRateLimited, resp.StatusCode, msg)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: status %d: %s", provider.ErrOverloaded, resp.StatusCode, msg)
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
	}
}
