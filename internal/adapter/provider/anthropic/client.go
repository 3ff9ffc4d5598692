// Package anthropic implements the structured text generator against the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lumina-labs/lumina-backend/internal/config"
	"github.com/lumina-labs/lumina-backend/internal/provider"
)

// Client generates structured JSON content through the Messages API.
type Client struct {
	api       sdk.Client
	model     string
	maxTokens int64
	log       *slog.Logger
}

// New creates a Client from provider configuration.
func New(cfg config.ProviderConfig, logger *slog.Logger) *Client {
	return &Client{
		api:       sdk.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		model:     cfg.TextModel,
		maxTokens: int64(cfg.MaxTokens),
		log:       logger.With("adapter", "anthropic"),
	}
}

// GenerateJSON sends one prompt, extracts the JSON document from the model's
// response text, and unmarshals it into out. Transient API failures are
// wrapped with provider.ErrRateLimited / provider.ErrOverloaded so the retry
// policy can classify them.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, out any) error {
	msg, err := c.api.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return c.mapError(err)
	}

	if len(msg.Content) == 0 {
		return fmt.Errorf("anthropic: empty response")
	}

	raw, err := extractJSON(msg.Content[0].Text)
	if err != nil {
		return fmt.Errorf("anthropic: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("anthropic: decode result: %w", err)
	}

	c.log.DebugContext(ctx, "generation complete",
		slog.String("model", c.model),
		slog.Int("response_bytes", len(raw)),
	)
	return nil
}

// mapError classifies Messages API errors for the retry policy.
func (c *Client) mapError(err error) error {
	var apierr *sdk.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case http.StatusTooManyRequests:
			return fmt.Errorf("anthropic: %w: %v", provider.ErrRateLimited, err)
		case http.StatusServiceUnavailable, 529:
			return fmt.Errorf("anthropic: %w: %v", provider.ErrOverloaded, err)
		}
	}
	if strings.Contains(strings.ToLower(err.Error()), "overloaded") {
		return fmt.Errorf("anthropic: %w: %v", provider.ErrOverloaded, err)
	}
	return fmt.Errorf("anthropic: api call: %w", err)
}

// extractJSON finds the first complete JSON document (object or array) in a
// string. Models occasionally wrap the document in prose or code fences.
func extractJSON(s string) (string, error) {
	objStart := strings.Index(s, "{")
	arrStart := strings.Index(s, "[")

	start, end := objStart, strings.LastIndex(s, "}")
	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		start, end = arrStart, strings.LastIndex(s, "]")
	}
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON document found in response")
	}

	doc := s[start : end+1]
	if !json.Valid([]byte(doc)) {
		return "", fmt.Errorf("response does not contain valid JSON")
	}
	return doc, nil
}
