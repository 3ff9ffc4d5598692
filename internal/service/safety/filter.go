// Package safety screens generated content against a two-tier keyword
// lexicon before it is cached or served.
package safety

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/lumina-labs/lumina-backend/internal/config"
)

// Filter validates and redacts generated text.
type Filter struct {
	log    *slog.Logger
	strict bool

	strictRe    *regexp.Regexp
	sensitiveRe *regexp.Regexp
}

// New creates a Filter. In strict mode callers treat any violation as a hard
// failure; otherwise violating sentences are redacted and the remainder is
// served.
func New(log *slog.Logger, cfg config.SafetyConfig) *Filter {
	return &Filter{
		log:         log.With("service", "safety"),
		strict:      cfg.Mode == "strict",
		strictRe:    compileLexicon(strictTerms),
		sensitiveRe: compileLexicon(sensitiveTerms),
	}
}

// compileLexicon builds one case-insensitive whole-word alternation for a
// term list.
func compileLexicon(terms []string) *regexp.Regexp {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}

// Strict reports whether violations should fail the request instead of
// being sanitized away.
func (f *Filter) Strict() bool {
	return f.strict
}

// IsSafe recursively walks an arbitrary value (structs are traversed through
// their JSON form) and reports whether no string anywhere in it contains a
// strict-list term as a whole word. Short-circuits on the first violation.
func (f *Filter) IsSafe(v any) bool {
	node, err := toJSONValue(v)
	if err != nil {
		return false
	}
	return f.walkSafe(node)
}

func (f *Filter) walkSafe(v any) bool {
	switch val := v.(type) {
	case string:
		return !f.strictRe.MatchString(val)
	case []any:
		for _, item := range val {
			if !f.walkSafe(item) {
				return false
			}
		}
	case map[string]any:
		for _, item := range val {
			if !f.walkSafe(item) {
				return false
			}
		}
	}
	return true
}

// Sanitize splits text into sentence segments on terminal punctuation, drops
// every segment containing a strict-list term, and rejoins the rest. Text
// with no violating sentence is returned unchanged.
func (f *Filter) Sanitize(text string) string {
	if !f.strictRe.MatchString(text) {
		return text
	}

	segments := splitSentences(text)
	kept := segments[:0]
	for _, seg := range segments {
		if f.strictRe.MatchString(seg) {
			continue
		}
		kept = append(kept, seg)
	}

	out := strings.TrimSpace(strings.Join(kept, ""))
	f.log.Warn("sanitized generated text",
		slog.Int("segments_total", len(segments)),
		slog.Int("segments_kept", len(kept)),
	)
	return out
}

// HasSensitive reports whether the value contains sensitive-list terms.
// These never block; orchestration logs them for moderation review.
func (f *Filter) HasSensitive(v any) bool {
	node, err := toJSONValue(v)
	if err != nil {
		return false
	}
	return f.walkSensitive(node)
}

func (f *Filter) walkSensitive(v any) bool {
	switch val := v.(type) {
	case string:
		return f.sensitiveRe.MatchString(val)
	case []any:
		for _, item := range val {
			if f.walkSensitive(item) {
				return true
			}
		}
	case map[string]any:
		for _, item := range val {
			if f.walkSensitive(item) {
				return true
			}
		}
	}
	return false
}

// splitSentences cuts text after each terminal punctuation mark. A trailing
// run with no terminal punctuation is its own segment. The segments
// concatenate back to the original text exactly.
func splitSentences(text string) []string {
	var segments []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			segments = append(segments, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		segments = append(segments, text[start:])
	}
	return segments
}

// toJSONValue reduces any marshalable value to the JSON primitive tree that
// the walkers understand.
func toJSONValue(v any) (any, error) {
	switch v.(type) {
	case string, []any, map[string]any, nil:
		return v, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal for safety walk: %w", err)
	}
	var node any
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("decode for safety walk: %w", err)
	}
	return node, nil
}
