package provider

import (
	"errors"
	"strings"
)

// Sentinel errors for transient upstream failures. Adapters wrap these when
// the upstream reports an explicit rate-limit or unavailable status; anything
// else is treated as fatal and is never retried.
var (
	ErrRateLimited = errors.New("upstream rate limited")
	ErrOverloaded  = errors.New("upstream overloaded")
)

// Class is the retry classification of an upstream failure.
type Class int

const (
	ClassFatal Class = iota
	ClassRateLimited
	ClassOverloaded
)

func (c Class) String() string {
	switch c {
	case ClassRateLimited:
		return "rate_limited"
	case ClassOverloaded:
		return "overloaded"
	default:
		return "fatal"
	}
}

// Classify determines the retry class of an upstream error. Wrapped
// sentinels win; otherwise the error message is pattern-matched the same way
// the upstream SDKs surface these conditions ("rate limit"/429,
// "overloaded"/503).
func Classify(err error) Class {
	if err == nil {
		return ClassFatal
	}
	if errors.Is(err, ErrRateLimited) {
		return ClassRateLimited
	}
	if errors.Is(err, ErrOverloaded) {
		return ClassOverloaded
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return ClassRateLimited
	case strings.Contains(msg, "overloaded") || strings.Contains(msg, "503"):
		return ClassOverloaded
	default:
		return ClassFatal
	}
}
