package domain

import "fmt"

// Action identifies one of the operations served by the generation endpoint.
// The set is closed: dispatch happens over these constants, and unknown
// strings are rejected at the transport boundary with ErrInvalidAction.
type Action string

const (
	ActionDiscoverProfiles        Action = "discoverProfiles"
	ActionDiscoverConcepts        Action = "discoverConcepts"
	ActionDiscoverPhilosophies    Action = "discoverPhilosophies"
	ActionGenerateStory           Action = "generateStory"
	ActionGenerateScienceEntry    Action = "generateScienceEntry"
	ActionGeneratePhilosophyEntry Action = "generatePhilosophyEntry"
	ActionGenerateImage           Action = "generateImage"
	ActionGenerateAudio           Action = "generateAudio"
	ActionGetUserQuota            Action = "getUserQuota"
)

// ParseAction converts a wire-level action name into an Action.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionDiscoverProfiles, ActionDiscoverConcepts, ActionDiscoverPhilosophies,
		ActionGenerateStory, ActionGenerateScienceEntry, ActionGeneratePhilosophyEntry,
		ActionGenerateImage, ActionGenerateAudio, ActionGetUserQuota:
		return a, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrInvalidAction)
	}
}

// IsDiscovery reports whether the action returns a list of items and is
// served through the mixed-content cache strategy.
func (a Action) IsDiscovery() bool {
	switch a {
	case ActionDiscoverProfiles, ActionDiscoverConcepts, ActionDiscoverPhilosophies:
		return true
	}
	return false
}

// IsEntry reports whether the action produces a full generated document and
// is cached under an exact payload key.
func (a Action) IsEntry() bool {
	switch a {
	case ActionGenerateStory, ActionGenerateScienceEntry, ActionGeneratePhilosophyEntry:
		return true
	}
	return false
}

// ConsumesQuota reports whether the action counts against the caller's daily
// generation quota. Only entry generation does; discovery, media, and quota
// reads are free.
func (a Action) ConsumesQuota() bool { return a.IsEntry() }

// RequiresAuth reports whether the action demands a resolved caller identity.
// Anonymous calls are permitted only for actions that do not consume quota.
func (a Action) RequiresAuth() bool { return a.ConsumesQuota() }
