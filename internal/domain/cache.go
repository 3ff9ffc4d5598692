package domain

import (
	"encoding/json"
	"time"
)

// CacheEntry is one stored generation result. Hash is a digest over the
// action name, the canonical payload serialization, and the cache-format
// version, so bumping the version shadows all prior entries without
// deleting them.
type CacheEntry struct {
	Hash       string          `json:"hash"`
	Content    json.RawMessage `json:"content"`
	Kind       string          `json:"kind"`
	InsertedAt time.Time       `json:"insertedAt"`
}
