// Package cache computes deterministic request keys and mediates cache
// hit/miss/store, including the probabilistic mixed-list strategy used by
// discovery actions.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/lumina-labs/lumina-backend/internal/config"
	"github.com/lumina-labs/lumina-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type cacheRepo interface {
	Get(ctx context.Context, hash string) (*domain.CacheEntry, error)
	Upsert(ctx context.Context, entry domain.CacheEntry) error
}

// ---------------------------------------------------------------------------
// Cache
// ---------------------------------------------------------------------------

// Cache wraps the cache repository with key derivation and the mixed-list
// policy for discovery results.
type Cache struct {
	repo        cacheRepo
	log         *slog.Logger
	version     string
	fullHitProb float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// New creates a Cache.
func New(log *slog.Logger, repo cacheRepo, cfg config.CacheConfig) *Cache {
	return NewWithRand(log, repo, cfg, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithRand creates a Cache with an explicit random source, used in tests.
func NewWithRand(log *slog.Logger, repo cacheRepo, cfg config.CacheConfig, rnd *rand.Rand) *Cache {
	return &Cache{
		repo:        repo,
		log:         log.With("service", "cache"),
		version:     cfg.Version,
		fullHitProb: cfg.FullHitProb,
		rnd:         rnd,
	}
}

// Key derives the deterministic cache key for a request: the hex SHA-256 of
// the action name, the payload JSON, and the cache-format version. Bumping
// the version logically invalidates every existing entry.
func (c *Cache) Key(action domain.Action, payload json.RawMessage) string {
	h := sha256.New()
	h.Write([]byte(action))
	h.Write(payload)
	h.Write([]byte(c.version))
	return hex.EncodeToString(h.Sum(nil))
}

// Lookup returns the cached content for a key, or ok=false on a miss.
// Storage failures are logged and treated as misses so a degraded cache
// never fails a request.
func (c *Cache) Lookup(ctx context.Context, hash string) (json.RawMessage, bool) {
	entry, err := c.repo.Get(ctx, hash)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.log.WarnContext(ctx, "cache lookup failed", slog.String("error", err.Error()))
		}
		return nil, false
	}
	return entry.Content, true
}

// Store persists content under a key, replacing any previous entry.
func (c *Cache) Store(ctx context.Context, hash string, action domain.Action, content json.RawMessage) error {
	err := c.repo.Upsert(ctx, domain.CacheEntry{
		Hash:    hash,
		Content: content,
		Kind:    string(action),
	})
	if err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// roll draws one uniform sample; rand.Rand is not safe for concurrent use.
func (c *Cache) roll() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rnd.Float64()
}

func (c *Cache) pick(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rnd.Intn(n)
}

// LookupOrMix resolves a discovery-list request against the cache:
//
//   - full hit: with probability fullHitProb a cached list is returned as is,
//     costing zero upstream calls;
//   - mix: otherwise one uniformly random cached item is carried forward and
//     freshCount new items are generated, the carried item being dropped if
//     its identity collides with a fresh one;
//   - cold: with no cached list, size items are generated.
//
// Duplicate identities within a fresh batch collapse to the first
// occurrence. The resulting list is stored back under the same key
// regardless of size, so the next request mixes against it.
func LookupOrMix[T domain.Identifiable](
	ctx context.Context,
	c *Cache,
	action domain.Action,
	hash string,
	size int,
	freshCount int,
	generate func(ctx context.Context, n int) ([]T, error),
) ([]T, error) {
	cached, ok := lookupList[T](ctx, c, hash)

	if ok && len(cached) > 0 && c.roll() < c.fullHitProb {
		c.log.DebugContext(ctx, "discovery full hit",
			slog.String("action", string(action)),
			slog.Int("items", len(cached)),
		)
		return cached, nil
	}

	var carried *T
	n := size
	if ok && len(cached) > 0 {
		item := cached[c.pick(len(cached))]
		carried = &item
		n = freshCount
	}

	fresh, err := generate(ctx, n)
	if err != nil {
		return nil, err
	}
	fresh = dedupe(fresh)

	result := fresh
	if carried != nil && !collides(*carried, fresh) {
		result = append([]T{*carried}, fresh...)
	}

	if err := storeList(ctx, c, action, hash, result); err != nil {
		c.log.WarnContext(ctx, "discovery store-back failed",
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
	}

	return result, nil
}

// dedupe keeps the first occurrence of each identity; a returned list never
// contains duplicates.
func dedupe[T domain.Identifiable](items []T) []T {
	seen := make(map[string]struct{}, len(items))
	kept := items[:0]
	for _, item := range items {
		if _, ok := seen[item.Identity()]; ok {
			continue
		}
		seen[item.Identity()] = struct{}{}
		kept = append(kept, item)
	}
	return kept
}

func collides[T domain.Identifiable](carried T, fresh []T) bool {
	for _, item := range fresh {
		if item.Identity() == carried.Identity() {
			return true
		}
	}
	return false
}

func lookupList[T domain.Identifiable](ctx context.Context, c *Cache, hash string) ([]T, bool) {
	raw, ok := c.Lookup(ctx, hash)
	if !ok {
		return nil, false
	}
	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		c.log.WarnContext(ctx, "cached list is malformed, treating as miss",
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	return list, true
}

func storeList[T domain.Identifiable](ctx context.Context, c *Cache, action domain.Action, hash string, list []T) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode list: %w", err)
	}
	return c.Store(ctx, hash, action, raw)
}
