package cache_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/lumina-labs/lumina-backend/internal/adapter/postgres/cache"
	"github.com/lumina-labs/lumina-backend/internal/adapter/postgres/testhelper"
	"github.com/lumina-labs/lumina-backend/internal/domain"
)

func randomHash(t *testing.T) string {
	t.Helper()
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return hex.EncodeToString(b)
}

func TestRepo_Get_Miss(t *testing.T) {
	t.Parallel()

	pool := testhelper.SetupTestDB(t)
	repo := cache.New(pool)

	_, err := repo.Get(context.Background(), randomHash(t))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get: error = %v, want ErrNotFound", err)
	}
}

func TestRepo_UpsertAndGet(t *testing.T) {
	t.Parallel()

	pool := testhelper.SetupTestDB(t)
	repo := cache.New(pool)
	ctx := context.Background()
	hash := randomHash(t)

	entry := domain.CacheEntry{
		Hash:    hash,
		Content: []byte(`{"title":"Gravity","summary":"It pulls."}`),
		Kind:    "generateScienceEntry",
	}
	if err := repo.Upsert(ctx, entry); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.Get(ctx, hash)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Kind != "generateScienceEntry" {
		t.Errorf("Kind = %q, want generateScienceEntry", got.Kind)
	}
	if string(got.Content) != string(entry.Content) {
		t.Errorf("Content = %s, want %s", got.Content, entry.Content)
	}
	if got.InsertedAt.IsZero() {
		t.Error("InsertedAt is zero")
	}
}

func TestRepo_Upsert_ReplacesExisting(t *testing.T) {
	t.Parallel()

	pool := testhelper.SetupTestDB(t)
	repo := cache.New(pool)
	ctx := context.Background()
	hash := randomHash(t)

	first := domain.CacheEntry{Hash: hash, Content: []byte(`[{"name":"Ada"}]`), Kind: "discoverProfiles"}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second := domain.CacheEntry{Hash: hash, Content: []byte(`[{"name":"Alan"}]`), Kind: "discoverProfiles"}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}

	got, err := repo.Get(ctx, hash)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Content) != string(second.Content) {
		t.Errorf("Content = %s, want replacement %s", got.Content, second.Content)
	}
}

func TestRepo_Find_FiltersByKind(t *testing.T) {
	t.Parallel()

	pool := testhelper.SetupTestDB(t)
	repo := cache.New(pool)
	ctx := context.Background()

	// Kind value unique to this test so parallel tests don't interfere.
	kind := "kind-" + randomHash(t)[:12]
	for i := 0; i < 3; i++ {
		entry := domain.CacheEntry{Hash: randomHash(t), Content: []byte(`{}`), Kind: kind}
		if err := repo.Upsert(ctx, entry); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	got, err := repo.Find(ctx, cache.Filter{Kind: &kind})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(Find) = %d, want 3", len(got))
	}
	for _, e := range got {
		if e.Kind != kind {
			t.Errorf("Kind = %q, want %q", e.Kind, kind)
		}
	}

	limited, err := repo.Find(ctx, cache.Filter{Kind: &kind, Limit: 2})
	if err != nil {
		t.Fatalf("Find limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("len(Find limited) = %d, want 2", len(limited))
	}
}

func TestRepo_Find_EmptyResultIsNotNil(t *testing.T) {
	t.Parallel()

	pool := testhelper.SetupTestDB(t)
	repo := cache.New(pool)

	missing := "kind-" + randomHash(t)[:12]
	got, err := repo.Find(context.Background(), cache.Filter{Kind: &missing})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got == nil {
		t.Error("Find returned nil slice, want empty")
	}
	if len(got) != 0 {
		t.Errorf("len(Find) = %d, want 0", len(got))
	}
}

func TestRepo_Delete(t *testing.T) {
	t.Parallel()

	pool := testhelper.SetupTestDB(t)
	repo := cache.New(pool)
	ctx := context.Background()
	hash := randomHash(t)

	entry := domain.CacheEntry{Hash: hash, Content: []byte(`{}`), Kind: "generateStory"}
	if err := repo.Upsert(ctx, entry); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := repo.Delete(ctx, hash); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if err := repo.Delete(ctx, hash); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Delete twice: error = %v, want ErrNotFound", err)
	}
}
