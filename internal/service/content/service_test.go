package content

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lumina-labs/lumina-backend/internal/config"
	"github.com/lumina-labs/lumina-backend/internal/domain"
	"github.com/lumina-labs/lumina-backend/internal/provider"
	"github.com/lumina-labs/lumina-backend/internal/service/cache"
	"github.com/lumina-labs/lumina-backend/internal/service/safety"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeText struct {
	mu    sync.Mutex
	calls int
	fn    func(prompt string, out any) error
}

func (f *fakeText) GenerateJSON(_ context.Context, prompt string, out any) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(prompt, out)
}

func (f *fakeText) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// respondJSON is a fakeText fn that unmarshals a fixed document into out.
func respondJSON(doc string) func(string, any) error {
	return func(_ string, out any) error {
		return json.Unmarshal([]byte(doc), out)
	}
}

type fakeImages struct {
	data []byte
	err  error
}

func (f *fakeImages) GenerateImage(context.Context, string, provider.ImageStyle) ([]byte, error) {
	return f.data, f.err
}

type fakeAudio struct {
	mu    sync.Mutex
	calls int
	data  []byte
	err   error
}

func (f *fakeAudio) GenerateAudio(context.Context, string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.data, f.err
}

func (f *fakeAudio) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCacheRepo struct {
	mu      sync.Mutex
	entries map[string]domain.CacheEntry
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{entries: make(map[string]domain.CacheEntry)}
}

func (f *fakeCacheRepo) Get(_ context.Context, hash string) (*domain.CacheEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[hash]
	if !ok {
		return nil, fmt.Errorf("cached_content %s: %w", hash, domain.ErrNotFound)
	}
	return &e, nil
}

func (f *fakeCacheRepo) Upsert(_ context.Context, entry domain.CacheEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[entry.Hash] = entry
	return nil
}

func (f *fakeCacheRepo) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type fakeQuota struct {
	mu     sync.Mutex
	usage  map[uuid.UUID]int
	limit  int
	denied bool
}

func newFakeQuota(limit int) *fakeQuota {
	return &fakeQuota{usage: make(map[uuid.UUID]int), limit: limit}
}

func (f *fakeQuota) Status(_ context.Context, userID uuid.UUID) (domain.QuotaStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.QuotaStatus{Usage: f.usage[userID], Limit: f.limit}, nil
}

func (f *fakeQuota) Check(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denied || f.usage[userID] >= f.limit {
		return fmt.Errorf("user %s: %w", userID, domain.ErrQuotaExceeded)
	}
	return nil
}

func (f *fakeQuota) Increment(_ context.Context, userID uuid.UUID) (domain.QuotaStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usage[userID]++
	return domain.QuotaStatus{Usage: f.usage[userID], Limit: f.limit}, nil
}

func (f *fakeQuota) usageOf(userID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usage[userID]
}

// ---------------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------------

type harness struct {
	svc    *Service
	text   *fakeText
	images *fakeImages
	audio  *fakeAudio
	repo   *fakeCacheRepo
	quota  *fakeQuota
}

type harnessOpt func(*harnessCfg)

type harnessCfg struct {
	safetyMode  string
	fullHitProb float64
}

func withSafetyMode(mode string) harnessOpt {
	return func(c *harnessCfg) { c.safetyMode = mode }
}

func withFullHitProb(p float64) harnessOpt {
	return func(c *harnessCfg) { c.fullHitProb = p }
}

func newHarness(opts ...harnessOpt) *harness {
	cfg := harnessCfg{safetyMode: "sanitize", fullHitProb: 0.0}
	for _, opt := range opts {
		opt(&cfg)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &harness{
		text:   &fakeText{fn: func(string, any) error { return errors.New("no responder configured") }},
		images: &fakeImages{data: []byte("img")},
		audio:  &fakeAudio{data: []byte("pcm")},
		repo:   newFakeCacheRepo(),
		quota:  newFakeQuota(10),
	}

	cacheCfg := config.CacheConfig{Version: "v2", FullHitProb: cfg.fullHitProb, DiscoveryLength: 5, MixFreshCount: 2}
	contentCache := cache.NewWithRand(log, h.repo, cacheCfg, rand.New(rand.NewSource(1)))

	h.svc = NewService(
		log,
		h.text,
		h.images,
		h.audio,
		contentCache,
		h.quota,
		safety.New(log, config.SafetyConfig{Mode: cfg.safetyMode}),
		provider.NewRetryer(log, config.RetryConfig{
			MaxAttempts:   3,
			RateLimitBase: time.Millisecond,
			OverloadBase:  time.Millisecond,
		}),
		cacheCfg,
		config.RetryConfig{MaxAttempts: 3},
	)
	return h
}

// waitFor polls until cond holds or the deadline passes; detached persistence
// runs on its own goroutine.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

const scienceDoc = `{
	"title": "Gravity",
	"conceptDefinition": "Objects attract each other.",
	"humanStory": "Newton watched an apple fall.",
	"experimentOrActivity": "Drop two balls together.",
	"sources": ["Principia"],
	"illustrationPrompt": "an apple falling from a tree"
}`

func scienceRequest(userID uuid.UUID) Request {
	return Request{
		Action:  domain.ActionGenerateScienceEntry,
		Payload: json.RawMessage(`{"item":{"name":"Gravity","field":"Physics","era":"1687","description":"Why things fall."}}`),
		UserID:  userID,
	}
}

// ---------------------------------------------------------------------------
// Dispatch and gatekeeping
// ---------------------------------------------------------------------------

func TestHandle_UnknownAction(t *testing.T) {
	t.Parallel()

	h := newHarness()
	_, err := h.svc.Handle(context.Background(), Request{Action: domain.Action("explodePlanet")})
	if !errors.Is(err, domain.ErrInvalidAction) {
		t.Fatalf("Handle: error = %v, want ErrInvalidAction", err)
	}
}

func TestHandle_EntryActionRequiresIdentity(t *testing.T) {
	t.Parallel()

	h := newHarness()
	_, err := h.svc.Handle(context.Background(), scienceRequest(uuid.Nil))
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("Handle: error = %v, want ErrUnauthorized", err)
	}
	if h.text.callCount() != 0 {
		t.Error("generator called for unauthorized request")
	}
}

func TestHandle_QuotaExceededBlocksGeneration(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.quota.denied = true

	_, err := h.svc.Handle(context.Background(), scienceRequest(uuid.New()))
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("Handle: error = %v, want ErrQuotaExceeded", err)
	}
	if h.text.callCount() != 0 {
		t.Error("generator called despite exhausted quota")
	}
}

func TestHandle_DiscoveryAllowsAnonymous(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.text.fn = respondJSON(`[{"name":"Ada Lovelace"},{"name":"Alan Turing"},{"name":"Katherine Johnson"},{"name":"Srinivasa Ramanujan"},{"name":"Marie Curie"}]`)

	got, err := h.svc.Handle(context.Background(), Request{
		Action:  domain.ActionDiscoverProfiles,
		Payload: json.RawMessage(`{"category":"scientists","language":"English"}`),
		UserID:  uuid.Nil,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	list, ok := got.([]domain.Profile)
	if !ok {
		t.Fatalf("result type = %T, want []domain.Profile", got)
	}
	if len(list) != 5 {
		t.Errorf("len(list) = %d, want 5", len(list))
	}
}

// ---------------------------------------------------------------------------
// Entry generation path
// ---------------------------------------------------------------------------

func TestGenerateScienceEntry_GenerationPath(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.text.fn = respondJSON(scienceDoc)
	userID := uuid.New()

	got, err := h.svc.Handle(context.Background(), scienceRequest(userID))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	entry, ok := got.(*domain.ScienceEntry)
	if !ok {
		t.Fatalf("result type = %T, want *domain.ScienceEntry", got)
	}
	if entry.Title != "Gravity" {
		t.Errorf("Title = %q, want Gravity", entry.Title)
	}
	wantURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("img"))
	if entry.GeneratedImageURL != wantURL {
		t.Errorf("GeneratedImageURL = %q, want data URL", entry.GeneratedImageURL)
	}

	// Cache store and quota increment are detached from the response.
	waitFor(t, func() bool { return h.repo.len() == 1 && h.quota.usageOf(userID) == 1 })

	for _, e := range h.repo.entries {
		if strings.Contains(string(e.Content), "data:image") {
			t.Error("cached document contains per-request media URL")
		}
		if e.Kind != "generateScienceEntry" {
			t.Errorf("cached Kind = %q", e.Kind)
		}
	}
}

func TestGenerateScienceEntry_CacheHitSkipsGenerationAndQuota(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.text.fn = respondJSON(scienceDoc)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := h.svc.Handle(ctx, scienceRequest(userID)); err != nil {
		t.Fatalf("Handle (cold): %v", err)
	}
	waitFor(t, func() bool { return h.repo.len() == 1 })
	callsAfterCold := h.text.callCount()

	got, err := h.svc.Handle(ctx, scienceRequest(userID))
	if err != nil {
		t.Fatalf("Handle (warm): %v", err)
	}
	if h.text.callCount() != callsAfterCold {
		t.Error("generator called on cache hit")
	}

	entry := got.(*domain.ScienceEntry)
	if entry.GeneratedImageURL == "" {
		t.Error("cache hit served without fresh media")
	}

	// Only the actual generation consumed quota.
	time.Sleep(50 * time.Millisecond)
	if usage := h.quota.usageOf(userID); usage != 1 {
		t.Errorf("usage = %d, want 1 (cache hits are free)", usage)
	}
}

func TestGenerateScienceEntry_MalformedCacheRegenerates(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.text.fn = respondJSON(scienceDoc)
	req := scienceRequest(uuid.New())

	p, err := decodePayload[generateSciencePayload](req.Payload)
	if err != nil {
		t.Fatalf("decodePayload: %v", err)
	}
	hash := h.svc.cache.Key(req.Action, canonicalPayload(p))
	h.repo.entries[hash] = domain.CacheEntry{
		Hash:    hash,
		Content: json.RawMessage(`["not","a","science","entry"]`),
		Kind:    string(req.Action),
	}

	got, err := h.svc.Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	entry, ok := got.(*domain.ScienceEntry)
	if !ok {
		t.Fatalf("result type = %T, want *domain.ScienceEntry", got)
	}
	if entry.Title != "Gravity" {
		t.Errorf("Title = %q, want Gravity", entry.Title)
	}
	if h.text.callCount() != 1 {
		t.Errorf("generator calls = %d, want 1 (malformed entry is a miss)", h.text.callCount())
	}
}

func TestGenerateStory_MediaDegradesToPlaceholder(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.images.err = errors.New("image backend down")
	h.text.fn = respondJSON(`{
		"english": {"title":"T","introduction":"I.","mainBody":"B.","valueReflection":"V."},
		"hindi": {"title":"T","introduction":"I.","mainBody":"B.","valueReflection":"V."},
		"illustrationPrompt": "a garden",
		"geography": {"countryName":"India","funFact":"Big.","mapPrompt":"a map of india"}
	}`)

	got, err := h.svc.Handle(context.Background(), Request{
		Action: domain.ActionGenerateStory,
		Payload: json.RawMessage(`{
			"profile":{"name":"Ada","title":"Mathematician","region":"England","era":"1840s","values":["curiosity"]},
			"englishStyleName":"Roald Dahl","englishStyleDesc":"whimsical",
			"hindiStyleName":"Premchand","hindiStyleDesc":"grounded"
		}`),
		UserID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	story := got.(*domain.Story)
	if story.GeneratedImageURL != fallbackImageURL {
		t.Errorf("GeneratedImageURL = %q, want placeholder", story.GeneratedImageURL)
	}
	if story.GeneratedMapURL != fallbackImageURL {
		t.Errorf("GeneratedMapURL = %q, want placeholder", story.GeneratedMapURL)
	}
	if story.EnglishStyle != "Roald Dahl" || story.HindiStyle != "Premchand" {
		t.Errorf("styles = %q/%q, want request styles echoed", story.EnglishStyle, story.HindiStyle)
	}
}

func TestGenerateScienceEntry_RetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	h := newHarness()
	var calls int
	var mu sync.Mutex
	h.text.fn = func(_ string, out any) error {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n <= 2 {
			return fmt.Errorf("busy: %w", provider.ErrOverloaded)
		}
		return json.Unmarshal([]byte(scienceDoc), out)
	}

	if _, err := h.svc.Handle(context.Background(), scienceRequest(uuid.New())); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if calls != 3 {
		t.Errorf("generator calls = %d, want 3 (two retries)", calls)
	}
}

func TestGenerateScienceEntry_FatalDoesNotRetry(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.text.fn = func(string, any) error { return errors.New("schema mismatch") }

	_, err := h.svc.Handle(context.Background(), scienceRequest(uuid.New()))
	if err == nil {
		t.Fatal("Handle: expected error")
	}
	if h.text.callCount() != 1 {
		t.Errorf("generator calls = %d, want 1", h.text.callCount())
	}
}

// ---------------------------------------------------------------------------
// Safety policy
// ---------------------------------------------------------------------------

const unsafeScienceDoc = `{
	"title": "Explosives",
	"conceptDefinition": "Chemistry of reactions.",
	"humanStory": "A scientist built a bomb in secret. Later the lab was closed.",
	"experimentOrActivity": "Mix baking soda and vinegar.",
	"sources": [],
	"illustrationPrompt": "a laboratory"
}`

func TestGenerateScienceEntry_SanitizeModeRedacts(t *testing.T) {
	t.Parallel()

	h := newHarness(withSafetyMode("sanitize"))
	h.text.fn = respondJSON(unsafeScienceDoc)

	got, err := h.svc.Handle(context.Background(), scienceRequest(uuid.New()))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	entry := got.(*domain.ScienceEntry)
	if strings.Contains(strings.ToLower(entry.HumanStory), "bomb") {
		t.Errorf("HumanStory still contains blocked term: %q", entry.HumanStory)
	}
	if !strings.Contains(entry.HumanStory, "Later the lab was closed.") {
		t.Errorf("HumanStory lost its safe sentence: %q", entry.HumanStory)
	}
}

func TestGenerateScienceEntry_StrictModeFails(t *testing.T) {
	t.Parallel()

	h := newHarness(withSafetyMode("strict"))
	h.text.fn = respondJSON(unsafeScienceDoc)

	_, err := h.svc.Handle(context.Background(), scienceRequest(uuid.New()))
	if !errors.Is(err, domain.ErrSafetyViolation) {
		t.Fatalf("Handle: error = %v, want ErrSafetyViolation", err)
	}
}

func TestDiscoverProfiles_SanitizeModeDropsUnsafeItems(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.text.fn = respondJSON(`[{"name":"Safe Person","description":"kind"},{"name":"Bad Item","description":"a nazi sympathizer"}]`)

	got, err := h.svc.Handle(context.Background(), Request{
		Action:  domain.ActionDiscoverProfiles,
		Payload: json.RawMessage(`{"category":"leaders"}`),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	list := got.([]domain.Profile)
	if len(list) != 1 || list[0].Name != "Safe Person" {
		t.Errorf("list = %+v, want only the safe item", list)
	}
}

// ---------------------------------------------------------------------------
// Auxiliary actions
// ---------------------------------------------------------------------------

func TestGenerateImage_UpstreamFailureServesPlaceholder(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.images.err = errors.New("boom")

	got, err := h.svc.Handle(context.Background(), Request{
		Action:  domain.ActionGenerateImage,
		Payload: json.RawMessage(`{"prompt":"a castle","isMap":false}`),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got != fallbackImageURL {
		t.Errorf("result = %v, want placeholder URL", got)
	}
}

func TestGenerateImage_UnsafePromptServesPlaceholder(t *testing.T) {
	t.Parallel()

	h := newHarness()

	got, err := h.svc.Handle(context.Background(), Request{
		Action:  domain.ActionGenerateImage,
		Payload: json.RawMessage(`{"prompt":"a terrorist camp"}`),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got != fallbackImageURL {
		t.Errorf("result = %v, want placeholder URL", got)
	}
}

func TestGenerateAudio_Success(t *testing.T) {
	t.Parallel()

	h := newHarness()

	got, err := h.svc.Handle(context.Background(), Request{
		Action:  domain.ActionGenerateAudio,
		Payload: json.RawMessage(`{"text":"Once upon a time."}`),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got != base64.StdEncoding.EncodeToString([]byte("pcm")) {
		t.Errorf("result = %v, want base64 audio", got)
	}
}

func TestGenerateAudio_FailureDegradesToNull(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.audio.err = errors.New("tts down")

	got, err := h.svc.Handle(context.Background(), Request{
		Action:  domain.ActionGenerateAudio,
		Payload: json.RawMessage(`{"text":"Hello."}`),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got != nil {
		t.Errorf("result = %v, want nil", got)
	}
}

func TestGenerateAudio_TransientFailureNotRetried(t *testing.T) {
	t.Parallel()

	h := newHarness()
	h.audio.err = fmt.Errorf("busy: %w", provider.ErrOverloaded)

	got, err := h.svc.Handle(context.Background(), Request{
		Action:  domain.ActionGenerateAudio,
		Payload: json.RawMessage(`{"text":"Hello."}`),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got != nil {
		t.Errorf("result = %v, want nil", got)
	}
	if h.audio.callCount() != 1 {
		t.Errorf("audio generator calls = %d, want 1 (narration has no retry budget)", h.audio.callCount())
	}
}

func TestGetUserQuota_Anonymous(t *testing.T) {
	t.Parallel()

	h := newHarness()

	got, err := h.svc.Handle(context.Background(), Request{
		Action:  domain.ActionGetUserQuota,
		Payload: json.RawMessage(`{}`),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	status, ok := got.(domain.QuotaStatus)
	if !ok {
		t.Fatalf("result type = %T, want domain.QuotaStatus", got)
	}
	if status.Usage != 0 || status.Limit != 10 {
		t.Errorf("status = %+v, want 0/10", status)
	}
}

func TestValidation_MissingFields(t *testing.T) {
	t.Parallel()

	h := newHarness()

	cases := []struct {
		action  domain.Action
		payload string
	}{
		{domain.ActionDiscoverProfiles, `{}`},
		{domain.ActionDiscoverConcepts, `{}`},
		{domain.ActionDiscoverPhilosophies, `{}`},
		{domain.ActionGenerateImage, `{}`},
		{domain.ActionGenerateAudio, `{}`},
	}
	for _, tc := range cases {
		_, err := h.svc.Handle(context.Background(), Request{
			Action:  tc.action,
			Payload: json.RawMessage(tc.payload),
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Handle(%s, %s): error = %v, want ErrValidation", tc.action, tc.payload, err)
		}
	}
}
