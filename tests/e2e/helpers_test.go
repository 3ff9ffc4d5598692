//go:build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	cachepg "github.com/lumina-labs/lumina-backend/internal/adapter/postgres/cache"
	quotapg "github.com/lumina-labs/lumina-backend/internal/adapter/postgres/quota"
	"github.com/lumina-labs/lumina-backend/internal/adapter/postgres/testhelper"
	authpkg "github.com/lumina-labs/lumina-backend/internal/auth"
	"github.com/lumina-labs/lumina-backend/internal/config"
	"github.com/lumina-labs/lumina-backend/internal/domain"
	"github.com/lumina-labs/lumina-backend/internal/provider"
	cachesvc "github.com/lumina-labs/lumina-backend/internal/service/cache"
	"github.com/lumina-labs/lumina-backend/internal/service/content"
	quotasvc "github.com/lumina-labs/lumina-backend/internal/service/quota"
	"github.com/lumina-labs/lumina-backend/internal/service/safety"
	"github.com/lumina-labs/lumina-backend/internal/transport/middleware"
	"github.com/lumina-labs/lumina-backend/internal/transport/rest"
)

const (
	testJWTSecret = "e2e-test-secret-0123456789abcdef"
	testJWTIssuer = "lumina"
)

// ---------------------------------------------------------------------------
// Stub upstream generators. The e2e suite exercises the full HTTP and
// storage stack with deterministic generation results.
// ---------------------------------------------------------------------------

type stubTextGen struct{}

func (stubTextGen) GenerateJSON(_ context.Context, _ string, out any) error {
	switch v := out.(type) {
	case *[]domain.Profile:
		*v = []domain.Profile{
			{Name: "Ada Lovelace", Title: "Mathematician", Description: "Wrote the first algorithm.", Region: "England", Era: "1840s", Values: []string{"curiosity"}},
			{Name: "Srinivasa Ramanujan", Title: "Mathematician", Description: "Self-taught number theorist.", Region: "India", Era: "1910s", Values: []string{"persistence"}},
			{Name: "Katherine Johnson", Title: "Mathematician", Description: "Computed orbital trajectories.", Region: "USA", Era: "1960s", Values: []string{"precision"}},
			{Name: "Alan Turing", Title: "Computer scientist", Description: "Founded computability theory.", Region: "England", Era: "1940s", Values: []string{"imagination"}},
			{Name: "Marie Curie", Title: "Physicist", Description: "Pioneered radioactivity research.", Region: "Poland", Era: "1900s", Values: []string{"dedication"}},
		}
	case *[]domain.ScienceItem:
		*v = []domain.ScienceItem{
			{Name: "Gravity", Field: "Physics", Era: "1687", Description: "Why things fall."},
			{Name: "Photosynthesis", Field: "Biology", Era: "1779", Description: "How plants eat light."},
			{Name: "Plate Tectonics", Field: "Geology", Era: "1912", Description: "Why continents drift."},
			{Name: "Evolution", Field: "Biology", Era: "1859", Description: "How species change."},
			{Name: "Electromagnetism", Field: "Physics", Era: "1865", Description: "Light as waves."},
		}
	case *[]domain.PhilosophyItem:
		*v = []domain.PhilosophyItem{
			{Name: "Stoicism", Origin: "Greece", Era: "300 BCE", CoreIdea: "Focus on what you control."},
			{Name: "Ahimsa", Origin: "India", Era: "800 BCE", CoreIdea: "Non-violence toward all beings."},
			{Name: "Ubuntu", Origin: "Southern Africa", Era: "19th century", CoreIdea: "I am because we are."},
			{Name: "Wabi-sabi", Origin: "Japan", Era: "15th century", CoreIdea: "Beauty in imperfection."},
			{Name: "Pragmatism", Origin: "USA", Era: "1870s", CoreIdea: "Truth is what works."},
		}
	case *domain.Story:
		*v = domain.Story{
			English:            domain.StoryContent{Title: "The Curious Counter", Introduction: "Long ago in England.", MainBody: "She imagined machines that could sing.", ValueReflection: "Curiosity opens doors."},
			Hindi:              domain.StoryContent{Title: "Jigyasu Ganitagya", Introduction: "Bahut samay pehle.", MainBody: "Usne sapno ki machine banayi.", ValueReflection: "Jigyasa naye dwar kholti hai."},
			IllustrationPrompt: "a young woman sketching a mechanical loom",
			Geography:          domain.Geography{CountryName: "England", FunFact: "Home of the first computers.", MapPrompt: "a map of england"},
		}
	case *domain.ScienceEntry:
		*v = domain.ScienceEntry{
			Title:                "Gravity",
			ConceptDefinition:    "Objects attract each other.",
			HumanStory:           "Newton watched an apple fall.",
			ExperimentOrActivity: "Drop two balls together.",
			Sources:              []string{"Principia"},
			IllustrationPrompt:   "an apple falling from a tree",
		}
	case *domain.PhilosophyEntry:
		*v = domain.PhilosophyEntry{
			Title:               "Stoicism",
			CoreIdeaExplanation: "Focus on what you control.",
			HistoricalEpisode:   "Epictetus taught in Nicopolis.",
			ModernRelevance:     "Helps with everyday setbacks.",
			Sources:             []string{"Meditations"},
			IllustrationPrompt:  "a calm greek philosopher under an olive tree",
		}
	default:
		return fmt.Errorf("unexpected output type %T", out)
	}
	return nil
}

type stubMediaGen struct{}

func (stubMediaGen) GenerateImage(context.Context, string, provider.ImageStyle) ([]byte, error) {
	return []byte("jpeg-bytes"), nil
}

func (stubMediaGen) GenerateAudio(context.Context, string) ([]byte, error) {
	return []byte("pcm-bytes"), nil
}

// ---------------------------------------------------------------------------
// testServer wraps the full-stack HTTP server for E2E tests.
// ---------------------------------------------------------------------------

type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
	jwt    *authpkg.JWTManager
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, &slog.HandlerOptions{Level: slog.LevelWarn}))

	quotaRepo := quotapg.New(pool)
	cacheRepo := cachepg.New(pool)

	jwtManager := authpkg.NewJWTManager(testJWTSecret, testJWTIssuer)
	cacheCfg := config.CacheConfig{Version: "v2", FullHitProb: 0, DiscoveryLength: 5, MixFreshCount: 2}
	retryCfg := config.RetryConfig{MaxAttempts: 3, RateLimitBase: time.Millisecond, OverloadBase: time.Millisecond}

	contentSvc := content.NewService(
		logger,
		stubTextGen{},
		stubMediaGen{},
		stubMediaGen{},
		cachesvc.New(logger, cacheRepo, cacheCfg),
		quotasvc.NewTracker(logger, quotaRepo, config.QuotaConfig{DailyLimit: 100}),
		safety.New(logger, config.SafetyConfig{Mode: "sanitize"}),
		provider.NewRetryer(logger, retryCfg),
		cacheCfg,
		retryCfg,
	)

	router := rest.NewRouter(rest.Handlers{
		Generate: rest.NewGenerateHandler(contentSvc, logger),
		Health:   rest.NewHealthHandler(pool, "e2e"),
		Admin:    rest.NewAdminHandler(cacheRepo, quotaRepo, logger),
	})

	rateLimiter := middleware.NewRateLimiter(time.Minute)
	t.Cleanup(rateLimiter.Stop)

	handler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.CORS(config.CORSConfig{AllowedOrigins: "*", AllowedMethods: "GET,POST,OPTIONS", AllowedHeaders: "Authorization,Content-Type"}),
		rateLimiter.Limit(10000),
		middleware.Auth(jwtManager),
	)(router)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		URL:    srv.URL,
		Client: srv.Client(),
		Pool:   pool,
		jwt:    jwtManager,
	}
}

// tokenFor issues a short-lived access token for a fresh user.
func (ts *testServer) tokenFor(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token, err := ts.jwt.GenerateAccessToken(userID, role, time.Minute)
	require.NoError(t, err)
	return token
}

// restRequest performs one HTTP request against the test server.
func restRequest(t *testing.T, ts *testServer, method, path, token string, body any) *http.Response {
	t.Helper()

	var reqBody *bytes.Buffer = &bytes.Buffer{}
	if body != nil {
		require.NoError(t, json.NewEncoder(reqBody).Encode(body))
	}

	req, err := http.NewRequest(method, ts.URL+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client.Do(req)
	require.NoError(t, err)
	return resp
}

// generate performs POST /api/generate and decodes the response body.
func generate(t *testing.T, ts *testServer, token, action string, payload any) (int, json.RawMessage) {
	t.Helper()

	resp := restRequest(t, ts, http.MethodPost, "/api/generate", token, map[string]any{
		"action":  action,
		"payload": payload,
	})
	defer resp.Body.Close()

	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	return resp.StatusCode, raw
}
