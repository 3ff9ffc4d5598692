// Package app wires configuration, storage, services, and transport into a
// runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lumina-labs/lumina-backend/internal/adapter/postgres"
	cachepg "github.com/lumina-labs/lumina-backend/internal/adapter/postgres/cache"
	quotapg "github.com/lumina-labs/lumina-backend/internal/adapter/postgres/quota"
	"github.com/lumina-labs/lumina-backend/internal/adapter/provider/anthropic"
	"github.com/lumina-labs/lumina-backend/internal/adapter/provider/gemini"
	"github.com/lumina-labs/lumina-backend/internal/auth"
	"github.com/lumina-labs/lumina-backend/internal/config"
	"github.com/lumina-labs/lumina-backend/internal/provider"
	cachesvc "github.com/lumina-labs/lumina-backend/internal/service/cache"
	"github.com/lumina-labs/lumina-backend/internal/service/content"
	quotasvc "github.com/lumina-labs/lumina-backend/internal/service/quota"
	"github.com/lumina-labs/lumina-backend/internal/service/safety"
	"github.com/lumina-labs/lumina-backend/internal/transport/middleware"
	"github.com/lumina-labs/lumina-backend/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, connects to
// the database, wires services and transport, and serves until ctx is
// cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("safety_mode", cfg.Safety.Mode),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.MigrateOnStart {
		if err := migrate(ctx, cfg.Database, logger); err != nil {
			return err
		}
	}

	quotaRepo := quotapg.New(pool)
	cacheRepo := cachepg.New(pool)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	quotaTracker := quotasvc.NewTracker(logger, quotaRepo, cfg.Quota)
	safetyFilter := safety.New(logger, cfg.Safety)
	contentCache := cachesvc.New(logger, cacheRepo, cfg.Cache)
	retryer := provider.NewRetryer(logger, cfg.Retry)
	textGen := anthropic.New(cfg.Provider, logger)
	mediaGen := gemini.New(cfg.Provider, logger)

	contentSvc := content.NewService(
		logger,
		textGen,
		mediaGen,
		mediaGen,
		contentCache,
		quotaTracker,
		safetyFilter,
		retryer,
		cfg.Cache,
		cfg.Retry,
	)

	router := rest.NewRouter(rest.Handlers{
		Generate: rest.NewGenerateHandler(contentSvc, logger),
		Health:   rest.NewHealthHandler(pool, BuildVersion()),
		Admin:    rest.NewAdminHandler(cacheRepo, quotaRepo, logger),
	})

	rateLimiter := middleware.NewRateLimiter(time.Minute)
	defer rateLimiter.Stop()

	handler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
		rateLimiter.Limit(cfg.Server.RateLimitPerMin),
		middleware.Auth(jwtManager),
	)(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("http server listening", slog.String("addr", srv.Addr))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
