package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/saas-admin-bfa-go/internal/config"
	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/boddenberg/saas-admin-bfa-go/internal/handler"
	"github.com/boddenberg/saas-admin-bfa-go/internal/infra/backend"
	"github.com/boddenberg/saas-admin-bfa-go/internal/infra/cache"
	"github.com/boddenberg/saas-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/saas-admin-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/saas-admin-bfa-go/internal/infra/sessionstore"
	"github.com/boddenberg/saas-admin-bfa-go/internal/port"
	"github.com/boddenberg/saas-admin-bfa-go/internal/service"
	"github.com/boddenberg/saas-admin-bfa-go/internal/validation"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const serviceName = "saas-admin-bfa"

func main() {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel, serviceName)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("backend_api_url", cfg.BackendAPIURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("wizard_ttl", cfg.WizardTTL),
		zap.String("session_store", cfg.SessionStore),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Bool("jwt_verification", cfg.JWTSecret != ""),
	)
	if cfg.SessionSecret == "" {
		logger.Warn("SESSION_SECRET not set: sealed sessions will not survive a restart")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, serviceName)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("backend-api", resilience.BreakerOptions{
		IsSuccessful: backend.IsBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.SetBreakerState(name, int(to))
		},
	})

	// --- Backend client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	api := backend.NewClient(httpClient, cfg.BackendAPIURL, cb, resilienceCfg, metrics, logger)

	// --- Session slots ---
	sealer, err := sessionstore.NewSealer(cfg.SessionSecret)
	if err != nil {
		logger.Fatal("failed to init session sealer", zap.Error(err))
	}
	slots, closeSlots, err := newTokenStore(cfg, sealer, logger)
	if err != nil {
		logger.Fatal("failed to init session store", zap.Error(err))
	}
	defer closeSlots()

	// --- Services ---
	v := validation.New()
	drafts := cache.New[domain.RegistrationDraft](cfg.WizardTTL)

	sessions := service.NewSessionManager(slots, cfg.JWTSecret, cfg.SessionTTL, metrics, logger)
	registration := service.NewRegistrationService(drafts, api, api, api, v, logger)
	activation := service.NewActivationService(
		registration,
		service.ActivationStores{
			Clients:     api,
			ClientUsers: api,
			Terms:       api,
			ClientPlans: api,
			Periods:     api,
			Auth:        api,
		},
		sessions,
		service.ActivationPaths{Dashboard: cfg.ClientDashboardPath, ClientLogin: cfg.ClientLoginPath},
		metrics,
		logger,
	)
	authSvc := service.NewAuthService(api, sessions, v, logger)
	clientArea := service.NewClientAreaService(api, api, api, logger)
	backoffice := service.NewBackofficeService(api, api, api, api, v, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Registration:        registration,
		Activation:          activation,
		Auth:                authSvc,
		Sessions:            sessions,
		ClientArea:          clientArea,
		Backoffice:          backoffice,
		Upstream:            api,
		Metrics:             metrics,
		AllowedOrigins:      cfg.CORSAllowedOrigins,
		CookieSecure:        cfg.CookieSecure,
		ClientLoginPath:     cfg.ClientLoginPath,
		BackofficeLoginPath: cfg.BackofficeLoginPath,
	}, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// newTokenStore picks the session slot backend. The returned func releases it.
func newTokenStore(cfg *config.Config, sealer *sessionstore.Sealer, logger *zap.Logger) (port.TokenStore, func(), error) {
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		store, err := sessionstore.NewRedis(ctx, sessionstore.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Timeout:  cfg.HTTPTimeout,
		}, sealer, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("session slots stored in redis", zap.String("addr", cfg.RedisAddr))
		return store, func() { _ = store.Close() }, nil
	case config.SessionStoreMemory:
		logger.Info("session slots stored in memory")
		return sessionstore.NewMemory(cfg.SessionTTL, sealer), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}
}
