package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/boddenberg/saas-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/saas-admin-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Upstream exposes the backend breaker to the health check.
type Upstream interface {
	BreakerState() gobreaker.State
}

// Deps are the services and settings the router serves.
type Deps struct {
	Registration *service.RegistrationService
	Activation   *service.ActivationService
	Auth         *service.AuthService
	Sessions     *service.SessionManager
	ClientArea   *service.ClientAreaService
	Backoffice   *service.BackofficeService
	Upstream     Upstream
	Metrics      *observability.Metrics

	AllowedOrigins      []string
	CookieSecure        bool
	ClientLoginPath     string
	BackofficeLoginPath string
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d Deps, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", SessionHeader, "X-Request-Id"},
		ExposedHeaders:   []string{"Location", SessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	var store pinger
	if d.Sessions != nil {
		store = d.Sessions
	}
	r.Get("/healthz", healthzHandler(d.Upstream, store, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(SessionIDMiddleware(d.CookieSecure))

		r.Get("/metrics/activation", activationMetricsHandler(d.Metrics))

		clientGate := SessionGate(d.Sessions, domain.ContextClient, d.ClientLoginPath, logger)
		backofficeGate := SessionGate(d.Sessions, domain.ContextBackoffice, d.BackofficeLoginPath, logger)

		// =============================================
		// 1. Cadastro
		// =============================================
		r.Route("/registration", func(r chi.Router) {
			r.Post("/", wizardStartHandler(d.Registration, logger))
			r.Route("/{wizardId}", func(r chi.Router) {
				r.Get("/", wizardGetHandler(d.Registration, logger))
				r.Delete("/", wizardDiscardHandler(d.Registration, logger))
				r.Post("/reset", wizardResetHandler(d.Registration, logger))
				r.Post("/company", wizardCompanyHandler(d.Registration, logger))
				r.Post("/address", wizardAddressHandler(d.Registration, logger))
				r.Post("/credentials", wizardCredentialsHandler(d.Registration, logger))
				r.Get("/plans", wizardPlansHandler(d.Registration, logger))
				r.Post("/activate", wizardActivateHandler(d.Activation, logger))
			})
		})

		// =============================================
		// 2. Autenticação
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/client/login", authLoginHandler(d.Auth, domain.ContextClient, logger))
			r.Post("/backoffice/login", authLoginHandler(d.Auth, domain.ContextBackoffice, logger))
			r.Post("/{context}/logout", authLogoutHandler(d.Auth, logger))
			r.With(clientGate).Get("/client/session", authSessionHandler())
			r.With(backofficeGate).Get("/backoffice/session", authSessionHandler())
			r.Post("/password/forgot", authForgotPasswordHandler(d.Auth, logger))
			r.Post("/password/reset", authResetPasswordHandler(d.Auth, logger))
		})

		// =============================================
		// 3. Área do cliente
		// =============================================
		r.Route("/client", func(r chi.Router) {
			r.Use(clientGate)
			r.Get("/me", clientMeHandler())
			r.Get("/subscription", clientSubscriptionHandler(d.ClientArea, logger))
		})

		// =============================================
		// 4. Backoffice
		// =============================================
		r.Route("/backoffice", func(r chi.Router) {
			r.Use(backofficeGate)
			mountBackoffice(r, d.Backoffice, logger)
		})
	})

	return r
}

// ============================================================
// Operational handlers
// ============================================================

type pinger interface {
	Ping(ctx context.Context) error
}

func healthzHandler(upstream Upstream, store pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)
		services := []domain.ServiceHealth{
			{Name: "bfa-api", Status: "healthy", LastChecked: now},
		}

		if upstream != nil {
			status := "healthy"
			switch upstream.BreakerState() {
			case gobreaker.StateOpen:
				status = "unhealthy"
			case gobreaker.StateHalfOpen:
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{Name: "backend-api", Status: status, LastChecked: now})
		}

		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			start := time.Now()
			err := store.Ping(ctx)
			cancel()
			status := "healthy"
			if err != nil {
				logger.Warn("session store ping failed", zap.Error(err))
				status = "unhealthy"
			}
			services = append(services, domain.ServiceHealth{
				Name: "session-store", Status: status,
				LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overall = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overall = "degraded"
			}
		}

		code := http.StatusOK
		if overall == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func activationMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetActivationSnapshot())
	}
}
