package handler

import (
	"net/http"

	"github.com/boddenberg/saas-admin-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// 3. Área do cliente
// ============================================================

func clientMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/client/me")
		defer span.End()

		writeJSON(w, http.StatusOK, SessionFromContext(r.Context()).Claims)
	}
}

func clientSubscriptionHandler(svc *service.ClientAreaService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/client/subscription")
		defer span.End()

		sub, err := svc.Subscription(ctx, SessionFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}
