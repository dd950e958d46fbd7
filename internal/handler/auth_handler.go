package handler

import (
	"net/http"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/boddenberg/saas-admin-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// 2. Autenticação
// ============================================================

func authLoginHandler(authSvc *service.AuthService, sc domain.SessionContext, logger *zap.Logger) http.HandlerFunc {
	route := "POST /v1/auth/" + contextSegment(sc) + "/login"
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), route)
		defer span.End()

		var req domain.LoginRequest
		if !decodeBody(w, r, &req) {
			return
		}

		resp, err := authSvc.Login(ctx, SessionIDFromContext(ctx), sc, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func authLogoutHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/{context}/logout")
		defer span.End()

		sc, ok := domain.ParseSessionContext(chi.URLParam(r, "context"))
		if !ok {
			writeError(w, http.StatusNotFound, "Contexto desconhecido")
			return
		}

		if err := authSvc.Logout(ctx, SessionIDFromContext(ctx), sc); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// authSessionHandler runs behind the gate of its context.
func authSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/auth/{context}/session")
		defer span.End()

		writeJSON(w, http.StatusOK, service.SessionResponse(SessionFromContext(r.Context())))
	}
}

func authForgotPasswordHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/password/forgot")
		defer span.End()

		var req domain.ForgotPasswordRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if err := authSvc.ForgotPassword(ctx, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusAccepted, domain.SuccessResponse{
			Message: "Se o e-mail estiver cadastrado, você receberá as instruções para redefinir sua senha",
		})
	}
}

func authResetPasswordHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/password/reset")
		defer span.End()

		var req domain.ResetPasswordRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if err := authSvc.ResetPassword(ctx, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Senha redefinida com sucesso"})
	}
}

func contextSegment(sc domain.SessionContext) string {
	if sc == domain.ContextBackoffice {
		return "backoffice"
	}
	return "client"
}
