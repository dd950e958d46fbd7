package handler

import (
	"net/http"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/boddenberg/saas-admin-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 1. Cadastro (wizard)
// ============================================================

func wizardStartHandler(svc *service.RegistrationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/registration")
		defer span.End()

		resp, err := svc.Start(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func wizardGetHandler(svc *service.RegistrationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/registration/{wizardId}")
		defer span.End()

		resp, err := svc.Get(ctx, chi.URLParam(r, "wizardId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func wizardResetHandler(svc *service.RegistrationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/registration/{wizardId}/reset")
		defer span.End()

		resp, err := svc.Reset(ctx, chi.URLParam(r, "wizardId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func wizardDiscardHandler(svc *service.RegistrationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/registration/{wizardId}")
		defer span.End()

		if err := svc.Discard(ctx, chi.URLParam(r, "wizardId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func wizardCompanyHandler(svc *service.RegistrationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/registration/{wizardId}/company")
		defer span.End()

		var req domain.CompanyStepInput
		if !decodeBody(w, r, &req) {
			return
		}

		resp, err := svc.SubmitCompany(ctx, chi.URLParam(r, "wizardId"), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func wizardAddressHandler(svc *service.RegistrationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/registration/{wizardId}/address")
		defer span.End()

		var req domain.Address
		if !decodeBody(w, r, &req) {
			return
		}

		resp, err := svc.SubmitAddress(ctx, chi.URLParam(r, "wizardId"), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func wizardCredentialsHandler(svc *service.RegistrationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/registration/{wizardId}/credentials")
		defer span.End()

		var req domain.CredentialsStepInput
		if !decodeBody(w, r, &req) {
			return
		}

		resp, err := svc.SubmitCredentials(ctx, chi.URLParam(r, "wizardId"), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func wizardPlansHandler(svc *service.RegistrationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/registration/{wizardId}/plans")
		defer span.End()

		plans, err := svc.LoadPlans(ctx, chi.URLParam(r, "wizardId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": plans})
	}
}

// wizardActivateHandler confirms the plan step. On success the CLIENT
// session is bound to the caller's browser session.
func wizardActivateHandler(svc *service.ActivationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/registration/{wizardId}/activate")
		defer span.End()

		var req domain.ActivationRequest
		if !decodeBody(w, r, &req) {
			return
		}
		wizardID := chi.URLParam(r, "wizardId")
		span.SetAttributes(attribute.String("wizard.id", wizardID), attribute.String("plan.id", req.PlanID))

		result, err := svc.Activate(ctx, wizardID, SessionIDFromContext(ctx), req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}
