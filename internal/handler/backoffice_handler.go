package handler

import (
	"context"
	"net/http"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/boddenberg/saas-admin-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 4. Backoffice CRUD
// ============================================================

func mountBackoffice(r chi.Router, svc *service.BackofficeService, logger *zap.Logger) {
	r.Route("/clients", func(r chi.Router) {
		r.Get("/", listHandler("GET /v1/backoffice/clients", svc.ListClients, logger))
		r.Get("/{id}", getHandler("GET /v1/backoffice/clients/{id}", svc.GetClient, logger))
		r.Patch("/{id}", updateHandler("PATCH /v1/backoffice/clients/{id}", svc.UpdateClient, logger))
		r.Delete("/{id}", deleteHandler("DELETE /v1/backoffice/clients/{id}", svc.DeleteClient, logger))
	})
	r.Route("/plans", func(r chi.Router) {
		r.Get("/", listHandler("GET /v1/backoffice/plans", svc.ListPlans, logger))
		r.Post("/", createHandler("POST /v1/backoffice/plans", svc.CreatePlan, logger))
		r.Get("/{id}", getHandler("GET /v1/backoffice/plans/{id}", svc.GetPlan, logger))
		r.Patch("/{id}", updateHandler("PATCH /v1/backoffice/plans/{id}", svc.UpdatePlan, logger))
		r.Delete("/{id}", deleteHandler("DELETE /v1/backoffice/plans/{id}", svc.DeletePlan, logger))
	})
	r.Route("/terms", func(r chi.Router) {
		r.Get("/", listHandler("GET /v1/backoffice/terms", svc.ListTerms, logger))
		r.Post("/", createHandler("POST /v1/backoffice/terms", svc.CreateTerms, logger))
		r.Get("/{id}", getHandler("GET /v1/backoffice/terms/{id}", svc.GetTerms, logger))
		r.Patch("/{id}", updateHandler("PATCH /v1/backoffice/terms/{id}", svc.UpdateTerms, logger))
		r.Delete("/{id}", deleteHandler("DELETE /v1/backoffice/terms/{id}", svc.DeleteTerms, logger))
	})
	r.Route("/users", func(r chi.Router) {
		r.Get("/", listHandler("GET /v1/backoffice/users", svc.ListUsers, logger))
		r.Post("/", createHandler("POST /v1/backoffice/users", svc.CreateUser, logger))
		r.Get("/{id}", getHandler("GET /v1/backoffice/users/{id}", svc.GetUser, logger))
		r.Patch("/{id}", updateHandler("PATCH /v1/backoffice/users/{id}", svc.UpdateUser, logger))
		r.Delete("/{id}", deleteHandler("DELETE /v1/backoffice/users/{id}", svc.DeleteUser, logger))
	})
}

func listHandler[T any](route string, list func(context.Context, domain.ListParams) (*domain.ListResponse[T], error), logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), route)
		defer span.End()

		params := parseListParams(r)
		span.SetAttributes(attribute.Int("page", params.Page), attribute.Int("page_size", params.PageSize))

		resp, err := list(ctx, params)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getHandler[T any](route string, get func(context.Context, string) (*T, error), logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), route)
		defer span.End()

		item, err := get(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func createHandler[Req, T any](route string, create func(context.Context, *Req) (*T, error), logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), route)
		defer span.End()

		var req Req
		if !decodeBody(w, r, &req) {
			return
		}

		item, err := create(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

func updateHandler[Req, T any](route string, update func(context.Context, string, *Req) (*T, error), logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), route)
		defer span.End()

		var req Req
		if !decodeBody(w, r, &req) {
			return
		}

		item, err := update(ctx, chi.URLParam(r, "id"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func deleteHandler(route string, del func(context.Context, string) error, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), route)
		defer span.End()

		if err := del(ctx, chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
