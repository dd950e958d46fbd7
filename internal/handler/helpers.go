package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

const msgInternal = "Não foi possível concluir a operação. Tente novamente."

type errorResponse struct {
	Error       string            `json:"error"`
	Fields      map[string]string `json:"fields,omitempty"`
	Step        string            `json:"step,omitempty"`
	Compensated []string          `json:"compensated,omitempty"`
	Committed   bool              `json:"committed,omitempty"`
	RedirectTo  string            `json:"redirectTo,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeBody reads a JSON body into dst, answering 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return false
	}
	return true
}

func parseListParams(r *http.Request) domain.ListParams {
	p := domain.ListParams{Page: 1, PageSize: 20}
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}
	if v := q.Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			p.PageSize = n
		}
	}
	p.Search = strings.TrimSpace(q.Get("search"))
	return p
}

// handleServiceError maps domain errors to HTTP responses. Only a message
// crosses the boundary; raw upstream bodies never do.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var step *domain.ErrActivationStep
	var precondition *domain.ErrPrecondition
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var validation *domain.ErrValidation
	var forbidden *domain.ErrForbidden
	var unauthorized *domain.ErrUnauthorized
	var conflict *domain.ErrConflict
	var upstream *domain.ErrUpstream
	var external *domain.ErrExternalService

	switch {
	// checked first: it wraps the upstream cause
	case errors.As(err, &step):
		status := http.StatusBadGateway
		if step.Committed {
			status = http.StatusConflict
		}
		logger.Warn("activation step failed",
			zap.String("step", step.Step),
			zap.Strings("compensated", step.Compensated),
			zap.Bool("committed", step.Committed),
			zap.NamedError("compensation_error", step.CompensationErr),
			zap.Error(step.Err),
		)
		writeJSON(w, status, errorResponse{
			Error:       step.Message,
			Step:        step.Step,
			Compensated: step.Compensated,
			Committed:   step.Committed,
			RedirectTo:  step.RedirectTo,
		})
	case errors.As(err, &precondition):
		logger.Debug("precondition failed", zap.String("reason", precondition.Reason))
		writeError(w, http.StatusUnprocessableEntity, precondition.Reason)
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		resp := errorResponse{Error: "Dados inválidos", Fields: validation.Fields}
		if validation.Field != "" {
			if resp.Fields == nil {
				resp.Fields = map[string]string{}
			}
			resp.Fields[validation.Field] = validation.Message
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, "Registro não encontrado")
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, "Acesso negado")
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, conflict.Message)
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "Serviço temporariamente indisponível. Tente novamente em instantes.")
	case errors.As(err, &upstream):
		logger.Warn("upstream error", zap.String("resource", upstream.Resource), zap.Int("status", upstream.Status))
		writeError(w, upstreamStatus(upstream.Status), upstream.Message)
	case errors.As(err, &external):
		logger.Error("external service error", zap.String("service", external.Service), zap.Error(external.Err))
		writeError(w, http.StatusBadGateway, msgInternal)
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

// upstreamStatus passes client errors through and folds server errors into 502.
func upstreamStatus(status int) int {
	if status >= 400 && status < 500 {
		return status
	}
	return http.StatusBadGateway
}
