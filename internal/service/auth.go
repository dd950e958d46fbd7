// Package service holds the BFA use cases: the registration wizard, plan
// activation, sessions, and the client and backoffice areas.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/boddenberg/saas-admin-bfa-go/internal/port"
	"github.com/boddenberg/saas-admin-bfa-go/internal/validation"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

// AuthService logs users into a context, logs them out and drives password
// recovery. Tokens come from the backend; the BFA only stores them.
type AuthService struct {
	gateway   port.AuthGateway
	sessions  *SessionManager
	validator *validation.Validator
	logger    *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(gateway port.AuthGateway, sessions *SessionManager, v *validation.Validator, logger *zap.Logger) *AuthService {
	return &AuthService{
		gateway:   gateway,
		sessions:  sessions,
		validator: v,
		logger:    logger,
	}
}

// ============================================================
// Login / Logout
// ============================================================

// Login authenticates against the backend and stores the token in the
// slot of (sid, sc).
func (s *AuthService) Login(ctx context.Context, sid string, sc domain.SessionContext, req *domain.LoginRequest) (*domain.SessionResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()
	span.SetAttributes(attribute.String("session.context", string(sc)))

	if err := s.validator.Check(req); err != nil {
		return nil, err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	resp, err := s.gateway.Login(ctx, sc, req)
	if err != nil {
		var up *domain.ErrUpstream
		if errors.As(err, &up) && (up.Status == http.StatusBadRequest || up.Status == http.StatusUnauthorized) {
			return nil, &domain.ErrUnauthorized{Message: "Credenciais inválidas"}
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	session, err := s.sessions.Establish(ctx, sid, sc, resp.AccessToken)
	if err != nil {
		return nil, err
	}

	s.logger.Info("login succeeded",
		zap.String("context", string(sc)),
		zap.String("sub", session.Claims.Sub),
	)
	return SessionResponse(session), nil
}

// Logout clears the slot of (sid, sc) only.
func (s *AuthService) Logout(ctx context.Context, sid string, sc domain.SessionContext) error {
	return s.sessions.Clear(ctx, sid, sc)
}

// ============================================================
// Password recovery
// ============================================================

// ForgotPassword forwards a recovery request. Apart from validation errors
// it always succeeds, so callers cannot probe which emails exist.
func (s *AuthService) ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest) error {
	ctx, span := authTracer.Start(ctx, "AuthService.ForgotPassword")
	defer span.End()

	if err := s.validator.Check(req); err != nil {
		return err
	}
	if req.Context == "" {
		req.Context = domain.ContextClient
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.gateway.ForgotPassword(ctx, req); err != nil {
		s.logger.Warn("forgot-password request not accepted by backend",
			zap.String("context", string(req.Context)),
			zap.Error(err),
		)
	}
	return nil
}

// ResetPassword sets a new password from a recovery token.
func (s *AuthService) ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) error {
	ctx, span := authTracer.Start(ctx, "AuthService.ResetPassword")
	defer span.End()

	if err := s.validator.Check(req); err != nil {
		return err
	}
	if err := s.gateway.ResetPassword(ctx, req); err != nil {
		var up *domain.ErrUpstream
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) || (errors.As(err, &up) && (up.Status == http.StatusBadRequest || up.Status == http.StatusUnauthorized)) {
			return &domain.ErrValidation{Field: "token", Message: "Link de redefinição inválido ou expirado"}
		}
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}
