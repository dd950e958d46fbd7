package domain

import (
	"strings"
	"time"
)

// ============================================================
// Sessions: one typed record per tenancy context
// ============================================================

// SessionContext is the tenancy partition of a session.
type SessionContext string

const (
	ContextClient     SessionContext = "CLIENT"
	ContextBackoffice SessionContext = "BACKOFFICE"
)

// ParseSessionContext accepts "client"/"backoffice" in any case.
func ParseSessionContext(s string) (SessionContext, bool) {
	switch SessionContext(strings.ToUpper(s)) {
	case ContextClient:
		return ContextClient, true
	case ContextBackoffice:
		return ContextBackoffice, true
	}
	return "", false
}

// Claims is the decoded JWT payload issued by the backend.
type Claims struct {
	Sub      string         `json:"sub"`
	Email    string         `json:"email"`
	Role     string         `json:"role"`
	CpfCnpj  string         `json:"cpfCnpj"`
	Name     string         `json:"name"`
	Context  SessionContext `json:"context"`
	ClientID string         `json:"clientId,omitempty"`
	Exp      int64          `json:"exp"`
}

// ExpiresAt converts the exp claim (seconds since epoch) to a time.
func (c Claims) ExpiresAt() time.Time {
	return time.Unix(c.Exp, 0)
}

// Expired reports whether the claims are no longer valid at now.
func (c Claims) Expired(now time.Time) bool {
	return c.Exp <= now.Unix()
}

// Session is the in-memory view of an authenticated context.
type Session struct {
	Context SessionContext `json:"context"`
	Token   string         `json:"-"`
	Claims  Claims         `json:"claims"`
}

// LoginRequest is the body for POST /auth/login-client and /auth/login-backoffice.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the backend answer to a login.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

// SessionResponse is returned by the BFA after login or session checks.
type SessionResponse struct {
	Context   SessionContext `json:"context"`
	Claims    Claims         `json:"claims"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// ForgotPasswordRequest is the body for POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email   string         `json:"email" validate:"required,email"`
	Context SessionContext `json:"context" validate:"omitempty,oneof=CLIENT BACKOFFICE"`
}

// ResetPasswordRequest is the body for POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token                string `json:"token" validate:"required"`
	Password             string `json:"password" validate:"required,min=8"`
	PasswordConfirmation string `json:"passwordConfirmation,omitempty" validate:"required,eqfield=Password"`
}
