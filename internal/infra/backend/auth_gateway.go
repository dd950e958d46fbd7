package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
)

// ============================================================
// Auth (implements port.AuthGateway)
// ============================================================

var loginPaths = map[domain.SessionContext]string{
	domain.ContextClient:     "/auth/login-client",
	domain.ContextBackoffice: "/auth/login-backoffice",
}

// tokenPayload accepts the token under the names the backend has used.
type tokenPayload struct {
	AccessToken      string `json:"accessToken"`
	AccessTokenSnake string `json:"access_token"`
	Token            string `json:"token"`
}

func (p tokenPayload) value() string {
	switch {
	case p.AccessToken != "":
		return p.AccessToken
	case p.AccessTokenSnake != "":
		return p.AccessTokenSnake
	}
	return p.Token
}

// Login exchanges credentials for a bearer token of the given context.
func (c *Client) Login(ctx context.Context, sessionCtx domain.SessionContext, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	path, ok := loginPaths[sessionCtx]
	if !ok {
		return nil, fmt.Errorf("unknown session context %q", sessionCtx)
	}

	var out tokenPayload
	if err := c.send(ctx, http.MethodPost, "auth", path, req, &out); err != nil {
		return nil, err
	}
	token := out.value()
	if token == "" {
		return nil, &domain.ErrExternalService{
			Service: serviceName + "/auth",
			Err:     errors.New("login answer carried no token"),
		}
	}
	return &domain.LoginResponse{AccessToken: token}, nil
}

// ForgotPassword asks the backend to send a recovery email.
func (c *Client) ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest) error {
	return c.send(ctx, http.MethodPost, "auth", "/auth/forgot-password", req, nil)
}

// ResetPassword sets a new password from a recovery token.
func (c *Client) ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) error {
	return c.send(ctx, http.MethodPost, "auth", "/auth/reset-password", req, nil)
}
