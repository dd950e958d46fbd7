package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_LoginStoresSessionInContextSlot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.backend.token = signToken(t, "", domain.ContextBackoffice, fixedNow.Add(time.Hour))

	resp, err := h.auth.Login(ctx, "sid", domain.ContextBackoffice, &domain.LoginRequest{Email: "Admin@Acme.com", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, domain.ContextBackoffice, resp.Context)

	_, err = h.sessions.Load(ctx, "sid", domain.ContextBackoffice)
	assert.NoError(t, err)
	_, err = h.sessions.Load(ctx, "sid", domain.ContextClient)
	assert.True(t, isUnauthorized(err))
}

func TestAuth_LoginRejectsTokenOfOtherContext(t *testing.T) {
	h := newHarness(t)
	// the harness token carries context CLIENT
	_, err := h.auth.Login(context.Background(), "sid", domain.ContextBackoffice, &domain.LoginRequest{Email: "a@b.com", Password: "x"})
	assert.True(t, isUnauthorized(err))
}

func TestAuth_LoginInvalidCredentials(t *testing.T) {
	h := newHarness(t)
	h.backend.failAt["Login"] = &domain.ErrUpstream{Status: 401, Message: "Credenciais inválidas"}

	_, err := h.auth.Login(context.Background(), "sid", domain.ContextClient, &domain.LoginRequest{Email: "a@b.com", Password: "bad"})
	require.True(t, isUnauthorized(err))
	assert.Equal(t, "Credenciais inválidas", err.Error())
}

func TestAuth_LoginValidatesBeforeCalling(t *testing.T) {
	h := newHarness(t)
	_, err := h.auth.Login(context.Background(), "sid", domain.ContextClient, &domain.LoginRequest{Email: "nope"})

	var verr *domain.ErrValidation
	assert.True(t, errors.As(err, &verr))
	assert.Empty(t, h.backend.Calls())
}

func TestAuth_LogoutClearsOnlyOneContext(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.sessions.Establish(ctx, "sid", domain.ContextClient, signToken(t, "", domain.ContextClient, fixedNow.Add(time.Hour)))
	require.NoError(t, err)
	_, err = h.sessions.Establish(ctx, "sid", domain.ContextBackoffice, signToken(t, "", domain.ContextBackoffice, fixedNow.Add(time.Hour)))
	require.NoError(t, err)

	require.NoError(t, h.auth.Logout(ctx, "sid", domain.ContextBackoffice))

	_, err = h.sessions.Load(ctx, "sid", domain.ContextClient)
	assert.NoError(t, err)
	_, err = h.sessions.Load(ctx, "sid", domain.ContextBackoffice)
	assert.Error(t, err)
}

func TestAuth_ForgotPasswordNeverLeaks(t *testing.T) {
	h := newHarness(t)
	h.backend.failAt["ForgotPassword"] = &domain.ErrUpstream{Status: 404, Message: "not found"}

	err := h.auth.ForgotPassword(context.Background(), &domain.ForgotPasswordRequest{Email: "ghost@acme.com"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"ForgotPassword"}, h.backend.Calls())

	err = h.auth.ForgotPassword(context.Background(), &domain.ForgotPasswordRequest{Email: "bad"})
	var verr *domain.ErrValidation
	assert.True(t, errors.As(err, &verr))
}

func TestAuth_ResetPassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.auth.ResetPassword(ctx, &domain.ResetPasswordRequest{Token: "t", Password: "newpass123", PasswordConfirmation: "different"})
	var verr *domain.ErrValidation
	require.True(t, errors.As(err, &verr))
	assert.Empty(t, h.backend.Calls())

	h.backend.failAt["ResetPassword"] = &domain.ErrUpstream{Status: 400, Message: "token expired"}
	err = h.auth.ResetPassword(ctx, &domain.ResetPasswordRequest{Token: "t", Password: "newpass123", PasswordConfirmation: "newpass123"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "token", verr.Field)

	delete(h.backend.failAt, "ResetPassword")
	assert.NoError(t, h.auth.ResetPassword(ctx, &domain.ResetPasswordRequest{Token: "t", Password: "newpass123", PasswordConfirmation: "newpass123"}))
}
