package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/boddenberg/saas-admin-bfa-go/internal/service"
	"github.com/boddenberg/saas-admin-bfa-go/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBackoffice(be *fakeBackend) *service.BackofficeService {
	return service.NewBackofficeService(be, be, be, be, validation.New(), zap.NewNop())
}

func TestBackoffice_CreatePlanValidates(t *testing.T) {
	be := newFakeBackend()
	svc := newBackoffice(be)
	ctx := context.Background()

	_, err := svc.CreatePlan(ctx, &domain.PlanRequest{Name: "Pro"})
	var verr *domain.ErrValidation
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "price")
	assert.Contains(t, verr.Fields, "durationDays")

	neg := decimal.NewFromInt(-1)
	_, err = svc.CreatePlan(ctx, &domain.PlanRequest{Name: "Pro", Price: &neg, DurationDays: 30})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "price", verr.Field)
	assert.Empty(t, be.Calls())

	price := decimal.RequireFromString("149.90")
	plan, err := svc.CreatePlan(ctx, &domain.PlanRequest{Name: "Pro", Price: &price, DurationDays: 30})
	require.NoError(t, err)
	assert.NotEmpty(t, plan.ID)
}

func TestBackoffice_PatchAllowsPartialBodies(t *testing.T) {
	be := newFakeBackend()
	svc := newBackoffice(be)
	active := false

	_, err := svc.UpdatePlan(context.Background(), "p1", &domain.PlanRequest{IsActive: &active})
	require.NoError(t, err)

	_, err = svc.UpdateUser(context.Background(), "u1", &domain.UserRequest{Role: "Financial"})
	require.NoError(t, err)

	_, err = svc.UpdateUser(context.Background(), "u1", &domain.UserRequest{Role: "Root"})
	var verr *domain.ErrValidation
	assert.True(t, errors.As(err, &verr))

	assert.Equal(t, []string{"UpdatePlan", "UpdateUser"}, be.Calls())
}

func TestBackoffice_UpdateClientNormalisesDocuments(t *testing.T) {
	be := newFakeBackend()
	svc := newBackoffice(be)

	_, err := svc.UpdateClient(context.Background(), "c1", &domain.UpdateClientRequest{CpfCnpj: "111"})
	var verr *domain.ErrValidation
	require.True(t, errors.As(err, &verr))

	req := &domain.UpdateClientRequest{CpfCnpj: "11.222.333/0001-81", Status: domain.ClientStatusApproved}
	_, err = svc.UpdateClient(context.Background(), "c1", req)
	require.NoError(t, err)
	assert.Equal(t, "11222333000181", req.CpfCnpj)
}

func TestBackoffice_ListClampsPaging(t *testing.T) {
	be := newFakeBackend()
	svc := newBackoffice(be)

	list, err := svc.ListClients(context.Background(), domain.ListParams{Page: 0, PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 100, list.PageSize)
}

func TestClientArea_Subscription(t *testing.T) {
	be := newFakeBackend()
	svc := service.NewClientAreaService(be, be, be, zap.NewNop())

	sub, err := svc.Subscription(context.Background(), &domain.Session{Claims: domain.Claims{ClientID: "client-1"}})
	require.NoError(t, err)
	require.NotNil(t, sub.Plan)
	assert.Equal(t, "p2", sub.Plan.ID)
	require.NotNil(t, sub.CurrentPeriod)
	assert.Equal(t, "now", sub.CurrentPeriod.ID)
	assert.Len(t, sub.Periods, 2)

	_, err = svc.Subscription(context.Background(), &domain.Session{})
	var forbidden *domain.ErrForbidden
	assert.True(t, errors.As(err, &forbidden))
}
