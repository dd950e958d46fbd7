package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/samber/lo"
)

// ============================================================
// Client plans and billing periods
// (implements port.ClientPlanStore and port.ClientPeriodPlanStore)
// ============================================================

// CreateClientPlan subscribes a client to a plan.
func (c *Client) CreateClientPlan(ctx context.Context, req *domain.CreateClientPlanRequest) (*domain.ClientPlan, error) {
	var out domain.ClientPlan
	if err := c.send(ctx, http.MethodPost, "client-plans", "/client-plans", req, &out); err != nil {
		return nil, err
	}
	if err := requireID("client-plans", out.ID); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteClientPlan removes a subscription. Used to undo a failed activation.
func (c *Client) DeleteClientPlan(ctx context.Context, clientPlanID string) error {
	return withID(c.send(ctx, http.MethodDelete, "client-plans", resourcePath("client-plans", clientPlanID), nil, nil), clientPlanID)
}

// GetCurrentClientPlan returns the subscription flagged current for a client.
func (c *Client) GetCurrentClientPlan(ctx context.Context, clientID string) (*domain.ClientPlan, error) {
	query := url.Values{}
	query.Set("clientId", clientID)
	query.Set("current", "true")

	list, err := getList[domain.ClientPlan](ctx, c, "client-plans", "/client-plans", query, domain.ListParams{})
	if err != nil {
		return nil, err
	}
	current, ok := lo.Find(list.Data, func(cp domain.ClientPlan) bool {
		return cp.Current && cp.ClientID == clientID
	})
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "client-plans", ID: clientID}
	}
	return &current, nil
}

// CreateClientPeriodPlan opens a billing period under a subscription.
func (c *Client) CreateClientPeriodPlan(ctx context.Context, req *domain.CreateClientPeriodPlanRequest) (*domain.ClientPeriodPlan, error) {
	var out domain.ClientPeriodPlan
	if err := c.send(ctx, http.MethodPost, "client-period-plans", "/client-period-plans", req, &out); err != nil {
		return nil, err
	}
	if err := requireID("client-period-plans", out.ID); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteClientPeriodPlan removes a billing period.
func (c *Client) DeleteClientPeriodPlan(ctx context.Context, periodID string) error {
	return withID(c.send(ctx, http.MethodDelete, "client-period-plans", resourcePath("client-period-plans", periodID), nil, nil), periodID)
}

// ListClientPeriodPlans returns every period of a subscription.
func (c *Client) ListClientPeriodPlans(ctx context.Context, clientPlanID string) ([]domain.ClientPeriodPlan, error) {
	query := url.Values{}
	query.Set("clientPlanId", clientPlanID)

	list, err := getList[domain.ClientPeriodPlan](ctx, c, "client-period-plans", "/client-period-plans", query, domain.ListParams{})
	if err != nil {
		return nil, err
	}
	return list.Data, nil
}
