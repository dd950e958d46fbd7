package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/samber/lo"
)

// ============================================================
// Plans (implements port.PlanStore)
// ============================================================

// ListActivePlans returns every plan offered during registration.
func (c *Client) ListActivePlans(ctx context.Context) ([]domain.Plan, error) {
	params := domain.ListParams{Page: 1, PageSize: 100}
	query := url.Values{"isActive": []string{"true"}}

	list, err := getList[domain.Plan](ctx, c, "plans", "/plans", query, params)
	if err != nil {
		return nil, err
	}
	return lo.Filter(list.Data, func(p domain.Plan, _ int) bool { return p.IsActive }), nil
}

// ListPlans returns a page of plans for the backoffice.
func (c *Client) ListPlans(ctx context.Context, params domain.ListParams) (*domain.ListResponse[domain.Plan], error) {
	return getList[domain.Plan](ctx, c, "plans", "/plans", listQuery(params), params)
}

// GetPlan fetches a single plan.
func (c *Client) GetPlan(ctx context.Context, planID string) (*domain.Plan, error) {
	var out domain.Plan
	found, err := c.get(ctx, "plans", resourcePath("plans", planID), nil, &out)
	if err != nil {
		return nil, withID(err, planID)
	}
	if !found {
		return nil, &domain.ErrNotFound{Resource: "plans", ID: planID}
	}
	return &out, nil
}

// CreatePlan creates a plan.
func (c *Client) CreatePlan(ctx context.Context, req *domain.PlanRequest) (*domain.Plan, error) {
	var out domain.Plan
	if err := c.send(ctx, http.MethodPost, "plans", "/plans", req, &out); err != nil {
		return nil, err
	}
	if err := requireID("plans", out.ID); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePlan patches a plan.
func (c *Client) UpdatePlan(ctx context.Context, planID string, req *domain.PlanRequest) (*domain.Plan, error) {
	var out domain.Plan
	if err := c.send(ctx, http.MethodPatch, "plans", resourcePath("plans", planID), req, &out); err != nil {
		return nil, withID(err, planID)
	}
	return &out, nil
}

// DeletePlan removes a plan.
func (c *Client) DeletePlan(ctx context.Context, planID string) error {
	return withID(c.send(ctx, http.MethodDelete, "plans", resourcePath("plans", planID), nil, nil), planID)
}
