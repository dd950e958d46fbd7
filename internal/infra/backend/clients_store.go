package backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ============================================================
// Clients (implements port.ClientStore)
// ============================================================

// CreateClient registers a new tenant.
func (c *Client) CreateClient(ctx context.Context, req *domain.CreateClientRequest) (*domain.Client, error) {
	var out domain.Client
	if err := c.send(ctx, http.MethodPost, "clients", "/clients", req, &out); err != nil {
		return nil, err
	}
	if err := requireID("clients", out.ID); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateClient patches a tenant. Empty request fields are left untouched.
func (c *Client) UpdateClient(ctx context.Context, clientID string, req *domain.UpdateClientRequest) (*domain.Client, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("client.id", clientID))

	var out domain.Client
	if err := c.send(ctx, http.MethodPatch, "clients", resourcePath("clients", clientID), req, &out); err != nil {
		return nil, withID(err, clientID)
	}
	if out.ID == "" {
		out.ID = clientID
	}
	return &out, nil
}

// GetClient fetches one tenant.
func (c *Client) GetClient(ctx context.Context, clientID string) (*domain.Client, error) {
	var out domain.Client
	found, err := c.get(ctx, "clients", resourcePath("clients", clientID), nil, &out)
	if err != nil {
		return nil, withID(err, clientID)
	}
	if !found {
		return nil, &domain.ErrNotFound{Resource: "clients", ID: clientID}
	}
	return &out, nil
}

// ListClients returns a page of tenants.
func (c *Client) ListClients(ctx context.Context, params domain.ListParams) (*domain.ListResponse[domain.Client], error) {
	return getList[domain.Client](ctx, c, "clients", "/clients", listQuery(params), params)
}

// DeleteClient removes a tenant.
func (c *Client) DeleteClient(ctx context.Context, clientID string) error {
	return withID(c.send(ctx, http.MethodDelete, "clients", resourcePath("clients", clientID), nil, nil), clientID)
}

// withID fills the id of a not-found error raised for a single resource.
func withID(err error, id string) error {
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) && nf.ID == "" {
		nf.ID = id
	}
	return err
}

// requireID rejects a create answer that did not identify the new record.
// Children must never be attached to an unknown parent.
func requireID(resource, id string) error {
	if id != "" {
		return nil
	}
	return &domain.ErrExternalService{
		Service: serviceName + "/" + resource,
		Err:     errors.New("created resource carried no id"),
	}
}
