package backend

import (
	"context"
	"net/http"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
)

// CreateClientUser creates a login identity under a tenant.
func (c *Client) CreateClientUser(ctx context.Context, req *domain.CreateClientUserRequest) (*domain.ClientUser, error) {
	var out domain.ClientUser
	if err := c.send(ctx, http.MethodPost, "client-users", "/client-users", req, &out); err != nil {
		return nil, err
	}
	if err := requireID("client-users", out.ID); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateClientUser patches a login identity. The password, when set, is
// forwarded as-is and hashed by the backend.
func (c *Client) UpdateClientUser(ctx context.Context, clientUserID string, req *domain.UpdateClientUserRequest) (*domain.ClientUser, error) {
	var out domain.ClientUser
	if err := c.send(ctx, http.MethodPatch, "client-users", resourcePath("client-users", clientUserID), req, &out); err != nil {
		return nil, withID(err, clientUserID)
	}
	if out.ID == "" {
		out.ID = clientUserID
	}
	return &out, nil
}
