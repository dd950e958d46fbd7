package backend

import (
	"context"
	"net/http"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
)

// ListUsers returns a page of backoffice operators.
func (c *Client) ListUsers(ctx context.Context, params domain.ListParams) (*domain.ListResponse[domain.User], error) {
	return getList[domain.User](ctx, c, "users", "/users", listQuery(params), params)
}

func (c *Client) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var out domain.User
	found, err := c.get(ctx, "users", resourcePath("users", userID), nil, &out)
	if err != nil {
		return nil, withID(err, userID)
	}
	if !found {
		return nil, &domain.ErrNotFound{Resource: "users", ID: userID}
	}
	return &out, nil
}

func (c *Client) CreateUser(ctx context.Context, req *domain.UserRequest) (*domain.User, error) {
	var out domain.User
	if err := c.send(ctx, http.MethodPost, "users", "/users", req, &out); err != nil {
		return nil, err
	}
	if err := requireID("users", out.ID); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, userID string, req *domain.UserRequest) (*domain.User, error) {
	var out domain.User
	if err := c.send(ctx, http.MethodPatch, "users", resourcePath("users", userID), req, &out); err != nil {
		return nil, withID(err, userID)
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return withID(c.send(ctx, http.MethodDelete, "users", resourcePath("users", userID), nil, nil), userID)
}
