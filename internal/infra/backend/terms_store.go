package backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
)

// ============================================================
// Terms of use (implements port.TermsStore)
// ============================================================

// GetCurrentTerms returns the current terms document, or (nil, nil) when
// the backend has none (404, 204 or a null body).
func (c *Client) GetCurrentTerms(ctx context.Context) (*domain.Terms, error) {
	var out domain.Terms
	found, err := c.get(ctx, "terms", "/terms/current", nil, &out)
	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, err
	}
	if !found || out.ID == "" {
		return nil, nil
	}
	return &out, nil
}

// AcceptTerms records that a client user accepted a terms version.
func (c *Client) AcceptTerms(ctx context.Context, req *domain.AcceptTermsRequest) (*domain.TermsAcceptance, error) {
	var out domain.TermsAcceptance
	if err := c.send(ctx, http.MethodPost, "terms", "/terms/accept", req, &out); err != nil {
		return nil, err
	}
	if out.ClientUserID == "" {
		out.ClientUserID = req.ClientUserID
		out.TermsID = req.TermsID
	}
	return &out, nil
}

// ListTerms returns a page of terms documents.
func (c *Client) ListTerms(ctx context.Context, params domain.ListParams) (*domain.ListResponse[domain.Terms], error) {
	return getList[domain.Terms](ctx, c, "terms", "/terms", listQuery(params), params)
}

// GetTerms fetches one terms document.
func (c *Client) GetTerms(ctx context.Context, termsID string) (*domain.Terms, error) {
	var out domain.Terms
	found, err := c.get(ctx, "terms", resourcePath("terms", termsID), nil, &out)
	if err != nil {
		return nil, withID(err, termsID)
	}
	if !found {
		return nil, &domain.ErrNotFound{Resource: "terms", ID: termsID}
	}
	return &out, nil
}

// CreateTerms publishes a terms document.
func (c *Client) CreateTerms(ctx context.Context, req *domain.TermsRequest) (*domain.Terms, error) {
	var out domain.Terms
	if err := c.send(ctx, http.MethodPost, "terms", "/terms", req, &out); err != nil {
		return nil, err
	}
	if err := requireID("terms", out.ID); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTerms patches a terms document.
func (c *Client) UpdateTerms(ctx context.Context, termsID string, req *domain.TermsRequest) (*domain.Terms, error) {
	var out domain.Terms
	if err := c.send(ctx, http.MethodPatch, "terms", resourcePath("terms", termsID), req, &out); err != nil {
		return nil, withID(err, termsID)
	}
	return &out, nil
}

// DeleteTerms removes a terms document.
func (c *Client) DeleteTerms(ctx context.Context, termsID string) error {
	return withID(c.send(ctx, http.MethodDelete, "terms", resourcePath("terms", termsID), nil, nil), termsID)
}
