// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
)

// ClientStore manages tenant records in the backend.
type ClientStore interface {
	CreateClient(ctx context.Context, req *domain.CreateClientRequest) (*domain.Client, error)
	UpdateClient(ctx context.Context, clientID string, req *domain.UpdateClientRequest) (*domain.Client, error)
	GetClient(ctx context.Context, clientID string) (*domain.Client, error)
	ListClients(ctx context.Context, params domain.ListParams) (*domain.ListResponse[domain.Client], error)
	DeleteClient(ctx context.Context, clientID string) error
}

// ClientUserStore manages login identities of a tenant.
type ClientUserStore interface {
	CreateClientUser(ctx context.Context, req *domain.CreateClientUserRequest) (*domain.ClientUser, error)
	UpdateClientUser(ctx context.Context, clientUserID string, req *domain.UpdateClientUserRequest) (*domain.ClientUser, error)
}

// PlanStore manages subscription tiers.
type PlanStore interface {
	ListActivePlans(ctx context.Context) ([]domain.Plan, error)
	ListPlans(ctx context.Context, params domain.ListParams) (*domain.ListResponse[domain.Plan], error)
	GetPlan(ctx context.Context, planID string) (*domain.Plan, error)
	CreatePlan(ctx context.Context, req *domain.PlanRequest) (*domain.Plan, error)
	UpdatePlan(ctx context.Context, planID string, req *domain.PlanRequest) (*domain.Plan, error)
	DeletePlan(ctx context.Context, planID string) error
}

// ClientPlanStore manages client ↔ plan associations.
type ClientPlanStore interface {
	CreateClientPlan(ctx context.Context, req *domain.CreateClientPlanRequest) (*domain.ClientPlan, error)
	DeleteClientPlan(ctx context.Context, clientPlanID string) error
	GetCurrentClientPlan(ctx context.Context, clientID string) (*domain.ClientPlan, error)
}

// ClientPeriodPlanStore manages billing periods under a ClientPlan.
type ClientPeriodPlanStore interface {
	CreateClientPeriodPlan(ctx context.Context, req *domain.CreateClientPeriodPlanRequest) (*domain.ClientPeriodPlan, error)
	DeleteClientPeriodPlan(ctx context.Context, periodID string) error
	ListClientPeriodPlans(ctx context.Context, clientPlanID string) ([]domain.ClientPeriodPlan, error)
}

// TermsStore manages terms-of-use documents and their acceptance.
type TermsStore interface {
	// GetCurrentTerms returns (nil, nil) when no terms document is current.
	GetCurrentTerms(ctx context.Context) (*domain.Terms, error)
	AcceptTerms(ctx context.Context, req *domain.AcceptTermsRequest) (*domain.TermsAcceptance, error)
	ListTerms(ctx context.Context, params domain.ListParams) (*domain.ListResponse[domain.Terms], error)
	GetTerms(ctx context.Context, termsID string) (*domain.Terms, error)
	CreateTerms(ctx context.Context, req *domain.TermsRequest) (*domain.Terms, error)
	UpdateTerms(ctx context.Context, termsID string, req *domain.TermsRequest) (*domain.Terms, error)
	DeleteTerms(ctx context.Context, termsID string) error
}

// UserStore manages backoffice operators.
type UserStore interface {
	ListUsers(ctx context.Context, params domain.ListParams) (*domain.ListResponse[domain.User], error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	CreateUser(ctx context.Context, req *domain.UserRequest) (*domain.User, error)
	UpdateUser(ctx context.Context, userID string, req *domain.UserRequest) (*domain.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

// AuthGateway obtains tokens and drives password recovery on the backend.
type AuthGateway interface {
	Login(ctx context.Context, sessionCtx domain.SessionContext, req *domain.LoginRequest) (*domain.LoginResponse, error)
	ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) error
}

// TokenStore persists raw bearer tokens, one slot per key.
type TokenStore interface {
	// Get returns ("", false, nil) when the slot is empty.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, token string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
