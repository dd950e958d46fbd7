package service

import (
	"context"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/boddenberg/saas-admin-bfa-go/internal/port"
	"github.com/boddenberg/saas-admin-bfa-go/internal/validation"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var backofficeTracer = otel.Tracer("service/backoffice")

const maxPageSize = 100

// BackofficeService backs the admin CRUD screens. Every payload is
// validated before it reaches the backend; the backend stays the owner of
// the data.
type BackofficeService struct {
	clients   port.ClientStore
	plans     port.PlanStore
	terms     port.TermsStore
	users     port.UserStore
	validator *validation.Validator
	logger    *zap.Logger
}

// NewBackofficeService creates the backoffice service.
func NewBackofficeService(clients port.ClientStore, plans port.PlanStore, terms port.TermsStore, users port.UserStore, v *validation.Validator, logger *zap.Logger) *BackofficeService {
	return &BackofficeService{
		clients:   clients,
		plans:     plans,
		terms:     terms,
		users:     users,
		validator: v,
		logger:    logger,
	}
}

func clampParams(p domain.ListParams) domain.ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

func (s *BackofficeService) audit(ctx context.Context, action, resource, id string) {
	s.logger.Info("backoffice change",
		zap.String("action", action),
		zap.String("resource", resource),
		zap.String("id", id),
	)
}

// ============================================================
// Clients
// ============================================================

func (s *BackofficeService) ListClients(ctx context.Context, params domain.ListParams) (*domain.ListResponse[domain.Client], error) {
	ctx, span := backofficeTracer.Start(ctx, "BackofficeService.ListClients")
	defer span.End()
	return s.clients.ListClients(ctx, clampParams(params))
}

func (s *BackofficeService) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	return s.clients.GetClient(ctx, id)
}

func (s *BackofficeService) UpdateClient(ctx context.Context, id string, req *domain.UpdateClientRequest) (*domain.Client, error) {
	ctx, span := backofficeTracer.Start(ctx, "BackofficeService.UpdateClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", id))

	if err := s.validator.Check(req); err != nil {
		return nil, err
	}
	if req.CpfCnpj != "" {
		req.CpfCnpj = validation.OnlyDigits(req.CpfCnpj)
	}
	if req.ZipCode != "" {
		req.ZipCode = validation.OnlyDigits(req.ZipCode)
	}
	out, err := s.clients.UpdateClient(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "update", "clients", id)
	return out, nil
}

func (s *BackofficeService) DeleteClient(ctx context.Context, id string) error {
	if err := s.clients.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, "delete", "clients", id)
	return nil
}

// ============================================================
// Plans
// ============================================================

func (s *BackofficeService) ListPlans(ctx context.Context, params domain.ListParams) (*domain.ListResponse[domain.Plan], error) {
	ctx, span := backofficeTracer.Start(ctx, "BackofficeService.ListPlans")
	defer span.End()
	return s.plans.ListPlans(ctx, clampParams(params))
}

func (s *BackofficeService) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	return s.plans.GetPlan(ctx, id)
}

func (s *BackofficeService) CreatePlan(ctx context.Context, req *domain.PlanRequest) (*domain.Plan, error) {
	req.Partial = false
	if err := s.validator.Check(req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, &domain.ErrValidation{Field: "price", Message: "Preço não pode ser negativo"}
	}
	out, err := s.plans.CreatePlan(ctx, req)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "create", "plans", out.ID)
	return out, nil
}

func (s *BackofficeService) UpdatePlan(ctx context.Context, id string, req *domain.PlanRequest) (*domain.Plan, error) {
	req.Partial = true
	if err := s.validator.Check(req); err != nil {
		return nil, err
	}
	if req.Price != nil && req.Price.IsNegative() {
		return nil, &domain.ErrValidation{Field: "price", Message: "Preço não pode ser negativo"}
	}
	out, err := s.plans.UpdatePlan(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "update", "plans", id)
	return out, nil
}

func (s *BackofficeService) DeletePlan(ctx context.Context, id string) error {
	if err := s.plans.DeletePlan(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, "delete", "plans", id)
	return nil
}

// ============================================================
// Terms
// ============================================================

func (s *BackofficeService) ListTerms(ctx context.Context, params domain.ListParams) (*domain.ListResponse[domain.Terms], error) {
	return s.terms.ListTerms(ctx, clampParams(params))
}

func (s *BackofficeService) GetTerms(ctx context.Context, id string) (*domain.Terms, error) {
	return s.terms.GetTerms(ctx, id)
}

func (s *BackofficeService) CreateTerms(ctx context.Context, req *domain.TermsRequest) (*domain.Terms, error) {
	req.Partial = false
	if err := s.validator.Check(req); err != nil {
		return nil, err
	}
	out, err := s.terms.CreateTerms(ctx, req)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "create", "terms", out.ID)
	return out, nil
}

func (s *BackofficeService) UpdateTerms(ctx context.Context, id string, req *domain.TermsRequest) (*domain.Terms, error) {
	req.Partial = true
	if err := s.validator.Check(req); err != nil {
		return nil, err
	}
	out, err := s.terms.UpdateTerms(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "update", "terms", id)
	return out, nil
}

func (s *BackofficeService) DeleteTerms(ctx context.Context, id string) error {
	if err := s.terms.DeleteTerms(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, "delete", "terms", id)
	return nil
}

// ============================================================
// Users
// ============================================================

func (s *BackofficeService) ListUsers(ctx context.Context, params domain.ListParams) (*domain.ListResponse[domain.User], error) {
	return s.users.ListUsers(ctx, clampParams(params))
}

func (s *BackofficeService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetUser(ctx, id)
}

func (s *BackofficeService) CreateUser(ctx context.Context, req *domain.UserRequest) (*domain.User, error) {
	req.Partial = false
	if err := s.validator.Check(req); err != nil {
		return nil, err
	}
	out, err := s.users.CreateUser(ctx, req)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "create", "users", out.ID)
	return out, nil
}

func (s *BackofficeService) UpdateUser(ctx context.Context, id string, req *domain.UserRequest) (*domain.User, error) {
	req.Partial = true
	if err := s.validator.Check(req); err != nil {
		return nil, err
	}
	out, err := s.users.UpdateUser(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, "update", "users", id)
	return out, nil
}

func (s *BackofficeService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, "delete", "users", id)
	return nil
}
