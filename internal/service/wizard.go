package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/boddenberg/saas-admin-bfa-go/internal/port"
	"github.com/boddenberg/saas-admin-bfa-go/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var wizardTracer = otel.Tracer("service/registration")

// RegistrationService owns the wizard drafts and runs steps 1 to 3 of the
// client registration. Drafts live only in the BFA and expire with the
// draft cache TTL.
type RegistrationService struct {
	drafts    port.Cache[domain.RegistrationDraft]
	clients   port.ClientStore
	users     port.ClientUserStore
	plans     port.PlanStore
	validator *validation.Validator
	logger    *zap.Logger

	// mu serialises read-modify-write on drafts.
	mu sync.Mutex
	// step1 serialises company submissions per wizard across their backend calls.
	step1 wizardLocks
}

// NewRegistrationService creates the wizard service.
func NewRegistrationService(
	drafts port.Cache[domain.RegistrationDraft],
	clients port.ClientStore,
	users port.ClientUserStore,
	plans port.PlanStore,
	v *validation.Validator,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		drafts:    drafts,
		clients:   clients,
		users:     users,
		plans:     plans,
		validator: v,
		logger:    logger,
	}
}

func wizardResponse(id string, d domain.RegistrationDraft) *domain.WizardResponse {
	return &domain.WizardResponse{WizardID: id, Draft: d, HasPassword: d.HasPassword()}
}

// ============================================================
// State container
// ============================================================

// Start opens a new wizard with the empty draft.
func (s *RegistrationService) Start(ctx context.Context) (*domain.WizardResponse, error) {
	_, span := wizardTracer.Start(ctx, "RegistrationService.Start")
	defer span.End()

	id := uuid.NewString()
	draft := domain.NewRegistrationDraft()
	s.drafts.Set(id, draft)

	s.logger.Info("registration wizard started", zap.String("wizard_id", id))
	return wizardResponse(id, draft), nil
}

// Draft returns the stored draft of a wizard.
func (s *RegistrationService) Draft(wizardID string) (domain.RegistrationDraft, error) {
	d, ok := s.drafts.Get(wizardID)
	if !ok {
		return domain.RegistrationDraft{}, &domain.ErrNotFound{Resource: "registration", ID: wizardID}
	}
	return d, nil
}

// Get returns the public view of a wizard.
func (s *RegistrationService) Get(ctx context.Context, wizardID string) (*domain.WizardResponse, error) {
	d, err := s.Draft(wizardID)
	if err != nil {
		return nil, err
	}
	return wizardResponse(wizardID, d), nil
}

// Merge applies patch to the stored draft and returns the result.
func (s *RegistrationService) Merge(wizardID string, patch domain.DraftPatch) (domain.RegistrationDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts.Get(wizardID)
	if !ok {
		return domain.RegistrationDraft{}, &domain.ErrNotFound{Resource: "registration", ID: wizardID}
	}
	d = d.Merge(patch)
	s.drafts.Set(wizardID, d)
	return d, nil
}

// Reset puts the draft back to the initial empty shape. Records already
// created on the backend are kept.
func (s *RegistrationService) Reset(ctx context.Context, wizardID string) (*domain.WizardResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drafts.Get(wizardID); !ok {
		return nil, &domain.ErrNotFound{Resource: "registration", ID: wizardID}
	}
	draft := domain.NewRegistrationDraft()
	s.drafts.Set(wizardID, draft)
	return wizardResponse(wizardID, draft), nil
}

// Discard abandons a wizard. No backend rollback happens.
func (s *RegistrationService) Discard(ctx context.Context, wizardID string) error {
	if _, err := s.Draft(wizardID); err != nil {
		return err
	}
	s.drafts.Delete(wizardID)
	s.logger.Info("registration wizard discarded", zap.String("wizard_id", wizardID))
	return nil
}

// ============================================================
// Step 1: company and owner
// ============================================================

// SubmitCompany validates the company step and creates the Client and its
// owner ClientUser. On a repeated submission the existing records are
// patched instead of created again.
func (s *RegistrationService) SubmitCompany(ctx context.Context, wizardID string, in domain.CompanyStepInput) (*domain.WizardResponse, error) {
	ctx, span := wizardTracer.Start(ctx, "RegistrationService.SubmitCompany")
	defer span.End()
	span.SetAttributes(attribute.String("wizard.id", wizardID))

	unlock := s.step1.lock(wizardID)
	defer unlock()

	draft, err := s.Draft(wizardID)
	if err != nil {
		return nil, err
	}
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.OwnerName = strings.TrimSpace(in.OwnerName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validator.Check(in); err != nil {
		return nil, err
	}
	in.CpfCnpj = validation.OnlyDigits(in.CpfCnpj)
	in.Phone = validation.OnlyDigits(in.Phone)

	clientID := draft.ClientID
	if clientID == "" {
		client, err := s.clients.CreateClient(ctx, &domain.CreateClientRequest{Name: in.CompanyName, CpfCnpj: in.CpfCnpj})
		if err != nil {
			return nil, fmt.Errorf("create client: %w", err)
		}
		clientID = client.ID
		// keep the id even if the owner creation below fails, so a retry patches
		if _, err := s.Merge(wizardID, domain.DraftPatch{ClientID: &clientID}); err != nil {
			return nil, err
		}
		s.logger.Info("client created", zap.String("wizard_id", wizardID), zap.String("client_id", clientID))
	} else {
		if _, err := s.clients.UpdateClient(ctx, clientID, &domain.UpdateClientRequest{Name: in.CompanyName, CpfCnpj: in.CpfCnpj}); err != nil {
			return nil, fmt.Errorf("update client: %w", err)
		}
	}

	clientUserID := draft.ClientUserID
	if clientUserID == "" {
		user, err := s.users.CreateClientUser(ctx, &domain.CreateClientUserRequest{
			ClientID: clientID,
			Name:     in.OwnerName,
			Email:    in.Email,
			CpfCnpj:  in.CpfCnpj,
			Phone:    in.Phone,
			Role:     domain.RoleClientOwner,
		})
		if err != nil {
			return nil, fmt.Errorf("create client user: %w", err)
		}
		clientUserID = user.ID
		s.logger.Info("client owner created",
			zap.String("wizard_id", wizardID),
			zap.String("client_id", clientID),
			zap.String("client_user_id", clientUserID),
		)
	} else {
		_, err := s.users.UpdateClientUser(ctx, clientUserID, &domain.UpdateClientUserRequest{
			Name:    in.OwnerName,
			Email:   in.Email,
			CpfCnpj: in.CpfCnpj,
			Phone:   in.Phone,
		})
		if err != nil {
			return nil, fmt.Errorf("update client user: %w", err)
		}
	}

	d, err := s.Merge(wizardID, domain.DraftPatch{
		CompanyName:  &in.CompanyName,
		OwnerName:    &in.OwnerName,
		Email:        &in.Email,
		CpfCnpj:      &in.CpfCnpj,
		Phone:        &in.Phone,
		ClientID:     &clientID,
		ClientUserID: &clientUserID,
	})
	if err != nil {
		return nil, err
	}
	return wizardResponse(wizardID, d), nil
}

// ============================================================
// Steps 2 and 3: local only
// ============================================================

// SubmitAddress validates the address and stores it in the draft.
func (s *RegistrationService) SubmitAddress(ctx context.Context, wizardID string, addr domain.Address) (*domain.WizardResponse, error) {
	if _, err := s.Draft(wizardID); err != nil {
		return nil, err
	}
	if err := s.validator.Check(addr); err != nil {
		return nil, err
	}

	addr.ZipCode = validation.OnlyDigits(addr.ZipCode)
	addr.State = strings.ToUpper(addr.State)

	d, err := s.Merge(wizardID, domain.DraftPatch{Address: &addr})
	if err != nil {
		return nil, err
	}
	return wizardResponse(wizardID, d), nil
}

// SubmitCredentials validates password, confirmation and terms acceptance.
func (s *RegistrationService) SubmitCredentials(ctx context.Context, wizardID string, in domain.CredentialsStepInput) (*domain.WizardResponse, error) {
	if _, err := s.Draft(wizardID); err != nil {
		return nil, err
	}
	if err := s.validator.Check(in); err != nil {
		return nil, err
	}

	d, err := s.Merge(wizardID, domain.DraftPatch{Password: &in.Password, AcceptTerms: &in.AcceptTerms})
	if err != nil {
		return nil, err
	}
	return wizardResponse(wizardID, d), nil
}

// LoadPlans returns the active plans for the plan step. The list is fetched
// once per wizard and kept in the draft.
func (s *RegistrationService) LoadPlans(ctx context.Context, wizardID string) ([]domain.Plan, error) {
	ctx, span := wizardTracer.Start(ctx, "RegistrationService.LoadPlans")
	defer span.End()

	d, err := s.Draft(wizardID)
	if err != nil {
		return nil, err
	}
	if d.Plans != nil {
		return d.Plans, nil
	}

	plans, err := s.plans.ListActivePlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active plans: %w", err)
	}
	if plans == nil {
		plans = []domain.Plan{}
	}
	if _, err := s.Merge(wizardID, domain.DraftPatch{Plans: plans}); err != nil {
		return nil, err
	}
	return plans, nil
}

// ============================================================
// Per-wizard locks
// ============================================================

type wizardLocks struct {
	mu sync.Mutex
	m  map[string]*wizardLock
}

type wizardLock struct {
	sync.Mutex
	refs int
}

// lock blocks until the wizard is free and returns its release func.
// Entries are dropped once no caller holds or waits on them.
func (l *wizardLocks) lock(wizardID string) func() {
	l.mu.Lock()
	if l.m == nil {
		l.m = make(map[string]*wizardLock)
	}
	wl, ok := l.m[wizardID]
	if !ok {
		wl = &wizardLock{}
		l.m[wizardID] = wl
	}
	wl.refs++
	l.mu.Unlock()

	wl.Lock()
	return func() {
		wl.Unlock()
		l.mu.Lock()
		wl.refs--
		if wl.refs == 0 {
			delete(l.m, wizardID)
		}
		l.mu.Unlock()
	}
}
