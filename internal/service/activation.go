package service

import (
	"context"
	"errors"
	"time"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/boddenberg/saas-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/saas-admin-bfa-go/internal/port"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var activationTracer = otel.Tracer("service/activation")

// activationTimeout bounds a confirmation once started. The run is detached
// from the caller so a dropped connection cannot strand a half-built client.
const activationTimeout = 60 * time.Second

// ActivationStores groups the backend resources touched by plan activation.
type ActivationStores struct {
	Clients     port.ClientStore
	ClientUsers port.ClientUserStore
	Terms       port.TermsStore
	ClientPlans port.ClientPlanStore
	Periods     port.ClientPeriodPlanStore
	Auth        port.AuthGateway
}

// ActivationPaths are the frontend routes returned after activation.
type ActivationPaths struct {
	Dashboard   string
	ClientLogin string
}

// ActivationService runs the final wizard step: it persists the collected
// data, subscribes the client to the chosen plan and logs the owner in.
type ActivationService struct {
	wizard   *RegistrationService
	stores   ActivationStores
	sessions *SessionManager
	paths    ActivationPaths
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time

	inflight singleflight.Group
}

// NewActivationService creates the activation service.
func NewActivationService(
	wizard *RegistrationService,
	stores ActivationStores,
	sessions *SessionManager,
	paths ActivationPaths,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ActivationService {
	return &ActivationService{
		wizard:   wizard,
		stores:   stores,
		sessions: sessions,
		paths:    paths,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock replaces the time source used for period start dates.
func (s *ActivationService) SetClock(now func() time.Time) {
	s.now = now
}

// Activate confirms the plan step of a wizard. Concurrent confirmations of
// the same wizard share a single execution and its result. sid is the
// browser session that receives the CLIENT token.
func (s *ActivationService) Activate(ctx context.Context, wizardID, sid string, req domain.ActivationRequest) (*domain.ActivationResult, error) {
	v, err, shared := s.inflight.Do(wizardID, func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), activationTimeout)
		defer cancel()
		return s.activate(runCtx, wizardID, sid, req)
	})
	if shared {
		s.logger.Info("activation joined an in-flight confirmation", zap.String("wizard_id", wizardID))
	}
	if err != nil {
		return nil, err
	}
	return v.(*domain.ActivationResult), nil
}

// preconditions checks the draft without any network call.
func preconditions(d domain.RegistrationDraft, planID string) error {
	switch {
	case planID == "":
		return &domain.ErrPrecondition{Reason: "Selecione um plano para continuar"}
	case !d.AcceptTerms:
		return &domain.ErrPrecondition{Reason: "É necessário aceitar os termos de uso"}
	case d.ClientID == "" || d.ClientUserID == "":
		return &domain.ErrPrecondition{Reason: "Dados da empresa incompletos. Volte à primeira etapa"}
	case !d.HasPassword():
		return &domain.ErrPrecondition{Reason: "Senha não informada. Volte à etapa de acesso"}
	}
	return nil
}

func (s *ActivationService) activate(ctx context.Context, wizardID, sid string, req domain.ActivationRequest) (*domain.ActivationResult, error) {
	ctx, span := activationTracer.Start(ctx, "ActivationService.Activate")
	defer span.End()
	span.SetAttributes(
		attribute.String("wizard.id", wizardID),
		attribute.String("plan.id", req.PlanID),
	)

	draft, err := s.wizard.Draft(wizardID)
	if err != nil {
		return nil, err
	}
	if err := preconditions(draft, req.PlanID); err != nil {
		s.metrics.IncrActivation(observability.OutcomeRejected)
		return nil, err
	}

	plans := draft.Plans
	if plans == nil {
		if plans, err = s.wizard.LoadPlans(ctx, wizardID); err != nil {
			return nil, err
		}
	}
	plan, ok := lo.Find(plans, func(p domain.Plan) bool { return p.ID == req.PlanID })
	if !ok {
		s.metrics.IncrActivation(observability.OutcomeRejected)
		return nil, &domain.ErrPrecondition{Reason: "Plano selecionado não está disponível"}
	}

	log := s.logger.With(
		zap.String("wizard_id", wizardID),
		zap.String("client_id", draft.ClientID),
		zap.String("plan_id", plan.ID),
	)
	log.Info("plan activation started", zap.Bool("trial", plan.IsTrial))

	var (
		terms      *domain.Terms
		clientPlan *domain.ClientPlan
		period     *domain.ClientPeriodPlan
		session    *domain.Session
	)

	run := &saga{metrics: s.metrics, logger: log, steps: []sagaStep{
		{
			name: domain.StepUpdateClientUser,
			run: func(ctx context.Context) error {
				_, err := s.stores.ClientUsers.UpdateClientUser(ctx, draft.ClientUserID, &domain.UpdateClientUserRequest{
					Name:     draft.OwnerName,
					Email:    draft.Email,
					CpfCnpj:  draft.CpfCnpj,
					Phone:    draft.Phone,
					Password: draft.Password,
				})
				return err
			},
		},
		{
			name: domain.StepUpdateClient,
			run: func(ctx context.Context) error {
				_, err := s.stores.Clients.UpdateClient(ctx, draft.ClientID, clientUpdate(draft))
				return err
			},
		},
		{
			name: domain.StepFetchTerms,
			run: func(ctx context.Context) error {
				t, err := s.stores.Terms.GetCurrentTerms(ctx)
				if err != nil {
					return err
				}
				if t == nil {
					return &domain.ErrNotFound{Resource: "terms", ID: "current"}
				}
				terms = t
				return nil
			},
		},
		{
			name: domain.StepAcceptTerms,
			run: func(ctx context.Context) error {
				_, err := s.stores.Terms.AcceptTerms(ctx, &domain.AcceptTermsRequest{
					ClientUserID: draft.ClientUserID,
					TermsID:      terms.ID,
				})
				return err
			},
		},
		{
			name: domain.StepCreateClientPlan,
			run: func(ctx context.Context) error {
				cp, err := s.stores.ClientPlans.CreateClientPlan(ctx, &domain.CreateClientPlanRequest{
					ClientID: draft.ClientID,
					PlanID:   plan.ID,
					Current:  true,
				})
				if err != nil {
					return err
				}
				clientPlan = cp
				return nil
			},
			compensate: func(ctx context.Context) error {
				return s.stores.ClientPlans.DeleteClientPlan(ctx, clientPlan.ID)
			},
		},
		{
			name: domain.StepCreateClientPeriodPlan,
			run: func(ctx context.Context) error {
				req := domain.NewPeriodForPlan(clientPlan.ID, plan, s.now())
				p, err := s.stores.Periods.CreateClientPeriodPlan(ctx, &req)
				if err != nil {
					return err
				}
				period = p
				return nil
			},
			compensate: func(ctx context.Context) error {
				return s.stores.Periods.DeleteClientPeriodPlan(ctx, period.ID)
			},
			pivot: true,
		},
		{
			name: domain.StepLogin,
			run: func(ctx context.Context) error {
				resp, err := s.stores.Auth.Login(ctx, domain.ContextClient, &domain.LoginRequest{
					Email:    draft.Email,
					Password: draft.Password,
				})
				if err != nil {
					return err
				}
				session, err = s.sessions.Establish(ctx, sid, domain.ContextClient, resp.AccessToken)
				return err
			},
		},
	}}

	if err := run.execute(ctx); err != nil {
		s.metrics.IncrActivation(observability.OutcomeFailed)

		var stepErr *domain.ErrActivationStep
		if errors.As(err, &stepErr) && stepErr.Committed {
			// the subscription exists; a retry from this draft would duplicate it
			stepErr.RedirectTo = s.paths.ClientLogin
			s.wizard.drafts.Delete(wizardID)
		}
		span.RecordError(err)
		return nil, err
	}

	s.wizard.drafts.Delete(wizardID)
	s.metrics.IncrActivation(observability.OutcomeSucceeded)
	log.Info("plan activation completed",
		zap.String("client_plan_id", clientPlan.ID),
		zap.String("period_id", period.ID),
	)

	redirect := s.paths.Dashboard
	if plan.IsPaid() {
		redirect += "?newPlan=true"
	}
	return &domain.ActivationResult{
		ClientPlan:       clientPlan,
		ClientPeriodPlan: period,
		Session:          SessionResponse(session),
		RedirectTo:       redirect,
		NewPlan:          plan.IsPaid(),
	}, nil
}

func clientUpdate(d domain.RegistrationDraft) *domain.UpdateClientRequest {
	req := &domain.UpdateClientRequest{Name: d.CompanyName, CpfCnpj: d.CpfCnpj}
	if a := d.Address; a != nil {
		req.ZipCode = a.ZipCode
		req.Street = a.Street
		req.Number = a.Number
		req.Complement = a.Complement
		req.District = a.District
		req.City = a.City
		req.State = a.State
	}
	return req
}
