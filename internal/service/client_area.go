package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/boddenberg/saas-admin-bfa-go/internal/port"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var clientAreaTracer = otel.Tracer("service/client-area")

// ClientAreaService serves the signed-in client.
type ClientAreaService struct {
	clientPlans port.ClientPlanStore
	periods     port.ClientPeriodPlanStore
	plans       port.PlanStore
	logger      *zap.Logger
}

func NewClientAreaService(clientPlans port.ClientPlanStore, periods port.ClientPeriodPlanStore, plans port.PlanStore, logger *zap.Logger) *ClientAreaService {
	return &ClientAreaService{clientPlans: clientPlans, periods: periods, plans: plans, logger: logger}
}

// Subscription returns the current plan of the session's client with its
// billing periods.
func (s *ClientAreaService) Subscription(ctx context.Context, session *domain.Session) (*domain.Subscription, error) {
	ctx, span := clientAreaTracer.Start(ctx, "ClientAreaService.Subscription")
	defer span.End()

	clientID := session.Claims.ClientID
	if clientID == "" {
		return nil, &domain.ErrForbidden{Action: "session is not bound to a client"}
	}

	cp, err := s.clientPlans.GetCurrentClientPlan(ctx, clientID)
	if err != nil {
		return nil, err
	}

	sub := &domain.Subscription{ClientPlan: *cp, Plan: cp.Plan}
	if sub.Plan == nil {
		plan, err := s.plans.GetPlan(ctx, cp.PlanID)
		var nf *domain.ErrNotFound
		switch {
		case errors.As(err, &nf):
			s.logger.Warn("current client plan points at a missing plan", zap.String("plan_id", cp.PlanID))
		case err != nil:
			return nil, fmt.Errorf("get plan: %w", err)
		default:
			sub.Plan = plan
		}
	}

	periods, err := s.periods.ListClientPeriodPlans(ctx, cp.ID)
	if err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	sub.Periods = periods
	if current, ok := lo.Find(periods, func(p domain.ClientPeriodPlan) bool { return p.IsCurrent }); ok {
		sub.CurrentPeriod = &current
	}
	return sub, nil
}
