package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/boddenberg/saas-admin-bfa-go/internal/infra/observability"

	"go.uber.org/zap"
)

const compensationTimeout = 15 * time.Second

// sagaStep is one named remote call of a sequence. compensate undoes a
// completed run and may be nil. Once a pivot step completes the sequence is
// committed and later failures are no longer compensated.
type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
	pivot      bool
}

// saga runs steps strictly in order, each awaited before the next.
type saga struct {
	steps   []sagaStep
	metrics *observability.Metrics
	logger  *zap.Logger
}

// execute runs the steps. On failure before the pivot, completed steps are
// compensated in reverse order. The returned error is always an
// *domain.ErrActivationStep.
func (s *saga) execute(ctx context.Context) error {
	var done []sagaStep
	committed := false

	for _, step := range s.steps {
		start := time.Now()
		err := step.run(ctx)
		s.metrics.RecordRequestDuration("activation."+step.name, time.Since(start))

		if err != nil {
			s.metrics.IncrStepFailure(step.name)
			s.logger.Warn("activation step failed",
				zap.String("step", step.name),
				zap.Bool("committed", committed),
				zap.Error(err),
			)

			stepErr := &domain.ErrActivationStep{
				Step:      step.name,
				Message:   stepMessage(step.name, err),
				Committed: committed,
				Err:       err,
			}
			if !committed {
				stepErr.Compensated, stepErr.CompensationErr = s.compensate(ctx, done)
			}
			return stepErr
		}

		s.logger.Debug("activation step done", zap.String("step", step.name))
		done = append(done, step)
		if step.pivot {
			committed = true
		}
	}
	return nil
}

// compensate undoes completed steps in reverse order. It keeps going after
// a failed undo and reports every failure. A missing record counts as undone.
func (s *saga) compensate(ctx context.Context, done []sagaStep) ([]string, error) {
	// the caller may have gone away; undo still has to reach the backend
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	var undone []string
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.compensate == nil {
			continue
		}

		err := step.compensate(ctx)
		var nf *domain.ErrNotFound
		if err != nil && !errors.As(err, &nf) {
			s.logger.Error("activation compensation failed", zap.String("step", step.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("undo %s: %w", step.name, err))
			continue
		}

		s.metrics.IncrCompensation(step.name)
		s.logger.Info("activation step compensated", zap.String("step", step.name))
		undone = append(undone, step.name)
	}
	return undone, errors.Join(errs...)
}

var stepFallbackMessages = map[string]string{
	domain.StepUpdateClientUser:       "Não foi possível atualizar os dados do usuário.",
	domain.StepUpdateClient:           "Não foi possível atualizar os dados da empresa.",
	domain.StepFetchTerms:             "Não foi possível obter os termos de uso vigentes.",
	domain.StepAcceptTerms:            "Não foi possível registrar o aceite dos termos de uso.",
	domain.StepCreateClientPlan:       "Não foi possível contratar o plano.",
	domain.StepCreateClientPeriodPlan: "Não foi possível iniciar o período do plano.",
	domain.StepLogin:                  "Plano ativado, mas não foi possível entrar automaticamente. Faça login.",
}

// stepMessage picks the user-facing message of a failed step. Remapped
// backend messages win over the per-step fallback.
func stepMessage(step string, err error) string {
	var up *domain.ErrUpstream
	if errors.As(err, &up) && up.Message != "" && step != domain.StepLogin {
		return up.Message
	}
	var nf *domain.ErrNotFound
	if step == domain.StepFetchTerms && errors.As(err, &nf) {
		return "Nenhum termo de uso vigente. Tente novamente mais tarde."
	}
	var open *domain.ErrCircuitOpen
	if errors.As(err, &open) {
		return "Serviço temporariamente indisponível. Tente novamente em instantes."
	}
	if msg, ok := stepFallbackMessages[step]; ok {
		return msg
	}
	return "Não foi possível concluir a ativação."
}
