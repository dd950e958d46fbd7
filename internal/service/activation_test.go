package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fullSequence = []string{
	"UpdateClientUser",
	"UpdateClient",
	"GetCurrentTerms",
	"AcceptTerms",
	"CreateClientPlan",
	"CreateClientPeriodPlan",
	"Login",
}

func TestActivate_EmptyPlanMakesNoCalls(t *testing.T) {
	h := newHarness(t)
	id := h.readyDraft(t, false)

	_, err := h.activation.Activate(context.Background(), id, "sid-1", domain.ActivationRequest{PlanID: ""})

	var pre *domain.ErrPrecondition
	require.True(t, errors.As(err, &pre), "got %v", err)
	assert.Empty(t, h.backend.Calls())
}

func TestActivate_PreconditionsMakeNoCalls(t *testing.T) {
	cases := map[string]func(d *domain.RegistrationDraft){
		"terms not accepted": func(d *domain.RegistrationDraft) { d.AcceptTerms = false },
		"no client":          func(d *domain.RegistrationDraft) { d.ClientID = "" },
		"no client user":     func(d *domain.RegistrationDraft) { d.ClientUserID = "" },
		"no password":        func(d *domain.RegistrationDraft) { d.Password = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			id := h.readyDraft(t, false)
			d, _ := h.drafts.Get(id)
			mutate(&d)
			h.drafts.Set(id, d)

			_, err := h.activation.Activate(context.Background(), id, "sid-1", domain.ActivationRequest{PlanID: "p1"})

			var pre *domain.ErrPrecondition
			require.True(t, errors.As(err, &pre), "got %v", err)
			assert.Empty(t, h.backend.Calls())
			assert.Equal(t, int64(1), h.metrics.GetActivationSnapshot().Rejected)
		})
	}
}

func TestActivate_TrialPlan(t *testing.T) {
	h := newHarness(t)
	id := h.readyDraft(t, true)

	res, err := h.activation.Activate(context.Background(), id, "sid-1", domain.ActivationRequest{PlanID: "p1"})
	require.NoError(t, err)

	assert.Equal(t, fullSequence, h.backend.Calls())
	assert.True(t, res.ClientPeriodPlan.WasConfirmed)
	assert.True(t, res.ClientPeriodPlan.IsTrial)
	assert.True(t, res.ClientPeriodPlan.IsCurrent)
	assert.Equal(t, fixedNow, res.ClientPeriodPlan.StartsAt)
	assert.Equal(t, time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC), res.ClientPeriodPlan.ExpiresAt)
	assert.Equal(t, "/dashboard", res.RedirectTo)
	assert.False(t, res.NewPlan)
	assert.Equal(t, domain.ContextClient, res.Session.Context)

	// the draft is gone and the CLIENT slot holds the new session
	_, err = h.wizard.Get(context.Background(), id)
	var nf *domain.ErrNotFound
	assert.True(t, errors.As(err, &nf))

	sess, err := h.sessions.Load(context.Background(), "sid-1", domain.ContextClient)
	require.NoError(t, err)
	assert.Equal(t, "client-1", sess.Claims.ClientID)

	snap := h.metrics.GetActivationSnapshot()
	assert.Equal(t, int64(1), snap.Succeeded)
	assert.Equal(t, 1.0, snap.SuccessRate)
}

func TestActivate_SurvivesCallerDisconnect(t *testing.T) {
	h := newHarness(t)
	id := h.readyDraft(t, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.backend.hooks["UpdateClient"] = cancel

	res, err := h.activation.Activate(ctx, id, "sid-1", domain.ActivationRequest{PlanID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, fullSequence, h.backend.Calls())
	assert.Zero(t, h.backend.count("DeleteClientPlan"))
	assert.Equal(t, "/dashboard", res.RedirectTo)
}

func TestActivate_PaidPlan(t *testing.T) {
	h := newHarness(t)
	id := h.readyDraft(t, true)

	res, err := h.activation.Activate(context.Background(), id, "sid-1", domain.ActivationRequest{PlanID: "p2"})
	require.NoError(t, err)

	assert.Equal(t, fullSequence, h.backend.Calls())
	assert.False(t, res.ClientPeriodPlan.WasConfirmed)
	assert.False(t, res.ClientPeriodPlan.IsTrial)
	assert.Equal(t, "/dashboard?newPlan=true", res.RedirectTo)
	assert.True(t, res.NewPlan)
}

func TestActivate_LoadsPlansWhenMissing(t *testing.T) {
	h := newHarness(t)
	id := h.readyDraft(t, false)

	_, err := h.activation.Activate(context.Background(), id, "sid-1", domain.ActivationRequest{PlanID: "p1"})
	require.NoError(t, err)

	assert.Equal(t, append([]string{"ListActivePlans"}, fullSequence...), h.backend.Calls())
}

func TestActivate_UnknownPlan(t *testing.T) {
	h := newHarness(t)
	id := h.readyDraft(t, true)

	_, err := h.activation.Activate(context.Background(), id, "sid-1", domain.ActivationRequest{PlanID: "nope"})

	var pre *domain.ErrPrecondition
	require.True(t, errors.As(err, &pre))
	assert.Empty(t, h.backend.Calls())
}

func TestActivate_NoCurrentTermsStopsBeforeSubscription(t *testing.T) {
	h := newHarness(t)
	h.backend.terms = nil
	id := h.readyDraft(t, true)

	_, err := h.activation.Activate(context.Background(), id, "sid-1", domain.ActivationRequest{PlanID: "p1"})

	var stepErr *domain.ErrActivationStep
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, domain.StepFetchTerms, stepErr.Step)
	assert.Empty(t, stepErr.Compensated)
	assert.Equal(t, []string{"UpdateClientUser", "UpdateClient", "GetCurrentTerms"}, h.backend.Calls())
	assert.Zero(t, h.backend.count("CreateClientPlan"))
	assert.Zero(t, h.backend.count("CreateClientPeriodPlan"))

	// the wizard stays on the plan step
	_, err = h.wizard.Get(context.Background(), id)
	assert.NoError(t, err)
}

func TestActivate_PeriodFailureUndoesClientPlan(t *testing.T) {
	h := newHarness(t)
	h.backend.failAt["CreateClientPeriodPlan"] = &domain.ErrUpstream{Status: 500, Message: "Erro interno do servidor"}
	id := h.readyDraft(t, true)

	_, err := h.activation.Activate(context.Background(), id, "sid-1", domain.ActivationRequest{PlanID: "p1"})

	var stepErr *domain.ErrActivationStep
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, domain.StepCreateClientPeriodPlan, stepErr.Step)
	assert.Equal(t, "Erro interno do servidor", stepErr.Message)
	assert.Equal(t, []string{domain.StepCreateClientPlan}, stepErr.Compensated)
	assert.NoError(t, stepErr.CompensationErr)
	assert.False(t, stepErr.Committed)

	calls := h.backend.Calls()
	assert.Equal(t, "DeleteClientPlan", calls[len(calls)-1])
	assert.Zero(t, h.backend.count("Login"))

	snap := h.metrics.GetActivationSnapshot()
	assert.Equal(t, int64(1), snap.Failed)
	assert.Equal(t, int64(1), snap.StepFailures[domain.StepCreateClientPeriodPlan])
	assert.Equal(t, int64(1), snap.Compensations)
}

func TestActivate_CompensationFailureIsReported(t *testing.T) {
	h := newHarness(t)
	h.backend.failAt["CreateClientPeriodPlan"] = errors.New("boom")
	h.backend.failAt["DeleteClientPlan"] = errors.New("still down")
	id := h.readyDraft(t, true)

	_, err := h.activation.Activate(context.Background(), id, "sid-1", domain.ActivationRequest{PlanID: "p1"})

	var stepErr *domain.ErrActivationStep
	require.True(t, errors.As(err, &stepErr))
	assert.Empty(t, stepErr.Compensated)
	assert.ErrorContains(t, stepErr.CompensationErr, "still down")
}

func TestActivate_LoginFailureKeepsSubscription(t *testing.T) {
	h := newHarness(t)
	h.backend.failAt["Login"] = &domain.ErrUpstream{Status: 401, Message: "Credenciais inválidas"}
	id := h.readyDraft(t, true)

	_, err := h.activation.Activate(context.Background(), id, "sid-1", domain.ActivationRequest{PlanID: "p2"})

	var stepErr *domain.ErrActivationStep
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, domain.StepLogin, stepErr.Step)
	assert.True(t, stepErr.Committed)
	assert.Equal(t, "/login", stepErr.RedirectTo)
	assert.Empty(t, stepErr.Compensated)
	assert.Zero(t, h.backend.count("DeleteClientPlan"))
	assert.Zero(t, h.backend.count("DeleteClientPeriodPlan"))

	_, err = h.wizard.Get(context.Background(), id)
	assert.Error(t, err, "committed activation must not be replayable from the draft")
}

func TestActivate_ConcurrentConfirmationsRunOnce(t *testing.T) {
	h := newHarness(t)
	h.backend.block = make(chan struct{})
	id := h.readyDraft(t, true)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = h.activation.Activate(context.Background(), id, "sid-1", domain.ActivationRequest{PlanID: "p1"})
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(h.backend.block)
	wg.Wait()

	assert.Equal(t, 1, h.backend.count("CreateClientPlan"))
	assert.Equal(t, 1, h.backend.count("Login"))
	assert.True(t, results[0] == nil || results[1] == nil)
}
