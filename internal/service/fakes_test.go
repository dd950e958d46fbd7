package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/boddenberg/saas-admin-bfa-go/internal/infra/cache"
	"github.com/boddenberg/saas-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/saas-admin-bfa-go/internal/infra/sessionstore"
	"github.com/boddenberg/saas-admin-bfa-go/internal/service"
	"github.com/boddenberg/saas-admin-bfa-go/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// --- Fake backend ---

// fakeBackend implements every store port and records the calls it gets.
type fakeBackend struct {
	mu     sync.Mutex
	calls  []string
	failAt map[string]error

	terms   *domain.Terms
	plans   []domain.Plan
	token   string
	nextID  int
	periods []domain.CreateClientPeriodPlanRequest

	// block, when set, is waited on at the start of UpdateClientUser.
	block chan struct{}
	// hooks run right after the named call is recorded.
	hooks map[string]func()
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		failAt: map[string]error{},
		hooks:  map[string]func(){},
		terms:  &domain.Terms{ID: "terms-1", Version: "1", IsCurrent: true},
		plans: []domain.Plan{
			{ID: "p1", Name: "Trial", IsTrial: true, DurationDays: 30, IsActive: true},
			{ID: "p2", Name: "Pro", IsTrial: false, DurationDays: 30, Price: decimal.NewFromInt(149), IsActive: true},
		},
	}
}

func (f *fakeBackend) record(name string) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	err := f.failAt[name]
	hook := f.hooks[name]
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

// recordCtx records a call that fails on a cancelled context, as the HTTP
// client does.
func (f *fakeBackend) recordCtx(ctx context.Context, name string) error {
	if err := f.record(name); err != nil {
		return err
	}
	return ctx.Err()
}

func (f *fakeBackend) id(prefix string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) count(name string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeBackend) CreateClient(ctx context.Context, req *domain.CreateClientRequest) (*domain.Client, error) {
	if err := f.recordCtx(ctx, "CreateClient"); err != nil {
		return nil, err
	}
	return &domain.Client{ID: f.id("client"), Name: req.Name, CpfCnpj: req.CpfCnpj}, nil
}

func (f *fakeBackend) UpdateClient(ctx context.Context, id string, req *domain.UpdateClientRequest) (*domain.Client, error) {
	if err := f.recordCtx(ctx, "UpdateClient"); err != nil {
		return nil, err
	}
	return &domain.Client{ID: id, Name: req.Name}, nil
}

func (f *fakeBackend) GetClient(_ context.Context, id string) (*domain.Client, error) {
	if err := f.record("GetClient"); err != nil {
		return nil, err
	}
	return &domain.Client{ID: id}, nil
}

func (f *fakeBackend) ListClients(_ context.Context, p domain.ListParams) (*domain.ListResponse[domain.Client], error) {
	if err := f.record("ListClients"); err != nil {
		return nil, err
	}
	return &domain.ListResponse[domain.Client]{Data: []domain.Client{}, Page: p.Page, PageSize: p.PageSize}, nil
}

func (f *fakeBackend) DeleteClient(_ context.Context, _ string) error {
	return f.record("DeleteClient")
}

func (f *fakeBackend) CreateClientUser(ctx context.Context, req *domain.CreateClientUserRequest) (*domain.ClientUser, error) {
	if err := f.recordCtx(ctx, "CreateClientUser"); err != nil {
		return nil, err
	}
	return &domain.ClientUser{ID: f.id("user"), ClientID: req.ClientID, Role: req.Role, Email: req.Email}, nil
}

func (f *fakeBackend) UpdateClientUser(ctx context.Context, id string, _ *domain.UpdateClientUserRequest) (*domain.ClientUser, error) {
	if f.block != nil {
		<-f.block
	}
	if err := f.recordCtx(ctx, "UpdateClientUser"); err != nil {
		return nil, err
	}
	return &domain.ClientUser{ID: id}, nil
}

func (f *fakeBackend) ListActivePlans(context.Context) ([]domain.Plan, error) {
	if err := f.record("ListActivePlans"); err != nil {
		return nil, err
	}
	return f.plans, nil
}

func (f *fakeBackend) ListPlans(_ context.Context, p domain.ListParams) (*domain.ListResponse[domain.Plan], error) {
	if err := f.record("ListPlans"); err != nil {
		return nil, err
	}
	return &domain.ListResponse[domain.Plan]{Data: f.plans, Total: len(f.plans), Page: p.Page, PageSize: p.PageSize}, nil
}

func (f *fakeBackend) GetPlan(_ context.Context, id string) (*domain.Plan, error) {
	if err := f.record("GetPlan"); err != nil {
		return nil, err
	}
	for _, p := range f.plans {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "plans", ID: id}
}

func (f *fakeBackend) CreatePlan(_ context.Context, req *domain.PlanRequest) (*domain.Plan, error) {
	if err := f.record("CreatePlan"); err != nil {
		return nil, err
	}
	return &domain.Plan{ID: f.id("plan"), Name: req.Name}, nil
}

func (f *fakeBackend) UpdatePlan(_ context.Context, id string, req *domain.PlanRequest) (*domain.Plan, error) {
	if err := f.record("UpdatePlan"); err != nil {
		return nil, err
	}
	return &domain.Plan{ID: id, Name: req.Name}, nil
}

func (f *fakeBackend) DeletePlan(context.Context, string) error { return f.record("DeletePlan") }

func (f *fakeBackend) CreateClientPlan(ctx context.Context, req *domain.CreateClientPlanRequest) (*domain.ClientPlan, error) {
	if err := f.recordCtx(ctx, "CreateClientPlan"); err != nil {
		return nil, err
	}
	return &domain.ClientPlan{ID: f.id("cp"), ClientID: req.ClientID, PlanID: req.PlanID, Current: req.Current}, nil
}

func (f *fakeBackend) DeleteClientPlan(context.Context, string) error {
	return f.record("DeleteClientPlan")
}

func (f *fakeBackend) GetCurrentClientPlan(_ context.Context, clientID string) (*domain.ClientPlan, error) {
	if err := f.record("GetCurrentClientPlan"); err != nil {
		return nil, err
	}
	return &domain.ClientPlan{ID: "cp-current", ClientID: clientID, PlanID: "p2", Current: true}, nil
}

func (f *fakeBackend) CreateClientPeriodPlan(ctx context.Context, req *domain.CreateClientPeriodPlanRequest) (*domain.ClientPeriodPlan, error) {
	if err := f.recordCtx(ctx, "CreateClientPeriodPlan"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.periods = append(f.periods, *req)
	f.mu.Unlock()
	return &domain.ClientPeriodPlan{
		ID:           f.id("period"),
		ClientPlanID: req.ClientPlanID,
		StartsAt:     req.StartsAt,
		ExpiresAt:    req.ExpiresAt,
		IsTrial:      req.IsTrial,
		IsCurrent:    req.IsCurrent,
		WasConfirmed: req.WasConfirmed,
	}, nil
}

func (f *fakeBackend) DeleteClientPeriodPlan(context.Context, string) error {
	return f.record("DeleteClientPeriodPlan")
}

func (f *fakeBackend) ListClientPeriodPlans(_ context.Context, cpID string) ([]domain.ClientPeriodPlan, error) {
	if err := f.record("ListClientPeriodPlans"); err != nil {
		return nil, err
	}
	return []domain.ClientPeriodPlan{
		{ID: "old", ClientPlanID: cpID},
		{ID: "now", ClientPlanID: cpID, IsCurrent: true},
	}, nil
}

func (f *fakeBackend) GetCurrentTerms(ctx context.Context) (*domain.Terms, error) {
	if err := f.recordCtx(ctx, "GetCurrentTerms"); err != nil {
		return nil, err
	}
	return f.terms, nil
}

func (f *fakeBackend) AcceptTerms(ctx context.Context, req *domain.AcceptTermsRequest) (*domain.TermsAcceptance, error) {
	if err := f.recordCtx(ctx, "AcceptTerms"); err != nil {
		return nil, err
	}
	return &domain.TermsAcceptance{ID: f.id("acc"), ClientUserID: req.ClientUserID, TermsID: req.TermsID}, nil
}

func (f *fakeBackend) ListTerms(context.Context, domain.ListParams) (*domain.ListResponse[domain.Terms], error) {
	return &domain.ListResponse[domain.Terms]{}, f.record("ListTerms")
}

func (f *fakeBackend) GetTerms(_ context.Context, id string) (*domain.Terms, error) {
	return &domain.Terms{ID: id}, f.record("GetTerms")
}

func (f *fakeBackend) CreateTerms(context.Context, *domain.TermsRequest) (*domain.Terms, error) {
	return &domain.Terms{ID: f.id("terms")}, f.record("CreateTerms")
}

func (f *fakeBackend) UpdateTerms(_ context.Context, id string, _ *domain.TermsRequest) (*domain.Terms, error) {
	return &domain.Terms{ID: id}, f.record("UpdateTerms")
}

func (f *fakeBackend) DeleteTerms(context.Context, string) error { return f.record("DeleteTerms") }

func (f *fakeBackend) ListUsers(context.Context, domain.ListParams) (*domain.ListResponse[domain.User], error) {
	return &domain.ListResponse[domain.User]{}, f.record("ListUsers")
}

func (f *fakeBackend) GetUser(_ context.Context, id string) (*domain.User, error) {
	return &domain.User{ID: id}, f.record("GetUser")
}

func (f *fakeBackend) CreateUser(context.Context, *domain.UserRequest) (*domain.User, error) {
	return &domain.User{ID: f.id("op")}, f.record("CreateUser")
}

func (f *fakeBackend) UpdateUser(_ context.Context, id string, _ *domain.UserRequest) (*domain.User, error) {
	return &domain.User{ID: id}, f.record("UpdateUser")
}

func (f *fakeBackend) DeleteUser(context.Context, string) error { return f.record("DeleteUser") }

func (f *fakeBackend) Login(ctx context.Context, sc domain.SessionContext, _ *domain.LoginRequest) (*domain.LoginResponse, error) {
	if err := f.recordCtx(ctx, "Login"); err != nil {
		return nil, err
	}
	return &domain.LoginResponse{AccessToken: f.token}, nil
}

func (f *fakeBackend) ForgotPassword(context.Context, *domain.ForgotPasswordRequest) error {
	return f.record("ForgotPassword")
}

func (f *fakeBackend) ResetPassword(context.Context, *domain.ResetPasswordRequest) error {
	return f.record("ResetPassword")
}

// --- Fixtures ---

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// signToken builds a backend-style token for the given context.
func signToken(t *testing.T, secret string, sc domain.SessionContext, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":      "user-1",
		"email":    "maria@acme.com.br",
		"role":     "ClientOwner",
		"name":     "Maria",
		"clientId": "client-1",
		"exp":      exp.Unix(),
	}
	if sc != "" {
		claims["context"] = string(sc)
	}
	key := secret
	if key == "" {
		key = "unverified"
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

type harness struct {
	backend    *fakeBackend
	drafts     *cache.InMemory[domain.RegistrationDraft]
	metrics    *observability.Metrics
	sessions   *service.SessionManager
	wizard     *service.RegistrationService
	activation *service.ActivationService
	auth       *service.AuthService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	sealer, err := sessionstore.NewSealer("test-secret")
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}

	be := newFakeBackend()
	be.token = signToken(t, "", domain.ContextClient, fixedNow.Add(time.Hour))

	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	v := validation.New()

	sessions := service.NewSessionManager(sessionstore.NewMemory(time.Hour, sealer), "", 8*time.Hour, metrics, logger)
	sessions.SetClock(func() time.Time { return fixedNow })

	drafts := cache.New[domain.RegistrationDraft](time.Hour)
	wizard := service.NewRegistrationService(drafts, be, be, be, v, logger)

	activation := service.NewActivationService(wizard, service.ActivationStores{
		Clients:     be,
		ClientUsers: be,
		Terms:       be,
		ClientPlans: be,
		Periods:     be,
		Auth:        be,
	}, sessions, service.ActivationPaths{Dashboard: "/dashboard", ClientLogin: "/login"}, metrics, logger)
	activation.SetClock(func() time.Time { return fixedNow })

	return &harness{
		backend:    be,
		drafts:     drafts,
		metrics:    metrics,
		sessions:   sessions,
		wizard:     wizard,
		activation: activation,
		auth:       service.NewAuthService(be, sessions, v, logger),
	}
}

// readyDraft stores a draft that passed steps 1 to 3 and returns its id.
func (h *harness) readyDraft(t *testing.T, withPlans bool) string {
	t.Helper()
	d := domain.RegistrationDraft{
		CompanyName:  "Acme Ltda",
		OwnerName:    "Maria Souza",
		Email:        "maria@acme.com.br",
		CpfCnpj:      "11222333000181",
		Phone:        "41999998888",
		Password:     "s3cretpass",
		Address:      &domain.Address{ZipCode: "80010000", Street: "Rua XV", Number: "10", District: "Centro", City: "Curitiba", State: "PR"},
		AcceptTerms:  true,
		ClientID:     "client-1",
		ClientUserID: "user-1",
	}
	if withPlans {
		d.Plans = h.backend.plans
	}
	id := "wiz-" + t.Name()
	h.drafts.Set(id, d)
	return id
}
