package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/boddenberg/saas-admin-bfa-go/internal/infra/observability"
	"github.com/boddenberg/saas-admin-bfa-go/internal/infra/sessionstore"
	"github.com/boddenberg/saas-admin-bfa-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var sessionTracer = otel.Tracer("service/session")

// Reasons a stored session is rejected.
const (
	rejectMissing = "missing"
	rejectDecode  = "decode"
	rejectContext = "context"
	rejectExpired = "expired"
)

const msgSessionExpired = "Sessão expirada. Faça login novamente."

// tokenClaims is the payload layout of backend-issued tokens.
type tokenClaims struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	CpfCnpj  string `json:"cpfCnpj"`
	Name     string `json:"name"`
	Context  string `json:"context"`
	ClientID string `json:"clientId"`
	jwt.RegisteredClaims
}

// SessionManager stores one bearer token per browser session and context,
// and turns it back into typed claims on every request. CLIENT and
// BACKOFFICE slots never share state.
type SessionManager struct {
	slots     port.TokenStore
	jwtSecret []byte
	maxTTL    time.Duration
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewSessionManager creates a session manager. When jwtSecret is empty the
// token signature is not checked; the backend is the issuer and the BFA
// only reads the claims.
func NewSessionManager(slots port.TokenStore, jwtSecret string, maxTTL time.Duration, metrics *observability.Metrics, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		slots:     slots,
		jwtSecret: []byte(jwtSecret),
		maxTTL:    maxTTL,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (m *SessionManager) SetClock(now func() time.Time) {
	m.now = now
}

func slotKey(sid string, sc domain.SessionContext) string {
	return sid + ":" + string(sc)
}

// Decode parses a token into claims. It checks the signature only when a
// secret is configured and never checks expiry; callers compare Exp.
func (m *SessionManager) Decode(token string) (domain.Claims, error) {
	var tc tokenClaims
	if len(m.jwtSecret) > 0 {
		_, err := jwt.ParseWithClaims(token, &tc, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.jwtSecret, nil
		}, jwt.WithoutClaimsValidation())
		if err != nil {
			return domain.Claims{}, err
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
			return domain.Claims{}, err
		}
	}

	if tc.ExpiresAt == nil {
		return domain.Claims{}, errors.New("token has no exp claim")
	}

	claims := domain.Claims{
		Sub:      tc.Subject,
		Email:    tc.Email,
		Role:     tc.Role,
		CpfCnpj:  tc.CpfCnpj,
		Name:     tc.Name,
		ClientID: tc.ClientID,
		Exp:      tc.ExpiresAt.Unix(),
	}
	if tc.Context != "" {
		sc, ok := domain.ParseSessionContext(tc.Context)
		if !ok {
			return domain.Claims{}, fmt.Errorf("unknown context claim %q", tc.Context)
		}
		claims.Context = sc
	}
	return claims, nil
}

// check applies the context and expiry rules to decoded claims.
func (m *SessionManager) check(sc domain.SessionContext, claims domain.Claims) string {
	if claims.Context != "" && claims.Context != sc {
		return rejectContext
	}
	if claims.Expired(m.now()) {
		return rejectExpired
	}
	return ""
}

// Establish decodes token and stores it in the slot of (sid, sc). Tokens
// that do not decode, belong to another context or are already expired are
// refused and nothing is stored.
func (m *SessionManager) Establish(ctx context.Context, sid string, sc domain.SessionContext, token string) (*domain.Session, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionManager.Establish")
	defer span.End()
	span.SetAttributes(attribute.String("session.context", string(sc)))

	claims, err := m.Decode(token)
	if err != nil {
		m.logger.Warn("refusing undecodable token", zap.String("context", string(sc)), zap.Error(err))
		return nil, &domain.ErrUnauthorized{Message: "Token inválido"}
	}
	if reason := m.check(sc, claims); reason != "" {
		m.logger.Warn("refusing token", zap.String("context", string(sc)), zap.String("reason", reason))
		return nil, &domain.ErrUnauthorized{Message: "Token inválido"}
	}

	ttl := claims.ExpiresAt().Sub(m.now())
	if m.maxTTL > 0 && ttl > m.maxTTL {
		ttl = m.maxTTL
	}
	if err := m.slots.Set(ctx, slotKey(sid, sc), token, ttl); err != nil {
		return nil, &domain.ErrExternalService{Service: "session-store", Err: err}
	}

	return &domain.Session{Context: sc, Token: token, Claims: claims}, nil
}

// Load returns the live session of (sid, sc). It fails closed: a slot that
// does not decode, carries another context or has expired is deleted and
// the caller gets ErrUnauthorized.
func (m *SessionManager) Load(ctx context.Context, sid string, sc domain.SessionContext) (*domain.Session, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionManager.Load")
	defer span.End()
	span.SetAttributes(attribute.String("session.context", string(sc)))

	if sid == "" {
		return nil, m.reject(sc, rejectMissing)
	}

	key := slotKey(sid, sc)
	token, ok, err := m.slots.Get(ctx, key)
	if errors.Is(err, sessionstore.ErrTampered) {
		// the store already dropped the slot
		return nil, m.reject(sc, rejectDecode)
	}
	if err != nil {
		m.logger.Error("session store read failed", zap.String("context", string(sc)), zap.Error(err))
		return nil, &domain.ErrExternalService{Service: "session-store", Err: err}
	}
	if !ok {
		return nil, m.reject(sc, rejectMissing)
	}

	claims, err := m.Decode(token)
	if err != nil {
		m.drop(ctx, key)
		return nil, m.reject(sc, rejectDecode)
	}
	if reason := m.check(sc, claims); reason != "" {
		m.drop(ctx, key)
		return nil, m.reject(sc, reason)
	}

	return &domain.Session{Context: sc, Token: token, Claims: claims}, nil
}

// Clear removes the slot of (sid, sc). The other context is untouched.
func (m *SessionManager) Clear(ctx context.Context, sid string, sc domain.SessionContext) error {
	if sid == "" {
		return nil
	}
	if err := m.slots.Delete(ctx, slotKey(sid, sc)); err != nil {
		return &domain.ErrExternalService{Service: "session-store", Err: err}
	}
	return nil
}

// Ping checks the slot store.
func (m *SessionManager) Ping(ctx context.Context) error {
	return m.slots.Ping(ctx)
}

func (m *SessionManager) drop(ctx context.Context, key string) {
	if err := m.slots.Delete(ctx, key); err != nil {
		m.logger.Warn("failed to delete rejected session slot", zap.Error(err))
	}
}

func (m *SessionManager) reject(sc domain.SessionContext, reason string) error {
	m.metrics.IncrSessionRejection(string(sc), reason)
	if reason == rejectMissing {
		return &domain.ErrUnauthorized{Message: "Sessão não encontrada"}
	}
	return &domain.ErrUnauthorized{Message: msgSessionExpired}
}

// SessionResponse is the public view of a session.
func SessionResponse(s *domain.Session) *domain.SessionResponse {
	return &domain.SessionResponse{
		Context:   s.Context,
		Claims:    s.Claims,
		ExpiresAt: s.Claims.ExpiresAt().UTC(),
	}
}
