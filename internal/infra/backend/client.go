// Package backend talks to the SaaS backend REST API (JSON over HTTPS).
// It is the single transport used by every resource store: bearer injection,
// status remapping, circuit breaking and read-only retries live here.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/boddenberg/saas-admin-bfa-go/internal/domain"
	"github.com/boddenberg/saas-admin-bfa-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("backend")

const serviceName = "backend"

// Messages shown to the user for remapped upstream statuses.
const (
	MsgInvalidCredentials = "Credenciais inválidas"
	MsgAccessDenied       = "Acesso negado"
	MsgAlreadyExists      = "Registro já existente"
	MsgInternalError      = "Erro interno do servidor"
	MsgGenericFailure     = "Não foi possível concluir a operação. Tente novamente."
)

// ErrorRecorder receives a count for every failed backend call.
type ErrorRecorder interface {
	IncrUpstreamError(resource, status string)
}

// ============================================================
// Bearer propagation
// ============================================================

type bearerKey struct{}

// WithBearer returns a context whose backend calls carry the given token.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

// BearerFrom returns the token attached by WithBearer, if any.
func BearerFrom(ctx context.Context) string {
	token, _ := ctx.Value(bearerKey{}).(string)
	return token
}

// ============================================================
// Client
// ============================================================

// Client wraps HTTP calls to the backend API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
	errors     ErrorRecorder
	logger     *zap.Logger
}

// NewClient creates a backend client. errs may be nil.
func NewClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, errs ErrorRecorder, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:        cfg,
		errors:     errs,
		logger:     logger,
	}
}

// BreakerState reports the circuit breaker state for health checks.
func (c *Client) BreakerState() gobreaker.State {
	return c.cb.State()
}

// IsBreakerSuccess tells the circuit breaker which outcomes are healthy.
// Answers below 500 mean the backend is up, so only 5xx and transport
// failures count against it.
func IsBreakerSuccess(err error) bool {
	return err == nil || isClientError(err)
}

// UpstreamMessage maps a backend status to the message shown to the user.
// fallback is used for statuses without a fixed message; empty means generic.
func UpstreamMessage(status int, fallback string) string {
	switch status {
	case http.StatusUnauthorized:
		return MsgInvalidCredentials
	case http.StatusForbidden:
		return MsgAccessDenied
	case http.StatusConflict:
		return MsgAlreadyExists
	case http.StatusInternalServerError:
		return MsgInternalError
	}
	if fallback != "" {
		return fallback
	}
	return MsgGenericFailure
}

// get issues a read. Reads go through the retry loop; client errors are permanent.
// It returns found=false on 204 or an empty/null body.
func (c *Client) get(ctx context.Context, resource, path string, query url.Values, out any) (bool, error) {
	body, err := c.call(ctx, http.MethodGet, resource, path, query, nil, true)
	if err != nil {
		return false, err
	}
	if isEmptyBody(body) {
		return false, nil
	}
	return true, c.decode(resource, body, out)
}

// send issues a write (POST, PATCH, DELETE). Writes are never retried.
func (c *Client) send(ctx context.Context, method, resource, path string, in, out any) error {
	body, err := c.call(ctx, method, resource, path, nil, in, false)
	if err != nil {
		return err
	}
	if isEmptyBody(body) {
		return nil
	}
	return c.decode(resource, body, out)
}

// decode runs outside the breaker: a malformed answer is not an outage.
func (c *Client) decode(resource string, body []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.recordError(resource, "decode")
		return &domain.ErrExternalService{Service: serviceName + "/" + resource, Err: fmt.Errorf("decode %s: %w", resource, err)}
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, resource, path string, query url.Values, in any, retry bool) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Backend."+method+" "+resource)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("backend.path", path),
	)

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, &domain.ErrExternalService{Service: serviceName + "/" + resource, Err: err}
	}
	defer c.bulkhead.Release()

	var body []byte
	_, err := c.cb.Execute(func() (any, error) {
		if !retry {
			b, err := c.doRequest(ctx, method, path, query, in)
			body = b
			return nil, err
		}
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			b, err := c.doRequest(ctx, method, path, query, in)
			if isClientError(err) {
				return resilience.Permanent(err)
			}
			body = b
			return err
		})
	})
	if err == nil {
		return body, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, c.classify(resource, err)
}

// classify turns breaker, transport and status errors into domain errors.
func (c *Client) classify(resource string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.recordError(resource, "circuit_open")
		return &domain.ErrCircuitOpen{Service: serviceName}
	}

	var up *domain.ErrUpstream
	if errors.As(err, &up) {
		up.Resource = resource
		c.recordError(resource, strconv.Itoa(up.Status/100)+"xx")
		return up
	}
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		nf.Resource = resource
		return nf
	}

	c.recordError(resource, "transport")
	return &domain.ErrExternalService{Service: serviceName + "/" + resource, Err: err}
}

func (c *Client) recordError(resource, status string) {
	if c.errors != nil {
		c.errors.IncrUpstreamError(resource, status)
	}
}

// doRequest executes one authenticated request against the backend.
// A 404 becomes ErrNotFound, any other non-2xx an ErrUpstream.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, in any) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		c.logger.Error("backend: failed to create request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := BearerFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("backend: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("backend: failed to read response body",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, &domain.ErrNotFound{}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("backend: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &domain.ErrUpstream{
			Status:  resp.StatusCode,
			Message: UpstreamMessage(resp.StatusCode, bodyMessage(body)),
		}
	}

	c.logger.Debug("backend: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return body, nil
}

// bodyMessage extracts {"message": "..."} from an error body. NestJS style
// validation answers send message as a list; the first entry is used.
func bodyMessage(body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Message) == 0 {
		return ""
	}
	var msg string
	if err := json.Unmarshal(payload.Message, &msg); err == nil {
		return msg
	}
	var list []string
	if err := json.Unmarshal(payload.Message, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

func isEmptyBody(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// isClientError reports answers that a retry cannot change.
func isClientError(err error) bool {
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		return true
	}
	var up *domain.ErrUpstream
	return errors.As(err, &up) && up.Status < http.StatusInternalServerError
}
