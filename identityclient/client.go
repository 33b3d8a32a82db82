// Package identityclient lets the task service confirm that a user exists
// by calling the identity service's internal lookup.
package identityclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/kbukum/gotasks/errors"
	"github.com/kbukum/gotasks/httpclient"
	"github.com/kbukum/gotasks/logger"
	"github.com/kbukum/gotasks/observability"
	"github.com/kbukum/gotasks/resilience"
	"github.com/kbukum/gotasks/server/middleware"
)

const serviceName = "identity service"

// UserSummary is the identity service's answer for a known user.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Client calls GET /internal/users/{id} on the identity service.
type Client struct {
	http    *httpclient.Client
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
	metrics *observability.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics records check outcomes and latency on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a client from cfg.
func New(cfg Config, log *logger.Logger, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("identityclient")

	httpCfg := httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		TLS:     &cfg.TLS,
	}
	if cfg.ServiceKey != "" {
		httpCfg.Auth = httpclient.HeaderAuth(middleware.ServiceKeyHeader, cfg.ServiceKey)
	}
	hc, err := httpclient.New(httpCfg)
	if err != nil {
		return nil, fmt.Errorf("identityclient: %w", err)
	}

	breakerCfg := cfg.Breaker
	breakerCfg.Name = "identity"
	breakerCfg.IsFailure = func(err error) bool {
		return err != nil && !httpclient.IsNotFound(err)
	}
	breakerCfg.OnStateChange = func(name string, from, to resilience.State) {
		log.Warn("Circuit breaker state changed", map[string]interface{}{
			"breaker": name,
			"from":    from.String(),
			"to":      to.String(),
		})
	}

	c := &Client{
		http:    hc,
		breaker: resilience.NewCircuitBreaker(breakerCfg),
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ConfirmUserExists asks the identity service whether userID is a known
// user. It returns NotFound when the identity service says no, and
// DependencyUnavailable for every other failure, including timeouts,
// connection errors, 5xx answers and an open circuit.
func (c *Client) ConfirmUserExists(ctx context.Context, userID int64) (user *UserSummary, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanIdentityConfirm,
		attribute.Int64(observability.AttrUserID, userID))
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	log := c.log.WithContext(ctx)
	path := "/internal/users/" + strconv.FormatInt(userID, 10)

	var opts []httpclient.RequestOption
	if id := logger.RequestIDFromContext(ctx); id != "" {
		opts = append(opts, httpclient.WithHeader(middleware.RequestIDHeader, id))
	}

	var resp *httpclient.TypedResponse[UserSummary]
	callErr := c.breaker.Execute(func() error {
		var err error
		resp, err = httpclient.Get[UserSummary](c.http, ctx, path, opts...)
		return err
	})

	switch {
	case callErr == nil && resp.Data.ID == userID:
		c.metrics.RecordIdentityCheck(ctx, "confirmed", time.Since(start))
		return &resp.Data, nil
	case callErr == nil:
		callErr = fmt.Errorf("identity service answered for user %d with user %d", userID, resp.Data.ID)
	case httpclient.IsNotFound(callErr):
		c.metrics.RecordIdentityCheck(ctx, "not_found", time.Since(start))
		return nil, apperrors.NotFound("user", strconv.FormatInt(userID, 10)).WithCause(callErr)
	}

	c.metrics.RecordIdentityCheck(ctx, "unavailable", time.Since(start))
	log.Warn("Identity check failed", map[string]interface{}{
		logger.FieldUserID: userID,
		logger.FieldReason: reason(callErr),
		logger.FieldError:  callErr.Error(),
	})
	return nil, apperrors.DependencyUnavailable(serviceName, callErr)
}

// BreakerState exposes the circuit state for health reporting.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// CheckHealth reports degraded while the circuit is not closed.
func (c *Client) CheckHealth(context.Context) observability.Health {
	state := c.breaker.State()
	if state == resilience.StateClosed {
		return observability.Health{Name: "identity", Status: observability.HealthStatusUp}
	}
	return observability.Health{
		Name:    "identity",
		Status:  observability.HealthStatusDegraded,
		Message: "circuit " + state.String(),
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case httpclient.IsTimeout(err):
		return "timeout"
	case httpclient.IsConnection(err):
		return "connection"
	case httpclient.IsServerError(err):
		return "server_error"
	default:
		return "unexpected_response"
	}
}
