package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Meter returns the package meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics holds the instruments recorded by both services.
// A nil *Metrics records nothing.
type Metrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	rejectionTotal  metric.Int64Counter
	loginTotal      metric.Int64Counter
	identityChecks  metric.Int64Counter
	identityLatency metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requestTotal, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.server.requests counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.server.duration histogram: %w", err)
	}

	rejectionTotal, err := meter.Int64Counter("auth.rejections",
		metric.WithDescription("Requests refused by the authentication gate, by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.rejections counter: %w", err)
	}

	loginTotal, err := meter.Int64Counter("auth.logins",
		metric.WithDescription("Login attempts by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.logins counter: %w", err)
	}

	identityChecks, err := meter.Int64Counter("identity.checks",
		metric.WithDescription("Owner existence checks against the identity service, by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating identity.checks counter: %w", err)
	}

	identityLatency, err := meter.Float64Histogram("identity.check.duration",
		metric.WithDescription("Duration of owner existence checks in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating identity.check.duration histogram: %w", err)
	}

	return &Metrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		rejectionTotal:  rejectionTotal,
		loginTotal:      loginTotal,
		identityChecks:  identityChecks,
		identityLatency: identityLatency,
	}, nil
}

// RecordRequest records a completed HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
	))
}

// RecordRejection counts a request refused by the authentication gate.
func (m *Metrics) RecordRejection(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.rejectionTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordLogin counts a login attempt ("success" or "failure").
func (m *Metrics) RecordLogin(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.loginTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordIdentityCheck records an owner existence check.
func (m *Metrics) RecordIdentityCheck(ctx context.Context, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.identityChecks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.identityLatency.Record(ctx, duration.Seconds())
}
