package observability

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/gotasks/logger"
)

const instrumentationName = "github.com/kbukum/gotasks"

// Common span names.
const (
	SpanLogin           = "identity.login"
	SpanRegister        = "identity.register"
	SpanVerifyToken     = "auth.verify"
	SpanIdentityConfirm = "identity.confirm_user"
	SpanTaskCreate      = "task.create"
)

// Common attribute keys.
const (
	AttrRequestID  = "request.id"
	AttrUserID     = "user.id"
	AttrUsername   = "user.name"
	AttrTaskID     = "task.id"
	AttrRejection  = "auth.rejection"
	AttrHTTPStatus = "http.status_code"
)

// ShutdownFunc flushes and stops the exporters.
type ShutdownFunc func(ctx context.Context) error

// Setup installs the global tracer and meter providers according to cfg.
// With both exporters disabled it returns a no-op shutdown.
func Setup(ctx context.Context, cfg Config, svc ServiceInfo, log *logger.Logger) (ShutdownFunc, error) {
	var shutdowns []ShutdownFunc
	shutdown := func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdowns {
			errs = append(errs, fn(ctx))
		}
		return stderrors.Join(errs...)
	}

	if !cfg.Enabled && !cfg.MetricsEnabled {
		return shutdown, nil
	}
	res := newResource(svc)

	if cfg.Enabled {
		tp, err := InitTracer(ctx, cfg, res)
		if err != nil {
			return nil, err
		}
		shutdowns = append(shutdowns, tp.Shutdown)
		log.Info("Tracer initialized", logger.Fields(
			"endpoint", cfg.Endpoint,
			"sample_rate", cfg.SampleRate,
		))
	}
	if cfg.MetricsEnabled {
		mp, err := InitMeter(ctx, cfg, res)
		if err != nil {
			_ = shutdown(ctx)
			return nil, err
		}
		shutdowns = append(shutdowns, mp.Shutdown)
		log.Info("Meter initialized", logger.Fields(
			"endpoint", cfg.Endpoint,
			"interval", cfg.MetricsInterval.String(),
		))
	}
	return shutdown, nil
}

// InitTracer creates an OTLP/HTTP tracer provider and installs it globally.
func InitTracer(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SampleRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}

// InitMeter creates an OTLP/HTTP meter provider and installs it globally.
func InitMeter(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricsInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

func samplerFor(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

func newResource(svc ServiceInfo) *resource.Resource {
	attrs := []attribute.KeyValue{attribute.String("service.name", svc.Name)}
	if svc.Version != "" {
		attrs = append(attrs, attribute.String("service.version", svc.Version))
	}
	if svc.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment", svc.Environment))
	}
	return resource.NewSchemaless(attrs...)
}

// Tracer returns the package tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// StartSpan starts a new span using the package tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// SetSpanAttribute sets an attribute on the current span in context.
func SetSpanAttribute(ctx context.Context, key string, value any) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	switch v := value.(type) {
	case string:
		span.SetAttributes(attribute.String(key, v))
	case int:
		span.SetAttributes(attribute.Int(key, v))
	case int64:
		span.SetAttributes(attribute.Int64(key, v))
	case float64:
		span.SetAttributes(attribute.Float64(key, v))
	case bool:
		span.SetAttributes(attribute.Bool(key, v))
	}
}
