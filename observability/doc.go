// Package observability provides OpenTelemetry tracing and metrics integration.
//
// Tracing and metrics are both optional. When disabled the global no-op
// providers stay in place and every helper in this package is safe to call.
//
//	shutdown, err := observability.Setup(ctx, cfg, observability.ServiceInfo{Name: "task-service"}, log)
//	defer shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanIdentityConfirm)
//	defer span.End()
//
// Health checks:
//
//	health := observability.NewServiceHealth("task-service", "1.0.0")
//	health.AddComponent(db.CheckHealth(ctx))
package observability
