// Package server provides the HTTP server shared by the identity and task
// services: Gin served over h2c, with graceful start and stop.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: request ID generation and propagation into the logger
//   - CORS and BodySizeLimit
//   - RequestLogger: request logging with latency and metrics
//   - Authenticate: the bearer-token gate binding the Principal
//   - RequireServiceKey: shared-key guard for internal routes
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: component health aggregation
//   - /info: build version information
//
// Success bodies are the resource JSON itself; failures are
// {"error": "<message>", "code": "<CODE>"}.
package server
