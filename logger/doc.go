// Package logger provides structured logging for the identity and task
// services using zerolog.
//
// Fields are passed as maps so call sites stay free of zerolog types:
//
//	log := logger.New(&cfg, "identity-service").WithComponent("issuer")
//	log.Info("login succeeded", logger.Fields("user_id", 42))
//
// Request-scoped values (request id, user id) travel on the context and are
// attached with WithContext.
package logger
