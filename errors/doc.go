// Package errors provides the shared error taxonomy of the identity and task
// services. Every failure that reaches an HTTP boundary is an *AppError
// carrying a machine-readable code, an HTTP status, and the human-readable
// message sent to clients as {"error": "<message>", "code": "<CODE>"}.
package errors
