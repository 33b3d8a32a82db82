package errors

import (
	stderrors "errors"
)

// ErrorResponse is the JSON body returned to clients on failure.
type ErrorResponse struct {
	Error     string         `json:"error"`
	Code      ErrorCode      `json:"code"`
	Retryable bool           `json:"retryable,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToResponse converts an AppError to an ErrorResponse for JSON serialization.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:     e.Message,
		Code:      e.Code,
		Retryable: e.Retryable,
		Details:   e.Details,
	}
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
