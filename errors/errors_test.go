package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Retryable(t *testing.T) {
	if New(ErrCodeNotFound, "not found", http.StatusNotFound).Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
	if !New(ErrCodeTimeout, "timed out", http.StatusGatewayTimeout).Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAuthConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
		prefix string
	}{
		{"missing header", Unauthorized(""), ErrCodeUnauthorized, http.StatusUnauthorized, "Unauthorized: Missing or invalid token"},
		{"auth failure", AuthFailure(), ErrCodeAuthFailure, http.StatusUnauthorized, "Unauthorized:"},
		{"expired", TokenExpired(), ErrCodeTokenExpired, http.StatusUnauthorized, "Unauthorized: Token expired"},
		{"invalid", InvalidToken(), ErrCodeInvalidToken, http.StatusUnauthorized, "Unauthorized: Invalid token"},
		{"ownership", OwnershipViolation("task"), ErrCodeForbidden, http.StatusForbidden, "Forbidden: You do not own this task"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, tc.err.HTTPStatus)
			}
			if !strings.HasPrefix(tc.err.Message, tc.prefix) {
				t.Errorf("expected message starting %q, got %q", tc.prefix, tc.err.Message)
			}
			if tc.err.Retryable {
				t.Error("auth errors must not be retryable")
			}
		})
	}
}

func TestDependencyUnavailable(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := DependencyUnavailable("identity service", cause)
	if err.HTTPStatus != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", err.HTTPStatus)
	}
	if !err.Retryable {
		t.Error("dependency failures are retryable")
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be unwrappable")
	}
}

func TestAppError_IsMatchesCode(t *testing.T) {
	wrapped := fmt.Errorf("get task: %w", NotFound("task", "9"))
	if !stderrors.Is(wrapped, NotFound("", "")) {
		t.Error("expected errors.Is to match on code")
	}
	if stderrors.Is(wrapped, OwnershipViolation("task")) {
		t.Error("different codes must not match")
	}
	if !HasCode(wrapped, ErrCodeNotFound) {
		t.Error("HasCode should see through wrapping")
	}
}

func TestNotFoundDetails(t *testing.T) {
	err := NotFound("user", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
	if err.Details["resource"] != "user" {
		t.Errorf("expected resource=user, got %v", err.Details["resource"])
	}
}

func TestToResponse_WireShape(t *testing.T) {
	data, err := json.Marshal(Unauthorized("").ToResponse())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["error"] != "Unauthorized: Missing or invalid token" {
		t.Errorf("unexpected error field %v", body["error"])
	}
	if body["code"] != string(ErrCodeUnauthorized) {
		t.Errorf("unexpected code field %v", body["code"])
	}
	if _, ok := body["retryable"]; ok {
		t.Error("retryable=false should be omitted")
	}
}

func TestAppError_ErrorString(t *testing.T) {
	err := Internal(fmt.Errorf("disk full"))
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected cause in Error(), got %q", err.Error())
	}
	if _, ok := AsAppError(fmt.Errorf("plain")); ok {
		t.Error("plain errors are not AppErrors")
	}
}
