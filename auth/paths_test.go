package auth

import "testing"

func TestPathMatcher(t *testing.T) {
	m := NewPathMatcher("/auth/login", "/auth/register", "/auth/check-*", "/health")
	tests := map[string]bool{
		"/auth/login":          true,
		"/auth/register":       true,
		"/auth/check-username": true,
		"/auth/check-email":    true,
		"/health":              true,
		"/auth/login/extra":    false,
		"/auth/logout":         false,
		"/tasks":               false,
		"/users/me":            false,
	}
	for path, want := range tests {
		if got := m.Match(path); got != want {
			t.Errorf("Match(%q) = %v, want %v", path, got, want)
		}
	}
}
