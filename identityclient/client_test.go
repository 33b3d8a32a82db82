package identityclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kbukum/gotasks/errors"
	"github.com/kbukum/gotasks/logger"
	"github.com/kbukum/gotasks/observability"
	"github.com/kbukum/gotasks/resilience"
	"github.com/kbukum/gotasks/security"
	"github.com/kbukum/gotasks/security/tlstest"
	"github.com/kbukum/gotasks/server/middleware"
)

func newClient(t *testing.T, baseURL string, mutate func(*Config)) *Client {
	t.Helper()
	cfg := Config{BaseURL: baseURL, ServiceKey: "svc-key"}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func wantAppError(t *testing.T, err error, status int) *apperrors.AppError {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("error = %v, want AppError", err)
	}
	if appErr.HTTPStatus != status {
		t.Fatalf("status = %d, want %d (%v)", appErr.HTTPStatus, status, err)
	}
	return appErr
}

func TestConfirmUserExists_Confirmed(t *testing.T) {
	var gotKey, gotRequestID, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(middleware.ServiceKeyHeader)
		gotRequestID = r.Header.Get(middleware.RequestIDHeader)
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":42,"username":"alice"}`))
	}))
	defer srv.Close()

	ctx := logger.ContextWithRequestID(context.Background(), "req-1")
	user, err := newClient(t, srv.URL, nil).ConfirmUserExists(ctx, 42)
	if err != nil {
		t.Fatalf("ConfirmUserExists() error = %v", err)
	}
	if user.ID != 42 || user.Username != "alice" {
		t.Errorf("user = %+v", user)
	}
	if gotPath != "/internal/users/42" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "svc-key" {
		t.Errorf("service key header = %q", gotKey)
	}
	if gotRequestID != "req-1" {
		t.Errorf("request id header = %q", gotRequestID)
	}
}

func TestConfirmUserExists_NotFoundDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"The requested user was not found.","code":"NOT_FOUND"}`))
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, func(cfg *Config) { cfg.Breaker.MaxFailures = 1 })
	for i := 0; i < 3; i++ {
		_, err := c.ConfirmUserExists(context.Background(), 7)
		appErr := wantAppError(t, err, http.StatusNotFound)
		if appErr.Code != apperrors.ErrCodeNotFound {
			t.Errorf("code = %q", appErr.Code)
		}
	}
	if c.BreakerState() != resilience.StateClosed {
		t.Errorf("breaker = %s, want closed", c.BreakerState())
	}
}

func TestConfirmUserExists_Unavailable(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	unauthorized := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer unauthorized.Close()

	wrongUser := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":99,"username":"mallory"}`))
	}))
	defer wrongUser.Close()

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	tests := []struct {
		name    string
		baseURL string
	}{
		{"timeout", slow.URL},
		{"server error", failing.URL},
		{"rejected service key", unauthorized.URL},
		{"mismatched user", wrongUser.URL},
		{"unreachable", closedURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, tt.baseURL, func(cfg *Config) { cfg.Timeout = 100 * time.Millisecond })
			user, err := c.ConfirmUserExists(context.Background(), 42)
			if user != nil {
				t.Fatalf("user = %+v, want nil", user)
			}
			appErr := wantAppError(t, err, http.StatusServiceUnavailable)
			if appErr.Code != apperrors.ErrCodeServiceUnavailable || !appErr.Retryable {
				t.Errorf("error = %+v, want retryable SERVICE_UNAVAILABLE", appErr)
			}
		})
	}
}

func TestConfirmUserExists_BreakerFailsFast(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL, func(cfg *Config) {
		cfg.Breaker.MaxFailures = 2
		cfg.Breaker.OpenTimeout = time.Hour
	})
	for i := 0; i < 4; i++ {
		_, err := c.ConfirmUserExists(context.Background(), 1)
		wantAppError(t, err, http.StatusServiceUnavailable)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("server hits = %d, want 2", got)
	}
	if c.BreakerState() != resilience.StateOpen {
		t.Errorf("breaker = %s, want open", c.BreakerState())
	}

	_, err := c.ConfirmUserExists(context.Background(), 1)
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Errorf("error = %v, want wrapping ErrCircuitOpen", err)
	}
	if h := c.CheckHealth(context.Background()); h.Status != observability.HealthStatusDegraded {
		t.Errorf("health = %+v, want degraded", h)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", cfg.Timeout)
	}
	if cfg.Breaker.MaxFailures != 5 {
		t.Errorf("Breaker.MaxFailures = %d, want 5", cfg.Breaker.MaxFailures)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfirmUserExists_MutualTLS(t *testing.T) {
	pki := tlstest.Generate(t)
	serverTLS := security.ServerConfig{CertFile: pki.ServerCert, KeyFile: pki.ServerKey, ClientCAFile: pki.CAFile}
	tlsCfg, err := serverTLS.Build()
	if err != nil {
		t.Fatalf("server tls: %v", err)
	}
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":7,"username":"alice"}`))
	}))
	srv.TLS = tlsCfg
	srv.StartTLS()
	defer srv.Close()

	noCert := newClient(t, srv.URL, func(c *Config) {
		c.TLS = security.ClientConfig{CAFile: pki.CAFile}
	})
	_, err = noCert.ConfirmUserExists(context.Background(), 7)
	wantAppError(t, err, http.StatusServiceUnavailable)

	withCert := newClient(t, srv.URL, func(c *Config) {
		c.TLS = security.ClientConfig{CAFile: pki.CAFile, CertFile: pki.ClientCert, KeyFile: pki.ClientKey}
	})
	user, err := withCert.ConfirmUserExists(context.Background(), 7)
	if err != nil {
		t.Fatalf("ConfirmUserExists() error = %v", err)
	}
	if user.ID != 7 {
		t.Errorf("user = %+v", user)
	}
}

func TestConfig_RejectsHalfClientCert(t *testing.T) {
	cfg := Config{BaseURL: "https://identity:8081", TLS: security.ClientConfig{CertFile: "client.pem"}}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for cert_file without key_file")
	}
}
