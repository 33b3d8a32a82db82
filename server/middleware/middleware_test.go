package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/gotasks/auth"
	"github.com/kbukum/gotasks/auth/authctx"
	"github.com/kbukum/gotasks/auth/jwt"
	"github.com/kbukum/gotasks/logger"
	"github.com/kbukum/gotasks/server/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const secret = "middleware-test-secret-0123456789ab"

var now = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newVerifier(t *testing.T, at time.Time) (*jwt.Codec, *auth.Verifier) {
	t.Helper()
	codec, err := jwt.NewCodec(&jwt.Config{Secret: secret, TTL: time.Hour}, jwt.WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec, auth.NewVerifier(codec, auth.WithVerifierClock(func() time.Time { return at }))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v (%s)", err, rr.Body.String())
	}
	return body
}

// ---------------------------------------------------------------------------
// Authenticate
// ---------------------------------------------------------------------------

func gateRouter(v middleware.TokenVerifier, log *logger.Logger, reached *bool, seen *auth.Principal) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Authenticate(middleware.AuthConfig{
		Verifier:    v,
		PublicPaths: []string{"/auth/login", "/auth/check-*"},
		Logger:      log,
	}))
	h := func(c *gin.Context) {
		*reached = true
		p, ok := authctx.FromContext(c.Request.Context())
		if ok {
			*seen = p
		}
		c.Status(http.StatusOK)
	}
	r.GET("/tasks", h)
	r.POST("/auth/login", h)
	r.GET("/auth/check-username", h)
	return r
}

func TestAuthenticate(t *testing.T) {
	codec, _ := newVerifier(t, now)
	valid, err := codec.Issue("alice", jwt.Claims{UserID: 1})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	otherCodec, _ := jwt.NewCodec(&jwt.Config{Secret: "a-completely-different-secret-value"})
	forged, _ := otherCodec.Issue("alice", jwt.Claims{UserID: 1})

	tests := []struct {
		name        string
		method      string
		path        string
		header      string
		at          time.Time
		wantStatus  int
		wantMessage string
		wantReached bool
		wantUser    int64
	}{
		{"public exact", http.MethodPost, "/auth/login", "", now, 200, "", true, 0},
		{"public prefix", http.MethodGet, "/auth/check-username", "", now, 200, "", true, 0},
		{"missing header", http.MethodGet, "/tasks", "", now, 401, "Unauthorized: Missing or invalid token", false, 0},
		{"wrong scheme", http.MethodGet, "/tasks", "Basic " + valid, now, 401, "Unauthorized: Missing or invalid token", false, 0},
		{"empty token", http.MethodGet, "/tasks", "Bearer   ", now, 401, "Unauthorized: Missing or invalid token", false, 0},
		{"garbage token", http.MethodGet, "/tasks", "Bearer not.a.token", now, 401, "Unauthorized: Invalid token", false, 0},
		{"bad signature", http.MethodGet, "/tasks", "Bearer " + forged, now, 401, "Unauthorized: Invalid token", false, 0},
		{"expired", http.MethodGet, "/tasks", "Bearer " + valid, now.Add(2 * time.Hour), 401, "Unauthorized: Token expired", false, 0},
		{"valid", http.MethodGet, "/tasks", "Bearer " + valid, now.Add(time.Minute), 200, "", true, 1},
		{"scheme is case-insensitive", http.MethodGet, "/tasks", "bearer " + valid, now, 200, "", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, v := newVerifier(t, tt.at)
			var reached bool
			var seen auth.Principal
			r := gateRouter(v, logger.Nop(), &reached, &seen)

			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if reached != tt.wantReached {
				t.Errorf("handler reached = %v, want %v", reached, tt.wantReached)
			}
			if tt.wantMessage != "" {
				if got := decodeError(t, rr)["error"]; got != tt.wantMessage {
					t.Errorf("error = %q, want %q", got, tt.wantMessage)
				}
			}
			if seen.UserID != tt.wantUser {
				t.Errorf("principal user = %d, want %d", seen.UserID, tt.wantUser)
			}
			if tt.wantUser != 0 && seen.Username != "alice" {
				t.Errorf("principal username = %q", seen.Username)
			}
		})
	}
}

func TestAuthenticate_LogsRejection(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "debug", Format: "json"}, "test", &buf)
	codec, v := newVerifier(t, now.Add(2*time.Hour))
	token, _ := codec.Issue("alice", jwt.Claims{UserID: 1})

	var reached bool
	var seen auth.Principal
	r := gateRouter(v, log, &reached, &seen)
	req := httptest.NewRequest(http.MethodGet, "/tasks", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-Id", "req-123")
	r.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, "Request rejected", `"reason":"expired"`, `"request_id":"req-123"`, `"path":"/tasks"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
}

func TestAuthenticate_PrincipalIsRequestLocal(t *testing.T) {
	codec, v := newVerifier(t, now)
	alice, _ := codec.Issue("alice", jwt.Claims{UserID: 1})

	var reached bool
	var seen auth.Principal
	r := gateRouter(v, logger.Nop(), &reached, &seen)

	req := httptest.NewRequest(http.MethodGet, "/tasks", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+alice)
	r.ServeHTTP(httptest.NewRecorder(), req)
	if seen.UserID != 1 {
		t.Fatalf("expected alice, got %+v", seen)
	}

	seen = auth.Principal{}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/auth/login", http.NoBody))
	if seen != (auth.Principal{}) {
		t.Fatalf("principal leaked into a later request: %+v", seen)
	}
}


// ---------------------------------------------------------------------------
// RequireServiceKey
// ---------------------------------------------------------------------------

func TestRequireServiceKey(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		header string
		want   int
	}{
		{"disabled", "", "", http.StatusOK},
		{"match", "s3cret", "s3cret", http.StatusOK},
		{"missing", "s3cret", "", http.StatusUnauthorized},
		{"mismatch", "s3cret", "guess", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/internal/users/:id", middleware.RequireServiceKey(tt.key, logger.Nop()), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, "/internal/users/1", http.NoBody)
			if tt.header != "" {
				req.Header.Set(middleware.ServiceKeyHeader, tt.header)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Recovery, RequestID, CORS, BodySizeLimit
// ---------------------------------------------------------------------------

func TestRecovery_Panic(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Recovery(logger.Nop()))
	r.GET("/boom", func(*gin.Context) { panic("test panic") })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	body := decodeError(t, rr)
	if body["code"] != "INTERNAL_ERROR" {
		t.Errorf("unexpected body %v", body)
	}
	if strings.Contains(rr.Body.String(), "test panic") {
		t.Error("panic value must not leak to the client")
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	var fromCtx string
	r.GET("/", func(c *gin.Context) {
		fromCtx = logger.RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	generated := rr.Header().Get(middleware.RequestIDHeader)
	if generated == "" {
		t.Fatal("expected X-Request-Id in response headers")
	}
	if fromCtx != generated {
		t.Errorf("context id %q != header id %q", fromCtx, generated)
	}

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, "existing-id")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if got := rr.Header().Get(middleware.RequestIDHeader); got != "existing-id" {
		t.Errorf("expected existing id to be preserved, got %q", got)
	}
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{"GET", "POST"},
	}))
	r.GET("/tasks", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/tasks", http.NoBody)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("unexpected allow-origin %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/tasks", http.NoBody)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin must not be echoed, got %q", got)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"10MB", 10 << 20},
		{"512KB", 512 << 10},
		{"2GB", 2 << 30},
		{"1024", 1024},
		{"  10mb  ", 10 << 20},
		{"100B", 100},
		{"", 7},
		{"lots", 7},
		{"-5MB", 7},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := middleware.ParseSize(tt.input, 7); got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestBodySizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(middleware.BodySizeLimit("8B"))
	r.POST("/", func(c *gin.Context) {
		var v map[string]any
		if err := c.ShouldBindJSON(&v); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"far too long"}`)))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected oversized body to fail, got %d", rr.Code)
	}
}
