package identity

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/gotasks/auth"
	"github.com/kbukum/gotasks/auth/jwt"
	"github.com/kbukum/gotasks/auth/password"
	apperrors "github.com/kbukum/gotasks/errors"
	"github.com/kbukum/gotasks/logger"
	"github.com/kbukum/gotasks/observability"
	"github.com/kbukum/gotasks/validation"
)

// dummyPassword seeds the hash verified for unknown usernames so both
// login failures cost one hash comparison.
const dummyPassword = "timing-equalizer-password"

// Service implements the identity operations.
type Service struct {
	store     Store
	hasher    password.Hasher
	codec     *jwt.Codec
	log       *logger.Logger
	metrics   *observability.Metrics
	dummyHash string
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records login outcomes on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService wires the identity service.
func NewService(store Store, hasher password.Hasher, codec *jwt.Codec, log *logger.Logger, opts ...Option) (*Service, error) {
	dummy, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		store:     store,
		hasher:    hasher,
		codec:     codec,
		log:       log.WithComponent("identity"),
		dummyHash: dummy,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Login checks the credentials and issues a token. Unknown usernames and
// wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, username, plain string) (result *LoginResult, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanLogin,
		attribute.String(observability.AttrUsername, username))
	defer func() { observability.EndSpan(span, err) }()

	log := s.log.WithContext(ctx)

	u, err := s.store.FindByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		s.hasher.Verify(plain, s.dummyHash)
		return nil, s.loginFailed(ctx, log, username, "unknown_user")
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(plain, u.PasswordHash) {
		return nil, s.loginFailed(ctx, log, username, "bad_password")
	}

	token, err := s.codec.Issue(u.Username, jwt.Claims{UserID: u.ID})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.metrics.RecordLogin(ctx, "success")
	observability.SetSpanAttribute(ctx, observability.AttrUserID, u.ID)
	log.Info("Login succeeded", map[string]interface{}{
		logger.FieldUserID:   u.ID,
		logger.FieldUsername: u.Username,
	})
	return &LoginResult{Token: token, UserID: u.ID, Username: u.Username}, nil
}

func (s *Service) loginFailed(ctx context.Context, log *logger.Logger, username, reason string) error {
	s.metrics.RecordLogin(ctx, "failure")
	log.Warn("Login failed", map[string]interface{}{
		logger.FieldUsername: username,
		logger.FieldReason:   reason,
	})
	return apperrors.AuthFailure()
}

// Register creates a user account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (summary *UserSummary, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanRegister,
		attribute.String(observability.AttrUsername, req.Username))
	defer func() { observability.EndSpan(span, err) }()

	req.Email = normalizeEmail(req.Email)
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	if taken, err := s.store.UsernameExists(ctx, req.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, apperrors.AlreadyExists("user", "username")
	}
	if taken, err := s.store.EmailExists(ctx, req.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, apperrors.AlreadyExists("user", "email")
	}

	hash, err := s.hasher.Hash(req.Password)
	if errors.Is(err, password.ErrTooShort) || errors.Is(err, password.ErrTooLong) {
		return nil, apperrors.InvalidInput("password", err.Error())
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	u := &User{Username: req.Username, Email: req.Email, PasswordHash: hash}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}

	s.log.WithContext(ctx).Info("User registered", map[string]interface{}{
		logger.FieldUserID:   u.ID,
		logger.FieldUsername: u.Username,
	})
	return u.Summary(), nil
}

// UsernameAvailable reports whether username is free.
func (s *Service) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, apperrors.InvalidInput("username", "username is required")
	}
	taken, err := s.store.UsernameExists(ctx, username)
	return !taken, err
}

// EmailAvailable reports whether email is free.
func (s *Service) EmailAvailable(ctx context.Context, email string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, apperrors.InvalidInput("email", "email is required")
	}
	taken, err := s.store.EmailExists(ctx, email)
	return !taken, err
}

// GetUser returns user id, which must be the caller.
func (s *Service) GetUser(ctx context.Context, p auth.Principal, id int64) (*UserSummary, error) {
	if id != p.UserID {
		s.log.WithContext(ctx).Warn("Profile access denied", map[string]interface{}{
			logger.FieldUserID: p.UserID,
			"target_user_id":   id,
		})
		return nil, apperrors.OwnershipViolation("profile")
	}
	return s.lookup(ctx, id)
}

// Me returns the caller's own profile.
func (s *Service) Me(ctx context.Context, p auth.Principal) (*UserSummary, error) {
	return s.lookup(ctx, p.UserID)
}

// LookupInternal resolves a user for another service. It answers NotFound
// for unknown ids and carries no caller identity.
func (s *Service) LookupInternal(ctx context.Context, id int64) (*UserSummary, error) {
	return s.lookup(ctx, id)
}

func (s *Service) lookup(ctx context.Context, id int64) (*UserSummary, error) {
	u, err := s.store.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.NotFound("user", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, err
	}
	return u.Summary(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
