package auth

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/kbukum/gotasks/auth/jwt"
	"github.com/kbukum/gotasks/errors"
)

// Principal is the authenticated identity of the caller.
type Principal struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// RejectionKind classifies why a token was refused.
type RejectionKind int

const (
	Malformed RejectionKind = iota + 1
	BadSignature
	Expired
)

func (k RejectionKind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case BadSignature:
		return "bad_signature"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Rejection is the error returned by Verify.
type Rejection struct {
	Kind RejectionKind
	Err  error
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("auth: token rejected (%s): %v", r.Kind, r.Err)
	}
	return fmt.Sprintf("auth: token rejected (%s)", r.Kind)
}

func (r *Rejection) Unwrap() error { return r.Err }

// AppError maps the rejection to the 401 sent to clients.
func (r *Rejection) AppError() *errors.AppError {
	if r.Kind == Expired {
		return errors.TokenExpired().WithCause(r)
	}
	return errors.InvalidToken().WithCause(r)
}

// AsRejection extracts a *Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if stderrors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// Verifier turns a raw bearer token into a Principal.
type Verifier struct {
	codec *jwt.Codec
	now   func() time.Time
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithVerifierClock overrides the clock used for the expiry check.
func WithVerifierClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) { v.now = now }
}

// NewVerifier creates a Verifier over codec.
func NewVerifier(codec *jwt.Codec, opts ...VerifierOption) *Verifier {
	v := &Verifier{codec: codec, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify decodes token, checks its signature and expiry, and returns the
// Principal it names. Errors are always *Rejection.
func (v *Verifier) Verify(token string) (Principal, error) {
	decoded, err := v.codec.Parse(token)
	if err != nil {
		if stderrors.Is(err, jwt.ErrBadSignature) {
			return Principal{}, &Rejection{Kind: BadSignature, Err: err}
		}
		return Principal{}, &Rejection{Kind: Malformed, Err: err}
	}
	if decoded.Expired(v.now()) {
		return Principal{}, &Rejection{Kind: Expired}
	}
	if decoded.Subject == "" {
		return Principal{}, &Rejection{Kind: Malformed, Err: stderrors.New("empty subject")}
	}
	if decoded.UserID <= 0 {
		return Principal{}, &Rejection{Kind: Malformed, Err: fmt.Errorf("invalid user id %d", decoded.UserID)}
	}
	return Principal{UserID: decoded.UserID, Username: decoded.Subject}, nil
}
