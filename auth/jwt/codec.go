// Package jwt encodes and decodes the signed, time-bounded identity assertion
// shared by the identity and task services.
//
// A token carries the username as "sub", the numeric user id as "userId",
// and "iat"/"exp". Parse checks structure and signature only; expiry is left
// to the caller so an expired token stays distinguishable from a forged one.
//
//	codec, err := jwt.NewCodec(&cfg)
//	raw, err := codec.Issue("alice", jwt.Claims{UserID: 42})
//	decoded, err := codec.Parse(raw)
package jwt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed means the token could not be decoded into the expected shape.
	ErrMalformed = errors.New("jwt: malformed token")
	// ErrBadSignature means the token decoded but its signature did not verify.
	ErrBadSignature = errors.New("jwt: bad signature")
)

// Claims are the private claims carried by a token.
type Claims struct {
	UserID int64
}

// Decoded is a structurally valid, correctly signed token. It may be expired.
type Decoded struct {
	Subject   string
	UserID    int64
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at now.
func (d *Decoded) Expired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

// wireClaims is the JSON form. UserID stays raw until the signature has been
// checked, then is parsed strictly as an integer.
type wireClaims struct {
	gojwt.RegisteredClaims
	UserID json.RawMessage `json:"userId,omitempty"`
}

// Codec issues and parses tokens with a single shared secret.
type Codec struct {
	cfg    Config
	key    []byte
	method gojwt.SigningMethod
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source used to stamp iat/exp.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec creates a codec from configuration.
func NewCodec(cfg *Config, opts ...Option) (*Codec, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Codec{
		cfg:    *cfg,
		key:    []byte(cfg.Secret),
		method: cfg.signingMethod(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration {
	return c.cfg.TTL
}

// Issue signs a token for subject expiring TTL after now.
func (c *Codec) Issue(subject string, claims Claims) (string, error) {
	if subject == "" {
		return "", errors.New("jwt: subject is required")
	}
	now := c.now()
	wc := wireClaims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(c.cfg.TTL)),
		},
		UserID: json.RawMessage(strconv.FormatInt(claims.UserID, 10)),
	}
	signed, err := gojwt.NewWithClaims(c.method, wc).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// Parse decodes raw and verifies its signature. It does not check expiry.
// Errors wrap ErrMalformed or ErrBadSignature.
func (c *Codec) Parse(raw string) (*Decoded, error) {
	var wc wireClaims
	parser := gojwt.NewParser(
		gojwt.WithValidMethods([]string{c.method.Alg()}),
		gojwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(raw, &wc, func(*gojwt.Token) (interface{}, error) {
		return c.key, nil
	})
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenSignatureInvalid) {
			return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	userID, err := parseUserID(wc.UserID)
	if err != nil {
		return nil, err
	}
	if wc.ExpiresAt == nil || wc.IssuedAt == nil {
		return nil, fmt.Errorf("%w: iat and exp are required", ErrMalformed)
	}
	if c.cfg.Issuer != "" && wc.Issuer != c.cfg.Issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrMalformed, wc.Issuer)
	}

	return &Decoded{
		Subject:   wc.Subject,
		UserID:    userID,
		Issuer:    wc.Issuer,
		IssuedAt:  wc.IssuedAt.Time,
		ExpiresAt: wc.ExpiresAt.Time,
	}, nil
}

// parseUserID accepts only a bare JSON integer. Strings, fractions, exponents,
// booleans and null are rejected rather than coerced.
func parseUserID(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, fmt.Errorf("%w: userId claim is missing", ErrMalformed)
	}
	if raw[0] != '-' && (raw[0] < '0' || raw[0] > '9') {
		return 0, fmt.Errorf("%w: userId claim must be an integer", ErrMalformed)
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: userId claim must be an integer", ErrMalformed)
	}
	return id, nil
}
