// Package authctx binds the authenticated Principal to a request context.
//
// The gate stores the Principal on the inbound request's own context, so it
// is visible only to that request's handler chain:
//
//	ctx = authctx.Set(ctx, principal)
//	principal, ok := authctx.FromContext(ctx)
package authctx

import (
	"context"
	"errors"

	"github.com/kbukum/gotasks/auth"
)

// contextKey is an unexported type to prevent collisions with other packages.
type contextKey struct{}

// principalKey is the single key used to store the Principal in context.
var principalKey = contextKey{}

// ErrNoPrincipal is returned when no Principal is bound to the context.
var ErrNoPrincipal = errors.New("authctx: no principal in context")

// Set stores the Principal in the context.
func Set(ctx context.Context, p auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext retrieves the Principal bound to ctx.
func FromContext(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey).(auth.Principal)
	return p, ok
}

// Require returns the Principal or ErrNoPrincipal.
func Require(ctx context.Context) (auth.Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return auth.Principal{}, ErrNoPrincipal
	}
	return p, nil
}
