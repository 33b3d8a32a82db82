package client

import (
	"net/http"

	"github.com/kbukum/gotasks/auth"
)

// DefaultPublicPaths are sent without a bearer token.
var DefaultPublicPaths = []string{"/auth/login", "/auth/register", "/auth/check-*"}

// BearerTransport adds "Authorization: Bearer <token>" from a TokenStore to
// every request whose path is not public.
type BearerTransport struct {
	store  *TokenStore
	base   http.RoundTripper
	public *auth.PathMatcher
}

// NewBearerTransport wraps base (http.DefaultTransport when nil). With no
// publicPaths, DefaultPublicPaths apply.
func NewBearerTransport(store *TokenStore, base http.RoundTripper, publicPaths ...string) *BearerTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if len(publicPaths) == 0 {
		publicPaths = DefaultPublicPaths
	}
	return &BearerTransport{store: store, base: base, public: auth.NewPathMatcher(publicPaths...)}
}

// RoundTrip implements http.RoundTripper. The token is read before the
// request is dispatched; a signed-out store sends no header.
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.public.Match(req.URL.Path) {
		return t.base.RoundTrip(req)
	}
	token := t.store.Token()
	if token == "" {
		return t.base.RoundTrip(req)
	}
	authed := req.Clone(req.Context())
	authed.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(authed)
}
