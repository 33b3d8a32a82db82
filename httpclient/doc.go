// Package httpclient is the outbound HTTP client used for service-to-service
// calls and by the terminal client.
//
// Non-2xx responses and transport failures come back as *Error, classified
// so callers can tell a timeout from a refused connection from a 404:
//
//	c, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://identity:8081",
//	    Timeout: 3 * time.Second,
//	    Auth:    httpclient.HeaderAuth("X-Service-Token", key),
//	})
//
//	resp, err := httpclient.Get[UserSummary](c, ctx, "/internal/users/42")
//	if httpclient.IsNotFound(err) { ... }
package httpclient
