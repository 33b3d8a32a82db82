// Package resilience provides the two fault-tolerance patterns used on calls
// that leave the process: a circuit breaker that fails fast while a
// dependency is down, and retry with exponential backoff.
//
//	cb := resilience.NewCircuitBreaker(resilience.BreakerConfig{Name: "identity"})
//	err := cb.Execute(func() error { return call(ctx) })
//
//	err := resilience.Retry(ctx, resilience.RetryConfig{Attempts: 5}, func(ctx context.Context) error {
//	    return db.PingContext(ctx)
//	})
package resilience
