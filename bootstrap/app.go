package bootstrap

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/gotasks/logger"
	"github.com/kbukum/gotasks/observability"
	"github.com/kbukum/gotasks/version"
)

// App is a long-running service with uniform lifecycle management.
// C is the config type; any struct embedding config.ServiceConfig fits.
type App[C Config] struct {
	Name    string
	Version string
	Cfg     C
	Logger  *logger.Logger
	Summary *Summary

	gracefulTimeout time.Duration
	summaryOut      io.Writer
	checkers        []observability.HealthChecker

	onStart []Hook
	onReady []Hook
	onStop  []Hook
}

// NewApp applies defaults to cfg, validates it and builds the logger.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetServiceConfig()
	ver := base.Version
	if ver == "" {
		ver = version.Get().Version
	}

	app := &App[C]{
		Name:            base.Name,
		Version:         ver,
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
		summaryOut:      os.Stdout,
	}

	o := resolveOptions(opts)
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if o.summaryOut != nil {
		app.summaryOut = o.summaryOut
	}
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		app.Logger = logger.New(&base.Logging, base.Name)
	}

	app.Summary = NewSummary(base.Name, ver)
	return app, nil
}

// AddHealthChecker registers checkers consulted by ReadyCheck and shown in
// the startup summary.
func (a *App[C]) AddHealthChecker(checkers ...observability.HealthChecker) {
	a.checkers = append(a.checkers, checkers...)
}

// ReadyCheck reports an error naming every checker that is not up.
func (a *App[C]) ReadyCheck(ctx context.Context) error {
	var unhealthy []string
	for _, h := range a.health(ctx) {
		if h.Status != observability.HealthStatusUp {
			detail := h.Name + "=" + string(h.Status)
			if h.Message != "" {
				detail += "(" + h.Message + ")"
			}
			unhealthy = append(unhealthy, detail)
		}
	}
	if len(unhealthy) > 0 {
		return fmt.Errorf("unhealthy components: %v", unhealthy)
	}
	return nil
}

func (a *App[C]) health(ctx context.Context) []observability.Health {
	results := make([]observability.Health, 0, len(a.checkers))
	for _, c := range a.checkers {
		results = append(results, c.CheckHealth(ctx))
	}
	return results
}

// Run executes the lifecycle: OnStart hooks, ReadyCheck, OnReady hooks,
// block on signal or ctx, then OnStop hooks. A failed startup still runs
// the OnStop hooks registered so far.
func (a *App[C]) Run(ctx context.Context) error {
	if err := a.startup(ctx); err != nil {
		if stopErr := a.stop(); stopErr != nil {
			return stderrors.Join(err, stopErr)
		}
		return err
	}

	a.Logger.Info("Application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)

	return a.stop()
}

func (a *App[C]) startup(ctx context.Context) error {
	start := time.Now()

	a.Logger.Info("Starting application", map[string]interface{}{
		"name":    a.Name,
		"version": a.Version,
	})

	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	// Not fatal: /health keeps reporting the degraded component.
	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("Ready check reported issues", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}

	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.Summary.SetStartupDuration(time.Since(start))
	a.Summary.Render(a.summaryOut, a.health(ctx))
	return nil
}

// WaitForSignal blocks until SIGINT/SIGTERM or ctx cancellation.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal, graceful shutdown starting", map[string]interface{}{
			"signal": sig.String(),
		})
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context canceled, shutting down")
		return nil
	}
}

// Shutdown runs the OnStop hooks. Use when managing your own lifecycle.
func (a *App[C]) Shutdown() error {
	return a.stop()
}

// stop runs OnStop hooks in reverse order within the graceful timeout.
// Every hook runs; errors are joined.
func (a *App[C]) stop() error {
	a.Logger.Info("Shutting down application", map[string]interface{}{
		"timeout": a.gracefulTimeout.String(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	hooks := a.onStop
	a.onStop = nil

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			a.Logger.Error("OnStop hook error", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
			errs = append(errs, err)
		}
	}

	a.Logger.Info("Application shutdown complete")
	return stderrors.Join(errs...)
}
