package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/gotasks/config"
	"github.com/kbukum/gotasks/logger"
	"github.com/kbukum/gotasks/observability"
)

type testConfig struct {
	config.ServiceConfig
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{
		ServiceConfig: config.ServiceConfig{
			Name:        name,
			Version:     version,
			Environment: "development",
		},
	}
}

func newTestApp(t *testing.T, cfg *testConfig) (*App[*testConfig], *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	app, err := NewApp(cfg, WithLogger(logger.Nop()), WithSummaryOutput(&out), WithGracefulTimeout(time.Second))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app, &out
}

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t, newTestConfig("test-svc", "1.0.0"))
	if app.Name != "test-svc" {
		t.Errorf("expected name 'test-svc', got %q", app.Name)
	}
	if app.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %q", app.Version)
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("defaults not applied: environment = %q", app.Cfg.Environment)
	}
}

func TestNewApp_DefaultsVersionFromBuild(t *testing.T) {
	app, _ := newTestApp(t, newTestConfig("test-svc", ""))
	if app.Version == "" {
		t.Error("expected version from build info")
	}
}

func TestNewApp_InvalidConfig(t *testing.T) {
	cfg := newTestConfig("", "1.0.0")
	if _, err := NewApp(cfg, WithLogger(logger.Nop())); err == nil {
		t.Fatal("expected validation error for empty name")
	}
}

func TestRun_LifecycleOrder(t *testing.T) {
	app, out := newTestApp(t, newTestConfig("test-svc", "1.0.0"))

	var order []string
	app.OnStart(func(ctx context.Context) error {
		order = append(order, "start-db")
		app.OnStop(func(ctx context.Context) error {
			order = append(order, "stop-db")
			return nil
		})
		return nil
	}, func(ctx context.Context) error {
		order = append(order, "start-server")
		app.OnStop(func(ctx context.Context) error {
			order = append(order, "stop-server")
			return nil
		})
		return nil
	})
	app.OnReady(func(ctx context.Context) error {
		order = append(order, "ready")
		return nil
	})
	app.Summary.TrackInfrastructure("sqlite", "database", "tasks.db", 0)
	app.Summary.TrackRoute("GET", "/tasks", "Handler.List")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"start-db", "start-server", "ready", "stop-server", "stop-db"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
	for _, s := range []string{"test-svc 1.0.0", "sqlite [database]: tasks.db", "/tasks → Handler.List"} {
		if !strings.Contains(out.String(), s) {
			t.Errorf("summary missing %q:\n%s", s, out.String())
		}
	}
}

func TestRun_StartFailureStopsStarted(t *testing.T) {
	app, _ := newTestApp(t, newTestConfig("test-svc", "1.0.0"))

	stopped := false
	boom := errors.New("bind failed")
	app.OnStart(func(ctx context.Context) error {
		app.OnStop(func(ctx context.Context) error {
			stopped = true
			return nil
		})
		return nil
	}, func(ctx context.Context) error {
		return boom
	})

	err := app.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if !stopped {
		t.Error("stop hook of the started resource should run")
	}
}

func TestShutdown_JoinsErrors(t *testing.T) {
	app, _ := newTestApp(t, newTestConfig("test-svc", "1.0.0"))
	e1, e2 := errors.New("first"), errors.New("second")
	ran := 0
	app.OnStop(
		func(ctx context.Context) error { ran++; return e1 },
		func(ctx context.Context) error { ran++; return e2 },
	)

	err := app.Shutdown()
	if ran != 2 {
		t.Errorf("ran %d hooks, want 2", ran)
	}
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Errorf("err = %v, want both errors", err)
	}
	if err := app.Shutdown(); err != nil {
		t.Errorf("second Shutdown = %v, want nil", err)
	}
}

func TestReadyCheck(t *testing.T) {
	app, _ := newTestApp(t, newTestConfig("test-svc", "1.0.0"))
	app.AddHealthChecker(observability.HealthCheckerFunc(func(ctx context.Context) observability.Health {
		return observability.Health{Name: "database", Status: observability.HealthStatusUp}
	}))
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Fatalf("ReadyCheck: %v", err)
	}

	app.AddHealthChecker(observability.HealthCheckerFunc(func(ctx context.Context) observability.Health {
		return observability.Health{Name: "identity", Status: observability.HealthStatusDegraded, Message: "circuit open"}
	}))
	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "identity=degraded(circuit open)") {
		t.Errorf("ReadyCheck = %v", err)
	}
}
