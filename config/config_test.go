package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

type nested struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type testConfig struct {
	ServiceConfig `mapstructure:",squash"`
	Auth          struct {
		Token nested `mapstructure:"token"`
	} `mapstructure:"auth"`
	Ignored string `mapstructure:"-"`
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.ServiceName != "svc" {
			t.Errorf("expected logging service name propagated, got %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if !cfg.IsProduction() {
			t.Error("expected IsProduction")
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "staging"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "moon"}, "config.environment must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCollectKeys(t *testing.T) {
	keys := collectKeys(reflect.TypeOf(&testConfig{}), "")
	want := map[string]bool{
		"name":              true,
		"environment":       true,
		"logging.level":     true,
		"auth.token.secret": true,
		"auth.token.ttl":    true,
	}
	got := make(map[string]bool, len(keys))
	for _, k := range keys {
		got[k] = true
	}
	for k := range want {
		if !got[k] {
			t.Errorf("expected key %q in %v", k, keys)
		}
	}
	for _, k := range keys {
		if strings.Contains(k, "ignored") {
			t.Errorf("key tagged '-' must be skipped, got %q", k)
		}
	}
}

func TestEnvName(t *testing.T) {
	if got := EnvName("auth.token.secret"); got != "AUTH_TOKEN_SECRET" {
		t.Errorf("EnvName = %q", got)
	}
}

func TestLoadConfig_YAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yaml := `
name: identity-service
environment: staging
auth:
  token:
    secret: from-file
    ttl: 30m
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AUTH_TOKEN_SECRET", "from-env")

	var cfg testConfig
	if err := LoadConfig("identity-service", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Name != "identity-service" || cfg.Environment != "staging" {
		t.Errorf("unexpected base config %+v", cfg.ServiceConfig)
	}
	if cfg.Auth.Token.Secret != "from-env" {
		t.Errorf("expected env override, got %q", cfg.Auth.Token.Secret)
	}
	if cfg.Auth.Token.TTL != 30*time.Minute {
		t.Errorf("expected ttl 30m, got %v", cfg.Auth.Token.TTL)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	var cfg testConfig
	if err := LoadConfig("nonexistent", &cfg, WithConfigFile("/nonexistent/path.yml")); err != nil {
		t.Fatalf("expected missing file to be tolerated, got %v", err)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolveFiles(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/task-service/config.yml": true,
		"./.env":                        true,
	}}
	files := ResolveFiles("task-service", LoaderConfig{FileSystem: fs})
	if files.ConfigFile != "./cmd/task-service/config.yml" {
		t.Errorf("unexpected config file %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("unexpected env file %q", files.EnvFile)
	}

	explicit := ResolveFiles("task-service", LoaderConfig{FileSystem: fs, ConfigFile: "/etc/x.yml"})
	if explicit.ConfigFile != "/etc/x.yml" {
		t.Errorf("explicit path should win, got %q", explicit.ConfigFile)
	}
}
