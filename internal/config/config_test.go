package config

import (
	"os"
	"testing"
	"time"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetEnv(t, "DB_DRIVER", "UPSTREAM_BASE_URL", "UPSTREAM_TIMEOUT", "ALLOWED_ORIGINS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DBDriver != DriverPostgres {
		t.Fatalf("DBDriver = %q, want %q", cfg.DBDriver, DriverPostgres)
	}
	if cfg.UpstreamBaseURL != "https://www.dnd5eapi.co/api" {
		t.Fatalf("UpstreamBaseURL = %q", cfg.UpstreamBaseURL)
	}
	if cfg.UpstreamTimeout != 30*time.Second {
		t.Fatalf("UpstreamTimeout = %v, want 30s", cfg.UpstreamTimeout)
	}
	if cfg.AllowedOrigins != nil {
		t.Fatalf("AllowedOrigins = %v, want nil", cfg.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", " SQLite ")
	t.Setenv("UPSTREAM_TIMEOUT", "5s")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test ")
	t.Setenv("MAX_DB_CONNS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DBDriver != DriverSQLite {
		t.Fatalf("DBDriver = %q, want %q", cfg.DBDriver, DriverSQLite)
	}
	if cfg.UpstreamTimeout != 5*time.Second {
		t.Fatalf("UpstreamTimeout = %v, want 5s", cfg.UpstreamTimeout)
	}
	if cfg.MaxDBConns != 4 {
		t.Fatalf("MaxDBConns = %d, want 4", cfg.MaxDBConns)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "http://a.test" || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("AllowedOrigins = %#v", cfg.AllowedOrigins)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
