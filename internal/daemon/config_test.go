package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8080)
	}
	if !cfg.Sweeper.Enabled {
		t.Error("Sweeper.Enabled should be true by default")
	}
	if cfg.Sweeper.OverdueAfterDays != 30 {
		t.Errorf("Sweeper.OverdueAfterDays = %d, want 30", cfg.Sweeper.OverdueAfterDays)
	}
	if cfg.OTP.TTLMinutes != 5 {
		t.Errorf("OTP.TTLMinutes = %d, want 5", cfg.OTP.TTLMinutes)
	}
	if cfg.OTP.ExposeCodes {
		t.Error("OTP.ExposeCodes should be false by default")
	}
	if cfg.Gateway.Enabled() {
		t.Error("Gateway should be disabled with no credentials")
	}
	if cfg.Messaging.Enabled() {
		t.Error("Messaging should be disabled with no credentials")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() = %v, want nil for missing file", err)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want default 8080", cfg.API.Port)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
host = "0.0.0.0"
port = 9090
metrics = true

[gateway]
key_id = "rzp_test_abc"
key_secret = "secret"

[sweeper]
enabled = false
overdue_after_days = 45

[otp]
ttl_minutes = 10
require_for_registration = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.Addr() != "0.0.0.0:9090" {
		t.Errorf("API.Addr() = %q, want 0.0.0.0:9090", cfg.API.Addr())
	}
	if !cfg.API.Metrics {
		t.Error("API.Metrics should be true")
	}
	if !cfg.Gateway.Enabled() {
		t.Error("Gateway should be enabled with credentials set")
	}
	if cfg.Sweeper.Enabled {
		t.Error("Sweeper.Enabled should be false after override")
	}
	if cfg.Sweeper.OverdueAfterDays != 45 {
		t.Errorf("Sweeper.OverdueAfterDays = %d, want 45", cfg.Sweeper.OverdueAfterDays)
	}
	if cfg.OTP.TTLMinutes != 10 {
		t.Errorf("OTP.TTLMinutes = %d, want 10", cfg.OTP.TTLMinutes)
	}
	if !cfg.OTP.RequireForRegistration {
		t.Error("OTP.RequireForRegistration should be true")
	}
}

func TestLoad_BadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api\nport ="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() = nil, want parse error")
	}
}
