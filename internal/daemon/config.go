// Package daemon runs the long-lived Bahi process: it loads config,
// opens storage, wires the services and serves the HTTP API while the
// reminder sweeper ticks in the background.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration, loaded from a TOML file.
type Config struct {
	API       APIConfig       `toml:"api"`
	Storage   StorageConfig   `toml:"storage"`
	Gateway   GatewayConfig   `toml:"gateway"`
	Messaging MessagingConfig `toml:"messaging"`
	Sweeper   SweeperConfig   `toml:"sweeper"`
	OTP       OTPConfig       `toml:"otp"`
}

// APIConfig configures the HTTP listener.
type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
}

// Addr returns the host:port the API binds to.
func (c APIConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// StorageConfig configures the SQLite data directory.
type StorageConfig struct {
	Dir string `toml:"dir"`
}

// GatewayConfig holds payment gateway credentials. Leaving the keys
// empty disables online payments; manual payments still work.
type GatewayConfig struct {
	KeyID     string `toml:"key_id"`
	KeySecret string `toml:"key_secret"`
	BaseURL   string `toml:"base_url"`
}

// Enabled reports whether gateway credentials are configured.
func (c GatewayConfig) Enabled() bool { return c.KeyID != "" && c.KeySecret != "" }

// MessagingConfig holds messaging provider credentials. Leaving the
// credentials empty disables outbound SMS and WhatsApp.
type MessagingConfig struct {
	AccountSID   string `toml:"account_sid"`
	AuthToken    string `toml:"auth_token"`
	BaseURL      string `toml:"base_url"`
	SMSFrom      string `toml:"sms_from"`
	WhatsAppFrom string `toml:"whatsapp_from"`
}

// Enabled reports whether messaging credentials are configured.
func (c MessagingConfig) Enabled() bool { return c.AccountSID != "" && c.AuthToken != "" }

// SweeperConfig configures the monthly reminder sweeper.
type SweeperConfig struct {
	Enabled          bool `toml:"enabled"`
	OverdueAfterDays int  `toml:"overdue_after_days"`
}

// OTPConfig configures the one-time-code gate.
type OTPConfig struct {
	TTLMinutes             int  `toml:"ttl_minutes"`
	ExposeCodes            bool `toml:"expose_codes"` // dev only: return codes in API responses
	RequireForRegistration bool `toml:"require_for_registration"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Storage: StorageConfig{
			Dir: defaultDataDir(),
		},
		Sweeper: SweeperConfig{
			Enabled:          true,
			OverdueAfterDays: 30,
		},
		OTP: OTPConfig{
			TTLMinutes: 5,
		},
	}
}

// Load reads config from path, layered over the defaults. A missing
// file is not an error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultConfigPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bahi.toml"
	}
	return filepath.Join(home, ".bahi", "config.toml")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bahi"
	}
	return filepath.Join(home, ".bahi")
}
