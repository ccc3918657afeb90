// Package config holds the gateway configuration and its sources: YAML
// file, environment and defaults. Command-line flags are applied by the
// binaries on top.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/me/pbadmin/internal/logging"
)

// Environment variables read by ApplyEnv.
const (
	EnvPocketBaseURL  = "POCKETBASE_URL"
	EnvAllowedOrigins = "PBADMIN_ALLOWED_ORIGINS"
)

// ServerConfig holds configuration for the pbadmin gateway.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`            // Listen address (default ":8080")
	LogLevel       string        `yaml:"log_level"`       // debug, info, warn, error
	LogFormat      string        `yaml:"log_format"`      // text, json
	DBPath         string        `yaml:"db_path"`         // SQLite side-store path (default ~/.pbadmin/pbadmin.db, ":memory:" for testing)
	PocketBaseURL  string        `yaml:"pocketbase_url"`  // PocketBase server root
	AuthCollection string        `yaml:"auth_collection"` // Collection logins go against
	AllowedOrigins []string      `yaml:"allowed_origins"` // Origins reflected by CORS; others get "*"
	RequestTimeout time.Duration `yaml:"request_timeout"` // Per-call PocketBase timeout
	MaxRetries     int           `yaml:"max_retries"`     // Retries for idempotent PocketBase calls
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           ":8080",
		LogLevel:       "info",
		LogFormat:      logging.FormatText,
		PocketBaseURL:  "http://localhost:8090",
		AuthCollection: "users",
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		RequestTimeout: 30 * time.Second,
		MaxRetries:     3,
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values.
func LoadFile(cfg *ServerConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *ServerConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvPocketBaseURL)); v != "" {
		cfg.PocketBaseURL = v
	}
	if v := os.Getenv(EnvAllowedOrigins); v != "" {
		cfg.AllowedOrigins = SplitList(v)
	}
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks the fields the gateway cannot start without.
func (c ServerConfig) Validate() error {
	if c.PocketBaseURL == "" {
		return fmt.Errorf("pocketbase url is required")
	}
	u, err := url.Parse(c.PocketBaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("pocketbase url %q must be absolute", c.PocketBaseURL)
	}
	if c.AuthCollection == "" {
		return fmt.Errorf("auth collection is required")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0, got %d", c.MaxRetries)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must be >= 0, got %s", c.RequestTimeout)
	}
	return logging.ValidateFormat(c.LogFormat)
}
