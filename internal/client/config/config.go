// Package config holds the settings of the account CLI: defaults, an optional
// JSON file and ACCOUNTS_* environment variables. Command-line flags are
// applied on top by the cli package.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime settings for the account CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the account service gRPC endpoint.
//   - RequestTimeout: deadline applied to every call.
//   - SessionDBPath: SQLite file keeping the last token per server; empty
//     disables persistence.
type Config struct {
	ServerEndpointAddr string        `env:"SERVER_ADDR"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT"`
	SessionDBPath      string        `env:"SESSION_DB"`
}

// EnvPrefix prefixes every environment variable read into Config.
const EnvPrefix = "ACCOUNTS_"

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
	c.SessionDBPath = defaultSessionDBPath()
}

func defaultSessionDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "accounts-sessions.db"
	}
	return filepath.Join(dir, "accounts", "sessions.db")
}

// LoadConfig applies defaults, then the JSON file at path (if not empty), then
// the environment. A nil environ means the process environment.
func LoadConfig(path string, environ map[string]string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, path); err != nil {
		return nil, err
	}

	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
