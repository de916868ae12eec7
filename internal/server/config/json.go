package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/accounts/internal/flagx"
	"github.com/dmitrijs2005/accounts/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Pointer fields
// tell an absent key from a zero value; durations accept "168h" or integer
// nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC      *string         `json:"endpoint_addr_grpc"`
	MetricsAddr           *string         `json:"metrics_addr"`
	DatabaseDSN           *string         `json:"database_dsn"`
	SecretKey             *string         `json:"secret_key"`
	InstanceID            *int            `json:"instance_id"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	PhoneRegion           *string         `json:"phone_region"`
	LogLevel              *string         `json:"log_level"`
}

// parseJson overlays the file named by -c/-config, if any, onto config.
// Keys missing from the file keep their current values.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setIf(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setIf(&config.MetricsAddr, c.MetricsAddr)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.SecretKey, c.SecretKey)
	setIf(&config.InstanceID, c.InstanceID)
	setIf(&config.PhoneRegion, c.PhoneRegion)
	setIf(&config.LogLevel, c.LogLevel)
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
