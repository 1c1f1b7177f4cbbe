// Package config resolves the service configuration from environment
// variables and an optional .env file. Values are read once at startup
// into a typed struct; nothing else in the service touches the
// environment.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// Upstream endpoint bases without the consortium part; the clients
	// derive {base}.{consortium}.org per request.
	EntityEndpointBase string `mapstructure:"ENTITY_ENDPOINT_BASE"`
	SearchEndpointBase string `mapstructure:"SEARCH_ENDPOINT_BASE"`
	DataCiteURL        string `mapstructure:"DATACITE_URL"`

	// ValuesetURL is where the controlled-vocabulary spreadsheet is
	// fetched from; ValuesetPath is where the downloaded copy lives.
	ValuesetURL  string `mapstructure:"VALUESET_URL"`
	ValuesetPath string `mapstructure:"VALUESET_PATH"`

	// DatabaseURL enables the audit store when set; the service runs
	// without audit history otherwise.
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	DBMaxConns    int32  `mapstructure:"DB_MAX_CONNS"`
	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"`

	// UpstreamTimeoutSeconds caps each upstream HTTP call, retries
	// included per attempt.
	UpstreamTimeoutSeconds int `mapstructure:"UPSTREAM_TIMEOUT_SECONDS"`

	// Optional entity API header that permits edits to donors with
	// published datasets.
	OverrideHeaderName  string `mapstructure:"OVERRIDE_HEADER_NAME"`
	OverrideHeaderValue string `mapstructure:"OVERRIDE_HEADER_VALUE"`

	// DevToken is the bearer token injected for unauthenticated requests
	// in development mode.
	DevToken string `mapstructure:"DEV_TOKEN"`
}

var keys = []string{
	"PORT", "ENV",
	"ENTITY_ENDPOINT_BASE", "SEARCH_ENDPOINT_BASE", "DATACITE_URL",
	"VALUESET_URL", "VALUESET_PATH",
	"DATABASE_URL", "DB_MAX_CONNS", "MIGRATIONS_DIR",
	"UPSTREAM_TIMEOUT_SECONDS",
	"OVERRIDE_HEADER_NAME", "OVERRIDE_HEADER_VALUE",
	"DEV_TOKEN",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("ENTITY_ENDPOINT_BASE", "https://entity.api")
	v.SetDefault("SEARCH_ENDPOINT_BASE", "https://search.api")
	v.SetDefault("DATACITE_URL", "https://api.datacite.org/dois")
	v.SetDefault("VALUESET_PATH", "valuesets.xlsx")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("MIGRATIONS_DIR", "migrations")
	v.SetDefault("UPSTREAM_TIMEOUT_SECONDS", 60)

	for _, key := range keys {
		v.BindEnv(key)
	}

	// The .env file is optional; the environment alone is enough.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

// Validate rejects configurations the service cannot run with. The
// vocabulary source is the one hard requirement: no valueset, no editing.
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "production" {
		return fmt.Errorf("ENV must be development or production, got %q", c.Env)
	}
	if c.ValuesetURL == "" {
		return fmt.Errorf("VALUESET_URL is required")
	}
	if c.ValuesetPath == "" {
		return fmt.Errorf("VALUESET_PATH is required")
	}
	if c.UpstreamTimeoutSeconds <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT_SECONDS must be positive, got %d", c.UpstreamTimeoutSeconds)
	}
	if (c.OverrideHeaderName == "") != (c.OverrideHeaderValue == "") {
		return fmt.Errorf("OVERRIDE_HEADER_NAME and OVERRIDE_HEADER_VALUE must be set together")
	}
	return nil
}
