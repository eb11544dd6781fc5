package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port                   int    `env:"PORT" envDefault:"8080"`
	DatabaseURL            string `env:"DATABASE_URL,required"`
	RedisURL               string `env:"REDIS_URL,required"`
	SMSProviderURL         string `env:"SMS_PROVIDER_URL"`
	StaleRequestTTLHours   int    `env:"STALE_REQUEST_TTL_HOURS" envDefault:"72"`
	MaintenanceIntervalMin int    `env:"MAINTENANCE_INTERVAL_MINUTES" envDefault:"15"`
	LogLevel               string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) StaleRequestTTL() time.Duration {
	return time.Duration(c.StaleRequestTTLHours) * time.Hour
}

func (c *Config) MaintenanceInterval() time.Duration {
	return time.Duration(c.MaintenanceIntervalMin) * time.Minute
}

func (c *Config) Validate() error {
	if c.SMSProviderURL != "" {
		parsed, err := url.Parse(c.SMSProviderURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("SMS_PROVIDER_URL must be an absolute URL")
		}
	}
	if c.StaleRequestTTLHours <= 0 {
		return fmt.Errorf("STALE_REQUEST_TTL_HOURS must be positive")
	}
	if c.MaintenanceIntervalMin <= 0 {
		return fmt.Errorf("MAINTENANCE_INTERVAL_MINUTES must be positive")
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
