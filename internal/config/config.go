// Package config loads service configuration from the environment
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is the full process configuration, populated from the environment.
type Config struct {
	Port          string `env:"PORT, default=8080"`
	WebhookDomain string `env:"WEBHOOK_DOMAIN"`
	StatusDomain  string `env:"STATUS_DOMAIN"`
	LogFormat     string `env:"LOG_FORMAT, default=json"`

	ProviderEnv           string        `env:"PROVIDER_ENV, default=sandbox"`
	ProviderBaseURL       string        `env:"PROVIDER_BASE_URL"`
	ProviderClientID      string        `env:"PROVIDER_CLIENT_ID"`
	ProviderSecret        string        `env:"PROVIDER_SECRET"`
	ProviderWebhookSecret string        `env:"PROVIDER_WEBHOOK_SECRET"`
	ProviderTimeout       time.Duration `env:"PROVIDER_TIMEOUT, default=30s"`

	SyncInterval      time.Duration `env:"SYNC_INTERVAL, default=1h"`
	SyncTimeout       time.Duration `env:"SYNC_TIMEOUT, default=2m"`
	SyncMaxConcurrent int           `env:"SYNC_MAX_CONCURRENT, default=3"`

	EventMaxAttempts   int           `env:"EVENT_MAX_ATTEMPTS, default=3"`
	EventRetryBase     time.Duration `env:"EVENT_RETRY_BASE, default=2s"`
	EventQueueCapacity int           `env:"EVENT_QUEUE_CAPACITY, default=1024"`

	AdminSecretCode string `env:"ADMIN_SECRET_CODE"`

	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBHost     string `env:"DB_HOST"`
	DBPort     string `env:"DB_PORT, default=5432"`
	DBName     string `env:"DB_NAME"`

	// Accounts seeds linked accounts at boot, formatted
	// "accountID=accessToken" and comma separated.
	Accounts string `env:"ACCOUNTS"`
}

// Load populates a Config from the environment and validates it
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}

	if cfg.ProviderClientID == "" {
		return nil, fmt.Errorf("PROVIDER_CLIENT_ID is required")
	}
	if cfg.ProviderSecret == "" {
		return nil, fmt.Errorf("PROVIDER_SECRET is required")
	}

	switch cfg.ProviderEnv {
	case "sandbox", "development", "production":
	default:
		return nil, fmt.Errorf("invalid PROVIDER_ENV %q", cfg.ProviderEnv)
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}

	return &cfg, nil
}

// UseDatabase reports whether a postgres store is configured
func (c *Config) UseDatabase() bool {
	return c.DBHost != ""
}

// SeedAccounts parses the ACCOUNTS list into accountID/accessToken pairs
func (c *Config) SeedAccounts() (map[string]string, error) {
	accounts := make(map[string]string)
	if strings.TrimSpace(c.Accounts) == "" {
		return accounts, nil
	}

	for _, pair := range strings.Split(c.Accounts, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		id, token, ok := strings.Cut(pair, "=")
		if !ok || id == "" || token == "" {
			return nil, fmt.Errorf("invalid ACCOUNTS entry %q", pair)
		}
		accounts[id] = token
	}
	return accounts, nil
}
