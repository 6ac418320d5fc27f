package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/antochhka/voltqueue/internal/registry"
	libconfig "github.com/antochhka/voltqueue/pkg/config"
)

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Port string `yaml:"port" env:"VOLTQUEUE_HTTP_PORT"`
}

// DatabaseConfig holds Postgres settings.
type DatabaseConfig struct {
	DSN              string `yaml:"dsn" env:"VOLTQUEUE_POSTGRES_DSN"`
	TxTimeoutSeconds int    `yaml:"txTimeoutSeconds" env:"VOLTQUEUE_TX_TIMEOUT"`
}

// RedisConfig holds notifier settings.
type RedisConfig struct {
	Addr            string `yaml:"addr" env:"VOLTQUEUE_REDIS_ADDR"`
	Password        string `yaml:"password" env:"VOLTQUEUE_REDIS_PASSWORD"`
	InboxTTLSeconds int    `yaml:"inboxTtlSeconds" env:"VOLTQUEUE_REDIS_INBOX_TTL"`
}

// EngineConfig holds allocation and rollover settings.
type EngineConfig struct {
	HoldSeconds  int    `yaml:"holdSeconds" env:"VOLTQUEUE_HOLD_SECONDS"`
	RolloverHour int    `yaml:"rolloverHour" env:"VOLTQUEUE_ROLLOVER_HOUR"`
	TimeZone     string `yaml:"timeZone" env:"VOLTQUEUE_TIMEZONE"`
}

// AdminConfig holds the privileged alias and token settings.
type AdminConfig struct {
	Alias           string `yaml:"alias" env:"VOLTQUEUE_ADMIN_ALIAS"`
	JWTSecret       string `yaml:"jwtSecret" env:"VOLTQUEUE_JWT_SECRET"`
	TokenTTLMinutes int    `yaml:"tokenTtlMinutes" env:"VOLTQUEUE_ADMIN_TOKEN_TTL"`
}

// Config defines the voltqueue service configuration.
type Config struct {
	HTTP     HTTPConfig       `yaml:"http"`
	Database DatabaseConfig   `yaml:"database"`
	Redis    RedisConfig      `yaml:"redis"`
	Engine   EngineConfig     `yaml:"engine"`
	Admin    AdminConfig      `yaml:"admin"`
	Stations []registry.Group `yaml:"stations" env:"-"`
	Dev      bool             `yaml:"dev" env:"VOLTQUEUE_DEV"`
}

// Load reads configuration via the shared helper and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		HTTP:   HTTPConfig{Port: "8080"},
		Redis:  RedisConfig{Addr: "localhost:6379", InboxTTLSeconds: 86400},
		Engine: EngineConfig{HoldSeconds: 300, RolloverHour: 20, TimeZone: "UTC"},
		Admin:  AdminConfig{TokenTTLMinutes: 15},
	}

	if err := libconfig.Load(cfg); err != nil {
		return nil, err
	}

	if !cfg.Dev {
		if strings.TrimSpace(cfg.Database.DSN) == "" {
			return nil, errors.New("config: database dsn required")
		}
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			return nil, errors.New("config: redis addr required")
		}
	}
	if strings.TrimSpace(cfg.Admin.Alias) == "" {
		return nil, errors.New("config: admin alias required")
	}
	if strings.TrimSpace(cfg.Admin.JWTSecret) == "" {
		return nil, errors.New("config: admin jwt secret required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// HoldDuration returns the reservation window as a duration.
func (c *Config) HoldDuration() time.Duration {
	if c.Engine.HoldSeconds <= 0 {
		return 300 * time.Second
	}
	return time.Duration(c.Engine.HoldSeconds) * time.Second
}

// TxTimeout returns the store transaction deadline.
func (c *Config) TxTimeout() time.Duration {
	if c.Database.TxTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Database.TxTimeoutSeconds) * time.Second
}

// InboxTTL returns how long notification inbox entries are kept.
func (c *Config) InboxTTL() time.Duration {
	if c.Redis.InboxTTLSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Redis.InboxTTLSeconds) * time.Second
}

// TokenTTL returns admin token lifetime.
func (c *Config) TokenTTL() time.Duration {
	if c.Admin.TokenTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.Admin.TokenTTLMinutes) * time.Minute
}

// StationGroups returns the configured groups or the stock layout.
func (c *Config) StationGroups() []registry.Group {
	if len(c.Stations) == 0 {
		return []registry.Group{
			{Name: "Garage", First: 1, Last: 6},
			{Name: "Parking Lot", First: 7, Last: 12},
		}
	}
	return c.Stations
}
