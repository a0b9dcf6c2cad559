// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	pkgconfig "github.com/darkcaptain12/zensticker-ecommerce-sub001/pkg/config"
)

// Config holds all runtime configuration for the campaign service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"CAMPAIGN_HTTP_PORT" envDefault:"8008"`

	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"zensticker"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"zensticker_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"zensticker"`
	PostgresSSL  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// CampaignCacheTTLSeconds bounds the staleness of the live-campaign
	// snapshot served from Redis.
	CampaignCacheTTLSeconds int `env:"CAMPAIGN_CACHE_TTL_SECONDS" envDefault:"60"`

	// PopupTTLHours is how long a visitor's popup-shown flag lives
	// before the campaign popup may re-appear.
	PopupTTLHours int `env:"POPUP_TTL_HOURS" envDefault:"24"`

	// PopupStateBackend selects where the popup-shown flag is kept:
	// "cookie" or "redis".
	PopupStateBackend string `env:"POPUP_STATE_BACKEND" envDefault:"cookie"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load parses configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := pkgconfig.Load(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port %d", cfg.HTTPPort)
	}
	if cfg.PostgresHost == "" {
		return nil, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.PostgresUser == "" {
		return nil, fmt.Errorf("POSTGRES_USER is required")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is required")
	}
	if cfg.CampaignCacheTTLSeconds <= 0 {
		return nil, fmt.Errorf("CAMPAIGN_CACHE_TTL_SECONDS must be positive")
	}
	if cfg.PopupTTLHours <= 0 {
		return nil, fmt.Errorf("POPUP_TTL_HOURS must be positive")
	}
	if cfg.PopupStateBackend != "cookie" && cfg.PopupStateBackend != "redis" {
		return nil, fmt.Errorf("POPUP_STATE_BACKEND must be cookie or redis, got %q", cfg.PopupStateBackend)
	}
	if cfg.OTELSampleRate < 0 || cfg.OTELSampleRate > 1 {
		return nil, fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %g", cfg.OTELSampleRate)
	}

	return &cfg, nil
}
