// Package config loads server configuration from the environment with
// sane defaults for local development.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort        string
	BaseURL         string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64

	StripeSecretKey      string
	StripePublishableKey string
	StripeWebhookSecret  string

	// Countries eligible for shipping at checkout, ISO 3166-1 alpha-2.
	AllowedCountries []string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string

	RateLimitMax    int
	RateLimitWindow time.Duration

	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("HTTP_PORT", "4242")
	v.SetDefault("BASE_URL", "http://localhost:4242")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("MAX_BODY_BYTES", 1<<20) // 1MB
	v.SetDefault("STRIPE_SECRET_KEY", "")
	v.SetDefault("STRIPE_PUBLISHABLE_KEY", "")
	v.SetDefault("STRIPE_WEBHOOK_SECRET", "")
	v.SetDefault("ALLOWED_COUNTRIES", "DE,AT,CH,FR,NL,BE,LU,IT,ES")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("RATE_LIMIT_MAX", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", "15m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "")

	v.AutomaticEnv()

	cfg := &Config{
		HTTPPort:             v.GetString("HTTP_PORT"),
		BaseURL:              strings.TrimRight(v.GetString("BASE_URL"), "/"),
		RequestTimeout:       v.GetDuration("REQUEST_TIMEOUT"),
		ShutdownTimeout:      v.GetDuration("SHUTDOWN_TIMEOUT"),
		MaxBodyBytes:         v.GetInt64("MAX_BODY_BYTES"),
		StripeSecretKey:      v.GetString("STRIPE_SECRET_KEY"),
		StripePublishableKey: v.GetString("STRIPE_PUBLISHABLE_KEY"),
		StripeWebhookSecret:  v.GetString("STRIPE_WEBHOOK_SECRET"),
		AllowedCountries:     splitList(v.GetString("ALLOWED_COUNTRIES")),
		RedisAddr:            v.GetString("REDIS_ADDR"),
		RedisPassword:        v.GetString("REDIS_PASSWORD"),
		KafkaBrokers:         splitList(v.GetString("KAFKA_BROKERS")),
		RateLimitMax:         v.GetInt("RATE_LIMIT_MAX"),
		RateLimitWindow:      v.GetDuration("RATE_LIMIT_WINDOW"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		LogFormat:            v.GetString("LOG_FORMAT"),
		LogFile:              v.GetString("LOG_FILE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values a misconfigured deployment would trip on.
// Missing Stripe keys are allowed at boot: the config endpoint and the
// checkout path report them per request.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT must not be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("BASE_URL must not be empty")
	}
	if c.RateLimitMax <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX must be positive, got %d", c.RateLimitMax)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	}
	for _, country := range c.AllowedCountries {
		if len(country) != 2 {
			return fmt.Errorf("invalid country code %q in ALLOWED_COUNTRIES", country)
		}
	}
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
