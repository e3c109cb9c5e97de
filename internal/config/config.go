package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string
	AccessTokenTTL     time.Duration

	StripeSecretKey string
	StripeBaseURL   string
	PaymentTimeout  time.Duration
	Currency        string

	// PointConversionRate is the monetary value of one eco point.
	PointConversionRate decimal.Decimal
	WarehouseCity       string
	WarehouseState      string
	WarehouseCountry    string
	TaxRateName         string

	LogFormat       string
	LogLevel        string
	MetricsBuckets  string
	TracingEndpoint string
	TracingRatio    float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		AccessTokenTTL:     parseDuration(k.String("ACCESS_TOKEN_TTL"), "15m"),

		StripeSecretKey: k.String("STRIPE_SECRET_KEY"),
		StripeBaseURL:   valueOrDefault(k.String("STRIPE_BASE_URL"), "https://api.stripe.com"),
		PaymentTimeout:  parseDuration(k.String("PAYMENT_TIMEOUT"), "15s"),
		Currency:        valueOrDefault(k.String("CURRENCY"), "inr"),

		PointConversionRate: parseDecimal(k.String("POINT_CONVERSION_RATE"), "0.01"),
		WarehouseCity:       valueOrDefault(k.String("WAREHOUSE_CITY"), "Ranchi"),
		WarehouseState:      valueOrDefault(k.String("WAREHOUSE_STATE"), "Jharkhand"),
		WarehouseCountry:    valueOrDefault(k.String("WAREHOUSE_COUNTRY"), "India"),
		TaxRateName:         valueOrDefault(k.String("TAX_RATE_NAME"), "GST"),

		LogFormat:       valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:        valueOrDefault(k.String("LOG_LEVEL"), "info"),
		MetricsBuckets:  k.String("METRICS_BUCKETS_MS"),
		TracingEndpoint: k.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TracingRatio:    k.Float64("TRACING_SAMPLING_RATIO"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if !cfg.PointConversionRate.IsPositive() {
		return nil, errors.New("POINT_CONVERSION_RATE must be positive")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseDecimal(value, fallback string) decimal.Decimal {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := decimal.NewFromString(base)
	if err != nil {
		d = decimal.RequireFromString(fallback)
	}
	return d
}
