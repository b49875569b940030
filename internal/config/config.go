package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr             = ":8080"
	defaultJWTSecret            = "change-me-jwt-secret"
	defaultJWTTTL               = "12h"
	defaultInternalToken        = "change-me-internal-token"
	defaultKafkaTopic           = "studio.events"
	defaultPaymentLinkBaseURL   = "https://pay.example.com"
	defaultDepositExpiryDays    = 7
	defaultDepositMaxExpiryDays = 30
	defaultSnowflakeNode        = 1
)

type Config struct {
	AppEnv               string
	HTTPAddr             string
	DatabaseURL          string
	JWTSecret            string
	JWTTTL               time.Duration
	InternalToken        string
	RedisURL             string
	KafkaBrokers         []string
	KafkaTopic           string
	PaymentLinkBaseURL   string
	DepositExpiryDays    int
	DepositMaxExpiryDays int
	SnowflakeNode        int64
	CORSAllowedOrigins   []string
}

type configFile struct {
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Deposits struct {
		ExpiryDays    int    `yaml:"expiry_days"`
		MaxExpiryDays int    `yaml:"max_expiry_days"`
		LinkBaseURL   string `yaml:"link_base_url"`
	} `yaml:"deposits"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// Load reads defaults, then the optional YAML file named by CONFIG_FILE, then
// environment overrides, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:             defaultHTTPAddr,
		KafkaTopic:           defaultKafkaTopic,
		PaymentLinkBaseURL:   defaultPaymentLinkBaseURL,
		DepositExpiryDays:    defaultDepositExpiryDays,
		DepositMaxExpiryDays: defaultDepositMaxExpiryDays,
		SnowflakeNode:        defaultSnowflakeNode,
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.InternalToken = strings.TrimSpace(getEnv("INTERNAL_TOKEN", defaultInternalToken))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.KafkaTopic = strings.TrimSpace(getEnv("KAFKA_TOPIC", cfg.KafkaTopic))
	cfg.PaymentLinkBaseURL = strings.TrimSpace(getEnv("PAYMENT_LINK_BASE_URL", cfg.PaymentLinkBaseURL))
	if brokers := splitList(os.Getenv("KAFKA_BROKERS")); len(brokers) > 0 {
		cfg.KafkaBrokers = brokers
	}
	if origins := splitList(os.Getenv("CORS_ALLOWED_ORIGINS")); len(origins) > 0 {
		cfg.CORSAllowedOrigins = origins
	}

	var err error
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}
	if cfg.DepositExpiryDays, err = parseIntEnv("DEPOSIT_EXPIRY_DAYS", cfg.DepositExpiryDays); err != nil {
		return nil, err
	}
	if cfg.DepositMaxExpiryDays, err = parseIntEnv("DEPOSIT_MAX_EXPIRY_DAYS", cfg.DepositMaxExpiryDays); err != nil {
		return nil, err
	}
	node, err := parseIntEnv("SNOWFLAKE_NODE", int(cfg.SnowflakeNode))
	if err != nil {
		return nil, err
	}
	cfg.SnowflakeNode = int64(node)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.HTTP.Addr != "" {
		cfg.HTTPAddr = f.HTTP.Addr
	}
	if f.Deposits.ExpiryDays > 0 {
		cfg.DepositExpiryDays = f.Deposits.ExpiryDays
	}
	if f.Deposits.MaxExpiryDays > 0 {
		cfg.DepositMaxExpiryDays = f.Deposits.MaxExpiryDays
	}
	if f.Deposits.LinkBaseURL != "" {
		cfg.PaymentLinkBaseURL = f.Deposits.LinkBaseURL
	}
	if len(f.Kafka.Brokers) > 0 {
		cfg.KafkaBrokers = f.Kafka.Brokers
	}
	if f.Kafka.Topic != "" {
		cfg.KafkaTopic = f.Kafka.Topic
	}
	if len(f.CORS.AllowedOrigins) > 0 {
		cfg.CORSAllowedOrigins = f.CORS.AllowedOrigins
	}
	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.DepositExpiryDays <= 0 {
		return fmt.Errorf("DEPOSIT_EXPIRY_DAYS must be > 0")
	}
	if cfg.DepositMaxExpiryDays < cfg.DepositExpiryDays {
		return fmt.Errorf("DEPOSIT_MAX_EXPIRY_DAYS must be >= DEPOSIT_EXPIRY_DAYS")
	}
	if cfg.SnowflakeNode < 0 || cfg.SnowflakeNode > 1023 {
		return fmt.Errorf("SNOWFLAKE_NODE must be within 0..1023")
	}
	if cfg.PaymentLinkBaseURL == "" {
		return fmt.Errorf("PAYMENT_LINK_BASE_URL must not be empty")
	}

	if IsProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.InternalToken, defaultInternalToken) {
			return fmt.Errorf("in prod/release INTERNAL_TOKEN must be set and not default")
		}
	}

	return nil
}

func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, raw, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
