package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Database   DatabaseConfig
	JWT        JWTConfig
	App        AppConfig
	Ledger     LedgerConfig
	Compliance ComplianceConfig
	Offline    OfflineConfig
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	SeedFile string // employee directory for the memory driver
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port               int
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string
}

type LedgerConfig struct {
	MaxClockSkew time.Duration // how far past the server clock a timestamp may be; 0 disables
}

type ComplianceConfig struct {
	PolicyFile     string
	PreApprovalTTL time.Duration
	SweepInterval  time.Duration // 0 disables the sweep
	ExpiryInterval time.Duration
}

type OfflineConfig struct {
	QueuePath     string // empty disables the queue
	DrainInterval time.Duration
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := &Config{}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Driver:   getEnv("STORAGE_DRIVER", StorageDriverPostgres),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "timeledger"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
		SeedFile: getEnv("MEMORY_SEED_FILE", ""),
	}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:               appPort,
		Env:                getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	accessExpiration, err := getDuration("JWT_ACCESS_EXPIRATION_TIME", "1h")
	if err != nil {
		return nil, err
	}
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: accessExpiration,
	}

	skew, err := getDuration("LEDGER_MAX_CLOCK_SKEW", "5m")
	if err != nil {
		return nil, err
	}
	config.Ledger = LedgerConfig{MaxClockSkew: skew}

	preApprovalTTL, err := getDuration("PREAPPROVAL_TTL", "24h")
	if err != nil {
		return nil, err
	}
	sweep, err := getDuration("COMPLIANCE_SWEEP_INTERVAL", "0")
	if err != nil {
		return nil, err
	}
	expiry, err := getDuration("EXCEPTION_EXPIRY_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}
	config.Compliance = ComplianceConfig{
		PolicyFile:     getEnv("POLICY_FILE", ""),
		PreApprovalTTL: preApprovalTTL,
		SweepInterval:  sweep,
		ExpiryInterval: expiry,
	}

	drain, err := getDuration("OFFLINE_DRAIN_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}
	config.Offline = OfflineConfig{
		QueuePath:     getEnv("OFFLINE_QUEUE_PATH", ""),
		DrainInterval: drain,
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case StorageDriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case StorageDriverMemory:
		if c.App.Env == "production" {
			return fmt.Errorf("STORAGE_DRIVER=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q", StorageDriverPostgres, StorageDriverMemory)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Ledger.MaxClockSkew < 0 {
		return fmt.Errorf("LEDGER_MAX_CLOCK_SKEW must not be negative")
	}
	if c.Compliance.PreApprovalTTL <= 0 {
		return fmt.Errorf("PREAPPROVAL_TTL must be positive")
	}
	if c.Offline.QueuePath != "" && c.Offline.DrainInterval <= 0 {
		return fmt.Errorf("OFFLINE_DRAIN_INTERVAL must be positive when OFFLINE_QUEUE_PATH is set")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string, fallback []string) []string {
	value := getEnv(env, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}

func getDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
