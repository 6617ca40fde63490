// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	pstrings "orgtrakker/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	TenantsFile     string
	BootstrapSchema bool
	Log             LogConfig
	Redis           RedisConfig
	Audit           AuditConfig
	Validation      ValidationConfig
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string
	Format string // json or text
}

// RedisConfig configures the template cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	TemplateTTL  time.Duration
}

// AuditConfig picks the audit sink: memory, sql or kafka. With Relay set,
// the sql sink doubles as an outbox drained to Kafka every RelayInterval.
type AuditConfig struct {
	Sink          string
	SQLDriver     string // postgres or sqlite
	SQLDSN        string
	KafkaBrokers  []string
	KafkaTopic    string
	Relay         bool
	RelayInterval time.Duration
}

// ValidationConfig holds the per-call validation settings applied to every
// write. Tests pass their own.
type ValidationConfig struct {
	MinAge      int
	MaxAge      int
	MinStartAge int
	BcryptCost  int
	Debug       bool
}

// TemplateCacheTTL bounds how long an edited template can be served stale.
var TemplateCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables so main stays
// lean. A .env file in the working directory is loaded first when present;
// real environment variables win over it.
func FromEnv() (Server, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Server{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Server{
		Addr:            envOr("ORGTRAKKER_ADDR", ":8080"),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		TenantsFile:     envOr("TENANTS_FILE", "tenants.yaml"),
		BootstrapSchema: os.Getenv("TENANT_SCHEMA_BOOTSTRAP") == "true",
		Log: LogConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "json"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			TemplateTTL:  envDuration("TEMPLATE_CACHE_TTL", TemplateCacheTTL),
		},
		Audit: AuditConfig{
			Sink:          envOr("AUDIT_SINK", "memory"),
			SQLDriver:     envOr("AUDIT_SQL_DRIVER", "sqlite"),
			SQLDSN:        envOr("AUDIT_SQL_DSN", "file:audit.db?_pragma=busy_timeout(5000)"),
			KafkaTopic:    envOr("AUDIT_KAFKA_TOPIC", "orgtrakker.audit"),
			Relay:         os.Getenv("AUDIT_RELAY") == "true",
			RelayInterval: envDuration("AUDIT_RELAY_INTERVAL", time.Second),
		},
		Validation: ValidationConfig{
			MinAge:      envInt("VALIDATION_MIN_AGE", 18),
			MaxAge:      envInt("VALIDATION_MAX_AGE", 100),
			MinStartAge: envInt("VALIDATION_MIN_START_AGE", 18),
			BcryptCost:  envInt("BCRYPT_COST", 10),
			Debug:       os.Getenv("VALIDATION_DEBUG") == "true",
		},
	}
	cfg.Audit.KafkaBrokers = pstrings.SplitList(os.Getenv("AUDIT_KAFKA_BROKERS"), ",")

	switch cfg.Audit.Sink {
	case "memory":
	case "sql":
		if cfg.Audit.Relay && len(cfg.Audit.KafkaBrokers) == 0 {
			return Server{}, errors.New("AUDIT_KAFKA_BROKERS is required when AUDIT_RELAY=true")
		}
	case "kafka":
		if len(cfg.Audit.KafkaBrokers) == 0 {
			return Server{}, errors.New("AUDIT_KAFKA_BROKERS is required when AUDIT_SINK=kafka")
		}
	default:
		return Server{}, fmt.Errorf("unknown AUDIT_SINK %q", cfg.Audit.Sink)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
