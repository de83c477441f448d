package config

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config holds casectl configuration.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`

	PostgresUser     string `env:"POSTGRES_USER" envDefault:"casecore"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"casecore_pass"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"casecore"`
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	SSLMode          string `env:"DATABASE_SSLMODE" envDefault:"disable"`

	MaxConns        int32         `env:"DATABASE_MAX_CONNS" envDefault:"8"`
	MaxConnIdleTime time.Duration `env:"DATABASE_MAX_CONN_IDLE" envDefault:"5m"`

	// MigrationsDir overrides the embedded schema when set.
	MigrationsDir string `env:"MIGRATIONS_DIR"`
	CatalogFile   string `env:"CATALOG_FILE" envDefault:"configs/catalog.yaml"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	AuditSigningKeyHex string `env:"AUDIT_SIGNING_KEY"`
	AuditSigningKey    []byte

	OTelEndpoint string `env:"OTEL_EXPORTER_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB, cfg.SSLMode)
	}

	if raw := strings.TrimSpace(cfg.AuditSigningKeyHex); raw != "" {
		key, err := hex.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("AUDIT_SIGNING_KEY must be hex: %w", err)
		}
		cfg.AuditSigningKey = key
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "json", "console":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be json or console, got %q", cfg.LogFormat)
	}

	return &cfg, nil
}

// Logger builds the root logger. Console output is meant for terminals.
func (c *Config) Logger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if strings.EqualFold(c.LogFormat, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
