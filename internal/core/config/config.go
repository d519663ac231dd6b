package config

import (
	"time"

	"github.com/vietddude/remedy/internal/handling/breaker"
	"github.com/vietddude/remedy/internal/handling/classify"
	"github.com/vietddude/remedy/internal/handling/recovery"
	"github.com/vietddude/remedy/internal/infra/sink"
	"github.com/vietddude/remedy/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig    `yaml:"server"`
	Logging    LoggingConfig   `yaml:"logging"`
	Classifier classify.Config `yaml:"classifier"`
	Breaker    breaker.Config  `yaml:"breaker"`
	Recovery   recovery.Config `yaml:"recovery"`
	Sink       sink.Config     `yaml:"sink"`
	Records    RecordsConfig   `yaml:"records"`
	Archive    ArchiveConfig   `yaml:"archive"`
	Feedback   FeedbackConfig  `yaml:"feedback"`
}

// FeedbackConfig selects the audience tier for composed messages.
type FeedbackConfig struct {
	Role string `yaml:"role"` // END_USER, POWER_USER, DEVELOPER, ADMINISTRATOR
}

// ServerConfig holds ops HTTP server settings.
type ServerConfig struct {
	Port    int  `yaml:"port"`
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// RecordsConfig holds in-memory record store settings.
type RecordsConfig struct {
	Retention time.Duration `yaml:"retention"` // 0 = infinite
}

// ArchiveConfig holds the optional durable archive settings.
type ArchiveConfig struct {
	Enabled  bool            `yaml:"enabled"`
	Database postgres.Config `yaml:"database"`
}
