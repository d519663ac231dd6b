package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/handling/breaker"
	"github.com/vietddude/remedy/internal/handling/classify"
	"github.com/vietddude/remedy/internal/handling/recovery"
	"github.com/vietddude/remedy/internal/infra/sink"
)

// Default returns a fully defaulted configuration.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Classifier.MinConfidence == 0 {
		cfg.Classifier.MinConfidence = classify.DefaultConfig().MinConfidence
	}
	if cfg.Breaker.Threshold == 0 {
		cfg.Breaker.Threshold = breaker.DefaultConfig().Threshold
	}
	if cfg.Breaker.Cooldown == 0 {
		cfg.Breaker.Cooldown = breaker.DefaultConfig().Cooldown
	}
	if cfg.Recovery.MaxParallel == 0 {
		cfg.Recovery.MaxParallel = recovery.DefaultConfig().MaxParallel
	}
	if cfg.Recovery.StepTimeout == 0 {
		cfg.Recovery.StepTimeout = recovery.DefaultConfig().StepTimeout
	}
	if cfg.Records.Retention == 0 {
		cfg.Records.Retention = 1 * time.Hour
	}
	if cfg.Feedback.Role == "" {
		cfg.Feedback.Role = string(domain.RoleEndUser)
	}

	sinkDefaults := sink.DefaultConfig()
	if cfg.Sink.Backend == "" {
		cfg.Sink.Backend = sinkDefaults.Backend
	}
	if cfg.Sink.Path == "" {
		cfg.Sink.Path = sinkDefaults.Path
	}
	if cfg.Sink.BufferSize == 0 {
		cfg.Sink.BufferSize = sinkDefaults.BufferSize
	}
	if cfg.Sink.BatchSize == 0 {
		cfg.Sink.BatchSize = sinkDefaults.BatchSize
	}
	if cfg.Sink.FlushInterval == 0 {
		cfg.Sink.FlushInterval = sinkDefaults.FlushInterval
	}
	if cfg.Sink.RotateSize == 0 {
		cfg.Sink.RotateSize = sinkDefaults.RotateSize
	}
	if cfg.Sink.RedactFields == nil {
		cfg.Sink.RedactFields = sinkDefaults.RedactFields
	}
}
