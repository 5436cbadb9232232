// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"time"

	"github.com/ManuGH/shotplan/internal/payload"
	"github.com/ManuGH/shotplan/internal/planning/duration"
)

// Provider names accepted by generator.provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderFixture   = "fixture"
)

// Storage backends accepted by storage.backend.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// AppConfig is the fully resolved configuration.
type AppConfig struct {
	Version string `yaml:"-"`

	Planning   PlanningConfig    `yaml:"planning"`
	Generator  GeneratorConfig   `yaml:"generator"`
	Profiles   []payload.Profile `yaml:"profiles"`
	Submission SubmissionConfig  `yaml:"submission"`
	Storage    StorageConfig     `yaml:"storage"`
	Telemetry  TelemetryConfig   `yaml:"telemetry"`
	Metrics    MetricsConfig     `yaml:"metrics"`
	Log        LogConfig         `yaml:"log"`
}

// PlanningConfig holds the scene-level duration policy.
type PlanningConfig struct {
	AllowedDurations []float64 `yaml:"allowed_durations"`
	Tolerance        float64   `yaml:"tolerance"`
	TieBreak         string    `yaml:"tie_break"`
}

// GeneratorConfig selects and configures the shot proposer and prompt generator.
type GeneratorConfig struct {
	Provider         string        `yaml:"provider"`
	Model            string        `yaml:"model"`
	BaseURL          string        `yaml:"base_url"`
	APIKey           string        `yaml:"api_key"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxTokens        int           `yaml:"max_tokens"`
	FixturePath      string        `yaml:"fixture_path"`
	BreakerThreshold int           `yaml:"breaker_threshold"`
	BreakerReset     time.Duration `yaml:"breaker_reset"`
}

// SubmissionConfig configures per-shot video submission.
type SubmissionConfig struct {
	Concurrency int           `yaml:"concurrency"`
	Endpoint    string        `yaml:"endpoint"`
	Timeout     time.Duration `yaml:"timeout"`
}

// StorageConfig selects where finished plans are kept.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// TelemetryConfig mirrors telemetry.Config.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	Environment  string  `yaml:"environment"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// MetricsConfig configures the Prometheus listener.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DurationPolicy builds the reconciler policy from the planning section.
func (c PlanningConfig) DurationPolicy() (duration.Policy, error) {
	tie, err := duration.ParseTieBreak(c.TieBreak)
	if err != nil {
		return duration.Policy{}, err
	}
	return duration.NewPolicy(c.AllowedDurations, c.Tolerance, tie)
}

// Defaults returns the configuration used when nothing is set.
func Defaults() AppConfig {
	return AppConfig{
		Planning: PlanningConfig{
			AllowedDurations: append([]float64(nil), duration.DefaultAllowed...),
			Tolerance:        duration.DefaultTolerance,
			TieBreak:         string(duration.TieLower),
		},
		Generator: GeneratorConfig{
			Provider:         ProviderFixture,
			Timeout:          60 * time.Second,
			MaxTokens:        4096,
			BreakerThreshold: 3,
			BreakerReset:     30 * time.Second,
		},
		Submission: SubmissionConfig{
			Concurrency: 4,
			Timeout:     5 * time.Minute,
		},
		Storage: StorageConfig{
			Backend: StorageSQLite,
			Path:    "shotplan.db",
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			Environment:  "development",
			SamplingRate: 1.0,
		},
		Log: LogConfig{Level: "info"},
	}
}
