// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"strings"

	"github.com/ManuGH/shotplan/internal/payload"
	"github.com/ManuGH/shotplan/internal/planning/duration"
	"github.com/ManuGH/shotplan/internal/validate"
	"github.com/rs/zerolog"
)

// Validate validates an AppConfig using the centralized validation package
func Validate(cfg AppConfig) error {
	v := validate.New()

	// Planning policy
	v.PositiveFloats("planning.allowed_durations", cfg.Planning.AllowedDurations)
	v.OpenInterval("planning.tolerance", cfg.Planning.Tolerance, 0, 1)
	if _, err := duration.ParseTieBreak(cfg.Planning.TieBreak); err != nil {
		v.AddError("planning.tie_break", err.Error(), cfg.Planning.TieBreak)
	}

	// Generator
	v.OneOf("generator.provider", cfg.Generator.Provider, []string{ProviderOpenAI, ProviderAnthropic, ProviderFixture})
	if strings.TrimSpace(cfg.Generator.BaseURL) != "" {
		v.URL("generator.base_url", cfg.Generator.BaseURL, []string{"http", "https"})
	}
	if cfg.Generator.Timeout <= 0 {
		v.AddError("generator.timeout", "must be positive", cfg.Generator.Timeout)
	}
	v.NonNegative("generator.breaker_threshold", cfg.Generator.BreakerThreshold)

	// Capability profiles
	if _, err := payload.NewRegistry(cfg.Profiles); err != nil {
		v.AddError("profiles", err.Error(), len(cfg.Profiles))
	}
	for _, p := range cfg.Profiles {
		if p.Endpoint != "" {
			v.URL(fmt.Sprintf("profiles[%s].endpoint", p.Name), p.Endpoint, []string{"http", "https"})
		}
	}

	// Submission
	v.Range("submission.concurrency", cfg.Submission.Concurrency, 1, 64)
	if cfg.Submission.Endpoint != "" {
		v.URL("submission.endpoint", cfg.Submission.Endpoint, []string{"http", "https"})
	}

	// Storage
	v.OneOf("storage.backend", cfg.Storage.Backend, []string{StorageSQLite, StorageMemory})
	if cfg.Storage.Backend == StorageSQLite {
		v.NotEmpty("storage.path", cfg.Storage.Path)
	}

	// Telemetry
	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
	}

	if cfg.Metrics.Listen != "" {
		v.ListenAddr("metrics.listen", cfg.Metrics.Listen)
	}

	// Same parser the logger applies, so every level it honours passes here.
	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		v.AddError("log.level", err.Error(), cfg.Log.Level)
	}

	return v.Err()
}
