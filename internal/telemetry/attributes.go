// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the engine.
const (
	// Scene attributes
	SceneIDKey       = "scene.id"
	SceneTargetKey   = "scene.target_seconds"
	SceneShotsKey    = "scene.shots"
	SceneGroupsKey   = "scene.groups"
	SceneRealizedKey = "scene.realized_seconds"

	// Shot attributes
	ShotIDKey       = "shot.id"
	ShotPositionKey = "shot.position"
	ShotTopologyKey = "shot.topology"
	ShotDurationKey = "shot.duration_seconds"

	// Generator attributes
	GeneratorProviderKey = "generator.provider"
	GeneratorModelKey    = "generator.model"
	GeneratorOpKey       = "generator.operation"

	// Submission attributes
	ProfileKey          = "submission.profile"
	SubmissionStatusKey = "submission.status"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// SceneAttributes creates scene-level span attributes.
func SceneAttributes(sceneID string, targetSeconds float64, shots int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(SceneIDKey, sceneID),
		attribute.Float64(SceneTargetKey, targetSeconds),
		attribute.Int(SceneShotsKey, shots),
	}
}

// ShotAttributes creates per-shot span attributes.
func ShotAttributes(shotID string, position int, topology string, durationSeconds float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ShotIDKey, shotID),
		attribute.Int(ShotPositionKey, position),
		attribute.String(ShotTopologyKey, topology),
		attribute.Float64(ShotDurationKey, durationSeconds),
	}
}

// GeneratorAttributes creates attributes for an external generator call.
// Empty values are left out.
func GeneratorAttributes(provider, model, operation string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if provider != "" {
		attrs = append(attrs, attribute.String(GeneratorProviderKey, provider))
	}
	if model != "" {
		attrs = append(attrs, attribute.String(GeneratorModelKey, model))
	}
	if operation != "" {
		attrs = append(attrs, attribute.String(GeneratorOpKey, operation))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
