package telemetry

import (
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestSceneAttributes(t *testing.T) {
	attrs := SceneAttributes("sc-7", 20, 4)

	if len(attrs) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, SceneIDKey, "sc-7")
	verifyFloatAttribute(t, attrs, SceneTargetKey, 20)
	verifyIntAttribute(t, attrs, SceneShotsKey, 4)
}

func TestShotAttributes(t *testing.T) {
	attrs := ShotAttributes("s2", 2, "start-end", 5)

	verifyAttribute(t, attrs, ShotIDKey, "s2")
	verifyIntAttribute(t, attrs, ShotPositionKey, 2)
	verifyAttribute(t, attrs, ShotTopologyKey, "start-end")
	verifyFloatAttribute(t, attrs, ShotDurationKey, 5)
}

func TestGeneratorAttributes(t *testing.T) {
	tests := []struct {
		name      string
		provider  string
		model     string
		operation string
		wantLen   int
	}{
		{name: "all fields", provider: "openai", model: "gpt-4o-mini", operation: "propose_shots", wantLen: 3},
		{name: "only provider", provider: "fixture", wantLen: 1},
		{name: "empty", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := GeneratorAttributes(tt.provider, tt.model, tt.operation)
			if len(attrs) != tt.wantLen {
				t.Errorf("Expected %d attributes, got %d", tt.wantLen, len(attrs))
			}
			if tt.provider != "" {
				verifyAttribute(t, attrs, GeneratorProviderKey, tt.provider)
			}
		})
	}
}

func TestErrorAttributes(t *testing.T) {
	err := errors.New("test error")
	attrs := ErrorAttributes(err, "incomplete_generation")

	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}

	verifyBoolAttribute(t, attrs, ErrorKey, true)
	verifyAttribute(t, attrs, ErrorTypeKey, "incomplete_generation")
}

// Helper functions for attribute verification

func verifyAttribute(t *testing.T, attrs []attribute.KeyValue, key, expectedValue string) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsString() != expectedValue {
				t.Errorf("Expected %s=%s, got %s", key, expectedValue, attr.Value.AsString())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyIntAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue int) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsInt64() != int64(expectedValue) {
				t.Errorf("Expected %s=%d, got %d", key, expectedValue, attr.Value.AsInt64())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyFloatAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue float64) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsFloat64() != expectedValue {
				t.Errorf("Expected %s=%g, got %g", key, expectedValue, attr.Value.AsFloat64())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyBoolAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue bool) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsBool() != expectedValue {
				t.Errorf("Expected %s=%t, got %t", key, expectedValue, attr.Value.AsBool())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}
