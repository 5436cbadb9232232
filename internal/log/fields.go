// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRunID   = "run_id"
	FieldSceneID = "scene_id"
	FieldShotID  = "shot_id"
	FieldGroupID = "group_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldProfile   = "profile"
	FieldProvider  = "provider"

	// Planning fields
	FieldPosition  = "position"
	FieldTopology  = "topology"
	FieldTarget    = "target_seconds"
	FieldTotal     = "total_seconds"
	FieldDuration  = "duration_seconds"
	FieldDeviation = "deviation_seconds"
	FieldField     = "field"

	// Trace fields
	FieldTraceID = "trace_id"
	FieldSpanID  = "span_id"
)
