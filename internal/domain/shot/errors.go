// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package shot

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidProposal classifies proposer output that cannot form a scene.
	ErrInvalidProposal = errors.New("invalid shot proposal")

	// ErrIncompleteGeneration classifies prompt batches that cannot be
	// reconciled with the scene's shot list. Use errors.As with
	// *IncompleteGenerationError for details.
	ErrIncompleteGeneration = errors.New("incomplete prompt generation")
)

// FieldGap names a required prompt field the generator left empty.
type FieldGap struct {
	ShotID string
	Field  PromptField
}

// IncompleteGenerationError is a structural failure of a prompt batch.
type IncompleteGenerationError struct {
	SceneID       string
	Missing       []string
	Duplicate     []string
	Unknown       []string
	MissingFields []FieldGap
}

func (e *IncompleteGenerationError) Error() string {
	if e == nil {
		return ErrIncompleteGeneration.Error()
	}
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing shots "+strings.Join(e.Missing, ","))
	}
	if len(e.Duplicate) > 0 {
		parts = append(parts, "duplicate shots "+strings.Join(e.Duplicate, ","))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, "unknown shots "+strings.Join(e.Unknown, ","))
	}
	for _, g := range e.MissingFields {
		parts = append(parts, fmt.Sprintf("shot %s missing %s", g.ShotID, g.Field))
	}
	if len(parts) == 0 {
		return ErrIncompleteGeneration.Error()
	}
	return ErrIncompleteGeneration.Error() + ": " + strings.Join(parts, "; ")
}

func (e *IncompleteGenerationError) Unwrap() error {
	return ErrIncompleteGeneration
}

// ShotID returns the first shot the failure can be attributed to, if any.
func (e *IncompleteGenerationError) ShotID() string {
	if e == nil {
		return ""
	}
	switch {
	case len(e.Missing) > 0:
		return e.Missing[0]
	case len(e.Duplicate) > 0:
		return e.Duplicate[0]
	case len(e.Unknown) > 0:
		return e.Unknown[0]
	case len(e.MissingFields) > 0:
		return e.MissingFields[0].ShotID
	}
	return ""
}

// SceneError attributes a planning or generation failure to a scene and,
// when known, a shot. Its message is what end users see.
type SceneError struct {
	SceneID string
	ShotID  string
	Err     error
}

func (e *SceneError) Error() string {
	if e.ShotID == "" {
		return fmt.Sprintf("shot generation failed for scene %s: %v", e.SceneID, e.Err)
	}
	return fmt.Sprintf("shot generation failed for scene %s, shot %s: %v", e.SceneID, e.ShotID, e.Err)
}

func (e *SceneError) Unwrap() error {
	return e.Err
}
