// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package orchestrator runs the planning engine for one scene at a time and
// drives per-shot video submission for finished plans.
package orchestrator

import (
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/shotplan/internal/domain/shot"
	"github.com/ManuGH/shotplan/internal/planning/continuity"
	"github.com/ManuGH/shotplan/internal/planning/duration"
	"github.com/ManuGH/shotplan/internal/planning/inheritance"
)

// Plan is a finished, internally consistent shot plan for one scene.
// Prompts and FramePrompts are positionally aligned with Scene.Shots.
type Plan struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`

	Scene        shot.Scene          `json:"scene"`
	Prompts      []shot.PromptSet    `json:"prompts"`
	FramePrompts []shot.FramePrompts `json:"frame_prompts"`

	Durations         duration.Result             `json:"durations"`
	FlagCorrections   []continuity.FlagCorrection `json:"flag_corrections,omitempty"`
	PromptCorrections []inheritance.Correction    `json:"prompt_corrections,omitempty"`
	NotesMissing      []string                    `json:"notes_missing,omitempty"`
}

// GroupOf returns the group containing position, if any.
func (p Plan) GroupOf(position int) (shot.ContinuityGroup, bool) {
	for _, g := range p.Scene.Groups {
		if g.Contains(position) {
			return g, true
		}
	}
	return shot.ContinuityGroup{}, false
}

// ErrInconsistentPlan marks a plan whose shots, groups and frame prompts do
// not line up. Plans read back from JSON or a store are never re-derived, so
// the submitter checks them before indexing by position.
var ErrInconsistentPlan = errors.New("inconsistent plan")

// Validate checks that shot positions run 1..n in list order, frame prompts
// align with shots, and every group position is in range and claimed by at
// most one group.
func (p Plan) Validate() error {
	n := len(p.Scene.Shots)
	if len(p.FramePrompts) != n {
		return fmt.Errorf("%w: plan %s has %d frame prompts for %d shots", ErrInconsistentPlan, p.Scene.ID, len(p.FramePrompts), n)
	}
	for i, sh := range p.Scene.Shots {
		if sh.Position != i+1 {
			return fmt.Errorf("%w: plan %s shot %s at index %d has position %d", ErrInconsistentPlan, p.Scene.ID, sh.ID, i, sh.Position)
		}
		if id := p.FramePrompts[i].ShotID; id != "" && id != sh.ID {
			return fmt.Errorf("%w: plan %s frame prompts %d belong to %s, not %s", ErrInconsistentPlan, p.Scene.ID, i+1, id, sh.ID)
		}
	}
	owner := make(map[int]string, n)
	for _, g := range p.Scene.Groups {
		if len(g.Positions) < 2 {
			return fmt.Errorf("%w: plan %s group %s has %d members", ErrInconsistentPlan, p.Scene.ID, g.ID, len(g.Positions))
		}
		for i, pos := range g.Positions {
			if pos < 1 || pos > n {
				return fmt.Errorf("%w: plan %s group %s position %d out of range 1..%d", ErrInconsistentPlan, p.Scene.ID, g.ID, pos, n)
			}
			if i > 0 && pos != g.Positions[i-1]+1 {
				return fmt.Errorf("%w: plan %s group %s is not contiguous at position %d", ErrInconsistentPlan, p.Scene.ID, g.ID, pos)
			}
			if other, taken := owner[pos]; taken {
				return fmt.Errorf("%w: plan %s position %d is in groups %s and %s", ErrInconsistentPlan, p.Scene.ID, pos, other, g.ID)
			}
			owner[pos] = g.ID
		}
	}
	return nil
}
