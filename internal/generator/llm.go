// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package generator provides the shot proposers, prompt generators, frame
// sources and video submitters the planning engine drives. None of them
// enforce the planning contract; the engine validates what they return.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ManuGH/shotplan/internal/domain/ports"
	"github.com/ManuGH/shotplan/internal/domain/shot"
	xglog "github.com/ManuGH/shotplan/internal/log"
)

// completer sends one system and one user message and returns the model's
// text reply.
type completer interface {
	complete(ctx context.Context, system, user string) (string, error)
}

// LLM turns chat completions into shot proposals and prompt batches.
type LLM struct {
	provider string
	model    string
	c        completer
}

const proposeSystemPrompt = `You are a film director breaking a scene into shots.
Reply with a single JSON object and nothing else:
{"shots":[{"id":"...","duration":5,"frame_topology":"single|start_end","is_linked_to_previous":false,"is_first_in_group":false,"camera_angle":"...","description":"...","transition":"..."}]}
Durations must come from the allowed set. A shot may only be linked to the previous one when that shot is start_end.`

const promptsSystemPrompt = `You write image and motion prompts for every shot of a scene in one pass.
Reply with a single JSON object and nothing else:
{"prompts":[{"shot_id":"...","image_prompt":null,"start_frame_prompt":null,"end_frame_prompt":null,"video_motion_prompt":"...","continuity_notes":null}]}
Return exactly one entry per shot id, do not add or drop ids.
single shots fill image_prompt; start_end shots fill start_frame_prompt and end_frame_prompt.
A shot linked to the previous one leaves its opening prompt null; it inherits the previous closing frame.
Only the first shot of a continuity group writes continuity_notes.`

type proposalEnvelope struct {
	Shots []shot.Shot `json:"shots"`
}

type promptsEnvelope struct {
	Prompts []shot.PromptSet `json:"prompts"`
}

// ProposeShots asks the model for a shot list.
func (l *LLM) ProposeShots(ctx context.Context, sc ports.SceneContext) ([]shot.Shot, error) {
	user, err := json.Marshal(sc)
	if err != nil {
		return nil, err
	}
	raw, err := l.c.complete(ctx, proposeSystemPrompt, "Scene:\n"+string(user))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.provider, err)
	}
	var env proposalEnvelope
	if err := decodeReply(raw, &env); err != nil {
		return nil, err
	}
	if len(env.Shots) == 0 {
		return nil, fmt.Errorf("%w: %s returned no shots", shot.ErrInvalidProposal, l.provider)
	}
	l.logReply(ctx, "propose_shots", len(raw))
	return env.Shots, nil
}

type promptShot struct {
	ID               string        `json:"id"`
	Position         int           `json:"position"`
	Topology         shot.Topology `json:"frame_topology"`
	LinkedToPrevious bool          `json:"is_linked_to_previous"`
	FirstInGroup     bool          `json:"is_first_in_group"`
	CameraAngle      string        `json:"camera_angle,omitempty"`
	Description      string        `json:"description,omitempty"`
	GroupID          string        `json:"group_id,omitempty"`
}

// GeneratePrompts asks the model for one PromptSet per shot.
func (l *LLM) GeneratePrompts(ctx context.Context, req ports.PromptRequest) ([]shot.PromptSet, error) {
	shots := make([]promptShot, len(req.Shots))
	for i, sh := range req.Shots {
		ps := promptShot{
			ID:               sh.ID,
			Position:         sh.Position,
			Topology:         sh.Topology,
			LinkedToPrevious: sh.LinkedToPrevious,
			FirstInGroup:     sh.FirstInGroup,
			CameraAngle:      sh.CameraAngle,
			Description:      sh.Description,
		}
		for _, g := range req.Groups {
			if g.Contains(sh.Position) {
				ps.GroupID = g.ID
				break
			}
		}
		shots[i] = ps
	}
	user, err := json.Marshal(map[string]any{
		"scene_id": req.SceneID,
		"shots":    shots,
		"anchors":  req.Anchors,
	})
	if err != nil {
		return nil, err
	}
	raw, err := l.c.complete(ctx, promptsSystemPrompt, string(user))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.provider, err)
	}
	var env promptsEnvelope
	if err := decodeReply(raw, &env); err != nil {
		return nil, err
	}
	l.logReply(ctx, "generate_prompts", len(raw))
	return env.Prompts, nil
}

func (l *LLM) logReply(ctx context.Context, op string, size int) {
	logger := xglog.WithComponentFromContext(ctx, "generator")
	logger.Debug().
		Str(xglog.FieldProvider, l.provider).
		Str("model", l.model).
		Str("operation", op).
		Int("reply_bytes", size).
		Msg("generator replied")
}

// decodeReply parses a model reply, falling back to the outermost JSON object
// when the model wrapped it in prose or code fences.
func decodeReply(raw string, v any) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty model reply", shot.ErrInvalidProposal)
	}
	err := json.Unmarshal([]byte(raw), v)
	if err == nil {
		return nil
	}
	fixed := extractFirstJSONObject(raw)
	if fixed == "" {
		return fmt.Errorf("%w: reply is not JSON: %v", shot.ErrInvalidProposal, err)
	}
	if err := json.Unmarshal([]byte(fixed), v); err != nil {
		return fmt.Errorf("%w: reply is not JSON: %v", shot.ErrInvalidProposal, err)
	}
	return nil
}

func extractFirstJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
