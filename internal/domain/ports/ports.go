// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ports defines the contracts between the planning engine and the
// external generators it drives. The engine only validates what comes back;
// it never depends on how a generator works.
package ports

import (
	"context"
	"time"

	"github.com/ManuGH/shotplan/internal/domain/shot"
	"github.com/ManuGH/shotplan/internal/payload"
)

// TopologyPolicy tells the proposer which frame topologies it may use.
type TopologyPolicy string

const (
	PolicyAny            TopologyPolicy = "any"
	PolicySingleOnly     TopologyPolicy = "single_only"
	PolicyStartEndOnly   TopologyPolicy = "start_end_only"
	PolicyPreferStartEnd TopologyPolicy = "prefer_start_end"
)

// SceneContext is everything a shot proposer sees about one scene.
type SceneContext struct {
	SceneID          string         `json:"scene_id" yaml:"scene_id"`
	Script           string         `json:"script" yaml:"script"`
	Cast             []string       `json:"cast,omitempty" yaml:"cast,omitempty"`
	Locations        []string       `json:"locations,omitempty" yaml:"locations,omitempty"`
	TargetSeconds    float64        `json:"target_seconds" yaml:"target_seconds"`
	AllowedDurations []float64      `json:"allowed_durations" yaml:"allowed_durations"`
	TopologyPolicy   TopologyPolicy `json:"topology_policy,omitempty" yaml:"topology_policy,omitempty"`
}

// IdentityAnchors are the stable visual descriptors every prompt must honour.
type IdentityAnchors struct {
	Characters map[string]string `json:"characters,omitempty" yaml:"characters,omitempty"`
	Locations  map[string]string `json:"locations,omitempty" yaml:"locations,omitempty"`
	Style      string            `json:"style,omitempty" yaml:"style,omitempty"`
}

// PromptRequest asks for prompts for every shot of a scene in one pass.
type PromptRequest struct {
	SceneID string
	Shots   []shot.Shot
	Groups  []shot.ContinuityGroup
	Anchors IdentityAnchors
}

// ShotProposer turns scene context into an ordered shot list with proposed
// durations and continuity flags.
type ShotProposer interface {
	ProposeShots(ctx context.Context, scene SceneContext) ([]shot.Shot, error)
}

// PromptGenerator returns one PromptSet per shot of the request.
type PromptGenerator interface {
	GeneratePrompts(ctx context.Context, req PromptRequest) ([]shot.PromptSet, error)
}

// FrameRequest asks for a shot's frame images. InheritedOpening is set for
// linked shots and must be used as the opening frame verbatim.
type FrameRequest struct {
	SceneID          string
	Shot             shot.Shot
	Prompts          shot.FramePrompts
	InheritedOpening string
}

// FrameSource resolves a shot's frame image URLs (external image generation).
type FrameSource interface {
	ResolveFrames(ctx context.Context, req FrameRequest) (shot.Frames, error)
}

// VideoResult is what a video provider reports for one submitted shot.
type VideoResult struct {
	VideoURL         string        `json:"video_url,omitempty"`
	JobID            string        `json:"job_id,omitempty"`
	RealizedDuration float64       `json:"duration,omitempty"`
	ClosingFrameURL  string        `json:"closing_frame_url,omitempty"`
	Elapsed          time.Duration `json:"-"`
}

// VideoSubmitter sends one adapted request to a video provider.
type VideoSubmitter interface {
	Submit(ctx context.Context, req payload.Request) (VideoResult, error)
}
