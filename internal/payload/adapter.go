// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package payload

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ManuGH/shotplan/internal/domain/shot"
	"github.com/ManuGH/shotplan/internal/planning/duration"
)

// Reason says how Adapt mapped a shot onto a profile.
type Reason string

const (
	ReasonComplete            Reason = "complete"
	ReasonSingleFrame         Reason = "single_frame"
	ReasonEndFrameUnsupported Reason = "end_frame_unsupported"
	ReasonEndFrameUnavailable Reason = "end_frame_unavailable"
	ReasonNoOpeningFrame      Reason = "no_opening_frame"
)

const (
	RoleFirstFrame = "first_frame"
	RoleLastFrame  = "last_frame"
)

// ErrPrecondition classifies inputs the adapter refuses to map.
var ErrPrecondition = errors.New("payload precondition violated")

// PreconditionError is returned when a shot cannot be mapped at all.
type PreconditionError struct {
	ShotID string
	Reason Reason
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: shot %s: %s", ErrPrecondition.Error(), e.ShotID, e.Reason)
}

func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}

type Frame struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	Role string `json:"role,omitempty"`
}

// Request is the provider-shaped body. Profile, ShotID and Endpoint are
// routing data and stay out of the JSON.
type Request struct {
	Profile  string `json:"-"`
	ShotID   string `json:"-"`
	Endpoint string `json:"-"`

	Model      string  `json:"model,omitempty"`
	Prompt     string  `json:"prompt"`
	Duration   float64 `json:"duration"`
	Frames     []Frame `json:"frames,omitempty"`
	FirstFrame *Frame  `json:"first_frame,omitempty"`
	LastFrame  *Frame  `json:"last_frame,omitempty"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
}

type Input struct {
	Shot    shot.Shot
	Prompts shot.FramePrompts
	Frames  shot.Frames
	Tie     duration.TieBreak
}

type Output struct {
	Request           Request
	Reason            Reason
	EndFrameOmitted   bool
	RequestedDuration float64
}

// Adapt maps one shot onto profile. It has no side effects.
func Adapt(profile Profile, in Input) (Output, error) {
	opening := strings.TrimSpace(in.Frames.Opening)
	if opening == "" {
		return Output{Reason: ReasonNoOpeningFrame}, &PreconditionError{ShotID: in.Shot.ID, Reason: ReasonNoOpeningFrame}
	}

	req := Request{
		Profile:  profile.Name,
		ShotID:   in.Shot.ID,
		Endpoint: profile.Endpoint,
		Model:    profile.Model,
		Prompt:   in.Prompts.Motion,
		Duration: duration.Snap(profile.Durations, in.Shot.Duration, in.Tie),
	}
	if profile.RequiresDimensions {
		req.Width, req.Height = profile.Width, profile.Height
	}

	out := Output{RequestedDuration: in.Shot.Duration, Reason: ReasonComplete}
	closing := ""
	switch in.Shot.Topology {
	case shot.TopologyStartEnd:
		closing = strings.TrimSpace(in.Frames.Closing)
		switch {
		case closing == "":
			out.Reason, out.EndFrameOmitted = ReasonEndFrameUnavailable, true
		case !profile.SupportsEndFrame:
			out.Reason, out.EndFrameOmitted = ReasonEndFrameUnsupported, true
			closing = ""
		}
	case shot.TopologySingle:
		out.Reason = ReasonSingleFrame
	}

	first := label(profile.FrameLabeling, opening, RoleFirstFrame)
	var last *Frame
	if closing != "" {
		f := label(profile.FrameLabeling, closing, RoleLastFrame)
		last = &f
	}

	switch profile.FrameLayout {
	case LayoutTopLevel:
		req.FirstFrame = &first
		req.LastFrame = last
	default:
		req.Frames = []Frame{first}
		if last != nil {
			req.Frames = append(req.Frames, *last)
		}
	}

	out.Request = req
	return out, nil
}

func label(l FrameLabeling, url, role string) Frame {
	if l == LabelInputRole {
		return Frame{Type: "input", URL: url, Role: role}
	}
	return Frame{Type: "image", URL: url}
}
