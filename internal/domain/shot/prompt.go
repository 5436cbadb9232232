// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package shot

import "strings"

// PromptField names one slot of a PromptSet.
type PromptField string

const (
	FieldImage           PromptField = "image_prompt"
	FieldStartFrame      PromptField = "start_frame_prompt"
	FieldEndFrame        PromptField = "end_frame_prompt"
	FieldVideoMotion     PromptField = "video_motion_prompt"
	FieldContinuityNotes PromptField = "continuity_notes"
)

// PromptSet is the batch prompt generator's output for one shot.
// A nil pointer means the slot is intentionally empty. Generators often send
// "" instead of null, so blank text counts as empty too.
type PromptSet struct {
	ShotID            string  `json:"shot_id" yaml:"shot_id"`
	ImagePrompt       *string `json:"image_prompt" yaml:"image_prompt"`
	StartFramePrompt  *string `json:"start_frame_prompt" yaml:"start_frame_prompt"`
	EndFramePrompt    *string `json:"end_frame_prompt" yaml:"end_frame_prompt"`
	VideoMotionPrompt string  `json:"video_motion_prompt" yaml:"video_motion_prompt"`
	ContinuityNotes   *string `json:"continuity_notes" yaml:"continuity_notes"`
}

// Get returns the value of field and whether it is populated. Whitespace-only
// text is not populated.
func (p PromptSet) Get(field PromptField) (string, bool) {
	switch field {
	case FieldImage:
		return deref(p.ImagePrompt)
	case FieldStartFrame:
		return deref(p.StartFramePrompt)
	case FieldEndFrame:
		return deref(p.EndFramePrompt)
	case FieldContinuityNotes:
		return deref(p.ContinuityNotes)
	case FieldVideoMotion:
		return p.VideoMotionPrompt, strings.TrimSpace(p.VideoMotionPrompt) != ""
	default:
		return "", false
	}
}

// Clear empties the given nullable field.
func (p *PromptSet) Clear(field PromptField) {
	switch field {
	case FieldImage:
		p.ImagePrompt = nil
	case FieldStartFrame:
		p.StartFramePrompt = nil
	case FieldEndFrame:
		p.EndFramePrompt = nil
	case FieldContinuityNotes:
		p.ContinuityNotes = nil
	case FieldVideoMotion:
		p.VideoMotionPrompt = ""
	}
}

// DropBlank clears every field that holds only whitespace.
func (p *PromptSet) DropBlank() {
	for _, f := range []PromptField{FieldImage, FieldStartFrame, FieldEndFrame, FieldVideoMotion, FieldContinuityNotes} {
		if _, ok := p.Get(f); !ok {
			p.Clear(f)
		}
	}
}

// Clone returns a copy of p that shares no pointers with it.
func (p PromptSet) Clone() PromptSet {
	p.ImagePrompt = clonePtr(p.ImagePrompt)
	p.StartFramePrompt = clonePtr(p.StartFramePrompt)
	p.EndFramePrompt = clonePtr(p.EndFramePrompt)
	p.ContinuityNotes = clonePtr(p.ContinuityNotes)
	return p
}

// Text returns a pointer to s, for building prompt sets literally.
func Text(s string) *string {
	return &s
}

// FramePrompts is the materialised view of a shot's prompts after
// inheritance: opening and closing are always filled when available.
type FramePrompts struct {
	ShotID        string `json:"shot_id"`
	Opening       string `json:"opening"`
	Closing       string `json:"closing"`
	Motion        string `json:"motion"`
	InheritedFrom string `json:"inherited_from,omitempty"`
}

// Frames holds resolved image URLs for a shot.
type Frames struct {
	Opening string `json:"opening,omitempty" yaml:"opening,omitempty"`
	Closing string `json:"closing,omitempty" yaml:"closing,omitempty"`
}

func deref(p *string) (string, bool) {
	if p == nil || strings.TrimSpace(*p) == "" {
		return "", false
	}
	return *p, true
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
