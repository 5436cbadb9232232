// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package shot

import (
	"fmt"
	"math"
	"strings"
)

// Shot is one filmable unit within a scene.
//
// CameraAngle, Description, Transition and References are carried through
// untouched; nothing in the planning engine interprets them.
type Shot struct {
	ID               string   `json:"id" yaml:"id"`
	Position         int      `json:"position" yaml:"position"`
	Topology         Topology `json:"frame_topology" yaml:"frame_topology"`
	Duration         float64  `json:"duration" yaml:"duration"`
	LinkedToPrevious bool     `json:"is_linked_to_previous" yaml:"is_linked_to_previous"`
	FirstInGroup     bool     `json:"is_first_in_group" yaml:"is_first_in_group"`

	CameraAngle string   `json:"camera_angle,omitempty" yaml:"camera_angle,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Transition  string   `json:"transition,omitempty" yaml:"transition,omitempty"`
	References  []string `json:"references,omitempty" yaml:"references,omitempty"`
}

// Clone returns a deep copy of s.
func (s Shot) Clone() Shot {
	if s.References != nil {
		s.References = append([]string(nil), s.References...)
	}
	return s
}

// ContinuityGroup is an ordered run of at least two shots that hand their
// closing visual state to the next member.
type ContinuityGroup struct {
	ID         string `json:"id" yaml:"id"`
	SceneID    string `json:"scene_id" yaml:"scene_id"`
	Positions  []int  `json:"positions" yaml:"positions"`
	Transition string `json:"transition,omitempty" yaml:"transition,omitempty"`
}

// First returns the position of the opening member.
func (g ContinuityGroup) First() int {
	if len(g.Positions) == 0 {
		return 0
	}
	return g.Positions[0]
}

// Contains reports whether the shot at position belongs to g.
func (g ContinuityGroup) Contains(position int) bool {
	for _, p := range g.Positions {
		if p == position {
			return true
		}
	}
	return false
}

// Scene is a target duration, an ordered shot list and the continuity
// groups derived from it.
type Scene struct {
	ID            string            `json:"id" yaml:"id"`
	TargetSeconds float64           `json:"target_seconds" yaml:"target_seconds"`
	Shots         []Shot            `json:"shots" yaml:"shots"`
	Groups        []ContinuityGroup `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// NewScene builds a scene from a proposed shot list. Positions are re-derived
// from list order, so callers never have to trust the proposer's numbering.
func NewScene(id string, targetSeconds float64, shots []Shot) (Scene, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Scene{}, fmt.Errorf("%w: scene id is required", ErrInvalidProposal)
	}
	if targetSeconds <= 0 {
		return Scene{}, fmt.Errorf("%w: scene %s target duration must be positive, got %g", ErrInvalidProposal, id, targetSeconds)
	}
	s := Scene{ID: id, TargetSeconds: targetSeconds}
	return s.ReplaceShots(shots)
}

// ReplaceShots returns a copy of s carrying the new shot list. Groups are
// cleared because they are only valid for the list that produced them.
func (s Scene) ReplaceShots(shots []Shot) (Scene, error) {
	if len(shots) == 0 {
		return Scene{}, fmt.Errorf("%w: scene %s has no shots", ErrInvalidProposal, s.ID)
	}
	out := Scene{ID: s.ID, TargetSeconds: s.TargetSeconds, Shots: make([]Shot, len(shots))}
	seen := make(map[string]struct{}, len(shots))
	for i, sh := range shots {
		if err := sh.validate(); err != nil {
			return Scene{}, fmt.Errorf("scene %s shot %d: %w", s.ID, i+1, err)
		}
		if _, dup := seen[sh.ID]; dup {
			return Scene{}, fmt.Errorf("%w: scene %s has duplicate shot id %q", ErrInvalidProposal, s.ID, sh.ID)
		}
		seen[sh.ID] = struct{}{}
		c := sh.Clone()
		c.Position = i + 1
		out.Shots[i] = c
	}
	return out, nil
}

// WithGroups returns a copy of s with the given continuity groups attached.
func (s Scene) WithGroups(groups []ContinuityGroup) Scene {
	s.Shots = CloneShots(s.Shots)
	s.Groups = make([]ContinuityGroup, len(groups))
	for i, g := range groups {
		g.Positions = append([]int(nil), g.Positions...)
		s.Groups[i] = g
	}
	return s
}

// ShotAt returns the shot with the given 1-based position.
func (s Scene) ShotAt(position int) (Shot, bool) {
	if position < 1 || position > len(s.Shots) {
		return Shot{}, false
	}
	return s.Shots[position-1], true
}

// TotalSeconds sums the current shot durations.
func (s Scene) TotalSeconds() float64 {
	var total float64
	for _, sh := range s.Shots {
		total += sh.Duration
	}
	return total
}

// Ungrouped returns the positions of shots that are not in any group.
func (s Scene) Ungrouped() []int {
	grouped := make(map[int]bool)
	for _, g := range s.Groups {
		for _, p := range g.Positions {
			grouped[p] = true
		}
	}
	var out []int
	for _, sh := range s.Shots {
		if !grouped[sh.Position] {
			out = append(out, sh.Position)
		}
	}
	return out
}

// CloneShots deep-copies a shot list.
func CloneShots(shots []Shot) []Shot {
	if shots == nil {
		return nil
	}
	out := make([]Shot, len(shots))
	for i, sh := range shots {
		out[i] = sh.Clone()
	}
	return out
}

func (s Shot) validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: shot id is required", ErrInvalidProposal)
	}
	if !s.Topology.Valid() {
		return fmt.Errorf("%w: shot %s has unknown frame topology %q", ErrInvalidProposal, s.ID, s.Topology)
	}
	if s.Duration < 0 || math.IsNaN(s.Duration) || math.IsInf(s.Duration, 0) {
		return fmt.Errorf("%w: shot %s has invalid duration %g", ErrInvalidProposal, s.ID, s.Duration)
	}
	return nil
}
