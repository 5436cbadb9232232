// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package payload maps a planned shot and its resolved frames onto the
// request shape a video provider's capability profile accepts.
package payload

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// FrameLayout is where a profile expects frames in the request body.
type FrameLayout string

const (
	// LayoutArray wraps all frames in a single "frames" array.
	LayoutArray FrameLayout = "array"
	// LayoutTopLevel uses separate first_frame / last_frame fields.
	LayoutTopLevel FrameLayout = "top_level"
)

// FrameLabeling is how each frame entry is tagged.
type FrameLabeling string

const (
	// LabelImage tags entries as plain images; order carries the meaning.
	LabelImage FrameLabeling = "image"
	// LabelInputRole tags entries as generic inputs with an explicit role.
	LabelInputRole FrameLabeling = "input_role"
)

// Profile describes one downstream video-generation target.
type Profile struct {
	Name               string        `yaml:"name" json:"name"`
	Model              string        `yaml:"model,omitempty" json:"model,omitempty"`
	Endpoint           string        `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	FrameLayout        FrameLayout   `yaml:"frame_layout" json:"frame_layout"`
	FrameLabeling      FrameLabeling `yaml:"frame_labeling" json:"frame_labeling"`
	SupportsEndFrame   bool          `yaml:"supports_end_frame" json:"supports_end_frame"`
	RequiresDimensions bool          `yaml:"requires_dimensions" json:"requires_dimensions"`
	Width              int           `yaml:"width,omitempty" json:"width,omitempty"`
	Height             int           `yaml:"height,omitempty" json:"height,omitempty"`
	Durations          []float64     `yaml:"durations" json:"durations"`
	RatePerSecond      float64       `yaml:"rate_per_second,omitempty" json:"rate_per_second,omitempty"`
	Burst              int           `yaml:"burst,omitempty" json:"burst,omitempty"`
}

// ErrUnknownProfile is returned by Registry.Get for names it does not hold.
var ErrUnknownProfile = errors.New("unknown capability profile")

// Validate checks a single profile in isolation.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("profile name is required")
	}
	switch p.FrameLayout {
	case LayoutArray, LayoutTopLevel:
	default:
		return fmt.Errorf("profile %s: unknown frame_layout %q (supported: array, top_level)", p.Name, p.FrameLayout)
	}
	switch p.FrameLabeling {
	case LabelImage, LabelInputRole:
	default:
		return fmt.Errorf("profile %s: unknown frame_labeling %q (supported: image, input_role)", p.Name, p.FrameLabeling)
	}
	if len(p.Durations) == 0 {
		return fmt.Errorf("profile %s: durations must not be empty", p.Name)
	}
	for _, d := range p.Durations {
		if d <= 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return fmt.Errorf("profile %s: durations must be positive, got %g", p.Name, d)
		}
	}
	if p.RequiresDimensions && (p.Width <= 0 || p.Height <= 0) {
		return fmt.Errorf("profile %s: requires_dimensions needs positive width and height", p.Name)
	}
	if p.RatePerSecond < 0 || p.Burst < 0 {
		return fmt.Errorf("profile %s: rate_per_second and burst must not be negative", p.Name)
	}
	return nil
}

// DefaultProfiles are used when configuration declares none.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Name:             "interp-array",
			FrameLayout:      LayoutArray,
			FrameLabeling:    LabelInputRole,
			SupportsEndFrame: true,
			Durations:        []float64{5, 10},
		},
		{
			Name:               "first-frame-only",
			FrameLayout:        LayoutTopLevel,
			FrameLabeling:      LabelImage,
			SupportsEndFrame:   false,
			RequiresDimensions: true,
			Width:              1280,
			Height:             720,
			Durations:          []float64{4, 6, 8},
		},
	}
}

// Registry resolves profiles by name.
type Registry struct {
	byName map[string]Profile
}

// NewRegistry validates profiles and indexes them by name. An empty list
// yields the defaults.
func NewRegistry(profiles []Profile) (*Registry, error) {
	if len(profiles) == 0 {
		profiles = DefaultProfiles()
	}
	r := &Registry{byName: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate capability profile %q", p.Name)
		}
		p.Durations = append([]float64(nil), p.Durations...)
		r.byName[p.Name] = p
	}
	return r, nil
}

// Get returns the named profile.
func (r *Registry) Get(name string) (Profile, error) {
	p, ok := r.byName[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownProfile, name, strings.Join(r.Names(), ", "))
	}
	return p, nil
}

// Names lists the registered profile names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
