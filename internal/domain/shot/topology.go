// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package shot

import (
	"fmt"
	"strings"
)

// Topology describes how many generated images drive a shot.
type Topology string

const (
	// TopologySingle animates one generated image in place.
	TopologySingle Topology = "single"
	// TopologyStartEnd interpolates between a start and an end image.
	TopologyStartEnd Topology = "start-end"
)

// ParseTopology accepts the canonical names plus the spellings generators
// tend to produce ("start_end", "startend", "start-end-frame").
func ParseTopology(raw string) (Topology, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case "single", "single-frame", "single_frame", "image":
		return TopologySingle, nil
	case "start-end", "start_end", "startend", "start-end-frame", "start_end_frame":
		return TopologyStartEnd, nil
	default:
		return "", fmt.Errorf("%w: unknown frame topology %q", ErrInvalidProposal, raw)
	}
}

// Valid reports whether t is one of the known variants.
func (t Topology) Valid() bool {
	switch t {
	case TopologySingle, TopologyStartEnd:
		return true
	}
	return false
}

// HandsOff reports whether the shot produces a closing state distinct from
// its opening one, i.e. whether a successor can inherit from it.
func (t Topology) HandsOff() bool {
	switch t {
	case TopologyStartEnd:
		return true
	case TopologySingle:
		return false
	default:
		return false
	}
}

// OpeningField is the prompt field that describes the shot's first frame.
func (t Topology) OpeningField() PromptField {
	switch t {
	case TopologyStartEnd:
		return FieldStartFrame
	case TopologySingle:
		return FieldImage
	default:
		return ""
	}
}

// ClosingField is the prompt field that describes the shot's last frame.
func (t Topology) ClosingField() PromptField {
	switch t {
	case TopologyStartEnd:
		return FieldEndFrame
	case TopologySingle:
		return FieldImage
	default:
		return ""
	}
}

// FrameSlots is the number of generated images the shot needs.
func (t Topology) FrameSlots() int {
	switch t {
	case TopologyStartEnd:
		return 2
	case TopologySingle:
		return 1
	default:
		return 0
	}
}

// UnmarshalText lets JSON and YAML decoders accept every spelling ParseTopology knows.
func (t *Topology) UnmarshalText(text []byte) error {
	parsed, err := ParseTopology(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
