package generator

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/ManuGH/shotplan/internal/domain/ports"
	"github.com/ManuGH/shotplan/internal/domain/shot"
	"gopkg.in/yaml.v3"
)

// FileFrames resolves frame URLs from a frames.yaml manifest produced by an
// external image step:
//
//	frames:
//	  s1: {opening: https://..., closing: https://...}
type FileFrames struct {
	frames map[string]shot.Frames
}

// NewFileFrames wraps an in-memory manifest.
func NewFileFrames(frames map[string]shot.Frames) *FileFrames {
	return &FileFrames{frames: frames}
}

// LoadFileFrames reads a frames manifest.
func LoadFileFrames(path string) (*FileFrames, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}
	var f struct {
		Frames map[string]shot.Frames `yaml:"frames"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse frames %s: %w", path, err)
	}
	return NewFileFrames(f.Frames), nil
}

// ResolveFrames looks the shot up in the manifest. A linked shot only needs
// its closing frame listed; the inherited opening always wins.
func (f *FileFrames) ResolveFrames(_ context.Context, req ports.FrameRequest) (shot.Frames, error) {
	fr, ok := f.frames[req.Shot.ID]
	if !ok && req.InheritedOpening == "" {
		return shot.Frames{}, fmt.Errorf("no frames listed for shot %s", req.Shot.ID)
	}
	if req.InheritedOpening != "" {
		fr.Opening = req.InheritedOpening
	}
	return fr, nil
}
