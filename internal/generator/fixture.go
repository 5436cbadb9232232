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

// FixtureScene is one scene's canned generator output.
type FixtureScene struct {
	Shots   []shot.Shot      `yaml:"shots"`
	Prompts []shot.PromptSet `yaml:"prompts"`
}

type fixtureFile struct {
	Scenes map[string]FixtureScene `yaml:"scenes"`
}

// Fixture replays recorded generator output keyed by scene id. It is used
// for offline runs and tests.
type Fixture struct {
	scenes map[string]FixtureScene
}

// NewFixture builds a Fixture from in-memory scenes.
func NewFixture(scenes map[string]FixtureScene) *Fixture {
	return &Fixture{scenes: scenes}
}

// LoadFixture reads a fixture YAML file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f fixtureFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return NewFixture(f.Scenes), nil
}

func (f *Fixture) scene(id string) (FixtureScene, error) {
	sc, ok := f.scenes[id]
	if !ok {
		return FixtureScene{}, fmt.Errorf("fixture has no scene %q", id)
	}
	return sc, nil
}

// ProposeShots returns a copy of the recorded shot list.
func (f *Fixture) ProposeShots(_ context.Context, sc ports.SceneContext) ([]shot.Shot, error) {
	s, err := f.scene(sc.SceneID)
	if err != nil {
		return nil, err
	}
	return shot.CloneShots(s.Shots), nil
}

// GeneratePrompts returns a copy of the recorded prompt batch.
func (f *Fixture) GeneratePrompts(_ context.Context, req ports.PromptRequest) ([]shot.PromptSet, error) {
	s, err := f.scene(req.SceneID)
	if err != nil {
		return nil, err
	}
	out := make([]shot.PromptSet, len(s.Prompts))
	for i, p := range s.Prompts {
		out[i] = p.Clone()
	}
	return out, nil
}
