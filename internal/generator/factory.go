package generator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ManuGH/shotplan/internal/config"
	"github.com/ManuGH/shotplan/internal/domain/ports"
)

// Generators bundles the two upstream collaborators of the planner.
type Generators struct {
	Proposer ports.ShotProposer
	Prompts  ports.PromptGenerator
	Provider string
	Model    string
}

// New builds the proposer and prompt generator selected by cfg. LLM
// providers serve both roles from one client.
func New(cfg config.GeneratorConfig) (Generators, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case config.ProviderOpenAI, config.ProviderAnthropic:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return Generators{}, errors.New("missing provider api key")
		}
		if strings.TrimSpace(cfg.Model) == "" {
			return Generators{}, errors.New("missing model")
		}
		hc := NewHTTPClient(cfg.Timeout)
		var llm *LLM
		if provider == config.ProviderOpenAI {
			llm = NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens, hc)
		} else {
			llm = NewAnthropic(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.MaxTokens, hc)
		}
		return Generators{Proposer: llm, Prompts: llm, Provider: provider, Model: cfg.Model}, nil
	case config.ProviderFixture:
		if strings.TrimSpace(cfg.FixturePath) == "" {
			return Generators{}, errors.New("fixture provider needs generator.fixture_path")
		}
		f, err := LoadFixture(cfg.FixturePath)
		if err != nil {
			return Generators{}, err
		}
		return Generators{Proposer: f, Prompts: f, Provider: provider}, nil
	default:
		return Generators{}, fmt.Errorf("unsupported provider type %q", cfg.Provider)
	}
}

// NewProposer returns only the shot proposer of New(cfg).
func NewProposer(cfg config.GeneratorConfig) (ports.ShotProposer, error) {
	g, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return g.Proposer, nil
}

// NewPromptGenerator returns only the prompt generator of New(cfg).
func NewPromptGenerator(cfg config.GeneratorConfig) (ports.PromptGenerator, error) {
	g, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return g.Prompts, nil
}
