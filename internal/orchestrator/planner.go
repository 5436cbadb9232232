// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/shotplan/internal/domain/ports"
	"github.com/ManuGH/shotplan/internal/domain/shot"
	xglog "github.com/ManuGH/shotplan/internal/log"
	"github.com/ManuGH/shotplan/internal/metrics"
	"github.com/ManuGH/shotplan/internal/planning/continuity"
	"github.com/ManuGH/shotplan/internal/planning/duration"
	"github.com/ManuGH/shotplan/internal/planning/inheritance"
	"github.com/ManuGH/shotplan/internal/resilience"
	"github.com/ManuGH/shotplan/internal/telemetry"
	"github.com/google/uuid"
)

// SceneRequest is everything PlanScene needs for one scene.
type SceneRequest struct {
	Context ports.SceneContext     `json:"context" yaml:"context"`
	Anchors ports.IdentityAnchors `json:"anchors" yaml:"anchors"`
}

// Planner turns scene context into a Plan. It keeps no per-scene state, so
// one Planner may plan many scenes concurrently.
type Planner struct {
	reconciler *duration.Reconciler
	proposer   ports.ShotProposer
	prompts    ports.PromptGenerator
	breaker    *resilience.CircuitBreaker
	provider   string
	now        func() time.Time
	newID      func() string
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithBreaker guards both generator calls with cb.
func WithBreaker(cb *resilience.CircuitBreaker) PlannerOption {
	return func(p *Planner) { p.breaker = cb }
}

// WithProviderName labels spans and logs with the generator provider.
func WithProviderName(name string) PlannerOption {
	return func(p *Planner) { p.provider = name }
}

// WithClock overrides the plan timestamp source.
func WithClock(now func() time.Time) PlannerOption {
	return func(p *Planner) { p.now = now }
}

// WithIDGenerator overrides run and shot id generation.
func WithIDGenerator(fn func() string) PlannerOption {
	return func(p *Planner) { p.newID = fn }
}

// NewPlanner wires the engine to its two upstream generators.
func NewPlanner(policy duration.Policy, proposer ports.ShotProposer, prompts ports.PromptGenerator, opts ...PlannerOption) *Planner {
	p := &Planner{
		reconciler: duration.NewReconciler(policy),
		proposer:   proposer,
		prompts:    prompts,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.breaker == nil {
		p.breaker = NewGeneratorBreaker("generator", 0, 0)
	}
	return p
}

// NewGeneratorBreaker returns a breaker that ignores contract failures: a
// generator that answers with an unusable proposal is still reachable.
func NewGeneratorBreaker(name string, threshold int, reset time.Duration) *resilience.CircuitBreaker {
	return resilience.NewCircuitBreaker(name, threshold, reset,
		resilience.WithFailureFilter(func(err error) bool {
			return !errors.Is(err, shot.ErrInvalidProposal)
		}))
}

// PlanScene runs propose, reconcile, group, prompt and resolve in that order.
// Every returned error is a *shot.SceneError.
func (p *Planner) PlanScene(ctx context.Context, req SceneRequest) (plan Plan, err error) {
	sc := req.Context
	sceneID := strings.TrimSpace(sc.SceneID)
	runID := p.newID()

	ctx = xglog.ContextWithRunID(ctx, runID)
	ctx = xglog.ContextWithSceneID(ctx, sceneID)
	ctx, span := telemetry.StartSpan(ctx, "plan.scene", telemetry.SceneAttributes(sceneID, sc.TargetSeconds, 0)...)
	defer func() { telemetry.EndSpan(span, err) }()
	logger := xglog.WithComponentFromContext(ctx, "planner")

	fail := func(result, shotID string, cause error) (Plan, error) {
		metrics.RecordScenePlan(result)
		logger.Error().Err(cause).Str("result", result).Str(xglog.FieldShotID, shotID).Msg("scene planning failed")
		return Plan{}, &shot.SceneError{SceneID: sceneID, ShotID: shotID, Err: cause}
	}

	if len(sc.AllowedDurations) == 0 {
		sc.AllowedDurations = p.reconciler.Policy().Allowed()
	}

	proposed, err := p.propose(ctx, sc)
	if err != nil {
		return fail(resultFor(err), "", fmt.Errorf("propose shots: %w", err))
	}
	for i := range proposed {
		if strings.TrimSpace(proposed[i].ID) == "" {
			proposed[i].ID = p.newID()
		}
	}

	scene, err := shot.NewScene(sceneID, sc.TargetSeconds, proposed)
	if err != nil {
		return fail("invalid_proposal", "", err)
	}

	durations := p.reconciler.Reconcile(ctx, scene.Shots, scene.TargetSeconds)
	if scene, err = scene.ReplaceShots(durations.Shots); err != nil {
		return fail("invalid_proposal", "", err)
	}

	groups := continuity.Group(ctx, scene.ID, scene.Shots)
	normalized, flagFixes := continuity.Normalize(ctx, scene.Shots, groups)
	if scene, err = scene.ReplaceShots(normalized); err != nil {
		return fail("invalid_proposal", "", err)
	}
	scene = scene.WithGroups(groups)

	batch, err := p.generatePrompts(ctx, ports.PromptRequest{
		SceneID: scene.ID,
		Shots:   shot.CloneShots(scene.Shots),
		Groups:  scene.Groups,
		Anchors: req.Anchors,
	})
	if err != nil {
		return fail(resultFor(err), "", fmt.Errorf("generate prompts: %w", err))
	}

	resolved, err := inheritance.Resolve(ctx, scene.ID, scene.Shots, scene.Groups, batch)
	if err != nil {
		var incomplete *shot.IncompleteGenerationError
		shotID := ""
		if errors.As(err, &incomplete) {
			shotID = incomplete.ShotID()
		}
		return fail("incomplete_generation", shotID, err)
	}

	framePrompts, err := inheritance.Materialize(scene.Shots, scene.Groups, resolved.Prompts)
	if err != nil {
		return fail("incomplete_generation", "", err)
	}

	metrics.RecordScenePlan("ok")
	logger.Info().
		Str(xglog.FieldEvent, "plan.completed").
		Int("shots", len(scene.Shots)).
		Int("groups", len(scene.Groups)).
		Float64(xglog.FieldTarget, durations.Target).
		Float64(xglog.FieldTotal, durations.Total).
		Str("outcome", string(durations.Outcome)).
		Int("prompt_corrections", len(resolved.Corrections)).
		Msg("scene planned")

	return Plan{
		RunID:             runID,
		CreatedAt:         p.now().UTC(),
		Scene:             scene,
		Prompts:           resolved.Prompts,
		FramePrompts:      framePrompts,
		Durations:         durations,
		FlagCorrections:   flagFixes,
		PromptCorrections: resolved.Corrections,
		NotesMissing:      resolved.NotesMissing,
	}, nil
}

func (p *Planner) propose(ctx context.Context, sc ports.SceneContext) ([]shot.Shot, error) {
	ctx, span := telemetry.StartSpan(ctx, "plan.propose", telemetry.GeneratorAttributes(p.provider, "", "propose_shots")...)
	shots, err := resilience.Call(ctx, p.breaker, func(ctx context.Context) ([]shot.Shot, error) {
		return p.proposer.ProposeShots(ctx, sc)
	})
	telemetry.EndSpan(span, err)
	return shots, err
}

func (p *Planner) generatePrompts(ctx context.Context, req ports.PromptRequest) ([]shot.PromptSet, error) {
	ctx, span := telemetry.StartSpan(ctx, "plan.prompts", telemetry.GeneratorAttributes(p.provider, "", "generate_prompts")...)
	batch, err := resilience.Call(ctx, p.breaker, func(ctx context.Context) ([]shot.PromptSet, error) {
		return p.prompts.GeneratePrompts(ctx, req)
	})
	telemetry.EndSpan(span, err)
	return batch, err
}

func resultFor(err error) string {
	if errors.Is(err, shot.ErrInvalidProposal) {
		return "invalid_proposal"
	}
	return "generator_error"
}
