// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ManuGH/shotplan/internal/domain/shot"
	"github.com/ManuGH/shotplan/internal/generator"
	xglog "github.com/ManuGH/shotplan/internal/log"
	"github.com/ManuGH/shotplan/internal/orchestrator"
	"github.com/ManuGH/shotplan/internal/store"
	"gopkg.in/yaml.v3"
)

func runPlan(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("shotplan plan", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var common commonFlags
	common.register(fs)
	scenePath := fs.String("scene", "", "scene request file (YAML)")
	outPath := fs.String("out", "", "write the plan JSON here (default stdout)")
	persist := fs.Bool("persist", false, "store the plan in the configured plan store")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*scenePath) == "" {
		_, _ = fmt.Fprintln(stderr, "Error: -scene is required")
		return 2
	}

	rt, err := setup(ctx, common, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer rt.close()

	req, err := loadSceneRequest(*scenePath)
	if err != nil {
		rt.logger.Error().Err(err).Str("path", *scenePath).Msg("cannot read scene")
		return 1
	}

	planner, err := newPlanner(rt)
	if err != nil {
		rt.logger.Error().Err(err).Msg("cannot build planner")
		return 1
	}

	plan, err := planner.PlanScene(ctx, req)
	if err != nil {
		var se *shot.SceneError
		if errors.As(err, &se) {
			_, _ = fmt.Fprintln(stderr, se.Error())
		} else {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}

	if *persist {
		if err := persistPlan(ctx, rt, plan); err != nil {
			rt.logger.Error().Err(err).Msg("cannot persist plan")
			return 1
		}
	}

	if err := writeJSON(*outPath, stdout, plan); err != nil {
		rt.logger.Error().Err(err).Msg("cannot write plan")
		return 1
	}

	if !plan.Durations.WithinTolerance {
		rt.logger.Warn().
			Str(xglog.FieldSceneID, plan.Scene.ID).
			Float64(xglog.FieldDeviation, plan.Durations.Deviation).
			Bool("feasible", plan.Durations.Feasible).
			Msg("plan written with duration drift")
	}
	return 0
}

func newPlanner(rt *runtime) (*orchestrator.Planner, error) {
	policy, err := rt.cfg.Planning.DurationPolicy()
	if err != nil {
		return nil, err
	}
	gens, err := generator.New(rt.cfg.Generator)
	if err != nil {
		return nil, err
	}
	breaker := orchestrator.NewGeneratorBreaker(gens.Provider, rt.cfg.Generator.BreakerThreshold, rt.cfg.Generator.BreakerReset)
	return orchestrator.NewPlanner(policy, gens.Proposer, gens.Prompts,
		orchestrator.WithBreaker(breaker),
		orchestrator.WithProviderName(gens.Provider),
	), nil
}

func loadSceneRequest(path string) (orchestrator.SceneRequest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return orchestrator.SceneRequest{}, err
	}
	var req orchestrator.SceneRequest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&req); err != nil {
		return orchestrator.SceneRequest{}, fmt.Errorf("parse scene %s: %w", path, err)
	}
	return req, nil
}

func openStore(rt *runtime) (store.PlanStore, error) {
	return store.NewStore(rt.cfg.Storage.Backend, rt.cfg.Storage.Path)
}

func persistPlan(ctx context.Context, rt *runtime, plan orchestrator.Plan) error {
	s, err := openStore(rt)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	if err := s.Put(ctx, plan); err != nil {
		return err
	}
	rt.logger.Info().
		Str(xglog.FieldEvent, "plan.persisted").
		Str(xglog.FieldSceneID, plan.Scene.ID).
		Str(xglog.FieldRunID, plan.RunID).
		Msg("plan stored")
	return nil
}
