package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ManuGH/shotplan/internal/domain/ports"
	"github.com/ManuGH/shotplan/internal/generator"
	xglog "github.com/ManuGH/shotplan/internal/log"
	"github.com/ManuGH/shotplan/internal/orchestrator"
	"github.com/ManuGH/shotplan/internal/payload"
	"github.com/ManuGH/shotplan/internal/planning/duration"
	"github.com/ManuGH/shotplan/internal/ratelimit"
)

func runSubmit(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("shotplan submit", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var common commonFlags
	common.register(fs)
	planPath := fs.String("plan", "", "plan JSON written by 'shotplan plan'")
	storedScene := fs.String("stored", "", "submit the stored plan of this scene instead of -plan")
	framesPath := fs.String("frames", "", "frames manifest (YAML)")
	profileName := fs.String("profile", "", "capability profile name")
	outPath := fs.String("out", "", "write the report JSON here (default stdout)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if (*planPath == "") == (*storedScene == "") {
		_, _ = fmt.Fprintln(stderr, "Error: exactly one of -plan or -stored is required")
		return 2
	}
	if strings.TrimSpace(*framesPath) == "" || strings.TrimSpace(*profileName) == "" {
		_, _ = fmt.Fprintln(stderr, "Error: -frames and -profile are required")
		return 2
	}

	rt, err := setup(ctx, common, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer rt.close()

	reg, err := payload.NewRegistry(rt.cfg.Profiles)
	if err != nil {
		rt.logger.Error().Err(err).Msg("invalid profiles")
		return 1
	}
	profile, err := reg.Get(*profileName)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v (known: %s)\n", err, strings.Join(reg.Names(), ", "))
		return 2
	}

	plan, err := loadPlan(ctx, rt, *planPath, *storedScene)
	if err != nil {
		rt.logger.Error().Err(err).Msg("cannot load plan")
		return 1
	}

	frames, err := generator.LoadFileFrames(*framesPath)
	if err != nil {
		rt.logger.Error().Err(err).Msg("cannot load frames")
		return 1
	}

	submitter := newSubmitter(rt, frames, []payload.Profile{profile})
	report, err := submitter.SubmitScene(ctx, plan, profile)
	if werr := writeJSON(*outPath, stdout, report); werr != nil {
		rt.logger.Error().Err(werr).Msg("cannot write report")
		return 1
	}
	if err != nil {
		rt.logger.Warn().Err(err).Str(xglog.FieldSceneID, plan.Scene.ID).Msg("submission interrupted")
		return 1
	}
	if report.Failed > 0 || report.Skipped > 0 {
		return 3
	}
	return 0
}

func newSubmitter(rt *runtime, frames ports.FrameSource, profiles []payload.Profile) *orchestrator.Submitter {
	tie, err := duration.ParseTieBreak(rt.cfg.Planning.TieBreak)
	if err != nil {
		tie = duration.TieLower
	}
	video := generator.NewHTTPVideo(generator.NewHTTPClient(rt.cfg.Submission.Timeout), rt.cfg.Submission.Endpoint)
	return orchestrator.NewSubmitter(frames, video,
		orchestrator.WithConcurrency(rt.cfg.Submission.Concurrency),
		orchestrator.WithLimiter(ratelimit.New(profiles)),
		orchestrator.WithTieBreak(tie),
	)
}

func loadPlan(ctx context.Context, rt *runtime, path, sceneID string) (orchestrator.Plan, error) {
	if sceneID != "" {
		s, err := openStore(rt)
		if err != nil {
			return orchestrator.Plan{}, err
		}
		defer func() { _ = s.Close() }()
		p, err := s.Get(ctx, sceneID)
		if err != nil {
			return orchestrator.Plan{}, err
		}
		if p == nil {
			return orchestrator.Plan{}, fmt.Errorf("no stored plan for scene %s", sceneID)
		}
		return *p, p.Validate()
	}

	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return orchestrator.Plan{}, err
	}
	var p orchestrator.Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return orchestrator.Plan{}, fmt.Errorf("parse plan %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return orchestrator.Plan{}, fmt.Errorf("plan %s: %w", path, err)
	}
	return p, nil
}
