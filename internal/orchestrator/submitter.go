// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ManuGH/shotplan/internal/domain/ports"
	"github.com/ManuGH/shotplan/internal/domain/shot"
	xglog "github.com/ManuGH/shotplan/internal/log"
	"github.com/ManuGH/shotplan/internal/metrics"
	"github.com/ManuGH/shotplan/internal/payload"
	"github.com/ManuGH/shotplan/internal/planning/duration"
	"github.com/ManuGH/shotplan/internal/ratelimit"
	"github.com/ManuGH/shotplan/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// ShotStatus is the per-shot submission outcome.
type ShotStatus string

const (
	StatusSubmitted ShotStatus = "submitted"
	StatusFailed    ShotStatus = "failed"
	StatusSkipped   ShotStatus = "skipped"
)

// RealizedDriftThreshold is how far a provider's realized duration may stray
// from the requested one before it is logged.
const RealizedDriftThreshold = 0.5

// ErrNoInheritedFrame means a linked shot's predecessor reported no closing frame.
var ErrNoInheritedFrame = errors.New("predecessor produced no closing frame")

// ShotReport is what happened to one shot.
type ShotReport struct {
	ShotID   string             `json:"shot_id"`
	Position int                `json:"position"`
	GroupID  string             `json:"group_id,omitempty"`
	Status   ShotStatus         `json:"status"`
	Reason   payload.Reason     `json:"payload_reason,omitempty"`
	Request  *payload.Request   `json:"request,omitempty"`
	Result   *ports.VideoResult `json:"result,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// Report summarises a scene submission. Shots are in scene order.
type Report struct {
	RunID     string       `json:"run_id"`
	SceneID   string       `json:"scene_id"`
	Profile   string       `json:"profile"`
	Shots     []ShotReport `json:"shots"`
	Submitted int          `json:"submitted"`
	Failed    int          `json:"failed"`
	Skipped   int          `json:"skipped"`
}

// Submitter sends the shots of a plan to a video provider. Continuity groups
// are submitted strictly in order, each member waiting for its predecessor's
// closing frame; everything else runs concurrently.
type Submitter struct {
	frames      ports.FrameSource
	video       ports.VideoSubmitter
	limiter     *ratelimit.Limiter
	concurrency int
	tie         duration.TieBreak
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithConcurrency bounds the number of independent units in flight.
func WithConcurrency(n int) SubmitterOption {
	return func(s *Submitter) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLimiter throttles submissions per profile.
func WithLimiter(l *ratelimit.Limiter) SubmitterOption {
	return func(s *Submitter) { s.limiter = l }
}

// WithTieBreak sets the tie rule for provider duration snapping.
func WithTieBreak(t duration.TieBreak) SubmitterOption {
	return func(s *Submitter) { s.tie = t }
}

// NewSubmitter builds a Submitter.
func NewSubmitter(frames ports.FrameSource, video ports.VideoSubmitter, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		frames:      frames,
		video:       video,
		concurrency: 4,
		tie:         duration.TieLower,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = ratelimit.New(nil)
	}
	return s
}

type unit struct {
	groupID   string
	positions []int
}

// units splits a scene into groups and single ungrouped shots, in scene order.
func units(scene shot.Scene) []unit {
	var out []unit
	for _, sh := range scene.Shots {
		grouped := false
		for _, g := range scene.Groups {
			if !g.Contains(sh.Position) {
				continue
			}
			grouped = true
			if g.First() == sh.Position {
				out = append(out, unit{groupID: g.ID, positions: append([]int(nil), g.Positions...)})
			}
			break
		}
		if !grouped {
			out = append(out, unit{positions: []int{sh.Position}})
		}
	}
	return out
}

// SubmitScene submits every shot of plan under profile. A failing shot never
// stops shots outside its group; inside a group the remaining members are
// skipped. Once ctx is done no further calls are issued. An inconsistent
// plan is rejected before any call; otherwise the returned error is non-nil
// only when ctx ended the run early.
func (s *Submitter) SubmitScene(ctx context.Context, plan Plan, profile payload.Profile) (rep Report, err error) {
	if err := plan.Validate(); err != nil {
		return Report{}, err
	}

	ctx = xglog.ContextWithRunID(ctx, plan.RunID)
	ctx = xglog.ContextWithSceneID(ctx, plan.Scene.ID)
	ctx, span := telemetry.StartSpan(ctx, "submit.scene", telemetry.SceneAttributes(plan.Scene.ID, plan.Scene.TargetSeconds, len(plan.Scene.Shots))...)
	defer func() { telemetry.EndSpan(span, err) }()

	reports := make([]ShotReport, len(plan.Scene.Shots))
	for i, sh := range plan.Scene.Shots {
		reports[i] = ShotReport{ShotID: sh.ID, Position: sh.Position, Status: StatusSkipped}
		if g, ok := plan.GroupOf(sh.Position); ok {
			reports[i].GroupID = g.ID
		}
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, u := range units(plan.Scene) {
		if ctx.Err() != nil {
			for _, pos := range u.positions {
				reports[pos-1].Error = ctx.Err().Error()
			}
			continue
		}
		g.Go(func() error {
			s.runUnit(ctx, plan, profile, u, reports)
			return nil
		})
	}
	_ = g.Wait()

	rep = Report{RunID: plan.RunID, SceneID: plan.Scene.ID, Profile: profile.Name, Shots: reports}
	for _, r := range reports {
		switch r.Status {
		case StatusSubmitted:
			rep.Submitted++
		case StatusFailed:
			rep.Failed++
		default:
			rep.Skipped++
		}
	}
	return rep, ctx.Err()
}

// runUnit submits one unit sequentially. Each goroutine writes only the
// report slots of its own positions.
func (s *Submitter) runUnit(ctx context.Context, plan Plan, profile payload.Profile, u unit, reports []ShotReport) {
	logger := xglog.WithComponentFromContext(ctx, "submitter")
	var prevClosing string
	broken := ""

	for i, pos := range u.positions {
		r := &reports[pos-1]
		if broken != "" {
			r.Error = "skipped after " + broken + " failed"
			metrics.RecordSubmission(profile.Name, string(StatusSkipped), 0)
			continue
		}
		if err := ctx.Err(); err != nil {
			r.Error = err.Error()
			metrics.RecordSubmission(profile.Name, string(StatusSkipped), 0)
			continue
		}

		linked := i > 0
		closing, err := s.submitShot(ctx, plan, profile, pos, linked, prevClosing, r)
		if err != nil {
			r.Status = StatusFailed
			r.Error = err.Error()
			logger.Warn().Err(err).
				Str(xglog.FieldShotID, r.ShotID).
				Str(xglog.FieldGroupID, u.groupID).
				Str(xglog.FieldProfile, profile.Name).
				Msg("shot submission failed")
			if u.groupID != "" {
				broken = r.ShotID
			}
			continue
		}
		r.Status = StatusSubmitted
		prevClosing = closing
	}
}

func (s *Submitter) submitShot(ctx context.Context, plan Plan, profile payload.Profile, pos int, linked bool, inherited string, r *ShotReport) (closing string, err error) {
	sh := plan.Scene.Shots[pos-1]
	ctx, span := telemetry.StartSpan(ctx, "submit.shot", telemetry.ShotAttributes(sh.ID, sh.Position, string(sh.Topology), sh.Duration)...)
	defer func() { telemetry.EndSpan(span, err) }()
	logger := xglog.WithComponentFromContext(ctx, "submitter")

	start := time.Now()
	defer func() {
		status := StatusSubmitted
		if err != nil {
			status = StatusFailed
		}
		metrics.RecordSubmission(profile.Name, string(status), time.Since(start).Seconds())
	}()

	if linked && inherited == "" {
		return "", ErrNoInheritedFrame
	}

	fr := ports.FrameRequest{SceneID: plan.Scene.ID, Shot: sh, Prompts: plan.FramePrompts[pos-1]}
	if linked {
		fr.InheritedOpening = inherited
	}
	frames, err := s.frames.ResolveFrames(ctx, fr)
	if err != nil {
		return "", fmt.Errorf("resolve frames: %w", err)
	}
	if linked {
		frames.Opening = inherited
	}

	out, err := payload.Adapt(profile, payload.Input{
		Shot:    sh,
		Prompts: plan.FramePrompts[pos-1],
		Frames:  frames,
		Tie:     s.tie,
	})
	r.Reason = out.Reason
	if err != nil {
		metrics.RecordPayloadAdapt(profile.Name, "precondition")
		return "", err
	}
	if out.EndFrameOmitted {
		metrics.RecordPayloadAdapt(profile.Name, "end_frame_omitted")
		logger.Info().
			Str(xglog.FieldEvent, "payload.end_frame_omitted").
			Str(xglog.FieldShotID, sh.ID).
			Str(xglog.FieldProfile, profile.Name).
			Str("reason", string(out.Reason)).
			Msg("end frame left out of provider request")
	} else {
		metrics.RecordPayloadAdapt(profile.Name, "ok")
	}
	req := out.Request
	r.Request = &req

	if err := s.limiter.Wait(ctx, profile.Name); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	callStart := time.Now()
	res, err := s.video.Submit(ctx, req)
	if err != nil {
		return "", fmt.Errorf("submit video: %w", err)
	}
	if res.Elapsed == 0 {
		res.Elapsed = time.Since(callStart)
	}
	r.Result = &res

	if res.RealizedDuration > 0 && math.Abs(res.RealizedDuration-req.Duration) > RealizedDriftThreshold {
		logger.Info().
			Str(xglog.FieldEvent, "submission.realized_drift").
			Str(xglog.FieldShotID, sh.ID).
			Float64("requested_seconds", req.Duration).
			Float64("realized_seconds", res.RealizedDuration).
			Msg("provider realized a different duration")
	}

	closing = res.ClosingFrameURL
	if closing == "" {
		closing = frames.Closing
	}
	if closing == "" && sh.Topology == shot.TopologySingle {
		closing = frames.Opening
	}
	return closing, nil
}
