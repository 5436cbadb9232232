// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package duration snaps proposed shot durations onto a discrete allowed set
// and pulls the scene total back toward its target.
package duration

import (
	"context"
	"math"

	"github.com/ManuGH/shotplan/internal/domain/shot"
	xglog "github.com/ManuGH/shotplan/internal/log"
	"github.com/ManuGH/shotplan/internal/metrics"
	"github.com/rs/zerolog"
)

// Outcome labels how a reconciliation finished.
type Outcome string

const (
	OutcomeSnapped  Outcome = "snapped"
	OutcomeRescaled Outcome = "rescaled"
	OutcomeDrift    Outcome = "drift"
)

// Adjustment records one shot whose duration changed.
type Adjustment struct {
	ShotID   string  `json:"shot_id"`
	Proposed float64 `json:"proposed"`
	Final    float64 `json:"final"`
}

// Result is the reconciled shot list plus what it took to get there.
type Result struct {
	Shots           []shot.Shot  `json:"-"`
	Target          float64      `json:"target_seconds"`
	Total           float64      `json:"total_seconds"`
	Deviation       float64      `json:"deviation_seconds"`
	WithinTolerance bool         `json:"within_tolerance"`
	Rescaled        bool         `json:"rescaled"`
	Nudged          bool         `json:"nudged"`
	Feasible        bool         `json:"feasible"`
	Outcome         Outcome      `json:"outcome"`
	Adjustments     []Adjustment `json:"adjustments,omitempty"`
}

// Reconciler applies a Policy to shot lists. It holds no mutable state.
type Reconciler struct {
	policy Policy
	logger zerolog.Logger
}

// NewReconciler returns a Reconciler for policy.
func NewReconciler(policy Policy) *Reconciler {
	return &Reconciler{policy: policy, logger: xglog.WithComponent("duration")}
}

// Policy returns the policy the reconciler applies.
func (r *Reconciler) Policy() Policy { return r.policy }

// Reconcile never fails: every returned duration is a member of the allowed
// set, and the total is brought as close to target as the set allows.
// The input slice is not modified.
func (r *Reconciler) Reconcile(ctx context.Context, shots []shot.Shot, target float64) Result {
	logger := xglog.WithContext(ctx, r.logger)
	p := r.policy
	n := len(shots)

	out := shot.CloneShots(shots)
	res := Result{Target: target}
	if n == 0 {
		res.Shots = out
		res.Feasible = target <= 0
		res.WithinTolerance = res.Feasible
		res.Outcome = OutcomeSnapped
		return res
	}

	durs := make([]float64, n)
	for i, sh := range shots {
		durs[i] = p.Snap(sh.Duration)
	}

	res.Feasible = p.Min()*float64(n) <= target+epsilon && p.Max()*float64(n) >= target-epsilon
	res.Outcome = OutcomeSnapped

	if n > 1 && !p.withinTolerance(sum(durs), target) {
		r.rescale(durs, target)
		res.Rescaled = true
		res.Outcome = OutcomeRescaled
		if res.Nudged = r.nudge(durs, target); res.Nudged {
			logger.Debug().
				Str(xglog.FieldEvent, "duration.nudged").
				Float64(xglog.FieldTarget, target).
				Msg("stepped shot durations toward target after absorption")
		}
	}

	for i := range out {
		if math.Abs(out[i].Duration-durs[i]) > epsilon {
			res.Adjustments = append(res.Adjustments, Adjustment{
				ShotID:   out[i].ID,
				Proposed: out[i].Duration,
				Final:    durs[i],
			})
		}
		out[i].Duration = durs[i]
	}

	res.Shots = out
	res.Total = sum(durs)
	res.Deviation = res.Total - target
	res.WithinTolerance = p.withinTolerance(res.Total, target)

	if !res.WithinTolerance {
		res.Outcome = OutcomeDrift
		logger.Warn().
			Str(xglog.FieldEvent, "duration.drift").
			Float64(xglog.FieldTarget, target).
			Float64(xglog.FieldTotal, res.Total).
			Float64(xglog.FieldDeviation, res.Deviation).
			Bool("feasible", res.Feasible).
			Int("shots", n).
			Msg("scene total outside tolerance after best-effort correction")
	} else if res.Rescaled {
		logger.Debug().
			Str(xglog.FieldEvent, "duration.rescaled").
			Float64(xglog.FieldTarget, target).
			Float64(xglog.FieldTotal, res.Total).
			Msg("rescaled shot durations to target")
	}

	metrics.RecordDurationReconcile(string(res.Outcome), res.Deviation)
	return res
}

// rescale scales every shot but the last by target/total, keeping enough
// budget for the remaining shots to take the minimum, then lets the last
// shot absorb what is left.
func (r *Reconciler) rescale(durs []float64, target float64) {
	p := r.policy
	n := len(durs)
	total := sum(durs)
	scale := target / total

	var accumulated float64
	for i := 0; i < n-1; i++ {
		remaining := target - accumulated
		stillToPlace := float64(n - 1 - i)
		ceiling := remaining - p.Min()*stillToPlace

		v, ok := p.snapAtMost(durs[i]*scale, ceiling)
		if !ok {
			r.logger.Debug().
				Str(xglog.FieldEvent, "duration.clamped").
				Int(xglog.FieldPosition, i+1).
				Float64("ceiling", ceiling).
				Msg("budget exhausted, clamping to minimum allowed duration")
			v = p.Min()
		}
		durs[i] = v
		accumulated += v
	}
	durs[n-1] = p.Snap(target - accumulated)
}

// nudge moves single shots one allowed step at a time while that strictly
// reduces the distance to target. Later shots win ties, so the absorbing
// last shot moves first.
func (r *Reconciler) nudge(durs []float64, target float64) bool {
	p := r.policy
	total := sum(durs)
	moved := false
	maxSteps := len(durs) * len(p.allowed)

	for step := 0; step < maxSteps; step++ {
		diff := target - total
		if math.Abs(diff) <= epsilon {
			break
		}
		bestIdx := -1
		bestVal := 0.0
		bestErr := math.Abs(diff)
		for i := len(durs) - 1; i >= 0; i-- {
			var cand float64
			var ok bool
			if diff > 0 {
				cand, ok = p.stepUp(durs[i])
			} else {
				cand, ok = p.stepDown(durs[i])
			}
			if !ok {
				continue
			}
			if e := math.Abs(diff - (cand - durs[i])); e < bestErr-epsilon {
				bestIdx, bestVal, bestErr = i, cand, e
			}
		}
		if bestIdx < 0 {
			break
		}
		total += bestVal - durs[bestIdx]
		durs[bestIdx] = bestVal
		moved = true
	}
	return moved
}

func (p Policy) withinTolerance(total, target float64) bool {
	return math.Abs(total-target) <= target*p.tolerance+epsilon
}

func sum(v []float64) float64 {
	var t float64
	for _, x := range v {
		t += x
	}
	return t
}
