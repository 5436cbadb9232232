// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"math"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	durationReconcileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shotplan_duration_reconcile_total",
		Help: "Duration reconciliations by outcome (snapped, rescaled, drift)",
	}, []string{"outcome"})

	durationDeviation = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shotplan_duration_deviation_seconds",
		Help:    "Absolute difference between reconciled scene total and target",
		Buckets: []float64{0, 0.5, 1, 2, 4, 8, 16, 32},
	})

	continuityGroupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shotplan_continuity_groups_total",
		Help: "Continuity groups by result (emitted, dropped)",
	}, []string{"result"})

	inheritanceCorrections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shotplan_inheritance_corrections_total",
		Help: "Prompt fields forced to null because the generator populated an inherited or foreign slot",
	}, []string{"field"})

	scenePlansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shotplan_scene_plans_total",
		Help: "Scene planning runs by result",
	}, []string{"result"})
)

// RecordDurationReconcile records one reconciliation outcome and its deviation.
func RecordDurationReconcile(outcome string, deviation float64) {
	durationReconcileTotal.WithLabelValues(normalizeOutcomeLabel(outcome)).Inc()
	durationDeviation.Observe(math.Abs(deviation))
}

// RecordContinuityGroup records an emitted or dropped continuity group.
func RecordContinuityGroup(emitted bool) {
	result := "dropped"
	if emitted {
		result = "emitted"
	}
	continuityGroupsTotal.WithLabelValues(result).Inc()
}

// RecordInheritanceCorrection records one corrected prompt field.
func RecordInheritanceCorrection(field string) {
	inheritanceCorrections.WithLabelValues(normalizeFieldLabel(field)).Inc()
}

// RecordScenePlan records the end of a planning run ("ok", "invalid_proposal",
// "incomplete_generation", "generator_error").
func RecordScenePlan(result string) {
	scenePlansTotal.WithLabelValues(result).Inc()
}

func normalizeOutcomeLabel(outcome string) string {
	switch v := strings.ToLower(strings.TrimSpace(outcome)); v {
	case "snapped", "rescaled", "drift":
		return v
	default:
		return "unknown"
	}
}

func normalizeFieldLabel(field string) string {
	switch v := strings.ToLower(strings.TrimSpace(field)); v {
	case "image_prompt", "start_frame_prompt", "end_frame_prompt", "continuity_notes":
		return v
	default:
		return "unknown"
	}
}
