// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	payloadAdaptTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shotplan_payload_adapt_total",
		Help: "Frame payload adaptations by capability profile and result",
	}, []string{"profile", "result"})

	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shotplan_submissions_total",
		Help: "Per-shot video submissions by capability profile and status",
	}, []string{"profile", "status"})

	submissionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shotplan_submission_duration_seconds",
		Help:    "Latency of per-shot video submissions",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"profile"})
)

// RecordPayloadAdapt records one adapter call ("ok", "end_frame_omitted", "precondition").
func RecordPayloadAdapt(profile, result string) {
	payloadAdaptTotal.WithLabelValues(profile, result).Inc()
}

// RecordSubmission records one per-shot submission outcome ("submitted", "failed", "skipped").
func RecordSubmission(profile, status string, seconds float64) {
	submissionsTotal.WithLabelValues(profile, status).Inc()
	if status == "submitted" || status == "failed" {
		submissionLatency.WithLabelValues(profile).Observe(seconds)
	}
}
