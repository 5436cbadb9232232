// SPDX-License-Identifier: MIT
package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, counter.Write(metric))
	return metric.GetCounter().GetValue()
}

func getCounterVecValue(t *testing.T, counterVec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	return getCounterValue(t, counterVec.WithLabelValues(labels...))
}

func getGaugeVecValue(t *testing.T, gaugeVec *prometheus.GaugeVec, labels ...string) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, gaugeVec.WithLabelValues(labels...).Write(metric))
	return metric.GetGauge().GetValue()
}

func getHistogramCount(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, h.Write(metric))
	return metric.GetHistogram().GetSampleCount()
}

func TestRecordDurationReconcile(t *testing.T) {
	tests := []struct {
		name    string
		outcome string
		label   string
	}{
		{"snapped", "snapped", "snapped"},
		{"rescaled with padding", "  Rescaled ", "rescaled"},
		{"drift", "drift", "drift"},
		{"garbage collapses", "exploded", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := getCounterVecValue(t, durationReconcileTotal, tt.label)
			samples := getHistogramCount(t, durationDeviation)

			RecordDurationReconcile(tt.outcome, -1.5)

			assert.Equal(t, before+1, getCounterVecValue(t, durationReconcileTotal, tt.label))
			assert.Equal(t, samples+1, getHistogramCount(t, durationDeviation))
		})
	}
}

func TestRecordContinuityGroup(t *testing.T) {
	emitted := getCounterVecValue(t, continuityGroupsTotal, "emitted")
	dropped := getCounterVecValue(t, continuityGroupsTotal, "dropped")

	RecordContinuityGroup(true)
	RecordContinuityGroup(false)
	RecordContinuityGroup(false)

	assert.Equal(t, emitted+1, getCounterVecValue(t, continuityGroupsTotal, "emitted"))
	assert.Equal(t, dropped+2, getCounterVecValue(t, continuityGroupsTotal, "dropped"))
}

func TestRecordInheritanceCorrection_NormalizesField(t *testing.T) {
	start := getCounterVecValue(t, inheritanceCorrections, "start_frame_prompt")
	unknown := getCounterVecValue(t, inheritanceCorrections, "unknown")

	RecordInheritanceCorrection("START_FRAME_PROMPT")
	RecordInheritanceCorrection("thumbnail")

	assert.Equal(t, start+1, getCounterVecValue(t, inheritanceCorrections, "start_frame_prompt"))
	assert.Equal(t, unknown+1, getCounterVecValue(t, inheritanceCorrections, "unknown"))
}

func TestRecordSubmission(t *testing.T) {
	before := getCounterVecValue(t, submissionsTotal, "metrics-test", "skipped")
	RecordSubmission("metrics-test", "skipped", 0)
	assert.Equal(t, before+1, getCounterVecValue(t, submissionsTotal, "metrics-test", "skipped"))

	RecordPayloadAdapt("metrics-test", "end_frame_omitted")
	assert.Equal(t, 1.0, getCounterVecValue(t, payloadAdaptTotal, "metrics-test", "end_frame_omitted"))
}

func TestSetCircuitBreakerState_OneHot(t *testing.T) {
	SetCircuitBreakerState("metrics-test", "open")
	assert.Equal(t, 1.0, getGaugeVecValue(t, circuitBreakerState, "metrics-test", "open"))
	assert.Equal(t, 0.0, getGaugeVecValue(t, circuitBreakerState, "metrics-test", "closed"))

	SetCircuitBreakerState("metrics-test", "closed")
	assert.Equal(t, 0.0, getGaugeVecValue(t, circuitBreakerState, "metrics-test", "open"))
	assert.Equal(t, 1.0, getGaugeVecValue(t, circuitBreakerState, "metrics-test", "closed"))

	trips := getCounterVecValue(t, circuitBreakerTrips, "metrics-test", "failures")
	RecordCircuitBreakerTrip("metrics-test", "failures")
	assert.Equal(t, trips+1, getCounterVecValue(t, circuitBreakerTrips, "metrics-test", "failures"))
}
