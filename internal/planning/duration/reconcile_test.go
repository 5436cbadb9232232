package duration

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/ManuGH/shotplan/internal/domain/shot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shotsWith(durations ...float64) []shot.Shot {
	out := make([]shot.Shot, len(durations))
	for i, d := range durations {
		out[i] = shot.Shot{
			ID:       fmt.Sprintf("shot-%d", i+1),
			Position: i + 1,
			Topology: shot.TopologySingle,
			Duration: d,
		}
	}
	return out
}

func durationsOf(shots []shot.Shot) []float64 {
	out := make([]float64, len(shots))
	for i, s := range shots {
		out[i] = s.Duration
	}
	return out
}

func TestReconcile_Contract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		tie          TieBreak
		target       float64
		proposed     []float64
		want         []float64
		wantOutcome  Outcome
		wantRescaled bool
		wantNudged   bool
		wantFeasible bool
	}{
		{
			name:         "over-long scene is rescaled and last shot absorbs the remainder",
			target:       20,
			proposed:     []float64{3, 7, 12, 9},
			want:         []float64{2, 4, 8, 6},
			wantOutcome:  OutcomeRescaled,
			wantRescaled: true,
			wantFeasible: true,
		},
		{
			name:         "snap pass alone is accepted inside the tolerance band",
			target:       20,
			proposed:     []float64{5, 5, 5, 6},
			want:         []float64{5, 5, 5, 6},
			wantOutcome:  OutcomeSnapped,
			wantFeasible: true,
		},
		{
			name:         "ties snap upward when configured",
			tie:          TieHigher,
			target:       12,
			proposed:     []float64{3, 7},
			want:         []float64{4, 8},
			wantOutcome:  OutcomeSnapped,
			wantFeasible: true,
		},
		{
			name:         "single shot skips rescaling even when far from target",
			target:       20,
			proposed:     []float64{9},
			want:         []float64{8},
			wantOutcome:  OutcomeDrift,
			wantFeasible: false,
		},
		{
			name:         "remainder beyond the largest value is nudged onto earlier shots",
			target:       40,
			proposed:     []float64{12, 12, 2, 2},
			want:         []float64{12, 12, 4, 12},
			wantOutcome:  OutcomeRescaled,
			wantRescaled: true,
			wantNudged:   true,
			wantFeasible: true,
		},
		{
			name:         "infeasible target clamps to the minimum and reports drift",
			target:       5,
			proposed:     []float64{1, 1, 1, 1},
			want:         []float64{2, 2, 2, 2},
			wantOutcome:  OutcomeDrift,
			wantRescaled: true,
			wantFeasible: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tie := tt.tie
			if tie == "" {
				tie = TieLower
			}
			policy, err := NewPolicy(DefaultAllowed, DefaultTolerance, tie)
			require.NoError(t, err)

			in := shotsWith(tt.proposed...)
			got := NewReconciler(policy).Reconcile(context.Background(), in, tt.target)

			assert.Equal(t, tt.want, durationsOf(got.Shots))
			assert.Equal(t, tt.wantOutcome, got.Outcome)
			assert.Equal(t, tt.wantRescaled, got.Rescaled)
			assert.Equal(t, tt.wantNudged, got.Nudged)
			assert.Equal(t, tt.wantFeasible, got.Feasible)
			assert.InDelta(t, sum(tt.want), got.Total, 1e-9)
			assert.Equal(t, tt.proposed, durationsOf(in), "input must not be mutated")
		})
	}
}

func TestReconcile_ExampleScenarioStaysInBand(t *testing.T) {
	got := NewReconciler(DefaultPolicy()).Reconcile(context.Background(), shotsWith(3, 7, 12, 9), 20)

	assert.True(t, got.WithinTolerance)
	assert.GreaterOrEqual(t, got.Total, 18.0)
	assert.LessOrEqual(t, got.Total, 22.0)
	require.Len(t, got.Adjustments, 4)
	assert.Equal(t, Adjustment{ShotID: "shot-1", Proposed: 3, Final: 2}, got.Adjustments[0])
}

func TestReconcile_PreservesOpaqueFields(t *testing.T) {
	in := []shot.Shot{
		{ID: "a", Topology: shot.TopologyStartEnd, Duration: 7, FirstInGroup: true, Description: "wide", References: []string{"hero"}},
		{ID: "b", Topology: shot.TopologySingle, Duration: 7, LinkedToPrevious: true, CameraAngle: "low"},
	}
	got := NewReconciler(DefaultPolicy()).Reconcile(context.Background(), in, 12)

	require.Len(t, got.Shots, 2)
	assert.Equal(t, "wide", got.Shots[0].Description)
	assert.Equal(t, []string{"hero"}, got.Shots[0].References)
	assert.True(t, got.Shots[0].FirstInGroup)
	assert.Equal(t, "low", got.Shots[1].CameraAngle)

	got.Shots[0].References[0] = "changed"
	assert.Equal(t, "hero", in[0].References[0])
}

// Every final duration is a member of the allowed set, whatever the input.
func TestReconcile_SetMembershipProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	sets := [][]float64{
		DefaultAllowed,
		{5, 10},
		{3},
		{1.5, 2.5, 4, 7.5},
	}

	for iter := 0; iter < 500; iter++ {
		set := sets[iter%len(sets)]
		policy, err := NewPolicy(set, DefaultTolerance, TieLower)
		require.NoError(t, err)

		n := 1 + rng.Intn(10)
		proposed := make([]float64, n)
		for i := range proposed {
			proposed[i] = rng.Float64() * 20
		}
		target := 1 + rng.Float64()*120

		got := NewReconciler(policy).Reconcile(context.Background(), shotsWith(proposed...), target)
		for _, s := range got.Shots {
			assert.True(t, policy.Contains(s.Duration), "iter %d: %g not in %v", iter, s.Duration, set)
		}
	}
}

// With integer targets of at least 10s inside [min*n, max*n] the default set
// never has a gap wider than the tolerance band, so the total always lands in it.
func TestReconcile_ConvergenceProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	policy := DefaultPolicy()

	for iter := 0; iter < 500; iter++ {
		n := 2 + rng.Intn(8)
		lo := math.Max(10, policy.Min()*float64(n))
		hi := policy.Max() * float64(n)
		target := math.Floor(lo + rng.Float64()*(hi-lo))
		if target < lo {
			target = lo
		}

		proposed := make([]float64, n)
		for i := range proposed {
			proposed[i] = float64(1 + rng.Intn(15))
		}

		got := NewReconciler(policy).Reconcile(context.Background(), shotsWith(proposed...), target)
		require.True(t, got.Feasible)
		assert.True(t, got.WithinTolerance,
			"iter %d: target %g proposed %v got %v (total %g)", iter, target, proposed, durationsOf(got.Shots), got.Total)
	}
}

func TestReconcile_EmptyScene(t *testing.T) {
	got := NewReconciler(DefaultPolicy()).Reconcile(context.Background(), nil, 10)
	assert.Empty(t, got.Shots)
	assert.False(t, got.WithinTolerance)
}
