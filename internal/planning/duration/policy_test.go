package duration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnap_NearestWithTieBreak(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		set  []float64
		v    float64
		tie  TieBreak
		want float64
	}{
		{name: "exact member", set: DefaultAllowed, v: 5, tie: TieLower, want: 5},
		{name: "below minimum", set: DefaultAllowed, v: 0.3, tie: TieLower, want: 2},
		{name: "above maximum", set: DefaultAllowed, v: 40, tie: TieLower, want: 12},
		{name: "tie goes lower", set: DefaultAllowed, v: 3, tie: TieLower, want: 2},
		{name: "tie goes higher", set: DefaultAllowed, v: 3, tie: TieHigher, want: 4},
		{name: "unsorted provider set", set: []float64{10, 5}, v: 7.5, tie: TieLower, want: 5},
		{name: "nearest wins over tie rule", set: []float64{4, 6, 8}, v: 6.9, tie: TieLower, want: 6},
		{name: "empty set returns input", set: nil, v: 7.3, tie: TieLower, want: 7.3},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Snap(tt.set, tt.v, tt.tie))
		})
	}
}

func TestNewPolicy_Validation(t *testing.T) {
	_, err := NewPolicy(nil, 0.1, TieLower)
	assert.Error(t, err)

	_, err = NewPolicy([]float64{2, -1}, 0.1, TieLower)
	assert.Error(t, err)

	_, err = NewPolicy([]float64{2}, 0, TieLower)
	assert.Error(t, err)

	_, err = NewPolicy([]float64{2}, 0.1, "sideways")
	assert.Error(t, err)

	p, err := NewPolicy([]float64{8, 2, 8, 4}, 0.2, "")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4, 8}, p.Allowed())
	assert.Equal(t, TieLower, p.Tie())
	assert.Equal(t, 2.0, p.Min())
	assert.Equal(t, 8.0, p.Max())
}

func TestParseTieBreak(t *testing.T) {
	tie, err := ParseTieBreak("")
	require.NoError(t, err)
	assert.Equal(t, TieLower, tie)

	tie, err = ParseTieBreak(" Higher ")
	require.NoError(t, err)
	assert.Equal(t, TieHigher, tie)

	_, err = ParseTieBreak("random")
	assert.Error(t, err)
}
