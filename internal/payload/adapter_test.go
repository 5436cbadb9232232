package payload

import (
	"errors"
	"testing"

	"github.com/ManuGH/shotplan/internal/domain/shot"
	"github.com/ManuGH/shotplan/internal/planning/duration"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profiles(t *testing.T) (Profile, Profile) {
	t.Helper()
	reg, err := NewRegistry(nil)
	require.NoError(t, err)
	interp, err := reg.Get("interp-array")
	require.NoError(t, err)
	first, err := reg.Get("first-frame-only")
	require.NoError(t, err)
	return interp, first
}

func TestAdapt_ProfileContract(t *testing.T) {
	t.Parallel()
	interp, firstOnly := profiles(t)

	startEnd := shot.Shot{ID: "s2", Position: 2, Topology: shot.TopologyStartEnd, Duration: 6}
	single := shot.Shot{ID: "s1", Position: 1, Topology: shot.TopologySingle, Duration: 5}
	prompts := shot.FramePrompts{Motion: "door swings"}
	both := shot.Frames{Opening: "https://cdn/a.png", Closing: "https://cdn/b.png"}

	tests := []struct {
		name       string
		profile    Profile
		in         Input
		wantReq    Request
		wantReason Reason
		wantOmit   bool
	}{
		{
			name:    "array layout with roles carries both frames",
			profile: interp,
			in:      Input{Shot: startEnd, Prompts: prompts, Frames: both},
			wantReq: Request{
				Profile: "interp-array", ShotID: "s2", Prompt: "door swings", Duration: 5,
				Frames: []Frame{
					{Type: "input", URL: "https://cdn/a.png", Role: RoleFirstFrame},
					{Type: "input", URL: "https://cdn/b.png", Role: RoleLastFrame},
				},
			},
			wantReason: ReasonComplete,
		},
		{
			name:    "first-frame-only profile drops an available end frame",
			profile: firstOnly,
			in:      Input{Shot: startEnd, Prompts: prompts, Frames: both},
			wantReq: Request{
				Profile: "first-frame-only", ShotID: "s2", Prompt: "door swings", Duration: 6,
				FirstFrame: &Frame{Type: "image", URL: "https://cdn/a.png"},
				Width:      1280, Height: 720,
			},
			wantReason: ReasonEndFrameUnsupported,
			wantOmit:   true,
		},
		{
			name:    "start-end shot without closing frame is sent opening only",
			profile: interp,
			in:      Input{Shot: startEnd, Prompts: prompts, Frames: shot.Frames{Opening: "https://cdn/a.png"}},
			wantReq: Request{
				Profile: "interp-array", ShotID: "s2", Prompt: "door swings", Duration: 5,
				Frames: []Frame{{Type: "input", URL: "https://cdn/a.png", Role: RoleFirstFrame}},
			},
			wantReason: ReasonEndFrameUnavailable,
			wantOmit:   true,
		},
		{
			name:    "single shot ignores a closing frame",
			profile: interp,
			in:      Input{Shot: single, Prompts: prompts, Frames: both},
			wantReq: Request{
				Profile: "interp-array", ShotID: "s1", Prompt: "door swings", Duration: 5,
				Frames: []Frame{{Type: "input", URL: "https://cdn/a.png", Role: RoleFirstFrame}},
			},
			wantReason: ReasonSingleFrame,
		},
		{
			name:    "tie higher picks the longer provider duration",
			profile: interp,
			in:      Input{Shot: shot.Shot{ID: "s3", Topology: shot.TopologySingle, Duration: 7.5}, Frames: both, Tie: duration.TieHigher},
			wantReq: Request{
				Profile: "interp-array", ShotID: "s3", Duration: 10,
				Frames: []Frame{{Type: "input", URL: "https://cdn/a.png", Role: RoleFirstFrame}},
			},
			wantReason: ReasonSingleFrame,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := Adapt(tt.profile, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantReason, out.Reason)
			assert.Equal(t, tt.wantOmit, out.EndFrameOmitted)
			assert.Equal(t, tt.in.Shot.Duration, out.RequestedDuration)
			if diff := cmp.Diff(tt.wantReq, out.Request); diff != "" {
				t.Errorf("request mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAdapt_MissingOpeningFrameIsPrecondition(t *testing.T) {
	interp, _ := profiles(t)
	for _, topo := range []shot.Topology{shot.TopologyStartEnd, shot.TopologySingle} {
		_, err := Adapt(interp, Input{
			Shot:   shot.Shot{ID: "s9", Topology: topo, Duration: 5},
			Frames: shot.Frames{Closing: "https://cdn/b.png"},
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrPrecondition))
		var pe *PreconditionError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "s9", pe.ShotID)
		assert.Equal(t, ReasonNoOpeningFrame, pe.Reason)
	}
}

func TestRegistry_Validation(t *testing.T) {
	t.Parallel()

	valid := Profile{Name: "p", FrameLayout: LayoutArray, FrameLabeling: LabelImage, Durations: []float64{5}}

	tests := []struct {
		name    string
		mutate  func(p Profile) Profile
		wantErr string
	}{
		{name: "unknown layout", mutate: func(p Profile) Profile { p.FrameLayout = "nested"; return p }, wantErr: "frame_layout"},
		{name: "unknown labeling", mutate: func(p Profile) Profile { p.FrameLabeling = "tag"; return p }, wantErr: "frame_labeling"},
		{name: "empty durations", mutate: func(p Profile) Profile { p.Durations = nil; return p }, wantErr: "durations"},
		{name: "non-positive duration", mutate: func(p Profile) Profile { p.Durations = []float64{0}; return p }, wantErr: "positive"},
		{name: "dimensions missing", mutate: func(p Profile) Profile { p.RequiresDimensions = true; return p }, wantErr: "width and height"},
		{name: "missing name", mutate: func(p Profile) Profile { p.Name = " "; return p }, wantErr: "name is required"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewRegistry([]Profile{tt.mutate(valid)})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := NewRegistry([]Profile{valid, valid})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")

	reg, err := NewRegistry([]Profile{valid})
	require.NoError(t, err)
	_, err = reg.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownProfile)
	assert.Equal(t, []string{"p"}, reg.Names())
}
