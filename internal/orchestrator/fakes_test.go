package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/shotplan/internal/domain/ports"
	"github.com/ManuGH/shotplan/internal/domain/shot"
	"github.com/ManuGH/shotplan/internal/payload"
)

type fakeProposer struct {
	calls atomic.Int32
	shots []shot.Shot
	err   error
}

func (f *fakeProposer) ProposeShots(_ context.Context, _ ports.SceneContext) ([]shot.Shot, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return shot.CloneShots(f.shots), nil
}

type fakePrompts struct {
	mu    sync.Mutex
	last  ports.PromptRequest
	batch []shot.PromptSet
	err   error
}

func (f *fakePrompts) GeneratePrompts(_ context.Context, req ports.PromptRequest) ([]shot.PromptSet, error) {
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]shot.PromptSet, len(f.batch))
	for i, ps := range f.batch {
		out[i] = ps.Clone()
	}
	return out, nil
}

// urlFrames renders deterministic frame URLs from shot ids.
type urlFrames struct {
	mu       sync.Mutex
	requests []ports.FrameRequest
	fail     map[string]error
}

func (f *urlFrames) ResolveFrames(_ context.Context, req ports.FrameRequest) (shot.Frames, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if err := f.fail[req.Shot.ID]; err != nil {
		return shot.Frames{}, err
	}
	fr := shot.Frames{Opening: "frames/" + req.Shot.ID + "/open.png"}
	if req.InheritedOpening != "" {
		fr.Opening = req.InheritedOpening
	}
	if req.Shot.Topology == shot.TopologyStartEnd {
		fr.Closing = "frames/" + req.Shot.ID + "/close.png"
	}
	return fr, nil
}

// recordingVideo returns a closing frame derived from the shot id and records
// call order.
type recordingVideo struct {
	mu       sync.Mutex
	order    []string
	requests map[string]payload.Request
	fail     map[string]error
	block    chan struct{}
	inFlight atomic.Int32
	peak     atomic.Int32
	realized float64
}

func (v *recordingVideo) Submit(ctx context.Context, req payload.Request) (ports.VideoResult, error) {
	n := v.inFlight.Add(1)
	defer v.inFlight.Add(-1)
	for {
		p := v.peak.Load()
		if n <= p || v.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if v.block != nil {
		select {
		case <-v.block:
		case <-ctx.Done():
			return ports.VideoResult{}, ctx.Err()
		}
	}

	v.mu.Lock()
	v.order = append(v.order, req.ShotID)
	if v.requests == nil {
		v.requests = make(map[string]payload.Request)
	}
	v.requests[req.ShotID] = req
	v.mu.Unlock()

	if err := v.fail[req.ShotID]; err != nil {
		return ports.VideoResult{}, err
	}
	res := ports.VideoResult{
		VideoURL:        fmt.Sprintf("videos/%s.mp4", req.ShotID),
		JobID:           "job-" + req.ShotID,
		ClosingFrameURL: fmt.Sprintf("videos/%s/last.png", req.ShotID),
	}
	if v.realized > 0 {
		res.RealizedDuration = v.realized
	}
	return res, nil
}

func (v *recordingVideo) callOrder() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.order...)
}

func sequentialIDs(prefix string) func() string {
	var n atomic.Int32
	return func() string { return fmt.Sprintf("%s-%d", prefix, n.Add(1)) }
}

// groupedScene is four shots where shots 2..4 form one continuity group.
func groupedScene() []shot.Shot {
	return []shot.Shot{
		{ID: "s1", Topology: shot.TopologySingle, Duration: 5},
		{ID: "s2", Topology: shot.TopologyStartEnd, Duration: 5, FirstInGroup: true},
		{ID: "s3", Topology: shot.TopologyStartEnd, Duration: 5, LinkedToPrevious: true},
		{ID: "s4", Topology: shot.TopologySingle, Duration: 5, LinkedToPrevious: true},
	}
}

func groupedPrompts() []shot.PromptSet {
	return []shot.PromptSet{
		{ShotID: "s1", ImagePrompt: shot.Text("wide street"), VideoMotionPrompt: "slow pan"},
		{
			ShotID:            "s2",
			StartFramePrompt:  shot.Text("door closed"),
			EndFramePrompt:    shot.Text("door open"),
			VideoMotionPrompt: "door swings",
			ContinuityNotes:   shot.Text("same coat throughout"),
		},
		{ShotID: "s3", EndFramePrompt: shot.Text("hallway"), VideoMotionPrompt: "walk in"},
		{ShotID: "s4", VideoMotionPrompt: "hold"},
	}
}
