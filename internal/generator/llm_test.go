package generator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ManuGH/shotplan/internal/domain/ports"
	"github.com/ManuGH/shotplan/internal/domain/shot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const proposalReply = `{"shots":[{"id":"s1","duration":5,"frame_topology":"start_end","is_first_in_group":true},{"id":"s2","duration":4,"frame_topology":"single","is_linked_to_previous":true}]}`

func openAIServer(t *testing.T, content string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-test",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func anthropicServer(t *testing.T, text string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-test",
			"stop_reason": "end_turn",
			"content":     []map[string]any{{"type": "text", "text": text}},
			"usage":       map[string]any{"input_tokens": 1, "output_tokens": 1},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAI_ProposeShots(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := openAIServer(t, proposalReply, &body)
	llm := NewOpenAI("test-key", srv.URL+"/", "gpt-test", 512, srv.Client())

	shots, err := llm.ProposeShots(context.Background(), ports.SceneContext{SceneID: "sc1", TargetSeconds: 10})
	require.NoError(t, err)
	require.Len(t, shots, 2)
	assert.Equal(t, shot.TopologyStartEnd, shots[0].Topology)
	assert.True(t, shots[0].FirstInGroup)
	assert.True(t, shots[1].LinkedToPrevious)

	assert.Equal(t, "gpt-test", body["model"])
	rf, _ := body["response_format"].(map[string]any)
	assert.Equal(t, "json_object", rf["type"])
}

func TestOpenAI_ProseWrappedReply(t *testing.T) {
	t.Parallel()

	srv := openAIServer(t, "Here you go:\n```json\n"+proposalReply+"\n```", nil)
	llm := NewOpenAI("test-key", srv.URL+"/", "gpt-test", 0, srv.Client())

	shots, err := llm.ProposeShots(context.Background(), ports.SceneContext{SceneID: "sc1"})
	require.NoError(t, err)
	assert.Len(t, shots, 2)
}

func TestOpenAI_UnusableReplyIsInvalidProposal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply string
	}{
		{name: "not json", reply: "I cannot help with that."},
		{name: "no shots", reply: `{"shots":[]}`},
		{name: "unknown topology", reply: `{"shots":[{"id":"a","duration":4,"frame_topology":"triple"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := openAIServer(t, tt.reply, nil)
			llm := NewOpenAI("test-key", srv.URL+"/", "gpt-test", 0, srv.Client())
			_, err := llm.ProposeShots(context.Background(), ports.SceneContext{SceneID: "sc1"})
			require.ErrorIs(t, err, shot.ErrInvalidProposal)
		})
	}
}

func TestAnthropic_GeneratePrompts(t *testing.T) {
	t.Parallel()

	reply := `{"prompts":[{"shot_id":"s1","start_frame_prompt":"door","end_frame_prompt":"hall","video_motion_prompt":"walk","continuity_notes":"red coat"},{"shot_id":"s2","image_prompt":null,"video_motion_prompt":"hold"}]}`
	srv := anthropicServer(t, reply)
	llm := NewAnthropic("test-key", srv.URL+"/", "claude-test", 0, srv.Client())

	batch, err := llm.GeneratePrompts(context.Background(), ports.PromptRequest{
		SceneID: "sc1",
		Shots: []shot.Shot{
			{ID: "s1", Position: 1, Topology: shot.TopologyStartEnd, FirstInGroup: true},
			{ID: "s2", Position: 2, Topology: shot.TopologySingle, LinkedToPrevious: true},
		},
		Groups: []shot.ContinuityGroup{{ID: "sc1-g1", Positions: []int{1, 2}}},
	})
	require.NoError(t, err)
	require.Len(t, batch, 2)
	end, ok := batch[0].Get(shot.FieldEndFrame)
	require.True(t, ok)
	assert.Equal(t, "hall", end)
	assert.Nil(t, batch[1].ImagePrompt)
	assert.Equal(t, "hold", batch[1].VideoMotionPrompt)
}

func TestLLM_TransportErrorIsNotInvalidProposal(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	llm := NewOpenAI("test-key", srv.URL+"/", "gpt-test", 0, srv.Client())
	_, err := llm.ProposeShots(context.Background(), ports.SceneContext{SceneID: "sc1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, shot.ErrInvalidProposal)
}

func TestExtractFirstJSONObject(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `{"a":{"b":1}}`, extractFirstJSONObject("x {\"a\":{\"b\":1}} y"))
	assert.Empty(t, extractFirstJSONObject("no braces"))
	assert.Empty(t, extractFirstJSONObject("} backwards {"))
}
