package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ManuGH/shotplan/internal/orchestrator"
)

type memoryEntry struct {
	summary Summary
	raw     []byte
}

// MemoryStore implements PlanStore with a map (thread-safe). Plans are kept
// JSON-encoded so callers can never alias stored state.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
	now  func() time.Time
}

// NewMemoryStore creates an in-memory plan store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, plan orchestrator.Plan) error {
	if plan.Scene.ID == "" {
		return fmt.Errorf("plan store: scene id is required")
	}
	raw, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("plan store: encode plan: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return errClosed
	}
	s.data[plan.Scene.ID] = memoryEntry{summary: summarize(plan, s.now().UTC()), raw: raw}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sceneID string) (*orchestrator.Plan, error) {
	s.mu.RLock()
	e, ok := s.data[sceneID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var p orchestrator.Plan
	if err := json.Unmarshal(e.raw, &p); err != nil {
		return nil, fmt.Errorf("plan store: decode plan %s: %w", sceneID, err)
	}
	return &p, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Summary, error) {
	s.mu.RLock()
	out := make([]Summary, 0, len(s.data))
	for _, e := range s.data {
		out = append(out, e.summary)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].SceneID < out[j].SceneID })
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, sceneID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sceneID)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.data = nil
	s.mu.Unlock()
	return nil
}
