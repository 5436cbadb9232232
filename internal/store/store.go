// Package store persists finished scene plans for the CLI. The planning
// engine itself never touches it.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/shotplan/internal/orchestrator"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Summary is the listing row for one stored plan.
type Summary struct {
	SceneID         string    `json:"scene_id"`
	RunID           string    `json:"run_id"`
	TargetSeconds   float64   `json:"target_seconds"`
	RealizedSeconds float64   `json:"realized_seconds"`
	ShotCount       int       `json:"shot_count"`
	GroupCount      int       `json:"group_count"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PlanStore keeps the latest plan per scene. Put replaces a scene's plan and
// shot rows as one unit; readers never see a mix of old and new shots.
type PlanStore interface {
	Put(ctx context.Context, plan orchestrator.Plan) error
	// Get returns nil, nil when the scene has no stored plan.
	Get(ctx context.Context, sceneID string) (*orchestrator.Plan, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, sceneID string) error
	Close() error
}

// NewStore creates a plan store for backend. An empty backend means sqlite;
// sqlite without a path falls back to memory.
func NewStore(backend, path string) (PlanStore, error) {
	if backend == "" {
		backend = BackendSQLite
	}

	switch backend {
	case BackendSQLite:
		if path == "" {
			return NewMemoryStore(), nil
		}
		return NewSqliteStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown plan store backend: %s (supported: sqlite, memory)", backend)
	}
}

func summarize(p orchestrator.Plan, now time.Time) Summary {
	return Summary{
		SceneID:         p.Scene.ID,
		RunID:           p.RunID,
		TargetSeconds:   p.Scene.TargetSeconds,
		RealizedSeconds: p.Scene.TotalSeconds(),
		ShotCount:       len(p.Scene.Shots),
		GroupCount:      len(p.Scene.Groups),
		UpdatedAt:       now,
	}
}
