// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/shotplan/internal/orchestrator"
	"github.com/ManuGH/shotplan/internal/persistence/sqlite"
)

var errClosed = errors.New("plan store: closed")

// ErrIndexMismatch means a stored plan's JSON and its plan_shots rows disagree.
var ErrIndexMismatch = errors.New("plan store: shot index does not match stored plan")

var migrations = []sqlite.Migration{
	func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS scene_plans (
			scene_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			target_seconds REAL NOT NULL,
			realized_seconds REAL NOT NULL,
			shot_count INTEGER NOT NULL,
			group_count INTEGER NOT NULL,
			plan_json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_scene_plans_updated ON scene_plans(updated_at);
		`)
		return err
	},
	func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS plan_shots (
			scene_id TEXT NOT NULL REFERENCES scene_plans(scene_id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			shot_id TEXT NOT NULL,
			topology TEXT NOT NULL,
			duration REAL NOT NULL,
			group_id TEXT,
			PRIMARY KEY (scene_id, position)
		);
		`)
		return err
	},
}

// SqliteStore implements PlanStore using SQLite.
type SqliteStore struct {
	DB   *sql.DB
	path string
	now  func() time.Time
}

// NewSqliteStore opens (and migrates) the plan database at dbPath.
func NewSqliteStore(dbPath string) (*SqliteStore, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}

	if err := sqlite.Migrate(context.Background(), db, migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("plan store: migration failed: %w", err)
	}

	return &SqliteStore{DB: db, path: dbPath, now: time.Now}, nil
}

// Put replaces the stored plan for the scene, shot rows included, in one
// transaction.
func (s *SqliteStore) Put(ctx context.Context, plan orchestrator.Plan) error {
	if plan.Scene.ID == "" {
		return fmt.Errorf("plan store: scene id is required")
	}
	raw, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("plan store: encode plan: %w", err)
	}
	sum := summarize(plan, s.now().UTC())

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO scene_plans (scene_id, run_id, target_seconds, realized_seconds, shot_count, group_count, plan_json, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(scene_id) DO UPDATE SET
		run_id = excluded.run_id,
		target_seconds = excluded.target_seconds,
		realized_seconds = excluded.realized_seconds,
		shot_count = excluded.shot_count,
		group_count = excluded.group_count,
		plan_json = excluded.plan_json,
		updated_at = excluded.updated_at
	`, sum.SceneID, sum.RunID, sum.TargetSeconds, sum.RealizedSeconds, sum.ShotCount, sum.GroupCount, string(raw), sum.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("plan store: upsert plan: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM plan_shots WHERE scene_id = ?", sum.SceneID); err != nil {
		return fmt.Errorf("plan store: clear shots: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO plan_shots (scene_id, position, shot_id, topology, duration, group_id) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, sh := range plan.Scene.Shots {
		var groupID sql.NullString
		if g, ok := plan.GroupOf(sh.Position); ok {
			groupID = sql.NullString{String: g.ID, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, sum.SceneID, sh.Position, sh.ID, string(sh.Topology), sh.Duration, groupID); err != nil {
			return fmt.Errorf("plan store: insert shot %s: %w", sh.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SqliteStore) Get(ctx context.Context, sceneID string) (*orchestrator.Plan, error) {
	var raw string
	err := s.DB.QueryRowContext(ctx, `SELECT plan_json FROM scene_plans WHERE scene_id = ?`, sceneID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p orchestrator.Plan
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("plan store: decode plan %s: %w", sceneID, err)
	}

	ids, err := s.ShotIDs(ctx, sceneID)
	if err != nil {
		return nil, fmt.Errorf("plan store: read shot index %s: %w", sceneID, err)
	}
	if len(ids) != len(p.Scene.Shots) {
		return nil, fmt.Errorf("%w: scene %s has %d indexed shots, plan has %d", ErrIndexMismatch, sceneID, len(ids), len(p.Scene.Shots))
	}
	for i, id := range ids {
		if p.Scene.Shots[i].ID != id {
			return nil, fmt.Errorf("%w: scene %s position %d is %s in the index, %s in the plan", ErrIndexMismatch, sceneID, i+1, id, p.Scene.Shots[i].ID)
		}
	}
	return &p, nil
}

func (s *SqliteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.DB.QueryContext(ctx, `
	SELECT scene_id, run_id, target_seconds, realized_seconds, shot_count, group_count, updated_at
	FROM scene_plans ORDER BY scene_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var updatedAt string
		if err := rows.Scan(&sum.SceneID, &sum.RunID, &sum.TargetSeconds, &sum.RealizedSeconds, &sum.ShotCount, &sum.GroupCount, &updatedAt); err != nil {
			return nil, err
		}
		sum.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SqliteStore) Delete(ctx context.Context, sceneID string) error {
	_, err := s.DB.ExecContext(ctx, "DELETE FROM scene_plans WHERE scene_id = ?", sceneID)
	return err
}

// ShotIDs returns the stored shot ids of a scene in position order.
func (s *SqliteStore) ShotIDs(ctx context.Context, sceneID string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT shot_id FROM plan_shots WHERE scene_id = ? ORDER BY position`, sceneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Check runs an integrity check against the database file, then reads every
// stored plan back so shot index drift is reported alongside page corruption.
func (s *SqliteStore) Check(ctx context.Context, mode string) ([]string, error) {
	problems, err := sqlite.VerifyIntegrity(s.path, mode)
	if err != nil || len(problems) > 0 {
		return problems, err
	}
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, sum := range list {
		if _, err := s.Get(ctx, sum.SceneID); err != nil {
			problems = append(problems, err.Error())
		}
	}
	return problems, nil
}

func (s *SqliteStore) Close() error {
	return s.DB.Close()
}
