// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package continuity turns per-shot continuity flags into validated groups of
// shots that can hand their closing frame to the next member.
package continuity

import (
	"context"
	"fmt"

	"github.com/ManuGH/shotplan/internal/domain/shot"
	xglog "github.com/ManuGH/shotplan/internal/log"
	"github.com/ManuGH/shotplan/internal/metrics"
)

// DefaultTransition labels a group whose members carry no transition text.
const DefaultTransition = "continuous"

type run struct {
	members []shot.Shot
}

func (r *run) last() shot.Shot { return r.members[len(r.members)-1] }

// Group scans shots once, left to right. A run opens at a shot flagged
// FirstInGroup and grows while each next shot is linked and its predecessor
// can hand off. Runs shorter than two shots, or opened by a single-frame
// shot, are dropped; nothing here fails.
func Group(ctx context.Context, sceneID string, shots []shot.Shot) []shot.ContinuityGroup {
	logger := xglog.WithComponentFromContext(ctx, "continuity")

	var groups []shot.ContinuityGroup
	var cur *run

	emit := func(reason string) {
		if cur == nil {
			return
		}
		first := cur.members[0]
		if len(cur.members) >= 2 && first.Topology == shot.TopologyStartEnd {
			groups = append(groups, newGroup(sceneID, len(groups)+1, cur.members))
			metrics.RecordContinuityGroup(true)
		} else {
			logger.Debug().
				Str(xglog.FieldEvent, "continuity.group_dropped").
				Str(xglog.FieldShotID, first.ID).
				Int(xglog.FieldPosition, first.Position).
				Str(xglog.FieldTopology, string(first.Topology)).
				Int("members", len(cur.members)).
				Str("reason", reason).
				Msg("discarding malformed continuity group")
			metrics.RecordContinuityGroup(false)
		}
		cur = nil
	}

	for _, sh := range shots {
		switch {
		case sh.FirstInGroup:
			emit("superseded")
			cur = &run{members: []shot.Shot{sh}}
		case sh.LinkedToPrevious && cur != nil:
			if cur.last().Topology.HandsOff() {
				cur.members = append(cur.members, sh)
				continue
			}
			logger.Debug().
				Str(xglog.FieldEvent, "continuity.chain_broken").
				Str(xglog.FieldShotID, sh.ID).
				Int(xglog.FieldPosition, sh.Position).
				Msg("predecessor has no distinct closing frame, shot left out of group")
			emit("chain_broken")
		default:
			emit("unlinked")
		}
	}
	emit("end_of_scene")

	return groups
}

func newGroup(sceneID string, seq int, members []shot.Shot) shot.ContinuityGroup {
	g := shot.ContinuityGroup{
		ID:         fmt.Sprintf("%s-g%d", sceneID, seq),
		SceneID:    sceneID,
		Positions:  make([]int, len(members)),
		Transition: DefaultTransition,
	}
	for i, m := range members {
		g.Positions[i] = m.Position
	}
	for _, m := range members[1:] {
		if m.Transition != "" {
			g.Transition = m.Transition
			break
		}
	}
	return g
}
