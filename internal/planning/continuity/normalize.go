// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package continuity

import (
	"context"

	"github.com/ManuGH/shotplan/internal/domain/shot"
	xglog "github.com/ManuGH/shotplan/internal/log"
)

// FlagCorrection records a continuity flag rewritten to agree with the groups.
type FlagCorrection struct {
	ShotID string `json:"shot_id"`
	Flag   string `json:"flag"`
	From   bool   `json:"from"`
	To     bool   `json:"to"`
}

// Normalize rewrites FirstInGroup and LinkedToPrevious so they describe the
// emitted groups exactly: openers are flagged first, later members linked,
// everything else neither. Downstream prompt and frame handling relies on it.
func Normalize(ctx context.Context, shots []shot.Shot, groups []shot.ContinuityGroup) ([]shot.Shot, []FlagCorrection) {
	logger := xglog.WithComponentFromContext(ctx, "continuity")

	opener := make(map[int]bool)
	member := make(map[int]bool)
	for _, g := range groups {
		for i, p := range g.Positions {
			if i == 0 {
				opener[p] = true
			} else {
				member[p] = true
			}
		}
	}

	out := shot.CloneShots(shots)
	var corrections []FlagCorrection
	for i := range out {
		sh := &out[i]
		if want := opener[sh.Position]; sh.FirstInGroup != want {
			corrections = append(corrections, FlagCorrection{ShotID: sh.ID, Flag: "is_first_in_group", From: sh.FirstInGroup, To: want})
			sh.FirstInGroup = want
		}
		if want := member[sh.Position]; sh.LinkedToPrevious != want {
			corrections = append(corrections, FlagCorrection{ShotID: sh.ID, Flag: "is_linked_to_previous", From: sh.LinkedToPrevious, To: want})
			sh.LinkedToPrevious = want
		}
	}

	for _, c := range corrections {
		logger.Info().
			Str(xglog.FieldEvent, "continuity.flag_cleared").
			Str(xglog.FieldShotID, c.ShotID).
			Str("flag", c.Flag).
			Bool("to", c.To).
			Msg("continuity flag rewritten to match emitted groups")
	}
	return out, corrections
}
