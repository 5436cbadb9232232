// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package inheritance enforces the prompt inheritance contract on a batch of
// generated prompt sets: linked shots never carry a freshly generated opening
// description, and the batch always lines up with the scene's shot list.
package inheritance

import (
	"context"

	"github.com/ManuGH/shotplan/internal/domain/shot"
	xglog "github.com/ManuGH/shotplan/internal/log"
	"github.com/ManuGH/shotplan/internal/metrics"
)

// CorrectionReason explains why a populated field was forced to null.
type CorrectionReason string

const (
	ReasonInherited   CorrectionReason = "inherited_slot"
	ReasonForeignSlot CorrectionReason = "foreign_slot"
	ReasonNotOpener   CorrectionReason = "not_group_opener"
)

// Correction is one field the resolver nulled out.
type Correction struct {
	ShotID string           `json:"shot_id"`
	Field  shot.PromptField `json:"field"`
	Reason CorrectionReason `json:"reason"`
}

// Result is a batch with inheritance enforced, in shot order.
type Result struct {
	Prompts      []shot.PromptSet `json:"prompts"`
	Corrections  []Correction     `json:"corrections,omitempty"`
	NotesMissing []string         `json:"notes_missing,omitempty"`
}

type role struct {
	opener bool
	linked bool
}

// roles derives opener/member status from the emitted groups, which are the
// only source of truth for continuity once grouping has run.
func roles(groups []shot.ContinuityGroup) map[int]role {
	out := make(map[int]role)
	for _, g := range groups {
		for i, p := range g.Positions {
			r := out[p]
			if i == 0 {
				r.opener = true
			} else {
				r.linked = true
			}
			out[p] = r
		}
	}
	return out
}

// Resolve checks batch against shots and groups.
//
// Structural problems fail the whole batch with *shot.IncompleteGenerationError:
// a shot id missing, repeated or unknown, or a required field left empty or
// blank. Blank fields are normalised to null.
// Fields populated where the shot must not carry them are cleared and
// reported. Running Resolve on its own output changes nothing.
func Resolve(ctx context.Context, sceneID string, shots []shot.Shot, groups []shot.ContinuityGroup, batch []shot.PromptSet) (Result, error) {
	logger := xglog.WithComponentFromContext(ctx, "inheritance")

	known := make(map[string]struct{}, len(shots))
	for _, sh := range shots {
		known[sh.ID] = struct{}{}
	}

	byID := make(map[string]shot.PromptSet, len(batch))
	incomplete := &shot.IncompleteGenerationError{SceneID: sceneID}
	dupSeen := make(map[string]bool)
	for _, ps := range batch {
		if _, ok := known[ps.ShotID]; !ok {
			incomplete.Unknown = append(incomplete.Unknown, ps.ShotID)
			continue
		}
		if _, ok := byID[ps.ShotID]; ok {
			if !dupSeen[ps.ShotID] {
				incomplete.Duplicate = append(incomplete.Duplicate, ps.ShotID)
				dupSeen[ps.ShotID] = true
			}
			continue
		}
		byID[ps.ShotID] = ps
	}
	for _, sh := range shots {
		if _, ok := byID[sh.ID]; !ok {
			incomplete.Missing = append(incomplete.Missing, sh.ID)
		}
	}
	if len(incomplete.Missing)+len(incomplete.Duplicate)+len(incomplete.Unknown) > 0 {
		return Result{}, incomplete
	}

	rs := roles(groups)
	res := Result{Prompts: make([]shot.PromptSet, 0, len(shots))}
	for _, sh := range shots {
		ps := byID[sh.ID].Clone()
		ps.ShotID = sh.ID
		ps.DropBlank()
		r := rs[sh.Position]

		nullify := func(field shot.PromptField, reason CorrectionReason) {
			if _, set := ps.Get(field); !set {
				return
			}
			ps.Clear(field)
			res.Corrections = append(res.Corrections, Correction{ShotID: sh.ID, Field: field, Reason: reason})
		}

		switch sh.Topology {
		case shot.TopologySingle:
			nullify(shot.FieldStartFrame, ReasonForeignSlot)
			nullify(shot.FieldEndFrame, ReasonForeignSlot)
		case shot.TopologyStartEnd:
			nullify(shot.FieldImage, ReasonForeignSlot)
		}
		if r.linked {
			nullify(sh.Topology.OpeningField(), ReasonInherited)
		}
		if !r.opener {
			nullify(shot.FieldContinuityNotes, ReasonNotOpener)
		}

		if !r.linked {
			if _, ok := ps.Get(sh.Topology.OpeningField()); !ok {
				incomplete.MissingFields = append(incomplete.MissingFields, shot.FieldGap{ShotID: sh.ID, Field: sh.Topology.OpeningField()})
			}
		}
		if sh.Topology == shot.TopologyStartEnd {
			if _, ok := ps.Get(shot.FieldEndFrame); !ok {
				incomplete.MissingFields = append(incomplete.MissingFields, shot.FieldGap{ShotID: sh.ID, Field: shot.FieldEndFrame})
			}
		}
		if _, ok := ps.Get(shot.FieldVideoMotion); !ok {
			incomplete.MissingFields = append(incomplete.MissingFields, shot.FieldGap{ShotID: sh.ID, Field: shot.FieldVideoMotion})
		}
		if r.opener {
			if _, ok := ps.Get(shot.FieldContinuityNotes); !ok {
				res.NotesMissing = append(res.NotesMissing, sh.ID)
			}
		}

		res.Prompts = append(res.Prompts, ps)
	}
	if len(incomplete.MissingFields) > 0 {
		return Result{}, incomplete
	}

	for _, c := range res.Corrections {
		logger.Warn().
			Str(xglog.FieldEvent, "inheritance.field_corrected").
			Str(xglog.FieldSceneID, sceneID).
			Str(xglog.FieldShotID, c.ShotID).
			Str(xglog.FieldField, string(c.Field)).
			Str("reason", string(c.Reason)).
			Msg("generator populated a field the shot must not carry, forcing null")
		metrics.RecordInheritanceCorrection(string(c.Field))
	}
	for _, id := range res.NotesMissing {
		logger.Warn().
			Str(xglog.FieldEvent, "inheritance.notes_missing").
			Str(xglog.FieldSceneID, sceneID).
			Str(xglog.FieldShotID, id).
			Msg("group opener has no continuity notes")
	}
	return res, nil
}
