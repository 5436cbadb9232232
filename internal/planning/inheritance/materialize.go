// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package inheritance

import (
	"fmt"

	"github.com/ManuGH/shotplan/internal/domain/shot"
)

// Materialize fills in the inherited opening description of every linked
// shot from its predecessor's closing one. prompts must be Resolve output
// for the same shots and groups.
func Materialize(shots []shot.Shot, groups []shot.ContinuityGroup, prompts []shot.PromptSet) ([]shot.FramePrompts, error) {
	if len(prompts) != len(shots) {
		return nil, fmt.Errorf("materialize: %d prompt sets for %d shots", len(prompts), len(shots))
	}
	rs := roles(groups)
	out := make([]shot.FramePrompts, len(shots))
	for i, sh := range shots {
		ps := prompts[i]
		if ps.ShotID != sh.ID {
			return nil, fmt.Errorf("materialize: prompt set %d belongs to shot %s, want %s", i, ps.ShotID, sh.ID)
		}
		fp := shot.FramePrompts{ShotID: sh.ID, Motion: ps.VideoMotionPrompt}
		fp.Opening, _ = ps.Get(sh.Topology.OpeningField())
		fp.Closing, _ = ps.Get(sh.Topology.ClosingField())

		if rs[sh.Position].linked && i > 0 {
			prev := out[i-1]
			fp.Opening = prev.Closing
			fp.InheritedFrom = prev.ShotID
			if sh.Topology == shot.TopologySingle {
				fp.Closing = fp.Opening
			}
		}
		out[i] = fp
	}
	return out, nil
}
