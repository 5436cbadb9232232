// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package duration

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

const epsilon = 1e-9

// TieBreak decides which neighbour wins when a value sits exactly between two
// allowed durations.
type TieBreak string

const (
	TieLower  TieBreak = "lower"
	TieHigher TieBreak = "higher"
)

// ParseTieBreak maps a config value onto a TieBreak. Empty means TieLower.
func ParseTieBreak(raw string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "lower", "low", "down":
		return TieLower, nil
	case "higher", "high", "up":
		return TieHigher, nil
	default:
		return "", fmt.Errorf("unknown tie break %q (supported: lower, higher)", raw)
	}
}

// DefaultAllowed is the scene-level allowed-duration set used when none is configured.
var DefaultAllowed = []float64{2, 4, 5, 6, 8, 10, 12}

// DefaultTolerance is the accepted deviation from the target, as a fraction of it.
const DefaultTolerance = 0.10

var errNoAllowed = errors.New("allowed-duration set is empty")

// Policy is the discrete duration set plus the rules used to snap onto it.
// The zero value is not usable; build one with NewPolicy or DefaultPolicy.
type Policy struct {
	allowed   []float64
	tolerance float64
	tie       TieBreak
}

// DefaultPolicy returns {2,4,5,6,8,10,12}, ±10%, ties toward the lower value.
func DefaultPolicy() Policy {
	p, _ := NewPolicy(DefaultAllowed, DefaultTolerance, TieLower)
	return p
}

// NewPolicy validates and normalises an allowed set (sorted, deduplicated).
func NewPolicy(allowed []float64, tolerance float64, tie TieBreak) (Policy, error) {
	set, err := normalize(allowed)
	if err != nil {
		return Policy{}, err
	}
	if tolerance <= 0 || tolerance >= 1 || math.IsNaN(tolerance) {
		return Policy{}, fmt.Errorf("tolerance must be within (0,1), got %g", tolerance)
	}
	switch tie {
	case TieLower, TieHigher:
	case "":
		tie = TieLower
	default:
		return Policy{}, fmt.Errorf("unknown tie break %q", tie)
	}
	return Policy{allowed: set, tolerance: tolerance, tie: tie}, nil
}

// Allowed returns a copy of the normalised allowed set.
func (p Policy) Allowed() []float64 { return append([]float64(nil), p.allowed...) }

// Tolerance returns the accepted deviation fraction.
func (p Policy) Tolerance() float64 { return p.tolerance }

// Tie returns the tie-break rule.
func (p Policy) Tie() TieBreak { return p.tie }

// Min returns the smallest allowed duration.
func (p Policy) Min() float64 { return p.allowed[0] }

// Max returns the largest allowed duration.
func (p Policy) Max() float64 { return p.allowed[len(p.allowed)-1] }

// Contains reports whether v is a member of the allowed set.
func (p Policy) Contains(v float64) bool {
	for _, a := range p.allowed {
		if math.Abs(a-v) < epsilon {
			return true
		}
	}
	return false
}

// Snap returns the allowed value nearest to v.
func (p Policy) Snap(v float64) float64 {
	out, _ := nearest(p.allowed, v, math.Inf(1), p.tie)
	return out
}

// snapAtMost returns the allowed value nearest to v that does not exceed
// ceiling. ok is false when every allowed value is above the ceiling.
func (p Policy) snapAtMost(v, ceiling float64) (float64, bool) {
	return nearest(p.allowed, v, ceiling, p.tie)
}

func (p Policy) stepUp(v float64) (float64, bool) {
	for _, a := range p.allowed {
		if a > v+epsilon {
			return a, true
		}
	}
	return 0, false
}

func (p Policy) stepDown(v float64) (float64, bool) {
	for i := len(p.allowed) - 1; i >= 0; i-- {
		if p.allowed[i] < v-epsilon {
			return p.allowed[i], true
		}
	}
	return 0, false
}

// Snap returns the member of allowed nearest to v using the given tie rule.
// It is exported for callers holding a provider-specific set, which may be a
// subset of the scene-level one. An empty set returns v unchanged.
func Snap(allowed []float64, v float64, tie TieBreak) float64 {
	set, err := normalize(allowed)
	if err != nil {
		return v
	}
	out, _ := nearest(set, v, math.Inf(1), tie)
	return out
}

// nearest scans a sorted set; with TieLower the first (smaller) candidate at
// equal distance is kept, with TieHigher the later one replaces it.
func nearest(sorted []float64, v, ceiling float64, tie TieBreak) (float64, bool) {
	best := 0.0
	bestDist := math.Inf(1)
	found := false
	for _, a := range sorted {
		if a > ceiling+epsilon {
			break
		}
		d := math.Abs(a - v)
		switch {
		case !found || d < bestDist-epsilon:
			best, bestDist, found = a, d, true
		case tie == TieHigher && math.Abs(d-bestDist) <= epsilon:
			best = a
		}
	}
	return best, found
}

func normalize(allowed []float64) ([]float64, error) {
	if len(allowed) == 0 {
		return nil, errNoAllowed
	}
	set := make([]float64, 0, len(allowed))
	for _, a := range allowed {
		if a <= 0 || math.IsNaN(a) || math.IsInf(a, 0) {
			return nil, fmt.Errorf("allowed duration must be positive and finite, got %g", a)
		}
		set = append(set, a)
	}
	sort.Float64s(set)
	out := set[:1]
	for _, a := range set[1:] {
		if math.Abs(a-out[len(out)-1]) >= epsilon {
			out = append(out, a)
		}
	}
	return out, nil
}
