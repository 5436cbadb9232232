// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package shot holds the planning domain model: shots, their frame topology,
// continuity groups, per-shot prompt sets and the scene that owns them.
//
// Values in this package are plain data. A Scene is only ever changed by
// replacing its whole shot list, which also invalidates its groups.
package shot
