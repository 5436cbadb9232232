// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the planner configuration with precedence
// ENV > file > defaults. Files are decoded strictly: unknown keys fail.
package config
