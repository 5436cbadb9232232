// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ManuGH/shotplan/internal/config"
	"github.com/ManuGH/shotplan/internal/store"
	"github.com/ManuGH/shotplan/internal/version"
)

func runStoreCLI(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printStoreUsage(stdout)
		return 0
	}

	fs := flag.NewFlagSet("shotplan store "+args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file (YAML)")
	scene := fs.String("scene", "", "scene id (show, delete)")
	mode := fs.String("mode", "quick", "verification mode: quick or full")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	cfg, err := config.NewLoader(strings.TrimSpace(*configPath), version.Version).Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if args[0] == "verify" {
		return runStoreVerify(ctx, cfg, *mode, stdout, stderr)
	}

	s, err := store.NewStore(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = s.Close() }()

	switch args[0] {
	case "list":
		list, err := s.List(ctx)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if err := writeJSON("", stdout, list); err != nil {
			return 1
		}
		return 0
	case "show", "delete":
		if *scene == "" {
			_, _ = fmt.Fprintln(stderr, "Error: -scene is required")
			return 2
		}
		if args[0] == "delete" {
			if err := s.Delete(ctx, *scene); err != nil {
				_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
				return 1
			}
			return 0
		}
		p, err := s.Get(ctx, *scene)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if p == nil {
			_, _ = fmt.Fprintf(stderr, "No stored plan for scene %s\n", *scene)
			return 1
		}
		if err := writeJSON("", stdout, p); err != nil {
			return 1
		}
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printStoreUsage(stderr)
		return 2
	}
}

func runStoreVerify(ctx context.Context, cfg config.AppConfig, mode string, stdout, stderr io.Writer) int {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode != "quick" && mode != "full" {
		_, _ = fmt.Fprintf(stderr, "Error: invalid mode %q. Use 'quick' or 'full'.\n", mode)
		return 2
	}
	if cfg.Storage.Backend != config.StorageSQLite || cfg.Storage.Path == "" {
		_, _ = fmt.Fprintln(stderr, "Error: verify needs the sqlite backend with a path")
		return 2
	}

	if _, err := os.Stat(cfg.Storage.Path); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	s, err := store.NewSqliteStore(cfg.Storage.Path)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = s.Close() }()

	problems, err := s.Check(ctx, mode)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if len(problems) > 0 {
		_, _ = fmt.Fprintf(stderr, "%s: integrity check failed\n", cfg.Storage.Path)
		for _, p := range problems {
			_, _ = fmt.Fprintf(stderr, "  - %s\n", p)
		}
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "%s: ok (%s)\n", cfg.Storage.Path, mode)
	return 0
}

func printStoreUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  shotplan store list   -config config.yaml")
	_, _ = fmt.Fprintln(w, "  shotplan store show   -config config.yaml -scene ID")
	_, _ = fmt.Fprintln(w, "  shotplan store delete -config config.yaml -scene ID")
	_, _ = fmt.Fprintln(w, "  shotplan store verify -config config.yaml [-mode quick|full]")
}
