// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command shotplan plans scenes into reconciled shot lists and submits the
// resulting shots to a video provider.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	xglog "github.com/ManuGH/shotplan/internal/log"
	"github.com/ManuGH/shotplan/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	xglog.Configure(xglog.Config{
		Level:   "info",
		Output:  stderr,
		Service: "shotplan",
		Version: version.Version,
	})

	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "-version", "--version", "version":
		_, _ = fmt.Fprintln(stdout, version.String())
		return 0
	case "config":
		return runConfigCLI(args[1:], stdout, stderr)
	case "plan":
		return runPlan(ctx, args[1:], stdout, stderr)
	case "submit":
		return runSubmit(ctx, args[1:], stdout, stderr)
	case "store":
		return runStoreCLI(ctx, args[1:], stdout, stderr)
	case "-h", "--help", "help":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  shotplan -version")
	_, _ = fmt.Fprintln(w, "  shotplan config validate -config config.yaml")
	_, _ = fmt.Fprintln(w, "  shotplan plan -config config.yaml -scene scene.yaml [-out plan.json] [-persist]")
	_, _ = fmt.Fprintln(w, "  shotplan submit -config config.yaml (-plan plan.json | -stored SCENE_ID) -frames frames.yaml -profile NAME [-out report.json]")
	_, _ = fmt.Fprintln(w, "  shotplan store list|show|delete|verify -config config.yaml")
}
