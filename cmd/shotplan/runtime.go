package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ManuGH/shotplan/internal/config"
	xglog "github.com/ManuGH/shotplan/internal/log"
	"github.com/ManuGH/shotplan/internal/telemetry"
	"github.com/ManuGH/shotplan/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/renameio/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// commonFlags are shared by every command that needs a loaded configuration.
type commonFlags struct {
	configPath    string
	metricsListen string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "path to config file (YAML)")
	fs.StringVar(&c.metricsListen, "metrics-listen", "", "serve /metrics and /healthz on this address")
}

// runtime is the process-wide state a command runs with.
type runtime struct {
	cfg      config.AppConfig
	logger   zerolog.Logger
	shutdown []func(context.Context) error
}

func setup(ctx context.Context, flags commonFlags, stderr io.Writer) (*runtime, error) {
	cfg, err := config.NewLoader(strings.TrimSpace(flags.configPath), version.Version).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	xglog.Reconfigure(xglog.Config{
		Level:   cfg.Log.Level,
		Output:  stderr,
		Service: "shotplan",
		Version: cfg.Version,
	})
	rt := &runtime{cfg: cfg, logger: xglog.WithComponent("cli")}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "shotplan",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	rt.shutdown = append(rt.shutdown, tp.Shutdown)

	listen := strings.TrimSpace(flags.metricsListen)
	if listen == "" {
		listen = cfg.Metrics.Listen
	}
	if listen != "" {
		stop, err := serveMetrics(listen, rt.logger)
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.shutdown = append(rt.shutdown, stop)
	}

	rt.logger.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str("path", flags.configPath).
		Str(xglog.FieldProvider, cfg.Generator.Provider).
		Msg("configuration loaded")
	return rt, nil
}

func (rt *runtime) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(rt.shutdown) - 1; i >= 0; i-- {
		if err := rt.shutdown[i](ctx); err != nil {
			rt.logger.Warn().Err(err).Msg("shutdown step failed")
		}
	}
}

func newMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": version.Version})
	})
	r.Method(http.MethodGet, "/metrics", otelhttp.NewHandler(promhttp.Handler(), "metrics"))
	return r
}

// serveMetrics starts the listener and returns its shutdown func.
func serveMetrics(addr string, logger zerolog.Logger) (func(context.Context) error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           newMetricsRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	logger.Info().Str(xglog.FieldEvent, "metrics.listening").Str("addr", ln.Addr().String()).Msg("serving metrics")
	return srv.Shutdown, nil
}

// writeJSON writes v to path atomically, or to w when path is empty or "-".
func writeJSON(path string, w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" || path == "-" {
		_, err = w.Write(data)
		return err
	}

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() { _ = pendingFile.Cleanup() }()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}
