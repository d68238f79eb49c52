// Package bootstrap is the composition root: it is the only place that
// wires concrete adapters into ports and constructs the rule engine,
// keeping the rule-engine package itself framework-agnostic.
package bootstrap

import (
	"context"
	"log/slog"
	"os"
	"time"

	ruleengine "ruleengine/contexts/rule-engine"
	httpadapter "ruleengine/contexts/rule-engine/adapters/http"
	"ruleengine/contexts/rule-engine/adapters/broker"
	"ruleengine/contexts/rule-engine/adapters/memory"
	"ruleengine/contexts/rule-engine/adapters/metrics"
	postgresadapter "ruleengine/contexts/rule-engine/adapters/postgres"
	"ruleengine/contexts/rule-engine/ports"
	"ruleengine/internal/platform/config"
	"ruleengine/internal/platform/db"
	"ruleengine/internal/platform/httpserver"
	platformmetrics "ruleengine/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// APIApp owns the HTTP-facing process: the engine plus its debug server.
type APIApp struct {
	Engine *ruleengine.Engine
	Server *httpserver.Server
	logger *slog.Logger
}

// WorkerApp owns the control-plane process: the engine with its
// subscriber/loader running, no HTTP surface attached.
type WorkerApp struct {
	Engine *ruleengine.Engine
	logger *slog.Logger
}

// BuildAPI constructs the engine and HTTP server for the API process.
func BuildAPI() (*APIApp, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	engine, err := buildEngine(cfg, logger)
	if err != nil {
		return nil, err
	}

	handler := httpadapter.Handler{Engine: engine, Logger: logger}
	server := httpserver.NewServer(":"+cfg.HTTPPort, handler, logger)

	return &APIApp{Engine: engine, Server: server, logger: logger}, nil
}

// Run initializes the engine then starts the debug HTTP server. It
// blocks until the server stops.
func (a *APIApp) Run(ctx context.Context) error {
	a.Engine.Init(ctx)
	return a.Server.Start()
}

// Close shuts the HTTP server down, then drains the engine.
func (a *APIApp) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Server.Shutdown(ctx); err != nil {
		a.logger.Error("api http server shutdown failed",
			"event", "bootstrap_api_shutdown_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"error", err.Error(),
		)
	}
	a.Engine.Shutdown(ctx)
	return nil
}

// BuildWorker constructs the engine for the control-plane-only process:
// same Engine composition as the API, minus the HTTP server.
func BuildWorker() (*WorkerApp, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	engine, err := buildEngine(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &WorkerApp{Engine: engine, logger: logger}, nil
}

// Run initializes the engine (loads from the store, starts the control
// subscriber) and blocks until ctx is canceled.
func (w *WorkerApp) Run(ctx context.Context) error {
	w.Engine.Init(ctx)
	<-ctx.Done()
	return nil
}

func (w *WorkerApp) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w.Engine.Shutdown(ctx)
	return nil
}

// buildEngine wires the engine's dependencies: a Postgres store when
// PostgresDSN is configured, an in-memory one for local/dev runs
// otherwise. The broker, lock manager, and timer sink stay in-process
// either way.
func buildEngine(cfg config.Config, logger *slog.Logger) (*ruleengine.Engine, error) {
	reg := platformmetrics.NewRegistry(prometheus.DefaultRegisterer)
	metricsAdapter := metrics.NewAdapter(reg)

	var store ports.Store
	if cfg.PostgresDSN != "" {
		conn, err := db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		store = postgresadapter.NewRepository(conn, logger)
	} else {
		store = memory.NewStore()
	}

	var timers ports.TimerSink
	if cfg.TimerEventThreadNum > 0 {
		timers = memory.NewTimerSink()
	}

	engine := ruleengine.NewEngine(ruleengine.Dependencies{
		Store:    store,
		Broker:   broker.NewInProcess(),
		Locks:    memory.NewCellLockManager(),
		Timers:   timers,
		IDs:      memory.UUIDGenerator{},
		Clock:    memory.SystemClock{},
		Metrics:  metricsAdapter,
		UnitURL:  cfg.UnitURL,
		MaxHop:   cfg.MaxEventHop,
		PoolSize: cfg.MiscPoolSize,
		Logger:   logger,
	})
	return engine, nil
}
