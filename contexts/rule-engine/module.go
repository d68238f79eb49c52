package ruleengine

import (
	"context"
	"log/slog"
	"time"

	"ruleengine/contexts/rule-engine/adapters/broker"
	"ruleengine/contexts/rule-engine/adapters/memory"
	"ruleengine/contexts/rule-engine/application/dispatcher"
	"ruleengine/contexts/rule-engine/application/index"
	"ruleengine/contexts/rule-engine/application/workers"
	"ruleengine/contexts/rule-engine/domain/entities"
	httptransport "ruleengine/contexts/rule-engine/transport/http"
	"ruleengine/contexts/rule-engine/ports"
)

// Engine is the process-wide rule engine: the Registry plus the
// dispatcher, subscriber, loader, and worker pool that operate on it.
type Engine struct {
	Registry   *index.Registry
	Dispatcher *dispatcher.Dispatcher
	Subscriber *workers.ControlSubscriber
	Loader     *workers.Loader
	Pool       *workers.Pool

	broker      ports.Broker
	timers      ports.TimerSink
	poolSize    int64
	logger      *slog.Logger
	cancel      context.CancelFunc
	subscribeWG chan struct{}
}

// Dependencies groups every infrastructure-facing port the engine needs.
// The engine is storage/broker-agnostic as long as the supplied adapters
// satisfy these contracts.
type Dependencies struct {
	Store    ports.Store
	Broker   ports.Broker
	Locks    ports.CellLockManager
	Timers   ports.TimerSink // nil when TimerEventThreadNum == 0
	IDs      ports.IDGenerator
	Clock    ports.Clock
	Metrics  ports.Metrics
	UnitURL  string
	MaxHop   int
	PoolSize int64
	Logger   *slog.Logger
}

// NewEngine wires the Registry, Dispatcher, Subscriber, and Loader from
// deps. It does not start the subscriber loop or load from the store;
// call Init for that.
func NewEngine(deps Dependencies) *Engine {
	registry := &index.Registry{Rules: index.NewRuleIndex(), Boxes: index.NewBoxIndex(), Metrics: deps.Metrics}
	pool := workers.NewPool(deps.PoolSize, deps.Logger)

	disp := &dispatcher.Dispatcher{
		Registry: registry,
		Store:    deps.Store,
		Locks:    deps.Locks,
		Pool:     pool,
		Broker:   deps.Broker,
		IDs:      deps.IDs,
		Clock:    deps.Clock,
		Metrics:  deps.Metrics,
		UnitURL:  deps.UnitURL,
		MaxHop:   deps.MaxHop,
		Logger:   deps.Logger,
	}
	sub := &workers.ControlSubscriber{
		Registry: registry,
		Store:    deps.Store,
		Locks:    deps.Locks,
		Timers:   deps.Timers,
		Metrics:  deps.Metrics,
		Logger:   deps.Logger,
	}
	loader := &workers.Loader{Registry: registry, Store: deps.Store, Timers: deps.Timers, Logger: deps.Logger}

	return &Engine{
		Registry:   registry,
		Dispatcher: disp,
		Subscriber: sub,
		Loader:     loader,
		Pool:       pool,
		broker:     deps.Broker,
		timers:     deps.Timers,
		poolSize:   deps.PoolSize,
		logger:     resolveLogger(deps.Logger),
	}
}

// NewInMemoryEngine wires a fully in-process Engine backed only by
// in-memory adapters, for tests and local dev bootstrap.
func NewInMemoryEngine(logger *slog.Logger) (*Engine, *memory.Store) {
	store := memory.NewStore()
	bus := broker.NewInProcess()
	engine := NewEngine(Dependencies{
		Store:    store,
		Broker:   bus,
		Locks:    memory.NewCellLockManager(),
		Timers:   memory.NewTimerSink(),
		IDs:      memory.UUIDGenerator{},
		Clock:    memory.SystemClock{},
		UnitURL:  "https://localhost",
		MaxHop:   5,
		PoolSize: 8,
		Logger:   logger,
	})
	return engine, store
}

// Init starts the control-plane subscriber loop and runs the loader once.
// Not intended to be called concurrently; callers serialize via startup
// ordering.
func (e *Engine) Init(ctx context.Context) {
	e.Loader.Load(ctx)
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.subscribeWG = make(chan struct{})
	go func() {
		defer close(e.subscribeWG)
		if err := e.Subscriber.Run(runCtx, e.broker); err != nil && runCtx.Err() == nil {
			e.logger.Error("subscriber loop exited",
				"event", "engine_subscriber_exited",
				"module", "rule-engine",
				"layer", "lifecycle",
				"error", err.Error(),
			)
		}
	}()
}

// Judge is the engine's judge(event) entrypoint.
func (e *Engine) Judge(ctx context.Context, event *entities.Event) {
	e.Dispatcher.Judge(ctx, event)
}

// GetRules is getRules(cell): a structured snapshot of the
// tenant's rules, boxes, and (if a Timer sink is configured) timers.
func (e *Engine) GetRules(ctx context.Context, cellID string) httptransport.GetRulesResponse {
	rules := e.Registry.Rules.Snapshot(cellID)
	ruleViews := make([]httptransport.RuleView, 0, len(rules))
	for _, rule := range rules {
		ruleViews = append(ruleViews, httptransport.RuleView{
			Name:    rule.Name,
			Type:    rule.Type,
			Subject: rule.Subject,
			Object:  rule.Object,
			Info:    rule.Info,
			Action:  rule.Action,
			Service: rule.Service,
			BoxName: rule.BoxName,
		})
	}
	boxes := e.Registry.Boxes.List(cellID)
	boxViews := make([]httptransport.BoxView, 0, len(boxes))
	for _, box := range boxes {
		boxViews = append(boxViews, httptransport.BoxView{
			ID: box.ID, Name: box.Name, Schema: box.Schema, RefCount: box.RefCount,
		})
	}
	response := httptransport.GetRulesResponse{CellID: cellID, Rules: ruleViews, Boxes: boxViews}
	if e.timers != nil {
		if timers, err := e.timers.GetTimerList(ctx, cellID); err == nil {
			for _, info := range timers {
				response.Timers = append(response.Timers, httptransport.TimerView{
					Name: info.Name, Subject: info.Subject, Type: info.Type,
					Object: info.Object, Info: info.Info, BoxID: info.BoxID,
				})
			}
		}
	}
	return response
}

// Shutdown closes the broker publisher handle, shuts down the Timer sink
// if present, drains the subscriber with a 1s timeout then force-
// terminates, and waits for the MISC pool to drain.
func (e *Engine) Shutdown(ctx context.Context) {
	if e.broker != nil {
		if err := e.broker.Close(); err != nil {
			e.logger.Error("engine broker close failed",
				"event", "engine_broker_close_failed",
				"module", "rule-engine",
				"layer", "lifecycle",
				"error", err.Error(),
			)
		}
	}
	if e.timers != nil {
		if err := e.timers.Shutdown(ctx); err != nil {
			e.logger.Error("engine timer sink shutdown failed",
				"event", "engine_timer_shutdown_failed",
				"module", "rule-engine",
				"layer", "lifecycle",
				"error", err.Error(),
			)
		}
	}
	if e.cancel != nil {
		e.cancel()
		select {
		case <-e.subscribeWG:
		case <-time.After(time.Second):
			e.logger.Warn("engine subscriber drain timed out, forcing shutdown",
				"event", "engine_subscriber_force_terminate",
				"module", "rule-engine",
				"layer", "lifecycle",
			)
		}
	}
	if e.poolSize > 0 {
		drainCtx, drainCancel := context.WithTimeout(context.Background(), time.Second)
		defer drainCancel()
		_ = e.Pool.Close(drainCtx, e.poolSize)
	}
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
