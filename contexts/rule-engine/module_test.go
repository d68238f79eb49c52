package ruleengine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ruleengine/contexts/rule-engine/adapters/broker"
	"ruleengine/contexts/rule-engine/adapters/memory"
	"ruleengine/contexts/rule-engine/application/index"
	"ruleengine/contexts/rule-engine/domain/entities"
	"ruleengine/contexts/rule-engine/ports"
)

type countingMetrics struct {
	dispatched int32
}

func (m *countingMetrics) RuleRegistered(_ string)   {}
func (m *countingMetrics) RuleUnregistered(_ string) {}
func (m *countingMetrics) ActionDispatched(_ string) {
	atomic.AddInt32(&m.dispatched, 1)
}
func (m *countingMetrics) ControlEventProcessed(_ string, _ bool) {}
func (m *countingMetrics) SetRuleIndexSize(_ string, _ int)       {}
func (m *countingMetrics) SetBoxIndexSize(_ string, _ int)        {}

func newTestEngine(metrics ports.Metrics) *Engine {
	return NewEngine(Dependencies{
		Store:    memory.NewStore(),
		Broker:   broker.NewInProcess(),
		Locks:    memory.NewCellLockManager(),
		Timers:   memory.NewTimerSink(),
		IDs:      memory.UUIDGenerator{},
		Clock:    memory.SystemClock{},
		Metrics:  metrics,
		UnitURL:  "https://unit.example",
		MaxHop:   5,
		PoolSize: 2,
	})
}

func TestNewInMemoryEngineInitAndShutdown(t *testing.T) {
	engine, _ := NewInMemoryEngine(nil)

	engine.Init(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	engine.Shutdown(ctx)
}

func TestEngineJudgeDispatchesMatchingRule(t *testing.T) {
	metrics := &countingMetrics{}
	engine := newTestEngine(metrics)
	engine.Init(context.Background())

	external := true
	_, err := engine.Registry.Register("cell1", ports.RuleRecord{
		Name:     "R1",
		External: &external,
		Action:   entities.ActionExec,
		Service:  "https://example.com/hook",
	}, nil)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	engine.Judge(context.Background(), &entities.Event{CellID: "cell1", External: true, Type: "wc.put"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	engine.Shutdown(ctx)

	if atomic.LoadInt32(&metrics.dispatched) != 1 {
		t.Fatalf("dispatched count = %d, want 1", metrics.dispatched)
	}
}

func TestEngineGetRulesReflectsRegisteredState(t *testing.T) {
	engine := newTestEngine(nil)
	resolved := &index.ResolvedBox{ID: "box-1", Name: "inbox", Schema: "urn:schema:1"}
	external := true
	if _, err := engine.Registry.Register("cell1", ports.RuleRecord{
		Name: "R1", External: &external, Action: entities.ActionExec, BoxName: "inbox",
	}, resolved); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	resp := engine.GetRules(context.Background(), "cell1")

	if resp.CellID != "cell1" || len(resp.Rules) != 1 || len(resp.Boxes) != 1 {
		t.Fatalf("GetRules() = %+v, want one rule and one box", resp)
	}
	if resp.Rules[0].Name != "R1" || resp.Boxes[0].Name != "inbox" {
		t.Fatalf("GetRules() unexpected content: %+v", resp)
	}
}

func TestEngineShutdownIsSafeWithoutInit(t *testing.T) {
	engine := newTestEngine(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		engine.Shutdown(ctx)
	}()
	wg.Wait()
}
