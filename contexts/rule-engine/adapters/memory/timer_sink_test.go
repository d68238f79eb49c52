package memory

import (
	"context"
	"testing"

	"ruleengine/contexts/rule-engine/ports"
)

func TestTimerSinkRegisterAndGetTimerList(t *testing.T) {
	sink := NewTimerSink()
	sink.Register(context.Background(), ports.TimerInfo{CellID: "cell1", Name: "T1", BoxID: "box-1"})
	sink.Register(context.Background(), ports.TimerInfo{CellID: "cell2", Name: "T2"})

	timers, err := sink.GetTimerList(context.Background(), "cell1")
	if err != nil || len(timers) != 1 || timers[0].Name != "T1" {
		t.Fatalf("GetTimerList() = %+v, %v, want one timer named T1", timers, err)
	}
}

func TestTimerSinkUnregisterRemovesByCompositeKey(t *testing.T) {
	sink := NewTimerSink()
	info := ports.TimerInfo{CellID: "cell1", Name: "T1", BoxID: "box-1"}
	sink.Register(context.Background(), info)

	sink.Unregister(context.Background(), info)

	timers, _ := sink.GetTimerList(context.Background(), "cell1")
	if len(timers) != 0 {
		t.Fatalf("expected timer list empty after Unregister, got %+v", timers)
	}
}

func TestTimerSinkShutdownClearsAllTimers(t *testing.T) {
	sink := NewTimerSink()
	sink.Register(context.Background(), ports.TimerInfo{CellID: "cell1", Name: "T1"})
	sink.Register(context.Background(), ports.TimerInfo{CellID: "cell2", Name: "T2"})

	if err := sink.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() unexpected error: %v", err)
	}

	timers, _ := sink.GetTimerList(context.Background(), "cell1")
	if len(timers) != 0 {
		t.Fatalf("expected timers cleared after Shutdown")
	}
}
