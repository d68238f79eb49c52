package memory

import (
	"context"
	"sync"

	"ruleengine/contexts/rule-engine/ports"
)

// TimerSink is an in-memory ports.TimerSink, tracking registrations by
// (cellID, name, boxID) and notified on every register/unregister.
type TimerSink struct {
	mu     sync.Mutex
	timers map[string]ports.TimerInfo
}

func NewTimerSink() *TimerSink {
	return &TimerSink{timers: make(map[string]ports.TimerInfo)}
}

func (t *TimerSink) Register(_ context.Context, info ports.TimerInfo) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timers[timerKey(info)] = info
	return nil
}

func (t *TimerSink) Unregister(_ context.Context, info ports.TimerInfo) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.timers, timerKey(info))
	return nil
}

func (t *TimerSink) GetTimerList(_ context.Context, cellID string) ([]ports.TimerInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	items := make([]ports.TimerInfo, 0)
	for _, info := range t.timers {
		if info.CellID == cellID {
			items = append(items, info)
		}
	}
	return items, nil
}

func (t *TimerSink) Shutdown(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timers = make(map[string]ports.TimerInfo)
	return nil
}

func timerKey(info ports.TimerInfo) string {
	return info.CellID + "|" + info.Name + "|" + info.BoxID
}
