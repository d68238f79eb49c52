package dispatcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"ruleengine/contexts/rule-engine/application/index"
	"ruleengine/contexts/rule-engine/domain/entities"
	"ruleengine/contexts/rule-engine/ports"
)

// syncPool runs every submitted task inline, so dispatcher tests can
// assert on action side effects without a goroutine race.
type syncPool struct{}

func (syncPool) Submit(task func()) error {
	task()
	return nil
}

type fakeStore struct {
	mu     sync.Mutex
	exists map[string]bool
	err    error
}

func newFakeStore(knownCellIDs ...string) *fakeStore {
	exists := make(map[string]bool, len(knownCellIDs))
	for _, id := range knownCellIDs {
		exists[id] = true
	}
	return &fakeStore{exists: exists}
}

func (s *fakeStore) ListCells(_ context.Context) ([]string, error) { return nil, nil }

func (s *fakeStore) ListRules(_ context.Context, _ string) ([]ports.RuleRecord, error) {
	return nil, nil
}

func (s *fakeStore) ReadRule(_ context.Context, _ string, _ string) (ports.RuleRecord, error) {
	return ports.RuleRecord{}, nil
}

func (s *fakeStore) FindBoxByName(_ context.Context, _ string, _ string) (entities.Box, bool, error) {
	return entities.Box{}, false, nil
}

func (s *fakeStore) CellExists(_ context.Context, cellID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exists[cellID], nil
}

type fakeLocks struct {
	mu     sync.Mutex
	status ports.CellStatus
	refs   int
}

func (f *fakeLocks) Status(_ context.Context, _ string) (ports.CellStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeLocks) IncRef(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs++
	return nil
}

func (f *fakeLocks) DecRef(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs--
	return nil
}

type fakeBroker struct {
	mu   sync.Mutex
	sent []ports.EventEnvelope
}

func (b *fakeBroker) Send(_ context.Context, envelope ports.EventEnvelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, envelope)
	return nil
}

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) SubscribeLoop(ctx context.Context, _ func(context.Context, ports.EventEnvelope) error) error {
	<-ctx.Done()
	return ctx.Err()
}

func (b *fakeBroker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fixedIDs struct{ id string }

func (f fixedIDs) NewID(_ context.Context) (string, error) { return f.id, nil }

func newTestDispatcher(locks *fakeLocks, broker *fakeBroker) (*Dispatcher, *index.Registry) {
	reg := index.NewRegistry()
	d := &Dispatcher{
		Registry: reg,
		Store:    newFakeStore("cell1"),
		Locks:    locks,
		Pool:     syncPool{},
		Broker:   broker,
		IDs:      fixedIDs{id: "evt-1"},
		Clock:    fixedClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		UnitURL:  "https://unit.example",
		MaxHop:   5,
	}
	return d, reg
}

func boolPtr(v bool) *bool { return &v }

func TestJudgeSkipsBulkDeletionCells(t *testing.T) {
	locks := &fakeLocks{status: ports.CellStatusBulkDeletion}
	broker := &fakeBroker{}
	d, reg := newTestDispatcher(locks, broker)
	reg.Register("cell1", ports.RuleRecord{Name: "R1", Action: "exec", External: boolPtr(true)}, nil)

	d.Judge(context.Background(), &entities.Event{CellID: "cell1", External: true, Type: "wc.put"})

	if locks.refs != 0 {
		t.Fatalf("expected no IncRef/DecRef for a bulk-deletion cell, refs=%d", locks.refs)
	}
}

func TestJudgeSkipsUnknownCell(t *testing.T) {
	locks := &fakeLocks{}
	broker := &fakeBroker{}
	d, _ := newTestDispatcher(locks, broker)
	d.Store = newFakeStore() // cell1 not known to the store

	d.Judge(context.Background(), &entities.Event{CellID: "cell1", External: true, Type: "wc.put"})

	if locks.refs != 0 {
		t.Fatalf("expected no IncRef/DecRef for an unknown cell, refs=%d", locks.refs)
	}
}

func TestJudgeGeneratesEventIDWhenMissing(t *testing.T) {
	locks := &fakeLocks{}
	broker := &fakeBroker{}
	d, _ := newTestDispatcher(locks, broker)

	event := &entities.Event{CellID: "cell1", External: true, Type: "wc.put"}
	d.Judge(context.Background(), event)

	if event.EventID != "evt-1" {
		t.Fatalf("event.EventID = %q, want evt-1", event.EventID)
	}
}

func TestJudgeAdvancesRuleChainHop(t *testing.T) {
	locks := &fakeLocks{}
	broker := &fakeBroker{}
	d, _ := newTestDispatcher(locks, broker)

	event := &entities.Event{CellID: "cell1", External: true, Type: "wc.put", RuleChain: "2"}
	d.Judge(context.Background(), event)

	if event.RuleChain != "3" {
		t.Fatalf("event.RuleChain = %q, want 3", event.RuleChain)
	}
}

func TestJudgeSkipsMatchingPastHopCeiling(t *testing.T) {
	locks := &fakeLocks{}
	broker := &fakeBroker{}
	d, reg := newTestDispatcher(locks, broker)
	d.MaxHop = 1
	reg.Register("cell1", ports.RuleRecord{Name: "R1", Action: "exec", External: boolPtr(true)}, nil)

	event := &entities.Event{CellID: "cell1", External: true, Type: "wc.put", RuleChain: "1"}
	d.Judge(context.Background(), event)

	if event.RuleChain != "1" {
		t.Fatalf("event.RuleChain = %q, want unchanged 1 past the hop ceiling", event.RuleChain)
	}
}

func TestJudgeRewritesEventObjectToAbsoluteCellURL(t *testing.T) {
	locks := &fakeLocks{}
	broker := &fakeBroker{}
	d, _ := newTestDispatcher(locks, broker)

	event := &entities.Event{CellID: "cell1", External: true, Type: "wc.put", Object: "localcell:__ctl/col"}
	d.Judge(context.Background(), event)

	want := "https://unit.example/cell1/__ctl/col"
	if event.Object != want {
		t.Fatalf("event.Object = %q, want %q", event.Object, want)
	}
}

func TestJudgeRepublishesControlTopicWhenInternal(t *testing.T) {
	locks := &fakeLocks{}
	broker := &fakeBroker{}
	d, _ := newTestDispatcher(locks, broker)

	event := &entities.Event{CellID: "cell1", External: false, Type: "rule.create"}
	d.Judge(context.Background(), event)

	if broker.count() != 1 {
		t.Fatalf("broker.count() = %d, want 1 for an internal control-topic event", broker.count())
	}
}

func TestJudgeDoesNotRepublishExternalEvents(t *testing.T) {
	locks := &fakeLocks{}
	broker := &fakeBroker{}
	d, _ := newTestDispatcher(locks, broker)

	event := &entities.Event{CellID: "cell1", External: true, Type: "rule.create"}
	d.Judge(context.Background(), event)

	if broker.count() != 0 {
		t.Fatalf("broker.count() = %d, want 0 for an external event", broker.count())
	}
}

func TestJudgeDoesNotRepublishNonControlTopics(t *testing.T) {
	locks := &fakeLocks{}
	broker := &fakeBroker{}
	d, _ := newTestDispatcher(locks, broker)

	event := &entities.Event{CellID: "cell1", External: false, Type: "wc.put"}
	d.Judge(context.Background(), event)

	if broker.count() != 0 {
		t.Fatalf("broker.count() = %d, want 0 for a non-control-plane topic", broker.count())
	}
}

func TestJudgeClearsTimerSubjectOutsideOwnCell(t *testing.T) {
	locks := &fakeLocks{}
	broker := &fakeBroker{}
	d, _ := newTestDispatcher(locks, broker)

	event := &entities.Event{CellID: "cell1", External: true, Type: "timer.periodic", Subject: "https://other.example/elsewhere"}
	d.Judge(context.Background(), event)

	if event.Subject != "" {
		t.Fatalf("event.Subject = %q, want cleared for a timer event outside the cell", event.Subject)
	}
}
