package workers

import (
	"context"
	"testing"

	"ruleengine/contexts/rule-engine/application/index"
	"ruleengine/contexts/rule-engine/domain/entities"
	"ruleengine/contexts/rule-engine/ports"
)

func TestLoaderLoadRegistersEveryCellsRules(t *testing.T) {
	store := newFakeStore()
	store.cellList = []string{"cell1", "cell2"}
	store.rulesByCell["cell1"] = []ports.RuleRecord{{Name: "R1", Action: "exec"}}
	store.rulesByCell["cell2"] = []ports.RuleRecord{{Name: "R2", Action: "exec"}}
	reg := index.NewRegistry()
	loader := &Loader{Registry: reg, Store: store, Timers: &fakeTimerSink{}}

	loader.Load(context.Background())

	if _, ok := reg.FindByName("cell1", "R1"); !ok {
		t.Fatalf("expected R1 registered under cell1")
	}
	if _, ok := reg.FindByName("cell2", "R2"); !ok {
		t.Fatalf("expected R2 registered under cell2")
	}
}

func TestLoaderLoadCellSkipsUnresolvableBoxLinkage(t *testing.T) {
	store := newFakeStore()
	reg := index.NewRegistry()
	loader := &Loader{Registry: reg, Store: store, Timers: &fakeTimerSink{}}
	store.rulesByCell["cell1"] = []ports.RuleRecord{
		{Name: "Good", Action: "exec"},
		{Name: "Linked", Action: "exec", BoxName: "missing-box"},
	}

	loader.loadCell(context.Background(), "cell1")

	if _, ok := reg.FindByName("cell1", "Good"); !ok {
		t.Fatalf("expected the unlinked rule to still register")
	}
	if _, ok := reg.FindByName("cell1", "Linked"); ok {
		t.Fatalf("did not expect a rule whose box could not be found to register")
	}
}

func TestLoaderLoadCellResolvesBoxLinkage(t *testing.T) {
	store := newFakeStore()
	store.boxes["cell1|inbox"] = entities.Box{ID: "box-1", Name: "inbox", Schema: "urn:schema:1"}
	store.rulesByCell["cell1"] = []ports.RuleRecord{{Name: "R1", Action: "exec", BoxName: "inbox"}}
	reg := index.NewRegistry()
	loader := &Loader{Registry: reg, Store: store, Timers: &fakeTimerSink{}}

	loader.loadCell(context.Background(), "cell1")

	rule, ok := reg.FindByName("cell1", "R1")
	if !ok || rule.BoxID != "box-1" {
		t.Fatalf("rule = %+v, ok=%v, want BoxID=box-1", rule, ok)
	}
}

func TestLoaderLoadStopsOnListCellsError(t *testing.T) {
	store := newFakeStore()
	store.listErr = errNotFound
	reg := index.NewRegistry()
	timers := &fakeTimerSink{}
	loader := &Loader{Registry: reg, Store: store, Timers: timers}

	loader.Load(context.Background())

	if timers.registered != 0 {
		t.Fatalf("expected no timers registered when ListCells fails")
	}
}
