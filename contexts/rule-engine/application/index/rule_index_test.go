package index

import (
	"testing"

	"ruleengine/contexts/rule-engine/domain/entities"
)

func TestRuleIndexPutIsIdempotentOnSameKey(t *testing.T) {
	idx := NewRuleIndex()
	rule := &entities.Rule{Name: "R1", Action: "exec"}

	idx.Put("cell1", rule)
	idx.Put("cell1", rule)

	if got := idx.Count("cell1"); got != 1 {
		t.Fatalf("Count() = %d, want 1", got)
	}
}

func TestRuleIndexRemoveReturnsStoredRule(t *testing.T) {
	idx := NewRuleIndex()
	rule := &entities.Rule{Name: "R1", Action: "exec", BoxID: "box-1"}
	idx.Put("cell1", rule)

	removed, ok := idx.Remove("cell1", rule.Key())
	if !ok || removed.BoxID != "box-1" {
		t.Fatalf("Remove() = %+v, %v, want the stored rule", removed, ok)
	}
	if _, ok := idx.Get("cell1", rule.Key()); ok {
		t.Fatalf("expected rule to be gone after Remove")
	}
}

func TestRuleIndexRemoveMissingKeyReturnsFalse(t *testing.T) {
	idx := NewRuleIndex()
	if _, ok := idx.Remove("cell1", "missing."); ok {
		t.Fatalf("expected Remove to report false for an unknown key")
	}
}

func TestRuleIndexSnapshotIsIndependentOfFurtherMutation(t *testing.T) {
	idx := NewRuleIndex()
	idx.Put("cell1", &entities.Rule{Name: "R1", Action: "exec"})

	snapshot := idx.Snapshot("cell1")
	if len(snapshot) != 1 {
		t.Fatalf("Snapshot() len = %d, want 1", len(snapshot))
	}

	idx.Put("cell1", &entities.Rule{Name: "R2", Action: "exec"})
	if len(snapshot) != 1 {
		t.Fatalf("snapshot slice grew after a later Put: len = %d", len(snapshot))
	}
}

func TestRuleIndexPurgeDropsTenant(t *testing.T) {
	idx := NewRuleIndex()
	idx.Put("cell1", &entities.Rule{Name: "R1", Action: "exec"})
	idx.Purge("cell1")
	if got := idx.Count("cell1"); got != 0 {
		t.Fatalf("Count() after purge = %d, want 0", got)
	}
}

func TestRuleIndexDistinctBoxLinkageProducesDistinctKeys(t *testing.T) {
	idx := NewRuleIndex()
	idx.Put("cell1", &entities.Rule{Name: "R1", Action: "exec", BoxID: "box-1"})
	idx.Put("cell1", &entities.Rule{Name: "R1", Action: "exec", BoxID: "box-2"})

	if got := idx.Count("cell1"); got != 2 {
		t.Fatalf("Count() = %d, want 2 (same name, different box)", got)
	}
}
