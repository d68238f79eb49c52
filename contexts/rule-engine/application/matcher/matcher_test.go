package matcher

import (
	"testing"

	"ruleengine/contexts/rule-engine/domain/entities"
)

func external(v bool) *bool { return &v }

func TestMatchRejectsNilExternal(t *testing.T) {
	rule := &entities.Rule{External: nil, Action: "exec"}
	event := entities.Event{External: false}
	if Match(rule, event, entities.Box{}, false) {
		t.Fatalf("expected a rule with nil External to never match")
	}
}

func TestMatchRejectsExternalMismatch(t *testing.T) {
	rule := &entities.Rule{External: external(true), Action: "exec"}
	event := entities.Event{External: false}
	if Match(rule, event, entities.Box{}, false) {
		t.Fatalf("expected External mismatch to reject the match")
	}
}

func TestMatchTypePrefixMatches(t *testing.T) {
	rule := &entities.Rule{External: external(true), Type: "wc.", Action: "exec"}
	event := entities.Event{External: true, Type: "wc.put"}
	if !Match(rule, event, entities.Box{}, false) {
		t.Fatalf("expected type prefix to match")
	}
}

func TestMatchTypePrefixRejectsNonPrefix(t *testing.T) {
	rule := &entities.Rule{External: external(true), Type: "wc.", Action: "exec"}
	event := entities.Event{External: true, Type: "odata.put"}
	if Match(rule, event, entities.Box{}, false) {
		t.Fatalf("expected non-matching type prefix to reject")
	}
}

func TestMatchEmptyRulePredicatesAlwaysPass(t *testing.T) {
	rule := &entities.Rule{External: external(true), Action: "exec"}
	event := entities.Event{External: true, Type: "wc.put", Subject: "anyone", Object: "anything", Info: "anything"}
	if !Match(rule, event, entities.Box{}, false) {
		t.Fatalf("expected a rule with no predicates set to match any event")
	}
}

func TestMatchBoxSchemaMustMatchWhenBoxFound(t *testing.T) {
	rule := &entities.Rule{External: external(true), Action: "exec"}
	box := entities.Box{Name: "inbox", Schema: "urn:schema:a"}
	event := entities.Event{External: true, Schema: "urn:schema:b"}
	if Match(rule, event, box, true) {
		t.Fatalf("expected a box schema mismatch to reject the match")
	}
}

func TestMatchSubjectExactMatch(t *testing.T) {
	rule := &entities.Rule{External: external(true), Subject: "alice", Action: "exec"}
	if Match(rule, entities.Event{External: true, Subject: "bob"}, entities.Box{}, false) {
		t.Fatalf("expected subject mismatch to reject")
	}
	if !Match(rule, entities.Event{External: true, Subject: "alice"}, entities.Box{}, false) {
		t.Fatalf("expected exact subject match to pass")
	}
}

func TestMatchObjectRewritesLocalBoxAgainstBoxName(t *testing.T) {
	rule := &entities.Rule{External: external(true), Object: "localbox:col/", Action: "exec"}
	box := entities.Box{Name: "inbox"}
	event := entities.Event{External: true, Object: "localcell:inbox/col/file.txt"}
	if !Match(rule, event, box, true) {
		t.Fatalf("expected object prefix to match after localbox->localcell rewrite")
	}
}

func TestMatchObjectRejectsWrongBoxName(t *testing.T) {
	rule := &entities.Rule{External: external(true), Object: "localbox:col/", Action: "exec"}
	box := entities.Box{Name: "outbox"}
	event := entities.Event{External: true, Object: "localcell:inbox/col/file.txt"}
	if Match(rule, event, box, true) {
		t.Fatalf("expected object rewrite against the wrong box name to reject")
	}
}

func TestMatchInfoPrefixMatches(t *testing.T) {
	rule := &entities.Rule{External: external(true), Info: "urn:x-personium:", Action: "exec"}
	event := entities.Event{External: true, Info: "urn:x-personium:rulechain"}
	if !Match(rule, event, entities.Box{}, false) {
		t.Fatalf("expected info prefix to match")
	}
}
