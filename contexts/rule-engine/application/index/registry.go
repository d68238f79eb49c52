// Package index implements the Box Index and Rule Index: the
// authoritative, concurrent, per-tenant maps the rest of the engine reads
// and mutates.
package index

import (
	"ruleengine/contexts/rule-engine/domain/entities"
	"ruleengine/contexts/rule-engine/domain/errors"
	"ruleengine/contexts/rule-engine/domain/keycodec"
	"ruleengine/contexts/rule-engine/ports"
)

// Registry composes the Rule Index and Box Index and implements the
// cross-index operations that must happen atomically under their lock:
// registration (resolve-or-create box, incref, then insert rule),
// unregistration (remove rule, decref its box), and tenant purge.
type Registry struct {
	Rules   *RuleIndex
	Boxes   *BoxIndex
	Metrics ports.Metrics
}

func NewRegistry() *Registry {
	return &Registry{Rules: NewRuleIndex(), Boxes: NewBoxIndex()}
}

// ResolvedBox is what the caller (subscriber/loader) supplies when a rule
// declares boxname and the box was found in the store; nil means
// boxname was empty/dummy, and a failed lookup must be signaled as
// ErrBoxResolution by the caller before Register is ever invoked.
type ResolvedBox struct {
	ID     string
	Name   string
	Schema string
}

// Register inserts or overwrites the rule named rec.Name within cellID. If
// rec.BoxName is set and non-dummy, resolved must be non-nil (the caller
// already resolved it via the Store) or Register returns ErrBoxResolution
// and the rule is not indexed. Overwriting an existing same-key rule
// correctly adjusts box refcounts either way, so calling Register twice
// with the same record is idempotent.
func (r *Registry) Register(cellID string, rec ports.RuleRecord, resolved *ResolvedBox) (*entities.Rule, error) {
	if rec.Action == "" {
		return nil, errors.ErrInvalidInput
	}

	var boxID string
	linked := rec.BoxName != "" && rec.BoxName != keycodec.DummyKey
	if linked {
		if resolved == nil {
			return nil, errors.ErrBoxResolution
		}
		boxID = r.Boxes.AcquireByName(cellID, resolved.ID, resolved.Name, resolved.Schema)
		r.Boxes.IncRef(cellID, boxID)
	}

	rule := &entities.Rule{
		Name:     rec.Name,
		External: rec.External,
		Subject:  rec.Subject,
		Type:     rec.Type,
		Object:   rec.Object,
		Info:     rec.Info,
		Action:   rec.Action,
		Service:  rec.Service,
		BoxName:  rec.BoxName,
		BoxID:    boxID,
	}

	if old, ok := r.Rules.Remove(cellID, rule.Key()); ok && old.BoxID != "" {
		r.Boxes.DecRef(cellID, old.BoxID)
	}
	r.Rules.Put(cellID, rule)
	r.recordSizes(cellID)
	if r.Metrics != nil {
		r.Metrics.RuleRegistered(cellID)
	}
	return rule, nil
}

// Unregister removes the rule named name linked to boxName (empty or
// DummyKey for "unlinked") within cellID, and decrefs its box if any.
// Returns (nil, false) when no such rule is registered.
func (r *Registry) Unregister(cellID, name, boxName string) (*entities.Rule, bool) {
	rule, ok := r.FindByNameAndBoxName(cellID, name, boxName)
	if !ok {
		return nil, false
	}
	removed, ok := r.Rules.Remove(cellID, rule.Key())
	if !ok {
		return nil, false
	}
	if removed.BoxID != "" {
		r.Boxes.DecRef(cellID, removed.BoxID)
	}
	r.recordSizes(cellID)
	if r.Metrics != nil {
		r.Metrics.RuleUnregistered(cellID)
	}
	return removed, true
}

func (r *Registry) recordSizes(cellID string) {
	if r.Metrics == nil {
		return
	}
	r.Metrics.SetRuleIndexSize(cellID, r.Rules.Count(cellID))
	r.Metrics.SetBoxIndexSize(cellID, r.Boxes.Count(cellID))
}

// FindByNameAndBoxName scans the tenant's rules for one with the given
// declared name/boxname pair. BoxName on a Rule is its declared linkage
// (independent of any later box rename), so this does not need to consult
// the Box Index at all.
func (r *Registry) FindByNameAndBoxName(cellID, name, boxName string) (*entities.Rule, bool) {
	target := normalizeBoxName(boxName)
	for _, rule := range r.Rules.Snapshot(cellID) {
		if rule.Name == name && normalizeBoxName(rule.BoxName) == target {
			return rule, true
		}
	}
	return nil, false
}

// FindByName scans the tenant's rules for one with the given declared
// name, regardless of box linkage; used by control handlers that know a
// rule's name but not which box it is currently linked under.
func (r *Registry) FindByName(cellID, name string) (*entities.Rule, bool) {
	for _, rule := range r.Rules.Snapshot(cellID) {
		if rule.Name == name {
			return rule, true
		}
	}
	return nil, false
}

// Purge drops both the tenant's rule map and box map, rules-lock then boxes-lock.
func (r *Registry) Purge(cellID string) {
	r.Rules.Purge(cellID)
	r.Boxes.Purge(cellID)
}

func normalizeBoxName(boxName string) string {
	if boxName == keycodec.DummyKey {
		return ""
	}
	return boxName
}
