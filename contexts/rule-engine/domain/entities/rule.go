package entities

// External is a tri-state boolean: a rule whose External is nil never
// matches (the documented way to disable a rule without deleting it).
type External = *bool

// Rule is a declarative (predicate, action) pair owned by a cell,
// optionally linked to a Box.
type Rule struct {
	Name     string
	External External
	Subject  string
	Type     string
	Object   string
	Info     string
	Action   string
	Service  string
	BoxName  string

	// BoxID is a borrowed handle into the Box Index, or "" when the rule
	// is not linked to any box. The Rule Index never owns the Box this
	// names; every access to its Name/Schema/RefCount must go through the
	// Box Index under its lock. BoxID is modeled as the handle, not a
	// live pointer, so nothing can read Box fields without the lock.
	BoxID string
}

// Key is the rule's primary key within a tenant: name + "." + boxID (empty
// string when unlinked). Keys are unique within a tenant.
func (r Rule) Key() string {
	return r.Name + "." + r.BoxID
}

// BoolPtr is a small helper so callers can build an External value inline
// (Rule{External: entities.BoolPtr(true)}) without a local variable.
func BoolPtr(v bool) *bool {
	return &v
}
