package entities

// Box is a tenant sub-container referenced by rules through boxname. It
// exists in the Box Index iff at least one rule references it; RefCount
// tracks that referencing-rule count, not references in flight.
//
// The Box Index owns the only live pointer to each Box; a Rule holds just
// its ID (entities.Rule.BoxID), a handle resolved back through the index
// under its lock. That's what makes an in-place rename (box.update/
// box.merge) visible to every rule referencing it, without re-
// registration, and without letting a rule read Name/Schema unlocked.
type Box struct {
	ID       string
	Name     string
	Schema   string
	RefCount int
}

// Rename overwrites Name/Schema in place. Callers must hold the boxes
// lock.
func (b *Box) Rename(name, schema string) {
	b.Name = name
	b.Schema = schema
}
