package index

import (
	"sync"

	"ruleengine/contexts/rule-engine/domain/entities"
)

// BoxIndex is the per-tenant map cellID -> {boxID -> *Box}. It
// owns every Box it stores. Rules never hold a live pointer into it (see
// entities.Rule.BoxID); every read returns a value copy taken under the
// lock, so a concurrent box rename can never be observed half-written.
// Guarded by its own lock, acquired after the Rule Index's lock whenever
// both are needed.
type BoxIndex struct {
	mu    sync.RWMutex
	cells map[string]map[string]*entities.Box
}

func NewBoxIndex() *BoxIndex {
	return &BoxIndex{cells: make(map[string]map[string]*entities.Box)}
}

// Get returns a value copy of the box for cellID/boxID, or (Box{}, false).
func (idx *BoxIndex) Get(cellID, boxID string) (entities.Box, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	box, ok := idx.cells[cellID][boxID]
	if !ok {
		return entities.Box{}, false
	}
	return *box, true
}

// FindByName scans the tenant's boxes for one with the given name and
// returns a value copy. Linear scan is acceptable: box counts per tenant
// are small relative to rules.
func (idx *BoxIndex) FindByName(cellID, name string) (entities.Box, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	for _, box := range idx.cells[cellID] {
		if box.Name == name {
			return *box, true
		}
	}
	return entities.Box{}, false
}

// AcquireByName returns the box id for cellID/name, creating the box with
// RefCount 0 under id/schema if it doesn't exist yet (caller must still
// call IncRef). If a box with this name already exists its id is
// returned unchanged.
func (idx *BoxIndex) AcquireByName(cellID, id, name, schema string) string {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	boxes, ok := idx.cells[cellID]
	if !ok {
		boxes = make(map[string]*entities.Box)
		idx.cells[cellID] = boxes
	}
	for _, box := range boxes {
		if box.Name == name {
			return box.ID
		}
	}
	boxes[id] = &entities.Box{ID: id, Name: name, Schema: schema}
	return id
}

// IncRef increments boxID's refcount by 1.
func (idx *BoxIndex) IncRef(cellID, boxID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if box, ok := idx.cells[cellID][boxID]; ok {
		box.RefCount++
	}
}

// DecRef decrements boxID's refcount and removes it from the index when it
// reaches zero.
func (idx *BoxIndex) DecRef(cellID, boxID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	box, ok := idx.cells[cellID][boxID]
	if !ok {
		return
	}
	box.RefCount--
	if box.RefCount <= 0 {
		delete(idx.cells[cellID], boxID)
	}
}

// Rename overwrites name/schema in place on the shared Box identified by
// cellID/boxID, so every rule holding the handle observes the change
// without re-registration.
func (idx *BoxIndex) Rename(cellID, boxID, name, schema string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	box, ok := idx.cells[cellID][boxID]
	if !ok {
		return false
	}
	box.Rename(name, schema)
	return true
}

// Purge drops the tenant's entire box map.
// Caller must already hold the rules-lock per the locking discipline.
func (idx *BoxIndex) Purge(cellID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.cells, cellID)
}

// Count returns the number of boxes tracked for cellID, for getRules/tests.
func (idx *BoxIndex) Count(cellID string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.cells[cellID])
}

// List returns a snapshot of boxes for cellID, for getRules.
func (idx *BoxIndex) List(cellID string) []entities.Box {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	items := make([]entities.Box, 0, len(idx.cells[cellID]))
	for _, box := range idx.cells[cellID] {
		items = append(items, *box)
	}
	return items
}
