package memory

import (
	"context"
	"sync"

	"ruleengine/contexts/rule-engine/ports"
)

// CellLockManager is a trivial in-memory stand-in for the external per-cell
// lock/refcount service; refcounts are tracked for test
// assertions but never enforced against concurrent callers here (the real
// service owns that).
type CellLockManager struct {
	mu       sync.Mutex
	refcount map[string]int
	status   map[string]ports.CellStatus
}

func NewCellLockManager() *CellLockManager {
	return &CellLockManager{
		refcount: make(map[string]int),
		status:   make(map[string]ports.CellStatus),
	}
}

func (m *CellLockManager) Status(_ context.Context, cellID string) (ports.CellStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status[cellID], nil
}

// SetBulkDeletion marks cellID as under BULK_DELETION (or clears it), for
// test setup.
func (m *CellLockManager) SetBulkDeletion(cellID string, bulk bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if bulk {
		m.status[cellID] = ports.CellStatusBulkDeletion
	} else {
		m.status[cellID] = ports.CellStatusNormal
	}
}

func (m *CellLockManager) IncRef(_ context.Context, cellID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refcount[cellID]++
	return nil
}

func (m *CellLockManager) DecRef(_ context.Context, cellID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refcount[cellID]--
	return nil
}

// RefCount returns the current refcount for cellID, for test assertions.
func (m *CellLockManager) RefCount(cellID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refcount[cellID]
}
