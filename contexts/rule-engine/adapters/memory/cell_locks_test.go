package memory

import (
	"context"
	"testing"

	"ruleengine/contexts/rule-engine/ports"
)

func TestCellLockManagerDefaultStatusIsNormal(t *testing.T) {
	m := NewCellLockManager()
	status, err := m.Status(context.Background(), "cell1")
	if err != nil || status != ports.CellStatusNormal {
		t.Fatalf("Status() = %v, %v, want CellStatusNormal", status, err)
	}
}

func TestCellLockManagerSetBulkDeletionTogglesStatus(t *testing.T) {
	m := NewCellLockManager()
	m.SetBulkDeletion("cell1", true)

	status, _ := m.Status(context.Background(), "cell1")
	if status != ports.CellStatusBulkDeletion {
		t.Fatalf("Status() = %v, want CellStatusBulkDeletion", status)
	}

	m.SetBulkDeletion("cell1", false)
	status, _ = m.Status(context.Background(), "cell1")
	if status != ports.CellStatusNormal {
		t.Fatalf("Status() = %v, want CellStatusNormal after clearing", status)
	}
}

func TestCellLockManagerIncDecRef(t *testing.T) {
	m := NewCellLockManager()
	m.IncRef(context.Background(), "cell1")
	m.IncRef(context.Background(), "cell1")
	m.DecRef(context.Background(), "cell1")

	if got := m.RefCount("cell1"); got != 1 {
		t.Fatalf("RefCount() = %d, want 1", got)
	}
}
