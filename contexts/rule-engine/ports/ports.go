package ports

import (
	"context"
	"time"

	contractsv1 "ruleengine/contracts/gen/events/v1"

	"ruleengine/contexts/rule-engine/domain/entities"
)

// EventEnvelope is the canonical broker transport wrapper; its
// Data field carries a JSON-marshaled entities.Event or control payload.
type EventEnvelope = contractsv1.Envelope

// RuleRecord is what the Store returns for a single rule row, before it is
// turned into an entities.Rule during registration.
type RuleRecord struct {
	Name     string
	External *bool
	Subject  string
	Type     string
	Object   string
	Info     string
	Action   string
	Service  string
	BoxName  string
}

// Store is the external persistent store: an OData-style
// entity producer. Out of scope for this module's algorithms; consulted
// only through this contract.
type Store interface {
	ListCells(ctx context.Context) ([]string, error)
	ListRules(ctx context.Context, cellID string) ([]RuleRecord, error)
	ReadRule(ctx context.Context, cellID string, compoundKey string) (RuleRecord, error)
	FindBoxByName(ctx context.Context, cellID string, name string) (entities.Box, bool, error)
	CellExists(ctx context.Context, cellID string) (bool, error)
}

// Broker is the outbound/inbound event bus.
type Broker interface {
	Send(ctx context.Context, envelope EventEnvelope) error
	Close() error
	SubscribeLoop(ctx context.Context, handler func(context.Context, EventEnvelope) error) error
}

// CellStatus models the external Cell Lock Manager's per-cell state.
type CellStatus int

const (
	CellStatusNormal CellStatus = iota
	CellStatusBulkDeletion
)

// CellLockManager is the external per-tenant lock service: it
// tracks a refcount and a BULK_DELETION gate per cell.
type CellLockManager interface {
	Status(ctx context.Context, cellID string) (CellStatus, error)
	IncRef(ctx context.Context, cellID string) error
	DecRef(ctx context.Context, cellID string) error
}

// WorkerPool is the external MISC action executor.
type WorkerPool interface {
	Submit(task func()) error
}

// TimerInfo is the (name, subject, type, object, info, cellId, boxId)
// tuple notified to the Timer sink on register/unregister.
type TimerInfo struct {
	Name    string
	Subject string
	Type    string
	Object  string
	Info    string
	CellID  string
	BoxID   string
}

// TimerSink is the optional periodic/oneshot timer manager, a sibling
// component treated as a pluggable sink.
type TimerSink interface {
	Register(ctx context.Context, info TimerInfo) error
	Unregister(ctx context.Context, info TimerInfo) error
	GetTimerList(ctx context.Context, cellID string) ([]TimerInfo, error)
	Shutdown(ctx context.Context) error
}

// Metrics is the optional operational-metrics sink; a nil Metrics
// field everywhere it's accepted means "don't record."
type Metrics interface {
	RuleRegistered(cellID string)
	RuleUnregistered(cellID string)
	ActionDispatched(action string)
	ControlEventProcessed(eventType string, ok bool)
	SetRuleIndexSize(cellID string, size int)
	SetBoxIndexSize(cellID string, size int)
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for deterministic tests.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
