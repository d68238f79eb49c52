package workers

import (
	"context"
	"encoding/json"
	"log/slog"

	"ruleengine/contexts/rule-engine/application/index"
	"ruleengine/contexts/rule-engine/domain/entities"
	"ruleengine/contexts/rule-engine/domain/keycodec"
	"ruleengine/contexts/rule-engine/ports"
)

// ControlSubscriber is a single-threaded consumer that applies
// rule/box/cell lifecycle events from the broker to the Registry. It
// never fans events out to multiple goroutines: parallelizing would let
// a rule.create and a later rule.delete for the same rule apply out of
// order.
type ControlSubscriber struct {
	Registry *index.Registry
	Store    ports.Store
	Locks    ports.CellLockManager
	Timers   ports.TimerSink
	Metrics  ports.Metrics
	Logger   *slog.Logger
}

// Run blocks consuming the broker's control-event stream until ctx is
// canceled or the broker's loop returns.
func (s *ControlSubscriber) Run(ctx context.Context, broker ports.Broker) error {
	return broker.SubscribeLoop(ctx, func(ctx context.Context, envelope ports.EventEnvelope) error {
		return s.handle(ctx, envelope)
	})
}

// handle decodes and applies one envelope. It always returns nil: the
// subscriber never lets a decode or apply failure escape its loop, it
// only logs and keeps consuming.
func (s *ControlSubscriber) handle(ctx context.Context, envelope ports.EventEnvelope) error {
	logger := resolveLogger(s.Logger)
	var event entities.Event
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		logger.Error("control event decode failed",
			"event", "control_event_decode_failed",
			"module", "rule-engine",
			"layer", "subscriber",
			"error", err.Error(),
		)
		return nil
	}
	s.HandleRuleEvent(ctx, event)
	return nil
}

// HandleRuleEvent applies one control event to the Registry and returns
// whether it succeeded (used only for logging; there is no retry).
func (s *ControlSubscriber) HandleRuleEvent(ctx context.Context, event entities.Event) bool {
	logger := resolveLogger(s.Logger)

	exists, err := s.Store.CellExists(ctx, event.CellID)
	if err != nil {
		logger.Error("control event cell lookup failed",
			"event", "control_cell_lookup_failed",
			"module", "rule-engine",
			"layer", "subscriber",
			"cell_id", event.CellID,
			"error", err.Error(),
		)
		return false
	}
	if !exists {
		s.Registry.Purge(event.CellID)
		logger.Info("control event cell gone, tenant purged",
			"event", "control_cell_purged",
			"module", "rule-engine",
			"layer", "subscriber",
			"cell_id", event.CellID,
		)
		return true
	}

	status, err := s.Locks.Status(ctx, event.CellID)
	if err != nil {
		logger.Error("control event lock status failed",
			"event", "control_lock_status_failed",
			"module", "rule-engine",
			"layer", "subscriber",
			"cell_id", event.CellID,
			"error", err.Error(),
		)
		return false
	}
	if status == ports.CellStatusBulkDeletion {
		logger.Debug("control event skipped: cell bulk deletion",
			"event", "control_skipped_bulk_deletion",
			"module", "rule-engine",
			"layer", "subscriber",
			"cell_id", event.CellID,
		)
		return true
	}

	ok := s.dispatch(ctx, event, logger)
	if s.Metrics != nil {
		s.Metrics.ControlEventProcessed(event.Type, ok)
	}
	logger.Info("control event processed",
		"event", "control_event_processed",
		"module", "rule-engine",
		"layer", "subscriber",
		"cell_id", event.CellID,
		"event_type", event.Type,
		"ok", ok,
	)
	return ok
}

func (s *ControlSubscriber) dispatch(ctx context.Context, event entities.Event, logger *slog.Logger) bool {
	switch event.Type {
	case "rule.create":
		return s.handleRuleCreate(ctx, event, logger)
	case "rule.update", "rule.merge":
		return s.handleRuleUpdate(ctx, event, logger)
	case "rule.delete":
		return s.handleRuleDelete(ctx, event, logger)
	case "rule->box.linkCreate", "rule.navprop.box.create":
		return s.handleRuleBoxLinkCreate(ctx, event, logger)
	case "rule->box.linkDelete":
		return s.handleRuleBoxLinkDelete(ctx, event, logger)
	case "box->rule.linkCreate":
		return s.handleBoxRuleLinkCreate(ctx, event, logger)
	case "box->rule.linkDelete":
		return s.handleBoxRuleLinkDelete(ctx, event, logger)
	case "box.navprop.rule.create":
		return s.handleBoxRuleNavpropCreate(ctx, event, logger)
	case "box.update", "box.merge":
		return s.handleBoxUpdate(ctx, event, logger)
	case "cell.import":
		return s.handleCellImport(ctx, event, logger)
	default:
		logger.Warn("control event unrecognized type",
			"event", "control_event_unknown_type",
			"module", "rule-engine",
			"layer", "subscriber",
			"cell_id", event.CellID,
			"event_type", event.Type,
		)
		return false
	}
}

func (s *ControlSubscriber) handleRuleCreate(ctx context.Context, event entities.Event, logger *slog.Logger) bool {
	key, ok := keycodec.FirstKey(event.Object)
	if !ok {
		return s.malformed(logger, event, "rule.create", "object")
	}
	return s.readAndRegister(ctx, event.CellID, key, logger, "rule.create")
}

func (s *ControlSubscriber) handleRuleUpdate(ctx context.Context, event entities.Event, logger *slog.Logger) bool {
	oldKey, ok := keycodec.FirstKey(event.Object)
	if !ok {
		return s.malformed(logger, event, event.Type, "object")
	}
	newKey, ok := keycodec.FirstKey(event.Info)
	if !ok {
		return s.malformed(logger, event, event.Type, "info")
	}
	s.unregisterByKey(event.CellID, oldKey, logger)
	// Register proceeds even when the unregister step above found
	// nothing, so a first-seen update is never silently dropped.
	return s.readAndRegister(ctx, event.CellID, newKey, logger, event.Type)
}

func (s *ControlSubscriber) handleRuleDelete(ctx context.Context, event entities.Event, logger *slog.Logger) bool {
	key, ok := keycodec.FirstKey(event.Object)
	if !ok {
		return s.malformed(logger, event, "rule.delete", "object")
	}
	s.unregisterByKey(event.CellID, key, logger)
	return true
}

func (s *ControlSubscriber) handleRuleBoxLinkCreate(ctx context.Context, event entities.Event, logger *slog.Logger) bool {
	ruleKey, ok := keycodec.FirstKey(event.Object)
	if !ok {
		return s.malformed(logger, event, event.Type, "object(rule)")
	}
	boxKey, ok := keycodec.SecondKey(event.Object)
	if !ok {
		return s.malformed(logger, event, event.Type, "object(box)")
	}
	return s.relinkRuleBox(ctx, event.CellID, ruleKey, boxKey, logger, event.Type)
}

func (s *ControlSubscriber) handleRuleBoxLinkDelete(ctx context.Context, event entities.Event, logger *slog.Logger) bool {
	ruleKey, ok := keycodec.FirstKey(event.Object)
	if !ok {
		return s.malformed(logger, event, event.Type, "object")
	}
	return s.unlinkRuleBox(ctx, event.CellID, ruleKey, logger, event.Type)
}

func (s *ControlSubscriber) handleBoxRuleLinkCreate(ctx context.Context, event entities.Event, logger *slog.Logger) bool {
	boxKey, ok := keycodec.FirstKey(event.Object)
	if !ok {
		return s.malformed(logger, event, event.Type, "object(box)")
	}
	ruleKey, ok := keycodec.SecondKey(event.Object)
	if !ok {
		return s.malformed(logger, event, event.Type, "object(rule)")
	}
	return s.relinkRuleBox(ctx, event.CellID, ruleKey, boxKey, logger, event.Type)
}

func (s *ControlSubscriber) handleBoxRuleLinkDelete(ctx context.Context, event entities.Event, logger *slog.Logger) bool {
	boxKey, ok := keycodec.FirstKey(event.Object)
	if !ok {
		return s.malformed(logger, event, event.Type, "object(box)")
	}
	ruleKey, ok := keycodec.SecondKey(event.Object)
	if !ok {
		return s.malformed(logger, event, event.Type, "object(rule)")
	}
	return s.unlinkRuleBox(ctx, event.CellID, ruleKey, logger, event.Type)
}

func (s *ControlSubscriber) handleBoxRuleNavpropCreate(ctx context.Context, event entities.Event, logger *slog.Logger) bool {
	boxKey, ok := keycodec.FirstKey(event.Object)
	if !ok {
		return s.malformed(logger, event, event.Type, "object(box)")
	}
	ruleKey, ok := keycodec.SecondKey(event.Object)
	if !ok {
		return s.malformed(logger, event, event.Type, "object(rule)")
	}
	return s.readAndRegisterCompound(ctx, event.CellID, boxKey, ruleKey, logger, event.Type)
}

// handleBoxUpdate renames the box named by event.Object's current key to
// whatever the store's row for event.Info's new key holds now. The
// Registry is never the source of truth for the new name/schema: it only
// tells us which BoxInfo (by id) to overwrite in place.
func (s *ControlSubscriber) handleBoxUpdate(ctx context.Context, event entities.Event, logger *slog.Logger) bool {
	oldName, ok := keycodec.Complex(event.Object, "Name")
	if !ok {
		return s.malformed(logger, event, event.Type, "object")
	}
	newName, ok := keycodec.Complex(event.Info, "Name")
	if !ok {
		return s.malformed(logger, event, event.Type, "info")
	}

	box, found := s.Registry.Boxes.FindByName(event.CellID, oldName)
	if !found {
		logger.Warn("control event box update, box not found",
			"event", "control_box_update_not_found",
			"module", "rule-engine",
			"layer", "subscriber",
			"cell_id", event.CellID,
			"box_name", oldName,
		)
		return false
	}

	fresh, found, err := s.Store.FindBoxByName(ctx, event.CellID, newName)
	if err != nil {
		logger.Error("control event box update store read failed",
			"event", "control_box_update_store_read_failed",
			"module", "rule-engine",
			"layer", "subscriber",
			"cell_id", event.CellID,
			"box_name", newName,
			"error", err.Error(),
		)
		return false
	}
	if !found {
		logger.Warn("control event box update, fresh box row not found",
			"event", "control_box_update_store_missing",
			"module", "rule-engine",
			"layer", "subscriber",
			"cell_id", event.CellID,
			"box_name", newName,
		)
		return false
	}

	s.Registry.Boxes.Rename(event.CellID, box.ID, fresh.Name, fresh.Schema)
	return true
}

func (s *ControlSubscriber) handleCellImport(ctx context.Context, event entities.Event, logger *slog.Logger) bool {
	s.Registry.Purge(event.CellID)
	loader := &Loader{Registry: s.Registry, Store: s.Store, Timers: s.Timers, Logger: s.Logger}
	loader.loadCell(ctx, event.CellID)
	return true
}

// relinkRuleBox unregisters ruleKey by whatever box it is currently
// linked under, then registers it at the compound (boxName, ruleName)
// key, reading its record fresh from the store.
func (s *ControlSubscriber) relinkRuleBox(ctx context.Context, cellID, ruleKey, boxKey string, logger *slog.Logger, eventType string) bool {
	ruleName, ok := keycodec.Single(ruleKey)
	if !ok {
		return s.malformed(logger, entities.Event{CellID: cellID, Type: eventType}, eventType, "rule key")
	}
	boxName, ok := keycodec.Single(boxKey)
	if !ok {
		return s.malformed(logger, entities.Event{CellID: cellID, Type: eventType}, eventType, "box key")
	}
	s.unregisterByName(cellID, ruleName, logger)
	compound := keycodec.BuildComplex([2]string{"Name", ruleName}, [2]string{"_Box.Name", boxName})
	return s.readAndRegister(ctx, cellID, compound, logger, eventType)
}

func (s *ControlSubscriber) unlinkRuleBox(ctx context.Context, cellID, ruleKey string, logger *slog.Logger, eventType string) bool {
	ruleName, ok := keycodec.Single(ruleKey)
	if !ok {
		return s.malformed(logger, entities.Event{CellID: cellID, Type: eventType}, eventType, "rule key")
	}
	s.unregisterByName(cellID, ruleName, logger)
	compound := keycodec.BuildComplex([2]string{"Name", ruleName}, [2]string{"_Box.Name", keycodec.DummyKey})
	return s.readAndRegister(ctx, cellID, compound, logger, eventType)
}

func (s *ControlSubscriber) readAndRegisterCompound(ctx context.Context, cellID, boxKey, ruleKey string, logger *slog.Logger, eventType string) bool {
	boxName, ok := keycodec.Single(boxKey)
	if !ok {
		return s.malformed(logger, entities.Event{CellID: cellID, Type: eventType}, eventType, "box key")
	}
	ruleName, ok := keycodec.Single(ruleKey)
	if !ok {
		return s.malformed(logger, entities.Event{CellID: cellID, Type: eventType}, eventType, "rule key")
	}
	compound := keycodec.BuildComplex([2]string{"Name", ruleName}, [2]string{"_Box.Name", boxName})
	return s.readAndRegister(ctx, cellID, compound, logger, eventType)
}

func (s *ControlSubscriber) readAndRegister(ctx context.Context, cellID, compoundKey string, logger *slog.Logger, eventType string) bool {
	rec, err := s.Store.ReadRule(ctx, cellID, compoundKey)
	if err != nil {
		logger.Error("control event store read failed",
			"event", "control_store_read_failed",
			"module", "rule-engine",
			"layer", "subscriber",
			"cell_id", cellID,
			"event_type", eventType,
			"error", err.Error(),
		)
		return false
	}
	resolved, err := resolveBox(ctx, s.Store, cellID, rec.BoxName)
	if err != nil {
		logger.Error("control event box resolution failed",
			"event", "control_box_resolution_failed",
			"module", "rule-engine",
			"layer", "subscriber",
			"cell_id", cellID,
			"box_name", rec.BoxName,
			"error", err.Error(),
		)
		return false
	}
	rule, err := s.Registry.Register(cellID, rec, resolved)
	if err != nil {
		logger.Error("control event register failed",
			"event", "control_register_failed",
			"module", "rule-engine",
			"layer", "subscriber",
			"cell_id", cellID,
			"rule", rec.Name,
			"error", err.Error(),
		)
		return false
	}
	notifyTimer(ctx, s.Timers, cellID, rule, true, logger)
	return true
}

func (s *ControlSubscriber) unregisterByKey(cellID, compoundKey string, logger *slog.Logger) {
	ruleName, ok := keycodec.ComplexValue(compoundKey, "Name")
	if !ok {
		logger.Warn("control event unregister malformed key",
			"event", "control_unregister_malformed_key",
			"module", "rule-engine",
			"layer", "subscriber",
			"cell_id", cellID,
		)
		return
	}
	boxName, _ := keycodec.ComplexValue(compoundKey, "_Box.Name")
	rule, ok := s.Registry.FindByNameAndBoxName(cellID, ruleName, boxName)
	if !ok {
		return
	}
	s.removeRule(cellID, rule, logger)
}

// unregisterByName removes ruleName wherever it is currently linked
// (its box, if any, is whatever the existing rule entry says), for
// control handlers that know a rule's name but not its current box
// linkage.
func (s *ControlSubscriber) unregisterByName(cellID, ruleName string, logger *slog.Logger) {
	rule, ok := s.Registry.FindByName(cellID, ruleName)
	if !ok {
		return
	}
	s.removeRule(cellID, rule, logger)
}

func (s *ControlSubscriber) removeRule(cellID string, rule *entities.Rule, logger *slog.Logger) {
	removed, ok := s.Registry.Unregister(cellID, rule.Name, rule.BoxName)
	if ok {
		notifyTimer(context.Background(), s.Timers, cellID, removed, false, logger)
	}
}

func (s *ControlSubscriber) malformed(logger *slog.Logger, event entities.Event, eventType, field string) bool {
	logger.Warn("control event malformed key",
		"event", "control_malformed_key",
		"module", "rule-engine",
		"layer", "subscriber",
		"cell_id", event.CellID,
		"event_type", eventType,
		"field", field,
	)
	return false
}

func resolveBox(ctx context.Context, store ports.Store, cellID, boxName string) (*index.ResolvedBox, error) {
	if boxName == "" || boxName == keycodec.DummyKey {
		return nil, nil
	}
	box, found, err := store.FindBoxByName(ctx, cellID, boxName)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &index.ResolvedBox{ID: box.ID, Name: box.Name, Schema: box.Schema}, nil
}

func notifyTimer(ctx context.Context, timers ports.TimerSink, cellID string, rule *entities.Rule, register bool, logger *slog.Logger) {
	if timers == nil || rule == nil {
		return
	}
	info := ports.TimerInfo{
		Name:    rule.Name,
		Subject: rule.Subject,
		Type:    rule.Type,
		Object:  rule.Object,
		Info:    rule.Info,
		CellID:  cellID,
		BoxID:   rule.BoxID,
	}
	var err error
	if register {
		err = timers.Register(ctx, info)
	} else {
		err = timers.Unregister(ctx, info)
	}
	if err != nil {
		logger.Error("timer sink notify failed",
			"event", "control_timer_notify_failed",
			"module", "rule-engine",
			"layer", "subscriber",
			"cell_id", cellID,
			"rule", rule.Name,
			"register", register,
			"error", err.Error(),
		)
	}
}
