// Package dispatcher implements judge(event), the inbound event entry
// point that matches an event against a tenant's rules and submits the
// resulting actions.
package dispatcher

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"ruleengine/contexts/rule-engine/application/index"
	"ruleengine/contexts/rule-engine/application/matcher"
	"ruleengine/contexts/rule-engine/domain/entities"
	"ruleengine/contexts/rule-engine/domain/uri"
	"ruleengine/contexts/rule-engine/ports"
)

// Dispatcher owns the pieces judge(event) needs beyond the registry
// itself: the maximum rule-chain hop, the broker republish gate, the
// external cell lock manager, and the MISC worker pool.
type Dispatcher struct {
	Registry *index.Registry
	Store    ports.Store
	Locks    ports.CellLockManager
	Pool     ports.WorkerPool
	Broker   ports.Broker
	IDs      ports.IDGenerator
	Clock    ports.Clock
	Metrics  ports.Metrics
	UnitURL  string
	MaxHop   int
	Logger   *slog.Logger
}

// controlTopics is the closed set of control-plane event types judge may
// republish; it must match the dispatch table the control
// subscriber handles.
var controlTopics = map[string]bool{
	"rule.create":             true,
	"rule.update":             true,
	"rule.merge":              true,
	"rule.delete":             true,
	"rule.navprop.box.create": true,
	"rule->box.linkCreate":    true,
	"rule->box.linkDelete":    true,
	"box->rule.linkCreate":    true,
	"box->rule.linkDelete":    true,
	"box.navprop.rule.create": true,
	"box.update":              true,
	"box.merge":               true,
	"cell.import":             true,
}

// Judge is judge(event): matches event against cellID's rules and submits
// zero or more actions. It returns synchronously once submission is
// complete, not once the actions themselves finish.
func (d *Dispatcher) Judge(ctx context.Context, event *entities.Event) {
	logger := resolveLogger(d.Logger)
	if event == nil || event.CellID == "" {
		return
	}

	if d.Store != nil {
		exists, err := d.Store.CellExists(ctx, event.CellID)
		if err != nil {
			logger.Error("judge cell lookup failed",
				"event", "dispatch_cell_lookup_failed",
				"module", "rule-engine",
				"layer", "dispatcher",
				"cell_id", event.CellID,
				"error", err.Error(),
			)
			return
		}
		if !exists {
			logger.Debug("judge skipped: cell unknown",
				"event", "dispatch_skipped_unknown_cell",
				"module", "rule-engine",
				"layer", "dispatcher",
				"cell_id", event.CellID,
			)
			return
		}
	}

	status, err := d.Locks.Status(ctx, event.CellID)
	if err != nil {
		logger.Error("judge cell lock status failed",
			"event", "dispatch_lock_status_failed",
			"module", "rule-engine",
			"layer", "dispatcher",
			"cell_id", event.CellID,
			"error", err.Error(),
		)
		return
	}
	if status == ports.CellStatusBulkDeletion {
		logger.Debug("judge skipped: cell bulk deletion",
			"event", "dispatch_skipped_bulk_deletion",
			"module", "rule-engine",
			"layer", "dispatcher",
			"cell_id", event.CellID,
		)
		return
	}

	if err := d.Locks.IncRef(ctx, event.CellID); err != nil {
		logger.Error("judge cell lock incref failed",
			"event", "dispatch_lock_incref_failed",
			"module", "rule-engine",
			"layer", "dispatcher",
			"cell_id", event.CellID,
			"error", err.Error(),
		)
		return
	}
	defer func() {
		if err := d.Locks.DecRef(ctx, event.CellID); err != nil {
			logger.Error("judge cell lock decref failed",
				"event", "dispatch_lock_decref_failed",
				"module", "rule-engine",
				"layer", "dispatcher",
				"cell_id", event.CellID,
				"error", err.Error(),
			)
		}
	}()

	if event.EventID == "" {
		id, err := d.IDs.NewID(ctx)
		if err != nil {
			logger.Error("judge event id generation failed",
				"event", "dispatch_event_id_failed",
				"module", "rule-engine",
				"layer", "dispatcher",
				"cell_id", event.CellID,
				"error", err.Error(),
			)
			return
		}
		event.EventID = id
	}

	cellURL := d.cellURL(event.CellID)
	skipMatching := d.advanceHop(event)

	var actions []entities.Action
	if !skipMatching {
		actions = d.matchRules(event, cellURL, logger)
	}

	event.Object = uri.LocalCellToHTTP(cellURL, event.Object)
	if event.Type == "timer.periodic" || event.Type == "timer.oneshot" {
		if !strings.HasPrefix(event.Subject, cellURL) {
			event.Subject = ""
		}
	}

	for _, action := range actions {
		action := action
		if err := d.Pool.Submit(func() { d.runAction(action, logger) }); err != nil {
			logger.Error("judge action submit failed",
				"event", "dispatch_action_submit_failed",
				"module", "rule-engine",
				"layer", "dispatcher",
				"cell_id", event.CellID,
				"action", action.Action,
				"error", err.Error(),
			)
		}
	}

	if !event.External && controlTopics[event.Type] && d.Broker != nil {
		if err := d.publish(ctx, *event); err != nil {
			logger.Error("judge republish failed",
				"event", "dispatch_republish_failed",
				"module", "rule-engine",
				"layer", "dispatcher",
				"cell_id", event.CellID,
				"event_type", event.Type,
				"error", err.Error(),
			)
		}
	}
}

// advanceHop advances the rule chain's hop count: absent ruleChain is "0";
// on success it mutates event.RuleChain to the incremented value and
// returns whether matching must be skipped (hop ceiling reached or
// unparseable).
func (d *Dispatcher) advanceHop(event *entities.Event) bool {
	raw := event.RuleChain
	if raw == "" {
		raw = "0"
	}
	hop, err := strconv.Atoi(raw)
	if err != nil {
		return true
	}
	next := hop + 1
	if next > d.MaxHop {
		return true
	}
	event.RuleChain = strconv.Itoa(next)
	return false
}

// matchRules holds the rules-lock (via Registry.Rules.Snapshot, which
// itself locks only for the copy) and, per matching rule, nests the
// boxes-lock briefly through Registry.Boxes.Get to resolve the service
// URL.
func (d *Dispatcher) matchRules(event *entities.Event, cellURL string, logger *slog.Logger) []entities.Action {
	rules := d.Registry.Rules.Snapshot(event.CellID)
	actions := make([]entities.Action, 0, len(rules))
	for _, rule := range rules {
		box, boxFound := entities.Box{}, false
		if rule.BoxID != "" {
			box, boxFound = d.Registry.Boxes.Get(event.CellID, rule.BoxID)
		}
		if !matcher.Match(rule, *event, box, boxFound) {
			continue
		}
		service := rule.Service
		switch {
		case uri.HasLocalCellScheme(service):
			service = uri.LocalCellToHTTP(cellURL, service)
		case uri.HasLocalBoxScheme(service):
			if !boxFound {
				logger.Warn("judge rule service unresolved box",
					"event", "dispatch_rule_box_unresolved",
					"module", "rule-engine",
					"layer", "dispatcher",
					"cell_id", event.CellID,
					"rule", rule.Name,
				)
				continue
			}
			service = uri.LocalBoxToHTTP(cellURL, box.Name, service)
		}
		actions = append(actions, entities.Action{
			Action:    rule.Action,
			Service:   service,
			EventID:   event.EventID,
			RuleChain: event.RuleChain,
		})
	}
	return actions
}

func (d *Dispatcher) runAction(action entities.Action, logger *slog.Logger) {
	if entities.IsTimerAction(action.Action) {
		return
	}
	if d.Metrics != nil {
		d.Metrics.ActionDispatched(action.Action)
	}
	logger.Info("action dispatched",
		"event", "dispatch_action_run",
		"module", "rule-engine",
		"layer", "dispatcher",
		"action", action.Action,
		"service", action.Service,
		"event_id", action.EventID,
		"rule_chain", action.RuleChain,
	)
}

func (d *Dispatcher) publish(ctx context.Context, event entities.Event) error {
	return d.Broker.Send(ctx, d.encodeEvent(event))
}

func (d *Dispatcher) now() time.Time {
	if d.Clock != nil {
		return d.Clock.Now()
	}
	return time.Now().UTC()
}

func (d *Dispatcher) encodeEvent(event entities.Event) ports.EventEnvelope {
	data, _ := json.Marshal(event)
	return ports.EventEnvelope{
		EventID:          event.EventID,
		EventType:        event.Type,
		OccurredAt:       d.now(),
		SourceService:    "rule-engine",
		PartitionKeyPath: "cell_id",
		PartitionKey:     event.CellID,
		SchemaVersion:    1,
		Data:             data,
	}
}

// cellURL derives the cell's own absolute URL from its id, the convention
// every localcell:/localbox: rewrite resolves against.
func (d *Dispatcher) cellURL(cellID string) string {
	base := strings.TrimSuffix(d.UnitURL, "/")
	return base + "/" + cellID + "/"
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
