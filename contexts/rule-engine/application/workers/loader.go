package workers

import (
	"context"
	"log/slog"

	"ruleengine/contexts/rule-engine/application/index"
	"ruleengine/contexts/rule-engine/ports"
)

// Loader populates the Registry from the Store at startup. A single
// cell's failure is logged and does not prevent the rest from loading.
type Loader struct {
	Registry *index.Registry
	Store    ports.Store
	Timers   ports.TimerSink
	Logger   *slog.Logger
}

// Load enumerates every cell the store knows about and loads each one's
// rules in turn.
func (l *Loader) Load(ctx context.Context) {
	logger := resolveLogger(l.Logger)
	cells, err := l.Store.ListCells(ctx)
	if err != nil {
		logger.Error("loader list cells failed",
			"event", "loader_list_cells_failed",
			"module", "rule-engine",
			"layer", "loader",
			"error", err.Error(),
		)
		return
	}
	logger.Info("loader starting",
		"event", "loader_starting",
		"module", "rule-engine",
		"layer", "loader",
		"cell_count", len(cells),
	)
	for _, cellID := range cells {
		l.loadCell(ctx, cellID)
	}
	logger.Info("loader finished",
		"event", "loader_finished",
		"module", "rule-engine",
		"layer", "loader",
		"cell_count", len(cells),
	)
}

func (l *Loader) loadCell(ctx context.Context, cellID string) {
	logger := resolveLogger(l.Logger)
	records, err := l.Store.ListRules(ctx, cellID)
	if err != nil {
		logger.Error("loader list rules failed",
			"event", "loader_list_rules_failed",
			"module", "rule-engine",
			"layer", "loader",
			"cell_id", cellID,
			"error", err.Error(),
		)
		return
	}
	registered := 0
	for _, rec := range records {
		resolved, err := resolveBox(ctx, l.Store, cellID, rec.BoxName)
		if err != nil {
			logger.Error("loader box resolution failed",
				"event", "loader_box_resolution_failed",
				"module", "rule-engine",
				"layer", "loader",
				"cell_id", cellID,
				"rule", rec.Name,
				"error", err.Error(),
			)
			continue
		}
		rule, err := l.Registry.Register(cellID, rec, resolved)
		if err != nil {
			logger.Error("loader register failed",
				"event", "loader_register_failed",
				"module", "rule-engine",
				"layer", "loader",
				"cell_id", cellID,
				"rule", rec.Name,
				"error", err.Error(),
			)
			continue
		}
		notifyTimer(ctx, l.Timers, cellID, rule, true, logger)
		registered++
	}
	logger.Info("loader cell loaded",
		"event", "loader_cell_loaded",
		"module", "rule-engine",
		"layer", "loader",
		"cell_id", cellID,
		"rule_count", len(records),
		"registered", registered,
	)
}
