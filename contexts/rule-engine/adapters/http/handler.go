// Package httpadapter exposes the engine's getRules(cell) debug/inspection
// surface over HTTP: a thin handler that delegates straight to the
// application layer and logs at the adapter boundary.
package httpadapter

import (
	"context"
	"log/slog"

	httptransport "ruleengine/contexts/rule-engine/transport/http"
)

// RulesQuery is the subset of Engine the handler depends on, narrowed so
// the adapter can be tested against a fake without pulling in the whole
// engine wiring.
type RulesQuery interface {
	GetRules(ctx context.Context, cellID string) httptransport.GetRulesResponse
}

type Handler struct {
	Engine RulesQuery
	Logger *slog.Logger
}

// GetRulesHandler godoc
// @Summary Get cell rules
// @Description Returns the rule engine's current in-memory view of a cell's rules, boxes, and timers.
// @Tags rule-engine
// @Produce json
// @Param cell path string true "Cell id"
// @Success 200 {object} httptransport.GetRulesResponse
// @Router /cells/{cell}/rules [get]
func (h Handler) GetRulesHandler(ctx context.Context, cellID string) httptransport.GetRulesResponse {
	logger := resolveLogger(h.Logger)
	logger.Info("get rules request received",
		"event", "rules_get_request_received",
		"module", "rule-engine",
		"layer", "adapter",
		"cell_id", cellID,
	)
	resp := h.Engine.GetRules(ctx, cellID)
	logger.Info("get rules request completed",
		"event", "rules_get_request_completed",
		"module", "rule-engine",
		"layer", "adapter",
		"cell_id", cellID,
		"rule_count", len(resp.Rules),
		"box_count", len(resp.Boxes),
	)
	return resp
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
