// Package metrics adapts internal/platform/metrics.Registry to
// ports.Metrics, keeping the rule-engine context decoupled from the
// concrete prometheus wiring the composition root owns.
package metrics

import (
	platformmetrics "ruleengine/internal/platform/metrics"
)

type Adapter struct {
	reg *platformmetrics.Registry
}

func NewAdapter(reg *platformmetrics.Registry) *Adapter {
	return &Adapter{reg: reg}
}

func (a *Adapter) RuleRegistered(cellID string)   { a.reg.RulesRegistered.Inc() }
func (a *Adapter) RuleUnregistered(cellID string) { a.reg.RulesUnregistered.Inc() }

func (a *Adapter) ActionDispatched(action string) {
	a.reg.ActionsDispatched.WithLabelValues(action).Inc()
}

func (a *Adapter) ControlEventProcessed(eventType string, ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	a.reg.ControlEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

func (a *Adapter) SetRuleIndexSize(cellID string, size int) {
	a.reg.RuleIndexSize.WithLabelValues(cellID).Set(float64(size))
}

func (a *Adapter) SetBoxIndexSize(cellID string, size int) {
	a.reg.BoxIndexSize.WithLabelValues(cellID).Set(float64(size))
}
