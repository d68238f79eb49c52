// Package metrics exposes the rule engine's operational counters:
// rules registered/unregistered, actions dispatched, and control events
// processed/failed — the observability surface the distillation
// leaves out but whose Non-goals never exclude (see SPEC_FULL.md §9).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry groups every metric the rule engine publishes, registered
// once against a prometheus.Registerer by the composition root.
type Registry struct {
	RulesRegistered    prometheus.Counter
	RulesUnregistered  prometheus.Counter
	ActionsDispatched  *prometheus.CounterVec
	ControlEventsTotal *prometheus.CounterVec
	RuleIndexSize      *prometheus.GaugeVec
	BoxIndexSize       *prometheus.GaugeVec
}

// NewRegistry builds and registers every rule-engine metric against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	m := &Registry{
		RulesRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rule_engine_rules_registered_total",
			Help: "Total number of rule registrations applied to the index.",
		}),
		RulesUnregistered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rule_engine_rules_unregistered_total",
			Help: "Total number of rule unregistrations applied to the index.",
		}),
		ActionsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rule_engine_actions_dispatched_total",
			Help: "Total number of actions submitted to the MISC worker pool, by action kind.",
		}, []string{"action"}),
		ControlEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rule_engine_control_events_total",
			Help: "Total number of control-plane events processed, by type and outcome.",
		}, []string{"event_type", "outcome"}),
		RuleIndexSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rule_engine_rule_index_size",
			Help: "Current number of rules tracked per cell.",
		}, []string{"cell_id"}),
		BoxIndexSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rule_engine_box_index_size",
			Help: "Current number of boxes tracked per cell.",
		}, []string{"cell_id"}),
	}
	reg.MustRegister(
		m.RulesRegistered,
		m.RulesUnregistered,
		m.ActionsDispatched,
		m.ControlEventsTotal,
		m.RuleIndexSize,
		m.BoxIndexSize,
	)
	return m
}
