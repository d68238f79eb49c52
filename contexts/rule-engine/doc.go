// Package ruleengine implements the M-RE Rule Engine inside the
// rule-engine context.
//
// The module owns the concurrent, live-updated rule index (with box
// indirection and reference counting), event matching, action dispatch to
// a bounded worker pool, and control-plane replay from rule/box/cell
// lifecycle events. It keeps business rules in application/domain layers
// and isolates infrastructure concerns behind ports and adapters.
package ruleengine
