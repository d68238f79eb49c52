// Package matcher decides whether a given event triggers a given rule.
package matcher

import (
	"strings"

	"ruleengine/contexts/rule-engine/domain/entities"
	"ruleengine/contexts/rule-engine/domain/uri"
)

// Match reports whether event triggers rule. All string comparisons are
// case-sensitive; a rule with External == nil never matches. box is the
// rule's linked Box resolved under the Box Index's lock (entities.Box{} /
// found=false when rule.BoxID is ""); Match never reaches back into the
// index itself.
func Match(rule *entities.Rule, event entities.Event, box entities.Box, boxFound bool) bool {
	if rule.External == nil || *rule.External != event.External {
		return false
	}
	if rule.Type != "" {
		if event.Type == "" || !strings.HasPrefix(event.Type, rule.Type) {
			return false
		}
	}
	if boxFound && box.Schema != "" {
		if box.Schema != event.Schema {
			return false
		}
	}
	if rule.Subject != "" && rule.Subject != event.Subject {
		return false
	}
	if rule.Object != "" {
		boxName := ""
		if boxFound {
			boxName = box.Name
		}
		rewritten := uri.LocalBoxToLocalCell(rule.Object, boxName)
		if event.Object == "" || !strings.HasPrefix(event.Object, rewritten) {
			return false
		}
	}
	if rule.Info != "" {
		if event.Info == "" || !strings.HasPrefix(event.Info, rule.Info) {
			return false
		}
	}
	return true
}
