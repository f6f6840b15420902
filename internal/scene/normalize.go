package scene

import (
	"github.com/tidwall/gjson"
)

// Field names the runtime has been observed to use, in preference order.
var (
	objectFields   = []string{"name", "objectName", "object"}
	scenarioFields = []string{"scenarioId", "scenario_id", "id"}
	triggerFields  = []string{"name", "buttonName", "eventName"}
	buttonFields   = []string{"name", "buttonName"}
)

// Normalize turns a selection or content-request event into a Canonical
// value. ok is false when the event carries nothing usable or is not one of
// the two selection events.
func Normalize(raw RawEvent) (Canonical, bool) {
	p := payload(raw.Payload)
	switch raw.Name {
	case EventObjectSelected:
		name := firstString(p, objectFields...)
		if name == "" {
			return Canonical{}, false
		}
		c := Canonical{ObjectName: name}
		if p.IsObject() {
			c.ScenarioIDHint = firstString(p, scenarioFields[:2]...)
		}
		return c, true
	case EventContentRequested:
		id := firstString(p, scenarioFields...)
		if id == "" {
			return Canonical{}, false
		}
		c := Canonical{ScenarioIDHint: id, ObjectName: id}
		if p.IsObject() {
			if name := firstString(p, "objectName", "object"); name != "" {
				c.ObjectName = name
			}
		}
		return c, true
	}
	return Canonical{}, false
}

// NormalizeTrigger extracts the trigger name from a validation event.
func NormalizeTrigger(raw RawEvent) (string, bool) {
	if raw.Name != EventValidation {
		return "", false
	}
	name := firstString(payload(raw.Payload), triggerFields...)
	return name, name != ""
}

// ButtonClickAsValidation rebroadcasts a button click as a synthetic
// validation event so procedures gated on UI buttons inside the scene can
// advance.
func ButtonClickAsValidation(raw RawEvent) (RawEvent, bool) {
	if raw.Name != EventButtonClicked {
		return RawEvent{}, false
	}
	name := firstString(payload(raw.Payload), buttonFields...)
	if name == "" {
		return RawEvent{}, false
	}
	return NewRawEvent(EventValidation, map[string]string{"name": name}), true
}

// Describe renders a short, log-safe description of the payload.
func Describe(raw RawEvent) string {
	p := payload(raw.Payload)
	if p.Type == gjson.Null && p.Raw == "" {
		return "<empty>"
	}
	const max = 120
	s := p.Raw
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
