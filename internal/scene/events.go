// Package scene turns the loosely-typed events emitted by the embedded 3D
// runtime into canonical values the rest of the bridge can act on.
//
// The runtime is a black box. Payloads arrive as JSON objects, JSON strings
// (sometimes holding another JSON document), or bare strings. Nothing in this
// package returns an error for an unusable payload; callers get ok=false and
// drop the event.
package scene

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Inbound event names as emitted by the runtime.
const (
	EventObjectSelected   = "ObjectSelected"
	EventContentRequested = "ContentRequested"
	EventValidation       = "ValidationEvent"
	EventButtonClicked    = "ButtonClicked"
)

// RawEvent is a runtime event exactly as received.
type RawEvent struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// Canonical is a normalized selection or content request.
type Canonical struct {
	ObjectName     string `json:"object_name"`
	ScenarioIDHint string `json:"scenario_id_hint,omitempty"`
}

// HasHint reports whether the runtime named the scenario directly.
func (c Canonical) HasHint() bool {
	return c.ScenarioIDHint != ""
}

// NewRawEvent builds a RawEvent whose payload is the JSON encoding of v.
// A string v is encoded as a JSON string.
func NewRawEvent(name string, v any) RawEvent {
	data, err := json.Marshal(v)
	if err != nil {
		return RawEvent{Name: name}
	}
	return RawEvent{Name: name, Payload: data}
}

// IsSelection reports whether name is one of the two events that start
// resolution.
func IsSelection(name string) bool {
	return name == EventObjectSelected || name == EventContentRequested
}

// payload interprets the raw bytes. JSON is attempted first; anything that is
// not valid JSON is treated as a bare string. A JSON string whose contents are
// a JSON object is unwrapped once.
func payload(raw []byte) gjson.Result {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return gjson.Result{}
	}
	if !gjson.Valid(s) {
		return bare(s)
	}
	r := gjson.Parse(s)
	if r.Type == gjson.String {
		inner := strings.TrimSpace(r.Str)
		if gjson.Valid(inner) {
			if nested := gjson.Parse(inner); nested.IsObject() {
				return nested
			}
		}
		return bare(inner)
	}
	return r
}

func bare(s string) gjson.Result {
	return gjson.Result{Type: gjson.String, Str: s, Raw: s}
}

// firstString returns the first non-empty string among the named fields of an
// object result, or the value itself when it is a string.
func firstString(r gjson.Result, fields ...string) string {
	switch {
	case r.Type == gjson.String:
		return strings.TrimSpace(r.Str)
	case r.IsObject():
		for _, f := range fields {
			v := r.Get(gjson.Escape(f))
			if v.Type == gjson.String {
				if s := strings.TrimSpace(v.Str); s != "" {
					return s
				}
			}
		}
	}
	return ""
}
