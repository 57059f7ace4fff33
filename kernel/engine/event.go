// Package engine enforces sequence, schema version, dispatches to a
// transition, re-validates invariants, and updates the running canonical
// hash (spec §4.4). It is pure: no I/O, no clock, no persistence. The
// session orchestrator is the only caller, and owns everything the engine
// itself cannot decide from a single (state, event) pair — UUID uniqueness
// across the whole log, persistence, and snapshot cadence.
package engine

import (
	"encoding/json"
)

// CurrentSchemaVersion is the only schema_version the engine accepts.
const CurrentSchemaVersion = 1

// EventType is the tagged variant discriminator of the wire format (spec §6).
type EventType string

const (
	EventInitializeConstants  EventType = "initialize_constants"
	EventAddRole              EventType = "add_role"
	EventRemoveRole           EventType = "remove_role"
	EventAddDependency        EventType = "add_dependency"
	EventInjectShock          EventType = "inject_shock"
	EventApplyConstraintChange EventType = "apply_constraint_change"
	EventDifferentiateRole    EventType = "differentiate_role"
	EventCompressRoles        EventType = "compress_roles"
)

// Event is the wire-format envelope from spec §6. Payload stays raw until
// the engine knows event_type, implementing the "dynamic payload
// dictionaries -> tagged variant" design note.
type Event struct {
	SchemaVersion int             `json:"schema_version"`
	Sequence      int64           `json:"sequence"`
	EventType     EventType       `json:"event_type"`
	EventUUID     string          `json:"event_uuid,omitempty"`
	Timestamp     string          `json:"timestamp,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}
