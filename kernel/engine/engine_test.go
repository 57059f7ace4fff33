package engine

import (
	"encoding/json"
	"testing"

	"github.com/fthyco/simorg/domain/org"
	"github.com/fthyco/simorg/pkg/kernelerrors"
)

func payload(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return b
}

func initEvent(t *testing.T) Event {
	return Event{
		SchemaVersion: CurrentSchemaVersion,
		Sequence:      0,
		EventType:     EventInitializeConstants,
		EventUUID:     "evt-0",
		Payload: payload(t, map[string]int64{
			"capital":                   10000,
			"talent":                    10000,
			"time":                      10000,
			"political_cost":            10000,
			"differentiation_threshold": 3,
			"compression_limit":         2,
		}),
	}
}

func TestApplyRejectsWrongSchemaVersion(t *testing.T) {
	state := org.NewOrgState()
	ev := initEvent(t)
	ev.SchemaVersion = 99
	_, err := Apply(state, ev, 0)
	if err == nil || err.Code != kernelerrors.BadSchema {
		t.Fatalf("expected BadSchema, got %v", err)
	}
}

func TestApplyRejectsSequenceGap(t *testing.T) {
	state := org.NewOrgState()
	ev := initEvent(t)
	ev.Sequence = 5
	_, err := Apply(state, ev, 0)
	if err == nil || err.Code != kernelerrors.SequenceGap {
		t.Fatalf("expected SequenceGap, got %v", err)
	}
}

func TestApplyRejectsSequenceDuplicate(t *testing.T) {
	state := org.NewOrgState()
	ev := initEvent(t)
	ev.Sequence = 0
	_, err := Apply(state, ev, 1)
	if err == nil || err.Code != kernelerrors.SequenceDuplicate {
		t.Fatalf("expected SequenceDuplicate, got %v", err)
	}
}

func TestApplyRequiresInitializeFirst(t *testing.T) {
	state := org.NewOrgState()
	ev := Event{
		SchemaVersion: CurrentSchemaVersion,
		Sequence:      0,
		EventType:     EventAddRole,
		Payload:       payload(t, map[string]string{"id": "a", "name": "A", "purpose": "p"}),
	}
	_, err := Apply(state, ev, 0)
	if err == nil || err.Code != kernelerrors.ConstantsUnset {
		t.Fatalf("expected ConstantsUnset, got %v", err)
	}
}

func TestApplyRejectsSecondInitialize(t *testing.T) {
	state := org.NewOrgState()
	out, err := Apply(state, initEvent(t), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ev := initEvent(t)
	ev.Sequence = 1
	_, err = Apply(out.State, ev, 1)
	if err == nil || err.Code != kernelerrors.BadSchema {
		t.Fatalf("expected BadSchema on repeated initialize, got %v", err)
	}
}

func TestApplySequenceAdvancesAndHashes(t *testing.T) {
	state := org.NewOrgState()
	out, err := Apply(state, initEvent(t), 0)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if out.StateHash == "" {
		t.Fatal("expected non-empty state hash")
	}
	if out.State.EventCount != 1 {
		t.Fatalf("expected event count 1, got %d", out.State.EventCount)
	}

	addEvent := Event{
		SchemaVersion: CurrentSchemaVersion,
		Sequence:      1,
		EventType:     EventAddRole,
		Payload:       payload(t, map[string]string{"id": "a", "name": "A", "purpose": "p"}),
	}
	out2, err := Apply(out.State, addEvent, 1)
	if err != nil {
		t.Fatalf("add role: %v", err)
	}
	if out2.State.EventCount != 2 {
		t.Fatalf("expected event count 2, got %d", out2.State.EventCount)
	}
	if out2.StateHash == out.StateHash {
		t.Fatal("expected hash to change after second event")
	}
}

func TestApplyInvariantFailureLeavesStateUnchanged(t *testing.T) {
	state := org.NewOrgState()
	out, err := Apply(state, initEvent(t), 0)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	addEvent := Event{
		SchemaVersion: CurrentSchemaVersion,
		Sequence:      1,
		EventType:     EventAddDependency,
		Payload:       payload(t, map[string]string{"from_role_id": "ghost", "to_role_id": "also_ghost", "dep_type": "operational"}),
	}
	out2, err := Apply(out.State, addEvent, 1)
	if err == nil {
		t.Fatal("expected dangling dependency to be rejected")
	}
	if out2.State.EventCount != out.State.EventCount {
		t.Fatal("state must not advance on rejected event")
	}
}

func TestApplyUnknownEventType(t *testing.T) {
	state := org.NewOrgState()
	out, err := Apply(state, initEvent(t), 0)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	ev := Event{SchemaVersion: CurrentSchemaVersion, Sequence: 1, EventType: "not_a_real_event", Payload: payload(t, map[string]string{})}
	_, err = Apply(out.State, ev, 1)
	if err == nil || err.Code != kernelerrors.BadSchema {
		t.Fatalf("expected BadSchema for unknown event type, got %v", err)
	}
}
