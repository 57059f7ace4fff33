package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/fthyco/simorg/kernel/engine"
	"github.com/fthyco/simorg/persistence"
)

func payload(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func newTestSession(t *testing.T) (*Session, persistence.Store) {
	t.Helper()
	store := persistence.NewMemoryStore()
	s, err := New(context.Background(), Config{ProjectID: "p1", Store: store})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s, store
}

func initEvent() engine.Event {
	return engine.Event{
		SchemaVersion: engine.CurrentSchemaVersion,
		Sequence:      0,
		EventType:     engine.EventInitializeConstants,
		EventUUID:     "u0",
		Payload: json.RawMessage(`{
			"capital": 10000, "talent": 10000, "time": 10000, "political_cost": 10000,
			"differentiation_threshold": 3, "compression_limit": 2
		}`),
	}
}

func TestAppendPersistsAndAdvances(t *testing.T) {
	s, store := newTestSession(t)
	ctx := context.Background()

	_, kerr := s.Append(ctx, initEvent())
	if kerr != nil {
		t.Fatalf("unexpected error: %v", kerr)
	}

	events, err := store.LoadEvents(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 persisted event, got %d", len(events))
	}

	proj := s.GetProjection(ctx)
	if proj.EventCount != 1 {
		t.Fatalf("expected event count 1, got %d", proj.EventCount)
	}
}

func TestAppendRejectedEventDoesNotPersist(t *testing.T) {
	s, store := newTestSession(t)
	ctx := context.Background()

	ev := engine.Event{SchemaVersion: engine.CurrentSchemaVersion, Sequence: 0, EventType: engine.EventAddRole, EventUUID: "bad", Payload: payload(t, map[string]string{"id": "a"})}
	_, kerr := s.Append(ctx, ev)
	if kerr == nil {
		t.Fatal("expected rejection on add_role before initialize_constants")
	}

	events, err := store.LoadEvents(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no persisted events after rejection, got %d", len(events))
	}
}

func TestVerifyDeterminismSucceedsAfterValidAppends(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	if _, kerr := s.Append(ctx, initEvent()); kerr != nil {
		t.Fatalf("initialize: %v", kerr)
	}
	addEvent := engine.Event{
		SchemaVersion: engine.CurrentSchemaVersion,
		Sequence:      1,
		EventType:     engine.EventAddRole,
		EventUUID:     "u1",
		Payload:       payload(t, map[string]string{"id": "ops", "name": "Ops", "purpose": "run"}),
	}
	if _, kerr := s.Append(ctx, addEvent); kerr != nil {
		t.Fatalf("add role: %v", kerr)
	}

	if kerr := s.VerifyDeterminism(ctx); kerr != nil {
		t.Fatalf("expected determinism check to pass, got %v", kerr)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	if _, kerr := s.Append(ctx, initEvent()); kerr != nil {
		t.Fatalf("initialize: %v", kerr)
	}
	exported, err := s.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(exported.Events) != 1 {
		t.Fatalf("expected 1 exported event, got %d", len(exported.Events))
	}

	fresh, err := New(ctx, Config{ProjectID: "p2", Store: persistence.NewMemoryStore()})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if kerr := fresh.Import(ctx, exported); kerr != nil {
		t.Fatalf("import: %v", kerr)
	}
	proj := fresh.GetProjection(ctx)
	if proj.EventCount != 1 {
		t.Fatalf("expected imported event count 1, got %d", proj.EventCount)
	}
}

func TestAppendSequenceGapRejected(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	if _, kerr := s.Append(ctx, initEvent()); kerr != nil {
		t.Fatalf("initialize: %v", kerr)
	}
	skipped := engine.Event{
		SchemaVersion: engine.CurrentSchemaVersion,
		Sequence:      5,
		EventType:     engine.EventAddRole,
		Payload:       payload(t, map[string]string{"id": "a", "name": "A", "purpose": "p"}),
	}
	_, kerr := s.Append(ctx, skipped)
	if kerr == nil {
		t.Fatal("expected sequence gap rejection")
	}
}
