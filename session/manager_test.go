package session

import (
	"context"
	"testing"

	"github.com/fthyco/simorg/persistence"
)

func TestManagerGetCreatesAndReusesSession(t *testing.T) {
	store := persistence.NewMemoryStore()
	mgr := NewManager(ManagerConfig{Store: store})

	ctx := context.Background()
	s1, err := mgr.Get(ctx, "proj-a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	s2, err := mgr.Get(ctx, "proj-a")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if s1 != s2 {
		t.Fatal("expected the same session instance for the same project id")
	}

	s3, err := mgr.Get(ctx, "proj-b")
	if err != nil {
		t.Fatalf("get other project: %v", err)
	}
	if s3 == s1 {
		t.Fatal("expected distinct sessions for distinct project ids")
	}

	ids := mgr.ProjectIDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 tracked projects, got %d", len(ids))
	}
}
