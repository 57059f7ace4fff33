// Package persistence defines the narrow storage interface the session
// orchestrator talks to (spec §5 "Persistence is accessed through a narrow
// interface with per-session locking") and an in-memory implementation for
// tests and single-process deployments.
package persistence

import (
	"context"
	"errors"

	"github.com/fthyco/simorg/kernel/engine"
)

// ErrNotFound is returned by LoadLatestSnapshot and GetStreamMeta when no
// row matches.
var ErrNotFound = errors.New("persistence: not found")

// ErrDuplicateEventUUID is returned by AppendEvent when (project_id,
// event_uuid) already exists, enforcing the unique secondary index from
// spec §6 Persistence layout.
var ErrDuplicateEventUUID = errors.New("persistence: duplicate event_uuid")

// StoredEvent is one row of the append-only event log.
type StoredEvent struct {
	ProjectID string
	Sequence  int64
	Event     engine.Event
	StateHash string
}

// StoredSnapshot is one row of the optional snapshot store.
type StoredSnapshot struct {
	ProjectID     string
	Sequence      int64
	CanonicalJSON []byte
	StateHash     string
}

// StreamMeta is the per-project row tracking the last sequence and hash,
// the fast path for "what's the current state_hash" without a full replay.
type StreamMeta struct {
	ProjectID   string
	LastSequence int64
	LastHash    string
}

// Store is the persistence surface the orchestrator uses. Every method
// takes a context because the only two suspension points in the system
// (spec §5) are event persistence and snapshot writes, both going through
// this interface.
type Store interface {
	AppendEvent(ctx context.Context, ev StoredEvent) error
	LoadEvents(ctx context.Context, projectID string) ([]StoredEvent, error)
	SaveSnapshot(ctx context.Context, snap StoredSnapshot) error
	LoadLatestSnapshot(ctx context.Context, projectID string) (StoredSnapshot, error)
	PruneSnapshots(ctx context.Context, projectID string, keep int) error
	GetStreamMeta(ctx context.Context, projectID string) (StreamMeta, error)
	PutStreamMeta(ctx context.Context, meta StreamMeta) error
}

// ExportedLog is the round-trip shape for Session.Export/Import (spec §4.9).
type ExportedLog struct {
	ProjectID string         `json:"project_id"`
	Events    []engine.Event `json:"events"`
}
