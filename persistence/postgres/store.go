// Package postgres implements persistence.Store over PostgreSQL, following
// the teacher's raw database/sql + lib/pq query style rather than an ORM
// or query builder.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/fthyco/simorg/persistence"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// Store implements persistence.Store backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ persistence.Store = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to dsn using the lib/pq driver and verifies it with a ping.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return New(db), nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) AppendEvent(ctx context.Context, ev persistence.StoredEvent) error {
	payloadJSON, err := json.Marshal(ev.Event.Payload)
	if err != nil {
		return err
	}
	id := ev.Event.EventUUID
	if id == "" {
		id = uuid.NewString()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO simorg_events (project_id, sequence, event_uuid, event_type, schema_version, timestamp, payload, state_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, ev.ProjectID, ev.Sequence, id, string(ev.Event.EventType), ev.Event.SchemaVersion, ev.Event.Timestamp, payloadJSON, ev.StateHash)
	return err
}

func (s *Store) LoadEvents(ctx context.Context, projectID string) ([]persistence.StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sequence, event_uuid, event_type, schema_version, timestamp, payload, state_hash
		FROM simorg_events
		WHERE project_id = $1
		ORDER BY sequence
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []persistence.StoredEvent
	for rows.Next() {
		var (
			stored  persistence.StoredEvent
			payload []byte
		)
		stored.ProjectID = projectID
		if err := rows.Scan(&stored.Sequence, &stored.Event.EventUUID, &stored.Event.EventType, &stored.Event.SchemaVersion, &stored.Event.Timestamp, &payload, &stored.StateHash); err != nil {
			return nil, err
		}
		stored.Event.Sequence = stored.Sequence
		stored.Event.Payload = payload
		out = append(out, stored)
	}
	return out, rows.Err()
}

func (s *Store) SaveSnapshot(ctx context.Context, snap persistence.StoredSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO simorg_snapshots (project_id, sequence, canonical_json, state_hash)
		VALUES ($1, $2, $3, $4)
	`, snap.ProjectID, snap.Sequence, snap.CanonicalJSON, snap.StateHash)
	return err
}

func (s *Store) LoadLatestSnapshot(ctx context.Context, projectID string) (persistence.StoredSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT sequence, canonical_json, state_hash
		FROM simorg_snapshots
		WHERE project_id = $1
		ORDER BY sequence DESC
		LIMIT 1
	`, projectID)

	var snap persistence.StoredSnapshot
	snap.ProjectID = projectID
	if err := row.Scan(&snap.Sequence, &snap.CanonicalJSON, &snap.StateHash); err != nil {
		if err == sql.ErrNoRows {
			return persistence.StoredSnapshot{}, persistence.ErrNotFound
		}
		return persistence.StoredSnapshot{}, err
	}
	return snap, nil
}

// PruneSnapshots deletes every snapshot except the genesis (sequence 0) and
// the newest keep-1 others, per SPEC_FULL's snapshot retention policy.
func (s *Store) PruneSnapshots(ctx context.Context, projectID string, keep int) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM simorg_snapshots
		WHERE project_id = $1
		AND sequence != 0
		AND sequence NOT IN (
			SELECT sequence FROM simorg_snapshots
			WHERE project_id = $1 AND sequence != 0
			ORDER BY sequence DESC
			LIMIT $2
		)
	`, projectID, keep-1)
	return err
}

func (s *Store) GetStreamMeta(ctx context.Context, projectID string) (persistence.StreamMeta, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT project_id, last_sequence, last_hash
		FROM simorg_stream_meta
		WHERE project_id = $1
	`, projectID)

	var meta persistence.StreamMeta
	if err := row.Scan(&meta.ProjectID, &meta.LastSequence, &meta.LastHash); err != nil {
		if err == sql.ErrNoRows {
			return persistence.StreamMeta{}, persistence.ErrNotFound
		}
		return persistence.StreamMeta{}, err
	}
	return meta, nil
}

func (s *Store) PutStreamMeta(ctx context.Context, meta persistence.StreamMeta) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO simorg_stream_meta (project_id, last_sequence, last_hash)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id) DO UPDATE SET last_sequence = $2, last_hash = $3
	`, meta.ProjectID, meta.LastSequence, meta.LastHash)
	return err
}
