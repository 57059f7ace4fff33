package persistence

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store, grounded on the teacher's
// MemoryBackend: a mutex-guarded map, safe for concurrent readers, no
// external dependency. Used for tests and single-process deployments
// where Postgres is overkill.
type MemoryStore struct {
	mu        sync.RWMutex
	events    map[string][]StoredEvent
	snapshots map[string][]StoredSnapshot
	meta      map[string]StreamMeta
	uuids     map[string]map[string]bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:    make(map[string][]StoredEvent),
		snapshots: make(map[string][]StoredSnapshot),
		meta:      make(map[string]StreamMeta),
		uuids:     make(map[string]map[string]bool),
	}
}

func (m *MemoryStore) AppendEvent(ctx context.Context, ev StoredEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ev.Event.EventUUID != "" {
		if m.uuids[ev.ProjectID] == nil {
			m.uuids[ev.ProjectID] = make(map[string]bool)
		}
		if m.uuids[ev.ProjectID][ev.Event.EventUUID] {
			return ErrDuplicateEventUUID
		}
		m.uuids[ev.ProjectID][ev.Event.EventUUID] = true
	}

	m.events[ev.ProjectID] = append(m.events[ev.ProjectID], ev)
	return nil
}

func (m *MemoryStore) LoadEvents(ctx context.Context, projectID string) ([]StoredEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	existing := m.events[projectID]
	out := make([]StoredEvent, len(existing))
	copy(out, existing)
	return out, nil
}

func (m *MemoryStore) SaveSnapshot(ctx context.Context, snap StoredSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[snap.ProjectID] = append(m.snapshots[snap.ProjectID], snap)
	return nil
}

func (m *MemoryStore) LoadLatestSnapshot(ctx context.Context, projectID string) (StoredSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snaps := m.snapshots[projectID]
	if len(snaps) == 0 {
		return StoredSnapshot{}, ErrNotFound
	}
	latest := snaps[0]
	for _, s := range snaps[1:] {
		if s.Sequence > latest.Sequence {
			latest = s
		}
	}
	return latest, nil
}

// PruneSnapshots retains the genesis snapshot (sequence 0, if present) plus
// the newest keep-1 others, per SPEC_FULL's snapshot retention policy.
func (m *MemoryStore) PruneSnapshots(ctx context.Context, projectID string, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snaps := m.snapshots[projectID]
	if len(snaps) <= keep {
		return nil
	}

	sorted := make([]StoredSnapshot, len(snaps))
	copy(sorted, snaps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Sequence < sorted[j].Sequence })

	var genesis *StoredSnapshot
	if sorted[0].Sequence == 0 {
		g := sorted[0]
		genesis = &g
		sorted = sorted[1:]
	}

	if len(sorted) > keep-1 && genesis != nil {
		sorted = sorted[len(sorted)-(keep-1):]
	} else if genesis == nil && len(sorted) > keep {
		sorted = sorted[len(sorted)-keep:]
	}

	if genesis != nil {
		sorted = append([]StoredSnapshot{*genesis}, sorted...)
	}
	m.snapshots[projectID] = sorted
	return nil
}

func (m *MemoryStore) GetStreamMeta(ctx context.Context, projectID string) (StreamMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	meta, ok := m.meta[projectID]
	if !ok {
		return StreamMeta{}, ErrNotFound
	}
	return meta, nil
}

func (m *MemoryStore) PutStreamMeta(ctx context.Context, meta StreamMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.meta[meta.ProjectID] = meta
	return nil
}
