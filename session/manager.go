package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/fthyco/simorg/persistence"
	"github.com/fthyco/simorg/pkg/logger"
)

// Manager owns one Session per project, lazily constructed on first access
// and replayed from whatever the Store already holds for that project id.
// It is the multi-project front door httpapi and the maintenance scheduler
// sit behind; a single Session (spec §4.9) only ever knows about one
// project's log.
type Manager struct {
	mu              sync.Mutex
	store           persistence.Store
	log             *logger.Logger
	snapshotCadence int64
	sessions        map[string]*Session
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Store           persistence.Store
	Logger          *logger.Logger
	SnapshotCadence int64
}

// NewManager builds an empty Manager backed by store.
func NewManager(cfg ManagerConfig) *Manager {
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("session-manager")
	}
	return &Manager{
		store:           cfg.Store,
		log:             log,
		snapshotCadence: cfg.SnapshotCadence,
		sessions:        make(map[string]*Session),
	}
}

// Get returns the Session for projectID, constructing and replaying it
// from the store on first access.
func (m *Manager) Get(ctx context.Context, projectID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[projectID]; ok {
		return s, nil
	}

	s, err := New(ctx, Config{
		ProjectID:       projectID,
		Store:           m.store,
		Logger:          m.log,
		SnapshotCadence: m.snapshotCadence,
	})
	if err != nil {
		return nil, fmt.Errorf("session manager: opening project %q: %w", projectID, err)
	}
	m.sessions[projectID] = s
	return s, nil
}

// ProjectIDs returns every project id currently held in memory, in
// insertion order is not guaranteed — callers that need determinism sort
// the result themselves (the maintenance scheduler does).
func (m *Manager) ProjectIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}
