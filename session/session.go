// Package session implements the orchestrator of spec §4.9: it owns the
// event log and current state for one project, serializes every append,
// and exposes projection/export/import/determinism-verification. Mutex
// discipline and in-process caching follow the teacher's PersistentState
// (infrastructure/state/state.go): a single mutex region around mutation,
// RLock-guarded reads.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/fthyco/simorg/domain/org"
	"github.com/fthyco/simorg/kernel/canonical"
	"github.com/fthyco/simorg/kernel/cluster"
	"github.com/fthyco/simorg/kernel/engine"
	"github.com/fthyco/simorg/kernel/graph"
	"github.com/fthyco/simorg/pkg/kernelerrors"
	"github.com/fthyco/simorg/pkg/logger"
	"github.com/fthyco/simorg/persistence"
)

// DefaultSnapshotCadence is the default N in "snapshot every N events"
// (spec §4.9).
const DefaultSnapshotCadence = 50

// DefaultSnapshotRetention is how many snapshots the maintenance scheduler
// keeps per project, counting the genesis snapshot when one exists.
const DefaultSnapshotRetention = 10

// Session orchestrates one project's event log and current state. It is
// safe for concurrent use: appends are fully serialized, reads may run
// concurrently with each other but never with a write (spec §5).
type Session struct {
	mu sync.RWMutex

	projectID       string
	store           persistence.Store
	log             *logger.Logger
	snapshotCadence int64

	state     org.OrgState
	results   []org.TransitionResult
	poisoned  bool
	poisonErr *kernelerrors.KernelError
}

// Config configures a new Session.
type Config struct {
	ProjectID       string
	Store           persistence.Store
	Logger          *logger.Logger
	SnapshotCadence int64
}

// New constructs a Session and replays any events already persisted for
// ProjectID from event 0, rebuilding in-memory state (spec §4.9's implicit
// "the log is the source of truth").
func New(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.SnapshotCadence <= 0 {
		cfg.SnapshotCadence = DefaultSnapshotCadence
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("session")
	}

	s := &Session{
		projectID:       cfg.ProjectID,
		store:           cfg.Store,
		log:             log,
		snapshotCadence: cfg.SnapshotCadence,
		state:           org.NewOrgState(),
	}

	events, err := cfg.Store.LoadEvents(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("session: loading event log: %w", err)
	}
	for _, stored := range events {
		outcome, kerr := engine.Apply(s.state, stored.Event, stored.Sequence)
		if kerr != nil {
			return nil, fmt.Errorf("session: replaying persisted event %d: %s", stored.Sequence, kerr.Error())
		}
		s.state = outcome.State
		s.results = append(s.results, outcome.Result)
	}
	return s, nil
}

// Append serializes one event through the full pipeline and persists it.
// A rejected event never reaches the store and never mutates s.state. A
// fatal rejection (kernelerrors.KernelError.Fatal) also poisons the
// session until VerifyDeterminism succeeds.
func (s *Session) Append(ctx context.Context, ev engine.Event) (engine.Outcome, *kernelerrors.KernelError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poisoned {
		return engine.Outcome{State: s.state}, kernelerrors.Wrap(kernelerrors.DeterminismError, "session", "session is poisoned pending re-verification", s.poisonErr)
	}

	expectedSequence := int64(len(s.results))
	outcome, kerr := engine.Apply(s.state, ev, expectedSequence)
	if kerr != nil {
		if kerr.Fatal() {
			s.poisoned = true
			s.poisonErr = kerr
		}
		return outcome, kerr
	}

	if err := s.store.AppendEvent(ctx, persistence.StoredEvent{
		ProjectID: s.projectID,
		Sequence:  expectedSequence,
		Event:     ev,
		StateHash: outcome.StateHash,
	}); err != nil {
		return engine.Outcome{State: s.state}, kernelerrors.Wrap(kernelerrors.IOError, "persistence", "failed to append event", err)
	}

	if err := s.store.PutStreamMeta(ctx, persistence.StreamMeta{ProjectID: s.projectID, LastSequence: expectedSequence, LastHash: outcome.StateHash}); err != nil {
		s.log.WithFields(map[string]interface{}{"project_id": s.projectID, "error": err}).Warn("failed to update stream meta")
	}

	s.state = outcome.State
	s.results = append(s.results, outcome.Result)

	if s.snapshotCadence > 0 && (expectedSequence+1)%s.snapshotCadence == 0 {
		if err := s.writeSnapshot(ctx); err != nil {
			s.log.WithFields(map[string]interface{}{"project_id": s.projectID, "error": err}).Warn("snapshot write failed")
		}
	}

	return outcome, nil
}

func (s *Session) writeSnapshot(ctx context.Context) error {
	canonicalJSON, err := canonical.Serialize(s.state)
	if err != nil {
		return err
	}
	return s.store.SaveSnapshot(ctx, persistence.StoredSnapshot{
		ProjectID:     s.projectID,
		Sequence:      s.state.EventCount,
		CanonicalJSON: canonicalJSON,
		StateHash:     s.state.PrevStateHash,
	})
}

// Diagnostics is the diagnostics block of the state projection response
// (spec §6).
type Diagnostics struct {
	RoleCount         int      `json:"role_count"`
	ActiveRoleCount   int      `json:"active_role_count"`
	StructuralDensity int64    `json:"structural_density"`
	StructuralDebt    int64    `json:"structural_debt"`
	IsolatedRoles     []string `json:"isolated_roles"`
	GovernanceEdges   int      `json:"governance_edges"`
	Warnings          []string `json:"warnings"`
}

// Projection is the structural half of the state projection response of
// spec §6: event count, hash, diagnostics, structural clustering, and the
// raw role/dependency/transition-result state. The spec's "projection"
// wire field additionally carries a semantic overlay (departments,
// role_to_department, ...) that this package does not compute — semantic
// labeling takes an externally injected ClassificationDB (spec §4.7
// design note: "no process-wide singletons"), which is httpapi's job to
// supply, not the orchestrator's. httpapi composes Clustering with a
// semantic.Project call to build the full wire response.
type Projection struct {
	EventCount        int64                  `json:"event_count"`
	StateHash         string                 `json:"state_hash"`
	Diagnostics       Diagnostics            `json:"diagnostics"`
	Clustering        cluster.Projection     `json:"clustering"`
	Roles             map[string]org.Role    `json:"roles"`
	Dependencies      []org.Dependency       `json:"dependencies"`
	TransitionResults []org.TransitionResult `json:"transition_results"`
}

// State returns a value-copy of the session's current OrgState, for
// callers that need the raw state rather than the structural Projection
// (httpapi's drift endpoint, which must pass org.OrgState to
// drift.Compute directly).
func (s *Session) State(ctx context.Context) org.OrgState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// GetProjection returns a value-copy view of the session's current state;
// callers never observe a half-mutated state (spec §5).
func (s *Session) GetProjection(ctx context.Context) Projection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := s.state
	isolated := graph.IsolatedRoles(state)

	var warnings []string
	if len(isolated) > 0 {
		warnings = append(warnings, fmt.Sprintf("%d role(s) isolated", len(isolated)))
	}
	if state.Constants != nil && state.Constraints.Capital == 0 {
		warnings = append(warnings, "capital budget exhausted")
	}

	roles := make(map[string]org.Role)
	for _, r := range state.Roles.All() {
		roles[r.ID] = r
	}

	return Projection{
		EventCount: state.EventCount,
		StateHash:  state.PrevStateHash,
		Diagnostics: Diagnostics{
			RoleCount:         state.Roles.Len(),
			ActiveRoleCount:   len(state.Roles.ActiveIDs()),
			StructuralDensity: graph.Density(state),
			StructuralDebt:    state.StructuralDebt,
			IsolatedRoles:     isolated,
			GovernanceEdges:   graph.GovernanceEdgeCount(state),
			Warnings:          warnings,
		},
		Clustering:        cluster.Compute(state),
		Roles:             roles,
		Dependencies:      append([]org.Dependency(nil), state.Dependencies...),
		TransitionResults: append([]org.TransitionResult(nil), s.results...),
	}
}

// VerifyDeterminism replays the persisted log from event 0 in a fresh
// kernel and compares the resulting hash to the in-memory state's hash
// (spec §4.9). A mismatch poisons the session: further appends are
// refused until this call succeeds again.
func (s *Session) VerifyDeterminism(ctx context.Context) *kernelerrors.KernelError {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.store.LoadEvents(ctx, s.projectID)
	if err != nil {
		return kernelerrors.Wrap(kernelerrors.IOError, "persistence", "failed to load event log for verification", err)
	}

	replayState := org.NewOrgState()
	for _, stored := range events {
		outcome, kerr := engine.Apply(replayState, stored.Event, stored.Sequence)
		if kerr != nil {
			s.poisoned = true
			s.poisonErr = kerr
			return kerr
		}
		replayState = outcome.State
	}

	if replayState.PrevStateHash != s.state.PrevStateHash {
		kerr := kernelerrors.New(kernelerrors.DeterminismError, "state_hash", "replay hash does not match stored hash")
		s.poisoned = true
		s.poisonErr = kerr
		return kerr
	}

	s.poisoned = false
	s.poisonErr = nil
	return nil
}

// Export returns every persisted event for this project, for external
// backup or migration (spec §4.9).
func (s *Session) Export(ctx context.Context) (persistence.ExportedLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, err := s.store.LoadEvents(ctx, s.projectID)
	if err != nil {
		return persistence.ExportedLog{}, err
	}
	out := persistence.ExportedLog{ProjectID: s.projectID}
	for _, e := range events {
		out.Events = append(out.Events, e.Event)
	}
	return out, nil
}

// Import replays a previously-exported log into this session, replacing
// its current state and log. It is intended for migrating into a fresh,
// empty session; it refuses to run on a session that already has events.
func (s *Session) Import(ctx context.Context, exported persistence.ExportedLog) *kernelerrors.KernelError {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.results) > 0 {
		return kernelerrors.New(kernelerrors.BadSchema, "session", "import only allowed into an empty session")
	}

	state := org.NewOrgState()
	var results []org.TransitionResult
	for i, ev := range exported.Events {
		outcome, kerr := engine.Apply(state, ev, int64(i))
		if kerr != nil {
			return kerr
		}
		if err := s.store.AppendEvent(ctx, persistence.StoredEvent{ProjectID: s.projectID, Sequence: int64(i), Event: ev, StateHash: outcome.StateHash}); err != nil {
			return kernelerrors.Wrap(kernelerrors.IOError, "persistence", "failed to persist imported event", err)
		}
		state = outcome.State
		results = append(results, outcome.Result)
	}

	s.state = state
	s.results = results
	if len(results) > 0 {
		_ = s.store.PutStreamMeta(ctx, persistence.StreamMeta{ProjectID: s.projectID, LastSequence: int64(len(results) - 1), LastHash: s.state.PrevStateHash})
	}
	return nil
}

// PruneSnapshots retains the genesis snapshot plus the newest keep-1
// others, delegating to the store (spec's snapshot cadence is advisory,
// so trimming history never threatens log sufficiency).
func (s *Session) PruneSnapshots(ctx context.Context, keep int) error {
	return s.store.PruneSnapshots(ctx, s.projectID, keep)
}
