// Package httpapi exposes the session orchestrator over HTTP: one route
// per spec §6 operation (append, projection, verify, export, import) plus
// a read-only commit stream and a classification side-channel for the
// semantic/drift overlay. None of this package's routing, auth, or rate
// limiting logic encodes a kernel rule — every request either submits an
// event to engine.Apply (via session.Session.Append) or reads a
// value-copy projection, exactly the two collaboration points spec §1
// allows an external surface.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/tidwall/gjson"

	"github.com/fthyco/simorg/domain/org"
	"github.com/fthyco/simorg/kernel/cluster"
	"github.com/fthyco/simorg/kernel/drift"
	"github.com/fthyco/simorg/kernel/engine"
	"github.com/fthyco/simorg/kernel/semantic"
	"github.com/fthyco/simorg/kernel/version"
	"github.com/fthyco/simorg/persistence"
	"github.com/fthyco/simorg/pkg/kernelerrors"
	"github.com/fthyco/simorg/pkg/logger"
	"github.com/fthyco/simorg/session"
)

// handler holds the shared dependencies every route needs.
type handler struct {
	mgr        *session.Manager
	classStore *classificationStore
	hub        *streamHub
	log        *logger.Logger
}

// Config wires a Handler to its dependencies.
type Config struct {
	Manager            *session.Manager
	JWTSecret          string
	RateLimitPerSecond float64
	RateLimitBurst     int
	Logger             *logger.Logger
}

// NewHandler builds the full HTTP surface: the router with every route,
// a per-project rate limiter wrapped around the append route only, and
// auth wrapped around the whole router. Metrics are recorded inside
// handleAppend and handleVerify and served at /metrics; they do not wrap
// the handler.
func NewHandler(cfg Config) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("httpapi")
	}

	h := &handler{
		mgr:        cfg.Manager,
		classStore: newClassificationStore(),
		hub:        newStreamHub(log),
		log:        log,
	}

	limiters := newProjectLimiters(cfg.RateLimitPerSecond, cfg.RateLimitBurst)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/version", h.handleVersion).Methods(http.MethodGet)
	r.Handle("/metrics", metricsHandler()).Methods(http.MethodGet)

	r.HandleFunc("/projects/{id}/events", wrapAppendRateLimit(h.handleAppend, limiters)).Methods(http.MethodPost)
	r.HandleFunc("/projects/{id}/projection", h.handleProjection).Methods(http.MethodGet)
	r.HandleFunc("/projects/{id}/verify", h.handleVerify).Methods(http.MethodGet)
	r.HandleFunc("/projects/{id}/export", h.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/projects/{id}/import", h.handleImport).Methods(http.MethodPost)
	r.HandleFunc("/projects/{id}/classifications", h.handleSetClassifications).Methods(http.MethodPut)
	r.HandleFunc("/projects/{id}/drift", h.handleDrift).Methods(http.MethodGet)
	r.HandleFunc("/projects/{id}/stream", h.handleStream).Methods(http.MethodGet)

	var top http.Handler = r
	top = wrapWithAuth(top, cfg.JWTSecret, log)
	return top
}

func projectIDFromRequest(r *http.Request) string {
	return mux.Vars(r)["id"]
}

func (h *handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Current)
}

// decodeEvent does a cheap gjson read of event_type/schema_version before
// the strict tagged-variant decode, so a malformed body surfaces a clean
// BadSchema instead of a generic JSON decode error (SPEC_FULL §11.2). When
// the body omits "sequence" the orchestrator assigns the project's next
// expected sequence, per spec §6's wire format.
func decodeEvent(raw []byte, nextSequence int64) (engine.Event, *kernelerrors.KernelError) {
	if !gjson.GetBytes(raw, "event_type").Exists() {
		return engine.Event{}, kernelerrors.New(kernelerrors.BadSchema, "event_type", "event_type is required")
	}
	if !gjson.GetBytes(raw, "schema_version").Exists() {
		return engine.Event{}, kernelerrors.New(kernelerrors.BadSchema, "schema_version", "schema_version is required")
	}

	var ev engine.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return engine.Event{}, kernelerrors.Wrap(kernelerrors.BadSchema, "body", "malformed event envelope", err)
	}
	if !gjson.GetBytes(raw, "sequence").Exists() {
		ev.Sequence = nextSequence
	}
	return ev, nil
}

func (h *handler) handleAppend(w http.ResponseWriter, r *http.Request) {
	projectID := projectIDFromRequest(r)
	ctx := r.Context()

	sess, err := h.mgr.Get(ctx, projectID)
	if err != nil {
		h.log.WithFields(map[string]interface{}{"error": err}).Error("append: failed to open session")
		writeInternalError(w)
		return
	}

	body, err := readLimitedBody(r)
	if err != nil {
		writeBadRequest(w, "body")
		return
	}

	nextSequence := sess.GetProjection(ctx).EventCount
	ev, kerr := decodeEvent(body, nextSequence)
	if kerr != nil {
		writeKernelError(w, kerr)
		return
	}

	start := time.Now()
	outcome, kerr := sess.Append(ctx, ev)
	observeAppend(projectID, start)
	if kerr != nil {
		writeKernelError(w, kerr)
		return
	}

	eventsAppended.WithLabelValues(projectID, string(ev.EventType)).Inc()
	structuralDebt.WithLabelValues(projectID).Set(float64(outcome.State.StructuralDebt))
	h.hub.publish(projectID, commitNotice{Sequence: ev.Sequence, StateHash: outcome.StateHash})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state_hash":        outcome.StateHash,
		"transition_result": outcome.Result,
	})
}

// stateProjectionResponse matches spec §6's external projection shape
// exactly: the "projection" field is the semantic/cluster overlay, not
// the raw structural clustering session.Projection carries internally.
type stateProjectionResponse struct {
	EventCount        int64                    `json:"event_count"`
	StateHash         string                   `json:"state_hash"`
	Diagnostics       session.Diagnostics      `json:"diagnostics"`
	Projection        projectionBlock          `json:"projection"`
	Roles             map[string]org.Role      `json:"roles"`
	Dependencies      []org.Dependency         `json:"dependencies"`
	TransitionResults []org.TransitionResult   `json:"transition_results"`
}

type projectionBlock struct {
	Departments          []string       `json:"departments"`
	RoleToDepartment     map[string]string `json:"role_to_department"`
	InterDepartmentEdges []cluster.Edge `json:"inter_department_edges"`
	BoundaryHeat         int64          `json:"boundary_heat"`
	ClusterHash          string         `json:"cluster_hash"`
}

func (h *handler) buildProjectionBlock(projectID string, clustering cluster.Projection) projectionBlock {
	classDB, _ := h.classStore.projectView(projectID)
	labels := semantic.Project(clustering, classDB)

	deptSet := map[string]struct{}{}
	roleToDept := make(map[string]string, len(clustering.RoleToCluster))
	for roleID, clusterID := range clustering.RoleToCluster {
		label, ok := labels[clusterID]
		if !ok {
			continue
		}
		roleToDept[roleID] = label.SemanticLabel
		deptSet[label.SemanticLabel] = struct{}{}
	}
	departments := make([]string, 0, len(deptSet))
	for d := range deptSet {
		departments = append(departments, d)
	}

	return projectionBlock{
		Departments:          departments,
		RoleToDepartment:     roleToDept,
		InterDepartmentEdges: clustering.InterClusterEdges,
		BoundaryHeat:         clustering.BoundaryHeat,
		ClusterHash:          clustering.ClusterHash,
	}
}

func (h *handler) handleProjection(w http.ResponseWriter, r *http.Request) {
	projectID := projectIDFromRequest(r)
	ctx := r.Context()

	sess, err := h.mgr.Get(ctx, projectID)
	if err != nil {
		h.log.WithFields(map[string]interface{}{"error": err}).Error("projection: failed to open session")
		writeInternalError(w)
		return
	}

	proj := sess.GetProjection(ctx)
	writeJSON(w, http.StatusOK, stateProjectionResponse{
		EventCount:        proj.EventCount,
		StateHash:         proj.StateHash,
		Diagnostics:       proj.Diagnostics,
		Projection:        h.buildProjectionBlock(projectID, proj.Clustering),
		Roles:             proj.Roles,
		Dependencies:      proj.Dependencies,
		TransitionResults: proj.TransitionResults,
	})
}

func (h *handler) handleDrift(w http.ResponseWriter, r *http.Request) {
	projectID := projectIDFromRequest(r)
	ctx := r.Context()

	sess, err := h.mgr.Get(ctx, projectID)
	if err != nil {
		h.log.WithFields(map[string]interface{}{"error": err}).Error("drift: failed to open session")
		writeInternalError(w)
		return
	}

	proj := sess.GetProjection(ctx)
	state := sess.State(ctx)
	classDB, declDB := h.classStore.projectView(projectID)
	labels := semantic.Project(proj.Clustering, classDB)

	report := drift.Compute(state, proj.Clustering, labels, declDB)
	writeJSON(w, http.StatusOK, report)
}

func (h *handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	projectID := projectIDFromRequest(r)
	ctx := r.Context()

	sess, err := h.mgr.Get(ctx, projectID)
	if err != nil {
		h.log.WithFields(map[string]interface{}{"error": err}).Error("verify: failed to open session")
		writeInternalError(w)
		return
	}

	if kerr := sess.VerifyDeterminism(ctx); kerr != nil {
		determinismFailures.WithLabelValues(projectID).Inc()
		writeKernelError(w, kerr)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	projectID := projectIDFromRequest(r)
	ctx := r.Context()

	sess, err := h.mgr.Get(ctx, projectID)
	if err != nil {
		h.log.WithFields(map[string]interface{}{"error": err}).Error("export: failed to open session")
		writeInternalError(w)
		return
	}

	exported, err := sess.Export(ctx)
	if err != nil {
		h.log.WithFields(map[string]interface{}{"error": err}).Error("export: failed to load event log")
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, exported)
}

func (h *handler) handleImport(w http.ResponseWriter, r *http.Request) {
	projectID := projectIDFromRequest(r)
	ctx := r.Context()

	body, err := readLimitedBody(r)
	if err != nil {
		writeBadRequest(w, "body")
		return
	}

	var exported persistence.ExportedLog
	if err := json.Unmarshal(body, &exported); err != nil {
		writeBadRequest(w, "body")
		return
	}
	exported.ProjectID = projectID

	sess, err := h.mgr.Get(ctx, projectID)
	if err != nil {
		h.log.WithFields(map[string]interface{}{"error": err}).Error("import: failed to open session")
		writeInternalError(w)
		return
	}

	if kerr := sess.Import(ctx, exported); kerr != nil {
		writeKernelError(w, kerr)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleSetClassifications(w http.ResponseWriter, r *http.Request) {
	projectID := projectIDFromRequest(r)

	body, err := readLimitedBody(r)
	if err != nil {
		writeBadRequest(w, "body")
		return
	}

	var payload struct {
		Classifications map[string]string `json:"classifications"`
		Departments     map[string]string `json:"declared_departments"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		writeBadRequest(w, "body")
		return
	}

	if payload.Classifications != nil {
		h.classStore.setClassifications(projectID, payload.Classifications)
	}
	if payload.Departments != nil {
		h.classStore.setDepartments(projectID, payload.Departments)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func readLimitedBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	const maxBody = 1 << 20 // 1 MiB; event payloads are small, this is generous headroom.
	return io.ReadAll(io.LimitReader(r.Body, maxBody))
}
