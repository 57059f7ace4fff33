// Package maintenance runs the background upkeep spec §4.9 calls advisory:
// periodic determinism verification and snapshot pruning across every open
// session. None of it sits on the synchronous append path (spec §5); a
// verification failure here poisons the affected session the same way an
// inline VerifyDeterminism call would.
package maintenance

import (
	"context"
	"sort"

	"github.com/robfig/cron/v3"

	"github.com/fthyco/simorg/pkg/logger"
	"github.com/fthyco/simorg/session"
)

// Config controls the scheduler's cadence and snapshot retention.
type Config struct {
	// CronSpec is a standard 5-field cron expression, e.g. "0 * * * *" for
	// hourly (the default in internal/config.Config.MaintenanceCron).
	CronSpec string

	// SnapshotRetention is how many snapshots to keep per project, counting
	// the genesis snapshot when one exists; see
	// session.DefaultSnapshotRetention.
	SnapshotRetention int
}

// Scheduler owns one cron.Cron instance running a single maintenance job
// over every project the Manager currently tracks.
type Scheduler struct {
	cron *cron.Cron
	mgr  *session.Manager
	log  *logger.Logger
	cfg  Config
}

// New builds a Scheduler; call Start to register and run the cron job.
func New(mgr *session.Manager, log *logger.Logger, cfg Config) *Scheduler {
	if cfg.SnapshotRetention <= 0 {
		cfg.SnapshotRetention = session.DefaultSnapshotRetention
	}
	if log == nil {
		log = logger.NewDefault("maintenance")
	}
	return &Scheduler{
		cron: cron.New(),
		mgr:  mgr,
		log:  log,
		cfg:  cfg,
	}
}

// Start registers the maintenance job on the configured cron spec and
// starts the cron scheduler's own goroutine. It returns an error only if
// CronSpec does not parse.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.cfg.CronSpec, func() { s.runOnce(ctx) })
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron scheduler, waiting for any in-flight run to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	return nil
}

// RunOnce runs one maintenance pass immediately, outside the cron
// schedule; tests use this to exercise the pass synchronously.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.runOnce(ctx)
}

func (s *Scheduler) runOnce(ctx context.Context) {
	ids := s.mgr.ProjectIDs()
	sort.Strings(ids)

	for _, id := range ids {
		sess, err := s.mgr.Get(ctx, id)
		if err != nil {
			s.log.WithFields(map[string]interface{}{"project_id": id, "error": err}).Warn("maintenance: could not open session")
			continue
		}

		if kerr := sess.VerifyDeterminism(ctx); kerr != nil {
			s.log.WithFields(map[string]interface{}{"project_id": id, "code": kerr.Code}).Error("maintenance: determinism verification failed, session poisoned")
			continue
		}

		if err := sess.PruneSnapshots(ctx, s.cfg.SnapshotRetention); err != nil {
			s.log.WithFields(map[string]interface{}{"project_id": id, "error": err}).Warn("maintenance: snapshot prune failed")
		}
	}
}
