package reconcile

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Londondannyboy/quest-sub002/internal/logger"
)

// Scheduler fires the reconciler on a cron schedule, adapted from the
// teacher's CronScheduler (trigger/cron_scheduler.go) down to the single
// always-on job this pipeline needs — no per-workflow trigger registry,
// since there is exactly one reconciliation job, not a user-configurable
// set of them.
type Scheduler struct {
	cron       *cron.Cron
	reconciler *Reconciler
	jobTimeout time.Duration
	log        *logger.Logger
}

// NewScheduler builds a Scheduler that runs reconciler on spec (six-field
// cron syntax with a leading seconds field, e.g. "0 */15 * * * *", since
// seconds precision is enabled below). jobTimeout bounds one reconciliation pass so a stalled
// graph adapter can't wedge the next scheduled tick.
func NewScheduler(spec string, reconciler *Reconciler, jobTimeout time.Duration, log *logger.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))
	s := &Scheduler{cron: c, reconciler: reconciler, jobTimeout: jobTimeout, log: log}

	if _, err := c.AddFunc(spec, s.runOnce); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins firing the scheduled job. Non-blocking, same as the
// underlying cron.Cron.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for any in-flight job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	if _, err := s.reconciler.Run(ctx); err != nil {
		s.log.Error("reconcile: graph sync pass failed", "error", err)
	}
}
