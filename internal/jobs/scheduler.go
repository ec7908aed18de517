// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// LevelReconciler rewrites cached levels that drifted from xp.
type LevelReconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron       *cron.Cron
	reconciler LevelReconciler
	schedule   string
}

func NewScheduler(reconciler LevelReconciler, schedule string, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		reconciler: reconciler,
		schedule:   schedule,
	}
}

// Start registers the jobs and starts the cron loop. An empty schedule
// disables reconciliation.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.schedule != "" {
		if _, err := s.cron.AddFunc(s.schedule, func() { s.ReconcileLevels(ctx) }); err != nil {
			return fmt.Errorf("jobs: invalid reconcile schedule %q: %w", s.schedule, err)
		}
	}

	s.cron.Start()
	log.WithField("reconcile", s.schedule).Info("[CRON] scheduler started")
	return nil
}

func (s *Scheduler) ReconcileLevels(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	fixed, err := s.reconciler.Reconcile(ctx)
	if err != nil {
		log.WithError(err).Error("[CRON] level reconciliation failed")
		return
	}

	log.WithFields(log.Fields{
		"fixed":    fixed,
		"duration": time.Since(start).String(),
	}).Info("[CRON] level reconciliation done")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info("[CRON] scheduler stopped")
}
