// Package jobs runs the periodic maintenance tasks of the game engine.
package jobs

import (
	"context"
	"fmt"
	"time"

	"starsgame/config"
	"starsgame/service"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const (
	sweepBatchSize  = 500
	maxSweepBatches = 20

	reconcileWindow    = 2 * time.Hour
	reconcileUserLimit = 1000
)

// Scheduler runs maintenance jobs on cron schedules
type Scheduler struct {
	cron   *cron.Cron
	crash  service.CrashService
	ledger service.LedgerService
	config *config.Config
	now    func() time.Time
}

// NewScheduler creates a scheduler on UTC time
func NewScheduler(crash service.CrashService, ledger service.LedgerService, cfg *config.Config) *Scheduler {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		),
	)

	return &Scheduler{
		cron:   c,
		crash:  crash,
		ledger: ledger,
		config: cfg,
		now:    time.Now,
	}
}

// Start registers all jobs and starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.config.SweepSchedule, func() {
		if _, err := s.SweepStaleBets(ctx); err != nil {
			log.WithError(err).Error("[CRON] Failed to sweep stale crash bets")
		}
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.config.SweepSchedule, err)
	}

	if _, err := s.cron.AddFunc(s.config.ReconcileSchedule, func() {
		if _, err := s.ReconcileLedger(ctx); err != nil {
			log.WithError(err).Error("[CRON] Failed to reconcile ledger")
		}
	}); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", s.config.ReconcileSchedule, err)
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"sweepSchedule":     s.config.SweepSchedule,
		"reconcileSchedule": s.config.ReconcileSchedule,
	}).Info("Job scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Job scheduler stopped")
}

// SweepStaleBets busts abandoned crash bets in batches until none are left
func (s *Scheduler) SweepStaleBets(ctx context.Context) (int, error) {
	total := 0
	for range maxSweepBatches {
		swept, err := s.crash.SweepExpired(ctx, sweepBatchSize)
		if err != nil {
			return total, err
		}
		total += swept
		if swept < sweepBatchSize {
			break
		}
	}

	log.WithField("count", total).Debug("[CRON] Swept stale crash bets")
	return total, nil
}

// ReconcileLedger replays the ledger of recently active users and reports
// every balance the ledger does not explain. It returns the mismatch count.
func (s *Scheduler) ReconcileLedger(ctx context.Context) (int, error) {
	since := s.now().Add(-reconcileWindow)
	userIDs, err := s.ledger.ActiveUsers(ctx, since, reconcileUserLimit)
	if err != nil {
		return 0, err
	}

	mismatches := 0
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return mismatches, ctx.Err()
		}

		report, err := s.ledger.Reconcile(ctx, userID)
		if err != nil {
			log.WithFields(log.Fields{
				"userID": userID,
				"error":  err,
			}).Warn("[CRON] Failed to reconcile user")
			continue
		}
		if !report.Consistent() {
			mismatches++
			log.WithFields(log.Fields{
				"userID":      userID,
				"stored":      report.Stored,
				"replayed":    report.Replayed,
				"entries":     report.Entries,
				"chainBreaks": report.ChainBreaks,
			}).Error("[CRON] Ledger does not match stored balance")
		}
	}

	log.WithFields(log.Fields{
		"users":      len(userIDs),
		"mismatches": mismatches,
	}).Info("[CRON] Ledger reconciliation finished")
	return mismatches, nil
}
