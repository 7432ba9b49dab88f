package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"starsgame/config"
	"starsgame/models"
	"starsgame/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(crash *service.MockCrashService, ledger *service.MockLedgerService) *Scheduler {
	s := NewScheduler(crash, ledger, config.Default())
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestSweepStaleBets(t *testing.T) {
	ctx := context.Background()

	t.Run("runs batches until one is not full", func(t *testing.T) {
		crash := new(service.MockCrashService)
		crash.On("SweepExpired", ctx, sweepBatchSize).Return(sweepBatchSize, nil).Twice()
		crash.On("SweepExpired", ctx, sweepBatchSize).Return(12, nil).Once()

		swept, err := newTestScheduler(crash, new(service.MockLedgerService)).SweepStaleBets(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2*sweepBatchSize+12, swept)
		crash.AssertNumberOfCalls(t, "SweepExpired", 3)
	})

	t.Run("stops after the batch limit", func(t *testing.T) {
		crash := new(service.MockCrashService)
		crash.On("SweepExpired", ctx, sweepBatchSize).Return(sweepBatchSize, nil)

		swept, err := newTestScheduler(crash, new(service.MockLedgerService)).SweepStaleBets(ctx)

		require.NoError(t, err)
		assert.Equal(t, maxSweepBatches*sweepBatchSize, swept)
		crash.AssertNumberOfCalls(t, "SweepExpired", maxSweepBatches)
	})

	t.Run("returns the error with what was swept so far", func(t *testing.T) {
		crash := new(service.MockCrashService)
		crash.On("SweepExpired", ctx, sweepBatchSize).Return(sweepBatchSize, nil).Once()
		crash.On("SweepExpired", ctx, sweepBatchSize).Return(0, service.ErrStorage).Once()

		swept, err := newTestScheduler(crash, new(service.MockLedgerService)).SweepStaleBets(ctx)

		assert.ErrorIs(t, err, service.ErrStorage)
		assert.Equal(t, sweepBatchSize, swept)
	})
}

func TestReconcileLedger(t *testing.T) {
	ctx := context.Background()
	since := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("counts mismatching balances", func(t *testing.T) {
		ledger := new(service.MockLedgerService)
		ledger.On("ActiveUsers", ctx, since, reconcileUserLimit).Return([]int64{1, 2, 3}, nil)
		ledger.On("Reconcile", ctx, int64(1)).Return(&models.ReconcileReport{UserID: 1, Stored: 500, Replayed: 500, Entries: 3}, nil)
		ledger.On("Reconcile", ctx, int64(2)).Return(&models.ReconcileReport{UserID: 2, Stored: 700, Replayed: 500, Entries: 4}, nil)
		ledger.On("Reconcile", ctx, int64(3)).Return(&models.ReconcileReport{UserID: 3, Stored: 100, Replayed: 100, ChainBreaks: 1}, nil)

		mismatches, err := newTestScheduler(new(service.MockCrashService), ledger).ReconcileLedger(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, mismatches)
		ledger.AssertExpectations(t)
	})

	t.Run("a failing user does not stop the run", func(t *testing.T) {
		ledger := new(service.MockLedgerService)
		ledger.On("ActiveUsers", ctx, since, reconcileUserLimit).Return([]int64{1, 2}, nil)
		ledger.On("Reconcile", ctx, int64(1)).Return(nil, service.ErrNotFound)
		ledger.On("Reconcile", ctx, int64(2)).Return(&models.ReconcileReport{UserID: 2, Stored: 10, Replayed: 10}, nil)

		mismatches, err := newTestScheduler(new(service.MockCrashService), ledger).ReconcileLedger(ctx)

		require.NoError(t, err)
		assert.Zero(t, mismatches)
		ledger.AssertExpectations(t)
	})

	t.Run("active user lookup failure is returned", func(t *testing.T) {
		ledger := new(service.MockLedgerService)
		ledger.On("ActiveUsers", ctx, mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

		_, err := newTestScheduler(new(service.MockCrashService), ledger).ReconcileLedger(ctx)

		assert.EqualError(t, err, "boom")
	})
}

func TestScheduler_StartRejectsInvalidSchedule(t *testing.T) {
	cfg := config.Default()
	cfg.SweepSchedule = "every now and then"

	s := NewScheduler(new(service.MockCrashService), new(service.MockLedgerService), cfg)
	err := s.Start(context.Background())

	assert.ErrorContains(t, err, "invalid sweep schedule")
}

func TestScheduler_StartAndStop(t *testing.T) {
	s := NewScheduler(new(service.MockCrashService), new(service.MockLedgerService), config.Default())

	require.NoError(t, s.Start(context.Background()))
	assert.Len(t, s.cron.Entries(), 2)
	s.Stop()
}
