package service

import (
	"context"
	"time"

	"starsgame/config"
	"starsgame/events"
	"starsgame/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type roundService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
	rng        RandomSource
}

// NewRoundService creates a new crash round scheduler
func NewRoundService(uowFactory UnitOfWorkFactory, cfg *config.Config, rng RandomSource) RoundService {
	return &roundService{
		uowFactory: uowFactory,
		config:     cfg,
		rng:        rng,
	}
}

func (s *roundService) CurrentRoundOrCreate(ctx context.Context, now time.Time) (*models.Round, error) {
	nowMs := now.UnixMilli()

	// Lock-free fast path: most requests find a round that is still running
	round, err := s.readCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if round != nil && !s.rotationDue(round, nowMs) {
		return round, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	if err := uow.RoundRepository().LockRotation(ctx); err != nil {
		return nil, storageError("lock round rotation", err)
	}

	// Another request may have rotated while we waited for the lock
	round, err = uow.RoundRepository().GetCurrent(ctx)
	if err != nil {
		return nil, storageError("get current round", err)
	}
	if round != nil && !s.rotationDue(round, nowMs) {
		return round, nil
	}

	var previousID int64
	if round != nil {
		if err := uow.RoundRepository().MarkEnded(ctx, round.ID); err != nil {
			return nil, storageError("end round", err)
		}
		previousID = round.ID
	}

	next := &models.Round{
		CrashPoint: GenerateCrashPoint(s.config.HouseEdge, s.rng.Float64()),
		StartTime:  now.Add(s.config.CrashBettingWindow).UnixMilli(),
		Status:     models.RoundStatusPending,
	}
	if err := uow.RoundRepository().Create(ctx, next); err != nil {
		return nil, storageError("create round", err)
	}

	uow.EventBus().Publish(events.RoundCreatedEvent{
		RoundID:         next.ID,
		PreviousRoundID: previousID,
		StartTime:       next.StartTime,
	})

	if err := uow.Commit(); err != nil {
		return nil, storageError("commit transaction", err)
	}

	log.WithFields(log.Fields{
		"roundID":         next.ID,
		"previousRoundID": previousID,
		"startTime":       next.StartTime,
	}).Info("Rotated crash round")

	return next, nil
}

func (s *roundService) readCurrent(ctx context.Context) (*models.Round, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	round, err := uow.RoundRepository().GetCurrent(ctx)
	if err != nil {
		return nil, storageError("get current round", err)
	}
	return round, nil
}

func (s *roundService) rotationDue(round *models.Round, nowMs int64) bool {
	return RotationDue(round, nowMs, s.config.CrashGrowthRate, s.config.CrashSettleBuffer.Milliseconds())
}

func (s *roundService) GetRoundState(ctx context.Context, now time.Time) (*models.RoundState, error) {
	round, err := s.CurrentRoundOrCreate(ctx, now)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	ended, err := uow.RoundRepository().GetRecentEnded(ctx, s.config.CrashHistorySize)
	if err != nil {
		return nil, storageError("get round history", err)
	}
	history := make([]decimal.Decimal, 0, len(ended))
	for _, r := range ended {
		history = append(history, r.CrashPoint)
	}

	bets, err := uow.CrashBetRepository().GetByRound(ctx, round.ID, s.config.CrashBetListSize)
	if err != nil {
		return nil, storageError("get round bets", err)
	}
	roundBets := make([]models.RoundBet, 0, len(bets))
	for _, bet := range bets {
		roundBets = append(roundBets, roundBetFrom(bet))
	}

	nowMs := now.UnixMilli()
	return &models.RoundState{
		RoundID:    round.ID,
		StartTime:  round.StartTime,
		ServerTime: nowMs,
		Phase:      PhaseAt(round, nowMs, s.config.CrashGrowthRate),
		History:    history,
		Bets:       roundBets,
	}, nil
}
