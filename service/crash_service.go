package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"starsgame/config"
	"starsgame/events"
	"starsgame/models"

	log "github.com/sirupsen/logrus"
)

type crashService struct {
	uowFactory UnitOfWorkFactory
	rounds     RoundService
	config     *config.Config
	now        func() time.Time
}

// NewCrashService creates a new crash session service
func NewCrashService(uowFactory UnitOfWorkFactory, rounds RoundService, cfg *config.Config) CrashService {
	return &crashService{
		uowFactory: uowFactory,
		rounds:     rounds,
		config:     cfg,
		now:        time.Now,
	}
}

func (s *crashService) Start(ctx context.Context, userID int64, betAmount int64) (*models.CrashStartResult, error) {
	if betAmount <= 0 {
		return nil, validationError("bet amount must be positive, got %d", betAmount)
	}

	now := s.now()
	current, err := s.rounds.CurrentRoundOrCreate(ctx, now)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	round, err := uow.RoundRepository().GetByIDForShare(ctx, current.ID)
	if err != nil {
		return nil, storageError("lock round", err)
	}
	if round == nil {
		return nil, fmt.Errorf("%w: round %d", ErrNotFound, current.ID)
	}

	nowMs := now.UnixMilli()
	if round.Status == models.RoundStatusEnded || PhaseAt(round, nowMs, s.config.CrashGrowthRate).Status != models.RoundStatusPending {
		return nil, fmt.Errorf("%w: round %d is already in flight", ErrBettingClosed, round.ID)
	}

	debit, err := Debit(ctx, uow, userID, betAmount, models.TransactionTypeCrashBet, map[string]any{
		"round_id": round.ID,
	})
	if err != nil {
		return nil, err
	}

	bet := &models.CrashBet{
		UserID:     userID,
		RoundID:    round.ID,
		BetAmount:  betAmount,
		CrashPoint: round.CrashPoint,
		StartTime:  round.StartTime,
		Status:     models.CrashBetStatusActive,
	}
	if err := uow.CrashBetRepository().Create(ctx, bet); err != nil {
		return nil, storageError("create crash bet", err)
	}

	uow.EventBus().Publish(events.CrashBetPlacedEvent{
		BetID:     bet.ID,
		UserID:    userID,
		RoundID:   round.ID,
		BetAmount: betAmount,
	})

	if err := uow.Commit(); err != nil {
		return nil, storageError("commit transaction", err)
	}

	log.WithFields(log.Fields{
		"userID":  userID,
		"betID":   bet.ID,
		"roundID": round.ID,
		"amount":  betAmount,
	}).Debug("Placed crash bet")

	return &models.CrashStartResult{
		SessionID: bet.ID,
		RoundID:   round.ID,
		Balance:   debit.Balance,
	}, nil
}

func (s *crashService) Cashout(ctx context.Context, userID int64, sessionID int64) (*models.CashoutResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	// The row lock makes concurrent cashouts of one session run one after another
	bet, err := uow.CrashBetRepository().GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, storageError("lock crash bet", err)
	}
	if bet == nil || bet.UserID != userID {
		return nil, fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}

	if bet.IsTerminal() {
		balance, err := s.currentBalance(ctx, uow, userID)
		if err != nil {
			return nil, err
		}
		result := settledResult(bet, balance)
		result.AlreadySettled = true
		return result, nil
	}

	nowMs := s.now().UnixMilli()
	elapsed := nowMs - bet.StartTime
	if elapsed < 0 {
		return nil, validationError("flight of round %d has not started", bet.RoundID)
	}

	multiplier := MultiplierAt(elapsed, s.config.CrashGrowthRate)
	settledAt := time.UnixMilli(nowMs)
	bet.SettledAt = &settledAt

	var balance int64
	if multiplier >= bet.CrashPoint.InexactFloat64() {
		zero := int64(0)
		loss := -bet.BetAmount
		bet.Status = models.CrashBetStatusBusted
		bet.Payout = &zero
		bet.Profit = &loss

		if err := uow.CrashBetRepository().Settle(ctx, bet); err != nil {
			return nil, storageError("settle crash bet", err)
		}
		if balance, err = s.currentBalance(ctx, uow, userID); err != nil {
			return nil, err
		}
	} else {
		payout := int64(math.Floor(float64(bet.BetAmount) * multiplier))
		profit := payout - bet.BetAmount
		point := TruncateMultiplier(multiplier)
		bet.Status = models.CrashBetStatusCashedOut
		bet.CashoutPoint = &point
		bet.Payout = &payout
		bet.Profit = &profit

		if err := uow.CrashBetRepository().Settle(ctx, bet); err != nil {
			return nil, storageError("settle crash bet", err)
		}

		credit, err := Credit(ctx, uow, userID, payout, models.TransactionTypeCrashWin, map[string]any{
			"round_id":   bet.RoundID,
			"session_id": bet.ID,
			"multiplier": point.StringFixed(2),
		})
		if err != nil {
			return nil, err
		}
		balance = credit.Balance
	}

	result := settledResult(bet, balance)
	uow.EventBus().Publish(events.CrashBetSettledEvent{
		BetID:      bet.ID,
		UserID:     userID,
		RoundID:    bet.RoundID,
		BetAmount:  bet.BetAmount,
		Status:     bet.Status,
		Multiplier: result.Multiplier,
		Payout:     result.Payout,
	})

	if err := uow.Commit(); err != nil {
		return nil, storageError("commit transaction", err)
	}

	log.WithFields(log.Fields{
		"userID":     userID,
		"betID":      bet.ID,
		"status":     bet.Status,
		"multiplier": result.Multiplier.StringFixed(2),
		"payout":     result.Payout,
	}).Debug("Settled crash bet")

	return result, nil
}

func (s *crashService) currentBalance(ctx context.Context, uow UnitOfWork, userID int64) (int64, error) {
	balance, err := uow.BalanceRepository().Get(ctx, userID)
	if err != nil {
		return 0, storageError("get balance", err)
	}
	if balance == nil {
		return 0, fmt.Errorf("%w: no account for user %d", ErrNotFound, userID)
	}
	return balance.Stars, nil
}

// settledResult rebuilds the outcome from what was stored on the bet
func settledResult(bet *models.CrashBet, balance int64) *models.CashoutResult {
	result := &models.CashoutResult{
		SessionID: bet.ID,
		Won:       bet.Status == models.CrashBetStatusCashedOut,
		Balance:   balance,
	}
	if bet.Payout != nil {
		result.Payout = *bet.Payout
	}
	if result.Won && bet.CashoutPoint != nil {
		result.Multiplier = *bet.CashoutPoint
	} else {
		result.Multiplier = bet.CrashPoint
	}
	return result
}

func (s *crashService) SweepExpired(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		return 0, validationError("sweep limit must be positive, got %d", limit)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	nowMs := s.now().UnixMilli()
	bets, err := uow.CrashBetRepository().GetExpiredActive(ctx, nowMs, s.config.CrashGrowthRate, limit)
	if err != nil {
		return 0, storageError("get expired bets", err)
	}

	swept := 0
	for _, bet := range bets {
		if MultiplierAt(nowMs-bet.StartTime, s.config.CrashGrowthRate) < bet.CrashPoint.InexactFloat64() {
			continue
		}

		zero := int64(0)
		loss := -bet.BetAmount
		settledAt := time.UnixMilli(nowMs)
		bet.Status = models.CrashBetStatusBusted
		bet.Payout = &zero
		bet.Profit = &loss
		bet.SettledAt = &settledAt

		if err := uow.CrashBetRepository().Settle(ctx, bet); err != nil {
			return 0, storageError("settle crash bet", err)
		}
		uow.EventBus().Publish(events.CrashBetSettledEvent{
			BetID:      bet.ID,
			UserID:     bet.UserID,
			RoundID:    bet.RoundID,
			BetAmount:  bet.BetAmount,
			Status:     bet.Status,
			Multiplier: bet.CrashPoint,
		})
		swept++
	}

	if err := uow.Commit(); err != nil {
		return 0, storageError("commit transaction", err)
	}

	if swept > 0 {
		log.WithField("count", swept).Info("Busted expired crash bets")
	}
	return swept, nil
}

func (s *crashService) Session(ctx context.Context, userID int64, sessionID int64) (*models.RoundBet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	bet, err := uow.CrashBetRepository().GetByID(ctx, sessionID)
	if err != nil {
		return nil, storageError("get crash bet", err)
	}
	if bet == nil || bet.UserID != userID {
		return nil, fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
	}

	view := roundBetFrom(bet)
	return &view, nil
}

// roundBetFrom is the public view of a bet; the crash point stays hidden
func roundBetFrom(bet *models.CrashBet) models.RoundBet {
	return models.RoundBet{
		BetID:        bet.ID,
		UserID:       bet.UserID,
		BetAmount:    bet.BetAmount,
		Status:       bet.Status,
		CashoutPoint: bet.CashoutPoint,
		Payout:       bet.Payout,
	}
}
