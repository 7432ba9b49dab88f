package service

import (
	"context"
	"fmt"

	"starsgame/config"
	"starsgame/events"
	"starsgame/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type lotteryService struct {
	uowFactory UnitOfWorkFactory
	catalog    CaseCatalog
	config     *config.Config
	rng        RandomSource
}

// NewLotteryService creates a new case opening service
func NewLotteryService(uowFactory UnitOfWorkFactory, catalog CaseCatalog, cfg *config.Config, rng RandomSource) LotteryService {
	return &lotteryService{
		uowFactory: uowFactory,
		catalog:    catalog,
		config:     cfg,
		rng:        rng,
	}
}

func (s *lotteryService) Open(ctx context.Context, userID int64, caseID string) (*models.OpenResult, error) {
	if caseID == "" {
		return nil, validationError("case id is required")
	}

	def, ok := s.catalog.Get(caseID)
	if !ok {
		return nil, fmt.Errorf("%w: case %q", ErrNotFound, caseID)
	}
	// Everything below works on the price as it was when the case was loaded
	price := def.Price

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	debit, err := Debit(ctx, uow, userID, price, models.TransactionTypeCaseOpen, map[string]any{
		"case_id": caseID,
		"price":   price,
	})
	if err != nil {
		return nil, err
	}

	pity, err := uow.PityRepository().GetForUpdate(ctx, userID, caseID)
	if err != nil {
		return nil, storageError("lock pity state", err)
	}

	lossBefore := pity.LossCount
	item, guaranteed, err := s.draw(def, price, lossBefore)
	if err != nil {
		return nil, err
	}

	lossCount := NextLossCount(lossBefore, item, price)
	if err := uow.PityRepository().Upsert(ctx, userID, caseID, lossCount); err != nil {
		return nil, storageError("update pity state", err)
	}

	open := &models.CaseOpen{
		ID:              uuid.New(),
		UserID:          userID,
		CaseID:          caseID,
		CasePrice:       price,
		ItemID:          item.ID,
		ItemName:        item.Name,
		ItemValue:       item.Value,
		Rare:            item.Rare,
		Guaranteed:      guaranteed,
		LossCountBefore: lossBefore,
		BalanceTxID:     debit.Entry.ID,
	}
	if err := uow.CaseOpenRepository().Create(ctx, open); err != nil {
		return nil, storageError("record case open", err)
	}

	if err := uow.InventoryRepository().Create(ctx, &models.InventoryEntry{
		UserID:     userID,
		ItemID:     item.ID,
		ItemName:   item.Name,
		Value:      item.Value,
		CaseOpenID: open.ID,
	}); err != nil {
		return nil, storageError("grant item", err)
	}

	uow.EventBus().Publish(events.CaseOpenedEvent{
		OpenID:     open.ID,
		UserID:     userID,
		CaseID:     caseID,
		CasePrice:  price,
		ItemID:     item.ID,
		ItemName:   item.Name,
		ItemValue:  item.Value,
		Rare:       item.Rare,
		Guaranteed: guaranteed,
	})

	if err := uow.Commit(); err != nil {
		return nil, storageError("commit transaction", err)
	}

	log.WithFields(log.Fields{
		"userID":     userID,
		"caseID":     caseID,
		"itemID":     item.ID,
		"value":      item.Value,
		"guaranteed": guaranteed,
		"lossCount":  lossCount,
	}).Debug("Opened case")

	return &models.OpenResult{
		OpenID:     open.ID,
		Item:       item,
		Balance:    debit.Balance,
		Guaranteed: guaranteed,
		LossCount:  lossCount,
	}, nil
}

func (s *lotteryService) draw(def *models.CaseDefinition, price int64, lossCount int) (models.CaseItem, bool, error) {
	if lossCount >= s.config.PityThreshold {
		if item, ok := PityDraw(def.Items, price, s.rng, s.config.PityCheapestChance); ok {
			return item, true, nil
		}
	}

	item, ok := DrawItem(def.Items, s.rng)
	if !ok {
		return models.CaseItem{}, false, validationError("case %q has no drawable items", def.ID)
	}
	return item, false, nil
}

func (s *lotteryService) PityCount(ctx context.Context, userID int64, caseID string) (int, error) {
	if _, ok := s.catalog.Get(caseID); !ok {
		return 0, fmt.Errorf("%w: case %q", ErrNotFound, caseID)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	count, err := uow.PityRepository().Get(ctx, userID, caseID)
	if err != nil {
		return 0, storageError("get pity state", err)
	}
	return count, nil
}

func (s *lotteryService) GetOpen(ctx context.Context, userID int64, openID uuid.UUID) (*models.CaseOpen, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	open, err := uow.CaseOpenRepository().GetByID(ctx, openID)
	if err != nil {
		return nil, storageError("get case open", err)
	}
	if open == nil || open.UserID != userID {
		return nil, fmt.Errorf("%w: case open %s", ErrNotFound, openID)
	}
	return open, nil
}

func (s *lotteryService) Inventory(ctx context.Context, userID int64, limit int) ([]*models.InventoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, storageError("begin transaction", err)
	}
	defer uow.Rollback()

	entries, err := uow.InventoryRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, storageError("get inventory", err)
	}
	return entries, nil
}
