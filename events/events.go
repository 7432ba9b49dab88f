package events

import (
	"context"
	"sync"

	"starsgame/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange   EventType = "balance_change"
	EventTypeRoundCreated    EventType = "round_created"
	EventTypeCrashBetPlaced  EventType = "crash_bet_placed"
	EventTypeCrashBetSettled EventType = "crash_bet_settled"
	EventTypeCaseOpened      EventType = "case_opened"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent is emitted for every ledger entry
type BalanceChangeEvent struct {
	UserID          int64
	TransactionID   int64
	OldBalance      int64
	NewBalance      int64
	TransactionType models.TransactionType
	ChangeAmount    int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// RoundCreatedEvent is emitted when the crash round rotates.
// The crash point is deliberately absent.
type RoundCreatedEvent struct {
	RoundID         int64
	PreviousRoundID int64
	StartTime       int64
}

func (e RoundCreatedEvent) Type() EventType {
	return EventTypeRoundCreated
}

// CrashBetPlacedEvent is emitted when a user joins a round
type CrashBetPlacedEvent struct {
	BetID     int64
	UserID    int64
	RoundID   int64
	BetAmount int64
}

func (e CrashBetPlacedEvent) Type() EventType {
	return EventTypeCrashBetPlaced
}

// CrashBetSettledEvent is emitted when a bet is cashed out or busted
type CrashBetSettledEvent struct {
	BetID      int64
	UserID     int64
	RoundID    int64
	BetAmount  int64
	Status     models.CrashBetStatus
	Multiplier decimal.Decimal
	Payout     int64
}

func (e CrashBetSettledEvent) Type() EventType {
	return EventTypeCrashBetSettled
}

// CaseOpenedEvent is emitted after a case opening commits
type CaseOpenedEvent struct {
	OpenID     uuid.UUID
	UserID     int64
	CaseID     string
	CasePrice  int64
	ItemID     string
	ItemName   string
	ItemValue  int64
	Rare       bool
	Guaranteed bool
}

func (e CaseOpenedEvent) Type() EventType {
	return EventTypeCaseOpened
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	inflight sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit delivers an event to every handler of its type. Handlers run on their
// own goroutines so a slow collaborator never blocks a game operation.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event")

	for i, handler := range handlers {
		b.inflight.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started so far has returned
func (b *Bus) Wait() {
	b.inflight.Wait()
}

// TransactionalBus holds events raised inside a unit of work until the
// transaction commits, then forwards them to the real bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Queued event until commit")
	b.pending = append(b.pending, e)
}

// Pending returns the number of queued events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// Flush is called after a successful commit. Handlers get a fresh context
// because the request context may already be cancelled by the time they run.
func (b *TransactionalBus) Flush(_ context.Context) {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops queued events after a rollback
func (b *TransactionalBus) Discard() {
	if len(b.pending) > 0 {
		log.WithField("discarded", len(b.pending)).Debug("Discarded events of rolled back transaction")
	}
	b.pending = nil
}
