package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"starsgame/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan BalanceChangeEvent, 1)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		if balanceEvent, ok := event.(BalanceChangeEvent); ok {
			eventReceived <- balanceEvent
		} else {
			t.Errorf("Expected BalanceChangeEvent, got %T", event)
		}
	})

	testEvent := BalanceChangeEvent{
		UserID:          123456,
		TransactionID:   7,
		OldBalance:      1000,
		NewBalance:      1182,
		TransactionType: models.TransactionTypeCrashWin,
		ChangeAmount:    182,
	}

	transactionalBus.Publish(testEvent)
	assert.Equal(t, 1, transactionalBus.Pending())

	transactionalBus.Flush(context.Background())
	mainBus.Wait()

	select {
	case received := <-eventReceived:
		assert.Equal(t, testEvent, received)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
	assert.Equal(t, 0, transactionalBus.Pending())
}

func TestMultipleEventsDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var mu sync.Mutex
	received := make(map[EventType]int)
	record := func(ctx context.Context, event Event) {
		mu.Lock()
		defer mu.Unlock()
		received[event.Type()]++
	}
	mainBus.Subscribe(EventTypeCrashBetPlaced, record)
	mainBus.Subscribe(EventTypeCrashBetSettled, record)
	mainBus.Subscribe(EventTypeCaseOpened, record)

	transactionalBus.Publish(CrashBetPlacedEvent{BetID: 1, UserID: 1, RoundID: 10, BetAmount: 100})
	transactionalBus.Publish(CrashBetSettledEvent{BetID: 1, UserID: 1, RoundID: 10, Status: models.CrashBetStatusBusted})
	transactionalBus.Publish(CaseOpenedEvent{UserID: 2, CaseID: "starter", ItemName: "Bear"})
	transactionalBus.Publish(CaseOpenedEvent{UserID: 3, CaseID: "starter", ItemName: "Rocket", Rare: true})

	transactionalBus.Flush(context.Background())
	mainBus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, received[EventTypeCrashBetPlaced])
	assert.Equal(t, 1, received[EventTypeCrashBetSettled])
	assert.Equal(t, 2, received[EventTypeCaseOpened])
}

func TestTransactionalBusDiscard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan bool, 1)
	mainBus.Subscribe(EventTypeCaseOpened, func(ctx context.Context, event Event) {
		eventReceived <- true
	})

	transactionalBus.Publish(CaseOpenedEvent{UserID: 1, CaseID: "starter"})
	transactionalBus.Discard()
	transactionalBus.Flush(context.Background())
	mainBus.Wait()

	select {
	case <-eventReceived:
		t.Fatal("Event was received despite being discarded")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBusRecoversFromPanickingHandler(t *testing.T) {
	bus := NewBus()

	delivered := make(chan struct{}, 1)
	bus.Subscribe(EventTypeRoundCreated, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeRoundCreated, func(ctx context.Context, event Event) {
		delivered <- struct{}{}
	})

	require.NotPanics(t, func() {
		bus.Emit(context.Background(), RoundCreatedEvent{RoundID: 2, PreviousRoundID: 1})
		bus.Wait()
	})

	select {
	case <-delivered:
	default:
		t.Fatal("healthy handler did not run")
	}
}
