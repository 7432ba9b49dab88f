package infrastructure

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"starsgame/events"
	"starsgame/models"

	log "github.com/sirupsen/logrus"
)

// LiveFeedPublisher forwards committed game events to the public live feed.
// A failed publish is logged and dropped; the game operation already committed.
type LiveFeedPublisher struct {
	publisher MessagePublisher
	now       func() time.Time
}

// NewLiveFeedPublisher creates a live feed publisher on top of a message bus
func NewLiveFeedPublisher(publisher MessagePublisher) *LiveFeedPublisher {
	return &LiveFeedPublisher{
		publisher: publisher,
		now:       time.Now,
	}
}

// Register subscribes the publisher to the events it forwards
func (p *LiveFeedPublisher) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTypeCaseOpened, p.Handle)
	bus.Subscribe(events.EventTypeCrashBetSettled, p.Handle)
}

// Handle is an events.Handler
func (p *LiveFeedPublisher) Handle(ctx context.Context, event events.Event) {
	subject, payload, ok := p.message(event)
	if !ok {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to marshal live feed message")
		return
	}

	if err := p.publisher.Publish(ctx, subject, data); err != nil {
		// A stream that is not provisioned yet answers with no responders
		if strings.Contains(err.Error(), "no response from stream") {
			return
		}
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"subject":   subject,
			"error":     err,
		}).Warn("Failed to publish live feed message")
	}
}

func (p *LiveFeedPublisher) message(event events.Event) (string, any, bool) {
	switch e := event.(type) {
	case events.CaseOpenedEvent:
		return SubjectLiveDrops, DropFromEvent(e, p.now()), true
	case events.CrashBetSettledEvent:
		if e.Status != models.CrashBetStatusCashedOut {
			return "", nil, false
		}
		return SubjectLiveCrash, models.LiveCashout{
			UserID:     e.UserID,
			RoundID:    e.RoundID,
			BetAmount:  e.BetAmount,
			Multiplier: e.Multiplier,
			Payout:     e.Payout,
			CashedAt:   p.now().UTC(),
		}, true
	default:
		log.WithField("eventType", event.Type()).Debug("Live feed ignores event")
		return "", nil, false
	}
}

// DropFromEvent builds the public view of an opened case
func DropFromEvent(e events.CaseOpenedEvent, at time.Time) models.LiveDrop {
	return models.LiveDrop{
		UserID:    e.UserID,
		CaseID:    e.CaseID,
		ItemName:  e.ItemName,
		ItemValue: e.ItemValue,
		Rare:      e.Rare,
		DroppedAt: at.UTC(),
	}
}
