package payments

import (
	"context"
	"errors"
	"fmt"

	"starsgame/models"
	"starsgame/service"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

const (
	// CurrencyStars is the Telegram currency code of Stars
	CurrencyStars = "XTR"

	// TopUpPayload marks invoices issued for balance top-ups
	TopUpPayload = "starsgame:topup"
)

// ErrNotStarsPayment is returned for a payment in any currency other than Stars
var ErrNotStarsPayment = errors.New("payment is not in Telegram Stars")

// StarsTopUp credits balances from Telegram Stars payments
type StarsTopUp struct {
	ledger service.LedgerService
}

// NewStarsTopUp creates a Stars top-up handler on top of the ledger
func NewStarsTopUp(ledger service.LedgerService) *StarsTopUp {
	return &StarsTopUp{ledger: ledger}
}

// AnswerPreCheckout decides whether Telegram may charge the user.
// The returned params are sent back with AnswerPreCheckoutQuery.
func (s *StarsTopUp) AnswerPreCheckout(query *telego.PreCheckoutQuery) *telego.AnswerPreCheckoutQueryParams {
	answer := &telego.AnswerPreCheckoutQueryParams{
		PreCheckoutQueryID: query.ID,
		Ok:                 true,
	}

	switch {
	case query.Currency != CurrencyStars:
		answer.Ok = false
		answer.ErrorMessage = "Only Telegram Stars are accepted"
	case query.InvoicePayload != TopUpPayload:
		answer.Ok = false
		answer.ErrorMessage = "This invoice is no longer valid"
	case query.TotalAmount <= 0:
		answer.Ok = false
		answer.ErrorMessage = "Invalid amount"
	}

	if !answer.Ok {
		log.WithFields(log.Fields{
			"queryID":  query.ID,
			"userID":   query.From.ID,
			"currency": query.Currency,
			"amount":   query.TotalAmount,
			"reason":   answer.ErrorMessage,
		}).Warn("Rejected pre-checkout query")
	}
	return answer
}

// HandleMessage credits the payment carried by a service message, if any
func (s *StarsTopUp) HandleMessage(ctx context.Context, msg *telego.Message) (*models.TopUpResult, error) {
	if msg == nil || msg.SuccessfulPayment == nil {
		return nil, nil
	}
	if msg.From == nil {
		return nil, fmt.Errorf("%w: payment message without sender", service.ErrValidation)
	}
	return s.HandleSuccessfulPayment(ctx, msg.From.ID, msg.SuccessfulPayment)
}

// HandleSuccessfulPayment credits a completed Stars payment. Telegram may
// deliver the same payment more than once; the charge id makes the credit
// happen only on the first delivery.
func (s *StarsTopUp) HandleSuccessfulPayment(ctx context.Context, userID int64, payment *telego.SuccessfulPayment) (*models.TopUpResult, error) {
	if payment == nil {
		return nil, fmt.Errorf("%w: missing payment", service.ErrValidation)
	}
	if payment.Currency != CurrencyStars {
		return nil, fmt.Errorf("%w: got %s", ErrNotStarsPayment, payment.Currency)
	}
	if payment.TelegramPaymentChargeID == "" {
		return nil, fmt.Errorf("%w: payment without charge id", service.ErrValidation)
	}

	result, err := s.ledger.TopUp(ctx, userID, int64(payment.TotalAmount), payment.TelegramPaymentChargeID, map[string]any{
		"source":          "telegram_stars",
		"invoice_payload": payment.InvoicePayload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to top up from payment %s: %w", payment.TelegramPaymentChargeID, err)
	}

	log.WithFields(log.Fields{
		"userID":   userID,
		"chargeID": payment.TelegramPaymentChargeID,
		"amount":   payment.TotalAmount,
		"applied":  result.Applied,
	}).Info("Processed Stars payment")

	return result, nil
}
