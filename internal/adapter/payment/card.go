package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/storefront/checkout/internal/core/domain"
)

var errNoInstrument = errors.New("no payment instrument attached")

// CardProcessor authorizes synchronously against a tokenized card. The
// provider call is represented by the Decline hook so integrations and
// tests can force a declined instrument.
type CardProcessor struct {
	// Decline reports whether the provider declines the instrument.
	// A nil Decline approves everything.
	Decline func(info domain.PaymentInformation) bool
}

func (p *CardProcessor) Handle(_ context.Context, basket *domain.Basket, info domain.PaymentInformation) error {
	if info.InstrumentToken == "" {
		return errNoInstrument
	}
	basket.PaymentInfo = &info
	return nil
}

func (p *CardProcessor) Authorize(_ context.Context, order *domain.Order) (domain.PaymentAuthResult, error) {
	if order.PaymentInfo == nil {
		return domain.PaymentAuthResult{}, errNoInstrument
	}
	if p.Decline != nil && p.Decline(*order.PaymentInfo) {
		return domain.PaymentAuthResult{State: domain.AuthStateDeclined}, nil
	}
	return domain.PaymentAuthResult{
		State:         domain.AuthStateAuthorized,
		TransactionID: uuid.NewString(),
	}, nil
}

// ValidateIntent never runs for card payments; they settle inline.
func (p *CardProcessor) ValidateIntent(_ context.Context, _ *domain.Order) error {
	return nil
}
