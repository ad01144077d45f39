package hook

import (
	"context"
	"errors"

	"github.com/storefront/checkout/internal/core/domain"
)

var errNoItems = errors.New("basket has no purchasable items")

// NoopPaymentProcessor is the fallback when no payment integration is
// registered: it accepts any instrument and authorizes synchronously.
type NoopPaymentProcessor struct{}

func (NoopPaymentProcessor) Handle(_ context.Context, basket *domain.Basket, info domain.PaymentInformation) error {
	basket.PaymentInfo = &info
	return nil
}

func (NoopPaymentProcessor) Authorize(_ context.Context, _ *domain.Order) (domain.PaymentAuthResult, error) {
	return domain.PaymentAuthResult{State: domain.AuthStateAuthorized}, nil
}

func (NoopPaymentProcessor) ValidateIntent(_ context.Context, _ *domain.Order) error {
	return nil
}

// PassFraudDetector passes every order.
type PassFraudDetector struct{}

func (PassFraudDetector) Screen(_ context.Context, _ *domain.Order) domain.FraudResult {
	return domain.FraudResult{Status: domain.FraudStatusPass}
}

// AcceptOrderValidator applies no extra business rules.
type AcceptOrderValidator struct{}

func (AcceptOrderValidator) ValidateOrder(_ context.Context, _ *domain.Basket) error {
	return nil
}

// AvailabilityProductValidator rejects empty baskets and line items flagged
// unavailable since they were added.
type AvailabilityProductValidator struct{}

func (AvailabilityProductValidator) ValidateProducts(_ context.Context, basket *domain.Basket) error {
	if len(basket.Items) == 0 {
		return errNoItems
	}
	for _, item := range basket.Items {
		if !item.Available || item.Quantity <= 0 {
			return errors.New("product no longer available: " + item.ProductID)
		}
	}
	return nil
}

// DefaultPaymentFormProcessor reads the method and instrument token straight
// off the form without provider-side validation.
type DefaultPaymentFormProcessor struct{}

func (DefaultPaymentFormProcessor) ProcessForm(_ context.Context, form map[string]string) PaymentFormResult {
	method := form["paymentMethod"]
	if method == "" {
		return PaymentFormResult{
			FieldErrors: map[string]string{"paymentMethod": "payment method is required"},
		}
	}
	return PaymentFormResult{
		Info: domain.PaymentInformation{
			MethodID:        method,
			InstrumentToken: form["instrumentToken"],
			CardLast4:       form["cardLast4"],
		},
	}
}
