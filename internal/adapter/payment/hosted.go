package payment

import (
	"context"
	"errors"
	"net/url"

	"github.com/storefront/checkout/internal/core/domain"
)

var errIntentUnsettled = errors.New("payment intent not settled by provider")

// HostedProcessor hands the customer off to a provider-hosted payment page.
// Authorization always suspends with a redirect; the intent is verified when
// the customer returns through the resumption handler.
type HostedProcessor struct {
	// ProviderURL is the hosted page base, e.g. https://pay.example.com/session.
	ProviderURL string

	// VerifyIntent checks with the provider that the out-of-band
	// authorization actually succeeded. A nil VerifyIntent accepts every
	// returning order.
	VerifyIntent func(ctx context.Context, order *domain.Order) error
}

func (p *HostedProcessor) Handle(_ context.Context, basket *domain.Basket, info domain.PaymentInformation) error {
	basket.PaymentInfo = &info
	return nil
}

// Authorize builds the provider hand-off URL. The order number and token in
// the query are what the provider echoes back into the resumption link.
func (p *HostedProcessor) Authorize(_ context.Context, order *domain.Order) (domain.PaymentAuthResult, error) {
	q := url.Values{}
	q.Set("orderNo", order.OrderNo)
	q.Set("token", order.Token)
	q.Set("amount", order.Totals.GrandTotal.String())
	q.Set("currency", order.Currency)

	return domain.PaymentAuthResult{
		State:       domain.AuthStatePendingRedirect,
		RedirectURL: p.ProviderURL + "?" + q.Encode(),
	}, nil
}

func (p *HostedProcessor) ValidateIntent(ctx context.Context, order *domain.Order) error {
	if p.VerifyIntent == nil {
		return nil
	}
	if err := p.VerifyIntent(ctx, order); err != nil {
		return errors.Join(errIntentUnsettled, err)
	}
	return nil
}
