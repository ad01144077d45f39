package notify

import (
	"context"
	"log"

	"github.com/storefront/checkout/internal/core/domain"
)

// LogNotifier stands in for the mail service: it records the confirmation
// dispatch instead of sending anything.
type LogNotifier struct{}

func (LogNotifier) SendOrderConfirmation(_ context.Context, order *domain.Order) error {
	log.Printf("notify: order confirmation for %s to %s (total %s %s)",
		order.OrderNo, order.CustomerEmail, order.Totals.GrandTotal.String(), order.Currency)
	return nil
}
