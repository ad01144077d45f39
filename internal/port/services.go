package port

import (
	"context"

	"github.com/storefront/checkout/internal/core/domain"
)

// PricingEngine recomputes totals for a basket. Implementations must be
// pure with respect to basket state: same basket in, same totals out.
type PricingEngine interface {
	Calculate(ctx context.Context, basket *domain.Basket) (domain.Totals, error)
}

// AddressBook persists a registered customer's shipping addresses.
type AddressBook interface {
	Stored(ctx context.Context, customerID string) ([]domain.Address, error)
	Save(ctx context.Context, customerID, name string, address domain.Address) error
}

// Notifier dispatches order-confirmation messages. Send failures are the
// caller's to log; they never fail a placed order.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, order *domain.Order) error
}
