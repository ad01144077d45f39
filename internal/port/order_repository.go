package port

import (
	"context"

	"github.com/storefront/checkout/internal/core/domain"
)

// OrderRepository owns order persistence. Every status transition runs in
// its own transactional scope and is guarded by the order's current status,
// so a stale caller can never move a placed or failed order.
type OrderRepository interface {
	// Create persists the snapshot and assigns the order number.
	Create(ctx context.Context, order *domain.Order) error

	// GetByNumber loads an order, or nil when no such order exists.
	GetByNumber(ctx context.Context, orderNo string) (*domain.Order, error)

	// MarkPaymentPending transitions created -> payment-pending.
	MarkPaymentPending(ctx context.Context, orderNo string) error

	// Place transitions created/payment-pending -> placed, recording the
	// authorization transaction when one settled inline.
	Place(ctx context.Context, orderNo, transactionID string) error

	// Fail transitions created/payment-pending -> failed. Failed is terminal.
	Fail(ctx context.Context, orderNo string) error

	// MarkAuthorizedUnplaced parks an authorized order whose finalization
	// failed, for out-of-band reconciliation.
	MarkAuthorizedUnplaced(ctx context.Context, orderNo string) error

	// ListPlacedByCustomer returns only placed orders; orders that never
	// reached placed stay invisible to customer-facing listings.
	ListPlacedByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
}
