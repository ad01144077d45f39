package port

import (
	"context"

	"github.com/storefront/checkout/internal/core/domain"
)

// BasketRepository stores the in-progress basket per session.
type BasketRepository interface {
	// Current returns the session's basket, or nil when none exists.
	Current(ctx context.Context, sessionID string) (*domain.Basket, error)

	// Save replaces the stored basket atomically.
	Save(ctx context.Context, basket *domain.Basket) error

	// Clear removes the basket after successful placement.
	Clear(ctx context.Context, sessionID string) error
}

// SessionCache is the session-scoped key/value store used for short-lived
// checkout flags such as usingMultiShipping and fraudDetectionStatus.
type SessionCache interface {
	GetFlag(ctx context.Context, sessionID, key string) (bool, error)
	SetFlag(ctx context.Context, sessionID, key string, value bool) error
}
